package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/pkg/pagination"
)

// -- User handlers --

func (h *Handler) CreateUser(c echo.Context) error {
	// PasswordHash never appears in responses, so the create request carries
	// its own field list rather than binding model.User directly.
	var req struct {
		Username     string `json:"username"`
		Email        string `json:"email"`
		PasswordHash string `json:"password_hash"`
		Name         string `json:"name"`
		RoleID       int64  `json:"role_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u := model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: req.PasswordHash,
		Name:         req.Name,
		RoleID:       req.RoleID,
	}
	id, err := h.st.Users().Insert(c.Request().Context(), u)
	if err != nil {
		return h.writeError(c, err)
	}
	created, err := h.st.Users().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.st.Users().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListUsers(c echo.Context) error {
	roleID, err := qInt64(c, "role_id")
	if err != nil {
		return err
	}
	f := model.UserFilter{
		Username: qString(c, "username"),
		Email:    qString(c, "email"),
		RoleID:   roleID,
	}
	rows, err := h.st.Users().Find(c.Request().Context(), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.Window(rows, pagination.FromContext(c)))
}

func (h *Handler) UpdateUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var p model.UserPatch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.st.Users().Update(c.Request().Context(), id, p); err != nil {
		return h.writeError(c, err)
	}
	u, err := h.st.Users().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.st.Users().Delete(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Patient handlers --

func (h *Handler) CreatePatient(c echo.Context) error {
	var p model.Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id, err := h.st.Patients().Insert(c.Request().Context(), p)
	if err != nil {
		return h.writeError(c, err)
	}
	created, err := h.st.Patients().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.st.Patients().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	f := model.PatientFilter{
		FirstName:  qString(c, "first_name"),
		LastName:   qString(c, "last_name"),
		Gender:     qString(c, "gender"),
		NationalID: qString(c, "national_id"),
	}
	rows, err := h.st.Patients().Find(c.Request().Context(), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.Window(rows, pagination.FromContext(c)))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var p model.PatientPatch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.st.Patients().Update(c.Request().Context(), id, p); err != nil {
		return h.writeError(c, err)
	}
	row, err := h.st.Patients().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, row)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.st.Patients().Delete(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Doctor handlers --

func (h *Handler) CreateDoctor(c echo.Context) error {
	var d model.Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id, err := h.st.Doctors().Insert(c.Request().Context(), d)
	if err != nil {
		return h.writeError(c, err)
	}
	created, err := h.st.Doctors().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.st.Doctors().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	userID, err := qInt64(c, "user_id")
	if err != nil {
		return err
	}
	f := model.DoctorFilter{
		Specialization: qString(c, "specialization"),
		LicenseNumber:  qString(c, "license_number"),
		UserID:         userID,
	}
	rows, err := h.st.Doctors().Find(c.Request().Context(), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.Window(rows, pagination.FromContext(c)))
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var p model.DoctorPatch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.st.Doctors().Update(c.Request().Context(), id, p); err != nil {
		return h.writeError(c, err)
	}
	d, err := h.st.Doctors().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.st.Doctors().Delete(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
