package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/pkg/pagination"
)

// -- Role handlers --

func (h *Handler) CreateRole(c echo.Context) error {
	var r model.Role
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id, err := h.st.Roles().Insert(c.Request().Context(), r)
	if err != nil {
		return h.writeError(c, err)
	}
	created, err := h.st.Roles().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	r, err := h.st.Roles().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ListRoles(c echo.Context) error {
	f := model.RoleFilter{Name: qString(c, "name")}
	rows, err := h.st.Roles().Find(c.Request().Context(), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.Window(rows, pagination.FromContext(c)))
}

func (h *Handler) UpdateRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var p model.RolePatch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.st.Roles().Update(c.Request().Context(), id, p); err != nil {
		return h.writeError(c, err)
	}
	r, err := h.st.Roles().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) DeleteRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.st.Roles().Delete(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Room handlers --

func (h *Handler) CreateRoom(c echo.Context) error {
	var r model.Room
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id, err := h.st.Rooms().Insert(c.Request().Context(), r)
	if err != nil {
		return h.writeError(c, err)
	}
	created, err := h.st.Rooms().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetRoom(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	r, err := h.st.Rooms().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ListRooms(c echo.Context) error {
	f := model.RoomFilter{Name: qString(c, "name")}
	rows, err := h.st.Rooms().Find(c.Request().Context(), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.Window(rows, pagination.FromContext(c)))
}

func (h *Handler) UpdateRoom(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var p model.RoomPatch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.st.Rooms().Update(c.Request().Context(), id, p); err != nil {
		return h.writeError(c, err)
	}
	r, err := h.st.Rooms().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) DeleteRoom(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.st.Rooms().Delete(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Service handlers --

func (h *Handler) CreateService(c echo.Context) error {
	var s model.Service
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id, err := h.st.Services().Insert(c.Request().Context(), s)
	if err != nil {
		return h.writeError(c, err)
	}
	created, err := h.st.Services().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetService(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	s, err := h.st.Services().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) ListServices(c echo.Context) error {
	f := model.ServiceFilter{
		Name: qString(c, "name"),
		Code: qString(c, "code"),
	}
	rows, err := h.st.Services().Find(c.Request().Context(), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.Window(rows, pagination.FromContext(c)))
}

func (h *Handler) UpdateService(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var p model.ServicePatch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.st.Services().Update(c.Request().Context(), id, p); err != nil {
		return h.writeError(c, err)
	}
	s, err := h.st.Services().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) DeleteService(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.st.Services().Delete(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Medication handlers --

func (h *Handler) CreateMedication(c echo.Context) error {
	var m model.Medication
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id, err := h.st.Medications().Insert(c.Request().Context(), m)
	if err != nil {
		return h.writeError(c, err)
	}
	created, err := h.st.Medications().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetMedication(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.st.Medications().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListMedications(c echo.Context) error {
	maxStock, err := qInt(c, "max_stock")
	if err != nil {
		return err
	}
	f := model.MedicationFilter{
		Name:     qString(c, "name"),
		SKU:      qString(c, "sku"),
		MaxStock: maxStock,
	}
	rows, err := h.st.Medications().Find(c.Request().Context(), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.Window(rows, pagination.FromContext(c)))
}

func (h *Handler) UpdateMedication(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var p model.MedicationPatch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.st.Medications().Update(c.Request().Context(), id, p); err != nil {
		return h.writeError(c, err)
	}
	m, err := h.st.Medications().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteMedication(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.st.Medications().Delete(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
