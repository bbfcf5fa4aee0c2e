package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/pkg/pagination"
)

// -- Appointment handlers --

func (h *Handler) CreateAppointment(c echo.Context) error {
	var a model.Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id, err := h.st.Appointments().Insert(c.Request().Context(), a)
	if err != nil {
		return h.writeError(c, err)
	}
	created, err := h.st.Appointments().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.st.Appointments().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	patientID, err := qInt64(c, "patient_id")
	if err != nil {
		return err
	}
	doctorID, err := qInt64(c, "doctor_id")
	if err != nil {
		return err
	}
	roomID, err := qInt64(c, "room_id")
	if err != nil {
		return err
	}
	createdBy, err := qInt64(c, "created_by")
	if err != nil {
		return err
	}
	from, err := qTime(c, "from")
	if err != nil {
		return err
	}
	to, err := qTime(c, "to")
	if err != nil {
		return err
	}
	f := model.AppointmentFilter{
		PatientID: patientID,
		DoctorID:  doctorID,
		RoomID:    roomID,
		Status:    qString(c, "status"),
		From:      from,
		To:        to,
		CreatedBy: createdBy,
	}
	rows, err := h.st.Appointments().Find(c.Request().Context(), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.Window(rows, pagination.FromContext(c)))
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var p model.AppointmentPatch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.st.Appointments().Update(c.Request().Context(), id, p); err != nil {
		return h.writeError(c, err)
	}
	a, err := h.st.Appointments().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.st.Appointments().Delete(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AppointmentView serves the read-only composite view.
func (h *Handler) AppointmentView(c echo.Context) error {
	patientID, err := qInt64(c, "patient_id")
	if err != nil {
		return err
	}
	doctorID, err := qInt64(c, "doctor_id")
	if err != nil {
		return err
	}
	from, err := qTime(c, "from")
	if err != nil {
		return err
	}
	to, err := qTime(c, "to")
	if err != nil {
		return err
	}
	f := model.AppointmentViewFilter{
		PatientID:       patientID,
		DoctorID:        doctorID,
		Status:          qString(c, "status"),
		From:            from,
		To:              to,
		Specialization:  qString(c, "specialization"),
		PatientLastName: qString(c, "patient_last_name"),
	}
	rows, err := h.st.AppointmentView(c.Request().Context(), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.Window(rows, pagination.FromContext(c)))
}

// -- Appointment service (junction) handlers --

func (h *Handler) AddAppointmentService(c echo.Context) error {
	appointmentID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var as model.AppointmentService
	if err := c.Bind(&as); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	as.AppointmentID = appointmentID
	if err := h.st.AppointmentServices().Insert(c.Request().Context(), as); err != nil {
		return h.writeError(c, err)
	}
	created, err := h.st.AppointmentServices().Get(c.Request().Context(), appointmentID, as.ServiceID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetAppointmentService(c echo.Context) error {
	appointmentID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	serviceID, err := pathID(c, "serviceID")
	if err != nil {
		return err
	}
	as, err := h.st.AppointmentServices().Get(c.Request().Context(), appointmentID, serviceID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, as)
}

func (h *Handler) ListAppointmentServices(c echo.Context) error {
	appointmentID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rows, err := h.st.AppointmentServices().ListByAppointment(c.Request().Context(), appointmentID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *Handler) UpdateAppointmentService(c echo.Context) error {
	appointmentID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	serviceID, err := pathID(c, "serviceID")
	if err != nil {
		return err
	}
	var p model.AppointmentServicePatch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.st.AppointmentServices().Update(c.Request().Context(), appointmentID, serviceID, p); err != nil {
		return h.writeError(c, err)
	}
	as, err := h.st.AppointmentServices().Get(c.Request().Context(), appointmentID, serviceID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, as)
}

func (h *Handler) DeleteAppointmentService(c echo.Context) error {
	appointmentID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	serviceID, err := pathID(c, "serviceID")
	if err != nil {
		return err
	}
	if err := h.st.AppointmentServices().Delete(c.Request().Context(), appointmentID, serviceID); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
