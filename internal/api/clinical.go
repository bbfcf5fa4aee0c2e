package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/pkg/pagination"
)

// -- Prescription handlers --

func (h *Handler) CreatePrescription(c echo.Context) error {
	var p model.Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id, err := h.st.Prescriptions().Insert(c.Request().Context(), p)
	if err != nil {
		return h.writeError(c, err)
	}
	created, err := h.st.Prescriptions().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.st.Prescriptions().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	patientID, err := qInt64(c, "patient_id")
	if err != nil {
		return err
	}
	doctorID, err := qInt64(c, "doctor_id")
	if err != nil {
		return err
	}
	appointmentID, err := qInt64(c, "appointment_id")
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
	f := model.PrescriptionFilter{
		PatientID:     patientID,
		DoctorID:      doctorID,
		AppointmentID: appointmentID,
		From:          from,
		To:            to,
	}
	rows, err := h.st.Prescriptions().Find(c.Request().Context(), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.Window(rows, pagination.FromContext(c)))
}

func (h *Handler) UpdatePrescription(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var p model.PrescriptionPatch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.st.Prescriptions().Update(c.Request().Context(), id, p); err != nil {
		return h.writeError(c, err)
	}
	row, err := h.st.Prescriptions().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, row)
}

func (h *Handler) DeletePrescription(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.st.Prescriptions().Delete(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Prescription item (junction) handlers --

func (h *Handler) AddPrescriptionItem(c echo.Context) error {
	prescriptionID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var it model.PrescriptionItem
	if err := c.Bind(&it); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	it.PrescriptionID = prescriptionID
	if err := h.st.PrescriptionItems().Insert(c.Request().Context(), it); err != nil {
		return h.writeError(c, err)
	}
	created, err := h.st.PrescriptionItems().Get(c.Request().Context(), prescriptionID, it.MedicationID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetPrescriptionItem(c echo.Context) error {
	prescriptionID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	medicationID, err := pathID(c, "medicationID")
	if err != nil {
		return err
	}
	it, err := h.st.PrescriptionItems().Get(c.Request().Context(), prescriptionID, medicationID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *Handler) ListPrescriptionItems(c echo.Context) error {
	prescriptionID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rows, err := h.st.PrescriptionItems().ListByPrescription(c.Request().Context(), prescriptionID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *Handler) UpdatePrescriptionItem(c echo.Context) error {
	prescriptionID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	medicationID, err := pathID(c, "medicationID")
	if err != nil {
		return err
	}
	var p model.PrescriptionItemPatch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.st.PrescriptionItems().Update(c.Request().Context(), prescriptionID, medicationID, p); err != nil {
		return h.writeError(c, err)
	}
	it, err := h.st.PrescriptionItems().Get(c.Request().Context(), prescriptionID, medicationID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *Handler) DeletePrescriptionItem(c echo.Context) error {
	prescriptionID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	medicationID, err := pathID(c, "medicationID")
	if err != nil {
		return err
	}
	if err := h.st.PrescriptionItems().Delete(c.Request().Context(), prescriptionID, medicationID); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
