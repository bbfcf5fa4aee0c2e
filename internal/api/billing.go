package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/pkg/pagination"
)

// -- Invoice handlers --

func (h *Handler) CreateInvoice(c echo.Context) error {
	var inv model.Invoice
	if err := c.Bind(&inv); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id, err := h.st.Invoices().Insert(c.Request().Context(), inv)
	if err != nil {
		return h.writeError(c, err)
	}
	created, err := h.st.Invoices().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetInvoice(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	inv, err := h.st.Invoices().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) ListInvoices(c echo.Context) error {
	patientID, err := qInt64(c, "patient_id")
	if err != nil {
		return err
	}
	appointmentID, err := qInt64(c, "appointment_id")
	if err != nil {
		return err
	}
	f := model.InvoiceFilter{
		PatientID:     patientID,
		AppointmentID: appointmentID,
		Status:        qString(c, "status"),
	}
	rows, err := h.st.Invoices().Find(c.Request().Context(), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.Window(rows, pagination.FromContext(c)))
}

func (h *Handler) UpdateInvoice(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var p model.InvoicePatch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.st.Invoices().Update(c.Request().Context(), id, p); err != nil {
		return h.writeError(c, err)
	}
	inv, err := h.st.Invoices().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) DeleteInvoice(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.st.Invoices().Delete(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Invoice item handlers --

func (h *Handler) AddInvoiceItem(c echo.Context) error {
	invoiceID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var it model.InvoiceItem
	if err := c.Bind(&it); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	it.InvoiceID = invoiceID
	id, err := h.st.InvoiceItems().Insert(c.Request().Context(), it)
	if err != nil {
		return h.writeError(c, err)
	}
	created, err := h.st.InvoiceItems().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetInvoiceItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	it, err := h.st.InvoiceItems().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *Handler) ListInvoiceItems(c echo.Context) error {
	invoiceID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rows, err := h.st.InvoiceItems().ListByInvoice(c.Request().Context(), invoiceID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *Handler) UpdateInvoiceItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var p model.InvoiceItemPatch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.st.InvoiceItems().Update(c.Request().Context(), id, p); err != nil {
		return h.writeError(c, err)
	}
	it, err := h.st.InvoiceItems().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *Handler) DeleteInvoiceItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.st.InvoiceItems().Delete(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Audit handlers --

func (h *Handler) GetAudit(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	row, err := h.st.Audit().Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, row)
}

func (h *Handler) ListAudit(c echo.Context) error {
	entityID, err := qInt64(c, "entity_id")
	if err != nil {
		return err
	}
	performerID, err := qInt64(c, "performer_id")
	if err != nil {
		return err
	}
	since, err := qTime(c, "since")
	if err != nil {
		return err
	}
	f := model.AuditFilter{
		Entity:      qString(c, "entity"),
		EntityID:    entityID,
		Action:      qString(c, "action"),
		PerformerID: performerID,
		Since:       since,
	}
	rows, err := h.st.Audit().Find(c.Request().Context(), f)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.Window(rows, pagination.FromContext(c)))
}
