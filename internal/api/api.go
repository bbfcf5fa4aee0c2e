// Package api is the HTTP surface over the store: CRUD per entity, the
// composite appointment view, and the audit feed. Handlers bind transport
// concerns only; every integrity rule lives in the store and surfaces here as
// a typed error mapped to a status code.
package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/internal/platform/metrics"
	"github.com/clinic/clinic/internal/store"
)

type Handler struct {
	st store.Store
	mx *metrics.Collector
}

type Option func(*Handler)

// WithMetrics feeds store error kinds and successful mutations into the
// collector.
func WithMetrics(mx *metrics.Collector) Option {
	return func(h *Handler) { h.mx = mx }
}

func NewHandler(st store.Store, opts ...Option) *Handler {
	h := &Handler{st: st}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts all entity routes on the given group, normally
// /api/v1.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.Use(actorMiddleware)
	api.Use(h.mutationMetrics)

	api.POST("/roles", h.CreateRole)
	api.GET("/roles", h.ListRoles)
	api.GET("/roles/:id", h.GetRole)
	api.PATCH("/roles/:id", h.UpdateRole)
	api.DELETE("/roles/:id", h.DeleteRole)

	api.POST("/users", h.CreateUser)
	api.GET("/users", h.ListUsers)
	api.GET("/users/:id", h.GetUser)
	api.PATCH("/users/:id", h.UpdateUser)
	api.DELETE("/users/:id", h.DeleteUser)

	api.POST("/patients", h.CreatePatient)
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id", h.GetPatient)
	api.PATCH("/patients/:id", h.UpdatePatient)
	api.DELETE("/patients/:id", h.DeletePatient)

	api.POST("/doctors", h.CreateDoctor)
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)
	api.PATCH("/doctors/:id", h.UpdateDoctor)
	api.DELETE("/doctors/:id", h.DeleteDoctor)

	api.POST("/rooms", h.CreateRoom)
	api.GET("/rooms", h.ListRooms)
	api.GET("/rooms/:id", h.GetRoom)
	api.PATCH("/rooms/:id", h.UpdateRoom)
	api.DELETE("/rooms/:id", h.DeleteRoom)

	api.POST("/services", h.CreateService)
	api.GET("/services", h.ListServices)
	api.GET("/services/:id", h.GetService)
	api.PATCH("/services/:id", h.UpdateService)
	api.DELETE("/services/:id", h.DeleteService)

	// The view route must register before /appointments/:id so "view" does
	// not bind as an id.
	api.GET("/appointments/view", h.AppointmentView)

	api.POST("/appointments", h.CreateAppointment)
	api.GET("/appointments", h.ListAppointments)
	api.GET("/appointments/:id", h.GetAppointment)
	api.PATCH("/appointments/:id", h.UpdateAppointment)
	api.DELETE("/appointments/:id", h.DeleteAppointment)

	api.POST("/appointments/:id/services", h.AddAppointmentService)
	api.GET("/appointments/:id/services", h.ListAppointmentServices)
	api.GET("/appointments/:id/services/:serviceID", h.GetAppointmentService)
	api.PATCH("/appointments/:id/services/:serviceID", h.UpdateAppointmentService)
	api.DELETE("/appointments/:id/services/:serviceID", h.DeleteAppointmentService)

	api.POST("/medications", h.CreateMedication)
	api.GET("/medications", h.ListMedications)
	api.GET("/medications/:id", h.GetMedication)
	api.PATCH("/medications/:id", h.UpdateMedication)
	api.DELETE("/medications/:id", h.DeleteMedication)

	api.POST("/prescriptions", h.CreatePrescription)
	api.GET("/prescriptions", h.ListPrescriptions)
	api.GET("/prescriptions/:id", h.GetPrescription)
	api.PATCH("/prescriptions/:id", h.UpdatePrescription)
	api.DELETE("/prescriptions/:id", h.DeletePrescription)

	api.POST("/prescriptions/:id/items", h.AddPrescriptionItem)
	api.GET("/prescriptions/:id/items", h.ListPrescriptionItems)
	api.GET("/prescriptions/:id/items/:medicationID", h.GetPrescriptionItem)
	api.PATCH("/prescriptions/:id/items/:medicationID", h.UpdatePrescriptionItem)
	api.DELETE("/prescriptions/:id/items/:medicationID", h.DeletePrescriptionItem)

	api.POST("/invoices", h.CreateInvoice)
	api.GET("/invoices", h.ListInvoices)
	api.GET("/invoices/:id", h.GetInvoice)
	api.PATCH("/invoices/:id", h.UpdateInvoice)
	api.DELETE("/invoices/:id", h.DeleteInvoice)

	api.POST("/invoices/:id/items", h.AddInvoiceItem)
	api.GET("/invoices/:id/items", h.ListInvoiceItems)
	api.GET("/invoice-items/:id", h.GetInvoiceItem)
	api.PATCH("/invoice-items/:id", h.UpdateInvoiceItem)
	api.DELETE("/invoice-items/:id", h.DeleteInvoiceItem)

	api.GET("/audit", h.ListAudit)
	api.GET("/audit/:id", h.GetAudit)
}

// ActorHeader names the acting user for audit attribution. An id that does
// not resolve to a user degrades to an empty performer in the store.
const ActorHeader = "X-Actor-ID"

func actorMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if v := c.Request().Header.Get(ActorHeader); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid "+ActorHeader)
			}
			ctx := store.WithActor(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
		}
		return next(c)
	}
}

// mutationMetrics counts successful mutations by entity and action. Each
// successful POST, PATCH or DELETE appends exactly one primary audit row, so
// the counter tracks the audit trail without touching the store. The entity
// label comes from the route template and matches the audit row's entity
// name.
func (h *Handler) mutationMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		if h.mx == nil || err != nil {
			return err
		}
		var action string
		switch c.Request().Method {
		case http.MethodPost:
			action = model.ActionCreate
		case http.MethodPatch:
			action = model.ActionUpdate
		case http.MethodDelete:
			action = model.ActionDelete
		default:
			return nil
		}
		if c.Response().Status >= http.StatusMultipleChoices {
			return nil
		}
		if entity := entityFromRoute(c.Path()); entity != "" {
			h.mx.RecordAuditEvent(entity, action)
		}
		return nil
	}
}

// entityFromRoute derives the audit entity name from a route template such
// as /api/v1/appointments/:id/services/:serviceID.
func entityFromRoute(path string) string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s == "" || strings.HasPrefix(s, ":") {
			continue
		}
		segs = append(segs, s)
	}
	if len(segs) == 0 {
		return ""
	}
	last := segs[len(segs)-1]
	parent := ""
	if len(segs) >= 2 {
		parent = segs[len(segs)-2]
	}
	switch {
	case last == "services" && parent == "appointments":
		return model.EntityAppointmentService
	case last == "items" && parent == "prescriptions":
		return model.EntityPrescriptionItem
	case last == "items" && parent == "invoices", last == "invoice-items":
		return model.EntityInvoiceItem
	}
	return strings.TrimSuffix(last, "s")
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// Query param helpers. A missing param yields nil; a malformed one is
// reported rather than silently ignored.

func qString(c echo.Context, name string) *string {
	if v := c.QueryParam(name); v != "" {
		return &v
	}
	return nil
}

func qInt64(c echo.Context, name string) (*int64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &n, nil
}

func qInt(c echo.Context, name string) (*int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &n, nil
}

func qTime(c echo.Context, name string) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be RFC 3339")
	}
	return &t, nil
}
