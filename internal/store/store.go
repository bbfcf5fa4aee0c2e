// Package store defines the integrity-enforcing data store contract shared by
// the in-memory and PostgreSQL backends: per-entity operations, the typed
// error kinds, the local-validation layer and the relationship policy table.
// No operation a backend exposes may leave a constraint violated; a mutation
// either applies fully (cascades and audit row included) or not at all.
package store

import (
	"context"

	"github.com/clinic/clinic/internal/model"
)

// Store is the full integrity layer. Find results are copies taken from a
// consistent snapshot: concurrent mutations never show through a returned
// slice, and re-invoking Find restarts the scan against the then-current
// state.
type Store interface {
	Roles() RoleStore
	Users() UserStore
	Patients() PatientStore
	Doctors() DoctorStore
	Rooms() RoomStore
	Services() ServiceStore
	Appointments() AppointmentStore
	AppointmentServices() AppointmentServiceStore
	Medications() MedicationStore
	Prescriptions() PrescriptionStore
	PrescriptionItems() PrescriptionItemStore
	Invoices() InvoiceStore
	InvoiceItems() InvoiceItemStore
	Audit() AuditStore

	// AppointmentView is the read-only composite view of §appointments with
	// patient, doctor and room context, served from one snapshot.
	AppointmentView(ctx context.Context, f model.AppointmentViewFilter) ([]model.AppointmentDetail, error)

	Close()
}

type RoleStore interface {
	Insert(ctx context.Context, r model.Role) (int64, error)
	Update(ctx context.Context, id int64, p model.RolePatch) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (model.Role, error)
	Find(ctx context.Context, f model.RoleFilter) ([]model.Role, error)
}

type UserStore interface {
	Insert(ctx context.Context, u model.User) (int64, error)
	Update(ctx context.Context, id int64, p model.UserPatch) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (model.User, error)
	Find(ctx context.Context, f model.UserFilter) ([]model.User, error)
}

type PatientStore interface {
	Insert(ctx context.Context, p model.Patient) (int64, error)
	Update(ctx context.Context, id int64, p model.PatientPatch) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (model.Patient, error)
	Find(ctx context.Context, f model.PatientFilter) ([]model.Patient, error)
}

type DoctorStore interface {
	Insert(ctx context.Context, d model.Doctor) (int64, error)
	Update(ctx context.Context, id int64, p model.DoctorPatch) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (model.Doctor, error)
	Find(ctx context.Context, f model.DoctorFilter) ([]model.Doctor, error)
}

type RoomStore interface {
	Insert(ctx context.Context, r model.Room) (int64, error)
	Update(ctx context.Context, id int64, p model.RoomPatch) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (model.Room, error)
	Find(ctx context.Context, f model.RoomFilter) ([]model.Room, error)
}

type ServiceStore interface {
	Insert(ctx context.Context, s model.Service) (int64, error)
	Update(ctx context.Context, id int64, p model.ServicePatch) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (model.Service, error)
	Find(ctx context.Context, f model.ServiceFilter) ([]model.Service, error)
}

type AppointmentStore interface {
	Insert(ctx context.Context, a model.Appointment) (int64, error)
	Update(ctx context.Context, id int64, p model.AppointmentPatch) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (model.Appointment, error)
	Find(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error)
}

// AppointmentServiceStore manages the appointment/service junction. Rows are
// addressed by their composite key.
type AppointmentServiceStore interface {
	Insert(ctx context.Context, as model.AppointmentService) error
	Update(ctx context.Context, appointmentID, serviceID int64, p model.AppointmentServicePatch) error
	Delete(ctx context.Context, appointmentID, serviceID int64) error
	Get(ctx context.Context, appointmentID, serviceID int64) (model.AppointmentService, error)
	ListByAppointment(ctx context.Context, appointmentID int64) ([]model.AppointmentService, error)
}

type MedicationStore interface {
	Insert(ctx context.Context, m model.Medication) (int64, error)
	Update(ctx context.Context, id int64, p model.MedicationPatch) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (model.Medication, error)
	Find(ctx context.Context, f model.MedicationFilter) ([]model.Medication, error)
}

type PrescriptionStore interface {
	Insert(ctx context.Context, p model.Prescription) (int64, error)
	Update(ctx context.Context, id int64, p model.PrescriptionPatch) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (model.Prescription, error)
	Find(ctx context.Context, f model.PrescriptionFilter) ([]model.Prescription, error)
}

// PrescriptionItemStore manages the prescription/medication junction.
type PrescriptionItemStore interface {
	Insert(ctx context.Context, it model.PrescriptionItem) error
	Update(ctx context.Context, prescriptionID, medicationID int64, p model.PrescriptionItemPatch) error
	Delete(ctx context.Context, prescriptionID, medicationID int64) error
	Get(ctx context.Context, prescriptionID, medicationID int64) (model.PrescriptionItem, error)
	ListByPrescription(ctx context.Context, prescriptionID int64) ([]model.PrescriptionItem, error)
}

type InvoiceStore interface {
	Insert(ctx context.Context, inv model.Invoice) (int64, error)
	Update(ctx context.Context, id int64, p model.InvoicePatch) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (model.Invoice, error)
	Find(ctx context.Context, f model.InvoiceFilter) ([]model.Invoice, error)
}

type InvoiceItemStore interface {
	Insert(ctx context.Context, it model.InvoiceItem) (int64, error)
	Update(ctx context.Context, id int64, p model.InvoiceItemPatch) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (model.InvoiceItem, error)
	ListByInvoice(ctx context.Context, invoiceID int64) ([]model.InvoiceItem, error)
}

// AuditStore is read-only for callers: rows are appended by the store itself
// alongside auditable mutations, never mutated or deleted afterwards.
// Results are ordered by performed_at, then id.
type AuditStore interface {
	Get(ctx context.Context, id int64) (model.AuditLog, error)
	Find(ctx context.Context, f model.AuditFilter) ([]model.AuditLog, error)
}

type actorKey struct{}

// WithActor marks ctx with the user performing subsequent mutations. The
// store records the actor on audit rows; an actor that does not resolve to an
// existing user degrades to an empty performer rather than failing the
// mutation.
func WithActor(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the acting user set by WithActor, if any.
func ActorFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(actorKey{}).(int64)
	return id, ok
}
