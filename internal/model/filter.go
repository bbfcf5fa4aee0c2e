package model

import "time"

// Filter types select rows in Find calls. Nil / zero fields match everything.
// Name filters are case-insensitive substring matches; time bounds are
// inclusive on From and exclusive on To.

type RoleFilter struct {
	Name *string
}

type UserFilter struct {
	Username *string
	Email    *string
	RoleID   *int64
}

type PatientFilter struct {
	FirstName  *string
	LastName   *string
	Gender     *string
	NationalID *string
}

type DoctorFilter struct {
	Specialization *string
	LicenseNumber  *string
	UserID         *int64
}

type RoomFilter struct {
	Name *string
}

type ServiceFilter struct {
	Name *string
	Code *string
}

type AppointmentFilter struct {
	PatientID *int64
	DoctorID  *int64
	RoomID    *int64
	Status    *string
	From      *time.Time
	To        *time.Time
	CreatedBy *int64
}

type MedicationFilter struct {
	Name     *string
	SKU      *string
	MaxStock *int // rows with stock_quantity <= MaxStock; reorder reports
}

type PrescriptionFilter struct {
	PatientID     *int64
	DoctorID      *int64
	AppointmentID *int64
	From          *time.Time
	To            *time.Time
}

type InvoiceFilter struct {
	PatientID     *int64
	AppointmentID *int64
	Status        *string
}

type AuditFilter struct {
	Entity      *string
	EntityID    *int64
	Action      *string
	PerformerID *int64
	Since       *time.Time
}

// AppointmentViewFilter selects rows of the composite appointment view. All
// of its fields are indexed in the durable store.
type AppointmentViewFilter struct {
	PatientID       *int64
	DoctorID        *int64
	Status          *string
	From            *time.Time
	To              *time.Time
	Specialization  *string
	PatientLastName *string
}
