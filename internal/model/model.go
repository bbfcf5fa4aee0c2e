// Package model defines the clinic's persistent entities: reference data
// (roles, rooms, services, medications), actors (users, patients, doctors),
// encounters (appointments plus their service links), clinical records
// (prescriptions and their items), billing (invoices and their lines) and the
// append-only audit trail. The store layer owns all constraint enforcement;
// these types only carry state.
package model

import "time"

// Entity names as recorded in the audit trail and in constraint errors.
const (
	EntityRole               = "role"
	EntityUser               = "user"
	EntityPatient            = "patient"
	EntityDoctor             = "doctor"
	EntityRoom               = "room"
	EntityService            = "service"
	EntityAppointment        = "appointment"
	EntityAppointmentService = "appointment_service"
	EntityMedication         = "medication"
	EntityPrescription       = "prescription"
	EntityPrescriptionItem   = "prescription_item"
	EntityInvoice            = "invoice"
	EntityInvoiceItem        = "invoice_item"
	EntityAuditLog           = "audit_log"
)

// Gender values accepted on a patient record.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other" // default when unspecified
)

// ValidGenders is the closed set of patient gender values.
var ValidGenders = map[string]bool{
	GenderMale: true, GenderFemale: true, GenderOther: true,
}

// Appointment lifecycle statuses.
const (
	AppointmentScheduled = "scheduled" // default when unspecified
	AppointmentCheckedIn = "checked_in"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no_show"
)

// ValidAppointmentStatuses is the closed set of appointment statuses.
var ValidAppointmentStatuses = map[string]bool{
	AppointmentScheduled: true, AppointmentCheckedIn: true,
	AppointmentCompleted: true, AppointmentCancelled: true,
	AppointmentNoShow: true,
}

// Invoice settlement statuses.
const (
	InvoiceUnpaid        = "unpaid" // default when unspecified
	InvoicePaid          = "paid"
	InvoicePartiallyPaid = "partially_paid"
	InvoiceCancelled     = "cancelled"
)

// ValidInvoiceStatuses is the closed set of invoice statuses.
var ValidInvoiceStatuses = map[string]bool{
	InvoiceUnpaid: true, InvoicePaid: true,
	InvoicePartiallyPaid: true, InvoiceCancelled: true,
}

// Audit actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Role is a named user role (doctor, nurse, registrar, ...).
type Role struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// User is a login identity. Every user carries exactly one role.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	RoleID       int64     `db:"role_id" json:"role_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Patient is a person receiving care. NationalID is optional but unique
// across the collection when present.
type Patient struct {
	ID          int64     `db:"id" json:"id"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	DateOfBirth time.Time `db:"date_of_birth" json:"date_of_birth"`
	Gender      string    `db:"gender" json:"gender"`
	NationalID  *string   `db:"national_id" json:"national_id,omitempty"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	Address     *string   `db:"address" json:"address,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Doctor is a practitioner. A doctor may exist without a login; when UserID
// is set, at most one doctor may point at any given user.
type Doctor struct {
	ID              int64     `db:"id" json:"id"`
	UserID          *int64    `db:"user_id" json:"user_id,omitempty"`
	LicenseNumber   string    `db:"license_number" json:"license_number"`
	Specialization  *string   `db:"specialization" json:"specialization,omitempty"`
	ConsultationFee float64   `db:"consultation_fee" json:"consultation_fee"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Room is a bookable location.
type Room struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Service is a billable clinical service. Code is unique on its own, and the
// (name, code) pair is unique as well.
type Service struct {
	ID              int64     `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Code            string    `db:"code" json:"code"`
	Price           float64   `db:"price" json:"price"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Appointment is a scheduled encounter between a patient and a doctor. The
// (doctor, scheduled_at) pair is unique: an exact-duplicate guard only,
// overlapping bookings are deliberately not prevented.
type Appointment struct {
	ID              int64     `db:"id" json:"id"`
	PatientID       int64     `db:"patient_id" json:"patient_id"`
	DoctorID        int64     `db:"doctor_id" json:"doctor_id"`
	RoomID          *int64    `db:"room_id" json:"room_id,omitempty"`
	ScheduledAt     time.Time `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Status          string    `db:"status" json:"status"`
	Reason          *string   `db:"reason" json:"reason,omitempty"`
	CreatedBy       *int64    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// AppointmentService links an appointment to a booked service, carrying the
// price snapshot taken at booking time. Identity is the (appointment,
// service) pair.
type AppointmentService struct {
	AppointmentID int64   `db:"appointment_id" json:"appointment_id"`
	ServiceID     int64   `db:"service_id" json:"service_id"`
	PriceAtTime   float64 `db:"price_at_time" json:"price_at_time"`
}

// Medication is an inventory item. SKU is optional but unique when present.
type Medication struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	SKU           *string   `db:"sku" json:"sku,omitempty"`
	UnitPrice     float64   `db:"unit_price" json:"unit_price"`
	StockQuantity int       `db:"stock_quantity" json:"stock_quantity"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Prescription is a clinical order issued during an appointment.
type Prescription struct {
	ID            int64     `db:"id" json:"id"`
	AppointmentID int64     `db:"appointment_id" json:"appointment_id"`
	DoctorID      int64     `db:"doctor_id" json:"doctor_id"`
	PatientID     int64     `db:"patient_id" json:"patient_id"`
	IssuedAt      time.Time `db:"issued_at" json:"issued_at"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// PrescriptionItem links a prescription to a medication. Identity is the
// (prescription, medication) pair.
type PrescriptionItem struct {
	PrescriptionID int64   `db:"prescription_id" json:"prescription_id"`
	MedicationID   int64   `db:"medication_id" json:"medication_id"`
	Dosage         string  `db:"dosage" json:"dosage"`
	Quantity       int     `db:"quantity" json:"quantity"`
	Instructions   *string `db:"instructions" json:"instructions,omitempty"`
}

// Invoice is a bill issued to a patient, optionally tied to an appointment.
type Invoice struct {
	ID            int64     `db:"id" json:"id"`
	PatientID     int64     `db:"patient_id" json:"patient_id"`
	AppointmentID *int64    `db:"appointment_id" json:"appointment_id,omitempty"`
	TotalAmount   float64   `db:"total_amount" json:"total_amount"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// InvoiceItem is one line of an invoice. LineTotal is derived: the store
// always recomputes it as Quantity * UnitPrice, it is never settable.
type InvoiceItem struct {
	ID          int64   `db:"id" json:"id"`
	InvoiceID   int64   `db:"invoice_id" json:"invoice_id"`
	Description string  `db:"description" json:"description"`
	Quantity    int     `db:"quantity" json:"quantity"`
	UnitPrice   float64 `db:"unit_price" json:"unit_price"`
	LineTotal   float64 `db:"line_total" json:"line_total"`
}

// AuditLog is one immutable mutation record. PerformerID degrades to nil
// when the acting user cannot be resolved; audit never blocks a mutation.
type AuditLog struct {
	ID          int64     `db:"id" json:"id"`
	Entity      string    `db:"entity" json:"entity"`
	EntityID    int64     `db:"entity_id" json:"entity_id"`
	Action      string    `db:"action" json:"action"`
	PerformerID *int64    `db:"performer_id" json:"performer_id,omitempty"`
	PerformedAt time.Time `db:"performed_at" json:"performed_at"`
	Details     string    `db:"details" json:"details"`
}

// AppointmentDetail is the read-only composite view joining an appointment
// with the names of its patient, doctor and room.
type AppointmentDetail struct {
	Appointment
	PatientFirstName     string  `json:"patient_first_name"`
	PatientLastName      string  `json:"patient_last_name"`
	DoctorLicenseNumber  string  `json:"doctor_license_number"`
	DoctorSpecialization *string `json:"doctor_specialization,omitempty"`
	DoctorName           *string `json:"doctor_name,omitempty"` // linked user's name, when any
	RoomName             *string `json:"room_name,omitempty"`
}
