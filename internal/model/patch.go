package model

import "time"

// Patch types carry partial updates: nil fields are left untouched. Optional
// references and optional text clear through explicit Clear* flags so that
// "leave alone", "set" and "set to empty" stay distinguishable after JSON
// binding. Surrogate identifiers and junction keys are immutable; a junction
// row changes key by delete plus insert.

type RolePatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type UserPatch struct {
	Username     *string `json:"username,omitempty"`
	Email        *string `json:"email,omitempty"`
	PasswordHash *string `json:"password_hash,omitempty"`
	Name         *string `json:"name,omitempty"`
	RoleID       *int64  `json:"role_id,omitempty"`
}

type PatientPatch struct {
	FirstName       *string    `json:"first_name,omitempty"`
	LastName        *string    `json:"last_name,omitempty"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	Gender          *string    `json:"gender,omitempty"`
	NationalID      *string    `json:"national_id,omitempty"`
	ClearNationalID bool       `json:"clear_national_id,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	ClearPhone      bool       `json:"clear_phone,omitempty"`
	Address         *string    `json:"address,omitempty"`
	ClearAddress    bool       `json:"clear_address,omitempty"`
}

type DoctorPatch struct {
	UserID              *int64   `json:"user_id,omitempty"`
	ClearUserID         bool     `json:"clear_user_id,omitempty"`
	LicenseNumber       *string  `json:"license_number,omitempty"`
	Specialization      *string  `json:"specialization,omitempty"`
	ClearSpecialization bool     `json:"clear_specialization,omitempty"`
	ConsultationFee     *float64 `json:"consultation_fee,omitempty"`
}

type RoomPatch struct {
	Name *string `json:"name,omitempty"`
}

type ServicePatch struct {
	Name            *string  `json:"name,omitempty"`
	Code            *string  `json:"code,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
}

type AppointmentPatch struct {
	PatientID       *int64     `json:"patient_id,omitempty"`
	DoctorID        *int64     `json:"doctor_id,omitempty"`
	RoomID          *int64     `json:"room_id,omitempty"`
	ClearRoomID     bool       `json:"clear_room_id,omitempty"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Status          *string    `json:"status,omitempty"`
	Reason          *string    `json:"reason,omitempty"`
	ClearReason     bool       `json:"clear_reason,omitempty"`
}

type AppointmentServicePatch struct {
	PriceAtTime *float64 `json:"price_at_time,omitempty"`
}

type MedicationPatch struct {
	Name          *string  `json:"name,omitempty"`
	SKU           *string  `json:"sku,omitempty"`
	ClearSKU      bool     `json:"clear_sku,omitempty"`
	UnitPrice     *float64 `json:"unit_price,omitempty"`
	StockQuantity *int     `json:"stock_quantity,omitempty"`
}

type PrescriptionPatch struct {
	IssuedAt   *time.Time `json:"issued_at,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	ClearNotes bool       `json:"clear_notes,omitempty"`
}

type PrescriptionItemPatch struct {
	Dosage            *string `json:"dosage,omitempty"`
	Quantity          *int    `json:"quantity,omitempty"`
	Instructions      *string `json:"instructions,omitempty"`
	ClearInstructions bool    `json:"clear_instructions,omitempty"`
}

type InvoicePatch struct {
	AppointmentID      *int64   `json:"appointment_id,omitempty"`
	ClearAppointmentID bool     `json:"clear_appointment_id,omitempty"`
	TotalAmount        *float64 `json:"total_amount,omitempty"`
	Status             *string  `json:"status,omitempty"`
}

// InvoiceItemPatch never carries LineTotal: it is recomputed on every write.
type InvoiceItemPatch struct {
	Description *string  `json:"description,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
}
