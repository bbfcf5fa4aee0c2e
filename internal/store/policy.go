package store

import "github.com/clinic/clinic/internal/model"

// DeleteAction is what happens to a child row when its parent is deleted.
type DeleteAction int

const (
	// Restrict blocks the parent delete while any child references it.
	Restrict DeleteAction = iota
	// Cascade removes the child row together with the parent, recursively
	// applying the child's own relationships.
	Cascade
	// SetNull clears the child's reference and keeps the row.
	SetNull
)

func (a DeleteAction) String() string {
	switch a {
	case Restrict:
		return "restrict"
	case Cascade:
		return "cascade"
	case SetNull:
		return "set_null"
	}
	return "unknown"
}

// Relationship is one directed foreign-key edge: Child.Field references
// Parent. Optional edges may hold no value; required edges must always
// resolve.
type Relationship struct {
	Child    string
	Field    string
	Parent   string
	OnDelete DeleteAction
	Optional bool
}

// Relationships is the authoritative per-relationship policy table. Both
// backends derive their cascade behavior from this list (the PostgreSQL DDL
// mirrors it via ON DELETE clauses); nothing else in the codebase hard-codes
// a deletion rule.
var Relationships = []Relationship{
	{Child: model.EntityUser, Field: "role_id", Parent: model.EntityRole, OnDelete: Restrict},

	{Child: model.EntityDoctor, Field: "user_id", Parent: model.EntityUser, OnDelete: SetNull, Optional: true},
	{Child: model.EntityAppointment, Field: "created_by", Parent: model.EntityUser, OnDelete: SetNull, Optional: true},
	{Child: model.EntityAuditLog, Field: "performer_id", Parent: model.EntityUser, OnDelete: SetNull, Optional: true},

	{Child: model.EntityAppointment, Field: "patient_id", Parent: model.EntityPatient, OnDelete: Cascade},
	{Child: model.EntityPrescription, Field: "patient_id", Parent: model.EntityPatient, OnDelete: Cascade},
	{Child: model.EntityInvoice, Field: "patient_id", Parent: model.EntityPatient, OnDelete: Restrict},

	{Child: model.EntityAppointment, Field: "doctor_id", Parent: model.EntityDoctor, OnDelete: Restrict},
	{Child: model.EntityPrescription, Field: "doctor_id", Parent: model.EntityDoctor, OnDelete: Restrict},

	{Child: model.EntityAppointment, Field: "room_id", Parent: model.EntityRoom, OnDelete: SetNull, Optional: true},

	{Child: model.EntityAppointmentService, Field: "appointment_id", Parent: model.EntityAppointment, OnDelete: Cascade},
	{Child: model.EntityAppointmentService, Field: "service_id", Parent: model.EntityService, OnDelete: Restrict},

	{Child: model.EntityPrescription, Field: "appointment_id", Parent: model.EntityAppointment, OnDelete: Cascade},
	{Child: model.EntityInvoice, Field: "appointment_id", Parent: model.EntityAppointment, OnDelete: SetNull, Optional: true},

	{Child: model.EntityPrescriptionItem, Field: "prescription_id", Parent: model.EntityPrescription, OnDelete: Cascade},
	{Child: model.EntityPrescriptionItem, Field: "medication_id", Parent: model.EntityMedication, OnDelete: Restrict},

	{Child: model.EntityInvoiceItem, Field: "invoice_id", Parent: model.EntityInvoice, OnDelete: Cascade},
}

// RelationshipsOf returns the edges whose parent is the given entity, in
// policy-table order. Restrict edges sort first so a blocked delete is
// detected before any cascade work starts.
func RelationshipsOf(parent string) []Relationship {
	var restrict, rest []Relationship
	for _, r := range Relationships {
		if r.Parent != parent {
			continue
		}
		if r.OnDelete == Restrict {
			restrict = append(restrict, r)
		} else {
			rest = append(rest, r)
		}
	}
	return append(restrict, rest...)
}
