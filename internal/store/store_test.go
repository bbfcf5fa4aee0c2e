package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinic/clinic/internal/model"
)

func strPtr(s string) *string { return &s }

func TestValidatePatient_DefaultsGender(t *testing.T) {
	p := model.Patient{
		FirstName: "Ada", LastName: "Osei",
		DateOfBirth: time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := ValidatePatient(&p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Gender != model.GenderOther {
		t.Errorf("expected gender defaulted to %q, got %q", model.GenderOther, p.Gender)
	}
}

func TestValidateAppointment_DefaultsStatus(t *testing.T) {
	a := model.Appointment{
		PatientID: 1, DoctorID: 1,
		ScheduledAt: time.Now(), DurationMinutes: 30,
	}
	if err := ValidateAppointment(&a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != model.AppointmentScheduled {
		t.Errorf("expected status defaulted to scheduled, got %q", a.Status)
	}
}

func TestValidateInvoice_DefaultsStatus(t *testing.T) {
	inv := model.Invoice{PatientID: 1}
	if err := ValidateInvoice(&inv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Status != model.InvoiceUnpaid {
		t.Errorf("expected status defaulted to unpaid, got %q", inv.Status)
	}
}

func TestValidateInvoiceItem_DerivesLineTotal(t *testing.T) {
	it := model.InvoiceItem{
		InvoiceID: 1, Description: "Consultation",
		Quantity: 3, UnitPrice: 25.5, LineTotal: 999,
	}
	if err := ValidateInvoiceItem(&it); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.LineTotal != 76.5 {
		t.Errorf("expected derived line total 76.5, got %v", it.LineTotal)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		field string
	}{
		{"role name required", ValidateRole(&model.Role{}), "name"},
		{"user role required", ValidateUser(&model.User{Username: "a", Email: "e", Name: "n"}), "role_id"},
		{"patient bad gender", ValidatePatient(&model.Patient{
			FirstName: "A", LastName: "B",
			DateOfBirth: time.Now(), Gender: "none",
		}), "gender"},
		{"doctor negative fee", ValidateDoctor(&model.Doctor{
			LicenseNumber: "L", ConsultationFee: -1,
		}), "consultation_fee"},
		{"service zero duration", ValidateService(&model.Service{
			Name: "X", Code: "C", Price: 1,
		}), "duration_minutes"},
		{"appointment bad status", ValidateAppointment(&model.Appointment{
			PatientID: 1, DoctorID: 1, ScheduledAt: time.Now(),
			DurationMinutes: 30, Status: "done",
		}), "status"},
		{"medication blank sku", ValidateMedication(&model.Medication{
			Name: "A", SKU: strPtr(" "),
		}), "sku"},
		{"rx item zero quantity", ValidatePrescriptionItem(&model.PrescriptionItem{
			PrescriptionID: 1, MedicationID: 1, Dosage: "500mg",
		}), "quantity"},
		{"invoice bad status", ValidateInvoice(&model.Invoice{
			PatientID: 1, Status: "void",
		}), "status"},
		{"invoice item blank description", ValidateInvoiceItem(&model.InvoiceItem{
			InvoiceID: 1, Quantity: 1,
		}), "description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ve *ValidationError
			if !errors.As(tt.err, &ve) {
				t.Fatalf("expected ValidationError, got %v", tt.err)
			}
			if ve.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, ve.Field)
			}
		})
	}
}

func TestRelationshipsOf_RestrictFirst(t *testing.T) {
	rels := RelationshipsOf(model.EntityPatient)
	if len(rels) != 3 {
		t.Fatalf("expected 3 patient edges, got %d", len(rels))
	}
	if rels[0].OnDelete != Restrict || rels[0].Child != model.EntityInvoice {
		t.Errorf("expected invoice restrict edge first, got %+v", rels[0])
	}
	for i := 1; i < len(rels); i++ {
		if rels[i-1].OnDelete != Restrict && rels[i].OnDelete == Restrict {
			t.Error("restrict edges must sort before cascade/set-null edges")
		}
	}
}

func TestRelationships_OptionalMatchesSetNull(t *testing.T) {
	// A set-null edge on a required field would leave the child row invalid.
	for _, r := range Relationships {
		if r.OnDelete == SetNull && !r.Optional {
			t.Errorf("%s.%s: set_null on a required reference", r.Child, r.Field)
		}
	}
}

func TestRelationships_KnownEntities(t *testing.T) {
	entities := map[string]bool{
		model.EntityRole: true, model.EntityUser: true, model.EntityPatient: true,
		model.EntityDoctor: true, model.EntityRoom: true, model.EntityService: true,
		model.EntityAppointment: true, model.EntityAppointmentService: true,
		model.EntityMedication: true, model.EntityPrescription: true,
		model.EntityPrescriptionItem: true, model.EntityInvoice: true,
		model.EntityInvoiceItem: true, model.EntityAuditLog: true,
	}
	for _, r := range Relationships {
		if !entities[r.Child] {
			t.Errorf("unknown child entity %q", r.Child)
		}
		if !entities[r.Parent] {
			t.Errorf("unknown parent entity %q", r.Parent)
		}
	}
}

func TestDeleteAction_String(t *testing.T) {
	if Restrict.String() != "restrict" || Cascade.String() != "cascade" || SetNull.String() != "set_null" {
		t.Error("unexpected action names")
	}
}

func TestActorContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := ActorFrom(ctx); ok {
		t.Error("expected no actor on a bare context")
	}

	ctx = WithActor(ctx, 7)
	id, ok := ActorFrom(ctx)
	if !ok || id != 7 {
		t.Errorf("expected actor 7, got %d (ok=%v)", id, ok)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&ValidationError{Entity: "patient", Field: "gender", Value: "x", Reason: "not a valid gender"},
			"patient.gender: not a valid gender (got x)"},
		{&UniquenessError{Entity: "user", Field: "email", Value: "a@b"},
			"user.email already taken: a@b"},
		{&ReferenceError{Entity: "appointment", Field: "patient_id", Target: "patient", ID: 9},
			"appointment.patient_id: no patient with id 9"},
		{&RestrictedDeleteError{Entity: "doctor", ID: 3, Dependent: "appointment"},
			"cannot delete doctor 3: appointment rows still reference it"},
		{&NotFoundError{Entity: "room", ID: 5},
			"room 5 not found"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestConflictError_Unwrap(t *testing.T) {
	inner := errors.New("serialization failure")
	err := &ConflictError{Op: "update appointment", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("expected ConflictError to unwrap its cause")
	}
}
