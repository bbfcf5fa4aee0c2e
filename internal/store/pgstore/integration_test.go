package pgstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/store"
)

// newTestStore connects to the database named by CLINIC_TEST_DATABASE_URL and
// migrates it. Tests that need a live database skip when the variable is
// unset, so the suite stays runnable without infrastructure.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("CLINIC_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CLINIC_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, url, 5, 1)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	migrator := db.NewMigrator(pool, filepath.Join("..", "..", "..", "migrations"))
	if _, err := migrator.Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(pool)
}

func strPtr(s string) *string { return &s }

func TestIntegration_PatientLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	patientID, err := s.Patients().Insert(ctx, model.Patient{
		FirstName:   "Ada",
		LastName:    "Okafor",
		DateOfBirth: time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("insert patient: %v", err)
	}

	got, err := s.Patients().Get(ctx, patientID)
	if err != nil {
		t.Fatalf("get patient: %v", err)
	}
	if got.Gender != model.GenderOther {
		t.Errorf("expected default gender %q, got %q", model.GenderOther, got.Gender)
	}

	// Optional unique key: second patient with the same national id must fail.
	nid := "NID-001"
	if err := s.Patients().Update(ctx, patientID, model.PatientPatch{NationalID: &nid}); err != nil {
		t.Fatalf("set national id: %v", err)
	}
	_, err = s.Patients().Insert(ctx, model.Patient{
		FirstName:   "Ben",
		LastName:    "Okafor",
		DateOfBirth: time.Date(1991, 1, 1, 0, 0, 0, 0, time.UTC),
		NationalID:  &nid,
	})
	var ue *store.UniquenessError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UniquenessError on national_id, got %v", err)
	}

	if err := s.Patients().Delete(ctx, patientID); err != nil {
		t.Fatalf("delete patient: %v", err)
	}
	_, err = s.Patients().Get(ctx, patientID)
	var nf *store.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}
}

func TestIntegration_AppointmentCascadeAndRestrict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	patientID, err := s.Patients().Insert(ctx, model.Patient{
		FirstName:   "Clara",
		LastName:    "Mensah",
		DateOfBirth: time.Date(1985, 7, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("insert patient: %v", err)
	}
	doctorID, err := s.Doctors().Insert(ctx, model.Doctor{
		LicenseNumber:  "LIC-" + time.Now().Format("150405.000000000"),
		Specialization: strPtr("cardiology"),
	})
	if err != nil {
		t.Fatalf("insert doctor: %v", err)
	}

	when := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	apptID, err := s.Appointments().Insert(ctx, model.Appointment{
		PatientID:       patientID,
		DoctorID:        doctorID,
		ScheduledAt:     when,
		DurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("insert appointment: %v", err)
	}

	// Exact-duplicate slot for the same doctor.
	otherPatient, err := s.Patients().Insert(ctx, model.Patient{
		FirstName:   "Dede",
		LastName:    "Attoh",
		DateOfBirth: time.Date(1992, 2, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("insert second patient: %v", err)
	}
	_, err = s.Appointments().Insert(ctx, model.Appointment{
		PatientID:       otherPatient,
		DoctorID:        doctorID,
		ScheduledAt:     when,
		DurationMinutes: 15,
	})
	var ue *store.UniquenessError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UniquenessError on duplicate slot, got %v", err)
	}

	// Doctor with appointments cannot be deleted.
	err = s.Doctors().Delete(ctx, doctorID)
	var rd *store.RestrictedDeleteError
	if !errors.As(err, &rd) {
		t.Fatalf("expected RestrictedDeleteError, got %v", err)
	}
	if rd.Dependent != model.EntityAppointment {
		t.Errorf("expected dependent %q, got %q", model.EntityAppointment, rd.Dependent)
	}

	// Deleting the patient cascades to the appointment.
	if err := s.Patients().Delete(ctx, patientID); err != nil {
		t.Fatalf("delete patient: %v", err)
	}
	_, err = s.Appointments().Get(ctx, apptID)
	var nf *store.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected appointment gone after cascade, got %v", err)
	}

	// With the appointment gone the doctor delete goes through.
	if err := s.Doctors().Delete(ctx, doctorID); err != nil {
		t.Fatalf("delete doctor after cascade: %v", err)
	}
}

func TestIntegration_InvoiceLineTotalGenerated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	patientID, err := s.Patients().Insert(ctx, model.Patient{
		FirstName:   "Efe",
		LastName:    "Ojo",
		DateOfBirth: time.Date(1970, 12, 12, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("insert patient: %v", err)
	}
	invID, err := s.Invoices().Insert(ctx, model.Invoice{PatientID: patientID})
	if err != nil {
		t.Fatalf("insert invoice: %v", err)
	}

	itemID, err := s.InvoiceItems().Insert(ctx, model.InvoiceItem{
		InvoiceID:   invID,
		Description: "Consultation",
		Quantity:    3,
		UnitPrice:   25.5,
		LineTotal:   999, // must be ignored
	})
	if err != nil {
		t.Fatalf("insert invoice item: %v", err)
	}
	it, err := s.InvoiceItems().Get(ctx, itemID)
	if err != nil {
		t.Fatalf("get invoice item: %v", err)
	}
	if it.LineTotal != 76.5 {
		t.Errorf("expected derived line_total 76.5, got %v", it.LineTotal)
	}

	q := 4
	if err := s.InvoiceItems().Update(ctx, itemID, model.InvoiceItemPatch{Quantity: &q}); err != nil {
		t.Fatalf("update invoice item: %v", err)
	}
	it, err = s.InvoiceItems().Get(ctx, itemID)
	if err != nil {
		t.Fatalf("re-get invoice item: %v", err)
	}
	if it.LineTotal != 102 {
		t.Errorf("expected rederived line_total 102, got %v", it.LineTotal)
	}

	// Invoices block patient deletion.
	err = s.Patients().Delete(ctx, patientID)
	var rd *store.RestrictedDeleteError
	if !errors.As(err, &rd) {
		t.Fatalf("expected RestrictedDeleteError via invoice, got %v", err)
	}
}

func TestIntegration_AuditTrail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	roleID, err := s.Roles().Insert(ctx, model.Role{Name: "registrar-" + time.Now().Format("150405.000000000")})
	if err != nil {
		t.Fatalf("insert role: %v", err)
	}
	suffix := time.Now().Format("150405.000000000")
	userID, err := s.Users().Insert(ctx, model.User{
		Username:     "reg-" + suffix,
		Email:        "reg-" + suffix + "@clinic.test",
		PasswordHash: "x",
		Name:         "Registrar",
		RoleID:       roleID,
	})
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}

	actorCtx := store.WithActor(ctx, userID)
	patientID, err := s.Patients().Insert(actorCtx, model.Patient{
		FirstName:   "Femi",
		LastName:    "Ajayi",
		DateOfBirth: time.Date(2000, 5, 5, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("insert patient: %v", err)
	}

	entity := model.EntityPatient
	logs, err := s.Audit().Find(ctx, model.AuditFilter{Entity: &entity, EntityID: &patientID})
	if err != nil {
		t.Fatalf("find audit: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(logs))
	}
	if logs[0].Action != model.ActionCreate {
		t.Errorf("expected create action, got %q", logs[0].Action)
	}
	if logs[0].PerformerID == nil || *logs[0].PerformerID != userID {
		t.Errorf("expected performer %d, got %v", userID, logs[0].PerformerID)
	}

	// Unknown actor degrades to an empty performer, never an error.
	ghostCtx := store.WithActor(ctx, 1<<60)
	if err := s.Patients().Update(ghostCtx, patientID, model.PatientPatch{FirstName: strPtr("Femi-updated")}); err != nil {
		t.Fatalf("update with ghost actor: %v", err)
	}
	logs, err = s.Audit().Find(ctx, model.AuditFilter{Entity: &entity, EntityID: &patientID})
	if err != nil {
		t.Fatalf("re-find audit: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 audit rows, got %d", len(logs))
	}
	if logs[1].PerformerID != nil {
		t.Errorf("expected nil performer for unknown actor, got %v", logs[1].PerformerID)
	}
}
