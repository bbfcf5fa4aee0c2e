package store

import (
	"strings"

	"github.com/clinic/clinic/internal/model"
)

// Local field validation shared by both backends. Each function applies the
// entity's defaults in place, then checks required-ness, bounds and enum
// membership. Referential and uniqueness checks are the backend's job: they
// need collection-wide state.

func required(entity, field, v string) error {
	if strings.TrimSpace(v) == "" {
		return &ValidationError{Entity: entity, Field: field, Value: v, Reason: "required"}
	}
	return nil
}

func ValidateRole(r *model.Role) error {
	return required(model.EntityRole, "name", r.Name)
}

func ValidateUser(u *model.User) error {
	if err := required(model.EntityUser, "username", u.Username); err != nil {
		return err
	}
	if err := required(model.EntityUser, "email", u.Email); err != nil {
		return err
	}
	if err := required(model.EntityUser, "name", u.Name); err != nil {
		return err
	}
	if u.RoleID == 0 {
		return &ValidationError{Entity: model.EntityUser, Field: "role_id", Value: u.RoleID, Reason: "required"}
	}
	return nil
}

func ValidatePatient(p *model.Patient) error {
	if p.Gender == "" {
		p.Gender = model.GenderOther
	}
	if err := required(model.EntityPatient, "first_name", p.FirstName); err != nil {
		return err
	}
	if err := required(model.EntityPatient, "last_name", p.LastName); err != nil {
		return err
	}
	if p.DateOfBirth.IsZero() {
		return &ValidationError{Entity: model.EntityPatient, Field: "date_of_birth", Value: p.DateOfBirth, Reason: "required"}
	}
	if !model.ValidGenders[p.Gender] {
		return &ValidationError{Entity: model.EntityPatient, Field: "gender", Value: p.Gender, Reason: "not a valid gender"}
	}
	if p.NationalID != nil && strings.TrimSpace(*p.NationalID) == "" {
		return &ValidationError{Entity: model.EntityPatient, Field: "national_id", Value: *p.NationalID, Reason: "must not be blank when present"}
	}
	return nil
}

func ValidateDoctor(d *model.Doctor) error {
	if err := required(model.EntityDoctor, "license_number", d.LicenseNumber); err != nil {
		return err
	}
	if d.ConsultationFee < 0 {
		return &ValidationError{Entity: model.EntityDoctor, Field: "consultation_fee", Value: d.ConsultationFee, Reason: "must not be negative"}
	}
	return nil
}

func ValidateRoom(r *model.Room) error {
	return required(model.EntityRoom, "name", r.Name)
}

func ValidateService(s *model.Service) error {
	if err := required(model.EntityService, "name", s.Name); err != nil {
		return err
	}
	if err := required(model.EntityService, "code", s.Code); err != nil {
		return err
	}
	if s.Price < 0 {
		return &ValidationError{Entity: model.EntityService, Field: "price", Value: s.Price, Reason: "must not be negative"}
	}
	if s.DurationMinutes <= 0 {
		return &ValidationError{Entity: model.EntityService, Field: "duration_minutes", Value: s.DurationMinutes, Reason: "must be positive"}
	}
	return nil
}

func ValidateAppointment(a *model.Appointment) error {
	if a.Status == "" {
		a.Status = model.AppointmentScheduled
	}
	if a.PatientID == 0 {
		return &ValidationError{Entity: model.EntityAppointment, Field: "patient_id", Value: a.PatientID, Reason: "required"}
	}
	if a.DoctorID == 0 {
		return &ValidationError{Entity: model.EntityAppointment, Field: "doctor_id", Value: a.DoctorID, Reason: "required"}
	}
	if a.ScheduledAt.IsZero() {
		return &ValidationError{Entity: model.EntityAppointment, Field: "scheduled_at", Value: a.ScheduledAt, Reason: "required"}
	}
	if a.DurationMinutes <= 0 {
		return &ValidationError{Entity: model.EntityAppointment, Field: "duration_minutes", Value: a.DurationMinutes, Reason: "must be positive"}
	}
	if !model.ValidAppointmentStatuses[a.Status] {
		return &ValidationError{Entity: model.EntityAppointment, Field: "status", Value: a.Status, Reason: "not a valid appointment status"}
	}
	return nil
}

func ValidateAppointmentService(as *model.AppointmentService) error {
	if as.AppointmentID == 0 {
		return &ValidationError{Entity: model.EntityAppointmentService, Field: "appointment_id", Value: as.AppointmentID, Reason: "required"}
	}
	if as.ServiceID == 0 {
		return &ValidationError{Entity: model.EntityAppointmentService, Field: "service_id", Value: as.ServiceID, Reason: "required"}
	}
	if as.PriceAtTime < 0 {
		return &ValidationError{Entity: model.EntityAppointmentService, Field: "price_at_time", Value: as.PriceAtTime, Reason: "must not be negative"}
	}
	return nil
}

func ValidateMedication(m *model.Medication) error {
	if err := required(model.EntityMedication, "name", m.Name); err != nil {
		return err
	}
	if m.SKU != nil && strings.TrimSpace(*m.SKU) == "" {
		return &ValidationError{Entity: model.EntityMedication, Field: "sku", Value: *m.SKU, Reason: "must not be blank when present"}
	}
	if m.UnitPrice < 0 {
		return &ValidationError{Entity: model.EntityMedication, Field: "unit_price", Value: m.UnitPrice, Reason: "must not be negative"}
	}
	if m.StockQuantity < 0 {
		return &ValidationError{Entity: model.EntityMedication, Field: "stock_quantity", Value: m.StockQuantity, Reason: "must not be negative"}
	}
	return nil
}

func ValidatePrescription(p *model.Prescription) error {
	if p.AppointmentID == 0 {
		return &ValidationError{Entity: model.EntityPrescription, Field: "appointment_id", Value: p.AppointmentID, Reason: "required"}
	}
	if p.DoctorID == 0 {
		return &ValidationError{Entity: model.EntityPrescription, Field: "doctor_id", Value: p.DoctorID, Reason: "required"}
	}
	if p.PatientID == 0 {
		return &ValidationError{Entity: model.EntityPrescription, Field: "patient_id", Value: p.PatientID, Reason: "required"}
	}
	return nil
}

func ValidatePrescriptionItem(it *model.PrescriptionItem) error {
	if it.PrescriptionID == 0 {
		return &ValidationError{Entity: model.EntityPrescriptionItem, Field: "prescription_id", Value: it.PrescriptionID, Reason: "required"}
	}
	if it.MedicationID == 0 {
		return &ValidationError{Entity: model.EntityPrescriptionItem, Field: "medication_id", Value: it.MedicationID, Reason: "required"}
	}
	if err := required(model.EntityPrescriptionItem, "dosage", it.Dosage); err != nil {
		return err
	}
	if it.Quantity <= 0 {
		return &ValidationError{Entity: model.EntityPrescriptionItem, Field: "quantity", Value: it.Quantity, Reason: "must be positive"}
	}
	return nil
}

func ValidateInvoice(inv *model.Invoice) error {
	if inv.Status == "" {
		inv.Status = model.InvoiceUnpaid
	}
	if inv.PatientID == 0 {
		return &ValidationError{Entity: model.EntityInvoice, Field: "patient_id", Value: inv.PatientID, Reason: "required"}
	}
	if inv.TotalAmount < 0 {
		return &ValidationError{Entity: model.EntityInvoice, Field: "total_amount", Value: inv.TotalAmount, Reason: "must not be negative"}
	}
	if !model.ValidInvoiceStatuses[inv.Status] {
		return &ValidationError{Entity: model.EntityInvoice, Field: "status", Value: inv.Status, Reason: "not a valid invoice status"}
	}
	return nil
}

// ValidateInvoiceItem also derives LineTotal: the field is never accepted
// from the caller.
func ValidateInvoiceItem(it *model.InvoiceItem) error {
	if it.InvoiceID == 0 {
		return &ValidationError{Entity: model.EntityInvoiceItem, Field: "invoice_id", Value: it.InvoiceID, Reason: "required"}
	}
	if err := required(model.EntityInvoiceItem, "description", it.Description); err != nil {
		return err
	}
	if it.Quantity <= 0 {
		return &ValidationError{Entity: model.EntityInvoiceItem, Field: "quantity", Value: it.Quantity, Reason: "must be positive"}
	}
	if it.UnitPrice < 0 {
		return &ValidationError{Entity: model.EntityInvoiceItem, Field: "unit_price", Value: it.UnitPrice, Reason: "must not be negative"}
	}
	it.LineTotal = float64(it.Quantity) * it.UnitPrice
	return nil
}
