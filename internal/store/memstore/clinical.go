package memstore

import (
	"context"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/internal/store"
)

// -- Prescriptions --

type prescriptionStore struct{ s *Store }

func checkPrescriptionRefs(t *txn, p model.Prescription) error {
	if _, ok := t.ds.appointments[p.AppointmentID]; !ok {
		return &store.ReferenceError{Entity: model.EntityPrescription, Field: "appointment_id", Target: model.EntityAppointment, ID: p.AppointmentID}
	}
	if _, ok := t.ds.doctors[p.DoctorID]; !ok {
		return &store.ReferenceError{Entity: model.EntityPrescription, Field: "doctor_id", Target: model.EntityDoctor, ID: p.DoctorID}
	}
	if _, ok := t.ds.patients[p.PatientID]; !ok {
		return &store.ReferenceError{Entity: model.EntityPrescription, Field: "patient_id", Target: model.EntityPatient, ID: p.PatientID}
	}
	return nil
}

func (ps prescriptionStore) Insert(ctx context.Context, p model.Prescription) (int64, error) {
	var id int64
	err := ps.s.write(ctx, func(t *txn) error {
		if p.IssuedAt.IsZero() {
			p.IssuedAt = t.s.now().UTC()
		}
		if err := store.ValidatePrescription(&p); err != nil {
			return err
		}
		if err := checkPrescriptionRefs(t, p); err != nil {
			return err
		}
		t.ensure(model.EntityPrescription)
		id = t.s.nextID()
		now := t.s.now().UTC()
		p.ID, p.CreatedAt, p.UpdatedAt = id, now, now
		t.ds.prescriptions[id] = p
		t.recordAudit(ctx, model.EntityPrescription, id, model.ActionCreate)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (ps prescriptionStore) Update(ctx context.Context, id int64, p model.PrescriptionPatch) error {
	return ps.s.write(ctx, func(t *txn) error {
		row, ok := t.ds.prescriptions[id]
		if !ok {
			return &store.NotFoundError{Entity: model.EntityPrescription, ID: id}
		}
		if p.IssuedAt != nil {
			row.IssuedAt = p.IssuedAt.UTC()
		}
		if p.ClearNotes {
			row.Notes = nil
		} else if p.Notes != nil {
			row.Notes = p.Notes
		}
		if err := store.ValidatePrescription(&row); err != nil {
			return err
		}
		if err := checkPrescriptionRefs(t, row); err != nil {
			return err
		}
		t.ensure(model.EntityPrescription)
		row.UpdatedAt = t.s.now().UTC()
		t.ds.prescriptions[id] = row
		t.recordAudit(ctx, model.EntityPrescription, id, model.ActionUpdate)
		return nil
	})
}

func (ps prescriptionStore) Delete(ctx context.Context, id int64) error {
	return ps.s.write(ctx, func(t *txn) error {
		if _, ok := t.ds.prescriptions[id]; !ok {
			return &store.NotFoundError{Entity: model.EntityPrescription, ID: id}
		}
		if err := t.deleteWithPolicy(model.EntityPrescription, id); err != nil {
			return err
		}
		t.recordAudit(ctx, model.EntityPrescription, id, model.ActionDelete)
		return nil
	})
}

func (ps prescriptionStore) Get(_ context.Context, id int64) (model.Prescription, error) {
	p, ok := ps.s.snapshot().prescriptions[id]
	if !ok {
		return model.Prescription{}, &store.NotFoundError{Entity: model.EntityPrescription, ID: id}
	}
	return p, nil
}

func (ps prescriptionStore) Find(_ context.Context, f model.PrescriptionFilter) ([]model.Prescription, error) {
	var out []model.Prescription
	for _, p := range ps.s.snapshot().prescriptions {
		if f.PatientID != nil && p.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && p.DoctorID != *f.DoctorID {
			continue
		}
		if f.AppointmentID != nil && p.AppointmentID != *f.AppointmentID {
			continue
		}
		if f.From != nil && p.IssuedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !p.IssuedAt.Before(*f.To) {
			continue
		}
		out = append(out, p)
	}
	sortByID(out, func(p model.Prescription) int64 { return p.ID })
	return out, nil
}

// -- Prescription items (junction) --

type rxItemStore struct{ s *Store }

func (rs rxItemStore) Insert(ctx context.Context, it model.PrescriptionItem) error {
	return rs.s.write(ctx, func(t *txn) error {
		if err := store.ValidatePrescriptionItem(&it); err != nil {
			return err
		}
		if _, ok := t.ds.prescriptions[it.PrescriptionID]; !ok {
			return &store.ReferenceError{Entity: model.EntityPrescriptionItem, Field: "prescription_id", Target: model.EntityPrescription, ID: it.PrescriptionID}
		}
		if _, ok := t.ds.medications[it.MedicationID]; !ok {
			return &store.ReferenceError{Entity: model.EntityPrescriptionItem, Field: "medication_id", Target: model.EntityMedication, ID: it.MedicationID}
		}
		key := rxItemKey{it.PrescriptionID, it.MedicationID}
		if _, ok := t.ds.rxItems[key]; ok {
			return &store.UniquenessError{Entity: model.EntityPrescriptionItem, Field: "prescription_id,medication_id", Value: key}
		}
		t.ensure(model.EntityPrescriptionItem)
		t.ds.rxItems[key] = it
		t.recordAudit(ctx, model.EntityPrescriptionItem, it.PrescriptionID, model.ActionCreate)
		return nil
	})
}

func (rs rxItemStore) Update(ctx context.Context, prescriptionID, medicationID int64, p model.PrescriptionItemPatch) error {
	return rs.s.write(ctx, func(t *txn) error {
		key := rxItemKey{prescriptionID, medicationID}
		it, ok := t.ds.rxItems[key]
		if !ok {
			return &store.NotFoundError{Entity: model.EntityPrescriptionItem, ID: prescriptionID}
		}
		if p.Dosage != nil {
			it.Dosage = *p.Dosage
		}
		if p.Quantity != nil {
			it.Quantity = *p.Quantity
		}
		if p.ClearInstructions {
			it.Instructions = nil
		} else if p.Instructions != nil {
			it.Instructions = p.Instructions
		}
		if err := store.ValidatePrescriptionItem(&it); err != nil {
			return err
		}
		t.ensure(model.EntityPrescriptionItem)
		t.ds.rxItems[key] = it
		t.recordAudit(ctx, model.EntityPrescriptionItem, prescriptionID, model.ActionUpdate)
		return nil
	})
}

func (rs rxItemStore) Delete(ctx context.Context, prescriptionID, medicationID int64) error {
	return rs.s.write(ctx, func(t *txn) error {
		key := rxItemKey{prescriptionID, medicationID}
		if _, ok := t.ds.rxItems[key]; !ok {
			return &store.NotFoundError{Entity: model.EntityPrescriptionItem, ID: prescriptionID}
		}
		t.ensure(model.EntityPrescriptionItem)
		delete(t.ds.rxItems, key)
		t.recordAudit(ctx, model.EntityPrescriptionItem, prescriptionID, model.ActionDelete)
		return nil
	})
}

func (rs rxItemStore) Get(_ context.Context, prescriptionID, medicationID int64) (model.PrescriptionItem, error) {
	it, ok := rs.s.snapshot().rxItems[rxItemKey{prescriptionID, medicationID}]
	if !ok {
		return model.PrescriptionItem{}, &store.NotFoundError{Entity: model.EntityPrescriptionItem, ID: prescriptionID}
	}
	return it, nil
}

func (rs rxItemStore) ListByPrescription(_ context.Context, prescriptionID int64) ([]model.PrescriptionItem, error) {
	var out []model.PrescriptionItem
	for k, it := range rs.s.snapshot().rxItems {
		if k.prescriptionID == prescriptionID {
			out = append(out, it)
		}
	}
	sortByID(out, func(it model.PrescriptionItem) int64 { return it.MedicationID })
	return out, nil
}
