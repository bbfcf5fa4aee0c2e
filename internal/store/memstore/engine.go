package memstore

import (
	"fmt"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/internal/store"
)

// The cascade engine walks the relationship policy table for the entity
// being deleted: restrict edges first (a blocked delete must leave no
// trace), then cascade and set-null edges, recursing through children that
// have policies of their own. Everything happens inside one txn, so a
// failure at any depth discards the whole staged mutation.

func (t *txn) deleteWithPolicy(entity string, id int64) error {
	rels := store.RelationshipsOf(entity)
	for _, rel := range rels {
		if rel.OnDelete == store.Restrict && t.hasChildren(rel, id) {
			return &store.RestrictedDeleteError{Entity: entity, ID: id, Dependent: rel.Child}
		}
	}
	for _, rel := range rels {
		switch rel.OnDelete {
		case store.Cascade:
			if err := t.cascadeChildren(rel, id); err != nil {
				return err
			}
		case store.SetNull:
			t.clearChildren(rel, id)
		}
	}
	t.removeRow(entity, id)
	return nil
}

func (t *txn) hasChildren(rel store.Relationship, parentID int64) bool {
	switch rel.Child + "." + rel.Field {
	case "user.role_id":
		for _, u := range t.ds.users {
			if u.RoleID == parentID {
				return true
			}
		}
	case "invoice.patient_id":
		for _, inv := range t.ds.invoices {
			if inv.PatientID == parentID {
				return true
			}
		}
	case "appointment.doctor_id":
		for _, a := range t.ds.appointments {
			if a.DoctorID == parentID {
				return true
			}
		}
	case "prescription.doctor_id":
		for _, p := range t.ds.prescriptions {
			if p.DoctorID == parentID {
				return true
			}
		}
	case "appointment_service.service_id":
		for k := range t.ds.apptServices {
			if k.serviceID == parentID {
				return true
			}
		}
	case "prescription_item.medication_id":
		for k := range t.ds.rxItems {
			if k.medicationID == parentID {
				return true
			}
		}
	default:
		panic(fmt.Sprintf("memstore: no restrict check for %s.%s", rel.Child, rel.Field))
	}
	return false
}

func (t *txn) cascadeChildren(rel store.Relationship, parentID int64) error {
	switch rel.Child + "." + rel.Field {
	case "appointment.patient_id":
		for _, id := range t.collectAppointments(func(a model.Appointment) bool { return a.PatientID == parentID }) {
			if _, ok := t.ds.appointments[id]; !ok {
				continue
			}
			if err := t.deleteWithPolicy(model.EntityAppointment, id); err != nil {
				return err
			}
			t.effects[model.EntityAppointment]++
		}
	case "prescription.patient_id":
		for _, id := range t.collectPrescriptions(func(p model.Prescription) bool { return p.PatientID == parentID }) {
			if _, ok := t.ds.prescriptions[id]; !ok {
				continue // already removed through an appointment cascade
			}
			if err := t.deleteWithPolicy(model.EntityPrescription, id); err != nil {
				return err
			}
			t.effects[model.EntityPrescription]++
		}
	case "prescription.appointment_id":
		for _, id := range t.collectPrescriptions(func(p model.Prescription) bool { return p.AppointmentID == parentID }) {
			if _, ok := t.ds.prescriptions[id]; !ok {
				continue
			}
			if err := t.deleteWithPolicy(model.EntityPrescription, id); err != nil {
				return err
			}
			t.effects[model.EntityPrescription]++
		}
	case "appointment_service.appointment_id":
		var keys []apptSvcKey
		for k := range t.ds.apptServices {
			if k.appointmentID == parentID {
				keys = append(keys, k)
			}
		}
		if len(keys) > 0 {
			t.ensure(model.EntityAppointmentService)
			for _, k := range keys {
				delete(t.ds.apptServices, k)
				t.effects[model.EntityAppointmentService]++
			}
		}
	case "prescription_item.prescription_id":
		var keys []rxItemKey
		for k := range t.ds.rxItems {
			if k.prescriptionID == parentID {
				keys = append(keys, k)
			}
		}
		if len(keys) > 0 {
			t.ensure(model.EntityPrescriptionItem)
			for _, k := range keys {
				delete(t.ds.rxItems, k)
				t.effects[model.EntityPrescriptionItem]++
			}
		}
	case "invoice_item.invoice_id":
		var ids []int64
		for id, it := range t.ds.invoiceItems {
			if it.InvoiceID == parentID {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			t.ensure(model.EntityInvoiceItem)
			for _, id := range ids {
				delete(t.ds.invoiceItems, id)
				t.effects[model.EntityInvoiceItem]++
			}
		}
	default:
		panic(fmt.Sprintf("memstore: no cascade for %s.%s", rel.Child, rel.Field))
	}
	return nil
}

func (t *txn) clearChildren(rel store.Relationship, parentID int64) {
	now := t.s.now().UTC()
	tag := rel.Child + "." + rel.Field
	switch tag {
	case "doctor.user_id":
		for id, d := range t.ds.doctors {
			if d.UserID != nil && *d.UserID == parentID {
				t.ensure(model.EntityDoctor)
				d.UserID = nil
				d.UpdatedAt = now
				t.ds.doctors[id] = d
				t.effects[tag]++
			}
		}
	case "appointment.created_by":
		for id, a := range t.ds.appointments {
			if a.CreatedBy != nil && *a.CreatedBy == parentID {
				t.ensure(model.EntityAppointment)
				a.CreatedBy = nil
				a.UpdatedAt = now
				t.ds.appointments[id] = a
				t.effects[tag]++
			}
		}
	case "audit_log.performer_id":
		for id, e := range t.ds.audit {
			if e.PerformerID != nil && *e.PerformerID == parentID {
				t.ensure(model.EntityAuditLog)
				e.PerformerID = nil
				t.ds.audit[id] = e
				t.effects[tag]++
			}
		}
	case "appointment.room_id":
		for id, a := range t.ds.appointments {
			if a.RoomID != nil && *a.RoomID == parentID {
				t.ensure(model.EntityAppointment)
				a.RoomID = nil
				a.UpdatedAt = now
				t.ds.appointments[id] = a
				t.effects[tag]++
			}
		}
	case "invoice.appointment_id":
		for id, inv := range t.ds.invoices {
			if inv.AppointmentID != nil && *inv.AppointmentID == parentID {
				t.ensure(model.EntityInvoice)
				inv.AppointmentID = nil
				inv.UpdatedAt = now
				t.ds.invoices[id] = inv
				t.effects[tag]++
			}
		}
	default:
		panic(fmt.Sprintf("memstore: no set-null for %s", tag))
	}
}

func (t *txn) removeRow(entity string, id int64) {
	t.ensure(entity)
	switch entity {
	case model.EntityRole:
		delete(t.ds.roles, id)
	case model.EntityUser:
		delete(t.ds.users, id)
	case model.EntityPatient:
		delete(t.ds.patients, id)
	case model.EntityDoctor:
		delete(t.ds.doctors, id)
	case model.EntityRoom:
		delete(t.ds.rooms, id)
	case model.EntityService:
		delete(t.ds.services, id)
	case model.EntityAppointment:
		delete(t.ds.appointments, id)
	case model.EntityMedication:
		delete(t.ds.medications, id)
	case model.EntityPrescription:
		delete(t.ds.prescriptions, id)
	case model.EntityInvoice:
		delete(t.ds.invoices, id)
	default:
		panic(fmt.Sprintf("memstore: removeRow on %s", entity))
	}
}

func (t *txn) collectAppointments(match func(model.Appointment) bool) []int64 {
	var ids []int64
	for id, a := range t.ds.appointments {
		if match(a) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (t *txn) collectPrescriptions(match func(model.Prescription) bool) []int64 {
	var ids []int64
	for id, p := range t.ds.prescriptions {
		if match(p) {
			ids = append(ids, id)
		}
	}
	return ids
}
