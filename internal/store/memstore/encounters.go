package memstore

import (
	"context"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/internal/store"
)

// -- Appointments --

type appointmentStore struct{ s *Store }

func checkAppointmentUnique(t *txn, self int64, a model.Appointment) error {
	// Exact-duplicate guard only: the same doctor at the same instant.
	// Overlapping but non-identical bookings stay representable.
	for oid, other := range t.ds.appointments {
		if oid != self && other.DoctorID == a.DoctorID && other.ScheduledAt.Equal(a.ScheduledAt) {
			return &store.UniquenessError{
				Entity: model.EntityAppointment,
				Field:  "doctor_id,scheduled_at",
				Value:  a.ScheduledAt.Format("2006-01-02T15:04:05Z07:00"),
			}
		}
	}
	return nil
}

func checkAppointmentRefs(t *txn, a model.Appointment) error {
	if _, ok := t.ds.patients[a.PatientID]; !ok {
		return &store.ReferenceError{Entity: model.EntityAppointment, Field: "patient_id", Target: model.EntityPatient, ID: a.PatientID}
	}
	if _, ok := t.ds.doctors[a.DoctorID]; !ok {
		return &store.ReferenceError{Entity: model.EntityAppointment, Field: "doctor_id", Target: model.EntityDoctor, ID: a.DoctorID}
	}
	if a.RoomID != nil {
		if _, ok := t.ds.rooms[*a.RoomID]; !ok {
			return &store.ReferenceError{Entity: model.EntityAppointment, Field: "room_id", Target: model.EntityRoom, ID: *a.RoomID}
		}
	}
	if a.CreatedBy != nil {
		if _, ok := t.ds.users[*a.CreatedBy]; !ok {
			return &store.ReferenceError{Entity: model.EntityAppointment, Field: "created_by", Target: model.EntityUser, ID: *a.CreatedBy}
		}
	}
	return nil
}

func (as appointmentStore) Insert(ctx context.Context, a model.Appointment) (int64, error) {
	var id int64
	err := as.s.write(ctx, func(t *txn) error {
		a.ScheduledAt = a.ScheduledAt.UTC()
		if err := store.ValidateAppointment(&a); err != nil {
			return err
		}
		if err := checkAppointmentRefs(t, a); err != nil {
			return err
		}
		if err := checkAppointmentUnique(t, 0, a); err != nil {
			return err
		}
		t.ensure(model.EntityAppointment)
		id = t.s.nextID()
		now := t.s.now().UTC()
		a.ID, a.CreatedAt, a.UpdatedAt = id, now, now
		t.ds.appointments[id] = a
		t.recordAudit(ctx, model.EntityAppointment, id, model.ActionCreate)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (as appointmentStore) Update(ctx context.Context, id int64, p model.AppointmentPatch) error {
	return as.s.write(ctx, func(t *txn) error {
		a, ok := t.ds.appointments[id]
		if !ok {
			return &store.NotFoundError{Entity: model.EntityAppointment, ID: id}
		}
		if p.PatientID != nil {
			a.PatientID = *p.PatientID
		}
		if p.DoctorID != nil {
			a.DoctorID = *p.DoctorID
		}
		if p.ClearRoomID {
			a.RoomID = nil
		} else if p.RoomID != nil {
			a.RoomID = p.RoomID
		}
		if p.ScheduledAt != nil {
			a.ScheduledAt = p.ScheduledAt.UTC()
		}
		if p.DurationMinutes != nil {
			a.DurationMinutes = *p.DurationMinutes
		}
		if p.Status != nil {
			a.Status = *p.Status
		}
		if p.ClearReason {
			a.Reason = nil
		} else if p.Reason != nil {
			a.Reason = p.Reason
		}
		if err := store.ValidateAppointment(&a); err != nil {
			return err
		}
		if err := checkAppointmentRefs(t, a); err != nil {
			return err
		}
		if err := checkAppointmentUnique(t, id, a); err != nil {
			return err
		}
		t.ensure(model.EntityAppointment)
		a.UpdatedAt = t.s.now().UTC()
		t.ds.appointments[id] = a
		t.recordAudit(ctx, model.EntityAppointment, id, model.ActionUpdate)
		return nil
	})
}

func (as appointmentStore) Delete(ctx context.Context, id int64) error {
	return as.s.write(ctx, func(t *txn) error {
		if _, ok := t.ds.appointments[id]; !ok {
			return &store.NotFoundError{Entity: model.EntityAppointment, ID: id}
		}
		if err := t.deleteWithPolicy(model.EntityAppointment, id); err != nil {
			return err
		}
		t.recordAudit(ctx, model.EntityAppointment, id, model.ActionDelete)
		return nil
	})
}

func (as appointmentStore) Get(_ context.Context, id int64) (model.Appointment, error) {
	a, ok := as.s.snapshot().appointments[id]
	if !ok {
		return model.Appointment{}, &store.NotFoundError{Entity: model.EntityAppointment, ID: id}
	}
	return a, nil
}

func (as appointmentStore) Find(_ context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range as.s.snapshot().appointments {
		if !matchAppointment(a, f) {
			continue
		}
		out = append(out, a)
	}
	sortByID(out, func(a model.Appointment) int64 { return a.ID })
	return out, nil
}

func matchAppointment(a model.Appointment, f model.AppointmentFilter) bool {
	if f.PatientID != nil && a.PatientID != *f.PatientID {
		return false
	}
	if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
		return false
	}
	if f.RoomID != nil && (a.RoomID == nil || *a.RoomID != *f.RoomID) {
		return false
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	if f.From != nil && a.ScheduledAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !a.ScheduledAt.Before(*f.To) {
		return false
	}
	if f.CreatedBy != nil && (a.CreatedBy == nil || *a.CreatedBy != *f.CreatedBy) {
		return false
	}
	return true
}

// -- Appointment services (junction) --

type apptServiceStore struct{ s *Store }

func (ss apptServiceStore) Insert(ctx context.Context, link model.AppointmentService) error {
	return ss.s.write(ctx, func(t *txn) error {
		if err := store.ValidateAppointmentService(&link); err != nil {
			return err
		}
		if _, ok := t.ds.appointments[link.AppointmentID]; !ok {
			return &store.ReferenceError{Entity: model.EntityAppointmentService, Field: "appointment_id", Target: model.EntityAppointment, ID: link.AppointmentID}
		}
		if _, ok := t.ds.services[link.ServiceID]; !ok {
			return &store.ReferenceError{Entity: model.EntityAppointmentService, Field: "service_id", Target: model.EntityService, ID: link.ServiceID}
		}
		key := apptSvcKey{link.AppointmentID, link.ServiceID}
		if _, ok := t.ds.apptServices[key]; ok {
			return &store.UniquenessError{Entity: model.EntityAppointmentService, Field: "appointment_id,service_id", Value: key}
		}
		t.ensure(model.EntityAppointmentService)
		t.ds.apptServices[key] = link
		t.recordAudit(ctx, model.EntityAppointmentService, link.AppointmentID, model.ActionCreate)
		return nil
	})
}

func (ss apptServiceStore) Update(ctx context.Context, appointmentID, serviceID int64, p model.AppointmentServicePatch) error {
	return ss.s.write(ctx, func(t *txn) error {
		key := apptSvcKey{appointmentID, serviceID}
		link, ok := t.ds.apptServices[key]
		if !ok {
			return &store.NotFoundError{Entity: model.EntityAppointmentService, ID: appointmentID}
		}
		if p.PriceAtTime != nil {
			link.PriceAtTime = *p.PriceAtTime
		}
		if err := store.ValidateAppointmentService(&link); err != nil {
			return err
		}
		t.ensure(model.EntityAppointmentService)
		t.ds.apptServices[key] = link
		t.recordAudit(ctx, model.EntityAppointmentService, appointmentID, model.ActionUpdate)
		return nil
	})
}

func (ss apptServiceStore) Delete(ctx context.Context, appointmentID, serviceID int64) error {
	return ss.s.write(ctx, func(t *txn) error {
		key := apptSvcKey{appointmentID, serviceID}
		if _, ok := t.ds.apptServices[key]; !ok {
			return &store.NotFoundError{Entity: model.EntityAppointmentService, ID: appointmentID}
		}
		t.ensure(model.EntityAppointmentService)
		delete(t.ds.apptServices, key)
		t.recordAudit(ctx, model.EntityAppointmentService, appointmentID, model.ActionDelete)
		return nil
	})
}

func (ss apptServiceStore) Get(_ context.Context, appointmentID, serviceID int64) (model.AppointmentService, error) {
	link, ok := ss.s.snapshot().apptServices[apptSvcKey{appointmentID, serviceID}]
	if !ok {
		return model.AppointmentService{}, &store.NotFoundError{Entity: model.EntityAppointmentService, ID: appointmentID}
	}
	return link, nil
}

func (ss apptServiceStore) ListByAppointment(_ context.Context, appointmentID int64) ([]model.AppointmentService, error) {
	var out []model.AppointmentService
	for k, link := range ss.s.snapshot().apptServices {
		if k.appointmentID == appointmentID {
			out = append(out, link)
		}
	}
	sortByID(out, func(l model.AppointmentService) int64 { return l.ServiceID })
	return out, nil
}
