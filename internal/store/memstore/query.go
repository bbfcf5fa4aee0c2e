package memstore

import (
	"context"
	"sort"

	"github.com/clinic/clinic/internal/model"
)

// AppointmentView joins appointments with patient, doctor and room context
// from a single snapshot, so a concurrently committing mutation is either
// fully visible or not at all. Rows come back ordered by scheduled time.
func (s *Store) AppointmentView(_ context.Context, f model.AppointmentViewFilter) ([]model.AppointmentDetail, error) {
	ds := s.snapshot()

	af := model.AppointmentFilter{
		PatientID: f.PatientID,
		DoctorID:  f.DoctorID,
		Status:    f.Status,
		From:      f.From,
		To:        f.To,
	}
	var out []model.AppointmentDetail
	for _, a := range ds.appointments {
		if !matchAppointment(a, af) {
			continue
		}
		pat, ok := ds.patients[a.PatientID]
		if !ok {
			continue // unreachable under referential integrity
		}
		doc, ok := ds.doctors[a.DoctorID]
		if !ok {
			continue
		}
		if f.Specialization != nil && (doc.Specialization == nil || !matchFold(*doc.Specialization, *f.Specialization)) {
			continue
		}
		if f.PatientLastName != nil && !matchFold(pat.LastName, *f.PatientLastName) {
			continue
		}
		d := model.AppointmentDetail{
			Appointment:          a,
			PatientFirstName:     pat.FirstName,
			PatientLastName:      pat.LastName,
			DoctorLicenseNumber:  doc.LicenseNumber,
			DoctorSpecialization: doc.Specialization,
		}
		if doc.UserID != nil {
			if u, ok := ds.users[*doc.UserID]; ok {
				name := u.Name
				d.DoctorName = &name
			}
		}
		if a.RoomID != nil {
			if r, ok := ds.rooms[*a.RoomID]; ok {
				name := r.Name
				d.RoomName = &name
			}
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
