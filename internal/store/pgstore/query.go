package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinic/clinic/internal/model"
)

// AppointmentView joins appointments with patient, doctor and room context in
// one statement, ordered by scheduled time. The doctor's display name comes
// from the linked login when one exists.
func (s *Store) AppointmentView(ctx context.Context, f model.AppointmentViewFilter) ([]model.AppointmentDetail, error) {
	query := `
		SELECT a.id, a.patient_id, a.doctor_id, a.room_id, a.scheduled_at, a.duration_minutes,
			a.status, a.reason, a.created_by, a.created_at, a.updated_at,
			p.first_name, p.last_name,
			d.license_number, d.specialization,
			u.name, r.name
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN doctors d ON d.id = a.doctor_id
		LEFT JOIN users u ON u.id = d.user_id
		LEFT JOIN rooms r ON r.id = a.room_id
		WHERE 1=1`
	var args []interface{}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		query += fmt.Sprintf(` AND a.patient_id = $%d`, len(args))
	}
	if f.DoctorID != nil {
		args = append(args, *f.DoctorID)
		query += fmt.Sprintf(` AND a.doctor_id = $%d`, len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(` AND a.status = $%d`, len(args))
	}
	if f.From != nil {
		args = append(args, f.From.UTC())
		query += fmt.Sprintf(` AND a.scheduled_at >= $%d`, len(args))
	}
	if f.To != nil {
		args = append(args, f.To.UTC())
		query += fmt.Sprintf(` AND a.scheduled_at < $%d`, len(args))
	}
	if f.Specialization != nil {
		args = append(args, like(*f.Specialization))
		query += fmt.Sprintf(` AND d.specialization ILIKE $%d`, len(args))
	}
	if f.PatientLastName != nil {
		args = append(args, like(*f.PatientLastName))
		query += fmt.Sprintf(` AND p.last_name ILIKE $%d`, len(args))
	}
	query += ` ORDER BY a.scheduled_at, a.id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, func(row pgx.Row) (model.AppointmentDetail, error) {
		var d model.AppointmentDetail
		err := row.Scan(&d.ID, &d.PatientID, &d.DoctorID, &d.RoomID, &d.ScheduledAt, &d.DurationMinutes,
			&d.Status, &d.Reason, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
			&d.PatientFirstName, &d.PatientLastName,
			&d.DoctorLicenseNumber, &d.DoctorSpecialization,
			&d.DoctorName, &d.RoomName)
		return d, err
	})
}
