package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/internal/store"
)

// -- Appointments --

type appointmentStore struct{ s *Store }

const appointmentCols = `id, patient_id, doctor_id, room_id, scheduled_at, duration_minutes, status, reason, created_by, created_at, updated_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.RoomID, &a.ScheduledAt,
		&a.DurationMinutes, &a.Status, &a.Reason, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (as appointmentStore) Insert(ctx context.Context, a model.Appointment) (int64, error) {
	if err := store.ValidateAppointment(&a); err != nil {
		return 0, err
	}
	var id int64
	err := as.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO appointments (patient_id, doctor_id, room_id, scheduled_at, duration_minutes, status, reason, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
			a.PatientID, a.DoctorID, a.RoomID, a.ScheduledAt.UTC(), a.DurationMinutes,
			a.Status, a.Reason, a.CreatedBy).Scan(&id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityAppointment, id, model.ActionCreate, nil)
	})
	if err != nil {
		return 0, translate(err, model.EntityAppointment, 0, false)
	}
	return id, nil
}

func (as appointmentStore) Update(ctx context.Context, id int64, p model.AppointmentPatch) error {
	err := as.s.mutate(ctx, func(tx pgx.Tx) error {
		a, err := scanAppointment(tx.QueryRow(ctx, `SELECT `+appointmentCols+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
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
			a.ScheduledAt = *p.ScheduledAt
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
		if _, err := tx.Exec(ctx, `
			UPDATE appointments SET patient_id = $2, doctor_id = $3, room_id = $4, scheduled_at = $5,
				duration_minutes = $6, status = $7, reason = $8, updated_at = NOW()
			WHERE id = $1`,
			id, a.PatientID, a.DoctorID, a.RoomID, a.ScheduledAt.UTC(),
			a.DurationMinutes, a.Status, a.Reason); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityAppointment, id, model.ActionUpdate, nil)
	})
	return translate(err, model.EntityAppointment, id, false)
}

func (as appointmentStore) Delete(ctx context.Context, id int64) error {
	err := as.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := lockRow(ctx, tx, "appointments", model.EntityAppointment, id); err != nil {
			return err
		}
		effects := map[string]int{}
		if err := countInto(ctx, tx, effects, model.EntityAppointmentService,
			`SELECT count(*) FROM appointment_services WHERE appointment_id = $1`, id); err != nil {
			return err
		}
		if err := countInto(ctx, tx, effects, model.EntityPrescription,
			`SELECT count(*) FROM prescriptions WHERE appointment_id = $1`, id); err != nil {
			return err
		}
		if err := countInto(ctx, tx, effects, model.EntityPrescriptionItem, `
			SELECT count(*) FROM prescription_items
			WHERE prescription_id IN (SELECT id FROM prescriptions WHERE appointment_id = $1)`, id); err != nil {
			return err
		}
		if err := countInto(ctx, tx, effects, "invoice.appointment_id",
			`SELECT count(*) FROM invoices WHERE appointment_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityAppointment, id, model.ActionDelete, effects)
	})
	return translate(err, model.EntityAppointment, id, true)
}

func (as appointmentStore) Get(ctx context.Context, id int64) (model.Appointment, error) {
	a, err := scanAppointment(as.s.pool.QueryRow(ctx, `SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		return model.Appointment{}, translate(err, model.EntityAppointment, id, false)
	}
	return a, nil
}

func (as appointmentStore) Find(ctx context.Context, f model.AppointmentFilter) ([]model.Appointment, error) {
	query := `SELECT ` + appointmentCols + ` FROM appointments WHERE 1=1`
	var args []interface{}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		query += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}
	if f.DoctorID != nil {
		args = append(args, *f.DoctorID)
		query += fmt.Sprintf(` AND doctor_id = $%d`, len(args))
	}
	if f.RoomID != nil {
		args = append(args, *f.RoomID)
		query += fmt.Sprintf(` AND room_id = $%d`, len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if f.From != nil {
		args = append(args, f.From.UTC())
		query += fmt.Sprintf(` AND scheduled_at >= $%d`, len(args))
	}
	if f.To != nil {
		args = append(args, f.To.UTC())
		query += fmt.Sprintf(` AND scheduled_at < $%d`, len(args))
	}
	if f.CreatedBy != nil {
		args = append(args, *f.CreatedBy)
		query += fmt.Sprintf(` AND created_by = $%d`, len(args))
	}
	query += ` ORDER BY id`
	rows, err := as.s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanAppointment)
}

// -- Appointment services --

type apptServiceStore struct{ s *Store }

const apptServiceCols = `appointment_id, service_id, price_at_time`

func scanApptService(row pgx.Row) (model.AppointmentService, error) {
	var as model.AppointmentService
	err := row.Scan(&as.AppointmentID, &as.ServiceID, &as.PriceAtTime)
	return as, err
}

func (s apptServiceStore) Insert(ctx context.Context, as model.AppointmentService) error {
	if err := store.ValidateAppointmentService(&as); err != nil {
		return err
	}
	err := s.s.mutate(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO appointment_services (appointment_id, service_id, price_at_time)
			VALUES ($1, $2, $3)`,
			as.AppointmentID, as.ServiceID, as.PriceAtTime); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityAppointmentService, as.AppointmentID, model.ActionCreate, nil)
	})
	return translate(err, model.EntityAppointmentService, as.AppointmentID, false)
}

func (s apptServiceStore) Update(ctx context.Context, appointmentID, serviceID int64, p model.AppointmentServicePatch) error {
	err := s.s.mutate(ctx, func(tx pgx.Tx) error {
		as, err := scanApptService(tx.QueryRow(ctx, `
			SELECT `+apptServiceCols+` FROM appointment_services
			WHERE appointment_id = $1 AND service_id = $2 FOR UPDATE`, appointmentID, serviceID))
		if err != nil {
			return err
		}
		if p.PriceAtTime != nil {
			as.PriceAtTime = *p.PriceAtTime
		}
		if err := store.ValidateAppointmentService(&as); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE appointment_services SET price_at_time = $3
			WHERE appointment_id = $1 AND service_id = $2`,
			appointmentID, serviceID, as.PriceAtTime); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityAppointmentService, appointmentID, model.ActionUpdate, nil)
	})
	return translate(err, model.EntityAppointmentService, appointmentID, false)
}

func (s apptServiceStore) Delete(ctx context.Context, appointmentID, serviceID int64) error {
	err := s.s.mutate(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM appointment_services WHERE appointment_id = $1 AND service_id = $2`,
			appointmentID, serviceID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &store.NotFoundError{Entity: model.EntityAppointmentService, ID: appointmentID}
		}
		return recordAudit(ctx, tx, model.EntityAppointmentService, appointmentID, model.ActionDelete, nil)
	})
	return translate(err, model.EntityAppointmentService, appointmentID, true)
}

func (s apptServiceStore) Get(ctx context.Context, appointmentID, serviceID int64) (model.AppointmentService, error) {
	as, err := scanApptService(s.s.pool.QueryRow(ctx, `
		SELECT `+apptServiceCols+` FROM appointment_services
		WHERE appointment_id = $1 AND service_id = $2`, appointmentID, serviceID))
	if err != nil {
		return model.AppointmentService{}, translate(err, model.EntityAppointmentService, appointmentID, false)
	}
	return as, nil
}

func (s apptServiceStore) ListByAppointment(ctx context.Context, appointmentID int64) ([]model.AppointmentService, error) {
	rows, err := s.s.pool.Query(ctx, `
		SELECT `+apptServiceCols+` FROM appointment_services
		WHERE appointment_id = $1 ORDER BY service_id`, appointmentID)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanApptService)
}
