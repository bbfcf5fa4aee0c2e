package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/internal/store"
)

// -- Users --

type userStore struct{ s *Store }

const userCols = `id, username, email, password_hash, name, role_id, created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Name, &u.RoleID, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (us userStore) Insert(ctx context.Context, u model.User) (int64, error) {
	if err := store.ValidateUser(&u); err != nil {
		return 0, err
	}
	var id int64
	err := us.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO users (username, email, password_hash, name, role_id)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			u.Username, u.Email, u.PasswordHash, u.Name, u.RoleID).Scan(&id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityUser, id, model.ActionCreate, nil)
	})
	if err != nil {
		return 0, translate(err, model.EntityUser, 0, false)
	}
	return id, nil
}

func (us userStore) Update(ctx context.Context, id int64, p model.UserPatch) error {
	err := us.s.mutate(ctx, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if p.Username != nil {
			u.Username = *p.Username
		}
		if p.Email != nil {
			u.Email = *p.Email
		}
		if p.PasswordHash != nil {
			u.PasswordHash = *p.PasswordHash
		}
		if p.Name != nil {
			u.Name = *p.Name
		}
		if p.RoleID != nil {
			u.RoleID = *p.RoleID
		}
		if err := store.ValidateUser(&u); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE users SET username = $2, email = $3, password_hash = $4, name = $5, role_id = $6, updated_at = NOW()
			WHERE id = $1`,
			id, u.Username, u.Email, u.PasswordHash, u.Name, u.RoleID); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityUser, id, model.ActionUpdate, nil)
	})
	return translate(err, model.EntityUser, id, false)
}

func (us userStore) Delete(ctx context.Context, id int64) error {
	err := us.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := lockRow(ctx, tx, "users", model.EntityUser, id); err != nil {
			return err
		}
		effects := map[string]int{}
		if err := countInto(ctx, tx, effects, "doctor.user_id",
			`SELECT count(*) FROM doctors WHERE user_id = $1`, id); err != nil {
			return err
		}
		if err := countInto(ctx, tx, effects, "appointment.created_by",
			`SELECT count(*) FROM appointments WHERE created_by = $1`, id); err != nil {
			return err
		}
		if err := countInto(ctx, tx, effects, "audit_log.performer_id",
			`SELECT count(*) FROM audit_logs WHERE performer_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityUser, id, model.ActionDelete, effects)
	})
	return translate(err, model.EntityUser, id, true)
}

func (us userStore) Get(ctx context.Context, id int64) (model.User, error) {
	u, err := scanUser(us.s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	if err != nil {
		return model.User{}, translate(err, model.EntityUser, id, false)
	}
	return u, nil
}

func (us userStore) Find(ctx context.Context, f model.UserFilter) ([]model.User, error) {
	query := `SELECT ` + userCols + ` FROM users WHERE 1=1`
	var args []interface{}
	if f.Username != nil {
		args = append(args, *f.Username)
		query += fmt.Sprintf(` AND username = $%d`, len(args))
	}
	if f.Email != nil {
		args = append(args, *f.Email)
		query += fmt.Sprintf(` AND email = $%d`, len(args))
	}
	if f.RoleID != nil {
		args = append(args, *f.RoleID)
		query += fmt.Sprintf(` AND role_id = $%d`, len(args))
	}
	query += ` ORDER BY id`
	rows, err := us.s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanUser)
}

// -- Patients --

type patientStore struct{ s *Store }

const patientCols = `id, first_name, last_name, date_of_birth, gender, national_id, phone, address, created_at, updated_at`

func scanPatient(row pgx.Row) (model.Patient, error) {
	var p model.Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender,
		&p.NationalID, &p.Phone, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (ps patientStore) Insert(ctx context.Context, p model.Patient) (int64, error) {
	if err := store.ValidatePatient(&p); err != nil {
		return 0, err
	}
	var id int64
	err := ps.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO patients (first_name, last_name, date_of_birth, gender, national_id, phone, address)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.NationalID, p.Phone, p.Address).Scan(&id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityPatient, id, model.ActionCreate, nil)
	})
	if err != nil {
		return 0, translate(err, model.EntityPatient, 0, false)
	}
	return id, nil
}

func (ps patientStore) Update(ctx context.Context, id int64, patch model.PatientPatch) error {
	err := ps.s.mutate(ctx, func(tx pgx.Tx) error {
		p, err := scanPatient(tx.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if patch.FirstName != nil {
			p.FirstName = *patch.FirstName
		}
		if patch.LastName != nil {
			p.LastName = *patch.LastName
		}
		if patch.DateOfBirth != nil {
			p.DateOfBirth = *patch.DateOfBirth
		}
		if patch.Gender != nil {
			p.Gender = *patch.Gender
		}
		if patch.ClearNationalID {
			p.NationalID = nil
		} else if patch.NationalID != nil {
			p.NationalID = patch.NationalID
		}
		if patch.ClearPhone {
			p.Phone = nil
		} else if patch.Phone != nil {
			p.Phone = patch.Phone
		}
		if patch.ClearAddress {
			p.Address = nil
		} else if patch.Address != nil {
			p.Address = patch.Address
		}
		if err := store.ValidatePatient(&p); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE patients SET first_name = $2, last_name = $3, date_of_birth = $4, gender = $5,
				national_id = $6, phone = $7, address = $8, updated_at = NOW()
			WHERE id = $1`,
			id, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.NationalID, p.Phone, p.Address); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityPatient, id, model.ActionUpdate, nil)
	})
	return translate(err, model.EntityPatient, id, false)
}

func (ps patientStore) Delete(ctx context.Context, id int64) error {
	err := ps.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := lockRow(ctx, tx, "patients", model.EntityPatient, id); err != nil {
			return err
		}
		effects := map[string]int{}
		if err := countInto(ctx, tx, effects, model.EntityAppointment,
			`SELECT count(*) FROM appointments WHERE patient_id = $1`, id); err != nil {
			return err
		}
		if err := countInto(ctx, tx, effects, model.EntityAppointmentService, `
			SELECT count(*) FROM appointment_services
			WHERE appointment_id IN (SELECT id FROM appointments WHERE patient_id = $1)`, id); err != nil {
			return err
		}
		if err := countInto(ctx, tx, effects, model.EntityPrescription, `
			SELECT count(*) FROM prescriptions
			WHERE patient_id = $1
			   OR appointment_id IN (SELECT id FROM appointments WHERE patient_id = $1)`, id); err != nil {
			return err
		}
		if err := countInto(ctx, tx, effects, model.EntityPrescriptionItem, `
			SELECT count(*) FROM prescription_items
			WHERE prescription_id IN (
				SELECT id FROM prescriptions
				WHERE patient_id = $1
				   OR appointment_id IN (SELECT id FROM appointments WHERE patient_id = $1))`, id); err != nil {
			return err
		}
		if err := countInto(ctx, tx, effects, "invoice.appointment_id", `
			SELECT count(*) FROM invoices
			WHERE appointment_id IN (SELECT id FROM appointments WHERE patient_id = $1)`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityPatient, id, model.ActionDelete, effects)
	})
	return translate(err, model.EntityPatient, id, true)
}

func (ps patientStore) Get(ctx context.Context, id int64) (model.Patient, error) {
	p, err := scanPatient(ps.s.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if err != nil {
		return model.Patient{}, translate(err, model.EntityPatient, id, false)
	}
	return p, nil
}

func (ps patientStore) Find(ctx context.Context, f model.PatientFilter) ([]model.Patient, error) {
	query := `SELECT ` + patientCols + ` FROM patients WHERE 1=1`
	var args []interface{}
	if f.FirstName != nil {
		args = append(args, like(*f.FirstName))
		query += fmt.Sprintf(` AND first_name ILIKE $%d`, len(args))
	}
	if f.LastName != nil {
		args = append(args, like(*f.LastName))
		query += fmt.Sprintf(` AND last_name ILIKE $%d`, len(args))
	}
	if f.Gender != nil {
		args = append(args, *f.Gender)
		query += fmt.Sprintf(` AND gender = $%d`, len(args))
	}
	if f.NationalID != nil {
		args = append(args, *f.NationalID)
		query += fmt.Sprintf(` AND national_id = $%d`, len(args))
	}
	query += ` ORDER BY id`
	rows, err := ps.s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanPatient)
}

// -- Doctors --

type doctorStore struct{ s *Store }

const doctorCols = `id, user_id, license_number, specialization, consultation_fee, created_at, updated_at`

func scanDoctor(row pgx.Row) (model.Doctor, error) {
	var d model.Doctor
	err := row.Scan(&d.ID, &d.UserID, &d.LicenseNumber, &d.Specialization, &d.ConsultationFee, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (ds doctorStore) Insert(ctx context.Context, d model.Doctor) (int64, error) {
	if err := store.ValidateDoctor(&d); err != nil {
		return 0, err
	}
	var id int64
	err := ds.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO doctors (user_id, license_number, specialization, consultation_fee)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			d.UserID, d.LicenseNumber, d.Specialization, d.ConsultationFee).Scan(&id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityDoctor, id, model.ActionCreate, nil)
	})
	if err != nil {
		return 0, translate(err, model.EntityDoctor, 0, false)
	}
	return id, nil
}

func (ds doctorStore) Update(ctx context.Context, id int64, p model.DoctorPatch) error {
	err := ds.s.mutate(ctx, func(tx pgx.Tx) error {
		d, err := scanDoctor(tx.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if p.ClearUserID {
			d.UserID = nil
		} else if p.UserID != nil {
			d.UserID = p.UserID
		}
		if p.LicenseNumber != nil {
			d.LicenseNumber = *p.LicenseNumber
		}
		if p.ClearSpecialization {
			d.Specialization = nil
		} else if p.Specialization != nil {
			d.Specialization = p.Specialization
		}
		if p.ConsultationFee != nil {
			d.ConsultationFee = *p.ConsultationFee
		}
		if err := store.ValidateDoctor(&d); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE doctors SET user_id = $2, license_number = $3, specialization = $4, consultation_fee = $5, updated_at = NOW()
			WHERE id = $1`,
			id, d.UserID, d.LicenseNumber, d.Specialization, d.ConsultationFee); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityDoctor, id, model.ActionUpdate, nil)
	})
	return translate(err, model.EntityDoctor, id, false)
}

func (ds doctorStore) Delete(ctx context.Context, id int64) error {
	err := ds.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := lockRow(ctx, tx, "doctors", model.EntityDoctor, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityDoctor, id, model.ActionDelete, nil)
	})
	return translate(err, model.EntityDoctor, id, true)
}

func (ds doctorStore) Get(ctx context.Context, id int64) (model.Doctor, error) {
	d, err := scanDoctor(ds.s.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
	if err != nil {
		return model.Doctor{}, translate(err, model.EntityDoctor, id, false)
	}
	return d, nil
}

func (ds doctorStore) Find(ctx context.Context, f model.DoctorFilter) ([]model.Doctor, error) {
	query := `SELECT ` + doctorCols + ` FROM doctors WHERE 1=1`
	var args []interface{}
	if f.Specialization != nil {
		args = append(args, like(*f.Specialization))
		query += fmt.Sprintf(` AND specialization ILIKE $%d`, len(args))
	}
	if f.LicenseNumber != nil {
		args = append(args, *f.LicenseNumber)
		query += fmt.Sprintf(` AND license_number = $%d`, len(args))
	}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		query += fmt.Sprintf(` AND user_id = $%d`, len(args))
	}
	query += ` ORDER BY id`
	rows, err := ds.s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanDoctor)
}
