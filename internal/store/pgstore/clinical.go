package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/internal/store"
)

// -- Prescriptions --

type prescriptionStore struct{ s *Store }

const prescriptionCols = `id, appointment_id, doctor_id, patient_id, issued_at, notes, created_at, updated_at`

func scanPrescription(row pgx.Row) (model.Prescription, error) {
	var p model.Prescription
	err := row.Scan(&p.ID, &p.AppointmentID, &p.DoctorID, &p.PatientID, &p.IssuedAt, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (ps prescriptionStore) Insert(ctx context.Context, p model.Prescription) (int64, error) {
	if err := store.ValidatePrescription(&p); err != nil {
		return 0, err
	}
	// Zero IssuedAt falls back to the database clock.
	var issued interface{}
	if !p.IssuedAt.IsZero() {
		issued = p.IssuedAt.UTC()
	}
	var id int64
	err := ps.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO prescriptions (appointment_id, doctor_id, patient_id, issued_at, notes)
			VALUES ($1, $2, $3, COALESCE($4, NOW()), $5) RETURNING id`,
			p.AppointmentID, p.DoctorID, p.PatientID, issued, p.Notes).Scan(&id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityPrescription, id, model.ActionCreate, nil)
	})
	if err != nil {
		return 0, translate(err, model.EntityPrescription, 0, false)
	}
	return id, nil
}

func (ps prescriptionStore) Update(ctx context.Context, id int64, patch model.PrescriptionPatch) error {
	err := ps.s.mutate(ctx, func(tx pgx.Tx) error {
		p, err := scanPrescription(tx.QueryRow(ctx, `SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if patch.IssuedAt != nil {
			p.IssuedAt = patch.IssuedAt.UTC()
		}
		if patch.ClearNotes {
			p.Notes = nil
		} else if patch.Notes != nil {
			p.Notes = patch.Notes
		}
		if err := store.ValidatePrescription(&p); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE prescriptions SET issued_at = $2, notes = $3, updated_at = NOW() WHERE id = $1`,
			id, p.IssuedAt, p.Notes); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityPrescription, id, model.ActionUpdate, nil)
	})
	return translate(err, model.EntityPrescription, id, false)
}

func (ps prescriptionStore) Delete(ctx context.Context, id int64) error {
	err := ps.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := lockRow(ctx, tx, "prescriptions", model.EntityPrescription, id); err != nil {
			return err
		}
		effects := map[string]int{}
		if err := countInto(ctx, tx, effects, model.EntityPrescriptionItem,
			`SELECT count(*) FROM prescription_items WHERE prescription_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityPrescription, id, model.ActionDelete, effects)
	})
	return translate(err, model.EntityPrescription, id, true)
}

func (ps prescriptionStore) Get(ctx context.Context, id int64) (model.Prescription, error) {
	p, err := scanPrescription(ps.s.pool.QueryRow(ctx, `SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1`, id))
	if err != nil {
		return model.Prescription{}, translate(err, model.EntityPrescription, id, false)
	}
	return p, nil
}

func (ps prescriptionStore) Find(ctx context.Context, f model.PrescriptionFilter) ([]model.Prescription, error) {
	query := `SELECT ` + prescriptionCols + ` FROM prescriptions WHERE 1=1`
	var args []interface{}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		query += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}
	if f.DoctorID != nil {
		args = append(args, *f.DoctorID)
		query += fmt.Sprintf(` AND doctor_id = $%d`, len(args))
	}
	if f.AppointmentID != nil {
		args = append(args, *f.AppointmentID)
		query += fmt.Sprintf(` AND appointment_id = $%d`, len(args))
	}
	if f.From != nil {
		args = append(args, f.From.UTC())
		query += fmt.Sprintf(` AND issued_at >= $%d`, len(args))
	}
	if f.To != nil {
		args = append(args, f.To.UTC())
		query += fmt.Sprintf(` AND issued_at < $%d`, len(args))
	}
	query += ` ORDER BY id`
	rows, err := ps.s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanPrescription)
}

// -- Prescription items --

type rxItemStore struct{ s *Store }

const rxItemCols = `prescription_id, medication_id, dosage, quantity, instructions`

func scanRxItem(row pgx.Row) (model.PrescriptionItem, error) {
	var it model.PrescriptionItem
	err := row.Scan(&it.PrescriptionID, &it.MedicationID, &it.Dosage, &it.Quantity, &it.Instructions)
	return it, err
}

func (rs rxItemStore) Insert(ctx context.Context, it model.PrescriptionItem) error {
	if err := store.ValidatePrescriptionItem(&it); err != nil {
		return err
	}
	err := rs.s.mutate(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO prescription_items (prescription_id, medication_id, dosage, quantity, instructions)
			VALUES ($1, $2, $3, $4, $5)`,
			it.PrescriptionID, it.MedicationID, it.Dosage, it.Quantity, it.Instructions); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityPrescriptionItem, it.PrescriptionID, model.ActionCreate, nil)
	})
	return translate(err, model.EntityPrescriptionItem, it.PrescriptionID, false)
}

func (rs rxItemStore) Update(ctx context.Context, prescriptionID, medicationID int64, p model.PrescriptionItemPatch) error {
	err := rs.s.mutate(ctx, func(tx pgx.Tx) error {
		it, err := scanRxItem(tx.QueryRow(ctx, `
			SELECT `+rxItemCols+` FROM prescription_items
			WHERE prescription_id = $1 AND medication_id = $2 FOR UPDATE`, prescriptionID, medicationID))
		if err != nil {
			return err
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
		if _, err := tx.Exec(ctx, `
			UPDATE prescription_items SET dosage = $3, quantity = $4, instructions = $5
			WHERE prescription_id = $1 AND medication_id = $2`,
			prescriptionID, medicationID, it.Dosage, it.Quantity, it.Instructions); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityPrescriptionItem, prescriptionID, model.ActionUpdate, nil)
	})
	return translate(err, model.EntityPrescriptionItem, prescriptionID, false)
}

func (rs rxItemStore) Delete(ctx context.Context, prescriptionID, medicationID int64) error {
	err := rs.s.mutate(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM prescription_items WHERE prescription_id = $1 AND medication_id = $2`,
			prescriptionID, medicationID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &store.NotFoundError{Entity: model.EntityPrescriptionItem, ID: prescriptionID}
		}
		return recordAudit(ctx, tx, model.EntityPrescriptionItem, prescriptionID, model.ActionDelete, nil)
	})
	return translate(err, model.EntityPrescriptionItem, prescriptionID, true)
}

func (rs rxItemStore) Get(ctx context.Context, prescriptionID, medicationID int64) (model.PrescriptionItem, error) {
	it, err := scanRxItem(rs.s.pool.QueryRow(ctx, `
		SELECT `+rxItemCols+` FROM prescription_items
		WHERE prescription_id = $1 AND medication_id = $2`, prescriptionID, medicationID))
	if err != nil {
		return model.PrescriptionItem{}, translate(err, model.EntityPrescriptionItem, prescriptionID, false)
	}
	return it, nil
}

func (rs rxItemStore) ListByPrescription(ctx context.Context, prescriptionID int64) ([]model.PrescriptionItem, error) {
	rows, err := rs.s.pool.Query(ctx, `
		SELECT `+rxItemCols+` FROM prescription_items
		WHERE prescription_id = $1 ORDER BY medication_id`, prescriptionID)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanRxItem)
}
