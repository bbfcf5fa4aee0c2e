package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/internal/store"
)

// -- Roles --

type roleStore struct{ s *Store }

const roleCols = `id, name, description, created_at, updated_at`

func scanRole(row pgx.Row) (model.Role, error) {
	var r model.Role
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (rs roleStore) Insert(ctx context.Context, r model.Role) (int64, error) {
	if err := store.ValidateRole(&r); err != nil {
		return 0, err
	}
	var id int64
	err := rs.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING id`,
			r.Name, r.Description).Scan(&id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityRole, id, model.ActionCreate, nil)
	})
	if err != nil {
		return 0, translate(err, model.EntityRole, 0, false)
	}
	return id, nil
}

func (rs roleStore) Update(ctx context.Context, id int64, p model.RolePatch) error {
	err := rs.s.mutate(ctx, func(tx pgx.Tx) error {
		r, err := scanRole(tx.QueryRow(ctx, `SELECT `+roleCols+` FROM roles WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if p.Name != nil {
			r.Name = *p.Name
		}
		if p.Description != nil {
			r.Description = p.Description
		}
		if err := store.ValidateRole(&r); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE roles SET name = $2, description = $3, updated_at = NOW() WHERE id = $1`,
			id, r.Name, r.Description); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityRole, id, model.ActionUpdate, nil)
	})
	return translate(err, model.EntityRole, id, false)
}

func (rs roleStore) Delete(ctx context.Context, id int64) error {
	err := rs.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := lockRow(ctx, tx, "roles", model.EntityRole, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityRole, id, model.ActionDelete, nil)
	})
	return translate(err, model.EntityRole, id, true)
}

func (rs roleStore) Get(ctx context.Context, id int64) (model.Role, error) {
	r, err := scanRole(rs.s.pool.QueryRow(ctx, `SELECT `+roleCols+` FROM roles WHERE id = $1`, id))
	if err != nil {
		return model.Role{}, translate(err, model.EntityRole, id, false)
	}
	return r, nil
}

func (rs roleStore) Find(ctx context.Context, f model.RoleFilter) ([]model.Role, error) {
	query := `SELECT ` + roleCols + ` FROM roles WHERE 1=1`
	var args []interface{}
	if f.Name != nil {
		args = append(args, like(*f.Name))
		query += fmt.Sprintf(` AND name ILIKE $%d`, len(args))
	}
	query += ` ORDER BY id`
	rows, err := rs.s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanRole)
}

// -- Rooms --

type roomStore struct{ s *Store }

const roomCols = `id, name, created_at, updated_at`

func scanRoom(row pgx.Row) (model.Room, error) {
	var r model.Room
	err := row.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (rs roomStore) Insert(ctx context.Context, r model.Room) (int64, error) {
	if err := store.ValidateRoom(&r); err != nil {
		return 0, err
	}
	var id int64
	err := rs.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO rooms (name) VALUES ($1) RETURNING id`, r.Name).Scan(&id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityRoom, id, model.ActionCreate, nil)
	})
	if err != nil {
		return 0, translate(err, model.EntityRoom, 0, false)
	}
	return id, nil
}

func (rs roomStore) Update(ctx context.Context, id int64, p model.RoomPatch) error {
	err := rs.s.mutate(ctx, func(tx pgx.Tx) error {
		r, err := scanRoom(tx.QueryRow(ctx, `SELECT `+roomCols+` FROM rooms WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if p.Name != nil {
			r.Name = *p.Name
		}
		if err := store.ValidateRoom(&r); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE rooms SET name = $2, updated_at = NOW() WHERE id = $1`, id, r.Name); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityRoom, id, model.ActionUpdate, nil)
	})
	return translate(err, model.EntityRoom, id, false)
}

func (rs roomStore) Delete(ctx context.Context, id int64) error {
	err := rs.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := lockRow(ctx, tx, "rooms", model.EntityRoom, id); err != nil {
			return err
		}
		effects := map[string]int{}
		if err := countInto(ctx, tx, effects, "appointment.room_id",
			`SELECT count(*) FROM appointments WHERE room_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityRoom, id, model.ActionDelete, effects)
	})
	return translate(err, model.EntityRoom, id, true)
}

func (rs roomStore) Get(ctx context.Context, id int64) (model.Room, error) {
	r, err := scanRoom(rs.s.pool.QueryRow(ctx, `SELECT `+roomCols+` FROM rooms WHERE id = $1`, id))
	if err != nil {
		return model.Room{}, translate(err, model.EntityRoom, id, false)
	}
	return r, nil
}

func (rs roomStore) Find(ctx context.Context, f model.RoomFilter) ([]model.Room, error) {
	query := `SELECT ` + roomCols + ` FROM rooms WHERE 1=1`
	var args []interface{}
	if f.Name != nil {
		args = append(args, like(*f.Name))
		query += fmt.Sprintf(` AND name ILIKE $%d`, len(args))
	}
	query += ` ORDER BY id`
	rows, err := rs.s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanRoom)
}

// -- Services --

type serviceStore struct{ s *Store }

const serviceCols = `id, name, code, price, duration_minutes, created_at, updated_at`

func scanService(row pgx.Row) (model.Service, error) {
	var sv model.Service
	err := row.Scan(&sv.ID, &sv.Name, &sv.Code, &sv.Price, &sv.DurationMinutes, &sv.CreatedAt, &sv.UpdatedAt)
	return sv, err
}

func (ss serviceStore) Insert(ctx context.Context, sv model.Service) (int64, error) {
	if err := store.ValidateService(&sv); err != nil {
		return 0, err
	}
	var id int64
	err := ss.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO services (name, code, price, duration_minutes)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			sv.Name, sv.Code, sv.Price, sv.DurationMinutes).Scan(&id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityService, id, model.ActionCreate, nil)
	})
	if err != nil {
		return 0, translate(err, model.EntityService, 0, false)
	}
	return id, nil
}

func (ss serviceStore) Update(ctx context.Context, id int64, p model.ServicePatch) error {
	err := ss.s.mutate(ctx, func(tx pgx.Tx) error {
		sv, err := scanService(tx.QueryRow(ctx, `SELECT `+serviceCols+` FROM services WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if p.Name != nil {
			sv.Name = *p.Name
		}
		if p.Code != nil {
			sv.Code = *p.Code
		}
		if p.Price != nil {
			sv.Price = *p.Price
		}
		if p.DurationMinutes != nil {
			sv.DurationMinutes = *p.DurationMinutes
		}
		if err := store.ValidateService(&sv); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE services SET name = $2, code = $3, price = $4, duration_minutes = $5, updated_at = NOW()
			WHERE id = $1`,
			id, sv.Name, sv.Code, sv.Price, sv.DurationMinutes); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityService, id, model.ActionUpdate, nil)
	})
	return translate(err, model.EntityService, id, false)
}

func (ss serviceStore) Delete(ctx context.Context, id int64) error {
	err := ss.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := lockRow(ctx, tx, "services", model.EntityService, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM services WHERE id = $1`, id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityService, id, model.ActionDelete, nil)
	})
	return translate(err, model.EntityService, id, true)
}

func (ss serviceStore) Get(ctx context.Context, id int64) (model.Service, error) {
	sv, err := scanService(ss.s.pool.QueryRow(ctx, `SELECT `+serviceCols+` FROM services WHERE id = $1`, id))
	if err != nil {
		return model.Service{}, translate(err, model.EntityService, id, false)
	}
	return sv, nil
}

func (ss serviceStore) Find(ctx context.Context, f model.ServiceFilter) ([]model.Service, error) {
	query := `SELECT ` + serviceCols + ` FROM services WHERE 1=1`
	var args []interface{}
	if f.Name != nil {
		args = append(args, like(*f.Name))
		query += fmt.Sprintf(` AND name ILIKE $%d`, len(args))
	}
	if f.Code != nil {
		args = append(args, *f.Code)
		query += fmt.Sprintf(` AND code = $%d`, len(args))
	}
	query += ` ORDER BY id`
	rows, err := ss.s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanService)
}

// -- Medications --

type medicationStore struct{ s *Store }

const medicationCols = `id, name, sku, unit_price, stock_quantity, created_at, updated_at`

func scanMedication(row pgx.Row) (model.Medication, error) {
	var m model.Medication
	err := row.Scan(&m.ID, &m.Name, &m.SKU, &m.UnitPrice, &m.StockQuantity, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (ms medicationStore) Insert(ctx context.Context, m model.Medication) (int64, error) {
	if err := store.ValidateMedication(&m); err != nil {
		return 0, err
	}
	var id int64
	err := ms.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO medications (name, sku, unit_price, stock_quantity)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			m.Name, m.SKU, m.UnitPrice, m.StockQuantity).Scan(&id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityMedication, id, model.ActionCreate, nil)
	})
	if err != nil {
		return 0, translate(err, model.EntityMedication, 0, false)
	}
	return id, nil
}

func (ms medicationStore) Update(ctx context.Context, id int64, p model.MedicationPatch) error {
	err := ms.s.mutate(ctx, func(tx pgx.Tx) error {
		m, err := scanMedication(tx.QueryRow(ctx, `SELECT `+medicationCols+` FROM medications WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if p.Name != nil {
			m.Name = *p.Name
		}
		if p.ClearSKU {
			m.SKU = nil
		} else if p.SKU != nil {
			m.SKU = p.SKU
		}
		if p.UnitPrice != nil {
			m.UnitPrice = *p.UnitPrice
		}
		if p.StockQuantity != nil {
			m.StockQuantity = *p.StockQuantity
		}
		if err := store.ValidateMedication(&m); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE medications SET name = $2, sku = $3, unit_price = $4, stock_quantity = $5, updated_at = NOW()
			WHERE id = $1`,
			id, m.Name, m.SKU, m.UnitPrice, m.StockQuantity); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityMedication, id, model.ActionUpdate, nil)
	})
	return translate(err, model.EntityMedication, id, false)
}

func (ms medicationStore) Delete(ctx context.Context, id int64) error {
	err := ms.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := lockRow(ctx, tx, "medications", model.EntityMedication, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM medications WHERE id = $1`, id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityMedication, id, model.ActionDelete, nil)
	})
	return translate(err, model.EntityMedication, id, true)
}

func (ms medicationStore) Get(ctx context.Context, id int64) (model.Medication, error) {
	m, err := scanMedication(ms.s.pool.QueryRow(ctx, `SELECT `+medicationCols+` FROM medications WHERE id = $1`, id))
	if err != nil {
		return model.Medication{}, translate(err, model.EntityMedication, id, false)
	}
	return m, nil
}

func (ms medicationStore) Find(ctx context.Context, f model.MedicationFilter) ([]model.Medication, error) {
	query := `SELECT ` + medicationCols + ` FROM medications WHERE 1=1`
	var args []interface{}
	if f.Name != nil {
		args = append(args, like(*f.Name))
		query += fmt.Sprintf(` AND name ILIKE $%d`, len(args))
	}
	if f.SKU != nil {
		args = append(args, *f.SKU)
		query += fmt.Sprintf(` AND sku = $%d`, len(args))
	}
	if f.MaxStock != nil {
		args = append(args, *f.MaxStock)
		query += fmt.Sprintf(` AND stock_quantity <= $%d`, len(args))
	}
	query += ` ORDER BY id`
	rows, err := ms.s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanMedication)
}
