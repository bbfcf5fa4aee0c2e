package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/internal/store"
)

// -- Invoices --

type invoiceStore struct{ s *Store }

const invoiceCols = `id, patient_id, appointment_id, total_amount, status, created_at, updated_at`

func scanInvoice(row pgx.Row) (model.Invoice, error) {
	var inv model.Invoice
	err := row.Scan(&inv.ID, &inv.PatientID, &inv.AppointmentID, &inv.TotalAmount, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

func (is invoiceStore) Insert(ctx context.Context, inv model.Invoice) (int64, error) {
	if err := store.ValidateInvoice(&inv); err != nil {
		return 0, err
	}
	var id int64
	err := is.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO invoices (patient_id, appointment_id, total_amount, status)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			inv.PatientID, inv.AppointmentID, inv.TotalAmount, inv.Status).Scan(&id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityInvoice, id, model.ActionCreate, nil)
	})
	if err != nil {
		return 0, translate(err, model.EntityInvoice, 0, false)
	}
	return id, nil
}

func (is invoiceStore) Update(ctx context.Context, id int64, p model.InvoicePatch) error {
	err := is.s.mutate(ctx, func(tx pgx.Tx) error {
		inv, err := scanInvoice(tx.QueryRow(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if p.ClearAppointmentID {
			inv.AppointmentID = nil
		} else if p.AppointmentID != nil {
			inv.AppointmentID = p.AppointmentID
		}
		if p.TotalAmount != nil {
			inv.TotalAmount = *p.TotalAmount
		}
		if p.Status != nil {
			inv.Status = *p.Status
		}
		if err := store.ValidateInvoice(&inv); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE invoices SET appointment_id = $2, total_amount = $3, status = $4, updated_at = NOW()
			WHERE id = $1`,
			id, inv.AppointmentID, inv.TotalAmount, inv.Status); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityInvoice, id, model.ActionUpdate, nil)
	})
	return translate(err, model.EntityInvoice, id, false)
}

func (is invoiceStore) Delete(ctx context.Context, id int64) error {
	err := is.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := lockRow(ctx, tx, "invoices", model.EntityInvoice, id); err != nil {
			return err
		}
		effects := map[string]int{}
		if err := countInto(ctx, tx, effects, model.EntityInvoiceItem,
			`SELECT count(*) FROM invoice_items WHERE invoice_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityInvoice, id, model.ActionDelete, effects)
	})
	return translate(err, model.EntityInvoice, id, true)
}

func (is invoiceStore) Get(ctx context.Context, id int64) (model.Invoice, error) {
	inv, err := scanInvoice(is.s.pool.QueryRow(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return model.Invoice{}, translate(err, model.EntityInvoice, id, false)
	}
	return inv, nil
}

func (is invoiceStore) Find(ctx context.Context, f model.InvoiceFilter) ([]model.Invoice, error) {
	query := `SELECT ` + invoiceCols + ` FROM invoices WHERE 1=1`
	var args []interface{}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		query += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}
	if f.AppointmentID != nil {
		args = append(args, *f.AppointmentID)
		query += fmt.Sprintf(` AND appointment_id = $%d`, len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` ORDER BY id`
	rows, err := is.s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanInvoice)
}

// -- Invoice items --

type invoiceItemStore struct{ s *Store }

// line_total is a generated column: it is read back, never written.
const invoiceItemCols = `id, invoice_id, description, quantity, unit_price, line_total`

func scanInvoiceItem(row pgx.Row) (model.InvoiceItem, error) {
	var it model.InvoiceItem
	err := row.Scan(&it.ID, &it.InvoiceID, &it.Description, &it.Quantity, &it.UnitPrice, &it.LineTotal)
	return it, err
}

func (is invoiceItemStore) Insert(ctx context.Context, it model.InvoiceItem) (int64, error) {
	if err := store.ValidateInvoiceItem(&it); err != nil {
		return 0, err
	}
	var id int64
	err := is.s.mutate(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO invoice_items (invoice_id, description, quantity, unit_price)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			it.InvoiceID, it.Description, it.Quantity, it.UnitPrice).Scan(&id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityInvoiceItem, id, model.ActionCreate, nil)
	})
	if err != nil {
		return 0, translate(err, model.EntityInvoiceItem, 0, false)
	}
	return id, nil
}

func (is invoiceItemStore) Update(ctx context.Context, id int64, p model.InvoiceItemPatch) error {
	err := is.s.mutate(ctx, func(tx pgx.Tx) error {
		it, err := scanInvoiceItem(tx.QueryRow(ctx, `SELECT `+invoiceItemCols+` FROM invoice_items WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if p.Description != nil {
			it.Description = *p.Description
		}
		if p.Quantity != nil {
			it.Quantity = *p.Quantity
		}
		if p.UnitPrice != nil {
			it.UnitPrice = *p.UnitPrice
		}
		if err := store.ValidateInvoiceItem(&it); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE invoice_items SET description = $2, quantity = $3, unit_price = $4 WHERE id = $1`,
			id, it.Description, it.Quantity, it.UnitPrice); err != nil {
			return err
		}
		return recordAudit(ctx, tx, model.EntityInvoiceItem, id, model.ActionUpdate, nil)
	})
	return translate(err, model.EntityInvoiceItem, id, false)
}

func (is invoiceItemStore) Delete(ctx context.Context, id int64) error {
	err := is.s.mutate(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &store.NotFoundError{Entity: model.EntityInvoiceItem, ID: id}
		}
		return recordAudit(ctx, tx, model.EntityInvoiceItem, id, model.ActionDelete, nil)
	})
	return translate(err, model.EntityInvoiceItem, id, true)
}

func (is invoiceItemStore) Get(ctx context.Context, id int64) (model.InvoiceItem, error) {
	it, err := scanInvoiceItem(is.s.pool.QueryRow(ctx, `SELECT `+invoiceItemCols+` FROM invoice_items WHERE id = $1`, id))
	if err != nil {
		return model.InvoiceItem{}, translate(err, model.EntityInvoiceItem, id, false)
	}
	return it, nil
}

func (is invoiceItemStore) ListByInvoice(ctx context.Context, invoiceID int64) ([]model.InvoiceItem, error) {
	rows, err := is.s.pool.Query(ctx, `
		SELECT `+invoiceItemCols+` FROM invoice_items WHERE invoice_id = $1 ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanInvoiceItem)
}
