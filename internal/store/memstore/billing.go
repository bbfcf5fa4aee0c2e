package memstore

import (
	"context"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/internal/store"
)

// -- Invoices --

type invoiceStore struct{ s *Store }

func checkInvoiceRefs(t *txn, inv model.Invoice) error {
	if _, ok := t.ds.patients[inv.PatientID]; !ok {
		return &store.ReferenceError{Entity: model.EntityInvoice, Field: "patient_id", Target: model.EntityPatient, ID: inv.PatientID}
	}
	if inv.AppointmentID != nil {
		if _, ok := t.ds.appointments[*inv.AppointmentID]; !ok {
			return &store.ReferenceError{Entity: model.EntityInvoice, Field: "appointment_id", Target: model.EntityAppointment, ID: *inv.AppointmentID}
		}
	}
	return nil
}

func (is invoiceStore) Insert(ctx context.Context, inv model.Invoice) (int64, error) {
	var id int64
	err := is.s.write(ctx, func(t *txn) error {
		if err := store.ValidateInvoice(&inv); err != nil {
			return err
		}
		if err := checkInvoiceRefs(t, inv); err != nil {
			return err
		}
		t.ensure(model.EntityInvoice)
		id = t.s.nextID()
		now := t.s.now().UTC()
		inv.ID, inv.CreatedAt, inv.UpdatedAt = id, now, now
		t.ds.invoices[id] = inv
		t.recordAudit(ctx, model.EntityInvoice, id, model.ActionCreate)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (is invoiceStore) Update(ctx context.Context, id int64, p model.InvoicePatch) error {
	return is.s.write(ctx, func(t *txn) error {
		inv, ok := t.ds.invoices[id]
		if !ok {
			return &store.NotFoundError{Entity: model.EntityInvoice, ID: id}
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
		if err := checkInvoiceRefs(t, inv); err != nil {
			return err
		}
		t.ensure(model.EntityInvoice)
		inv.UpdatedAt = t.s.now().UTC()
		t.ds.invoices[id] = inv
		t.recordAudit(ctx, model.EntityInvoice, id, model.ActionUpdate)
		return nil
	})
}

func (is invoiceStore) Delete(ctx context.Context, id int64) error {
	return is.s.write(ctx, func(t *txn) error {
		if _, ok := t.ds.invoices[id]; !ok {
			return &store.NotFoundError{Entity: model.EntityInvoice, ID: id}
		}
		if err := t.deleteWithPolicy(model.EntityInvoice, id); err != nil {
			return err
		}
		t.recordAudit(ctx, model.EntityInvoice, id, model.ActionDelete)
		return nil
	})
}

func (is invoiceStore) Get(_ context.Context, id int64) (model.Invoice, error) {
	inv, ok := is.s.snapshot().invoices[id]
	if !ok {
		return model.Invoice{}, &store.NotFoundError{Entity: model.EntityInvoice, ID: id}
	}
	return inv, nil
}

func (is invoiceStore) Find(_ context.Context, f model.InvoiceFilter) ([]model.Invoice, error) {
	var out []model.Invoice
	for _, inv := range is.s.snapshot().invoices {
		if f.PatientID != nil && inv.PatientID != *f.PatientID {
			continue
		}
		if f.AppointmentID != nil && (inv.AppointmentID == nil || *inv.AppointmentID != *f.AppointmentID) {
			continue
		}
		if f.Status != nil && inv.Status != *f.Status {
			continue
		}
		out = append(out, inv)
	}
	sortByID(out, func(inv model.Invoice) int64 { return inv.ID })
	return out, nil
}

// -- Invoice items --

type invoiceItemStore struct{ s *Store }

func (is invoiceItemStore) Insert(ctx context.Context, it model.InvoiceItem) (int64, error) {
	var id int64
	err := is.s.write(ctx, func(t *txn) error {
		if err := store.ValidateInvoiceItem(&it); err != nil {
			return err
		}
		if _, ok := t.ds.invoices[it.InvoiceID]; !ok {
			return &store.ReferenceError{Entity: model.EntityInvoiceItem, Field: "invoice_id", Target: model.EntityInvoice, ID: it.InvoiceID}
		}
		t.ensure(model.EntityInvoiceItem)
		id = t.s.nextID()
		it.ID = id
		t.ds.invoiceItems[id] = it
		t.recordAudit(ctx, model.EntityInvoiceItem, id, model.ActionCreate)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (is invoiceItemStore) Update(ctx context.Context, id int64, p model.InvoiceItemPatch) error {
	return is.s.write(ctx, func(t *txn) error {
		it, ok := t.ds.invoiceItems[id]
		if !ok {
			return &store.NotFoundError{Entity: model.EntityInvoiceItem, ID: id}
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
		// ValidateInvoiceItem rederives LineTotal from the new inputs.
		if err := store.ValidateInvoiceItem(&it); err != nil {
			return err
		}
		t.ensure(model.EntityInvoiceItem)
		t.ds.invoiceItems[id] = it
		t.recordAudit(ctx, model.EntityInvoiceItem, id, model.ActionUpdate)
		return nil
	})
}

func (is invoiceItemStore) Delete(ctx context.Context, id int64) error {
	return is.s.write(ctx, func(t *txn) error {
		if _, ok := t.ds.invoiceItems[id]; !ok {
			return &store.NotFoundError{Entity: model.EntityInvoiceItem, ID: id}
		}
		t.ensure(model.EntityInvoiceItem)
		delete(t.ds.invoiceItems, id)
		t.recordAudit(ctx, model.EntityInvoiceItem, id, model.ActionDelete)
		return nil
	})
}

func (is invoiceItemStore) Get(_ context.Context, id int64) (model.InvoiceItem, error) {
	it, ok := is.s.snapshot().invoiceItems[id]
	if !ok {
		return model.InvoiceItem{}, &store.NotFoundError{Entity: model.EntityInvoiceItem, ID: id}
	}
	return it, nil
}

func (is invoiceItemStore) ListByInvoice(_ context.Context, invoiceID int64) ([]model.InvoiceItem, error) {
	var out []model.InvoiceItem
	for _, it := range is.s.snapshot().invoiceItems {
		if it.InvoiceID == invoiceID {
			out = append(out, it)
		}
	}
	sortByID(out, func(it model.InvoiceItem) int64 { return it.ID })
	return out, nil
}
