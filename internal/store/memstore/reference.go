package memstore

import (
	"context"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/internal/store"
)

// -- Roles --

type roleStore struct{ s *Store }

func (rs roleStore) Insert(ctx context.Context, r model.Role) (int64, error) {
	var id int64
	err := rs.s.write(ctx, func(t *txn) error {
		if err := store.ValidateRole(&r); err != nil {
			return err
		}
		for _, other := range t.ds.roles {
			if other.Name == r.Name {
				return &store.UniquenessError{Entity: model.EntityRole, Field: "name", Value: r.Name}
			}
		}
		t.ensure(model.EntityRole)
		id = t.s.nextID()
		now := t.s.now().UTC()
		r.ID, r.CreatedAt, r.UpdatedAt = id, now, now
		t.ds.roles[id] = r
		t.recordAudit(ctx, model.EntityRole, id, model.ActionCreate)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (rs roleStore) Update(ctx context.Context, id int64, p model.RolePatch) error {
	return rs.s.write(ctx, func(t *txn) error {
		r, ok := t.ds.roles[id]
		if !ok {
			return &store.NotFoundError{Entity: model.EntityRole, ID: id}
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
		for oid, other := range t.ds.roles {
			if oid != id && other.Name == r.Name {
				return &store.UniquenessError{Entity: model.EntityRole, Field: "name", Value: r.Name}
			}
		}
		t.ensure(model.EntityRole)
		r.UpdatedAt = t.s.now().UTC()
		t.ds.roles[id] = r
		t.recordAudit(ctx, model.EntityRole, id, model.ActionUpdate)
		return nil
	})
}

func (rs roleStore) Delete(ctx context.Context, id int64) error {
	return rs.s.write(ctx, func(t *txn) error {
		if _, ok := t.ds.roles[id]; !ok {
			return &store.NotFoundError{Entity: model.EntityRole, ID: id}
		}
		if err := t.deleteWithPolicy(model.EntityRole, id); err != nil {
			return err
		}
		t.recordAudit(ctx, model.EntityRole, id, model.ActionDelete)
		return nil
	})
}

func (rs roleStore) Get(_ context.Context, id int64) (model.Role, error) {
	r, ok := rs.s.snapshot().roles[id]
	if !ok {
		return model.Role{}, &store.NotFoundError{Entity: model.EntityRole, ID: id}
	}
	return r, nil
}

func (rs roleStore) Find(_ context.Context, f model.RoleFilter) ([]model.Role, error) {
	var out []model.Role
	for _, r := range rs.s.snapshot().roles {
		if f.Name != nil && !matchFold(r.Name, *f.Name) {
			continue
		}
		out = append(out, r)
	}
	sortByID(out, func(r model.Role) int64 { return r.ID })
	return out, nil
}

// -- Rooms --

type roomStore struct{ s *Store }

func (rs roomStore) Insert(ctx context.Context, r model.Room) (int64, error) {
	var id int64
	err := rs.s.write(ctx, func(t *txn) error {
		if err := store.ValidateRoom(&r); err != nil {
			return err
		}
		for _, other := range t.ds.rooms {
			if other.Name == r.Name {
				return &store.UniquenessError{Entity: model.EntityRoom, Field: "name", Value: r.Name}
			}
		}
		t.ensure(model.EntityRoom)
		id = t.s.nextID()
		now := t.s.now().UTC()
		r.ID, r.CreatedAt, r.UpdatedAt = id, now, now
		t.ds.rooms[id] = r
		t.recordAudit(ctx, model.EntityRoom, id, model.ActionCreate)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (rs roomStore) Update(ctx context.Context, id int64, p model.RoomPatch) error {
	return rs.s.write(ctx, func(t *txn) error {
		r, ok := t.ds.rooms[id]
		if !ok {
			return &store.NotFoundError{Entity: model.EntityRoom, ID: id}
		}
		if p.Name != nil {
			r.Name = *p.Name
		}
		if err := store.ValidateRoom(&r); err != nil {
			return err
		}
		for oid, other := range t.ds.rooms {
			if oid != id && other.Name == r.Name {
				return &store.UniquenessError{Entity: model.EntityRoom, Field: "name", Value: r.Name}
			}
		}
		t.ensure(model.EntityRoom)
		r.UpdatedAt = t.s.now().UTC()
		t.ds.rooms[id] = r
		t.recordAudit(ctx, model.EntityRoom, id, model.ActionUpdate)
		return nil
	})
}

func (rs roomStore) Delete(ctx context.Context, id int64) error {
	return rs.s.write(ctx, func(t *txn) error {
		if _, ok := t.ds.rooms[id]; !ok {
			return &store.NotFoundError{Entity: model.EntityRoom, ID: id}
		}
		if err := t.deleteWithPolicy(model.EntityRoom, id); err != nil {
			return err
		}
		t.recordAudit(ctx, model.EntityRoom, id, model.ActionDelete)
		return nil
	})
}

func (rs roomStore) Get(_ context.Context, id int64) (model.Room, error) {
	r, ok := rs.s.snapshot().rooms[id]
	if !ok {
		return model.Room{}, &store.NotFoundError{Entity: model.EntityRoom, ID: id}
	}
	return r, nil
}

func (rs roomStore) Find(_ context.Context, f model.RoomFilter) ([]model.Room, error) {
	var out []model.Room
	for _, r := range rs.s.snapshot().rooms {
		if f.Name != nil && !matchFold(r.Name, *f.Name) {
			continue
		}
		out = append(out, r)
	}
	sortByID(out, func(r model.Room) int64 { return r.ID })
	return out, nil
}

// -- Services --

type serviceStore struct{ s *Store }

func checkServiceUnique(t *txn, self int64, sv model.Service) error {
	for oid, other := range t.ds.services {
		if oid == self {
			continue
		}
		if other.Code == sv.Code {
			return &store.UniquenessError{Entity: model.EntityService, Field: "code", Value: sv.Code}
		}
		if other.Name == sv.Name && other.Code == sv.Code {
			return &store.UniquenessError{Entity: model.EntityService, Field: "name,code", Value: sv.Name + "/" + sv.Code}
		}
	}
	return nil
}

func (ss serviceStore) Insert(ctx context.Context, sv model.Service) (int64, error) {
	var id int64
	err := ss.s.write(ctx, func(t *txn) error {
		if err := store.ValidateService(&sv); err != nil {
			return err
		}
		if err := checkServiceUnique(t, 0, sv); err != nil {
			return err
		}
		t.ensure(model.EntityService)
		id = t.s.nextID()
		now := t.s.now().UTC()
		sv.ID, sv.CreatedAt, sv.UpdatedAt = id, now, now
		t.ds.services[id] = sv
		t.recordAudit(ctx, model.EntityService, id, model.ActionCreate)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (ss serviceStore) Update(ctx context.Context, id int64, p model.ServicePatch) error {
	return ss.s.write(ctx, func(t *txn) error {
		sv, ok := t.ds.services[id]
		if !ok {
			return &store.NotFoundError{Entity: model.EntityService, ID: id}
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
		if err := checkServiceUnique(t, id, sv); err != nil {
			return err
		}
		t.ensure(model.EntityService)
		sv.UpdatedAt = t.s.now().UTC()
		t.ds.services[id] = sv
		t.recordAudit(ctx, model.EntityService, id, model.ActionUpdate)
		return nil
	})
}

func (ss serviceStore) Delete(ctx context.Context, id int64) error {
	return ss.s.write(ctx, func(t *txn) error {
		if _, ok := t.ds.services[id]; !ok {
			return &store.NotFoundError{Entity: model.EntityService, ID: id}
		}
		if err := t.deleteWithPolicy(model.EntityService, id); err != nil {
			return err
		}
		t.recordAudit(ctx, model.EntityService, id, model.ActionDelete)
		return nil
	})
}

func (ss serviceStore) Get(_ context.Context, id int64) (model.Service, error) {
	sv, ok := ss.s.snapshot().services[id]
	if !ok {
		return model.Service{}, &store.NotFoundError{Entity: model.EntityService, ID: id}
	}
	return sv, nil
}

func (ss serviceStore) Find(_ context.Context, f model.ServiceFilter) ([]model.Service, error) {
	var out []model.Service
	for _, sv := range ss.s.snapshot().services {
		if f.Name != nil && !matchFold(sv.Name, *f.Name) {
			continue
		}
		if f.Code != nil && sv.Code != *f.Code {
			continue
		}
		out = append(out, sv)
	}
	sortByID(out, func(sv model.Service) int64 { return sv.ID })
	return out, nil
}

// -- Medications --

type medicationStore struct{ s *Store }

func checkMedicationUnique(t *txn, self int64, m model.Medication) error {
	if m.SKU == nil {
		return nil
	}
	for oid, other := range t.ds.medications {
		if oid != self && other.SKU != nil && *other.SKU == *m.SKU {
			return &store.UniquenessError{Entity: model.EntityMedication, Field: "sku", Value: *m.SKU}
		}
	}
	return nil
}

func (ms medicationStore) Insert(ctx context.Context, m model.Medication) (int64, error) {
	var id int64
	err := ms.s.write(ctx, func(t *txn) error {
		if err := store.ValidateMedication(&m); err != nil {
			return err
		}
		if err := checkMedicationUnique(t, 0, m); err != nil {
			return err
		}
		t.ensure(model.EntityMedication)
		id = t.s.nextID()
		now := t.s.now().UTC()
		m.ID, m.CreatedAt, m.UpdatedAt = id, now, now
		t.ds.medications[id] = m
		t.recordAudit(ctx, model.EntityMedication, id, model.ActionCreate)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (ms medicationStore) Update(ctx context.Context, id int64, p model.MedicationPatch) error {
	return ms.s.write(ctx, func(t *txn) error {
		m, ok := t.ds.medications[id]
		if !ok {
			return &store.NotFoundError{Entity: model.EntityMedication, ID: id}
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
		if err := checkMedicationUnique(t, id, m); err != nil {
			return err
		}
		t.ensure(model.EntityMedication)
		m.UpdatedAt = t.s.now().UTC()
		t.ds.medications[id] = m
		t.recordAudit(ctx, model.EntityMedication, id, model.ActionUpdate)
		return nil
	})
}

func (ms medicationStore) Delete(ctx context.Context, id int64) error {
	return ms.s.write(ctx, func(t *txn) error {
		if _, ok := t.ds.medications[id]; !ok {
			return &store.NotFoundError{Entity: model.EntityMedication, ID: id}
		}
		if err := t.deleteWithPolicy(model.EntityMedication, id); err != nil {
			return err
		}
		t.recordAudit(ctx, model.EntityMedication, id, model.ActionDelete)
		return nil
	})
}

func (ms medicationStore) Get(_ context.Context, id int64) (model.Medication, error) {
	m, ok := ms.s.snapshot().medications[id]
	if !ok {
		return model.Medication{}, &store.NotFoundError{Entity: model.EntityMedication, ID: id}
	}
	return m, nil
}

func (ms medicationStore) Find(_ context.Context, f model.MedicationFilter) ([]model.Medication, error) {
	var out []model.Medication
	for _, m := range ms.s.snapshot().medications {
		if f.Name != nil && !matchFold(m.Name, *f.Name) {
			continue
		}
		if f.SKU != nil && (m.SKU == nil || *m.SKU != *f.SKU) {
			continue
		}
		if f.MaxStock != nil && m.StockQuantity > *f.MaxStock {
			continue
		}
		out = append(out, m)
	}
	sortByID(out, func(m model.Medication) int64 { return m.ID })
	return out, nil
}
