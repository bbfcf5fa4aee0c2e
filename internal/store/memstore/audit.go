package memstore

import (
	"context"
	"sort"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/internal/store"
)

// auditStore is read-only: rows are appended by txn.recordAudit alongside
// auditable mutations and never change afterwards, except for performer
// references cleared when the acting user is deleted.
type auditStore struct{ s *Store }

func (as auditStore) Get(_ context.Context, id int64) (model.AuditLog, error) {
	e, ok := as.s.snapshot().audit[id]
	if !ok {
		return model.AuditLog{}, &store.NotFoundError{Entity: model.EntityAuditLog, ID: id}
	}
	return e, nil
}

func (as auditStore) Find(_ context.Context, f model.AuditFilter) ([]model.AuditLog, error) {
	var out []model.AuditLog
	for _, e := range as.s.snapshot().audit {
		if f.Entity != nil && e.Entity != *f.Entity {
			continue
		}
		if f.EntityID != nil && e.EntityID != *f.EntityID {
			continue
		}
		if f.Action != nil && e.Action != *f.Action {
			continue
		}
		if f.PerformerID != nil && (e.PerformerID == nil || *e.PerformerID != *f.PerformerID) {
			continue
		}
		if f.Since != nil && e.PerformedAt.Before(*f.Since) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PerformedAt.Equal(out[j].PerformedAt) {
			return out[i].PerformedAt.Before(out[j].PerformedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
