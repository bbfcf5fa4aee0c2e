package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinic/clinic/internal/model"
)

type auditStore struct{ s *Store }

const auditCols = `id, entity, entity_id, action, performer_id, performed_at, details`

func scanAuditLog(row pgx.Row) (model.AuditLog, error) {
	var e model.AuditLog
	err := row.Scan(&e.ID, &e.Entity, &e.EntityID, &e.Action, &e.PerformerID, &e.PerformedAt, &e.Details)
	return e, err
}

func (as auditStore) Get(ctx context.Context, id int64) (model.AuditLog, error) {
	e, err := scanAuditLog(as.s.pool.QueryRow(ctx, `SELECT `+auditCols+` FROM audit_logs WHERE id = $1`, id))
	if err != nil {
		return model.AuditLog{}, translate(err, model.EntityAuditLog, id, false)
	}
	return e, nil
}

func (as auditStore) Find(ctx context.Context, f model.AuditFilter) ([]model.AuditLog, error) {
	query := `SELECT ` + auditCols + ` FROM audit_logs WHERE 1=1`
	var args []interface{}
	if f.Entity != nil {
		args = append(args, *f.Entity)
		query += fmt.Sprintf(` AND entity = $%d`, len(args))
	}
	if f.EntityID != nil {
		args = append(args, *f.EntityID)
		query += fmt.Sprintf(` AND entity_id = $%d`, len(args))
	}
	if f.Action != nil {
		args = append(args, *f.Action)
		query += fmt.Sprintf(` AND action = $%d`, len(args))
	}
	if f.PerformerID != nil {
		args = append(args, *f.PerformerID)
		query += fmt.Sprintf(` AND performer_id = $%d`, len(args))
	}
	if f.Since != nil {
		args = append(args, f.Since.UTC())
		query += fmt.Sprintf(` AND performed_at >= $%d`, len(args))
	}
	query += ` ORDER BY performed_at, id`
	rows, err := as.s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanAuditLog)
}
