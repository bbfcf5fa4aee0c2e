// Package pgstore is the PostgreSQL implementation of the integrity store.
// Uniqueness, references and delete policies are enforced by the schema in
// migrations/; this layer runs each mutation in one transaction (row change
// plus audit row), applies the same local validation as the in-memory
// backend, and maps driver errors onto the store's typed error kinds.
package pgstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/store"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Store implements store.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// New wraps an existing pool. The schema must already be migrated.
func New(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Roles() store.RoleStore                             { return roleStore{s} }
func (s *Store) Users() store.UserStore                             { return userStore{s} }
func (s *Store) Patients() store.PatientStore                       { return patientStore{s} }
func (s *Store) Doctors() store.DoctorStore                         { return doctorStore{s} }
func (s *Store) Rooms() store.RoomStore                             { return roomStore{s} }
func (s *Store) Services() store.ServiceStore                       { return serviceStore{s} }
func (s *Store) Appointments() store.AppointmentStore               { return appointmentStore{s} }
func (s *Store) AppointmentServices() store.AppointmentServiceStore { return apptServiceStore{s} }
func (s *Store) Medications() store.MedicationStore                 { return medicationStore{s} }
func (s *Store) Prescriptions() store.PrescriptionStore             { return prescriptionStore{s} }
func (s *Store) PrescriptionItems() store.PrescriptionItemStore     { return rxItemStore{s} }
func (s *Store) Invoices() store.InvoiceStore                       { return invoiceStore{s} }
func (s *Store) InvoiceItems() store.InvoiceItemStore               { return invoiceItemStore{s} }
func (s *Store) Audit() store.AuditStore                            { return auditStore{s} }

// mutate runs fn inside one transaction. fn performs the row change and
// appends its own audit row through recordAudit; any error rolls the whole
// transaction back.
func (s *Store) mutate(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// recordAudit appends the audit row for the mutation being committed. An
// actor that does not resolve to an existing user is recorded as empty
// rather than failing the mutation.
func recordAudit(ctx context.Context, tx pgx.Tx, entity string, entityID int64, action string, effects map[string]int) error {
	var performer *int64
	if id, ok := store.ActorFrom(ctx); ok {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("resolve audit performer: %w", err)
		}
		if exists {
			performer = &id
		}
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO audit_logs (entity, entity_id, action, performer_id, details)
		VALUES ($1, $2, $3, $4, $5)`,
		entity, entityID, action, performer, auditDetails(action, entity, effects))
	if err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}
	return nil
}

// auditDetails renders "action entity" plus the sorted cascade and set-null
// tallies, matching the in-memory backend's format.
func auditDetails(action, entity string, effects map[string]int) string {
	details := action + " " + entity
	if len(effects) == 0 {
		return details
	}
	keys := make([]string, 0, len(effects))
	for k := range effects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, effects[k]))
	}
	return details + "; " + strings.Join(parts, ", ")
}

// countInto records a dependent-row count under tag, skipping zeroes so the
// audit details only mention relationships the delete actually touched.
func countInto(ctx context.Context, tx pgx.Tx, effects map[string]int, tag, query string, args ...interface{}) error {
	var n int
	if err := tx.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return fmt.Errorf("count %s dependents: %w", tag, err)
	}
	if n > 0 {
		effects[tag] = n
	}
	return nil
}

// lockRow takes a FOR UPDATE lock on the target row so the merge-and-write
// update and the count-then-delete paths see a stable parent.
func lockRow(ctx context.Context, tx pgx.Tx, table, entity string, id int64) error {
	var got int64
	err := tx.QueryRow(ctx, `SELECT id FROM `+table+` WHERE id = $1 FOR UPDATE`, id).Scan(&got)
	if err == pgx.ErrNoRows {
		return &store.NotFoundError{Entity: entity, ID: id}
	}
	if err != nil {
		return fmt.Errorf("lock %s %d: %w", entity, id, err)
	}
	return nil
}

func collectRows[V any](rows pgx.Rows, scan func(pgx.Row) (V, error)) ([]V, error) {
	defer rows.Close()
	var out []V
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// like builds the argument for a case-insensitive substring match.
func like(s string) string {
	esc := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + esc + "%"
}
