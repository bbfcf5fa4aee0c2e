// Package memstore is the in-process implementation of the integrity store.
// Committed state lives in an immutable dataset snapshot; a mutation clones
// the tables it touches under a writer mutex, validates every constraint
// against the clone, and publishes the clone atomically on success. Readers
// load the current snapshot pointer and never block, so a Find or the
// appointment view always observes either the pre- or post-state of any
// mutation, never an interleaving.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/internal/store"
)

type apptSvcKey struct {
	appointmentID int64
	serviceID     int64
}

type rxItemKey struct {
	prescriptionID int64
	medicationID   int64
}

// dataset is one committed snapshot. Maps are never mutated after commit;
// writers replace a table wholesale before touching it.
type dataset struct {
	roles         map[int64]model.Role
	users         map[int64]model.User
	patients      map[int64]model.Patient
	doctors       map[int64]model.Doctor
	rooms         map[int64]model.Room
	services      map[int64]model.Service
	appointments  map[int64]model.Appointment
	apptServices  map[apptSvcKey]model.AppointmentService
	medications   map[int64]model.Medication
	prescriptions map[int64]model.Prescription
	rxItems       map[rxItemKey]model.PrescriptionItem
	invoices      map[int64]model.Invoice
	invoiceItems  map[int64]model.InvoiceItem
	audit         map[int64]model.AuditLog
}

func newDataset() *dataset {
	return &dataset{
		roles:         map[int64]model.Role{},
		users:         map[int64]model.User{},
		patients:      map[int64]model.Patient{},
		doctors:       map[int64]model.Doctor{},
		rooms:         map[int64]model.Room{},
		services:      map[int64]model.Service{},
		appointments:  map[int64]model.Appointment{},
		apptServices:  map[apptSvcKey]model.AppointmentService{},
		medications:   map[int64]model.Medication{},
		prescriptions: map[int64]model.Prescription{},
		rxItems:       map[rxItemKey]model.PrescriptionItem{},
		invoices:      map[int64]model.Invoice{},
		invoiceItems:  map[int64]model.InvoiceItem{},
		audit:         map[int64]model.AuditLog{},
	}
}

// Store implements store.Store in memory.
type Store struct {
	mu  sync.Mutex // serializes writers; readers never take it
	cur atomic.Pointer[dataset]
	seq int64 // guarded by mu; one sequence across all entities
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	s := &Store{now: time.Now}
	s.cur.Store(newDataset())
	return s
}

// NewWithClock returns an empty store whose server-assigned timestamps come
// from clock. Tests use it to pin audit and row timestamps.
func NewWithClock(clock func() time.Time) *Store {
	s := New()
	s.now = clock
	return s
}

func (s *Store) Close() {}

func (s *Store) snapshot() *dataset { return s.cur.Load() }

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// txn stages one mutation against a shallow copy of the current snapshot.
// ensure* replaces a table with a fresh copy the first time it is written,
// so an abandoned txn leaves the committed snapshot untouched.
type txn struct {
	s  *Store
	ds *dataset
	copied  map[string]bool
	effects map[string]int // cascade/set-null tallies for the audit row
}

// write runs fn as one atomic mutation. Any error discards the staged state.
func (s *Store) write(ctx context.Context, fn func(t *txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := *s.cur.Load()
	t := &txn{s: s, ds: &staged, copied: map[string]bool{}, effects: map[string]int{}}
	if err := fn(t); err != nil {
		return err
	}
	s.cur.Store(t.ds)
	return nil
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (t *txn) ensure(table string) {
	if t.copied[table] {
		return
	}
	t.copied[table] = true
	switch table {
	case model.EntityRole:
		t.ds.roles = copyMap(t.ds.roles)
	case model.EntityUser:
		t.ds.users = copyMap(t.ds.users)
	case model.EntityPatient:
		t.ds.patients = copyMap(t.ds.patients)
	case model.EntityDoctor:
		t.ds.doctors = copyMap(t.ds.doctors)
	case model.EntityRoom:
		t.ds.rooms = copyMap(t.ds.rooms)
	case model.EntityService:
		t.ds.services = copyMap(t.ds.services)
	case model.EntityAppointment:
		t.ds.appointments = copyMap(t.ds.appointments)
	case model.EntityAppointmentService:
		t.ds.apptServices = copyMap(t.ds.apptServices)
	case model.EntityMedication:
		t.ds.medications = copyMap(t.ds.medications)
	case model.EntityPrescription:
		t.ds.prescriptions = copyMap(t.ds.prescriptions)
	case model.EntityPrescriptionItem:
		t.ds.rxItems = copyMap(t.ds.rxItems)
	case model.EntityInvoice:
		t.ds.invoices = copyMap(t.ds.invoices)
	case model.EntityInvoiceItem:
		t.ds.invoiceItems = copyMap(t.ds.invoiceItems)
	case model.EntityAuditLog:
		t.ds.audit = copyMap(t.ds.audit)
	}
}

// recordAudit appends the audit row for a committed-to-be mutation. An actor
// that does not resolve to an existing user is recorded as empty: audit is
// observability, not a correctness gate.
func (t *txn) recordAudit(ctx context.Context, entity string, entityID int64, action string) {
	var performer *int64
	if id, ok := store.ActorFrom(ctx); ok {
		if _, exists := t.ds.users[id]; exists {
			performer = &id
		}
	}
	details := action + " " + entity
	if len(t.effects) > 0 {
		keys := make([]string, 0, len(t.effects))
		for k := range t.effects {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%d", k, t.effects[k]))
		}
		details += "; " + strings.Join(parts, ", ")
	}
	t.ensure(model.EntityAuditLog)
	id := t.s.nextID()
	t.ds.audit[id] = model.AuditLog{
		ID:          id,
		Entity:      entity,
		EntityID:    entityID,
		Action:      action,
		PerformerID: performer,
		PerformedAt: t.s.now().UTC(),
		Details:     details,
	}
}

// Accessors returning the per-entity operation sets.

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

// matchFold reports whether s contains sub, case-insensitively.
func matchFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func sortByID[V any](rows []V, id func(V) int64) {
	sort.Slice(rows, func(i, j int) bool { return id(rows[i]) < id(rows[j]) })
}
