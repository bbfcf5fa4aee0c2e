package pgstore

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinic/clinic/internal/model"
	"github.com/clinic/clinic/internal/store"
)

// Constraint names in migrations/ follow uq_/fk_/ck_ prefixes; the maps below
// turn a violated constraint back into the entity and field it guards.

type constraintRef struct {
	entity string
	field  string
}

var uniqueConstraints = map[string]constraintRef{
	"uq_role_name":                          {model.EntityRole, "name"},
	"uq_user_username":                      {model.EntityUser, "username"},
	"uq_user_email":                         {model.EntityUser, "email"},
	"uq_patient_national_id":                {model.EntityPatient, "national_id"},
	"uq_doctor_license_number":              {model.EntityDoctor, "license_number"},
	"uq_doctor_user_id":                     {model.EntityDoctor, "user_id"},
	"uq_room_name":                          {model.EntityRoom, "name"},
	"uq_service_code":                       {model.EntityService, "code"},
	"uq_service_name_code":                  {model.EntityService, "name,code"},
	"uq_appointment_doctor_id_scheduled_at": {model.EntityAppointment, "doctor_id,scheduled_at"},
	"uq_appointment_service_pair":           {model.EntityAppointmentService, "appointment_id,service_id"},
	"uq_medication_sku":                     {model.EntityMedication, "sku"},
	"uq_prescription_item_pair":             {model.EntityPrescriptionItem, "prescription_id,medication_id"},
}

// fkConstraints is derived from the relationship policy table: the schema
// names every foreign key fk_<child>_<field>.
var fkConstraints = func() map[string]store.Relationship {
	m := make(map[string]store.Relationship, len(store.Relationships))
	for _, rel := range store.Relationships {
		m["fk_"+rel.Child+"_"+rel.Field] = rel
	}
	return m
}()

// checkConstraints maps schema CHECKs onto the field and reason reported by
// local validation, for writes that bypass it.
var checkConstraints = map[string]struct {
	entity string
	field  string
	reason string
}{
	"ck_role_name_not_blank":                   {model.EntityRole, "name", "must not be blank"},
	"ck_user_username_not_blank":               {model.EntityUser, "username", "must not be blank"},
	"ck_user_email_not_blank":                  {model.EntityUser, "email", "must not be blank"},
	"ck_user_name_not_blank":                   {model.EntityUser, "name", "must not be blank"},
	"ck_patient_first_name_not_blank":          {model.EntityPatient, "first_name", "must not be blank"},
	"ck_patient_last_name_not_blank":           {model.EntityPatient, "last_name", "must not be blank"},
	"ck_patient_gender":                        {model.EntityPatient, "gender", "not a valid gender"},
	"ck_doctor_license_number_not_blank":       {model.EntityDoctor, "license_number", "must not be blank"},
	"ck_doctor_consultation_fee":               {model.EntityDoctor, "consultation_fee", "must not be negative"},
	"ck_room_name_not_blank":                   {model.EntityRoom, "name", "must not be blank"},
	"ck_service_name_not_blank":                {model.EntityService, "name", "must not be blank"},
	"ck_service_code_not_blank":                {model.EntityService, "code", "must not be blank"},
	"ck_service_price":                         {model.EntityService, "price", "must not be negative"},
	"ck_service_duration_minutes":              {model.EntityService, "duration_minutes", "must be at least 1"},
	"ck_appointment_duration_minutes":          {model.EntityAppointment, "duration_minutes", "must be at least 1"},
	"ck_appointment_status":                    {model.EntityAppointment, "status", "not a valid status"},
	"ck_appointment_service_price_at_time":     {model.EntityAppointmentService, "price_at_time", "must not be negative"},
	"ck_medication_name_not_blank":             {model.EntityMedication, "name", "must not be blank"},
	"ck_medication_unit_price":                 {model.EntityMedication, "unit_price", "must not be negative"},
	"ck_medication_stock_quantity":             {model.EntityMedication, "stock_quantity", "must not be negative"},
	"ck_prescription_item_dosage_not_blank":    {model.EntityPrescriptionItem, "dosage", "must not be blank"},
	"ck_prescription_item_quantity":            {model.EntityPrescriptionItem, "quantity", "must be at least 1"},
	"ck_invoice_total_amount":                  {model.EntityInvoice, "total_amount", "must not be negative"},
	"ck_invoice_status":                        {model.EntityInvoice, "status", "not a valid status"},
	"ck_invoice_item_description_not_blank":    {model.EntityInvoiceItem, "description", "must not be blank"},
	"ck_invoice_item_quantity":                 {model.EntityInvoiceItem, "quantity", "must be at least 1"},
	"ck_invoice_item_unit_price":               {model.EntityInvoiceItem, "unit_price", "must not be negative"},
	"ck_audit_log_action":                      {model.EntityAuditLog, "action", "not a valid action"},
}

// translate maps a driver error from an operation on entity/id onto the
// store's typed errors. deleting distinguishes a foreign key violation raised
// by a restricted delete from one raised by a dangling reference.
func translate(err error, entity string, id int64, deleting bool) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &store.NotFoundError{Entity: entity, ID: id}
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		if ref, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
			return &store.UniquenessError{Entity: ref.entity, Field: ref.field, Value: detailValue(pgErr.Detail)}
		}
		return &store.UniquenessError{Entity: entity, Field: pgErr.ConstraintName, Value: detailValue(pgErr.Detail)}

	case "23503": // foreign_key_violation
		rel, ok := fkConstraints[pgErr.ConstraintName]
		if !ok {
			return err
		}
		if deleting {
			return &store.RestrictedDeleteError{Entity: entity, ID: id, Dependent: rel.Child}
		}
		refID, _ := strconv.ParseInt(detailValue(pgErr.Detail), 10, 64)
		return &store.ReferenceError{Entity: rel.Child, Field: rel.Field, Target: rel.Parent, ID: refID}

	case "23514": // check_violation
		if ck, ok := checkConstraints[pgErr.ConstraintName]; ok {
			return &store.ValidationError{Entity: ck.entity, Field: ck.field, Reason: ck.reason}
		}
		return &store.ValidationError{Entity: entity, Field: pgErr.ConstraintName, Reason: "constraint violated"}

	case "23502": // not_null_violation
		return &store.ValidationError{Entity: entity, Field: pgErr.ColumnName, Reason: "is required"}

	case "40001", "40P01": // serialization_failure, deadlock_detected
		op := "update"
		if deleting {
			op = "delete"
		}
		return &store.ConflictError{Op: op + " " + entity, Err: err}
	}

	return err
}

// detailValue pulls the offending value out of a constraint violation detail
// such as `Key (code)=(CONS-01) already exists.`.
func detailValue(detail string) string {
	i := strings.Index(detail, ")=(")
	if i < 0 {
		return ""
	}
	rest := detail[i+3:]
	j := strings.LastIndex(rest, ")")
	if j < 0 {
		return ""
	}
	return rest[:j]
}
