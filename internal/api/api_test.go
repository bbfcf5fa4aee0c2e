package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/metrics"
	"github.com/clinic/clinic/internal/store/memstore"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	st := memstore.New()
	t.Cleanup(st.Close)

	e := echo.New()
	h := NewHandler(st)
	h.RegisterRoutes(e.Group("/api/v1"))
	return e
}

func do(t *testing.T, e *echo.Echo, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

func createPatient(t *testing.T, e *echo.Echo, first, last string) int64 {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/api/v1/patients",
		fmt.Sprintf(`{"first_name":%q,"last_name":%q,"date_of_birth":"1990-04-01T00:00:00Z"}`, first, last))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create patient: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return int64(decode(t, rec)["id"].(float64))
}

func createDoctor(t *testing.T, e *echo.Echo, license string) int64 {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/api/v1/doctors",
		fmt.Sprintf(`{"license_number":%q,"consultation_fee":120}`, license))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create doctor: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return int64(decode(t, rec)["id"].(float64))
}

func createAppointment(t *testing.T, e *echo.Echo, patientID, doctorID int64, at string) int64 {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/api/v1/appointments",
		fmt.Sprintf(`{"patient_id":%d,"doctor_id":%d,"scheduled_at":%q,"duration_minutes":30}`, patientID, doctorID, at))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create appointment: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return int64(decode(t, rec)["id"].(float64))
}

func TestCreatePatient_AppliesGenderDefault(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/api/v1/patients",
		`{"first_name":"Ada","last_name":"Osei","date_of_birth":"1990-04-01T00:00:00Z"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["gender"] != "other" {
		t.Errorf("expected default gender other, got %v", body["gender"])
	}
}

func TestCreatePatient_ValidationError(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/api/v1/patients", `{"first_name":"Ada"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["kind"] != "validation" {
		t.Errorf("expected validation kind, got %s", rec.Body.String())
	}
}

func TestGetPatient_NotFound(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodGet, "/api/v1/patients/999", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["kind"] != "not_found" {
		t.Errorf("expected not_found kind, got %s", rec.Body.String())
	}
}

func TestCreatePatient_DuplicateNationalID(t *testing.T) {
	e := newTestServer(t)

	body := `{"first_name":"Ada","last_name":"Osei","date_of_birth":"1990-04-01T00:00:00Z","national_id":"GH-123"}`
	if rec := do(t, e, http.MethodPost, "/api/v1/patients", body); rec.Code != http.StatusCreated {
		t.Fatalf("first create failed: %d", rec.Code)
	}

	body2 := `{"first_name":"Kofi","last_name":"Mensah","date_of_birth":"1985-01-15T00:00:00Z","national_id":"GH-123"}`
	rec := do(t, e, http.MethodPost, "/api/v1/patients", body2)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["kind"] != "uniqueness" {
		t.Errorf("expected uniqueness kind, got %s", rec.Body.String())
	}
}

func TestCreateAppointment_DanglingPatient(t *testing.T) {
	e := newTestServer(t)
	doctorID := createDoctor(t, e, "LIC-1")

	rec := do(t, e, http.MethodPost, "/api/v1/appointments",
		fmt.Sprintf(`{"patient_id":999,"doctor_id":%d,"scheduled_at":"2026-09-01T09:00:00Z","duration_minutes":30}`, doctorID))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["kind"] != "reference" {
		t.Errorf("expected reference kind, got %s", rec.Body.String())
	}
}

func TestDeleteDoctor_RestrictedByAppointment(t *testing.T) {
	e := newTestServer(t)
	patientID := createPatient(t, e, "Ada", "Osei")
	doctorID := createDoctor(t, e, "LIC-1")
	createAppointment(t, e, patientID, doctorID, "2026-09-01T09:00:00Z")

	rec := do(t, e, http.MethodDelete, fmt.Sprintf("/api/v1/doctors/%d", doctorID), "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["kind"] != "restricted_delete" {
		t.Errorf("expected restricted_delete kind, got %s", rec.Body.String())
	}
}

func TestDeletePatient_CascadesAppointments(t *testing.T) {
	e := newTestServer(t)
	patientID := createPatient(t, e, "Ada", "Osei")
	doctorID := createDoctor(t, e, "LIC-1")
	apptID := createAppointment(t, e, patientID, doctorID, "2026-09-01T09:00:00Z")

	if rec := do(t, e, http.MethodDelete, fmt.Sprintf("/api/v1/patients/%d", patientID), ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	if rec := do(t, e, http.MethodGet, fmt.Sprintf("/api/v1/appointments/%d", apptID), ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected cascaded appointment to be gone, got %d", rec.Code)
	}
}

func TestCreateAppointment_DuplicateSlot(t *testing.T) {
	e := newTestServer(t)
	patientID := createPatient(t, e, "Ada", "Osei")
	doctorID := createDoctor(t, e, "LIC-1")
	createAppointment(t, e, patientID, doctorID, "2026-09-01T09:00:00Z")

	rec := do(t, e, http.MethodPost, "/api/v1/appointments",
		fmt.Sprintf(`{"patient_id":%d,"doctor_id":%d,"scheduled_at":"2026-09-01T09:00:00Z","duration_minutes":45}`, patientID, doctorID))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate doctor/slot, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestInvoiceItem_LineTotalDerived(t *testing.T) {
	e := newTestServer(t)
	patientID := createPatient(t, e, "Ada", "Osei")

	rec := do(t, e, http.MethodPost, "/api/v1/invoices",
		fmt.Sprintf(`{"patient_id":%d,"total_amount":0}`, patientID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create invoice: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["status"] != "unpaid" {
		t.Errorf("expected default status unpaid, got %v", body["status"])
	}
	invoiceID := int64(body["id"].(float64))

	// A client-supplied line_total must be ignored and recomputed.
	rec = do(t, e, http.MethodPost, fmt.Sprintf("/api/v1/invoices/%d/items", invoiceID),
		`{"description":"Consultation","quantity":3,"unit_price":25.5,"line_total":999}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create item: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	item := decode(t, rec)
	if item["line_total"].(float64) != 76.5 {
		t.Errorf("expected derived line_total 76.5, got %v", item["line_total"])
	}

	itemID := int64(item["id"].(float64))
	rec = do(t, e, http.MethodPatch, fmt.Sprintf("/api/v1/invoice-items/%d", itemID), `{"quantity":4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update item: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec)["line_total"].(float64); got != 102 {
		t.Errorf("expected recomputed line_total 102, got %v", got)
	}
}

func TestAppointmentView_JoinsContext(t *testing.T) {
	e := newTestServer(t)
	patientID := createPatient(t, e, "Ada", "Osei")
	doctorID := createDoctor(t, e, "LIC-1")

	rec := do(t, e, http.MethodPost, "/api/v1/rooms", `{"name":"Consult 1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create room: %d", rec.Code)
	}
	roomID := int64(decode(t, rec)["id"].(float64))

	rec = do(t, e, http.MethodPost, "/api/v1/appointments",
		fmt.Sprintf(`{"patient_id":%d,"doctor_id":%d,"room_id":%d,"scheduled_at":"2026-09-01T09:00:00Z","duration_minutes":30}`, patientID, doctorID, roomID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create appointment: %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, e, http.MethodGet, fmt.Sprintf("/api/v1/appointments/view?doctor_id=%d", doctorID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	page := decode(t, rec)
	rows := page["data"].([]interface{})
	if len(rows) != 1 {
		t.Fatalf("expected 1 view row, got %d", len(rows))
	}
	row := rows[0].(map[string]interface{})
	if row["patient_last_name"] != "Osei" {
		t.Errorf("expected patient context in view, got %v", row["patient_last_name"])
	}
	if row["room_name"] != "Consult 1" {
		t.Errorf("expected room name in view, got %v", row["room_name"])
	}
}

func TestActorHeader_RecordedInAudit(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/api/v1/roles", `{"name":"registrar"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create role: %d", rec.Code)
	}
	roleID := int64(decode(t, rec)["id"].(float64))

	rec = do(t, e, http.MethodPost, "/api/v1/users",
		fmt.Sprintf(`{"username":"ada","email":"ada@clinic.test","password_hash":"x","name":"Ada","role_id":%d}`, roleID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: %d: %s", rec.Code, rec.Body.String())
	}
	userID := int64(decode(t, rec)["id"].(float64))

	do(t, e, http.MethodPost, "/api/v1/patients",
		`{"first_name":"Ada","last_name":"Osei","date_of_birth":"1990-04-01T00:00:00Z"}`,
		ActorHeader, fmt.Sprintf("%d", userID))

	rec = do(t, e, http.MethodGet, "/api/v1/audit?entity=patient&action=create", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("audit list: %d", rec.Code)
	}
	rows := decode(t, rec)["data"].([]interface{})
	if len(rows) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(rows))
	}
	row := rows[0].(map[string]interface{})
	if got := int64(row["performer_id"].(float64)); got != userID {
		t.Errorf("expected performer %d, got %v", userID, row["performer_id"])
	}
}

func TestActorHeader_GhostActorDegrades(t *testing.T) {
	e := newTestServer(t)

	do(t, e, http.MethodPost, "/api/v1/patients",
		`{"first_name":"Ada","last_name":"Osei","date_of_birth":"1990-04-01T00:00:00Z"}`,
		ActorHeader, "424242")

	rec := do(t, e, http.MethodGet, "/api/v1/audit?entity=patient", "")
	rows := decode(t, rec)["data"].([]interface{})
	if len(rows) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(rows))
	}
	if _, set := rows[0].(map[string]interface{})["performer_id"]; set {
		t.Error("expected ghost actor to degrade to an empty performer")
	}
}

func TestActorHeader_Malformed(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodGet, "/api/v1/patients", "", ActorHeader, "not-a-number")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed actor header, got %d", rec.Code)
	}
}

func TestListPatients_Pagination(t *testing.T) {
	e := newTestServer(t)
	for i := 0; i < 5; i++ {
		createPatient(t, e, fmt.Sprintf("P%d", i), "Osei")
	}

	rec := do(t, e, http.MethodGet, "/api/v1/patients?limit=2&offset=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	page := decode(t, rec)
	if total := int(page["total"].(float64)); total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if rows := page["data"].([]interface{}); len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
	if page["has_more"] != true {
		t.Error("expected has_more on a middle page")
	}
}

func TestListAppointments_RejectsBadTimeFilter(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodGet, "/api/v1/appointments?from=yesterday", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed time filter, got %d", rec.Code)
	}
}

func TestAppointmentServices_JunctionLifecycle(t *testing.T) {
	e := newTestServer(t)
	patientID := createPatient(t, e, "Ada", "Osei")
	doctorID := createDoctor(t, e, "LIC-1")
	apptID := createAppointment(t, e, patientID, doctorID, "2026-09-01T09:00:00Z")

	rec := do(t, e, http.MethodPost, "/api/v1/services",
		`{"name":"X-Ray","code":"XR","price":80,"duration_minutes":15}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create service: %d: %s", rec.Code, rec.Body.String())
	}
	serviceID := int64(decode(t, rec)["id"].(float64))

	rec = do(t, e, http.MethodPost, fmt.Sprintf("/api/v1/appointments/%d/services", apptID),
		fmt.Sprintf(`{"service_id":%d,"price_at_time":80}`, serviceID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("link service: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Duplicate pair is rejected.
	rec = do(t, e, http.MethodPost, fmt.Sprintf("/api/v1/appointments/%d/services", apptID),
		fmt.Sprintf(`{"service_id":%d,"price_at_time":90}`, serviceID))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate pair, got %d: %s", rec.Code, rec.Body.String())
	}

	// Booked service cannot be deleted.
	rec = do(t, e, http.MethodDelete, fmt.Sprintf("/api/v1/services/%d", serviceID), "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for restricted service delete, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, e, http.MethodDelete, fmt.Sprintf("/api/v1/appointments/%d/services/%d", apptID, serviceID), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unlink: expected 204, got %d", rec.Code)
	}

	rec = do(t, e, http.MethodDelete, fmt.Sprintf("/api/v1/services/%d", serviceID), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected service deletable after unlink, got %d", rec.Code)
	}
}

func TestUserResponse_OmitsPasswordHash(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/api/v1/roles", `{"name":"nurse"}`)
	roleID := int64(decode(t, rec)["id"].(float64))

	rec = do(t, e, http.MethodPost, "/api/v1/users",
		fmt.Sprintf(`{"username":"kofi","email":"kofi@clinic.test","password_hash":"secret","name":"Kofi","role_id":%d}`, roleID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Error("password hash leaked into response")
	}
}

func TestEntityFromRoute(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/api/v1/patients", "patient"},
		{"/api/v1/patients/:id", "patient"},
		{"/api/v1/invoices/:id", "invoice"},
		{"/api/v1/services/:id", "service"},
		{"/api/v1/appointments/:id/services/:serviceID", "appointment_service"},
		{"/api/v1/prescriptions/:id/items/:medicationID", "prescription_item"},
		{"/api/v1/invoices/:id/items", "invoice_item"},
		{"/api/v1/invoice-items/:id", "invoice_item"},
	}
	for _, tc := range cases {
		if got := entityFromRoute(tc.path); got != tc.want {
			t.Errorf("entityFromRoute(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestMetrics_MutationAndErrorCounters(t *testing.T) {
	st := memstore.New()
	t.Cleanup(st.Close)

	mx := metrics.NewCollector()
	e := echo.New()
	NewHandler(st, WithMetrics(mx)).RegisterRoutes(e.Group("/api/v1"))

	createPatient(t, e, "Ama", "Mensah")
	if rec := do(t, e, http.MethodGet, "/api/v1/patients/999", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	mx.Handler().ServeHTTP(rec, req)
	body := rec.Body.String()

	if !strings.Contains(body, `clinic_audit_events_total{action="create",entity="patient"} 1`) {
		t.Errorf("missing patient create sample in scrape:\n%s", body)
	}
	if !strings.Contains(body, `clinic_store_errors_total{kind="not_found"} 1`) {
		t.Errorf("missing not_found error sample in scrape:\n%s", body)
	}
}
