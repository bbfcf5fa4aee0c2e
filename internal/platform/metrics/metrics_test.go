package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
	return rec.Body.String()
}

func TestNewCollector_Isolated(t *testing.T) {
	// Two collectors must not collide on registration.
	a := NewCollector()
	b := NewCollector()

	a.RecordRequest(http.MethodGet, "/patients", 200, 10*time.Millisecond)

	if !strings.Contains(scrape(t, a), `clinic_http_requests_total{method="GET",route="/patients",status_code="200"} 1`) {
		t.Error("expected recorded request in collector a")
	}
	if strings.Contains(scrape(t, b), "clinic_http_requests_total{") {
		t.Error("collector b should not see collector a's samples")
	}
}

func TestRecordStoreError(t *testing.T) {
	c := NewCollector()
	c.RecordStoreError("uniqueness")
	c.RecordStoreError("uniqueness")
	c.RecordStoreError("validation")

	body := scrape(t, c)
	if !strings.Contains(body, `clinic_store_errors_total{kind="uniqueness"} 2`) {
		t.Error("expected two uniqueness rejections")
	}
	if !strings.Contains(body, `clinic_store_errors_total{kind="validation"} 1`) {
		t.Error("expected one validation rejection")
	}
}

func TestRecordPoolStats(t *testing.T) {
	c := NewCollector()
	c.RecordPoolStats(10, 7, 3)

	body := scrape(t, c)
	if !strings.Contains(body, `clinic_db_pool_connections{state="idle"} 7`) {
		t.Errorf("expected idle gauge, got:\n%s", body)
	}
}

func TestMiddleware_RecordsRouteAndStatus(t *testing.T) {
	c := NewCollector()
	e := echo.New()
	e.Use(c.Middleware())
	e.GET("/patients/:id", func(ec echo.Context) error {
		return ec.String(http.StatusOK, "ok")
	})
	e.GET("/boom", func(ec echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "missing")
	})

	for _, path := range []string{"/patients/1", "/patients/2", "/boom"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
	}

	body := scrape(t, c)
	if !strings.Contains(body, `clinic_http_requests_total{method="GET",route="/patients/:id",status_code="200"} 2`) {
		t.Errorf("expected route template label, got:\n%s", body)
	}
	if !strings.Contains(body, `clinic_http_requests_total{method="GET",route="/boom",status_code="404"} 1`) {
		t.Errorf("expected 404 sample, got:\n%s", body)
	}
}
