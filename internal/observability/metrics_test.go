package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("MetricsHandler status = %d, want 200", w.Code)
	}
	return w.Body.String()
}

func TestRecordRegrid(t *testing.T) {
	RecordRegrid("adaptive", "hybrid", 20*time.Millisecond, 7)
	RecordRegrid("adaptive", "hybrid", time.Millisecond, 0)

	body := scrape(t)
	for _, want := range []string{
		`harmonize_regrid_total{method="adaptive",strategy="hybrid"} 2`,
		`harmonize_regrid_masked_cells_total{method="adaptive"} 7`,
		`harmonize_regrid_duration_seconds_count{method="adaptive"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestRecordRegridError(t *testing.T) {
	RecordRegridError("bogus", "unknown_method")

	if body := scrape(t); !strings.Contains(body, `harmonize_regrid_errors_total{method="bogus",reason="unknown_method"} 1`) {
		t.Error("metrics output should contain the regrid error counter")
	}
}
