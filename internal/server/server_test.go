package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/gahshomar/internal/calendar"
	"github.com/dukerupert/gahshomar/internal/config"
	"github.com/dukerupert/gahshomar/internal/database"
	"github.com/dukerupert/gahshomar/internal/metrics"
)

func setupServer(t *testing.T, requests int) http.Handler {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	conv, err := calendar.NewConverter(calendar.Jalali, calendar.Persian, time.Saturday)
	if err != nil {
		t.Fatalf("converter: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(db, conv, config.RateLimitConfig{Requests: requests, Window: time.Minute}, metrics.New(), logger)
	return srv.Router()
}

func TestHealth(t *testing.T) {
	h := setupServer(t, 10)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}
}

func TestMutationsAreRateLimited(t *testing.T) {
	h := setupServer(t, 2)

	body := `{"kind":"event","title":"x","instant":"2024-06-14"}`
	var codes []int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/items", strings.NewReader(body)))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	// Reads are not limited.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/items?start=2024-06-01&end=2024-06-30", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("list status = %d", rec.Code)
	}
}

func TestMetricsExposeRoutes(t *testing.T) {
	h := setupServer(t, 10)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/calendar/month?year=1403&month=1", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	out := rec.Body.String()
	for _, want := range []string{
		`gahshomar_http_requests_total{method="GET",route="GET /api/calendar/month",status="200"} 1`,
		`gahshomar_grid_builds_total{calendar="jalali"} 1`,
		`gahshomar_ws_clients 0`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
