package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/gahshomar/internal/calendar"
	"github.com/dukerupert/gahshomar/internal/config"
	"github.com/dukerupert/gahshomar/internal/handler"
	"github.com/dukerupert/gahshomar/internal/metrics"
	"github.com/dukerupert/gahshomar/internal/middleware"
	"github.com/dukerupert/gahshomar/internal/store"
	ws "github.com/dukerupert/gahshomar/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	itemH       *handler.ItemHandler
	calendarH   *handler.CalendarHandler
	metrics     *metrics.Metrics
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, conv calendar.Converter, rl config.RateLimitConfig, m *metrics.Metrics, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	m.RegisterClientGauge(hub.ClientCount)
	m.RegisterDB(db)

	itemStore := store.NewItemStore(db)

	calendarH := handler.NewCalendarHandler(itemStore, conv, logger)
	calendarH.OnBuild = func(system string) { m.GridBuilds.WithLabelValues(system).Inc() }

	return &Server{
		db:          db,
		hub:         hub,
		itemH:       handler.NewItemHandler(itemStore, hub, logger, m.ObserveDraftCommit),
		calendarH:   calendarH,
		metrics:     m,
		rateLimiter: middleware.NewRateLimiter(rl.Requests, rl.Window),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	// Calendar API routes
	mux.HandleFunc("GET /api/calendar/month", s.calendarH.Month)
	mux.HandleFunc("GET /api/calendar/convert", s.calendarH.Convert)

	// Item API routes
	mux.HandleFunc("GET /api/items", s.itemH.List)
	mux.HandleFunc("GET /api/items.ics", s.itemH.Export)
	mux.HandleFunc("GET /api/items/{id}", s.itemH.Get)
	mux.HandleFunc("POST /api/items", s.rateLimitedHandler(s.itemH.Create))
	mux.HandleFunc("PUT /api/items/{id}", s.rateLimitedHandler(s.itemH.Update))
	mux.HandleFunc("DELETE /api/items/{id}", s.rateLimitedHandler(s.itemH.Delete))

	instrumented := middleware.Instrument(s.metrics)(mux)
	return middleware.RequestLogger(s.logger.With("component", "http"))(instrumented)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP)
	return rl(h).ServeHTTP
}
