// Package server exposes health and read-only views of the rendered table.
package server

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rickgao/orderfeed/internal/connection"
	"github.com/rickgao/orderfeed/internal/order"
	"github.com/rickgao/orderfeed/internal/version"
)

// RowSource is the rendered table.
type RowSource interface {
	Rows() []order.Row
	Len() int
}

// StateSource reports the feed connection state.
type StateSource interface {
	State() connection.State
	LastHeartbeat() time.Time
}

// Health is the /health response body.
type Health struct {
	Status        string    `json:"status"`
	Connection    string    `json:"connection"`
	Rows          int       `json:"rows"`
	LastHeartbeat time.Time `json:"last_heartbeat,omitempty"`
	Version       string    `json:"version"`
}

var viewOrders = template.Must(template.New("view-orders").Parse(`<!DOCTYPE html>
<html>
<head><title>Orders</title></head>
<body>
<h1>Orders</h1>
<table>
<thead><tr><th>Symbol</th><th>Price</th><th>Quantity</th><th>Order Type</th></tr></thead>
<tbody>
{{- range . }}
<tr><td>{{ .Symbol }}</td><td>{{ .Price }}</td><td>{{ .Quantity }}</td><td>{{ .OrderType }}</td></tr>
{{- end }}
</tbody>
</table>
</body>
</html>
`))

// Server serves the HTTP views.
type Server struct {
	rows   RowSource
	conn   StateSource
	logger *slog.Logger
}

// New creates a Server.
func New(rows RowSource, conn StateSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		rows:   rows,
		conn:   conn,
		logger: logger,
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.health)
	r.Get("/orders", s.listOrders)
	r.Get("/view-orders", s.viewOrders)

	return r
}

// requestLogger logs each request through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	state := s.conn.State()

	health := Health{
		Status:        "healthy",
		Connection:    state.String(),
		Rows:          s.rows.Len(),
		LastHeartbeat: s.conn.LastHeartbeat(),
		Version:       version.String(),
	}

	switch state {
	case connection.StateClosed:
		health.Status = "unhealthy"
	case connection.StateConnecting:
		health.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if health.Status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Error("encode health", "error", err)
	}
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.rows.Rows()); err != nil {
		s.logger.Error("encode orders", "error", err)
	}
}

func (s *Server) viewOrders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := viewOrders.Execute(w, s.rows.Rows()); err != nil {
		s.logger.Error("render view-orders", "error", err)
	}
}
