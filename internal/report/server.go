package report

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pfrederiksen/seatwatch/internal/history"
	"github.com/pfrederiksen/seatwatch/internal/logger"
)

// Server serves the live report of one monitoring session
type Server struct {
	store      *history.Store
	showtimeID string
}

// NewServer creates a report server reading from store
func NewServer(store *history.Store, showtimeID string) *Server {
	return &Server{store: store, showtimeID: showtimeID}
}

// Routes returns the HTTP handler for the report
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleReport)
	r.Get("/history.json", s.handleHistory)
	r.Get("/healthz", s.handleHealth)

	return r
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	content, err := Render(s.store.Records(), s.showtimeID)
	if err != nil {
		logger.Error("Rendering report failed", logger.Fields{"showtime_id": s.showtimeID}, err)
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(content)) // nolint:errcheck
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.store.Records()); err != nil {
		logger.Error("Encoding history failed", logger.Fields{"showtime_id": s.showtimeID}, err)
	}
}

type health struct {
	Status    string       `json:"status"`
	Polls     int          `json:"polls"`
	LastEvent history.Kind `json:"last_event,omitempty"`
	LastPoll  *time.Time   `json:"last_poll,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := health{Status: "ok", Polls: s.store.Len()}
	if last, ok := s.store.Last(); ok {
		h.LastEvent = last.Event
		h.LastPoll = &last.Timestamp
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h); err != nil {
		logger.Error("Encoding health failed", logger.Fields{"showtime_id": s.showtimeID}, err)
	}
}
