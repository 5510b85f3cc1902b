package availability

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/thirdeyevisualz/studio/internal/clock"
	"github.com/thirdeyevisualz/studio/pkg/logging"
)

// Handler serves month grids, slot lists and calendar sessions.
type Handler struct {
	source   Source
	sessions *Sessions
	clk      clock.Clock
	logger   *logging.Logger
}

func NewHandler(source Source, sessions *Sessions, clk clock.Clock, logger *logging.Logger) *Handler {
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{source: source, sessions: sessions, clk: clk, logger: logger}
}

// Month renders a month grid.
// Route: GET /availability/{year}/{month} (month 1-12)
func (h *Handler) Month(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 || year > 9999 {
		http.Error(w, "invalid year", http.StatusBadRequest)
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		http.Error(w, "invalid month", http.StatusBadRequest)
		return
	}
	snap, err := h.source.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to load availability", "error", err)
		http.Error(w, "availability unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, RenderMonth(year, month-1, snap, h.clk.Now()))
}

// Slots lists the canonical slots for a date.
// Route: GET /availability/dates/{date}/slots
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(chi.URLParam(r, "date"))
	if !IsISODate(date) {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	snap, err := h.source.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to load availability", "error", err)
		http.Error(w, "availability unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date,
		"slots": ListSlots(date, snap),
	})
}

// OpenSession starts a calendar session on the current month.
// Route: POST /booking/sessions
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Open(r.Context())
	if err != nil {
		h.logger.Error("failed to open calendar session", "error", err)
		http.Error(w, "availability unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, s.State())
}

// GetSession returns the session state.
// Route: GET /booking/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// Navigate moves the visible month.
// Route: POST /booking/sessions/{id}/navigate {"direction":"prev|next"}
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var body struct {
		Direction Direction `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if _, err := s.Navigate(body.Direction); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// SelectDate picks a date. A refused selection still answers 200 with
// "accepted": false and the unchanged state.
// Route: POST /booking/sessions/{id}/date {"date":"YYYY-MM-DD"}
func (h *Handler) SelectDate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var body struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	accepted := s.SelectDate(strings.TrimSpace(body.Date))
	writeJSON(w, http.StatusOK, selectionResponse{Accepted: accepted, State: s.State()})
}

// SelectSlot picks a slot on the selected date.
// Route: POST /booking/sessions/{id}/slot {"slot":"10:00-12:00"}
func (h *Handler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var body struct {
		Slot string `json:"slot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	accepted := s.SelectSlot(strings.TrimSpace(body.Slot))
	writeJSON(w, http.StatusOK, selectionResponse{Accepted: accepted, State: s.State()})
}

// Reset clears the selection.
// Route: POST /booking/sessions/{id}/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	s.Reset()
	writeJSON(w, http.StatusOK, s.State())
}

// CloseSession discards a session.
// Route: DELETE /booking/sessions/{id}
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Close(chi.URLParam(r, "id")) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type selectionResponse struct {
	Accepted bool  `json:"accepted"`
	State    State `json:"state"`
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	s, ok := h.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return s, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
