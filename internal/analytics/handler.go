package analytics

import (
	"encoding/json"
	"net/http"
)

// Handler ingests client-side events.
type Handler struct {
	tracker Tracker
}

func NewHandler(tracker Tracker) *Handler {
	if tracker == nil {
		tracker = Nop{}
	}
	return &Handler{tracker: tracker}
}

// Ingest records one event.
// Route: POST /events {"name":"portfolio_view","params":{"portfolio_category":"weddings"}}
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var e Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<10)).Decode(&e); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := e.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.tracker.Track(r.Context(), e)
	w.WriteHeader(http.StatusAccepted)
}
