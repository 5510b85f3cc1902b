package booking

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/thirdeyevisualz/studio/internal/forms"
	"github.com/thirdeyevisualz/studio/internal/gate"
	"github.com/thirdeyevisualz/studio/pkg/logging"
)

const contactFailedMessage = "There was an error submitting your message. Please try again or contact us directly."

// Handler exposes the contact and booking forms over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

type submitResponse struct {
	Status       string   `json:"status"`
	Message      string   `json:"message"`
	Selection    string   `json:"selection,omitempty"`
	InjectFields []string `json:"inject_fields,omitempty"`
}

type errorResponse struct {
	Error             string            `json:"error,omitempty"`
	Errors            map[string]string `json:"errors,omitempty"`
	RetryAfterSeconds int               `json:"retry_after_seconds,omitempty"`
}

// Contact submits the contact form.
// Route: POST /contact
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var form forms.ContactForm
	fields, ok := h.decode(w, r, &form)
	if !ok {
		return
	}
	res, err := h.service.SubmitContact(r.Context(), ContactRequest{Form: form, Fields: fields})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{
		Status:       "sent",
		Message:      fmt.Sprintf("Thank you, %s! We'll get back to you soon at %s.", form.Name, form.Email),
		InjectFields: res.InjectFields,
	})
}

// Booking submits a stateless booking request.
// Route: POST /booking
func (h *Handler) Booking(w http.ResponseWriter, r *http.Request) {
	h.submitBooking(w, r, "")
}

// SessionBooking submits a booking using a calendar session's selection. Date and
// time in the body, if any, are applied to the session first.
// Route: POST /booking/sessions/{id}/submit
func (h *Handler) SessionBooking(w http.ResponseWriter, r *http.Request) {
	h.submitBooking(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) submitBooking(w http.ResponseWriter, r *http.Request, sessionID string) {
	var form forms.BookingForm
	fields, ok := h.decode(w, r, &form)
	if !ok {
		return
	}
	res, err := h.service.SubmitBooking(r.Context(), BookingRequest{Form: form, Fields: fields, SessionID: sessionID})
	if err != nil {
		h.writeError(w, err)
		return
	}
	msg := fmt.Sprintf("Thank you, %s! Your %s session for %s has been received. We'll contact you within 24 hours to confirm.",
		form.Name, form.Service, res.Selection)
	writeJSON(w, http.StatusCreated, submitResponse{
		Status:       "requested",
		Message:      msg,
		Selection:    res.Selection,
		InjectFields: res.InjectFields,
	})
}

// decode reads the body into dst and also keeps the raw string fields for the gate.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) (*gate.FormValues, bool) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&raw); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return nil, false
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			values[k] = s
			continue
		}
		// Non-string values still count as present; numbers for guests, for instance.
		values[k] = string(v)
	}
	body, _ := json.Marshal(values)
	if err := json.Unmarshal(body, dst); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return nil, false
	}
	return gate.NewFormValues(values), true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		fieldErrs forms.Errors
		limited   *gate.RateLimitError
		dispatch  *DispatchError
	)
	switch {
	case errors.As(err, &fieldErrs):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Errors: fieldErrs.Map()})
	case errors.Is(err, gate.ErrSecurityRejection):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: gate.SecurityMessage})
	case errors.As(err, &limited):
		secs := int(math.Ceil(limited.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: limited.Message, RetryAfterSeconds: secs})
	case errors.Is(err, ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
	case errors.Is(err, ErrFeatureDisabled):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "form unavailable"})
	case errors.As(err, &dispatch):
		msg := contactFailedMessage
		if dispatch.Action == ActionBooking {
			msg = "There was an error submitting your booking. Please try again or contact us directly at " + h.service.business.Email
		}
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: msg})
	default:
		h.logger.Error("submission failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request cancelled"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
