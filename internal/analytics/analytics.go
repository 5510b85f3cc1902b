// Package analytics counts the site's engagement events.
package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/thirdeyevisualz/studio/pkg/logging"
)

// Event names the site reports.
const (
	EventFormSubmission   = "form_submission"
	EventBookingInitiated = "booking_initiated"
	EventServiceSelected  = "service_selected"
	EventPortfolioView    = "portfolio_view"
	EventClick            = "click"
)

var known = map[string]string{
	EventFormSubmission:   "engagement",
	EventBookingInitiated: "conversion",
	EventServiceSelected:  "engagement",
	EventPortfolioView:    "engagement",
	EventClick:            "outbound",
}

// Event is one tracked interaction.
type Event struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params,omitempty"`
}

// Validate rejects unknown event names.
func (e Event) Validate() error {
	if _, ok := known[e.Name]; !ok {
		return fmt.Errorf("analytics: unknown event %q", e.Name)
	}
	return nil
}

// Category returns the event's reporting category. A client-supplied
// event_category param is ignored so the label set stays fixed.
func (e Event) Category() string {
	return known[e.Name]
}

// Tracker records events.
type Tracker interface {
	Track(ctx context.Context, e Event)
}

// Nop drops every event. Used when analytics is switched off.
type Nop struct{}

func (Nop) Track(context.Context, Event) {}

// FormSubmission is sent after a form is dispatched.
func FormSubmission(formType, service string) Event {
	if service == "" {
		service = "unknown"
	}
	return Event{Name: EventFormSubmission, Params: map[string]string{
		"form_type":      formType,
		"service_type":   service,
		"event_category": "engagement",
		"event_label":    formType,
	}}
}

// BookingInitiated is sent after a booking request is dispatched.
func BookingInitiated(service, date string) Event {
	return Event{Name: EventBookingInitiated, Params: map[string]string{
		"service_type":   service,
		"booking_date":   date,
		"event_category": "conversion",
		"event_label":    "booking_attempt",
	}}
}

// PrometheusTracker counts events by name, category and subject. Free-form params
// such as URLs and dates are logged at debug, not used as labels.
type PrometheusTracker struct {
	events *prometheus.CounterVec
	logger *logging.Logger
}

func NewPrometheusTracker(reg prometheus.Registerer, logger *logging.Logger) *PrometheusTracker {
	if logger == nil {
		logger = logging.Default()
	}
	t := &PrometheusTracker{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "analytics",
			Name:      "events_total",
			Help:      "Site engagement events",
		}, []string{"event", "category", "subject"}),
		logger: logger,
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(t.events)
	return t
}

func (t *PrometheusTracker) Track(_ context.Context, e Event) {
	if t == nil {
		return
	}
	if err := e.Validate(); err != nil {
		t.logger.Warn("dropping analytics event", "error", err)
		return
	}
	t.events.WithLabelValues(e.Name, e.Category(), subject(e)).Inc()
	t.logger.Debug("tracked event", "event", e.Name, "params", e.Params)
}

// subject picks the one bounded param worth slicing each event by.
func subject(e Event) string {
	var v string
	switch e.Name {
	case EventFormSubmission:
		v = e.Params["form_type"]
	case EventBookingInitiated, EventServiceSelected:
		v = e.Params["service_type"]
	case EventPortfolioView:
		v = e.Params["portfolio_category"]
	}
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" || len(v) > 64 {
		return "other"
	}
	return v
}
