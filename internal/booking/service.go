// Package booking runs contact and booking submissions end to end: validation, the
// submission gate, notification dispatch, then bookkeeping.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/thirdeyevisualz/studio/internal/analytics"
	"github.com/thirdeyevisualz/studio/internal/audit"
	"github.com/thirdeyevisualz/studio/internal/availability"
	"github.com/thirdeyevisualz/studio/internal/clock"
	"github.com/thirdeyevisualz/studio/internal/forms"
	"github.com/thirdeyevisualz/studio/internal/gate"
	"github.com/thirdeyevisualz/studio/internal/notify"
	"github.com/thirdeyevisualz/studio/internal/observability/metrics"
	"github.com/thirdeyevisualz/studio/pkg/logging"
)

var tracer = otel.Tracer("studio.internal.booking")

// Gate actions. Each has its own rate-limit record.
const (
	ActionContact = "contact_form"
	ActionBooking = "booking_form"
)

// ErrFeatureDisabled is returned when the form has been switched off.
var ErrFeatureDisabled = errors.New("booking: form disabled")

// ErrSessionNotFound is returned for an unknown or expired calendar session.
var ErrSessionNotFound = errors.New("booking: calendar session not found")

// DispatchError wraps a notification failure. The rate-limit record is untouched.
type DispatchError struct {
	Action string
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("booking: dispatch %s: %v", e.Action, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// ContactRequest is a contact form submission. Fields carries every raw field the
// client sent, including the honeypot when present.
type ContactRequest struct {
	Form   forms.ContactForm
	Fields *gate.FormValues
}

// BookingRequest is a booking form submission. With SessionID set, the date and slot
// are applied to that calendar session and must be accepted by it.
type BookingRequest struct {
	Form      forms.BookingForm
	Fields    *gate.FormValues
	SessionID string
}

// Result describes an accepted submission.
type Result struct {
	Action string
	// InjectFields lists hidden fields the client should render from now on.
	InjectFields []string
	// Selection is the booked date and slot in display form, bookings only.
	Selection string
}

// Options toggles the forms.
type Options struct {
	ContactEnabled bool
	BookingEnabled bool
}

// Service orchestrates submissions.
type Service struct {
	gate       *gate.Gate
	dispatcher notify.Dispatcher
	sessions   *availability.Sessions
	source     availability.Source
	business   notify.Business
	tracker    analytics.Tracker
	audit      audit.Logger
	metrics    *metrics.SubmissionMetrics
	clk        clock.Clock
	opts       Options
	logger     *logging.Logger
}

// Deps bundles the Service collaborators.
type Deps struct {
	Gate       *gate.Gate
	Dispatcher notify.Dispatcher
	Sessions   *availability.Sessions
	Source     availability.Source
	Business   notify.Business
	Tracker    analytics.Tracker
	Audit      audit.Logger
	Metrics    *metrics.SubmissionMetrics
	Clock      clock.Clock
	Options    Options
	Logger     *logging.Logger
}

func NewService(d Deps) *Service {
	if d.Gate == nil {
		panic("booking: gate required")
	}
	if d.Dispatcher == nil {
		panic("booking: dispatcher required")
	}
	if d.Logger == nil {
		d.Logger = logging.Default()
	}
	if d.Tracker == nil {
		d.Tracker = analytics.Nop{}
	}
	if d.Audit == nil {
		d.Audit = audit.Nop{}
	}
	if d.Clock == nil {
		d.Clock = clock.NewSystem(nil)
	}
	return &Service{
		gate:       d.Gate,
		dispatcher: d.Dispatcher,
		sessions:   d.Sessions,
		source:     d.Source,
		business:   d.Business,
		tracker:    d.Tracker,
		audit:      d.Audit,
		metrics:    d.Metrics,
		clk:        d.Clock,
		opts:       d.Options,
		logger:     d.Logger,
	}
}

// SubmitContact validates, gates and dispatches a contact enquiry.
func (s *Service) SubmitContact(ctx context.Context, req ContactRequest) (Result, error) {
	if !s.opts.ContactEnabled {
		return Result{}, ErrFeatureDisabled
	}
	ctx, span := tracer.Start(ctx, "booking.submit_contact")
	defer span.End()

	if err := req.Form.Validate(); err != nil {
		s.metrics.ObserveOutcome(ActionContact, "invalid")
		return Result{}, err
	}
	fields := fieldsOrEmpty(req.Fields)
	if err := s.admit(ctx, ActionContact, fields, audit.Event{Email: req.Form.Email}); err != nil {
		return Result{}, err
	}

	note := notify.ContactNotice(s.business, notify.Contact{
		Name:    req.Form.Name,
		Email:   req.Form.Email,
		Phone:   req.Form.Phone,
		Service: req.Form.Service,
		Message: req.Form.Message,
	})
	details := audit.Details{Service: req.Form.Service}
	if err := s.dispatch(ctx, ActionContact, audit.Event{Email: req.Form.Email}, details, note); err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	s.accepted(ctx, ActionContact, audit.Event{Email: req.Form.Email}, details)
	s.tracker.Track(ctx, analytics.FormSubmission(ActionContact, req.Form.Service))
	return Result{Action: ActionContact, InjectFields: fields.Injected()}, nil
}

// SubmitBooking validates, gates and dispatches a booking request. The customer
// confirmation and the studio notice are sent together and both must succeed.
func (s *Service) SubmitBooking(ctx context.Context, req BookingRequest) (_ Result, err error) {
	if !s.opts.BookingEnabled {
		return Result{}, ErrFeatureDisabled
	}
	ctx, span := tracer.Start(ctx, "booking.submit_booking")
	defer span.End()
	if req.SessionID != "" {
		span.SetAttributes(attribute.String("booking.session_id", req.SessionID))
	}

	form := req.Form
	var session *availability.Session
	if req.SessionID != "" {
		var ok bool
		if session, ok = s.lookupSession(req.SessionID); !ok {
			return Result{}, ErrSessionNotFound
		}
		// A failed submission leaves the session's selection as it was.
		prevDate, prevSlot := session.Selected()
		defer func() {
			if err != nil {
				session.Restore(prevDate, prevSlot)
			}
		}()
		if form, err = applySession(session, form); err != nil {
			return Result{}, err
		}
		// Closing the session aborts the submission.
		var cancel context.CancelFunc
		ctx, cancel = mergeCancel(ctx, session.Context())
		defer cancel()
	}

	today := s.clk.Now()
	if err = form.Validate(today); err != nil {
		s.metrics.ObserveOutcome(ActionBooking, "invalid")
		return Result{}, err
	}
	if session == nil {
		if err = s.checkAvailable(ctx, form); err != nil {
			s.metrics.ObserveOutcome(ActionBooking, "invalid")
			return Result{}, err
		}
	}

	base := audit.Event{SessionID: req.SessionID, Email: form.Email}
	fields := fieldsOrEmpty(req.Fields)
	if err = s.admit(ctx, ActionBooking, fields, base); err != nil {
		return Result{}, err
	}

	businessNote, customerNote := notify.BookingNotices(s.business, notify.Booking{
		Name:     form.Name,
		Email:    form.Email,
		Phone:    form.Phone,
		Service:  form.Service,
		Date:     strings.TrimSpace(form.Date),
		Time:     form.Time,
		Location: form.Location,
		Duration: form.Duration,
		Budget:   form.Budget,
		Guests:   form.GuestCount(),
		Message:  form.Message,
	})
	details := audit.Details{Service: form.Service, Date: form.Date, Slot: form.Time}
	if err = s.dispatch(ctx, ActionBooking, base, details, businessNote, customerNote); err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	s.accepted(ctx, ActionBooking, base, details)
	s.tracker.Track(ctx, analytics.FormSubmission(ActionBooking, form.Service))
	s.tracker.Track(ctx, analytics.BookingInitiated(form.Service, form.Date))

	res := Result{
		Action:       ActionBooking,
		InjectFields: fields.Injected(),
		Selection:    availability.DisplayDate(form.Date) + " at " + form.Time,
	}
	if session != nil {
		session.Reset()
	}
	return res, nil
}

func (s *Service) lookupSession(id string) (*availability.Session, bool) {
	if s.sessions == nil {
		return nil, false
	}
	return s.sessions.Get(id)
}

// applySession pushes the form's date and slot through the session's selection
// rules and returns the form with the session's view of them.
func applySession(session *availability.Session, form forms.BookingForm) (forms.BookingForm, error) {
	date, slot := session.Selected()
	if d := strings.TrimSpace(form.Date); d != "" && d != date {
		if !session.SelectDate(d) {
			return form, forms.Errors{{Field: "date", Message: "Please select an available date"}}
		}
		date, slot = session.Selected()
	}
	if t := strings.TrimSpace(form.Time); t != "" && t != slot {
		if !session.SelectSlot(t) {
			return form, forms.Errors{{Field: "time", Message: "Please select an available time"}}
		}
		date, slot = session.Selected()
	}
	form.Date = date
	form.Time = slot
	return form, nil
}

// checkAvailable rejects stateless bookings for booked dates or slots. A source
// failure is logged and the booking proceeds.
func (s *Service) checkAvailable(ctx context.Context, form forms.BookingForm) error {
	if s.source == nil {
		return nil
	}
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		s.logger.Warn("availability unavailable, skipping slot check", "error", err)
		return nil
	}
	date := strings.TrimSpace(form.Date)
	if !availability.Selectable(date, snap, s.clk.Now()) {
		return forms.Errors{{Field: "date", Message: "Please select an available date"}}
	}
	if !availability.IsCanonicalSlot(form.Time) || snap.IsSlotBooked(date, form.Time) {
		return forms.Errors{{Field: "time", Message: "Please select an available time"}}
	}
	return nil
}

// admit runs the gate. Refusals are audited and returned as errors.
func (s *Service) admit(ctx context.Context, action string, fields *gate.FormValues, base audit.Event) error {
	base.ClientKey = gate.ClientKeyFrom(ctx)
	decision, err := s.gate.Evaluate(ctx, fields, action)
	if err != nil {
		return err
	}
	s.metrics.ObserveGateDecision(action, string(decision.Reason))
	if decision.Allowed {
		return nil
	}
	switch decision.Reason {
	case gate.ReasonSecurity:
		s.record(ctx, audit.EventSecurityRejected, action, base, audit.Details{})
		s.metrics.ObserveOutcome(action, "security")
	case gate.ReasonRateLimit:
		s.record(ctx, audit.EventRateLimited, action, base, audit.Details{
			RetryAfterSeconds: int(decision.RetryAfter.Seconds()),
		})
		s.metrics.ObserveOutcome(action, "rate_limited")
	}
	return decision.Err()
}

func (s *Service) dispatch(ctx context.Context, action string, base audit.Event, details audit.Details, notes ...notify.Notification) error {
	start := time.Now()
	err := notify.DispatchAll(ctx, s.dispatcher, notes...)
	s.metrics.ObserveDispatch(action, err == nil, time.Since(start).Seconds())
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	s.logger.Error("notification dispatch failed", "action", action, "error", err)
	base.ClientKey = gate.ClientKeyFrom(ctx)
	details.Error = err.Error()
	s.record(ctx, audit.EventDispatchFailed, action, base, details)
	s.metrics.ObserveOutcome(action, "dispatch_failed")
	return &DispatchError{Action: action, Err: err}
}

// accepted books a dispatched submission. The notification is already out, so the
// rate-limit record and audit row are written even if ctx has since been cancelled.
func (s *Service) accepted(ctx context.Context, action string, base audit.Event, details audit.Details) {
	ctx = context.WithoutCancel(ctx)
	if err := s.gate.RecordSubmission(ctx, action); err != nil {
		s.logger.Error("submission dispatched but not recorded", "action", action, "error", err)
		details.Error = err.Error()
	}
	base.ClientKey = gate.ClientKeyFrom(ctx)
	s.record(ctx, audit.EventSubmissionAccepted, action, base, details)
	s.metrics.ObserveOutcome(action, "accepted")
	s.logger.Info("submission accepted", "action", action)
}

func (s *Service) record(ctx context.Context, typ audit.EventType, action string, base audit.Event, d audit.Details) {
	if err := audit.Record(ctx, s.audit, typ, action, base, d); err != nil {
		s.logger.Warn("audit write failed", "event", string(typ), "error", err)
	}
}

func fieldsOrEmpty(f *gate.FormValues) *gate.FormValues {
	if f == nil {
		return gate.NewFormValues(nil)
	}
	return f
}

// mergeCancel returns a context cancelled when either parent is done.
func mergeCancel(ctx, other context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(other, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}
