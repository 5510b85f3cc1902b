// Package audit keeps an append-only record of submission outcomes.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EventType names an audited outcome.
type EventType string

const (
	// EventSecurityRejected is logged when the honeypot trips.
	EventSecurityRejected EventType = "gate.security_rejected"
	// EventRateLimited is logged when the rate limiter blocks a submission.
	EventRateLimited EventType = "gate.rate_limited"
	// EventDispatchFailed is logged when notifications could not be sent.
	EventDispatchFailed EventType = "dispatch.failed"
	// EventSubmissionAccepted is logged once a submission is dispatched and recorded.
	EventSubmissionAccepted EventType = "submission.accepted"
)

// Event is an immutable audit record.
type Event struct {
	ID        string          `json:"id"`
	EventType EventType       `json:"event_type"`
	Action    string          `json:"action"`
	ClientKey string          `json:"client_key,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	Email     string          `json:"email,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Details holds event-specific fields.
type Details struct {
	Service           string `json:"service,omitempty"`
	Date              string `json:"date,omitempty"`
	Slot              string `json:"slot,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
	Error             string `json:"error,omitempty"`
}

// Logger is what submission code needs from the audit trail.
type Logger interface {
	LogEvent(ctx context.Context, event Event) error
}

// Nop discards events. Used when no database is configured.
type Nop struct{}

func (Nop) LogEvent(context.Context, Event) error { return nil }

// Service writes and reads audit events.
type Service struct {
	db  *sql.DB
	now func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// LogEvent records an audit event.
func (s *Service) LogEvent(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now().UTC()
	}
	if len(event.Details) == 0 {
		event.Details = json.RawMessage(`{}`)
	}

	query := `
		INSERT INTO submission_audit_events (
			id, event_type, action, client_key, session_id, email, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(event.EventType),
		event.Action,
		nullString(event.ClientKey),
		nullString(event.SessionID),
		nullString(event.Email),
		[]byte(event.Details),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: failed to log event: %w", err)
	}
	return nil
}

// Record builds an event with marshalled details and logs it.
func Record(ctx context.Context, l Logger, typ EventType, action string, base Event, d Details) error {
	if l == nil {
		return nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("audit: marshal details: %w", err)
	}
	base.EventType = typ
	base.Action = action
	base.Details = raw
	return l.LogEvent(ctx, base)
}

// Filter narrows QueryEvents.
type Filter struct {
	Action     string
	EventTypes []EventType
	ClientKey  string
	StartTime  time.Time
	EndTime    time.Time
	Limit      int
	Offset     int
}

// QueryEvents returns events newest first.
func (s *Service) QueryEvents(ctx context.Context, filter Filter) ([]Event, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Action != "" {
		add("action = $%d", filter.Action)
	}
	if len(filter.EventTypes) > 0 {
		types := make([]string, len(filter.EventTypes))
		for i, t := range filter.EventTypes {
			types[i] = string(t)
		}
		add("event_type = ANY($%d)", pq.Array(types))
	}
	if filter.ClientKey != "" {
		add("client_key = $%d", filter.ClientKey)
	}
	if !filter.StartTime.IsZero() {
		add("created_at >= $%d", filter.StartTime)
	}
	if !filter.EndTime.IsZero() {
		add("created_at <= $%d", filter.EndTime)
	}

	query := `
		SELECT id, event_type, action, client_key, session_id, email, details, created_at
		FROM submission_audit_events`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e                         Event
			typ                       string
			clientKey, session, email sql.NullString
			details                   []byte
		)
		if err := rows.Scan(&e.ID, &typ, &e.Action, &clientKey, &session, &email, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: failed to scan event: %w", err)
		}
		e.EventType = EventType(typ)
		e.ClientKey = clientKey.String
		e.SessionID = session.String
		e.Email = email.String
		e.Details = details
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate events: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
