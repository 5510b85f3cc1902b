package availability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thirdeyevisualz/studio/internal/clock"
	"github.com/thirdeyevisualz/studio/pkg/logging"
)

// Sessions tracks open calendar sessions. Each session holds the snapshot taken when
// it opened; idle sessions are closed after the TTL.
type Sessions struct {
	source Source
	clk    clock.Clock
	ttl    time.Duration
	logger *logging.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessions builds a registry backed by source.
func NewSessions(source Source, clk clock.Clock, ttl time.Duration, logger *logging.Logger) *Sessions {
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Sessions{
		source:   source,
		clk:      clk,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Open loads a snapshot and starts a new session on the current month.
func (r *Sessions) Open(ctx context.Context) (*Session, error) {
	snap, err := r.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("availability: open session: %w", err)
	}
	s := NewSession(uuid.NewString(), snap, r.clk)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Debug("calendar session opened", "session_id", s.ID)
	return s, nil
}

// Get returns an open session.
func (r *Sessions) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Close discards a session and cancels anything running under its context.
func (r *Sessions) Close(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
		r.logger.Debug("calendar session closed", "session_id", id)
	}
	return ok
}

// Len returns the number of open sessions.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many it closed.
func (r *Sessions) Sweep() int {
	cutoff := r.clk.Now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		r.logger.Info("expired calendar sessions", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps on every interval until ctx is done, then closes all sessions.
func (r *Sessions) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Sessions) closeAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
