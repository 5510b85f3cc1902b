package availability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thirdeyevisualz/studio/internal/clock"
)

// Direction moves the visible month.
type Direction string

const (
	Prev Direction = "prev"
	Next Direction = "next"
)

// ErrInvalidDirection is returned by Navigate for anything other than Prev or Next.
var ErrInvalidDirection = errors.New("availability: invalid direction")

// State is a copy of a session's visible month and current selection.
type State struct {
	ID           string    `json:"id"`
	Grid         MonthGrid `json:"grid"`
	SelectedDate string    `json:"selected_date,omitempty"`
	SelectedSlot string    `json:"selected_slot,omitempty"`
	Selection    string    `json:"selection,omitempty"`
	Slots        []Slot    `json:"slots,omitempty"`
}

// Session is one visitor's calendar: the visible month, the snapshot it was opened
// with, and the chosen date and slot. A selected slot always belongs to the selected
// date.
type Session struct {
	ID string

	mu       sync.Mutex
	clk      clock.Clock
	snap     Snapshot
	year     int
	month    int
	date     string
	slot     string
	lastUsed time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession opens a session on the current month with no selection.
func NewSession(id string, snap Snapshot, clk clock.Clock) *Session {
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	now := clk.Now()
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:       id,
		clk:      clk,
		snap:     snap,
		year:     now.Year(),
		month:    int(now.Month()) - 1,
		lastUsed: now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Context is cancelled when the session closes. Work started on behalf of the
// session should derive from it so closing the UI discards the result.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Close cancels the session context.
func (s *Session) Close() {
	s.cancel()
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.ctx.Err() != nil
}

// Grid renders the visible month.
func (s *Session) Grid() MonthGrid {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return RenderMonth(s.year, s.month, s.snap, s.clk.Now())
}

// Navigate shifts the visible month by one, wrapping the year at the ends, and
// returns the new grid. Selection is untouched.
func (s *Session) Navigate(dir Direction) (MonthGrid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch dir {
	case Prev:
		s.month--
		if s.month < 0 {
			s.month = 11
			s.year--
		}
	case Next:
		s.month++
		if s.month > 11 {
			s.month = 0
			s.year++
		}
	default:
		return MonthGrid{}, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	s.touch()
	return RenderMonth(s.year, s.month, s.snap, s.clk.Now()), nil
}

// SelectDate chooses date and clears any slot. Past, booked or malformed dates
// leave the session unchanged and return false.
func (s *Session) SelectDate(date string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if !Selectable(date, s.snap, s.clk.Now()) {
		return false
	}
	s.date = date
	s.slot = ""
	return true
}

// Slots lists the slots for the selected date, or nil when no date is selected.
func (s *Session) Slots() []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.date == "" {
		return nil
	}
	return ListSlots(s.date, s.snap)
}

// SelectSlot chooses label on the selected date. It is a no-op returning false when
// no date is selected or the slot is not bookable.
func (s *Session) SelectSlot(label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.date == "" || !IsCanonicalSlot(label) || s.snap.IsSlotBooked(s.date, label) {
		return false
	}
	s.slot = label
	return true
}

// Reset clears the selection and keeps the visible month.
func (s *Session) Reset() {
	s.mu.Lock()
	s.date = ""
	s.slot = ""
	s.touch()
	s.mu.Unlock()
}

// Restore puts back a selection previously read with Selected. It skips the
// selection rules, so callers must only pass values this session already held.
func (s *Session) Restore(date, slot string) {
	s.mu.Lock()
	s.date = date
	s.slot = slot
	if date == "" {
		s.slot = ""
	}
	s.touch()
	s.mu.Unlock()
}

// Selected returns the chosen date and slot (empty when unset).
func (s *Session) Selected() (date, slot string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date, s.slot
}

// Selection formats the selected date as "Monday, January 2, 2006".
func (s *Session) Selection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return displayDate(s.date)
}

// State snapshots the session for serialization.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		ID:           s.ID,
		Grid:         RenderMonth(s.year, s.month, s.snap, s.clk.Now()),
		SelectedDate: s.date,
		SelectedSlot: s.slot,
		Selection:    displayDate(s.date),
	}
	if s.date != "" {
		st.Slots = ListSlots(s.date, s.snap)
	}
	return st
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// touch must be called with mu held.
func (s *Session) touch() {
	s.lastUsed = s.clk.Now()
}

// DisplayDate formats an ISO date the way confirmation copy shows it. Malformed input
// is returned unchanged.
func DisplayDate(date string) string {
	return displayDate(date)
}

func displayDate(date string) string {
	if date == "" {
		return ""
	}
	t, err := ParseDate(date, time.UTC)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2, 2006")
}
