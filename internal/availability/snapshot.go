// Package availability computes which calendar dates and time slots the studio can
// offer, renders month grids, and tracks a visitor's date/slot selection.
package availability

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

// Snapshot is a read-only view of booked days and booked slots, supplied by a
// Source when a calendar session opens.
type Snapshot struct {
	unavailableDates map[string]struct{}
	unavailableSlots map[string]map[string]struct{}
}

// Document is the wire/file form of a Snapshot.
type Document struct {
	UnavailableDates []string            `json:"unavailable_dates" yaml:"unavailable_dates"`
	UnavailableSlots map[string][]string `json:"unavailable_slots" yaml:"unavailable_slots"`
}

// NewSnapshot builds a snapshot, dropping malformed dates and slot labels outside
// the canonical list.
func NewSnapshot(dates []string, slots map[string][]string) Snapshot {
	s := Snapshot{
		unavailableDates: make(map[string]struct{}, len(dates)),
		unavailableSlots: make(map[string]map[string]struct{}, len(slots)),
	}
	for _, d := range dates {
		d = strings.TrimSpace(d)
		if !IsISODate(d) {
			continue
		}
		s.unavailableDates[d] = struct{}{}
	}
	for d, labels := range slots {
		d = strings.TrimSpace(d)
		if !IsISODate(d) {
			continue
		}
		for _, label := range labels {
			label = strings.TrimSpace(label)
			if !IsCanonicalSlot(label) {
				continue
			}
			set, ok := s.unavailableSlots[d]
			if !ok {
				set = make(map[string]struct{})
				s.unavailableSlots[d] = set
			}
			set[label] = struct{}{}
		}
	}
	return s
}

// Snapshot converts the document into a Snapshot.
func (d Document) Snapshot() Snapshot {
	return NewSnapshot(d.UnavailableDates, d.UnavailableSlots)
}

// IsDateBooked reports whether the whole day is unavailable.
func (s Snapshot) IsDateBooked(date string) bool {
	_, ok := s.unavailableDates[date]
	return ok
}

// IsSlotBooked reports whether label is already taken on date.
func (s Snapshot) IsSlotBooked(date, label string) bool {
	set, ok := s.unavailableSlots[date]
	if !ok {
		return false
	}
	_, booked := set[label]
	return booked
}

// Document returns the snapshot in sorted wire form.
func (s Snapshot) Document() Document {
	doc := Document{
		UnavailableDates: make([]string, 0, len(s.unavailableDates)),
		UnavailableSlots: make(map[string][]string, len(s.unavailableSlots)),
	}
	for d := range s.unavailableDates {
		doc.UnavailableDates = append(doc.UnavailableDates, d)
	}
	sort.Strings(doc.UnavailableDates)
	for d, set := range s.unavailableSlots {
		labels := make([]string, 0, len(set))
		for _, label := range CanonicalSlots() {
			if _, ok := set[label]; ok {
				labels = append(labels, label)
			}
		}
		doc.UnavailableSlots[d] = labels
	}
	return doc
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func FormatDate(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// IsISODate reports whether s is a real YYYY-MM-DD calendar date.
func IsISODate(s string) bool {
	_, err := ParseDate(s, time.UTC)
	return err == nil
}

// ParseDate parses a strict YYYY-MM-DD date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if len(s) != len(isoLayout) {
		return time.Time{}, fmt.Errorf("availability: invalid date %q", s)
	}
	t, err := time.ParseInLocation(isoLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("availability: invalid date %q: %w", s, err)
	}
	return t, nil
}

// DaysInMonth returns the number of days in month (1-12) of year.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dateKey renders t's local calendar day; lexical order matches chronological order.
func dateKey(t time.Time) string {
	return t.Format(isoLayout)
}
