package availability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("studio.internal.availability")

// Source supplies the booked dates and slots a calendar session renders against.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// StaticSource serves a fixed snapshot.
type StaticSource struct {
	snap Snapshot
}

// NewStaticSource wraps fixed data.
func NewStaticSource(dates []string, slots map[string][]string) *StaticSource {
	return &StaticSource{snap: NewSnapshot(dates, slots)}
}

func (s *StaticSource) Snapshot(context.Context) (Snapshot, error) {
	return s.snap, nil
}

// FixtureSource returns demo data anchored on the month containing now: two fully
// booked days and two partly booked days this month, two booked days next month.
func FixtureSource(now time.Time) *StaticSource {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)
	day := func(base time.Time, d int) string {
		return FormatDate(base.Year(), base.Month(), d)
	}
	return NewStaticSource(
		[]string{day(first, 20), day(first, 25), day(next, 5), day(next, 12)},
		map[string][]string{
			day(first, 18): {"10:00-12:00", "14:00-16:00"},
			day(first, 22): {"08:00-10:00", "16:00-18:00"},
		},
	)
}
