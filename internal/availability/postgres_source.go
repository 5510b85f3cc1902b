package availability

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thirdeyevisualz/studio/pkg/logging"
)

type rowsQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads booked days and slots from the unavailable_dates and
// booked_slots tables. Past rows are skipped by the queries.
type PostgresSource struct {
	db     rowsQuerier
	logger *logging.Logger
}

func NewPostgresSource(pool *pgxpool.Pool, logger *logging.Logger) *PostgresSource {
	if pool == nil {
		panic("availability: pgx pool required")
	}
	return newPostgresSourceWithQuerier(pool, logger)
}

func newPostgresSourceWithQuerier(db rowsQuerier, logger *logging.Logger) *PostgresSource {
	if db == nil {
		panic("availability: querier required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresSource{db: db, logger: logger}
}

const (
	queryUnavailableDates = `SELECT to_char(day, 'YYYY-MM-DD') FROM unavailable_dates WHERE day >= CURRENT_DATE - 1 ORDER BY day`
	queryBookedSlots      = `SELECT to_char(day, 'YYYY-MM-DD'), slot FROM booked_slots WHERE day >= CURRENT_DATE - 1 ORDER BY day, slot`
)

func (s *PostgresSource) Snapshot(ctx context.Context) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "availability.postgres_snapshot")
	defer span.End()

	rows, err := s.db.Query(ctx, queryUnavailableDates)
	if err != nil {
		span.RecordError(err)
		return Snapshot{}, fmt.Errorf("availability: query unavailable dates: %w", err)
	}
	dates, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		span.RecordError(err)
		return Snapshot{}, fmt.Errorf("availability: scan unavailable dates: %w", err)
	}

	rows, err = s.db.Query(ctx, queryBookedSlots)
	if err != nil {
		span.RecordError(err)
		return Snapshot{}, fmt.Errorf("availability: query booked slots: %w", err)
	}
	defer rows.Close()

	slots := make(map[string][]string)
	for rows.Next() {
		var day, slot string
		if err := rows.Scan(&day, &slot); err != nil {
			return Snapshot{}, fmt.Errorf("availability: scan booked slot: %w", err)
		}
		if !IsCanonicalSlot(slot) {
			s.logger.Warn("ignoring non-canonical booked slot", "date", day, "slot", slot)
			continue
		}
		slots[day] = append(slots[day], slot)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("availability: iterate booked slots: %w", err)
	}

	return NewSnapshot(dates, slots), nil
}
