package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/thirdeyevisualz/studio/internal/clock"
	"github.com/thirdeyevisualz/studio/pkg/logging"
)

// Config tunes the per-action submission limits.
type Config struct {
	MaxPerHour int
	Cooldown   time.Duration
	Window     time.Duration
	KeyPrefix  string
}

// DefaultConfig allows three submissions per hour, five minutes apart.
func DefaultConfig() Config {
	return Config{
		MaxPerHour: 3,
		Cooldown:   5 * time.Minute,
		Window:     time.Hour,
		KeyPrefix:  "3rdEyeVisualz_ratelimit_",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxPerHour <= 0 {
		c.MaxPerHour = d.MaxPerHour
	}
	if c.Cooldown < 0 {
		c.Cooldown = 0
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = d.KeyPrefix
	}
	return c
}

// Record is the list of recent submission instants for one action, oldest first.
type Record []time.Time

// Prune keeps only timestamps strictly inside the window ending at now.
// Pruning an already pruned record returns the same record.
func (r Record) Prune(now time.Time, window time.Duration) Record {
	cutoff := now.Add(-window)
	out := make(Record, 0, len(r))
	for _, ts := range r {
		if ts.After(cutoff) {
			out = append(out, ts)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// RateLimiter enforces an hourly cap and a cooldown per action, scoped optionally
// by a client key.
type RateLimiter struct {
	store  Store
	clk    clock.Clock
	cfg    Config
	logger *logging.Logger
}

func NewRateLimiter(store Store, clk clock.Clock, cfg Config, logger *logging.Logger) *RateLimiter {
	if store == nil {
		store = NewMemoryStore()
	}
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RateLimiter{store: store, clk: clk, cfg: cfg.withDefaults(), logger: logger}
}

// Config returns the effective limits.
func (l *RateLimiter) Config() Config {
	return l.cfg
}

// Key returns the store key for an action and client.
func (l *RateLimiter) Key(action, client string) string {
	if client == "" {
		return l.cfg.KeyPrefix + action
	}
	return l.cfg.KeyPrefix + action + ":" + client
}

// Check applies the hourly cap, then the cooldown. It never writes. A store
// failure allows the attempt.
func (l *RateLimiter) Check(ctx context.Context, action, client string) Decision {
	now := l.clk.Now()
	rec, err := l.load(ctx, l.Key(action, client))
	if err != nil {
		l.logger.Error("rate limit check failed, allowing", "action", action, "error", err)
		return Decision{Allowed: true, Reason: ReasonNone}
	}
	rec = rec.Prune(now, l.cfg.Window)

	if len(rec) >= l.cfg.MaxPerHour {
		oldest := rec[0]
		retry := oldest.Add(l.cfg.Window).Sub(now)
		mins := ceilMinutes(retry)
		return Decision{
			Reason:     ReasonRateLimit,
			RetryAfter: retry,
			Message:    fmt.Sprintf("Too many submissions. Please wait %d minute(s) before trying again.", mins),
		}
	}

	if len(rec) > 0 {
		elapsed := now.Sub(rec[len(rec)-1])
		if elapsed < l.cfg.Cooldown {
			retry := l.cfg.Cooldown - elapsed
			mins := ceilMinutes(retry)
			return Decision{
				Reason:     ReasonRateLimit,
				RetryAfter: retry,
				Message:    fmt.Sprintf("Please wait %d minute(s) before submitting again.", mins),
			}
		}
	}
	return Decision{Allowed: true, Reason: ReasonNone}
}

// Record appends now to the action's record and re-prunes.
func (l *RateLimiter) Record(ctx context.Context, action, client string) error {
	key := l.Key(action, client)
	now := l.clk.Now()
	rec, err := l.load(ctx, key)
	if err != nil {
		return err
	}
	rec = append(rec, now).Prune(now, l.cfg.Window)
	return l.save(ctx, key, rec)
}

// History returns the pruned record.
func (l *RateLimiter) History(ctx context.Context, action, client string) (Record, error) {
	rec, err := l.load(ctx, l.Key(action, client))
	if err != nil {
		return nil, err
	}
	return rec.Prune(l.clk.Now(), l.cfg.Window), nil
}

// Clear drops the record for an action.
func (l *RateLimiter) Clear(ctx context.Context, action, client string) error {
	if err := l.store.Remove(ctx, l.Key(action, client)); err != nil {
		return fmt.Errorf("gate: clear %s: %w", action, err)
	}
	return nil
}

// load decodes a JSON array of epoch milliseconds. Unreadable data counts as empty.
func (l *RateLimiter) load(ctx context.Context, key string) (Record, error) {
	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("gate: load %s: %w", key, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var millis []int64
	if err := json.Unmarshal([]byte(raw), &millis); err != nil {
		l.logger.Warn("discarding unreadable rate limit record", "key", key, "error", err)
		return nil, nil
	}
	rec := make(Record, 0, len(millis))
	for _, ms := range millis {
		rec = append(rec, time.UnixMilli(ms))
	}
	return rec, nil
}

func (l *RateLimiter) save(ctx context.Context, key string, rec Record) error {
	millis := make([]int64, 0, len(rec))
	for _, ts := range rec {
		millis = append(millis, ts.UnixMilli())
	}
	raw, err := json.Marshal(millis)
	if err != nil {
		return fmt.Errorf("gate: encode record: %w", err)
	}
	if err := l.store.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("gate: save %s: %w", key, err)
	}
	return nil
}

func ceilMinutes(d time.Duration) int {
	return int(math.Ceil(d.Minutes()))
}
