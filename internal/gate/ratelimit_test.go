package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thirdeyevisualz/studio/internal/clock"
	"github.com/thirdeyevisualz/studio/pkg/logging"
)

var start = time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)

func newTestLimiter(t *testing.T) (*RateLimiter, *clock.Fake, *MemoryStore) {
	t.Helper()
	clk := clock.NewFake(start)
	store := NewMemoryStore()
	return NewRateLimiter(store, clk, DefaultConfig(), logging.Discard()), clk, store
}

func TestRecord_PruneIsIdempotent(t *testing.T) {
	rec := Record{
		start.Add(-2 * time.Hour),
		start.Add(-30 * time.Minute),
		start.Add(-time.Hour),
		start.Add(-5 * time.Minute),
	}
	once := rec.Prune(start, time.Hour)
	twice := once.Prune(start, time.Hour)

	assert.Equal(t, once, twice)
	require.Len(t, once, 2)
	assert.True(t, once[0].Before(once[1]))
}

func TestRateLimiter_FourthWithinHourBlocked(t *testing.T) {
	ctx := context.Background()
	l, clk, _ := newTestLimiter(t)

	for i := 0; i < 3; i++ {
		d := l.Check(ctx, "contact_form", "")
		require.True(t, d.Allowed, "attempt %d", i+1)
		require.NoError(t, l.Record(ctx, "contact_form", ""))
		clk.Advance(10 * time.Minute)
	}

	d := l.Check(ctx, "contact_form", "")
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonRateLimit, d.Reason)
	// Oldest was 30 minutes ago.
	assert.Equal(t, 30*time.Minute, d.RetryAfter)
	assert.Equal(t, "Too many submissions. Please wait 30 minute(s) before trying again.", d.Message)

	clk.Set(start.Add(time.Hour + time.Second))
	d = l.Check(ctx, "contact_form", "")
	assert.True(t, d.Allowed)
}

func TestRateLimiter_Cooldown(t *testing.T) {
	ctx := context.Background()
	l, clk, _ := newTestLimiter(t)

	require.NoError(t, l.Record(ctx, "booking_form", ""))
	clk.Advance(2 * time.Minute)

	d := l.Check(ctx, "booking_form", "")
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonRateLimit, d.Reason)
	assert.Equal(t, 3*time.Minute, d.RetryAfter)
	assert.Equal(t, "Please wait 3 minute(s) before submitting again.", d.Message)

	clk.Advance(30 * time.Second)
	d = l.Check(ctx, "booking_form", "")
	assert.Equal(t, "Please wait 3 minute(s) before submitting again.", d.Message, "rounds up")

	clk.Advance(150 * time.Second)
	assert.True(t, l.Check(ctx, "booking_form", "").Allowed)
}

func TestRateLimiter_ScopesByActionAndClient(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLimiter(t)

	require.NoError(t, l.Record(ctx, "contact_form", "device-a"))

	assert.False(t, l.Check(ctx, "contact_form", "device-a").Allowed)
	assert.True(t, l.Check(ctx, "contact_form", "device-b").Allowed)
	assert.True(t, l.Check(ctx, "booking_form", "device-a").Allowed)
	assert.Equal(t, "3rdEyeVisualz_ratelimit_contact_form:device-a", l.Key("contact_form", "device-a"))
	assert.Equal(t, "3rdEyeVisualz_ratelimit_contact_form", l.Key("contact_form", ""))
}

func TestRateLimiter_RecordThenHistory(t *testing.T) {
	ctx := context.Background()
	l, clk, store := newTestLimiter(t)

	require.NoError(t, l.Record(ctx, "contact_form", ""))
	hist, err := l.History(ctx, "contact_form", "")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.True(t, hist[0].Equal(start))

	raw, ok, _ := store.Get(ctx, "3rdEyeVisualz_ratelimit_contact_form")
	require.True(t, ok)
	assert.JSONEq(t, `[1710493200000]`, raw)

	clk.Advance(2 * time.Hour)
	require.NoError(t, l.Record(ctx, "contact_form", ""))
	hist, err = l.History(ctx, "contact_form", "")
	require.NoError(t, err)
	assert.Len(t, hist, 1, "old entry pruned on record")
}

func TestRateLimiter_Clear(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLimiter(t)

	require.NoError(t, l.Record(ctx, "contact_form", ""))
	require.False(t, l.Check(ctx, "contact_form", "").Allowed)
	require.NoError(t, l.Clear(ctx, "contact_form", ""))
	assert.True(t, l.Check(ctx, "contact_form", "").Allowed)
}

func TestRateLimiter_CorruptRecordIsEmpty(t *testing.T) {
	ctx := context.Background()
	l, _, store := newTestLimiter(t)
	require.NoError(t, store.Set(ctx, l.Key("contact_form", ""), "not json"))

	assert.True(t, l.Check(ctx, "contact_form", "").Allowed)
	require.NoError(t, l.Record(ctx, "contact_form", ""))
	hist, err := l.History(ctx, "contact_form", "")
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("store offline")
}
func (brokenStore) Set(context.Context, string, string) error { return errors.New("store offline") }
func (brokenStore) Remove(context.Context, string) error      { return errors.New("store offline") }

func TestRateLimiter_StoreFailureFailsOpen(t *testing.T) {
	ctx := context.Background()
	l := NewRateLimiter(brokenStore{}, clock.NewFake(start), DefaultConfig(), logging.Discard())

	assert.True(t, l.Check(ctx, "contact_form", "").Allowed)
	assert.Error(t, l.Record(ctx, "contact_form", ""))
	assert.Error(t, l.Clear(ctx, "contact_form", ""))
}

func TestConfig_Defaults(t *testing.T) {
	l := NewRateLimiter(nil, nil, Config{}, nil)
	cfg := l.Config()
	assert.Equal(t, 3, cfg.MaxPerHour)
	assert.Equal(t, time.Hour, cfg.Window)
	assert.Equal(t, "3rdEyeVisualz_ratelimit_", cfg.KeyPrefix)
}
