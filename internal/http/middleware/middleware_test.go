package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thirdeyevisualz/studio/internal/gate"
	"github.com/thirdeyevisualz/studio/pkg/logging"
)

func TestRateLimitPerIP(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	fixed := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	h := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/contact", nil)
		req.Header.Set("X-Real-Ip", ip)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("203.0.113.9"))
	assert.Equal(t, http.StatusOK, call("203.0.113.9"))
	assert.Equal(t, http.StatusTooManyRequests, call("203.0.113.9"))
	assert.Equal(t, http.StatusOK, call("198.51.100.4"))

	fixed = fixed.Add(time.Second)
	assert.Equal(t, http.StatusOK, call("203.0.113.9"))
}

func TestRateLimiterEvict(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	fixed := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }
	limiter.Allow("a")
	fixed = fixed.Add(11 * time.Minute)
	limiter.Allow("b")

	assert.Equal(t, 1, limiter.Evict(10*time.Minute))
}

func TestClientKey(t *testing.T) {
	var got string
	h := ClientKey(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = gate.ClientKeyFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "203.0.113.9", got)

	req.Header.Set(DeviceHeader, "device-42")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "device-42", got)
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info")

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/booking", nil))

	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), `"status":429`)
	assert.Contains(t, buf.String(), `"path":"/booking"`)
}
