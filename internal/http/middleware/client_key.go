package middleware

import (
	"net/http"
	"strings"

	"github.com/thirdeyevisualz/studio/internal/gate"
)

// DeviceHeader carries the site's per-browser id, when it sends one.
const DeviceHeader = "X-Device-Id"

// ClientKey scopes submission rate limits to the device id, else the client IP.
func ClientKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(DeviceHeader))
		if key == "" || len(key) > 128 {
			key = clientIP(r)
		}
		next.ServeHTTP(w, r.WithContext(gate.WithClientKey(r.Context(), key)))
	})
}
