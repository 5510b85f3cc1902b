package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/thirdeyevisualz/studio/pkg/logging"
)

const defaultAPITimeout = 15 * time.Second

// APIConfig configures the notifications API client.
type APIConfig struct {
	BaseURL string
	Path    string
	APIKey  string
	// DevFallback treats an unreachable API as a successful send.
	DevFallback bool
}

// APIError is a non-2xx answer from the notifications API.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notifications api returned %d: %s", e.Status, e.Detail)
}

// APIDispatcher posts notifications to the notifications API.
type APIDispatcher struct {
	httpClient  *http.Client
	endpoint    string
	apiKey      string
	devFallback bool
	logger      *logging.Logger
}

func NewAPIDispatcher(cfg APIConfig, logger *logging.Logger) *APIDispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	path := cfg.Path
	if path == "" {
		path = "/notifications/send"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return &APIDispatcher{
		httpClient:  &http.Client{Timeout: defaultAPITimeout},
		endpoint:    strings.TrimRight(cfg.BaseURL, "/") + path,
		apiKey:      cfg.APIKey,
		devFallback: cfg.DevFallback,
		logger:      logger,
	}
}

// WithHTTPClient swaps the transport.
func (d *APIDispatcher) WithHTTPClient(c *http.Client) *APIDispatcher {
	if c != nil {
		d.httpClient = c
	}
	return d
}

func (d *APIDispatcher) Dispatch(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: marshal notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", d.apiKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if d.devFallback && ctx.Err() == nil && isUnreachable(err) {
			d.logger.Warn("notifications api not available, development mode so treating as sent",
				"subject", n.Subject,
				"error", err,
			)
			return nil
		}
		return fmt.Errorf("notify: http request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: errorDetail(body)}
	}
	d.logger.Info("notification sent", "subject", n.Subject, "priority", n.Priority, "status", resp.StatusCode)
	return nil
}

// errorDetail reads {"detail": ...} from an error body.
func errorDetail(body []byte) string {
	var parsed struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "Unknown error"
	}
	switch v := parsed.Detail.(type) {
	case string:
		if v != "" {
			return v
		}
	case nil:
	default:
		if raw, err := json.Marshal(v); err == nil {
			return string(raw)
		}
	}
	return "Failed to send notification"
}

func isUnreachable(err error) bool {
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
