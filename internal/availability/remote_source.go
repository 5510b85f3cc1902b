package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/thirdeyevisualz/studio/pkg/logging"
)

const defaultRemoteTimeout = 10 * time.Second

// RemoteSource fetches availability from a scheduling backend over HTTP.
type RemoteSource struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
}

func NewRemoteSource(baseURL string, logger *logging.Logger) *RemoteSource {
	if logger == nil {
		logger = logging.Default()
	}
	return &RemoteSource{
		httpClient: &http.Client{Timeout: defaultRemoteTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (r *RemoteSource) WithHTTPClient(c *http.Client) *RemoteSource {
	if c != nil {
		r.httpClient = c
	}
	return r
}

func (r *RemoteSource) Snapshot(ctx context.Context) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "availability.remote_snapshot")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/availability", nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("availability: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return Snapshot{}, fmt.Errorf("availability: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("availability: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return Snapshot{}, fmt.Errorf("availability: remote returned %d: %s", resp.StatusCode, msg)
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("availability: decode response: %w", err)
	}
	r.logger.Debug("fetched remote availability",
		"dates", len(doc.UnavailableDates),
		"slot_days", len(doc.UnavailableSlots),
	)
	return doc.Snapshot(), nil
}
