package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrTokenDisabled is returned by providers when the challenge is switched off.
var ErrTokenDisabled = errors.New("gate: challenge token disabled")

// TokenProvider fetches a proof-of-humanity token for an action.
type TokenProvider interface {
	AcquireToken(ctx context.Context, action string) (string, error)
}

// DisabledProvider never issues tokens.
type DisabledProvider struct{}

func (DisabledProvider) AcquireToken(context.Context, string) (string, error) {
	return "", ErrTokenDisabled
}

// ChallengeClient asks a challenge service for a token scoped to an action.
type ChallengeClient struct {
	httpClient *http.Client
	endpoint   string
	siteKey    string
}

func NewChallengeClient(endpoint, siteKey string, timeout time.Duration) *ChallengeClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ChallengeClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimSpace(endpoint),
		siteKey:    siteKey,
	}
}

type challengeRequest struct {
	SiteKey string `json:"site_key"`
	Action  string `json:"action"`
}

type challengeResponse struct {
	Token string `json:"token"`
}

func (c *ChallengeClient) AcquireToken(ctx context.Context, action string) (string, error) {
	if c.endpoint == "" || c.siteKey == "" {
		return "", ErrTokenDisabled
	}
	payload, err := json.Marshal(challengeRequest{SiteKey: c.siteKey, Action: action})
	if err != nil {
		return "", fmt.Errorf("gate: marshal challenge request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gate: build challenge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gate: challenge request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("gate: read challenge response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return "", fmt.Errorf("gate: challenge returned %d: %s", resp.StatusCode, msg)
	}
	var out challengeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("gate: decode challenge response: %w", err)
	}
	if out.Token == "" {
		return "", errors.New("gate: challenge returned empty token")
	}
	return out.Token, nil
}
