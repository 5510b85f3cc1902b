// Package gate decides whether a form submission may be dispatched: a honeypot
// check, a per-action rate limit and an optional challenge token, in that order.
package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/thirdeyevisualz/studio/pkg/logging"
)

var tracer = otel.Tracer("studio.internal.gate")

// Reason explains a refusal.
type Reason string

const (
	ReasonNone      Reason = "none"
	ReasonSecurity  Reason = "security"
	ReasonRateLimit Reason = "rate_limit"
)

// SecurityMessage is shown when the honeypot trips.
const SecurityMessage = "Security check failed. Please try again."

// ErrSecurityRejection marks a submission stopped by the honeypot.
var ErrSecurityRejection = errors.New("gate: security check failed")

// RateLimitError carries how long the client should wait.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Allowed    bool
	Reason     Reason
	RetryAfter time.Duration
	Message    string
	// Token is the challenge token, empty when disabled or unavailable.
	Token string
}

// Err converts a refusal into ErrSecurityRejection or *RateLimitError.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonSecurity:
		return ErrSecurityRejection
	case d.Reason == ReasonRateLimit:
		return &RateLimitError{RetryAfter: d.RetryAfter, Message: d.Message}
	default:
		return fmt.Errorf("gate: refused: %s", d.Message)
	}
}

type clientKeyCtx struct{}

// WithClientKey scopes rate limiting in ctx to one client (device id or address).
func WithClientKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, clientKeyCtx{}, key)
}

// ClientKeyFrom returns the client key set by WithClientKey.
func ClientKeyFrom(ctx context.Context) string {
	v, _ := ctx.Value(clientKeyCtx{}).(string)
	return v
}

// Gate runs the submission checks.
type Gate struct {
	limiter       *RateLimiter
	tokens        TokenProvider
	tokensEnabled bool
	logger        *logging.Logger
}

// New builds a gate. tokens is consulted only when tokensEnabled is set.
func New(limiter *RateLimiter, tokens TokenProvider, tokensEnabled bool, logger *logging.Logger) *Gate {
	if logger == nil {
		logger = logging.Default()
	}
	if limiter == nil {
		limiter = NewRateLimiter(nil, nil, DefaultConfig(), logger)
	}
	if tokens == nil {
		tokens = DisabledProvider{}
	}
	return &Gate{limiter: limiter, tokens: tokens, tokensEnabled: tokensEnabled, logger: logger}
}

// Limiter exposes the underlying rate limiter.
func (g *Gate) Limiter() *RateLimiter {
	return g.limiter
}

// Evaluate runs honeypot, rate limit and token checks, stopping at the first refusal.
// Nothing is recorded. If ctx ends while waiting for a token the attempt is dropped
// and ctx.Err() returned.
func (g *Gate) Evaluate(ctx context.Context, form Form, action string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	ctx, span := tracer.Start(ctx, "gate.evaluate")
	defer span.End()
	span.SetAttributes(attribute.String("gate.action", action))

	if !CheckHoneypot(form) {
		g.logger.Warn("honeypot tripped", "action", action)
		span.SetAttributes(attribute.String("gate.reason", string(ReasonSecurity)))
		return Decision{Reason: ReasonSecurity, Message: SecurityMessage}, nil
	}

	client := ClientKeyFrom(ctx)
	if d := g.limiter.Check(ctx, action, client); !d.Allowed {
		g.logger.Info("submission rate limited",
			"action", action,
			"retry_after_seconds", int(d.RetryAfter.Seconds()),
		)
		span.SetAttributes(attribute.String("gate.reason", string(ReasonRateLimit)))
		return d, nil
	}

	decision := Decision{Allowed: true, Reason: ReasonNone}
	if !g.tokensEnabled {
		return decision, nil
	}

	token, err := g.tokens.AcquireToken(ctx, action)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Decision{}, ctxErr
	}
	if err != nil {
		g.logger.Warn("challenge token unavailable, continuing without it", "action", action, "error", err)
		span.RecordError(err)
		return decision, nil
	}
	decision.Token = token
	return decision, nil
}

// RecordSubmission counts a dispatched submission against the action's limit.
// Call it only after dispatch succeeds.
func (g *Gate) RecordSubmission(ctx context.Context, action string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.limiter.Record(ctx, action, ClientKeyFrom(ctx)); err != nil {
		g.logger.Error("failed to record submission", "action", action, "error", err)
		return err
	}
	return nil
}
