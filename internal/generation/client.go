package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/program-engine/internal/domain"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// ModelCompleter is the minimal boundary to the generative model: one prompt
// in, one raw best-effort payload out. The production implementation is
// OpenAI-backed (see openai.go); tests substitute fakes.
type ModelCompleter interface {
	Complete(ctx context.Context, prompt string) ([]byte, error)
}

// ErrModelAuth marks authentication/configuration failures at the model
// boundary. Implementations must wrap credential and endpoint problems in it;
// the client never retries them.
var ErrModelAuth = errors.New("model authentication or configuration failure")

// CandidateObserver receives every raw attempt payload, valid or not.
// Used to archive responses for offline schema-violation debugging.
type CandidateObserver func(attemptID string, raw []byte)

// Client calls the generative model and coerces its output into a validated
// Candidate, retrying per policy.
type Client struct {
	completer ModelCompleter
	observer  CandidateObserver

	// Retry policy: maxAttempts total calls, delays starting at
	// initialDelay and doubling, no jitter.
	maxAttempts  int
	initialDelay time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRetryPolicy overrides attempt count and initial delay. Tests use
// millisecond delays; production keeps the defaults.
func WithRetryPolicy(maxAttempts int, initialDelay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.initialDelay = initialDelay
	}
}

// WithCandidateObserver registers a raw-payload observer.
func WithCandidateObserver(obs CandidateObserver) ClientOption {
	return func(c *Client) {
		c.observer = obs
	}
}

// NewClient builds a generation client with the default policy: 3 attempts
// total, delays 1s then 2s.
func NewClient(completer ModelCompleter, opts ...ClientOption) *Client {
	c := &Client{
		completer:    completer,
		maxAttempts:  3,
		initialDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate runs the compiled request against the model. Transport failures,
// timeouts and schema violations are retried up to the policy; auth and
// configuration failures abort immediately. Exhausting all attempts surfaces
// a generation error carrying the last cause.
func (c *Client) Generate(ctx context.Context, spec *RequestSpec) (*Candidate, error) {
	prompt := buildPrompt(spec)

	// BackOff values are stateful; build a fresh one per call.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0 // attempt count is the only stop condition

	var candidate *Candidate
	attempt := func() error {
		attemptID := uuid.NewString()

		raw, err := c.completer.Complete(ctx, prompt)
		if err != nil {
			if errors.Is(err, ErrModelAuth) {
				return backoff.Permanent(domain.NewConfigurationError("model credentials rejected", err))
			}
			// Transport failure or timeout: retryable. A context deadline on
			// the model call is the pipeline's only cancellation signal and
			// maps to a generation error like any other attempt failure.
			return fmt.Errorf("model call failed: %w", err)
		}
		if c.observer != nil {
			c.observer(attemptID, raw)
		}

		parsed, err := ParseCandidate(raw)
		if err != nil {
			var sv *schemaViolationError
			if errors.As(err, &sv) {
				// The model may comply on a fresh attempt.
				return err
			}
			return backoff.Permanent(err)
		}
		candidate = parsed
		return nil
	}

	err := backoff.Retry(attempt, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(c.maxAttempts-1)), ctx))
	if err != nil {
		var pe *domain.PipelineError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, domain.NewGenerationError(
			fmt.Sprintf("model failed to produce a schema-conforming program after %d attempts", c.maxAttempts), err)
	}
	return candidate, nil
}

func buildPrompt(spec *RequestSpec) string {
	return spec.OwnerContext +
		"\n\nReturn ONLY a JSON object conforming exactly to this schema, with no prose around it:\n" +
		spec.TargetSchema
}
