package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// RetryConfig defines retry behavior for LLM calls.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (0 = no retries).
	MaxRetries int `yaml:"max_retries"`
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration `yaml:"initial_delay"`
	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration `yaml:"max_delay"`
	// Multiplier is the factor by which the delay grows after each retry.
	Multiplier float64 `yaml:"multiplier"`
	// JitterFactor adds randomness to delays (0.0-1.0).
	JitterFactor float64 `yaml:"jitter_factor"`
}

// DefaultRetryConfig returns sensible defaults for LLM retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// IsRetryableError reports whether an error warrants a retry. Context
// cancellation is terminal; everything else is assumed transient.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// AskWithRetry invokes the provider with exponential backoff between
// attempts. The last error is wrapped as *InvocationError when all attempts
// are exhausted.
func AskWithRetry(ctx context.Context, p Provider, config RetryConfig, prompt string, systemMsgs ...string) (string, error) {
	delay := config.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return "", NewInvocationError(p.Name(), fmt.Errorf("context cancelled before attempt %d: %w", attempt+1, ctx.Err()))
		default:
		}

		rsp, err := p.Ask(ctx, prompt, systemMsgs...)
		if err == nil {
			return rsp, nil
		}
		lastErr = err

		if !IsRetryableError(err) || attempt == config.MaxRetries {
			break
		}

		wait := delay
		if config.JitterFactor > 0 {
			jitter := time.Duration(rand.Float64() * config.JitterFactor * float64(delay))
			wait += jitter
		}

		select {
		case <-ctx.Done():
			return "", NewInvocationError(p.Name(), ctx.Err())
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * config.Multiplier)
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	var invErr *InvocationError
	if errors.As(lastErr, &invErr) {
		return "", lastErr
	}
	return "", NewInvocationError(p.Name(), lastErr)
}
