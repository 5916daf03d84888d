// Package llm defines the narrow interface through which the orchestrator
// invokes an external language model, together with retry behavior for
// transient failures. OpenAIProvider is the production implementation;
// ScriptedProvider backs tests and dry runs. The orchestrator itself only
// depends on the Provider contract.
package llm

import (
	"context"
	"fmt"
)

// Provider is the external LLM call boundary. Implementations must be safe
// for the caller to retry: Ask carries no state between invocations.
type Provider interface {
	// Name identifies the provider for logs and error reporting.
	Name() string
	// Ask sends a prompt with optional system messages and returns the
	// completion text. Failures are reported as *InvocationError.
	Ask(ctx context.Context, prompt string, systemMsgs ...string) (string, error)
}

// InvocationError wraps a failed or timed-out model call.
type InvocationError struct {
	Provider string
	Err      error
}

// NewInvocationError creates an invocation error for the named provider.
func NewInvocationError(provider string, err error) *InvocationError {
	return &InvocationError{Provider: provider, Err: err}
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("llm invocation failed (provider %s): %v", e.Provider, e.Err)
}

// Unwrap returns the underlying cause.
func (e *InvocationError) Unwrap() error {
	return e.Err
}
