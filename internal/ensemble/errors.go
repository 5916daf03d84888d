package ensemble

import (
	"errors"
	"fmt"
	"strings"

	"github.com/modeval/modeval/internal/schema"
)

// Error codes for orchestrator failures.
const (
	ErrCodeDuplicateAgent       = "DUPLICATE_AGENT"
	ErrCodeSubscriptionMismatch = "SUBSCRIPTION_MISMATCH"
	ErrCodeNoAction             = "NO_ACTION"
)

// Error is an orchestrator-specific error with a stable code.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewDuplicateAgentError reports a second registration under an existing name.
func NewDuplicateAgentError(id schema.AgentID) *Error {
	return &Error{
		Code:    ErrCodeDuplicateAgent,
		Message: fmt.Sprintf("agent %q is already registered", id),
	}
}

// NewSubscriptionMismatchError reports a message addressed to an agent that
// is not in the environment roster, detected at publish time.
func NewSubscriptionMismatchError(from, to schema.AgentID) *Error {
	return &Error{
		Code:    ErrCodeSubscriptionMismatch,
		Message: fmt.Sprintf("message from %q addresses unregistered agent %q", from, to),
	}
}

func hasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsDuplicateAgent reports whether err is a duplicate registration failure.
func IsDuplicateAgent(err error) bool {
	return hasCode(err, ErrCodeDuplicateAgent)
}

// IsSubscriptionMismatch reports whether err is an unknown addressee failure.
func IsSubscriptionMismatch(err error) bool {
	return hasCode(err, ErrCodeSubscriptionMismatch)
}

// MultiError aggregates multiple errors into one.
type MultiError struct {
	Errors []error
}

// Add appends a non-nil error.
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors reports whether any error was collected.
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ErrorOrNil returns the aggregate as an error, or nil when empty.
func (m *MultiError) ErrorOrNil() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

func (m *MultiError) Error() string {
	msgs := make([]string, 0, len(m.Errors))
	for _, err := range m.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d errors occurred: %s", len(m.Errors), strings.Join(msgs, "; "))
}
