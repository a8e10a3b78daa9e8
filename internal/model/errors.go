package model

import (
	"fmt"
	"strings"
)

// ValidationError carries every problem found in one input.
type ValidationError struct {
	Subject  string // e.g. "invoice data", "freelancer config"
	Messages []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid %s:", e.Subject)
	for _, m := range e.Messages {
		b.WriteString("\n  - ")
		b.WriteString(m)
	}
	return b.String()
}

// NewValidationError creates a new validation error
func NewValidationError(subject string, messages []string) *ValidationError {
	return &ValidationError{Subject: subject, Messages: messages}
}

// CounterStateError reports a missing or corrupt counter state file.
// The state is never repaired automatically.
type CounterStateError struct {
	Path   string
	Reason string
	Err    error
}

func (e *CounterStateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("counter state %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("counter state %s: %s", e.Path, e.Reason)
}

func (e *CounterStateError) Unwrap() error {
	return e.Err
}

// NewCounterStateError creates a new counter state error
func NewCounterStateError(path, reason string, cause error) *CounterStateError {
	return &CounterStateError{Path: path, Reason: reason, Err: cause}
}

// RenderError reports a renderer failure or timeout.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed [%s]: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// NewRenderError creates a new render error
func NewRenderError(op string, cause error) *RenderError {
	return &RenderError{Op: op, Err: cause}
}

// InputError reports an input file that is missing, unreadable or not JSON.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}
