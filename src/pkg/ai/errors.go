package ai

import (
	"errors"
)

// Failure results of Expand and Chat.
var (
	ErrTitleRequired    = errors.New("node title is required")
	ErrMessageRequired  = errors.New("user message is required")
	ErrUnavailable      = errors.New("AI chat is not available in local mode")
	ErrGenerationFailed = errors.New("failed to generate expansion")
	ErrMalformedOutput  = errors.New("failed to parse AI response after retry")
	ErrInvalidStructure = errors.New("invalid response structure from AI")
	ErrNoValidNodes     = errors.New("no valid nodes generated")
	ErrChatFailed       = errors.New("failed to get AI response")
)

var userMessages = map[error]string{
	ErrTitleRequired:    "Node title is required",
	ErrMessageRequired:  "User message is required",
	ErrUnavailable:      "AI chat is not available in local mode",
	ErrGenerationFailed: "Failed to generate expansion",
	ErrMalformedOutput:  "Failed to parse AI response after retry",
	ErrInvalidStructure: "Invalid response structure from AI",
	ErrNoValidNodes:     "No valid nodes generated",
	ErrChatFailed:       "Failed to get AI response",
}

// UserMessage returns the human-readable reason for a failure.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for sentinel, msg := range userMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return "Internal server error"
}

// TransientError represents a temporary error that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as transient (retryable).
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError represents a permanent error that should not be retried.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

// NewFatalError wraps an error as fatal (non-retryable).
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient returns true if the error is transient and should be retried.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal returns true if the error is fatal and should not be retried.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// ErrorCode maps a failure to a stable code for API responses.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTitleRequired):
		return "title_required"
	case errors.Is(err, ErrMessageRequired):
		return "message_required"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrMalformedOutput):
		return "malformed_output"
	case errors.Is(err, ErrInvalidStructure):
		return "invalid_structure"
	case errors.Is(err, ErrNoValidNodes):
		return "no_valid_nodes"
	case errors.Is(err, ErrGenerationFailed):
		return "generation_failed"
	case errors.Is(err, ErrChatFailed):
		return "chat_failed"
	default:
		return "internal"
	}
}
