package analyses

import (
	"context"
	"errors"
	"fmt"

	"legaldocs-backend/internal/llm"
)

const (
	ErrorCodeValidation        = "VALIDATION_ERROR"
	ErrorCodeLLMTimeout        = "LLM_TIMEOUT"
	ErrorCodeLLMAuth           = "LLM_AUTH"
	ErrorCodeLLMUnavailable    = "LLM_UNAVAILABLE"
	ErrorCodeLLMRejected       = "LLM_REJECTED"
	ErrorCodeLLMNotConfigured  = "LLM_NOT_CONFIGURED"
	ErrorCodeLLMSchemaMismatch = "LLM_SCHEMA_MISMATCH"
	ErrorCodeCanceled          = "REQUEST_CANCELED"
)

var (
	ErrEmptyText      = errors.New("document has no text to analyze")
	ErrSchemaMismatch = errors.New("model response did not contain a summary or key points")
)

// Error is returned when an analysis run fails. Raw holds whatever the model
// returned, if anything.
type Error struct {
	Code string
	Raw  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "analysis failed: " + e.Code
	}
	return fmt.Sprintf("analysis failed: %s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Timeout reports whether the run failed because the model did not answer in time.
func (e *Error) Timeout() bool {
	return e.Code == ErrorCodeLLMTimeout
}

func codeForLLMError(err error) string {
	switch {
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorCodeLLMTimeout
	case errors.Is(err, context.Canceled):
		return ErrorCodeCanceled
	case errors.Is(err, llm.ErrNotConfigured):
		return ErrorCodeLLMNotConfigured
	case errors.Is(err, llm.ErrUnauthorized):
		return ErrorCodeLLMAuth
	case errors.Is(err, llm.ErrRejected):
		return ErrorCodeLLMRejected
	case errors.Is(err, llm.ErrBadResponse):
		return ErrorCodeLLMSchemaMismatch
	default:
		return ErrorCodeLLMUnavailable
	}
}
