package errx

import (
	"errors"
	"fmt"
)

// FailureCode classifies a collaborator failure so the workflow can decide
// between retry, graceful degradation and a user-facing apology.
type FailureCode string

const (
	// CodeTimeout marks a tool call that exceeded its deadline.
	CodeTimeout FailureCode = "timeout"
	// CodeNotFound marks a lookup for something the provider does not know.
	CodeNotFound FailureCode = "not_found"
	// CodeProviderError marks a hard provider-side failure.
	CodeProviderError FailureCode = "provider_error"
	// CodeIndexUnavailable marks an unreachable or missing vector index.
	CodeIndexUnavailable FailureCode = "index_unavailable"
	// CodeNoMatch marks a retrieval that produced no usable passages.
	// It is degraded input, not a hard failure.
	CodeNoMatch FailureCode = "no_match"
	// CodeComposer marks a failed answer-generation call.
	CodeComposer FailureCode = "composer_failure"
)

// ToolError carries the failure classification for a named collaborator.
type ToolError struct {
	Tool string
	Code FailureCode
	Err  error
}

func (e *ToolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Tool, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Tool, e.Code, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// NewToolError builds a classified failure for the given collaborator.
func NewToolError(tool string, code FailureCode, err error) *ToolError {
	return &ToolError{Tool: tool, Code: code, Err: err}
}

// CodeOf extracts the failure code from an error chain. The second return
// value is false when the chain carries no ToolError.
func CodeOf(err error) (FailureCode, bool) {
	var te *ToolError
	if errors.As(err, &te) {
		return te.Code, true
	}
	return "", false
}

// IsCode reports whether the error chain carries the given failure code.
func IsCode(err error, code FailureCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
