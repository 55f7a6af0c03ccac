package measure

import (
	"errors"
	"fmt"
)

// HookError represents a failure detected inside the capture hooks.
//
// Hook errors never abort the host pipeline. Callers decide whether to log
// and continue (unmatched post) or hand the error to their own error
// handling (invalid UTF-8).
type HookError struct {
	// Code identifies the error category.
	Code HookErrorCode

	// Message is a human-readable description.
	Message string

	// Identity is the compile unit identity, if known.
	Identity string

	// Instance is the invocation token, if known.
	Instance string
}

// HookErrorCode categorizes hook errors.
type HookErrorCode string

const (
	// ErrCodeUnmatchedPost indicates a post capture with no pending pre capture.
	ErrCodeUnmatchedPost HookErrorCode = "UNMATCHED_POST"

	// ErrCodeInvalidUTF8 indicates source or output text that is not valid UTF-8.
	ErrCodeInvalidUTF8 HookErrorCode = "INVALID_UTF8"
)

// Error implements the error interface.
func (e *HookError) Error() string {
	if e.Identity != "" && e.Instance != "" {
		return fmt.Sprintf("%s: %s (unit=%s, instance=%s)", e.Code, e.Message, e.Identity, e.Instance)
	}
	if e.Identity != "" {
		return fmt.Sprintf("%s: %s (unit=%s)", e.Code, e.Message, e.Identity)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnmatchedPost reports whether err is an unmatched post error.
func IsUnmatchedPost(err error) bool {
	return hasCode(err, ErrCodeUnmatchedPost)
}

// IsInvalidUTF8 reports whether err is an invalid UTF-8 error.
func IsInvalidUTF8(err error) bool {
	return hasCode(err, ErrCodeInvalidUTF8)
}

func hasCode(err error, code HookErrorCode) bool {
	var he *HookError
	if errors.As(err, &he) {
		return he.Code == code
	}
	return false
}

// NewUnmatchedPostError creates a HookError for a post with no pending pre.
func NewUnmatchedPostError(key Key) *HookError {
	return &HookError{
		Code:     ErrCodeUnmatchedPost,
		Message:  "no pending pre capture for compile unit",
		Identity: key.Identity,
		Instance: key.Instance,
	}
}

// NewInvalidUTF8Error creates a HookError for undecodable text.
// stage is "source" or "output".
func NewInvalidUTF8Error(stage, identity string) *HookError {
	return &HookError{
		Code:     ErrCodeInvalidUTF8,
		Message:  fmt.Sprintf("%s text is not valid UTF-8", stage),
		Identity: identity,
	}
}
