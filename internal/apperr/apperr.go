// Package apperr defines the structured error type and the stable error
// codes surfaced by the extraction core. Translation of codes into
// user-facing prose is the caller's job; the core only ever reports the
// code plus contextual details.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Stable error codes. Keep these in sync with tests and API clients.
const (
	DestBlocked       = "DEST_BLOCKED"
	BadSpec           = "BAD_SPEC"
	SourceReadFailed  = "SOURCE_READ_FAILED"
	SheetNotFound     = "SHEET_NOT_FOUND"
	InvalidRule       = "INVALID_RULE"
	FileLocked        = "FILE_LOCKED"
	SaveFailed        = "SAVE_FAILED"
	MissingDestPath   = "MISSING_DEST_PATH"
	MissingSourcePath = "MISSING_SOURCE_PATH"
)

// Error is a user-facing failure with a short code and structured details.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return e.Code + ": " + e.Message
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Details[k]))
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, " "))
}

// New builds an Error with no details.
func New(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// With attaches a detail and returns the same error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// CodeOf extracts the code from err, or "" if err is not an *Error.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// As unwraps err into an *Error, or nil.
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
