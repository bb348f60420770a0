// Package errors provides structured error types for cask.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for cask.
const (
	// CodeRequestInvalid means the caller supplied an unusable request,
	// detected before any I/O happens.
	CodeRequestInvalid Code = "REQUEST_INVALID"

	// CodeArchiveIntegrity means the container's manifest is missing,
	// unparsable, or lacks required items for a requested type.
	CodeArchiveIntegrity Code = "ARCHIVE_INTEGRITY"

	// CodeNotSupported means an object type was requested that has no
	// registered delegate.
	CodeNotSupported Code = "NOT_SUPPORTED"

	// CodeDelegateFailed wraps an opaque, type-specific delegate failure.
	CodeDelegateFailed Code = "DELEGATE_FAILED"

	// CodeContainerFailed means the pack or unpack step failed at the
	// compression layer.
	CodeContainerFailed Code = "CONTAINER_FAILED"
)

// CaskError is the structured error type for cask.
type CaskError struct {
	Code  Code   `json:"code"`
	What  string `json:"what"`
	Why   string `json:"why,omitempty"`
	Fix   string `json:"fix,omitempty"`
	Cause error  `json:"-"`
}

// Error implements the error interface.
func (e *CaskError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *CaskError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly message for CLI output.
func (e *CaskError) UserMessage() string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(e.Why)
	}
	if e.Fix != "" {
		b.WriteString("\n\nFix: ")
		b.WriteString(e.Fix)
	}
	return b.String()
}

// MarshalJSON implements json.Marshaler.
func (e *CaskError) MarshalJSON() ([]byte, error) {
	type alias CaskError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is a CaskError with the same code.
func (e *CaskError) Is(target error) bool {
	t, ok := target.(*CaskError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *CaskError) WithCause(err error) *CaskError {
	return &CaskError{
		Code:  e.Code,
		What:  e.What,
		Why:   e.Why,
		Fix:   e.Fix,
		Cause: err,
	}
}

// --- Error constructors ---

// ErrEmptyRequest returns an error for a request with no object types.
func ErrEmptyRequest() *CaskError {
	return &CaskError{
		Code: CodeRequestInvalid,
		What: "request has no object types",
		Why:  "At least one object type must be requested",
		Fix:  "Pass one or more object types, e.g. --objects log",
	}
}

// ErrDuplicateRequest returns an error for a request naming a type twice.
func ErrDuplicateRequest(objectType string) *CaskError {
	return &CaskError{
		Code: CodeRequestInvalid,
		What: fmt.Sprintf("object type %q requested more than once", objectType),
		Why:  "Each object type may appear at most once per request",
		Fix:  "Remove the duplicate entry from the object list",
	}
}

// ErrDuplicateReport returns an error for a delegate reporting a type twice.
func ErrDuplicateReport(objectType string) *CaskError {
	return &CaskError{
		Code: CodeDelegateFailed,
		What: fmt.Sprintf("object type %q reported more than once", objectType),
		Why:  "A delegate produced a duplicate result for a type already joined",
		Fix:  "This is a delegate bug; check the registered delegate for this type",
	}
}

// ErrInvalidManifest returns an error for an unparsable or malformed manifest.
func ErrInvalidManifest(why string) *CaskError {
	return &CaskError{
		Code: CodeArchiveIntegrity,
		What: "invalid manifest",
		Why:  why,
		Fix:  "The container is corrupt or was not produced by cask export",
	}
}

// ErrNothingToImport returns an error when a requested type has no manifest items.
func ErrNothingToImport(objectType string) *CaskError {
	return &CaskError{
		Code: CodeArchiveIntegrity,
		What: fmt.Sprintf("nothing to import for type %q", objectType),
		Why:  "The container's manifest has no items matching this object type",
		Fix:  "Inspect the container with 'cask inspect' to see what it holds",
	}
}

// ErrNotSupported returns an error when an object type has no delegate.
func ErrNotSupported(objectType string) *CaskError {
	return &CaskError{
		Code: CodeNotSupported,
		What: fmt.Sprintf("object type %q is not supported", objectType),
		Why:  "No delegate is registered for this object type",
		Fix:  "Remove the type from the request, or register a delegate for it",
	}
}

// ErrDelegateFailed wraps an opaque failure from an object delegate.
func ErrDelegateFailed(objectType string, cause error) *CaskError {
	return &CaskError{
		Code:  CodeDelegateFailed,
		What:  fmt.Sprintf("delegate for type %q failed", objectType),
		Cause: cause,
	}
}

// ErrContainerFailed wraps a pack or unpack failure.
func ErrContainerFailed(op string, cause error) *CaskError {
	return &CaskError{
		Code:  CodeContainerFailed,
		What:  fmt.Sprintf("container %s failed", op),
		Cause: cause,
	}
}

// AsCaskError attempts to convert an error to a CaskError.
// Returns nil if the error is not a CaskError.
func AsCaskError(err error) *CaskError {
	var caskErr *CaskError
	if As(err, &caskErr) {
		return caskErr
	}
	return nil
}

// As is a convenience wrapper for errors.As.
func As(err error, target any) bool {
	return asError(err, target)
}

// asError implements errors.As behavior.
func asError(err error, target any) bool {
	if err == nil {
		return false
	}
	if caskErr, ok := err.(*CaskError); ok {
		if t, ok := target.(**CaskError); ok {
			*t = caskErr
			return true
		}
	}
	if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
		return asError(unwrapper.Unwrap(), target)
	}
	return false
}

// Wrap wraps a generic error into a CaskError with unknown code.
func Wrap(err error, what string) *CaskError {
	return &CaskError{
		Code:  Code("UNKNOWN"),
		What:  what,
		Cause: err,
	}
}
