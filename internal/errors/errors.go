package errors

import (
	"errors"
	"fmt"
)

// Error code constants for every failure kind the pipeline can report.
const (
	CodeConfiguration = "CONFIGURATION"
	CodeEnvironment   = "ENVIRONMENT"
	CodeNotFound      = "NOT_FOUND"
	CodeTransfer      = "TRANSFER"
	CodeArchive       = "ARCHIVE"
	CodeBusy          = "BUSY"
	CodeInternal      = "INTERNAL"
)

// Error represents a gitdl error with a code and message.
// Message is safe to show to a remote caller: it never carries filesystem
// paths. Details that do (the wrapped cause) stay in the wrapped error.
type Error struct {
	wrapped error
	Code    string
	Message string
}

// Error returns the error message, implementing the error interface.
func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error, supporting errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.wrapped
}

// New creates a new gitdl error with the given code and message.
func New(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new gitdl error that wraps an underlying error.
func Wrap(code string, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		wrapped: err,
	}
}

// Code extracts the error code from an error.
// Returns an empty string if the error is not a gitdl error.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var gitdlErr *Error
	if errors.As(err, &gitdlErr) {
		return gitdlErr.Code
	}
	return ""
}

// Is checks if an error has a specific error code.
func Is(err error, code string) bool {
	return Code(err) == code
}

// Message returns the caller-facing message of a gitdl error.
// Errors that are not gitdl errors yield a generic message so that
// internal details never reach a remote client.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var gitdlErr *Error
	if errors.As(err, &gitdlErr) {
		return gitdlErr.Message
	}
	return "internal error"
}

// Convenience constructors for each error code

// InvalidReference creates a CONFIGURATION error for a rejected project reference.
func InvalidReference(reason string) *Error {
	return New(CodeConfiguration, fmt.Sprintf("invalid project reference: %s", reason))
}

// EnvironmentRestricted creates an ENVIRONMENT error wrapping the host failure.
func EnvironmentRestricted(capability string, err error) *Error {
	return Wrap(CodeEnvironment, fmt.Sprintf("host environment does not allow %s", capability), err)
}

// ProjectNotFound creates a NOT_FOUND error. cause may be nil.
func ProjectNotFound(project string, cause error) *Error {
	return Wrap(CodeNotFound, fmt.Sprintf("project %q not found upstream", project), cause)
}

// TransferFailed creates a TRANSFER error wrapping the underlying cause.
func TransferFailed(project string, err error) *Error {
	return Wrap(CodeTransfer, fmt.Sprintf("transfer of project %q failed", project), err)
}

// ArchiveInvalid creates an ARCHIVE error wrapping the underlying cause.
func ArchiveInvalid(reason string, err error) *Error {
	return Wrap(CodeArchive, reason, err)
}

// LayoutMismatch creates an ARCHIVE error for an archive whose top-level
// folder is not the one expected for the project.
func LayoutMismatch(project, expected string) *Error {
	return New(CodeArchive, fmt.Sprintf("archive for project %q has no top-level folder %q", project, expected))
}

// Busy creates a BUSY error.
func Busy(project string) *Error {
	return New(CodeBusy, fmt.Sprintf("project %q is being fetched by another request, retry later", project))
}

// Internal creates an INTERNAL error for broken invariants.
func Internal(reason string, err error) *Error {
	return Wrap(CodeInternal, reason, err)
}
