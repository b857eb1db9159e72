// Package errors provides typed error handling for gitdl operations.
//
// Every pipeline failure carries one of the codes below, which the HTTP,
// CLI and MCP surfaces map to status codes, exit codes and error payloads.
//
// Example usage:
//
//	// Creating errors
//	err := errors.ProjectNotFound("gitdl", nil)
//	err := errors.InvalidReference("reference is empty")
//
//	// Wrapping errors
//	err := errors.TransferFailed("gitdl", ioErr)
//
//	// Checking error codes
//	if errors.Is(err, errors.CodeNotFound) {
//	    // handle missing upstream project
//	}
//
//	// Caller-facing text (never contains filesystem paths)
//	msg := errors.Message(err)
//
//	// Stdlib compatibility
//	var gitdlErr *errors.Error
//	if errors.As(err, &gitdlErr) {
//	    fmt.Println(gitdlErr.Code, gitdlErr.Message)
//	}
package errors
