// Package referrors provides structured error types for the resolver.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to distinguish between a malformed reference,
// a pointer that does not match the target document, an unreadable file, and
// a file set that never converges.
//
// # Error Categories
//
//   - InvalidReferenceError: reference string has no recognised shape
//   - KeyNotFoundError: a pointer segment is absent from the target
//   - IndexOutOfRangeError: a list index exceeds the target sequence
//   - TypeMismatchError: expected a map or a list and found something else
//   - FileError: a document could not be read or parsed
//   - ConvergenceError: the fixpoint stopped making progress
//   - RootKeyNotFoundError: the schema root key is absent from a document
//   - ConfigError: invalid configuration or input options
//
// # Usage with errors.As
//
//	res, err := r.Run(ctx, paths)
//	if err != nil {
//	    var convErr *referrors.ConvergenceError
//	    if errors.As(err, &convErr) {
//	        for _, path := range convErr.Unresolved {
//	            // report stuck file
//	        }
//	    }
//	}
package referrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrInvalidReference indicates a reference string could not be classified or parsed.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrNotString indicates a $ref value that is not textual.
	ErrNotString = errors.New("reference is not a string")

	// ErrKeyNotFound indicates a pointer segment was absent during traversal.
	ErrKeyNotFound = errors.New("key not found")

	// ErrIndexOutOfRange indicates a list index outside the target sequence.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrTypeMismatch indicates the traversed value had the wrong container type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrTypeNotList indicates a list or enum index was applied to a non-sequence.
	ErrTypeNotList = errors.New("type is not a list")

	// ErrFileNotFound indicates a referenced or scheduled file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrParse indicates a file is not valid structured data.
	ErrParse = errors.New("parse error")

	// ErrNoProgress indicates a fixpoint pass finished without resolving anything.
	ErrNoProgress = errors.New("no progress")

	// ErrRootKeyNotFound indicates the schema root key is absent from a document.
	ErrRootKeyNotFound = errors.New("root key not found")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// InvalidReferenceError represents a reference string that matches none of
// the internal, external, or external-internal shapes.
type InvalidReferenceError struct {
	// Ref is the offending reference value, rendered with %v
	Ref string
	// Reason describes why the reference was rejected
	Reason string
	// NotString is true when the $ref value was not textual at all
	NotString bool
}

// Error returns a human-readable error message.
func (e *InvalidReferenceError) Error() string {
	msg := "invalid reference"
	if e.NotString {
		msg = "reference is not a string"
	}
	if e.Ref != "" {
		msg += fmt.Sprintf(" %q", e.Ref)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is reports whether target matches this error type.
// Matches ErrInvalidReference, and ErrNotString when NotString is set.
func (e *InvalidReferenceError) Is(target error) bool {
	if target == ErrInvalidReference {
		return true
	}
	return target == ErrNotString && e.NotString
}

// KeyNotFoundError represents a pointer segment that is absent at its level.
type KeyNotFoundError struct {
	// Pointer is the pointer being resolved (e.g. "#/components/schemas/Pet")
	Pointer string
	// Key is the missing segment
	Key string
}

// Error returns a human-readable error message.
func (e *KeyNotFoundError) Error() string {
	msg := "key not found"
	if e.Key != "" {
		msg += fmt.Sprintf(": %q", e.Key)
	}
	if e.Pointer != "" {
		msg += " in " + e.Pointer
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *KeyNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}

// IndexOutOfRangeError represents a list index outside the target sequence.
type IndexOutOfRangeError struct {
	Pointer string
	Index   int
	Length  int
}

// Error returns a human-readable error message.
func (e *IndexOutOfRangeError) Error() string {
	msg := fmt.Sprintf("index %d out of range (length %d)", e.Index, e.Length)
	if e.Pointer != "" {
		msg += " in " + e.Pointer
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *IndexOutOfRangeError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// TypeMismatchError represents a traversal that met the wrong container type.
type TypeMismatchError struct {
	// Pointer is the pointer being resolved
	Pointer string
	// Expected is "map" or "list"
	Expected string
	// Actual is a short description of what was found
	Actual string
}

// Error returns a human-readable error message.
func (e *TypeMismatchError) Error() string {
	msg := "type mismatch"
	if e.Expected != "" {
		msg += ": expected " + e.Expected
		if e.Actual != "" {
			msg += ", got " + e.Actual
		}
	}
	if e.Pointer != "" {
		msg += " at " + e.Pointer
	}
	return msg
}

// Is reports whether target matches this error type.
// Matches ErrTypeMismatch, and ErrTypeNotList when a list was expected.
func (e *TypeMismatchError) Is(target error) bool {
	if target == ErrTypeMismatch {
		return true
	}
	return target == ErrTypeNotList && e.Expected == "list"
}

// FileError represents a document that could not be loaded or saved.
type FileError struct {
	// Path is the file path
	Path string
	// NotFound is true when the file does not exist
	NotFound bool
	// Message describes the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *FileError) Error() string {
	msg := "parse error"
	if e.NotFound {
		msg = "file not found"
	}
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *FileError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *FileError) Is(target error) bool {
	if e.NotFound {
		return target == ErrFileNotFound
	}
	return target == ErrParse
}

// ConvergenceError is returned when a full fixpoint pass resolves nothing
// while files remain deferred, or when the pass limit is reached.
type ConvergenceError struct {
	// Passes is the number of passes executed
	Passes int
	// Unresolved lists the files still holding references
	Unresolved []string
	// LimitReached is true when the configured pass limit stopped the run
	LimitReached bool
}

// Error returns a human-readable error message.
func (e *ConvergenceError) Error() string {
	msg := fmt.Sprintf("no progress after %d passes", e.Passes)
	if e.LimitReached {
		msg = fmt.Sprintf("pass limit reached after %d passes", e.Passes)
	}
	if len(e.Unresolved) > 0 {
		msg += fmt.Sprintf(": %d unresolved file(s): %s", len(e.Unresolved), strings.Join(e.Unresolved, ", "))
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *ConvergenceError) Is(target error) bool {
	return target == ErrNoProgress
}

// RootKeyNotFoundError is returned when a schema root lookup by key fails.
// Callers decide whether to retry with another key or abort.
type RootKeyNotFoundError struct {
	Path string
	Key  string
}

// Error returns a human-readable error message.
func (e *RootKeyNotFoundError) Error() string {
	msg := fmt.Sprintf("root key %q not found", e.Key)
	if e.Path != "" {
		msg += " in " + e.Path
	}
	return msg
}

// Is reports whether target matches this error type.
// A missing root key is also a missing key.
func (e *RootKeyNotFoundError) Is(target error) bool {
	return target == ErrRootKeyNotFound || target == ErrKeyNotFound
}

// ConfigError represents an invalid configuration or input.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
