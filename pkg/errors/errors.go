// Copyright (c) 2025, Arkon Labs.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a structured error classification.
type ErrorCode string

const (
	// ErrCodeParse indicates malformed kernel command-line text.
	// Recoverable when the caller opted into skip-with-warning parsing.
	ErrCodeParse ErrorCode = "PARSE_ERROR"
	// ErrCodeProfileNotFound indicates a named profile does not exist.
	// The error context carries the list of available profile names.
	ErrCodeProfileNotFound ErrorCode = "PROFILE_NOT_FOUND"
	// ErrCodeBackendUnavailable indicates a platform mismatch or an
	// unreachable backend (missing config file, daemon not running).
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	// ErrCodeStuckTransaction indicates the bounded wait on an in-progress
	// rpm-ostree transaction exceeded its ceiling.
	ErrCodeStuckTransaction ErrorCode = "STUCK_TRANSACTION"
	// ErrCodePermissionDenied indicates the operation requires elevation.
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	// ErrCodeRegeneration indicates the bootloader config regeneration
	// command failed; the defaults file itself is known-good.
	ErrCodeRegeneration ErrorCode = "REGENERATION_FAILURE"
	// ErrCodeConflict indicates a merge under the reject-conflict policy
	// found the same key with differing values.
	ErrCodeConflict ErrorCode = "PARAMETER_CONFLICT"
	// ErrCodeTimeout indicates an operation exceeded its time limit.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an internal system error.
	ErrCodeInternal ErrorCode = "INTERNAL"
	// ErrCodeInvalidRequest indicates malformed or invalid input.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
)

// StructuredError provides structured error information for better observability.
// It includes an error code for programmatic handling, a human-readable message,
// the underlying cause, and optional context for debugging.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// NewWithContext creates a new StructuredError with context information.
func NewWithContext(code ErrorCode, message string, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Context: context,
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithContext wraps an error with additional context information.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

// CodeOf returns the ErrorCode of err if it is (or wraps) a StructuredError,
// or ErrCodeInternal otherwise.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	var se *StructuredError
	if !stderrors.As(err, &se) {
		return false
	}
	return se.Code == code
}
