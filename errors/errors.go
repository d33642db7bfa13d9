// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package errors

import (
	stderrors "errors"
	"fmt"
)

// GetErrCode returns the error code if the error, or any error it
// wraps, is associated to recognizable error types
func GetErrCode(err error) ErrCode {
	var val *Error
	if stderrors.As(err, &val) {
		return val.code
	}
	return Unknown
}

// base error structure
type Error struct {
	code  ErrCode
	msg   string
	cause error
}

// Error() prints out the error message string
func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

// Unwrap exposes the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// Code returns the recognized error code
func (e *Error) Code() ErrCode {
	return e.code
}

// Creates a new error msg without error code
func New(msg string) error {
	return &Error{
		msg: msg,
	}
}

// Wraps the error msg with recognized error codes
func Wrap(code ErrCode, msg string) error {
	return &Error{
		code: code,
		msg:  msg,
	}
}

// Wrapf formats the error msg and wraps it with recognized error codes
func Wrapf(code ErrCode, format string, args ...any) error {
	return &Error{
		code: code,
		msg:  fmt.Sprintf(format, args...),
	}
}

// WithCause wraps an underlying error with a recognized error code,
// keeping the cause reachable through Unwrap
func WithCause(code ErrCode, cause error, msg string) error {
	return &Error{
		code:  code,
		msg:   msg,
		cause: cause,
	}
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// IsNotFound returns true if err
// item isn't found in the space
func IsNotFound(err error) bool {
	return GetErrCode(err) == NotFound
}

// IsAlreadyExists returns true if err
// item already exists in the space
func IsAlreadyExists(err error) bool {
	return GetErrCode(err) == AlreadyExists
}

// IsInvalidArgument returns true if err
// item is invalid argument
func IsInvalidArgument(err error) bool {
	return GetErrCode(err) == InvalidArgument
}

// IsAlreadyMonitoring returns true if the entity
// is already monitored by the registry
func IsAlreadyMonitoring(err error) bool {
	return GetErrCode(err) == AlreadyMonitoring
}

// IsNotMonitoring returns true if the entity
// is not monitored by the registry
func IsNotMonitoring(err error) bool {
	return GetErrCode(err) == NotMonitoring
}

// IsPersistenceFailure returns true if the
// persistence store failed the request
func IsPersistenceFailure(err error) bool {
	return GetErrCode(err) == PersistenceFailure
}

// IsThrottled returns true if the request was
// dropped for lack of rate budget
func IsThrottled(err error) bool {
	return GetErrCode(err) == Throttled
}
