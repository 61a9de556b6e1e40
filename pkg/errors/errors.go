/*
 * Copyright 2026 The Kanso Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package errors provides status errors shared by the server and the client.
// A status error carries a StatusCode that the HTTP layer turns into a
// response status and that the client uses to decide whether to retry.
package errors

import (
	"errors"
	"net/http"
)

// StatusCode classifies an error.
type StatusCode int

const (
	// ErrCodeInvalidArgument indicates that the caller sent an invalid argument.
	ErrCodeInvalidArgument StatusCode = 3

	// ErrCodeNotFound indicates that a requested entity was not found.
	ErrCodeNotFound StatusCode = 5

	// ErrCodeAlreadyExists indicates that the entity to create already exists.
	ErrCodeAlreadyExists StatusCode = 6

	// ErrCodePermissionDenied indicates that the caller may not execute the operation.
	ErrCodePermissionDenied StatusCode = 7

	// ErrCodeResourceExhausted indicates that a quota or rate limit was hit.
	ErrCodeResourceExhausted StatusCode = 8

	// ErrCodeFailedPrecondition indicates that the system is not in the state
	// required for the operation, e.g. a mutation arrived out of order.
	ErrCodeFailedPrecondition StatusCode = 9

	// ErrCodeInternal indicates that an invariant of the system is broken.
	ErrCodeInternal StatusCode = 13

	// ErrCodeUnavailable indicates that the service is temporarily unavailable.
	ErrCodeUnavailable StatusCode = 14

	// ErrCodeUnauthenticated indicates missing or invalid credentials.
	ErrCodeUnauthenticated StatusCode = 16
)

// String returns the snake_case name of the code.
func (c StatusCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeAlreadyExists:
		return "already_exists"
	case ErrCodePermissionDenied:
		return "permission_denied"
	case ErrCodeResourceExhausted:
		return "resource_exhausted"
	case ErrCodeFailedPrecondition:
		return "failed_precondition"
	case ErrCodeInternal:
		return "internal"
	case ErrCodeUnavailable:
		return "unavailable"
	case ErrCodeUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// HTTPStatus returns the HTTP status code the transport answers with.
func (c StatusCode) HTTPStatus() int {
	switch c {
	case ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrCodePermissionDenied:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists, ErrCodeFailedPrecondition:
		return http.StatusConflict
	case ErrCodeResourceExhausted:
		return http.StatusTooManyRequests
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError returns true if the code blames the caller.
func (c StatusCode) IsClientError() bool {
	switch c {
	case ErrCodeInvalidArgument, ErrCodeNotFound, ErrCodeAlreadyExists,
		ErrCodePermissionDenied, ErrCodeResourceExhausted, ErrCodeFailedPrecondition,
		ErrCodeUnauthenticated:
		return true
	default:
		return false
	}
}

// StatusError is an error that carries a StatusCode and an optional
// machine-readable code such as "ErrMutationOutOfOrder".
type StatusError interface {
	error
	Status() StatusCode
	Code() string
	WithCode(code string) StatusError
}

type statusError struct {
	err    error
	status StatusCode
	code   string
}

func (e statusError) Error() string      { return e.err.Error() }
func (e statusError) Status() StatusCode { return e.status }
func (e statusError) Code() string       { return e.code }
func (e statusError) Unwrap() error      { return e.err }

func (e statusError) WithCode(code string) StatusError {
	return statusError{err: e.err, status: e.status, code: code}
}

func newStatusError(message string, status StatusCode) StatusError {
	return statusError{err: errors.New(message), status: status}
}

// NotFound creates a new "not found" error.
func NotFound(message string) StatusError {
	return newStatusError(message, ErrCodeNotFound)
}

// InvalidArgument creates a new "invalid argument" error.
func InvalidArgument(message string) StatusError {
	return newStatusError(message, ErrCodeInvalidArgument)
}

// AlreadyExists creates a new "already exists" error.
func AlreadyExists(message string) StatusError {
	return newStatusError(message, ErrCodeAlreadyExists)
}

// PermissionDenied creates a new "permission denied" error.
func PermissionDenied(message string) StatusError {
	return newStatusError(message, ErrCodePermissionDenied)
}

// ResourceExhausted creates a new "resource exhausted" error.
func ResourceExhausted(message string) StatusError {
	return newStatusError(message, ErrCodeResourceExhausted)
}

// FailedPrecond creates a new "failed precondition" error.
func FailedPrecond(message string) StatusError {
	return newStatusError(message, ErrCodeFailedPrecondition)
}

// Unauthenticated creates a new "unauthenticated" error.
func Unauthenticated(message string) StatusError {
	return newStatusError(message, ErrCodeUnauthenticated)
}

// Internal creates a new "internal" error.
func Internal(message string) StatusError {
	return newStatusError(message, ErrCodeInternal)
}

// Unavailable creates a new "unavailable" error.
func Unavailable(message string) StatusError {
	return newStatusError(message, ErrCodeUnavailable)
}

// StatusOf returns the status of the first StatusError in the chain of err,
// or 0 if there is none.
func StatusOf(err error) StatusCode {
	var statusErr StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status()
	}
	return 0
}

// CodeOf returns the machine-readable code of the first StatusError in the
// chain of err, or an empty string.
func CodeOf(err error) string {
	var statusErr StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code()
	}
	return ""
}

// IsStatus reports whether err carries the given status.
func IsStatus(err error, status StatusCode) bool {
	return StatusOf(err) == status
}

// Is, As and New re-export the standard library helpers so callers importing
// this package under the name errors keep working.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)
