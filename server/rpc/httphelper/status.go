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

// Package httphelper maps errors of the server to HTTP responses.
package httphelper

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/internal/validation"
	"github.com/kanso-team/kanso/pkg/errors"
)

// StatusOf returns the HTTP status of the given error.
func StatusOf(err error) int {
	var structErr *validation.StructError
	if errors.As(err, &structErr) {
		return http.StatusBadRequest
	}
	if errors.Is(err, context.Canceled) {
		// nginx's "client closed request"
		return 499
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}

	status := errors.StatusOf(err)
	if status == 0 {
		return http.StatusInternalServerError
	}
	return status.HTTPStatus()
}

// CodeOf returns the machine-readable code of the given error.
func CodeOf(err error) string {
	if code := errors.CodeOf(err); code != "" {
		return code
	}

	var structErr *validation.StructError
	if errors.As(err, &structErr) {
		return "ErrInvalidArgument"
	}
	return ""
}

// ToErrorResponse converts the given error to the body of a failed request.
// Internal errors are not exposed to the client.
func ToErrorResponse(err error) (int, *types.ErrorResponse) {
	status := StatusOf(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = http.StatusText(status)
	}

	return status, &types.ErrorResponse{
		Success: false,
		Error:   message,
		Code:    CodeOf(err),
	}
}

// Abort aborts the request with the response of the given error. The error
// is kept in the context for the logging middleware.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	status, res := ToErrorResponse(err)
	c.AbortWithStatusJSON(status, res)
}
