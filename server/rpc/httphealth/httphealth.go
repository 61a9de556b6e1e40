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

// Package httphealth uses http GET to provide a health check for the server.
package httphealth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Path is the path of the health check.
const Path = "/healthz"

// Checker reports whether the server can serve requests.
type Checker func(ctx context.Context) error

// CheckResponse represents the response structure for health checks.
type CheckResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NewHandler creates a new handler for health checks. HEAD requests get the
// status code only.
func NewHandler(checker Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := checker(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, CheckResponse{Status: "unavailable", Error: err.Error()})
			return
		}

		if c.Request.Method == http.MethodHead {
			c.Status(http.StatusOK)
			return
		}
		c.JSON(http.StatusOK, CheckResponse{Status: "ok"})
	}
}
