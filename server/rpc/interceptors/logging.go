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

// Package interceptors provides the gin middlewares of the sync server.
package interceptors

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/xid"

	"github.com/kanso-team/kanso/server/logging"
)

// RequestIDHeader is the header carrying the id of a request.
const RequestIDHeader = "X-Request-Id"

// Logging assigns an id to each request and puts a logger named after it in
// the request context. An id sent by the client is kept.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" || len(reqID) > 64 {
			reqID = xid.New().String()
		}
		c.Header(RequestIDHeader, reqID)

		reqLogger := logging.New(reqID)
		c.Request = c.Request.WithContext(logging.With(c.Request.Context(), reqLogger))
		c.Next()
	}
}
