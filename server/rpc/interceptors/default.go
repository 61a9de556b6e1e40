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

package interceptors

import (
	"net/http"
	"strconv"
	gotime "time"

	"github.com/gin-gonic/gin"

	"github.com/kanso-team/kanso/server/logging"
	"github.com/kanso-team/kanso/server/profiling/prometheus"
)

const (
	// SlowThreshold is the threshold for slow RPC.
	SlowThreshold = 100 * gotime.Millisecond
)

// Default logs failed and slow requests and counts handled requests.
func Default(metrics *prometheus.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := gotime.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		status := c.Writer.Status()
		metrics.AddServerHandledCounter(c.Request.Method, path, strconv.Itoa(status))

		reqLogger := logging.From(c.Request.Context())
		if err := c.Errors.Last(); err != nil {
			reqLogger.Warnf("RPC : %s %q %s => %d %q", c.Request.Method, path, gotime.Since(start), status, err.Err)
			return
		}

		if gotime.Since(start) > SlowThreshold {
			reqLogger.Infof("RPC : %s %q %s", c.Request.Method, path, gotime.Since(start))
		}
	}
}

// Recovery turns a panic of a handler into an internal error.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.From(c.Request.Context()).Errorf("RPC : panic %s %q: %v", c.Request.Method, c.FullPath(), recovered)
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

// MaxBytes limits the size of request bodies.
func MaxBytes(limit uint64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(limit))
		}
		c.Next()
	}
}
