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

// Package retry retries HTTP calls with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"syscall"
	gotime "time"
)

var (
	// ErrRetriesExhausted is returned when every attempt failed with a
	// transient error.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// Options configures the backoff.
type Options struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64

	// BaseInterval is the wait before the first retry. It doubles on each
	// retry.
	BaseInterval gotime.Duration

	// MaxInterval caps the wait between two attempts.
	MaxInterval gotime.Duration
}

// WithExponentialBackoff calls fn until it returns a non-transient result or
// the retries are exhausted. fn returns the HTTP status of the attempt, or 0
// if no response was received.
func WithExponentialBackoff(ctx context.Context, opts Options, fn func() (int, error)) error {
	var lastErr error
	var lastStatus int
	for retries := uint64(0); retries <= opts.MaxRetries; retries++ {
		statusCode, err := fn()
		if !ShouldRetry(statusCode, err) {
			return err
		}
		lastStatus, lastErr = statusCode, err

		if retries == opts.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-gotime.After(WaitInterval(retries, opts.BaseInterval, opts.MaxInterval)):
		}
	}

	if lastErr != nil {
		return fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
	}
	return fmt.Errorf("status %d: %w", lastStatus, ErrRetriesExhausted)
}

// WaitInterval returns 2^retries * baseInterval capped at maxInterval. The
// product is compared in floating point so that it never overflows.
func WaitInterval(retries uint64, baseInterval, maxInterval gotime.Duration) gotime.Duration {
	interval := math.Pow(2, float64(retries)) * float64(baseInterval)
	if interval >= float64(maxInterval) {
		return maxInterval
	}

	return gotime.Duration(interval)
}

// ShouldRetry returns true if the attempt failed transiently: the server
// could not be reached, or it answered 429, 500, 502, 503 or 504.
func ShouldRetry(statusCode int, err error) bool {
	if err != nil && statusCode == 0 {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}

		var errno syscall.Errno
		if errors.As(err, &errno) {
			return errno == syscall.ECONNRESET || errno == syscall.ECONNREFUSED
		}

		var netErr net.Error
		return errors.As(err, &netErr)
	}

	return statusCode == http.StatusInternalServerError ||
		statusCode == http.StatusBadGateway ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout ||
		statusCode == http.StatusTooManyRequests
}
