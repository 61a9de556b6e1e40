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

package client

import (
	"net/http"
	gotime "time"

	"go.uber.org/zap"
)

const (
	// DefaultSchemaVersion is the schema version sent when none is set.
	DefaultSchemaVersion = "1"

	// DefaultSyncInterval is the interval of the background sync.
	DefaultSyncInterval = 2 * gotime.Second

	// DefaultMaxRetries is the number of retries of a push or a pull.
	DefaultMaxRetries = 5

	// DefaultRetryBaseInterval is the wait before the first retry.
	DefaultRetryBaseInterval = 100 * gotime.Millisecond

	// DefaultRetryMaxInterval caps the wait between two retries.
	DefaultRetryMaxInterval = 10 * gotime.Second

	// DefaultRequestTimeout is the timeout of a single request.
	DefaultRequestTimeout = 10 * gotime.Second

	// DefaultMaxPushBatch is the number of mutations sent per push request.
	// It stays below the default limit of the server.
	DefaultMaxPushBatch = 100
)

// Option configures Options.
type Option func(*Options)

// Options configures how we set up the client.
type Options struct {
	// Token is the bearer token sent with each request.
	Token string

	// ClientID is the client id of a new local store. Opening a store of
	// another client id fails.
	ClientID string

	// SchemaVersion is the schema version of the local store.
	SchemaVersion string

	// StorePath is the directory of the local store.
	StorePath string

	// InMemory keeps the local store in memory.
	InMemory bool

	// SyncInterval is the interval of the background sync started by Start.
	SyncInterval gotime.Duration

	// MaxRetries, RetryBaseInterval and RetryMaxInterval configure the
	// backoff of push and pull.
	MaxRetries        uint64
	RetryBaseInterval gotime.Duration
	RetryMaxInterval  gotime.Duration

	// RequestTimeout is the timeout of a single HTTP request.
	RequestTimeout gotime.Duration

	// MaxPushBatch is the maximum number of mutations of a push request. A
	// longer log is sent in several requests.
	MaxPushBatch int

	// UndoDepth is the number of entries kept by the undo manager.
	UndoDepth int

	// HTTPClient is the HTTP client used to reach the server.
	HTTPClient *http.Client

	// Logger is the Logger of the client.
	Logger *zap.Logger
}

// WithToken configures the token of the client.
func WithToken(token string) Option {
	return func(o *Options) { o.Token = token }
}

// WithClientID configures the id of the client.
func WithClientID(clientID string) Option {
	return func(o *Options) { o.ClientID = clientID }
}

// WithSchemaVersion configures the schema version of the local store.
func WithSchemaVersion(version string) Option {
	return func(o *Options) { o.SchemaVersion = version }
}

// WithStorePath configures the directory of the local store.
func WithStorePath(path string) Option {
	return func(o *Options) { o.StorePath = path }
}

// WithInMemory keeps the local store in memory.
func WithInMemory() Option {
	return func(o *Options) { o.InMemory = true }
}

// WithSyncInterval configures the interval of the background sync.
func WithSyncInterval(interval gotime.Duration) Option {
	return func(o *Options) { o.SyncInterval = interval }
}

// WithRetry configures the backoff of push and pull.
func WithRetry(maxRetries uint64, baseInterval, maxInterval gotime.Duration) Option {
	return func(o *Options) {
		o.MaxRetries = maxRetries
		o.RetryBaseInterval = baseInterval
		o.RetryMaxInterval = maxInterval
	}
}

// WithRequestTimeout configures the timeout of a single request.
func WithRequestTimeout(timeout gotime.Duration) Option {
	return func(o *Options) { o.RequestTimeout = timeout }
}

// WithMaxPushBatch configures the number of mutations sent per push request.
func WithMaxPushBatch(size int) Option {
	return func(o *Options) { o.MaxPushBatch = size }
}

// WithUndoDepth configures the number of entries kept by the undo manager.
func WithUndoDepth(depth int) Option {
	return func(o *Options) { o.UndoDepth = depth }
}

// WithHTTPClient configures the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *Options) { o.HTTPClient = httpClient }
}

// WithLogger configures the Logger of the client.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func newOptions(opts ...Option) Options {
	options := Options{
		SchemaVersion:     DefaultSchemaVersion,
		SyncInterval:      DefaultSyncInterval,
		MaxRetries:        DefaultMaxRetries,
		RetryBaseInterval: DefaultRetryBaseInterval,
		RetryMaxInterval:  DefaultRetryMaxInterval,
		RequestTimeout:    DefaultRequestTimeout,
		MaxPushBatch:      DefaultMaxPushBatch,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.MaxPushBatch <= 0 {
		options.MaxPushBatch = DefaultMaxPushBatch
	}
	if options.HTTPClient == nil {
		options.HTTPClient = &http.Client{Timeout: options.RequestTimeout}
	}
	return options
}
