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

// Package profiling serves the metrics of the Kanso server, and pprof when
// enabled, on a port separate from the sync API.
package profiling

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidProfilingPort is returned when the profiling port is out of
	// range.
	ErrInvalidProfilingPort = errors.New("invalid port number for profiling server")
)

// Config configures the profiling Server. Metrics are always served. The
// pprof handlers are only mounted with EnablePprof, as they expose the heap
// and the goroutines of the process.
type Config struct {
	Port        int  `yaml:"Port"`
	EnablePprof bool `yaml:"EnablePprof"`
}

// Validate checks the port.
func (c *Config) Validate() error {
	if c.Port < 1 || 65535 < c.Port {
		return fmt.Errorf("profiling port %d: %w", c.Port, ErrInvalidProfilingPort)
	}

	return nil
}

// Addr returns the listen address of the profiling server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
