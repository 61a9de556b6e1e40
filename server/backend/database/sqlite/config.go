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

package sqlite

import (
	"errors"
	"fmt"
	gotime "time"
)

// DefaultBusyTimeout is the default time a transaction waits for the write
// lock of the database file.
const DefaultBusyTimeout = "5s"

// ErrEmptyPath is returned when the path of the database file is empty.
var ErrEmptyPath = errors.New("sqlite path is empty")

// Config is the configuration for opening a SQLite database.
type Config struct {
	// Path is the path of the database file.
	Path string `yaml:"Path"`

	// BusyTimeout is the time a transaction waits for the write lock.
	BusyTimeout string `yaml:"BusyTimeout"`
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if c.Path == "" {
		return ErrEmptyPath
	}

	if _, err := gotime.ParseDuration(c.BusyTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--sqlite-busy-timeout" flag: %w`,
			c.BusyTimeout,
			err,
		)
	}

	return nil
}

// dsn returns the data source name passed to the driver. Transactions start
// with BEGIN IMMEDIATE so that concurrent writers queue on the busy timeout
// instead of failing on lock upgrade.
func (c *Config) dsn() string {
	timeout, err := gotime.ParseDuration(c.BusyTimeout)
	if err != nil {
		timeout, _ = gotime.ParseDuration(DefaultBusyTimeout)
	}

	return fmt.Sprintf(
		"file:%s?_txlock=immediate&_busy_timeout=%d&_foreign_keys=on",
		c.Path,
		timeout.Milliseconds(),
	)
}
