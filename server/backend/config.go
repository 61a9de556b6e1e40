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

package backend

import (
	"errors"
	"fmt"
	"os"
	gotime "time"
)

var (
	// ErrEmptySecretKey is returned when auth is enabled without a secret key.
	ErrEmptySecretKey = errors.New("secret key must be set when auth is enabled")

	// ErrInvalidMaxMutationsPerPush is returned when the push limit is not
	// positive.
	ErrInvalidMaxMutationsPerPush = errors.New("max mutations per push must be positive")
)

// Config is the configuration for creating a Backend instance.
type Config struct {
	// SecretKey is the secret key for signing and verifying bearer tokens.
	SecretKey string `yaml:"SecretKey"`

	// AuthDisabled trusts the profile of the request body instead of the
	// bearer token. Only meant for local use.
	AuthDisabled bool `yaml:"AuthDisabled"`

	// TokenDuration is the lifetime of tokens minted by the server.
	TokenDuration string `yaml:"TokenDuration"`

	// MaxMutationsPerPush is the maximum number of mutations of a push request.
	MaxMutationsPerPush int `yaml:"MaxMutationsPerPush"`

	// Hostname is kanso server hostname. hostname is used by logs.
	Hostname string `yaml:"Hostname"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if !c.AuthDisabled && c.SecretKey == "" {
		return ErrEmptySecretKey
	}

	if _, err := gotime.ParseDuration(c.TokenDuration); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--token-duration" flag: %w`,
			c.TokenDuration,
			err,
		)
	}

	if c.MaxMutationsPerPush <= 0 {
		return fmt.Errorf("given %d: %w", c.MaxMutationsPerPush, ErrInvalidMaxMutationsPerPush)
	}

	return nil
}

// ParseTokenDuration returns token duration.
func (c *Config) ParseTokenDuration() gotime.Duration {
	result, err := gotime.ParseDuration(c.TokenDuration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse token duration: %v\n", err)
		os.Exit(1)
	}

	return result
}
