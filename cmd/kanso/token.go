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

package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/kanso-team/kanso/server"
	"github.com/kanso-team/kanso/server/rpc/auth"
)

var (
	tokenSecret    string
	tokenProfileID string
	tokenTTL       time.Duration
)

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token [options]",
		Short: "Mint a bearer token of a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tokenProfileID == "" {
				return errors.New("profile is required")
			}
			if tokenSecret == "" {
				return errors.New("secret is required")
			}

			token, err := auth.NewTokenManager(tokenSecret, tokenTTL).Generate(tokenProfileID)
			if err != nil {
				return err
			}

			cmd.Println(token)
			return nil
		},
	}
}

func init() {
	cmd := newTokenCmd()
	cmd.Flags().StringVar(
		&tokenSecret,
		"secret",
		server.DefaultSecretKey,
		"Secret key of the server",
	)
	cmd.Flags().StringVar(
		&tokenProfileID,
		"profile",
		"",
		"Profile the token is issued to",
	)
	cmd.Flags().DurationVar(
		&tokenTTL,
		"ttl",
		server.DefaultTokenDuration,
		"Lifetime of the token",
	)
	rootCmd.AddCommand(cmd)
}
