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
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kanso-team/kanso/server"
	"github.com/kanso-team/kanso/server/backend/database/mongo"
	"github.com/kanso-team/kanso/server/backend/database/sqlite"
	"github.com/kanso-team/kanso/server/logging"
)

var (
	gracefulTimeout = 10 * time.Second
)

var (
	flagConfPath    string
	flagLogLevel    string
	flagLogEncoding string

	tokenDuration time.Duration
	readTimeout   time.Duration

	sqlitePath        string
	sqliteBusyTimeout time.Duration

	mongoConnectionURI     string
	mongoConnectionTimeout time.Duration
	mongoKansoDatabase     string
	mongoPingTimeout       time.Duration

	conf = server.NewConfig()
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server [options]",
		Short: "Start Kanso server",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf.Backend.TokenDuration = tokenDuration.String()
			conf.RPC.ReadTimeout = readTimeout.String()

			if sqlitePath != "" {
				conf.SQLite = &sqlite.Config{
					Path:        sqlitePath,
					BusyTimeout: sqliteBusyTimeout.String(),
				}
			}

			if mongoConnectionURI != "" {
				conf.Mongo = &mongo.Config{
					ConnectionURI:     mongoConnectionURI,
					ConnectionTimeout: mongoConnectionTimeout.String(),
					KansoDatabase:     mongoKansoDatabase,
					PingTimeout:       mongoPingTimeout.String(),
				}
			}

			// If config file is given, command-line arguments will be overwritten.
			if flagConfPath != "" {
				parsed, err := server.NewConfigFromFile(flagConfPath)
				if err != nil {
					return err
				}
				conf = parsed
			}

			if err := logging.SetLogLevel(flagLogLevel); err != nil {
				return err
			}
			if err := logging.SetEncoding(flagLogEncoding); err != nil {
				return err
			}

			k, err := server.New(conf)
			if err != nil {
				return err
			}

			if err := k.Start(); err != nil {
				return err
			}

			if code := handleSignal(k); code != 0 {
				return fmt.Errorf("exit code: %d", code)
			}

			return nil
		},
	}
}

func handleSignal(k *server.Kanso) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var sig os.Signal
	select {
	case s := <-sigCh:
		sig = s
	case <-k.ShutdownCh():
		// kanso is already shutdown
		return 0
	}

	graceful := false
	if sig == syscall.SIGINT || sig == syscall.SIGTERM {
		graceful = true
	}

	gracefulCh := make(chan struct{})
	go func() {
		if err := k.Shutdown(graceful); err != nil {
			logging.DefaultLogger().Error(err)
			return
		}
		close(gracefulCh)
	}()

	select {
	case <-sigCh:
		return 1
	case <-time.After(gracefulTimeout):
		return 1
	case <-gracefulCh:
		return 0
	}
}

func init() {
	cmd := newServerCmd()
	cmd.Flags().StringVarP(
		&flagConfPath,
		"config",
		"c",
		"",
		"Config path",
	)
	cmd.Flags().StringVarP(
		&flagLogLevel,
		"log-level",
		"l",
		"info",
		"Log level: debug, info, warn, error, panic, fatal",
	)
	cmd.Flags().StringVar(
		&flagLogEncoding,
		"log-encoding",
		"console",
		"Log encoding: console, json",
	)
	cmd.Flags().IntVar(
		&conf.RPC.Port,
		"rpc-port",
		server.DefaultRPCPort,
		"RPC port",
	)
	cmd.Flags().StringVar(
		&conf.RPC.CertFile,
		"rpc-cert-file",
		"",
		"RPC certification file's path",
	)
	cmd.Flags().StringVar(
		&conf.RPC.KeyFile,
		"rpc-key-file",
		"",
		"RPC key file's path",
	)
	cmd.Flags().Uint64Var(
		&conf.RPC.MaxRequestBytes,
		"rpc-max-requests-bytes",
		server.DefaultRPCMaxRequestBytes,
		"Maximum client request size in bytes the server will accept.",
	)
	cmd.Flags().DurationVar(
		&readTimeout,
		"rpc-read-timeout",
		server.DefaultRPCReadTimeout,
		"Maximum duration for reading an entire request.",
	)
	cmd.Flags().IntVar(
		&conf.Profiling.Port,
		"profiling-port",
		server.DefaultProfilingPort,
		"Profiling port",
	)
	cmd.Flags().BoolVar(
		&conf.Profiling.EnablePprof,
		"enable-pprof",
		false,
		"Enable runtime profiling data via HTTP server.",
	)
	cmd.Flags().StringVar(
		&conf.Backend.SecretKey,
		"secret-key",
		server.DefaultSecretKey,
		"Secret key for signing and verifying bearer tokens.",
	)
	cmd.Flags().BoolVar(
		&conf.Backend.AuthDisabled,
		"auth-disabled",
		false,
		"Trust the profile of request bodies without a bearer token. Only for local use.",
	)
	cmd.Flags().DurationVar(
		&tokenDuration,
		"token-duration",
		server.DefaultTokenDuration,
		"Lifetime of the tokens minted by the server.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.MaxMutationsPerPush,
		"max-mutations-per-push",
		server.DefaultMaxMutationsPerPush,
		"Maximum number of mutations of a push request.",
	)
	cmd.Flags().StringVar(
		&conf.Backend.Hostname,
		"hostname",
		server.DefaultHostname,
		"Kanso Server Hostname",
	)
	cmd.Flags().StringVar(
		&sqlitePath,
		"sqlite-path",
		"",
		"Path of the SQLite database file. The memory database is used when neither SQLite nor MongoDB is set.",
	)
	cmd.Flags().DurationVar(
		&sqliteBusyTimeout,
		"sqlite-busy-timeout",
		server.DefaultSQLiteBusyTimeout,
		"Time a transaction waits for the write lock of the SQLite database.",
	)
	cmd.Flags().StringVar(
		&mongoConnectionURI,
		"mongo-connection-uri",
		"",
		"MongoDB's connection URI",
	)
	cmd.Flags().DurationVar(
		&mongoConnectionTimeout,
		"mongo-connection-timeout",
		server.DefaultMongoConnectionTimeout,
		"Mongo DB's connection timeout",
	)
	cmd.Flags().StringVar(
		&mongoKansoDatabase,
		"mongo-kanso-database",
		server.DefaultMongoKansoDatabase,
		"Kanso's database name in MongoDB",
	)
	cmd.Flags().DurationVar(
		&mongoPingTimeout,
		"mongo-ping-timeout",
		server.DefaultMongoPingTimeout,
		"Mongo DB's ping timeout",
	)

	rootCmd.AddCommand(cmd)
}
