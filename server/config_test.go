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

package server_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanso-team/kanso/server"
	"github.com/kanso-team/kanso/server/backend"
)

func TestNewConfigFromFile(t *testing.T) {
	t.Run("fail read config file test", func(t *testing.T) {
		conf := server.NewConfig()
		assert.Equal(t, conf.RPCAddr(), "localhost:"+strconv.Itoa(server.DefaultRPCPort))
		_, err := server.NewConfigFromFile("nowhere.yml")
		assert.Error(t, err)
		assert.Equal(t, conf.RPC.Port, server.DefaultRPCPort)
		assert.Equal(t, conf.RPC.CertFile, "")
		assert.Equal(t, conf.RPC.KeyFile, "")
		assert.Equal(t, conf.Backend.MaxMutationsPerPush, server.DefaultMaxMutationsPerPush)
		assert.NoError(t, conf.Validate())
	})

	t.Run("read config file test", func(t *testing.T) {
		filePath := "config.sample.yml"
		conf, err := server.NewConfigFromFile(filePath)
		assert.NoError(t, err)

		assert.Equal(t, conf.RPC.Port, server.DefaultRPCPort)
		assert.Equal(t, conf.RPC.CertFile, "")
		assert.Equal(t, conf.RPC.KeyFile, "")
		assert.Equal(t, conf.RPC.MaxRequestBytes, uint64(server.DefaultRPCMaxRequestBytes))
		assert.Equal(t, conf.Profiling.Port, server.DefaultProfilingPort)
		assert.Nil(t, conf.SQLite)

		connTimeout, err := time.ParseDuration(conf.Mongo.ConnectionTimeout)
		assert.NoError(t, err)
		assert.Equal(t, connTimeout, server.DefaultMongoConnectionTimeout)
		assert.Equal(t, conf.Mongo.ConnectionURI, server.DefaultMongoConnectionURI)
		assert.Equal(t, conf.Mongo.KansoDatabase, server.DefaultMongoKansoDatabase)

		pingTimeout, err := time.ParseDuration(conf.Mongo.PingTimeout)
		assert.NoError(t, err)
		assert.Equal(t, pingTimeout, server.DefaultMongoPingTimeout)

		tokenDuration, err := time.ParseDuration(conf.Backend.TokenDuration)
		assert.NoError(t, err)
		assert.Equal(t, tokenDuration, server.DefaultTokenDuration)
		assert.NoError(t, conf.Validate())
	})

	t.Run("defaults of a partial file test", func(t *testing.T) {
		filePath := filepath.Join(t.TempDir(), "kanso.yml")
		require.NoError(t, os.WriteFile(filePath, []byte("SQLite:\n  Path: kanso.db\n"), 0o600))

		conf, err := server.NewConfigFromFile(filePath)
		require.NoError(t, err)
		assert.Equal(t, server.DefaultRPCPort, conf.RPC.Port)
		assert.Equal(t, server.DefaultSecretKey, conf.Backend.SecretKey)
		assert.Equal(t, server.DefaultSQLiteBusyTimeout.String(), conf.SQLite.BusyTimeout)
		assert.Nil(t, conf.Mongo)
		assert.Nil(t, conf.Profiling)
		assert.NoError(t, conf.Validate())
	})

	t.Run("invalid config test", func(t *testing.T) {
		conf := server.NewConfig()
		conf.Backend.SecretKey = ""
		assert.ErrorIs(t, conf.Validate(), backend.ErrEmptySecretKey)

		conf.Backend.AuthDisabled = true
		assert.NoError(t, conf.Validate())

		conf.Profiling.Port = conf.RPC.Port
		assert.ErrorIs(t, conf.Validate(), server.ErrConflictingPorts)
	})
}
