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

// Package helper provides helpers for tests of Kanso.
package helper

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/pkg/mutation"
	"github.com/kanso-team/kanso/server"
	"github.com/kanso-team/kanso/server/backend"
	"github.com/kanso-team/kanso/server/profiling"
	"github.com/kanso-team/kanso/server/profiling/prometheus"
	"github.com/kanso-team/kanso/server/rpc"
)

// Below are the values of the Kanso config used in the test.
var (
	SecretKey           = "kanso-test-secret"
	TokenDuration       = "1h"
	MaxMutationsPerPush = 100
	SchemaVersion       = "1"

	RPCMaxRequestBytes uint64 = 64 * 1024
	RPCReadTimeout            = "10s"
)

// TestBackendConfig returns the backend configuration used by tests.
func TestBackendConfig() *backend.Config {
	return &backend.Config{
		SecretKey:           SecretKey,
		TokenDuration:       TokenDuration,
		MaxMutationsPerPush: MaxMutationsPerPush,
		Hostname:            "test",
	}
}

// TestRPCConfig returns the RPC configuration used by tests. The port is
// only used when the server is started.
func TestRPCConfig() *rpc.Config {
	return &rpc.Config{
		Port:            server.DefaultRPCPort,
		MaxRequestBytes: RPCMaxRequestBytes,
		ReadTimeout:     RPCReadTimeout,
	}
}

// TestConfig returns the configuration of a server listening on free ports.
func TestConfig(t testing.TB) *server.Config {
	rpcConf := TestRPCConfig()
	rpcConf.Port = freePort(t)

	return &server.Config{
		RPC:       rpcConf,
		Profiling: &profiling.Config{Port: freePort(t)},
		Backend:   TestBackendConfig(),
	}
}

// TestServer starts a server over the memory database. It is shut down when
// the test ends.
func TestServer(t testing.TB) *server.Kanso {
	svr, err := server.New(TestConfig(t))
	require.NoError(t, err)
	require.NoError(t, svr.Start())
	t.Cleanup(func() {
		require.NoError(t, svr.Shutdown(true))
	})
	return svr
}

func freePort(t testing.TB) int {
	lis, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer func() {
		require.NoError(t, lis.Close())
	}()
	return lis.Addr().(*net.TCPAddr).Port
}

// TestBackend returns a backend over the memory database. It is shut down
// when the test ends.
func TestBackend(t testing.TB) *backend.Backend {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)

	be, err := backend.New(TestBackendConfig(), nil, nil, metrics)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, be.Shutdown())
	})
	return be
}

// Mutation returns a mutation of the given client carrying the encoded args.
func Mutation(t testing.TB, clientID string, id uint64, args mutation.Args) types.Mutation {
	raw, err := mutation.EncodeArgs(args)
	require.NoError(t, err)
	return types.Mutation{
		ID:        id,
		ClientID:  clientID,
		Name:      string(args.MutationName()),
		Args:      raw,
		Timestamp: int64(id),
	}
}

// PushRequest returns a push request of the given group.
func PushRequest(profileID, clientGroupID string, mutations ...types.Mutation) *types.PushRequest {
	return &types.PushRequest{
		SchemaVersion: SchemaVersion,
		ProfileID:     profileID,
		ClientGroupID: clientGroupID,
		Mutations:     mutations,
		PushVersion:   types.PushVersion,
	}
}

// PullRequest returns a pull request of the given client.
func PullRequest(profileID, clientGroupID, clientID string, cookie uint64) *types.PullRequest {
	return &types.PullRequest{
		SchemaVersion: SchemaVersion,
		ProfileID:     profileID,
		ClientGroupID: clientGroupID,
		ClientID:      clientID,
		Cookie:        cookie,
		PullVersion:   types.PullVersion,
	}
}
