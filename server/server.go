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

// Package server assembles the Kanso sync server: the authoritative store,
// the sync API and the profiling server.
package server

import (
	gosync "sync"

	"github.com/kanso-team/kanso/server/backend"
	"github.com/kanso-team/kanso/server/logging"
	"github.com/kanso-team/kanso/server/profiling"
	"github.com/kanso-team/kanso/server/profiling/prometheus"
	"github.com/kanso-team/kanso/server/rpc"
)

// Kanso applies the mutations pushed by clients to the authoritative store
// and answers their pulls with patches of it.
type Kanso struct {
	lock gosync.Mutex

	conf            *Config
	backend         *backend.Backend
	rpcServer       *rpc.Server
	profilingServer *profiling.Server

	shutdown   bool
	shutdownCh chan struct{}
}

// New validates the config, opens the authoritative store and builds the
// servers. Nothing listens until Start.
func New(conf *Config) (*Kanso, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	metrics, err := prometheus.NewMetrics()
	if err != nil {
		return nil, err
	}

	be, err := backend.New(conf.Backend, conf.SQLite, conf.Mongo, metrics)
	if err != nil {
		return nil, err
	}

	rpcServer, err := rpc.NewServer(conf.RPC, be)
	if err != nil {
		if closeErr := be.Shutdown(); closeErr != nil {
			logging.DefaultLogger().Error(closeErr)
		}
		return nil, err
	}

	var profilingServer *profiling.Server
	if conf.Profiling != nil {
		profilingServer = profiling.NewServer(conf.Profiling, metrics)
	}

	return &Kanso{
		conf:            conf,
		backend:         be,
		rpcServer:       rpcServer,
		profilingServer: profilingServer,
		shutdownCh:      make(chan struct{}),
	}, nil
}

// Start opens the profiling port, then the sync API port. If the sync API
// cannot listen, the profiling server is closed again.
func (k *Kanso) Start() error {
	k.lock.Lock()
	defer k.lock.Unlock()

	if k.profilingServer != nil {
		if err := k.profilingServer.Start(); err != nil {
			return err
		}
	}

	if err := k.rpcServer.Start(); err != nil {
		if k.profilingServer != nil {
			k.profilingServer.Shutdown(false)
		}
		return err
	}

	logging.DefaultLogger().Infof("kanso server started on %s with %s store", k.rpcServer.Addr(), k.storeKind())
	return nil
}

// Shutdown stops accepting requests, then closes the authoritative store. It
// is a no-op after the first successful call.
func (k *Kanso) Shutdown(graceful bool) error {
	k.lock.Lock()
	defer k.lock.Unlock()
	if k.shutdown {
		return nil
	}

	k.rpcServer.Shutdown(graceful)
	if k.profilingServer != nil {
		k.profilingServer.Shutdown(graceful)
	}

	if err := k.backend.Shutdown(); err != nil {
		return err
	}

	close(k.shutdownCh)
	k.shutdown = true
	logging.DefaultLogger().Info("kanso server shut down")
	return nil
}

// ShutdownCh is closed once the server is shut down.
func (k *Kanso) ShutdownCh() <-chan struct{} {
	return k.shutdownCh
}

// RPCAddr returns the address the sync API listens on.
func (k *Kanso) RPCAddr() string {
	return k.rpcServer.Addr()
}

func (k *Kanso) storeKind() string {
	switch {
	case k.conf.Mongo != nil:
		return "mongo"
	case k.conf.SQLite != nil:
		return "sqlite"
	default:
		return "memory"
	}
}
