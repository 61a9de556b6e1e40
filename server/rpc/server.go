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

// Package rpc provides the HTTP/JSON server of the sync protocol.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kanso-team/kanso/server/backend"
	"github.com/kanso-team/kanso/server/logging"
	"github.com/kanso-team/kanso/server/rpc/auth"
	"github.com/kanso-team/kanso/server/rpc/httphealth"
	"github.com/kanso-team/kanso/server/rpc/interceptors"
)

// Server is a normal server that processes the logic requested by the client.
type Server struct {
	conf       *Config
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a new instance of Server.
func NewServer(conf *Config, be *backend.Backend) (*Server, error) {
	var tokenManager *auth.TokenManager
	if !be.Config.AuthDisabled {
		tokenManager = auth.NewTokenManager(be.Config.SecretKey, be.Config.ParseTokenDuration())
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		interceptors.Logging(),
		interceptors.Default(be.Metrics),
		interceptors.Recovery(),
	)

	router.GET(httphealth.Path, httphealth.NewHandler(be.DB.Ping))
	router.HEAD(httphealth.Path, httphealth.NewHandler(be.DB.Ping))

	syncServer := newSyncServer(be)
	group := router.Group("/sync", interceptors.MaxBytes(conf.MaxRequestBytes), auth.Middleware(tokenManager))
	group.POST("/push", syncServer.Push)
	group.POST("/pull", syncServer.Pull)

	return &Server{
		conf: conf,
		httpServer: &http.Server{
			Handler:     router,
			ReadTimeout: conf.ParseReadTimeout(),
		},
	}, nil
}

// Handler returns the handler of this server.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the local address this server listens on. It is only valid
// after Start.
func (s *Server) Addr() string {
	return fmt.Sprintf("localhost:%d", s.listener.Addr().(*net.TCPAddr).Port)
}

// Start starts this server by opening the rpc port.
func (s *Server) Start() error {
	return s.listenAndServe()
}

// Shutdown shuts down this server.
func (s *Server) Shutdown(graceful bool) {
	if graceful {
		if err := s.httpServer.Shutdown(context.Background()); err != nil {
			logging.DefaultLogger().Errorf("HTTP server Shutdown: %v", err)
		}
		return
	}

	if err := s.httpServer.Close(); err != nil {
		logging.DefaultLogger().Errorf("HTTP server Close: %v", err)
	}
}

func (s *Server) listenAndServe() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.conf.Port))
	if err != nil {
		logging.DefaultLogger().Error(err)
		return err
	}
	s.listener = lis

	go func() {
		logging.DefaultLogger().Infof("serving RPC on %d", s.conf.Port)

		var err error
		if s.conf.CertFile != "" && s.conf.KeyFile != "" {
			err = s.httpServer.ServeTLS(lis, s.conf.CertFile, s.conf.KeyFile)
		} else {
			err = s.httpServer.Serve(lis)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.DefaultLogger().Error(err)
		}
	}()

	return nil
}
