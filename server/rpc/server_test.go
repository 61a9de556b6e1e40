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

package rpc_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/pkg/mutation"
	"github.com/kanso-team/kanso/server/rpc"
	"github.com/kanso-team/kanso/server/rpc/auth"
	"github.com/kanso-team/kanso/server/rpc/interceptors"
	"github.com/kanso-team/kanso/test/helper"
)

const (
	profileID = "profile-1"
	groupID   = "group-1"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func newTestServer(t *testing.T) *testServer {
	be := helper.TestBackend(t)
	srv, err := rpc.NewServer(helper.TestRPCConfig(), be)
	require.NoError(t, err)

	token, err := auth.NewTokenManager(helper.SecretKey, time.Hour).Generate(profileID)
	require.NoError(t, err)

	return &testServer{t: t, handler: srv.Handler(), token: token}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var payload []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		payload = b
	default:
		encoded, err := json.Marshal(b)
		require.NoError(s.t, err)
		payload = encoded
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	res := types.ErrorResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Success)
	return res
}

func TestConfig(t *testing.T) {
	validConf := rpc.Config{Port: 8080, MaxRequestBytes: 1024, ReadTimeout: "10s"}
	assert.NoError(t, validConf.Validate())

	conf1 := validConf
	conf1.Port = 0
	assert.ErrorIs(t, conf1.Validate(), rpc.ErrInvalidRPCPort)

	conf2 := validConf
	conf2.CertFile = "noSuchCertFile"
	assert.ErrorIs(t, conf2.Validate(), rpc.ErrInvalidCertFile)

	conf3 := validConf
	conf3.KeyFile = "noSuchKeyFile"
	assert.ErrorIs(t, conf3.Validate(), rpc.ErrInvalidKeyFile)

	conf4 := validConf
	conf4.MaxRequestBytes = 0
	assert.ErrorIs(t, conf4.Validate(), rpc.ErrInvalidMaxRequestBytes)

	conf5 := validConf
	conf5.ReadTimeout = "10"
	assert.ErrorIs(t, conf5.Validate(), rpc.ErrInvalidReadTimeout)
}

func TestServer(t *testing.T) {
	t.Run("health check test", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
		assert.NotEmpty(t, w.Header().Get(interceptors.RequestIDHeader))
	})

	t.Run("push and pull test", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(http.MethodPost, "/sync/push", s.token, helper.PushRequest(profileID, groupID,
			helper.Mutation(t, "c1", 1, mutation.CreateBoardArgs{ID: "b1", Name: "Board"}),
			helper.Mutation(t, "c1", 2, mutation.CreateColumnArgs{ID: "col1", BoardID: "b1", Name: "To Do"}),
		))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())

		w = s.do(http.MethodPost, "/sync/pull", s.token, helper.PullRequest(profileID, groupID, "c1", 0))
		require.Equal(t, http.StatusOK, w.Code)
		res := types.PullResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.True(t, res.Success)
		assert.Equal(t, uint64(2), res.LastProcessedMutationID)
		assert.Equal(t, uint64(2), res.Cookie)
		assert.Len(t, res.Patch, 3)
	})

	t.Run("missing token test", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(http.MethodPost, "/sync/push", "", helper.PushRequest(profileID, groupID))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "ErrMissingToken", errorOf(t, w).Code)
	})

	t.Run("profile of another token test", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(http.MethodPost, "/sync/pull", s.token, helper.PullRequest("profile-2", groupID, "c1", 0))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "ErrProfileMismatch", errorOf(t, w).Code)
	})

	t.Run("malformed body test", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(http.MethodPost, "/sync/push", s.token, []byte(`{"mutations":`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ErrMalformedBody", errorOf(t, w).Code)
	})

	t.Run("invalid request test", func(t *testing.T) {
		s := newTestServer(t)
		req := helper.PushRequest(profileID, groupID)
		req.PushVersion = 2
		w := s.do(http.MethodPost, "/sync/push", s.token, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ErrInvalidArgument", errorOf(t, w).Code)
	})

	t.Run("out of order mutation test", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(http.MethodPost, "/sync/push", s.token, helper.PushRequest(profileID, groupID,
			helper.Mutation(t, "c1", 2, mutation.CreateBoardArgs{ID: "b1", Name: "Board"}),
		))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "ErrMutationOutOfOrder", errorOf(t, w).Code)
	})

	t.Run("request too large test", func(t *testing.T) {
		s := newTestServer(t)
		req := helper.PushRequest(profileID, groupID,
			helper.Mutation(t, "c1", 1, mutation.CreateTaskArgs{
				ID:       "t1",
				BoardID:  "b1",
				ColumnID: "col1",
				Title:    "T",
				Body:     string(bytes.Repeat([]byte("x"), int(helper.RPCMaxRequestBytes))),
			}),
		)
		w := s.do(http.MethodPost, "/sync/push", s.token, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ErrRequestTooLarge", errorOf(t, w).Code)
	})
}
