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

package rpc

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/pkg/errors"
	"github.com/kanso-team/kanso/server/backend"
	"github.com/kanso-team/kanso/server/mutations"
	"github.com/kanso-team/kanso/server/patches"
	"github.com/kanso-team/kanso/server/rpc/auth"
	"github.com/kanso-team/kanso/server/rpc/httphelper"
)

// ErrMalformedBody is returned when the body of a request is not valid JSON.
var ErrMalformedBody = errors.InvalidArgument("malformed request body").WithCode("ErrMalformedBody")

type syncServer struct {
	backend *backend.Backend
}

// newSyncServer creates a new instance of syncServer.
func newSyncServer(be *backend.Backend) *syncServer {
	return &syncServer{backend: be}
}

// Push applies the mutations of a client group.
func (s *syncServer) Push(c *gin.Context) {
	req := &types.PushRequest{}
	if err := bind(c, req); err != nil {
		httphelper.Abort(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		httphelper.Abort(c, err)
		return
	}
	if err := auth.CheckProfile(c, req.ProfileID); err != nil {
		httphelper.Abort(c, err)
		return
	}

	if err := mutations.Push(c.Request.Context(), s.backend, req); err != nil {
		httphelper.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, &types.PushResponse{Success: true})
}

// Pull returns the patch of a client since its cookie.
func (s *syncServer) Pull(c *gin.Context) {
	req := &types.PullRequest{}
	if err := bind(c, req); err != nil {
		httphelper.Abort(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		httphelper.Abort(c, err)
		return
	}
	if err := auth.CheckProfile(c, req.ProfileID); err != nil {
		httphelper.Abort(c, err)
		return
	}

	res, err := patches.Pull(c.Request.Context(), s.backend, req)
	if err != nil {
		httphelper.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func bind(c *gin.Context, req any) error {
	var maxBytesErr *http.MaxBytesError
	if err := c.ShouldBindJSON(req); err != nil {
		if errors.As(err, &maxBytesErr) {
			return errors.InvalidArgument(err.Error()).WithCode("ErrRequestTooLarge")
		}
		return errors.InvalidArgument(err.Error()).WithCode(ErrMalformedBody.Code())
	}
	return nil
}
