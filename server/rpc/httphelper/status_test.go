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

package httphelper_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/pkg/errors"
	"github.com/kanso-team/kanso/server/backend/database"
	"github.com/kanso-team/kanso/server/mutations"
	"github.com/kanso-team/kanso/server/rpc/httphelper"
)

func TestStatus(t *testing.T) {
	t.Run("status error test", func(t *testing.T) {
		err := fmt.Errorf("client c1: %w", mutations.ErrMutationOutOfOrder)
		status, res := httphelper.ToErrorResponse(err)
		assert.Equal(t, http.StatusConflict, status)
		assert.False(t, res.Success)
		assert.Equal(t, "ErrMutationOutOfOrder", res.Code)
		assert.Equal(t, err.Error(), res.Error)

		assert.Equal(t, http.StatusForbidden, httphelper.StatusOf(database.ErrClientGroupMismatch))
		assert.Equal(t, http.StatusTooManyRequests, httphelper.StatusOf(mutations.ErrTooManyMutations))
	})

	t.Run("validation error test", func(t *testing.T) {
		req := &types.PushRequest{PushVersion: 1}
		err := req.Validate()
		assert.Equal(t, http.StatusBadRequest, httphelper.StatusOf(err))
		assert.Equal(t, "ErrInvalidArgument", httphelper.CodeOf(err))
	})

	t.Run("internal error test", func(t *testing.T) {
		status, res := httphelper.ToErrorResponse(errors.New("disk on fire"))
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, http.StatusText(http.StatusInternalServerError), res.Error)
		assert.Empty(t, res.Code)
	})

	t.Run("context error test", func(t *testing.T) {
		assert.Equal(t, 499, httphelper.StatusOf(context.Canceled))
		assert.Equal(t, http.StatusGatewayTimeout, httphelper.StatusOf(context.DeadlineExceeded))
	})
}
