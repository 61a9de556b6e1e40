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

// Package patches implements Pull which returns the changes of a profile
// since a cookie as a patch of the client's local store.
package patches

import (
	"context"
	gotime "time"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/pkg/errors"
	"github.com/kanso-team/kanso/server/backend"
	"github.com/kanso-team/kanso/server/backend/database"
	"github.com/kanso-team/kanso/server/clients"
	"github.com/kanso-team/kanso/server/logging"
)

// Pull returns the patch from the cookie of the request to the current space
// version of the profile, with the cursor of the requesting client. The
// cursor and the patch are read from the same transaction.
func Pull(ctx context.Context, be *backend.Backend, req *types.PullRequest) (*types.PullResponse, error) {
	start := gotime.Now()
	defer func() {
		be.Metrics.ObservePullResponseSeconds(gotime.Since(start).Seconds())
	}()

	// 01. Ensure the client group of the profile.
	if err := clients.EnsureGroup(ctx, be.DB, req.ProfileID, req.ClientGroupID, req.SchemaVersion); err != nil {
		return nil, err
	}

	// 02. Read the cursor and the changes since the cookie.
	res := &types.PullResponse{Success: true}
	if err := be.DB.RunTx(ctx, func(tx database.Tx) error {
		version, err := tx.FindSpaceVersion(ctx, req.ProfileID)
		if err != nil {
			return err
		}

		cookie := req.Cookie
		if cookie > version {
			// The client saw a space this server does not have, so it
			// starts over.
			logging.From(ctx).Warnf(
				"cookie %d of client %s is ahead of space version %d, resetting",
				cookie,
				req.ClientID,
				version,
			)
			cookie = 0
		}

		changes, err := tx.FindChangesSince(ctx, req.ProfileID, cookie)
		if err != nil {
			return err
		}

		lastMutationID, err := lastMutationIDOf(ctx, tx, req.ClientID, req.ClientGroupID)
		if err != nil {
			return err
		}

		patch, err := NewPatch(changes, cookie == 0)
		if err != nil {
			return err
		}

		res.Patch = patch
		res.Cookie = version
		res.LastProcessedMutationID = lastMutationID
		return nil
	}); err != nil {
		return nil, err
	}

	// 03. Count the patch operations.
	counts := make(map[types.PatchOpType]int)
	for _, op := range res.Patch {
		counts[op.Op]++
	}
	for op, count := range counts {
		be.Metrics.AddPullPatchOps(string(op), count)
	}

	return res, nil
}

func lastMutationIDOf(ctx context.Context, tx database.Tx, clientID, clientGroupID string) (uint64, error) {
	client, err := tx.FindClientInfo(ctx, clientID)
	if errors.Is(err, database.ErrClientNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if err := client.CheckGroup(clientGroupID); err != nil {
		return 0, err
	}
	return client.LastMutationID, nil
}

// NewPatch converts the changes to patch operations. A full patch starts with
// a clear operation and omits deleted entities.
func NewPatch(changes *database.Changes, full bool) ([]types.PatchOp, error) {
	var patch []types.PatchOp
	if full {
		patch = append(patch, types.NewClearOp())
	}

	add := func(key string, deleted bool, value any) error {
		if deleted {
			if !full {
				patch = append(patch, types.NewDelOp(key))
			}
			return nil
		}

		op, err := types.NewPutOp(key, value)
		if err != nil {
			return err
		}
		patch = append(patch, op)
		return nil
	}

	for _, info := range changes.Boards {
		if err := add(info.Key(), info.Deleted, info.ToBoard()); err != nil {
			return nil, err
		}
	}
	for _, info := range changes.Columns {
		if err := add(info.Key(), info.Deleted, info.ToColumn()); err != nil {
			return nil, err
		}
	}
	for _, info := range changes.Tasks {
		if err := add(info.Key(), info.Deleted, info.ToTask()); err != nil {
			return nil, err
		}
	}

	return patch, nil
}
