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

// Package mutations implements Push which applies the mutations of clients
// to the database in order, exactly once per client.
package mutations

import (
	"context"
	"fmt"
	gotime "time"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/pkg/errors"
	"github.com/kanso-team/kanso/pkg/mutation"
	"github.com/kanso-team/kanso/server/backend"
	"github.com/kanso-team/kanso/server/backend/database"
	"github.com/kanso-team/kanso/server/backend/sync"
	"github.com/kanso-team/kanso/server/clients"
	"github.com/kanso-team/kanso/server/logging"
	"github.com/kanso-team/kanso/server/mutators"
	"github.com/kanso-team/kanso/server/profiling/prometheus"
)

var (
	// ErrMutationOutOfOrder is returned when a mutation id skips ahead of the
	// cursor of its client. The mutations before it stay applied.
	ErrMutationOutOfOrder = errors.FailedPrecond("mutation out of order").WithCode("ErrMutationOutOfOrder")

	// ErrTooManyMutations is returned when a push carries more mutations than
	// the server accepts at once.
	ErrTooManyMutations = errors.ResourceExhausted("too many mutations").WithCode("ErrTooManyMutations")

	// errMutatorFailed aborts the transaction of a mutation whose mutator
	// failed.
	errMutatorFailed = errors.New("mutator failed")
)

// Push applies the mutations of the request in order. A mutation already
// processed is skipped. A mutation whose mutator fails only advances the
// cursor of its client. Push stops at the first mutation that skips ahead of
// its cursor.
func Push(ctx context.Context, be *backend.Backend, req *types.PushRequest) error {
	start := gotime.Now()
	defer func() {
		be.Metrics.ObservePushResponseSeconds(gotime.Since(start).Seconds())
	}()

	if len(req.Mutations) > be.Config.MaxMutationsPerPush {
		return fmt.Errorf(
			"%d mutations, max %d: %w",
			len(req.Mutations),
			be.Config.MaxMutationsPerPush,
			ErrTooManyMutations,
		)
	}

	// 01. Ensure the client group of the profile.
	if err := clients.EnsureGroup(ctx, be.DB, req.ProfileID, req.ClientGroupID, req.SchemaVersion); err != nil {
		return err
	}
	if len(req.Mutations) == 0 {
		return nil
	}

	// 02. Serialize pushes of the same clients.
	keys := make([]sync.Key, 0, len(req.Mutations))
	for _, m := range req.Mutations {
		keys = append(keys, sync.ClientKey(m.ClientID))
	}
	unlock := be.Lockers.LockAll(keys)
	defer func() {
		if err := unlock(); err != nil {
			logging.From(ctx).Error(err)
		}
	}()

	// 03. Process the mutations one transaction each.
	counts := make(map[string]int)
	defer func() {
		for result, count := range counts {
			be.Metrics.AddPushMutations(result, count)
		}
	}()

	for _, m := range req.Mutations {
		result, err := processMutation(ctx, be, req, m)
		if err != nil {
			return err
		}
		counts[result]++
	}

	return nil
}

// processMutation applies a single mutation and returns how it was counted.
func processMutation(
	ctx context.Context,
	be *backend.Backend,
	req *types.PushRequest,
	m types.Mutation,
) (string, error) {
	var result string
	var mutatorErr error
	err := be.DB.RunTx(ctx, func(tx database.Tx) error {
		result, mutatorErr = "", nil

		client, err := clients.FindOrNew(ctx, tx, m.ClientID, req.ClientGroupID)
		if err != nil {
			return err
		}

		switch {
		case m.ID <= client.LastMutationID:
			result = prometheus.ResultSkipped
			return nil
		case m.ID > client.LastMutationID+1:
			return fmt.Errorf(
				"client %s: mutation %d after %d: %w",
				m.ClientID,
				m.ID,
				client.LastMutationID,
				ErrMutationOutOfOrder,
			)
		}

		mtx := mutators.NewTx(tx, req.ProfileID)
		if err := be.Mutators.Run(ctx, mtx, mutation.Name(m.Name), m.Args); err != nil {
			mutatorErr = err
			return errMutatorFailed
		}

		client.Advance(m.ID)
		if err := tx.UpsertClientInfo(ctx, client); err != nil {
			return err
		}
		result = prometheus.ResultApplied
		return nil
	})
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, errMutatorFailed) {
		return "", err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	logging.From(ctx).Warnf(
		"mutation %s#%d %s failed: %v",
		m.ClientID,
		m.ID,
		m.Name,
		mutatorErr,
	)

	// The mutation is dropped: only the cursor moves so that the client is not
	// stuck behind it.
	if err := be.DB.RunTx(ctx, func(tx database.Tx) error {
		client, err := clients.FindOrNew(ctx, tx, m.ClientID, req.ClientGroupID)
		if err != nil {
			return err
		}
		if m.ID <= client.LastMutationID {
			return nil
		}
		client.Advance(m.ID)
		return tx.UpsertClientInfo(ctx, client)
	}); err != nil {
		return "", err
	}

	return prometheus.ResultFailed, nil
}
