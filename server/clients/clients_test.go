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

package clients_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanso-team/kanso/server/backend/database"
	"github.com/kanso-team/kanso/server/backend/database/memory"
	"github.com/kanso-team/kanso/server/clients"
)

func TestEnsureGroup(t *testing.T) {
	ctx := context.Background()
	db, err := memory.New()
	require.NoError(t, err)

	assert.NoError(t, clients.EnsureGroup(ctx, db, "p1", "g1", "1"))
	assert.NoError(t, clients.EnsureGroup(ctx, db, "p1", "g1", "1"))
	assert.ErrorIs(t, clients.EnsureGroup(ctx, db, "p2", "g1", "1"), database.ErrClientGroupMismatch)
}

func TestFindOrNew(t *testing.T) {
	ctx := context.Background()
	db, err := memory.New()
	require.NoError(t, err)

	assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
		client, err := clients.FindOrNew(ctx, tx, "c1", "g1")
		assert.NoError(t, err)
		assert.Equal(t, uint64(0), client.LastMutationID)

		client.Advance(2)
		return tx.UpsertClientInfo(ctx, client)
	}))

	assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
		client, err := clients.FindOrNew(ctx, tx, "c1", "g1")
		assert.NoError(t, err)
		assert.Equal(t, uint64(2), client.LastMutationID)

		_, err = clients.FindOrNew(ctx, tx, "c1", "g2")
		assert.ErrorIs(t, err, database.ErrClientGroupMismatch)
		return nil
	}))
}
