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

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/client/mutationlog"
	"github.com/kanso-team/kanso/client/store"
	"github.com/kanso-team/kanso/pkg/mutation"
)

func TestInspect(t *testing.T) {
	st, err := store.Open(store.Config{Path: t.TempDir()})
	require.NoError(t, err)
	defer func() { assert.NoError(t, st.Close()) }()

	ids := []string{"group-1", "client-1"}
	require.NoError(t, st.Update(func(tx *store.Tx) error {
		_, clientID, err := mutationlog.Init(tx, "profile-1", "1", "", func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		})
		if err != nil {
			return err
		}

		log := mutationlog.New(clientID)
		if _, err := log.Append(tx, mutation.CreateBoardArgs{ID: "b1", Name: "Board"}); err != nil {
			return err
		}
		if _, err := log.Append(tx, mutation.UpdateBoardArgs{ID: "b1", Name: "Renamed"}); err != nil {
			return err
		}
		if _, err := log.Ack(tx, 1); err != nil {
			return err
		}
		return tx.PutJSON(types.BoardKey("b1"), types.Board{ID: "b1", Name: "Renamed"})
	}))

	inspection, err := inspect(st)
	require.NoError(t, err)
	assert.Equal(t, "profile-1", inspection.ClientGroup.ProfileID)
	assert.Equal(t, "group-1", inspection.ClientGroup.ClientGroupID)
	assert.Equal(t, "client-1", inspection.ClientID)
	assert.Equal(t, uint64(2), inspection.LastID)
	assert.Equal(t, uint64(1), inspection.LastAckedID)
	require.Len(t, inspection.Pending, 1)
	assert.Equal(t, string(mutation.UpdateBoard), inspection.Pending[0].Name)
	require.Len(t, inspection.Entries, 1)
	assert.Equal(t, types.BoardKey("b1"), inspection.Entries[0].Key)

	t.Run("table output test", func(t *testing.T) {
		buf := &bytes.Buffer{}
		require.NoError(t, printInspection(buf, "", inspection))
		assert.Contains(t, buf.String(), "client-1")
		assert.Contains(t, buf.String(), types.BoardKey("b1"))
		assert.Contains(t, buf.String(), string(mutation.UpdateBoard))
	})

	t.Run("json output test", func(t *testing.T) {
		buf := &bytes.Buffer{}
		require.NoError(t, printInspection(buf, "json", inspection))
		decoded := &Inspection{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), decoded))
		assert.Equal(t, inspection, decoded)
	})

	t.Run("yaml output test", func(t *testing.T) {
		buf := &bytes.Buffer{}
		require.NoError(t, printInspection(buf, "yaml", inspection))
		assert.Contains(t, buf.String(), "clientID: client-1")
	})

	t.Run("unknown output test", func(t *testing.T) {
		assert.Error(t, printInspection(&bytes.Buffer{}, "xml", inspection))
	})
}

func TestInspectUninitializedStore(t *testing.T) {
	st, err := store.Open(store.Config{Path: t.TempDir()})
	require.NoError(t, err)
	defer func() { assert.NoError(t, st.Close()) }()

	_, err = inspect(st)
	assert.ErrorIs(t, err, mutationlog.ErrNotInitialized)
}
