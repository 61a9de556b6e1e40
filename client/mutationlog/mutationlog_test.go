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

package mutationlog_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/client/mutationlog"
	"github.com/kanso-team/kanso/client/store"
	"github.com/kanso-team/kanso/pkg/mutation"
)

func sequence() func() string {
	n := 0
	return func() string {
		n++
		return "id" + strconv.Itoa(n)
	}
}

func TestInit(t *testing.T) {
	st, err := store.Open(store.InMemoryConfig())
	require.NoError(t, err)
	defer func() { assert.NoError(t, st.Close()) }()

	newID := sequence()

	var group types.ClientGroup
	var clientID string
	require.NoError(t, st.Update(func(tx *store.Tx) error {
		_, err := mutationlog.ClientGroup(tx)
		assert.ErrorIs(t, err, mutationlog.ErrNotInitialized)
		_, err = mutationlog.ClientID(tx)
		assert.ErrorIs(t, err, mutationlog.ErrNotInitialized)

		group, clientID, err = mutationlog.Init(tx, "p1", "1", "", newID)
		return err
	}))
	assert.Equal(t, "id1", group.ClientGroupID)
	assert.Equal(t, "p1", group.ProfileID)
	assert.Equal(t, "id2", clientID)
	require.NoError(t, st.View(func(tx *store.Tx) error {
		stored, err := mutationlog.ClientID(tx)
		assert.Equal(t, clientID, stored)
		return err
	}))

	// the group is never recreated
	require.NoError(t, st.Update(func(tx *store.Tx) error {
		again, againClientID, err := mutationlog.Init(tx, "p1", "1", "", newID)
		assert.Equal(t, group, again)
		assert.Equal(t, clientID, againClientID)
		return err
	}))

	assert.ErrorIs(t, st.Update(func(tx *store.Tx) error {
		_, _, err := mutationlog.Init(tx, "p2", "1", "", newID)
		return err
	}), mutationlog.ErrProfileMismatch)

	require.NoError(t, st.Update(func(tx *store.Tx) error {
		_, same, err := mutationlog.Init(tx, "p1", "1", clientID, newID)
		assert.Equal(t, clientID, same)
		return err
	}))
	assert.ErrorIs(t, st.Update(func(tx *store.Tx) error {
		_, _, err := mutationlog.Init(tx, "p1", "1", "tab-2", newID)
		return err
	}), mutationlog.ErrClientIDMismatch)
}

func TestInitWithClientID(t *testing.T) {
	st, err := store.Open(store.InMemoryConfig())
	require.NoError(t, err)
	defer func() { assert.NoError(t, st.Close()) }()

	require.NoError(t, st.Update(func(tx *store.Tx) error {
		_, clientID, err := mutationlog.Init(tx, "p1", "1", "tab-1", sequence())
		assert.Equal(t, "tab-1", clientID)
		return err
	}))

	// later sessions without an override keep the persisted id
	require.NoError(t, st.Update(func(tx *store.Tx) error {
		_, clientID, err := mutationlog.Init(tx, "p1", "1", "", sequence())
		assert.Equal(t, "tab-1", clientID)
		return err
	}))
}

func TestLog(t *testing.T) {
	st, err := store.Open(store.InMemoryConfig())
	require.NoError(t, err)
	defer func() { assert.NoError(t, st.Close()) }()

	log := mutationlog.New("c1")
	assert.Equal(t, "c1", log.ClientID())

	t.Run("append assigns increasing ids test", func(t *testing.T) {
		require.NoError(t, st.Update(func(tx *store.Tx) error {
			for i := 1; i <= 12; i++ {
				m, err := log.Append(tx, mutation.CreateBoardArgs{ID: "b" + strconv.Itoa(i), Name: "Board"})
				require.NoError(t, err)
				assert.Equal(t, uint64(i), m.ID)
				assert.Equal(t, "c1", m.ClientID)
				assert.Equal(t, string(mutation.CreateBoard), m.Name)
			}
			return nil
		}))

		require.NoError(t, st.View(func(tx *store.Tx) error {
			pending, err := log.Pending(tx, 0)
			require.NoError(t, err)
			require.Len(t, pending, 12)
			for i, m := range pending {
				assert.Equal(t, uint64(i+1), m.ID)
			}

			pending, err = log.Pending(tx, 10)
			require.NoError(t, err)
			assert.Len(t, pending, 2)

			lastID, err := log.LastID(tx)
			assert.Equal(t, uint64(12), lastID)
			return err
		}))
	})

	t.Run("invalid args are not appended test", func(t *testing.T) {
		assert.ErrorIs(t, st.Update(func(tx *store.Tx) error {
			_, err := log.Append(tx, mutation.CreateBoardArgs{ID: "b1"})
			return err
		}), mutation.ErrInvalidArgs)
	})

	t.Run("prune and ack test", func(t *testing.T) {
		require.NoError(t, st.Update(func(tx *store.Tx) error {
			pruned, err := log.Prune(tx, 10)
			require.NoError(t, err)
			assert.Equal(t, 10, pruned)

			moved, err := log.Ack(tx, 10)
			require.NoError(t, err)
			assert.True(t, moved)

			moved, err = log.Ack(tx, 4)
			require.NoError(t, err)
			assert.False(t, moved)
			return nil
		}))

		require.NoError(t, st.Update(func(tx *store.Tx) error {
			acked, err := log.LastAckedID(tx)
			require.NoError(t, err)
			assert.Equal(t, uint64(10), acked)

			n, err := log.Len(tx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			// ids keep growing after pruning
			m, err := log.Append(tx, mutation.DeleteBoardArgs{ID: "b1"})
			require.NoError(t, err)
			assert.Equal(t, uint64(13), m.ID)
			return nil
		}))
	})

	t.Run("cookie test", func(t *testing.T) {
		require.NoError(t, st.Update(func(tx *store.Tx) error {
			cookie, err := log.Cookie(tx)
			require.NoError(t, err)
			assert.Equal(t, uint64(0), cookie)
			return log.SetCookie(tx, 42)
		}))
		require.NoError(t, st.View(func(tx *store.Tx) error {
			cookie, err := log.Cookie(tx)
			assert.Equal(t, uint64(42), cookie)
			return err
		}))
	})
}
