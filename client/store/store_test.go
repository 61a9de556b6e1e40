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

package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/client/store"
)

func openStore(t *testing.T) *store.Store {
	st, err := store.Open(store.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, st.Close()) })
	return st
}

func TestStore(t *testing.T) {
	t.Run("put get delete test", func(t *testing.T) {
		st := openStore(t)

		require.NoError(t, st.Update(func(tx *store.Tx) error {
			return tx.PutJSON(types.BoardKey("b1"), types.Board{ID: "b1", Name: "Home"})
		}))

		require.NoError(t, st.View(func(tx *store.Tx) error {
			board := types.Board{}
			require.NoError(t, tx.GetJSON(types.BoardKey("b1"), &board))
			assert.Equal(t, "Home", board.Name)

			ok, err := tx.Has(types.BoardKey("b2"))
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = tx.Get(types.BoardKey("b2"))
			assert.ErrorIs(t, err, store.ErrKeyNotFound)
			return nil
		}))

		require.NoError(t, st.Update(func(tx *store.Tx) error {
			return tx.Delete(types.BoardKey("b1"))
		}))
		require.NoError(t, st.View(func(tx *store.Tx) error {
			_, err := tx.Get(types.BoardKey("b1"))
			assert.ErrorIs(t, err, store.ErrKeyNotFound)
			return nil
		}))
	})

	t.Run("prefix scan test", func(t *testing.T) {
		st := openStore(t)

		require.NoError(t, st.Update(func(tx *store.Tx) error {
			for _, col := range []types.Column{
				{ID: "c2", BoardID: "b1", Name: "Doing", Position: 2},
				{ID: "c1", BoardID: "b1", Name: "To Do", Position: 1},
				{ID: "c1", BoardID: "b10", Name: "Other", Position: 1},
			} {
				if err := tx.PutJSON(types.ColumnKey(col.BoardID, col.ID), col); err != nil {
					return err
				}
			}
			return nil
		}))

		require.NoError(t, st.View(func(tx *store.Tx) error {
			columns, err := store.ScanJSON[types.Column](tx, types.ColumnsPrefix("b1"))
			require.NoError(t, err)
			require.Len(t, columns, 2)
			assert.Equal(t, "c1", columns[0].ID)
			assert.Equal(t, "c2", columns[1].ID)

			keys, err := tx.Keys(types.ColumnPrefix)
			require.NoError(t, err)
			assert.Len(t, keys, 3)
			return nil
		}))

		require.NoError(t, st.Update(func(tx *store.Tx) error {
			n, err := tx.DeletePrefix(types.ColumnsPrefix("b1"))
			assert.Equal(t, 2, n)
			return err
		}))
		require.NoError(t, st.View(func(tx *store.Tx) error {
			keys, err := tx.Keys(types.ColumnPrefix)
			assert.Equal(t, []string{types.ColumnKey("b10", "c1")}, keys)
			return err
		}))
	})

	t.Run("commit hooks test", func(t *testing.T) {
		st := openStore(t)

		commits := 0
		st.OnCommit(func() { commits++ })

		require.NoError(t, st.Update(func(tx *store.Tx) error {
			require.NoError(t, tx.Put("board/b1", []byte(`{}`)))
			return tx.Put("board/b2", []byte(`{}`))
		}))
		assert.Equal(t, 1, commits)

		// no write, no hook
		require.NoError(t, st.Update(func(tx *store.Tx) error { return nil }))
		assert.Equal(t, 1, commits)

		// a failed update is discarded
		assert.Error(t, st.Update(func(tx *store.Tx) error {
			require.NoError(t, tx.Put("board/b3", []byte(`{}`)))
			return store.ErrReadOnly
		}))
		assert.Equal(t, 1, commits)
		require.NoError(t, st.View(func(tx *store.Tx) error {
			ok, err := tx.Has("board/b3")
			assert.False(t, ok)
			return err
		}))

		assert.ErrorIs(t, st.View(func(tx *store.Tx) error {
			return tx.Put("board/b4", nil)
		}), store.ErrReadOnly)
	})

	t.Run("persistent store test", func(t *testing.T) {
		dir := t.TempDir()

		st, err := store.Open(store.Config{Path: dir})
		require.NoError(t, err)
		require.NoError(t, st.Update(func(tx *store.Tx) error {
			return tx.Put("~meta/cookie", []byte("7"))
		}))
		require.NoError(t, st.Close())

		st, err = store.Open(store.Config{Path: dir})
		require.NoError(t, err)
		defer func() { assert.NoError(t, st.Close()) }()
		require.NoError(t, st.View(func(tx *store.Tx) error {
			value, err := tx.Get("~meta/cookie")
			assert.Equal(t, []byte("7"), value)
			return err
		}))

		_, err = store.Open(store.Config{})
		assert.Error(t, err)
	})
}
