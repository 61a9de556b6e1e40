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

package mutators_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/client/mutators"
	"github.com/kanso-team/kanso/client/store"
	"github.com/kanso-team/kanso/pkg/mutation"
)

func apply(t *testing.T, st *store.Store, args ...mutation.Args) error {
	registry := mutators.NewRegistry()
	return st.Update(func(tx *store.Tx) error {
		for _, a := range args {
			if err := registry.Apply(context.Background(), tx, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func columns(t *testing.T, st *store.Store, boardID string) []types.Column {
	var result []types.Column
	require.NoError(t, st.View(func(tx *store.Tx) error {
		var err error
		result, err = store.ScanJSON[types.Column](tx, types.ColumnsPrefix(boardID))
		return err
	}))
	return result
}

func tasks(t *testing.T, st *store.Store, boardID string) []types.Task {
	var result []types.Task
	require.NoError(t, st.View(func(tx *store.Tx) error {
		var err error
		result, err = store.ScanJSON[types.Task](tx, types.TasksPrefix(boardID))
		return err
	}))
	return result
}

func ptr[T any](v T) *T { return &v }

func TestMutators(t *testing.T) {
	t.Run("every name is registered test", func(t *testing.T) {
		assert.Equal(t, mutation.Names(), mutators.NewRegistry().Names())
	})

	t.Run("board and columns test", func(t *testing.T) {
		st, err := store.Open(store.InMemoryConfig())
		require.NoError(t, err)
		defer func() { assert.NoError(t, st.Close()) }()

		require.NoError(t, apply(t, st,
			mutation.CreateBoardArgs{ID: "b1", Name: "Home"},
			mutation.CreateColumnArgs{ID: "c1", BoardID: "b1", Name: "To Do"},
			mutation.CreateColumnArgs{ID: "c2", BoardID: "b1", Name: "Done"},
			mutation.UpdateColumnArgs{ID: "c2", BoardID: "b1", Name: "Finished"},
		))

		cols := columns(t, st, "b1")
		require.Len(t, cols, 2)
		assert.Equal(t, 1.0, cols[0].Position)
		assert.Equal(t, 2.0, cols[1].Position)
		assert.Equal(t, "Finished", cols[1].Name)

		// replaying a create keeps its position
		require.NoError(t, apply(t, st, mutation.CreateColumnArgs{ID: "c1", BoardID: "b1", Name: "To Do"}))
		assert.Equal(t, cols, columns(t, st, "b1"))

		err = apply(t, st, mutation.CreateColumnArgs{ID: "c3", BoardID: "b2", Name: "To Do"})
		assert.ErrorIs(t, err, mutators.ErrBoardNotFound)
	})

	t.Run("tasks test", func(t *testing.T) {
		st, err := store.Open(store.InMemoryConfig())
		require.NoError(t, err)
		defer func() { assert.NoError(t, st.Close()) }()

		require.NoError(t, apply(t, st,
			mutation.CreateBoardArgs{ID: "b1", Name: "Home"},
			mutation.CreateColumnArgs{ID: "c1", BoardID: "b1", Name: "To Do"},
			mutation.CreateColumnArgs{ID: "c2", BoardID: "b1", Name: "Done"},
			mutation.CreateTaskArgs{ID: "t1", BoardID: "b1", ColumnID: "c1", Title: "Milk"},
			mutation.CreateTaskArgs{ID: "t2", BoardID: "b1", ColumnID: "c1", Title: "Eggs", Position: ptr(0.5)},
			mutation.UpdateTaskArgs{ID: "t1", BoardID: "b1", Body: ptr("2 litres")},
			mutation.MoveTaskArgs{ID: "t2", BoardID: "b1", ColumnID: "c2", Position: 3},
		))

		ts := tasks(t, st, "b1")
		require.Len(t, ts, 2)
		assert.Equal(t, types.Task{ID: "t1", BoardID: "b1", ColumnID: "c1", Title: "Milk", Body: "2 litres", Position: 1}, ts[0])
		assert.Equal(t, "c2", ts[1].ColumnID)
		assert.Equal(t, 3.0, ts[1].Position)

		err = apply(t, st, mutation.MoveTaskArgs{ID: "t1", BoardID: "b1", ColumnID: "c9", Position: 1})
		assert.ErrorIs(t, err, mutators.ErrColumnNotFound)
		err = apply(t, st, mutation.UpdateTaskArgs{ID: "t9", BoardID: "b1", Title: ptr("x")})
		assert.ErrorIs(t, err, mutators.ErrTaskNotFound)

		require.NoError(t, apply(t, st, mutation.DeleteColumnArgs{ID: "c2", BoardID: "b1"}))
		ts = tasks(t, st, "b1")
		require.Len(t, ts, 1)
		assert.Equal(t, "t1", ts[0].ID)

		// deletes are idempotent
		require.NoError(t, apply(t, st, mutation.DeleteTaskArgs{ID: "t2", BoardID: "b1"}))
	})

	t.Run("delete board cascades test", func(t *testing.T) {
		st, err := store.Open(store.InMemoryConfig())
		require.NoError(t, err)
		defer func() { assert.NoError(t, st.Close()) }()

		require.NoError(t, apply(t, st,
			mutation.CreateBoardArgs{ID: "b1", Name: "Home"},
			mutation.CreateColumnArgs{ID: "c1", BoardID: "b1", Name: "To Do"},
			mutation.CreateTaskArgs{ID: "t1", BoardID: "b1", ColumnID: "c1", Title: "Milk"},
			mutation.DeleteBoardArgs{ID: "b1"},
		))

		assert.Empty(t, columns(t, st, "b1"))
		assert.Empty(t, tasks(t, st, "b1"))
		require.NoError(t, st.View(func(tx *store.Tx) error {
			ok, err := tx.Has(types.BoardKey("b1"))
			assert.False(t, ok)
			return err
		}))
	})
}
