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

// Package testcases contains testcases for database. It is used by database
// implementations to test their own implementations with the same testcases.
package testcases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanso-team/kanso/server/backend/database"
)

var errRollback = errors.New("rollback")

// RunClientGroupTest runs the client group test for the given db.
func RunClientGroupTest(t *testing.T, db database.Database) {
	ctx := context.Background()
	profileID := t.Name()
	groupID := profileID + "-group"

	t.Run("create and find client group test", func(t *testing.T) {
		group := database.NewClientGroupInfo(groupID, profileID, "1")
		assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
			return tx.CreateClientGroupInfo(ctx, group)
		}))

		assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
			found, err := tx.FindClientGroupInfo(ctx, groupID)
			if err != nil {
				return err
			}
			assert.Equal(t, profileID, found.ProfileID)
			assert.Equal(t, "1", found.SchemaVersion)
			assert.NoError(t, found.CheckProfile(profileID))
			assert.ErrorIs(t, found.CheckProfile("other"), database.ErrClientGroupMismatch)
			return nil
		}))
	})

	t.Run("create duplicated client group test", func(t *testing.T) {
		err := db.RunTx(ctx, func(tx database.Tx) error {
			return tx.CreateClientGroupInfo(ctx, database.NewClientGroupInfo(groupID, profileID, "1"))
		})
		assert.ErrorIs(t, err, database.ErrClientGroupAlreadyExists)
	})

	t.Run("find missing client group test", func(t *testing.T) {
		err := db.RunTx(ctx, func(tx database.Tx) error {
			_, err := tx.FindClientGroupInfo(ctx, "missing")
			return err
		})
		assert.ErrorIs(t, err, database.ErrClientGroupNotFound)
	})
}

// RunClientInfoTest runs the client cursor test for the given db.
func RunClientInfoTest(t *testing.T, db database.Database) {
	ctx := context.Background()
	groupID := t.Name() + "-group"
	clientID := t.Name() + "-client"

	require.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
		return tx.CreateClientGroupInfo(ctx, database.NewClientGroupInfo(groupID, t.Name(), "1"))
	}))

	t.Run("find missing client test", func(t *testing.T) {
		err := db.RunTx(ctx, func(tx database.Tx) error {
			_, err := tx.FindClientInfo(ctx, clientID)
			return err
		})
		assert.ErrorIs(t, err, database.ErrClientNotFound)
	})

	t.Run("upsert client test", func(t *testing.T) {
		info := database.NewClientInfo(clientID, groupID)
		info.Advance(3)
		assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
			return tx.UpsertClientInfo(ctx, info)
		}))

		info.Advance(4)
		assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
			return tx.UpsertClientInfo(ctx, info)
		}))

		assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
			found, err := tx.FindClientInfo(ctx, clientID)
			if err != nil {
				return err
			}
			assert.Equal(t, uint64(4), found.LastMutationID)
			assert.NoError(t, found.CheckGroup(groupID))
			assert.ErrorIs(t, found.CheckGroup("other"), database.ErrClientGroupMismatch)
			return nil
		}))
	})
}

// RunSpaceVersionTest runs the space version test for the given db.
func RunSpaceVersionTest(t *testing.T, db database.Database) {
	ctx := context.Background()
	profileID := t.Name()

	assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
		version, err := tx.FindSpaceVersion(ctx, profileID)
		if err != nil {
			return err
		}
		assert.Equal(t, uint64(0), version)
		return tx.UpdateSpaceVersion(ctx, profileID, 7)
	}))

	assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
		version, err := tx.FindSpaceVersion(ctx, profileID)
		if err != nil {
			return err
		}
		assert.Equal(t, uint64(7), version)
		return nil
	}))
}

// RunRollbackTest checks that a failed transaction leaves no writes behind.
func RunRollbackTest(t *testing.T, db database.Database) {
	ctx := context.Background()
	profileID := t.Name()

	err := db.RunTx(ctx, func(tx database.Tx) error {
		if err := tx.PutBoardInfo(ctx, &database.BoardInfo{
			ProfileID: profileID, ID: "b1", Name: "Board", Version: 1,
		}); err != nil {
			return err
		}
		if err := tx.UpdateSpaceVersion(ctx, profileID, 1); err != nil {
			return err
		}
		return errRollback
	})
	assert.ErrorIs(t, err, errRollback)

	assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
		_, err := tx.FindBoardInfo(ctx, profileID, "b1")
		assert.ErrorIs(t, err, database.ErrBoardNotFound)

		version, err := tx.FindSpaceVersion(ctx, profileID)
		assert.NoError(t, err)
		assert.Equal(t, uint64(0), version)
		return nil
	}))
}

// RunEntityTest runs the board, column and task test for the given db.
func RunEntityTest(t *testing.T, db database.Database) {
	ctx := context.Background()
	profileID := t.Name()

	require.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
		if err := tx.PutBoardInfo(ctx, &database.BoardInfo{
			ProfileID: profileID, ID: "b1", Name: "Board", Version: 1,
		}); err != nil {
			return err
		}
		for _, col := range []*database.ColumnInfo{
			{ProfileID: profileID, ID: "c2", BoardID: "b1", Name: "Doing", Position: 2, Version: 1},
			{ProfileID: profileID, ID: "c1", BoardID: "b1", Name: "Todo", Position: 1, Version: 1},
			{ProfileID: profileID, ID: "c3", BoardID: "b1", Name: "Gone", Position: 3, Version: 1, Deleted: true},
		} {
			if err := tx.PutColumnInfo(ctx, col); err != nil {
				return err
			}
		}
		for _, task := range []*database.TaskInfo{
			{ProfileID: profileID, ID: "t1", BoardID: "b1", ColumnID: "c1", Title: "A", Position: 1, Version: 1},
			{ProfileID: profileID, ID: "t2", BoardID: "b1", ColumnID: "c1", Title: "B", Position: 2, Version: 1},
		} {
			if err := tx.PutTaskInfo(ctx, task); err != nil {
				return err
			}
		}
		return nil
	}))

	t.Run("find entities test", func(t *testing.T) {
		assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
			board, err := tx.FindBoardInfo(ctx, profileID, "b1")
			assert.NoError(t, err)
			assert.Equal(t, "Board", board.Name)

			col, err := tx.FindColumnInfo(ctx, profileID, "c3")
			assert.NoError(t, err)
			assert.True(t, col.Deleted)

			task, err := tx.FindTaskInfo(ctx, profileID, "t2")
			assert.NoError(t, err)
			assert.Equal(t, "B", task.Title)

			_, err = tx.FindTaskInfo(ctx, profileID, "t9")
			assert.ErrorIs(t, err, database.ErrTaskNotFound)
			_, err = tx.FindColumnInfo(ctx, profileID, "c9")
			assert.ErrorIs(t, err, database.ErrColumnNotFound)

			_, err = tx.FindBoardInfo(ctx, "other-profile", "b1")
			assert.ErrorIs(t, err, database.ErrBoardNotFound)
			return nil
		}))
	})

	t.Run("list live entities test", func(t *testing.T) {
		assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
			cols, err := tx.ListColumnInfos(ctx, profileID, "b1")
			assert.NoError(t, err)
			if assert.Len(t, cols, 2) {
				assert.Equal(t, "c1", cols[0].ID)
				assert.Equal(t, "c2", cols[1].ID)
			}

			tasks, err := tx.ListTaskInfos(ctx, profileID, "b1")
			assert.NoError(t, err)
			assert.Len(t, tasks, 2)
			return nil
		}))
	})

	t.Run("put replaces entity test", func(t *testing.T) {
		assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
			return tx.PutTaskInfo(ctx, &database.TaskInfo{
				ProfileID: profileID, ID: "t2", BoardID: "b1", ColumnID: "c2",
				Title: "B2", Position: 5, Version: 2, Deleted: true,
			})
		}))

		assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
			task, err := tx.FindTaskInfo(ctx, profileID, "t2")
			assert.NoError(t, err)
			assert.Equal(t, "B2", task.Title)
			assert.Equal(t, "c2", task.ColumnID)
			assert.True(t, task.Deleted)

			tasks, err := tx.ListTaskInfos(ctx, profileID, "b1")
			assert.NoError(t, err)
			assert.Len(t, tasks, 1)
			return nil
		}))
	})
}

// RunColumnNameTest checks that live columns of a board have distinct names.
func RunColumnNameTest(t *testing.T, db database.Database) {
	ctx := context.Background()
	profileID := t.Name()

	require.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
		return tx.PutColumnInfo(ctx, &database.ColumnInfo{
			ProfileID: profileID, ID: "c1", BoardID: "b1", Name: "Todo", Position: 1, Version: 1,
		})
	}))

	err := db.RunTx(ctx, func(tx database.Tx) error {
		return tx.PutColumnInfo(ctx, &database.ColumnInfo{
			ProfileID: profileID, ID: "c2", BoardID: "b1", Name: "Todo", Position: 2, Version: 2,
		})
	})
	assert.ErrorIs(t, err, database.ErrColumnNameAlreadyExists)

	// the same name on another board is fine
	assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
		return tx.PutColumnInfo(ctx, &database.ColumnInfo{
			ProfileID: profileID, ID: "c3", BoardID: "b2", Name: "Todo", Position: 1, Version: 2,
		})
	}))

	// a tombstone frees the name
	assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
		if err := tx.PutColumnInfo(ctx, &database.ColumnInfo{
			ProfileID: profileID, ID: "c1", BoardID: "b1", Name: "Todo", Position: 1, Version: 3, Deleted: true,
		}); err != nil {
			return err
		}
		return tx.PutColumnInfo(ctx, &database.ColumnInfo{
			ProfileID: profileID, ID: "c2", BoardID: "b1", Name: "Todo", Position: 2, Version: 3,
		})
	}))
}

// RunFindChangesSinceTest runs the FindChangesSince test for the given db.
func RunFindChangesSinceTest(t *testing.T, db database.Database) {
	ctx := context.Background()
	profileID := t.Name()

	require.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
		if err := tx.PutBoardInfo(ctx, &database.BoardInfo{
			ProfileID: profileID, ID: "b1", Name: "One", Version: 1,
		}); err != nil {
			return err
		}
		if err := tx.PutBoardInfo(ctx, &database.BoardInfo{
			ProfileID: profileID, ID: "b2", Name: "Two", Version: 2, Deleted: true,
		}); err != nil {
			return err
		}
		if err := tx.PutColumnInfo(ctx, &database.ColumnInfo{
			ProfileID: profileID, ID: "c1", BoardID: "b1", Name: "Todo", Position: 1, Version: 3,
		}); err != nil {
			return err
		}
		if err := tx.PutTaskInfo(ctx, &database.TaskInfo{
			ProfileID: profileID, ID: "t1", BoardID: "b1", ColumnID: "c1", Title: "T", Position: 1, Version: 1,
		}); err != nil {
			return err
		}
		return tx.PutBoardInfo(ctx, &database.BoardInfo{
			ProfileID: "other-" + profileID, ID: "b3", Name: "Other", Version: 5,
		})
	}))

	assert.NoError(t, db.RunTx(ctx, func(tx database.Tx) error {
		changes, err := tx.FindChangesSince(ctx, profileID, 0)
		assert.NoError(t, err)
		assert.Equal(t, 4, changes.Len())

		changes, err = tx.FindChangesSince(ctx, profileID, 1)
		assert.NoError(t, err)
		if assert.Len(t, changes.Boards, 1) {
			assert.Equal(t, "b2", changes.Boards[0].ID)
			assert.True(t, changes.Boards[0].Deleted)
		}
		assert.Len(t, changes.Columns, 1)
		assert.Empty(t, changes.Tasks)

		changes, err = tx.FindChangesSince(ctx, profileID, 3)
		assert.NoError(t, err)
		assert.Equal(t, 0, changes.Len())
		return nil
	}))
}
