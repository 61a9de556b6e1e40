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

// Package memory implements the database interface using in-memory database.
package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-memdb"

	"github.com/kanso-team/kanso/server/backend/database"
)

// DB is an in-memory database for testing or temporarily.
type DB struct {
	db *memdb.MemDB
}

// New returns a new in-memory database.
func New() (*DB, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &DB{
		db: memDB,
	}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return nil
}

// Ping always succeeds.
func (d *DB) Ping(ctx context.Context) error {
	return ctx.Err()
}

// RunTx runs fn within a write transaction. memdb allows a single writer at
// a time, so transactions are serialized.
func (d *DB) RunTx(ctx context.Context, fn func(tx database.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := d.db.Txn(true)
	defer txn.Abort()

	if err := fn(&Tx{txn: txn}); err != nil {
		return err
	}

	txn.Commit()
	return nil
}

// spaceRecord holds the space version of a profile.
type spaceRecord struct {
	ProfileID string
	Version   uint64
}

// Tx is a transaction of the in-memory database.
type Tx struct {
	txn *memdb.Txn
}

// FindClientGroupInfo returns the client group of the given id.
func (t *Tx) FindClientGroupInfo(
	_ context.Context,
	clientGroupID string,
) (*database.ClientGroupInfo, error) {
	raw, err := t.txn.First(tblClientGroups, "id", clientGroupID)
	if err != nil {
		return nil, fmt.Errorf("find client group of %s: %w", clientGroupID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", clientGroupID, database.ErrClientGroupNotFound)
	}

	return raw.(*database.ClientGroupInfo).DeepCopy(), nil
}

// CreateClientGroupInfo creates a client group.
func (t *Tx) CreateClientGroupInfo(_ context.Context, info *database.ClientGroupInfo) error {
	raw, err := t.txn.First(tblClientGroups, "id", info.ID)
	if err != nil {
		return fmt.Errorf("find client group of %s: %w", info.ID, err)
	}
	if raw != nil {
		return fmt.Errorf("%s: %w", info.ID, database.ErrClientGroupAlreadyExists)
	}

	if err := t.txn.Insert(tblClientGroups, info.DeepCopy()); err != nil {
		return fmt.Errorf("insert client group of %s: %w", info.ID, err)
	}
	return nil
}

// FindClientInfo returns the cursor of the given client.
func (t *Tx) FindClientInfo(_ context.Context, clientID string) (*database.ClientInfo, error) {
	raw, err := t.txn.First(tblClients, "id", clientID)
	if err != nil {
		return nil, fmt.Errorf("find client of %s: %w", clientID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", clientID, database.ErrClientNotFound)
	}

	return raw.(*database.ClientInfo).DeepCopy(), nil
}

// UpsertClientInfo creates or replaces the cursor of a client.
func (t *Tx) UpsertClientInfo(_ context.Context, info *database.ClientInfo) error {
	if err := t.txn.Insert(tblClients, info.DeepCopy()); err != nil {
		return fmt.Errorf("upsert client of %s: %w", info.ID, err)
	}
	return nil
}

// FindSpaceVersion returns the space version of the profile.
func (t *Tx) FindSpaceVersion(_ context.Context, profileID string) (uint64, error) {
	raw, err := t.txn.First(tblSpaces, "id", profileID)
	if err != nil {
		return 0, fmt.Errorf("find space of %s: %w", profileID, err)
	}
	if raw == nil {
		return 0, nil
	}

	return raw.(*spaceRecord).Version, nil
}

// UpdateSpaceVersion sets the space version of the profile.
func (t *Tx) UpdateSpaceVersion(_ context.Context, profileID string, version uint64) error {
	if err := t.txn.Insert(tblSpaces, &spaceRecord{ProfileID: profileID, Version: version}); err != nil {
		return fmt.Errorf("update space of %s: %w", profileID, err)
	}
	return nil
}

// FindBoardInfo returns the board of the given id.
func (t *Tx) FindBoardInfo(_ context.Context, profileID, boardID string) (*database.BoardInfo, error) {
	raw, err := t.txn.First(tblBoards, "id", profileID, boardID)
	if err != nil {
		return nil, fmt.Errorf("find board of %s: %w", boardID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", boardID, database.ErrBoardNotFound)
	}

	return raw.(*database.BoardInfo).DeepCopy(), nil
}

// FindColumnInfo returns the column of the given id.
func (t *Tx) FindColumnInfo(_ context.Context, profileID, columnID string) (*database.ColumnInfo, error) {
	raw, err := t.txn.First(tblColumns, "id", profileID, columnID)
	if err != nil {
		return nil, fmt.Errorf("find column of %s: %w", columnID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", columnID, database.ErrColumnNotFound)
	}

	return raw.(*database.ColumnInfo).DeepCopy(), nil
}

// FindTaskInfo returns the task of the given id.
func (t *Tx) FindTaskInfo(_ context.Context, profileID, taskID string) (*database.TaskInfo, error) {
	raw, err := t.txn.First(tblTasks, "id", profileID, taskID)
	if err != nil {
		return nil, fmt.Errorf("find task of %s: %w", taskID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", taskID, database.ErrTaskNotFound)
	}

	return raw.(*database.TaskInfo).DeepCopy(), nil
}

// ListColumnInfos returns the live columns of a board ordered by position.
func (t *Tx) ListColumnInfos(
	_ context.Context,
	profileID, boardID string,
) ([]*database.ColumnInfo, error) {
	iter, err := t.txn.Get(tblColumns, "profile_id_board_id", profileID, boardID)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", boardID, err)
	}

	var infos []*database.ColumnInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		info := raw.(*database.ColumnInfo)
		if info.Deleted {
			continue
		}
		infos = append(infos, info.DeepCopy())
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].Position < infos[j].Position
	})
	return infos, nil
}

// ListTaskInfos returns the live tasks of a board ordered by position.
func (t *Tx) ListTaskInfos(
	_ context.Context,
	profileID, boardID string,
) ([]*database.TaskInfo, error) {
	iter, err := t.txn.Get(tblTasks, "profile_id_board_id", profileID, boardID)
	if err != nil {
		return nil, fmt.Errorf("list tasks of %s: %w", boardID, err)
	}

	var infos []*database.TaskInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		info := raw.(*database.TaskInfo)
		if info.Deleted {
			continue
		}
		infos = append(infos, info.DeepCopy())
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].Position < infos[j].Position
	})
	return infos, nil
}

// PutBoardInfo creates or replaces a board.
func (t *Tx) PutBoardInfo(_ context.Context, info *database.BoardInfo) error {
	if err := t.txn.Insert(tblBoards, info.DeepCopy()); err != nil {
		return fmt.Errorf("put board of %s: %w", info.ID, err)
	}
	return nil
}

// PutColumnInfo creates or replaces a column. A live column of the same
// board must not have the same name.
func (t *Tx) PutColumnInfo(_ context.Context, info *database.ColumnInfo) error {
	if !info.Deleted {
		iter, err := t.txn.Get(tblColumns, "profile_id_board_id", info.ProfileID, info.BoardID)
		if err != nil {
			return fmt.Errorf("put column of %s: %w", info.ID, err)
		}
		for raw := iter.Next(); raw != nil; raw = iter.Next() {
			other := raw.(*database.ColumnInfo)
			if other.ID != info.ID && !other.Deleted && other.Name == info.Name {
				return fmt.Errorf("%s: %w", info.Name, database.ErrColumnNameAlreadyExists)
			}
		}
	}

	if err := t.txn.Insert(tblColumns, info.DeepCopy()); err != nil {
		return fmt.Errorf("put column of %s: %w", info.ID, err)
	}
	return nil
}

// PutTaskInfo creates or replaces a task.
func (t *Tx) PutTaskInfo(_ context.Context, info *database.TaskInfo) error {
	if err := t.txn.Insert(tblTasks, info.DeepCopy()); err != nil {
		return fmt.Errorf("put task of %s: %w", info.ID, err)
	}
	return nil
}

// FindChangesSince returns the entities of the profile written after the
// given space version.
func (t *Tx) FindChangesSince(
	_ context.Context,
	profileID string,
	version uint64,
) (*database.Changes, error) {
	changes := &database.Changes{}

	boards, err := t.txn.Get(tblBoards, "profile_id", profileID)
	if err != nil {
		return nil, fmt.Errorf("find boards of %s: %w", profileID, err)
	}
	for raw := boards.Next(); raw != nil; raw = boards.Next() {
		if info := raw.(*database.BoardInfo); info.Version > version {
			changes.Boards = append(changes.Boards, info.DeepCopy())
		}
	}

	columns, err := t.txn.Get(tblColumns, "profile_id", profileID)
	if err != nil {
		return nil, fmt.Errorf("find columns of %s: %w", profileID, err)
	}
	for raw := columns.Next(); raw != nil; raw = columns.Next() {
		if info := raw.(*database.ColumnInfo); info.Version > version {
			changes.Columns = append(changes.Columns, info.DeepCopy())
		}
	}

	tasks, err := t.txn.Get(tblTasks, "profile_id", profileID)
	if err != nil {
		return nil, fmt.Errorf("find tasks of %s: %w", profileID, err)
	}
	for raw := tasks.Next(); raw != nil; raw = tasks.Next() {
		if info := raw.(*database.TaskInfo); info.Version > version {
			changes.Tasks = append(changes.Tasks, info.DeepCopy())
		}
	}

	return changes, nil
}
