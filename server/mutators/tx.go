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

package mutators

import (
	"context"

	"github.com/kanso-team/kanso/server/backend/database"
)

// Tx is a database transaction bound to the profile of a push. The space
// version of the profile is bumped once, on the first write, and every row
// written by the transaction is stamped with it.
type Tx struct {
	database.Tx

	profileID string
	version   uint64
}

// NewTx binds the given transaction to the profile.
func NewTx(tx database.Tx, profileID string) *Tx {
	return &Tx{Tx: tx, profileID: profileID}
}

// ProfileID returns the profile the transaction writes to.
func (t *Tx) ProfileID() string {
	return t.profileID
}

// Version returns the space version stamped by this transaction, 0 if it did
// not write yet.
func (t *Tx) Version() uint64 {
	return t.version
}

// writeVersion returns the version to stamp on written rows.
func (t *Tx) writeVersion(ctx context.Context) (uint64, error) {
	if t.version != 0 {
		return t.version, nil
	}

	current, err := t.Tx.FindSpaceVersion(ctx, t.profileID)
	if err != nil {
		return 0, err
	}
	if err := t.Tx.UpdateSpaceVersion(ctx, t.profileID, current+1); err != nil {
		return 0, err
	}
	t.version = current + 1
	return t.version, nil
}

func (t *Tx) putBoard(ctx context.Context, info *database.BoardInfo) error {
	version, err := t.writeVersion(ctx)
	if err != nil {
		return err
	}
	info.ProfileID = t.profileID
	info.Version = version
	return t.Tx.PutBoardInfo(ctx, info)
}

func (t *Tx) putColumn(ctx context.Context, info *database.ColumnInfo) error {
	version, err := t.writeVersion(ctx)
	if err != nil {
		return err
	}
	info.ProfileID = t.profileID
	info.Version = version
	return t.Tx.PutColumnInfo(ctx, info)
}

func (t *Tx) putTask(ctx context.Context, info *database.TaskInfo) error {
	version, err := t.writeVersion(ctx)
	if err != nil {
		return err
	}
	info.ProfileID = t.profileID
	info.Version = version
	return t.Tx.PutTaskInfo(ctx, info)
}
