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

// Package database provides the database interface of the Kanso backend.
package database

import (
	"context"

	"github.com/kanso-team/kanso/pkg/errors"
)

var (
	// ErrClientNotFound is returned when the client could not be found.
	ErrClientNotFound = errors.NotFound("client not found").WithCode("ErrClientNotFound")

	// ErrClientGroupNotFound is returned when the client group could not be found.
	ErrClientGroupNotFound = errors.NotFound("client group not found").WithCode("ErrClientGroupNotFound")

	// ErrClientGroupAlreadyExists is returned when the client group already exists.
	ErrClientGroupAlreadyExists = errors.AlreadyExists("client group already exists").WithCode("ErrClientGroupAlreadyExists")

	// ErrClientGroupMismatch is returned when a client or a profile does not
	// own the client group of the request.
	ErrClientGroupMismatch = errors.PermissionDenied("client group mismatch").WithCode("ErrClientGroupMismatch")

	// ErrBoardNotFound is returned when the board could not be found.
	ErrBoardNotFound = errors.NotFound("board not found").WithCode("ErrBoardNotFound")

	// ErrColumnNotFound is returned when the column could not be found.
	ErrColumnNotFound = errors.NotFound("column not found").WithCode("ErrColumnNotFound")

	// ErrTaskNotFound is returned when the task could not be found.
	ErrTaskNotFound = errors.NotFound("task not found").WithCode("ErrTaskNotFound")

	// ErrColumnNameAlreadyExists is returned when a live column of the board
	// already has the name.
	ErrColumnNameAlreadyExists = errors.AlreadyExists("column name already exists").WithCode("ErrColumnNameAlreadyExists")
)

// Database represents the authoritative store of the server.
type Database interface {
	// Close all resources of this database.
	Close() error

	// Ping checks that the database is reachable.
	Ping(ctx context.Context) error

	// RunTx runs fn within a transaction of repeatable read isolation or
	// stronger. The transaction is committed if fn returns nil and rolled
	// back otherwise.
	RunTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is a transaction of the database. Entities are scoped by profile, and
// Find methods return soft-deleted entities too.
type Tx interface {
	// FindClientGroupInfo returns the client group of the given id.
	FindClientGroupInfo(ctx context.Context, clientGroupID string) (*ClientGroupInfo, error)

	// CreateClientGroupInfo creates a client group.
	CreateClientGroupInfo(ctx context.Context, info *ClientGroupInfo) error

	// FindClientInfo returns the cursor of the given client.
	FindClientInfo(ctx context.Context, clientID string) (*ClientInfo, error)

	// UpsertClientInfo creates or replaces the cursor of a client.
	UpsertClientInfo(ctx context.Context, info *ClientInfo) error

	// FindSpaceVersion returns the space version of the profile, 0 if the
	// profile never wrote anything.
	FindSpaceVersion(ctx context.Context, profileID string) (uint64, error)

	// UpdateSpaceVersion sets the space version of the profile.
	UpdateSpaceVersion(ctx context.Context, profileID string, version uint64) error

	// FindBoardInfo returns the board of the given id.
	FindBoardInfo(ctx context.Context, profileID, boardID string) (*BoardInfo, error)

	// FindColumnInfo returns the column of the given id.
	FindColumnInfo(ctx context.Context, profileID, columnID string) (*ColumnInfo, error)

	// FindTaskInfo returns the task of the given id.
	FindTaskInfo(ctx context.Context, profileID, taskID string) (*TaskInfo, error)

	// ListColumnInfos returns the live columns of a board.
	ListColumnInfos(ctx context.Context, profileID, boardID string) ([]*ColumnInfo, error)

	// ListTaskInfos returns the live tasks of a board.
	ListTaskInfos(ctx context.Context, profileID, boardID string) ([]*TaskInfo, error)

	// PutBoardInfo creates or replaces a board.
	PutBoardInfo(ctx context.Context, info *BoardInfo) error

	// PutColumnInfo creates or replaces a column.
	PutColumnInfo(ctx context.Context, info *ColumnInfo) error

	// PutTaskInfo creates or replaces a task.
	PutTaskInfo(ctx context.Context, info *TaskInfo) error

	// FindChangesSince returns the entities of the profile written after the
	// given space version, deleted ones included.
	FindChangesSince(ctx context.Context, profileID string, version uint64) (*Changes, error)
}
