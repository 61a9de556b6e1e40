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

// Package sqlite implements the database interface using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	gotime "time"

	"github.com/mattn/go-sqlite3"

	"github.com/kanso-team/kanso/server/backend/database"
	"github.com/kanso-team/kanso/server/logging"
)

const (
	boardCols  = "profile_id, id, name, version, deleted"
	columnCols = "profile_id, id, board_id, name, position, version, deleted"
	taskCols   = "profile_id, id, board_id, column_id, title, body, position, version, deleted"
)

// DB is a database backed by a single SQLite file.
type DB struct {
	config *Config
	db     *sql.DB
}

// Open opens the database file and ensures its schema.
func Open(conf *Config) (*DB, error) {
	db, err := sql.Open("sqlite3", conf.dsn())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", conf.Path, err)
	}

	// SQLite has a single writer. One connection keeps transactions from
	// queueing on the file lock.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure sqlite schema: %w", err)
	}

	logging.DefaultLogger().Infof("SQLite opened, Path: %s", conf.Path)

	return &DB{
		config: conf,
		db:     db,
	}, nil
}

// Close closes the database file.
func (d *DB) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// Ping checks that the database file is usable.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// RunTx runs fn within a transaction.
func (d *DB) RunTx(ctx context.Context, fn func(tx database.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Tx is a transaction of the SQLite database.
type Tx struct {
	tx *sql.Tx
}

type scanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// FindClientGroupInfo returns the client group of the given id.
func (t *Tx) FindClientGroupInfo(
	ctx context.Context,
	clientGroupID string,
) (*database.ClientGroupInfo, error) {
	info := &database.ClientGroupInfo{}
	var createdAt int64
	err := t.tx.QueryRowContext(
		ctx,
		"SELECT id, profile_id, schema_version, created_at FROM client_groups WHERE id = ?",
		clientGroupID,
	).Scan(&info.ID, &info.ProfileID, &info.SchemaVersion, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", clientGroupID, database.ErrClientGroupNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find client group of %s: %w", clientGroupID, err)
	}

	info.CreatedAt = gotime.Unix(0, createdAt)
	return info, nil
}

// CreateClientGroupInfo creates a client group.
func (t *Tx) CreateClientGroupInfo(ctx context.Context, info *database.ClientGroupInfo) error {
	_, err := t.tx.ExecContext(
		ctx,
		"INSERT INTO client_groups (id, profile_id, schema_version, created_at) VALUES (?, ?, ?, ?)",
		info.ID, info.ProfileID, info.SchemaVersion, info.CreatedAt.UnixNano(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", info.ID, database.ErrClientGroupAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert client group of %s: %w", info.ID, err)
	}
	return nil
}

// FindClientInfo returns the cursor of the given client.
func (t *Tx) FindClientInfo(ctx context.Context, clientID string) (*database.ClientInfo, error) {
	info := &database.ClientInfo{}
	var lastMutationID, updatedAt int64
	err := t.tx.QueryRowContext(
		ctx,
		"SELECT id, client_group_id, last_mutation_id, updated_at FROM clients WHERE id = ?",
		clientID,
	).Scan(&info.ID, &info.ClientGroupID, &lastMutationID, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", clientID, database.ErrClientNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find client of %s: %w", clientID, err)
	}

	info.LastMutationID = uint64(lastMutationID)
	info.UpdatedAt = gotime.Unix(0, updatedAt)
	return info, nil
}

// UpsertClientInfo creates or replaces the cursor of a client.
func (t *Tx) UpsertClientInfo(ctx context.Context, info *database.ClientInfo) error {
	_, err := t.tx.ExecContext(
		ctx,
		`INSERT INTO clients (id, client_group_id, last_mutation_id, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			client_group_id = excluded.client_group_id,
			last_mutation_id = excluded.last_mutation_id,
			updated_at = excluded.updated_at`,
		info.ID, info.ClientGroupID, int64(info.LastMutationID), info.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert client of %s: %w", info.ID, err)
	}
	return nil
}

// FindSpaceVersion returns the space version of the profile.
func (t *Tx) FindSpaceVersion(ctx context.Context, profileID string) (uint64, error) {
	var version int64
	err := t.tx.QueryRowContext(
		ctx,
		"SELECT version FROM spaces WHERE profile_id = ?",
		profileID,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find space of %s: %w", profileID, err)
	}

	return uint64(version), nil
}

// UpdateSpaceVersion sets the space version of the profile.
func (t *Tx) UpdateSpaceVersion(ctx context.Context, profileID string, version uint64) error {
	_, err := t.tx.ExecContext(
		ctx,
		`INSERT INTO spaces (profile_id, version) VALUES (?, ?)
		ON CONFLICT (profile_id) DO UPDATE SET version = excluded.version`,
		profileID, int64(version),
	)
	if err != nil {
		return fmt.Errorf("update space of %s: %w", profileID, err)
	}
	return nil
}

func scanBoard(s scanner) (*database.BoardInfo, error) {
	info := &database.BoardInfo{}
	var version int64
	if err := s.Scan(&info.ProfileID, &info.ID, &info.Name, &version, &info.Deleted); err != nil {
		return nil, err
	}
	info.Version = uint64(version)
	return info, nil
}

func scanColumn(s scanner) (*database.ColumnInfo, error) {
	info := &database.ColumnInfo{}
	var version int64
	if err := s.Scan(
		&info.ProfileID, &info.ID, &info.BoardID, &info.Name,
		&info.Position, &version, &info.Deleted,
	); err != nil {
		return nil, err
	}
	info.Version = uint64(version)
	return info, nil
}

func scanTask(s scanner) (*database.TaskInfo, error) {
	info := &database.TaskInfo{}
	var version int64
	if err := s.Scan(
		&info.ProfileID, &info.ID, &info.BoardID, &info.ColumnID, &info.Title,
		&info.Body, &info.Position, &version, &info.Deleted,
	); err != nil {
		return nil, err
	}
	info.Version = uint64(version)
	return info, nil
}

// FindBoardInfo returns the board of the given id.
func (t *Tx) FindBoardInfo(ctx context.Context, profileID, boardID string) (*database.BoardInfo, error) {
	row := t.tx.QueryRowContext(
		ctx,
		"SELECT "+boardCols+" FROM boards WHERE profile_id = ? AND id = ?",
		profileID, boardID,
	)
	info, err := scanBoard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", boardID, database.ErrBoardNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find board of %s: %w", boardID, err)
	}
	return info, nil
}

// FindColumnInfo returns the column of the given id.
func (t *Tx) FindColumnInfo(ctx context.Context, profileID, columnID string) (*database.ColumnInfo, error) {
	row := t.tx.QueryRowContext(
		ctx,
		"SELECT "+columnCols+" FROM board_columns WHERE profile_id = ? AND id = ?",
		profileID, columnID,
	)
	info, err := scanColumn(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", columnID, database.ErrColumnNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find column of %s: %w", columnID, err)
	}
	return info, nil
}

// FindTaskInfo returns the task of the given id.
func (t *Tx) FindTaskInfo(ctx context.Context, profileID, taskID string) (*database.TaskInfo, error) {
	row := t.tx.QueryRowContext(
		ctx,
		"SELECT "+taskCols+" FROM tasks WHERE profile_id = ? AND id = ?",
		profileID, taskID,
	)
	info, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", taskID, database.ErrTaskNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find task of %s: %w", taskID, err)
	}
	return info, nil
}

// ListColumnInfos returns the live columns of a board ordered by position.
func (t *Tx) ListColumnInfos(
	ctx context.Context,
	profileID, boardID string,
) ([]*database.ColumnInfo, error) {
	rows, err := t.tx.QueryContext(
		ctx,
		"SELECT "+columnCols+" FROM board_columns WHERE profile_id = ? AND board_id = ? AND deleted = 0 ORDER BY position",
		profileID, boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", boardID, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var infos []*database.ColumnInfo
	for rows.Next() {
		info, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", boardID, err)
	}
	return infos, nil
}

// ListTaskInfos returns the live tasks of a board ordered by position.
func (t *Tx) ListTaskInfos(
	ctx context.Context,
	profileID, boardID string,
) ([]*database.TaskInfo, error) {
	rows, err := t.tx.QueryContext(
		ctx,
		"SELECT "+taskCols+" FROM tasks WHERE profile_id = ? AND board_id = ? AND deleted = 0 ORDER BY position",
		profileID, boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks of %s: %w", boardID, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var infos []*database.TaskInfo
	for rows.Next() {
		info, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks of %s: %w", boardID, err)
	}
	return infos, nil
}

// PutBoardInfo creates or replaces a board.
func (t *Tx) PutBoardInfo(ctx context.Context, info *database.BoardInfo) error {
	_, err := t.tx.ExecContext(
		ctx,
		`INSERT INTO boards (`+boardCols+`) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (profile_id, id) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			deleted = excluded.deleted`,
		info.ProfileID, info.ID, info.Name, int64(info.Version), info.Deleted,
	)
	if err != nil {
		return fmt.Errorf("put board of %s: %w", info.ID, err)
	}
	return nil
}

// PutColumnInfo creates or replaces a column. A live column of the same
// board must not have the same name.
func (t *Tx) PutColumnInfo(ctx context.Context, info *database.ColumnInfo) error {
	_, err := t.tx.ExecContext(
		ctx,
		`INSERT INTO board_columns (`+columnCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (profile_id, id) DO UPDATE SET
			board_id = excluded.board_id,
			name = excluded.name,
			position = excluded.position,
			version = excluded.version,
			deleted = excluded.deleted`,
		info.ProfileID, info.ID, info.BoardID, info.Name, info.Position, int64(info.Version), info.Deleted,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", info.Name, database.ErrColumnNameAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("put column of %s: %w", info.ID, err)
	}
	return nil
}

// PutTaskInfo creates or replaces a task.
func (t *Tx) PutTaskInfo(ctx context.Context, info *database.TaskInfo) error {
	_, err := t.tx.ExecContext(
		ctx,
		`INSERT INTO tasks (`+taskCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (profile_id, id) DO UPDATE SET
			board_id = excluded.board_id,
			column_id = excluded.column_id,
			title = excluded.title,
			body = excluded.body,
			position = excluded.position,
			version = excluded.version,
			deleted = excluded.deleted`,
		info.ProfileID, info.ID, info.BoardID, info.ColumnID, info.Title,
		info.Body, info.Position, int64(info.Version), info.Deleted,
	)
	if err != nil {
		return fmt.Errorf("put task of %s: %w", info.ID, err)
	}
	return nil
}

// FindChangesSince returns the entities of the profile written after the
// given space version.
func (t *Tx) FindChangesSince(
	ctx context.Context,
	profileID string,
	version uint64,
) (*database.Changes, error) {
	changes := &database.Changes{}

	if err := t.queryEach(ctx, "SELECT "+boardCols+" FROM boards WHERE profile_id = ? AND version > ?",
		profileID, version, func(s scanner) error {
			info, err := scanBoard(s)
			if err != nil {
				return err
			}
			changes.Boards = append(changes.Boards, info)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("find boards of %s: %w", profileID, err)
	}

	if err := t.queryEach(ctx, "SELECT "+columnCols+" FROM board_columns WHERE profile_id = ? AND version > ?",
		profileID, version, func(s scanner) error {
			info, err := scanColumn(s)
			if err != nil {
				return err
			}
			changes.Columns = append(changes.Columns, info)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("find columns of %s: %w", profileID, err)
	}

	if err := t.queryEach(ctx, "SELECT "+taskCols+" FROM tasks WHERE profile_id = ? AND version > ?",
		profileID, version, func(s scanner) error {
			info, err := scanTask(s)
			if err != nil {
				return err
			}
			changes.Tasks = append(changes.Tasks, info)
			return nil
		}); err != nil {
		return nil, fmt.Errorf("find tasks of %s: %w", profileID, err)
	}

	return changes, nil
}

func (t *Tx) queryEach(
	ctx context.Context,
	query string,
	profileID string,
	version uint64,
	fn func(s scanner) error,
) error {
	rows, err := t.tx.QueryContext(ctx, query, profileID, int64(version))
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
