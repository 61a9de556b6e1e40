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

// Package mutators implements the authoritative effect of every mutator
// against the server database. Deleted entities are kept as tombstones so
// that pulls can send their deletion.
package mutators

import (
	"context"
	"fmt"

	"github.com/kanso-team/kanso/pkg/mutation"
	"github.com/kanso-team/kanso/server/backend/database"
)

// NewRegistry returns the registry of the server mutators.
func NewRegistry() *mutation.Registry[*Tx] {
	r := mutation.NewRegistry[*Tx]()
	mutation.On(r, createBoard)
	mutation.On(r, updateBoard)
	mutation.On(r, deleteBoard)
	mutation.On(r, createColumn)
	mutation.On(r, updateColumn)
	mutation.On(r, deleteColumn)
	mutation.On(r, createTask)
	mutation.On(r, updateTask)
	mutation.On(r, moveTask)
	mutation.On(r, deleteTask)
	return r
}

// createBoard creates the board, or revives it if it was deleted.
func createBoard(ctx context.Context, tx *Tx, args mutation.CreateBoardArgs) error {
	return tx.putBoard(ctx, &database.BoardInfo{ID: args.ID, Name: args.Name})
}

func updateBoard(ctx context.Context, tx *Tx, args mutation.UpdateBoardArgs) error {
	board, err := liveBoard(ctx, tx, args.ID)
	if err != nil {
		return err
	}
	board.Name = args.Name
	return tx.putBoard(ctx, board)
}

func deleteBoard(ctx context.Context, tx *Tx, args mutation.DeleteBoardArgs) error {
	board, err := tx.FindBoardInfo(ctx, tx.ProfileID(), args.ID)
	if err != nil {
		return err
	}
	if board.Deleted {
		return nil
	}

	tasks, err := tx.ListTaskInfos(ctx, tx.ProfileID(), board.ID)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		task.Deleted = true
		if err := tx.putTask(ctx, task); err != nil {
			return err
		}
	}

	columns, err := tx.ListColumnInfos(ctx, tx.ProfileID(), board.ID)
	if err != nil {
		return err
	}
	for _, column := range columns {
		column.Deleted = true
		if err := tx.putColumn(ctx, column); err != nil {
			return err
		}
	}

	board.Deleted = true
	return tx.putBoard(ctx, board)
}

// createColumn creates the column. Live columns of a board have distinct
// names.
func createColumn(ctx context.Context, tx *Tx, args mutation.CreateColumnArgs) error {
	if _, err := liveBoard(ctx, tx, args.BoardID); err != nil {
		return err
	}

	columns, err := tx.ListColumnInfos(ctx, tx.ProfileID(), args.BoardID)
	if err != nil {
		return err
	}
	if err := checkColumnName(columns, args.ID, args.Name); err != nil {
		return err
	}

	column := &database.ColumnInfo{ID: args.ID, BoardID: args.BoardID, Name: args.Name}
	if args.Position != nil {
		column.Position = *args.Position
	} else {
		column.Position = nextPosition(len(columns), func(i int) float64 { return columns[i].Position })
	}
	return tx.putColumn(ctx, column)
}

func updateColumn(ctx context.Context, tx *Tx, args mutation.UpdateColumnArgs) error {
	column, err := liveColumn(ctx, tx, args.BoardID, args.ID)
	if err != nil {
		return err
	}

	columns, err := tx.ListColumnInfos(ctx, tx.ProfileID(), args.BoardID)
	if err != nil {
		return err
	}
	if err := checkColumnName(columns, args.ID, args.Name); err != nil {
		return err
	}

	column.Name = args.Name
	return tx.putColumn(ctx, column)
}

func deleteColumn(ctx context.Context, tx *Tx, args mutation.DeleteColumnArgs) error {
	column, err := tx.FindColumnInfo(ctx, tx.ProfileID(), args.ID)
	if err != nil {
		return err
	}
	if column.BoardID != args.BoardID {
		return fmt.Errorf("%s of board %s: %w", args.ID, args.BoardID, database.ErrColumnNotFound)
	}
	if column.Deleted {
		return nil
	}

	tasks, err := tx.ListTaskInfos(ctx, tx.ProfileID(), args.BoardID)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if task.ColumnID != column.ID {
			continue
		}
		task.Deleted = true
		if err := tx.putTask(ctx, task); err != nil {
			return err
		}
	}

	column.Deleted = true
	return tx.putColumn(ctx, column)
}

func createTask(ctx context.Context, tx *Tx, args mutation.CreateTaskArgs) error {
	if _, err := liveColumn(ctx, tx, args.BoardID, args.ColumnID); err != nil {
		return err
	}

	task := &database.TaskInfo{
		ID:       args.ID,
		BoardID:  args.BoardID,
		ColumnID: args.ColumnID,
		Title:    args.Title,
		Body:     args.Body,
	}
	if args.Position != nil {
		task.Position = *args.Position
	} else {
		tasks, err := tasksOfColumn(ctx, tx, args.BoardID, args.ColumnID, args.ID)
		if err != nil {
			return err
		}
		task.Position = nextPosition(len(tasks), func(i int) float64 { return tasks[i].Position })
	}
	return tx.putTask(ctx, task)
}

func updateTask(ctx context.Context, tx *Tx, args mutation.UpdateTaskArgs) error {
	task, err := liveTask(ctx, tx, args.BoardID, args.ID)
	if err != nil {
		return err
	}
	if args.Title != nil {
		task.Title = *args.Title
	}
	if args.Body != nil {
		task.Body = *args.Body
	}
	return tx.putTask(ctx, task)
}

func moveTask(ctx context.Context, tx *Tx, args mutation.MoveTaskArgs) error {
	task, err := liveTask(ctx, tx, args.BoardID, args.ID)
	if err != nil {
		return err
	}
	if _, err := liveColumn(ctx, tx, args.BoardID, args.ColumnID); err != nil {
		return err
	}
	task.ColumnID = args.ColumnID
	task.Position = args.Position
	return tx.putTask(ctx, task)
}

func deleteTask(ctx context.Context, tx *Tx, args mutation.DeleteTaskArgs) error {
	task, err := tx.FindTaskInfo(ctx, tx.ProfileID(), args.ID)
	if err != nil {
		return err
	}
	if task.BoardID != args.BoardID {
		return fmt.Errorf("%s of board %s: %w", args.ID, args.BoardID, database.ErrTaskNotFound)
	}
	if task.Deleted {
		return nil
	}
	task.Deleted = true
	return tx.putTask(ctx, task)
}

func liveBoard(ctx context.Context, tx *Tx, boardID string) (*database.BoardInfo, error) {
	board, err := tx.FindBoardInfo(ctx, tx.ProfileID(), boardID)
	if err != nil {
		return nil, err
	}
	if board.Deleted {
		return nil, fmt.Errorf("%s: deleted: %w", boardID, database.ErrBoardNotFound)
	}
	return board, nil
}

func liveColumn(ctx context.Context, tx *Tx, boardID, columnID string) (*database.ColumnInfo, error) {
	column, err := tx.FindColumnInfo(ctx, tx.ProfileID(), columnID)
	if err != nil {
		return nil, err
	}
	if column.Deleted || column.BoardID != boardID {
		return nil, fmt.Errorf("%s of board %s: %w", columnID, boardID, database.ErrColumnNotFound)
	}
	return column, nil
}

func liveTask(ctx context.Context, tx *Tx, boardID, taskID string) (*database.TaskInfo, error) {
	task, err := tx.FindTaskInfo(ctx, tx.ProfileID(), taskID)
	if err != nil {
		return nil, err
	}
	if task.Deleted || task.BoardID != boardID {
		return nil, fmt.Errorf("%s of board %s: %w", taskID, boardID, database.ErrTaskNotFound)
	}
	return task, nil
}

func checkColumnName(columns []*database.ColumnInfo, columnID, name string) error {
	for _, column := range columns {
		if column.ID != columnID && column.Name == name {
			return fmt.Errorf("%s: %w", name, database.ErrColumnNameAlreadyExists)
		}
	}
	return nil
}

// tasksOfColumn returns the live tasks of the given column except the given
// task.
func tasksOfColumn(
	ctx context.Context,
	tx *Tx,
	boardID, columnID, exceptID string,
) ([]*database.TaskInfo, error) {
	tasks, err := tx.ListTaskInfos(ctx, tx.ProfileID(), boardID)
	if err != nil {
		return nil, err
	}

	var result []*database.TaskInfo
	for _, task := range tasks {
		if task.ColumnID == columnID && task.ID != exceptID {
			result = append(result, task)
		}
	}
	return result, nil
}

// nextPosition returns a position after every given position.
func nextPosition(n int, position func(i int) float64) float64 {
	next := 1.0
	for i := 0; i < n; i++ {
		if p := position(i); p >= next {
			next = p + 1
		}
	}
	return next
}
