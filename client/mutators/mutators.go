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

// Package mutators implements the optimistic effect of every mutator against
// the local store. Handlers are idempotent so that pending mutations can be
// replayed on top of a pulled patch.
package mutators

import (
	"context"
	"errors"
	"fmt"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/client/store"
	"github.com/kanso-team/kanso/pkg/mutation"
)

var (
	// ErrBoardNotFound is returned when the board of a mutation is missing
	// locally.
	ErrBoardNotFound = errors.New("board not found")

	// ErrColumnNotFound is returned when the column of a mutation is missing
	// locally.
	ErrColumnNotFound = errors.New("column not found")

	// ErrTaskNotFound is returned when the task of a mutation is missing
	// locally.
	ErrTaskNotFound = errors.New("task not found")
)

// NewRegistry returns the registry of the client mutators.
func NewRegistry() *mutation.Registry[*store.Tx] {
	r := mutation.NewRegistry[*store.Tx]()
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

func createBoard(_ context.Context, tx *store.Tx, args mutation.CreateBoardArgs) error {
	return tx.PutJSON(types.BoardKey(args.ID), types.Board{ID: args.ID, Name: args.Name})
}

func updateBoard(_ context.Context, tx *store.Tx, args mutation.UpdateBoardArgs) error {
	board, err := findBoard(tx, args.ID)
	if err != nil {
		return err
	}
	board.Name = args.Name
	return tx.PutJSON(types.BoardKey(board.ID), board)
}

func deleteBoard(_ context.Context, tx *store.Tx, args mutation.DeleteBoardArgs) error {
	if _, err := tx.DeletePrefix(types.TasksPrefix(args.ID)); err != nil {
		return err
	}
	if _, err := tx.DeletePrefix(types.ColumnsPrefix(args.ID)); err != nil {
		return err
	}
	return tx.Delete(types.BoardKey(args.ID))
}

func createColumn(_ context.Context, tx *store.Tx, args mutation.CreateColumnArgs) error {
	if _, err := findBoard(tx, args.BoardID); err != nil {
		return err
	}

	column := types.Column{ID: args.ID, BoardID: args.BoardID, Name: args.Name}
	switch existing, err := findColumn(tx, args.BoardID, args.ID); {
	case args.Position != nil:
		column.Position = *args.Position
	case err == nil:
		// replayed: keep the position assigned the first time
		column.Position = existing.Position
	case errors.Is(err, ErrColumnNotFound):
		columns, err := store.ScanJSON[types.Column](tx, types.ColumnsPrefix(args.BoardID))
		if err != nil {
			return err
		}
		column.Position = nextPosition(len(columns), func(i int) float64 { return columns[i].Position })
	default:
		return err
	}

	return tx.PutJSON(types.ColumnKey(column.BoardID, column.ID), column)
}

func updateColumn(_ context.Context, tx *store.Tx, args mutation.UpdateColumnArgs) error {
	column, err := findColumn(tx, args.BoardID, args.ID)
	if err != nil {
		return err
	}
	column.Name = args.Name
	return tx.PutJSON(types.ColumnKey(column.BoardID, column.ID), column)
}

func deleteColumn(_ context.Context, tx *store.Tx, args mutation.DeleteColumnArgs) error {
	tasks, err := store.ScanJSON[types.Task](tx, types.TasksPrefix(args.BoardID))
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if task.ColumnID != args.ID {
			continue
		}
		if err := tx.Delete(types.TaskKey(task.BoardID, task.ID)); err != nil {
			return err
		}
	}
	return tx.Delete(types.ColumnKey(args.BoardID, args.ID))
}

func createTask(_ context.Context, tx *store.Tx, args mutation.CreateTaskArgs) error {
	if _, err := findColumn(tx, args.BoardID, args.ColumnID); err != nil {
		return err
	}

	task := types.Task{
		ID:       args.ID,
		BoardID:  args.BoardID,
		ColumnID: args.ColumnID,
		Title:    args.Title,
		Body:     args.Body,
	}
	switch existing, err := findTask(tx, args.BoardID, args.ID); {
	case args.Position != nil:
		task.Position = *args.Position
	case err == nil && existing.ColumnID == args.ColumnID:
		task.Position = existing.Position
	case err == nil || errors.Is(err, ErrTaskNotFound):
		tasks, err := tasksOfColumn(tx, args.BoardID, args.ColumnID, args.ID)
		if err != nil {
			return err
		}
		task.Position = nextPosition(len(tasks), func(i int) float64 { return tasks[i].Position })
	default:
		return err
	}

	return tx.PutJSON(types.TaskKey(task.BoardID, task.ID), task)
}

func updateTask(_ context.Context, tx *store.Tx, args mutation.UpdateTaskArgs) error {
	task, err := findTask(tx, args.BoardID, args.ID)
	if err != nil {
		return err
	}
	if args.Title != nil {
		task.Title = *args.Title
	}
	if args.Body != nil {
		task.Body = *args.Body
	}
	return tx.PutJSON(types.TaskKey(task.BoardID, task.ID), task)
}

func moveTask(_ context.Context, tx *store.Tx, args mutation.MoveTaskArgs) error {
	task, err := findTask(tx, args.BoardID, args.ID)
	if err != nil {
		return err
	}
	if _, err := findColumn(tx, args.BoardID, args.ColumnID); err != nil {
		return err
	}
	task.ColumnID = args.ColumnID
	task.Position = args.Position
	return tx.PutJSON(types.TaskKey(task.BoardID, task.ID), task)
}

func deleteTask(_ context.Context, tx *store.Tx, args mutation.DeleteTaskArgs) error {
	return tx.Delete(types.TaskKey(args.BoardID, args.ID))
}

func findBoard(tx *store.Tx, boardID string) (types.Board, error) {
	board := types.Board{}
	if err := tx.GetJSON(types.BoardKey(boardID), &board); err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return board, fmt.Errorf("%s: %w", boardID, ErrBoardNotFound)
		}
		return board, err
	}
	return board, nil
}

func findColumn(tx *store.Tx, boardID, columnID string) (types.Column, error) {
	column := types.Column{}
	if err := tx.GetJSON(types.ColumnKey(boardID, columnID), &column); err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return column, fmt.Errorf("%s: %w", columnID, ErrColumnNotFound)
		}
		return column, err
	}
	return column, nil
}

func findTask(tx *store.Tx, boardID, taskID string) (types.Task, error) {
	task := types.Task{}
	if err := tx.GetJSON(types.TaskKey(boardID, taskID), &task); err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return task, fmt.Errorf("%s: %w", taskID, ErrTaskNotFound)
		}
		return task, err
	}
	return task, nil
}

// tasksOfColumn returns the tasks of the given column except the given task.
func tasksOfColumn(tx *store.Tx, boardID, columnID, exceptID string) ([]types.Task, error) {
	tasks, err := store.ScanJSON[types.Task](tx, types.TasksPrefix(boardID))
	if err != nil {
		return nil, err
	}

	var result []types.Task
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
