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

package client

import (
	"sort"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/client/store"
)

// Boards returns every board ordered by name.
func Boards(tx *store.Tx) ([]types.Board, error) {
	boards, err := store.ScanJSON[types.Board](tx, types.BoardPrefix)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(boards, func(i, j int) bool { return boards[i].Name < boards[j].Name })
	return boards, nil
}

// Columns returns a query of the columns of a board ordered by position.
func Columns(boardID string) func(tx *store.Tx) ([]types.Column, error) {
	return func(tx *store.Tx) ([]types.Column, error) {
		columns, err := store.ScanJSON[types.Column](tx, types.ColumnsPrefix(boardID))
		if err != nil {
			return nil, err
		}
		sort.SliceStable(columns, func(i, j int) bool { return columns[i].Position < columns[j].Position })
		return columns, nil
	}
}

// Tasks returns a query of the tasks of a column ordered by position.
func Tasks(boardID, columnID string) func(tx *store.Tx) ([]types.Task, error) {
	return func(tx *store.Tx) ([]types.Task, error) {
		all, err := store.ScanJSON[types.Task](tx, types.TasksPrefix(boardID))
		if err != nil {
			return nil, err
		}

		var tasks []types.Task
		for _, task := range all {
			if task.ColumnID == columnID {
				tasks = append(tasks, task)
			}
		}
		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Position < tasks[j].Position })
		return tasks, nil
	}
}
