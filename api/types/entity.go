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

package types

import (
	"strings"
)

// Key prefixes of the entities. Keys are ordered so that a prefix scan of
// "column/<boardID>/" yields every column of a board.
const (
	BoardPrefix  = "board/"
	ColumnPrefix = "column/"
	TaskPrefix   = "task/"
)

// EntityPrefixes are the prefixes visible to queries.
var EntityPrefixes = []string{BoardPrefix, ColumnPrefix, TaskPrefix}

// Board is a kanban board.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Column is a column of a board. Columns of a board are ordered by Position.
type Column struct {
	ID       string  `json:"id"`
	BoardID  string  `json:"boardID"`
	Name     string  `json:"name"`
	Position float64 `json:"position"`
}

// Task is a card in a column. Tasks of a column are ordered by Position.
type Task struct {
	ID       string  `json:"id"`
	BoardID  string  `json:"boardID"`
	ColumnID string  `json:"columnID"`
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	Position float64 `json:"position"`
}

// BoardKey returns the key of the given board.
func BoardKey(boardID string) string {
	return BoardPrefix + boardID
}

// ColumnKey returns the key of the given column.
func ColumnKey(boardID, columnID string) string {
	return ColumnPrefix + boardID + "/" + columnID
}

// ColumnsPrefix returns the prefix of every column of the given board.
func ColumnsPrefix(boardID string) string {
	return ColumnPrefix + boardID + "/"
}

// TaskKey returns the key of the given task.
func TaskKey(boardID, taskID string) string {
	return TaskPrefix + boardID + "/" + taskID
}

// TasksPrefix returns the prefix of every task of the given board.
func TasksPrefix(boardID string) string {
	return TaskPrefix + boardID + "/"
}

// IsEntityKey returns whether the given key belongs to an entity prefix.
func IsEntityKey(key string) bool {
	for _, prefix := range EntityPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
