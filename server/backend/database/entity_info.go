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

package database

import (
	"github.com/kanso-team/kanso/api/types"
)

// BoardInfo is a board row. Version is the space version of its last write.
type BoardInfo struct {
	ProfileID string `bson:"profile_id"`
	ID        string `bson:"id"`
	Name      string `bson:"name"`
	Version   uint64 `bson:"version"`
	Deleted   bool   `bson:"deleted"`
}

// ColumnInfo is a column row.
type ColumnInfo struct {
	ProfileID string  `bson:"profile_id"`
	ID        string  `bson:"id"`
	BoardID   string  `bson:"board_id"`
	Name      string  `bson:"name"`
	Position  float64 `bson:"position"`
	Version   uint64  `bson:"version"`
	Deleted   bool    `bson:"deleted"`
}

// TaskInfo is a task row.
type TaskInfo struct {
	ProfileID string  `bson:"profile_id"`
	ID        string  `bson:"id"`
	BoardID   string  `bson:"board_id"`
	ColumnID  string  `bson:"column_id"`
	Title     string  `bson:"title"`
	Body      string  `bson:"body"`
	Position  float64 `bson:"position"`
	Version   uint64  `bson:"version"`
	Deleted   bool    `bson:"deleted"`
}

// Changes are the entities written after a space version.
type Changes struct {
	Boards  []*BoardInfo
	Columns []*ColumnInfo
	Tasks   []*TaskInfo
}

// Len returns the number of changed entities.
func (c *Changes) Len() int {
	return len(c.Boards) + len(c.Columns) + len(c.Tasks)
}

// Key returns the local store key of the board.
func (i *BoardInfo) Key() string { return types.BoardKey(i.ID) }

// Key returns the local store key of the column.
func (i *ColumnInfo) Key() string { return types.ColumnKey(i.BoardID, i.ID) }

// Key returns the local store key of the task.
func (i *TaskInfo) Key() string { return types.TaskKey(i.BoardID, i.ID) }

// ToBoard converts the row to the entity sent to clients.
func (i *BoardInfo) ToBoard() types.Board {
	return types.Board{ID: i.ID, Name: i.Name}
}

// ToColumn converts the row to the entity sent to clients.
func (i *ColumnInfo) ToColumn() types.Column {
	return types.Column{ID: i.ID, BoardID: i.BoardID, Name: i.Name, Position: i.Position}
}

// ToTask converts the row to the entity sent to clients.
func (i *TaskInfo) ToTask() types.Task {
	return types.Task{
		ID:       i.ID,
		BoardID:  i.BoardID,
		ColumnID: i.ColumnID,
		Title:    i.Title,
		Body:     i.Body,
		Position: i.Position,
	}
}

// DeepCopy returns a copy of this info.
func (i *BoardInfo) DeepCopy() *BoardInfo {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}

// DeepCopy returns a copy of this info.
func (i *ColumnInfo) DeepCopy() *ColumnInfo {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}

// DeepCopy returns a copy of this info.
func (i *TaskInfo) DeepCopy() *TaskInfo {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}
