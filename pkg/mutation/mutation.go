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

// Package mutation defines the named mutators shared by the client and the
// server: their names, their typed arguments and a registry of handlers.
package mutation

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kanso-team/kanso/internal/validation"
	"github.com/kanso-team/kanso/pkg/errors"
)

var (
	// ErrUnknownMutator is returned when no mutator has the given name.
	ErrUnknownMutator = errors.NotFound("unknown mutator").WithCode("ErrUnknownMutator")

	// ErrInvalidArgs is returned when the arguments do not match the schema of
	// the mutator.
	ErrInvalidArgs = errors.InvalidArgument("invalid mutator args").WithCode("ErrInvalidArgs")
)

// Name is the stable name of a mutator.
type Name string

// Names of the mutators.
const (
	CreateBoard  Name = "createBoard"
	UpdateBoard  Name = "updateBoard"
	DeleteBoard  Name = "deleteBoard"
	CreateColumn Name = "createColumn"
	UpdateColumn Name = "updateColumn"
	DeleteColumn Name = "deleteColumn"
	CreateTask   Name = "createTask"
	UpdateTask   Name = "updateTask"
	MoveTask     Name = "moveTask"
	DeleteTask   Name = "deleteTask"
)

// Args is the argument of a mutator. Each mutator has its own type.
type Args interface {
	MutationName() Name
}

// CreateBoardArgs creates a board.
type CreateBoardArgs struct {
	ID   string `json:"id" validate:"required,entity_id"`
	Name string `json:"name" validate:"required,max=120"`
}

// UpdateBoardArgs renames a board.
type UpdateBoardArgs struct {
	ID   string `json:"id" validate:"required,entity_id"`
	Name string `json:"name" validate:"required,max=120"`
}

// DeleteBoardArgs deletes a board with its columns and tasks.
type DeleteBoardArgs struct {
	ID string `json:"id" validate:"required,entity_id"`
}

// CreateColumnArgs creates a column. Without a position the column is
// appended after the last column of the board.
type CreateColumnArgs struct {
	ID       string   `json:"id" validate:"required,entity_id"`
	BoardID  string   `json:"boardID" validate:"required,entity_id"`
	Name     string   `json:"name" validate:"required,max=120"`
	Position *float64 `json:"position,omitempty"`
}

// UpdateColumnArgs renames a column.
type UpdateColumnArgs struct {
	ID      string `json:"id" validate:"required,entity_id"`
	BoardID string `json:"boardID" validate:"required,entity_id"`
	Name    string `json:"name" validate:"required,max=120"`
}

// DeleteColumnArgs deletes a column with its tasks.
type DeleteColumnArgs struct {
	ID      string `json:"id" validate:"required,entity_id"`
	BoardID string `json:"boardID" validate:"required,entity_id"`
}

// CreateTaskArgs creates a task. Without a position the task is appended
// after the last task of the column.
type CreateTaskArgs struct {
	ID       string   `json:"id" validate:"required,entity_id"`
	BoardID  string   `json:"boardID" validate:"required,entity_id"`
	ColumnID string   `json:"columnID" validate:"required,entity_id"`
	Title    string   `json:"title" validate:"required,max=500"`
	Body     string   `json:"body"`
	Position *float64 `json:"position,omitempty"`
}

// UpdateTaskArgs changes the title or the body of a task. Nil fields are kept.
type UpdateTaskArgs struct {
	ID      string  `json:"id" validate:"required,entity_id"`
	BoardID string  `json:"boardID" validate:"required,entity_id"`
	Title   *string `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Body    *string `json:"body,omitempty"`
}

// MoveTaskArgs moves a task to a position of a column of the same board.
type MoveTaskArgs struct {
	ID       string  `json:"id" validate:"required,entity_id"`
	BoardID  string  `json:"boardID" validate:"required,entity_id"`
	ColumnID string  `json:"columnID" validate:"required,entity_id"`
	Position float64 `json:"position"`
}

// DeleteTaskArgs deletes a task.
type DeleteTaskArgs struct {
	ID      string `json:"id" validate:"required,entity_id"`
	BoardID string `json:"boardID" validate:"required,entity_id"`
}

func (CreateBoardArgs) MutationName() Name  { return CreateBoard }
func (UpdateBoardArgs) MutationName() Name  { return UpdateBoard }
func (DeleteBoardArgs) MutationName() Name  { return DeleteBoard }
func (CreateColumnArgs) MutationName() Name { return CreateColumn }
func (UpdateColumnArgs) MutationName() Name { return UpdateColumn }
func (DeleteColumnArgs) MutationName() Name { return DeleteColumn }
func (CreateTaskArgs) MutationName() Name   { return CreateTask }
func (UpdateTaskArgs) MutationName() Name   { return UpdateTask }
func (MoveTaskArgs) MutationName() Name     { return MoveTask }
func (DeleteTaskArgs) MutationName() Name   { return DeleteTask }

type decoder func(raw json.RawMessage) (Args, error)

// decoders is the table of argument schemas, one per name.
var decoders = map[Name]decoder{
	CreateBoard:  decode[CreateBoardArgs],
	UpdateBoard:  decode[UpdateBoardArgs],
	DeleteBoard:  decode[DeleteBoardArgs],
	CreateColumn: decode[CreateColumnArgs],
	UpdateColumn: decode[UpdateColumnArgs],
	DeleteColumn: decode[DeleteColumnArgs],
	CreateTask:   decode[CreateTaskArgs],
	UpdateTask:   decode[UpdateTaskArgs],
	MoveTask:     decode[MoveTaskArgs],
	DeleteTask:   decode[DeleteTaskArgs],
}

func decode[A Args](raw json.RawMessage) (Args, error) {
	var args A
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}
	if err := validation.ValidateStruct(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}
	return args, nil
}

// Names returns every known mutator name in alphabetical order.
func Names() []Name {
	names := make([]Name, 0, len(decoders))
	for name := range decoders {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// IsKnown returns whether the given name is a known mutator.
func IsKnown(name Name) bool {
	_, ok := decoders[name]
	return ok
}

// DecodeArgs decodes and validates the arguments of the named mutator.
func DecodeArgs(name Name, raw json.RawMessage) (Args, error) {
	dec, ok := decoders[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownMutator)
	}

	args, err := dec(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return args, nil
}

// EncodeArgs validates and encodes the given arguments.
func EncodeArgs(args Args) (json.RawMessage, error) {
	if args == nil {
		return nil, fmt.Errorf("nil args: %w", ErrInvalidArgs)
	}
	if !IsKnown(args.MutationName()) {
		return nil, fmt.Errorf("%s: %w", args.MutationName(), ErrUnknownMutator)
	}
	if err := validation.ValidateStruct(args); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", args.MutationName(), ErrInvalidArgs, err)
	}

	encoded, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal args: %w", args.MutationName(), err)
	}
	return encoded, nil
}
