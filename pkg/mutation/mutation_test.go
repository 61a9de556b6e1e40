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

package mutation_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanso-team/kanso/pkg/errors"
	"github.com/kanso-team/kanso/pkg/mutation"
)

type fakeTx struct {
	applied []string
}

func TestDecodeArgs(t *testing.T) {
	t.Run("decode typed args test", func(t *testing.T) {
		args, err := mutation.DecodeArgs(mutation.CreateColumn, json.RawMessage(`{"id":"c1","boardID":"b1","name":"To Do"}`))
		require.NoError(t, err)

		col, ok := args.(mutation.CreateColumnArgs)
		require.True(t, ok)
		assert.Equal(t, "To Do", col.Name)
		assert.Nil(t, col.Position)
	})

	t.Run("unknown mutator test", func(t *testing.T) {
		_, err := mutation.DecodeArgs("archiveBoard", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, mutation.ErrUnknownMutator)
		assert.Equal(t, errors.ErrCodeNotFound, errors.StatusOf(err))
	})

	t.Run("invalid args test", func(t *testing.T) {
		_, err := mutation.DecodeArgs(mutation.CreateBoard, json.RawMessage(`{"id":"b1"}`))
		assert.ErrorIs(t, err, mutation.ErrInvalidArgs)
		assert.Equal(t, errors.ErrCodeInvalidArgument, errors.StatusOf(err))

		_, err = mutation.DecodeArgs(mutation.CreateBoard, json.RawMessage(`[1,2]`))
		assert.ErrorIs(t, err, mutation.ErrInvalidArgs)

		_, err = mutation.DecodeArgs(mutation.DeleteBoard, nil)
		assert.ErrorIs(t, err, mutation.ErrInvalidArgs)
	})

	t.Run("encode args test", func(t *testing.T) {
		pos := 2.5
		raw, err := mutation.EncodeArgs(mutation.MoveTaskArgs{ID: "t1", BoardID: "b1", ColumnID: "c2", Position: pos})
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"t1","boardID":"b1","columnID":"c2","position":2.5}`, string(raw))

		_, err = mutation.EncodeArgs(mutation.UpdateBoardArgs{ID: "b1"})
		assert.ErrorIs(t, err, mutation.ErrInvalidArgs)

		_, err = mutation.EncodeArgs(nil)
		assert.ErrorIs(t, err, mutation.ErrInvalidArgs)
	})

	t.Run("names test", func(t *testing.T) {
		names := mutation.Names()
		assert.Len(t, names, 10)
		assert.Equal(t, mutation.CreateBoard, names[0])
		assert.True(t, mutation.IsKnown(mutation.MoveTask))
		assert.False(t, mutation.IsKnown("moveBoard"))
	})
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	registry := mutation.NewRegistry[*fakeTx]()
	mutation.On(registry, func(ctx context.Context, tx *fakeTx, args mutation.CreateBoardArgs) error {
		tx.applied = append(tx.applied, "board:"+args.ID)
		return nil
	})
	mutation.On(registry, func(ctx context.Context, tx *fakeTx, args mutation.DeleteBoardArgs) error {
		return errors.NotFound("board not found")
	})

	t.Run("run registered handler test", func(t *testing.T) {
		tx := &fakeTx{}
		require.NoError(t, registry.Run(ctx, tx, mutation.CreateBoard, json.RawMessage(`{"id":"b1","name":"Home"}`)))
		assert.Equal(t, []string{"board:b1"}, tx.applied)

		require.NoError(t, registry.Apply(ctx, tx, mutation.CreateBoardArgs{ID: "b2", Name: "Work"}))
		assert.Equal(t, []string{"board:b1", "board:b2"}, tx.applied)
	})

	t.Run("handler error is returned test", func(t *testing.T) {
		err := registry.Run(ctx, &fakeTx{}, mutation.DeleteBoard, json.RawMessage(`{"id":"b1"}`))
		assert.True(t, errors.IsStatus(err, errors.ErrCodeNotFound))
	})

	t.Run("known but unregistered name test", func(t *testing.T) {
		err := registry.Run(ctx, &fakeTx{}, mutation.CreateTask, json.RawMessage(`{}`))
		assert.ErrorIs(t, err, mutation.ErrUnknownMutator)

		_, ok := registry.Lookup(mutation.CreateTask)
		assert.False(t, ok)
	})

	t.Run("register twice panics test", func(t *testing.T) {
		assert.Panics(t, func() {
			mutation.On(registry, func(ctx context.Context, tx *fakeTx, args mutation.CreateBoardArgs) error {
				return nil
			})
		})
		assert.Panics(t, func() {
			registry.Register("archiveBoard", nil)
		})
		assert.Equal(t, []mutation.Name{mutation.CreateBoard, mutation.DeleteBoard}, registry.Names())
	})
}
