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

package undo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanso-team/kanso/client/undo"
)

type counter struct {
	value int
}

func (c *counter) add(n int) undo.Entry {
	c.value += n
	return undo.Entry{
		Execute: func(context.Context) error { c.value += n; return nil },
		Undo:    func(context.Context) error { c.value -= n; return nil },
	}
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("undo and redo test", func(t *testing.T) {
		c := &counter{}
		m := undo.New(0)
		assert.False(t, m.CanUndo())
		assert.NoError(t, m.Undo(ctx))
		assert.NoError(t, m.Redo(ctx))

		m.Add(c.add(1))
		m.Add(c.add(10))
		assert.Equal(t, 11, c.value)

		require.NoError(t, m.Undo(ctx))
		assert.Equal(t, 1, c.value)
		assert.True(t, m.CanRedo())

		require.NoError(t, m.Undo(ctx))
		assert.Equal(t, 0, c.value)
		assert.False(t, m.CanUndo())

		require.NoError(t, m.Redo(ctx))
		require.NoError(t, m.Redo(ctx))
		assert.Equal(t, 11, c.value)
		assert.False(t, m.CanRedo())
	})

	t.Run("add clears redo test", func(t *testing.T) {
		c := &counter{}
		m := undo.New(0)

		m.Add(c.add(1))
		require.NoError(t, m.Undo(ctx))
		assert.True(t, m.CanRedo())

		m.Add(c.add(5))
		assert.False(t, m.CanRedo())
		assert.Equal(t, 5, c.value)
	})

	t.Run("max depth drops the oldest entries test", func(t *testing.T) {
		c := &counter{}
		m := undo.New(2)

		m.Add(c.add(1))
		m.Add(c.add(10))
		m.Add(c.add(100))

		require.NoError(t, m.Undo(ctx))
		require.NoError(t, m.Undo(ctx))
		require.NoError(t, m.Undo(ctx))
		assert.Equal(t, 1, c.value)
	})

	t.Run("failed undo keeps the entry test", func(t *testing.T) {
		errOffline := errors.New("offline")
		m := undo.New(0)
		fail := true
		m.Add(undo.Entry{
			Execute: func(context.Context) error { return nil },
			Undo: func(context.Context) error {
				if fail {
					return errOffline
				}
				return nil
			},
		})

		assert.ErrorIs(t, m.Undo(ctx), errOffline)
		assert.True(t, m.CanUndo())

		fail = false
		assert.NoError(t, m.Undo(ctx))
		assert.False(t, m.CanUndo())

		m.Clear()
		assert.False(t, m.CanRedo())
	})
}
