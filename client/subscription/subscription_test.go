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

package subscription_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/client/store"
	"github.com/kanso-team/kanso/client/subscription"
)

// manualScheduler runs microtasks when the test ends a tick.
type manualScheduler struct {
	queue []func()
}

func (s *manualScheduler) QueueMicrotask(fn func()) {
	s.queue = append(s.queue, fn)
}

func (s *manualScheduler) endTick() {
	for len(s.queue) > 0 {
		fn := s.queue[0]
		s.queue = s.queue[1:]
		fn()
	}
}

func boardNames(tx *store.Tx) ([]string, error) {
	boards, err := store.ScanJSON[types.Board](tx, types.BoardPrefix)
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, b := range boards {
		names = append(names, b.Name)
	}
	return names, nil
}

func putBoard(t *testing.T, st *store.Store, id, name string) {
	require.NoError(t, st.Update(func(tx *store.Tx) error {
		return tx.PutJSON(types.BoardKey(id), types.Board{ID: id, Name: name})
	}))
}

func setup(t *testing.T) (*store.Store, *manualScheduler, *subscription.Engine) {
	st, err := store.Open(store.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, st.Close()) })

	scheduler := &manualScheduler{}
	return st, scheduler, subscription.New(st, scheduler, zap.NewNop().Sugar())
}

func TestSubscription(t *testing.T) {
	t.Run("initial result is delivered after the tick test", func(t *testing.T) {
		st, scheduler, engine := setup(t)
		putBoard(t, st, "b1", "Home")
		scheduler.endTick()

		var got [][]string
		_, _, err := subscription.Subscribe(engine, boardNames, func(names []string) {
			got = append(got, names)
		})
		require.NoError(t, err)
		assert.Empty(t, got)

		scheduler.endTick()
		assert.Equal(t, [][]string{{"Home"}}, got)
	})

	t.Run("writes of one tick are coalesced test", func(t *testing.T) {
		st, scheduler, engine := setup(t)

		var got [][]string
		_, _, err := subscription.Subscribe(engine, boardNames, func(names []string) {
			got = append(got, names)
		})
		require.NoError(t, err)
		scheduler.endTick()
		require.Equal(t, [][]string{{}}, got)

		putBoard(t, st, "b1", "Home")
		putBoard(t, st, "b2", "Work")
		putBoard(t, st, "b3", "Garden")
		scheduler.endTick()

		assert.Equal(t, [][]string{{}, {"Home", "Work", "Garden"}}, got)
	})

	t.Run("unchanged results are not delivered test", func(t *testing.T) {
		st, scheduler, engine := setup(t)
		putBoard(t, st, "b1", "Home")

		calls := 0
		_, _, err := subscription.Subscribe(engine, boardNames, func(names []string) { calls++ })
		require.NoError(t, err)
		scheduler.endTick()
		assert.Equal(t, 1, calls)

		// a write outside the query
		require.NoError(t, st.Update(func(tx *store.Tx) error {
			return tx.Put("~meta/cookie", []byte("1"))
		}))
		scheduler.endTick()
		assert.Equal(t, 1, calls)

		putBoard(t, st, "b1", "House")
		scheduler.endTick()
		assert.Equal(t, 2, calls)
	})

	t.Run("unsubscribe drops scheduled deliveries test", func(t *testing.T) {
		st, scheduler, engine := setup(t)

		calls := 0
		_, unsubscribe, err := subscription.Subscribe(engine, boardNames, func(names []string) { calls++ })
		require.NoError(t, err)
		putBoard(t, st, "b1", "Home")

		unsubscribe()
		unsubscribe()
		scheduler.endTick()

		assert.Equal(t, 0, calls)
		assert.Equal(t, 0, engine.Len())
	})

	t.Run("panicking observer does not stop others test", func(t *testing.T) {
		st, scheduler, engine := setup(t)

		_, _, err := subscription.Subscribe(engine, boardNames, func(names []string) {
			panic("observer")
		})
		require.NoError(t, err)

		var got []string
		_, _, err = subscription.Subscribe(engine, boardNames, func(names []string) { got = names })
		require.NoError(t, err)
		scheduler.endTick()

		putBoard(t, st, "b1", "Home")
		scheduler.endTick()
		assert.Equal(t, []string{"Home"}, got)
	})

	t.Run("engines of different stores are independent test", func(t *testing.T) {
		st1, scheduler1, engine1 := setup(t)
		_, scheduler2, engine2 := setup(t)

		calls1, calls2 := 0, 0
		_, _, err := subscription.Subscribe(engine1, boardNames, func([]string) { calls1++ })
		require.NoError(t, err)
		_, _, err = subscription.Subscribe(engine2, boardNames, func([]string) { calls2++ })
		require.NoError(t, err)
		scheduler1.endTick()
		scheduler2.endTick()

		putBoard(t, st1, "b1", "Home")
		scheduler1.endTick()
		scheduler2.endTick()

		assert.Equal(t, 2, calls1)
		assert.Equal(t, 1, calls2)
	})
}
