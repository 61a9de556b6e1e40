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

// Package subscription provides reactive queries over the local store.
// Commits mark every subscription dirty; dirty subscriptions are recomputed
// once per task of the event loop and notified only when their result
// changed.
package subscription

import (
	"fmt"
	"reflect"
	gosync "sync"
	"sync/atomic"

	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/kanso-team/kanso/client/store"
)

// Scheduler queues functions to run after the current task.
type Scheduler interface {
	QueueMicrotask(fn func())
}

// Query reads a result from the local store.
type Query func(tx *store.Tx) (any, error)

// Subscription is a registered query with the last result delivered to its
// observer.
type Subscription struct {
	id       string
	query    Query
	onChange func(any)

	// lastResult is only touched by the loop goroutine.
	lastResult any
	closed     atomic.Bool
}

// ID returns the id of this subscription.
func (s *Subscription) ID() string {
	return s.id
}

// Engine keeps the subscriptions of one store.
type Engine struct {
	store     *store.Store
	scheduler Scheduler
	logger    *zap.SugaredLogger

	mu            gosync.Mutex
	subscriptions []*Subscription

	flushScheduled bool
}

// New creates an engine over the given store and registers it as a commit
// hook. Commits must happen on the goroutine of the scheduler.
func New(st *store.Store, scheduler Scheduler, logger *zap.SugaredLogger) *Engine {
	e := &Engine{
		store:     st,
		scheduler: scheduler,
		logger:    logger,
	}
	st.OnCommit(e.markDirty)
	return e
}

// Subscribe runs the query once and schedules the delivery of its result.
// It must be called on the goroutine of the scheduler. The returned function
// unsubscribes; calling it again has no effect.
func (e *Engine) Subscribe(query Query, onChange func(any)) (*Subscription, func(), error) {
	sub := &Subscription{
		id:       xid.New().String(),
		query:    query,
		onChange: onChange,
	}

	var result any
	if err := e.store.View(func(tx *store.Tx) error {
		var err error
		result, err = query(tx)
		return err
	}); err != nil {
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}
	sub.lastResult = result

	e.mu.Lock()
	e.subscriptions = append(e.subscriptions, sub)
	e.mu.Unlock()

	e.scheduler.QueueMicrotask(func() {
		e.deliver(sub, result)
	})

	return sub, func() { e.unsubscribe(sub) }, nil
}

// Len returns the number of live subscriptions.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subscriptions)
}

func (e *Engine) unsubscribe(sub *Subscription) {
	if sub.closed.Swap(true) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.subscriptions {
		if s == sub {
			e.subscriptions = append(e.subscriptions[:i], e.subscriptions[i+1:]...)
			break
		}
	}
}

// markDirty schedules one flush for the current task.
func (e *Engine) markDirty() {
	if e.flushScheduled {
		return
	}
	e.flushScheduled = true
	e.scheduler.QueueMicrotask(e.flush)
}

func (e *Engine) flush() {
	e.flushScheduled = false

	e.mu.Lock()
	subs := make([]*Subscription, len(e.subscriptions))
	copy(subs, e.subscriptions)
	e.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	if err := e.store.View(func(tx *store.Tx) error {
		for _, sub := range subs {
			if sub.closed.Load() {
				continue
			}

			result, err := sub.query(tx)
			if err != nil {
				e.logger.Warnf("query of subscription %s: %v", sub.id, err)
				continue
			}
			if reflect.DeepEqual(result, sub.lastResult) {
				continue
			}
			sub.lastResult = result
			e.deliver(sub, result)
		}
		return nil
	}); err != nil {
		e.logger.Errorf("flush subscriptions: %v", err)
	}
}

// deliver calls the observer unless it unsubscribed. A panic of the observer
// is logged and does not stop the delivery to the others.
func (e *Engine) deliver(sub *Subscription, result any) {
	if sub.closed.Load() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorf("subscription %s panicked: %v", sub.id, r)
		}
	}()
	sub.onChange(result)
}

// Subscribe registers a typed query.
func Subscribe[T any](
	e *Engine,
	query func(tx *store.Tx) (T, error),
	onChange func(T),
) (*Subscription, func(), error) {
	return e.Subscribe(
		func(tx *store.Tx) (any, error) { return query(tx) },
		func(result any) { onChange(result.(T)) },
	)
}
