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

// Package eventloop provides a single goroutine that runs tasks one at a time.
// After each task, the microtasks queued by it run before the next task
// starts, so every state change made within one task is observed together.
package eventloop

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"

	"go.uber.org/zap"
)

var (
	// ErrClosed is returned when a task is posted to a closed loop.
	ErrClosed = errors.New("event loop closed")
)

// Loop runs tasks in the order they are posted on its own goroutine.
type Loop struct {
	logger *zap.SugaredLogger

	mu     gosync.Mutex
	tasks  []func()
	closed bool

	// microtasks is only touched by the loop goroutine.
	microtasks []func()

	wakeup  chan struct{}
	closing chan struct{}
	done    chan struct{}
}

// New creates a loop and starts its goroutine.
func New(logger *zap.SugaredLogger) *Loop {
	l := &Loop{
		logger:  logger,
		wakeup:  make(chan struct{}, 1),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}

	go l.run()
	return l
}

// Post enqueues the given task. It never blocks.
func (l *Loop) Post(task func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()

	select {
	case l.wakeup <- struct{}{}:
	default:
	}
	return nil
}

// Do runs fn as a task and waits for its result. If ctx is done before the
// task finishes Do returns ctx.Err(); the task itself still runs.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if err := l.Post(func() {
		result <- fn()
	}); err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// the task may have run right before the loop stopped
		select {
		case err := <-result:
			return err
		default:
			return ErrClosed
		}
	}
}

// QueueMicrotask queues fn to run after the current task. It must be called
// from within a task or a microtask.
func (l *Loop) QueueMicrotask(fn func()) {
	l.microtasks = append(l.microtasks, fn)
}

// Close stops the loop after the tasks already posted have run.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.mu.Unlock()

	close(l.closing)
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		task, ok := l.next()
		if ok {
			l.runTask(task)
			continue
		}

		select {
		case <-l.wakeup:
		case <-l.closing:
			// drain what was posted before Close
			for {
				task, ok := l.next()
				if !ok {
					return
				}
				l.runTask(task)
			}
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tasks) == 0 {
		return nil, false
	}
	task := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return task, true
}

func (l *Loop) runTask(task func()) {
	l.safeRun("task", task)

	// microtasks queued by microtasks run in the same drain
	for len(l.microtasks) > 0 {
		microtask := l.microtasks[0]
		l.microtasks[0] = nil
		l.microtasks = l.microtasks[1:]
		l.safeRun("microtask", microtask)
	}
}

func (l *Loop) safeRun(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Errorf("%s panicked: %v", kind, fmt.Sprint(r))
		}
	}()
	fn()
}
