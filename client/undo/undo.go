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

// Package undo provides undo and redo stacks of reversible operations.
package undo

import (
	"context"
	"fmt"
	gosync "sync"
)

// DefaultMaxDepth is the default number of entries kept on the undo stack.
const DefaultMaxDepth = 100

// Entry is a reversible operation. Execute has already been applied when the
// entry is added.
type Entry struct {
	Execute func(ctx context.Context) error
	Undo    func(ctx context.Context) error
}

// Manager keeps the undo and the redo stacks of one client.
type Manager struct {
	mu       gosync.Mutex
	undos    []Entry
	redos    []Entry
	maxDepth int
}

// New creates a manager keeping at most maxDepth entries. A non-positive
// maxDepth uses DefaultMaxDepth.
func New(maxDepth int) *Manager {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Manager{maxDepth: maxDepth}
}

// Add pushes an entry whose effect was already applied. It clears the redo
// stack and drops the oldest entry when the stack is full.
func (m *Manager) Add(entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.undos = push(m.undos, entry, m.maxDepth)
	m.redos = nil
}

// Undo pops the last entry and reverts it. It is a no-op when there is
// nothing to undo. If the revert fails the entry stays on the stack.
func (m *Manager) Undo(ctx context.Context) error {
	entry, ok := m.pop(&m.undos)
	if !ok {
		return nil
	}

	if err := entry.Undo(ctx); err != nil {
		m.restore(&m.undos, entry)
		return fmt.Errorf("undo: %w", err)
	}

	m.mu.Lock()
	m.redos = push(m.redos, entry, m.maxDepth)
	m.mu.Unlock()
	return nil
}

// Redo pops the last undone entry and executes it again. It is a no-op when
// there is nothing to redo.
func (m *Manager) Redo(ctx context.Context) error {
	entry, ok := m.pop(&m.redos)
	if !ok {
		return nil
	}

	if err := entry.Execute(ctx); err != nil {
		m.restore(&m.redos, entry)
		return fmt.Errorf("redo: %w", err)
	}

	m.mu.Lock()
	m.undos = push(m.undos, entry, m.maxDepth)
	m.mu.Unlock()
	return nil
}

// CanUndo returns whether there is an entry to undo.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undos) > 0
}

// CanRedo returns whether there is an entry to redo.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redos) > 0
}

// Clear empties both stacks.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undos = nil
	m.redos = nil
}

func (m *Manager) pop(stack *[]Entry) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(*stack)
	if n == 0 {
		return Entry{}, false
	}
	entry := (*stack)[n-1]
	*stack = (*stack)[:n-1]
	return entry, true
}

func (m *Manager) restore(stack *[]Entry, entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*stack = push(*stack, entry, m.maxDepth)
}

func push(stack []Entry, entry Entry, maxDepth int) []Entry {
	stack = append(stack, entry)
	if len(stack) > maxDepth {
		stack = stack[len(stack)-maxDepth:]
	}
	return stack
}
