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

// Package sync provides a locker implementation.
package sync

import (
	"sort"

	"github.com/moby/locker"
)

// Key represents key of Locker.
type Key string

// NewKey creates a new instance of Key.
func NewKey(key string) Key {
	return Key(key)
}

// ClientKey returns the key that serializes pushes of the given client.
func ClientKey(clientID string) Key {
	return Key("client/" + clientID)
}

// String returns a string representation of this Key.
func (k Key) String() string {
	return string(k)
}

// LockerManager manages Lockers.
type LockerManager struct {
	locks *locker.Locker
}

// New creates a new instance of LockerManager.
func New() *LockerManager {
	return &LockerManager{
		locks: locker.New(),
	}
}

// Locker creates locker of the given key.
func (c *LockerManager) Locker(key Key) Locker {
	return &internalLocker{
		key.String(),
		c.locks,
	}
}

// LockAll locks the given keys in sorted order, skipping duplicates, and
// returns a function that unlocks them. Sorting keeps two callers sharing
// keys from deadlocking.
func (c *LockerManager) LockAll(keys []Key) (unlock func() error) {
	sorted := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if seen[key.String()] {
			continue
		}
		seen[key.String()] = true
		sorted = append(sorted, key.String())
	}
	sort.Strings(sorted)

	lockers := make([]Locker, 0, len(sorted))
	for _, key := range sorted {
		l := c.Locker(Key(key))
		l.Lock()
		lockers = append(lockers, l)
	}

	return func() error {
		var firstErr error
		for i := len(lockers) - 1; i >= 0; i-- {
			if err := lockers[i].Unlock(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
}

// A Locker represents an object that can be locked and unlocked.
type Locker interface {
	// Lock locks the mutex.
	Lock()

	// Unlock unlocks the mutex.
	Unlock() error
}

type internalLocker struct {
	key   string
	locks *locker.Locker
}

// Lock locks the mutex.
func (il *internalLocker) Lock() {
	il.locks.Lock(il.key)
}

// Unlock unlocks the mutex.
func (il *internalLocker) Unlock() error {
	if err := il.locks.Unlock(il.key); err != nil {
		return err
	}

	return nil
}
