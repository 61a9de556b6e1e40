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

// Package store provides the durable local store of the client: an ordered
// key/value store on top of BadgerDB with prefix scans and commit hooks.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	gotime "time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

var (
	// ErrKeyNotFound is returned when the key does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrReadOnly is returned when writing within a read-only transaction.
	ErrReadOnly = errors.New("read-only transaction")
)

// Config is the configuration of the store.
type Config struct {
	// Path is the directory of the store. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in memory. Useful for tests.
	InMemory bool

	// SyncWrites syncs every commit to disk.
	SyncWrites bool

	// GCInterval is how often the value log is garbage collected. Zero
	// disables it.
	GCInterval gotime.Duration

	// Logger receives the internal logs of badger.
	Logger *zap.SugaredLogger
}

// InMemoryConfig returns the configuration of an in-memory store.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger routes badger's logs to zap.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// Store is the local store. Writes go through Update, which runs the
// registered commit hooks after every commit that changed something.
type Store struct {
	db    *badger.DB
	hooks []func()

	gcStop chan struct{}
	gcDone chan struct{}
}

// Open opens the store with the given configuration.
func Open(conf Config) (*Store, error) {
	if !conf.InMemory && conf.Path == "" {
		return nil, errors.New("path is required for a persistent store")
	}

	var opts badger.Options
	if conf.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(conf.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", conf.Path, err)
		}
		opts = badger.DefaultOptions(conf.Path)
	}
	opts = opts.WithSyncWrites(conf.SyncWrites).WithNumVersionsToKeep(1)
	if conf.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: conf.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s := &Store{db: db}
	if conf.GCInterval > 0 && !conf.InMemory {
		s.gcStop = make(chan struct{})
		s.gcDone = make(chan struct{})
		go s.runGC(conf.GCInterval, conf.Logger)
	}
	return s, nil
}

// OnCommit registers a hook called after every commit that wrote at least
// one key. Hooks run on the goroutine that called Update.
func (s *Store) OnCommit(hook func()) {
	s.hooks = append(s.hooks, hook)
}

// Update runs fn within a read-write transaction. The transaction is
// discarded if fn returns an error.
func (s *Store) Update(fn func(tx *Tx) error) error {
	tx := &Tx{txn: s.db.NewTransaction(true)}
	defer tx.txn.Discard()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.txn.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if tx.writes > 0 {
		for _, hook := range s.hooks {
			hook()
		}
	}
	return nil
}

// View runs fn within a read-only transaction.
func (s *Store) View(fn func(tx *Tx) error) error {
	tx := &Tx{txn: s.db.NewTransaction(false), readOnly: true}
	defer tx.txn.Discard()

	return fn(tx)
}

// Close closes the store.
func (s *Store) Close() error {
	if s.gcStop != nil {
		close(s.gcStop)
		<-s.gcDone
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

func (s *Store) runGC(interval gotime.Duration, logger *zap.SugaredLogger) {
	defer close(s.gcDone)

	ticker := gotime.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.gcStop:
			return
		case <-ticker.C:
			if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				if logger != nil {
					logger.Warnf("value log gc: %v", err)
				}
			}
		}
	}
}

// Tx is a transaction of the store.
type Tx struct {
	txn      *badger.Txn
	readOnly bool
	writes   int
}

// Get returns the value of the given key.
func (tx *Tx) Get(key string) ([]byte, error) {
	item, err := tx.txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", key, ErrKeyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// GetJSON decodes the JSON value of the given key into v.
func (tx *Tx) GetJSON(key string, v any) error {
	value, err := tx.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(value, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// Has returns whether the given key exists.
func (tx *Tx) Has(key string) (bool, error) {
	_, err := tx.txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	return true, nil
}

// Put sets the value of the given key.
func (tx *Tx) Put(key string, value []byte) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	if err := tx.txn.Set([]byte(key), value); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	tx.writes++
	return nil
}

// PutJSON sets the JSON encoding of v as the value of the given key.
func (tx *Tx) PutJSON(key string, v any) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return tx.Put(key, encoded)
}

// Delete deletes the given key. Deleting a missing key is not an error.
func (tx *Tx) Delete(key string) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	if err := tx.txn.Delete([]byte(key)); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	tx.writes++
	return nil
}

// Scan calls fn for every key with the given prefix in key order. Returning
// an error from fn stops the scan.
func (tx *Tx) Scan(prefix string, fn func(key string, value []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := tx.txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		item := it.Item()
		value, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("scan %s: %w", prefix, err)
		}
		if err := fn(string(item.KeyCopy(nil)), value); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns every key with the given prefix in key order.
func (tx *Tx) Keys(prefix string) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false
	it := tx.txn.NewIterator(opts)
	defer it.Close()

	var keys []string
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		keys = append(keys, string(it.Item().KeyCopy(nil)))
	}
	return keys, nil
}

// DeletePrefix deletes every key with the given prefix and returns how many
// keys were deleted.
func (tx *Tx) DeletePrefix(prefix string) (int, error) {
	keys, err := tx.Keys(prefix)
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

// ScanJSON decodes every value with the given prefix as T.
func ScanJSON[T any](tx *Tx, prefix string) ([]T, error) {
	var values []T
	if err := tx.Scan(prefix, func(key string, value []byte) error {
		var v T
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("unmarshal %s: %w", key, err)
		}
		values = append(values, v)
		return nil
	}); err != nil {
		return nil, err
	}
	return values, nil
}
