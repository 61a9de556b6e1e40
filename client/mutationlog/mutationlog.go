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

// Package mutationlog keeps the pending mutations of a client and the sync
// metadata of its local store under the reserved "~mlog/" and "~meta/"
// prefixes.
package mutationlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	gotime "time"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/client/store"
	"github.com/kanso-team/kanso/pkg/mutation"
)

const (
	logPrefix  = "~mlog/"
	metaPrefix = "~meta/"

	keyClientGroup  = metaPrefix + "clientGroup"
	keyClientID     = metaPrefix + "clientID"
	keyLastID       = metaPrefix + "lastMutationID"
	keyLastAckedID  = metaPrefix + "lastAckedID"
	keyCookie       = metaPrefix + "cookie"
	idFormatPattern = "%020d"
)

var (
	// ErrNotInitialized is returned when the store has no client group yet.
	ErrNotInitialized = errors.New("mutation log not initialized")

	// ErrProfileMismatch is returned when the store belongs to another profile.
	ErrProfileMismatch = errors.New("local store belongs to another profile")

	// ErrClientIDMismatch is returned when the store already belongs to
	// another client. Mutation ids are numbered per store, so a store is
	// never shared by two client ids.
	ErrClientIDMismatch = errors.New("local store belongs to another client")
)

// Key returns the log key of the given mutation id. Ids are zero-padded so
// that keys sort numerically.
func Key(id uint64) string {
	return logPrefix + fmt.Sprintf(idFormatPattern, id)
}

// Log is the mutation log of one client.
type Log struct {
	clientID string
	now      func() gotime.Time
}

// Init loads the client group and the client id of the store, creating them
// on the first use. newID generates ids for new groups and clients. A
// non-empty clientID is persisted on the first use and must match the stored
// id afterwards.
func Init(
	tx *store.Tx,
	profileID string,
	schemaVersion string,
	clientID string,
	newID func() string,
) (types.ClientGroup, string, error) {
	group := types.ClientGroup{}
	err := tx.GetJSON(keyClientGroup, &group)
	switch {
	case errors.Is(err, store.ErrKeyNotFound):
		group = types.ClientGroup{
			ClientGroupID: newID(),
			ProfileID:     profileID,
			SchemaVersion: schemaVersion,
		}
		if err := tx.PutJSON(keyClientGroup, group); err != nil {
			return types.ClientGroup{}, "", err
		}
	case err != nil:
		return types.ClientGroup{}, "", err
	case group.ProfileID != profileID:
		return types.ClientGroup{}, "", fmt.Errorf("%s: %w", group.ProfileID, ErrProfileMismatch)
	}

	value, err := tx.Get(keyClientID)
	switch {
	case errors.Is(err, store.ErrKeyNotFound):
		if clientID == "" {
			clientID = newID()
		}
		if err := tx.Put(keyClientID, []byte(clientID)); err != nil {
			return types.ClientGroup{}, "", err
		}
		return group, clientID, nil
	case err != nil:
		return types.ClientGroup{}, "", err
	case clientID != "" && clientID != string(value):
		return types.ClientGroup{}, "", fmt.Errorf("%s: %w", value, ErrClientIDMismatch)
	}

	return group, string(value), nil
}

// ClientGroup returns the client group of the store.
func ClientGroup(tx *store.Tx) (types.ClientGroup, error) {
	group := types.ClientGroup{}
	if err := tx.GetJSON(keyClientGroup, &group); err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return group, ErrNotInitialized
		}
		return group, err
	}
	return group, nil
}

// ClientID returns the client id of the store.
func ClientID(tx *store.Tx) (string, error) {
	value, err := tx.Get(keyClientID)
	if errors.Is(err, store.ErrKeyNotFound) {
		return "", ErrNotInitialized
	}
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// New creates the log of the given client.
func New(clientID string) *Log {
	return &Log{clientID: clientID, now: gotime.Now}
}

// ClientID returns the id of the client owning the log.
func (l *Log) ClientID() string {
	return l.clientID
}

// Append assigns the next id to a mutation with the given args and writes it
// to the log.
func (l *Log) Append(tx *store.Tx, args mutation.Args) (types.Mutation, error) {
	encoded, err := mutation.EncodeArgs(args)
	if err != nil {
		return types.Mutation{}, err
	}

	lastID, err := getUint(tx, keyLastID)
	if err != nil {
		return types.Mutation{}, err
	}

	m := types.Mutation{
		ID:        lastID + 1,
		ClientID:  l.clientID,
		Name:      string(args.MutationName()),
		Args:      encoded,
		Timestamp: l.now().UnixMilli(),
	}
	if err := tx.PutJSON(Key(m.ID), m); err != nil {
		return types.Mutation{}, err
	}
	if err := putUint(tx, keyLastID, m.ID); err != nil {
		return types.Mutation{}, err
	}
	return m, nil
}

// Pending returns the mutations with an id greater than after, in id order.
func (l *Log) Pending(tx *store.Tx, after uint64) ([]types.Mutation, error) {
	var mutations []types.Mutation
	if err := tx.Scan(logPrefix, func(key string, value []byte) error {
		m := types.Mutation{}
		if err := json.Unmarshal(value, &m); err != nil {
			return fmt.Errorf("unmarshal %s: %w", key, err)
		}
		if m.ID > after {
			mutations = append(mutations, m)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return mutations, nil
}

// Prune deletes the mutations with an id less than or equal to upTo.
func (l *Log) Prune(tx *store.Tx, upTo uint64) (int, error) {
	keys, err := tx.Keys(logPrefix)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, key := range keys {
		id, err := strconv.ParseUint(key[len(logPrefix):], 10, 64)
		if err != nil {
			return pruned, fmt.Errorf("parse %s: %w", key, err)
		}
		if id > upTo {
			break
		}
		if err := tx.Delete(key); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}

// Len returns the number of mutations in the log.
func (l *Log) Len(tx *store.Tx) (int, error) {
	keys, err := tx.Keys(logPrefix)
	return len(keys), err
}

// LastID returns the id of the last appended mutation.
func (l *Log) LastID(tx *store.Tx) (uint64, error) {
	return getUint(tx, keyLastID)
}

// LastAckedID returns the highest id acknowledged by the server.
func (l *Log) LastAckedID(tx *store.Tx) (uint64, error) {
	return getUint(tx, keyLastAckedID)
}

// Ack advances the acknowledged id. It never moves backwards, and reports
// whether the id moved.
func (l *Log) Ack(tx *store.Tx, id uint64) (bool, error) {
	acked, err := getUint(tx, keyLastAckedID)
	if err != nil {
		return false, err
	}
	if id <= acked {
		return false, nil
	}
	return true, putUint(tx, keyLastAckedID, id)
}

// Cookie returns the cookie of the last applied pull.
func (l *Log) Cookie(tx *store.Tx) (uint64, error) {
	return getUint(tx, keyCookie)
}

// SetCookie stores the cookie of the last applied pull.
func (l *Log) SetCookie(tx *store.Tx, cookie uint64) error {
	return putUint(tx, keyCookie, cookie)
}

func getUint(tx *store.Tx, key string) (uint64, error) {
	value, err := tx.Get(key)
	if errors.Is(err, store.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseUint(string(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func putUint(tx *store.Tx, key string, n uint64) error {
	return tx.Put(key, []byte(strconv.FormatUint(n, 10)))
}
