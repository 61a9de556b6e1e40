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

// Package client provides the Kanso client. The client applies mutations to
// its local store immediately, keeps them in a mutation log and reconciles
// them with the server through push and pull.
//
// Every access to the local store runs as a task of the client's event loop,
// so mutations, rebases and subscription flushes never interleave.
package client

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	gotime "time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/client/mutationlog"
	"github.com/kanso-team/kanso/client/mutators"
	"github.com/kanso-team/kanso/client/store"
	"github.com/kanso-team/kanso/client/subscription"
	"github.com/kanso-team/kanso/client/undo"
	"github.com/kanso-team/kanso/pkg/eventloop"
	"github.com/kanso-team/kanso/pkg/mutation"
	"github.com/kanso-team/kanso/server/logging"
)

var (
	// ErrClientClosed is returned when the client is already closed.
	ErrClientClosed = errors.New("client closed")

	// ErrAlreadyStarted is returned when the background sync already runs.
	ErrAlreadyStarted = errors.New("background sync already started")
)

// Client is a Kanso client of one profile.
type Client struct {
	options Options
	logger  *zap.SugaredLogger

	store    *store.Store
	log      *mutationlog.Log
	group    types.ClientGroup
	registry *mutation.Registry[*store.Tx]
	loop     *eventloop.Loop
	subs     *subscription.Engine
	undo     *undo.Manager
	rpc      *rpcClient

	inflight singleflight.Group

	mu          gosync.Mutex
	closed      bool
	stopSync    context.CancelFunc
	syncWorkers *errgroup.Group
}

// New creates a client of the given profile talking to the server at
// rpcAddr. The local store is opened, and its client group is created on the
// first use.
func New(rpcAddr string, profileID string, opts ...Option) (*Client, error) {
	options := newOptions(opts...)

	var logger *zap.SugaredLogger
	if options.Logger != nil {
		logger = options.Logger.Sugar()
	} else {
		logger = logging.New("client")
	}

	storeConf := store.Config{
		Path:       options.StorePath,
		InMemory:   options.InMemory || options.StorePath == "",
		SyncWrites: true,
		GCInterval: 5 * gotime.Minute,
		Logger:     logger.Named("store"),
	}
	st, err := store.Open(storeConf)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	var group types.ClientGroup
	var clientID string
	if err := st.Update(func(tx *store.Tx) error {
		var err error
		group, clientID, err = mutationlog.Init(tx, profileID, options.SchemaVersion, options.ClientID, func() string {
			return uuid.New().String()
		})
		return err
	}); err != nil {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error(closeErr)
		}
		return nil, fmt.Errorf("init local store: %w", err)
	}

	loop := eventloop.New(logger.Named("loop"))
	c := &Client{
		options:  options,
		logger:   logger.With("client_id", clientID),
		store:    st,
		log:      mutationlog.New(clientID),
		group:    group,
		registry: mutators.NewRegistry(),
		loop:     loop,
		subs:     subscription.New(st, loop, logger.Named("subscription")),
		undo:     undo.New(options.UndoDepth),
		rpc:      newRPCClient(rpcAddr, options, logger.Named("rpc")),
	}
	return c, nil
}

// ClientID returns the id of this client.
func (c *Client) ClientID() string {
	return c.log.ClientID()
}

// ClientGroup returns the client group of the local store.
func (c *Client) ClientGroup() types.ClientGroup {
	return c.group
}

// UndoManager returns the undo manager of this client.
func (c *Client) UndoManager() *undo.Manager {
	return c.undo
}

// Mutate appends a mutation to the log and applies it to the local store in
// one task. It never waits for the network.
func (c *Client) Mutate(ctx context.Context, args mutation.Args) (types.Mutation, error) {
	mutations, err := c.Batch(ctx, args)
	if err != nil {
		return types.Mutation{}, err
	}
	return mutations[0], nil
}

// Batch appends and applies the given mutations in one task, so that
// subscribers observe them together. If one of them fails locally, none is
// appended.
func (c *Client) Batch(ctx context.Context, args ...mutation.Args) ([]types.Mutation, error) {
	var mutations []types.Mutation
	err := c.loop.Do(ctx, func() error {
		return c.store.Update(func(tx *store.Tx) error {
			for _, a := range args {
				m, err := c.log.Append(tx, a)
				if err != nil {
					return err
				}
				// apply the decoded args, as the server will
				if err := c.registry.Run(ctx, tx, mutation.Name(m.Name), m.Args); err != nil {
					return fmt.Errorf("apply %s: %w", m.Name, err)
				}
				mutations = append(mutations, m)
			}
			return nil
		})
	})
	if err != nil {
		return nil, c.wrapLoopErr(err)
	}
	return mutations, nil
}

// MutateUndoable applies do and records inverse as its undo on the undo
// manager. Undo and redo issue new mutations, so they are pushed like any
// other edit.
func (c *Client) MutateUndoable(ctx context.Context, do, inverse mutation.Args) (types.Mutation, error) {
	m, err := c.Mutate(ctx, do)
	if err != nil {
		return types.Mutation{}, err
	}

	c.undo.Add(undo.Entry{
		Execute: func(ctx context.Context) error {
			_, err := c.Mutate(ctx, do)
			return err
		},
		Undo: func(ctx context.Context) error {
			_, err := c.Mutate(ctx, inverse)
			return err
		},
	})
	return m, nil
}

// Undo reverts the last undoable mutation.
func (c *Client) Undo(ctx context.Context) error {
	return c.undo.Undo(ctx)
}

// Redo applies the last undone mutation again.
func (c *Client) Redo(ctx context.Context) error {
	return c.undo.Redo(ctx)
}

// View runs fn against the local store within a task.
func (c *Client) View(ctx context.Context, fn func(tx *store.Tx) error) error {
	return c.wrapLoopErr(c.loop.Do(ctx, func() error {
		return c.store.View(fn)
	}))
}

// Subscribe registers a query over the local store. onChange receives the
// initial result, then every changed result, at most once per task.
func (c *Client) Subscribe(
	ctx context.Context,
	query subscription.Query,
	onChange func(any),
) (func(), error) {
	var unsubscribe func()
	if err := c.loop.Do(ctx, func() error {
		var err error
		_, unsubscribe, err = c.subs.Subscribe(query, onChange)
		return err
	}); err != nil {
		return nil, c.wrapLoopErr(err)
	}
	return unsubscribe, nil
}

// Watch registers a typed query over the local store of the given client.
func Watch[T any](
	ctx context.Context,
	c *Client,
	query func(tx *store.Tx) (T, error),
	onChange func(T),
) (func(), error) {
	return c.Subscribe(ctx,
		func(tx *store.Tx) (any, error) { return query(tx) },
		func(result any) { onChange(result.(T)) },
	)
}

// PendingCount returns the number of mutations not yet confirmed by a pull.
func (c *Client) PendingCount(ctx context.Context) (int, error) {
	count := 0
	err := c.View(ctx, func(tx *store.Tx) error {
		var err error
		count, err = c.log.Len(tx)
		return err
	})
	return count, err
}

// Sync pushes the pending mutations, then pulls the changes of the server.
func (c *Client) Sync(ctx context.Context) error {
	if err := c.Push(ctx); err != nil {
		return err
	}
	return c.Pull(ctx)
}

// Start runs Sync every SyncInterval in the background until Close.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	if c.stopSync != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	c.stopSync = cancel
	c.syncWorkers = &errgroup.Group{}
	c.syncWorkers.Go(func() error {
		ticker := gotime.NewTicker(c.options.SyncInterval)
		defer ticker.Stop()

		for {
			if err := c.Sync(ctx); err != nil && ctx.Err() == nil {
				c.logger.Warnf("background sync: %v", err)
			}

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})
	return nil
}

// Close stops the background sync and closes the local store. A push or a
// pull in flight is abandoned; its mutations are sent again by the next
// session.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	stopSync, workers := c.stopSync, c.syncWorkers
	c.mu.Unlock()

	if stopSync != nil {
		stopSync()
		if err := workers.Wait(); err != nil {
			c.logger.Warn(err)
		}
	}

	c.loop.Close()
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("close client: %w", err)
	}
	return nil
}

func (c *Client) wrapLoopErr(err error) error {
	if errors.Is(err, eventloop.ErrClosed) {
		return ErrClientClosed
	}
	return err
}
