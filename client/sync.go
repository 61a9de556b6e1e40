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

package client

import (
	"context"
	"fmt"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/client/store"
	"github.com/kanso-team/kanso/pkg/mutation"
)

// basePrefix holds the last state received from the server. The visible
// entities are rebuilt from it and the pending mutations on every pull.
const basePrefix = "~base/"

// Push sends the mutations not yet acknowledged by the server, at most
// MaxPushBatch per request and in id order. Concurrent calls share one push.
// After each request the acknowledged id moves to the highest id sent and the
// log is pruned up to it, so a failure keeps only the unsent batches.
func (c *Client) Push(ctx context.Context) error {
	_, err, _ := c.inflight.Do("push", func() (any, error) {
		return nil, c.push(ctx)
	})
	return err
}

func (c *Client) push(ctx context.Context) error {
	var mutations []types.Mutation
	if err := c.View(ctx, func(tx *store.Tx) error {
		acked, err := c.log.LastAckedID(tx)
		if err != nil {
			return err
		}
		mutations, err = c.log.Pending(tx, acked)
		return err
	}); err != nil {
		return fmt.Errorf("push: %w", err)
	}

	for len(mutations) > 0 {
		size := min(len(mutations), c.options.MaxPushBatch)
		if err := c.pushBatch(ctx, mutations[:size]); err != nil {
			return err
		}
		mutations = mutations[size:]
	}
	return nil
}

func (c *Client) pushBatch(ctx context.Context, mutations []types.Mutation) error {
	req := &types.PushRequest{
		SchemaVersion: c.group.SchemaVersion,
		ProfileID:     c.group.ProfileID,
		ClientGroupID: c.group.ClientGroupID,
		Mutations:     mutations,
		PushVersion:   types.PushVersion,
	}
	if _, err := c.rpc.push(ctx, req); err != nil {
		return fmt.Errorf("push %d mutations: %w", len(mutations), err)
	}

	lastID := mutations[len(mutations)-1].ID
	if err := c.wrapLoopErr(c.loop.Do(ctx, func() error {
		return c.store.Update(func(tx *store.Tx) error {
			if _, err := c.log.Ack(tx, lastID); err != nil {
				return err
			}
			_, err := c.log.Prune(tx, lastID)
			return err
		})
	})); err != nil {
		return fmt.Errorf("push: %w", err)
	}

	c.logger.Debugf("pushed %d mutations up to %d", len(mutations), lastID)
	return nil
}

// Pull fetches the changes of the server since the last pull and rebases the
// pending mutations on top of them. Concurrent calls share one request.
func (c *Client) Pull(ctx context.Context) error {
	_, err, _ := c.inflight.Do("pull", func() (any, error) {
		return nil, c.pull(ctx)
	})
	return err
}

func (c *Client) pull(ctx context.Context) error {
	var cookie uint64
	if err := c.View(ctx, func(tx *store.Tx) error {
		var err error
		cookie, err = c.log.Cookie(tx)
		return err
	}); err != nil {
		return fmt.Errorf("pull: %w", err)
	}

	res, err := c.rpc.pull(ctx, &types.PullRequest{
		SchemaVersion: c.group.SchemaVersion,
		ProfileID:     c.group.ProfileID,
		ClientGroupID: c.group.ClientGroupID,
		ClientID:      c.ClientID(),
		Cookie:        cookie,
		PullVersion:   types.PullVersion,
	})
	if err != nil {
		return fmt.Errorf("pull from %d: %w", cookie, err)
	}

	// mutations appended while the request was in flight are in the log and
	// are replayed by the rebase below
	if err := c.wrapLoopErr(c.loop.Do(ctx, func() error {
		return c.store.Update(func(tx *store.Tx) error {
			return c.rebase(ctx, tx, res)
		})
	})); err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	return nil
}

// rebase applies the patch of a pull to the server state, drops the
// mutations confirmed by the server and replays the remaining ones.
func (c *Client) rebase(ctx context.Context, tx *store.Tx, res *types.PullResponse) error {
	if err := applyPatch(tx, res.Patch); err != nil {
		return err
	}

	acked, err := c.log.LastAckedID(tx)
	if err != nil {
		return err
	}
	confirmed := res.LastProcessedMutationID
	if confirmed < acked {
		c.logger.Infof("server confirmed %d behind acknowledged %d, log kept", confirmed, acked)
	} else {
		if _, err := c.log.Prune(tx, confirmed); err != nil {
			return err
		}
		if _, err := c.log.Ack(tx, confirmed); err != nil {
			return err
		}
	}

	if err := resetFromBase(tx); err != nil {
		return err
	}

	pending, err := c.log.Pending(tx, 0)
	if err != nil {
		return err
	}
	for _, m := range pending {
		if err := c.registry.Run(ctx, tx, mutation.Name(m.Name), m.Args); err != nil {
			c.logger.Warnf("replay mutation %d %s: %v", m.ID, m.Name, err)
		}
	}

	return c.log.SetCookie(tx, res.Cookie)
}

func applyPatch(tx *store.Tx, patch []types.PatchOp) error {
	for _, op := range patch {
		switch op.Op {
		case types.PatchOpClear:
			if _, err := tx.DeletePrefix(basePrefix); err != nil {
				return err
			}
		case types.PatchOpPut:
			if !types.IsEntityKey(op.Key) {
				return fmt.Errorf("put %q: %w", op.Key, ErrUnexpectedResponse)
			}
			if err := tx.Put(basePrefix+op.Key, op.Value); err != nil {
				return err
			}
		case types.PatchOpDel:
			if !types.IsEntityKey(op.Key) {
				return fmt.Errorf("del %q: %w", op.Key, ErrUnexpectedResponse)
			}
			if err := tx.Delete(basePrefix + op.Key); err != nil {
				return err
			}
		default:
			return fmt.Errorf("patch op %q: %w", op.Op, ErrUnexpectedResponse)
		}
	}
	return nil
}

// resetFromBase replaces the visible entities with the server state.
func resetFromBase(tx *store.Tx) error {
	for _, prefix := range types.EntityPrefixes {
		if _, err := tx.DeletePrefix(prefix); err != nil {
			return err
		}
	}

	type entry struct {
		key   string
		value []byte
	}
	var entries []entry
	if err := tx.Scan(basePrefix, func(key string, value []byte) error {
		entries = append(entries, entry{key: key[len(basePrefix):], value: value})
		return nil
	}); err != nil {
		return err
	}

	for _, e := range entries {
		if err := tx.Put(e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}
