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

// Package clients provides the client related business logic.
package clients

import (
	"context"

	"github.com/kanso-team/kanso/pkg/errors"
	"github.com/kanso-team/kanso/server/backend/database"
)

// EnsureGroup creates the client group on its first sight and checks that it
// belongs to the profile.
func EnsureGroup(
	ctx context.Context,
	db database.Database,
	profileID, clientGroupID, schemaVersion string,
) error {
	return db.RunTx(ctx, func(tx database.Tx) error {
		info, err := tx.FindClientGroupInfo(ctx, clientGroupID)
		if errors.Is(err, database.ErrClientGroupNotFound) {
			return tx.CreateClientGroupInfo(
				ctx,
				database.NewClientGroupInfo(clientGroupID, profileID, schemaVersion),
			)
		}
		if err != nil {
			return err
		}
		return info.CheckProfile(profileID)
	})
}

// FindOrNew returns the cursor of the client, a zero cursor if the client was
// never seen. The client must belong to the given group.
func FindOrNew(
	ctx context.Context,
	tx database.Tx,
	clientID, clientGroupID string,
) (*database.ClientInfo, error) {
	client, err := tx.FindClientInfo(ctx, clientID)
	if errors.Is(err, database.ErrClientNotFound) {
		return database.NewClientInfo(clientID, clientGroupID), nil
	}
	if err != nil {
		return nil, err
	}
	if err := client.CheckGroup(clientGroupID); err != nil {
		return nil, err
	}
	return client, nil
}
