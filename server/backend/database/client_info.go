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

package database

import (
	"fmt"
	gotime "time"
)

// ClientGroupInfo is a client group recorded on its first push or pull.
type ClientGroupInfo struct {
	ID            string      `bson:"_id"`
	ProfileID     string      `bson:"profile_id"`
	SchemaVersion string      `bson:"schema_version"`
	CreatedAt     gotime.Time `bson:"created_at"`
}

// NewClientGroupInfo returns a client group seen for the first time.
func NewClientGroupInfo(id, profileID, schemaVersion string) *ClientGroupInfo {
	return &ClientGroupInfo{
		ID:            id,
		ProfileID:     profileID,
		SchemaVersion: schemaVersion,
		CreatedAt:     gotime.Now(),
	}
}

// CheckProfile returns an error if the group does not belong to the profile.
func (i *ClientGroupInfo) CheckProfile(profileID string) error {
	if i.ProfileID != profileID {
		return fmt.Errorf("group %s of profile %s: %w", i.ID, profileID, ErrClientGroupMismatch)
	}
	return nil
}

// DeepCopy returns a copy of this info.
func (i *ClientGroupInfo) DeepCopy() *ClientGroupInfo {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}

// ClientInfo is the cursor of a client: the id of the last mutation the
// server processed, successfully or not.
type ClientInfo struct {
	ID             string      `bson:"_id"`
	ClientGroupID  string      `bson:"client_group_id"`
	LastMutationID uint64      `bson:"last_mutation_id"`
	UpdatedAt      gotime.Time `bson:"updated_at"`
}

// NewClientInfo returns the cursor of a client seen for the first time.
func NewClientInfo(clientID, clientGroupID string) *ClientInfo {
	return &ClientInfo{
		ID:            clientID,
		ClientGroupID: clientGroupID,
		UpdatedAt:     gotime.Now(),
	}
}

// CheckGroup returns an error if the client belongs to another group.
func (i *ClientInfo) CheckGroup(clientGroupID string) error {
	if i.ClientGroupID != clientGroupID {
		return fmt.Errorf("client %s of group %s: %w", i.ID, clientGroupID, ErrClientGroupMismatch)
	}
	return nil
}

// Advance moves the cursor to the given mutation id.
func (i *ClientInfo) Advance(mutationID uint64) {
	i.LastMutationID = mutationID
	i.UpdatedAt = gotime.Now()
}

// DeepCopy returns a copy of this info.
func (i *ClientInfo) DeepCopy() *ClientInfo {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}
