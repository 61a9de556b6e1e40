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

// Package types provides the types of the sync API. This package is used by
// both the server and the client.
package types

import (
	"encoding/json"
	"fmt"

	"github.com/kanso-team/kanso/internal/validation"
)

const (
	// PushVersion is the version of the push protocol.
	PushVersion = 1

	// PullVersion is the version of the pull protocol.
	PullVersion = 1
)

// Mutation is a single named edit issued by a client. IDs are assigned by the
// client, start at 1 and grow by one for each mutation of the same client.
type Mutation struct {
	ID        uint64          `json:"id" validate:"gte=1"`
	ClientID  string          `json:"clientID" validate:"required,entity_id"`
	Name      string          `json:"name" validate:"required"`
	Args      json.RawMessage `json:"args"`
	Timestamp int64           `json:"timestamp"`
}

// ClientGroup is a set of clients sharing one logical session of a profile.
type ClientGroup struct {
	ClientGroupID string `json:"clientGroupID" validate:"required,entity_id"`
	ProfileID     string `json:"profileID" validate:"required,entity_id"`
	SchemaVersion string `json:"schemaVersion" validate:"required,schema_version"`
}

// PushRequest is the body of POST /sync/push.
type PushRequest struct {
	SchemaVersion string     `json:"schemaVersion" validate:"required,schema_version"`
	ProfileID     string     `json:"profileID" validate:"required,entity_id"`
	ClientGroupID string     `json:"clientGroupID" validate:"required,entity_id"`
	Mutations     []Mutation `json:"mutations" validate:"dive"`
	PushVersion   int        `json:"pushVersion" validate:"eq=1"`
}

// Validate validates the request.
func (r *PushRequest) Validate() error {
	if err := validation.ValidateStruct(r); err != nil {
		return fmt.Errorf("push request: %w", err)
	}
	return nil
}

// PushResponse is the body returned by POST /sync/push.
type PushResponse struct {
	Success bool `json:"success"`
}

// PullRequest is the body of POST /sync/pull. Cookie is the space version
// the client received from its previous pull, 0 if it never pulled.
type PullRequest struct {
	SchemaVersion string `json:"schemaVersion" validate:"required,schema_version"`
	ProfileID     string `json:"profileID" validate:"required,entity_id"`
	ClientGroupID string `json:"clientGroupID" validate:"required,entity_id"`
	ClientID      string `json:"clientID" validate:"required,entity_id"`
	Cookie        uint64 `json:"cookie"`
	PullVersion   int    `json:"pullVersion" validate:"eq=1"`
}

// Validate validates the request.
func (r *PullRequest) Validate() error {
	if err := validation.ValidateStruct(r); err != nil {
		return fmt.Errorf("pull request: %w", err)
	}
	return nil
}

// PullResponse is the body returned by POST /sync/pull.
type PullResponse struct {
	Success                 bool      `json:"success"`
	Patch                   []PatchOp `json:"patch,omitempty"`
	LastProcessedMutationID uint64    `json:"lastProcessedMutationID"`
	Cookie                  uint64    `json:"cookie"`
}

// ErrorResponse is the body returned when a request fails.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}
