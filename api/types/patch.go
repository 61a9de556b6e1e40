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

package types

import (
	"encoding/json"
	"fmt"
)

// PatchOpType is the kind of a patch operation.
type PatchOpType string

const (
	// PatchOpPut sets the value of a key.
	PatchOpPut PatchOpType = "put"

	// PatchOpDel deletes a key.
	PatchOpDel PatchOpType = "del"

	// PatchOpClear deletes every entity key. It only appears first in the
	// patch of a pull with cookie 0.
	PatchOpClear PatchOpType = "clear"
)

// PatchOp is a single change of the patch returned by pull.
type PatchOp struct {
	Op    PatchOpType     `json:"op"`
	Key   string          `json:"key,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// NewPutOp returns a put operation with the JSON encoding of value.
func NewPutOp(key string, value any) (PatchOp, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return PatchOp{}, fmt.Errorf("marshal %s: %w", key, err)
	}
	return PatchOp{Op: PatchOpPut, Key: key, Value: encoded}, nil
}

// NewDelOp returns a del operation.
func NewDelOp(key string) PatchOp {
	return PatchOp{Op: PatchOpDel, Key: key}
}

// NewClearOp returns a clear operation.
func NewClearOp() PatchOp {
	return PatchOp{Op: PatchOpClear}
}
