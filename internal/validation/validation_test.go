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

package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanso-team/kanso/internal/validation"
)

func TestValidation(t *testing.T) {
	t.Run("entity_id test", func(t *testing.T) {
		assert.NoError(t, validation.ValidateValue("4f6c1f2e-9a8b-4a57-8a1c-2f0d7c0b6e11", "entity_id"))
		assert.NoError(t, validation.ValidateValue("cq0v1n1p0b3g00bqv6ng", "entity_id"))

		err := validation.ValidateValue("board/1", "entity_id")
		require.Error(t, err)
		var v validation.Violation
		require.ErrorAs(t, err, &v)
		assert.Equal(t, "entity_id", v.Tag)
	})

	t.Run("schema_version test", func(t *testing.T) {
		assert.NoError(t, validation.ValidateValue("1", "schema_version"))
		assert.NoError(t, validation.ValidateValue("1.2.3", "schema_version"))
		assert.Error(t, validation.ValidateValue("v1", "schema_version"))
		assert.Error(t, validation.ValidateValue("", "schema_version"))
	})

	t.Run("struct test", func(t *testing.T) {
		type request struct {
			Name  string `validate:"required,max=8"`
			Board string `validate:"required,entity_id"`
		}

		assert.NoError(t, validation.ValidateStruct(request{Name: "To Do", Board: "b1"}))

		err := validation.ValidateStruct(request{Name: "much too long", Board: "a b"})
		var structErr *validation.StructError
		require.ErrorAs(t, err, &structErr)
		require.Len(t, structErr.Violations, 2)
		assert.Equal(t, "Name", structErr.Violations[0].Field)
		assert.Equal(t, "max", structErr.Violations[0].Tag)
		assert.Equal(t, "Board", structErr.Violations[1].Field)
		assert.Contains(t, structErr.Violations[1].Error(), "Board must only contain")
	})
}
