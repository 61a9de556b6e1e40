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

package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanso-team/kanso/server/backend/database/sqlite"
	"github.com/kanso-team/kanso/server/backend/database/testcases"
)

func TestConfig(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		conf := &sqlite.Config{Path: "kanso.db", BusyTimeout: "5s"}
		assert.NoError(t, conf.Validate())

		conf.BusyTimeout = "5"
		assert.Error(t, conf.Validate())

		conf = &sqlite.Config{BusyTimeout: "5s"}
		assert.ErrorIs(t, conf.Validate(), sqlite.ErrEmptyPath)
	})
}

func TestDB(t *testing.T) {
	db, err := sqlite.Open(&sqlite.Config{
		Path:        filepath.Join(t.TempDir(), "kanso.db"),
		BusyTimeout: sqlite.DefaultBusyTimeout,
	})
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, db.Close())
	}()

	t.Run("RunClientGroup test", func(t *testing.T) {
		testcases.RunClientGroupTest(t, db)
	})

	t.Run("RunClientInfo test", func(t *testing.T) {
		testcases.RunClientInfoTest(t, db)
	})

	t.Run("RunSpaceVersion test", func(t *testing.T) {
		testcases.RunSpaceVersionTest(t, db)
	})

	t.Run("RunRollback test", func(t *testing.T) {
		testcases.RunRollbackTest(t, db)
	})

	t.Run("RunEntity test", func(t *testing.T) {
		testcases.RunEntityTest(t, db)
	})

	t.Run("RunColumnName test", func(t *testing.T) {
		testcases.RunColumnNameTest(t, db)
	})

	t.Run("RunFindChangesSince test", func(t *testing.T) {
		testcases.RunFindChangesSinceTest(t, db)
	})
}
