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

package mongo_test

import (
	"os"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanso-team/kanso/server/backend/database/mongo"
	"github.com/kanso-team/kanso/server/backend/database/testcases"
)

// mongoURIEnv names the replica set used by these tests. They are skipped
// when it is unset.
const mongoURIEnv = "KANSO_TEST_MONGO_URI"

func TestConfig(t *testing.T) {
	conf := &mongo.Config{ConnectionTimeout: "5s", PingTimeout: "5s"}
	assert.NoError(t, conf.Validate())

	conf.ConnectionTimeout = "5"
	assert.Error(t, conf.Validate())

	conf = &mongo.Config{ConnectionTimeout: "5s", PingTimeout: "5"}
	assert.Error(t, conf.Validate())
}

func TestClient(t *testing.T) {
	uri := os.Getenv(mongoURIEnv)
	if uri == "" {
		t.Skipf("%s is not set", mongoURIEnv)
	}

	cli, err := mongo.Dial(&mongo.Config{
		ConnectionTimeout: "5s",
		ConnectionURI:     uri,
		KansoDatabase:     "test-kanso-" + xid.New().String(),
		PingTimeout:       "5s",
	})
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, cli.Close())
	}()

	t.Run("RunClientGroup test", func(t *testing.T) {
		testcases.RunClientGroupTest(t, cli)
	})

	t.Run("RunClientInfo test", func(t *testing.T) {
		testcases.RunClientInfoTest(t, cli)
	})

	t.Run("RunSpaceVersion test", func(t *testing.T) {
		testcases.RunSpaceVersionTest(t, cli)
	})

	t.Run("RunRollback test", func(t *testing.T) {
		testcases.RunRollbackTest(t, cli)
	})

	t.Run("RunEntity test", func(t *testing.T) {
		testcases.RunEntityTest(t, cli)
	})

	t.Run("RunColumnName test", func(t *testing.T) {
		testcases.RunColumnNameTest(t, cli)
	})

	t.Run("RunFindChangesSince test", func(t *testing.T) {
		testcases.RunFindChangesSinceTest(t, cli)
	})
}
