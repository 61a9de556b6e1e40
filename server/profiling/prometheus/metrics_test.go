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

package prometheus_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanso-team/kanso/server/profiling/prometheus"
)

func TestMetrics(t *testing.T) {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)

	t.Run("push mutations by result test", func(t *testing.T) {
		metrics.AddPushMutations(prometheus.ResultApplied, 2)
		metrics.AddPushMutations(prometheus.ResultFailed, 1)
		metrics.AddPushMutations(prometheus.ResultApplied, 1)

		assert.Equal(t, float64(3), testutil.ToFloat64(metrics.PushMutationsCount(prometheus.ResultApplied)))
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PushMutationsCount(prometheus.ResultFailed)))
		assert.Equal(t, float64(0), testutil.ToFloat64(metrics.PushMutationsCount(prometheus.ResultSkipped)))
	})

	t.Run("registry gathers kanso metrics test", func(t *testing.T) {
		metrics.ObservePushResponseSeconds(0.1)
		metrics.AddPullPatchOps("put", 3)
		metrics.AddServerHandledCounter("POST", "/sync/push", "200")

		families, err := metrics.Registry().Gather()
		assert.NoError(t, err)

		names := make(map[string]bool)
		for _, family := range families {
			names[family.GetName()] = true
		}
		assert.True(t, names["kanso_server_version"])
		assert.True(t, names["kanso_push_mutations_total"])
		assert.True(t, names["kanso_push_response_seconds"])
		assert.True(t, names["kanso_pull_patch_ops_total"])
		assert.True(t, names["kanso_http_server_handled_total"])
	})
}
