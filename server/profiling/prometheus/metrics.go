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

// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kanso-team/kanso/internal/version"
)

const (
	namespace     = "kanso"
	resultLabel   = "result"
	opLabel       = "op"
	methodLabel   = "method"
	pathLabel     = "path"
	codeLabel     = "code"
)

// Results of a pushed mutation.
const (
	ResultApplied = "applied"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Metrics manages the metric information that Kanso is trying to measure.
type Metrics struct {
	registry *prometheus.Registry

	serverVersion        *prometheus.GaugeVec
	serverHandledCounter *prometheus.CounterVec

	pushResponseSeconds prometheus.Histogram
	pushMutationsTotal  *prometheus.CounterVec

	pullResponseSeconds prometheus.Histogram
	pullPatchOpsTotal   *prometheus.CounterVec
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry: reg,
		serverVersion: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "version",
			Help:      "Which version is running. 1 for 'server_version' label with current version.",
		}, []string{"server_version"}),
		serverHandledCounter: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "server_handled_total",
			Help:      "Total number of requests completed on the server, regardless of success or failure.",
		}, []string{methodLabel, pathLabel, codeLabel}),
		pushResponseSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "response_seconds",
			Help:      "The response time of Push.",
		}),
		pushMutationsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "mutations_total",
			Help:      "The total count of pushed mutations by result.",
		}, []string{resultLabel}),
		pullResponseSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pull",
			Name:      "response_seconds",
			Help:      "The response time of Pull.",
		}),
		pullPatchOpsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pull",
			Name:      "patch_ops_total",
			Help:      "The total count of patch operations sent in Pull responses.",
		}, []string{opLabel}),
	}

	metrics.serverVersion.With(prometheus.Labels{
		"server_version": version.Version,
	}).Set(1)

	return metrics, nil
}

// ObservePushResponseSeconds adds an observation for response time of Push.
func (m *Metrics) ObservePushResponseSeconds(seconds float64) {
	m.pushResponseSeconds.Observe(seconds)
}

// AddPushMutations adds the number of pushed mutations of the given result.
func (m *Metrics) AddPushMutations(result string, count int) {
	m.pushMutationsTotal.With(prometheus.Labels{
		resultLabel: result,
	}).Add(float64(count))
}

// ObservePullResponseSeconds adds an observation for response time of Pull.
func (m *Metrics) ObservePullResponseSeconds(seconds float64) {
	m.pullResponseSeconds.Observe(seconds)
}

// AddPullPatchOps adds the number of patch operations of the given type.
func (m *Metrics) AddPullPatchOps(op string, count int) {
	m.pullPatchOpsTotal.With(prometheus.Labels{
		opLabel: op,
	}).Add(float64(count))
}

// AddServerHandledCounter adds the number of requests handled by the server.
func (m *Metrics) AddServerHandledCounter(method, path, code string) {
	m.serverHandledCounter.With(prometheus.Labels{
		methodLabel: method,
		pathLabel:   path,
		codeLabel:   code,
	}).Inc()
}

// PushMutationsCount returns the current count of pushed mutations of the
// given result.
func (m *Metrics) PushMutationsCount(result string) prometheus.Counter {
	return m.pushMutationsTotal.With(prometheus.Labels{resultLabel: result})
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
