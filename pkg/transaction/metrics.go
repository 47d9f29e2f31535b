// Copyright (c) 2025, Arkon Labs.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transaction

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Apply transaction metrics
	applyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arkon_apply_duration_seconds",
			Help:    "Time taken by a complete apply transaction",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 180, 300},
		},
	)

	applyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arkon_apply_total",
			Help: "Total number of apply transactions by terminal status",
		},
		[]string{"backend", "status"},
	)

	applyRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arkon_apply_retries_total",
			Help: "Total number of retried apply attempts after transient failures",
		},
	)

	rollbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arkon_rollback_total",
			Help: "Total number of best-effort rollbacks by outcome",
		},
		[]string{"outcome"}, // rolled_back or rollback_failed
	)
)
