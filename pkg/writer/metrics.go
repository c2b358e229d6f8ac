// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
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

package writer

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/novatechflow/vaultaire/pkg/pool"
)

var (
	pointsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vaultaire_points_ingested_total",
		Help: "Points parsed out of accepted bursts.",
	})
	burstsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vaultaire_bursts_received_total",
		Help: "Point bursts accepted into a batch.",
	})
	decodeFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vaultaire_decode_failures_total",
		Help: "Bursts rejected by the point-stream codec.",
	})
	flushTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vaultaire_flush_total",
		Help: "Batches flushed to the object store.",
	})
	flushFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vaultaire_flush_failures_total",
		Help: "Flushes that ended in a lock, write, or rollover error.",
	})
	flushDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vaultaire_flush_duration_seconds",
		Help:    "Wall-clock duration of the locked flush protocol.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})
	rollovers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vaultaire_day_rollovers_total",
		Help: "Day-map rollovers labeled by bucket kind.",
	}, []string{"kind"})
	batchersSpawned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vaultaire_batchers_spawned_total",
		Help: "Origin batcher actors started by the dispatcher.",
	})
	poolOpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vaultaire_pool_op_duration_seconds",
		Help:    "Latency of object store operations labeled by op.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"op"})
	poolOpFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vaultaire_pool_op_failures_total",
		Help: "Object store operations that returned a non-NotFound error.",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(
		pointsIngested,
		burstsReceived,
		decodeFailures,
		flushTotal,
		flushFailures,
		flushDuration,
		rollovers,
		batchersSpawned,
		poolOpDuration,
		poolOpFailures,
	)
}

// ObservePoolOp is a pool.OpFunc feeding the store-operation metrics.
func ObservePoolOp(op string, elapsed time.Duration, err error) {
	poolOpDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil && !errors.Is(err, pool.ErrNotFound) {
		poolOpFailures.WithLabelValues(op).Inc()
	}
}
