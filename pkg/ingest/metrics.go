// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

package ingest

import "github.com/prometheus/client_golang/prometheus"

// Package-level metrics, registered once at import time. They are global
// rather than per-Client because most processes construct exactly one
// Client; a process that constructs several will see aggregate counters.
var (
	bufferOccupancy = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "peekapi_buffer_occupancy",
		Help: "Number of sanitized events currently held in the in-memory buffer",
	})
	flushAttemptsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "peekapi_flush_attempts_total",
		Help: "Total number of batch send attempts",
	})
	flushSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "peekapi_flush_success_total",
		Help: "Total number of batch sends that completed with a 2xx response",
	})
	flushFailureTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "peekapi_flush_failure_total",
		Help: "Total number of batch sends that did not complete successfully, by outcome",
	}, []string{"outcome"})
	eventsPerBatch = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "peekapi_events_per_batch",
		Help:    "Distribution of event counts in each flushed batch",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
	diskBytesUsed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "peekapi_disk_bytes_used",
		Help: "Current size in bytes of the on-disk overflow store",
	})
	eventsDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "peekapi_events_dropped_total",
		Help: "Total number of events dropped before being sent, by reason",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(
		bufferOccupancy,
		flushAttemptsTotal,
		flushSuccessTotal,
		flushFailureTotal,
		eventsPerBatch,
		diskBytesUsed,
		eventsDroppedTotal,
	)
}

func recordDropped(reason string) {
	eventsDroppedTotal.WithLabelValues(reason).Inc()
}
