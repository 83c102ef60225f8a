// Telegate - Encrypted Field Telemetry Gateway
// Copyright 2026 Telegate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/telegate/telegate

// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline and the query API. Everything is registered via promauto and
// served at /metrics by the HTTP router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics.

	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegate_messages_received_total",
			Help: "Total number of messages received from the broker",
		},
		[]string{"topic"},
	)

	DecodeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telegate_decode_errors_total",
			Help: "Total number of payloads that failed to decode and were stored as raw fallbacks",
		},
	)

	BrokerReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telegate_broker_reconnects_total",
			Help: "Total number of broker connection attempts after the first",
		},
	)

	BrokerConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telegate_broker_connected",
			Help: "Whether the broker subscription is currently live (1) or down (0)",
		},
	)

	TopicsSeen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telegate_topics_seen",
			Help: "Number of distinct topics in the telemetry store",
		},
	)

	// Query API metrics.

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegate_api_requests_total",
			Help: "Total number of query API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telegate_api_request_duration_seconds",
			Help:    "Query API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)
)
