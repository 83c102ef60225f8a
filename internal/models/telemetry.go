// Telegate - Encrypted Field Telemetry Gateway
// Copyright 2026 Telegate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/telegate/telegate

// Package models defines the data types shared between the ingestion
// pipeline, the telemetry store, and the query API.
package models

import (
	"github.com/goccy/go-json"
)

// TopicRecord is the most recently received message for a topic.
//
// Exactly one TopicRecord exists per topic at any time and it always
// reflects the latest receipt, even when decoding failed. On decode
// failure Payload holds {"raw": "<hex>"} and Error carries the cause.
//
// Payload is stored pre-serialized and treated as immutable: handing a
// TopicRecord to a caller never exposes mutable store internals.
type TopicRecord struct {
	// Topic is the subject the message arrived on. Unique key.
	Topic string `json:"topic"`

	// Payload is the decoded (and alias-normalized) message body,
	// or the raw-hex fallback object when decoding failed.
	Payload json.RawMessage `json:"payload"`

	// SizeBytes is the length of the original wire payload.
	SizeBytes int `json:"size_bytes"`

	// Timestamp is seconds since epoch at receipt time. The gateway
	// clock is authoritative; device-supplied timestamps are payload data.
	Timestamp int64 `json:"ts"`

	// Error is the decode failure cause, empty for clean payloads.
	Error string `json:"error,omitempty"`
}

// HistoryPoint is one derived numeric sample in a topic's bounded history,
// used for charting. Temperature and Humidity are present only when the
// decoded payload carried a numeric value for the (normalized) field.
type HistoryPoint struct {
	Timestamp   int64    `json:"ts"`
	SizeBytes   int      `json:"size_bytes"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
}

// HealthStatus is the response body of the gateway health endpoint.
type HealthStatus struct {
	Status     string `json:"status"`
	Broker     string `json:"broker"`
	Subscribed string `json:"subscribed"`
	Connected  bool   `json:"connected"`
	Topics     int    `json:"topics"`
	UptimeSecs int64  `json:"uptime_seconds"`
}

// APIError is the body of every non-2xx query API response.
type APIError struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError for serialization.
type ErrorResponse struct {
	Error APIError `json:"error"`
}
