// Telegate - Encrypted Field Telemetry Gateway
// Copyright 2026 Telegate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/telegate/telegate

// Package decode turns raw broker messages into normalized telemetry
// records. Decoding is pure and synchronous; a failure is terminal for that
// single message only and degrades to a tagged fallback record rather than
// dropping the message or surfacing an error to the receive loop.
package decode

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/telegate/telegate/internal/models"
)

// Field aliases accepted from devices with constrained firmware. The alias
// is applied only when the canonical key is absent; an explicit canonical
// field always wins. The alias key itself is preserved, which keeps
// normalization idempotent and lossless.
var fieldAliases = map[string]string{
	"temp_c": "temperature",
	"hum":    "humidity",
}

// Message decodes one wire message into the Latest record and its paired
// history point. The timestamp is set at receipt time; devices do not get
// to claim when their data arrived.
func Message(topic string, raw []byte, now time.Time) (models.TopicRecord, models.HistoryPoint) {
	ts := now.Unix()
	rec := models.TopicRecord{
		Topic:     topic,
		SizeBytes: len(raw),
		Timestamp: ts,
	}
	pt := models.HistoryPoint{
		Timestamp: ts,
		SizeBytes: len(raw),
	}

	// Lossy UTF-8 sanitation: invalid byte sequences are replaced, never
	// fatal. The JSON parse below decides whether the text is usable.
	text := strings.ToValidUTF8(string(raw), "�")

	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		rec.Payload = rawFallback(raw)
		rec.Error = err.Error()
		return rec, pt
	}

	if obj, ok := value.(map[string]any); ok {
		Normalize(obj)
		pt.Temperature = numericField(obj, "temperature")
		pt.Humidity = numericField(obj, "humidity")
		value = obj
	}

	payload, err := json.Marshal(value)
	if err != nil {
		// Unreachable for values produced by Unmarshal, but the fallback
		// contract holds regardless.
		rec.Payload = rawFallback(raw)
		rec.Error = err.Error()
		return rec, pt
	}
	rec.Payload = payload
	return rec, pt
}

// Normalize applies the field alias mapping to a decoded object in place.
// Idempotent: once the canonical key exists, re-applying is a no-op.
func Normalize(obj map[string]any) {
	for alias, canonical := range fieldAliases {
		if _, exists := obj[canonical]; exists {
			continue
		}
		if v, ok := obj[alias]; ok {
			obj[canonical] = v
		}
	}
}

// numericField returns a copy of obj[key] when it is a JSON number.
// Non-numeric values for charted fields are omitted, not coerced.
func numericField(obj map[string]any, key string) *float64 {
	v, ok := obj[key]
	if !ok {
		return nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}

func rawFallback(raw []byte) json.RawMessage {
	fallback, err := json.Marshal(map[string]string{"raw": hex.EncodeToString(raw)})
	if err != nil {
		// A hex string cannot fail to marshal; keep the record well-formed
		// even if it somehow does.
		return json.RawMessage(`{"raw":""}`)
	}
	return fallback
}
