// Telegate - Encrypted Field Telemetry Gateway
// Copyright 2026 Telegate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/telegate/telegate

package decode

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

var receipt = time.Unix(1700000000, 0)

func payloadObject(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		t.Fatalf("payload is not a JSON object: %v", err)
	}
	return obj
}

func TestDecodeCleanPayload(t *testing.T) {
	raw := []byte(`{"temperature": 22.3, "humidity": 41}`)
	rec, pt := Message("team1.sensor", raw, receipt)

	if rec.Topic != "team1.sensor" {
		t.Errorf("expected topic team1.sensor, got %q", rec.Topic)
	}
	if rec.SizeBytes != len(raw) {
		t.Errorf("expected size %d, got %d", len(raw), rec.SizeBytes)
	}
	if rec.Timestamp != receipt.Unix() {
		t.Errorf("expected receipt timestamp %d, got %d", receipt.Unix(), rec.Timestamp)
	}
	if rec.Error != "" {
		t.Errorf("unexpected decode error: %s", rec.Error)
	}

	obj := payloadObject(t, rec.Payload)
	if obj["temperature"] != 22.3 {
		t.Errorf("expected temperature 22.3, got %v", obj["temperature"])
	}

	if pt.Temperature == nil || *pt.Temperature != 22.3 {
		t.Errorf("expected history temperature 22.3, got %v", pt.Temperature)
	}
	if pt.Humidity == nil || *pt.Humidity != 41 {
		t.Errorf("expected history humidity 41, got %v", pt.Humidity)
	}
	if pt.SizeBytes != len(raw) || pt.Timestamp != receipt.Unix() {
		t.Error("history point does not mirror record size/timestamp")
	}
}

func TestNormalizeAliases(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantTemp float64
	}{
		{"alias mapped", `{"temp_c": 21.5}`, 21.5},
		{"explicit field wins", `{"temperature": 20, "temp_c": 99}`, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, pt := Message("t", []byte(tt.payload), receipt)
			obj := payloadObject(t, rec.Payload)
			if obj["temperature"] != tt.wantTemp {
				t.Errorf("expected temperature %v, got %v", tt.wantTemp, obj["temperature"])
			}
			if pt.Temperature == nil || *pt.Temperature != tt.wantTemp {
				t.Errorf("expected history temperature %v, got %v", tt.wantTemp, pt.Temperature)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	obj := map[string]any{"temp_c": 21.5, "hum": 40.0, "battery": 87.0}
	Normalize(obj)
	Normalize(obj)

	if obj["temperature"] != 21.5 {
		t.Errorf("expected temperature 21.5 after double normalization, got %v", obj["temperature"])
	}
	if obj["humidity"] != 40.0 {
		t.Errorf("expected humidity 40 after double normalization, got %v", obj["humidity"])
	}
	// No field loss: the alias keys and unrelated fields survive.
	if obj["temp_c"] != 21.5 || obj["hum"] != 40.0 || obj["battery"] != 87.0 {
		t.Error("normalization dropped fields")
	}
}

func TestDecodeNonNumericChartFields(t *testing.T) {
	rec, pt := Message("t", []byte(`{"temperature": "warm", "humidity": null}`), receipt)

	if rec.Error != "" {
		t.Errorf("unexpected decode error: %s", rec.Error)
	}
	if pt.Temperature != nil {
		t.Errorf("non-numeric temperature must be omitted, got %v", *pt.Temperature)
	}
	if pt.Humidity != nil {
		t.Errorf("null humidity must be omitted, got %v", *pt.Humidity)
	}
}

func TestDecodeMalformedPayload(t *testing.T) {
	raw := []byte{0x00, 0xFF, 0x10, 0x20}
	rec, pt := Message("t", raw, receipt)

	if rec.Error == "" {
		t.Error("expected non-empty error for malformed payload")
	}
	obj := payloadObject(t, rec.Payload)
	if obj["raw"] != hex.EncodeToString(raw) {
		t.Errorf("expected raw hex fallback %q, got %v", hex.EncodeToString(raw), obj["raw"])
	}
	if rec.SizeBytes != len(raw) {
		t.Errorf("expected size %d, got %d", len(raw), rec.SizeBytes)
	}

	if pt.Temperature != nil || pt.Humidity != nil {
		t.Error("fallback history point must carry no chart fields")
	}
	if pt.SizeBytes != len(raw) || pt.Timestamp != receipt.Unix() {
		t.Error("fallback history point must still carry timestamp and size")
	}
}

func TestDecodeNonObjectJSON(t *testing.T) {
	rec, pt := Message("t", []byte(`[1, 2, 3]`), receipt)

	if rec.Error != "" {
		t.Errorf("valid non-object JSON is not an error, got %s", rec.Error)
	}
	if string(rec.Payload) != `[1,2,3]` {
		t.Errorf("expected passthrough payload [1,2,3], got %s", rec.Payload)
	}
	if pt.Temperature != nil || pt.Humidity != nil {
		t.Error("non-object payloads contribute no chart fields")
	}
}

func TestDecodeInvalidUTF8(t *testing.T) {
	// A JSON frame with an embedded invalid byte: sanitation replaces it,
	// the parse fails on the replacement character, and the message
	// degrades to the fallback record instead of being dropped.
	raw := append([]byte(`{"temperature": `), 0xC3, '}')
	rec, _ := Message("t", raw, receipt)

	if rec.Error == "" {
		t.Error("expected decode error for invalid UTF-8 frame")
	}
	obj := payloadObject(t, rec.Payload)
	if obj["raw"] != hex.EncodeToString(raw) {
		t.Error("fallback must hex-encode the original bytes, not the sanitized text")
	}
}
