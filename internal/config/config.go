// Telegate - Encrypted Field Telemetry Gateway
// Copyright 2026 Telegate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/telegate/telegate

// Package config holds all gateway configuration, loaded with Koanf v2 from
// layered sources (highest priority wins):
//
//  1. Environment variables
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Built-in defaults
//
// Config is immutable after Load and safe for concurrent reads. No secret
// material lives in this package; TLS credentials are referenced by path
// and read once at startup by the ingest layer.
package config

import (
	"crypto/tls"
	"fmt"
	"time"
)

// Config is the root configuration for the gateway process.
type Config struct {
	Broker  BrokerConfig  `koanf:"broker"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
}

// BrokerConfig describes the pub/sub broker connection: where the broker
// lives, what to subscribe to, and how to authenticate.
type BrokerConfig struct {
	// Host and Port locate the broker endpoint.
	Host string `koanf:"host" validate:"required"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`

	// ClientName identifies this gateway to the broker. When empty, main
	// generates a unique name so parallel deployments stay tellable apart.
	ClientName string `koanf:"client_name"`

	// TopicFilter is the single wildcard-capable subject filter the
	// gateway subscribes to ('>' matches any number of trailing tokens).
	TopicFilter string `koanf:"topic_filter" validate:"required"`

	// Embedded runs an in-process broker instead of dialing an external
	// one. Development convenience; production points at a real broker.
	Embedded bool `koanf:"embedded"`

	TLS TLSConfig `koanf:"tls"`
}

// TLSConfig holds the mutual-TLS session settings. The gateway both
// verifies the broker against the trust anchor and presents its own client
// certificate. Disabling TLS is an explicit development-only choice, never
// the default.
type TLSConfig struct {
	Enabled  bool   `koanf:"enabled"`
	CAFile   string `koanf:"ca_file"`
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`

	// MinVersion is the minimum accepted TLS protocol version: "1.2" or
	// "1.3". Default "1.3".
	MinVersion string `koanf:"min_version" validate:"oneof=1.2 1.3"`
}

// MinTLSVersion maps the configured version string to its crypto/tls
// constant.
func (t TLSConfig) MinTLSVersion() (uint16, error) {
	switch t.MinVersion {
	case "1.2":
		return tls.VersionTLS12, nil
	case "1.3", "":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported minimum TLS version %q", t.MinVersion)
	}
}

// URL returns the broker connection URL.
func (b BrokerConfig) URL() string {
	scheme := "nats"
	if b.TLS.Enabled {
		scheme = "tls"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, b.Host, b.Port)
}

// Addr returns the broker endpoint as host:port, for status output.
func (b BrokerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", b.Host, b.Port)
}

// ServerConfig configures the HTTP query API.
type ServerConfig struct {
	Host    string        `koanf:"host" validate:"required"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`

	// HistoryDefault is the number of history points returned when a
	// history query omits n. Bounded by the store's ring capacity.
	HistoryDefault int `koanf:"history_default" validate:"min=1,max=200"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig configures the zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Default returns the built-in defaults, applied before the config file
// and environment layers. Also the base configuration for tests.
func Default() *Config {
	return &Config{
		Broker: BrokerConfig{
			Host:        "localhost",
			Port:        4222,
			ClientName:  "",
			TopicFilter: "telemetry.>",
			Embedded:    false,
			TLS: TLSConfig{
				Enabled:    true,
				MinVersion: "1.3",
			},
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			Timeout:         30 * time.Second,
			HistoryDefault:  100,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
