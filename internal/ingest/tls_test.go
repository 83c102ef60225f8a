// Telegate - Encrypted Field Telemetry Gateway
// Copyright 2026 Telegate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/telegate/telegate

package ingest

import (
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"

	"github.com/telegate/telegate/internal/config"
	"github.com/telegate/telegate/internal/store"
)

func TestNewTLSConfig(t *testing.T) {
	pki := newTestPKI(t)

	cfg := config.TLSConfig{
		Enabled:    true,
		CAFile:     pki.caFile,
		CertFile:   pki.clientCertFile,
		KeyFile:    pki.clientKeyFile,
		MinVersion: "1.3",
	}

	tlsConf, err := newTLSConfig(cfg)
	if err != nil {
		t.Fatalf("newTLSConfig failed: %v", err)
	}
	if tlsConf.MinVersion != tls.VersionTLS13 {
		t.Errorf("expected minimum TLS 1.3, got %x", tlsConf.MinVersion)
	}
	if len(tlsConf.Certificates) != 1 {
		t.Errorf("expected one client certificate, got %d", len(tlsConf.Certificates))
	}
	if tlsConf.RootCAs == nil {
		t.Error("expected trust anchor pool to be set")
	}
	if tlsConf.InsecureSkipVerify {
		t.Error("peer verification must never be disabled")
	}
}

func TestNewTLSConfigFailures(t *testing.T) {
	pki := newTestPKI(t)
	garbage := filepath.Join(t.TempDir(), "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(*config.TLSConfig)
	}{
		{"missing ca file", func(c *config.TLSConfig) { c.CAFile = "/nonexistent/ca.crt" }},
		{"garbage ca file", func(c *config.TLSConfig) { c.CAFile = garbage }},
		{"missing cert file", func(c *config.TLSConfig) { c.CertFile = "/nonexistent/client.crt" }},
		{"garbage key file", func(c *config.TLSConfig) { c.KeyFile = garbage }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.TLSConfig{
				Enabled:    true,
				CAFile:     pki.caFile,
				CertFile:   pki.clientCertFile,
				KeyFile:    pki.clientKeyFile,
				MinVersion: "1.3",
			}
			tt.mutate(&cfg)
			if _, err := newTLSConfig(cfg); err == nil {
				t.Error("expected error for broken credential configuration")
			}
		})
	}
}

// TestNewSubscriberFailsFastOnBadCredentials pins the startup contract:
// unusable credentials are a constructor error, not an infinite retry.
func TestNewSubscriberFailsFastOnBadCredentials(t *testing.T) {
	cfg := config.BrokerConfig{
		Host:        "localhost",
		Port:        4222,
		TopicFilter: "telemetry.>",
		TLS: config.TLSConfig{
			Enabled:    true,
			CAFile:     "/nonexistent/ca.crt",
			CertFile:   "/nonexistent/client.crt",
			KeyFile:    "/nonexistent/client.key",
			MinVersion: "1.3",
		},
	}

	if _, err := NewSubscriber(cfg, store.New()); err == nil {
		t.Error("expected NewSubscriber to fail fast on unreadable credentials")
	}
}
