// Telegate - Encrypted Field Telemetry Gateway
// Copyright 2026 Telegate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/telegate/telegate

package ingest

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// EmbeddedServer runs an in-process NATS broker for single-binary
// development deployments and for tests. Production deployments point the
// subscriber at an external, policy-enforcing broker instead.
type EmbeddedServer struct {
	server *server.Server
}

// EmbeddedServerOptions configures the in-process broker.
type EmbeddedServerOptions struct {
	Host string
	// Port 0 selects a random free port.
	Port int
	// TLSConfig, when set, makes the broker require TLS from clients.
	TLSConfig *tls.Config
}

// NewEmbeddedServer creates and starts an embedded broker, waiting until it
// accepts connections.
func NewEmbeddedServer(opts EmbeddedServerOptions) (*EmbeddedServer, error) {
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.Port == 0 {
		opts.Port = server.RANDOM_PORT
	}

	srvOpts := &server.Options{
		ServerName: "telegate-embedded",
		Host:       opts.Host,
		Port:       opts.Port,
		NoLog:      true,
		NoSigs:     true,
	}
	if opts.TLSConfig != nil {
		srvOpts.TLSConfig = opts.TLSConfig
	}

	ns, err := server.NewServer(srvOpts)
	if err != nil {
		return nil, fmt.Errorf("create embedded broker: %w", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded broker not ready within timeout")
	}

	return &EmbeddedServer{server: ns}, nil
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedServer) ClientURL() string {
	return s.server.ClientURL()
}

// Port returns the TCP port the broker listens on.
func (s *EmbeddedServer) Port() int {
	if addr, ok := s.server.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Serve implements suture.Service: it blocks until ctx cancellation, then
// shuts the broker down.
func (s *EmbeddedServer) Serve(ctx context.Context) error {
	<-ctx.Done()
	s.server.Shutdown()
	s.server.WaitForShutdown()
	return ctx.Err()
}

// Shutdown stops the broker outside of supervision (tests, error paths).
func (s *EmbeddedServer) Shutdown() {
	s.server.Shutdown()
	s.server.WaitForShutdown()
}

// String implements fmt.Stringer for supervision logs.
func (s *EmbeddedServer) String() string {
	return "embedded-broker"
}
