// Telegate - Encrypted Field Telemetry Gateway
// Copyright 2026 Telegate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/telegate/telegate

// Command server runs the telemetry gateway: it subscribes to the broker
// over mutual TLS, decodes and normalizes readings into the in-memory
// store, and serves the read-only query API and dashboard.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/telegate/telegate/internal/api"
	"github.com/telegate/telegate/internal/config"
	"github.com/telegate/telegate/internal/ingest"
	"github.com/telegate/telegate/internal/logging"
	"github.com/telegate/telegate/internal/store"
	"github.com/telegate/telegate/internal/supervisor"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("gateway failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	if cfg.Broker.ClientName == "" {
		cfg.Broker.ClientName = "telegate-" + strings.Split(uuid.NewString(), "-")[0]
	}

	logging.Info().
		Str("version", version).
		Str("broker", cfg.Broker.Addr()).
		Str("filter", cfg.Broker.TopicFilter).
		Str("client_name", cfg.Broker.ClientName).
		Bool("tls", cfg.Broker.TLS.Enabled).
		Msg("starting telegate")

	st := store.New()
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	if cfg.Broker.Embedded {
		embedded, err := ingest.NewEmbeddedServer(ingest.EmbeddedServerOptions{
			Host: "127.0.0.1",
			Port: cfg.Broker.Port,
		})
		if err != nil {
			return fmt.Errorf("start embedded broker: %w", err)
		}
		cfg.Broker.Host = "127.0.0.1"
		cfg.Broker.Port = embedded.Port()
		tree.AddMessagingService(embedded)
		logging.Info().Str("url", embedded.ClientURL()).Msg("embedded broker running")
	}

	// Credential problems are fatal here; connectivity problems are the
	// subscriber's to retry.
	sub, err := ingest.NewSubscriber(cfg.Broker, st)
	if err != nil {
		return fmt.Errorf("initialize subscriber: %w", err)
	}
	tree.AddMessagingService(sub)

	handler := api.NewHandler(cfg, st, sub)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg.Server),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}
	tree.AddAPIService(supervisor.NewHTTPService(httpServer, cfg.Server.Timeout))

	logging.Info().Str("addr", httpServer.Addr).Msg("query API listening")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", fmt.Sprint(svc.Service)).Msg("service did not stop in time")
		}
	}

	logging.Info().Msg("telegate stopped")
	return nil
}
