// Telegate - Encrypted Field Telemetry Gateway
// Copyright 2026 Telegate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/telegate/telegate

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telegate/telegate/internal/config"
	"github.com/telegate/telegate/internal/metrics"
)

// NewRouter wires the query API routes with the production middleware
// stack. All endpoints are read-only GETs; there is no authentication
// surface by design.
func NewRouter(h *Handler, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}))
	if !cfg.RateLimitDisabled {
		r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
	}
	r.Use(prometheusMetrics)

	r.Get("/gateway_ok", h.Health)
	r.Get("/telemetry/latest", h.LatestAll)
	r.Get("/telemetry/by_topic", h.LatestByTopic)
	r.Get("/telemetry/history", h.History)
	r.Get("/overview", h.Overview)
	r.Get("/dashboard", h.Dashboard)
	r.Get("/", h.Dashboard)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// prometheusMetrics records request counts and latency per route pattern.
func prometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.APIRequestsTotal.WithLabelValues(
			r.Method, endpoint, strconv.Itoa(ww.Status())).Inc()
		metrics.APIRequestDuration.WithLabelValues(
			r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}
