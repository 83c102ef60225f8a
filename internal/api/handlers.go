// Telegate - Encrypted Field Telemetry Gateway
// Copyright 2026 Telegate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/telegate/telegate

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/telegate/telegate/internal/config"
	"github.com/telegate/telegate/internal/models"
	"github.com/telegate/telegate/internal/store"
)

// ConnectionStatus reports whether the broker subscription is live.
// Satisfied by *ingest.Subscriber; kept as an interface so handlers are
// testable without a broker.
type ConnectionStatus interface {
	Connected() bool
}

// Handler serves the query API. It holds no mutable state of its own; all
// reads go through the store's snapshot methods.
type Handler struct {
	cfg       *config.Config
	store     *store.Store
	status    ConnectionStatus
	startTime time.Time
}

// NewHandler creates the query API handler.
func NewHandler(cfg *config.Config, st *store.Store, status ConnectionStatus) *Handler {
	return &Handler{
		cfg:       cfg,
		store:     st,
		status:    status,
		startTime: time.Now(),
	}
}

// Health reports gateway status: broker target, subscribed filter, and
// whether the subscription is currently live. It never touches telemetry
// data beyond a topic count.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	connected := h.status != nil && h.status.Connected()
	status := "ok"
	if !connected {
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:     status,
		Broker:     h.cfg.Broker.Addr(),
		Subscribed: h.cfg.Broker.TopicFilter,
		Connected:  connected,
		Topics:     h.store.Count(),
		UptimeSecs: int64(time.Since(h.startTime).Seconds()),
	})
}

// LatestAll returns the latest record for every topic. An empty mapping is
// a valid answer, not an error.
func (h *Handler) LatestAll(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.LatestAll())
}

// LatestByTopic returns the latest record for one topic, or a typed
// not-found error for topics the gateway has never seen.
func (h *Handler) LatestByTopic(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		respondError(w, http.StatusBadRequest, errCodeInvalidArgument, "query parameter 'topic' is required")
		return
	}

	rec, ok := h.store.Latest(topic)
	if !ok {
		respondError(w, http.StatusNotFound, errCodeNotFound,
			fmt.Sprintf("no data for topic %q", topic))
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// History returns the last n history points for a topic, oldest-first.
// n defaults to the configured value and must stay within the ring
// capacity.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		respondError(w, http.StatusBadRequest, errCodeInvalidArgument, "query parameter 'topic' is required")
		return
	}

	n := h.cfg.Server.HistoryDefault
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, errCodeInvalidArgument,
				fmt.Sprintf("query parameter 'n' must be an integer, got %q", raw))
			return
		}
		n = parsed
	}
	if n < 1 || n > store.HistoryMax {
		respondError(w, http.StatusBadRequest, errCodeInvalidArgument,
			fmt.Sprintf("query parameter 'n' must be between 1 and %d", store.HistoryMax))
		return
	}

	points, ok := h.store.History(topic, n)
	if !ok {
		respondError(w, http.StatusNotFound, errCodeNotFound,
			fmt.Sprintf("no history for topic %q", topic))
		return
	}
	respondJSON(w, http.StatusOK, points)
}

// Overview writes a plain-text summary for humans poking at the gateway
// with curl.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	topics := h.store.Topics()
	list := "none"
	if len(topics) > 0 {
		list = strings.Join(topics, ", ")
	}
	status := "degraded"
	if h.status != nil && h.status.Connected() {
		status = "ok"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s\n", status)
	fmt.Fprintf(&b, "Broker: %s\n", h.cfg.Broker.Addr())
	fmt.Fprintf(&b, "Subscribed: %s\n", h.cfg.Broker.TopicFilter)
	fmt.Fprintf(&b, "Topics seen: %s\n", list)
	fmt.Fprintf(&b, "Count: %d\n", len(topics))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(b.String())); err != nil {
		return
	}
}
