// Telegate - Encrypted Field Telemetry Gateway
// Copyright 2026 Telegate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/telegate/telegate

// Package ingest owns the broker side of the gateway: the mutual-TLS
// subscriber connection, its reconnect-with-backoff loop, and the receive
// loop that feeds decoded records into the telemetry store.
//
// Connectivity errors are never fatal; the subscriber retries forever with
// exponential backoff. Credential errors are fatal at construction time.
package ingest

import (
	"context"
	"crypto/tls"
	"errors"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/telegate/telegate/internal/config"
	"github.com/telegate/telegate/internal/decode"
	"github.com/telegate/telegate/internal/logging"
	"github.com/telegate/telegate/internal/metrics"
	"github.com/telegate/telegate/internal/store"
)

const (
	// Reconnect backoff doubles from the initial delay up to the ceiling,
	// with no bound on the number of attempts. The gateway is a long-running
	// service, not a best-effort client.
	backoffInitial = 1 * time.Second
	backoffCeiling = 30 * time.Second

	connectTimeout = 10 * time.Second

	// receiveBuffer absorbs bursts between broker delivery and the decode
	// loop without reordering: messages are still handled one at a time in
	// arrival order.
	receiveBuffer = 512
)

var errConnectionLost = errors.New("broker connection closed")

// Subscriber maintains exactly one live subscription to the configured
// topic filter and is the sole writer into the telemetry store. It
// implements suture.Service.
type Subscriber struct {
	cfg       config.BrokerConfig
	store     *store.Store
	tlsConf   *tls.Config
	log       zerolog.Logger
	connected atomic.Bool
}

// NewSubscriber validates the TLS material and returns a subscriber ready
// to be supervised. A missing or unreadable certificate, key, or trust
// anchor is returned as an error so startup fails fast.
func NewSubscriber(cfg config.BrokerConfig, st *store.Store) (*Subscriber, error) {
	s := &Subscriber{
		cfg:   cfg,
		store: st,
		log:   logging.With().Str("component", "ingest").Logger(),
	}
	if cfg.TLS.Enabled {
		tlsConf, err := newTLSConfig(cfg.TLS)
		if err != nil {
			return nil, err
		}
		s.tlsConf = tlsConf
	} else {
		s.log.Warn().Msg("TLS disabled; broker session is unauthenticated and unencrypted")
	}
	return s, nil
}

// Connected reports whether the subscription is currently live.
func (s *Subscriber) Connected() bool {
	return s.connected.Load()
}

// Serve runs the connect / subscribe / receive loop until ctx is canceled.
// Each failed attempt doubles the retry delay up to the ceiling; a
// successful connect resets it.
func (s *Subscriber) Serve(ctx context.Context) error {
	delay := backoffInitial
	attempt := 0

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt > 0 {
			metrics.BrokerReconnects.Inc()
		}
		attempt++

		nc, err := s.connect()
		if err != nil {
			s.log.Warn().Err(err).
				Str("broker", s.cfg.Addr()).
				Dur("retry_in", delay).
				Msg("broker connect failed")
			if !sleepCtx(ctx, delay) {
				return ctx.Err()
			}
			delay = nextDelay(delay)
			continue
		}

		delay = backoffInitial
		err = s.consume(ctx, nc)
		nc.Close()
		s.connected.Store(false)
		metrics.BrokerConnected.Set(0)

		if ctx.Err() != nil {
			s.log.Info().Msg("subscriber shutting down")
			return ctx.Err()
		}

		s.log.Warn().Err(err).Dur("retry_in", delay).Msg("broker connection lost")
		if !sleepCtx(ctx, delay) {
			return ctx.Err()
		}
		delay = nextDelay(delay)
	}
}

// String implements fmt.Stringer; suture uses it to identify the service.
func (s *Subscriber) String() string {
	return "broker-subscriber"
}

func (s *Subscriber) connect() (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(s.cfg.ClientName),
		nats.Timeout(connectTimeout),
		// Reconnection policy is the Serve loop's job; the library must
		// not reconnect behind our back.
		nats.NoReconnect(),
	}
	if s.tlsConf != nil {
		opts = append(opts, nats.Secure(s.tlsConf))
	}

	nc, err := nats.Connect(s.cfg.URL(), opts...)
	if err != nil {
		return nil, err
	}

	s.connected.Store(true)
	metrics.BrokerConnected.Set(1)
	s.log.Info().
		Str("broker", s.cfg.Addr()).
		Bool("tls", s.tlsConf != nil).
		Msg("broker connected")
	return nc, nil
}

// consume subscribes to the topic filter and decodes messages one at a time
// in arrival order until the connection drops or ctx is canceled. Delivery
// order is only meaningful within the single connection; no cross-topic
// ordering is promised.
func (s *Subscriber) consume(ctx context.Context, nc *nats.Conn) error {
	msgs := make(chan *nats.Msg, receiveBuffer)
	sub, err := nc.ChanSubscribe(s.cfg.TopicFilter, msgs)
	if err != nil {
		return err
	}
	defer func() {
		_ = sub.Unsubscribe()
	}()

	closed := nc.StatusChanged(nats.CLOSED)
	s.log.Info().Str("filter", s.cfg.TopicFilter).Msg("subscribed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-closed:
			return errConnectionLost
		case msg := <-msgs:
			s.handle(msg)
		}
	}
}

// handle is the single ingestion path: decode, then one atomic store
// update. Decode failures degrade to tagged fallback records and never
// escape into the receive loop.
func (s *Subscriber) handle(msg *nats.Msg) {
	rec, pt := decode.Message(msg.Subject, msg.Data, time.Now())
	s.store.Upsert(rec, pt)

	metrics.MessagesReceived.WithLabelValues(rec.Topic).Inc()
	metrics.TopicsSeen.Set(float64(s.store.Count()))
	if rec.Error != "" {
		metrics.DecodeErrors.Inc()
		s.log.Debug().
			Str("topic", rec.Topic).
			Str("error", rec.Error).
			Int("size_bytes", rec.SizeBytes).
			Msg("payload stored as raw fallback")
		return
	}
	s.log.Debug().
		Str("topic", rec.Topic).
		Int("size_bytes", rec.SizeBytes).
		Msg("message ingested")
}

// nextDelay doubles the backoff delay, capped at the ceiling.
func nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > backoffCeiling {
		return backoffCeiling
	}
	return d
}

// sleepCtx waits for d or context cancellation; false means canceled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
