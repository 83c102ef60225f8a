// Telegate - Encrypted Field Telemetry Gateway
// Copyright 2026 Telegate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/telegate/telegate

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"
)

func testSlogLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeServer struct {
	listenErr   error
	shutdownErr error
	listening   chan struct{}
	release     chan struct{}
	shutdowns   int
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		listening: make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (f *fakeServer) ListenAndServe() error {
	close(f.listening)
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.release
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.shutdowns++
	close(f.release)
	return f.shutdownErr
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	srv := newFakeServer()
	svc := NewHTTPService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	<-srv.listening
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop after cancellation")
	}
	if srv.shutdowns != 1 {
		t.Errorf("expected exactly one shutdown call, got %d", srv.shutdowns)
	}
}

func TestHTTPServiceListenFailure(t *testing.T) {
	srv := newFakeServer()
	srv.listenErr = errors.New("bind: address already in use")
	svc := NewHTTPService(srv, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, srv.listenErr) {
		t.Errorf("expected wrapped listen error, got %v", err)
	}
	if srv.shutdowns != 0 {
		t.Errorf("shutdown must not run after a listen failure, got %d calls", srv.shutdowns)
	}
}

func TestHTTPServiceShutdownFailure(t *testing.T) {
	srv := newFakeServer()
	srv.shutdownErr = errors.New("connections still draining")
	svc := NewHTTPService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	<-srv.listening
	cancel()

	select {
	case err := <-done:
		if err == nil || !errors.Is(err, srv.shutdownErr) {
			t.Errorf("expected wrapped shutdown error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop after cancellation")
	}
}

func TestTreeRunsSuperviseesUntilCanceled(t *testing.T) {
	tree := NewTree(testSlogLogger(), DefaultTreeConfig())

	started := make(chan struct{})
	tree.AddAPIService(serviceFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := tree.ServeBackground(ctx)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("supervised service never started")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancellation")
	}
}

type serviceFunc func(ctx context.Context) error

func (f serviceFunc) Serve(ctx context.Context) error { return f(ctx) }
func (f serviceFunc) String() string                  { return "test-service" }
