package main

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer mimics fiber: Start returns as soon as Shutdown closes the
// listener, while the rest of Shutdown is still running.
type fakeServer struct {
	listening chan struct{}
	closed    chan struct{}
	released  atomic.Bool
	startErr  error
}

func newFakeServer() *fakeServer {
	return &fakeServer{listening: make(chan struct{}), closed: make(chan struct{})}
}

func (f *fakeServer) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	close(f.listening)
	<-f.closed
	return nil
}

func (f *fakeServer) Shutdown(context.Context) error {
	close(f.closed)
	time.Sleep(50 * time.Millisecond)
	f.released.Store(true)
	return nil
}

func TestServeWaitsForShutdown(t *testing.T) {
	srv := newFakeServer()
	stop := make(chan os.Signal, 1)
	var tracerClosed atomic.Bool

	result := make(chan error, 1)
	go func() {
		result <- serve(srv, stop, func(context.Context) error {
			tracerClosed.Store(true)
			return nil
		})
	}()

	<-srv.listening
	stop <- syscall.SIGTERM

	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
	assert.True(t, srv.released.Load(), "stores are closed before serve returns")
	assert.True(t, tracerClosed.Load(), "tracer is flushed before serve returns")
}

func TestServeReturnsStartError(t *testing.T) {
	srv := newFakeServer()
	srv.startErr = errors.New("address in use")

	err := serve(srv, make(chan os.Signal), func(context.Context) error { return nil })
	assert.EqualError(t, err, "address in use")
}
