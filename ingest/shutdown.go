package ingest

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Controller coordinates signal-driven graceful shutdown. On SIGINT or
// SIGTERM it cancels the run context; every loop boundary in the enumerator
// and dispatcher observes the cancellation and exits early.
type Controller struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	signal os.Signal
	sigCh  chan os.Signal
}

// NewController registers handlers for SIGINT and SIGTERM and returns a
// controller whose context is cancelled when either arrives.
func NewController(parent context.Context) *Controller {
	ctx, cancel := context.WithCancel(parent)

	c := &Controller{
		ctx:    ctx,
		cancel: cancel,
		sigCh:  make(chan os.Signal, 1),
	}

	signal.Notify(c.sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-c.sigCh:
			log.Printf("Received %s signal. Shutting down gracefully...", sig)
			c.mu.Lock()
			c.signal = sig
			c.mu.Unlock()
			c.cancel()
		case <-ctx.Done():
		}
	}()

	return c
}

// Context returns the run context, cancelled on shutdown.
func (c *Controller) Context() context.Context {
	return c.ctx
}

// Interrupted reports whether a termination signal was observed.
func (c *Controller) Interrupted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signal != nil
}

// ExitCode maps the run outcome to a process exit code: 128+signal for an
// interrupted run, 1 for completion with item-level failures, 0 otherwise.
func (c *Controller) ExitCode(itemFailures int64) int {
	c.mu.Lock()
	sig := c.signal
	c.mu.Unlock()

	if sig != nil {
		if s, ok := sig.(syscall.Signal); ok {
			return 128 + int(s)
		}
		return 130
	}
	if itemFailures > 0 {
		return 1
	}
	return 0
}

// Stop deregisters the signal handlers and cancels the run context.
func (c *Controller) Stop() {
	signal.Stop(c.sigCh)
	c.cancel()
}
