package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalManager turns SIGINT and SIGTERM into context cancellation.
// The engine honors cancellation between execution units, so an interrupted
// batch fails cleanly and is not persisted.
type SignalManager struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSignalManager starts listening for signals on top of parent.
func NewSignalManager(parent context.Context) *SignalManager {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return &SignalManager{ctx: ctx, cancel: cancel}
}

// Context returns the signal context.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Interrupted reports whether a signal (or the parent) ended the context.
func (sm *SignalManager) Interrupted() bool {
	return sm.ctx.Err() != nil
}

// Stop releases the signal listener.
func (sm *SignalManager) Stop() {
	sm.cancel()
}
