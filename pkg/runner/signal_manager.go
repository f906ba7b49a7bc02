package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// interruptGrace is how long Interrupted waits for a signal that trails an
// input error. Some terminals deliver Ctrl+C as EOF first.
const interruptGrace = 100 * time.Millisecond

// SignalManager ties a questionnaire run to SIGINT and SIGTERM: the context
// it hands out is cancelled on either signal or when the parent ends.
type SignalManager struct {
	ctx  context.Context
	stop context.CancelFunc
}

// NewSignalManager starts listening for signals on behalf of parent.
func NewSignalManager(parent context.Context) *SignalManager {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return &SignalManager{ctx: ctx, stop: stop}
}

// Context is cancelled once the run is interrupted.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Interrupted reports whether the run was interrupted. It is called after
// a failed read, so it gives a trailing signal a short grace period before
// treating the failure as a plain input error.
func (sm *SignalManager) Interrupted() bool {
	if sm.ctx.Err() != nil {
		return true
	}
	timer := time.NewTimer(interruptGrace)
	defer timer.Stop()
	select {
	case <-sm.ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}

// Stop releases the signal listener.
func (sm *SignalManager) Stop() {
	sm.stop()
}
