package transport

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// scheduleReconnect arranges for (*Endpoint).open to be retried after
// delay; if that attempt fails it is retried once more after another delay.
// A single in-flight reconnect attempt is allowed at a time -
// a second call while one is pending is a no-op, matching the driver's
// single-threaded event loop model (spec.md §5).
func (e *Endpoint) scheduleReconnect(delay time.Duration) {
	e.reconnectMu.Lock()
	defer e.reconnectMu.Unlock()
	if e.reconnectCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.reconnectCancel = cancel

	go func() {
		// backoff.Retry makes its first attempt immediately, so the initial
		// delay is waited out here.
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			b := backoff.WithContext(backoff.NewConstantBackOff(delay), ctx)
			_ = backoff.Retry(func() error {
				return e.open(ctx)
			}, backoff.WithMaxRetries(b, 1))
		}

		e.reconnectMu.Lock()
		e.reconnectCancel = nil
		e.reconnectMu.Unlock()
	}()
}

func (e *Endpoint) cancelReconnect() {
	e.reconnectMu.Lock()
	defer e.reconnectMu.Unlock()
	if e.reconnectCancel != nil {
		e.reconnectCancel()
		e.reconnectCancel = nil
	}
}
