package transport

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// watchdog is the 1 Hz data-presence counter from spec.md §4.1.1: it
// decrements once per second, any input event resets it to its starting
// value, and reaching zero fires the expired callback exactly once until
// reset or restarted.
type watchdog struct {
	resetValue int
	interval   time.Duration
	counter    atomic.Int64
	expired    func()

	mu      sync.Mutex
	ticker  *time.Ticker
	stopCh  chan struct{}
	running bool
}

func newWatchdog(resetValue int, expired func()) *watchdog {
	w := &watchdog{resetValue: resetValue, interval: time.Second, expired: expired}
	w.counter.Store(int64(resetValue))
	return w
}

func (w *watchdog) start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.counter.Store(int64(w.resetValue))
	w.ticker = time.NewTicker(w.interval)
	w.stopCh = make(chan struct{})
	ticker := w.ticker
	stopCh := w.stopCh
	go w.run(ticker, stopCh)
}

func (w *watchdog) run(ticker *time.Ticker, stopCh chan struct{}) {
	for {
		select {
		case <-stopCh:
			ticker.Stop()
			return
		case <-ticker.C:
			if w.counter.Dec() == 0 {
				w.expired()
			}
		}
	}
}

func (w *watchdog) reset() {
	w.counter.Store(int64(w.resetValue))
}

func (w *watchdog) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
}
