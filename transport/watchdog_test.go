package transport

import (
	"testing"
	"time"
)

func TestWatchdog_ExpiresAfterResetValueTicks(t *testing.T) {
	expiredCh := make(chan struct{}, 1)
	w := newWatchdog(3, func() { expiredCh <- struct{}{} })
	w.interval = 5 * time.Millisecond
	w.start()
	defer w.stop()

	select {
	case <-expiredCh:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("watchdog did not expire")
	}
}

func TestWatchdog_ResetPreventsExpiry(t *testing.T) {
	expiredCh := make(chan struct{}, 1)
	w := newWatchdog(2, func() { expiredCh <- struct{}{} })
	w.interval = 5 * time.Millisecond
	w.start()
	defer w.stop()

	stop := time.After(30 * time.Millisecond)
loop:
	for {
		select {
		case <-stop:
			break loop
		case <-time.After(3 * time.Millisecond):
			w.reset()
		}
	}

	select {
	case <-expiredCh:
		t.Fatal("watchdog expired despite continuous resets")
	default:
	}
}

func TestReconnectSeconds(t *testing.T) {
	cases := []struct {
		dogTimeout int
		want       int
	}{
		{8, 6},
		{3, 2},
		{2, 2},
		{1, 2},
	}
	for _, c := range cases {
		if got := reconnectSeconds(c.dogTimeout); got != c.want {
			t.Errorf("reconnectSeconds(%d) = %d, want %d", c.dogTimeout, got, c.want)
		}
	}
}
