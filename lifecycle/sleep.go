package lifecycle

import (
	"context"
	"sync"
	"time"
)

// sleeper implements the interruptible idle sleep between empty polls. Each
// Sleep installs a fresh one-shot wake-up handle; Wake cancels the pending
// timer and resolves the sleep immediately. After a sleep resolves the handle
// resets to a no-op, so a Wake with no sleeper pending does nothing.
type sleeper struct {
	mu   sync.Mutex
	wake chan struct{}
}

func newSleeper() *sleeper {
	return &sleeper{}
}

// Sleep blocks for d unless woken or cancelled first.
func (s *sleeper) Sleep(ctx context.Context, d time.Duration) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.wake = ch
	s.mu.Unlock()

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ch:
	case <-ctx.Done():
	}

	s.mu.Lock()
	if s.wake == ch {
		s.wake = nil
	}
	s.mu.Unlock()
}

// Wake resolves a pending Sleep, if any. Safe to call at any time.
func (s *sleeper) Wake() {
	s.mu.Lock()
	ch := s.wake
	s.wake = nil
	s.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}
