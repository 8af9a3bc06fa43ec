package retry

import (
	"context"
	"testing"
	"time"

	"walletbridge/logger"
)

func TestManager_Disabled(t *testing.T) {
	m := NewManager(false, 3, logger.NewNop())
	if m.ShouldReconnect() {
		t.Error("disabled manager should not reconnect")
	}
	if m.IsEnabled() {
		t.Error("IsEnabled() should be false")
	}
}

func TestManager_MaxAttempts(t *testing.T) {
	m := NewManagerWithDelay(true, 2, time.Millisecond, logger.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if !m.ShouldReconnect() {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
		if err := m.WaitBeforeReconnect(ctx); err != nil {
			t.Fatalf("WaitBeforeReconnect() failed: %v", err)
		}
	}

	if m.ShouldReconnect() {
		t.Error("should stop after max attempts")
	}
	if m.GetAttempt() != 2 {
		t.Errorf("GetAttempt() = %d, want 2", m.GetAttempt())
	}
}

func TestManager_BackoffAndReset(t *testing.T) {
	m := NewManagerWithDelay(true, 0, time.Millisecond, logger.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := m.WaitBeforeReconnect(ctx); err != nil {
			t.Fatalf("WaitBeforeReconnect() failed: %v", err)
		}
	}
	if got := m.CurrentDelay(); got != 4*time.Millisecond {
		t.Errorf("CurrentDelay() = %v, want 4ms", got)
	}

	m.Reset()
	if m.GetAttempt() != 0 || m.CurrentDelay() != time.Millisecond {
		t.Errorf("Reset() left attempt=%d delay=%v", m.GetAttempt(), m.CurrentDelay())
	}
}

func TestManager_WaitCancelled(t *testing.T) {
	m := NewManagerWithDelay(true, 0, time.Hour, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	if err := m.WaitBeforeReconnect(ctx); err != nil {
		t.Fatalf("first wait should not block: %v", err)
	}
	cancel()
	if err := m.WaitBeforeReconnect(ctx); err == nil {
		t.Error("expected context error")
	}
}
