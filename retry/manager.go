package retry

import (
	"context"
	"math"
	"sync"
	"time"

	"walletbridge/logger"
)

const (
	INITIAL_RETRY_DELAY      = 1
	MAX_RETRY_DELAY          = 60
	RETRY_BACKOFF_MULTIPLIER = 2
)

// Manager paces reconnection attempts to the wallet provider bridge.
type Manager struct {
	mu           sync.Mutex
	enabled      bool
	maxAttempts  int
	initialDelay time.Duration
	currentDelay time.Duration
	attempt      int
	logger       logger.Logger
}

func NewManager(enabled bool, maxAttempts int, logger logger.Logger) *Manager {
	return NewManagerWithDelay(enabled, maxAttempts, time.Duration(INITIAL_RETRY_DELAY)*time.Second, logger)
}

func NewManagerWithDelay(enabled bool, maxAttempts int, initialDelay time.Duration, logger logger.Logger) *Manager {
	return &Manager{
		enabled:      enabled,
		maxAttempts:  maxAttempts,
		initialDelay: initialDelay,
		currentDelay: initialDelay,
		attempt:      0,
		logger:       logger,
	}
}

func (m *Manager) ShouldReconnect() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return false
	}

	if m.maxAttempts > 0 && m.attempt >= m.maxAttempts {
		m.logger.Info("Max reconnection attempts (%d) reached", m.maxAttempts)
		return false
	}

	return true
}

// WaitBeforeReconnect returns immediately for the first attempt and backs off
// exponentially afterwards.
func (m *Manager) WaitBeforeReconnect(ctx context.Context) error {
	m.mu.Lock()
	if m.attempt == 0 {
		m.attempt++
		m.mu.Unlock()
		return nil
	}
	delay := m.currentDelay
	attempt := m.attempt
	m.mu.Unlock()

	m.logger.Warn("Waiting %v before reconnection attempt %d", delay, attempt+1)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		m.mu.Lock()
		m.currentDelay = time.Duration(
			math.Min(
				float64(m.currentDelay)*RETRY_BACKOFF_MULTIPLIER,
				float64(MAX_RETRY_DELAY)*float64(time.Second),
			),
		)
		m.attempt++
		m.mu.Unlock()
		return nil
	}
}

func (m *Manager) Reset() {
	m.mu.Lock()
	m.attempt = 0
	m.currentDelay = m.initialDelay
	m.mu.Unlock()

	if m.enabled {
		m.logger.Info("Reconnection manager reset - connection successful")
	}
}

func (m *Manager) GetAttempt() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempt
}

func (m *Manager) CurrentDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentDelay
}

func (m *Manager) IsEnabled() bool {
	return m.enabled
}
