package progress

import (
	"io"
	"time"

	"go.uber.org/zap"
)

// ManagerOption customizes a Manager at construction.
type ManagerOption func(*Manager)

// WithOutput directs frames to output. When output implements Flush() error
// or Sync() error, the manager flushes it after every frame.
func WithOutput(output io.Writer) ManagerOption {
	return func(manager *Manager) {
		if output != nil {
			manager.output = output
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(manager *Manager) {
		if logger != nil {
			manager.logger = logger
		}
	}
}

// WithDefaultCloseMethod sets the close method applied to indicators that
// return CloseMethodDefault. CloseMethodDefault selects CloseMethodLeaveBehind.
func WithDefaultCloseMethod(closeMethod CloseMethod) ManagerOption {
	return func(manager *Manager) {
		manager.defaultCloseMethod = closeMethod.resolve(CloseMethodLeaveBehind)
	}
}

// WithLockTimeout bounds each wait for a thread-safe indicator during a
// redraw. Non-positive durations keep the default.
func WithLockTimeout(timeout time.Duration) ManagerOption {
	return func(manager *Manager) {
		if timeout > 0 {
			manager.lockTimeout = timeout
		}
	}
}
