package channel

import (
	"log/slog"
	"time"
)

// DefaultBackoff is the fixed delay between reconnect attempts.
const DefaultBackoff = 5 * time.Second

type options struct {
	backoff       time.Duration
	dedupCapacity int
	logger        *slog.Logger
}

// Option configures a Supervisor.
type Option func(*options)

// WithBackoff sets the fixed reconnect delay (default 5s). Non-positive
// values are ignored.
func WithBackoff(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.backoff = d
		}
	}
}

// WithDedupCapacity bounds the supervisor's recent-id set (default 1000).
func WithDedupCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.dedupCapacity = n
		}
	}
}

// WithLogger sets the supervisor's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
