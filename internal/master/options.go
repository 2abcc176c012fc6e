// internal/master/options.go
package master

import (
	"context"
	"time"

	"github.com/tamzrod/una-at/internal/ring"
	"github.com/tamzrod/una-at/internal/una"
)

const (
	// DefaultPollInterval is the reply polling period.
	DefaultPollInterval = 20 * time.Millisecond

	// DefaultSequenceTimeout is the hard ceiling of one access attempt.
	DefaultSequenceTimeout = 120 * time.Second
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Logger is an optional logging interface. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Config holds the master configuration. It is immutable once the master is built.
type Config struct {
	Logger Logger

	// PollInterval is the period between two reply buffer checks.
	PollInterval time.Duration

	// SequenceTimeout bounds one access attempt regardless of the reply timeout.
	SequenceTimeout time.Duration

	// Attempts is the maximum number of send/wait cycles per access.
	Attempts int

	// ReplyBufferDepth and ReplySlotSize size the reply ring buffer.
	ReplyBufferDepth int
	ReplySlotSize    int

	// LastNodeAddress is the highest address probed by Scan.
	LastNodeAddress una.NodeAddress

	// ScanTimeout is the reply timeout of each scan probe.
	ScanTimeout time.Duration

	Sleep Sleeper
}

func defaultConfig() Config {
	return Config{
		Logger:           nopLogger{},
		PollInterval:     DefaultPollInterval,
		SequenceTimeout:  DefaultSequenceTimeout,
		Attempts:         1,
		ReplyBufferDepth: ring.DefaultDepth,
		ReplySlotSize:    ring.DefaultSlotSize,
		LastNodeAddress:  una.NodeAddressLast,
		ScanTimeout:      una.DefaultTimeout,
		Sleep:            sleepContext,
	}
}

// Option is a functional option for configuring the Master.
type Option func(*Config)

// WithLogger sets a logger for bus operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithPollInterval sets the reply polling period.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.PollInterval = d
		}
	}
}

// WithSequenceTimeout sets the hard ceiling of one access attempt.
func WithSequenceTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.SequenceTimeout = d
		}
	}
}

// WithAttempts sets the maximum number of attempts per register access.
//
// Example:
//
//	m, err := master.New(tr, master.WithAttempts(3))
func WithAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Attempts = n
		}
	}
}

// WithReplyBuffer sets the reply ring buffer depth and slot size.
func WithReplyBuffer(depth, slotSize int) Option {
	return func(c *Config) {
		if depth > 0 {
			c.ReplyBufferDepth = depth
		}
		if slotSize > 1 {
			c.ReplySlotSize = slotSize
		}
	}
}

// WithLastNodeAddress limits the scanned address range.
func WithLastNodeAddress(addr una.NodeAddress) Option {
	return func(c *Config) {
		if addr <= una.NodeAddressLast {
			c.LastNodeAddress = addr
		}
	}
}

// WithScanTimeout sets the reply timeout of each scan probe.
func WithScanTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.ScanTimeout = d
		}
	}
}

// WithSleeper replaces the delay function used while waiting for replies.
func WithSleeper(s Sleeper) Option {
	return func(c *Config) {
		if s != nil {
			c.Sleep = s
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
