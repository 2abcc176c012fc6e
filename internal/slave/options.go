// internal/slave/options.go
package slave

import (
	"context"
	"time"

	"github.com/tamzrod/una-at/internal/ring"
	"github.com/tamzrod/una-at/internal/una"
)

// DefaultTurnaround is the pause before any reply byte is sent.
// The master needs it to switch its half-duplex line from transmit to receive.
const DefaultTurnaround = 10 * time.Millisecond

// WriteRegisterFunc applies a masked write to a local register.
type WriteRegisterFunc func(reg una.RegisterAddress, value, mask uint32) error

// ReadRegisterFunc returns the value of a local register.
type ReadRegisterFunc func(reg una.RegisterAddress) (uint32, error)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Logger is an optional logging interface. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type Config struct {
	Logger Logger

	// Process is called from the receive path each time a line completes.
	Process func()

	WriteRegister WriteRegisterFunc
	ReadRegister  ReadRegisterFunc

	Turnaround time.Duration

	BufferDepth int
	SlotSize    int

	Sleep Sleeper
}

func defaultConfig() Config {
	return Config{
		Logger:      nopLogger{},
		Turnaround:  DefaultTurnaround,
		BufferDepth: ring.DefaultDepth,
		SlotSize:    ring.DefaultSlotSize,
		Sleep:       sleepContext,
	}
}

type Option func(*Config)

func WithLogger(logger Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithProcessCallback sets the hook run when a complete line is buffered.
// It runs on the receive path and must not block.
func WithProcessCallback(fn func()) Option {
	return func(c *Config) { c.Process = fn }
}

// WithRegisterCallbacks sets the register accessors used by AT$W= and AT$R=.
func WithRegisterCallbacks(write WriteRegisterFunc, read ReadRegisterFunc) Option {
	return func(c *Config) {
		c.WriteRegister = write
		c.ReadRegister = read
	}
}

// WithTurnaround sets the pause before replies. Zero disables it.
func WithTurnaround(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.Turnaround = d
		}
	}
}

// WithBuffer sets the command ring buffer depth and slot size.
func WithBuffer(depth, slotSize int) Option {
	return func(c *Config) {
		if depth > 0 {
			c.BufferDepth = depth
		}
		if slotSize > 1 {
			c.SlotSize = slotSize
		}
	}
}

func WithSleeper(s Sleeper) Option {
	return func(c *Config) {
		if s != nil {
			c.Sleep = s
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
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
