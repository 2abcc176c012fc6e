// internal/config/options.go
package config

import (
	"time"

	"github.com/tamzrod/una-at/internal/master"
	"github.com/tamzrod/una-at/internal/slave"
	"github.com/tamzrod/una-at/internal/transport"
	"github.com/tamzrod/una-at/internal/una"
)

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// Transport returns the serial line settings.
func (b BusConfig) Transport() transport.Config {
	return transport.Config{
		Driver:      b.Driver,
		Device:      b.Device,
		BaudRate:    b.BaudRate,
		DataBits:    b.DataBits,
		StopBits:    b.StopBits,
		Parity:      b.Parity,
		ReadTimeout: ms(b.ReadTimeoutMs),
		RS485:       b.RS485,
	}
}

// ReplyTimeout is the per-reply timeout of directed accesses.
func (m MasterConfig) ReplyTimeout() time.Duration {
	if m.TimeoutMs <= 0 {
		return una.DefaultTimeout
	}
	return ms(m.TimeoutMs)
}

// MasterOptions converts the master section into driver options.
// Unset values keep the driver defaults.
func (c *Config) MasterOptions() []master.Option {
	m := c.Master
	opts := []master.Option{
		master.WithAttempts(m.Attempts),
		master.WithPollInterval(ms(m.PollIntervalMs)),
		master.WithSequenceTimeout(ms(m.SequenceTimeoutMs)),
		master.WithReplyBuffer(m.BufferDepth, m.SlotSize),
		master.WithScanTimeout(ms(m.ScanTimeoutMs)),
	}
	if m.LastNodeAddress != nil {
		opts = append(opts, master.WithLastNodeAddress(*m.LastNodeAddress))
	}
	return opts
}

// SlaveOptions converts the slave section into driver options.
// Register callbacks are wired by the caller.
func (c *Config) SlaveOptions() []slave.Option {
	s := c.Slave
	opts := []slave.Option{
		slave.WithBuffer(s.BufferDepth, s.SlotSize),
	}
	if s.TurnaroundMs != nil {
		opts = append(opts, slave.WithTurnaround(ms(*s.TurnaroundMs)))
	}
	return opts
}
