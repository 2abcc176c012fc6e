// internal/transport/port.go
package transport

import (
	"errors"
	"fmt"
	"io"
	"time"

	gserial "github.com/goburrow/serial"
	bserial "go.bug.st/serial"
)

// Serial drivers.
const (
	DriverGoburrow = "goburrow"
	DriverBugst    = "bugst"
)

const (
	DefaultBaudRate    = 1200
	DefaultReadTimeout = 10 * time.Millisecond
)

var ErrUnknownDriver = errors.New("transport: unknown serial driver")

// Config describes the serial line of the bus.
type Config struct {
	Driver   string
	Device   string
	BaudRate int
	DataBits int
	StopBits int
	// Parity is "N", "E" or "O".
	Parity string

	// ReadTimeout bounds one blocking read so the receive loop can observe shutdown.
	ReadTimeout time.Duration

	// RS485 drives RTS around each transmission (goburrow driver only).
	RS485 bool
}

func (c Config) withDefaults() Config {
	if c.Driver == "" {
		c.Driver = DriverGoburrow
	}
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.DataBits == 0 {
		c.DataBits = 8
	}
	if c.StopBits == 0 {
		c.StopBits = 1
	}
	if c.Parity == "" {
		c.Parity = "N"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	return c
}

// OpenPort opens the serial device with the configured driver.
func OpenPort(cfg Config) (io.ReadWriteCloser, error) {
	cfg = cfg.withDefaults()

	switch cfg.Driver {
	case DriverGoburrow:
		port, err := gserial.Open(&gserial.Config{
			Address:  cfg.Device,
			BaudRate: cfg.BaudRate,
			DataBits: cfg.DataBits,
			StopBits: cfg.StopBits,
			Parity:   cfg.Parity,
			Timeout:  cfg.ReadTimeout,
			RS485: gserial.RS485Config{
				Enabled:           cfg.RS485,
				RtsHighDuringSend: cfg.RS485,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("transport: open %s: %w", cfg.Device, err)
		}
		return port, nil

	case DriverBugst:
		mode := &bserial.Mode{
			BaudRate: cfg.BaudRate,
			DataBits: cfg.DataBits,
			Parity:   bugstParity(cfg.Parity),
			StopBits: bserial.OneStopBit,
		}
		if cfg.StopBits == 2 {
			mode.StopBits = bserial.TwoStopBits
		}
		port, err := bserial.Open(cfg.Device, mode)
		if err != nil {
			return nil, fmt.Errorf("transport: open %s: %w", cfg.Device, err)
		}
		if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("transport: set read timeout: %w", err)
		}
		return port, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func bugstParity(p string) bserial.Parity {
	switch p {
	case "E":
		return bserial.EvenParity
	case "O":
		return bserial.OddParity
	default:
		return bserial.NoParity
	}
}

// ListPorts returns the serial devices present on the host.
func ListPorts() ([]string, error) {
	ports, err := bserial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("transport: list ports: %w", err)
	}
	return ports, nil
}

// isTimeout reports a read that ended on the port timeout.
func isTimeout(err error) bool {
	if errors.Is(err, gserial.ErrTimeout) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
