// cmd/unaat/bus.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/tamzrod/una-at/internal/config"
	"github.com/tamzrod/una-at/internal/master"
	"github.com/tamzrod/una-at/internal/transport"
	"github.com/tamzrod/una-at/internal/una"
)

type globalFlags struct {
	configPath string
	verbose    bool
	device     string
	driver     string
	baudRate   int
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the configuration file if one is given and applies flag overrides.
// Without a file the built-in defaults are used.
func loadConfig(g *globalFlags) (*config.Config, error) {
	cfg := &config.Config{}
	if g.configPath != "" {
		var err error
		if cfg, err = config.Load(g.configPath); err != nil {
			return nil, err
		}
	}

	if g.device != "" {
		cfg.Bus.Device = g.device
	}
	if g.driver != "" {
		cfg.Bus.Driver = g.driver
	}
	if g.baudRate != 0 {
		cfg.Bus.BaudRate = g.baudRate
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	if cfg.Bus.Device == "" {
		return nil, fmt.Errorf("no serial device: set bus.device or --device")
	}
	return cfg, nil
}

// openMaster opens the bus and attaches a master to it.
func openMaster(cfg *config.Config, logger *slog.Logger) (*master.Master, error) {
	tr, err := transport.Open(cfg.Bus.Transport())
	if err != nil {
		return nil, err
	}

	opts := append(cfg.MasterOptions(), master.WithLogger(logger))
	m, err := master.New(tr, opts...)
	if err != nil {
		tr.Close()
		return nil, err
	}
	return m, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func accessParams(cfg *config.Config, node una.NodeAddress, reg una.RegisterAddress, reply una.ReplyType) una.AccessParameters {
	return una.AccessParameters{
		NodeAddress:     node,
		RegisterAddress: reg,
		Reply: una.ReplyParameters{
			Type:    reply,
			Timeout: cfg.Master.ReplyTimeout(),
		},
	}
}

// parseUint accepts decimal, 0x hex, 0o octal and 0b binary.
func parseUint(name, s string, bitSize int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bitSize)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return v, nil
}

func parseNode(s string) (una.NodeAddress, error) {
	v, err := parseUint("node address", s, 8)
	if err != nil {
		return 0, err
	}
	if v > uint64(una.NodeAddressLast) {
		return 0, fmt.Errorf("node address 0x%02X above 0x%02X", v, una.NodeAddressLast)
	}
	return una.NodeAddress(v), nil
}

func parseRegister(s string) (una.RegisterAddress, error) {
	v, err := parseUint("register address", s, 8)
	return una.RegisterAddress(v), err
}

// statusError turns a failed exchange into an error for the command exit code.
func statusError(params una.AccessParameters, st una.AccessStatus) error {
	if st.OK() {
		return nil
	}
	return &una.AccessError{Node: params.NodeAddress, Register: params.RegisterAddress, Status: st}
}
