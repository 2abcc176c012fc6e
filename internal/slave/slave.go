// internal/slave/slave.go
package slave

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/tamzrod/una-at/internal/at"
	"github.com/tamzrod/una-at/internal/codec"
	"github.com/tamzrod/una-at/internal/ring"
)

var ErrNilWriter = errors.New("slave: reply writer required")

// Slave answers UNA AT commands received from the bus master.
//
// Bytes enter through Feed (receive path). Complete lines are executed by
// Process or Run (foreground). Replies are written to the writer given to New.
type Slave struct {
	cfg      Config
	lines    *ring.Buffer
	commands *at.Dispatcher
	out      io.Writer

	// serializes line execution
	mu sync.Mutex

	wake chan struct{}
}

// New builds a slave and registers the write-register and read-register commands.
func New(out io.Writer, opts ...Option) (*Slave, error) {
	if out == nil {
		return nil, ErrNilWriter
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Slave{
		cfg:   cfg,
		lines: ring.New(cfg.BufferDepth, cfg.SlotSize),
		out:   out,
		wake:  make(chan struct{}, 1),
	}
	s.commands = at.New(out, at.WithUnknownHook(s.Turnaround))

	builtins := []at.Command{
		{
			Syntax:      codec.CommandWriteRegister,
			Parameters:  "<reg_addr[hex]>,<reg_value[hex]>[,<reg_mask[hex]>]",
			Description: "Write register",
			Handler:     s.writeRegister,
		},
		{
			Syntax:      codec.CommandReadRegister,
			Parameters:  "<reg_addr[hex]>",
			Description: "Read register",
			Handler:     s.readRegister,
		},
	}
	for _, c := range builtins {
		if err := s.commands.Register(c); err != nil {
			return nil, fmt.Errorf("slave: register %s: %w", c.Syntax, err)
		}
	}
	return s, nil
}

// Feed buffers one received byte. It is safe to call from the receive goroutine.
func (s *Slave) Feed(b byte) {
	if !s.lines.Push(b) {
		return
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
	if s.cfg.Process != nil {
		s.cfg.Process()
	}
}

// Process executes every buffered line in arrival order.
// Execution errors are answered on the bus and logged; only reply write
// failures and context errors are returned.
func (s *Slave) Process(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		line, ok := s.lines.Pop()
		if !ok {
			return nil
		}
		if len(line) == 0 {
			continue
		}

		err := s.commands.Execute(ctx, line)
		var ee *at.ExecutionError
		switch {
		case err == nil:
		case errors.As(err, &ee):
			s.cfg.Logger.Debug("command failed", "line", string(line), "code", uint16(ee.Code), "err", ee.Err)
		default:
			return err
		}
	}
}

// Run processes lines as they complete until ctx is done.
func (s *Slave) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
			if err := s.Process(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.cfg.Logger.Error("process failed", "err", err)
			}
		}
	}
}

// RegisterCommand adds a custom command next to the built-in ones.
func (s *Slave) RegisterCommand(cmd at.Command) error {
	return s.commands.Register(cmd)
}

// UnregisterCommand removes a custom command.
func (s *Slave) UnregisterCommand(syntax string) error {
	return s.commands.Unregister(syntax)
}

// Commands lists the command table.
func (s *Slave) Commands() []at.Command {
	return s.commands.Commands()
}

// Reply returns a builder for replies sent outside of a command handler.
func (s *Slave) Reply() *at.Reply {
	return at.NewReply(s.out)
}

// Turnaround blocks for the configured turnaround delay.
// Custom command handlers call it before their first reply byte.
func (s *Slave) Turnaround(ctx context.Context) error {
	return s.cfg.Sleep(ctx, s.cfg.Turnaround)
}
