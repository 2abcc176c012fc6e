// internal/at/at.go
package at

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/tamzrod/una-at/internal/codec"
	"github.com/tamzrod/una-at/internal/parser"
)

// ErrorCode is the numeric code sent back in an ERROR_<code> reply.
type ErrorCode uint16

const (
	ErrorCodeExecution      ErrorCode = 0x01
	ErrorCodeUnknownCommand ErrorCode = 0x02
	ErrorCodeParameter      ErrorCode = 0x03
	ErrorCodeCallback       ErrorCode = 0x04
)

var (
	ErrUnknownCommand   = errors.New("at: unknown command")
	ErrDuplicateCommand = errors.New("at: command already registered")
	ErrInvalidCommand   = errors.New("at: invalid command")
)

// ExecutionError reports a failed command with the code to send back.
type ExecutionError struct {
	Code ErrorCode
	Err  error
}

func (e *ExecutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("at: execution error 0x%02X", uint16(e.Code))
	}
	return fmt.Sprintf("at: execution error 0x%02X: %v", uint16(e.Code), e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// ErrorCode exposes the reply code to generic error inspection.
func (e *ExecutionError) ErrorCode() uint16 { return uint16(e.Code) }

// Fail wraps err into an ExecutionError carrying code.
func Fail(code ErrorCode, err error) error {
	return &ExecutionError{Code: code, Err: err}
}

// Handler executes one command.
// p is positioned right after the command syntax.
// r collects the reply lines; the final OK or ERROR line is sent by the dispatcher.
type Handler func(ctx context.Context, p *parser.Parser, r *Reply) error

// Command is one entry of the command table.
type Command struct {
	Syntax      string
	Parameters  string
	Description string
	Handler     Handler
}

// Dispatcher matches received lines against the command table and runs the handler.
// When several syntaxes prefix a line, the longest one wins.
type Dispatcher struct {
	mu       sync.RWMutex
	commands map[string]Command
	out      io.Writer

	// unknown is run before the error reply of an unmatched line.
	unknown func(ctx context.Context) error
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithUnknownHook runs fn before the error reply sent for unknown commands.
func WithUnknownHook(fn func(ctx context.Context) error) Option {
	return func(d *Dispatcher) { d.unknown = fn }
}

// New returns an empty dispatcher writing replies to out.
func New(out io.Writer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		commands: make(map[string]Command),
		out:      out,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds a command to the table.
func (d *Dispatcher) Register(cmd Command) error {
	if cmd.Syntax == "" || cmd.Handler == nil {
		return ErrInvalidCommand
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.commands[cmd.Syntax]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateCommand, cmd.Syntax)
	}
	d.commands[cmd.Syntax] = cmd
	return nil
}

// Unregister removes a command by syntax.
func (d *Dispatcher) Unregister(syntax string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.commands[syntax]; !exists {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, syntax)
	}
	delete(d.commands, syntax)
	return nil
}

// Commands returns the table sorted by syntax.
func (d *Dispatcher) Commands() []Command {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Command, 0, len(d.commands))
	for _, c := range d.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Syntax < out[j].Syntax })
	return out
}

func (d *Dispatcher) lookup(line []byte) (Command, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var (
		best  Command
		found bool
	)
	for syntax, c := range d.commands {
		if !strings.HasPrefix(string(line), syntax) {
			continue
		}
		if !found || len(syntax) > len(best.Syntax) {
			best, found = c, true
		}
	}
	return best, found
}

// Execute runs the command matching line and sends the final reply line.
//
// The returned error is the execution error that was answered with ERROR,
// or the write error when the reply could not be sent.
func (d *Dispatcher) Execute(ctx context.Context, line []byte) error {
	cmd, ok := d.lookup(line)
	if !ok {
		if d.unknown != nil {
			if err := d.unknown(ctx); err != nil {
				return err
			}
		}
		execErr := Fail(ErrorCodeUnknownCommand, fmt.Errorf("%w: %q", ErrUnknownCommand, line))
		if err := d.writeLine(codec.ErrorReply(uint16(ErrorCodeUnknownCommand))); err != nil {
			return err
		}
		return execErr
	}

	p := parser.New(line)
	if err := p.Compare(parser.ModeHeader, cmd.Syntax); err != nil {
		return err
	}

	r := &Reply{out: d.out}
	herr := cmd.Handler(ctx, p, r)
	if r.err != nil {
		return r.err
	}
	if herr != nil {
		if errors.Is(herr, context.Canceled) || errors.Is(herr, context.DeadlineExceeded) {
			return herr
		}
		code := codeOf(herr)
		if err := d.writeLine(codec.ErrorReply(uint16(code))); err != nil {
			return err
		}
		var ee *ExecutionError
		if errors.As(herr, &ee) {
			return herr
		}
		return Fail(code, herr)
	}
	return d.writeLine(codec.ReplyOK)
}

func (d *Dispatcher) writeLine(s string) error {
	buf := make([]byte, 0, len(s)+1)
	buf = append(buf, s...)
	buf = append(buf, codec.LineEnd)
	if _, err := d.out.Write(buf); err != nil {
		return fmt.Errorf("at: write reply: %w", err)
	}
	return nil
}

// codeOf extracts the reply code from an error.
// Errors that expose no code map to ErrorCodeExecution.
func codeOf(err error) ErrorCode {
	type coderA interface{ ErrorCode() uint16 }
	type coderB interface{ Code() uint16 }

	var a coderA
	if errors.As(err, &a) {
		return ErrorCode(a.ErrorCode())
	}
	var b coderB
	if errors.As(err, &b) {
		return ErrorCode(b.Code())
	}
	return ErrorCodeExecution
}
