// internal/at/at_test.go
package at

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/tamzrod/una-at/internal/parser"
)

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("port gone") }

type codedErr struct{ code uint16 }

func (e codedErr) Error() string { return "coded" }
func (e codedErr) Code() uint16  { return e.code }

func echo(ctx context.Context, p *parser.Parser, r *Reply) error {
	r.AddString(string(p.Remaining()))
	return r.Send()
}

func TestRegister_Validation(t *testing.T) {
	d := New(&bytes.Buffer{})

	if err := d.Register(Command{Syntax: "", Handler: echo}); !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("expected ErrInvalidCommand, got %v", err)
	}
	if err := d.Register(Command{Syntax: "AT$E="}); !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("expected ErrInvalidCommand for nil handler, got %v", err)
	}
	if err := d.Register(Command{Syntax: "AT$E=", Handler: echo}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.Register(Command{Syntax: "AT$E=", Handler: echo}); !errors.Is(err, ErrDuplicateCommand) {
		t.Fatalf("expected ErrDuplicateCommand, got %v", err)
	}
	if err := d.Unregister("AT$E="); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.Unregister("AT$E="); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name    string
		handler Handler
		line    string
		want    string
		code    ErrorCode
	}{
		{
			name:    "success with payload",
			handler: echo,
			line:    "AT$E=hello",
			want:    "hello\rOK\r",
		},
		{
			name:    "plain error",
			handler: func(context.Context, *parser.Parser, *Reply) error { return errors.New("boom") },
			line:    "AT$E=",
			want:    "ERROR_01\r",
			code:    ErrorCodeExecution,
		},
		{
			name:    "execution error code",
			handler: func(context.Context, *parser.Parser, *Reply) error { return Fail(ErrorCodeParameter, nil) },
			line:    "AT$E=x",
			want:    "ERROR_03\r",
			code:    ErrorCodeParameter,
		},
		{
			name:    "coder error",
			handler: func(context.Context, *parser.Parser, *Reply) error { return codedErr{code: 0x2A} },
			line:    "AT$E=x",
			want:    "ERROR_2A\r",
			code:    0x2A,
		},
		{
			name:    "unknown command",
			handler: echo,
			line:    "AT$Q",
			want:    "ERROR_02\r",
			code:    ErrorCodeUnknownCommand,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			d := New(&out)
			if err := d.Register(Command{Syntax: "AT$E=", Handler: tc.handler}); err != nil {
				t.Fatalf("register: %v", err)
			}

			err := d.Execute(context.Background(), []byte(tc.line))
			if out.String() != tc.want {
				t.Fatalf("expected reply %q, got %q", tc.want, out.String())
			}
			if tc.code == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ee *ExecutionError
			if !errors.As(err, &ee) {
				t.Fatalf("expected ExecutionError, got %v", err)
			}
			if ee.Code != tc.code {
				t.Fatalf("expected code 0x%02X, got 0x%02X", tc.code, ee.Code)
			}
		})
	}
}

func TestExecute_LongestSyntaxWins(t *testing.T) {
	var out bytes.Buffer
	d := New(&out)

	short := func(ctx context.Context, p *parser.Parser, r *Reply) error {
		r.AddString("short")
		return r.Send()
	}
	long := func(ctx context.Context, p *parser.Parser, r *Reply) error {
		r.AddString("long:" + string(p.Remaining()))
		return r.Send()
	}
	_ = d.Register(Command{Syntax: "AT", Handler: short})
	_ = d.Register(Command{Syntax: "AT$R=", Handler: long})

	if err := d.Execute(context.Background(), []byte("AT$R=05")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "long:05\rOK\r" {
		t.Fatalf("unexpected reply %q", out.String())
	}
}

func TestExecute_UnknownHook(t *testing.T) {
	var out bytes.Buffer
	calls := 0
	d := New(&out, WithUnknownHook(func(context.Context) error {
		calls++
		if out.Len() != 0 {
			t.Fatalf("hook must run before the reply")
		}
		return nil
	}))

	_ = d.Execute(context.Background(), []byte("nope"))
	if calls != 1 {
		t.Fatalf("expected hook called once, got %d", calls)
	}
}

func TestExecute_WriteFailure(t *testing.T) {
	d := New(failWriter{})
	_ = d.Register(Command{Syntax: "AT$E=", Handler: echo})

	err := d.Execute(context.Background(), []byte("AT$E=x"))
	if err == nil {
		t.Fatalf("expected write error")
	}
	var ee *ExecutionError
	if errors.As(err, &ee) {
		t.Fatalf("write failure must not be reported as execution error")
	}
}

func TestExecute_ContextErrorNotAnswered(t *testing.T) {
	var out bytes.Buffer
	d := New(&out)
	_ = d.Register(Command{Syntax: "AT$E=", Handler: func(ctx context.Context, _ *parser.Parser, _ *Reply) error {
		return ctx.Err()
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Execute(ctx, []byte("AT$E=")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no reply, got %q", out.String())
	}
}

func TestCommands_Sorted(t *testing.T) {
	d := New(&bytes.Buffer{})
	_ = d.Register(Command{Syntax: "AT$W=", Handler: echo})
	_ = d.Register(Command{Syntax: "AT$R=", Handler: echo})

	cmds := d.Commands()
	if len(cmds) != 2 || cmds[0].Syntax != "AT$R=" || cmds[1].Syntax != "AT$W=" {
		t.Fatalf("unexpected table %+v", cmds)
	}
}

func TestReply_Builders(t *testing.T) {
	tests := []struct {
		name string
		fill func(r *Reply)
		want string
	}{
		{"string", func(r *Reply) { r.AddString("abc") }, "abc\r"},
		{"hex", func(r *Reply) { r.AddInteger(0x1234, parser.FormatHexadecimal, false) }, "1234\r"},
		{"hex prefix", func(r *Reply) { r.AddInteger(0x0A, parser.FormatHexadecimal, true) }, "0x0A\r"},
		{"decimal", func(r *Reply) { r.AddInteger(-42, parser.FormatDecimal, true) }, "-42\r"},
		{"binary", func(r *Reply) { r.AddInteger(5, parser.FormatBinary, true) }, "0b101\r"},
		{"bytes", func(r *Reply) { r.AddBytes([]byte{0x00, 0xAB, 0x01}, false) }, "00AB01\r"},
		{"bytes prefix", func(r *Reply) { r.AddBytes([]byte{0xFF}, true) }, "0xFF\r"},
		{"mixed", func(r *Reply) {
			r.AddString("V=")
			r.AddInteger(7, parser.FormatDecimal, false)
		}, "V=7\r"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			r := NewReply(&out)
			tc.fill(r)
			if err := r.Send(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.String() != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, out.String())
			}
		})
	}
}
