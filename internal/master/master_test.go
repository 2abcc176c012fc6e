// internal/master/master_test.go
package master

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tamzrod/una-at/internal/una"
)

func readParams(node una.NodeAddress, reg una.RegisterAddress) una.AccessParameters {
	return una.AccessParameters{
		NodeAddress:     node,
		RegisterAddress: reg,
		Reply:           una.ReplyParameters{Type: una.ReplyValue, Timeout: 100 * time.Millisecond},
	}
}

func writeParams(node una.NodeAddress, reg una.RegisterAddress) una.AccessParameters {
	return una.AccessParameters{
		NodeAddress:     node,
		RegisterAddress: reg,
		Reply:           una.ReplyParameters{Type: una.ReplyOK, Timeout: 100 * time.Millisecond},
	}
}

func TestNew_NilTransport(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNilTransport) {
		t.Fatalf("expected ErrNilTransport, got %v", err)
	}
}

func TestNew_OpenFailure(t *testing.T) {
	if _, err := New(&fakeBus{openErr: errWire}); !errors.Is(err, errWire) {
		t.Fatalf("expected wrapped open error, got %v", err)
	}
}

func TestWriteRegister_WireFormat(t *testing.T) {
	bus := &fakeBus{respond: replyAll("OK")}
	m := newTestMaster(bus)

	status, err := m.WriteRegister(context.Background(), writeParams(0x05, 0x02), 0x00FF, una.RegisterMaskAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.OK() || status.Type != una.AccessWrite {
		t.Fatalf("expected ok write status, got %v", status)
	}
	if bus.frames[0].addr != 0x05 {
		t.Fatalf("expected destination 0x05, got 0x%02X", bus.frames[0].addr)
	}
	if bus.lastFrame() != "AT$W=02,FF\r" {
		t.Fatalf("unexpected frame %q", bus.lastFrame())
	}

	if _, err := m.WriteRegister(context.Background(), writeParams(0x05, 0x02), 0x00FF, 0x0000FFFF); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bus.lastFrame() != "AT$W=02,FF,FFFF\r" {
		t.Fatalf("unexpected masked frame %q", bus.lastFrame())
	}
}

func TestReadRegister_Value(t *testing.T) {
	bus := &fakeBus{respond: replyAll("0921")}
	m := newTestMaster(bus)

	value, status, err := m.ReadRegister(context.Background(), readParams(0x21, 0x00))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.OK() || status.Type != una.AccessRead {
		t.Fatalf("expected ok read status, got %v", status)
	}
	if value != 0x0921 {
		t.Fatalf("expected 0x0921, got 0x%X", value)
	}
	if bus.lastFrame() != "AT$R=00\r" {
		t.Fatalf("unexpected frame %q", bus.lastFrame())
	}
	if bus.rx {
		t.Fatalf("receiver left enabled")
	}
}

func TestReplyNone_NoWait(t *testing.T) {
	bus := &fakeBus{}
	m := newTestMaster(bus)

	params := writeParams(1, 2)
	params.Reply.Type = una.ReplyNone

	status, err := m.WriteRegister(context.Background(), params, 1, una.RegisterMaskAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.OK() {
		t.Fatalf("expected success, got %v", status)
	}
	if bus.enables != 0 {
		t.Fatalf("receiver must not be enabled, enabled %d times", bus.enables)
	}
	if bus.ticks != 0 {
		t.Fatalf("expected no wait, got %d ticks", bus.ticks)
	}
	if bus.disables != 1 {
		t.Fatalf("expected receiver disabled on exit, got %d", bus.disables)
	}
}

func TestErrorReply(t *testing.T) {
	bus := &fakeBus{respond: replyAll("ERROR_0A")}
	m := newTestMaster(bus)

	_, status, err := m.ReadRegister(context.Background(), readParams(1, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Flags != una.FlagErrorReceived {
		t.Fatalf("expected error_received, got %v", status.Flags)
	}
}

func TestNoReply_ReplyTimeout(t *testing.T) {
	bus := &fakeBus{}
	m := newTestMaster(bus)

	_, status, err := m.ReadRegister(context.Background(), readParams(1, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Flags != una.FlagReplyTimeout {
		t.Fatalf("expected reply_timeout, got %v", status.Flags)
	}
	// 100 ms timeout at 20 ms per tick: exceeded on the 6th tick.
	if bus.ticks != 6 {
		t.Fatalf("expected 6 ticks, got %d", bus.ticks)
	}
	if bus.rx {
		t.Fatalf("receiver left enabled")
	}
}

func TestNoiseOnly_ParserError(t *testing.T) {
	bus := &fakeBus{respond: replyAll("garbage")}
	m := newTestMaster(bus)

	status, err := m.WriteRegister(context.Background(), writeParams(1, 2), 3, una.RegisterMaskAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Flags != una.FlagParserError {
		t.Fatalf("expected parser_error, got %v", status.Flags)
	}
}

func TestNoiseThenValue(t *testing.T) {
	bus := &fakeBus{respond: replyAll("AT$R=02", "", "OK", "1F")}
	m := newTestMaster(bus)

	value, status, err := m.ReadRegister(context.Background(), readParams(1, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.OK() || value != 0x1F {
		t.Fatalf("expected 0x1F ok, got 0x%X %v", value, status)
	}
}

func TestStaleRepliesFlushedBeforeSend(t *testing.T) {
	bus := &fakeBus{respond: replyAll("0921")}
	m := newTestMaster(bus)

	bus.inject("DEAD\r")

	value, status, err := m.ReadRegister(context.Background(), readParams(1, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.OK() || value != 0x0921 {
		t.Fatalf("stale reply consumed: value=0x%X status=%v", value, status)
	}
}

func TestSequenceCeilingDominates(t *testing.T) {
	// A chattering node: every tick brings one unrelated line, which keeps
	// resetting the reply timer. Only the sequence ceiling ends the wait.
	bus := &fakeBus{stream: []byte("x\r")}
	m := newTestMaster(bus, WithSequenceTimeout(time.Second))

	params := readParams(1, 2)
	params.Reply.Timeout = 10 * time.Second

	_, status, err := m.ReadRegister(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Flags != una.FlagSequenceTimeout {
		t.Fatalf("expected sequence_timeout, got %v", status.Flags)
	}
	if bus.ticks != 51 {
		t.Fatalf("expected 51 ticks, got %d", bus.ticks)
	}
}

func TestSequenceCeilingWithSilentNode(t *testing.T) {
	bus := &fakeBus{}
	m := newTestMaster(bus, WithSequenceTimeout(200*time.Millisecond))

	params := readParams(1, 2)
	params.Reply.Timeout = time.Hour

	_, status, err := m.ReadRegister(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Flags != una.FlagSequenceTimeout {
		t.Fatalf("expected sequence_timeout, got %v", status.Flags)
	}
}

func TestRetry_SucceedsOnLastAttempt(t *testing.T) {
	calls := 0
	bus := &fakeBus{
		respond: func(una.NodeAddress, string) []string {
			calls++
			if calls < 3 {
				return []string{"ERROR"}
			}
			return []string{"OK"}
		},
	}
	m := newTestMaster(bus, WithAttempts(3))

	status, err := m.WriteRegister(context.Background(), writeParams(1, 2), 3, una.RegisterMaskAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.OK() {
		t.Fatalf("expected success on third attempt, got %v", status)
	}
	if len(bus.frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(bus.frames))
	}
	for _, f := range bus.frames {
		if f.frame != "AT$W=02,03\r" {
			t.Fatalf("retry re-encoded differently: %q", f.frame)
		}
	}
}

func TestRetry_ExhaustedReturnsLastStatus(t *testing.T) {
	calls := 0
	bus := &fakeBus{
		respond: func(una.NodeAddress, string) []string {
			calls++
			if calls == 1 {
				return []string{"ERROR"}
			}
			return nil
		},
	}
	m := newTestMaster(bus, WithAttempts(2))

	_, status, err := m.ReadRegister(context.Background(), readParams(1, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Flags != una.FlagReplyTimeout {
		t.Fatalf("expected last attempt status reply_timeout, got %v", status.Flags)
	}
	if len(bus.frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(bus.frames))
	}
}

func TestTransportErrorNotRetried(t *testing.T) {
	bus := &fakeBus{sendErr: errWire}
	m := newTestMaster(bus, WithAttempts(5))

	_, _, err := m.ReadRegister(context.Background(), readParams(1, 2))
	if !errors.Is(err, errWire) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestInvalidReplyType(t *testing.T) {
	bus := &fakeBus{}
	m := newTestMaster(bus)

	params := readParams(1, 2)
	params.Reply.Type = una.ReplyType(9)

	if _, _, err := m.ReadRegister(context.Background(), params); !errors.Is(err, una.ErrInvalidReplyType) {
		t.Fatalf("expected ErrInvalidReplyType, got %v", err)
	}
	if len(bus.frames) != 0 {
		t.Fatalf("nothing should be sent on caller error")
	}
}

func TestContextCancelled(t *testing.T) {
	bus := &fakeBus{}
	m := newTestMaster(bus)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := m.ReadRegister(ctx, readParams(1, 2))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if bus.rx {
		t.Fatalf("receiver left enabled")
	}
}

func TestSendCommand(t *testing.T) {
	bus := &fakeBus{}
	m := newTestMaster(bus)

	err := m.SendCommand(context.Background(), una.CommandParameters{NodeAddress: 7, Command: "AT$RST"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bus.lastFrame() != "AT$RST\r" || bus.frames[0].addr != 7 {
		t.Fatalf("unexpected frame %+v", bus.frames[0])
	}

	if err := m.SendCommand(context.Background(), una.CommandParameters{NodeAddress: 7}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	// one command is one line on the wire
	err = m.SendCommand(context.Background(), una.CommandParameters{NodeAddress: 7, Command: "AT$X\rAT$W=00,00"})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if len(bus.frames) != 1 {
		t.Fatalf("expected no frame for a multi-line command, got %d frames", len(bus.frames))
	}
}

func TestClose(t *testing.T) {
	bus := &fakeBus{}
	m := newTestMaster(bus)

	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bus.closed {
		t.Fatalf("transport not closed")
	}
	if _, _, err := m.ReadRegister(context.Background(), readParams(1, 2)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
