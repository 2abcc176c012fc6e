// internal/master/fake_test.go
package master

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tamzrod/una-at/internal/una"
)

type sentFrame struct {
	addr  una.NodeAddress
	frame string
}

// fakeBus is a scripted transport: every sent frame may produce reply lines
// that are delivered on the next poll tick while reception is enabled.
type fakeBus struct {
	onByte  func(byte)
	rx      bool
	addr    una.NodeAddress
	frames  []sentFrame
	pending []byte

	// respond returns the reply lines for one frame (without terminators).
	respond func(addr una.NodeAddress, frame string) []string
	// stream is delivered on every tick while reception is enabled.
	stream []byte

	ticks    int
	enables  int
	disables int
	closed   bool

	openErr error
	sendErr error
}

func (f *fakeBus) Open(onByte func(byte)) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.onByte = onByte
	return nil
}

func (f *fakeBus) Close() error {
	f.closed = true
	return nil
}

func (f *fakeBus) SetDestinationAddress(addr una.NodeAddress) error {
	f.addr = addr
	return nil
}

func (f *fakeBus) Send(frame []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.frames = append(f.frames, sentFrame{addr: f.addr, frame: string(frame)})
	if f.respond != nil {
		for _, line := range f.respond(f.addr, string(frame)) {
			f.pending = append(f.pending, line...)
			f.pending = append(f.pending, '\r')
		}
	}
	return nil
}

func (f *fakeBus) EnableReceive() error {
	f.rx = true
	f.enables++
	return nil
}

func (f *fakeBus) DisableReceive() error {
	f.rx = false
	f.disables++
	return nil
}

// inject pushes raw bytes as if received, regardless of the rx gate.
func (f *fakeBus) inject(s string) {
	for i := 0; i < len(s); i++ {
		f.onByte(s[i])
	}
}

func (f *fakeBus) sleeper(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.ticks++
	if !f.rx {
		return nil
	}
	for _, b := range f.pending {
		f.onByte(b)
	}
	f.pending = nil
	for _, b := range f.stream {
		f.onByte(b)
	}
	return nil
}

func (f *fakeBus) lastFrame() string {
	if len(f.frames) == 0 {
		return ""
	}
	return f.frames[len(f.frames)-1].frame
}

// replyAll answers every frame with the same lines.
func replyAll(lines ...string) func(una.NodeAddress, string) []string {
	return func(una.NodeAddress, string) []string { return lines }
}

func newTestMaster(bus *fakeBus, opts ...Option) *Master {
	opts = append([]Option{WithSleeper(bus.sleeper)}, opts...)
	m, err := New(bus, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

var errWire = errors.New("wire broken")

func isReadFrame(frame string) bool {
	return strings.HasPrefix(frame, "AT$R=")
}
