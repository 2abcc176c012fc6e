// internal/transport/transport.go
package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/tamzrod/una-at/internal/una"
)

var (
	ErrClosed         = errors.New("transport: closed")
	ErrAlreadyOpen    = errors.New("transport: already open")
	ErrInvalidAddress = errors.New("transport: invalid node address")
)

// addressMarkBit flags the byte selecting the destination node.
// Text frames are 7-bit, so a set high bit is never part of a line.
const addressMarkBit = 0x80

// AddressMark returns the byte announcing a frame for addr.
func AddressMark(addr una.NodeAddress) byte {
	return addressMarkBit | (addr & una.NodeAddressLast)
}

func isAddressMark(b byte) bool { return b&addressMarkBit != 0 }

// Transport is the master side of the bus.
//
// Each frame is preceded by the address mark of its destination.
// Received bytes are handed to the callback given to Open only while
// reception is enabled; anything else is dropped.
type Transport struct {
	port io.ReadWriteCloser

	mu     sync.Mutex // guards dest and writes
	dest   una.NodeAddress
	opened bool

	rx     atomic.Bool
	closed atomic.Bool

	readErr atomic.Value // error ending the receive loop
	done    chan struct{}
}

// Open opens the serial port described by cfg.
func Open(cfg Config) (*Transport, error) {
	port, err := OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	return New(port), nil
}

// New wraps an already open port.
func New(port io.ReadWriteCloser) *Transport {
	return &Transport{
		port: port,
		done: make(chan struct{}),
	}
}

// Open starts the receive loop.
func (t *Transport) Open(onByte func(byte)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed.Load() {
		return ErrClosed
	}
	if t.opened {
		return ErrAlreadyOpen
	}
	t.opened = true

	go t.receive(onByte)
	return nil
}

func (t *Transport) receive(onByte func(byte)) {
	defer close(t.done)

	buf := make([]byte, 64)
	for {
		n, err := t.port.Read(buf)
		if t.rx.Load() {
			for _, b := range buf[:n] {
				if !isAddressMark(b) {
					onByte(b)
				}
			}
		}
		if err == nil || isTimeout(err) {
			continue
		}
		if !t.closed.Load() {
			t.readErr.Store(err)
		}
		return
	}
}

// Err returns the error that stopped the receive loop, if any.
func (t *Transport) Err() error {
	if err, ok := t.readErr.Load().(error); ok {
		return err
	}
	return nil
}

// SetDestinationAddress selects the node addressed by the next frames.
func (t *Transport) SetDestinationAddress(addr una.NodeAddress) error {
	if addr > una.NodeAddressLast {
		return fmt.Errorf("%w: 0x%02X", ErrInvalidAddress, addr)
	}
	t.mu.Lock()
	t.dest = addr
	t.mu.Unlock()
	return nil
}

// Send writes the address mark and the frame in one write.
func (t *Transport) Send(frame []byte) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if err := t.Err(); err != nil {
		return fmt.Errorf("transport: receive loop stopped: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	buf := make([]byte, 0, len(frame)+1)
	buf = append(buf, AddressMark(t.dest))
	buf = append(buf, frame...)
	if _, err := t.port.Write(buf); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	return nil
}

func (t *Transport) EnableReceive() error {
	if t.closed.Load() {
		return ErrClosed
	}
	t.rx.Store(true)
	return nil
}

func (t *Transport) DisableReceive() error {
	t.rx.Store(false)
	return nil
}

// Close closes the port and waits for the receive loop to end.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.rx.Store(false)
	err := t.port.Close()

	t.mu.Lock()
	opened := t.opened
	t.mu.Unlock()
	if opened {
		<-t.done
	}
	return err
}
