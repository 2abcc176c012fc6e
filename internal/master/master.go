// internal/master/master.go
package master

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tamzrod/una-at/internal/ring"
	"github.com/tamzrod/una-at/internal/una"
)

var (
	ErrNilTransport    = errors.New("master: transport required")
	ErrClosed          = errors.New("master: closed")
	ErrInvalidArgument = errors.New("master: invalid argument")
)

// Transport is the bus capability driven by the master.
// onByte is called from the receive path for every byte while reception is enabled.
type Transport interface {
	Open(onByte func(byte)) error
	Close() error
	SetDestinationAddress(addr una.NodeAddress) error
	Send(frame []byte) error
	EnableReceive() error
	DisableReceive() error
}

// Master drives UNA AT nodes over one half-duplex bus.
// Accesses are serialized: one command is in flight at a time.
type Master struct {
	mu      sync.Mutex
	tr      Transport
	replies *ring.Buffer
	cfg     Config
	closed  bool
}

// New opens the transport and returns a ready master.
func New(tr Transport, opts ...Option) (*Master, error) {
	if tr == nil {
		return nil, ErrNilTransport
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Master{
		tr:      tr,
		replies: ring.New(cfg.ReplyBufferDepth, cfg.ReplySlotSize),
		cfg:     cfg,
	}

	if err := tr.Open(m.onByte); err != nil {
		return nil, fmt.Errorf("master: open transport: %w", err)
	}
	return m, nil
}

// onByte is the receive callback handed to the transport.
func (m *Master) onByte(b byte) {
	m.replies.Push(b)
}

// Close releases the transport. Further calls return ErrClosed.
func (m *Master) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	if err := m.tr.Close(); err != nil {
		return fmt.Errorf("master: close transport: %w", err)
	}
	return nil
}

// Config returns the configuration the master was built with.
func (m *Master) Config() Config { return m.cfg }
