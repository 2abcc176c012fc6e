// internal/transport/node.go
package transport

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/tamzrod/una-at/internal/codec"
	"github.com/tamzrod/una-at/internal/una"
)

const lineEnd = codec.LineEnd

// Node is the slave side of the bus.
// It delivers the bytes of frames addressed to its own node address only.
// Anything after the end of a selected frame, such as the echo of its own
// replies, is dropped until the next address mark.
type Node struct {
	port io.ReadWriteCloser
	addr una.NodeAddress

	wmu       sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// OpenNode opens the serial port described by cfg for node addr.
func OpenNode(cfg Config, addr una.NodeAddress) (*Node, error) {
	if addr > una.NodeAddressLast {
		return nil, fmt.Errorf("%w: 0x%02X", ErrInvalidAddress, addr)
	}
	port, err := OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	return NewNode(port, addr), nil
}

// NewNode wraps an already open port.
func NewNode(port io.ReadWriteCloser, addr una.NodeAddress) *Node {
	return &Node{port: port, addr: addr & una.NodeAddressLast}
}

// Address returns the node address the port listens to.
func (n *Node) Address() una.NodeAddress { return n.addr }

// Run reads the bus until ctx is done or the port fails.
// The port is closed when Run returns.
func (n *Node) Run(ctx context.Context, onByte func(byte)) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			n.close()
		case <-stop:
		}
	}()
	defer n.close()

	selected := false
	buf := make([]byte, 64)
	for {
		nr, err := n.port.Read(buf)
		for _, b := range buf[:nr] {
			if isAddressMark(b) {
				selected = b&una.NodeAddressLast == n.addr
				continue
			}
			if selected {
				onByte(b)
				// One mark selects one frame.
				selected = b != lineEnd
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil || isTimeout(err) {
			continue
		}
		return fmt.Errorf("transport: read: %w", err)
	}
}

// close closes the port exactly once.
func (n *Node) close() error {
	n.closeOnce.Do(func() { n.closeErr = n.port.Close() })
	return n.closeErr
}

// Write sends reply bytes on the bus.
func (n *Node) Write(p []byte) (int, error) {
	n.wmu.Lock()
	defer n.wmu.Unlock()
	return n.port.Write(p)
}
