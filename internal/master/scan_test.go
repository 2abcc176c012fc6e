// internal/master/scan_test.go
package master

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tamzrod/una-at/internal/una"
)

// population answers identity reads for the listed nodes.
func population(nodes map[una.NodeAddress]uint32) func(una.NodeAddress, string) []string {
	return func(addr una.NodeAddress, frame string) []string {
		if !isReadFrame(frame) {
			return nil
		}
		id, ok := nodes[addr]
		if !ok {
			return nil
		}
		return []string{fmt.Sprintf("%X", id)}
	}
}

func TestScan_FindsNodes(t *testing.T) {
	bus := &fakeBus{respond: population(map[una.NodeAddress]uint32{
		0x03: una.NodeID(una.Node{Address: 0x03, BoardID: 1}),
		0x21: una.NodeID(una.Node{Address: 0x21, BoardID: 9}),
	})}
	m := newTestMaster(bus, WithLastNodeAddress(0x2F))

	nodes, err := m.Scan(context.Background(), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if nodes[0] != (una.Node{Address: 0x03, BoardID: 1}) || nodes[1] != (una.Node{Address: 0x21, BoardID: 9}) {
		t.Fatalf("unexpected nodes %v", nodes)
	}
	if len(bus.frames) != 0x30 {
		t.Fatalf("expected one probe per address, got %d", len(bus.frames))
	}
	for i, f := range bus.frames {
		if f.addr != una.NodeAddress(i) || f.frame != "AT$R=00\r" {
			t.Fatalf("unexpected probe %d: %+v", i, f)
		}
	}
}

func TestScan_SkipsAddressMismatch(t *testing.T) {
	bus := &fakeBus{respond: population(map[una.NodeAddress]uint32{
		0x02: una.NodeID(una.Node{Address: 0x05, BoardID: 1}),
		0x04: una.NodeID(una.Node{Address: 0x04, BoardID: 2}),
	})}
	m := newTestMaster(bus, WithLastNodeAddress(0x07))

	nodes, err := m.Scan(context.Background(), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Address != 0x04 {
		t.Fatalf("expected only node 0x04, got %v", nodes)
	}
}

func TestScan_NoRetry(t *testing.T) {
	bus := &fakeBus{}
	m := newTestMaster(bus, WithLastNodeAddress(0x03), WithAttempts(4))

	nodes, err := m.Scan(context.Background(), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 0 {
		t.Fatalf("expected no nodes, got %v", nodes)
	}
	if len(bus.frames) != 4 {
		t.Fatalf("expected a single probe per address, got %d", len(bus.frames))
	}
}

func TestScan_StopsAtMaxNodes(t *testing.T) {
	all := make(map[una.NodeAddress]uint32)
	for a := una.NodeAddress(0); a <= 0x0F; a++ {
		all[a] = una.NodeID(una.Node{Address: a})
	}
	bus := &fakeBus{respond: population(all)}
	m := newTestMaster(bus, WithLastNodeAddress(0x0F))

	nodes, err := m.Scan(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	if len(bus.frames) != 3 {
		t.Fatalf("scan should stop after the third node, sent %d probes", len(bus.frames))
	}
}

func TestScan_InvalidSize(t *testing.T) {
	m := newTestMaster(&fakeBus{})
	if _, err := m.Scan(context.Background(), 0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestScan_TransportErrorKeepsFound(t *testing.T) {
	bus := &fakeBus{}
	bus.respond = func(addr una.NodeAddress, frame string) []string {
		if addr == 0x01 {
			bus.sendErr = errWire
			return []string{fmt.Sprintf("%X", una.NodeID(una.Node{Address: 0x01}))}
		}
		return nil
	}
	m := newTestMaster(bus, WithLastNodeAddress(0x05))

	nodes, err := m.Scan(context.Background(), 4)
	if !errors.Is(err, errWire) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if len(nodes) != 1 || nodes[0].Address != 0x01 {
		t.Fatalf("expected node 0x01 kept, got %v", nodes)
	}
}
