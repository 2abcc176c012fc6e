// internal/writer/types.go
package writer

import (
	"github.com/tamzrod/una-at/internal/poller"
	"github.com/tamzrod/una-at/internal/una"
)

// EndpointClient is the exact contract the writers use.
// Both the Modbus TCP and the raw ingest clients satisfy it.
type EndpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
	Close() error
}

// TargetEndpoint is one holding register memory inside an endpoint.
type TargetEndpoint struct {
	Endpoint string
	UnitID   uint8
	Offset   uint16 // node register r lands at Offset + 2*r
}

// StatusPlan locates the status block of one unit.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
	Node       una.NodeAddress
}

// Plan is the fully-built write plan for one unit.
type Plan struct {
	UnitID  string
	Targets []TargetEndpoint
	Status  *StatusPlan // nil means status disabled
}

// Writer writes poll snapshots into targets.
type Writer interface {
	Write(res poller.PollResult) error
}
