// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/una-at/internal/una"
)

// ReadBlock describes one run of consecutive node registers.
// Geometry only: no semantics.
type ReadBlock struct {
	Address una.RegisterAddress
	Count   uint8
}

// BlockResult is the raw result of a single read block.
type BlockResult struct {
	Address una.RegisterAddress
	Values  []uint32
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	UnitID string
	Node   una.NodeAddress
	At     time.Time

	Blocks []BlockResult
	Err    error // non-nil means the poll cycle failed
}
