// internal/status/snapshot.go
package status

import "github.com/tamzrod/una-at/internal/una"

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
}

// Identity is the static part of a status block, written on full assert only.
type Identity struct {
	Node una.NodeAddress
	Name string
}
