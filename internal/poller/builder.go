// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/tamzrod/una-at/internal/config"
)

// Build constructs a Poller for one mirror unit.
// All units share the bus client; the client serializes exchanges.
// No retries, no loops, no semantics.
func Build(u cfg.UnitConfig, client Client) (*Poller, error) {
	reads := make([]ReadBlock, 0, len(u.Reads))
	for _, r := range u.Reads {
		reads = append(reads, ReadBlock{
			Address: r.Address,
			Count:   r.Count,
		})
	}

	return New(
		Config{
			UnitID:   u.ID,
			Node:     u.Node,
			Interval: time.Duration(u.Poll.IntervalMs) * time.Millisecond,
			Timeout:  time.Duration(u.TimeoutMs) * time.Millisecond,
			Reads:    reads,
		},
		client,
	)
}
