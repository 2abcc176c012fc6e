// internal/master/scan.go
package master

import (
	"context"
	"fmt"

	"github.com/tamzrod/una-at/internal/codec"
	"github.com/tamzrod/una-at/internal/una"
)

// Scan probes every address from 0 to the last node address and returns the
// nodes whose identity register echoes the probed address.
// Silent or inconsistent addresses are skipped, never retried.
// Scanning stops once maxNodes nodes are found.
// On transport failure the nodes found so far are returned with the error.
func (m *Master) Scan(ctx context.Context, maxNodes int) ([]una.Node, error) {
	if maxNodes <= 0 {
		return nil, fmt.Errorf("%w: node list size must be > 0", ErrInvalidArgument)
	}

	nodes := make([]una.Node, 0, maxNodes)
	params := una.AccessParameters{
		RegisterAddress: una.RegisterNodeID,
		Reply: una.ReplyParameters{
			Type:    una.ReplyValue,
			Timeout: m.cfg.ScanTimeout,
		},
	}
	frame := codec.BuildReadRegister(params.RegisterAddress)

	for addr := 0; addr <= int(m.cfg.LastNodeAddress); addr++ {
		params.NodeAddress = una.NodeAddress(addr)

		value, flags, err := m.access(ctx, params, frame, 1)
		if err != nil {
			return nodes, err
		}
		if flags != 0 {
			continue
		}

		node := una.NodeFromID(value)
		if node.Address != params.NodeAddress {
			m.cfg.Logger.Info("node address mismatch",
				"probed", fmt.Sprintf("0x%02X", params.NodeAddress),
				"reported", fmt.Sprintf("0x%02X", node.Address),
			)
			continue
		}

		m.cfg.Logger.Debug("node found", "addr", fmt.Sprintf("0x%02X", node.Address), "board_id", node.BoardID)
		nodes = append(nodes, node)
		if len(nodes) >= maxNodes {
			break
		}
	}
	return nodes, nil
}
