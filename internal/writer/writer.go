// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/una-at/internal/poller"
)

type writerImpl struct {
	plan    Plan
	clients map[string]EndpointClient
}

// New returns the data writer of one unit.
func New(plan Plan, clients map[string]EndpointClient) Writer {
	return &writerImpl{
		plan:    plan,
		clients: clients,
	}
}

// Write delivers a successful poll into every target.
// Failed polls write nothing; their state lives in the status block.
func (w *writerImpl) Write(res poller.PollResult) error {
	if res.Err != nil {
		return nil
	}

	var errs []string

	for _, tgt := range w.plan.Targets {
		cli := w.clients[tgt.Endpoint]
		if cli == nil {
			errs = append(errs, fmt.Sprintf(
				"writer: missing client for endpoint %s",
				tgt.Endpoint,
			))
			continue
		}

		for _, b := range res.Blocks {
			dstAddr := tgt.Offset + 2*uint16(b.Address)

			if err := cli.WriteRegisters(tgt.UnitID, dstAddr, splitWords(b.Values)); err != nil {
				errs = append(errs, fmt.Sprintf(
					"writer: ep=%s unit=%d reg=0x%02X addr=%d err=%v",
					tgt.Endpoint, tgt.UnitID, b.Address, dstAddr, err,
				))
			}
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}

	return nil
}

// splitWords maps 32-bit node registers onto 16-bit holding registers, high word first.
func splitWords(values []uint32) []uint16 {
	out := make([]uint16, 0, 2*len(values))
	for _, v := range values {
		out = append(out, uint16(v>>16), uint16(v))
	}
	return out
}
