// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/tamzrod/una-at/internal/una"
)

// Client abstracts the bus operations needed by the poller.
// *master.Master satisfies it.
type Client interface {
	ReadRegister(ctx context.Context, params una.AccessParameters) (uint32, una.AccessStatus, error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	UnitID   string
	Node     una.NodeAddress
	Interval time.Duration
	Timeout  time.Duration // per reply; zero means una.DefaultTimeout
	Reads    []ReadBlock
}

// Poller is a dumb, clock-driven reader.
type Poller struct {
	cfg    Config
	client Client
}

// New creates a poller with immutable config.
func New(cfg Config, client Client) (*Poller, error) {
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	if cfg.UnitID == "" {
		return nil, errors.New("poller: unit id required")
	}
	if cfg.Node > una.NodeAddressLast {
		return nil, errors.New("poller: node address out of range")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Reads) == 0 {
		return nil, errors.New("poller: at least one read block required")
	}
	for _, rb := range cfg.Reads {
		if rb.Count == 0 || int(rb.Address)+int(rb.Count)-1 > 0xFF {
			return nil, errors.New("poller: read block outside register space")
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = una.DefaultTimeout
	}
	return &Poller{cfg: cfg, client: client}, nil
}

// Config returns the effective configuration.
func (p *Poller) Config() Config { return p.cfg }

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle.
// A failed exchange is reported as *una.AccessError.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	res := PollResult{
		UnitID: p.cfg.UnitID,
		Node:   p.cfg.Node,
		At:     time.Now(),
	}

	blocks := make([]BlockResult, 0, len(p.cfg.Reads))

	for _, rb := range p.cfg.Reads {
		values := make([]uint32, 0, rb.Count)

		for i := 0; i < int(rb.Count); i++ {
			reg := rb.Address + uint8(i)
			v, st, err := p.client.ReadRegister(ctx, una.AccessParameters{
				NodeAddress:     p.cfg.Node,
				RegisterAddress: reg,
				Reply:           una.ReplyParameters{Type: una.ReplyValue, Timeout: p.cfg.Timeout},
			})
			if err != nil {
				res.Err = err
				return res
			}
			if !st.OK() {
				res.Err = &una.AccessError{Node: p.cfg.Node, Register: reg, Status: st}
				return res
			}
			values = append(values, v)
		}

		blocks = append(blocks, BlockResult{Address: rb.Address, Values: values})
	}

	// Commit only if all reads succeeded
	res.Blocks = blocks
	return res
}
