// cmd/unaat/regfile.go
package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tamzrod/una-at/internal/at"
	"github.com/tamzrod/una-at/internal/parser"
	"github.com/tamzrod/una-at/internal/una"
)

var (
	errReadOnly        = errors.New("register is read-only")
	errUnknownRegister = errors.New("register not implemented")
)

// registerFile is the register memory served by the slave command.
// The node-identity register is derived from the node descriptor and read-only.
type registerFile struct {
	mu   sync.Mutex
	node una.Node
	regs map[una.RegisterAddress]uint32
}

func newRegisterFile(node una.Node, seed map[uint8]uint32) *registerFile {
	f := &registerFile{
		node: node,
		regs: make(map[una.RegisterAddress]uint32, len(seed)+1),
	}
	for reg, v := range seed {
		f.regs[reg] = v
	}
	f.regs[una.RegisterNodeID] = una.NodeID(node)
	return f
}

// Write applies a masked write. Registers are created on first write.
func (f *registerFile) Write(reg una.RegisterAddress, value, mask uint32) error {
	if reg == una.RegisterNodeID {
		return at.Fail(at.ErrorCodeExecution, errReadOnly)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[reg] = una.MaskedWrite(f.regs[reg], value, mask)
	return nil
}

func (f *registerFile) Read(reg una.RegisterAddress) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.regs[reg]
	if !ok {
		return 0, at.Fail(at.ErrorCodeParameter, fmt.Errorf("0x%02X: %w", reg, errUnknownRegister))
	}
	return v, nil
}

// dumpCommand replies with one "<reg>:<value>" line per implemented register.
// turnaround runs before the first reply byte.
func (f *registerFile) dumpCommand(turnaround func(context.Context) error) at.Command {
	return at.Command{
		Syntax:      "AT$DUMP",
		Description: "List implemented registers",
		Handler: func(ctx context.Context, p *parser.Parser, r *at.Reply) error {
			if err := turnaround(ctx); err != nil {
				return err
			}

			f.mu.Lock()
			regs := make([]una.RegisterAddress, 0, len(f.regs))
			for reg := range f.regs {
				regs = append(regs, reg)
			}
			values := make(map[una.RegisterAddress]uint32, len(f.regs))
			for k, v := range f.regs {
				values[k] = v
			}
			f.mu.Unlock()

			sort.Slice(regs, func(i, j int) bool { return regs[i] < regs[j] })
			for _, reg := range regs {
				r.AddBytes([]byte{reg}, false)
				r.AddString(":")
				r.AddInteger(int32(values[reg]), parser.FormatHexadecimal, true)
				if err := r.Send(); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
