// internal/slave/handlers.go
package slave

import (
	"context"
	"errors"
	"fmt"

	"github.com/tamzrod/una-at/internal/at"
	"github.com/tamzrod/una-at/internal/codec"
	"github.com/tamzrod/una-at/internal/parser"
	"github.com/tamzrod/una-at/internal/una"
)

var (
	ErrNoWriteCallback = errors.New("slave: write register callback not set")
	ErrNoReadCallback  = errors.New("slave: read register callback not set")
)

const separator = ','

// writeRegister handles AT$W=<reg>,<value>[,<mask>].
// Two fields after the command mean a full register write.
func (s *Slave) writeRegister(ctx context.Context, p *parser.Parser, r *at.Reply) error {
	if err := s.Turnaround(ctx); err != nil {
		return err
	}
	if s.cfg.WriteRegister == nil {
		return at.Fail(at.ErrorCodeCallback, ErrNoWriteCallback)
	}

	reg, err := nextAddress(p, separator)
	if err != nil {
		return err
	}

	mask := una.RegisterMaskAll
	value, err := p.NextRegister(separator)
	if err != nil {
		// No third field: the second one is the last of the line.
		value, err = p.NextRegister(parser.End)
		if err != nil {
			return at.Fail(at.ErrorCodeParameter, fmt.Errorf("register value: %w", err))
		}
	} else {
		mask, err = p.NextRegister(parser.End)
		if err != nil {
			return at.Fail(at.ErrorCodeParameter, fmt.Errorf("register mask: %w", err))
		}
	}

	return s.cfg.WriteRegister(reg, value, mask)
}

// readRegister handles AT$R=<reg> and replies with the value in minimal hex.
func (s *Slave) readRegister(ctx context.Context, p *parser.Parser, r *at.Reply) error {
	if err := s.Turnaround(ctx); err != nil {
		return err
	}
	if s.cfg.ReadRegister == nil {
		return at.Fail(at.ErrorCodeCallback, ErrNoReadCallback)
	}

	reg, err := nextAddress(p, parser.End)
	if err != nil {
		return err
	}

	value, err := s.cfg.ReadRegister(reg)
	if err != nil {
		return err
	}

	r.AddString(codec.EncodeHex(value, codec.RegisterValueWidth))
	return r.Send()
}

func nextAddress(p *parser.Parser, sep byte) (una.RegisterAddress, error) {
	v, err := p.NextRegister(sep)
	if err != nil {
		return 0, at.Fail(at.ErrorCodeParameter, fmt.Errorf("register address: %w", err))
	}
	if v > 0xFF {
		return 0, at.Fail(at.ErrorCodeParameter, fmt.Errorf("register address 0x%X out of range", v))
	}
	return una.RegisterAddress(v), nil
}
