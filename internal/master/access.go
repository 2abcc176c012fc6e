// internal/master/access.go
package master

import (
	"context"
	"fmt"
	"time"

	"github.com/tamzrod/una-at/internal/codec"
	"github.com/tamzrod/una-at/internal/parser"
	"github.com/tamzrod/una-at/internal/una"
)

// SendCommand transmits a raw command line to one node without waiting for a reply.
func (m *Master) SendCommand(ctx context.Context, params una.CommandParameters) error {
	frame, err := codec.BuildCommand(params.Command)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.send(params.NodeAddress, frame)
}

// WriteRegister writes value into a node register under mask.
// The returned error is non-nil only for caller or transport failures;
// the outcome of the exchange itself is reported by the status.
func (m *Master) WriteRegister(ctx context.Context, params una.AccessParameters, value, mask uint32) (una.AccessStatus, error) {
	status := una.AccessStatus{Type: una.AccessWrite}
	if !params.Reply.Type.Valid() {
		return status, una.ErrInvalidReplyType
	}

	frame := codec.BuildWriteRegister(params.RegisterAddress, value, mask)
	_, flags, err := m.access(ctx, params, frame, m.cfg.Attempts)
	status.Flags = flags
	return status, err
}

// ReadRegister reads a node register.
// The value is meaningful only when the returned status is OK.
func (m *Master) ReadRegister(ctx context.Context, params una.AccessParameters) (uint32, una.AccessStatus, error) {
	status := una.AccessStatus{Type: una.AccessRead}
	if !params.Reply.Type.Valid() {
		return 0, status, una.ErrInvalidReplyType
	}

	frame := codec.BuildReadRegister(params.RegisterAddress)
	value, flags, err := m.access(ctx, params, frame, m.cfg.Attempts)
	status.Flags = flags
	return value, status, err
}

// access runs up to attempts send/wait cycles and stops at the first success.
// The flags of the last attempt are returned.
func (m *Master) access(ctx context.Context, params una.AccessParameters, frame []byte, attempts int) (uint32, una.StatusFlags, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, 0, ErrClosed
	}
	if attempts < 1 {
		attempts = 1
	}

	var (
		value uint32
		flags una.StatusFlags
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := m.send(params.NodeAddress, frame); err != nil {
			return 0, 0, err
		}

		var err error
		value, flags, err = m.waitReply(ctx, params.Reply)
		if err != nil {
			return 0, 0, err
		}
		if flags == 0 {
			return value, 0, nil
		}

		m.cfg.Logger.Debug("access failed",
			"node", fmt.Sprintf("0x%02X", params.NodeAddress),
			"reg", fmt.Sprintf("0x%02X", params.RegisterAddress),
			"attempt", attempt,
			"status", flags.String(),
		)
	}
	return 0, flags, nil
}

// send discards every pending reply, addresses the node and transmits the frame.
func (m *Master) send(node una.NodeAddress, frame []byte) error {
	m.replies.FlushAll()

	if err := m.tr.SetDestinationAddress(node); err != nil {
		return fmt.Errorf("master: set destination address: %w", err)
	}
	if err := m.tr.Send(frame); err != nil {
		return fmt.Errorf("master: send: %w", err)
	}
	return nil
}

// waitReply polls the reply buffer until a line matches the expected reply,
// an error line is received, or one of the two timeouts expires.
func (m *Master) waitReply(ctx context.Context, reply una.ReplyParameters) (value uint32, flags una.StatusFlags, err error) {
	defer func() {
		if derr := m.tr.DisableReceive(); derr != nil {
			m.cfg.Logger.Error("disable receive failed", "err", derr)
		}
	}()

	if reply.Type == una.ReplyNone {
		return 0, 0, nil
	}

	if err := m.tr.EnableReceive(); err != nil {
		return 0, 0, fmt.Errorf("master: enable receive: %w", err)
	}

	var (
		replyTime    time.Duration
		sequenceTime time.Duration
		replyCount   int
		p            parser.Parser
	)
	for {
		if err := m.cfg.Sleep(ctx, m.cfg.PollInterval); err != nil {
			return 0, 0, fmt.Errorf("master: wait reply: %w", err)
		}
		replyTime += m.cfg.PollInterval
		sequenceTime += m.cfg.PollInterval

		if line, ok := m.replies.Pop(); ok {
			replyCount++
			replyTime = 0
			p.Reset(line)

			var perr error
			switch reply.Type {
			case una.ReplyOK:
				perr = p.Compare(parser.ModeStrict, codec.ReplyOK)
			case una.ReplyValue:
				value, perr = p.NextRegister(parser.End)
			}
			if perr == nil {
				return value, 0, nil
			}

			if p.Compare(parser.ModeHeader, codec.ReplyError) == nil {
				m.cfg.Logger.Debug("error reply", "line", string(line))
				return 0, una.FlagErrorReceived, nil
			}
			// Unrelated line: dropped, keep waiting.
		}

		if sequenceTime > m.cfg.SequenceTimeout {
			return 0, una.FlagSequenceTimeout, nil
		}
		if replyTime > reply.Timeout {
			if replyCount == 0 {
				return 0, una.FlagReplyTimeout, nil
			}
			return 0, una.FlagParserError, nil
		}
	}
}
