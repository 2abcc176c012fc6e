// internal/una/types.go
package una

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// NodeAddress is a bus address. Valid range is 0..NodeAddressLast.
type NodeAddress = uint8

// RegisterAddress identifies one 32-bit register of a node.
type RegisterAddress = uint8

const (
	// NodeAddressLast is the highest address a node may use on the bus.
	NodeAddressLast NodeAddress = 0x7F

	// RegisterMaskAll selects every bit of a register (plain write).
	RegisterMaskAll uint32 = 0xFFFFFFFF

	// DefaultTimeout is the per-reply timeout used by scan.
	DefaultTimeout = 100 * time.Millisecond
)

// ErrInvalidReplyType is returned when a reply kind is out of range.
var ErrInvalidReplyType = errors.New("una: invalid reply type")

// Node is one node discovered on the bus.
type Node struct {
	Address NodeAddress
	BoardID uint8
}

func (n Node) String() string {
	return fmt.Sprintf("node 0x%02X board %d", n.Address, n.BoardID)
}

// ReplyType is the kind of reply expected after a command.
type ReplyType uint8

const (
	ReplyNone ReplyType = iota
	ReplyOK
	ReplyValue

	replyTypeLast
)

// Valid reports whether the reply type is known.
func (t ReplyType) Valid() bool { return t < replyTypeLast }

func (t ReplyType) String() string {
	switch t {
	case ReplyNone:
		return "none"
	case ReplyOK:
		return "ok"
	case ReplyValue:
		return "value"
	default:
		return fmt.Sprintf("reply(%d)", uint8(t))
	}
}

// ReplyParameters describe what to wait for after a frame is sent.
type ReplyParameters struct {
	Type    ReplyType
	Timeout time.Duration
}

// AccessParameters address one register of one node.
type AccessParameters struct {
	NodeAddress     NodeAddress
	RegisterAddress RegisterAddress
	Reply           ReplyParameters
}

// CommandParameters carry a raw command line for one node.
type CommandParameters struct {
	NodeAddress NodeAddress
	Command     string
}

// AccessType tells which kind of access produced a status.
type AccessType uint8

const (
	AccessWrite AccessType = iota
	AccessRead
)

func (t AccessType) String() string {
	if t == AccessRead {
		return "read"
	}
	return "write"
}

// StatusFlags is the outcome bit-set of one access. Zero means success.
type StatusFlags uint8

const (
	// FlagReplyTimeout: no complete line arrived before the reply timeout.
	FlagReplyTimeout StatusFlags = 1 << iota
	// FlagSequenceTimeout: the hard sequence ceiling was exceeded.
	FlagSequenceTimeout
	// FlagParserError: lines arrived but none matched the expected reply.
	FlagParserError
	// FlagErrorReceived: the node answered with an error line.
	FlagErrorReceived
)

var flagNames = []struct {
	flag StatusFlags
	name string
}{
	{FlagReplyTimeout, "reply_timeout"},
	{FlagSequenceTimeout, "sequence_timeout"},
	{FlagParserError, "parser_error"},
	{FlagErrorReceived, "error_received"},
}

func (f StatusFlags) String() string {
	if f == 0 {
		return "ok"
	}
	var names []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}

// AccessStatus is reported for every register access.
type AccessStatus struct {
	Type  AccessType
	Flags StatusFlags
}

// OK reports whether the remote exchange succeeded.
func (s AccessStatus) OK() bool { return s.Flags == 0 }

func (s AccessStatus) String() string {
	return fmt.Sprintf("%s %s", s.Type, s.Flags)
}

// AccessError turns a failed access status into an error for layers
// that only carry errors.
type AccessError struct {
	Node     NodeAddress
	Register RegisterAddress
	Status   AccessStatus
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("una: %s access failed: node=0x%02X reg=0x%02X status=%s",
		e.Status.Type, e.Node, e.Register, e.Status.Flags)
}

// Code exposes the raw flag bits.
func (e *AccessError) Code() uint16 { return uint16(e.Status.Flags) }
