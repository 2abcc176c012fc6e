// internal/codec/codec.go
package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/una-at/internal/una"
)

// Wire tokens of the UNA AT protocol.
// These values define the protocol and MUST NOT be configurable.
const (
	CommandWriteRegister = "AT$W="
	CommandReadRegister  = "AT$R="
	Separator            = ","
	CommandEnd           = "\r"

	ReplyOK    = "OK"
	ReplyError = "ERROR"

	// LineEnd terminates every line on the bus, in both directions.
	LineEnd byte = '\r'
)

// Byte widths of the encoded fields.
const (
	RegisterAddressWidth = 1
	RegisterValueWidth   = 4
)

const hexDigits = "0123456789ABCDEF"

var (
	ErrEmptyCommand   = errors.New("codec: empty command")
	ErrInvalidCommand = errors.New("codec: command contains a line end")
)

// AppendHex appends the minimal hexadecimal form of value over width bytes.
// Leading zero bytes are skipped; every remaining byte is written as two digits.
// An all-zero value is written as a single "00".
func AppendHex(dst []byte, value uint32, width int) []byte {
	if width <= 0 || width > 4 {
		width = 4
	}
	started := false
	for i := width - 1; i >= 0; i-- {
		b := byte(value >> (8 * uint(i)))
		if b == 0 && !started {
			continue
		}
		started = true
		dst = append(dst, hexDigits[b>>4], hexDigits[b&0x0F])
	}
	if !started {
		dst = append(dst, '0', '0')
	}
	return dst
}

// EncodeHex returns the minimal hexadecimal form of value over width bytes.
func EncodeHex(value uint32, width int) string {
	return string(AppendHex(make([]byte, 0, 2*RegisterValueWidth), value, width))
}

// BuildCommand builds a generic command frame.
// A command is exactly one line.
func BuildCommand(command string) ([]byte, error) {
	if command == "" {
		return nil, ErrEmptyCommand
	}
	if strings.IndexByte(command, LineEnd) >= 0 {
		return nil, ErrInvalidCommand
	}
	frame := make([]byte, 0, len(command)+len(CommandEnd))
	frame = append(frame, command...)
	frame = append(frame, CommandEnd...)
	return frame, nil
}

// BuildWriteRegister builds a write-register frame.
//
// Frame structure:
//
//	AT$W=<addr>,<value>[,<mask>]\r
//
// The mask field is omitted when mask selects every bit.
func BuildWriteRegister(reg una.RegisterAddress, value, mask uint32) []byte {
	frame := make([]byte, 0, 32)
	frame = append(frame, CommandWriteRegister...)
	frame = AppendHex(frame, uint32(reg), RegisterAddressWidth)
	frame = append(frame, Separator...)
	frame = AppendHex(frame, value, RegisterValueWidth)
	if mask != una.RegisterMaskAll {
		frame = append(frame, Separator...)
		frame = AppendHex(frame, mask, RegisterValueWidth)
	}
	frame = append(frame, CommandEnd...)
	return frame
}

// BuildReadRegister builds a read-register frame.
//
// Frame structure:
//
//	AT$R=<addr>\r
func BuildReadRegister(reg una.RegisterAddress) []byte {
	frame := make([]byte, 0, 16)
	frame = append(frame, CommandReadRegister...)
	frame = AppendHex(frame, uint32(reg), RegisterAddressWidth)
	frame = append(frame, CommandEnd...)
	return frame
}

// BuildValueReply builds the reply line carrying a register value.
func BuildValueReply(value uint32) []byte {
	line := AppendHex(make([]byte, 0, 10), value, RegisterValueWidth)
	return append(line, LineEnd)
}

// ErrorReply formats an error reply line body for a numeric error code.
func ErrorReply(code uint16) string {
	return fmt.Sprintf("%s_%s", ReplyError, EncodeHex(uint32(code), 2))
}
