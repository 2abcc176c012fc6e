// internal/at/reply.go
package at

import (
	"fmt"
	"io"
	"strconv"

	"github.com/tamzrod/una-at/internal/codec"
	"github.com/tamzrod/una-at/internal/parser"
)

// Reply accumulates one reply line until Send.
// After a write failure every further call is a no-op and the
// dispatcher reports the failure.
type Reply struct {
	out io.Writer
	buf []byte
	err error
}

// NewReply returns a reply builder writing to out.
func NewReply(out io.Writer) *Reply {
	return &Reply{out: out}
}

// AddString appends s to the current line.
func (r *Reply) AddString(s string) {
	if r.err != nil {
		return
	}
	r.buf = append(r.buf, s...)
}

// AddInteger appends value in the given format.
// Hexadecimal values use the minimal bus encoding.
func (r *Reply) AddInteger(value int32, format parser.Format, prefix bool) {
	if r.err != nil {
		return
	}
	switch format {
	case parser.FormatHexadecimal:
		if prefix {
			r.buf = append(r.buf, "0x"...)
		}
		r.buf = codec.AppendHex(r.buf, uint32(value), codec.RegisterValueWidth)
	case parser.FormatBinary:
		if prefix {
			r.buf = append(r.buf, "0b"...)
		}
		r.buf = strconv.AppendUint(r.buf, uint64(uint32(value)), 2)
	default:
		r.buf = strconv.AppendInt(r.buf, int64(value), 10)
	}
}

// AddBytes appends data as two hexadecimal digits per byte.
func (r *Reply) AddBytes(data []byte, prefix bool) {
	if r.err != nil {
		return
	}
	if prefix {
		r.buf = append(r.buf, "0x"...)
	}
	for _, b := range data {
		r.buf = codec.AppendHex(r.buf, uint32(b), 1)
	}
}

// Send terminates the current line and writes it.
func (r *Reply) Send() error {
	if r.err != nil {
		return r.err
	}
	line := append(r.buf, codec.LineEnd)
	r.buf = r.buf[:0]
	if _, err := r.out.Write(line); err != nil {
		r.err = fmt.Errorf("at: write reply: %w", err)
	}
	return r.err
}
