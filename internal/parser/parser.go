// internal/parser/parser.go
package parser

import (
	"bytes"
	"errors"
	"strconv"
)

// Parser tokenizes one received line.
// The cursor only moves forward on success; a failed extraction leaves it untouched.
type Parser struct {
	buf   []byte
	start int
}

// Mode selects how Compare matches a reference string.
type Mode uint8

const (
	// ModeStrict requires the whole line to equal the reference.
	ModeStrict Mode = iota
	// ModeHeader requires the line to start with the reference.
	ModeHeader
)

// Format selects the base used by NextInteger.
type Format uint8

const (
	FormatHexadecimal Format = iota
	FormatDecimal
	FormatBinary
)

// End extracts the last field of a line: everything up to the end of the line.
const End byte = 0

const registerDigitsMax = 8

var (
	ErrNoMatch           = errors.New("parser: reference not found")
	ErrSeparatorNotFound = errors.New("parser: separator not found")
	ErrEmptyField        = errors.New("parser: empty field")
	ErrInvalidDigit      = errors.New("parser: invalid digit")
	ErrValueOverflow     = errors.New("parser: value overflow")
	ErrUnsupportedFormat = errors.New("parser: unsupported format")
)

// New returns a parser positioned at the start of line.
// The line is referenced, not copied.
func New(line []byte) *Parser {
	return &Parser{buf: line}
}

// Reset rewinds the parser on a new line.
func (p *Parser) Reset(line []byte) {
	p.buf = line
	p.start = 0
}

// Line returns the whole line.
func (p *Parser) Line() []byte { return p.buf }

// Remaining returns the bytes after the cursor.
func (p *Parser) Remaining() []byte { return p.buf[p.start:] }

// Compare matches ref against the line from its beginning.
// On success the cursor is placed right after the matched part.
func (p *Parser) Compare(mode Mode, ref string) error {
	switch mode {
	case ModeStrict:
		if string(p.buf) != ref {
			return ErrNoMatch
		}
	case ModeHeader:
		if !bytes.HasPrefix(p.buf, []byte(ref)) {
			return ErrNoMatch
		}
	default:
		return ErrNoMatch
	}
	p.start = len(ref)
	return nil
}

// NextField extracts the field ending at sep, or at the end of line when sep is End.
func (p *Parser) NextField(sep byte) ([]byte, error) {
	rest := p.buf[p.start:]
	if sep == End {
		if len(rest) == 0 {
			return nil, ErrEmptyField
		}
		p.start = len(p.buf)
		return rest, nil
	}
	i := bytes.IndexByte(rest, sep)
	if i < 0 {
		return nil, ErrSeparatorNotFound
	}
	if i == 0 {
		return nil, ErrEmptyField
	}
	p.start += i + 1
	return rest[:i], nil
}

// NextRegister decodes the next field as a hexadecimal register value.
func (p *Parser) NextRegister(sep byte) (uint32, error) {
	saved := p.start
	field, err := p.NextField(sep)
	if err != nil {
		return 0, err
	}
	v, err := DecodeRegister(field)
	if err != nil {
		p.start = saved
		return 0, err
	}
	return v, nil
}

// NextInteger decodes the next field as a signed integer in the given format.
func (p *Parser) NextInteger(format Format, sep byte) (int64, error) {
	saved := p.start
	field, err := p.NextField(sep)
	if err != nil {
		return 0, err
	}
	var base int
	switch format {
	case FormatHexadecimal:
		base = 16
	case FormatDecimal:
		base = 10
	case FormatBinary:
		base = 2
	default:
		p.start = saved
		return 0, ErrUnsupportedFormat
	}
	v, err := strconv.ParseInt(string(field), base, 32)
	if err != nil {
		p.start = saved
		var ne *strconv.NumError
		if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
			return 0, ErrValueOverflow
		}
		return 0, ErrInvalidDigit
	}
	return v, nil
}

// DecodeRegister decodes up to eight hexadecimal digits into a 32-bit value.
func DecodeRegister(field []byte) (uint32, error) {
	if len(field) == 0 {
		return 0, ErrEmptyField
	}
	if len(field) > registerDigitsMax {
		return 0, ErrValueOverflow
	}
	var v uint32
	for _, c := range field {
		d, ok := hexDigit(c)
		if !ok {
			return 0, ErrInvalidDigit
		}
		v = v<<4 | uint32(d)
	}
	return v, nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
