// internal/codec/codec_test.go
package codec

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/tamzrod/una-at/internal/parser"
	"github.com/tamzrod/una-at/internal/una"
)

func TestEncodeHex(t *testing.T) {
	tests := []struct {
		name  string
		value uint32
		width int
		want  string
	}{
		{"zero", 0, 4, "00"},
		{"zero single byte", 0, 1, "00"},
		{"one byte", 0xFF, 4, "FF"},
		{"small", 0x02, 1, "02"},
		{"inner zero kept", 0x00010000, 4, "010000"},
		{"trailing zeros kept", 0x0000FF00, 4, "FF00"},
		{"full width", 0x80000001, 4, "80000001"},
		{"width clips upper bytes", 0x1234, 1, "34"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeHex(tt.value, tt.width); got != tt.want {
				t.Fatalf("EncodeHex(0x%X, %d) = %q, want %q", tt.value, tt.width, got, tt.want)
			}
		})
	}
}

func TestEncodeHexRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	values := []uint32{0, 1, 0xFF, 0x100, 0xFFFF, 0x10000, 0xFFFFFF, 0x1000000, 0xFFFFFFFF}
	for i := 0; i < 1000; i++ {
		values = append(values, r.Uint32())
	}

	for _, v := range values {
		enc := EncodeHex(v, RegisterValueWidth)
		if len(enc)%2 != 0 {
			t.Fatalf("0x%X: odd digit count in %q", v, enc)
		}
		if v != 0 && enc[:2] == "00" {
			t.Fatalf("0x%X: leading zero byte emitted in %q", v, enc)
		}
		if v>>24 != 0 && len(enc) != 8 {
			t.Fatalf("0x%X: expected full width, got %q", v, enc)
		}
		got, err := parser.DecodeRegister([]byte(enc))
		if err != nil {
			t.Fatalf("0x%X: decode %q: %v", v, enc, err)
		}
		if got != v {
			t.Fatalf("round trip mismatch: 0x%X -> %q -> 0x%X", v, enc, got)
		}
	}
}

func TestBuildWriteRegister(t *testing.T) {
	tests := []struct {
		name  string
		reg   una.RegisterAddress
		value uint32
		mask  uint32
		want  string
	}{
		{"full register", 0x02, 0x00FF, una.RegisterMaskAll, "AT$W=02,FF\r"},
		{"masked", 0x02, 0x00FF, 0x0000FFFF, "AT$W=02,FF,FFFF\r"},
		{"zero value masked", 0x10, 0, 0x00000001, "AT$W=10,00,01\r"},
		{"zero mask", 0x00, 0x12345678, 0, "AT$W=00,12345678,00\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(BuildWriteRegister(tt.reg, tt.value, tt.mask))
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBuildReadRegister(t *testing.T) {
	if got := string(BuildReadRegister(0x1A)); got != "AT$R=1A\r" {
		t.Fatalf("expected %q, got %q", "AT$R=1A\r", got)
	}
	if got := string(BuildReadRegister(0)); got != "AT$R=00\r" {
		t.Fatalf("expected %q, got %q", "AT$R=00\r", got)
	}
}

func TestBuildCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    string
		err     error
	}{
		{"plain", "AT", "AT\r", nil},
		{"empty", "", "", ErrEmptyCommand},
		{"embedded line end", "AT$X\rAT$W=00,00", "", ErrInvalidCommand},
		{"trailing line end", "AT\r", "", ErrInvalidCommand},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := BuildCommand(tc.command)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected error %v, got %v", tc.err, err)
			}
			if string(frame) != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, frame)
			}
		})
	}
}

func TestReplies(t *testing.T) {
	if got := string(BuildValueReply(0x0921)); got != "0921\r" {
		t.Fatalf("expected %q, got %q", "0921\r", got)
	}
	if got := ErrorReply(0x0A); got != "ERROR_0A" {
		t.Fatalf("expected ERROR_0A, got %q", got)
	}
}
