// internal/una/registers.go
package una

import "math/bits"

// Common register map shared by every node type.
// Board specific registers start at RegisterAddressCommonLast.
// These values define the protocol and MUST NOT be configurable.

const (
	// RegisterNodeID holds the node address and board identifier.
	RegisterNodeID RegisterAddress = 0x00

	// RegisterHWVersion holds the hardware version.
	RegisterHWVersion RegisterAddress = 0x01

	// RegisterSWVersion0 holds the firmware version.
	RegisterSWVersion0 RegisterAddress = 0x02

	// RegisterSWVersion1 holds the firmware commit id.
	RegisterSWVersion1 RegisterAddress = 0x03

	// RegisterFlags1 holds node flags.
	RegisterFlags1 RegisterAddress = 0x04

	// RegisterError0 holds the last node error stack entry.
	RegisterError0 RegisterAddress = 0x05

	// RegisterAddressCommonLast is the first type-specific register address.
	RegisterAddressCommonLast RegisterAddress = 0x06
)

const (
	NodeIDMaskNodeAddress uint32 = 0x000000FF
	NodeIDMaskBoardID     uint32 = 0x0000FF00
)

// ReadField extracts the bits selected by mask, shifted down to bit 0.
// A zero mask yields zero.
func ReadField(value, mask uint32) uint32 {
	if mask == 0 {
		return 0
	}
	return (value & mask) >> bits.TrailingZeros32(mask)
}

// WriteField returns value with the field selected by mask replaced by field.
func WriteField(value, field, mask uint32) uint32 {
	if mask == 0 {
		return value
	}
	shifted := (field << bits.TrailingZeros32(mask)) & mask
	return (value &^ mask) | shifted
}

// MaskedWrite applies a read-modify-write of the masked bits.
func MaskedWrite(current, value, mask uint32) uint32 {
	return (current &^ mask) | (value & mask)
}

// NodeFromID decodes a node descriptor from a node-identity register value.
func NodeFromID(value uint32) Node {
	return Node{
		Address: NodeAddress(ReadField(value, NodeIDMaskNodeAddress)),
		BoardID: uint8(ReadField(value, NodeIDMaskBoardID)),
	}
}

// NodeID encodes a node descriptor into a node-identity register value.
func NodeID(n Node) uint32 {
	var v uint32
	v = WriteField(v, uint32(n.Address), NodeIDMaskNodeAddress)
	v = WriteField(v, uint32(n.BoardID), NodeIDMaskBoardID)
	return v
}
