// Package varint implements the Bitcoin-style CompactSize variable-length
// integer encoding used by the trie's on-disk node format (shared-path
// length escape and childrenSize field).
//
// Encoding, little-endian throughout:
//
//	value < 0xfd                 -> 1 byte:  value
//	0xfd <= value <= 0xffff      -> 3 bytes: 0xfd, uint16(value)
//	0x10000 <= value <= 0xffffffff -> 5 bytes: 0xfe, uint32(value)
//	value > 0xffffffff           -> 9 bytes: 0xff, uint64(value)
//
// Implemented directly rather than imported; see DESIGN.md for why no
// third-party dependency covers this format.
package varint

import (
	"encoding/binary"
	"fmt"
)

const (
	tag16 = 0xfd
	tag32 = 0xfe
	tag64 = 0xff
)

// SizeOf returns the number of bytes Encode would produce for value.
func SizeOf(value uint64) int {
	switch {
	case value < tag16:
		return 1
	case value <= 0xffff:
		return 3
	case value <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// Encode appends the CompactSize encoding of value to dst and returns the
// extended slice.
func Encode(dst []byte, value uint64) []byte {
	switch {
	case value < tag16:
		return append(dst, byte(value))
	case value <= 0xffff:
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], uint16(value))
		return append(append(dst, tag16), buf[:]...)
	case value <= 0xffffffff:
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(value))
		return append(append(dst, tag32), buf[:]...)
	default:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], value)
		return append(append(dst, tag64), buf[:]...)
	}
}

// Decode reads a CompactSize value from the front of buf, returning the
// value and the number of bytes consumed.
func Decode(buf []byte) (uint64, int, error) {
	if len(buf) == 0 {
		return 0, 0, fmt.Errorf("varint: empty buffer")
	}
	switch first := buf[0]; {
	case first < tag16:
		return uint64(first), 1, nil
	case first == tag16:
		if len(buf) < 3 {
			return 0, 0, fmt.Errorf("varint: truncated uint16 form, need 3 bytes, have %d", len(buf))
		}
		return uint64(binary.LittleEndian.Uint16(buf[1:3])), 3, nil
	case first == tag32:
		if len(buf) < 5 {
			return 0, 0, fmt.Errorf("varint: truncated uint32 form, need 5 bytes, have %d", len(buf))
		}
		return uint64(binary.LittleEndian.Uint32(buf[1:5])), 5, nil
	default:
		if len(buf) < 9 {
			return 0, 0, fmt.Errorf("varint: truncated uint64 form, need 9 bytes, have %d", len(buf))
		}
		return binary.LittleEndian.Uint64(buf[1:9]), 9, nil
	}
}
