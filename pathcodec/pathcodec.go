// Package pathcodec encodes and decodes the shared-path bit sequence
// carried inside a trie node's serialization, using a tag byte to pick
// the most compact length representation for the common cases:
//
//	first byte in [0,31]    -> length = first+1     (covers length in [1,32])
//	first byte in [32,254]  -> length = first+128   (covers length in [160,382])
//	first byte == 255       -> length follows as a VarInt
//
// A shared path of length 0 is encoded by omission; callers gate that on
// the presence flag in the enclosing node header (see the root trie
// package's encoding.go), not here.
package pathcodec

import (
	"fmt"

	"github.com/optimalbrew/rskj/bitpath"
	"github.com/optimalbrew/rskj/varint"
)

const (
	shortFirstMax  = 31  // first byte in [0,31] -> length in [1,32]
	mediumFirstMin = 32  // first byte in [32,254] -> length in [160,382]
	mediumFirstMax = 254
	escapeByte     = 255
	shortLenMax    = 32
	mediumLenMin   = 160
	mediumLenMax   = 382
)

// TagLen returns the number of bytes the length tag occupies for a shared
// path of the given bit length (not counting the packed path bytes
// themselves). length must be > 0.
func TagLen(length int) int {
	switch {
	case length >= 1 && length <= shortLenMax:
		return 1
	case length >= mediumLenMin && length <= mediumLenMax:
		return 1
	default:
		return 1 + varint.SizeOf(uint64(length))
	}
}

// EncodedLen returns the total serialized length (tag + packed bytes) of a
// shared path of the given bit length. A length of 0 encodes to nothing.
func EncodedLen(length int) int {
	if length == 0 {
		return 0
	}
	return TagLen(length) + bitpath.EncodedLen(length)
}

// Encode appends the length tag and packed bytes of p to dst. It must only
// be called when p is non-empty; callers gate presence via the enclosing
// node's header flag.
func Encode(dst []byte, p bitpath.Path) []byte {
	length := p.Length()
	switch {
	case length >= 1 && length <= shortLenMax:
		dst = append(dst, byte(length-1))
	case length >= mediumLenMin && length <= mediumLenMax:
		dst = append(dst, byte(length-128))
	default:
		dst = append(dst, escapeByte)
		dst = varint.Encode(dst, uint64(length))
	}
	return append(dst, p.Encode()...)
}

// Decode reads a shared path from the front of buf and returns it along
// with the number of bytes consumed. present must reflect the enclosing
// node header's sharedPrefixPresent flag; when false, Decode returns the
// empty path having consumed zero bytes.
func Decode(buf []byte, present bool) (bitpath.Path, int, error) {
	if !present {
		return bitpath.Empty, 0, nil
	}
	if len(buf) < 1 {
		return bitpath.Path{}, 0, fmt.Errorf("pathcodec: empty buffer reading length tag")
	}
	first := buf[0]
	var length int
	consumed := 1
	switch {
	case first <= shortFirstMax:
		length = int(first) + 1
	case first >= mediumFirstMin && first <= mediumFirstMax:
		length = int(first) + 128
	default:
		v, n, err := varint.Decode(buf[1:])
		if err != nil {
			return bitpath.Path{}, 0, fmt.Errorf("pathcodec: decoding escaped length: %w", err)
		}
		length = int(v)
		consumed += n
	}
	need := bitpath.EncodedLen(length)
	if len(buf)-consumed < need {
		return bitpath.Path{}, 0, fmt.Errorf(
			"pathcodec: buffer too short for shared path: need %d bytes, have %d", need, len(buf)-consumed)
	}
	encoded := buf[consumed : consumed+need]
	consumed += need
	return bitpath.FromEncoded(encoded, length), consumed, nil
}
