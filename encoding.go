package trie

import (
	"encoding/binary"
	"fmt"

	"github.com/optimalbrew/rskj/bitpath"
	"github.com/optimalbrew/rskj/pathcodec"
	"github.com/optimalbrew/rskj/varint"
)

// legacyArity is the fixed arity byte that marks a v0 ("Orchid") encoding;
// any other first byte is a v1/v2 flags byte.
const legacyArity = 2

// Flags-byte bit positions for the v1/v2 header, MSB=7.
const (
	flagV2             = 1 << 7
	flagV1             = 1 << 6
	flagHasLongValue   = 1 << 5
	flagSharedPresent  = 1 << 4
	flagLeftPresent    = 1 << 3
	flagRightPresent   = 1 << 2
	flagLeftEmbedded   = 1 << 1
	flagRightEmbedded  = 1 << 0
)

// Encoded returns the node's current-version (v1/v2) serialization,
// computing and caching it on first access. No store access is ever
// required: embedded children are already materialized, hash-only
// children contribute only their 32-byte hash, and a lazy long value
// already carries its hash and length (invariant 3).
func (n *Node) Encoded() []byte {
	if n.encoded != nil {
		return n.encoded
	}
	n.encoded = encodeV1V2(n)
	return n.encoded
}

// releaseEncodedCache drops the cached serialization after a node has been
// written to a NodeStore. The hash stays cached; only the byte buffer,
// which is cheap to regenerate and expensive to keep around for a whole
// tree, is dropped.
func (n *Node) releaseEncodedCache() {
	n.encoded = nil
}

// Hash returns the node's Keccak-256 under its own (v1 or v2) format,
// caching the result. The empty trie is special-cased to the canonical
// EmptyHash constant rather than the hash of its own flags-byte encoding,
// so an empty trie always hashes to the same well-known value regardless
// of which node version constructed it.
func (n *Node) Hash() [32]byte {
	if n.hash != nil {
		return *n.hash
	}
	if n.IsEmptyTrie() {
		h := EmptyHash
		n.hash = &h
		return h
	}
	h := Keccak256(n.Encoded())
	n.hash = &h
	return h
}

// HashLegacy returns the node's Keccak-256 under the v0 legacy format,
// caching the result. Computing it may require resolving hash-only
// children (and, for a legacy long value with no stored length, fetching
// the value itself) through the bound store.
func (n *Node) HashLegacy(isSecure bool) [32]byte {
	h, err := n.hashLegacyChecked(isSecure)
	if err != nil {
		// A store failure here indicates a genuinely corrupt or
		// incomplete store; callers that would rather handle it use
		// HashLegacyChecked instead.
		panic(fmt.Sprintf("trie: computing legacy hash: %v", err))
	}
	return h
}

// HashLegacyChecked is HashLegacy's error-returning counterpart, for
// callers (e.g. the CLI's root command) that would rather propagate a
// store failure than panic.
func (n *Node) HashLegacyChecked(isSecure bool) ([32]byte, error) {
	return n.hashLegacyChecked(isSecure)
}

func (n *Node) hashLegacyChecked(isSecure bool) ([32]byte, error) {
	if n.hashLegacy != nil {
		return *n.hashLegacy, nil
	}
	enc, err := encodeLegacy(n, isSecure)
	if err != nil {
		return [32]byte{}, err
	}
	h := Keccak256(enc)
	n.hashLegacy = &h
	return h, nil
}

// encodeLegacy serializes n under the v0 ("Orchid") format: arity(1)=2 |
// flags(1, isSecure@bit0, hasLongValue@bit1) | bhashes uint16 BE
// (left-present@bit0, right-present@bit1) | sharedPath bit length uint16
// BE | sharedPath bytes | left hash(32)? | right hash(32)? | value-hash(32)
// or inline value. Field order mirrors decodeLegacy exactly, so a value
// round-trips through this encoder and back without loss.
//
// Legacy children are always referenced by hash, never embedded, so
// producing this format requires each present child's own legacy hash,
// resolving a hash-only child through the store if necessary.
func encodeLegacy(n *Node, isSecure bool) ([]byte, error) {
	hasLongValue := n.IsLongValue()

	var flags byte
	if isSecure {
		flags |= 1
	}
	if hasLongValue {
		flags |= 2
	}

	leftPresent := !n.left.IsEmpty()
	rightPresent := !n.right.IsEmpty()
	var bhashes uint16
	if leftPresent {
		bhashes |= 1
	}
	if rightPresent {
		bhashes |= 2
	}

	sharedLenBits := n.sharedPath.Length()

	buf := make([]byte, 0, 64)
	buf = append(buf, legacyArity, flags)
	var bhashesBytes, sharedLenBytes [2]byte
	binary.BigEndian.PutUint16(bhashesBytes[:], bhashes)
	binary.BigEndian.PutUint16(sharedLenBytes[:], uint16(sharedLenBits))
	buf = append(buf, bhashesBytes[:]...)
	buf = append(buf, sharedLenBytes[:]...)
	if sharedLenBits > 0 {
		buf = append(buf, n.sharedPath.Encode()...)
	}

	if leftPresent {
		h, _, err := n.left.HashLegacy(isSecure)
		if err != nil {
			return nil, err
		}
		buf = append(buf, h[:]...)
	}
	if rightPresent {
		h, _, err := n.right.HashLegacy(isSecure)
		if err != nil {
			return nil, err
		}
		buf = append(buf, h[:]...)
	}

	if hasLongValue {
		vh, err := n.ValueHash()
		if err != nil || vh == nil {
			return nil, fmt.Errorf("trie: encoding legacy long value without a known value hash: %w", ErrMalformedNode)
		}
		buf = append(buf, vh[:]...)
	} else {
		v, err := n.Value()
		if err != nil {
			return nil, err
		}
		buf = append(buf, v...)
	}
	return buf, nil
}

func encodeV1V2(n *Node) []byte {
	leftPresent := !n.left.IsEmpty()
	rightPresent := !n.right.IsEmpty()
	leftEmbedded := n.left.IsEmbedded()
	rightEmbedded := n.right.IsEmbedded()
	sharedPresent := n.sharedPath.Length() > 0
	hasLongValue := n.IsLongValue()

	var flags byte
	if n.version >= 2 {
		flags |= flagV2
	} else {
		flags |= flagV1
	}
	if hasLongValue {
		flags |= flagHasLongValue
	}
	if sharedPresent {
		flags |= flagSharedPresent
	}
	if leftPresent {
		flags |= flagLeftPresent
	}
	if rightPresent {
		flags |= flagRightPresent
	}
	if leftEmbedded {
		flags |= flagLeftEmbedded
	}
	if rightEmbedded {
		flags |= flagRightEmbedded
	}

	buf := make([]byte, 0, 64)
	buf = append(buf, flags)

	if n.version >= 2 {
		var rentBytes [8]byte
		binary.BigEndian.PutUint64(rentBytes[:], uint64(n.rentTime))
		buf = append(buf, rentBytes[:]...)
	}

	if sharedPresent {
		buf = pathcodec.Encode(buf, n.sharedPath)
	}

	if leftPresent {
		buf = encodeChildRef(buf, &n.left, leftEmbedded)
	}
	if rightPresent {
		buf = encodeChildRef(buf, &n.right, rightEmbedded)
	}
	if leftPresent || rightPresent {
		buf = varint.Encode(buf, n.ChildrenSize())
	}

	if hasLongValue {
		vh, err := n.ValueHash()
		if err != nil || vh == nil {
			panic("trie: encoding long value without a known value hash (violates invariant 3)")
		}
		buf = append(buf, vh[:]...)
		var lenBytes [3]byte
		putUint24(lenBytes[:], n.valueLength)
		buf = append(buf, lenBytes[:]...)
	} else {
		v, err := n.Value()
		if err != nil {
			panic("trie: encoding short value: " + err.Error())
		}
		buf = append(buf, v...)
	}
	return buf
}

func encodeChildRef(buf []byte, ref *NodeReference, embedded bool) []byte {
	if embedded {
		child := ref.node
		childBytes := child.Encoded()
		buf = append(buf, byte(len(childBytes)))
		return append(buf, childBytes...)
	}
	h, ok := ref.Hash()
	if !ok {
		panic("trie: encoding present-but-empty child reference")
	}
	return append(buf, h[:]...)
}

func putUint24(dst []byte, v int) {
	dst[0] = byte(v >> 16)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v)
}

func getUint24(src []byte) int {
	return int(src[0])<<16 | int(src[1])<<8 | int(src[2])
}

// DecodeNode parses a node from its v0, v1, or v2 wire encoding. store is
// bound to the resulting node (and every non-embedded child reference) for
// later lazy resolution; it may be nil if the caller never intends to
// traverse past a hash-only child.
func DecodeNode(data []byte, store Store) (*Node, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("trie: empty node encoding: %w", ErrMalformedNode)
	}
	if data[0] == legacyArity {
		return decodeLegacy(data, store)
	}
	return decodeV1V2(data, store)
}

func decodeV1V2(data []byte, store Store) (*Node, error) {
	flags := data[0]
	pos := 1

	isV2 := flags&flagV2 != 0
	isV1 := flags&flagV1 != 0
	if isV2 == isV1 {
		return nil, fmt.Errorf("trie: exactly one of the version marker bits must be set: %w", ErrMalformedNode)
	}
	version := uint8(1)
	if isV2 {
		version = 2
	}

	hasLongValue := flags&flagHasLongValue != 0
	sharedPresent := flags&flagSharedPresent != 0
	leftPresent := flags&flagLeftPresent != 0
	rightPresent := flags&flagRightPresent != 0
	leftEmbedded := flags&flagLeftEmbedded != 0
	rightEmbedded := flags&flagRightEmbedded != 0
	if leftEmbedded && !leftPresent {
		return nil, fmt.Errorf("trie: left marked embedded but not present: %w", ErrMalformedNode)
	}
	if rightEmbedded && !rightPresent {
		return nil, fmt.Errorf("trie: right marked embedded but not present: %w", ErrMalformedNode)
	}

	rentTime := int64(-1)
	if isV2 {
		if len(data)-pos < 8 {
			return nil, fmt.Errorf("trie: truncated rent timestamp: %w", ErrMalformedNode)
		}
		rentTime = int64(binary.BigEndian.Uint64(data[pos : pos+8]))
		pos += 8
	}

	sharedPath, n, err := pathcodec.Decode(data[pos:], sharedPresent)
	if err != nil {
		return nil, fmt.Errorf("trie: decoding shared path: %w: %w", err, ErrMalformedNode)
	}
	pos += n

	left, n, err := decodeChildRef(data[pos:], store, leftPresent, leftEmbedded)
	if err != nil {
		return nil, fmt.Errorf("trie: decoding left child: %w", err)
	}
	pos += n

	right, n, err := decodeChildRef(data[pos:], store, rightPresent, rightEmbedded)
	if err != nil {
		return nil, fmt.Errorf("trie: decoding right child: %w", err)
	}
	pos += n

	var childrenSize *uint64
	if leftPresent || rightPresent {
		v, n, err := varint.Decode(data[pos:])
		if err != nil {
			return nil, fmt.Errorf("trie: decoding childrenSize: %w: %w", err, ErrMalformedNode)
		}
		pos += n
		childrenSize = &v
	}

	var value []byte
	var valueLength int
	var valueHash *[32]byte
	if hasLongValue {
		if len(data)-pos < 32+3 {
			return nil, fmt.Errorf("trie: truncated long-value header: %w", ErrMalformedNode)
		}
		var h [32]byte
		copy(h[:], data[pos:pos+32])
		valueHash = &h
		pos += 32
		valueLength = getUint24(data[pos : pos+3])
		pos += 3
		if pos != len(data) {
			return nil, fmt.Errorf("trie: trailing bytes after long-value header: %w", ErrMalformedNode)
		}
	} else {
		value = data[pos:]
		valueLength = len(value)
		pos = len(data)
	}

	node := newDecodedNode(store, sharedPath, value, valueLength, valueHash, left, right, rentTime, version)
	if childrenSize != nil {
		node.childrenSize = childrenSize
	}
	return node, nil
}

func decodeChildRef(buf []byte, store Store, present, embedded bool) (NodeReference, int, error) {
	if !present {
		return EmptyRef, 0, nil
	}
	if embedded {
		if len(buf) < 1 {
			return NodeReference{}, 0, fmt.Errorf("missing embedded-child length byte: %w", ErrMalformedNode)
		}
		length := int(buf[0])
		if len(buf)-1 < length {
			return NodeReference{}, 0, fmt.Errorf("truncated embedded child: %w", ErrMalformedNode)
		}
		child, err := DecodeNode(buf[1:1+length], store)
		if err != nil {
			return NodeReference{}, 0, err
		}
		return RefFromNode(store, child), 1 + length, nil
	}
	if len(buf) < HashSize {
		return NodeReference{}, 0, fmt.Errorf("truncated child hash: %w", ErrMalformedNode)
	}
	var h [32]byte
	copy(h[:], buf[:HashSize])
	return RefFromHash(store, h), HashSize, nil
}

// Legacy (v0 "Orchid") format: arity(=2) | flags(isSecure@bit0,
// hasLongVal@bit1) | bhashes Uint16 (bit0=left present, bit1=right
// present) | sharedPath bit length Uint16 | sharedPath bytes | left hash?
// | right hash? | value-hash(32) or inline value.
//
// The legacy format predates per-node length-of-value bookkeeping for
// externalized values: a long legacy value's length is learned by
// fetching it from the value store, which this decoder therefore does
// eagerly (acceptable since v0 is read only for historical root
// re-derivation, never on the hot path).
func decodeLegacy(data []byte, store Store) (*Node, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("trie: truncated legacy header: %w", ErrMalformedNode)
	}
	flags := data[1]
	isSecure := flags&1 != 0
	_ = isSecure
	hasLongValue := flags&2 != 0
	bhashes := binary.BigEndian.Uint16(data[2:4])
	sharedLenBits := int(binary.BigEndian.Uint16(data[4:6]))
	pos := 6

	sharedBytes := bitpath.EncodedLen(sharedLenBits)
	var sharedPath bitpath.Path
	if sharedLenBits > 0 {
		if len(data)-pos < sharedBytes {
			return nil, fmt.Errorf("trie: truncated legacy shared path: %w", ErrMalformedNode)
		}
		sharedPath = bitpath.FromEncoded(data[pos:pos+sharedBytes], sharedLenBits)
		pos += sharedBytes
	}

	leftPresent := bhashes&1 != 0
	rightPresent := bhashes&2 != 0

	left, err := decodeLegacyChildHash(data, &pos, store, leftPresent)
	if err != nil {
		return nil, err
	}
	right, err := decodeLegacyChildHash(data, &pos, store, rightPresent)
	if err != nil {
		return nil, err
	}

	var value []byte
	var valueLength int
	var valueHash *[32]byte
	if hasLongValue {
		if len(data)-pos < 32 {
			return nil, fmt.Errorf("trie: truncated legacy value hash: %w", ErrMalformedNode)
		}
		var h [32]byte
		copy(h[:], data[pos:pos+32])
		valueHash = &h
		pos += 32
		if pos != len(data) {
			return nil, fmt.Errorf("trie: trailing bytes after legacy value hash: %w", ErrMalformedNode)
		}
		if store == nil {
			return nil, &MissingValueError{Hash: h}
		}
		v, err := store.RetrieveValue(h)
		if err != nil {
			return nil, err
		}
		value = v
		valueLength = len(v)
	} else {
		value = data[pos:]
		valueLength = len(value)
	}

	node := newDecodedNode(store, sharedPath, value, valueLength, valueHash, left, right, -1, 0)
	// The legacy hash of a node is the hash of its legacy encoding, which is
	// exactly data; caching it here means it never needs the children's
	// bodies from the store.
	h := Keccak256(data)
	node.hashLegacy = &h
	return node, nil
}

func decodeLegacyChildHash(data []byte, pos *int, store Store, present bool) (NodeReference, error) {
	if !present {
		return EmptyRef, nil
	}
	if len(data)-*pos < HashSize {
		return NodeReference{}, fmt.Errorf("trie: truncated legacy child hash: %w", ErrMalformedNode)
	}
	var h [32]byte
	copy(h[:], data[*pos:*pos+HashSize])
	*pos += HashSize
	return RefFromHash(store, h), nil
}
