package trie

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/optimalbrew/rskj/bitpath"
)

// LongValueThreshold is the value length, in bytes, above which a value is
// externalized to the value store and the node carries only its hash and
// length.
const LongValueThreshold = 32

// Node is an immutable binary-radix trie node. Its cached fields (hash,
// hashLegacy, encoded, childrenSize) are filled in lazily and mutated
// in-place by pointer receivers: this is memoization of pure functions of
// the node's logical content, not a change to that content, and is safe
// as long as a Node is never mutated concurrently with a reader.
type Node struct {
	sharedPath bitpath.Path

	value       []byte   // materialized value bytes; nil if absent or not yet loaded
	valueLength int      // length of value, known even when value is nil (long values)
	valueHash   *[32]byte

	left, right NodeReference

	version  uint8 // 0 (orchid/legacy shape when re-encoded), 1, or 2
	rentTime int64 // -1 sentinel: rent never paid / not tracked

	hash         *[32]byte
	hashLegacy   *[32]byte
	encoded      []byte
	childrenSize *uint64

	store Store
}

// NewEmpty returns the canonical root of an empty trie.
func NewEmpty(store Store) *Node {
	return &Node{version: 1, rentTime: -1, store: store}
}

// newLeaf builds a fresh terminal node holding value directly in memory,
// as produced by the mutator for a newly inserted key.
func newLeaf(store Store, sharedPath bitpath.Path, value []byte, rentTime int64, version uint8) *Node {
	return &Node{
		sharedPath:  sharedPath,
		value:       value,
		valueLength: len(value),
		left:        EmptyRef,
		right:       EmptyRef,
		version:     version,
		rentTime:    rentTime,
		store:       store,
	}
}

// newBranch builds a fresh internal node with the given children, as
// produced by split() or by put() on an existing internal node.
func newBranch(store Store, sharedPath bitpath.Path, value []byte, left, right NodeReference, rentTime int64, version uint8) *Node {
	return &Node{
		sharedPath:  sharedPath,
		value:       value,
		valueLength: len(value),
		left:        left,
		right:       right,
		version:     version,
		rentTime:    rentTime,
		store:       store,
	}
}

// newDecodedNode builds a node from wire-decoded fields, possibly with a
// lazy (unmaterialized) long value known only by hash and length.
func newDecodedNode(store Store, sharedPath bitpath.Path, value []byte, valueLength int, valueHash *[32]byte, left, right NodeReference, rentTime int64, version uint8) *Node {
	return &Node{
		sharedPath:  sharedPath,
		value:       value,
		valueLength: valueLength,
		valueHash:   valueHash,
		left:        left,
		right:       right,
		version:     version,
		rentTime:    rentTime,
		store:       store,
	}
}

// SharedPath returns the node's path-compressed prefix.
func (n *Node) SharedPath() bitpath.Path { return n.sharedPath }

// HasValue reports whether this node carries a value (materialized or
// long-and-lazy).
func (n *Node) HasValue() bool { return n.valueLength > 0 }

// ValueLength returns the byte length of the node's value, 0 if absent.
func (n *Node) ValueLength() int { return n.valueLength }

// Value returns the node's value bytes, fetching from the value store if
// the value is long and has not yet been materialized.
func (n *Node) Value() ([]byte, error) {
	if n.valueLength == 0 {
		return nil, nil
	}
	if n.value != nil {
		return n.value, nil
	}
	if n.valueHash == nil {
		return nil, fmt.Errorf("trie: node has length %d but no value or value hash: %w", n.valueLength, ErrMalformedNode)
	}
	if n.store == nil {
		return nil, &MissingValueError{Hash: *n.valueHash}
	}
	v, err := n.store.RetrieveValue(*n.valueHash)
	if err != nil {
		return nil, err
	}
	if len(v) != n.valueLength {
		return nil, fmt.Errorf("trie: stored value length %d disagrees with node's %d: %w", len(v), n.valueLength, ErrInvalidValueLength)
	}
	n.value = v
	return v, nil
}

// ValueHash returns the Keccak-256 hash of the node's value, computing and
// caching it from the materialized value if it was not already known.
func (n *Node) ValueHash() (*[32]byte, error) {
	if n.valueLength == 0 {
		return nil, nil
	}
	if n.valueHash != nil {
		return n.valueHash, nil
	}
	v, err := n.Value()
	if err != nil {
		return nil, err
	}
	h := Keccak256(v)
	n.valueHash = &h
	return n.valueHash, nil
}

// IsLongValue reports whether the node's value is externalized (length
// strictly greater than LongValueThreshold).
func (n *Node) IsLongValue() bool { return n.valueLength > LongValueThreshold }

// Version returns the wire format version (0, 1, or 2) this node was last
// encoded or decoded with.
func (n *Node) Version() uint8 { return n.version }

// RentTime returns the node's lastRentPaidTime, or -1 if unset.
func (n *Node) RentTime() int64 { return n.rentTime }

// Children returns the node's left and right references, for callers
// outside the package that need to inspect child shape (e.g. CLI
// diagnostics) without reaching into private fields.
func (n *Node) Children() [2]NodeReference {
	return [2]NodeReference{n.left, n.right}
}

// IsTerminal reports whether the node has no children.
func (n *Node) IsTerminal() bool {
	return n.left.IsEmpty() && n.right.IsEmpty()
}

// IsEmptyTrie reports whether this node is the canonical empty root: no
// value, no children, and an empty shared path.
func (n *Node) IsEmptyTrie() bool {
	return n.sharedPath.IsEmpty() && n.valueLength == 0 && n.IsTerminal()
}

// IsInternalNode reports whether the node is a pure branch point: not
// terminal, and carrying no value of its own. The rent adapter does not
// consult it: branch points report their (valueLength, lastRentPaidTime)
// to a RentTracker just like leaves do.
func (n *Node) IsInternalNode() bool {
	return !n.IsTerminal() && !n.HasValue()
}

// IsEmbeddable reports whether this node is small and simple enough for a
// parent to inline it directly into its own encoding instead of
// referencing it by hash: terminal, and its own encoded length is at most
// MaxEmbeddedNodeSize.
func (n *Node) IsEmbeddable() bool {
	return n.IsTerminal() && n.EncodedLen() <= MaxEmbeddedNodeSize
}

// ChildrenSize returns the aggregate byte cost the left and right
// references contribute to this node's own encoding: zero for a terminal
// node, otherwise the sum of both references' ReferenceSize(). Cached
// after first computation.
func (n *Node) ChildrenSize() uint64 {
	if n.childrenSize != nil {
		return *n.childrenSize
	}
	var size uint64
	if !n.IsTerminal() {
		size = uint64(n.left.ReferenceSize() + n.right.ReferenceSize())
	}
	n.childrenSize = &size
	return size
}

// EncodedLen returns the byte length of the node's own v1/v2 encoding
// (not including descendants), computing and caching it if necessary.
func (n *Node) EncodedLen() int {
	return len(n.Encoded())
}

// Get returns the value stored at key, or (nil, false) if key is absent.
func (n *Node) Get(key bitpath.Path) ([]byte, bool, error) {
	node, err := n.Find(key)
	if err != nil || node == nil || !node.HasValue() {
		return nil, false, err
	}
	v, err := node.Value()
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Find returns the node whose full path from n exactly equals key, or nil
// if there is no such node. The returned node may carry no value (a
// branch point); callers wanting "has value" should also check HasValue().
func (n *Node) Find(key bitpath.Path) (*Node, error) {
	cur := n
	remaining := key
	for {
		common := cur.sharedPath.CommonPrefix(remaining)
		if common.Length() < cur.sharedPath.Length() {
			return nil, nil // diverges partway through this node's shared path
		}
		remaining = remaining.Slice(common.Length(), remaining.Length())
		if remaining.IsEmpty() {
			return cur, nil
		}
		var next *NodeReference
		if remaining.Get(0) == 0 {
			next = &cur.left
		} else {
			next = &cur.right
		}
		remaining = remaining.Slice(1, remaining.Length())
		if next.IsEmpty() {
			return nil, nil
		}
		child, err := next.GetNode()
		if err != nil {
			return nil, err
		}
		cur = child
	}
}

// CollectKeys returns every key with a value in the subtree rooted at n
// whose bit length is at most maxBytes*8, enumerating both terminals and
// intermediate nodes that carry a value, in ascending byte order. Pass
// MaxInt to collect all keys.
func (n *Node) CollectKeys(maxBytes int) ([][]byte, error) {
	var dst [][]byte
	if err := n.collectKeys(bitpath.Empty, maxBytes, &dst); err != nil {
		return nil, err
	}
	slices.SortFunc(dst, func(a, b []byte) int { return bytes.Compare(a, b) })
	return dst, nil
}

func (n *Node) collectKeys(prefix bitpath.Path, maxBytes int, dst *[][]byte) error {
	full := concatPath(prefix, n.sharedPath)
	if n.HasValue() && bitpath.EncodedLen(full.Length()) <= maxBytes {
		*dst = append(*dst, pathToBytes(full))
	}
	for bit, ref := range []*NodeReference{&n.left, &n.right} {
		if ref.IsEmpty() {
			continue
		}
		child, err := ref.GetNode()
		if err != nil {
			return err
		}
		childPrefix := appendBit(full, byte(bit))
		if err := child.collectKeys(childPrefix, maxBytes, dst); err != nil {
			return err
		}
	}
	return nil
}

// TrieSize returns the number of nodes in the subtree rooted at n
// (including n itself), resolving hash-only children from the store.
func (n *Node) TrieSize() (int, error) {
	size := 1
	for _, ref := range []*NodeReference{&n.left, &n.right} {
		if ref.IsEmpty() {
			continue
		}
		child, err := ref.GetNode()
		if err != nil {
			return 0, err
		}
		childSize, err := child.TrieSize()
		if err != nil {
			return 0, err
		}
		size += childSize
	}
	return size, nil
}

// Equal reports whether n and other have the same logical content: shared
// path, value, rent time, and (recursively) children. Cached fields and
// the bound store are not part of equality.
func (n *Node) Equal(other *Node) (bool, error) {
	if n == nil || other == nil {
		return n == other, nil
	}
	if !n.sharedPath.Equal(other.sharedPath) {
		return false, nil
	}
	if n.rentTime != other.rentTime {
		return false, nil
	}
	nv, err := n.Value()
	if err != nil {
		return false, err
	}
	ov, err := other.Value()
	if err != nil {
		return false, err
	}
	if string(nv) != string(ov) {
		return false, nil
	}
	for i, refs := range [][2]*NodeReference{{&n.left, &other.left}, {&n.right, &other.right}} {
		_ = i
		a, b := refs[0], refs[1]
		if a.IsEmpty() != b.IsEmpty() {
			return false, nil
		}
		if a.IsEmpty() {
			continue
		}
		an, err := a.GetNode()
		if err != nil {
			return false, err
		}
		bn, err := b.GetNode()
		if err != nil {
			return false, err
		}
		eq, err := an.Equal(bn)
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

// DebugString renders a human-readable, indented tree for diagnostics. It
// never fails on unresolved hash-only children; it prints the hash
// instead of recursing into the store.
func (n *Node) DebugString() string {
	var b strings.Builder
	n.debugString(&b, 0)
	return b.String()
}

func (n *Node) debugString(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	valDesc := "novalue"
	if n.HasValue() {
		valDesc = fmt.Sprintf("value(len=%d)", n.valueLength)
	}
	fmt.Fprintf(b, "%snode path=%s %s v%d rent=%d\n", indent, n.sharedPath.String(), valDesc, n.version, n.rentTime)
	for _, lbl := range []struct {
		name string
		ref  *NodeReference
	}{{"L", &n.left}, {"R", &n.right}} {
		if lbl.ref.IsEmpty() {
			continue
		}
		fmt.Fprintf(b, "%s %s:\n", indent, lbl.name)
		if lbl.ref.node != nil {
			lbl.ref.node.debugString(b, depth+1)
		} else {
			fmt.Fprintf(b, "%s  <hash %x>\n", indent, lbl.ref.hash)
		}
	}
}

func concatPath(a, b bitpath.Path) bitpath.Path {
	if a.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return a
	}
	return concatBits(a, b)
}

func concatBits(a, b bitpath.Path) bitpath.Path {
	total := a.Length() + b.Length()
	buf := make([]byte, bitpath.EncodedLen(total))
	pos := 0
	write := func(p bitpath.Path) {
		for i := 0; i < p.Length(); i++ {
			if p.Get(i) != 0 {
				buf[pos/8] |= 1 << uint(7-pos%8)
			}
			pos++
		}
	}
	write(a)
	write(b)
	return bitpath.FromEncoded(buf, total)
}

func appendBit(p bitpath.Path, bit byte) bitpath.Path {
	total := p.Length() + 1
	buf := make([]byte, bitpath.EncodedLen(total))
	pos := 0
	for i := 0; i < p.Length(); i++ {
		if p.Get(i) != 0 {
			buf[pos/8] |= 1 << uint(7-pos%8)
		}
		pos++
	}
	if bit != 0 {
		buf[pos/8] |= 1 << uint(7-pos%8)
	}
	return bitpath.FromEncoded(buf, total)
}

func pathToBytes(p bitpath.Path) []byte {
	return p.Encode()
}
