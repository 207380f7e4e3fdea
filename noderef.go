package trie

// MaxEmbeddedNodeSize is the inclusive upper bound, in encoded bytes, for a
// terminal child to be inlined into its parent's encoding instead of
// referenced by hash.
const MaxEmbeddedNodeSize = 52

// NodeReference is a child slot of a Node: empty, hash-only (persisted,
// not yet resolved in memory), or backed by a materialized Node. The
// "embedded" classification used during encoding is not a stored tag; it
// is derived on demand from whether the slot currently holds a
// materialized, embeddable (terminal, <=52-byte) Node (see IsEmbedded).
//
// A child reference carries at most a node object, a hash, or neither.
// Resolving a hash-only reference through the store fills in the node
// object as a cache and never changes the reference's logical value, only
// its performance.
type NodeReference struct {
	store   Store
	present bool
	hash    [32]byte
	node    *Node
}

// EmptyRef is the canonical empty child slot.
var EmptyRef = NodeReference{}

// RefFromNode returns a reference to an in-memory node, as constructed by
// the mutator for a freshly built child that has not (yet) been saved.
func RefFromNode(store Store, n *Node) NodeReference {
	if n == nil {
		return EmptyRef
	}
	return NodeReference{store: store, present: true, node: n}
}

// RefFromHash returns a hash-only reference, as produced when decoding a
// node whose child was not embedded.
func RefFromHash(store Store, hash [32]byte) NodeReference {
	return NodeReference{store: store, present: true, hash: hash}
}

// IsEmpty reports whether this slot has no child.
func (r NodeReference) IsEmpty() bool { return !r.present }

// IsEmbedded reports whether this reference currently holds a materialized
// node small and terminal enough to be inlined into the parent's encoding
// rather than referenced by hash.
func (r NodeReference) IsEmbedded() bool {
	return r.present && r.node != nil && r.node.IsEmbeddable()
}

// GetNode resolves the reference to a concrete *Node, fetching and
// decoding from the bound store on first access to a hash-only reference
// and memoizing the result. Returns (nil, nil) for an empty reference.
func (r *NodeReference) GetNode() (*Node, error) {
	if !r.present {
		return nil, nil
	}
	if r.node != nil {
		return r.node, nil
	}
	if r.store == nil {
		return nil, &MissingNodeError{Hash: r.hash}
	}
	data, err := r.store.RetrieveNode(r.hash)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, &MissingNodeError{Hash: r.hash}
	}
	n, err := DecodeNode(data, r.store)
	if err != nil {
		return nil, err
	}
	n.hash = &r.hash
	r.node = n
	return n, nil
}

// Hash returns the reference's v1/v2 hash, computing and caching it (via
// the resolved node) if necessary. Returns false for an empty reference.
func (r *NodeReference) Hash() ([32]byte, bool) {
	if !r.present {
		return [32]byte{}, false
	}
	if r.node == nil {
		return r.hash, true
	}
	h := r.node.Hash()
	r.hash = h
	return h, true
}

// HashLegacy returns the v0-compatible hash of the referenced node,
// resolving it from the store if necessary (legacy hashes may require
// recursing into children that are only known by their v1/v2 hash).
func (r *NodeReference) HashLegacy(isSecure bool) ([32]byte, bool, error) {
	if !r.present {
		return [32]byte{}, false, nil
	}
	n, err := r.GetNode()
	if err != nil {
		return [32]byte{}, false, err
	}
	h, err := n.hashLegacyChecked(isSecure)
	if err != nil {
		return [32]byte{}, false, err
	}
	return h, true, nil
}

// ReferenceSize returns the byte cost this reference contributes to its
// parent's encoding: 0 when empty, 1+encodedLen for an embedded child, or
// HashSize for a hash-only (or materialized-but-too-large) child.
func (r NodeReference) ReferenceSize() int {
	if !r.present {
		return 0
	}
	if r.IsEmbedded() {
		return 1 + r.node.EncodedLen()
	}
	return HashSize
}
