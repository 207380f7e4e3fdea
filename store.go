package trie

// NodeStore persists and retrieves encoded node bytes keyed by their
// Keccak-256 hash. Implementations live under store/ (memstore,
// badgerstore); the root package only depends on this interface, never on
// a concrete backend, so swapping storage engines never touches the trie
// algorithms.
type NodeStore interface {
	RetrieveNode(hash [32]byte) ([]byte, error)
	SaveNode(hash [32]byte, data []byte) error
}

// ValueStore persists and retrieves externalized values (those longer
// than LongValueThreshold bytes) keyed by their own Keccak-256 hash.
type ValueStore interface {
	RetrieveValue(hash [32]byte) ([]byte, error)
	SaveValue(hash [32]byte, data []byte) error
}

// Store is the combined external-store contract a Node is bound to. A nil
// Store is valid for a trie built entirely from Put/PutWithRent without an
// intervening Save: every reference stays materialized in memory, so
// nothing ever needs to be fetched.
type Store interface {
	NodeStore
	ValueStore
}
