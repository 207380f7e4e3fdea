package trie

import (
	"hash"
	"sync"

	"golang.org/x/crypto/sha3"
)

// HashSize is the width, in bytes, of a node or value hash.
const HashSize = 32

// keccakState wraps sha3.state to expose Read, which is faster than Sum
// because it does not copy the internal state.
type keccakState interface {
	hash.Hash
	Read([]byte) (int, error)
}

var hasherPool = sync.Pool{
	New: func() any {
		return sha3.NewLegacyKeccak256().(keccakState)
	},
}

// Keccak256 hashes data with a pooled hasher, avoiding the Write/Sum
// allocation hash.Hash.Sum(nil) would otherwise incur on every node save.
func Keccak256(data ...[]byte) [32]byte {
	h := hasherPool.Get().(keccakState)
	h.Reset()
	defer hasherPool.Put(h)

	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	h.Read(out[:])
	return out
}

// EmptyHash is the canonical "no state" root hash: the Keccak-256 of the
// RLP encoding of the empty byte string, a single 0x80 byte. It is defined
// independently of Node.Hash's own empty-trie special case rather than
// derived from it, so the two can be checked against each other instead of
// sharing a single code path that could drift wrong in both places at once.
var EmptyHash = Keccak256([]byte{0x80})
