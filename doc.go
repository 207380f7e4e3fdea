// Package trie implements a persistent, path-compressed binary-radix
// trie: the authenticated state accumulator of a blockchain-like system.
//
// A Node is immutable. Mutations (Put, PutWithRent, Delete,
// DeleteRecursive) return a new root that shares every untouched subtree
// with the receiver. Two tries built from the same key/value set, by any
// insertion order, hash identically (see TestOrderIndependentHash in
// node_test.go).
//
// Small children can be embedded directly into their parent's encoding
// instead of stored and referenced by hash, and values above
// LongValueThreshold bytes are externalized to a separate value store
// rather than carried inline. Three wire formats coexist: a legacy v0
// ("Orchid") format decoded for historical compatibility, and the current
// v1/v2 formats, v2 adding a per-node storage-rent timestamp. See
// DESIGN.md for the provenance of these design choices.
package trie
