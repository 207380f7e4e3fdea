package trie

import (
	"errors"
	"fmt"
)

// Sentinel errors. Wrap with fmt.Errorf("...: %w", ErrX) at the point of
// detection so callers can errors.Is against these while still getting a
// specific message.
var (
	// ErrMalformedNode is returned by DecodeNode when a byte buffer cannot
	// be parsed as a valid v0/v1/v2 node encoding.
	ErrMalformedNode = errors.New("trie: malformed node encoding")

	// ErrInvalidValueLength is returned when a decoded or supplied value
	// length disagrees with the bytes actually available (e.g. a v2
	// long-value header claims a length that does not match the value
	// later retrieved from the value store).
	ErrInvalidValueLength = errors.New("trie: invalid value length")

	// ErrMissingStoreEntry is returned when a lookup of a hash-only node
	// or value reference fails because the backing store has no entry for
	// that hash, or no store is bound to the reference at all.
	ErrMissingStoreEntry = errors.New("trie: missing store entry")

	// ErrInvariantViolation is returned by ValidateStructure when a node
	// violates one of the documented structural invariants.
	ErrInvariantViolation = errors.New("trie: structural invariant violation")
)

// MissingNodeError reports which hash could not be resolved through the
// bound store. It unwraps to ErrMissingStoreEntry.
type MissingNodeError struct {
	Hash [32]byte
}

func (e *MissingNodeError) Error() string {
	return fmt.Sprintf("trie: no node for hash %x", e.Hash)
}

func (e *MissingNodeError) Unwrap() error { return ErrMissingStoreEntry }

// MissingValueError reports which value hash could not be resolved.
type MissingValueError struct {
	Hash [32]byte
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("trie: no value for hash %x", e.Hash)
}

func (e *MissingValueError) Unwrap() error { return ErrMissingStoreEntry }
