package trie

import (
	"sync"
	"testing"

	"github.com/optimalbrew/rskj/bitpath"
	"github.com/stretchr/testify/require"
)

// testStore is a minimal in-process Store used only by tests in this file
// that need unexported access (encodeLegacy, decodeLegacy, ...) and so
// cannot import store/memstore without creating an import cycle back into
// this package.
type testStore struct {
	mu     sync.RWMutex
	nodes  map[[32]byte][]byte
	values map[[32]byte][]byte
}

func newTestStore() *testStore {
	return &testStore{nodes: make(map[[32]byte][]byte), values: make(map[[32]byte][]byte)}
}

func (s *testStore) RetrieveNode(hash [32]byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.nodes[hash]
	if !ok {
		return nil, &MissingNodeError{Hash: hash}
	}
	return data, nil
}

func (s *testStore) SaveNode(hash [32]byte, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[hash] = append([]byte(nil), data...)
	return nil
}

func (s *testStore) RetrieveValue(hash [32]byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.values[hash]
	if !ok {
		return nil, &MissingValueError{Hash: hash}
	}
	return data, nil
}

func (s *testStore) SaveValue(hash [32]byte, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[hash] = append([]byte(nil), data...)
	return nil
}

var _ Store = (*testStore)(nil)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	store := newTestStore()
	root := NewEmpty(store)
	for _, kv := range [][2]string{{"alpha", "1"}, {"alb", "2"}, {"beta", "3"}} {
		var err error
		root, err = Put(root, store, bitpath.FromKey([]byte(kv[0])), []byte(kv[1]))
		require.NoError(t, err)
	}
	// Persist the tree so Equal can resolve the decoded root's hash-only
	// children through the store.
	_, err := Save(root, store, store)
	require.NoError(t, err)

	encoded := root.Encoded()
	decoded, err := DecodeNode(encoded, store)
	require.NoError(t, err)

	eq, err := root.Equal(decoded)
	require.NoError(t, err)
	require.True(t, eq)
	require.Equal(t, root.Hash(), decoded.Hash())
}

func TestEncodeDecodeWithRent(t *testing.T) {
	store := newTestStore()
	root := NewEmpty(store)
	root, err := PutWithRent(root, store, bitpath.FromKey([]byte("k")), []byte("v"), 12345)
	require.NoError(t, err)

	node, err := root.Find(bitpath.FromKey([]byte("k")))
	require.NoError(t, err)
	require.EqualValues(t, 2, node.Version())
	require.EqualValues(t, 12345, node.RentTime())

	decoded, err := DecodeNode(node.Encoded(), store)
	require.NoError(t, err)
	require.EqualValues(t, 2, decoded.Version())
	require.EqualValues(t, 12345, decoded.RentTime())
}

func TestEmbeddedChildRoundTrip(t *testing.T) {
	store := newTestStore()
	root := NewEmpty(store)
	root, err := Put(root, store, bitpath.FromKey([]byte("x")), []byte("y"))
	require.NoError(t, err)
	root, err = Put(root, store, bitpath.FromKey([]byte("xx")), []byte("z"))
	require.NoError(t, err)

	require.True(t, root.IsInternalNode() || !root.IsTerminal())

	encoded := root.Encoded()
	decoded, err := DecodeNode(encoded, store)
	require.NoError(t, err)
	require.Equal(t, root.Hash(), decoded.Hash())
}

func TestLegacyDecodeRejectsShortHeader(t *testing.T) {
	_, err := DecodeNode([]byte{legacyArity, 0, 0}, nil)
	require.Error(t, err)
}

func TestDecodeRejectsEmptyInput(t *testing.T) {
	_, err := DecodeNode(nil, nil)
	require.Error(t, err)
}

func TestDecodeRejectsBothVersionBits(t *testing.T) {
	_, err := DecodeNode([]byte{flagV1 | flagV2}, nil)
	require.Error(t, err)
}

func TestLegacyEncodeDecodeRoundTrip(t *testing.T) {
	store := newTestStore()
	root := NewEmpty(store)
	for _, kv := range [][2]string{{"alpha", "1"}, {"alb", "2"}, {"beta", "3"}} {
		var err error
		root, err = Put(root, store, bitpath.FromKey([]byte(kv[0])), []byte(kv[1]))
		require.NoError(t, err)
	}

	legacy, err := encodeLegacy(root, false)
	require.NoError(t, err)
	require.Equal(t, byte(legacyArity), legacy[0])

	decoded, err := decodeLegacy(legacy, store)
	require.NoError(t, err)

	wantHash, err := root.hashLegacyChecked(false)
	require.NoError(t, err)
	gotHash, err := decoded.hashLegacyChecked(false)
	require.NoError(t, err)
	require.Equal(t, wantHash, gotHash)
}

func TestLegacyEncodeLongValueUsesValueHash(t *testing.T) {
	store := newTestStore()
	root := NewEmpty(store)
	longValue := make([]byte, 48)
	for i := range longValue {
		longValue[i] = byte(i + 1)
	}
	root, err := Put(root, store, bitpath.FromKey([]byte("k")), longValue)
	require.NoError(t, err)
	_, err = Save(root, store, store)
	require.NoError(t, err)

	legacy, err := encodeLegacy(root, false)
	require.NoError(t, err)

	decoded, err := decodeLegacy(legacy, store)
	require.NoError(t, err)
	require.Equal(t, longValue, decoded.value)
}

func TestUint24RoundTrip(t *testing.T) {
	buf := make([]byte, 3)
	putUint24(buf, 1<<20+5)
	require.Equal(t, 1<<20+5, getUint24(buf))
}
