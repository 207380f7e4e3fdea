package trie_test

import (
	"errors"
	"testing"

	"github.com/optimalbrew/rskj"
	"github.com/optimalbrew/rskj/bitpath"
	"github.com/optimalbrew/rskj/store/memstore"
	"github.com/stretchr/testify/require"
)

var errStop = errors.New("stop")

func buildFixture(t *testing.T) (*trie.Node, trie.Store) {
	t.Helper()
	store := memstore.New()
	root := trie.NewEmpty(store)
	for _, kv := range [][2]string{{"m", "1"}, {"b", "2"}, {"z", "3"}, {"ba", "4"}} {
		var err error
		root, err = trie.Put(root, store, bitpath.FromKey([]byte(kv[0])), []byte(kv[1]))
		require.NoError(t, err)
	}
	return root, store
}

func TestInOrderVisitsEveryValueBearingNode(t *testing.T) {
	root, _ := buildFixture(t)
	seen := map[string]bool{}
	err := trie.InOrder(root, func(e trie.Entry) error {
		if e.Node.HasValue() {
			seen[e.Node.SharedPath().String()] = true
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 4) // m, b, z, ba
}

func TestPreOrderVisitsRootFirst(t *testing.T) {
	root, _ := buildFixture(t)
	var first *trie.Node
	err := trie.PreOrder(root, func(e trie.Entry) error {
		if first == nil {
			first = e.Node
		}
		return nil
	})
	require.NoError(t, err)
	require.Same(t, root, first)
}

func TestPostOrderVisitsRootLast(t *testing.T) {
	root, _ := buildFixture(t)
	var last *trie.Node
	err := trie.PostOrder(root, func(e trie.Entry) error {
		last = e.Node
		return nil
	})
	require.NoError(t, err)
	require.Same(t, root, last)
}

func TestIteratorStopsOnVisitError(t *testing.T) {
	root, _ := buildFixture(t)
	count := 0
	sentinel := require.Error
	err := trie.InOrder(root, func(e trie.Entry) error {
		count++
		if count == 1 {
			return errStop
		}
		return nil
	})
	sentinel(t, err)
	require.Equal(t, 1, count)
	require.ErrorIs(t, err, errStop)
}

func TestCollectKeysRespectsMaxBytes(t *testing.T) {
	store := memstore.New()
	root := trie.NewEmpty(store)
	root, err := trie.Put(root, store, bitpath.FromKey([]byte("ab")), []byte("1"))
	require.NoError(t, err)
	root, err = trie.Put(root, store, bitpath.FromKey([]byte("abcdefgh")), []byte("2"))
	require.NoError(t, err)

	keys, err := root.CollectKeys(2)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, []byte("ab"), keys[0])

	keys, err = root.CollectKeys(8)
	require.NoError(t, err)
	require.Len(t, keys, 2)
}
