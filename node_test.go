package trie_test

import (
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/optimalbrew/rskj"
	"github.com/optimalbrew/rskj/bitpath"
	"github.com/optimalbrew/rskj/store/memstore"
	"github.com/stretchr/testify/require"
)

func init() {
	spew.Config.Indent = "    "
	spew.Config.DisableMethods = false
}

func TestEmptyTrieHash(t *testing.T) {
	root := trie.NewEmpty(nil)
	require.True(t, root.IsEmptyTrie())
	require.Equal(t, trie.EmptyHash, root.Hash())
}

func TestPutThenGet(t *testing.T) {
	store := memstore.New()
	root := trie.NewEmpty(store)

	root, err := trie.Put(root, store, bitpath.FromKey([]byte("foo")), []byte("bar"))
	require.NoError(t, err)

	v, ok, err := root.Get(bitpath.FromKey([]byte("foo")))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("bar"), v)

	require.Equal(t, 1, mustSize(t, root))
	require.True(t, root.IsTerminal())
}

func TestDeleteMakesEmpty(t *testing.T) {
	store := memstore.New()
	root := trie.NewEmpty(store)

	root, err := trie.Put(root, store, bitpath.FromKey([]byte("foo")), []byte("bar"))
	require.NoError(t, err)

	root, err = trie.Delete(root, store, bitpath.FromKey([]byte("foo")))
	require.NoError(t, err)

	_, ok, err := root.Get(bitpath.FromKey([]byte("foo")))
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, trie.EmptyHash, root.Hash())
}

func TestEmptyValuePutIsDelete(t *testing.T) {
	store := memstore.New()
	root := trie.NewEmpty(store)

	withValue, err := trie.Put(root, store, bitpath.FromKey([]byte("k")), []byte("v"))
	require.NoError(t, err)

	viaDelete, err := trie.Delete(withValue, store, bitpath.FromKey([]byte("k")))
	require.NoError(t, err)
	viaEmptyPut, err := trie.Put(withValue, store, bitpath.FromKey([]byte("k")), []byte{})
	require.NoError(t, err)

	require.Equal(t, viaDelete.Hash(), viaEmptyPut.Hash())
}

func TestSplitCreatesSharedInternalNode(t *testing.T) {
	store := memstore.New()
	root := trie.NewEmpty(store)

	root, err := trie.Put(root, store, bitpath.FromKey([]byte("foo")), []byte("1"))
	require.NoError(t, err)
	root, err = trie.Put(root, store, bitpath.FromKey([]byte("fad")), []byte("2"))
	require.NoError(t, err)

	v, ok, err := root.Get(bitpath.FromKey([]byte("foo")))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("1"), v)

	v, ok, err = root.Get(bitpath.FromKey([]byte("fad")))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)

	require.False(t, root.IsTerminal())
}

func TestOrderIndependentHash(t *testing.T) {
	pairs := [][2]string{
		{"foo", "1"}, {"fad", "2"}, {"f", "3"}, {"bar", "4"}, {"baz", "5"},
	}

	buildInOrder := func(order []int) [32]byte {
		store := memstore.New()
		root := trie.NewEmpty(store)
		for _, i := range order {
			var err error
			root, err = trie.Put(root, store, bitpath.FromKey([]byte(pairs[i][0])), []byte(pairs[i][1]))
			require.NoError(t, err)
		}
		return root.Hash()
	}

	h1 := buildInOrder([]int{0, 1, 2, 3, 4})
	h2 := buildInOrder([]int{4, 3, 2, 1, 0})
	h3 := buildInOrder([]int{2, 0, 4, 1, 3})
	require.Equal(t, h1, h2)
	require.Equal(t, h1, h3)
}

func TestCoalesceAfterDelete(t *testing.T) {
	store := memstore.New()
	root := trie.NewEmpty(store)
	for _, kv := range [][2]string{{"f", "x"}, {"foo", "1"}, {"fad", "2"}} {
		var err error
		root, err = trie.Put(root, store, bitpath.FromKey([]byte(kv[0])), []byte(kv[1]))
		require.NoError(t, err)
	}

	root, err := trie.Delete(root, store, bitpath.FromKey([]byte("f")))
	require.NoError(t, err)

	require.NoError(t, trie.ValidateStructure(root), "tree after coalesce:\n%s", spew.Sdump(root.DebugString()))

	v, ok, err := root.Get(bitpath.FromKey([]byte("foo")))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("1"), v)

	v, ok, err = root.Get(bitpath.FromKey([]byte("fad")))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("2"), v)

	_, ok, err = root.Get(bitpath.FromKey([]byte("f")))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPutIdempotenceIsReferential(t *testing.T) {
	store := memstore.New()
	root := trie.NewEmpty(store)
	root, err := trie.Put(root, store, bitpath.FromKey([]byte("k")), []byte("v"))
	require.NoError(t, err)

	again, err := trie.Put(root, store, bitpath.FromKey([]byte("k")), []byte("v"))
	require.NoError(t, err)
	require.Same(t, root, again)
}

func TestDeleteOfMissingKeyIsNoOp(t *testing.T) {
	store := memstore.New()
	root := trie.NewEmpty(store)
	root, err := trie.Put(root, store, bitpath.FromKey([]byte("foo")), []byte("1"))
	require.NoError(t, err)

	again, err := trie.Delete(root, store, bitpath.FromKey([]byte("nope")))
	require.NoError(t, err)
	require.Same(t, root, again)
}

func TestLongValueExternalized(t *testing.T) {
	store := memstore.New()
	root := trie.NewEmpty(store)
	longValue := make([]byte, 100)
	for i := range longValue {
		longValue[i] = byte(i)
	}

	root, err := trie.Put(root, store, bitpath.FromKey([]byte("k")), longValue)
	require.NoError(t, err)

	node, err := root.Find(bitpath.FromKey([]byte("k")))
	require.NoError(t, err)
	require.True(t, node.IsLongValue())

	encoded := node.Encoded()
	require.NotContains(t, string(encoded), string(longValue))

	_, err = trie.Save(root, store, store)
	require.NoError(t, err)

	v, ok, err := root.Get(bitpath.FromKey([]byte("k")))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, longValue, v)
}

func mustSize(t *testing.T, n *trie.Node) int {
	t.Helper()
	size, err := n.TrieSize()
	require.NoError(t, err)
	return size
}
