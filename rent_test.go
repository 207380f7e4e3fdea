package trie_test

import (
	"testing"

	"github.com/optimalbrew/rskj"
	"github.com/optimalbrew/rskj/bitpath"
	"github.com/optimalbrew/rskj/store/memstore"
	"github.com/stretchr/testify/require"
)

type recordingTracker struct {
	reads    []readCall
	rewrites []rewriteCall
}

type readCall struct {
	valueLength      int
	lastRentPaidTime int64
}

type rewriteCall struct {
	oldValueLength      int
	oldLastRentPaidTime int64
	newValueLength      int
}

func (r *recordingTracker) OnRead(valueLength int, lastRentPaidTime int64) {
	r.reads = append(r.reads, readCall{valueLength, lastRentPaidTime})
}

func (r *recordingTracker) OnRewrite(oldValueLength int, oldLastRentPaidTime int64, newValueLength int) {
	r.rewrites = append(r.rewrites, rewriteCall{oldValueLength, oldLastRentPaidTime, newValueLength})
}

func TestRentAdapterIsNew(t *testing.T) {
	store := memstore.New()
	root := trie.NewEmpty(store)
	root, err := trie.Put(root, store, bitpath.FromKey([]byte("k")), []byte("v"))
	require.NoError(t, err)
	node, err := root.Find(bitpath.FromKey([]byte("k")))
	require.NoError(t, err)

	require.True(t, trie.NewRentAdapter(node).IsNew())

	root, err = trie.PutWithRent(root, store, bitpath.FromKey([]byte("k")), []byte("v"), 42)
	require.NoError(t, err)
	node, err = root.Find(bitpath.FromKey([]byte("k")))
	require.NoError(t, err)
	require.False(t, trie.NewRentAdapter(node).IsNew())
}

func TestRentAdapterNotifyReadAndRewrite(t *testing.T) {
	store := memstore.New()
	root := trie.NewEmpty(store)
	root, err := trie.PutWithRent(root, store, bitpath.FromKey([]byte("k")), []byte("value"), 99)
	require.NoError(t, err)
	node, err := root.Find(bitpath.FromKey([]byte("k")))
	require.NoError(t, err)

	tracker := &recordingTracker{}
	adapter := trie.NewRentAdapter(node)
	adapter.NotifyRead(tracker)
	require.Len(t, tracker.reads, 1)
	require.Equal(t, 5, tracker.reads[0].valueLength)
	require.EqualValues(t, 99, tracker.reads[0].lastRentPaidTime)

	adapter.NotifyRewrite(tracker, 10)
	require.Len(t, tracker.rewrites, 1)
	require.Equal(t, 5, tracker.rewrites[0].oldValueLength)
	require.EqualValues(t, 99, tracker.rewrites[0].oldLastRentPaidTime)
	require.Equal(t, 10, tracker.rewrites[0].newValueLength)
}
