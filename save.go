package trie

// Save persists n and every reachable descendant to store: long values
// under their value hash, node encodings under their node hash. Embedded
// children are not saved independently (their bytes live inside their
// parent's encoding), but an embedded child's own long value, if it has
// one, is still externalized — embedding only exempts a node from its own
// SaveNode entry, never from the long-value rule. After a node is saved
// its encoded cache is released, retaining only its hash.
func Save(n *Node, store NodeStore, valueStore ValueStore) ([32]byte, error) {
	if err := save(n, store, valueStore); err != nil {
		return [32]byte{}, err
	}
	return n.Hash(), nil
}

func save(n *Node, store NodeStore, valueStore ValueStore) error {
	if n == nil {
		return nil
	}
	for _, ref := range []*NodeReference{&n.left, &n.right} {
		if ref.IsEmpty() {
			continue
		}
		child, err := ref.GetNode()
		if err != nil {
			return err
		}
		if ref.IsEmbedded() {
			if err := saveLongValue(child, valueStore); err != nil {
				return err
			}
			continue
		}
		if err := save(child, store, valueStore); err != nil {
			return err
		}
	}
	if err := saveLongValue(n, valueStore); err != nil {
		return err
	}
	// Every node reaching this point is either the root being saved or a
	// child its parent chose to reference by hash rather than embed (see
	// the skip above), so it always gets its own store entry.
	h := n.Hash()
	if err := store.SaveNode(h, n.Encoded()); err != nil {
		return err
	}
	n.releaseEncodedCache()
	return nil
}

func saveLongValue(n *Node, valueStore ValueStore) error {
	if !n.IsLongValue() {
		return nil
	}
	vh, err := n.ValueHash()
	if err != nil {
		return err
	}
	v, err := n.Value()
	if err != nil {
		return err
	}
	return valueStore.SaveValue(*vh, v)
}
