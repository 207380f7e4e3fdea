package trie

import "github.com/optimalbrew/rskj/bitpath"

// Put inserts or replaces the value at key, returning a new root that
// shares every untouched subtree with n. Putting an empty value deletes
// the key (spec invariant 1). The returned root is never nil: a trie
// emptied by deletion comes back as the canonical empty root.
func Put(n *Node, store Store, key bitpath.Path, value []byte) (*Node, error) {
	root, err := putInternal(n, store, key, value, false, -1, 1)
	return rootOrEmpty(root, err, store)
}

// PutWithRent is Put, additionally stamping the terminal node (and any
// internal node created by a split this put induces) with newRentTime and
// marking them as v2.
func PutWithRent(n *Node, store Store, key bitpath.Path, value []byte, newRentTime int64) (*Node, error) {
	version := uint8(1)
	if newRentTime != -1 {
		version = 2
	}
	root, err := putInternal(n, store, key, value, false, newRentTime, version)
	return rootOrEmpty(root, err, store)
}

// Delete removes the value at key; equivalent to Put(n, key, nil).
func Delete(n *Node, store Store, key bitpath.Path) (*Node, error) {
	root, err := putInternal(n, store, key, nil, false, -1, 1)
	return rootOrEmpty(root, err, store)
}

// DeleteRecursive removes the entire subtree rooted at the node that
// exactly resolves key, returning a new root with that subtree gone. If
// that node carries no value and no rent timestamp (-1), the trie is
// returned unchanged and its subtree is kept.
func DeleteRecursive(n *Node, store Store, key bitpath.Path) (*Node, error) {
	root, err := putInternal(n, store, key, nil, true, -1, 1)
	return rootOrEmpty(root, err, store)
}

func rootOrEmpty(n *Node, err error, store Store) (*Node, error) {
	if err != nil {
		return nil, err
	}
	if n == nil {
		return NewEmpty(store), nil
	}
	return n, nil
}

// putInternal is the shared recursive core behind Put, PutWithRent,
// Delete, and DeleteRecursive. this may be nil, standing in for an empty
// child slot; newRent/version only take effect on the node(s) the put
// actually touches (the terminal, and any split-created ancestor), never
// on an untouched sibling subtree, whose own rent/version is preserved by
// the final branch below.
func putInternal(this *Node, store Store, key bitpath.Path, value []byte, isRecursiveDelete bool, newRent int64, version uint8) (*Node, error) {
	wasAbsent := this == nil
	if wasAbsent {
		this = NewEmpty(store)
	}
	// unchanged returns `this` if the caller passed a real node, or the
	// nil sentinel if `this` stood in for an absent child — so deleting an
	// already-absent key never fabricates a fresh empty-node identity and
	// breaks the "unchanged put returns the same object" guarantee.
	unchanged := func() (*Node, error) {
		if wasAbsent {
			return nil, nil
		}
		return this, nil
	}

	p := this.sharedPath
	common := key.CommonPrefix(p)

	if common.Length() < p.Length() {
		if len(value) == 0 {
			return unchanged() // deleting (plain or recursive) a key that diverges from any existing path: no-op
		}
		splitNode := split(store, this, common)
		splitNode.rentTime = newRent
		splitNode.version = version
		return putInternal(splitNode, store, key, value, isRecursiveDelete, newRent, version)
	}

	if p.Length() >= key.Length() {
		// A recursive delete that already matches the target's current
		// value and rent is a no-op, same as any other unchanged put —
		// it must not fall through to an unconditional wipe below just
		// because isRecursiveDelete is set.
		if len(value) == this.valueLength && newRent == this.rentTime {
			curVal, err := this.Value()
			if err != nil {
				return nil, err
			}
			if bytesEqual(value, curVal) {
				return unchanged()
			}
		}
		if isRecursiveDelete {
			return nil, nil // entire subtree removed
		}
		if len(value) == 0 {
			return emptyOrCoalesce(store, p, nil, this.left, this.right, newRent, version)
		}
		return newLeafOrBranch(store, p, value, this.left, this.right, newRent, version), nil
	}

	if this.IsEmptyTrie() {
		if len(value) == 0 {
			return unchanged()
		}
		return newLeaf(store, key, value, newRent, version), nil
	}

	bit := key.Get(p.Length())
	childRef := this.childRef(bit)
	child, err := childRef.GetNode()
	if err != nil {
		return nil, err
	}
	rest := key.Slice(p.Length()+1, key.Length())
	newChild, err := putInternal(child, store, rest, value, isRecursiveDelete, newRent, version)
	if err != nil {
		return nil, err
	}
	if newChild == child {
		return this, nil
	}

	newLeft, newRight := this.left, this.right
	if bit == 0 {
		newLeft = RefFromNode(store, newChild)
		if newChild == nil {
			newLeft = EmptyRef
		}
	} else {
		newRight = RefFromNode(store, newChild)
		if newChild == nil {
			newRight = EmptyRef
		}
	}

	if !this.HasValue() && newLeft.IsEmpty() && newRight.IsEmpty() {
		return nil, nil
	}
	curVal, err := this.Value()
	if err != nil {
		return nil, err
	}
	return coalesceOrBranch(store, p, curVal, newLeft, newRight, this.rentTime, this.version)
}

// childRef returns a pointer to the receiver's left or right reference
// according to bit (0 -> left, 1 -> right).
func (n *Node) childRef(bit byte) *NodeReference {
	if bit == 0 {
		return &n.left
	}
	return &n.right
}

// split creates a child carrying this's existing value and children under
// sharedPath = this.sharedPath.slice(len(common)+1, len(this.sharedPath)),
// and returns a new value-less parent with sharedPath = common whose
// single child (on the side indicated by this.sharedPath.get(len(common)))
// is that new child. The caller immediately overwrites the returned
// parent's rentTime/version with the put's own.
func split(store Store, this *Node, common bitpath.Path) *Node {
	divergeBit := this.sharedPath.Get(common.Length())
	childPath := this.sharedPath.Slice(common.Length()+1, this.sharedPath.Length())
	child := newDecodedNode(store, childPath, this.value, this.valueLength, this.valueHash, this.left, this.right, this.rentTime, this.version)

	parent := newBranch(store, common, nil, EmptyRef, EmptyRef, this.rentTime, this.version)
	if divergeBit == 0 {
		parent.left = RefFromNode(store, child)
	} else {
		parent.right = RefFromNode(store, child)
	}
	return parent
}

// coalesce folds a value-less node with exactly one non-empty child into
// that child, prepending parent ∥ implicitBit to the child's sharedPath
// and carrying the child's own value, children, rent, and version (spec
// §4.G coalesce rule).
func coalesce(store Store, parentPath bitpath.Path, left, right NodeReference) (*Node, error) {
	var bit byte
	var only *NodeReference
	if !left.IsEmpty() {
		bit, only = 0, &left
	} else {
		bit, only = 1, &right
	}
	child, err := only.GetNode()
	if err != nil {
		return nil, err
	}
	newPath := parentPath.RebuildSharedPath(bit, child.sharedPath)
	return newDecodedNode(store, newPath, child.value, child.valueLength, child.valueHash, child.left, child.right, child.rentTime, child.version), nil
}

// coalesceOrBranch returns the value-bearing branch (P, value, left,
// right), or — when the branch would be a value-less single-child node —
// its coalesced form, or nil if it would be the empty trie.
func coalesceOrBranch(store Store, p bitpath.Path, value []byte, left, right NodeReference, rentTime int64, version uint8) (*Node, error) {
	if len(value) > 0 {
		return newBranch(store, p, value, left, right, rentTime, version), nil
	}
	return emptyOrCoalesce(store, p, nil, left, right, rentTime, version)
}

// emptyOrCoalesce handles a value-less node after a delete: empty trie if
// no children remain, a coalesced node if exactly one remains, or an
// internal (value-less, two-child) node otherwise.
func emptyOrCoalesce(store Store, p bitpath.Path, value []byte, left, right NodeReference, rentTime int64, version uint8) (*Node, error) {
	leftEmpty, rightEmpty := left.IsEmpty(), right.IsEmpty()
	switch {
	case leftEmpty && rightEmpty:
		return nil, nil
	case leftEmpty != rightEmpty:
		return coalesce(store, p, left, right)
	default:
		return newBranch(store, p, value, left, right, rentTime, version), nil
	}
}

// newLeafOrBranch builds the node replacing `this` when a put terminates
// exactly at this's sharedPath and supplies a non-empty value: a terminal
// if both children are empty, otherwise an internal value-bearing node.
func newLeafOrBranch(store Store, p bitpath.Path, value []byte, left, right NodeReference, rentTime int64, version uint8) *Node {
	return newBranch(store, p, value, left, right, rentTime, version)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
