package trie

import "github.com/optimalbrew/rskj/bitpath"

// Entry is a single (key prefix, node) pair produced by an iterator. Key
// is the full path from the root to this node, not just its own
// sharedPath.
type Entry struct {
	Key  bitpath.Path
	Node *Node
}

// iterate walks the subtree rooted at n in the given order, resolving
// hash-only children through the store on demand. It never mutates the
// tree; order is one of orderIn, orderPre, orderPost.
func iterate(n *Node, prefix bitpath.Path, order visitOrder, visit func(Entry) error) error {
	if n == nil {
		return nil
	}
	full := concatPath(prefix, n.sharedPath)

	visitSelf := func() error { return visit(Entry{Key: full, Node: n}) }
	visitLeft := func() error { return visitChild(n, &n.left, full, 0, order, visit) }
	visitRight := func() error { return visitChild(n, &n.right, full, 1, order, visit) }

	switch order {
	case orderPre:
		if err := visitSelf(); err != nil {
			return err
		}
		if err := visitLeft(); err != nil {
			return err
		}
		return visitRight()
	case orderPost:
		if err := visitLeft(); err != nil {
			return err
		}
		if err := visitRight(); err != nil {
			return err
		}
		return visitSelf()
	default: // orderIn
		if err := visitLeft(); err != nil {
			return err
		}
		if err := visitSelf(); err != nil {
			return err
		}
		return visitRight()
	}
}

func visitChild(parent *Node, ref *NodeReference, full bitpath.Path, bit byte, order visitOrder, visit func(Entry) error) error {
	if ref.IsEmpty() {
		return nil
	}
	child, err := ref.GetNode()
	if err != nil {
		return err
	}
	return iterate(child, appendBit(full, bit), order, visit)
}

type visitOrder int

const (
	orderIn visitOrder = iota
	orderPre
	orderPost
)

// InOrder walks the subtree left-self-right, calling visit for each node.
// Walking stops and returns visit's error if it returns non-nil.
func InOrder(n *Node, visit func(Entry) error) error {
	return iterate(n, bitpath.Empty, orderIn, visit)
}

// PreOrder walks the subtree self-left-right.
func PreOrder(n *Node, visit func(Entry) error) error {
	return iterate(n, bitpath.Empty, orderPre, visit)
}

// PostOrder walks the subtree left-right-self.
func PostOrder(n *Node, visit func(Entry) error) error {
	return iterate(n, bitpath.Empty, orderPost, visit)
}
