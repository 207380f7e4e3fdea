package trie

import (
	"bytes"
	"fmt"

	"github.com/optimalbrew/rskj/bitpath"
	"github.com/ugorji/go/codec"
)

// GetNodes returns the nodes traversed while resolving key, ordered
// leaf-first (the node that exactly resolves key comes first, the root
// comes last), so that a verifier can check each successive node's
// encoding contains either the predecessor's hash or its full embedded
// bytes. Returns (nil, nil) if key does not exist.
func (n *Node) GetNodes(key bitpath.Path) ([]*Node, error) {
	var path []*Node
	cur := n
	remaining := key
	for {
		common := cur.sharedPath.CommonPrefix(remaining)
		if common.Length() < cur.sharedPath.Length() {
			return nil, nil
		}
		path = append(path, cur)
		remaining = remaining.Slice(common.Length(), remaining.Length())
		if remaining.IsEmpty() {
			break
		}
		var ref *NodeReference
		if remaining.Get(0) == 0 {
			ref = &cur.left
		} else {
			ref = &cur.right
		}
		remaining = remaining.Slice(1, remaining.Length())
		if ref.IsEmpty() {
			return nil, nil
		}
		child, err := ref.GetNode()
		if err != nil {
			return nil, err
		}
		cur = child
	}
	if !cur.HasValue() {
		return nil, nil
	}
	reversed := make([]*Node, len(path))
	for i, node := range path {
		reversed[len(path)-1-i] = node
	}
	return reversed, nil
}

// ProofBundle is the wire-transportable form of a GetNodes result: the
// raw v1/v2 encodings of each node on the path, leaf-first, plus the key
// they were extracted for. A verifier decodes each entry independently
// and checks hash linkage without needing a live Store.
type ProofBundle struct {
	Key   []byte
	Nodes [][]byte
}

// EncodeProofBundle serializes a leaf-first node path (as returned by
// GetNodes) into a transportable ProofBundle, msgpack-encoded with
// github.com/ugorji/go/codec rather than a hand-rolled wire format.
func EncodeProofBundle(key bitpath.Path, path []*Node) ([]byte, error) {
	bundle := ProofBundle{Key: key.Encode(), Nodes: make([][]byte, len(path))}
	for i, node := range path {
		bundle.Nodes[i] = node.Encoded()
	}
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, newMsgpackHandle())
	if err := enc.Encode(&bundle); err != nil {
		return nil, fmt.Errorf("trie: encoding proof bundle: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeProofBundle parses a ProofBundle and decodes each entry back into
// a Node (unbound to any store, since a proof is meant to be verified
// standalone). It does not check hash linkage; call VerifyProofBundle for
// that.
func DecodeProofBundle(data []byte) (*ProofBundle, []*Node, error) {
	var bundle ProofBundle
	dec := codec.NewDecoder(bytes.NewReader(data), newMsgpackHandle())
	if err := dec.Decode(&bundle); err != nil {
		return nil, nil, fmt.Errorf("trie: decoding proof bundle: %w", err)
	}
	nodes := make([]*Node, len(bundle.Nodes))
	for i, raw := range bundle.Nodes {
		node, err := DecodeNode(raw, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("trie: decoding proof node %d: %w", i, err)
		}
		nodes[i] = node
	}
	return &bundle, nodes, nil
}

// VerifyProofBundle checks that a decoded leaf-first node path links up:
// each node's hash (or, for an embedded child, its full body) must appear
// inside the next node's encoding, and the final node's hash must equal
// root.
func VerifyProofBundle(root [32]byte, nodes []*Node) (bool, error) {
	if len(nodes) == 0 {
		return false, nil
	}
	for i := 0; i < len(nodes)-1; i++ {
		child, parent := nodes[i], nodes[i+1]
		childHash := child.Hash()
		if !bytes.Contains(parent.Encoded(), childHash[:]) && !bytes.Contains(parent.Encoded(), child.Encoded()) {
			return false, nil
		}
	}
	return nodes[len(nodes)-1].Hash() == root, nil
}

func newMsgpackHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	return h
}
