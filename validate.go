package trie

import (
	"fmt"

	"go.uber.org/multierr"
)

// ValidateStructure walks the materialized subtree rooted at n and
// collects every structural invariant violation found, rather than
// failing fast on the first one — useful for diagnosing a corrupt store
// dump with a single pass. Hash-only children are resolved through the
// store; a resolution failure is reported alongside any other violations
// found so far rather than aborting the walk.
func ValidateStructure(n *Node) error {
	var errs error
	validateNode(n, &errs)
	return errs
}

func validateNode(n *Node, errs *error) {
	if n == nil {
		return
	}
	if !n.HasValue() && n.IsInternalOneChild() {
		*errs = multierr.Append(*errs, fmt.Errorf("node at path %q: value-less node with exactly one child: %w", n.sharedPath.String(), ErrInvariantViolation))
	}
	if n.value != nil && len(n.value) != n.valueLength {
		*errs = multierr.Append(*errs, fmt.Errorf("node at path %q: materialized value length %d disagrees with valueLength %d: %w", n.sharedPath.String(), len(n.value), n.valueLength, ErrInvariantViolation))
	}
	if n.valueLength > 0 && n.value == nil && n.valueHash == nil {
		*errs = multierr.Append(*errs, fmt.Errorf("node at path %q: lazy value with no valueHash: %w", n.sharedPath.String(), ErrInvariantViolation))
	}
	if n.version == 2 && n.rentTime == -1 {
		*errs = multierr.Append(*errs, fmt.Errorf("node at path %q: version 2 with unset rent timestamp: %w", n.sharedPath.String(), ErrInvariantViolation))
	}
	if n.version != 2 && n.rentTime != -1 {
		*errs = multierr.Append(*errs, fmt.Errorf("node at path %q: non-v2 node carrying a rent timestamp: %w", n.sharedPath.String(), ErrInvariantViolation))
	}

	for _, ref := range []*NodeReference{&n.left, &n.right} {
		if ref.IsEmpty() {
			continue
		}
		child, err := ref.GetNode()
		if err != nil {
			*errs = multierr.Append(*errs, fmt.Errorf("node at path %q: resolving child: %w", n.sharedPath.String(), err))
			continue
		}
		if ref.IsEmbedded() && !child.IsEmbeddable() {
			*errs = multierr.Append(*errs, fmt.Errorf("node at path %q: embedded child is not embeddable: %w", n.sharedPath.String(), ErrInvariantViolation))
		}
		validateNode(child, errs)
	}
}

// IsInternalOneChild reports whether the node has exactly one non-empty
// child (the shape the coalesce rule forbids when the node also carries
// no value).
func (n *Node) IsInternalOneChild() bool {
	return n.left.IsEmpty() != n.right.IsEmpty()
}
