package node

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNilNode is returned when a nil node is passed to a hierarchy operation.
	ErrNilNode = errors.New("nil node")
	// ErrCycle is returned when an insertion would make a node its own ancestor.
	ErrCycle = errors.New("node would become its own ancestor")
	// ErrNotChild is returned when removing a node that is not a direct child.
	ErrNotChild = errors.New("not a child")
)

// SkipChildren can be returned from a WalkFunc to skip the node's subtree.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for each node visited by Walk.
type WalkFunc func(n *Node) error

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the ordered child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the i-th child.
func (n *Node) Child(i int) *Node { return n.children[i] }

// AddChild appends c to n's children. A child that already has a parent is
// detached from it first.
func (n *Node) AddChild(c *Node) error {
	if c == nil {
		return ErrNilNode
	}
	if c == n || c.IsAncestorOf(n) {
		return fmt.Errorf("%w: cannot add %q under %q", ErrCycle, c.name, n.name)
	}
	if c.parent != nil {
		c.parent.remove(c)
	}
	c.parent = n
	n.children = append(n.children, c)
	c.markDirty()
	return nil
}

// RemoveChild detaches c from n. The subtree of c is left intact.
func (n *Node) RemoveChild(c *Node) error {
	if c == nil {
		return ErrNilNode
	}
	if c.parent != n || !n.remove(c) {
		return fmt.Errorf("%w: %q is not under %q", ErrNotChild, c.name, n.name)
	}
	return nil
}

// Detach removes n from its parent, if any.
func (n *Node) Detach() {
	if n.parent != nil {
		n.parent.remove(n)
	}
}

func (n *Node) remove(c *Node) bool {
	for i, child := range n.children {
		if child == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			c.parent = nil
			c.markDirty()
			return true
		}
	}
	return false
}

// IsAncestorOf reports whether n is a strict ancestor of other.
func (n *Node) IsAncestorOf(other *Node) bool {
	if other == nil {
		return false
	}
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Root returns the topmost ancestor of n.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Walk visits n and its descendants in pre-order. Returning SkipChildren
// skips the current subtree; any other error stops the walk.
func (n *Node) Walk(fn WalkFunc) error {
	err := fn(n)
	if errors.Is(err, SkipChildren) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, c := range n.children {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// FindByName returns the first node in pre-order with the given name.
func (n *Node) FindByName(name string) *Node {
	var found *Node
	n.Walk(func(c *Node) error {
		if found != nil {
			return SkipChildren
		}
		if c.name == name {
			found = c
			return SkipChildren
		}
		return nil
	})
	return found
}

// Path returns the slash-separated names from the root to n.
func (n *Node) Path() string {
	var parts []string
	for p := n; p != nil; p = p.parent {
		parts = append(parts, p.name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

// String dumps the subtree, one node per line.
func (n *Node) String() string {
	var b strings.Builder
	n.dump(&b, 0)
	return b.String()
}

func (n *Node) dump(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.name)
	if !n.visible {
		b.WriteString(" (hidden)")
	}
	if n.renderable != nil {
		b.WriteString(" [renderable]")
	}
	if n.light != nil {
		b.WriteString(" [light]")
	}
	if n.skin != nil {
		b.WriteString(" [skin]")
	}
	b.WriteByte('\n')
	for _, c := range n.children {
		c.dump(b, depth+1)
	}
}
