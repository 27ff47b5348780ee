// File: internal/hierarchy/tree.go
package hierarchy

import (
	"strings"

	"github.com/xkilldash9x/assessment-export/api/schemas"
)

// PathSeparator joins ancestor names in a hierarchy path.
const PathSeparator = " > "

// noParent marks a root node.
const noParent = -1

// Node is one flattened business unit. Its parent link is an index into the
// owning Tree, fixed when the tree is built and never changed afterwards.
type Node struct {
	ID    string
	Name  schemas.Optional[string]
	Depth int

	index  int
	parent int
}

// Index is the node's position in breadth-first order.
func (n Node) Index() int { return n.index }

// IsRoot reports whether the node was one of the input roots.
func (n Node) IsRoot() bool { return n.parent == noParent }

// Tree is an arena of business units in breadth-first order.
type Tree struct {
	nodes []Node
	byID  map[string]int
}

type pending struct {
	unit   *schemas.BusinessUnit
	parent int
	depth  int
}

// Flatten converts a forest into breadth-first order: all roots in input
// order, then their children in the order parents were visited and children
// listed, and so on. Every node appears exactly once.
func Flatten(roots []schemas.BusinessUnit) *Tree {
	t := &Tree{byID: make(map[string]int)}

	queue := make([]pending, 0, len(roots))
	for i := range roots {
		queue = append(queue, pending{unit: &roots[i], parent: noParent})
	}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		idx := len(t.nodes)
		t.nodes = append(t.nodes, Node{
			ID:     next.unit.ID,
			Name:   next.unit.Name,
			Depth:  next.depth,
			index:  idx,
			parent: next.parent,
		})
		// Duplicate ids resolve to the last occurrence.
		t.byID[next.unit.ID] = idx

		for i := range next.unit.Children {
			queue = append(queue, pending{unit: &next.unit.Children[i], parent: idx, depth: next.depth + 1})
		}
	}
	return t
}

// Len is the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Nodes returns the nodes in breadth-first order. The slice is a copy.
func (t *Tree) Nodes() []Node {
	out := make([]Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Lookup finds a node by business unit id.
func (t *Tree) Lookup(id string) (Node, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return Node{}, false
	}
	return t.nodes[idx], true
}

// Parent returns the node's immediate parent, or false for a root.
func (t *Tree) Parent(n Node) (Node, bool) {
	if n.parent == noParent || n.parent >= len(t.nodes) {
		return Node{}, false
	}
	return t.nodes[n.parent], true
}

// ParentName is the immediate parent's name. It is missing for roots and for
// parents without a name.
func (t *Tree) ParentName(n Node) schemas.Optional[string] {
	p, ok := t.Parent(n)
	if !ok {
		return schemas.Optional[string]{}
	}
	return p.Name
}

// Path joins the names from the root down to n with PathSeparator,
// substituting the label placeholder for missing names.
func (t *Tree) Path(n Node) string {
	segments := []string{n.Name.Or(schemas.PlaceholderLabel)}
	// Parents always precede their children, so this walk terminates.
	for p, ok := t.Parent(n); ok; p, ok = t.Parent(p) {
		segments = append(segments, p.Name.Or(schemas.PlaceholderLabel))
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, PathSeparator)
}
