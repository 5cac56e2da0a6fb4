package umrf

import (
	"errors"
	"fmt"
	"slices"
)

// Graph is a named set of nodes keyed by (name, suffix). Nodes added to a
// graph are owned by it: suffixes and relations are rewritten in place.
type Graph struct {
	Name        string
	Description string

	nodes []*Node
	index map[Relation]*Node
}

// NewGraph builds a graph from nodes in order. Non-zero suffixes are taken as
// given and must not collide. Nodes with suffix 0 get the lowest suffix not
// yet used by their base name, in list order.
func NewGraph(name string, nodes ...*Node) (*Graph, error) {
	g := &Graph{Name: name, index: make(map[Relation]*Node, len(nodes))}
	for _, n := range nodes {
		if n.Suffix == 0 {
			continue
		}
		if err := g.checkNode(n); err != nil {
			return nil, err
		}
		g.index[n.ID()] = n
	}
	for _, n := range nodes {
		if n.Suffix != 0 {
			continue
		}
		if n.Name == "" {
			return nil, fmt.Errorf("%w: node without a name", ErrInvalidName)
		}
		n.Suffix = g.nextSuffix(n.Name)
		g.index[n.ID()] = n
	}
	g.nodes = slices.Clone(nodes)
	return g, nil
}

func (g *Graph) checkNode(n *Node) error {
	if n.Name == "" {
		return fmt.Errorf("%w: node without a name", ErrInvalidName)
	}
	if n.Suffix < 0 {
		return fmt.Errorf("%w: node %q has negative suffix %d", ErrInvalidName, n.Name, n.Suffix)
	}
	if _, taken := g.index[n.ID()]; taken {
		return &DuplicateNameError{Kind: "node", Name: n.ID().String()}
	}
	return nil
}

func (g *Graph) nextSuffix(name string) int {
	s := 0
	for {
		if _, taken := g.index[Relation{Name: name, Suffix: s}]; !taken {
			return s
		}
		s++
	}
}

// AddNode inserts n at the end. A zero suffix is replaced by the lowest free
// one; a non-zero suffix that is taken yields *DuplicateNameError.
func (g *Graph) AddNode(n *Node) (Relation, error) {
	if g.index == nil {
		g.index = make(map[Relation]*Node)
	}
	if n.Suffix == 0 {
		if n.Name == "" {
			return Relation{}, fmt.Errorf("%w: node without a name", ErrInvalidName)
		}
		n.Suffix = g.nextSuffix(n.Name)
	} else if err := g.checkNode(n); err != nil {
		return Relation{}, err
	}
	g.nodes = append(g.nodes, n)
	g.index[n.ID()] = n
	return n.ID(), nil
}

// RemoveNode deletes the node and every relation pointing at it.
func (g *Graph) RemoveNode(id Relation) error {
	n, ok := g.index[id]
	if !ok {
		return fmt.Errorf("removing node %s: %w", id, ErrNotFound)
	}
	delete(g.index, id)
	g.nodes = slices.DeleteFunc(g.nodes, func(m *Node) bool { return m == n })
	for _, other := range g.nodes {
		other.RemoveChild(id)
		other.RemoveParent(id)
	}
	return nil
}

// Connect adds the edge parent -> child on both ends.
func (g *Graph) Connect(parent, child Relation) error {
	return g.link(parent, child, true)
}

// Disconnect removes the edge parent -> child from both ends.
func (g *Graph) Disconnect(parent, child Relation) error {
	return g.link(parent, child, false)
}

func (g *Graph) link(parent, child Relation, connect bool) error {
	p, ok := g.index[parent]
	if !ok {
		return fmt.Errorf("parent %s: %w", parent, ErrNotFound)
	}
	c, ok := g.index[child]
	if !ok {
		return fmt.Errorf("child %s: %w", child, ErrNotFound)
	}
	if parent == child {
		return fmt.Errorf("%w: node %s cannot relate to itself", ErrInvalidName, parent)
	}
	if connect {
		p.AddChild(child)
		c.AddParent(parent)
	} else {
		p.RemoveChild(child)
		c.RemoveParent(parent)
	}
	return nil
}

// RenameNode gives the node a new base name, keeping its suffix, and
// rewrites every relation that referenced the old identity.
func (g *Graph) RenameNode(id Relation, newName string) (Relation, error) {
	n, ok := g.index[id]
	if !ok {
		return Relation{}, fmt.Errorf("renaming node %s: %w", id, ErrNotFound)
	}
	if newName == "" {
		return Relation{}, fmt.Errorf("%w: empty node name", ErrInvalidName)
	}
	next := Relation{Name: newName, Suffix: id.Suffix}
	if next == id {
		return id, nil
	}
	if _, taken := g.index[next]; taken {
		return Relation{}, &DuplicateNameError{Kind: "node", Name: next.String()}
	}
	delete(g.index, id)
	n.Name = newName
	g.index[next] = n
	for _, m := range g.nodes {
		replaceRelation(m.Parents, id, next)
		replaceRelation(m.Children, id, next)
	}
	return next, nil
}

func replaceRelation(list []Relation, from, to Relation) {
	for i := range list {
		if list[i] == from {
			list[i] = to
		}
	}
}

// Node returns the node with identity id.
func (g *Graph) Node(id Relation) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// Nodes returns the nodes in insertion order. The slice is a copy; the
// nodes are not.
func (g *Graph) Nodes() []*Node {
	return slices.Clone(g.nodes)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Duplicates returns every node named baseName, whatever its suffix.
func (g *Graph) Duplicates(baseName string) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Name == baseName {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks identity uniqueness and that every relation resolves. It
// re-derives identities from the nodes, so edits made directly on a node
// are caught too. All problems are returned joined, in node order.
func (g *Graph) Validate() error {
	var errs []error
	ids := make(map[Relation]bool, len(g.nodes))
	for _, n := range g.nodes {
		if ids[n.ID()] {
			errs = append(errs, &DuplicateNameError{Kind: "node", Name: n.ID().String()})
		}
		ids[n.ID()] = true
	}
	for _, n := range g.nodes {
		for _, p := range n.Parents {
			if !ids[p] {
				errs = append(errs, &DanglingRelationError{Node: n.ID(), Ref: p, Direction: DirectionParent})
			}
		}
		for _, c := range n.Children {
			if !ids[c] {
				errs = append(errs, &DanglingRelationError{Node: n.ID(), Ref: c, Direction: DirectionChild})
			}
		}
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		Name:        g.Name,
		Description: g.Description,
		nodes:       make([]*Node, 0, len(g.nodes)),
		index:       make(map[Relation]*Node, len(g.nodes)),
	}
	for _, n := range g.nodes {
		cn := n.Clone()
		c.nodes = append(c.nodes, cn)
		c.index[cn.ID()] = cn
	}
	return c
}

// Equal reports whether both graphs have the same name, description and
// equal nodes in the same order.
func (g *Graph) Equal(o *Graph) bool {
	if g == nil || o == nil {
		return g == o
	}
	return g.Name == o.Name && g.Description == o.Description &&
		slices.EqualFunc(g.nodes, o.nodes, (*Node).Equal)
}
