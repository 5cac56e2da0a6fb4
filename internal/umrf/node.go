package umrf

import (
	"fmt"
	"slices"
	"strconv"
)

// Effects an action may declare.
const (
	EffectSynchronous  = "synchronous"
	EffectAsynchronous = "asynchronous"
)

// ValidEffects lists the closed effect vocabulary in display order.
var ValidEffects = []string{EffectSynchronous, EffectAsynchronous}

// ValidateEffect reports ErrUnknownEffect for anything outside ValidEffects.
func ValidateEffect(effect string) error {
	if !slices.Contains(ValidEffects, effect) {
		return fmt.Errorf("%w: %q (valid: %v)", ErrUnknownEffect, effect, ValidEffects)
	}
	return nil
}

// Relation references another node of the same graph by identity. It is
// also the key a Graph stores nodes under.
type Relation struct {
	Name   string
	Suffix int
}

// String renders the relation as "name:suffix".
func (r Relation) String() string {
	return r.Name + ":" + strconv.Itoa(r.Suffix)
}

// Node is one action descriptor.
type Node struct {
	Name        string
	PackageName string
	Suffix      int
	Effect      string
	Description string
	Inputs      *Parameters
	Outputs     *Parameters
	Parents     []Relation
	Children    []Relation
}

// NewNode returns a synchronous node with empty parameter sets.
func NewNode(name string) *Node {
	return &Node{
		Name:    name,
		Effect:  EffectSynchronous,
		Inputs:  NewParameters(),
		Outputs: NewParameters(),
	}
}

// ID returns the node identity.
func (n *Node) ID() Relation {
	return Relation{Name: n.Name, Suffix: n.Suffix}
}

// ResolvedPackageName returns PackageName, deriving it from Name when unset.
func (n *Node) ResolvedPackageName() string {
	if n.PackageName != "" {
		return n.PackageName
	}
	return DerivePackageName(n.Name)
}

// AddChild appends r unless it is already a child. It reports whether the
// list changed.
func (n *Node) AddChild(r Relation) bool {
	return addRelation(&n.Children, r)
}

// AddParent appends r unless it is already a parent.
func (n *Node) AddParent(r Relation) bool {
	return addRelation(&n.Parents, r)
}

// RemoveChild removes the child with the exact identity r.
func (n *Node) RemoveChild(r Relation) bool {
	return removeRelations(&n.Children, func(c Relation) bool { return c == r }) > 0
}

// RemoveParent removes the parent with the exact identity r.
func (n *Node) RemoveParent(r Relation) bool {
	return removeRelations(&n.Parents, func(p Relation) bool { return p == r }) > 0
}

// RemoveChildrenNamed removes every child called name, whatever its suffix.
func (n *Node) RemoveChildrenNamed(name string) int {
	return removeRelations(&n.Children, func(c Relation) bool { return c.Name == name })
}

// RemoveParentsNamed removes every parent called name, whatever its suffix.
func (n *Node) RemoveParentsNamed(name string) int {
	return removeRelations(&n.Parents, func(p Relation) bool { return p.Name == name })
}

// ClearRelations drops all parents and children.
func (n *Node) ClearRelations() {
	n.Parents = nil
	n.Children = nil
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	c := *n
	c.Inputs = n.Inputs.Clone()
	c.Outputs = n.Outputs.Clone()
	c.Parents = slices.Clone(n.Parents)
	c.Children = slices.Clone(n.Children)
	return &c
}

// Equal reports structural equality. Nil and empty relation lists are equal.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.Name == o.Name &&
		n.PackageName == o.PackageName &&
		n.Suffix == o.Suffix &&
		n.Effect == o.Effect &&
		n.Description == o.Description &&
		n.Inputs.Equal(o.Inputs) &&
		n.Outputs.Equal(o.Outputs) &&
		slices.Equal(n.Parents, o.Parents) &&
		slices.Equal(n.Children, o.Children)
}

func addRelation(list *[]Relation, r Relation) bool {
	if slices.Contains(*list, r) {
		return false
	}
	*list = append(*list, r)
	return true
}

func removeRelations(list *[]Relation, match func(Relation) bool) int {
	before := len(*list)
	*list = slices.DeleteFunc(*list, match)
	return before - len(*list)
}
