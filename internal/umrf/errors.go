package umrf

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName is returned for malformed parameter or node names.
	ErrInvalidName = errors.New("invalid name")

	// ErrNoNamespace is returned when ungrouping a parameter without a group.
	ErrNoNamespace = errors.New("parameter has no namespace level")

	// ErrNotFound is returned when a parameter, group or node does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnknownEffect is returned for effects outside the closed vocabulary.
	ErrUnknownEffect = errors.New("unknown effect")
)

// DuplicateNameError reports an identity collision: two parameters with the
// same name, a parameter clashing with a group, or two nodes sharing a
// (name, suffix) pair.
type DuplicateNameError struct {
	Kind string // "parameter", "parameter group" or "node"
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate %s name %q", e.Kind, e.Name)
}

// Relation directions used in DanglingRelationError.
const (
	DirectionParent = "parent"
	DirectionChild  = "child"
)

// DanglingRelationError reports a relation that does not resolve to a node
// in the same graph.
type DanglingRelationError struct {
	Node      Relation // node holding the relation
	Ref       Relation // unresolved reference
	Direction string   // DirectionParent or DirectionChild
}

func (e *DanglingRelationError) Error() string {
	return fmt.Sprintf("node %s references unknown %s %s", e.Node, e.Direction, e.Ref)
}
