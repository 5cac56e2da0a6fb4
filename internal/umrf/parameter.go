package umrf

import (
	"fmt"
	"reflect"
	"strings"
)

// NamespaceSeparator delimits the group path inside a parameter name.
const NamespaceSeparator = "::"

// Reserved leaf keys of the descriptor format. They cannot be used as name
// segments because the codec uses them to tell leaves from groups.
const (
	KeyType    = "pvf_type"
	KeyExample = "pvf_example"
	KeyValue   = "pvf_value"
)

// Declared parameter types the generator knows how to fill with placeholders.
const (
	TypeString = "string"
	TypeNumber = "number"
	TypeBool   = "bool"
)

// Parameter is one typed, possibly namespaced parameter of an action.
type Parameter struct {
	Name    string // full name, e.g. "sensors::camera::exposure"
	Type    string // open vocabulary, e.g. "number", "string", "pose"
	Example string // display hint, optional
	Value   any    // placeholder payload, optional
}

// SplitName splits a parameter name into its "::" segments.
func SplitName(name string) []string {
	return strings.Split(name, NamespaceSeparator)
}

// JoinName joins segments into a parameter name.
func JoinName(segments ...string) string {
	return strings.Join(segments, NamespaceSeparator)
}

// ValidateName checks that every segment of name is non-empty, contains no
// ':' and is not a reserved leaf key.
func ValidateName(name string) error {
	for _, seg := range SplitName(name) {
		switch {
		case seg == "":
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidName, name)
		case strings.Contains(seg, ":"):
			return fmt.Errorf("%w: %q has a stray ':' in segment %q", ErrInvalidName, name, seg)
		case seg == KeyType || seg == KeyExample || seg == KeyValue:
			return fmt.Errorf("%w: %q uses reserved key %q", ErrInvalidName, name, seg)
		}
	}
	return nil
}

// Segments returns the "::" segments of the parameter name.
func (p Parameter) Segments() []string { return SplitName(p.Name) }

// NameNoNamespace returns the leaf identifier (last segment).
func (p Parameter) NameNoNamespace() string {
	if i := strings.LastIndex(p.Name, NamespaceSeparator); i >= 0 {
		return p.Name[i+len(NamespaceSeparator):]
	}
	return p.Name
}

// Namespace returns the group path enclosing the leaf, or "" for a top-level
// parameter.
func (p Parameter) Namespace() string {
	if i := strings.LastIndex(p.Name, NamespaceSeparator); i >= 0 {
		return p.Name[:i]
	}
	return ""
}

// NameKeepNamespace returns a copy renamed to newLeaf inside the same group.
func (p Parameter) NameKeepNamespace(newLeaf string) Parameter {
	if ns := p.Namespace(); ns != "" {
		p.Name = ns + NamespaceSeparator + newLeaf
	} else {
		p.Name = newLeaf
	}
	return p
}

// InGroup reports whether the parameter lives inside group (at any depth).
// Matching is by whole path segments: "sensor" does not contain
// "sensors::x".
func (p Parameter) InGroup(group string) bool {
	return hasSegmentPrefix(p.Name, group) && len(p.Name) > len(group)
}

// Equal reports whether two parameters carry the same name, type, example
// and value.
func (p Parameter) Equal(o Parameter) bool {
	return p.Name == o.Name && p.Type == o.Type && p.Example == o.Example &&
		reflect.DeepEqual(p.Value, o.Value)
}

// hasSegmentPrefix reports whether prefix is name itself or a leading run of
// whole segments of name.
func hasSegmentPrefix(name, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(name, prefix) {
		return false
	}
	rest := name[len(prefix):]
	return rest == "" || strings.HasPrefix(rest, NamespaceSeparator)
}
