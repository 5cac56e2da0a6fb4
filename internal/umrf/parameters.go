package umrf

import (
	"fmt"
	"iter"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Parameters is an insertion-ordered set of parameters keyed by full name.
// Iteration order decides the order of generated code, so every operation
// that renames parameters keeps their positions.
//
// Read methods are safe on a nil *Parameters.
type Parameters struct {
	m *orderedmap.OrderedMap[string, Parameter]
}

// NewParameters returns an empty set, optionally seeded with params in order.
// Seeding uses overwrite semantics.
func NewParameters(params ...Parameter) *Parameters {
	ps := &Parameters{m: orderedmap.New[string, Parameter]()}
	for _, p := range params {
		ps.m.Set(p.Name, p)
	}
	return ps
}

func (ps *Parameters) init() {
	if ps.m == nil {
		ps.m = orderedmap.New[string, Parameter]()
	}
}

// Len returns the number of parameters.
func (ps *Parameters) Len() int {
	if ps == nil || ps.m == nil {
		return 0
	}
	return ps.m.Len()
}

// Get returns the parameter with the exact full name.
func (ps *Parameters) Get(name string) (Parameter, bool) {
	if ps == nil || ps.m == nil {
		return Parameter{}, false
	}
	return ps.m.Get(name)
}

// Has reports whether a parameter with the exact full name exists.
func (ps *Parameters) Has(name string) bool {
	_, ok := ps.Get(name)
	return ok
}

// All iterates parameters in insertion order.
func (ps *Parameters) All() iter.Seq[Parameter] {
	return func(yield func(Parameter) bool) {
		if ps == nil || ps.m == nil {
			return
		}
		for pair := ps.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Value) {
				return
			}
		}
	}
}

// Slice returns the parameters in insertion order.
func (ps *Parameters) Slice() []Parameter {
	out := make([]Parameter, 0, ps.Len())
	for p := range ps.All() {
		out = append(out, p)
	}
	return out
}

// Names returns every full name in insertion order.
func (ps *Parameters) Names() []string {
	out := make([]string, 0, ps.Len())
	for p := range ps.All() {
		out = append(out, p.Name)
	}
	return out
}

// Set inserts p, or replaces the parameter with the same name in place when
// overwrite is true. Without overwrite an existing name is rejected with a
// *DuplicateNameError.
func (ps *Parameters) Set(p Parameter, overwrite bool) error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	ps.init()
	if _, exists := ps.m.Get(p.Name); exists {
		if !overwrite {
			return &DuplicateNameError{Kind: "parameter", Name: p.Name}
		}
		ps.m.Set(p.Name, p)
		return nil
	}
	if err := ps.checkNamespace(p.Name, ""); err != nil {
		return err
	}
	ps.m.Set(p.Name, p)
	return nil
}

// Remove deletes the parameter with the exact full name.
func (ps *Parameters) Remove(name string) bool {
	if ps == nil || ps.m == nil {
		return false
	}
	_, ok := ps.m.Delete(name)
	return ok
}

// RemoveGroup deletes every parameter inside group and returns how many were
// removed. The group must match whole leading segments.
func (ps *Parameters) RemoveGroup(group string) int {
	var doomed []string
	for p := range ps.All() {
		if p.InGroup(group) {
			doomed = append(doomed, p.Name)
		}
	}
	for _, name := range doomed {
		ps.m.Delete(name)
	}
	return len(doomed)
}

// Clear removes every parameter.
func (ps *Parameters) Clear() {
	ps.m = orderedmap.New[string, Parameter]()
}

// Groups returns every distinct group path in first-appearance order,
// outermost first (e.g. "a", "a::b" for "a::b::c").
func (ps *Parameters) Groups() []string {
	seen := make(map[string]bool)
	var out []string
	for p := range ps.All() {
		segs := p.Segments()
		for i := 1; i < len(segs); i++ {
			g := JoinName(segs[:i]...)
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	return out
}

// InterleavedGroups returns the groups whose parameters are not stored next
// to each other. The encoded form keeps every group together, so these
// groups come back from a round trip in a different order.
func (ps *Parameters) InterleavedGroups() []string {
	var out []string
	for _, g := range ps.Groups() {
		first, last, count := -1, -1, 0
		i := 0
		for p := range ps.All() {
			if p.InGroup(g) {
				if first < 0 {
					first = i
				}
				last = i
				count++
			}
			i++
		}
		if last-first+1 != count {
			out = append(out, g)
		}
	}
	return out
}

// Subgroup moves name one level deeper: "x::y" becomes "token::x::y".
func (ps *Parameters) Subgroup(name, token string) error {
	if !ps.Has(name) {
		return fmt.Errorf("subgrouping %q: %w", name, ErrNotFound)
	}
	return ps.rekey(func(p Parameter) string {
		if p.Name == name {
			return token + NamespaceSeparator + p.Name
		}
		return p.Name
	})
}

// Ungroup removes the outermost namespace level of name: "a::b::c" becomes
// "b::c". A top-level parameter yields ErrNoNamespace.
func (ps *Parameters) Ungroup(name string) error {
	p, ok := ps.Get(name)
	if !ok {
		return fmt.Errorf("ungrouping %q: %w", name, ErrNotFound)
	}
	if p.Namespace() == "" {
		return fmt.Errorf("ungrouping %q: %w", name, ErrNoNamespace)
	}
	return ps.rekey(func(p Parameter) string {
		if p.Name == name {
			return strings.SplitN(p.Name, NamespaceSeparator, 2)[1]
		}
		return p.Name
	})
}

// RenameGroup replaces the last token of group with newLeaf for every
// parameter inside group: RenameGroup("a::b", "z") turns "a::b::c" into
// "a::z::c". It returns how many parameters were renamed.
func (ps *Parameters) RenameGroup(group, newLeaf string) (int, error) {
	segs := SplitName(group)
	segs[len(segs)-1] = newLeaf
	renamed := JoinName(segs...)

	count := 0
	for p := range ps.All() {
		if p.InGroup(group) {
			count++
		}
	}
	if count == 0 {
		return 0, fmt.Errorf("renaming group %q: %w", group, ErrNotFound)
	}
	err := ps.rekey(func(p Parameter) string {
		if p.InGroup(group) {
			return renamed + p.Name[len(group):]
		}
		return p.Name
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// rekey renames parameters in place, keeping their order. The new names are
// checked as a whole before anything changes.
func (ps *Parameters) rekey(newName func(Parameter) string) error {
	next := orderedmap.New[string, Parameter]()
	for p := range ps.All() {
		p.Name = newName(p)
		if err := ValidateName(p.Name); err != nil {
			return err
		}
		if _, dup := next.Get(p.Name); dup {
			return &DuplicateNameError{Kind: "parameter", Name: p.Name}
		}
		next.Set(p.Name, p)
	}
	candidate := &Parameters{m: next}
	for p := range candidate.All() {
		if err := candidate.checkNamespace(p.Name, p.Name); err != nil {
			return err
		}
	}
	ps.m = next
	return nil
}

// checkNamespace rejects name when it is the group path of a stored
// parameter or when one of its groups is a stored parameter. self is skipped.
func (ps *Parameters) checkNamespace(name, self string) error {
	for p := range ps.All() {
		if p.Name == self {
			continue
		}
		if p.InGroup(name) {
			return &DuplicateNameError{Kind: "parameter group", Name: name}
		}
		if (Parameter{Name: name}).InGroup(p.Name) {
			return &DuplicateNameError{Kind: "parameter group", Name: p.Name}
		}
	}
	return nil
}

// Clone returns an independent copy preserving order.
func (ps *Parameters) Clone() *Parameters {
	out := NewParameters()
	for p := range ps.All() {
		out.m.Set(p.Name, p)
	}
	return out
}

// Equal reports whether both sets hold the same parameters. Order is not
// compared: the encoded form keeps each group together, so a set whose
// groups are interleaved reads back in a different but equivalent order.
// A nil set equals an empty one.
func (ps *Parameters) Equal(o *Parameters) bool {
	if ps.Len() != o.Len() {
		return false
	}
	for p := range ps.All() {
		q, ok := o.Get(p.Name)
		if !ok || !p.Equal(q) {
			return false
		}
	}
	return true
}
