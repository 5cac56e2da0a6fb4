package umrf

// Direction tells input parameters from output parameters.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Element is one entry of a node outline. The concrete types are
// NameElement, EffectElement, GroupElement and ParameterElement.
type Element interface {
	element()
}

// NameElement carries the node name.
type NameElement struct {
	Name string
}

// EffectElement carries the node effect.
type EffectElement struct {
	Effect string
}

// GroupElement is a parameter group at Depth (0 for the outermost level).
type GroupElement struct {
	Direction Direction
	Path      string
	Depth     int
}

// ParameterElement is a parameter leaf. Depth equals the number of groups
// enclosing it.
type ParameterElement struct {
	Direction Direction
	Depth     int
	Parameter Parameter
}

func (NameElement) element()      {}
func (EffectElement) element()    {}
func (GroupElement) element()     {}
func (ParameterElement) element() {}

// Outline flattens n into the tree an editor displays: name, effect, then the
// inputs and outputs with each group emitted once, right before the first
// parameter inside it.
func Outline(n *Node) []Element {
	out := []Element{NameElement{Name: n.Name}, EffectElement{Effect: n.Effect}}
	out = appendParameters(out, Input, n.Inputs)
	return appendParameters(out, Output, n.Outputs)
}

func appendParameters(out []Element, dir Direction, ps *Parameters) []Element {
	seen := make(map[string]bool)
	for p := range ps.All() {
		segs := p.Segments()
		for i := 1; i < len(segs); i++ {
			path := JoinName(segs[:i]...)
			if seen[path] {
				continue
			}
			seen[path] = true
			out = append(out, GroupElement{Direction: dir, Path: path, Depth: i - 1})
		}
		out = append(out, ParameterElement{Direction: dir, Depth: len(segs) - 1, Parameter: p})
	}
	return out
}
