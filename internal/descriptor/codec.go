package descriptor

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/temoto-labs/taassist/internal/umrf"
)

type relationDoc struct {
	Name   string `json:"name"`
	Suffix int    `json:"suffix"`
}

type nodeDoc struct {
	Name        string        `json:"name"`
	PackageName string        `json:"package_name,omitempty"`
	Suffix      int           `json:"suffix"`
	Effect      string        `json:"effect,omitempty"`
	Description string        `json:"description,omitempty"`
	Inputs      *paramTree    `json:"input_parameters,omitempty"`
	Outputs     *paramTree    `json:"output_parameters,omitempty"`
	Parents     []relationDoc `json:"parents,omitempty"`
	Children    []relationDoc `json:"children,omitempty"`
}

type graphDoc struct {
	Name        string    `json:"graph_name"`
	Description string    `json:"graph_description,omitempty"`
	Actions     []nodeDoc `json:"umrf_actions"`
}

type leafDoc struct {
	Type    string `json:"pvf_type"`
	Example string `json:"pvf_example,omitempty"`
	Value   any    `json:"pvf_value,omitempty"`
}

// paramTree is the nested document form of a parameter set.
type paramTree struct {
	ps *umrf.Parameters
}

func newParamTree(ps *umrf.Parameters) *paramTree {
	if ps.Len() == 0 {
		return nil
	}
	return &paramTree{ps: ps}
}

func (t paramTree) MarshalJSON() ([]byte, error) {
	root := orderedmap.New[string, any]()
	for p := range t.ps.All() {
		segs := p.Segments()
		group := root
		for _, seg := range segs[:len(segs)-1] {
			v, ok := group.Get(seg)
			if !ok {
				sub := orderedmap.New[string, any]()
				group.Set(seg, sub)
				group = sub
				continue
			}
			sub, isGroup := v.(*orderedmap.OrderedMap[string, any])
			if !isGroup {
				return nil, fmt.Errorf("parameter %q: %q is both a parameter and a group", p.Name, seg)
			}
			group = sub
		}
		leaf := segs[len(segs)-1]
		if _, taken := group.Get(leaf); taken {
			return nil, fmt.Errorf("parameter %q: name is also a group", p.Name)
		}
		group.Set(leaf, leafDoc{Type: p.Type, Example: p.Example, Value: p.Value})
	}
	return json.Marshal(root)
}

func (t *paramTree) UnmarshalJSON(data []byte) error {
	t.ps = umrf.NewParameters()
	return flattenTree(data, "", t.ps)
}

// flattenTree adds the leaves of a parameter tree to ps in document order,
// naming each one by its path from the root.
func flattenTree(data []byte, prefix string, ps *umrf.Parameters) error {
	if !isObject(data) {
		return fmt.Errorf("parameter group %q: expected an object", prefix)
	}
	entries := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, entries); err != nil {
		return err
	}
	for pair := entries.Oldest(); pair != nil; pair = pair.Next() {
		name := prefix + pair.Key
		if !isObject(pair.Value) {
			return fmt.Errorf("parameter %q: expected an object", name)
		}
		fields := orderedmap.New[string, json.RawMessage]()
		if err := json.Unmarshal(pair.Value, fields); err != nil {
			return err
		}
		if _, isLeaf := fields.Get(umrf.KeyType); isLeaf {
			var leaf leafDoc
			if err := json.Unmarshal(pair.Value, &leaf); err != nil {
				return fmt.Errorf("parameter %q: %w", name, err)
			}
			p := umrf.Parameter{Name: name, Type: leaf.Type, Example: leaf.Example, Value: leaf.Value}
			if err := ps.Set(p, false); err != nil {
				return err
			}
			continue
		}
		if fields.Len() == 0 {
			return fmt.Errorf("parameter group %q is empty", name)
		}
		if err := flattenTree(pair.Value, name+umrf.NamespaceSeparator, ps); err != nil {
			return err
		}
	}
	return nil
}

func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

func toNodeDoc(n *umrf.Node) nodeDoc {
	return nodeDoc{
		Name:        n.Name,
		PackageName: n.PackageName,
		Suffix:      n.Suffix,
		Effect:      n.Effect,
		Description: n.Description,
		Inputs:      newParamTree(n.Inputs),
		Outputs:     newParamTree(n.Outputs),
		Parents:     toRelationDocs(n.Parents),
		Children:    toRelationDocs(n.Children),
	}
}

func toRelationDocs(rs []umrf.Relation) []relationDoc {
	if len(rs) == 0 {
		return nil
	}
	out := make([]relationDoc, len(rs))
	for i, r := range rs {
		out[i] = relationDoc{Name: r.Name, Suffix: r.Suffix}
	}
	return out
}

func (d nodeDoc) node() *umrf.Node {
	n := &umrf.Node{
		Name:        d.Name,
		PackageName: d.PackageName,
		Suffix:      d.Suffix,
		Effect:      d.Effect,
		Description: d.Description,
		Inputs:      umrf.NewParameters(),
		Outputs:     umrf.NewParameters(),
	}
	if d.Inputs != nil {
		n.Inputs = d.Inputs.ps
	}
	if d.Outputs != nil {
		n.Outputs = d.Outputs.ps
	}
	for _, r := range d.Parents {
		n.AddParent(umrf.Relation{Name: r.Name, Suffix: r.Suffix})
	}
	for _, r := range d.Children {
		n.AddChild(umrf.Relation{Name: r.Name, Suffix: r.Suffix})
	}
	return n
}

// EncodeNode renders a node descriptor. JSON output is indented with two
// spaces and ends with a newline.
func EncodeNode(n *umrf.Node, f Format) ([]byte, error) {
	return encode(toNodeDoc(n), f)
}

// DecodeNode parses a node descriptor. Any failure is a *ParseError.
func DecodeNode(data []byte, f Format) (*umrf.Node, error) {
	var doc nodeDoc
	if err := decode(data, f, &doc, false); err != nil {
		return nil, err
	}
	return doc.node(), nil
}

// EncodeGraph renders a graph descriptor.
func EncodeGraph(g *umrf.Graph, f Format) ([]byte, error) {
	doc := graphDoc{Name: g.Name, Description: g.Description, Actions: []nodeDoc{}}
	for _, n := range g.Nodes() {
		doc.Actions = append(doc.Actions, toNodeDoc(n))
	}
	return encode(doc, f)
}

// DecodeGraph parses a graph descriptor. Relations are not resolved here;
// call Validate on the result before generating from it.
func DecodeGraph(data []byte, f Format) (*umrf.Graph, error) {
	var doc graphDoc
	if err := decode(data, f, &doc, true); err != nil {
		return nil, err
	}
	nodes := make([]*umrf.Node, 0, len(doc.Actions))
	for _, nd := range doc.Actions {
		nodes = append(nodes, nd.node())
	}
	g, err := umrf.NewGraph(doc.Name, nodes...)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	g.Description = doc.Description
	return g, nil
}

// EncodeParameters renders a bare parameter tree, the format of a parameter
// library entry.
func EncodeParameters(ps *umrf.Parameters, f Format) ([]byte, error) {
	return encode(paramTree{ps: ps}, f)
}

// DecodeParameters parses a bare parameter tree.
func DecodeParameters(data []byte, f Format) (*umrf.Parameters, error) {
	js, err := toJSON(data, f)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	var t paramTree
	if err := json.Unmarshal(js, &t); err != nil {
		return nil, &ParseError{Err: err}
	}
	return t.ps, nil
}

// IsGraph reports whether the document is a graph rather than a node.
func IsGraph(data []byte, f Format) (bool, error) {
	js, err := toJSON(data, f)
	if err != nil {
		return false, &ParseError{Err: err}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(js, &fields); err != nil {
		return false, &ParseError{Err: err}
	}
	_, ok := fields["umrf_actions"]
	return ok, nil
}

func encode(v any, f Format) ([]byte, error) {
	js, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding descriptor: %w", err)
	}
	if f == YAML {
		return fromJSON(js)
	}
	return append(js, '\n'), nil
}

func decode(data []byte, f Format, v any, wantGraph bool) error {
	js, err := toJSON(data, f)
	if err != nil {
		return &ParseError{Err: err}
	}
	res, err := validateJSON(js)
	if err != nil {
		return &ParseError{Err: err}
	}
	if !res.Valid {
		return &ParseError{Issues: res.Issues}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(js, &fields); err != nil {
		return &ParseError{Err: err}
	}
	if _, isGraph := fields["umrf_actions"]; isGraph != wantGraph {
		kind := "node"
		if isGraph {
			kind = "graph"
		}
		return &ParseError{Err: fmt.Errorf("unexpected %s descriptor", kind)}
	}

	if err := json.Unmarshal(js, v); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}
