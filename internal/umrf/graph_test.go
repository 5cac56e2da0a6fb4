package umrf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(name string, suffix int) *Node {
	n := NewNode(name)
	n.Suffix = suffix
	return n
}

func ids(g *Graph) []Relation {
	var out []Relation
	for _, n := range g.Nodes() {
		out = append(out, n.ID())
	}
	return out
}

func TestNewGraphAssignsSuffixes(t *testing.T) {
	g, err := NewGraph("g", node("A", 0), node("B", 0), node("A", 0), node("A", 0))
	require.NoError(t, err)
	assert.Equal(t, []Relation{{"A", 0}, {"B", 0}, {"A", 1}, {"A", 2}}, ids(g))
}

func TestNewGraphKeepsExplicitSuffixes(t *testing.T) {
	g, err := NewGraph("g", node("A", 2), node("A", 0), node("A", 0))
	require.NoError(t, err)
	assert.Equal(t, []Relation{{"A", 2}, {"A", 0}, {"A", 1}}, ids(g))
}

func TestNewGraphRejectsCollision(t *testing.T) {
	_, err := NewGraph("g", node("A", 1), node("A", 1))
	var dup *DuplicateNameError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "node", dup.Kind)
	assert.Equal(t, "A:1", dup.Name)

	_, err = NewGraph("g", node("", 0))
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestIdentityIsUnique(t *testing.T) {
	g, err := NewGraph("g", node("A", 0), node("A", 3), node("A", 0), node("B", 0))
	require.NoError(t, err)
	_, err = g.AddNode(node("A", 0))
	require.NoError(t, err)
	_, err = g.AddNode(node("A", 3))
	require.Error(t, err)

	seen := make(map[Relation]bool)
	for _, n := range g.Nodes() {
		assert.False(t, seen[n.ID()], "identity %s repeated", n.ID())
		seen[n.ID()] = true
	}
	assert.Len(t, g.Duplicates("A"), 4)
	assert.Len(t, g.Duplicates("B"), 1)
	assert.Empty(t, g.Duplicates("C"))
}

func TestConnectIsSymmetric(t *testing.T) {
	g, err := NewGraph("g", node("A", 0), node("B", 0))
	require.NoError(t, err)
	a, b := Relation{"A", 0}, Relation{"B", 0}

	require.NoError(t, g.Connect(a, b))
	require.NoError(t, g.Connect(a, b))
	na, _ := g.Node(a)
	nb, _ := g.Node(b)
	assert.Equal(t, []Relation{b}, na.Children)
	assert.Equal(t, []Relation{a}, nb.Parents)
	assert.NoError(t, g.Validate())

	require.NoError(t, g.Disconnect(a, b))
	assert.Empty(t, na.Children)
	assert.Empty(t, nb.Parents)

	assert.ErrorIs(t, g.Connect(a, Relation{"C", 0}), ErrNotFound)
	assert.Error(t, g.Connect(a, a))
}

func TestRemoveNodeCascades(t *testing.T) {
	g, err := NewGraph("g", node("A", 0), node("B", 0), node("C", 0))
	require.NoError(t, err)
	a, b, c := Relation{"A", 0}, Relation{"B", 0}, Relation{"C", 0}
	require.NoError(t, g.Connect(a, b))
	require.NoError(t, g.Connect(b, c))

	require.NoError(t, g.RemoveNode(b))
	assert.Equal(t, 2, g.Len())
	na, _ := g.Node(a)
	nc, _ := g.Node(c)
	assert.Empty(t, na.Children)
	assert.Empty(t, nc.Parents)
	assert.NoError(t, g.Validate())

	assert.ErrorIs(t, g.RemoveNode(b), ErrNotFound)
}

func TestRenameNodeRewritesRelations(t *testing.T) {
	g, err := NewGraph("g", node("A", 0), node("B", 0))
	require.NoError(t, err)
	a, b := Relation{"A", 0}, Relation{"B", 0}
	require.NoError(t, g.Connect(a, b))

	z, err := g.RenameNode(a, "Z")
	require.NoError(t, err)
	assert.Equal(t, Relation{"Z", 0}, z)
	nb, _ := g.Node(b)
	assert.Equal(t, []Relation{z}, nb.Parents)
	_, ok := g.Node(a)
	assert.False(t, ok)
	assert.NoError(t, g.Validate())

	_, err = g.RenameNode(z, "B")
	var dup *DuplicateNameError
	assert.True(t, errors.As(err, &dup))
}

func TestValidateReportsDanglingRelations(t *testing.T) {
	a := node("A", 0)
	a.AddChild(Relation{"Ghost", 0})
	a.AddParent(Relation{"B", 7})
	g, err := NewGraph("g", a, node("B", 0))
	require.NoError(t, err)

	err = g.Validate()
	require.Error(t, err)
	var dangling *DanglingRelationError
	require.True(t, errors.As(err, &dangling))
	assert.Equal(t, Relation{"A", 0}, dangling.Node)
	assert.Equal(t, Relation{"B", 7}, dangling.Ref)
	assert.Equal(t, DirectionParent, dangling.Direction)
	assert.Contains(t, err.Error(), "Ghost:0")
}

func TestValidateCatchesIdentityEditedInPlace(t *testing.T) {
	g, err := NewGraph("g", node("A", 0), node("A", 0))
	require.NoError(t, err)
	g.Nodes()[1].Suffix = 0

	var dup *DuplicateNameError
	assert.True(t, errors.As(g.Validate(), &dup))
}

func TestNodeRelations(t *testing.T) {
	n := NewNode("A")
	assert.True(t, n.AddChild(Relation{"B", 0}))
	assert.False(t, n.AddChild(Relation{"B", 0}))
	n.AddChild(Relation{"B", 1})
	n.AddChild(Relation{"C", 0})
	n.AddParent(Relation{"P", 0})

	assert.True(t, n.RemoveChild(Relation{"C", 0}))
	assert.False(t, n.RemoveChild(Relation{"C", 0}))
	assert.Equal(t, 2, n.RemoveChildrenNamed("B"))
	assert.Empty(t, n.Children)
	assert.Equal(t, 1, n.RemoveParentsNamed("P"))

	n.AddParent(Relation{"P", 0})
	n.ClearRelations()
	assert.Empty(t, n.Parents)
}

func TestGraphClone(t *testing.T) {
	g, err := NewGraph("g", node("A", 0), node("B", 0))
	require.NoError(t, err)
	require.NoError(t, g.Connect(Relation{"A", 0}, Relation{"B", 0}))

	c := g.Clone()
	assert.True(t, g.Equal(c))

	cn, _ := c.Node(Relation{"A", 0})
	cn.Description = "changed"
	require.NoError(t, cn.Inputs.Set(Parameter{Name: "x", Type: TypeBool}, false))
	gn, _ := g.Node(Relation{"A", 0})
	assert.Empty(t, gn.Description)
	assert.Equal(t, 0, gn.Inputs.Len())
	assert.False(t, g.Equal(c))
}

func TestValidateEffect(t *testing.T) {
	assert.NoError(t, ValidateEffect(EffectSynchronous))
	assert.NoError(t, ValidateEffect(EffectAsynchronous))
	assert.ErrorIs(t, ValidateEffect("eventual"), ErrUnknownEffect)
}
