// Package materialize turns an edited graph into action packages on disk:
// it normalizes node names, writes the graph descriptor and generates one
// package per action the catalog does not already provide.
package materialize

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temoto-labs/taassist/internal/generator"
	"github.com/temoto-labs/taassist/internal/logging"
	"github.com/temoto-labs/taassist/internal/umrf"
)

// ErrEmptyGraph is returned for a graph without nodes.
var ErrEmptyGraph = errors.New("graph has no actions")

// Catalog reports whether an action package already exists.
type Catalog interface {
	Has(name string) bool
}

// Options controls where output goes.
type Options struct {
	ActionsPath string  // root of generated packages
	GraphsPath  string  // graph descriptor directory; empty skips the graph file
	Catalog     Catalog // nil generates every node
	Logger      *zap.Logger
}

// Report counts what happened to each node.
type Report struct {
	Generated int
	Skipped   int
	Failed    int
	GraphFile string
	Packages  []*generator.Result
}

// Run normalizes a copy of gr and generates its packages. The input graph
// is not modified. The first failing package stops the run; the report
// reflects the work done so far.
func Run(gr *umrf.Graph, gen *generator.Generator, opts Options) (*Report, error) {
	log := logging.OrNop(opts.Logger)
	rep := &Report{}

	normalized, err := Normalize(gr)
	if err != nil {
		return rep, err
	}
	if err := normalized.Validate(); err != nil {
		return rep, fmt.Errorf("graph %s: %w", normalized.Name, err)
	}

	if opts.GraphsPath != "" {
		path, err := gen.GenerateGraph(normalized, opts.GraphsPath)
		if err != nil {
			return rep, err
		}
		rep.GraphFile = path
	}

	seen := make(map[string]bool)
	for _, n := range normalized.Nodes() {
		pkg := n.PackageName
		if seen[pkg] || (opts.Catalog != nil && opts.Catalog.Has(pkg)) {
			log.Info("action already exists, skipping", zap.String("package", pkg))
			rep.Skipped++
			continue
		}
		seen[pkg] = true

		res, err := gen.GeneratePackage(packageNode(n), opts.ActionsPath)
		if err != nil {
			rep.Failed++
			log.Error("generating package failed", zap.String("package", pkg), zap.Error(err))
			return rep, fmt.Errorf("generating %s: %w", pkg, err)
		}
		rep.Generated++
		rep.Packages = append(rep.Packages, res)
	}
	log.Info("materialized graph",
		zap.String("graph", normalized.Name),
		zap.Int("generated", rep.Generated),
		zap.Int("skipped", rep.Skipped))
	return rep, nil
}

// Normalize returns a copy of gr where every node carries a valid package
// name and the class name derived from it. A node keeps a package name that
// is already valid; otherwise one is derived from its name. Relations are
// rewritten to the renamed nodes, so Normalize(Normalize(g)) equals
// Normalize(g). Nodes whose new identities collide yield
// *umrf.DuplicateNameError.
func Normalize(gr *umrf.Graph) (*umrf.Graph, error) {
	if gr.Len() == 0 {
		return nil, fmt.Errorf("graph %q: %w", gr.Name, ErrEmptyGraph)
	}

	nodes := make([]*umrf.Node, 0, gr.Len())
	renamed := make(map[umrf.Relation]umrf.Relation, gr.Len())
	taken := make(map[umrf.Relation]bool, gr.Len())
	for _, orig := range gr.Nodes() {
		if orig.Name == "" {
			return nil, fmt.Errorf("%w: graph %q has a node without a name", umrf.ErrInvalidName, gr.Name)
		}
		n := orig.Clone()
		if umrf.ValidatePackageName(n.PackageName) != nil {
			n.PackageName = umrf.DerivePackageName(n.Name)
		}
		n.Name = umrf.DeriveClassName(n.PackageName)

		if taken[n.ID()] {
			return nil, &umrf.DuplicateNameError{Kind: "node", Name: n.ID().String()}
		}
		taken[n.ID()] = true
		renamed[orig.ID()] = n.ID()
		nodes = append(nodes, n)
	}
	for _, n := range nodes {
		renameRelations(n.Parents, renamed)
		renameRelations(n.Children, renamed)
	}

	out, err := umrf.NewGraph(gr.Name, nodes...)
	if err != nil {
		return nil, err
	}
	out.Description = gr.Description
	return out, nil
}

// renameRelations rewrites references to renamed nodes. References to
// nodes outside the graph are left for Validate to report.
func renameRelations(rs []umrf.Relation, renamed map[umrf.Relation]umrf.Relation) {
	for i, r := range rs {
		if to, ok := renamed[r]; ok {
			rs[i] = to
		}
	}
}

// packageNode is the standalone form of a graph node: no relations and no
// parameter examples.
func packageNode(n *umrf.Node) *umrf.Node {
	c := n.Clone()
	c.ClearRelations()
	for _, ps := range []*umrf.Parameters{c.Inputs, c.Outputs} {
		for _, p := range ps.Slice() {
			p.Example = ""
			// Replacing an existing name in place cannot fail.
			_ = ps.Set(p, true)
		}
	}
	return c
}
