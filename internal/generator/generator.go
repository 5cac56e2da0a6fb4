package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temoto-labs/taassist/internal/descriptor"
	"github.com/temoto-labs/taassist/internal/logging"
	"github.com/temoto-labs/taassist/internal/umrf"
)

// InvokerStringPlaceholder is the value string inputs get in the invoker
// graph.
const InvokerStringPlaceholder = "MODIFY THIS FIELD"

// Identifier prefixes of generated parameter members.
const (
	InputPrefix  = "in_param_"
	OutputPrefix = "out_param_"
)

// Generator writes action packages and graph descriptors.
type Generator struct {
	templates *Templates
	aliases   TypeAliases
	log       *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithTypeAliases layers custom entries over DefaultTypeAliases.
func WithTypeAliases(custom map[string]string) Option {
	return func(g *Generator) { g.aliases = NewTypeAliases(custom) }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.log = logging.OrNop(l) }
}

// New returns a generator expanding t.
func New(t *Templates, opts ...Option) *Generator {
	g := &Generator{
		templates: t,
		aliases:   NewTypeAliases(nil),
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Result holds the outcome of a package generation.
type Result struct {
	Dir      string
	Files    []string // relative to Dir, in write order
	Warnings []UnknownTypeWarning
}

type outFile struct {
	rel  string
	data []byte
}

// GeneratePackage writes the package for n under root/<package_name>.
// Every file is rendered before the first one is written, so invalid input
// or a template error leaves the disk untouched. A write failure returns a
// *FilesystemError and keeps what was already written. Existing files are
// overwritten.
func (g *Generator) GeneratePackage(n *umrf.Node, root string) (*Result, error) {
	if n.Name == "" {
		return nil, fmt.Errorf("%w: node has no name", umrf.ErrInvalidName)
	}
	if err := umrf.ValidateEffect(n.Effect); err != nil {
		return nil, fmt.Errorf("node %s: %w", n.Name, err)
	}
	pkg := n.ResolvedPackageName()
	if err := umrf.ValidatePackageName(pkg); err != nil {
		return nil, fmt.Errorf("node %s: %w", n.Name, err)
	}

	if err := checkIdentifiers(n); err != nil {
		return nil, fmt.Errorf("node %s: %w", n.Name, err)
	}
	for _, set := range []struct {
		dir umrf.Direction
		ps  *umrf.Parameters
	}{{umrf.Input, n.Inputs}, {umrf.Output, n.Outputs}} {
		if groups := set.ps.InterleavedGroups(); len(groups) > 0 {
			g.log.Debug("interleaved parameter groups are kept together in umrf.json",
				zap.String("package", pkg),
				zap.Stringer("direction", set.dir),
				zap.Strings("groups", groups))
		}
	}

	files, warnings, err := g.render(n, pkg)
	if err != nil {
		return nil, fmt.Errorf("rendering package %s: %w", pkg, err)
	}

	res := &Result{Dir: filepath.Join(root, pkg), Warnings: warnings}
	for _, w := range warnings {
		g.log.Warn("unknown parameter type",
			zap.String("package", pkg),
			zap.String("parameter", w.Parameter),
			zap.String("type", w.Type))
	}

	for _, sub := range []string{"src", "launch", "test", filepath.Join("include", pkg)} {
		dir := filepath.Join(res.Dir, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return res, &FilesystemError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	for _, f := range files {
		path := filepath.Join(res.Dir, f.rel)
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return res, &FilesystemError{Op: "write", Path: path, Err: err}
		}
		res.Files = append(res.Files, f.rel)
		g.log.Debug("wrote file", zap.String("path", path))
	}
	g.log.Info("generated package", zap.String("package", pkg), zap.String("dir", res.Dir))
	return res, nil
}

func (g *Generator) render(n *umrf.Node, pkg string) ([]outFile, []UnknownTypeWarning, error) {
	var files []outFile
	add := func(rel, content string) {
		files = append(files, outFile{rel: rel, data: []byte(content)})
	}

	primary := n.Clone()
	primary.PackageName = pkg
	data, err := descriptor.EncodeNode(primary, descriptor.JSON)
	if err != nil {
		return nil, nil, err
	}
	files = append(files, outFile{rel: descriptor.NodeBase + descriptor.JSON.Ext(), data: data})

	invoker, err := umrf.NewGraph(pkg, InvokerClone(primary))
	if err != nil {
		return nil, nil, err
	}
	data, err = descriptor.EncodeGraph(invoker, descriptor.JSON)
	if err != nil {
		return nil, nil, err
	}
	files = append(files, outFile{
		rel:  filepath.Join("test", descriptor.GraphFileName(descriptor.InvokerGraph, descriptor.JSON)),
		data: data,
	})

	base := map[string]string{
		"package_name": pkg,
		"class_name":   umrf.DeriveClassName(pkg),
	}

	for _, f := range []struct{ tmpl, rel string }{
		{TmplCMakeLists, "CMakeLists.txt"},
		{TmplPackageXML, "package.xml"},
		{TmplMacrosHeader, filepath.Join("include", pkg, "macros.h")},
	} {
		out, err := g.templates.Expand(f.tmpl, base)
		if err != nil {
			return nil, nil, err
		}
		add(f.rel, out)
	}

	warnings := g.unknownTypes(n)

	var branches strings.Builder
	for p := range n.Inputs.All() {
		out, err := g.templates.Expand(TmplUpdateBranch, g.paramData(InputPrefix, p))
		if err != nil {
			return nil, nil, err
		}
		branches.WriteString(out)
	}
	out, err := g.templates.Expand(TmplInterfaceHeader, with(base, "update_branches", branches.String()))
	if err != nil {
		return nil, nil, err
	}
	add(filepath.Join("include", pkg, "temoto_action.h"), out)

	body, err := g.actionBody(n)
	if err != nil {
		return nil, nil, err
	}
	for k, v := range base {
		body[k] = v
	}
	out, err = g.templates.Expand(TmplAction, body)
	if err != nil {
		return nil, nil, err
	}
	add(filepath.Join("src", pkg+".cpp"), out)

	for _, f := range []struct{ tmpl, rel string }{
		{TmplLaunchStandalone, filepath.Join("launch", "action_test_standalone.launch")},
		{TmplLaunchSeparate, filepath.Join("launch", "action_test_separate.launch")},
	} {
		out, err := g.templates.Expand(f.tmpl, base)
		if err != nil {
			return nil, nil, err
		}
		add(f.rel, out)
	}
	return files, warnings, nil
}

// actionBody renders the member declarations, input reads and output
// writes spliced into the action source.
func (g *Generator) actionBody(n *umrf.Node) (map[string]string, error) {
	var decls, reads, writes strings.Builder

	section := func(b *strings.Builder, comment string) error {
		out, err := g.templates.Expand(TmplLineComment, map[string]string{"comment": comment})
		b.WriteString(out)
		return err
	}
	expand := func(b *strings.Builder, name string, data map[string]string) error {
		out, err := g.templates.Expand(name, data)
		b.WriteString(out)
		return err
	}

	if n.Inputs.Len() > 0 {
		if err := section(&reads, "Input parameters"); err != nil {
			return nil, err
		}
	}
	for p := range n.Inputs.All() {
		data := g.paramData(InputPrefix, p)
		if err := expand(&decls, TmplParamDecl, data); err != nil {
			return nil, err
		}
		if err := expand(&reads, TmplParamIn, data); err != nil {
			return nil, err
		}
	}

	if n.Outputs.Len() > 0 {
		if err := section(&writes, "Pass the output parameters to the action engine"); err != nil {
			return nil, err
		}
	}
	for p := range n.Outputs.All() {
		data := g.paramData(OutputPrefix, p)
		if err := expand(&decls, TmplParamDecl, data); err != nil {
			return nil, err
		}
		if err := expand(&writes, TmplParamOut, data); err != nil {
			return nil, err
		}
	}

	return map[string]string{
		"member_declarations": decls.String(),
		"input_reads":         reads.String(),
		"output_writes":       writes.String(),
	}, nil
}

func (g *Generator) paramData(prefix string, p umrf.Parameter) map[string]string {
	target, _ := g.aliases.Resolve(p.Type)
	return map[string]string{
		"param_name":       p.Name,
		"param_identifier": Identifier(prefix, p.Name),
		"param_type":       target,
		"declared_type":    p.Type,
	}
}

func (g *Generator) unknownTypes(n *umrf.Node) []UnknownTypeWarning {
	var out []UnknownTypeWarning
	for _, set := range []struct {
		dir umrf.Direction
		ps  *umrf.Parameters
	}{{umrf.Input, n.Inputs}, {umrf.Output, n.Outputs}} {
		for p := range set.ps.All() {
			if _, ok := g.aliases.Resolve(p.Type); !ok {
				out = append(out, UnknownTypeWarning{Direction: set.dir, Parameter: p.Name, Type: p.Type})
			}
		}
	}
	return out
}

func with(m map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = value
	return out
}

// Identifier returns the C++ member name for a parameter: prefix followed
// by the name with "::" replaced by "_".
func Identifier(prefix, name string) string {
	return prefix + strings.ReplaceAll(name, umrf.NamespaceSeparator, "_")
}

// checkIdentifiers rejects parameters that map to the same C++ member,
// such as "a::b" and "a_b".
func checkIdentifiers(n *umrf.Node) error {
	seen := make(map[string]string)
	for _, set := range []struct {
		prefix string
		ps     *umrf.Parameters
	}{{InputPrefix, n.Inputs}, {OutputPrefix, n.Outputs}} {
		for p := range set.ps.All() {
			id := Identifier(set.prefix, p.Name)
			if other, dup := seen[id]; dup {
				return fmt.Errorf("parameters %q and %q: %w", other, p.Name,
					&umrf.DuplicateNameError{Kind: "parameter identifier", Name: id})
			}
			seen[id] = p.Name
		}
	}
	return nil
}

// InvokerClone returns the node used to invoke a freshly generated action
// on its own: suffix 0, no relations, string inputs set to
// InvokerStringPlaceholder and number inputs to 0.0. Inputs of other types
// keep their place without a value.
func InvokerClone(n *umrf.Node) *umrf.Node {
	c := n.Clone()
	c.Suffix = 0
	c.ClearRelations()
	c.Inputs.Clear()
	for p := range n.Inputs.All() {
		switch p.Type {
		case umrf.TypeString:
			p.Value = InvokerStringPlaceholder
		case umrf.TypeNumber:
			p.Value = 0.0
		default:
			p.Value = nil
		}
		// Names come from a valid set, so Set cannot fail.
		_ = c.Inputs.Set(p, true)
	}
	return c
}

// GenerateGraph validates gr and writes it to root/<graph_name>.umrfg.json,
// returning the path written.
func (g *Generator) GenerateGraph(gr *umrf.Graph, root string) (string, error) {
	if err := umrf.ValidateGraphName(gr.Name); err != nil {
		return "", err
	}
	if err := gr.Validate(); err != nil {
		return "", fmt.Errorf("graph %s: %w", gr.Name, err)
	}
	data, err := descriptor.EncodeGraph(gr, descriptor.JSON)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", &FilesystemError{Op: "mkdir", Path: root, Err: err}
	}
	path := filepath.Join(root, descriptor.GraphFileName(gr.Name, descriptor.JSON))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &FilesystemError{Op: "write", Path: path, Err: err}
	}
	g.log.Info("wrote graph", zap.String("graph", gr.Name), zap.String("path", path))
	return path, nil
}
