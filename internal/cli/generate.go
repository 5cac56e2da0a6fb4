package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temoto-labs/taassist/internal/catalog"
	"github.com/temoto-labs/taassist/internal/config"
	"github.com/temoto-labs/taassist/internal/descriptor"
	"github.com/temoto-labs/taassist/internal/generator"
	"github.com/temoto-labs/taassist/internal/materialize"
	"github.com/temoto-labs/taassist/internal/umrf"
)

var (
	genActionsPath  string
	genGraphsPath   string
	genTemplatesDir string
	genNoCatalog    bool
)

func init() {
	generateCmd.Flags().StringVar(&genActionsPath, "actions-path", "", "Where packages are generated (default: actions_path or .)")
	generateCmd.Flags().StringVar(&genGraphsPath, "graphs-path", "", "Where the graph descriptor is written (default: graphs_path; empty skips it)")
	generateCmd.Flags().StringVar(&genTemplatesDir, "templates-dir", "", "Directory overriding the embedded templates (default: templates_dir)")
	generateCmd.Flags().BoolVar(&genNoCatalog, "no-catalog", false, "Regenerate actions that already exist under the actions path")
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate <graph-or-node-file>",
	Short: "Generate TeMoto action packages",
	Long: `Generate one package per action in a graph, or a single package from a node
descriptor.

Action names are normalized first: "pick place" becomes package ta_pick_place
with class TaPickPlace. Actions whose package already exists under the actions
path are skipped unless --no-catalog is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	gr, isGraph, err := readGenerateInput(args[0])
	if err != nil {
		return err
	}

	tmpl, err := generator.LoadTemplates(pathSetting(genTemplatesDir, config.KeyTemplatesDir, ""))
	if err != nil {
		return err
	}
	for _, name := range tmpl.Overrides() {
		log.Debug("template overridden", zap.String("template", name))
	}
	gen := generator.New(tmpl,
		generator.WithTypeAliases(settings.TypeAliases),
		generator.WithLogger(log))

	opts := materialize.Options{
		ActionsPath: pathSetting(genActionsPath, config.KeyActionsPath, "."),
		Logger:      log,
	}
	if isGraph {
		opts.GraphsPath = pathSetting(genGraphsPath, config.KeyGraphsPath, "")
	}
	if !genNoCatalog {
		ix := catalog.NewIndexer([]string{opts.ActionsPath}, catalog.WithLogger(log))
		if _, err := ix.Refresh(cmd.Context()); err != nil {
			return fmt.Errorf("scanning %s: %w", opts.ActionsPath, err)
		}
		opts.Catalog = ix
	}

	rep, err := materialize.Run(gr, gen, opts)
	out := cmd.OutOrStdout()
	for _, res := range rep.Packages {
		fmt.Fprintf(out, "Generated %s\n", res.Dir)
		for _, w := range res.Warnings {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}
	}
	if rep.GraphFile != "" {
		fmt.Fprintf(out, "Wrote %s\n", rep.GraphFile)
	}
	fmt.Fprintf(out, "Generated: %d  Skipped: %d  Failed: %d\n", rep.Generated, rep.Skipped, rep.Failed)
	return err
}

// readGenerateInput returns the graph to materialize. A node descriptor is
// wrapped in a single-action graph named after its package.
func readGenerateInput(path string) (*umrf.Graph, bool, error) {
	if descriptor.IsGraphFile(path) {
		gr, err := descriptor.ReadGraphFile(path)
		return gr, true, err
	}
	n, err := descriptor.ReadNodeFile(path)
	if err != nil {
		return nil, false, err
	}
	n.ClearRelations()
	name := n.PackageName
	if name == "" {
		name = filepath.Base(filepath.Dir(path))
	}
	gr, err := umrf.NewGraph(name, n)
	return gr, false, err
}
