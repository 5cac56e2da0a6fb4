package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temoto-labs/taassist/internal/config"
	"github.com/temoto-labs/taassist/internal/descriptor"
	"github.com/temoto-labs/taassist/internal/umrf"
)

var (
	newDir         string
	newFormat      string
	newEffect      string
	newDescription string
	newForce       bool
)

func init() {
	newCmd.Flags().StringVar(&newDir, "dir", "", "Directory to create the package directory in (default: actions_path or .)")
	newCmd.Flags().StringVar(&newFormat, "format", "json", "Descriptor format (json, yaml)")
	newCmd.Flags().StringVar(&newEffect, "effect", umrf.EffectSynchronous, "Action effect (synchronous, asynchronous)")
	newCmd.Flags().StringVar(&newDescription, "description", "", "Action description")
	newCmd.Flags().BoolVar(&newForce, "force", false, "Overwrite an existing descriptor")
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(validateCmd)
}

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a new action descriptor",
	Long: `Create an action descriptor with no parameters.

The descriptor is written to <dir>/<package_name>/umrf.json, where the package
name is derived from <name> (e.g. "Pick And Place" -> ta_pick_and_place).`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

func runNew(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(newFormat)
	if err != nil {
		return err
	}
	if err := umrf.ValidateEffect(newEffect); err != nil {
		return err
	}

	n := umrf.NewNode(args[0])
	n.PackageName = umrf.DerivePackageName(n.Name)
	n.Effect = newEffect
	n.Description = newDescription
	if err := umrf.ValidatePackageName(n.PackageName); err != nil {
		return fmt.Errorf("action %q: %w", n.Name, err)
	}

	dir := pathSetting(newDir, config.KeyActionsPath, ".")
	path := filepath.Join(dir, n.PackageName, descriptor.NodeBase+format.Ext())
	if _, err := os.Stat(path); err == nil && !newForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := descriptor.WriteNodeFile(path, n); err != nil {
		return err
	}
	log.Debug("created descriptor", zap.String("path", path))
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}

func parseFormat(s string) (descriptor.Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return descriptor.JSON, nil
	case "yaml", "yml":
		return descriptor.YAML, nil
	}
	return 0, fmt.Errorf("unknown format %q (want json or yaml)", s)
}

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print the outline of a descriptor",
	Long:  `Print the name, effect and parameter tree of an action, or of every action in a graph.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		path := args[0]
		if descriptor.IsGraphFile(path) {
			gr, err := descriptor.ReadGraphFile(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "graph %s (%d actions)\n", gr.Name, gr.Len())
			if gr.Description != "" {
				fmt.Fprintf(out, "  %s\n", gr.Description)
			}
			for _, n := range gr.Nodes() {
				fmt.Fprintln(out)
				printOutline(out, n)
				printRelations(out, n)
			}
			return nil
		}

		n, err := descriptor.ReadNodeFile(path)
		if err != nil {
			return err
		}
		printOutline(out, n)
		printRelations(out, n)
		return nil
	},
}

func printOutline(w io.Writer, n *umrf.Node) {
	for _, el := range umrf.Outline(n) {
		switch el := el.(type) {
		case umrf.NameElement:
			fmt.Fprintf(w, "%s\n", el.Name)
		case umrf.EffectElement:
			fmt.Fprintf(w, "  effect: %s\n", el.Effect)
		case umrf.GroupElement:
			segs := umrf.SplitName(el.Path)
			fmt.Fprintf(w, "%s%s/ (%s)\n", indent(el.Depth), segs[len(segs)-1], el.Direction)
		case umrf.ParameterElement:
			p := el.Parameter
			line := fmt.Sprintf("%s%s: %s", indent(el.Depth), p.NameNoNamespace(), p.Type)
			if p.Value != nil {
				line += fmt.Sprintf(" = %v", p.Value)
			}
			if p.Example != "" {
				line += fmt.Sprintf(" (e.g. %s)", p.Example)
			}
			fmt.Fprintf(w, "%s [%s]\n", line, el.Direction)
		}
	}
}

func printRelations(w io.Writer, n *umrf.Node) {
	if len(n.Parents) > 0 {
		fmt.Fprintf(w, "  parents: %s\n", joinRelations(n.Parents))
	}
	if len(n.Children) > 0 {
		fmt.Fprintf(w, "  children: %s\n", joinRelations(n.Children))
	}
}

func joinRelations(rs []umrf.Relation) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

func indent(depth int) string {
	return strings.Repeat("  ", depth+1)
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check descriptors against the schema and naming rules",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			if err := validateDescriptor(path); err != nil {
				failed++
				fmt.Fprintf(out, "✗ %s\n", path)
				for _, line := range strings.Split(err.Error(), "\n") {
					fmt.Fprintf(out, "    %s\n", line)
				}
				continue
			}
			fmt.Fprintf(out, "✓ %s\n", path)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d descriptors invalid", failed, len(args))
		}
		return nil
	},
}

// validateDescriptor decodes path and applies the checks the generator
// would apply.
func validateDescriptor(path string) error {
	if descriptor.IsGraphFile(path) {
		gr, err := descriptor.ReadGraphFile(path)
		if err != nil {
			return err
		}
		errs := []error{gr.Validate()}
		for _, n := range gr.Nodes() {
			errs = append(errs, checkNode(n))
		}
		return errors.Join(errs...)
	}
	n, err := descriptor.ReadNodeFile(path)
	if err != nil {
		return err
	}
	return checkNode(n)
}

func checkNode(n *umrf.Node) error {
	var errs []error
	if err := umrf.ValidateEffect(n.Effect); err != nil {
		errs = append(errs, fmt.Errorf("action %s: %w", n.ID(), err))
	}
	if n.PackageName != "" {
		if err := umrf.ValidatePackageName(n.PackageName); err != nil {
			errs = append(errs, fmt.Errorf("action %s: package %q: %w", n.ID(), n.PackageName, err))
		}
	}
	return errors.Join(errs...)
}
