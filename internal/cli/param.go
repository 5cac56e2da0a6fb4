package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temoto-labs/taassist/internal/config"
	"github.com/temoto-labs/taassist/internal/descriptor"
	"github.com/temoto-labs/taassist/internal/umrf"
)

var (
	paramOutput  bool
	paramExample string
	paramValue   string
	paramForce   bool
	paramLibrary string
)

func init() {
	paramCmd.PersistentFlags().BoolVar(&paramOutput, "output", false, "Edit output parameters instead of inputs")
	paramSetCmd.Flags().StringVar(&paramExample, "example", "", "Example shown to the user")
	paramSetCmd.Flags().StringVar(&paramValue, "value", "", "Placeholder value (parsed according to the type)")
	paramSetCmd.Flags().BoolVar(&paramForce, "force", false, "Replace an existing parameter in place")
	paramImportCmd.Flags().StringVar(&paramLibrary, "library", "", "Parameter library directory (default: parameters_path)")
	paramLibraryCmd.Flags().StringVar(&paramLibrary, "library", "", "Parameter library directory (default: parameters_path)")

	paramCmd.AddCommand(paramSetCmd)
	paramCmd.AddCommand(paramRmCmd)
	paramCmd.AddCommand(paramRmGroupCmd)
	paramCmd.AddCommand(paramSubgroupCmd)
	paramCmd.AddCommand(paramUngroupCmd)
	paramCmd.AddCommand(paramRenameGroupCmd)
	paramCmd.AddCommand(paramImportCmd)
	paramCmd.AddCommand(paramLibraryCmd)
	rootCmd.AddCommand(paramCmd)
}

var paramCmd = &cobra.Command{
	Use:   "param",
	Short: "Edit the parameters of an action descriptor",
	Long: `Edit the input (default) or output parameters of an action descriptor in place.

Parameter names are namespaced with "::", e.g. sensors::camera::exposure
lives in group sensors::camera.`,
}

// editParams loads the node at path, applies fn to the selected parameter
// set and writes the node back.
func editParams(path string, fn func(ps *umrf.Parameters) error) error {
	n, err := descriptor.ReadNodeFile(path)
	if err != nil {
		return err
	}
	ps := n.Inputs
	if paramOutput {
		ps = n.Outputs
	}
	if err := fn(ps); err != nil {
		return err
	}
	return descriptor.WriteNodeFile(path, n)
}

func direction() string {
	if paramOutput {
		return "output"
	}
	return "input"
}

var paramSetCmd = &cobra.Command{
	Use:   "set <node-file> <name> <type>",
	Short: "Add or replace a parameter",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := umrf.Parameter{Name: args[1], Type: args[2], Example: paramExample}
		if cmd.Flags().Changed("value") {
			v, err := parseValue(p.Type, paramValue)
			if err != nil {
				return err
			}
			p.Value = v
		}
		err := editParams(args[0], func(ps *umrf.Parameters) error {
			return ps.Set(p, paramForce)
		})
		if err != nil {
			return err
		}
		log.Debug("parameter set", zap.String("parameter", p.Name), zap.String("type", p.Type))
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s parameter %s (%s)\n", direction(), p.Name, p.Type)
		return nil
	},
}

// parseValue converts raw according to the declared type. Unknown types
// keep the raw string.
func parseValue(typ, raw string) (any, error) {
	switch typ {
	case umrf.TypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a number", raw)
		}
		return f, nil
	case umrf.TypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a bool", raw)
		}
		return b, nil
	}
	return raw, nil
}

var paramRmCmd = &cobra.Command{
	Use:   "rm <node-file> <name>",
	Short: "Remove a parameter",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := editParams(args[0], func(ps *umrf.Parameters) error {
			if !ps.Remove(args[1]) {
				return fmt.Errorf("removing %s parameter %q: %w", direction(), args[1], umrf.ErrNotFound)
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s parameter %s\n", direction(), args[1])
		return nil
	},
}

var paramRmGroupCmd = &cobra.Command{
	Use:   "rm-group <node-file> <group>",
	Short: "Remove every parameter inside a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var removed int
		err := editParams(args[0], func(ps *umrf.Parameters) error {
			removed = ps.RemoveGroup(args[1])
			if removed == 0 {
				return fmt.Errorf("removing group %q: %w", args[1], umrf.ErrNotFound)
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d %s parameters from %s\n", removed, direction(), args[1])
		return nil
	},
}

var paramSubgroupCmd = &cobra.Command{
	Use:   "subgroup <node-file> <name> <group-token>",
	Short: "Move a parameter into a new outer group",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := editParams(args[0], func(ps *umrf.Parameters) error {
			return ps.Subgroup(args[1], args[2])
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", args[1], umrf.JoinName(args[2], args[1]))
		return nil
	},
}

var paramUngroupCmd = &cobra.Command{
	Use:   "ungroup <node-file> <name>",
	Short: "Remove the outermost group of a parameter",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := editParams(args[0], func(ps *umrf.Parameters) error {
			return ps.Ungroup(args[1])
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ungrouped %s\n", args[1])
		return nil
	},
}

var paramRenameGroupCmd = &cobra.Command{
	Use:   "rename-group <node-file> <group> <new-name>",
	Short: "Rename the innermost level of a group",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var renamed int
		err := editParams(args[0], func(ps *umrf.Parameters) error {
			var err error
			renamed, err = ps.RenameGroup(args[1], args[2])
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed group %s (%d parameters)\n", args[1], renamed)
		return nil
	},
}

func loadLibrary() (*descriptor.Library, error) {
	dir := pathSetting(paramLibrary, config.KeyParametersPath, "")
	if dir == "" {
		return nil, fmt.Errorf("no parameter library configured (use --library or set %s)", config.KeyParametersPath)
	}
	lib, err := descriptor.LoadLibrary(dir)
	if err != nil {
		return nil, err
	}
	for _, err := range lib.Errors {
		log.Warn("skipping library file", zap.Error(err))
	}
	return lib, nil
}

var paramImportCmd = &cobra.Command{
	Use:   "import <node-file> <entry>",
	Short: "Copy a parameter library entry into an action",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := loadLibrary()
		if err != nil {
			return err
		}
		entry, ok := lib.Entry(args[1])
		if !ok {
			return fmt.Errorf("library entry %q: %w", args[1], umrf.ErrNotFound)
		}
		err = editParams(args[0], func(ps *umrf.Parameters) error {
			// Check the whole entry first so a clash leaves the set untouched.
			trial := ps.Clone()
			for p := range entry.Parameters.All() {
				if err := trial.Set(p, false); err != nil {
					return err
				}
			}
			for p := range entry.Parameters.All() {
				_ = ps.Set(p, false)
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%d %s parameters)\n", entry.Name, entry.Parameters.Len(), direction())
		return nil
	},
}

var paramLibraryCmd = &cobra.Command{
	Use:   "library",
	Short: "List the predefined parameter library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := loadLibrary()
		if err != nil {
			return err
		}
		if len(lib.Entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No library entries found.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ENTRY\tKIND\tPARAMETERS")
		for _, e := range lib.Entries {
			kind := "single"
			if e.Compound {
				kind = "compound"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\n", e.Name, kind, e.Parameters.Len())
		}
		return w.Flush()
	},
}
