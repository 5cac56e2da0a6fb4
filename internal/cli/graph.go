package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temoto-labs/taassist/internal/descriptor"
	"github.com/temoto-labs/taassist/internal/umrf"
)

var (
	graphDescription string
	graphForce       bool
	graphSuffix      int
)

func init() {
	graphNewCmd.Flags().StringVar(&graphDescription, "description", "", "Graph description")
	graphNewCmd.Flags().BoolVar(&graphForce, "force", false, "Overwrite an existing graph file")
	graphAddCmd.Flags().IntVar(&graphSuffix, "suffix", 0, "Explicit suffix (0 picks the lowest free one)")

	graphCmd.AddCommand(graphNewCmd)
	graphCmd.AddCommand(graphAddCmd)
	graphCmd.AddCommand(graphRmCmd)
	graphCmd.AddCommand(graphConnectCmd)
	graphCmd.AddCommand(graphDisconnectCmd)
	graphCmd.AddCommand(graphRenameCmd)
	rootCmd.AddCommand(graphCmd)
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Edit action graphs",
	Long: `Edit a graph descriptor (<graph_name>.umrfg.json) in place.

Actions inside a graph are referenced as name[:suffix]; the suffix defaults
to 0. Several actions may share a name as long as their suffixes differ.`,
}

// parseRef parses "name[:suffix]".
func parseRef(ref string) (umrf.Relation, error) {
	if i := strings.LastIndex(ref, ":"); i > 0 {
		if s, err := strconv.Atoi(ref[i+1:]); err == nil {
			if s < 0 {
				return umrf.Relation{}, fmt.Errorf("%w: negative suffix in %q", umrf.ErrInvalidName, ref)
			}
			return umrf.Relation{Name: ref[:i], Suffix: s}, nil
		}
	}
	if ref == "" {
		return umrf.Relation{}, fmt.Errorf("%w: empty action reference", umrf.ErrInvalidName)
	}
	return umrf.Relation{Name: ref}, nil
}

// editGraph loads the graph at path, applies fn and writes it back.
func editGraph(path string, fn func(gr *umrf.Graph) error) error {
	gr, err := descriptor.ReadGraphFile(path)
	if err != nil {
		return err
	}
	if err := fn(gr); err != nil {
		return err
	}
	return descriptor.WriteGraphFile(path, gr)
}

var graphNewCmd = &cobra.Command{
	Use:   "new <graph-file> <graph-name>",
	Short: "Create an empty graph",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !descriptor.IsGraphFile(path) {
			return fmt.Errorf("%s: graph files end in %s.json or %s.yaml", path, descriptor.GraphSuffix, descriptor.GraphSuffix)
		}
		if _, err := os.Stat(path); err == nil && !graphForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := umrf.ValidateGraphName(args[1]); err != nil {
			return err
		}
		gr, err := umrf.NewGraph(args[1])
		if err != nil {
			return err
		}
		gr.Description = graphDescription
		if err := descriptor.WriteGraphFile(path, gr); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created graph %s at %s\n", gr.Name, path)
		return nil
	},
}

var graphAddCmd = &cobra.Command{
	Use:   "add <graph-file> <action>",
	Short: "Add an action to a graph",
	Long: `Add an action to a graph. <action> is either a node descriptor file, whose
parameters are copied, or a bare name for an action without parameters.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := actionArg(args[1])
		if err != nil {
			return err
		}
		n.Suffix = graphSuffix
		n.ClearRelations()

		var id umrf.Relation
		err = editGraph(args[0], func(gr *umrf.Graph) error {
			id, err = gr.AddNode(n)
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", id)
		return nil
	},
}

func actionArg(arg string) (*umrf.Node, error) {
	if descriptor.IsNodeFile(arg) {
		if _, err := os.Stat(arg); err == nil {
			return descriptor.ReadNodeFile(arg)
		}
	}
	return umrf.NewNode(arg), nil
}

var graphRmCmd = &cobra.Command{
	Use:   "rm <graph-file> <action-ref>",
	Short: "Remove an action and every relation to it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRef(args[1])
		if err != nil {
			return err
		}
		if err := editGraph(args[0], func(gr *umrf.Graph) error { return gr.RemoveNode(id) }); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
		return nil
	},
}

func linkCommand(use, short, verb string, connect bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <graph-file> <parent-ref> <child-ref>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := parseRef(args[1])
			if err != nil {
				return err
			}
			child, err := parseRef(args[2])
			if err != nil {
				return err
			}
			err = editGraph(args[0], func(gr *umrf.Graph) error {
				if connect {
					return gr.Connect(parent, child)
				}
				return gr.Disconnect(parent, child)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", verb, parent, child)
			return nil
		},
	}
}

var (
	graphConnectCmd    = linkCommand("connect", "Make one action the parent of another", "Connected", true)
	graphDisconnectCmd = linkCommand("disconnect", "Remove a parent/child relation", "Disconnected", false)
)

var graphRenameCmd = &cobra.Command{
	Use:   "rename <graph-file> <action-ref> <new-name>",
	Short: "Rename an action and every relation pointing at it",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRef(args[1])
		if err != nil {
			return err
		}
		var renamed umrf.Relation
		err = editGraph(args[0], func(gr *umrf.Graph) error {
			renamed, err = gr.RenameNode(id, args[2])
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", id, renamed)
		return nil
	},
}
