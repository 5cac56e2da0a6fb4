package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"slices"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/temoto-labs/taassist/internal/catalog"
	"github.com/temoto-labs/taassist/internal/config"
	"github.com/temoto-labs/taassist/internal/umrf"
)

var (
	catalogPath string
	catalogJSON bool
)

func init() {
	catalogCmd.PersistentFlags().StringVar(&catalogPath, "path", "", "Actions directory to index (default: actions_path or .)")
	catalogListCmd.Flags().BoolVar(&catalogJSON, "json", false, "Output in JSON format")
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogWatchCmd)
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the actions available under the actions path",
	Long: `Inspect the catalog of existing actions: every umrf.json (or *.umrf.json)
descriptor found under the actions path. The generator uses the same catalog
to skip actions that already exist.`,
}

func newIndexer(opts ...catalog.Option) *catalog.Indexer {
	root := pathSetting(catalogPath, config.KeyActionsPath, ".")
	return catalog.NewIndexer([]string{root}, append([]catalog.Option{catalog.WithLogger(log)}, opts...)...)
}

type catalogEntry struct {
	Package string `json:"package"`
	Action  string `json:"action"`
	Effect  string `json:"effect"`
	Path    string `json:"path"`
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed actions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := newIndexer().Refresh(cmd.Context())
		if err != nil {
			return err
		}

		entries := make([]catalogEntry, 0, snap.Count())
		for _, name := range snap.Names() {
			n, _ := snap.Get(name)
			path, _ := snap.Path(name)
			entries = append(entries, catalogEntry{Package: name, Action: n.Name, Effect: n.Effect, Path: path})
		}

		if catalogJSON {
			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling catalog: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No actions found.")
		} else {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "PACKAGE\tACTION\tEFFECT\tPATH")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Package, e.Action, e.Effect, e.Path)
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
		if len(snap.Errors) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%d descriptors could not be read (run with --verbose for details)\n", len(snap.Errors))
		}
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <package-or-action>",
	Short: "Print the outline of an indexed action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := newIndexer().Refresh(cmd.Context())
		if err != nil {
			return err
		}
		n, ok := snap.Get(args[0])
		if !ok {
			return fmt.Errorf("action %q: %w", args[0], umrf.ErrNotFound)
		}
		path, _ := snap.Path(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", path)
		printOutline(cmd.OutOrStdout(), n)
		return nil
	},
}

var catalogWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep indexing and report changes until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ix := newIndexer(catalog.WithInterval(settings.ScanInterval))
		if err := ix.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ix.Stop(stopCtx)
		}()

		out := cmd.OutOrStdout()
		var last *catalog.Snapshot
		poll := time.NewTicker(250 * time.Millisecond)
		defer poll.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-poll.C:
				snap := ix.Snapshot()
				if snap == last || snap.ScannedAt.IsZero() {
					continue
				}
				if last == nil || !sameNames(last, snap) {
					fmt.Fprintf(out, "%s  %d actions, %d unreadable\n",
						snap.ScannedAt.Format(time.TimeOnly), snap.Count(), len(snap.Errors))
				}
				last = snap
			}
		}
	},
}

func sameNames(a, b *catalog.Snapshot) bool {
	return len(a.Errors) == len(b.Errors) && slices.Equal(a.Names(), b.Names())
}
