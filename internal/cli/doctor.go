package cli

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/temoto-labs/taassist/internal/catalog"
	"github.com/temoto-labs/taassist/internal/config"
	"github.com/temoto-labs/taassist/internal/descriptor"
	"github.com/temoto-labs/taassist/internal/generator"
)

var (
	checkToolchain bool
	checkTemplates bool
	checkActions   bool
	checkLibrary   bool
)

func init() {
	doctorCmd.Flags().BoolVar(&checkToolchain, "check-toolchain", false, "Verify the ROS build tools are on PATH")
	doctorCmd.Flags().BoolVar(&checkTemplates, "check-templates", false, "Verify the template store and its contract")
	doctorCmd.Flags().BoolVar(&checkActions, "check-actions", false, "Verify every descriptor under the actions path parses")
	doctorCmd.Flags().BoolVar(&checkLibrary, "check-library", false, "Verify the parameter library parses")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the taassist setup",
	Long:  `Run diagnostic checks on configuration, templates, existing actions and the parameter library.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		all := !(checkToolchain || checkTemplates || checkActions || checkLibrary)

		fmt.Fprintf(out, "Config file: %s\n", config.FilePath())
		failed := false
		if all || checkToolchain {
			runToolchainCheck(out)
		}
		if all || checkTemplates {
			failed = !runTemplatesCheck(out) || failed
		}
		if all || checkActions {
			failed = !runActionsCheck(cmd, out) || failed
		}
		if all || checkLibrary {
			failed = !runLibraryCheck(out) || failed
		}
		if failed {
			return fmt.Errorf("doctor found problems")
		}
		return nil
	},
}

func runToolchainCheck(out io.Writer) {
	fmt.Fprintln(out, "Toolchain check:")
	for _, name := range []string{"cmake", "catkin_make", "roslaunch"} {
		path, err := exec.LookPath(name)
		if err != nil {
			fmt.Fprintf(out, "  [MISS] %s not found\n", name)
			continue
		}
		fmt.Fprintf(out, "  [ OK ] %s found at %s\n", name, path)
	}
}

func runTemplatesCheck(out io.Writer) bool {
	fmt.Fprintln(out, "Templates check:")
	dir := config.Get(config.KeyTemplatesDir)
	tmpl, err := generator.LoadTemplates(dir)
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return false
	}
	fmt.Fprintf(out, "  [ OK ] contract %s satisfies %s\n", tmpl.Contract(), generator.ContractConstraint)
	for _, name := range tmpl.Overrides() {
		fmt.Fprintf(out, "  [INFO] %s overridden from %s\n", name, dir)
	}
	return true
}

func runActionsCheck(cmd *cobra.Command, out io.Writer) bool {
	fmt.Fprintln(out, "Actions check:")
	root := pathSetting("", config.KeyActionsPath, ".")
	if _, err := os.Stat(root); err != nil {
		fmt.Fprintf(out, "  [WARN] actions path %s: %v\n", root, err)
		return true
	}
	snap, err := catalog.NewIndexer([]string{root}, catalog.WithLogger(log)).Refresh(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] scanning %s: %v\n", root, err)
		return false
	}
	fmt.Fprintf(out, "  [ OK ] %d actions under %s\n", snap.Count(), root)
	for _, err := range snap.Errors {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
	}
	return len(snap.Errors) == 0
}

func runLibraryCheck(out io.Writer) bool {
	fmt.Fprintln(out, "Parameter library check:")
	dir := config.Get(config.KeyParametersPath)
	if dir == "" {
		fmt.Fprintf(out, "  [INFO] %s not set\n", config.KeyParametersPath)
		return true
	}
	lib, err := descriptor.LoadLibrary(dir)
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return false
	}
	fmt.Fprintf(out, "  [ OK ] %d entries under %s\n", len(lib.Entries), dir)
	for _, err := range lib.Errors {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
	}
	return len(lib.Errors) == 0
}
