package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temoto-labs/taassist/internal/branding"
	"github.com/temoto-labs/taassist/internal/config"
	"github.com/temoto-labs/taassist/internal/logging"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	flagVerbose bool

	// settings and log are set by the root pre-run for every command.
	settings config.Settings
	log      = logging.Nop()
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log at debug level")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` edits UMRF action descriptors and graphs, and generates
TeMoto action packages from them.

Descriptors are JSON or YAML files: umrf.json (or <name>.umrf.json) for a single
action and <graph_name>.umrfg.json for a graph of actions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		s, err := config.Current()
		if err != nil {
			return err
		}
		settings = s

		level := s.LogLevel
		if flagVerbose {
			level = "debug"
		}
		l, err := logging.New(level, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		log = l
		log.Debug("configuration loaded", zap.String("file", config.FilePath()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// pathSetting returns flagValue when set, then the configured value for
// key, then fallback.
func pathSetting(flagValue, key, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := config.Get(key); v != "" {
		return v
	}
	return fallback
}
