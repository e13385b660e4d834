package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersion sets the version string displayed by --version, typically
// injected via ldflags at build time.
func SetVersion(v string) {
	version = v
}

// Execute runs the nestd CLI and returns an error if any command fails.
func Execute() error {
	var verbose bool

	root := &cobra.Command{
		Use:          "nestd",
		Short:        "nestd packs flat-pattern outlines onto cut sheets",
		Long:         `nestd is the sheet-nesting worker: it converts 2D flat-pattern DXF outlines into multi-sheet cut layouts using deterministic Bottom-Left-Fill placement, either as a queue-driven worker (serve) or as a one-shot local run (run).`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	logLevel := func() charmlog.Level {
		if verbose {
			return charmlog.DebugLevel
		}
		return charmlog.InfoLevel
	}

	root.AddCommand(newServeCmd(logLevel))
	root.AddCommand(newRunCmd(logLevel))

	return root.ExecuteContext(context.Background())
}

// exitLogger builds the command logger on stderr.
func exitLogger(level charmlog.Level) *charmlog.Logger {
	return newLogger(os.Stderr, level)
}
