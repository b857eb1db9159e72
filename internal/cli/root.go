package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Version is set via ldflags during build
	Version = "dev"
	// Commit is set via ldflags during build
	Commit = "unknown"

	// Global flags
	flagConfig  string
	flagEnvFile string
	flagJSON    bool
	flagQuiet   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gitdl",
	Short: "Download a hosted git project as a clean zip archive",
	Long: `gitdl fetches the branch snapshot archive of a hosted git project,
renames its top-level directory from "<project>-<branch>" to "<project>",
and hands back the repacked zip.

It runs as an HTTP download proxy (serve), a one-shot downloader (fetch)
and an MCP server on stdio (mcp).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command until it finishes or SIGINT/SIGTERM cancels
// its context. On failure it prints the error and exits with the code for
// its kind.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(err)
		os.Exit(getExitCode(err))
	}
}

func init() {
	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default $XDG_CONFIG_HOME/gitdl/config.yaml)")
	pf.StringVar(&flagEnvFile, "env-file", ".env", "Dotenv file loaded before GITDL_* variables")
	// Bound to config keys in loadConfig.
	pf.String("work-dir", "", "Working root for in-flight archives")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-format", "", "Log format (pretty, json)")
	pf.BoolVar(&flagJSON, "json", false, "Output in JSON format")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress non-essential output")

	// Add all subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// GetVersion returns the version string
func GetVersion() string {
	if len(Commit) >= 7 && Commit != "unknown" {
		return fmt.Sprintf("%s (%s)", Version, Commit[:7])
	}
	return Version
}
