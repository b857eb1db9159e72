package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Fuabioo/gitdl/internal/core"
	"github.com/Fuabioo/gitdl/internal/errors"
	"github.com/Fuabioo/gitdl/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// flagKeys binds command-line flags to their configuration keys. A flag only
// overrides the key when it was set explicitly.
var flagKeys = map[string]string{
	"work-dir":   "work_dir",
	"branch":     "branch",
	"log-level":  "logging.level",
	"log-format": "logging.format",
	"addr":       "server.addr",
	"metrics":    "server.metrics",
}

// outputJSON marshals and prints JSON to stdout.
func outputJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// isTerminal checks if the given file descriptor is a TTY.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// getExitCode maps error codes to CLI exit codes.
func getExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch errors.Code(err) {
	case errors.CodeConfiguration:
		return 2 // Bad reference or configuration
	case errors.CodeNotFound:
		return 4 // Project not found upstream
	case errors.CodeBusy:
		return 75 // EX_TEMPFAIL, retry later
	default:
		return 1 // General error
	}
}

// loadConfig resolves the effective configuration for cmd: defaults, config
// file, dotenv file, environment, then explicitly set flags.
func loadConfig(cmd *cobra.Command) (*core.Config, error) {
	v := viper.New()
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	cfg, err := core.LoadConfig(v, core.LoadOptions{
		ConfigFile: flagConfig,
		EnvFile:    flagEnvFile,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeConfiguration, "invalid configuration", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger for cfg. Quiet mode keeps warnings and
// errors only.
func newLogger(cfg *core.Config) *logging.Logger {
	level := cfg.Logging.Level
	if flagQuiet {
		level = "warn"
	}
	return logging.New(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
}

// setup loads configuration and builds the logger and pipeline for cmd.
func setup(cmd *cobra.Command) (*core.Config, *logging.Logger, *core.Pipeline, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	log := newLogger(cfg)
	pipeline, err := core.NewPipeline(cfg, core.Options{Logger: log})
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, pipeline, nil
}

// printError prints an error to stderr with appropriate formatting.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// info prints a human-readable status line to stderr unless quiet.
func info(format string, args ...interface{}) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
