package cli

import (
	"fmt"
	"os"

	"github.com/Fuabioo/gitdl/internal/core"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Prints the configuration gitdl would run with after applying defaults,
the config file, the dotenv file, GITDL_* environment variables and flags.

The default config file location is $XDG_CONFIG_HOME/gitdl/config.yaml.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "# config dir: %s\n", core.ConfigDir())
	}
	return nil
}
