package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Displays the gitdl version, commit, and the Go toolchain and platform it was built for.`,
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	platform := runtime.GOOS + "/" + runtime.GOARCH
	if flagJSON {
		return outputJSON(map[string]string{
			"version":  Version,
			"commit":   Commit,
			"go":       runtime.Version(),
			"platform": platform,
		})
	}

	fmt.Printf("gitdl version %s (%s, %s)\n", GetVersion(), runtime.Version(), platform)
	return nil
}
