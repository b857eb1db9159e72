package cli

import (
	"fmt"

	"github.com/Fuabioo/gitdl/internal/core"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <reference>",
	Short: "Show how a reference resolves without downloading",
	Long: `Prints the normalized reference, project name, branch, archive URL and
work ID a fetch of the reference would use. Nothing is downloaded.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("branch", "", "Branch to resolve (default from config)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	id, err := core.Resolve(args[0], core.ResolveOptions{
		Branch:       cfg.Branch,
		AllowedHosts: cfg.AllowedHosts,
	})
	if err != nil {
		return err
	}

	if flagJSON {
		return outputJSON(map[string]interface{}{
			"reference":   id.Reference,
			"project":     id.ProjectName,
			"branch":      id.Branch,
			"archive_url": id.ArchiveURL,
			"work_id":     id.WorkID,
		})
	}

	fmt.Printf("Reference:   %s\n", id.Reference)
	fmt.Printf("Project:     %s\n", id.ProjectName)
	fmt.Printf("Branch:      %s\n", id.Branch)
	fmt.Printf("Archive URL: %s\n", id.ArchiveURL)
	fmt.Printf("Work ID:     %s\n", id.WorkID)
	return nil
}
