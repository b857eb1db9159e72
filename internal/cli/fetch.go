package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Fuabioo/gitdl/internal/core"
	"github.com/Fuabioo/gitdl/internal/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var fetchFlagOutput string

var fetchCmd = &cobra.Command{
	Use:   "fetch <reference>",
	Short: "Download a project as a normalized zip archive",
	Long: `Downloads the branch snapshot of a hosted project and writes the repacked
archive, whose single top-level directory is named after the project.

The archive is written to <project>.zip unless -o is given. Use "-o -" to
write to stdout; this is refused when stdout is a terminal.`,
	Example: `  gitdl fetch https://github.com/octo/demo
  gitdl fetch https://github.com/octo/demo -o demo-latest.zip
  gitdl fetch https://github.com/octo/demo -o - > demo.zip`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchFlagOutput, "output", "o", "", "Output file, or - for stdout")
	fetchCmd.Flags().String("branch", "", "Branch to download (default from config)")
}

type fetchResult struct {
	Project    string `json:"project"`
	OutputPath string `json:"output_path"`
	SizeBytes  int64  `json:"size_bytes"`
}

func runFetch(cmd *cobra.Command, args []string) error {
	toStdout := fetchFlagOutput == "-"
	if toStdout && isTerminal(os.Stdout) {
		return errors.New(errors.CodeConfiguration, "refusing to write a zip archive to a terminal; redirect stdout or use -o <file>")
	}

	_, _, pipeline, err := setup(cmd)
	if err != nil {
		return err
	}

	var progress core.ProgressFunc
	if !flagQuiet && !flagJSON && isTerminal(os.Stderr) {
		progress = func(total int64) io.Writer {
			return progressbar.DefaultBytes(total, "downloading")
		}
	}

	var result fetchResult
	err = pipeline.Run(cmd.Context(), args[0], func(_ context.Context, a *core.Artifact) error {
		result.Project = a.ProjectName
		if toStdout {
			result.OutputPath = "-"
			n, err := io.Copy(os.Stdout, a.Body)
			result.SizeBytes = n
			return err
		}

		path := fetchFlagOutput
		if path == "" {
			path = a.Filename()
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return errors.EnvironmentRestricted("resolve output path", err)
		}
		n, err := core.SaveArtifact(a, abs)
		result.OutputPath = abs
		result.SizeBytes = n
		return err
	}, core.RunOptions{Progress: progress})
	if err != nil {
		return err
	}

	if toStdout {
		info("Wrote %s.zip to stdout (%d bytes)", result.Project, result.SizeBytes)
		return nil
	}
	if flagJSON {
		return outputJSON(result)
	}
	if !flagQuiet {
		fmt.Printf("Saved %s (%d bytes)\n", result.OutputPath, result.SizeBytes)
	}
	return nil
}
