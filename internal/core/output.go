package core

import (
	"io"
	"os"
	"path/filepath"

	"github.com/Fuabioo/gitdl/internal/errors"
)

// SaveArtifact writes the artifact to path. The bytes go to a temporary file
// in the same directory that is renamed into place, so path never holds a
// partial archive.
func SaveArtifact(a *Artifact, path string) (int64, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".gitdl-*.zip")
	if err != nil {
		return 0, errors.EnvironmentRestricted("writing the output file", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, a.Body)
	if err != nil {
		return n, errors.TransferFailed(a.ProjectName, err)
	}
	if err := tmp.Sync(); err != nil {
		return n, errors.EnvironmentRestricted("writing the output file", err)
	}
	if err := tmp.Close(); err != nil {
		return n, errors.EnvironmentRestricted("writing the output file", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return n, errors.EnvironmentRestricted("writing the output file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return n, errors.EnvironmentRestricted("writing the output file", err)
	}
	committed = true
	return n, nil
}
