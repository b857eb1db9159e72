package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Fuabioo/gitdl/internal/errors"
)

// SnapshotDirName is the top-level folder the upstream host puts in a
// branch archive.
func SnapshotDirName(project, branch string) string {
	return project + "-" + branch
}

// Normalize renames <workDir>/<project>-<branch> to <workDir>/<project> and
// returns the new path. The archive must contain that exact folder; anything
// else is an ARCHIVE error.
func Normalize(workDir, project, branch string) (string, error) {
	expected := SnapshotDirName(project, branch)
	src := filepath.Join(workDir, expected)
	dst := filepath.Join(workDir, project)

	info, err := os.Lstat(src)
	if err != nil || !info.IsDir() {
		return "", errors.LayoutMismatch(project, expected)
	}

	if _, err := os.Lstat(dst); err == nil {
		return "", errors.ArchiveInvalid("archive already contains the normalized folder", fmt.Errorf("%s exists", project))
	}

	if err := os.Rename(src, dst); err != nil {
		return "", errors.Internal("failed to rename extracted folder", err)
	}

	return dst, nil
}
