package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Fuabioo/gitdl/internal/errors"
)

// Layout places the per-request artifacts under one working root:
//
//	<root>/<work_id>/        extracted tree
//	<root>/<work_id>.zip     raw upstream download
//	<root>/new_<work_id>.zip repacked archive
type Layout struct {
	root string
}

// NewLayout returns a layout rooted at the absolute form of root.
func NewLayout(root string) (Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to resolve working root: %w", err)
	}
	return Layout{root: abs}, nil
}

// Root returns the working root.
func (l Layout) Root() string {
	return l.root
}

// EnsureRoot creates the working root if it does not exist.
func (l Layout) EnsureRoot() error {
	if err := os.MkdirAll(l.root, 0o700); err != nil {
		return errors.EnvironmentRestricted("creating the working directory", err)
	}
	return nil
}

// WorkDir returns the extraction directory for a work ID.
func (l Layout) WorkDir(workID string) string {
	return filepath.Join(l.root, workID)
}

// RawArchivePath returns the path of the raw upstream download.
func (l Layout) RawArchivePath(workID string) string {
	return filepath.Join(l.root, workID+".zip")
}

// RepackedArchivePath returns the path of the rebuilt archive.
func (l Layout) RepackedArchivePath(workID string) string {
	return filepath.Join(l.root, "new_"+workID+".zip")
}
