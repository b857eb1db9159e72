package core

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/Fuabioo/gitdl/internal/errors"
	"github.com/Fuabioo/gitdl/internal/security"
	"github.com/klauspost/compress/zip"
)

// Extract extracts a zip file to the destination directory.
// Returns the number of files extracted and the total size in bytes.
// Uses fail-closed security validation: any single invalid path aborts the
// entire extraction before anything is written. Symlink entries are skipped.
// Every failure is an ARCHIVE error.
func Extract(zipPath, destDir string, limits security.Limits) (int, uint64, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, 0, errors.ArchiveInvalid("downloaded file is not a readable zip archive", err)
	}
	defer r.Close()

	bombCheck := security.CheckZipBomb(&r.Reader, limits)
	if !bombCheck.IsSafe {
		return 0, 0, errors.ArchiveInvalid("archive exceeds extraction limits", fmt.Errorf("%s", bombCheck.Reason))
	}

	paths := make([]string, 0, len(r.File))
	for _, f := range r.File {
		paths = append(paths, f.Name)
	}
	if err := security.ValidateEntryPaths(destDir, paths); err != nil {
		return 0, 0, errors.ArchiveInvalid("archive contains unsafe paths", err)
	}

	var fileCount int
	var totalSize uint64

	for _, f := range r.File {
		if err := extractFile(f, destDir, limits, &fileCount, &totalSize); err != nil {
			return fileCount, totalSize, errors.ArchiveInvalid("archive extraction failed", fmt.Errorf("%q: %w", f.Name, err))
		}
	}

	return fileCount, totalSize, nil
}

// extractFile extracts a single entry from the zip archive.
func extractFile(f *zip.File, destDir string, limits security.Limits, fileCount *int, totalSize *uint64) error {
	destPath := filepath.Join(destDir, filepath.FromSlash(f.Name))
	mode := f.Mode()

	if mode&os.ModeSymlink != 0 {
		return nil
	}

	if mode.IsDir() {
		if err := os.MkdirAll(destPath, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open file in archive: %w", err)
	}
	defer rc.Close()

	perm := mode.Perm() | 0600
	outFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	// Declared sizes were checked up front; the limit here guards against
	// entries that decompress past their header.
	var src io.Reader = rc
	remaining := int64(-1)
	if limits.MaxExtractedSize > 0 {
		// Limits past MaxInt64 cannot be reached by a single reader.
		if left := limits.MaxExtractedSize - *totalSize; left < math.MaxInt64 {
			remaining = int64(left)
			src = io.LimitReader(rc, remaining+1)
		}
	}

	written, err := io.Copy(outFile, src)
	if err != nil {
		return fmt.Errorf("failed to copy data: %w", err)
	}
	if remaining >= 0 && written > remaining {
		return fmt.Errorf("extracted data exceeds %d bytes", limits.MaxExtractedSize)
	}

	*fileCount++
	*totalSize += uint64(written)

	return outFile.Close()
}
