package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateEntryPath checks that an archive entry resolves inside destDir.
//
// Upstream archives are untrusted input, so entries are rejected when they:
//   - are empty or contain a null byte
//   - are absolute (including drive-letter and backslash-rooted names)
//   - climb out of destDir through ".." components
func ValidateEntryPath(destDir, entryName string) error {
	if entryName == "" {
		return fmt.Errorf("entry name cannot be empty")
	}

	if strings.ContainsRune(entryName, 0) {
		return fmt.Errorf("entry name contains null byte: %q", entryName)
	}

	// Zip names use forward slashes, but some producers leak backslashes.
	name := strings.ReplaceAll(entryName, `\`, "/")

	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) || hasDriveLetter(name) {
		return fmt.Errorf("entry name must be relative: %q", entryName)
	}

	cleanDest := filepath.Clean(destDir)
	target := filepath.Join(cleanDest, filepath.FromSlash(name))

	rel, err := filepath.Rel(cleanDest, target)
	if err != nil {
		return fmt.Errorf("cannot resolve entry %q: %w", entryName, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("entry %q escapes the destination directory", entryName)
	}

	return nil
}

// ValidateEntryPaths validates every entry name and fails on the first bad one.
// A single bad entry rejects the whole archive.
func ValidateEntryPaths(destDir string, entryNames []string) error {
	for _, name := range entryNames {
		if err := ValidateEntryPath(destDir, name); err != nil {
			return fmt.Errorf("archive rejected: %w", err)
		}
	}
	return nil
}

func hasDriveLetter(name string) bool {
	if len(name) < 2 || name[1] != ':' {
		return false
	}
	c := name[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
