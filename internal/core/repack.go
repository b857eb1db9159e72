package core

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Fuabioo/gitdl/internal/errors"
	"github.com/klauspost/compress/zip"
)

// Repack creates a zip file from the contents of a directory.
// Entry names are relative to sourceDir with forward slashes; directories
// (empty ones included) get a trailing "/" and are stored, files are
// deflated. Entries follow lexical walk order. Symlinks and other
// non-regular files are not followed or archived.
func Repack(sourceDir, destZipPath string) error {
	root, err := filepath.Abs(sourceDir)
	if err != nil {
		return errors.ArchiveInvalid("repack source cannot be resolved", err)
	}
	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		return errors.ArchiveInvalid("repack source is missing", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return errors.ArchiveInvalid("repack source is missing", err)
	}
	if !info.IsDir() {
		return errors.ArchiveInvalid("repack source is not a directory", fmt.Errorf("%s", filepath.Base(root)))
	}

	zipFile, err := os.Create(destZipPath)
	if err != nil {
		return errors.EnvironmentRestricted("writing the repacked archive", err)
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)

	if err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk error: %w", err)
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}

		if relPath == "." {
			return nil
		}

		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", relPath, err)
		}

		return addEntry(zipWriter, path, filepath.ToSlash(relPath), info)
	}); err != nil {
		zipWriter.Close()
		return errors.ArchiveInvalid("failed to build repacked archive", err)
	}

	if err := zipWriter.Close(); err != nil {
		return errors.ArchiveInvalid("failed to finalize repacked archive", err)
	}
	if err := zipFile.Close(); err != nil {
		return errors.ArchiveInvalid("failed to finalize repacked archive", err)
	}
	return nil
}

func addEntry(zw *zip.Writer, path, name string, info fs.FileInfo) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to create zip header: %w", err)
	}

	header.Name = name
	if info.IsDir() {
		header.Name += "/"
		header.Method = zip.Store
	} else {
		header.Method = zip.Deflate
	}

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}

	if info.IsDir() {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(writer, file); err != nil {
		return fmt.Errorf("failed to write file to zip: %w", err)
	}

	return nil
}
