package core

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Fuabioo/gitdl/internal/errors"
	"github.com/Fuabioo/gitdl/internal/security"
	"github.com/klauspost/compress/zip"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		if content == "" && path[len(path)-1] == '/' {
			if err := os.MkdirAll(full, 0755); err != nil {
				t.Fatalf("failed to create dir: %v", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}
}

func TestRepack_Basic(t *testing.T) {
	tempDir := t.TempDir()
	sourceDir := filepath.Join(tempDir, "source")

	files := map[string]string{
		"file1.txt":     "content1",
		"file2.txt":     "content2",
		"dir/file3.txt": "content3",
	}
	writeTree(t, sourceDir, files)

	zipPath := filepath.Join(tempDir, "repacked.zip")
	if err := Repack(sourceDir, zipPath); err != nil {
		t.Fatalf("failed to repack: %v", err)
	}

	extractDir := filepath.Join(tempDir, "extracted")
	if err := os.MkdirAll(extractDir, 0755); err != nil {
		t.Fatalf("failed to create extract dir: %v", err)
	}

	if _, _, err := Extract(zipPath, extractDir, security.DefaultLimits()); err != nil {
		t.Fatalf("failed to extract repacked zip: %v", err)
	}

	for path, expectedContent := range files {
		content, err := os.ReadFile(filepath.Join(extractDir, path))
		if err != nil {
			t.Errorf("failed to read %s: %v", path, err)
			continue
		}

		if string(content) != expectedContent {
			t.Errorf("expected content %q for %s, got %q", expectedContent, path, string(content))
		}
	}
}

func TestRepack_ExactEntries(t *testing.T) {
	tempDir := t.TempDir()
	sourceDir := filepath.Join(tempDir, "source")

	writeTree(t, sourceDir, map[string]string{
		"a/b.txt": "b",
		"a/c/":    "",
		"d.txt":   "d",
	})

	zipPath := filepath.Join(tempDir, "repacked.zip")
	if err := Repack(sourceDir, zipPath); err != nil {
		t.Fatalf("failed to repack: %v", err)
	}

	got := zipEntryNames(t, zipPath)
	want := []string{"a/", "a/b.txt", "a/c/", "d.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected entries %v, got %v", want, got)
	}
}

func TestRepack_EntryMethods(t *testing.T) {
	tempDir := t.TempDir()
	sourceDir := filepath.Join(tempDir, "source")
	writeTree(t, sourceDir, map[string]string{"dir/file.txt": "hello"})

	zipPath := filepath.Join(tempDir, "repacked.zip")
	if err := Repack(sourceDir, zipPath); err != nil {
		t.Fatalf("failed to repack: %v", err)
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("failed to open zip: %v", err)
	}
	defer r.Close()

	for _, f := range r.File {
		switch f.Name {
		case "dir/":
			if f.Method != zip.Store {
				t.Errorf("expected directory to be stored, got method %d", f.Method)
			}
		case "dir/file.txt":
			if f.Method != zip.Deflate {
				t.Errorf("expected file to be deflated, got method %d", f.Method)
			}
		default:
			t.Errorf("unexpected entry %s", f.Name)
		}
	}
}

func TestRepack_EmptyDirectory(t *testing.T) {
	tempDir := t.TempDir()
	sourceDir := filepath.Join(tempDir, "source")
	if err := os.MkdirAll(sourceDir, 0755); err != nil {
		t.Fatalf("failed to create source dir: %v", err)
	}

	zipPath := filepath.Join(tempDir, "repacked.zip")
	if err := Repack(sourceDir, zipPath); err != nil {
		t.Fatalf("failed to repack empty directory: %v", err)
	}

	if names := zipEntryNames(t, zipPath); len(names) != 0 {
		t.Errorf("expected no entries, got %v", names)
	}
}

func TestRepack_SkipsSymlinks(t *testing.T) {
	tempDir := t.TempDir()
	sourceDir := filepath.Join(tempDir, "source")
	writeTree(t, sourceDir, map[string]string{"real.txt": "real"})

	outside := filepath.Join(tempDir, "secret.txt")
	os.WriteFile(outside, []byte("secret"), 0644)
	if err := os.Symlink(outside, filepath.Join(sourceDir, "link.txt")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	zipPath := filepath.Join(tempDir, "repacked.zip")
	if err := Repack(sourceDir, zipPath); err != nil {
		t.Fatalf("failed to repack: %v", err)
	}

	want := []string{"real.txt"}
	if got := zipEntryNames(t, zipPath); !reflect.DeepEqual(got, want) {
		t.Errorf("expected entries %v, got %v", want, got)
	}
}

func TestRepack_SymlinkedRoot(t *testing.T) {
	tempDir := t.TempDir()
	realDir := filepath.Join(tempDir, "real")
	writeTree(t, realDir, map[string]string{"x.txt": "x"})

	linkDir := filepath.Join(tempDir, "linked")
	if err := os.Symlink(realDir, linkDir); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	zipPath := filepath.Join(tempDir, "repacked.zip")
	if err := Repack(linkDir, zipPath); err != nil {
		t.Fatalf("failed to repack: %v", err)
	}

	want := []string{"x.txt"}
	if got := zipEntryNames(t, zipPath); !reflect.DeepEqual(got, want) {
		t.Errorf("expected entries %v, got %v", want, got)
	}
}

func TestRepack_MissingSource(t *testing.T) {
	tempDir := t.TempDir()

	err := Repack(filepath.Join(tempDir, "missing"), filepath.Join(tempDir, "out.zip"))
	if !errors.Is(err, errors.CodeArchive) {
		t.Fatalf("expected ARCHIVE error, got %v", err)
	}
}

func TestRepack_SourceIsFile(t *testing.T) {
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "file.txt")
	os.WriteFile(file, []byte("x"), 0644)

	err := Repack(file, filepath.Join(tempDir, "out.zip"))
	if !errors.Is(err, errors.CodeArchive) {
		t.Fatalf("expected ARCHIVE error, got %v", err)
	}
}

func TestRepack_OverwritesExistingArchive(t *testing.T) {
	tempDir := t.TempDir()
	sourceDir := filepath.Join(tempDir, "source")
	writeTree(t, sourceDir, map[string]string{"new.txt": "new"})

	zipPath := filepath.Join(tempDir, "repacked.zip")
	createTestZip(t, zipPath, map[string]string{"old.txt": "old"})

	if err := Repack(sourceDir, zipPath); err != nil {
		t.Fatalf("failed to repack: %v", err)
	}

	want := []string{"new.txt"}
	if got := zipEntryNames(t, zipPath); !reflect.DeepEqual(got, want) {
		t.Errorf("expected entries %v, got %v", want, got)
	}
}
