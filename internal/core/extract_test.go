package core

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Fuabioo/gitdl/internal/errors"
	"github.com/Fuabioo/gitdl/internal/security"
	"github.com/klauspost/compress/zip"
)

func TestExtract_BasicZip(t *testing.T) {
	tempDir := t.TempDir()
	zipPath := filepath.Join(tempDir, "test.zip")
	destDir := filepath.Join(tempDir, "extracted")

	files := map[string]string{
		"file1.txt":     "content1",
		"file2.txt":     "content2",
		"dir/file3.txt": "content3",
	}
	createTestZip(t, zipPath, files)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		t.Fatalf("failed to create dest dir: %v", err)
	}

	fileCount, totalSize, err := Extract(zipPath, destDir, security.DefaultLimits())
	if err != nil {
		t.Fatalf("failed to extract: %v", err)
	}

	if fileCount != 3 {
		t.Errorf("expected 3 files, got %d", fileCount)
	}

	if totalSize != uint64(len("content1")*3) {
		t.Errorf("expected total size %d, got %d", len("content1")*3, totalSize)
	}

	for path, expectedContent := range files {
		content, err := os.ReadFile(filepath.Join(destDir, path))
		if err != nil {
			t.Errorf("failed to read %s: %v", path, err)
			continue
		}

		if string(content) != expectedContent {
			t.Errorf("expected content %q for %s, got %q", expectedContent, path, string(content))
		}
	}
}

func TestExtract_MaliciousZip(t *testing.T) {
	tempDir := t.TempDir()
	zipPath := filepath.Join(tempDir, "malicious.zip")
	destDir := filepath.Join(tempDir, "extracted")

	createMaliciousZip(t, zipPath)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		t.Fatalf("failed to create dest dir: %v", err)
	}

	_, _, err := Extract(zipPath, destDir, security.DefaultLimits())
	if !errors.Is(err, errors.CodeArchive) {
		t.Fatalf("expected ARCHIVE error for malicious zip, got %v", err)
	}

	// fail-closed: the safe entry must not have been written either
	if _, err := os.Stat(filepath.Join(destDir, "safe.txt")); !os.IsNotExist(err) {
		t.Error("expected nothing to be extracted from a rejected archive")
	}
}

func TestExtract_FileCountLimit(t *testing.T) {
	tempDir := t.TempDir()
	zipPath := filepath.Join(tempDir, "many.zip")
	destDir := filepath.Join(tempDir, "extracted")

	files := make(map[string]string)
	for i := 0; i < 20; i++ {
		files[fmt.Sprintf("file%d.txt", i)] = "x"
	}
	createTestZip(t, zipPath, files)
	os.MkdirAll(destDir, 0755)

	limits := security.DefaultLimits()
	limits.MaxFileCount = 10

	_, _, err := Extract(zipPath, destDir, limits)
	if !errors.Is(err, errors.CodeArchive) {
		t.Fatalf("expected ARCHIVE error for too many files, got %v", err)
	}
}

func TestExtract_SizeLimit(t *testing.T) {
	tempDir := t.TempDir()
	zipPath := filepath.Join(tempDir, "big.zip")
	destDir := filepath.Join(tempDir, "extracted")

	createTestZip(t, zipPath, map[string]string{"big.txt": strings.Repeat("a", 4096)})
	os.MkdirAll(destDir, 0755)

	limits := security.Limits{MaxExtractedSize: 1024}

	_, _, err := Extract(zipPath, destDir, limits)
	if !errors.Is(err, errors.CodeArchive) {
		t.Fatalf("expected ARCHIVE error for oversized archive, got %v", err)
	}
}

func TestExtract_UnboundedSizeLimitKeepsContent(t *testing.T) {
	tempDir := t.TempDir()
	zipPath := filepath.Join(tempDir, "test.zip")
	destDir := filepath.Join(tempDir, "extracted")

	createTestZip(t, zipPath, map[string]string{"x-master/a.txt": "hello"})
	os.MkdirAll(destDir, 0755)

	for _, max := range []uint64{math.MaxUint64, math.MaxInt64 + 1, math.MaxInt64} {
		t.Run(fmt.Sprint(max), func(t *testing.T) {
			out := filepath.Join(destDir, fmt.Sprint(max))
			if err := os.MkdirAll(out, 0755); err != nil {
				t.Fatalf("mkdir failed: %v", err)
			}

			_, size, err := Extract(zipPath, out, security.Limits{MaxExtractedSize: max})
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if size != 5 {
				t.Errorf("extracted size = %d, want 5", size)
			}

			content, err := os.ReadFile(filepath.Join(out, "x-master", "a.txt"))
			if err != nil {
				t.Fatalf("failed to read extracted file: %v", err)
			}
			if string(content) != "hello" {
				t.Errorf("content = %q, want hello", content)
			}
		})
	}
}

func TestExtract_EmptyZip(t *testing.T) {
	tempDir := t.TempDir()
	zipPath := filepath.Join(tempDir, "empty.zip")
	destDir := filepath.Join(tempDir, "extracted")

	createTestZip(t, zipPath, map[string]string{})

	if err := os.MkdirAll(destDir, 0755); err != nil {
		t.Fatalf("failed to create dest dir: %v", err)
	}

	fileCount, totalSize, err := Extract(zipPath, destDir, security.DefaultLimits())
	if err != nil {
		t.Fatalf("failed to extract: %v", err)
	}

	if fileCount != 0 {
		t.Errorf("expected 0 files, got %d", fileCount)
	}

	if totalSize != 0 {
		t.Errorf("expected 0 total size, got %d", totalSize)
	}
}

func TestExtract_WithDirectories(t *testing.T) {
	tempDir := t.TempDir()
	zipPath := filepath.Join(tempDir, "test.zip")
	destDir := filepath.Join(tempDir, "extracted")

	files := map[string]string{
		"a/b/c/file.txt": "deep content",
		"a/file.txt":     "shallow content",
		"empty/":         "",
	}
	createTestZip(t, zipPath, files)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		t.Fatalf("failed to create dest dir: %v", err)
	}

	fileCount, _, err := Extract(zipPath, destDir, security.DefaultLimits())
	if err != nil {
		t.Fatalf("failed to extract: %v", err)
	}

	if fileCount != 2 {
		t.Errorf("expected 2 files, got %d", fileCount)
	}

	if _, err := os.Stat(filepath.Join(destDir, "a", "b", "c", "file.txt")); err != nil {
		t.Errorf("expected deep file to exist: %v", err)
	}

	info, err := os.Stat(filepath.Join(destDir, "empty"))
	if err != nil || !info.IsDir() {
		t.Errorf("expected empty directory to exist: %v", err)
	}
}

func TestExtract_SkipsSymlinks(t *testing.T) {
	tempDir := t.TempDir()
	zipPath := filepath.Join(tempDir, "links.zip")
	destDir := filepath.Join(tempDir, "extracted")

	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("failed to create zip: %v", err)
	}
	w := zip.NewWriter(f)

	link := &zip.FileHeader{Name: "link", Method: zip.Store}
	link.SetMode(0777 | os.ModeSymlink)
	lw, err := w.CreateHeader(link)
	if err != nil {
		t.Fatalf("failed to create symlink entry: %v", err)
	}
	lw.Write([]byte("/etc/passwd"))

	regular := &zip.FileHeader{Name: "file.txt", Method: zip.Deflate}
	regular.SetMode(0644)
	rw, err := w.CreateHeader(regular)
	if err != nil {
		t.Fatalf("failed to create entry: %v", err)
	}
	rw.Write([]byte("content"))

	w.Close()
	f.Close()

	os.MkdirAll(destDir, 0755)
	fileCount, _, err := Extract(zipPath, destDir, security.DefaultLimits())
	if err != nil {
		t.Fatalf("failed to extract: %v", err)
	}

	if fileCount != 1 {
		t.Errorf("expected 1 file, got %d", fileCount)
	}
	if _, err := os.Lstat(filepath.Join(destDir, "link")); !os.IsNotExist(err) {
		t.Error("expected symlink entry to be skipped")
	}
}

func TestExtract_InvalidZipPath(t *testing.T) {
	tempDir := t.TempDir()
	destDir := filepath.Join(tempDir, "extracted")
	os.MkdirAll(destDir, 0755)

	_, _, err := Extract("/nonexistent/file.zip", destDir, security.DefaultLimits())
	if !errors.Is(err, errors.CodeArchive) {
		t.Fatalf("expected ARCHIVE error for nonexistent zip file, got %v", err)
	}
}

func TestExtract_InvalidDestDir(t *testing.T) {
	tempDir := t.TempDir()
	zipPath := filepath.Join(tempDir, "test.zip")
	createTestZip(t, zipPath, map[string]string{"file.txt": "content"})

	invalidDest := filepath.Join(tempDir, "notadir")
	os.WriteFile(invalidDest, []byte("file"), 0644)

	_, _, err := Extract(zipPath, invalidDest, security.DefaultLimits())
	if err == nil {
		t.Fatal("expected error when dest is not a directory")
	}
}

func TestExtract_CorruptedZip(t *testing.T) {
	tempDir := t.TempDir()
	zipPath := filepath.Join(tempDir, "corrupted.zip")

	os.WriteFile(zipPath, []byte("not a zip file"), 0644)

	destDir := filepath.Join(tempDir, "extracted")
	os.MkdirAll(destDir, 0755)

	_, _, err := Extract(zipPath, destDir, security.DefaultLimits())
	if !errors.Is(err, errors.CodeArchive) {
		t.Fatalf("expected ARCHIVE error for corrupted zip, got %v", err)
	}
}

func TestExtract_LargeNumberOfFiles(t *testing.T) {
	tempDir := t.TempDir()
	zipPath := filepath.Join(tempDir, "many-files.zip")
	destDir := filepath.Join(tempDir, "extracted")

	files := make(map[string]string)
	for i := 0; i < 100; i++ {
		files[fmt.Sprintf("file%d.txt", i)] = fmt.Sprintf("content%d", i)
	}
	createTestZip(t, zipPath, files)

	os.MkdirAll(destDir, 0755)
	fileCount, _, err := Extract(zipPath, destDir, security.DefaultLimits())
	if err != nil {
		t.Fatalf("failed to extract: %v", err)
	}

	if fileCount != 100 {
		t.Errorf("expected 100 files, got %d", fileCount)
	}
}
