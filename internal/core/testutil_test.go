package core

import (
	"bytes"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

// buildZip returns zip bytes for files. Names ending in "/" become directory
// entries. Entries are written in sorted order.
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		header := &zip.FileHeader{Name: name, Method: zip.Deflate}
		if strings.HasSuffix(name, "/") {
			header.SetMode(0755 | os.ModeDir)
			header.Method = zip.Store
		} else {
			header.SetMode(0644)
		}

		fw, err := w.CreateHeader(header)
		if err != nil {
			t.Fatalf("failed to create entry %s: %v", name, err)
		}
		if content := files[name]; content != "" {
			if _, err := fw.Write([]byte(content)); err != nil {
				t.Fatalf("failed to write entry %s: %v", name, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

func createTestZip(t *testing.T, zipPath string, files map[string]string) {
	t.Helper()
	if err := os.WriteFile(zipPath, buildZip(t, files), 0644); err != nil {
		t.Fatalf("failed to write zip: %v", err)
	}
}

func createMaliciousZip(t *testing.T, zipPath string) {
	t.Helper()
	createTestZip(t, zipPath, map[string]string{
		"safe.txt":          "ok",
		"../../etc/evil.sh": "pwned",
	})
}

// zipEntryNames lists the entry names of the zip at path in archive order.
func zipEntryNames(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("failed to open zip: %v", err)
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}
