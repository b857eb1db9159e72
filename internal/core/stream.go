package core

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/Fuabioo/gitdl/internal/security"
)

// Artifact is the repacked archive handed to an Emitter. Body is only valid
// for the duration of the Emitter call.
type Artifact struct {
	ProjectName string
	Size        int64
	Body        io.Reader
}

// Filename is the download name announced for the artifact.
func (a *Artifact) Filename() string {
	return security.SanitizeFilename(a.ProjectName) + ".zip"
}

// Emitter consumes the artifact of a successful run. Its error becomes the
// run's error.
type Emitter func(ctx context.Context, a *Artifact) error

// WriteHeaders sets the download headers for a zip attachment of size bytes.
func WriteHeaders(h http.Header, projectName string, size int64) {
	h.Set("Content-Description", "File Transfer")
	h.Set("Content-Type", "application/zip")
	h.Set("Content-Disposition", `attachment; filename="`+security.SanitizeFilename(projectName)+`.zip"`)
	h.Set("Content-Transfer-Encoding", "binary")
	h.Set("Expires", "0")
	h.Set("Cache-Control", "must-revalidate, post-check=0, pre-check=0")
	h.Set("Pragma", "public")
	h.Set("Content-Length", strconv.FormatInt(size, 10))
}

// Stream writes the download headers and then the artifact bytes unchanged.
func Stream(w http.ResponseWriter, a *Artifact) (int64, error) {
	WriteHeaders(w.Header(), a.ProjectName, a.Size)
	w.WriteHeader(http.StatusOK)
	return io.Copy(w, a.Body)
}
