package core

import (
	"encoding/hex"
	"path"
	"strings"

	"github.com/Fuabioo/gitdl/internal/errors"
	"github.com/Fuabioo/gitdl/internal/security"
	"github.com/zeebo/blake3"
)

// workIDBytes is the digest prefix used for work IDs (32 hex characters).
const workIDBytes = 16

// Identity is everything derived from a project reference before any
// network or filesystem access.
type Identity struct {
	// Reference is the normalized project URL.
	Reference string
	// ProjectName is the last path segment of Reference.
	ProjectName string
	// Branch is the snapshot name used in ArchiveURL.
	Branch string
	// ArchiveURL is Reference + "/archive/<branch>.zip".
	ArchiveURL string
	// WorkID names every file and directory of a run. It is a pure function
	// of Reference.
	WorkID string
}

// ResolveOptions configures Resolve.
type ResolveOptions struct {
	Branch       string
	AllowedHosts []string
}

// Resolve validates and normalizes reference and derives its identity.
// Invalid references fail with a CONFIGURATION error.
func Resolve(reference string, opts ResolveOptions) (*Identity, error) {
	branch := opts.Branch
	if branch == "" {
		branch = DefaultBranch
	}

	trimmed := strings.TrimSpace(reference)
	u, err := security.ValidateReference(trimmed, opts.AllowedHosts)
	if err != nil {
		return nil, errors.InvalidReference(err.Error())
	}

	p := strings.TrimRight(u.Path, "/")
	p = strings.TrimSuffix(p, ".git")
	name := path.Base(p)
	if p == "" || name == "/" || name == "." {
		return nil, errors.InvalidReference("reference has no repository path")
	}

	normalized := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + p

	return &Identity{
		Reference:   normalized,
		ProjectName: name,
		Branch:      branch,
		ArchiveURL:  normalized + "/archive/" + branch + ".zip",
		WorkID:      WorkID(normalized),
	}, nil
}

// WorkID returns the hex-encoded BLAKE3 digest prefix of a normalized reference.
func WorkID(normalized string) string {
	sum := blake3.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:workIDBytes])
}
