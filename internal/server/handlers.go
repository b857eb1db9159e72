package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Fuabioo/gitdl/internal/core"
	"github.com/Fuabioo/gitdl/internal/errors"
	"github.com/go-chi/chi/v5"
)

// retryAfterSeconds is advertised on BUSY responses.
const retryAfterSeconds = "5"

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch errors.Code(err) {
	case errors.CodeConfiguration:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeBusy:
		return http.StatusServiceUnavailable
	case errors.CodeTransfer, errors.CodeArchive:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends a short plain-text diagnostic. Only the caller-facing
// message is written, never the wrapped cause.
func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	fmt.Fprintln(w, errors.Message(err))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// handleDownload serves GET /download?url=<reference>.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	reference := strings.TrimSpace(r.URL.Query().Get("url"))
	if reference == "" {
		writeError(w, errors.InvalidReference("missing url query parameter"))
		return
	}
	s.serveProject(w, r, reference)
}

// handleGitHub serves GET /github/{owner}/{repo}.
func (s *Server) handleGitHub(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	repo := chi.URLParam(r, "repo")
	s.serveProject(w, r, "https://github.com/"+owner+"/"+repo)
}

func (s *Server) serveProject(w http.ResponseWriter, r *http.Request, reference string) {
	log := s.log.WithRequestID(RequestIDFrom(r.Context()))

	streaming := false
	err := s.pipeline.Run(r.Context(), reference, func(_ context.Context, a *core.Artifact) error {
		streaming = true
		_, err := core.Stream(w, a)
		return err
	}, core.RunOptions{})
	if err == nil {
		return
	}

	if streaming {
		// Headers are gone; the client sees a truncated body.
		log.Warn().Err(err).Msg("stream interrupted")
		return
	}
	writeError(w, err)
}
