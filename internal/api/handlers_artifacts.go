package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/scanbook/internal/pdfimage"
	"github.com/dgallion1/scanbook/internal/pipeline"
	"github.com/dgallion1/scanbook/internal/storage"
)

// handleDownload serves a finished artifact from output storage.
func (s *Server) handleDownload(artifact string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
		if job == nil {
			jsonError(w, "job not found", http.StatusNotFound)
			return
		}
		key, ok := job.Output(artifact)
		if !ok {
			snap := job.Snapshot()
			jsonError(w, fmt.Sprintf("%s not available (status %s)", artifact, snap.Status), http.StatusNotFound)
			return
		}

		rc, err := s.storage.Get(r.Context(), key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				jsonError(w, artifact+" not found in storage", http.StatusNotFound)
				return
			}
			s.log.Error("artifact read failed", "job_id", job.ID, "key", key, "error", err)
			jsonError(w, "failed to read artifact", http.StatusInternalServerError)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", storage.ContentType(key))
		if artifact != pipeline.ArtifactReportHTML {
			w.Header().Set("Content-Disposition",
				fmt.Sprintf(`attachment; filename="%s"`, downloadName(job, key)))
		}
		if _, err := io.Copy(w, rc); err != nil {
			s.log.Warn("artifact copy interrupted", "job_id", job.ID, "key", key, "error", err)
		}
	}
}

// downloadName names the file after the book: "cuentos.epub".
func downloadName(job *pipeline.Job, key string) string {
	base := job.Snapshot().Title
	if base == "" {
		base = pdfimage.DeriveTitle(job.Filename)
	}
	if base == "" {
		base = job.ID
	}
	base = strings.Map(func(r rune) rune {
		switch r {
		case '"', '/', '\\', '\r', '\n':
			return '_'
		}
		return r
	}, base)
	return base + path.Ext(key)
}
