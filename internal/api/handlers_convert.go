package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/scanbook/internal/pipeline"
	"github.com/dgallion1/scanbook/internal/toc"
)

var pdfMagic = []byte("%PDF-")

// sseHeartbeat keeps idle event streams open through proxies.
const sseHeartbeat = 15 * time.Second

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	// TOC and page correction are validated before the upload is read so a
	// bad request fails fast.
	chapters, err := toc.Validate(r.FormValue("toc"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	offset, err := parseOffset(r.FormValue("page_correction"), r.FormValue("offset"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	// Read file data.
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		jsonError(w, "file is not a PDF document", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(pipeline.NewJobID(), filename, data)
	job.Title = strings.TrimSpace(r.FormValue("title"))
	job.Chapters = chapters
	job.Offset = offset
	job.WantDOCX = r.FormValue("docx") == "true"

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	s.log.Info("conversion queued",
		"job_id", job.ID,
		"doc_id", job.DocID,
		"filename", filename,
		"chapters", len(chapters),
		"offset", offset,
	)

	base := "/api/convert/" + job.ID
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":     job.ID,
		"doc_id":     job.DocID,
		"status":     pipeline.StatusQueued,
		"poll_url":   base + "/status",
		"events_url": base + "/events",
		"epub_url":   base + "/epub",
	})
}

// parseOffset reads the page offset from either a "book=pdf" correspondence
// or a plain integer. The correspondence wins when both are given.
func parseOffset(correspondence, offset string) (int, error) {
	if strings.TrimSpace(correspondence) != "" {
		return toc.ParseCorrespondence(correspondence)
	}
	offset = strings.TrimSpace(offset)
	if offset == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(offset)
	if err != nil {
		return 0, fmt.Errorf("%w: offset %q is not an integer", toc.ErrInvalidCorrection, offset)
	}
	return n, nil
}

func (s *Server) handleConvertStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// handleConvertEvents streams job progress as Server-Sent Events: every
// event emitted so far, then live events, then a final "done" event.
func (s *Server) handleConvertEvents(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	past, live, cancel := job.Subscribe()
	defer cancel()

	lastSeq := 0
	for _, ev := range past {
		if err := writeEvent(w, "progress", ev.Seq, ev); err != nil {
			return
		}
		lastSeq = ev.Seq
	}
	rc.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			rc.Flush()
		case ev, ok := <-live:
			if !ok {
				snap := job.Snapshot()
				writeEvent(w, "done", 0, map[string]any{
					"status":  snap.Status,
					"phase":   snap.Phase,
					"outputs": snap.Outputs,
					"errors":  snap.Progress.Errors,
				})
				rc.Flush()
				return
			}
			if ev.Seq <= lastSeq {
				continue
			}
			if err := writeEvent(w, "progress", ev.Seq, ev); err != nil {
				return
			}
			lastSeq = ev.Seq
			rc.Flush()
		}
	}
}

func writeEvent(w io.Writer, name string, id int, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if id > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", id); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}

func (s *Server) handleValidateTOC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	chapters, err := toc.Validate(string(body))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp := map[string]any{"chapters": chapters}

	// With a page count, also show how the chapters cover the book.
	if v := r.URL.Query().Get("total_pages"); v != "" {
		total, err := strconv.Atoi(v)
		if err != nil || total <= 0 {
			jsonError(w, "total_pages must be a positive integer", http.StatusBadRequest)
			return
		}
		offset, err := parseOffset(r.URL.Query().Get("page_correction"), r.URL.Query().Get("offset"))
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := toc.CheckSpan(total, offset); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		start, end := toc.BookSpan(total, offset)
		title := r.URL.Query().Get("title")
		if title == "" {
			title = s.cfg.DefaultTitle
		}
		resp["reconciled"] = toc.Reconcile(chapters, start, end, title)
		resp["book_pages"] = toc.PageRange{Start: start, End: end}.String()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
