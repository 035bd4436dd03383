package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"pitchforge/internal/pipeline"
)

func (s *Server) handleSubmitScript(w http.ResponseWriter, r *http.Request) {
	// Limit total request size, with headroom for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "bad_request", "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "bad_request", "file is required: "+err.Error())
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal", "failed to read file")
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, http.StatusRequestEntityTooLarge, "too_large",
			fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes))
		return
	}
	if len(data) == 0 {
		jsonError(w, http.StatusBadRequest, "bad_request", "uploaded file is empty")
		return
	}

	ov := pipeline.Overrides{
		Platform: strings.TrimSpace(r.FormValue("target_platform")),
		Tone:     strings.TrimSpace(r.FormValue("tone")),
	}

	job := pipeline.NewJob(filename, header.Header.Get("Content-Type"), data, ov)
	if err := s.manager.Submit(job); err != nil {
		jsonError(w, http.StatusServiceUnavailable, "queue_full", err.Error())
		return
	}

	// A worker may already be running the job, so read through the
	// snapshot rather than the raw fields.
	writeJSON(w, http.StatusAccepted, map[string]any{
		"id":       job.ID,
		"status":   job.Snapshot().Status,
		"poll_url": fmt.Sprintf("/v1/scripts/%s", job.ID),
	})
}

func (s *Server) handleScriptStatus(w http.ResponseWriter, r *http.Request) {
	job := s.manager.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleScriptDocument(w http.ResponseWriter, r *http.Request) {
	job := s.manager.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	doc := job.Script()
	if doc == nil {
		jsonError(w, http.StatusNotFound, "not_ready", "script not parsed yet")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleScriptPackage(w http.ResponseWriter, r *http.Request) {
	job := s.manager.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	packageID := job.PackageID()
	if packageID == "" {
		jsonError(w, http.StatusNotFound, "not_ready", "package not generated yet")
		return
	}
	if s.packages == nil {
		jsonError(w, http.StatusServiceUnavailable, "unavailable", "package store unavailable")
		return
	}
	pkg, err := s.packages.GetPackage(r.Context(), packageID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal", "failed to load package: "+err.Error())
		return
	}
	if pkg == nil {
		jsonError(w, http.StatusNotFound, "not_found", "package not found")
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
