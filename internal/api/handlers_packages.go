package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListPackages lists stored pitch packages, newest first.
func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	if s.packages == nil {
		jsonError(w, http.StatusServiceUnavailable, "unavailable", "package store unavailable")
		return
	}
	summaries, err := s.packages.ListPackages(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal", "failed to list packages: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"packages": summaries})
}

// handleGetPackage returns one stored package in full.
func (s *Server) handleGetPackage(w http.ResponseWriter, r *http.Request) {
	if s.packages == nil {
		jsonError(w, http.StatusServiceUnavailable, "unavailable", "package store unavailable")
		return
	}
	pkg, err := s.packages.GetPackage(r.Context(), chi.URLParam(r, "packageID"))
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

// handleDeletePackage removes a stored package.
func (s *Server) handleDeletePackage(w http.ResponseWriter, r *http.Request) {
	if s.packages == nil {
		jsonError(w, http.StatusServiceUnavailable, "unavailable", "package store unavailable")
		return
	}
	id := chi.URLParam(r, "packageID")
	removed, err := s.packages.DeletePackage(r.Context(), id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal", "failed to delete package: "+err.Error())
		return
	}
	if !removed {
		jsonError(w, http.StatusNotFound, "not_found", "package not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}
