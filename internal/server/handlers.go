package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gkobilansky/abkit/internal/stats"
	"github.com/gkobilansky/abkit/internal/store"
)

type HealthResponse struct {
	Status         string `json:"status"`
	AnalysesCount  int    `json:"analyses_count"`
	DBSizeBytes    int64  `json:"db_size_bytes"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	NarratorActive bool   `json:"narrator_active"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var count int
	db := s.store.DB()
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses").Scan(&count); err != nil {
		s.internalError(w, r, err)
		return
	}

	var dbSize int64
	row := db.QueryRowContext(ctx, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
	if err := row.Scan(&dbSize); err != nil {
		s.logger.Warn("failed to read database size", "error", err)
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		AnalysesCount:  count,
		DBSizeBytes:    dbSize,
		UptimeSeconds:  int64(time.Since(s.startTime).Seconds()),
		NarratorActive: s.narrator != nil,
	})
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := s.store.ListAnalyses(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if analyses == nil {
		analyses = []*store.Analysis{}
	}
	writeJSON(w, http.StatusOK, analyses)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAnalysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAnalysis(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Error: kind, Message: message})
}

// engineError maps an engine failure to 400 for malformed input and 422
// for input that is well-formed but has no defined answer.
func (s *Server) engineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, stats.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, stats.Kind(err), err.Error())
	case errors.Is(err, stats.ErrInvalidEffectSize),
		errors.Is(err, stats.ErrDegenerateVariance),
		errors.Is(err, stats.ErrUndefinedUplift):
		writeError(w, http.StatusUnprocessableEntity, stats.Kind(err), err.Error())
	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NotFound", "analysis not found")
		return
	}
	s.internalError(w, r, err)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal", "internal server error")
}

// decode reads a JSON body into v, which callers pre-fill with defaults.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil // empty body keeps the defaults
		}
		return fmt.Errorf("%w: malformed request body: %v", stats.ErrInvalidInput, err)
	}
	return nil
}

// download renders a file fully before sending it so a failed render
// still gets a proper error response.
func (s *Server) download(w http.ResponseWriter, r *http.Request, contentType, filename string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
