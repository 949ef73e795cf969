package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"unicode"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/storefront-reviews/internal/id/uuid"
	"github.com/JakeFAU/storefront-reviews/internal/metrics"
	"github.com/JakeFAU/storefront-reviews/internal/pipeline"
	"github.com/JakeFAU/storefront-reviews/internal/reviews"
	"github.com/JakeFAU/storefront-reviews/internal/session"
	"github.com/JakeFAU/storefront-reviews/internal/table"
)

type fetchRequest struct {
	URL    string `json:"url"`
	Region string `json:"region"`
}

type windowRequest struct {
	Size *int `json:"size"`
}

type sortRequest struct {
	Key  string `json:"key"`
	Kind string `json:"kind"`
}

type fetchResponse struct {
	pipeline.View
	Empty  bool            `json:"empty"`
	Target *reviews.Target `json:"target,omitempty"`
}

type sortResponse struct {
	pipeline.View
	Applied table.Direction `json:"applied"`
}

func (s *Server) createSession(w http.ResponseWriter, _ *http.Request) {
	id, _, err := s.sessions.Create()
	if err != nil {
		s.logger.Error("create session failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lookupSession resolves the {id} URL parameter, writing a 404 when the
// session does not exist.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*pipeline.Session, bool) {
	id := chi.URLParam(r, "id")
	if !uuid.Valid(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	sess, err := s.sessions.Get(id)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return nil, false
	}
	return sess, true
}

func (s *Server) fetchReviews(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	res, err := sess.Fetch(r.Context(), req.URL, req.Region)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, fetchResponse{View: sess.Snapshot(), Target: &res.Target})
	case errors.Is(err, reviews.ErrEmptyResult):
		writeJSON(w, http.StatusOK, fetchResponse{View: sess.Snapshot(), Empty: true})
	default:
		writePipelineError(w, err)
	}
}

func (s *Server) getReviews(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) setWindow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req windowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Size == nil {
		writeError(w, http.StatusBadRequest, "missing window size")
		return
	}
	sess.Table().SetWindow(*req.Size)
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) sortReviews(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req sortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	key, err := table.ParseKey(req.Key)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	kind, err := table.ParseKind(req.Kind, key)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	dir := sess.Table().SortBy(key, kind)
	writeJSON(w, http.StatusOK, sortResponse{View: sess.Snapshot(), Applied: dir})
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	data, err := sess.Table().SerializeCSV()
	metrics.ObserveExport("csv", err)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv;charset=utf-8")
	w.Header().Set("Content-Disposition", contentDisposition(sess.ExportFilename()))
	s.writeDocument(w, r, data)
}

func (s *Server) copyTSV(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	data, err := sess.Table().SerializeTSV()
	metrics.ObserveExport("tsv", err)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/tab-separated-values;charset=utf-8")
	s.writeDocument(w, r, data)
}

// writeDocument sends data with an ETag, answering 304 when the client
// already holds the same rendering.
func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, data []byte) {
	etag := s.hasher.ETag(data)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("write document failed", zap.Error(err))
	}
}

// contentDisposition quotes plain ASCII names and falls back to RFC 2231
// encoding for names that keep accented or CJK characters.
func contentDisposition(name string) string {
	for _, r := range name {
		if r > unicode.MaxASCII {
			return mime.FormatMediaType("attachment", map[string]string{"filename": name})
		}
	}
	return fmt.Sprintf("attachment; filename=%q", name)
}
