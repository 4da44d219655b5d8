package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/intelliquery/intelliquery/internal/engine"
	"github.com/intelliquery/intelliquery/internal/extract"
	"github.com/intelliquery/intelliquery/internal/models"
	"github.com/intelliquery/intelliquery/internal/vector"
)

// maxUploadMemory bounds the in-memory part of multipart parsing; larger
// uploads spill to temp files.
const maxUploadMemory = 32 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		s.respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	s.logger.Debug("upload request", zap.String("session_id", sessionID), zap.String("filename", header.Filename))
	count, err := s.engine.IngestReader(r.Context(), sessionID, header.Filename, file)
	if err != nil {
		s.logger.Error("upload processing failed", zap.String("filename", header.Filename), zap.Error(err))
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.UploadResponse{
		SessionID: sessionID,
		Filename:  header.Filename,
		Message:   fmt.Sprintf("Document processed and indexed successfully. Total chunks: %d", count),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("query request", zap.String("session_id", req.SessionID))
	answer, err := s.engine.Ask(r.Context(), req.SessionID, req.Question)
	if err != nil {
		s.logger.Error("query failed", zap.String("session_id", req.SessionID), zap.Error(err))
		s.respondEngineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleBulkRun(w http.ResponseWriter, r *http.Request) {
	var req models.BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("bulk run request", zap.Int("documents", len(req.Documents)), zap.Int("questions", len(req.Questions)))
	answers, err := s.engine.BulkRun(r.Context(), req.Documents, req.Questions)
	if err != nil {
		s.logger.Error("bulk run failed", zap.Error(err))
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.BulkResponse{Answers: answers})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	if sessionID == "" {
		s.respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if err := s.engine.DeleteSession(r.Context(), sessionID); err != nil {
		s.logger.Error("session delete failed", zap.String("session_id", sessionID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"session_id": sessionID, "status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "IntelliQuery is running"})
}

// respondEngineError maps pipeline errors to status codes: unsupported input
// 400, searching before any build 409, nothing retrieved 404, everything else 500.
func (s *Server) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, extract.ErrUnsupportedType):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, vector.ErrNotBuilt):
		s.respondError(w, http.StatusConflict, "index not built for this session; upload a document first")
	case errors.Is(err, engine.ErrNoRelevantClauses):
		s.respondError(w, http.StatusNotFound, "could not find relevant clauses for your query")
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
