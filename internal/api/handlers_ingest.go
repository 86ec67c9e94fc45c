package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/pipeline"
)

const (
	maxRequestBytes = 1 << 20
	maxBatchSize    = 100
)

type ingestRequest struct {
	DocPath  string `json:"doc_path"`
	Mimetype string `json:"mimetype"`
	DocID    string `json:"doc_id,omitempty"`
}

type batchRequest struct {
	Documents []ingestRequest `json:"documents"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.checkRequest(req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(strings.TrimSpace(req.DocID), req.DocPath, req.Mimetype)
	if err := s.jobs.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, queuedResponse(job))
}

func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Documents) == 0 {
		jsonError(w, "at least one document is required", http.StatusBadRequest)
		return
	}
	if len(req.Documents) > maxBatchSize {
		jsonError(w, fmt.Sprintf("batch exceeds %d documents", maxBatchSize), http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(req.Documents))
	for _, doc := range req.Documents {
		if err := s.checkRequest(doc); err != nil {
			results = append(results, map[string]any{
				"doc_path": doc.DocPath,
				"error":    err.Error(),
			})
			continue
		}

		job := pipeline.NewJob(strings.TrimSpace(doc.DocID), doc.DocPath, doc.Mimetype)
		if err := s.jobs.Submit(job); err != nil {
			results = append(results, map[string]any{
				"doc_path": doc.DocPath,
				"error":    err.Error(),
			})
			continue
		}
		res := queuedResponse(job)
		res["doc_path"] = doc.DocPath
		results = append(results, res)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.jobs.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) checkRequest(req ingestRequest) error {
	if strings.TrimSpace(req.DocPath) == "" {
		return fmt.Errorf("doc_path is required")
	}
	if s.opts.CheckExtension && !parser.IsSupportedExtension(req.DocPath) {
		return fmt.Errorf("unsupported file type: %s", filepath.Ext(req.DocPath))
	}
	return nil
}

func queuedResponse(job *pipeline.Job) map[string]any {
	snap := job.Snapshot()
	return map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", snap.ID),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
