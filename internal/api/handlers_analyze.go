package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/newslens/internal/pipeline"
)

type analyzeRequest struct {
	Text          string `json:"text"`
	URL           string `json:"url"`
	Model         string `json:"model"`
	TargetLang    string `json:"target_lang"`
	MaxChunkChars int    `json:"max_chunk_chars"`
	Force         bool   `json:"force"`
}

func (req analyzeRequest) options() pipeline.Options {
	return pipeline.Options{
		Model:         req.Model,
		TargetLang:    req.TargetLang,
		MaxChunkChars: req.MaxChunkChars,
		Force:         req.Force,
	}
}

func (req analyzeRequest) input() (pipeline.JobInput, error) {
	text, url := strings.TrimSpace(req.Text), strings.TrimSpace(req.URL)
	switch {
	case text != "" && url != "":
		return pipeline.JobInput{}, &pipeline.InputError{Reason: "provide either text or url, not both"}
	case url != "":
		return pipeline.JobInput{URL: url}, nil
	default:
		return pipeline.JobInput{Text: req.Text}, nil
	}
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// handleAnalyze runs an analysis synchronously on inline text or a URL.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		writeErr(w, err)
		return
	}

	opts := req.options()
	opts.Source = in.Source()
	text := in.Text
	if in.URL != "" {
		if s.deps.Extractor == nil {
			jsonError(w, "url extraction unavailable", http.StatusServiceUnavailable)
			return
		}
		if text, err = s.deps.Extractor.FromURL(r.Context(), in.URL); err != nil {
			writeErr(w, err)
			return
		}
	}

	res, err := s.deps.Orchestrator.Run(r.Context(), text, opts)
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set(headerAnalysisID, res.ID)
	writeJSON(w, http.StatusOK, res)
}

// handleAnalyzeUpload extracts an uploaded document and analyzes it.
func (s *Server) handleAnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	in, opts, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	if s.deps.Extractor == nil {
		jsonError(w, "upload extraction unavailable", http.StatusServiceUnavailable)
		return
	}

	text, err := s.deps.Extractor.FromUpload(r.Context(), in.Filename, in.Data)
	if err != nil {
		writeErr(w, err)
		return
	}
	opts.Source = in.Source()

	res, err := s.deps.Orchestrator.Run(r.Context(), text, opts)
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set(headerAnalysisID, res.ID)
	writeJSON(w, http.StatusOK, res)
}

// readUpload parses a multipart request carrying "file" and the analysis
// options as form fields.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (pipeline.JobInput, pipeline.Options, bool) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return pipeline.JobInput{}, pipeline.Options{}, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return pipeline.JobInput{}, pipeline.Options{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return pipeline.JobInput{}, pipeline.Options{}, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return pipeline.JobInput{}, pipeline.Options{}, false
	}

	opts := pipeline.Options{
		Model:      r.FormValue("model"),
		TargetLang: r.FormValue("target_lang"),
		Force:      r.FormValue("force") == "true",
	}
	if v := r.FormValue("max_chunk_chars"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "max_chunk_chars must be an integer", http.StatusBadRequest)
			return pipeline.JobInput{}, pipeline.Options{}, false
		}
		opts.MaxChunkChars = n
	}

	return pipeline.JobInput{Filename: sanitizeFilename(header.Filename), Data: data}, opts, true
}

// handleSubmitJob queues an analysis. JSON bodies carry text or a URL;
// multipart bodies carry an uploaded file.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var (
		in   pipeline.JobInput
		opts pipeline.Options
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		var ok bool
		if in, opts, ok = s.readUpload(w, r); !ok {
			return
		}
	} else {
		var req analyzeRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		var err error
		if in, err = req.input(); err != nil {
			writeErr(w, err)
			return
		}
		if in.URL == "" && strings.TrimSpace(in.Text) == "" {
			writeErr(w, &pipeline.InputError{Reason: "text or url is required"})
			return
		}
		opts = req.options()
	}

	job := pipeline.NewJob(in, opts)
	if err := s.deps.Orchestrator.Submit(job); err != nil {
		if errors.Is(err, pipeline.ErrQueueFull) {
			s.log.Warn("job rejected", "job_id", job.ID, "error", err)
		}
		writeErr(w, err)
		return
	}

	w.Header().Set(headerJobID, job.ID)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": "/api/jobs/" + job.ID,
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.deps.Orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set(headerJobID, job.ID)
	writeJSON(w, http.StatusOK, job.Snapshot())
}
