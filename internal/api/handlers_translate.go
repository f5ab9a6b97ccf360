package api

import (
	"net/http"
	"strings"

	"github.com/dgallion1/newslens/internal/pipeline"
)

type translateRequest struct {
	Texts      []string `json:"texts"`
	TargetLang string   `json:"target_lang"`
	Model      string   `json:"model"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Model == "" {
		req.Model = s.deps.Orchestrator.DefaultModel()
	}

	items, err := s.deps.Orchestrator.TranslateBatch(r.Context(), req.Texts, req.TargetLang, req.Model)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"target_lang": strings.TrimSpace(req.TargetLang),
		"model":       req.Model,
		"results":     items,
	})
}

type summarizeRequest struct {
	Text          string `json:"text"`
	Model         string `json:"model"`
	MaxChunkChars int    `json:"max_chunk_chars"`
}

// handleSummarize translates foreign text to English before summarizing.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeErr(w, &pipeline.InputError{Reason: "text is required"})
		return
	}
	if req.Model == "" {
		req.Model = s.deps.Orchestrator.DefaultModel()
	}

	summary, err := s.deps.Orchestrator.SummarizeForeign(r.Context(), req.Text, req.Model, req.MaxChunkChars)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"summary": summary,
		"model":   req.Model,
	})
}
