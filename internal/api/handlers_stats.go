package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/newslens/internal/feed"
	"github.com/dgallion1/newslens/internal/store"
)

// tickerItems is how many headlines the ticker line carries.
const tickerItems = 20

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.LLMStats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model": s.deps.Orchestrator.DefaultModel(),
		"stats": s.deps.LLMStats.Snapshot(),
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if s.deps.Models == nil {
		jsonError(w, "model catalog unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"default": s.deps.Orchestrator.DefaultModel(),
		"models":  s.deps.Models.Models(r.Context()),
	})
}

func (s *Server) handleHeadlines(w http.ResponseWriter, r *http.Request) {
	if s.deps.Headlines == nil {
		jsonError(w, "headlines unavailable", http.StatusServiceUnavailable)
		return
	}
	limit, ok := queryLimit(w, r, s.cfg.HeadlineLimit)
	if !ok {
		return
	}
	headlines := s.deps.Headlines.Headlines(r.Context(), limit)
	if headlines == nil {
		headlines = []feed.Headline{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"headlines": headlines,
		"ticker":    feed.Ticker(headlines, tickerItems),
	})
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		jsonError(w, "history unavailable", http.StatusServiceUnavailable)
		return
	}
	limit, ok := queryLimit(w, r, 20)
	if !ok {
		return
	}
	records, err := s.deps.History.List(r.Context(), limit)
	if err != nil {
		s.log.Error("list analyses failed", "error", err)
		jsonError(w, "failed to list analyses", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": records})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		jsonError(w, "history unavailable", http.StatusServiceUnavailable)
		return
	}
	rec, err := s.deps.History.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func queryLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
