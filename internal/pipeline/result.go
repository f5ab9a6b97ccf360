package pipeline

import (
	"time"

	"github.com/dgallion1/newslens/internal/langdetect"
	"github.com/dgallion1/newslens/internal/sentiment"
)

const (
	StageSummary     = "summary"
	StageSentiment   = "sentiment"
	StageTranslation = "translation"
)

// Result is one analysis. Detection is always present; each of summary,
// sentiment and translation carries either a value or an error message.
type Result struct {
	ID            string `json:"id"`
	ContentHash   string `json:"content_hash"`
	Model         string `json:"model"`
	TargetLang    string `json:"target_lang"`
	MaxChunkChars int    `json:"max_chunk_chars"`
	Source        string `json:"source,omitempty"`

	Detection langdetect.Guess `json:"detection"`

	Summary      *string `json:"summary,omitempty"`
	SummaryError string  `json:"summary_error,omitempty"`

	Sentiment      *sentiment.Result `json:"sentiment,omitempty"`
	SentimentError string            `json:"sentiment_error,omitempty"`

	Translation      *string `json:"translation,omitempty"`
	TranslationError string  `json:"translation_error,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Cached is set when the result came from history instead of a new run.
	Cached bool `json:"cached,omitempty"`
}

func (r *Result) setSummary(v string, err error) {
	if err != nil {
		r.SummaryError = err.Error()
		return
	}
	r.Summary = &v
}

func (r *Result) setSentiment(v sentiment.Result, err error) {
	if err != nil {
		r.SentimentError = err.Error()
		return
	}
	r.Sentiment = &v
}

func (r *Result) setTranslation(v string, err error) {
	if err != nil {
		r.TranslationError = err.Error()
		return
	}
	r.Translation = &v
}

// StageErrors maps failed stage names to their messages.
func (r *Result) StageErrors() map[string]string {
	errs := map[string]string{}
	if r.SummaryError != "" {
		errs[StageSummary] = r.SummaryError
	}
	if r.SentimentError != "" {
		errs[StageSentiment] = r.SentimentError
	}
	if r.TranslationError != "" {
		errs[StageTranslation] = r.TranslationError
	}
	return errs
}

// Status summarizes stage outcomes as completed, partial or failed.
func (r *Result) Status() JobStatus {
	switch len(r.StageErrors()) {
	case 0:
		return StatusCompleted
	case 3:
		return StatusFailed
	default:
		return StatusPartial
	}
}
