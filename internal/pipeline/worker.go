package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Worker processes a single queued job.
type Worker struct {
	orch      *Orchestrator
	extractor Extractor
	log       *slog.Logger
}

func NewWorker(orch *Orchestrator, extractor Extractor, log *slog.Logger) *Worker {
	return &Worker{orch: orch, extractor: extractor, log: log}
}

// Process extracts text for the job, then runs the analysis.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "source", job.Options.Source)
	metrics := w.orch.deps.Metrics

	// Phase 1: Extract
	job.SetStatus(StatusExtracting, "extracting")
	text, err := w.extract(ctx, job.Input())
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.Fail("extracting", err.Error())
		metrics.Job(string(StatusFailed))
		return
	}
	job.releaseInput()

	// Phase 2: Analyze
	job.SetStatus(StatusAnalyzing, "analyzing")
	res, err := w.orch.Run(ctx, text, job.Options)
	if err != nil {
		var inputErr *InputError
		if errors.As(err, &inputErr) {
			log.Warn("input rejected", "reason", inputErr.Reason)
		} else {
			log.Error("analysis failed", "error", err)
		}
		job.Fail("analyzing", err.Error())
		metrics.Job(string(StatusFailed))
		return
	}

	status := job.Finish(res)
	metrics.Job(string(status))
	log.Info("job finished", "status", status, "analysis_id", res.ID)
}

func (w *Worker) extract(ctx context.Context, in JobInput) (string, error) {
	switch {
	case in.URL != "":
		if w.extractor == nil {
			return "", fmt.Errorf("no extractor configured for url input")
		}
		return w.extractor.FromURL(ctx, in.URL)
	case in.Data != nil:
		if w.extractor == nil {
			return "", fmt.Errorf("no extractor configured for upload input")
		}
		return w.extractor.FromUpload(ctx, in.Filename, in.Data)
	default:
		return in.Text, nil
	}
}
