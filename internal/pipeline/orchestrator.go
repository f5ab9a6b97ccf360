package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/newslens/internal/config"
	"github.com/dgallion1/newslens/internal/langdetect"
	"github.com/dgallion1/newslens/internal/metrics"
	"github.com/dgallion1/newslens/internal/sentiment"
	"github.com/dgallion1/newslens/internal/store"
	"github.com/dgallion1/newslens/internal/translate"
)

type Detector interface {
	Detect(text string) langdetect.Guess
}

type Summarizer interface {
	Summarize(ctx context.Context, text, model string, maxChunkChars int) (string, error)
}

type Classifier interface {
	Classify(ctx context.Context, text, model string) (sentiment.Result, error)
}

type Translator interface {
	Translate(ctx context.Context, text, targetLang, model string) (string, error)
	AutoTranslateToEnglish(ctx context.Context, text, model string) (string, error)
	TranslateBatch(ctx context.Context, texts []string, targetLang, model string) []translate.Item
}

// Extractor turns raw job input into text.
type Extractor interface {
	FromURL(ctx context.Context, url string) (string, error)
	FromUpload(ctx context.Context, filename string, data []byte) (string, error)
}

// History persists results. Optional.
type History interface {
	Save(ctx context.Context, rec store.Record) error
	FindByHash(ctx context.Context, hash, model, targetLang string, maxChunkChars int) (store.Record, bool, error)
}

// Deps are the collaborators an Orchestrator runs.
type Deps struct {
	Detector   Detector
	Summarizer Summarizer
	Classifier Classifier
	Translator Translator
	Extractor  Extractor
	History    History
	Metrics    *metrics.Metrics
}

// Options select the model and settings for one analysis. Zero values
// take the configured defaults.
type Options struct {
	Model         string `json:"model"`
	TargetLang    string `json:"target_lang"`
	MaxChunkChars int    `json:"max_chunk_chars"`
	// Force skips the history lookup for identical input.
	Force  bool   `json:"force"`
	Source string `json:"-"`
}

// Orchestrator runs analyses synchronously and through the job queue.
type Orchestrator struct {
	deps Deps
	log  *slog.Logger
	cfg  config.Config

	jobs  *JobStore
	queue chan *Job

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start before Submit.
func NewOrchestrator(cfg config.Config, deps Deps, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		deps:  deps,
		log:   log,
		cfg:   cfg,
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
	}
}

func (o *Orchestrator) withDefaults(opts Options) (Options, error) {
	if opts.Model == "" {
		opts.Model = o.cfg.DefaultModel
	}
	opts.TargetLang = strings.ToLower(strings.TrimSpace(opts.TargetLang))
	if opts.TargetLang == "" {
		opts.TargetLang = translate.English
	}
	if opts.MaxChunkChars == 0 {
		opts.MaxChunkChars = o.cfg.MaxChunkChars
	}
	if err := config.ValidateChunkChars(opts.MaxChunkChars); err != nil {
		return opts, &InputError{Reason: err.Error()}
	}
	return opts, nil
}

// Run detects the language of text, then summarizes, classifies and
// translates it concurrently. Stage failures are recorded in the result;
// only input problems are returned as errors.
func (o *Orchestrator) Run(ctx context.Context, text string, opts Options) (*Result, error) {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinTextChars {
		return nil, &InputError{Reason: NoContentMessage}
	}
	opts, err := o.withDefaults(opts)
	if err != nil {
		return nil, err
	}

	hash := ContentHashHex([]byte(text))
	log := o.log.With("content_hash", hash[:12], "model", opts.Model, "target_lang", opts.TargetLang)

	if !opts.Force {
		if cached, ok := o.lookup(ctx, hash, opts, log); ok {
			return cached, nil
		}
	}

	start := time.Now()
	res := &Result{
		ID:            newID(),
		ContentHash:   hash,
		Model:         opts.Model,
		TargetLang:    opts.TargetLang,
		MaxChunkChars: opts.MaxChunkChars,
		Source:        opts.Source,
		StartedAt:     start.UTC(),
	}
	log = log.With("analysis_id", res.ID)

	res.Detection = o.detect(text, log)

	var g errgroup.Group
	g.Go(func() error {
		o.stage(log, StageSummary, func() error {
			summary, err := o.deps.Summarizer.Summarize(ctx, text, opts.Model, opts.MaxChunkChars)
			res.setSummary(summary, err)
			return err
		}, func(err error) { res.setSummary("", err) })
		return nil
	})
	g.Go(func() error {
		o.stage(log, StageSentiment, func() error {
			s, err := o.deps.Classifier.Classify(ctx, text, opts.Model)
			res.setSentiment(s, err)
			return err
		}, func(err error) { res.setSentiment(sentiment.Result{}, err) })
		return nil
	})
	g.Go(func() error {
		o.stage(log, StageTranslation, func() error {
			var (
				out string
				err error
			)
			if opts.TargetLang != translate.English {
				out, err = o.deps.Translator.Translate(ctx, text, opts.TargetLang, opts.Model)
			} else {
				out, err = o.deps.Translator.AutoTranslateToEnglish(ctx, text, opts.Model)
			}
			res.setTranslation(out, err)
			return err
		}, func(err error) { res.setTranslation("", err) })
		return nil
	})
	_ = g.Wait()

	res.FinishedAt = time.Now().UTC()
	elapsed := time.Since(start)
	o.deps.Metrics.Pipeline(elapsed)
	log.Info("analysis finished",
		"detected", res.Detection.String(),
		"status", res.Status(),
		"duration_ms", elapsed.Milliseconds(),
	)

	o.save(ctx, res, log)
	return res, nil
}

// stage runs fn, turning a panic into a stage error via onPanic.
func (o *Orchestrator) stage(log *slog.Logger, name string, fn func() error, onPanic func(error)) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%s stage panicked: %v", name, r)
			onPanic(err)
			o.deps.Metrics.Stage(name, "panic")
			log.Error("stage panicked", "stage", name, "panic", r)
		}
	}()

	if err := fn(); err != nil {
		o.deps.Metrics.Stage(name, "error")
		log.Warn("stage failed", "stage", name, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	o.deps.Metrics.Stage(name, "ok")
	log.Debug("stage done", "stage", name, "duration_ms", time.Since(start).Milliseconds())
}

func (o *Orchestrator) detect(text string, log *slog.Logger) (guess langdetect.Guess) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("detector panicked", "panic", r)
			guess = langdetect.Undetermined()
		}
	}()
	return o.deps.Detector.Detect(text)
}

func (o *Orchestrator) lookup(ctx context.Context, hash string, opts Options, log *slog.Logger) (*Result, bool) {
	if o.deps.History == nil {
		return nil, false
	}
	rec, ok, err := o.deps.History.FindByHash(ctx, hash, opts.Model, opts.TargetLang, opts.MaxChunkChars)
	if err != nil {
		log.Warn("history lookup failed, proceeding", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(rec.Result, &res); err != nil {
		log.Warn("stored result unreadable, proceeding", "id", rec.ID, "error", err)
		return nil, false
	}
	res.Cached = true
	log.Info("identical input already analyzed", "existing_id", rec.ID)
	return &res, true
}

// save stores completed results only, so a stage that failed once is
// retried on the next identical request.
func (o *Orchestrator) save(ctx context.Context, res *Result, log *slog.Logger) {
	if o.deps.History == nil {
		return
	}
	if status := res.Status(); status != StatusCompleted {
		log.Debug("result not stored", "status", status)
		return
	}
	body, err := json.Marshal(res)
	if err != nil {
		log.Error("encode result failed", "error", err)
		return
	}
	err = o.deps.History.Save(ctx, store.Record{
		ID:            res.ID,
		ContentHash:   res.ContentHash,
		Model:         res.Model,
		TargetLang:    res.TargetLang,
		MaxChunkChars: res.MaxChunkChars,
		Source:        res.Source,
		CreatedAt:     res.FinishedAt,
		Result:        body,
	})
	if err != nil {
		log.Warn("history save failed", "error", err)
	}
}

// SummarizeForeign translates text to English when needed, then
// summarizes the English text.
func (o *Orchestrator) SummarizeForeign(ctx context.Context, text, model string, maxChunkChars int) (string, error) {
	opts, err := o.withDefaults(Options{Model: model, MaxChunkChars: maxChunkChars})
	if err != nil {
		return "", err
	}
	english, err := o.deps.Translator.AutoTranslateToEnglish(ctx, text, opts.Model)
	if err != nil {
		return "", err
	}
	return o.deps.Summarizer.Summarize(ctx, english, opts.Model, opts.MaxChunkChars)
}

// TranslateBatch translates each text independently, in order.
func (o *Orchestrator) TranslateBatch(ctx context.Context, texts []string, targetLang, model string) ([]translate.Item, error) {
	if len(texts) == 0 {
		return nil, &InputError{Reason: "no texts to translate"}
	}
	targetLang = strings.TrimSpace(targetLang)
	if targetLang == "" {
		return nil, &InputError{Reason: "target language is required"}
	}
	if model == "" {
		model = o.cfg.DefaultModel
	}
	return o.deps.Translator.TranslateBatch(ctx, texts, targetLang, model), nil
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o, o.deps.Extractor, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.Fail("queued", "queue_full")
		o.deps.Metrics.Job(string(StatusFailed))
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// DefaultModel is the model used when a request names none.
func (o *Orchestrator) DefaultModel() string {
	return o.cfg.DefaultModel
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
