package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/newslens/internal/langdetect"
	"github.com/dgallion1/newslens/internal/llm"
)

const (
	English = "en"

	systemPrompt = "You are a professional translator."
)

type Config struct {
	MaxTokens int
	// BatchConcurrency bounds parallel requests in TranslateBatch.
	BatchConcurrency int
}

func DefaultConfig() Config {
	return Config{MaxTokens: 2000, BatchConcurrency: 1}
}

// LanguageDetector is the part of langdetect.Detector the translator uses.
type LanguageDetector interface {
	Detect(text string) langdetect.Guess
}

type Translator struct {
	llm      llm.Completer
	detector LanguageDetector
	cfg      Config
	log      *slog.Logger
}

func New(c llm.Completer, detector LanguageDetector, cfg Config, log *slog.Logger) *Translator {
	def := DefaultConfig()
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = def.BatchConcurrency
	}
	if log == nil {
		log = slog.Default()
	}
	return &Translator{llm: c, detector: detector, cfg: cfg, log: log.With("component", "translate")}
}

func userPrompt(text, lang string) string {
	return fmt.Sprintf("Translate the following text into %s. Always respond only in %s with no explanation:\n\n%s", lang, lang, text)
}

// Translate renders text in targetLang. The output is not checked.
func (t *Translator) Translate(ctx context.Context, text, targetLang, model string) (string, error) {
	out, err := t.llm.Complete(ctx, llm.Request{
		System:      systemPrompt,
		User:        userPrompt(text, targetLang),
		Model:       model,
		MaxTokens:   t.cfg.MaxTokens,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("translate to %s: %w", targetLang, err)
	}
	return strings.TrimSpace(out), nil
}

// AutoTranslateToEnglish returns text unchanged when it is detected as
// English and translates it otherwise, including when detection is
// undetermined.
func (t *Translator) AutoTranslateToEnglish(ctx context.Context, text, model string) (string, error) {
	guess := t.detector.Detect(text)
	if guess.Is(English) {
		return text, nil
	}
	t.log.Debug("translating to english", "detected", guess.String())
	return t.Translate(ctx, text, English, model)
}

// ErrEmptyTranslation marks a batch item the service answered with no text.
var ErrEmptyTranslation = errors.New("empty translation")

// Item is one batch result. Exactly one of Text and Error is set.
type Item struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

func (i Item) OK() bool { return i.Error == "" }

// TranslateBatch translates every text independently. A failed item is
// recorded in its slot and does not stop the others. Order is preserved.
func (t *Translator) TranslateBatch(ctx context.Context, texts []string, targetLang, model string) []Item {
	items := make([]Item, len(texts))
	var g errgroup.Group
	g.SetLimit(t.cfg.BatchConcurrency)

	for i, text := range texts {
		g.Go(func() error {
			out, err := t.Translate(ctx, text, targetLang, model)
			if err == nil && out == "" {
				err = ErrEmptyTranslation
			}
			if err != nil {
				t.log.Warn("batch item failed", "index", i, "error", err)
				items[i] = Item{Error: err.Error()}
				return nil
			}
			items[i] = Item{Text: out}
			return nil
		})
	}
	_ = g.Wait()
	return items
}
