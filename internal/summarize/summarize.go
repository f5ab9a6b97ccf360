package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/newslens/internal/chunker"
	"github.com/dgallion1/newslens/internal/llm"
)

const (
	systemPrompt = "You are a helpful assistant that writes concise, factual summaries."
	userPrompt   = "Summarize this text:\n\n"
)

var (
	ErrEmptyText = errors.New("no text to summarize")
	// ErrNotConverging is returned when a reduce level does not shrink
	// its input or the depth limit is reached.
	ErrNotConverging = errors.New("summary reduction is not converging")
)

type Config struct {
	MaxTokens   int // per chunk summary
	MaxDepth    int // reduce levels, including the first map
	Concurrency int // chunk summaries in flight
}

func DefaultConfig() Config {
	return Config{MaxTokens: 300, MaxDepth: 8, Concurrency: 1}
}

type Summarizer struct {
	llm llm.Completer
	cfg Config
	log *slog.Logger
}

func New(c llm.Completer, cfg Config, log *slog.Logger) *Summarizer {
	def := DefaultConfig()
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if log == nil {
		log = slog.Default()
	}
	return &Summarizer{llm: c, cfg: cfg, log: log.With("component", "summarize")}
}

// Summarize summarizes each chunk of text, then summarizes the joined
// partial summaries again until a single summary remains.
func (s *Summarizer) Summarize(ctx context.Context, text, model string, maxChunkChars int) (string, error) {
	return s.reduce(ctx, text, model, maxChunkChars, 0)
}

func (s *Summarizer) reduce(ctx context.Context, text, model string, maxChunkChars, depth int) (string, error) {
	chunks := chunker.Chunk(text, maxChunkChars)
	if len(chunks) == 0 {
		return "", ErrEmptyText
	}

	start := time.Now()
	partials, err := s.mapChunks(ctx, chunks, model)
	if err != nil {
		return "", err
	}
	s.log.Debug("summary level done",
		"depth", depth,
		"chunks", len(chunks),
		"est_tokens", chunker.EstimateTokensAll(chunks),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if len(partials) == 1 {
		return partials[0], nil
	}

	if depth+1 >= s.cfg.MaxDepth {
		return "", fmt.Errorf("%w: reached depth %d with %d partial summaries", ErrNotConverging, depth+1, len(partials))
	}
	joined := strings.Join(partials, " ")
	if before, after := utf8.RuneCountInString(text), utf8.RuneCountInString(joined); after >= before {
		return "", fmt.Errorf("%w: level %d grew from %d to %d chars", ErrNotConverging, depth, before, after)
	}
	return s.reduce(ctx, joined, model, maxChunkChars, depth+1)
}

// mapChunks summarizes chunks independently, keeping chunk order.
func (s *Summarizer) mapChunks(ctx context.Context, chunks []string, model string) ([]string, error) {
	out := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			summary, err := s.llm.Complete(gctx, llm.Request{
				System:      systemPrompt,
				User:        userPrompt + chunk,
				Model:       model,
				MaxTokens:   s.cfg.MaxTokens,
				Temperature: 0,
			})
			if err != nil {
				return fmt.Errorf("summarize chunk %d/%d: %w", i+1, len(chunks), err)
			}
			out[i] = strings.TrimSpace(summary)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
