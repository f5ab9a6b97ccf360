package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/invopop/jsonschema"

	"github.com/dgallion1/newslens/internal/chunker"
	"github.com/dgallion1/newslens/internal/llm"
)

const (
	// LongTextChars is the length above which only a leading sample is classified.
	LongTextChars    = 12000
	sampleChunkChars = 8000
	sampleChunks     = 2

	systemPrompt = "You are a sentiment analysis assistant. Answer strictly in JSON with fields label and score."
	userPrompt   = "Read the following text and return a JSON exactly in this format:\n" +
		`{"label":"positive"|"neutral"|"negative","score":<float_between_-1_and_1>}` +
		" \n\nText:\n\n"
)

type Config struct {
	MaxTokens int
	// UseSchema requests strict JSON output from the service.
	UseSchema bool
}

func DefaultConfig() Config {
	return Config{MaxTokens: 150}
}

type Classifier struct {
	llm    llm.Completer
	cfg    Config
	schema *llm.Schema
	log    *slog.Logger
}

func New(c llm.Completer, cfg Config, log *slog.Logger) (*Classifier, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	if log == nil {
		log = slog.Default()
	}
	cl := &Classifier{llm: c, cfg: cfg, log: log.With("component", "sentiment")}
	if cfg.UseSchema {
		s, err := responseSchema()
		if err != nil {
			return nil, fmt.Errorf("sentiment schema: %w", err)
		}
		cl.schema = s
	}
	return cl, nil
}

// Classify labels text. Only request failures are returned as errors;
// malformed responses resolve through Parse.
func (c *Classifier) Classify(ctx context.Context, text, model string) (Result, error) {
	raw, err := c.llm.Complete(ctx, llm.Request{
		System:      systemPrompt,
		User:        userPrompt + Sample(text),
		Model:       model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: 0,
		Schema:      c.schema,
	})
	if err != nil {
		return Result{}, fmt.Errorf("classify sentiment: %w", err)
	}

	res, state := parse(raw)
	if state != tryStrictParse {
		c.log.Debug("sentiment response not strict JSON", "resolved_by", state.String())
	}
	return res, nil
}

// Sample returns text unchanged unless it is longer than LongTextChars,
// in which case it returns the first two 8000-char chunks joined.
func Sample(text string) string {
	if utf8.RuneCountInString(text) <= LongTextChars {
		return text
	}
	chunks := chunker.Chunk(text, sampleChunkChars)
	if len(chunks) > sampleChunks {
		chunks = chunks[:sampleChunks]
	}
	return strings.Join(chunks, " ")
}

type responseShape struct {
	Label string  `json:"label" jsonschema:"enum=positive,enum=neutral,enum=negative,description=Overall sentiment"`
	Score float64 `json:"score" jsonschema:"description=Polarity from -1 (negative) to 1 (positive)"`
}

func responseSchema() (*llm.Schema, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	b, err := reflector.Reflect(&responseShape{}).MarshalJSON()
	if err != nil {
		return nil, err
	}
	var def map[string]any
	if err := json.Unmarshal(b, &def); err != nil {
		return nil, err
	}
	delete(def, "$schema")
	delete(def, "$id")
	return &llm.Schema{
		Name:        "sentiment",
		Description: "Sentiment label and score",
		Definition:  def,
	}, nil
}
