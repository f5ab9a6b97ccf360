package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Port string `koanf:"port"`

	// Auth for /api routes. Empty disables auth.
	APIKey string `koanf:"api_key"`

	// Completion service (OpenAI-compatible endpoint, Groq by default)
	LLMAPIKey      string        `koanf:"llm_api_key"`
	LLMBaseURL     string        `koanf:"llm_base_url"`
	DefaultModel   string        `koanf:"default_model"`
	FallbackModels []string      `koanf:"fallback_models"`
	LLMTimeout     time.Duration `koanf:"llm_timeout"`
	LLMMaxRetries  int           `koanf:"llm_max_retries"`
	ModelCacheTTL  time.Duration `koanf:"model_cache_ttl"`

	// Analysis defaults
	MaxChunkChars        int  `koanf:"max_chunk_chars"`
	SummaryMaxTokens     int  `koanf:"summary_max_tokens"`
	SummaryMaxDepth      int  `koanf:"summary_max_depth"`
	SummaryConcurrency   int  `koanf:"summary_concurrency"`
	SentimentMaxTokens   int  `koanf:"sentiment_max_tokens"`
	SentimentJSONSchema  bool `koanf:"sentiment_json_schema"`
	TranslationMaxTokens int  `koanf:"translation_max_tokens"`

	// Headline ticker
	HeadlineFeeds    []string      `koanf:"headline_feeds"`
	HeadlineLimit    int           `koanf:"headline_limit"`
	HeadlineCacheTTL time.Duration `koanf:"headline_cache_ttl"`

	// Ingestion
	FetchTimeout         time.Duration `koanf:"fetch_timeout"`
	MaxUploadBytes       int64         `koanf:"max_upload_bytes"`
	PDFFallbackPdftotext bool          `koanf:"pdf_fallback_pdftotext"`

	// Worker pool
	WorkerCount  int           `koanf:"worker_count"`
	MaxQueueSize int           `koanf:"max_queue_size"`
	JobTTL       time.Duration `koanf:"job_ttl"`

	// History
	DBPath string `koanf:"db_path"`

	LogLevel string `koanf:"log_level"`
	LogJSON  bool   `koanf:"log_json"`
}

// envKeys maps environment variable names to config keys.
var envKeys = map[string]string{
	"PORT":                   "port",
	"NEWSLENS_API_KEY":       "api_key",
	"GROQ_API_KEY":           "llm_api_key",
	"GROQ_API_BASE":          "llm_base_url",
	"DEFAULT_MODEL":          "default_model",
	"FALLBACK_MODELS":        "fallback_models",
	"LLM_TIMEOUT":            "llm_timeout",
	"LLM_MAX_RETRIES":        "llm_max_retries",
	"MODEL_CACHE_TTL":        "model_cache_ttl",
	"MAX_CHUNK_CHARS":        "max_chunk_chars",
	"SUMMARY_MAX_TOKENS":     "summary_max_tokens",
	"SUMMARY_MAX_DEPTH":      "summary_max_depth",
	"SUMMARY_CONCURRENCY":    "summary_concurrency",
	"SENTIMENT_MAX_TOKENS":   "sentiment_max_tokens",
	"SENTIMENT_JSON_SCHEMA":  "sentiment_json_schema",
	"TRANSLATION_MAX_TOKENS": "translation_max_tokens",
	"HEADLINE_FEEDS":         "headline_feeds",
	"HEADLINE_LIMIT":         "headline_limit",
	"HEADLINE_CACHE_TTL":     "headline_cache_ttl",
	"FETCH_TIMEOUT":          "fetch_timeout",
	"MAX_UPLOAD_BYTES":       "max_upload_bytes",
	"PDF_FALLBACK_PDFTOTEXT": "pdf_fallback_pdftotext",
	"WORKER_COUNT":           "worker_count",
	"MAX_QUEUE_SIZE":         "max_queue_size",
	"JOB_TTL":                "job_ttl",
	"DB_PATH":                "db_path",
	"LOG_LEVEL":              "log_level",
	"LOG_JSON":               "log_json",
}

// listKeys are split on commas when read from the environment.
var listKeys = map[string]bool{
	"fallback_models": true,
	"headline_feeds":  true,
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port: "8090",

		LLMBaseURL:   "https://api.groq.com/openai/v1",
		DefaultModel: "llama-3.1-8b-instant",
		FallbackModels: []string{
			"llama-3.1-8b-instant",
			"llama-3.3-70b-versatile",
			"groq/compound-mini",
		},
		LLMTimeout:    120 * time.Second,
		LLMMaxRetries: 3,
		ModelCacheTTL: 5 * time.Minute,

		MaxChunkChars:        3000,
		SummaryMaxTokens:     300,
		SummaryMaxDepth:      8,
		SummaryConcurrency:   1,
		SentimentMaxTokens:   150,
		TranslationMaxTokens: 2000,

		HeadlineFeeds: []string{
			"http://feeds.bbci.co.uk/news/rss.xml",
			"http://feeds.reuters.com/reuters/topNews",
			"https://rss.nytimes.com/services/xml/rss/nyt/HomePage.xml",
			"https://www.aljazeera.com/xml/rss/all.xml",
		},
		HeadlineLimit:    30,
		HeadlineCacheTTL: 3 * time.Minute,

		FetchTimeout:         10 * time.Second,
		MaxUploadBytes:       52428800, // 50MB
		PDFFallbackPdftotext: true,

		WorkerCount:  2,
		MaxQueueSize: 50,
		JobTTL:       1 * time.Hour,

		DBPath: "newslens.db",

		LogLevel: "info",
	}
}

// Load layers struct defaults and environment variables.
func Load() (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			path, ok := envKeys[key]
			if !ok || strings.TrimSpace(value) == "" {
				return "", nil
			}
			if listKeys[path] {
				return path, splitList(value)
			}
			return path, value
		},
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyFallbacks()
	return cfg, nil
}

func (c *Config) applyFallbacks() {
	def := Default()
	if c.LLMMaxRetries < 0 {
		c.LLMMaxRetries = 0
	}
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = def.LLMTimeout
	}
	if c.ModelCacheTTL <= 0 {
		c.ModelCacheTTL = def.ModelCacheTTL
	}
	if len(c.FallbackModels) == 0 {
		c.FallbackModels = def.FallbackModels
	}
	if c.DefaultModel == "" {
		c.DefaultModel = c.FallbackModels[0]
	}
	if c.SummaryMaxTokens <= 0 {
		c.SummaryMaxTokens = def.SummaryMaxTokens
	}
	if c.SummaryMaxDepth <= 0 {
		c.SummaryMaxDepth = def.SummaryMaxDepth
	}
	if c.SummaryConcurrency <= 0 {
		c.SummaryConcurrency = def.SummaryConcurrency
	}
	if c.SentimentMaxTokens <= 0 {
		c.SentimentMaxTokens = def.SentimentMaxTokens
	}
	if c.TranslationMaxTokens <= 0 {
		c.TranslationMaxTokens = def.TranslationMaxTokens
	}
	if c.HeadlineLimit <= 0 {
		c.HeadlineLimit = def.HeadlineLimit
	}
	if c.HeadlineCacheTTL <= 0 {
		c.HeadlineCacheTTL = def.HeadlineCacheTTL
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = def.FetchTimeout
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = def.MaxUploadBytes
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = def.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = def.MaxQueueSize
	}
	if c.JobTTL <= 0 {
		c.JobTTL = def.JobTTL
	}
}

// Chunk bounds accepted from callers.
const (
	MinChunkChars = 800
	MaxChunkChars = 10000
)

func (c Config) Validate() error {
	if c.LLMAPIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	if c.LLMBaseURL == "" {
		return fmt.Errorf("GROQ_API_BASE must not be empty")
	}
	if err := ValidateChunkChars(c.MaxChunkChars); err != nil {
		return fmt.Errorf("MAX_CHUNK_CHARS: %w", err)
	}
	return nil
}

// ValidateChunkChars checks a caller-supplied chunk bound.
func ValidateChunkChars(n int) error {
	if n < MinChunkChars || n > MaxChunkChars {
		return fmt.Errorf("chunk size %d outside [%d, %d]", n, MinChunkChars, MaxChunkChars)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
