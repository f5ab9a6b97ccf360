package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/newslens/internal/config"
	"github.com/dgallion1/newslens/internal/feed"
	"github.com/dgallion1/newslens/internal/ingest"
	"github.com/dgallion1/newslens/internal/langdetect"
	"github.com/dgallion1/newslens/internal/llm"
	"github.com/dgallion1/newslens/internal/logging"
	"github.com/dgallion1/newslens/internal/metrics"
	"github.com/dgallion1/newslens/internal/pipeline"
	"github.com/dgallion1/newslens/internal/sentiment"
	"github.com/dgallion1/newslens/internal/store"
	"github.com/dgallion1/newslens/internal/translate"
)

const article = "Le gouvernement a annoncé de nouvelles mesures économiques ce matin."

type fakeDetector struct{}

func (fakeDetector) Detect(string) langdetect.Guess {
	code, name := "fr", "French"
	return langdetect.Guess{Code: &code, Name: &name, Score: 0.97}
}

type fakeSummarizer struct{}

func (fakeSummarizer) Summarize(_ context.Context, text, _ string, _ int) (string, error) {
	return "summary of " + text[:10], nil
}

type fakeClassifier struct{}

func (fakeClassifier) Classify(context.Context, string, string) (sentiment.Result, error) {
	return sentiment.Result{Label: sentiment.Neutral, Score: 0.1}, nil
}

type fakeTranslator struct{}

func (fakeTranslator) Translate(_ context.Context, text, lang, _ string) (string, error) {
	return lang + ":" + text, nil
}

func (fakeTranslator) AutoTranslateToEnglish(_ context.Context, text, _ string) (string, error) {
	return "The government announced new economic measures this morning.", nil
}

func (fakeTranslator) TranslateBatch(_ context.Context, texts []string, lang, _ string) []translate.Item {
	items := make([]translate.Item, len(texts))
	for i, t := range texts {
		if t == "bad" {
			items[i] = translate.Item{Error: "translation failed"}
			continue
		}
		items[i] = translate.Item{Text: lang + ":" + t}
	}
	return items
}

type fakeExtractor struct{}

func (fakeExtractor) FromURL(_ context.Context, url string) (string, error) {
	if strings.Contains(url, "broken") {
		return "", &ingest.ExtractionError{Source: url, Err: assert.AnError}
	}
	return article, nil
}

func (fakeExtractor) FromUpload(_ context.Context, filename string, data []byte) (string, error) {
	return string(data), nil
}

type fakeCatalog struct{}

func (fakeCatalog) Models(context.Context) []string {
	return []string{"llama-3.1-8b-instant", "llama-3.3-70b-versatile"}
}

type fakeHeadlines struct{}

func (fakeHeadlines) Headlines(_ context.Context, limit int) []feed.Headline {
	all := []feed.Headline{
		{Title: "One", Link: "https://a/1", Source: "BBC"},
		{Title: "Two", Link: "https://a/2", Source: "NYT"},
	}
	return all[:min(limit, len(all))]
}

type testEnv struct {
	srv   *Server
	orch  *pipeline.Orchestrator
	store *store.Store
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.LLMAPIKey = "k"
	cfg.WorkerCount = 1
	cfg.MaxQueueSize = 4
	if mutate != nil {
		mutate(&cfg)
	}

	st, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m := metrics.New()
	orch := pipeline.NewOrchestrator(cfg, pipeline.Deps{
		Detector:   fakeDetector{},
		Summarizer: fakeSummarizer{},
		Classifier: fakeClassifier{},
		Translator: fakeTranslator{},
		Extractor:  fakeExtractor{},
		History:    st,
		Metrics:    m,
	}, logging.Discard())

	srv := NewServer(Deps{
		Orchestrator: orch,
		Extractor:    fakeExtractor{},
		Models:       fakeCatalog{},
		Headlines:    fakeHeadlines{},
		History:      st,
		LLMStats:     llm.NewStats(time.Hour),
		Metrics:      m,
	}, logging.Discard(), cfg)
	return &testEnv{srv: srv, orch: orch, store: st}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/analyze", map[string]any{"text": article})

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "newslens_stage_total")
}

func TestAnalyze_Text(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/analyze", map[string]any{"text": article, "target_lang": "es"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "es:"+article, body["translation"])
	assert.Equal(t, "summary of Le gouvern", body["summary"])
	assert.Equal(t, "text", body["source"])
	assert.Equal(t, body["id"], rec.Header().Get(headerAnalysisID))
	detection := body["detection"].(map[string]any)
	assert.Equal(t, "fr", detection["code"])
}

func TestAnalyze_URL(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/analyze", map[string]any{"url": "https://news.example/story"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "url:https://news.example/story", body["source"])
	assert.Equal(t, "The government announced new economic measures this morning.", body["translation"])
}

func TestAnalyze_ErrorStatuses(t *testing.T) {
	env := newTestEnv(t, nil)
	tests := []struct {
		name string
		body any
		want int
	}{
		{"short text", map[string]any{"text": "too short"}, http.StatusBadRequest},
		{"empty body", map[string]any{}, http.StatusBadRequest},
		{"text and url", map[string]any{"text": article, "url": "https://x"}, http.StatusBadRequest},
		{"chunk size out of range", map[string]any{"text": article, "max_chunk_chars": 100}, http.StatusBadRequest},
		{"extraction failure", map[string]any{"url": "https://broken.example"}, http.StatusUnprocessableEntity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/analyze", tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestAnalyze_InvalidJSON(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAnalyzeUpload(t *testing.T) {
	env := newTestEnv(t, nil)
	body, ct := multipartBody(t, "../../etc/story.txt", article, map[string]string{"target_lang": "ar"})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "upload:story.txt", out["source"])
	assert.Equal(t, "ar", out["target_lang"])
}

func TestAnalyzeUpload_BadChunkField(t *testing.T) {
	env := newTestEnv(t, nil)
	body, ct := multipartBody(t, "a.txt", article, map[string]string{"max_chunk_chars": "lots"})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobs_SubmitAndPoll(t *testing.T) {
	env := newTestEnv(t, nil)
	env.orch.Start(context.Background())
	t.Cleanup(env.orch.Stop)

	rec := env.do(t, http.MethodPost, "/api/jobs", map[string]any{"url": "https://news.example/a"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	body := decode(t, rec)
	pollURL := body["poll_url"].(string)
	assert.Equal(t, "/api/jobs/"+body["job_id"].(string), pollURL)

	require.Eventually(t, func() bool {
		snap := decode(t, env.do(t, http.MethodGet, pollURL, nil))
		return snap["status"] == string(pipeline.StatusCompleted)
	}, 2*time.Second, 10*time.Millisecond)

	snap := decode(t, env.do(t, http.MethodGet, pollURL, nil))
	result := snap["result"].(map[string]any)
	assert.Equal(t, "url:https://news.example/a", result["source"])
}

func TestJobs_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobs_RequiresInput(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/jobs", map[string]any{"model": "m"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobs_QueueFull(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.MaxQueueSize = 1 })

	rec := env.do(t, http.MethodPost, "/api/jobs", map[string]any{"text": article})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/jobs", map[string]any{"text": article})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTranslate_IsolatesItems(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/translate", map[string]any{
		"texts":       []string{"hello", "bad", "world"},
		"target_lang": "fr",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Model   string           `json:"model"`
		Results []translate.Item `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "llama-3.1-8b-instant", out.Model)
	assert.Equal(t, []translate.Item{
		{Text: "fr:hello"},
		{Error: "translation failed"},
		{Text: "fr:world"},
	}, out.Results)
}

func TestTranslate_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/translate", map[string]any{"texts": []string{}, "target_lang": "fr"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/translate", map[string]any{"texts": []string{"x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummarize_TranslatesFirst(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/summarize", map[string]any{"text": article})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "summary of The govern", decode(t, rec)["summary"])

	rec = env.do(t, http.MethodPost, "/api/summarize", map[string]any{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestModelsAndHeadlines(t *testing.T) {
	env := newTestEnv(t, nil)

	models := decode(t, env.do(t, http.MethodGet, "/api/models", nil))
	assert.Equal(t, "llama-3.1-8b-instant", models["default"])
	assert.Len(t, models["models"], 2)

	rec := env.do(t, http.MethodGet, "/api/headlines?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body["headlines"], 1)
	assert.Equal(t, "BBC: One", body["ticker"])

	rec = env.do(t, http.MethodGet, "/api/headlines?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLLMStats(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/stats/llm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "llama-3.1-8b-instant", body["model"])
	assert.Contains(t, body, "stats")
}

func TestAnalysesHistory(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/analyses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["analyses"])

	first := decode(t, env.do(t, http.MethodPost, "/api/analyze", map[string]any{"text": article}))
	id := first["id"].(string)

	again := decode(t, env.do(t, http.MethodPost, "/api/analyze", map[string]any{"text": article}))
	assert.Equal(t, true, again["cached"])
	assert.Equal(t, id, again["id"])

	list := decode(t, env.do(t, http.MethodGet, "/api/analyses", nil))
	assert.Len(t, list["analyses"], 1)

	rec = env.do(t, http.MethodGet, "/api/analyses/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode(t, rec)["id"])

	rec = env.do(t, http.MethodGet, "/api/analyses/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.APIKey = "secret" })

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/models", nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		env.do(t, http.MethodGet, "/api/models", nil, "Authorization", "Bearer wrong").Code)
	assert.Equal(t, http.StatusOK,
		env.do(t, http.MethodGet, "/api/models", nil, "Authorization", "Bearer secret").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", nil).Code)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":          "report.pdf",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\a.docx`:  "a.docx",
		"":                    "unnamed",
		"..":                  "_",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), "input %q", in)
	}
}
