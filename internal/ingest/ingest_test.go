package ingest

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/fumiama/go-docx"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/newslens/internal/logging"
)

func newTestExtractor(cfg Config) *Extractor {
	return New(cfg, logging.Discard())
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     string
	}{
		{"pdf magic", "upload.bin", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), FormatPDF},
		{"markdown extension", "notes.md", []byte("# Title\n\nBody"), FormatMarkdown},
		{"csv extension", "rows.csv", []byte("a,b\n1,2\n"), FormatCSV},
		{"html extension", "page.htm", []byte("<p>hi</p>"), FormatHTML},
		{"sniffed html", "page", []byte("<!DOCTYPE html><html><body><p>hi</p></body></html>"), FormatHTML},
		{"sniffed text", "README", []byte("just some plain words here"), FormatText},
		{"png is unsupported", "image.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectFormat(tc.filename, tc.data))
		})
	}
}

func TestPlainText_NormalizesParagraphs(t *testing.T) {
	in := "\xef\xbb\xbfFirst line.\r\nStill first.\r\n\r\n\r\n\r\nSecond paragraph.   \n"
	got, err := plainText([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, "First line.\nStill first.\n\nSecond paragraph.", got)
}

func TestPlainText_RejectsInvalidUTF8(t *testing.T) {
	_, err := plainText([]byte{0xff, 0xfe, 0x41})
	assert.ErrorIs(t, err, errNotUTF8)
}

func TestCSVText(t *testing.T) {
	got, err := csvText([]byte("name,score\nalice,3\nbob,4,extra\n"))
	require.NoError(t, err)
	assert.Equal(t, "name: alice, score: 3\nname: bob, score: 4, extra", got)
}

func TestCSVText_HeaderOnly(t *testing.T) {
	got, err := csvText([]byte("name,score\n"))
	require.NoError(t, err)
	assert.Equal(t, "name, score", got)
}

func TestMarkdownText(t *testing.T) {
	src := "# Headline\n\nSome *emphasis* and a [link](https://example.com).\nSoft wrapped.\n\n- item one\n- item two\n\n```\ncode line\n```\n"
	got, err := markdownText([]byte(src))
	require.NoError(t, err)
	assert.Equal(t,
		"Headline\n\nSome emphasis and a link. Soft wrapped.\n\nitem one\n\nitem two\n\ncode line",
		got)
}

func TestMarkdownText_NoDuplicatedParagraphs(t *testing.T) {
	got, err := markdownText([]byte("Only once.\n"))
	require.NoError(t, err)
	assert.Equal(t, "Only once.", got)
}

func TestDocxText(t *testing.T) {
	w := docx.New().WithDefaultTheme()
	w.AddParagraph().AddText("First paragraph of the report.")
	w.AddParagraph()
	w.AddParagraph().AddText("Second paragraph.")

	var buf bytes.Buffer
	_, err := w.WriteTo(&buf)
	require.NoError(t, err)

	got, err := docxText(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "First paragraph of the report.\n\nSecond paragraph.", got)
}

func docFrom(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func TestRunStrategies(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		want     string
		strategy string
	}{
		{
			name: "readable body skips chrome",
			page: `<html><body><nav>Home | World</nav><script>var x=1;</script>
				<h1>Markets rally</h1><p>Stocks climbed   on Tuesday after the central bank held rates.</p>
				<footer>Copyright</footer></body></html>`,
			want:     "Markets rally\n\nStocks climbed on Tuesday after the central bank held rates.",
			strategy: "readable_body",
		},
		{
			name: "article paragraphs when body is all chrome",
			page: `<html><body><header><article><p>The council approved the budget.</p>
				<p>Voting ended late.</p></article></header></body></html>`,
			want:     "The council approved the budget. Voting ended late.",
			strategy: "article_paragraphs",
		},
		{
			name:     "all paragraphs as last resort",
			page:     `<html><body><header><p>Short.</p></header></body></html>`,
			want:     "Short.",
			strategy: "all_paragraphs",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, name := runStrategies(docFrom(t, tc.page))
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.strategy, name)
		})
	}
}

func TestFromURL_ExtractsPage(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><p>Rain is expected across the north of the country this weekend.</p></body></html>`))
	}))
	defer srv.Close()

	text, err := newTestExtractor(Config{}).FromURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Rain is expected across the north of the country this weekend.", text)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestFromURL_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	e := newTestExtractor(Config{})
	for _, u := range []string{srv.URL, "ftp://example.com/file", "not a url", "http://127.0.0.1:1/unreachable"} {
		_, err := e.FromURL(context.Background(), u)
		var extErr *ExtractionError
		assert.True(t, errors.As(err, &extErr), "expected ExtractionError for %q, got %v", u, err)
	}
}

func TestFromURL_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("<p>x</p>", 100)))
	}))
	defer srv.Close()

	_, err := newTestExtractor(Config{MaxBytes: 64}).FromURL(context.Background(), srv.URL)
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestFromURL_LimitAppliesWhileStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, _ := w.(http.Flusher)
		chunk := []byte(strings.Repeat("<p>streamed</p>", 64))
		for range 512 {
			if _, err := w.Write(chunk); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	defer srv.Close()

	_, err := newTestExtractor(Config{MaxBytes: 4096}).FromURL(context.Background(), srv.URL)
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.ErrorIs(t, err, resty.ErrResponseBodyTooLarge)
}

func TestFromUpload(t *testing.T) {
	e := newTestExtractor(Config{})

	text, err := e.FromUpload(context.Background(), "story.txt", []byte("A plain upload.\n\nWith two paragraphs."))
	require.NoError(t, err)
	assert.Equal(t, "A plain upload.\n\nWith two paragraphs.", text)

	text, err = e.FromUpload(context.Background(), "story.html", []byte("<body><p>An uploaded web page that is long enough to count.</p></body>"))
	require.NoError(t, err)
	assert.Equal(t, "An uploaded web page that is long enough to count.", text)
}

func TestFromUpload_Rejects(t *testing.T) {
	e := newTestExtractor(Config{MaxBytes: 16})

	_, err := e.FromUpload(context.Background(), "big.txt", bytes.Repeat([]byte("a"), 17))
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)

	_, err = e.FromUpload(context.Background(), "x.png", []byte("\x89PNG\r\n\x1a\n\x00\x00"))
	require.ErrorAs(t, err, &extErr)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFromPDF_MissingFile(t *testing.T) {
	_, err := newTestExtractor(Config{}).FromPDF("/nonexistent/file.pdf")
	var extErr *ExtractionError
	assert.ErrorAs(t, err, &extErr)
}
