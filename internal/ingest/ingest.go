package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
)

// ExtractionError means no text could be acquired from the input.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

var ErrUnsupportedFormat = errors.New("unsupported format")

const DefaultUserAgent = "ccp-bot/1.0"

type Config struct {
	FetchTimeout         time.Duration
	MaxBytes             int64
	PDFFallbackPdftotext bool
	UserAgent            string
}

// Extractor turns URLs, PDF files and uploads into plain text.
type Extractor struct {
	http *resty.Client
	cfg  Config
	log  *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Extractor {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 50 << 20
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if log == nil {
		log = slog.Default()
	}
	client := resty.New().
		SetTimeout(cfg.FetchTimeout).
		SetResponseBodyLimit(int(cfg.MaxBytes)).
		SetHeader("User-Agent", cfg.UserAgent)
	return &Extractor{
		http: client,
		cfg:  cfg,
		log:  log.With("component", "ingest"),
	}
}

// Document formats understood by FromUpload.
const (
	FormatPDF      = "pdf"
	FormatDOCX     = "docx"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatCSV      = "csv"
	FormatText     = "text"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// DetectFormat picks a format from magic bytes for binary documents,
// then the file extension, then the sniffed text type.
func DetectFormat(filename string, data []byte) string {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/pdf"):
		return FormatPDF
	case mt.Is(docxMIME):
		return FormatDOCX
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".md", ".markdown":
		return FormatMarkdown
	case ".html", ".htm":
		return FormatHTML
	case ".csv":
		return FormatCSV
	case ".txt", ".text":
		return FormatText
	}

	for m := mt; m != nil; m = m.Parent() {
		switch {
		case m.Is("text/html"):
			return FormatHTML
		case m.Is("text/csv"):
			return FormatCSV
		case m.Is("text/plain"):
			return FormatText
		}
	}
	return ""
}

// FromUpload extracts text from an uploaded file.
func (e *Extractor) FromUpload(ctx context.Context, filename string, data []byte) (string, error) {
	src := "upload " + filename
	if int64(len(data)) > e.cfg.MaxBytes {
		return "", &ExtractionError{Source: src, Err: fmt.Errorf("file exceeds %d bytes", e.cfg.MaxBytes)}
	}

	format := DetectFormat(filename, data)
	e.log.Debug("extracting upload", "filename", filename, "format", format, "bytes", len(data))

	var (
		text string
		err  error
	)
	switch format {
	case FormatPDF:
		text, err = e.pdfBytes(data)
	case FormatDOCX:
		text, err = docxText(data)
	case FormatMarkdown:
		text, err = markdownText(data)
	case FormatHTML:
		text, err = e.htmlText(data)
	case FormatCSV:
		text, err = csvText(data)
	case FormatText:
		text, err = plainText(data)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimetype.Detect(data).String())
	}
	if err != nil {
		return "", &ExtractionError{Source: src, Err: err}
	}
	return text, nil
}

// FromPDF extracts the text of a PDF on disk.
func (e *Extractor) FromPDF(path string) (string, error) {
	text, err := e.pdfFile(path)
	if err != nil {
		return "", &ExtractionError{Source: "pdf " + filepath.Base(path), Err: err}
	}
	return text, nil
}

// pdfBytes stages data in a temp file, removed once text is extracted.
func (e *Extractor) pdfBytes(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "newslens-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return e.pdfFile(tmpPath)
}
