package ingest

import (
	"fmt"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// pdfFile reads page text with the Go library, falling back to
// pdftotext when enabled and the library finds nothing.
func (e *Extractor) pdfFile(path string) (string, error) {
	text, err := extractPDFText(path)
	if (err != nil || strings.TrimSpace(text) == "") && e.cfg.PDFFallbackPdftotext {
		e.log.Debug("pdf library yielded no text, trying pdftotext", "error", err)
		text, err = extractPdftotext(path)
	}
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

func extractPdftotext(path string) (string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return strings.ReplaceAll(string(out), "\f", "\n\n"), nil
}
