package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
)

// FromURL fetches a page once and returns the first acceptable result of
// the HTML strategies. PDF responses are extracted as PDF. A page with no
// usable text yields "" rather than an error.
func (e *Extractor) FromURL(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &ExtractionError{Source: rawURL, Err: fmt.Errorf("invalid url")}
	}

	resp, err := e.http.R().SetContext(ctx).Get(u.String())
	if errors.Is(err, resty.ErrResponseBodyTooLarge) {
		return "", &ExtractionError{Source: rawURL, Err: fmt.Errorf("response exceeds %d bytes: %w", e.cfg.MaxBytes, err)}
	}
	if err != nil {
		return "", &ExtractionError{Source: rawURL, Err: fmt.Errorf("fetch: %w", err)}
	}
	if resp.IsError() {
		return "", &ExtractionError{Source: rawURL, Err: fmt.Errorf("fetch: status %d", resp.StatusCode())}
	}

	body := resp.Body()
	if int64(len(body)) > e.cfg.MaxBytes {
		return "", &ExtractionError{Source: rawURL, Err: fmt.Errorf("response exceeds %d bytes", e.cfg.MaxBytes)}
	}

	if mimetype.Detect(body).Is("application/pdf") ||
		strings.HasPrefix(resp.Header().Get("Content-Type"), "application/pdf") {
		text, err := e.pdfBytes(body)
		if err != nil {
			return "", &ExtractionError{Source: rawURL, Err: err}
		}
		return text, nil
	}

	text, err := e.htmlText(body)
	if err != nil {
		return "", &ExtractionError{Source: rawURL, Err: err}
	}
	return text, nil
}
