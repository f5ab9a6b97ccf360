package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dgallion1/newslens/internal/pipeline"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult renders a result for the terminal, one section per stage.
func printResult(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "Language:    %s\n", res.Detection)
	if res.Cached {
		fmt.Fprintf(w, "(from history, analysis %s)\n", res.ID)
	}

	fmt.Fprintln(w, "\nSummary:")
	if res.Summary != nil {
		fmt.Fprintln(w, *res.Summary)
	} else {
		fmt.Fprintf(w, "error: %s\n", res.SummaryError)
	}

	fmt.Fprintln(w, "\nSentiment:")
	if res.Sentiment != nil {
		fmt.Fprintf(w, "%s (%.2f)\n", res.Sentiment.Label, res.Sentiment.Score)
	} else {
		fmt.Fprintf(w, "error: %s\n", res.SentimentError)
	}

	fmt.Fprintf(w, "\nTranslation (%s):\n", res.TargetLang)
	if res.Translation != nil {
		fmt.Fprintln(w, *res.Translation)
	} else {
		fmt.Fprintf(w, "error: %s\n", res.TranslationError)
	}
}
