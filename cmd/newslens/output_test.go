package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dgallion1/newslens/internal/langdetect"
	"github.com/dgallion1/newslens/internal/pipeline"
	"github.com/dgallion1/newslens/internal/sentiment"
)

func TestPrintResult(t *testing.T) {
	code, name := "fr", "French"
	summary := "Markets rose."
	res := &pipeline.Result{
		TargetLang:       "en",
		Detection:        langdetect.Guess{Code: &code, Name: &name, Score: 0.91},
		Summary:          &summary,
		Sentiment:        &sentiment.Result{Label: sentiment.Positive, Score: 0.7},
		TranslationError: "rate limited",
	}

	var buf bytes.Buffer
	printResult(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "Language:    fr (0.91)")
	assert.Contains(t, out, "Summary:\nMarkets rose.")
	assert.Contains(t, out, "Sentiment:\npositive (0.70)")
	assert.Contains(t, out, "Translation (en):\nerror: rate limited")
}

func TestAnalyzeRequiresOneInput(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "k")
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--no-history", "analyze", "--text", "a", "--url", "https://x"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "exactly one of")
}
