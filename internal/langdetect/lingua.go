package langdetect

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Lingua identifies languages with lingua-go's statistical models.
// Its output depends only on the input text.
type Lingua struct {
	detector lingua.LanguageDetector
}

// NewLingua builds a detector over the given languages, or over every
// supported language when none are given. Building loads models and is
// slow; build once per process.
func NewLingua(languages ...lingua.Language) *Lingua {
	var builder lingua.LanguageDetectorBuilder
	if len(languages) == 0 {
		builder = lingua.NewLanguageDetectorBuilder().FromAllLanguages()
	} else {
		builder = lingua.NewLanguageDetectorBuilder().FromLanguages(languages...)
	}
	return &Lingua{detector: builder.Build()}
}

func (l *Lingua) Candidates(text string) ([]Candidate, error) {
	values := l.detector.ComputeLanguageConfidenceValues(text)
	out := make([]Candidate, 0, len(values))
	for _, v := range values {
		if v.Language() == lingua.Unknown || v.Value() <= 0 {
			continue
		}
		out = append(out, Candidate{
			Code:       strings.ToLower(v.Language().IsoCode639_1().String()),
			Confidence: v.Value(),
		})
	}
	return out, nil
}
