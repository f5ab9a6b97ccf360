package langdetect

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

const (
	// MinChars is the shortest trimmed input detection is attempted on.
	MinChars = 20
	// SampleChars caps how much of the input is handed to the identifier.
	SampleChars = 10000
)

// Candidate is one ranked identification result.
type Candidate struct {
	Code       string
	Confidence float64
}

// Identifier ranks candidate languages for a text, most likely first.
// Implementations must return identical output for identical input.
type Identifier interface {
	Candidates(text string) ([]Candidate, error)
}

// Guess is the detection result. A nil Code means undetermined.
type Guess struct {
	Code  *string `json:"code"`
	Name  *string `json:"name"`
	Score float64 `json:"score"`
}

// Undetermined is the guess for short input or detector failure.
func Undetermined() Guess {
	return Guess{}
}

func (g Guess) Determined() bool {
	return g.Code != nil
}

// Is reports whether the guess is determined and equals code.
func (g Guess) Is(code string) bool {
	return g.Code != nil && *g.Code == code
}

func (g Guess) String() string {
	if g.Code == nil {
		return "undetermined"
	}
	return fmt.Sprintf("%s (%.2f)", *g.Code, g.Score)
}

type Detector struct {
	id  Identifier
	log *slog.Logger
}

func New(id Identifier, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	return &Detector{id: id, log: log.With("component", "langdetect")}
}

// Detect never fails: short input, identifier errors and panics all
// yield the undetermined guess.
func (d *Detector) Detect(text string) (guess Guess) {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < MinChars {
		return Undetermined()
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.Warn("language identifier panicked", "panic", r)
			guess = Undetermined()
		}
	}()

	candidates, err := d.id.Candidates(prefix(trimmed, SampleChars))
	if err != nil {
		d.log.Warn("language detection failed", "error", err)
		return Undetermined()
	}
	if len(candidates) == 0 {
		return Undetermined()
	}

	top := candidates[0]
	code := strings.ToLower(top.Code)
	if code == "" {
		return Undetermined()
	}
	name := DisplayName(code)
	return Guess{Code: &code, Name: &name, Score: clamp01(top.Confidence)}
}

func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
