package sentiment

import (
	"strings"

	"github.com/tidwall/gjson"
)

const (
	Positive = "positive"
	Neutral  = "neutral"
	Negative = "negative"

	// KeywordScore is the magnitude given to keyword fallback results.
	KeywordScore = 0.7
)

// Result is a sentiment label with a score in [-1, 1]. Keyword fallback
// results only ever score -0.7, 0 or 0.7.
type Result struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type parseState int

const (
	tryStrictParse parseState = iota
	tryPositiveKeyword
	tryNegativeKeyword
	defaultNeutral
)

func (s parseState) String() string {
	switch s {
	case tryStrictParse:
		return "strict"
	case tryPositiveKeyword:
		return "positive_keyword"
	case tryNegativeKeyword:
		return "negative_keyword"
	default:
		return "default_neutral"
	}
}

// Parse reads a model response. It never fails: a response that is not
// a usable JSON object falls through keyword checks to neutral.
func Parse(raw string) Result {
	r, _ := parse(raw)
	return r
}

// parse also reports the state that produced the result.
func parse(raw string) (Result, parseState) {
	lower := strings.ToLower(raw)
	state := tryStrictParse
	for {
		switch state {
		case tryStrictParse:
			if r, ok := strictParse(raw); ok {
				return r, state
			}
			state = tryPositiveKeyword
		case tryPositiveKeyword:
			if strings.Contains(lower, Positive) {
				return Result{Label: Positive, Score: KeywordScore}, state
			}
			state = tryNegativeKeyword
		case tryNegativeKeyword:
			if strings.Contains(lower, Negative) {
				return Result{Label: Negative, Score: -KeywordScore}, state
			}
			state = defaultNeutral
		default:
			return Result{Label: Neutral, Score: 0}, defaultNeutral
		}
	}
}

// strictParse decodes the span from the first '{' to the last '}'.
func strictParse(raw string) (Result, bool) {
	open := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if open < 0 || end < open {
		return Result{}, false
	}
	obj := raw[open : end+1]
	if !gjson.Valid(obj) {
		return Result{}, false
	}

	doc := gjson.Parse(obj)
	if !doc.IsObject() {
		return Result{}, false
	}
	label := doc.Get("label")
	score := doc.Get("score")
	if label.Type != gjson.String || score.Type != gjson.Number {
		return Result{}, false
	}

	l := strings.ToLower(strings.TrimSpace(label.String()))
	switch l {
	case Positive, Neutral, Negative:
	default:
		return Result{}, false
	}
	return Result{Label: l, Score: clamp(score.Float())}, true
}

func clamp(v float64) float64 {
	switch {
	case v < -1:
		return -1
	case v > 1:
		return 1
	default:
		return v
	}
}
