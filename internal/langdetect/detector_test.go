package langdetect

import (
	"errors"
	"strings"
	"testing"

	"github.com/pemistahl/lingua-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/newslens/internal/logging"
)

type fakeIdentifier struct {
	candidates []Candidate
	err        error
	panicWith  any
	calls      int
	lastText   string
}

func (f *fakeIdentifier) Candidates(text string) ([]Candidate, error) {
	f.calls++
	f.lastText = text
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.candidates, f.err
}

const longEnough = "This sentence is comfortably longer than twenty characters."

func TestDetect_ShortInputIsUndetermined(t *testing.T) {
	id := &fakeIdentifier{candidates: []Candidate{{Code: "en", Confidence: 1}}}
	d := New(id, logging.Discard())

	g := d.Detect("   too short    ")
	assert.Nil(t, g.Code)
	assert.Nil(t, g.Name)
	assert.Equal(t, 0.0, g.Score)
	assert.Equal(t, 0, id.calls, "identifier must not run on short input")
}

func TestDetect_PicksTopCandidate(t *testing.T) {
	id := &fakeIdentifier{candidates: []Candidate{{Code: "UR", Confidence: 0.9}, {Code: "hi", Confidence: 0.1}}}
	g := New(id, logging.Discard()).Detect(longEnough)

	require.True(t, g.Determined())
	assert.Equal(t, "ur", *g.Code)
	assert.Equal(t, "Urdu", *g.Name)
	assert.Equal(t, 0.9, g.Score)
	assert.True(t, g.Is("ur"))
	assert.False(t, g.Is("en"))
}

func TestDetect_UnmappedCodeUsesCodeAsName(t *testing.T) {
	id := &fakeIdentifier{candidates: []Candidate{{Code: "eo", Confidence: 0.8}}}
	g := New(id, logging.Discard()).Detect(longEnough)

	require.NotNil(t, g.Name)
	assert.Equal(t, "eo", *g.Name)
}

func TestDetect_NoCandidates(t *testing.T) {
	g := New(&fakeIdentifier{}, logging.Discard()).Detect(longEnough)
	assert.False(t, g.Determined())
}

func TestDetect_IdentifierFailureIsUndetermined(t *testing.T) {
	g := New(&fakeIdentifier{err: errors.New("boom")}, logging.Discard()).Detect(longEnough)
	assert.False(t, g.Determined())
	assert.Equal(t, 0.0, g.Score)
}

func TestDetect_IdentifierPanicIsUndetermined(t *testing.T) {
	g := New(&fakeIdentifier{panicWith: "bad model"}, logging.Discard()).Detect(longEnough)
	assert.False(t, g.Determined())
}

func TestDetect_SamplesBoundedPrefix(t *testing.T) {
	id := &fakeIdentifier{candidates: []Candidate{{Code: "en", Confidence: 1}}}
	New(id, logging.Discard()).Detect(strings.Repeat("word ", 5000))
	assert.Equal(t, SampleChars, len([]rune(id.lastText)))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "English", DisplayName("en"))
	assert.Equal(t, "Chinese (Simplified)", DisplayName("zh-cn"))
	assert.Equal(t, "xx", DisplayName("xx"))
}

func TestGuessString(t *testing.T) {
	assert.Equal(t, "undetermined", Undetermined().String())
}

func TestLingua_DetectsAndIsDeterministic(t *testing.T) {
	id := NewLingua(lingua.English, lingua.French, lingua.Spanish, lingua.German, lingua.Urdu)
	d := New(id, logging.Discard())

	tests := []struct {
		text string
		want string
	}{
		{"The government announced new measures to support small businesses this week.", "en"},
		{"Le gouvernement a annoncé de nouvelles mesures pour soutenir les petites entreprises.", "fr"},
		{"El gobierno anunció nuevas medidas para apoyar a las pequeñas empresas esta semana.", "es"},
		{"حکومت نے اس ہفتے چھوٹے کاروباروں کی مدد کے لیے نئے اقدامات کا اعلان کیا۔", "ur"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			first := d.Detect(tc.text)
			second := d.Detect(tc.text)
			require.True(t, first.Determined())
			assert.Equal(t, tc.want, *first.Code)
			assert.Equal(t, first, second)
			assert.Greater(t, first.Score, 0.0)
			assert.LessOrEqual(t, first.Score, 1.0)
		})
	}
}

func TestLingua_AllLanguages(t *testing.T) {
	d := New(NewLingua(), logging.Discard())

	guess := d.Detect("Bonjour, comment ça va?")
	require.True(t, guess.Determined())
	assert.Equal(t, "fr", *guess.Code)
	assert.Equal(t, "French", *guess.Name)
}
