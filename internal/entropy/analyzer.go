// Package entropy measures the Shannon entropy and character distribution of
// text.
package entropy

import (
	"encoding/json"
	"math"
	"time"
	"unicode/utf8"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/gpinterp/internal/timeutil"
)

// Analysis is the result of analysing one text. A character is a Unicode
// code point; whitespace and punctuation count like any other character.
type Analysis struct {
	Text               string
	Entropy            float64
	CharacterFrequency map[string]int
	TextLength         int
	UniqueCharacters   int
	AnalysisTimestamp  time.Time
}

type analysisJSON struct {
	Text               string         `json:"text"`
	Entropy            float64        `json:"entropy"`
	CharacterFrequency map[string]int `json:"character_frequency"`
	TextLength         int            `json:"text_length"`
	UniqueCharacters   int            `json:"unique_characters"`
	AnalysisTimestamp  string         `json:"analysis_timestamp"`
}

// MarshalJSON emits the timestamp as RFC 3339 in UTC with nanoseconds.
func (a Analysis) MarshalJSON() ([]byte, error) {
	freq := a.CharacterFrequency
	if freq == nil {
		freq = map[string]int{}
	}
	return json.Marshal(analysisJSON{
		Text:               a.Text,
		Entropy:            a.Entropy,
		CharacterFrequency: freq,
		TextLength:         a.TextLength,
		UniqueCharacters:   a.UniqueCharacters,
		AnalysisTimestamp:  a.AnalysisTimestamp.UTC().Format(time.RFC3339Nano),
	})
}

// Analyzer stamps each Analysis with the time read from its clock.
type Analyzer struct {
	clock timeutil.Clock
}

// NewAnalyzer returns an Analyzer. A nil clock means the wall clock.
func NewAnalyzer(clock timeutil.Clock) *Analyzer {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Analyzer{clock: clock}
}

// Analyze computes the frequency table and entropy of text. Empty text
// yields zero entropy and an empty table.
func (a *Analyzer) Analyze(text string) Analysis {
	freq := Frequencies(text)
	length := utf8.RuneCountInString(text)
	return Analysis{
		Text:               text,
		Entropy:            entropyOf(freq, length),
		CharacterFrequency: freq,
		TextLength:         length,
		UniqueCharacters:   len(freq),
		AnalysisTimestamp:  a.clock.Now(),
	}
}

// Frequencies counts each code point of text. Invalid UTF-8 bytes are
// counted as U+FFFD.
func Frequencies(text string) map[string]int {
	freq := make(map[string]int)
	for _, r := range text {
		freq[string(r)]++
	}
	return freq
}

// ShannonEntropy returns -Σ p·log2(p) over the code points of text, in bits.
func ShannonEntropy(text string) float64 {
	return entropyOf(Frequencies(text), utf8.RuneCountInString(text))
}

func entropyOf(freq map[string]int, total int) float64 {
	if total == 0 || len(freq) < 2 {
		return 0
	}
	p := make([]float64, 0, len(freq))
	for _, n := range freq {
		p = append(p, float64(n)/float64(total))
	}
	// stat.Entropy works in nats. Converting can overshoot the uniform
	// maximum by a few ULPs, so clamp to log2 of the alphabet size.
	return math.Min(stat.Entropy(p)/math.Ln2, math.Log2(float64(len(freq))))
}
