package entropy

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gpinterp/internal/timeutil"
)

var fixedTime = time.Date(2025, 3, 14, 15, 9, 26, 535897932, time.UTC)

func TestAnalyze_Example(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(timeutil.NewMockClock(fixedTime))
	got := a.Analyze("aabb")

	want := Analysis{
		Text:               "aabb",
		Entropy:            1.0,
		CharacterFrequency: map[string]int{"a": 2, "b": 2},
		TextLength:         4,
		UniqueCharacters:   2,
		AnalysisTimestamp:  fixedTime,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Analyze(\"aabb\") mismatch (-want +got):\n%s", diff)
	}
}

func TestShannonEntropy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"empty", "", 0},
		{"single character", "x", 0},
		{"repeated character", strings.Repeat("z", 500), 0},
		{"two equal halves", "abab", 1},
		{"four uniform", "abcd", 2},
		{"eight uniform", "abcdefgh", 3},
		{"skewed", "aaab", -(0.75*math.Log2(0.75) + 0.25*math.Log2(0.25))},
		{"whitespace counts", "a a ", 1},
		{"multibyte runes", "日本日本", 1},
		{"emoji", "🙂🙃", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ShannonEntropy(tt.text), 1e-12)
		})
	}
}

func TestAnalyze_Invariants(t *testing.T) {
	t.Parallel()

	texts := []string{
		"",
		"hello, world",
		"The quick brown fox jumps over the lazy dog.",
		"tab\tnew\nline",
		"naïve café 日本語 🙂",
		strings.Repeat("abc", 1000),
	}

	a := NewAnalyzer(timeutil.NewMockClock(fixedTime))
	for _, text := range texts {
		got := a.Analyze(text)

		sum := 0
		for _, n := range got.CharacterFrequency {
			assert.Positive(t, n)
			sum += n
		}
		assert.Equal(t, got.TextLength, sum, "frequency sum for %q", text)
		assert.Equal(t, len(got.CharacterFrequency), got.UniqueCharacters)
		assert.GreaterOrEqual(t, got.Entropy, 0.0)
		if got.UniqueCharacters > 0 {
			assert.LessOrEqual(t, got.Entropy, math.Log2(float64(got.UniqueCharacters)))
		}
		assert.Equal(t, text, got.Text)
	}
}

func TestShannonEntropy_UniformIsExactlyLog2N(t *testing.T) {
	t.Parallel()

	for n := 2; n <= 200; n++ {
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteRune(rune(0x4e00 + i))
		}
		want := math.Log2(float64(n))
		got := ShannonEntropy(b.String())
		assert.LessOrEqual(t, got, want, "n=%d", n)
		assert.InDelta(t, want, got, 1e-12, "n=%d", n)
	}
}

func TestAnalyze_UnicodeCountsCodePoints(t *testing.T) {
	t.Parallel()

	got := NewAnalyzer(nil).Analyze("é 🙂é")
	assert.Equal(t, 4, got.TextLength)
	assert.Equal(t, map[string]int{"é": 2, " ": 1, "🙂": 1}, got.CharacterFrequency)
}

func TestAnalyze_TimestampFromClock(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(fixedTime)
	a := NewAnalyzer(clock)

	first := a.Analyze("x")
	clock.Advance(time.Minute)
	second := a.Analyze("x")

	assert.Equal(t, fixedTime, first.AnalysisTimestamp)
	assert.Equal(t, fixedTime.Add(time.Minute), second.AnalysisTimestamp)
}

func TestAnalysis_JSON(t *testing.T) {
	t.Parallel()

	local := time.FixedZone("UTC+2", 2*60*60)
	a := NewAnalyzer(timeutil.NewMockClock(fixedTime.In(local)))
	data, err := json.Marshal(a.Analyze("aabb"))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "aabb", raw["text"])
	assert.Equal(t, 1.0, raw["entropy"])
	assert.Equal(t, map[string]any{"a": 2.0, "b": 2.0}, raw["character_frequency"])
	assert.Equal(t, 4.0, raw["text_length"])
	assert.Equal(t, 2.0, raw["unique_characters"])
	assert.Equal(t, "2025-03-14T15:09:26.535897932Z", raw["analysis_timestamp"])
}

func TestAnalysis_JSONEmptyTable(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewAnalyzer(timeutil.NewMockClock(fixedTime)).Analyze(""))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"character_frequency":{}`)
}
