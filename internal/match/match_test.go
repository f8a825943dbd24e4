package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "widget", "widget", 100},
		{"identical after normalization", "  Widget ", "widget", 100},
		{"both empty", "", "", 100},
		{"one empty", "widget", "", 0},
		{"single substitution", "widget", "widgex", 100 * (1 - 1.0/6)},
		{"transposition counts once", "widget", "wdiget", 100 * (1 - 1.0/6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestBestStrictCutoff(t *testing.T) {
	idx := NewIndex([]string{"Widget Alpha", "Widget Beta", "Gadget"})

	m, ok := idx.Best("widget alpha", StrictCutoff)
	require.True(t, ok)
	assert.Equal(t, "Widget Alpha", m.Candidate)
	assert.InDelta(t, 100, m.Score, 1e-9)

	// one transposition in a 12-char key scores above 90 but below 95
	_, ok = idx.Best("widget aplha", StrictCutoff)
	assert.False(t, ok)

	m, ok = idx.Best("widget aplha", SuggestCutoff)
	require.True(t, ok)
	assert.Equal(t, "Widget Alpha", m.Candidate)
}

func TestBestTransposition(t *testing.T) {
	idx := NewIndex([]string{"Widget"})
	m, ok := idx.Best("Wdiget", SuggestCutoff)
	require.True(t, ok)
	assert.Equal(t, "Widget", m.Candidate)
	assert.Greater(t, m.Score, 80.0)
}

func TestBestEmptyQuery(t *testing.T) {
	idx := NewIndex([]string{"Widget"})
	_, ok := idx.Best("", SuggestCutoff)
	assert.False(t, ok)
	_, ok = idx.Best("   ", SuggestCutoff)
	assert.False(t, ok)
}

func TestExtract(t *testing.T) {
	idx := NewIndex([]string{"Widget Alpha", "Widget Beta", "Widget Gamma", "Bolt"})

	out := idx.Extract("widget", SuggestCutoff, 2)
	require.Len(t, out, 2)
	for _, m := range out {
		assert.GreaterOrEqual(t, m.Score, SuggestCutoff)
	}

	assert.Empty(t, idx.Extract("widget", SuggestCutoff, 0))
	assert.Empty(t, idx.Extract("", SuggestCutoff, 5))
}

func TestExtractSortedBestFirst(t *testing.T) {
	idx := NewIndex([]string{"Screwdriver", "Screw", "Nut"})
	out := idx.Extract("screw", SuggestCutoff, 10)
	require.NotEmpty(t, out)
	assert.Equal(t, "Screw", out[0].Candidate)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Score, out[i].Score)
	}
}

func TestBestMatchOneShot(t *testing.T) {
	m, ok := BestMatch("پيچ", []string{"پیچ", "مهره"}, StrictCutoff)
	require.True(t, ok, "arabic yeh variant must resolve to the persian spelling")
	assert.Equal(t, "پیچ", m.Candidate)

	_, ok = BestMatch("completely different", []string{"پیچ", "مهره"}, SuggestCutoff)
	assert.False(t, ok)
}
