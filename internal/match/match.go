// Package match scores candidate product names against a query using a
// normalized Damerau-Levenshtein ratio on a 0..100 scale.
package match

import (
	"sort"

	"armkala-backend/internal/text"
)

// The two cutoffs are distinct on purpose. Auto-resolving a sales row against
// the wrong SKU silently corrupts stock, so the batch path demands a
// near-exact score. Autocomplete only feeds a human picker, so it trades
// precision for recall.
const (
	// StrictCutoff gates unattended resolution of sales-import rows.
	StrictCutoff = 95.0
	// SuggestCutoff gates interactive autocomplete suggestions.
	SuggestCutoff = 40.0
)

// Similarity returns the normalized Damerau-Levenshtein ratio of two raw
// strings in [0..100]. Both sides are normalized with the product-key
// normalizer first.
func Similarity(a, b string) float64 {
	return keyedSimilarity(text.Normalize(a), text.Normalize(b))
}

func keyedSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	d := damerauLevenshtein(a, b)
	m := len([]rune(a))
	if mb := len([]rune(b)); mb > m {
		m = mb
	}
	return 100 * (1 - float64(d)/float64(m))
}

// Match is one scored candidate.
type Match struct {
	Candidate string
	Score     float64
}

// Index is a trigram inverted index over a candidate list, built once per
// inventory snapshot so repeated lookups stay cheap.
type Index struct {
	candidates []string
	keys       []string
	inv        map[string][]int // trigram -> candidate positions
}

// NewIndex builds the index. Candidate order is preserved so ties resolve to
// the earliest inventory row.
func NewIndex(candidates []string) *Index {
	idx := &Index{
		candidates: candidates,
		keys:       make([]string, len(candidates)),
		inv:        make(map[string][]int),
	}
	for i, c := range candidates {
		key := text.Normalize(c)
		idx.keys[i] = key
		for g := range trigramSet(key) {
			idx.inv[g] = append(idx.inv[g], i)
		}
	}
	return idx
}

func trigramSet(s string) map[string]struct{} {
	m := make(map[string]struct{})
	if s == "" {
		return m
	}
	p := " " + s + " "
	r := []rune(p)
	if len(r) < 3 {
		m[p] = struct{}{}
		return m
	}
	for i := 0; i <= len(r)-3; i++ {
		m[string(r[i:i+3])] = struct{}{}
	}
	return m
}

func (idx *Index) candidatePositions(key string) []int {
	seen := make(map[int]struct{})
	for g := range trigramSet(key) {
		for _, pos := range idx.inv[g] {
			seen[pos] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for pos := range seen {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

// Best returns the best-scoring candidate at or above cutoff, or ok=false.
// Ties keep the earliest candidate, which makes results reproducible.
func (idx *Index) Best(query string, cutoff float64) (Match, bool) {
	key := text.Normalize(query)
	if key == "" {
		return Match{}, false
	}
	best := Match{Score: -1}
	bestPos := -1
	for _, pos := range idx.candidatePositions(key) {
		s := keyedSimilarity(key, idx.keys[pos])
		if s > best.Score {
			best = Match{Candidate: idx.candidates[pos], Score: s}
			bestPos = pos
		}
	}
	if bestPos < 0 || best.Score < cutoff {
		return Match{}, false
	}
	return best, true
}

// Extract returns up to limit candidates scoring at or above cutoff, best
// first. Used by the autocomplete endpoint with SuggestCutoff.
func (idx *Index) Extract(query string, cutoff float64, limit int) []Match {
	key := text.Normalize(query)
	if key == "" || limit <= 0 {
		return nil
	}
	scored := make([]Match, 0, 16)
	for _, pos := range idx.candidatePositions(key) {
		s := keyedSimilarity(key, idx.keys[pos])
		if s >= cutoff {
			scored = append(scored, Match{Candidate: idx.candidates[pos], Score: s})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// BestMatch is the one-shot form used when no index is worth building.
func BestMatch(query string, candidates []string, cutoff float64) (Match, bool) {
	key := text.Normalize(query)
	if key == "" {
		return Match{}, false
	}
	best := Match{Score: -1}
	found := false
	for _, c := range candidates {
		s := keyedSimilarity(key, text.Normalize(c))
		if s > best.Score {
			best = Match{Candidate: c, Score: s}
			found = true
		}
	}
	if !found || best.Score < cutoff {
		return Match{}, false
	}
	return best, true
}
