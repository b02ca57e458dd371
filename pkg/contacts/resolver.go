package contacts

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	// similarityCutoff is the minimum ratio for a fuzzy candidate.
	similarityCutoff = 0.6

	// confirmThreshold is the confidence below which the caller should
	// confirm the match with the user before sending.
	confirmThreshold = 0.9

	// maxCandidates bounds the candidate list per resolution attempt.
	maxCandidates = 3
)

// Match is the result of a single resolution attempt.
type Match struct {
	// Matched reports whether any directory key was close enough.
	Matched bool

	// Key is the best canonical key when Matched is true.
	Key string

	// Confidence is the similarity of the best match, in [0, 1].
	Confidence float64

	// NeedsConfirmation is true when the match should be read back to
	// the user before acting on it.
	NeedsConfirmation bool

	// Alternatives are the remaining candidate keys, best first.
	Alternatives []string
}

// Resolve maps a spoken name to a directory entry.
//
// Exact canonical-key matches win with confidence 1.0 and never require
// confirmation. Otherwise keys are ranked by character-level similarity;
// up to three candidates at or above the cutoff are kept, ties broken by
// directory load order. Resolution is purely local string comparison and
// cannot fail; malformed input resolves to an unmatched result.
func Resolve(spoken string, dir *Directory) Match {
	if dir == nil || dir.Len() == 0 {
		return Match{}
	}

	key := NormalizeKey(spoken)
	if key == "" {
		return Match{}
	}

	if _, ok := dir.Address(key); ok {
		return Match{Matched: true, Key: key, Confidence: 1.0}
	}

	type candidate struct {
		key   string
		ratio float64
		order int
	}

	var candidates []candidate
	for i, k := range dir.keys {
		r := similarity(key, k)
		if r >= similarityCutoff {
			candidates = append(candidates, candidate{key: k, ratio: r, order: i})
		}
	}

	if len(candidates) == 0 {
		return Match{}
	}

	// Stable sort keeps load order for equal ratios (first seen wins).
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ratio > candidates[j].ratio
	})
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	best := candidates[0]
	m := Match{
		Matched:           true,
		Key:               best.key,
		Confidence:        best.ratio,
		NeedsConfirmation: best.ratio < confirmThreshold,
	}
	for _, c := range candidates[1:] {
		m.Alternatives = append(m.Alternatives, c.key)
	}

	return m
}

// similarity is the difflib SequenceMatcher ratio over characters.
func similarity(a, b string) float64 {
	matcher := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return matcher.Ratio()
}
