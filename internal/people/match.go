package people

import (
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

const (
	// DefaultScoreThreshold is the minimum similarity score a candidate needs
	// to be picked automatically.
	DefaultScoreThreshold = 90
	// DefaultScoreMargin is the minimum lead over the runner-up a candidate
	// needs to be picked automatically.
	DefaultScoreMargin = 5
)

// Scorer computes string similarity in the 0..100 range.
type Scorer interface {
	// Score compares two whole strings.
	Score(a, b string) int
	// Partial compares a against the best-aligned substring of b.
	Partial(a, b string) int
}

// FuzzyScorer scores with Levenshtein-based fuzzy ratios.
type FuzzyScorer struct{}

func (FuzzyScorer) Score(a, b string) int   { return fuzzy.Ratio(a, b) }
func (FuzzyScorer) Partial(a, b string) int { return fuzzy.PartialRatio(a, b) }

// SubstringScorer is a dependency-free scorer: exact match scores 100,
// containment either way scores 85, anything else 0.
type SubstringScorer struct{}

func (SubstringScorer) Score(a, b string) int {
	switch {
	case a == b:
		return 100
	case a == "" || b == "":
		return 0
	case strings.Contains(a, b) || strings.Contains(b, a):
		return 85
	}
	return 0
}

func (SubstringScorer) Partial(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 100
	}
	return 0
}

type scoredIdentity struct {
	identity Identity
	score    int
}

// FindBestMatch picks the candidate whose best field score both clears the
// threshold and leads the runner-up by at least the margin. A single candidate
// is returned as-is without scoring. Comparison is case-insensitive; each
// candidate scores as the maximum over its display name, given name, and
// family name, plus a partial-alignment score against the display name. Ties
// and narrow leads return no match so the caller can escalate.
func FindBestMatch(scorer Scorer, term string, candidates []Identity, threshold, margin int) (Identity, bool) {
	switch len(candidates) {
	case 0:
		return Identity{}, false
	case 1:
		return candidates[0], true
	}
	if scorer == nil {
		scorer = FuzzyScorer{}
	}

	needle := strings.ToLower(term)
	ranked := make([]scoredIdentity, len(candidates))
	for i, cand := range candidates {
		ranked[i] = scoredIdentity{identity: cand, score: bestFieldScore(scorer, needle, cand)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if ranked[0].score < threshold {
		return Identity{}, false
	}
	if ranked[0].score-ranked[1].score < margin {
		return Identity{}, false
	}
	return ranked[0].identity, true
}

func bestFieldScore(scorer Scorer, needle string, cand Identity) int {
	best := scorer.Score(needle, strings.ToLower(cand.DisplayName))
	if cand.GivenName != "" {
		if s := scorer.Score(needle, strings.ToLower(cand.GivenName)); s > best {
			best = s
		}
	}
	if cand.FamilyName != "" {
		if s := scorer.Score(needle, strings.ToLower(cand.FamilyName)); s > best {
			best = s
		}
	}
	if s := scorer.Partial(needle, strings.ToLower(cand.DisplayName)); s > best {
		best = s
	}
	return best
}
