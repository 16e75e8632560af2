// Package resolver matches user-typed names against canonical names with
// tiered confidence.
package resolver

import (
	"fmt"
	"strings"

	"github.com/Veraticus/despensa/internal/fuzzy"
)

// Tier thresholds.
const (
	FuzzyHighThreshold = 0.9
	FuzzyLowThreshold  = 0.7
)

// Tier classifies how a typed name relates to the candidate it matched.
type Tier int

const (
	// NoMatch means no candidate qualified; the typed name is new.
	NoMatch Tier = iota
	// FuzzyLow is a plausible but uncertain correction that is surfaced to the user.
	FuzzyLow
	// FuzzyHigh is a confident correction applied silently.
	FuzzyHigh
	// NormalizedEquivalent differs only by accents, case or punctuation.
	NormalizedEquivalent
	// Exact is a case-insensitive identical match.
	Exact
)

func (t Tier) String() string {
	switch t {
	case Exact:
		return "exact"
	case NormalizedEquivalent:
		return "normalized"
	case FuzzyHigh:
		return "fuzzy_high"
	case FuzzyLow:
		return "fuzzy_low"
	case NoMatch:
		return "no_match"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// MatchResult is the outcome of Resolve.
type MatchResult struct {
	// Typed is the trimmed name the user wrote.
	Typed string
	// Name is the canonical candidate, or Typed when Tier is NoMatch.
	Name  string
	Score float64
	Tier  Tier
}

// Matched reports whether an existing candidate was selected.
func (m MatchResult) Matched() bool {
	return m.Tier != NoMatch
}

// Corrected reports whether the typed name was replaced by a fuzzy match.
func (m MatchResult) Corrected() bool {
	return m.Tier == FuzzyHigh || m.Tier == FuzzyLow
}

// NeedsNote reports whether the correction should be shown to the user.
func (m MatchResult) NeedsNote() bool {
	return m.Tier == FuzzyLow
}

// Resolve picks the canonical candidate for typed. Exact and normalized
// equality win over any fuzzy score; among fuzzy scores the best wins with
// ties going to the earliest candidate.
func Resolve(typed string, candidates []string) MatchResult {
	typed = strings.TrimSpace(typed)
	result := MatchResult{Typed: typed, Name: typed, Tier: NoMatch}
	if typed == "" {
		return result
	}

	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(c), typed) {
			return MatchResult{Typed: typed, Name: c, Score: 1.0, Tier: Exact}
		}
	}

	normalized := fuzzy.Normalize(typed)
	if normalized == "" {
		// Nothing comparable is left once accents and symbols are folded.
		return result
	}
	for _, c := range candidates {
		if fuzzy.Normalize(c) == normalized {
			return MatchResult{Typed: typed, Name: c, Score: 1.0, Tier: NormalizedEquivalent}
		}
	}

	best, ok := fuzzy.BestMatch(typed, candidates, 0)
	if !ok {
		return result
	}
	result.Score = best.Score

	switch {
	case best.Score >= FuzzyHighThreshold:
		result.Name, result.Tier = best.Candidate, FuzzyHigh
	case best.Score >= FuzzyLowThreshold:
		result.Name, result.Tier = best.Candidate, FuzzyLow
	}

	return result
}

// Note renders the correction annotation shown next to a FuzzyLow match.
func Note(m MatchResult) string {
	return fmt.Sprintf("(corregido desde \"%s\")", m.Typed)
}
