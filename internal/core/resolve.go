package core

// resolve.go reconciles human-readable references (a creator's name, a team
// member's email) against the preloaded reference lists.
//
// Matching is exact and case-sensitive on the attributes a field declares in
// match_on. The outcome is typed so callers can surface it instead of silently
// dropping the value:
//
//	Resolved   exactly one record matched
//	Ambiguous  several records matched; the first one in list order is kept
//	NotFound   nothing matched; close spellings are offered as suggestions
//	Unchecked  the reference list was not loaded (offline preview)

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ResolveStatus is the outcome of resolving one reference value.
type ResolveStatus string

const (
	Resolved  ResolveStatus = "resolved"
	Ambiguous ResolveStatus = "ambiguous"
	NotFound  ResolveStatus = "not_found"
	Unchecked ResolveStatus = "unchecked"
)

// maxSuggestions caps the "did you mean" list.
const maxSuggestions = 3

// maxSuggestDistance is the largest edit distance still offered as a suggestion.
const maxSuggestDistance = 2

// Resolution is the typed result of a reference lookup.
type Resolution struct {
	Status      ResolveStatus
	ID          string   // Set for Resolved and Ambiguous
	Matches     []string // IDs of every matching record when Ambiguous
	Suggestions []string // Close spellings when NotFound
}

// Resolver looks values up in a ReferenceSet.
type Resolver struct {
	refs ReferenceSet
}

// NewResolver creates a resolver over preloaded reference lists.
// A nil set resolves every value as Unchecked.
func NewResolver(refs ReferenceSet) *Resolver {
	return &Resolver{refs: refs}
}

// Resolve matches value against the kind's list on the given attributes.
// An empty matchOn compares names only.
func (r *Resolver) Resolve(kind RefKind, matchOn []string, value string) Resolution {
	list, ok := r.refs[kind]
	if !ok {
		return Resolution{Status: Unchecked}
	}
	if len(matchOn) == 0 {
		matchOn = []string{"name"}
	}

	var matches []string
	seen := make(map[string]bool)
	for _, ref := range list {
		for _, attr := range matchOn {
			if ref.attr(attr) == value && !seen[ref.ID] {
				seen[ref.ID] = true
				matches = append(matches, ref.ID)
			}
		}
	}

	switch len(matches) {
	case 0:
		return Resolution{
			Status:      NotFound,
			Suggestions: suggest(value, list, matchOn),
		}
	case 1:
		return Resolution{Status: Resolved, ID: matches[0]}
	default:
		return Resolution{Status: Ambiguous, ID: matches[0], Matches: matches}
	}
}

// suggest ranks reference attributes that are close to value: case variants,
// subsequence matches and small typos.
func suggest(value string, list []Reference, matchOn []string) []string {
	type candidate struct {
		word string
		dist int
	}

	lower := strings.ToLower(value)
	seen := make(map[string]bool)
	var candidates []candidate

	for _, ref := range list {
		for _, attr := range matchOn {
			word := ref.attr(attr)
			if word == "" || seen[word] {
				continue
			}
			dist := fuzzy.LevenshteinDistance(lower, strings.ToLower(word))
			if dist <= maxSuggestDistance || fuzzy.MatchNormalizedFold(value, word) {
				seen[word] = true
				candidates = append(candidates, candidate{word: word, dist: dist})
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].word < candidates[j].word
	})

	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.word
	}
	return out
}
