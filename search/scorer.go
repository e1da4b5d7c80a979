package search

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/regindex/core"
)

// Scoring weights. The scorer is a transparent heuristic, not a
// statistical IR model: every point a chunk earns is traceable to one
// of these signals.
const (
	phraseInContentPoints = 50
	phraseInTitlePoints   = 40
	termInTitlePoints     = 15
	termInSectionPoints   = 12
	termInKeywordPoints   = 10
	termInRefPoints       = 8
	termInContentPoints   = 5
	termContentCapPoints  = 10 // One term contributes at most this from content
	maxScore              = 100
	minTermLength         = 3
)

// Score computes the relevance of a chunk for a free-text query.
// It is a pure function of its inputs: identical (chunk, query) pairs
// always produce identical results.
//
// Returns a score in [0,100] and the query terms found anywhere in the
// chunk's search text.
func Score(chunk *core.Chunk, query string) (int, []string) {
	terms := queryTerms(query)
	phrase := strings.ToLower(strings.TrimSpace(query))
	if phrase == "" {
		return 0, nil
	}

	content := strings.ToLower(chunk.Content)
	title := strings.ToLower(chunk.SourceTitle)
	section := strings.ToLower(chunk.SectionTitle)

	score := 0

	// Exact phrase matches dominate the score.
	if strings.Contains(content, phrase) {
		score += phraseInContentPoints
	}
	if strings.Contains(title, phrase) {
		score += phraseInTitlePoints
	}

	for _, term := range terms {
		if strings.Contains(title, term) {
			score += termInTitlePoints
		}
		if strings.Contains(section, term) {
			score += termInSectionPoints
		}
		if anyContains(chunk.Keywords, term) {
			score += termInKeywordPoints
		}
		if anyContains(chunk.RegulatoryRefs, term) {
			score += termInRefPoints
		}
		if occurrences := strings.Count(content, term); occurrences > 0 {
			points := termInContentPoints + (occurrences - 1)
			if points > termContentCapPoints {
				points = termContentCapPoints
			}
			score += points
		}
	}

	// Cap, never rescale: multi-signal matches saturate.
	if score > maxScore {
		score = maxScore
	}

	var matched []string
	for _, term := range terms {
		if strings.Contains(chunk.SearchText, term) {
			matched = append(matched, term)
		}
	}

	return score, matched
}

// queryTerms normalizes a query into its scoring terms: lowercase,
// whitespace-split, short terms discarded, duplicates removed.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		if utf8.RuneCountInString(field) < minTermLength || seen[field] {
			continue
		}
		seen[field] = true
		terms = append(terms, field)
	}
	return terms
}

// anyContains reports whether any entry contains term, case-insensitively.
func anyContains(entries []string, term string) bool {
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry), term) {
			return true
		}
	}
	return false
}
