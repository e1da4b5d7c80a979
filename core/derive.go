package core

import "strings"

// previewLength is the maximum number of characters kept in ContentPreview.
const previewLength = 200

// DeriveFields recomputes the derived fields of a chunk from its content
// and metadata. The store calls this on every write; derived fields are
// never mutated independently of the content they are derived from.
func DeriveFields(chunk *Chunk) {
	chunk.ContentPreview = preview(chunk.Content)
	chunk.SearchText = buildSearchText(chunk)
	chunk.WordCount = len(strings.Fields(chunk.Content))
}

// preview returns the first previewLength characters of text,
// counted in runes so multi-byte characters are never split.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength])
}

// buildSearchText joins the searchable fields of a chunk into a single
// lowercase string used for term membership checks.
func buildSearchText(chunk *Chunk) string {
	parts := make([]string, 0, 3+len(chunk.Keywords)+len(chunk.RegulatoryRefs))
	parts = append(parts, chunk.SourceTitle, chunk.SectionTitle, chunk.Content)
	parts = append(parts, chunk.Keywords...)
	parts = append(parts, chunk.RegulatoryRefs...)
	return strings.ToLower(strings.Join(parts, " "))
}

// NormalizeSet trims whitespace from each value and removes empties and
// duplicates while preserving first-seen order.
func NormalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}
