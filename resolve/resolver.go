package resolve

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/regindex/core"
	"github.com/poiesic/regindex/search"
	"github.com/poiesic/regindex/storage"
)

const (
	// maxRelatedMatches caps the free-text portion of a resolution.
	maxRelatedMatches = 10
	// maxKeywords caps how many extracted guidance keywords are looked up.
	maxKeywords = 3
	// maxHitsPerKeyword caps the novel chunks each keyword may add.
	maxHitsPerKeyword = 2
	// maxPolicyHits caps the chunks returned per suggested policy check.
	maxPolicyHits = 5
)

// Resolver answers structured compliance requirements by combining
// regulatory-reference lookup, free-text search, suggested-policy
// checks, and guidance keyword lookup into one deduplicated bundle.
//
// Sub-lookup failures are logged and treated as "no match": a partial
// answer is strictly more useful to a compliance reviewer than a hard
// failure.
type Resolver struct {
	chunkRepository storage.ChunkRepository
	searcher        *search.Searcher
	logger          *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewResolver creates a new resolver over a chunk repository and searcher.
func NewResolver(chunkRepository storage.ChunkRepository, searcher *search.Searcher, opts ...Option) (*Resolver, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if searcher == nil {
		return nil, ErrSearcherRequired
	}

	r := &Resolver{
		chunkRepository: chunkRepository,
		searcher:        searcher,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Resolve finds the documentation relevant to a requirement and the
// gaps where mandatory documentation is missing.
func (r *Resolver) Resolve(ctx context.Context, tenantId string, requirement *core.Requirement) (*core.ResolveResult, error) {
	if requirement == nil {
		return nil, ErrRequirementRequired
	}

	result := &core.ResolveResult{}
	seen := make(map[core.ID]bool)
	query := requirement.SearchQuery()

	// 1. Exact regulatory reference matches.
	if requirement.RegulatoryRef != "" {
		result.DirectMatches = r.findByRegulatoryRef(ctx, tenantId, requirement.RegulatoryRef, query, seen)
	}

	// 2. Free-text relevance matches, excluding the direct hits.
	if query != "" {
		result.RelatedMatches = r.findRelated(ctx, tenantId, query, seen)
	}

	// 3. Suggested policy checks: a missing policy is an explicit gap.
	// Chunks listed under a check count as collected, so the keyword
	// lookups below never duplicate them.
	for _, policyNumber := range requirement.SuggestedPolicies {
		check := r.checkSuggestedPolicy(ctx, tenantId, policyNumber)
		result.SuggestedPolicies = append(result.SuggestedPolicies, check)
		for _, hit := range check.Chunks {
			seen[hit.Chunk.Id] = true
		}
		if !check.Found {
			result.Gaps = append(result.Gaps, core.Gap{
				Type:         core.GapTypeMissingPolicy,
				PolicyNumber: policyNumber,
			})
		}
	}

	// 4. Guidance keywords fold novel hits into the related matches.
	keywords := ExtractKeywords(requirement.Guidance)
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	for _, keyword := range keywords {
		hits := r.findByKeyword(ctx, tenantId, keyword, seen)
		result.RelatedMatches = append(result.RelatedMatches, hits...)
	}

	sortByScore(result.DirectMatches)
	sortByScore(result.RelatedMatches)

	return result, nil
}

// findByRegulatoryRef returns chunks whose RegulatoryRefs contain ref as
// an exact array member, scored against the requirement query so the
// bundle sorts meaningfully.
func (r *Resolver) findByRegulatoryRef(ctx context.Context, tenantId, ref, query string, seen map[core.ID]bool) []*core.SearchResult {
	chunks, err := r.chunkRepository.List(ctx, tenantId, nil)
	if err != nil {
		r.logger.Warn("regulatory reference lookup failed", "tenant", tenantId, "ref", ref, "err", err)
		return nil
	}

	var matches []*core.SearchResult
	for _, chunk := range chunks {
		if !hasExactRef(chunk.RegulatoryRefs, ref) || seen[chunk.Id] {
			continue
		}
		seen[chunk.Id] = true
		score, matched := search.Score(chunk, query)
		matches = append(matches, &core.SearchResult{
			Chunk:          chunk,
			RelevanceScore: score,
			MatchedTerms:   matched,
		})
	}
	return matches
}

// findRelated runs the free-text search and keeps up to
// maxRelatedMatches results not already collected.
func (r *Resolver) findRelated(ctx context.Context, tenantId, query string, seen map[core.ID]bool) []*core.SearchResult {
	// Over-fetch by the number already collected so exclusions don't
	// starve the related list.
	results, err := r.searcher.Search(ctx, tenantId, query, &search.Options{
		MaxResults: maxRelatedMatches + len(seen),
	})
	if err != nil {
		r.logger.Warn("free-text requirement search failed", "tenant", tenantId, "err", err)
		return nil
	}

	var related []*core.SearchResult
	for _, result := range results {
		if seen[result.Chunk.Id] {
			continue
		}
		seen[result.Chunk.Id] = true
		related = append(related, result)
		if len(related) == maxRelatedMatches {
			break
		}
	}
	return related
}

// checkSuggestedPolicy looks for policy chunks matching a suggested
// policy number. Zero hits means the control is undocumented.
func (r *Resolver) checkSuggestedPolicy(ctx context.Context, tenantId, policyNumber string) core.SuggestedPolicyCheck {
	check := core.SuggestedPolicyCheck{PolicyNumber: policyNumber}

	results, err := r.searcher.Search(ctx, tenantId, policyNumber, &search.Options{
		SourceTypes: []core.SourceType{core.SourceTypePolicy},
		MaxResults:  maxPolicyHits,
	})
	if err != nil {
		r.logger.Warn("suggested policy lookup failed", "tenant", tenantId, "policy", policyNumber, "err", err)
		return check
	}

	// The scorer drops short terms, so short policy numbers fall through
	// to a direct source number comparison.
	if len(results) == 0 {
		results = r.findByPolicyNumber(ctx, tenantId, policyNumber)
	}

	if len(results) > 0 {
		check.Found = true
		check.Chunks = results
	}
	return check
}

// findByPolicyNumber matches policy chunks on SourceNumber directly.
func (r *Resolver) findByPolicyNumber(ctx context.Context, tenantId, policyNumber string) []*core.SearchResult {
	chunks, err := r.chunkRepository.List(ctx, tenantId, &storage.ListFilter{SourceType: core.SourceTypePolicy})
	if err != nil {
		r.logger.Warn("policy number scan failed", "tenant", tenantId, "policy", policyNumber, "err", err)
		return nil
	}

	var results []*core.SearchResult
	for _, chunk := range chunks {
		if chunk.SourceNumber != policyNumber {
			continue
		}
		results = append(results, &core.SearchResult{Chunk: chunk, RelevanceScore: 0})
		if len(results) == maxPolicyHits {
			break
		}
	}
	return results
}

// findByKeyword returns up to maxHitsPerKeyword novel chunks carrying
// the keyword as an exact (case-insensitive) keyword entry.
func (r *Resolver) findByKeyword(ctx context.Context, tenantId, keyword string, seen map[core.ID]bool) []*core.SearchResult {
	chunks, err := r.chunkRepository.List(ctx, tenantId, nil)
	if err != nil {
		r.logger.Warn("keyword lookup failed", "tenant", tenantId, "keyword", keyword, "err", err)
		return nil
	}

	var hits []*core.SearchResult
	for _, chunk := range chunks {
		if seen[chunk.Id] || !hasKeyword(chunk.Keywords, keyword) {
			continue
		}
		seen[chunk.Id] = true
		score, matched := search.Score(chunk, keyword)
		hits = append(hits, &core.SearchResult{
			Chunk:          chunk,
			RelevanceScore: score,
			MatchedTerms:   matched,
		})
		if len(hits) == maxHitsPerKeyword {
			break
		}
	}
	return hits
}

// hasExactRef reports whether refs contains ref as an exact member.
func hasExactRef(refs []string, ref string) bool {
	for _, entry := range refs {
		if entry == ref {
			return true
		}
	}
	return false
}

// hasKeyword reports whether keywords contains keyword, ignoring case.
func hasKeyword(keywords []string, keyword string) bool {
	for _, entry := range keywords {
		if strings.EqualFold(entry, keyword) {
			return true
		}
	}
	return false
}

// sortByScore orders results by relevance score descending, preserving
// insertion order on ties.
func sortByScore(results []*core.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
}
