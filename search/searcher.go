package search

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/regindex/core"
	"github.com/poiesic/regindex/storage"
)

// DefaultMaxResults is the result limit used when Options does not set one.
const DefaultMaxResults = 20

// Options narrows and sizes a search. The zero value searches the whole
// tenant index with the default result limit.
type Options struct {
	SourceTypes   []core.SourceType // Scope the scan to these source types
	Categories    []string          // Keep only chunks sharing at least one category
	RegulatoryRef string            // Keep only chunks citing this reference (substring, case-insensitive)
	MaxResults    int               // Defaults to DefaultMaxResults when <= 0
}

// Searcher ranks indexed chunks against free-text queries. Each search
// is a full scan-and-score over the tenant's candidate chunks; there is
// no inverted index. That holds up while per-tenant chunk counts stay in
// the low thousands.
type Searcher struct {
	chunkRepository storage.ChunkRepository
	pool            *ants.Pool
	logger          *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithPoolSize sets the worker pool size for parallel scoring.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			size = 1
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// NewSearcher creates a new searcher over a chunk repository.
func NewSearcher(chunkRepository storage.ChunkRepository, opts ...Option) (*Searcher, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		chunkRepository: chunkRepository,
		pool:            pool,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}

	return s, nil
}

// Release releases the scoring pool.
// The searcher should not be used after calling Release.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Search scans the tenant's chunks, scores the survivors of the option
// filters, and returns the top matches sorted by score descending.
// Equal scores keep store iteration order, which is insertion order.
func (s *Searcher) Search(ctx context.Context, tenantId, query string, opts *Options) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, tenantId, query, opts, nil)
}

// SearchWithMonitor is Search with stage callbacks for observability.
func (s *Searcher) SearchWithMonitor(ctx context.Context, tenantId, query string, opts *Options, monitor Monitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if opts == nil {
		opts = &Options{}
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	monitor.Start(query)

	candidates, err := s.listCandidates(ctx, tenantId, opts)
	if err != nil {
		s.logger.Error("error listing candidate chunks", "tenant", tenantId, "err", err)
		return nil, err
	}
	monitor.AfterScan(len(candidates))

	filtered := candidates[:0:0]
	for _, chunk := range candidates {
		if passesFilters(chunk, opts) {
			filtered = append(filtered, chunk)
		}
	}
	monitor.AfterFilter(len(filtered))

	// The scorer is pure, so chunks are scored in parallel. Slots are
	// indexed to keep results in scan order for the stable tie-break.
	scored := make([]*core.SearchResult, len(filtered))
	var wg sync.WaitGroup
	for i, chunk := range filtered {
		i, chunk := i, chunk
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			score, matched := Score(chunk, query)
			if score > 0 {
				scored[i] = &core.SearchResult{
					Chunk:          chunk,
					RelevanceScore: score,
					MatchedTerms:   matched,
				}
			}
		})
		if submitErr != nil {
			// Pool rejected the task (released or overloaded); score inline.
			score, matched := Score(chunk, query)
			if score > 0 {
				scored[i] = &core.SearchResult{
					Chunk:          chunk,
					RelevanceScore: score,
					MatchedTerms:   matched,
				}
			}
			wg.Done()
		}
	}
	wg.Wait()

	results := make([]*core.SearchResult, 0, len(scored))
	for _, result := range scored {
		if result == nil {
			continue
		}
		monitor.Scored(result)
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	monitor.Finish(results)

	return results, nil
}

// listCandidates reads the scan candidates, scoped to the requested
// source types when given.
func (s *Searcher) listCandidates(ctx context.Context, tenantId string, opts *Options) ([]*core.Chunk, error) {
	if len(opts.SourceTypes) == 0 {
		return s.chunkRepository.List(ctx, tenantId, nil)
	}

	var candidates []*core.Chunk
	for _, sourceType := range opts.SourceTypes {
		chunks, err := s.chunkRepository.List(ctx, tenantId, &storage.ListFilter{SourceType: sourceType})
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, chunks...)
	}
	return candidates, nil
}

// passesFilters applies the pre-score exclusion filters: category
// intersection and regulatory reference substring.
func passesFilters(chunk *core.Chunk, opts *Options) bool {
	if len(opts.Categories) > 0 && !intersects(chunk.Categories, opts.Categories) {
		return false
	}
	if opts.RegulatoryRef != "" && !citesReference(chunk.RegulatoryRefs, opts.RegulatoryRef) {
		return false
	}
	return true
}

// intersects reports whether the two category sets share an entry.
func intersects(a, b []string) bool {
	for _, va := range a {
		for _, vb := range b {
			if va == vb {
				return true
			}
		}
	}
	return false
}

// citesReference reports whether any entry contains ref as a
// case-insensitive substring.
func citesReference(refs []string, ref string) bool {
	needle := strings.ToLower(ref)
	for _, entry := range refs {
		if strings.Contains(strings.ToLower(entry), needle) {
			return true
		}
	}
	return false
}
