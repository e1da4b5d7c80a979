package search

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/poiesic/regindex/core"
	"github.com/poiesic/regindex/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearcher(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() { repo.Close(); backend.Close() }()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(repo)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
		searcher.Release()
	})

	t.Run("with custom logger", func(t *testing.T) {
		searcher, err := NewSearcher(repo, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
		searcher.Release()
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(repo, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
		searcher.Release()
	})

	t.Run("with pool size", func(t *testing.T) {
		searcher, err := NewSearcher(repo, WithPoolSize(4))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
		searcher.Release()
	})

	t.Run("nil chunk repository", func(t *testing.T) {
		_, err := NewSearcher(nil)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})
}

func newTestSearcher(t *testing.T) (*Searcher, func(ctx context.Context, chunks ...*core.Chunk)) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close(); backend.Close() })

	searcher, err := NewSearcher(repo)
	require.NoError(t, err)
	t.Cleanup(searcher.Release)

	index := func(ctx context.Context, chunks ...*core.Chunk) {
		for _, chunk := range chunks {
			_, err := repo.Put(ctx, "org-1", chunk)
			require.NoError(t, err)
		}
	}
	return searcher, index
}

func TestSearch_EmptyTenant(t *testing.T) {
	searcher, _ := newTestSearcher(t)

	results, err := searcher.Search(context.Background(), "org-1", "flight review", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_RanksAndDropsZeroScores(t *testing.T) {
	searcher, index := newTestSearcher(t)
	ctx := context.Background()

	index(ctx,
		&core.Chunk{
			SourceType:     core.SourceTypePolicy,
			SourceId:       "a",
			SourceTitle:    "Policy 1010",
			Content:        "Pilots must complete Flight Review every 24 months",
			RegulatoryRefs: []string{"CARs 901.56"},
		},
		&core.Chunk{
			SourceType:  core.SourceTypePolicy,
			SourceId:    "b",
			SourceTitle: "Policy 1009",
			Content:     "Equipment is inspected before each flight",
		},
	)

	results, err := searcher.Search(ctx, "org-1", "flight review", nil)
	require.NoError(t, err)

	// B contains "flight" but not "review" as a phrase; it may score on the
	// term alone, so assert ranking rather than exclusion first.
	require.NotEmpty(t, results)
	assert.Equal(t, "a", results[0].Chunk.SourceId)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].RelevanceScore, results[i-1].RelevanceScore)
	}

	// A query only A can match returns only A.
	results, err = searcher.Search(ctx, "org-1", "review months", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Chunk.SourceId)
}

func TestSearch_MaxResults(t *testing.T) {
	searcher, index := newTestSearcher(t)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		index(ctx, &core.Chunk{
			SourceType:  core.SourceTypePolicy,
			SourceId:    fmt.Sprintf("pol-%d", i),
			SourceTitle: fmt.Sprintf("Policy %d", i),
			Content:     "Battery maintenance and storage procedures",
		})
	}

	results, err := searcher.Search(ctx, "org-1", "battery maintenance", &Options{MaxResults: 5})
	require.NoError(t, err)
	assert.Len(t, results, 5)

	// Default limit applies when options are omitted.
	results, err = searcher.Search(ctx, "org-1", "battery maintenance", nil)
	require.NoError(t, err)
	assert.Len(t, results, DefaultMaxResults)
}

func TestSearch_SourceTypeScope(t *testing.T) {
	searcher, index := newTestSearcher(t)
	ctx := context.Background()

	index(ctx,
		&core.Chunk{
			SourceType:  core.SourceTypePolicy,
			SourceId:    "pol-1",
			SourceTitle: "Policy 1013",
			Content:     "Battery handling procedures for all crews",
		},
		&core.Chunk{
			SourceType:  core.SourceTypeEquipment,
			SourceId:    "eq-1",
			SourceTitle: "Mavic 3 Battery Spec",
			Content:     "Battery capacity and storage temperature limits",
		},
	)

	results, err := searcher.Search(ctx, "org-1", "battery", &Options{
		SourceTypes: []core.SourceType{core.SourceTypeEquipment},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "eq-1", results[0].Chunk.SourceId)
}

func TestSearch_CategoryFilter(t *testing.T) {
	searcher, index := newTestSearcher(t)
	ctx := context.Background()

	index(ctx,
		&core.Chunk{
			SourceType:  core.SourceTypePolicy,
			SourceId:    "pol-1",
			SourceTitle: "Policy 1013",
			Content:     "Battery handling procedures",
			Categories:  []string{"maintenance"},
		},
		&core.Chunk{
			SourceType:  core.SourceTypePolicy,
			SourceId:    "pol-2",
			SourceTitle: "Policy 1014",
			Content:     "Battery disposal procedures",
			Categories:  []string{"environment"},
		},
	)

	results, err := searcher.Search(ctx, "org-1", "battery", &Options{
		Categories: []string{"maintenance"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "pol-1", results[0].Chunk.SourceId)
}

func TestSearch_RegulatoryRefFilter(t *testing.T) {
	searcher, index := newTestSearcher(t)
	ctx := context.Background()

	index(ctx,
		&core.Chunk{
			SourceType:     core.SourceTypePolicy,
			SourceId:       "pol-1",
			SourceTitle:    "Policy 1010",
			Content:        "Flight review requirements",
			RegulatoryRefs: []string{"CARs 901.56"},
		},
		&core.Chunk{
			SourceType:  core.SourceTypePolicy,
			SourceId:    "pol-2",
			SourceTitle: "Policy 1011",
			Content:     "Flight review scheduling",
		},
	)

	// Case-insensitive substring match against any reference entry.
	results, err := searcher.Search(ctx, "org-1", "flight review", &Options{
		RegulatoryRef: "cars 901",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "pol-1", results[0].Chunk.SourceId)
}

func TestSearch_TenantIsolation(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() { repo.Close(); backend.Close() }()

	searcher, err := NewSearcher(repo)
	require.NoError(t, err)
	defer searcher.Release()

	ctx := context.Background()
	_, err = repo.Put(ctx, "org-1", &core.Chunk{
		SourceType:  core.SourceTypePolicy,
		SourceId:    "pol-1",
		SourceTitle: "Policy 1010",
		Content:     "Flight review requirements",
	})
	require.NoError(t, err)

	results, err := searcher.Search(ctx, "org-2", "flight review", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

type recordingMonitor struct {
	started    bool
	candidates int
	filtered   int
	scored     int
	finished   int
}

func (m *recordingMonitor) Start(_ string)                { m.started = true }
func (m *recordingMonitor) AfterScan(n int)               { m.candidates = n }
func (m *recordingMonitor) AfterFilter(n int)             { m.filtered = n }
func (m *recordingMonitor) Scored(_ *core.SearchResult)   { m.scored++ }
func (m *recordingMonitor) Finish(r []*core.SearchResult) { m.finished = len(r) }

func TestSearchWithMonitor(t *testing.T) {
	searcher, index := newTestSearcher(t)
	ctx := context.Background()

	index(ctx, &core.Chunk{
		SourceType:  core.SourceTypePolicy,
		SourceId:    "pol-1",
		SourceTitle: "Policy 1010",
		Content:     "Flight review requirements",
	})

	monitor := &recordingMonitor{}
	results, err := searcher.SearchWithMonitor(ctx, "org-1", "flight review", nil, monitor)
	require.NoError(t, err)

	assert.True(t, monitor.started)
	assert.Equal(t, 1, monitor.candidates)
	assert.Equal(t, 1, monitor.filtered)
	assert.Equal(t, 1, monitor.scored)
	assert.Equal(t, len(results), monitor.finished)
}
