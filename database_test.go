package regindex

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/poiesic/regindex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase(t *testing.T) {
	t.Run("creates database on disk", func(t *testing.T) {
		db, err := NewDatabase(filepath.Join(t.TempDir(), "chunks"))
		require.NoError(t, err)
		require.NotNil(t, db)
		assert.NoError(t, db.Close())
	})

	t.Run("in memory", func(t *testing.T) {
		db, err := NewDatabase("", WithInMemory())
		require.NoError(t, err)
		require.NotNil(t, db)
		assert.NoError(t, db.Close())
	})

	t.Run("invalid path", func(t *testing.T) {
		_, err := NewDatabase("/dev/null/not-a-directory")
		assert.Error(t, err)
	})
}

func TestDatabase_Services(t *testing.T) {
	db, err := NewDatabase("", WithInMemory())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	_, err = db.ChunkRepository().Put(ctx, "org-1", &core.Chunk{
		SourceType:     core.SourceTypePolicy,
		SourceId:       "pol-1",
		SourceNumber:   "1010",
		SourceTitle:    "Policy 1010",
		Content:        "Pilots must complete a flight review every 24 months",
		RegulatoryRefs: []string{"CARs 901.56"},
	})
	require.NoError(t, err)

	searcher, err := db.NewSearcher()
	require.NoError(t, err)
	defer searcher.Release()

	results, err := searcher.Search(ctx, "org-1", "flight review", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.GreaterOrEqual(t, results[0].RelevanceScore, 50)

	resolver, err := db.NewResolver(searcher)
	require.NoError(t, err)

	resolution, err := resolver.Resolve(ctx, "org-1", &core.Requirement{
		Text:              "flight review",
		RegulatoryRef:     "CARs 901.56",
		SuggestedPolicies: []string{"1010", "9999"},
	})
	require.NoError(t, err)
	assert.Len(t, resolution.DirectMatches, 1)
	assert.Equal(t, []core.Gap{{Type: core.GapTypeMissingPolicy, PolicyNumber: "9999"}}, resolution.Gaps)

	tracker, err := db.NewStatusTracker()
	require.NoError(t, err)
	defer tracker.Close()

	snapshot, err := tracker.Refresh(ctx, "org-1")
	require.NoError(t, err)
	assert.True(t, snapshot.IsIndexed)
	assert.Equal(t, 1, snapshot.TotalChunks)
}
