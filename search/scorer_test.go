package search

import (
	"testing"

	"github.com/poiesic/regindex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoringChunk() *core.Chunk {
	chunk := &core.Chunk{
		SourceType:     core.SourceTypePolicy,
		SourceId:       "pol-1",
		SourceTitle:    "Policy 1010",
		SectionTitle:   "Pilot Currency",
		Content:        "Pilots must complete Flight Review every 24 months",
		Keywords:       []string{"training", "currency"},
		RegulatoryRefs: []string{"CARs 901.56"},
	}
	core.DeriveFields(chunk)
	return chunk
}

func TestScore_Bounds(t *testing.T) {
	chunk := scoringChunk()

	queries := []string{
		"",
		"a",
		"flight",
		"flight review",
		"pilots must complete flight review every 24 months",
		"policy pilot currency training flight review months 901.56",
		"unrelated gardening terms entirely",
	}
	for _, query := range queries {
		score, _ := Score(chunk, query)
		assert.GreaterOrEqual(t, score, 0, "query %q", query)
		assert.LessOrEqual(t, score, 100, "query %q", query)
	}
}

func TestScore_PhraseInContent(t *testing.T) {
	chunk := scoringChunk()

	// A full-phrase content match alone is worth at least 50.
	score, _ := Score(chunk, "flight review")
	assert.GreaterOrEqual(t, score, 50)
}

func TestScore_PhraseInTitle(t *testing.T) {
	chunk := scoringChunk()

	score, matched := Score(chunk, "policy 1010")
	assert.GreaterOrEqual(t, score, 40)
	assert.Contains(t, matched, "policy")
}

func TestScore_Deterministic(t *testing.T) {
	chunk := scoringChunk()

	score1, matched1 := Score(chunk, "flight review training")
	score2, matched2 := Score(chunk, "flight review training")
	assert.Equal(t, score1, score2)
	assert.Equal(t, matched1, matched2)
}

func TestScore_ShortTermsDiscarded(t *testing.T) {
	chunk := scoringChunk()

	// "zz" is two characters: too short to be a term, and absent as a phrase.
	score, matched := Score(chunk, "zz")
	assert.Zero(t, score)
	assert.Empty(t, matched)

	// "24" is also too short to be a term, but the full-phrase rule still
	// sees it in the content.
	score, matched = Score(chunk, "24")
	assert.Equal(t, 50, score)
	assert.Empty(t, matched)
}

func TestScore_TermLengthCountsRunes(t *testing.T) {
	chunk := &core.Chunk{
		SourceType:  core.SourceTypeUpload,
		SourceId:    "up-1",
		SourceTitle: "Notes",
		Content:     "cell éé care",
	}
	core.DeriveFields(chunk)

	// "éé" is two characters (four bytes): discarded like any other
	// two-character term, so only "cell" scores.
	score, matched := Score(chunk, "éé cell")
	assert.Equal(t, 5, score)
	assert.Equal(t, []string{"cell"}, matched)
}

func TestScore_NoMatch(t *testing.T) {
	chunk := scoringChunk()

	score, matched := Score(chunk, "submarine ballast procedures")
	assert.Zero(t, score)
	assert.Empty(t, matched)
}

func TestScore_MatchedTerms(t *testing.T) {
	chunk := scoringChunk()

	_, matched := Score(chunk, "Flight training submarine")
	assert.Equal(t, []string{"flight", "training"}, matched)
}

func TestScore_ContentRepeatCap(t *testing.T) {
	chunk := &core.Chunk{
		SourceType:  core.SourceTypeUpload,
		SourceId:    "up-1",
		SourceTitle: "Notes",
		Content:     "battery battery battery battery battery battery battery battery",
	}
	core.DeriveFields(chunk)

	// Two-term query so the full-phrase bonus stays out of the picture:
	// one term contributes at most 10 from content however often it repeats.
	score, _ := Score(chunk, "battery charging")
	require.Equal(t, 10, score)
}

func TestScore_RankingExample(t *testing.T) {
	chunkA := &core.Chunk{
		SourceType:     core.SourceTypePolicy,
		SourceId:       "a",
		SourceTitle:    "Policy 1010",
		Content:        "Pilots must complete Flight Review every 24 months",
		RegulatoryRefs: []string{"CARs 901.56"},
	}
	chunkB := &core.Chunk{
		SourceType:  core.SourceTypePolicy,
		SourceId:    "b",
		SourceTitle: "Policy 1009",
		Content:     "Equipment is inspected before each flight",
	}
	core.DeriveFields(chunkA)
	core.DeriveFields(chunkB)

	scoreA, _ := Score(chunkA, "flight review")
	scoreB, _ := Score(chunkB, "flight review")
	assert.Greater(t, scoreA, scoreB)
}
