package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/regindex/core"
	"github.com/poiesic/regindex/storage"
)

func testChunk(sourceId, title, content string) *core.Chunk {
	return &core.Chunk{
		SourceType:  core.SourceTypePolicy,
		SourceId:    sourceId,
		SourceTitle: title,
		Content:     content,
	}
}

func TestChunkPutBasics(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	chunk := testChunk("pol-1", "Policy 1010", "Pilots must complete a Flight Review every 24 months")
	chunk.Keywords = []string{" training ", "training", "currency"}

	stored, err := repo.Put(ctx, "org-1", chunk)
	if err != nil {
		t.Fatalf("Failed to put chunk: %v", err)
	}

	if stored.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if stored.IndexedAt.IsZero() {
		t.Error("Expected IndexedAt to be stamped")
	}
	if stored.ContentPreview == "" || stored.SearchText == "" || stored.WordCount == 0 {
		t.Error("Expected derived fields to be populated")
	}
	if len(stored.Keywords) != 2 {
		t.Errorf("Expected keywords normalized to 2 entries, got %v", stored.Keywords)
	}

	listed, err := repo.List(ctx, "org-1", nil)
	if err != nil {
		t.Fatalf("Failed to list chunks: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(listed))
	}
	if listed[0].Content != chunk.Content {
		t.Errorf("Expected content %q, got %q", chunk.Content, listed[0].Content)
	}
}

func TestChunkPut_Validation(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	_, err = repo.Put(ctx, "org-1", testChunk("pol-1", "Policy 1010", ""))
	if !errors.Is(err, core.ErrInvalidChunk) {
		t.Errorf("Expected ErrInvalidChunk for empty content, got %v", err)
	}

	_, err = repo.Put(ctx, "", testChunk("pol-1", "Policy 1010", "content"))
	if !errors.Is(err, core.ErrEmptyTenant) {
		t.Errorf("Expected ErrEmptyTenant, got %v", err)
	}

	// Nothing should have been written.
	listed, err := repo.List(ctx, "org-1", nil)
	if err != nil {
		t.Fatalf("Failed to list chunks: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("Expected no chunks after rejected puts, got %d", len(listed))
	}
}

func TestChunkPut_NoImplicitDedup(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	// Indexing the same logical chunk twice stores two chunks; updates
	// are expressed as delete-by-source plus re-index.
	first, err := repo.Put(ctx, "org-1", testChunk("pol-1", "Policy 1010", "identical content"))
	if err != nil {
		t.Fatalf("Failed to put first chunk: %v", err)
	}
	second, err := repo.Put(ctx, "org-1", testChunk("pol-1", "Policy 1010", "identical content"))
	if err != nil {
		t.Fatalf("Failed to put second chunk: %v", err)
	}
	if first.Id == second.Id {
		t.Error("Expected distinct IDs for duplicate logical chunks")
	}

	listed, err := repo.List(ctx, "org-1", nil)
	if err != nil {
		t.Fatalf("Failed to list chunks: %v", err)
	}
	if len(listed) != 2 {
		t.Errorf("Expected 2 chunks, got %d", len(listed))
	}
}

func TestPutBatch_CollectsPerItemErrors(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	// 501 chunks, one of them invalid: every valid chunk still lands.
	chunks := make([]*core.Chunk, 0, 501)
	for i := 0; i < 250; i++ {
		chunks = append(chunks, testChunk("pol-1", "Policy 1010", "section text"))
	}
	chunks = append(chunks, testChunk("pol-2", "Policy 1011", "")) // missing content
	for i := 0; i < 250; i++ {
		chunks = append(chunks, testChunk("pol-3", "Policy 1012", "more section text"))
	}

	result, err := repo.PutBatch(ctx, "org-1", chunks)
	if err != nil {
		t.Fatalf("PutBatch failed: %v", err)
	}
	if len(result.Created) != 500 {
		t.Errorf("Expected 500 created, got %d", len(result.Created))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(result.Errors))
	}
	if !errors.Is(result.Errors[0].Err, core.ErrEmptyContent) {
		t.Errorf("Expected ErrEmptyContent, got %v", result.Errors[0].Err)
	}

	listed, err := repo.List(ctx, "org-1", nil)
	if err != nil {
		t.Fatalf("Failed to list chunks: %v", err)
	}
	if len(listed) != 500 {
		t.Errorf("Expected 500 stored chunks, got %d", len(listed))
	}
}

func TestDeleteBySource(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := repo.Put(ctx, "org-1", testChunk("pol-1", "Policy 1010", "section text")); err != nil {
			t.Fatalf("Failed to put chunk: %v", err)
		}
	}
	if _, err := repo.Put(ctx, "org-1", testChunk("pol-2", "Policy 1011", "other text")); err != nil {
		t.Fatalf("Failed to put chunk: %v", err)
	}

	deleted, err := repo.DeleteBySource(ctx, "org-1", core.SourceTypePolicy, "pol-1")
	if err != nil {
		t.Fatalf("DeleteBySource failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted, got %d", deleted)
	}

	listed, err := repo.List(ctx, "org-1", nil)
	if err != nil {
		t.Fatalf("Failed to list chunks: %v", err)
	}
	if len(listed) != 1 || listed[0].SourceId != "pol-2" {
		t.Errorf("Expected only pol-2 to remain, got %d chunks", len(listed))
	}

	// Deleting an absent source is a zero-count no-op.
	deleted, err = repo.DeleteBySource(ctx, "org-1", core.SourceTypePolicy, "pol-9")
	if err != nil {
		t.Fatalf("DeleteBySource failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected 0 deleted, got %d", deleted)
	}
}

func TestClearAll(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	// More than one transaction's worth of chunks.
	chunks := make([]*core.Chunk, 600)
	for i := range chunks {
		chunks[i] = testChunk("pol-1", "Policy 1010", "section text")
	}
	result, err := repo.PutBatch(ctx, "org-1", chunks)
	if err != nil {
		t.Fatalf("PutBatch failed: %v", err)
	}
	if len(result.Created) != 600 {
		t.Fatalf("Expected 600 created, got %d", len(result.Created))
	}
	if _, err := repo.Put(ctx, "org-2", testChunk("pol-1", "Policy 1010", "other tenant")); err != nil {
		t.Fatalf("Failed to put chunk: %v", err)
	}

	deleted, err := repo.ClearAll(ctx, "org-1")
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if deleted != 600 {
		t.Errorf("Expected 600 deleted, got %d", deleted)
	}

	listed, err := repo.List(ctx, "org-1", nil)
	if err != nil {
		t.Fatalf("Failed to list chunks: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("Expected empty tenant after clear, got %d chunks", len(listed))
	}

	// The other tenant is untouched.
	listed, err = repo.List(ctx, "org-2", nil)
	if err != nil {
		t.Fatalf("Failed to list chunks: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("Expected org-2 to keep its chunk, got %d", len(listed))
	}
}

func TestList_Filters(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	policy := testChunk("pol-1", "Policy 1010", "policy text")
	equipment := testChunk("eq-1", "Mavic 3 Spec", "equipment text")
	equipment.SourceType = core.SourceTypeEquipment
	for _, chunk := range []*core.Chunk{policy, equipment} {
		if _, err := repo.Put(ctx, "org-1", chunk); err != nil {
			t.Fatalf("Failed to put chunk: %v", err)
		}
	}

	listed, err := repo.List(ctx, "org-1", &storage.ListFilter{SourceType: core.SourceTypeEquipment})
	if err != nil {
		t.Fatalf("Failed to list chunks: %v", err)
	}
	if len(listed) != 1 || listed[0].SourceId != "eq-1" {
		t.Errorf("Expected only the equipment chunk, got %d", len(listed))
	}

	listed, err = repo.List(ctx, "org-1", &storage.ListFilter{SourceId: "pol-1"})
	if err != nil {
		t.Fatalf("Failed to list chunks: %v", err)
	}
	if len(listed) != 1 || listed[0].SourceId != "pol-1" {
		t.Errorf("Expected only pol-1, got %d", len(listed))
	}
}

func TestList_EmptyTenant(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	// A freshly onboarded tenant has no data; that is normal, not an error.
	listed, err := repo.List(context.Background(), "brand-new-org", nil)
	if err != nil {
		t.Fatalf("List on empty tenant failed: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("Expected 0 chunks, got %d", len(listed))
	}
}

func TestList_InsertionOrder(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer func() { repo.Close(); backend.Close() }()

	ctx := context.Background()

	var ids []core.ID
	for i := 0; i < 5; i++ {
		stored, err := repo.Put(ctx, "org-1", testChunk("pol-1", "Policy 1010", "section text"))
		if err != nil {
			t.Fatalf("Failed to put chunk: %v", err)
		}
		ids = append(ids, stored.Id)
	}

	listed, err := repo.List(ctx, "org-1", nil)
	if err != nil {
		t.Fatalf("Failed to list chunks: %v", err)
	}
	if len(listed) != len(ids) {
		t.Fatalf("Expected %d chunks, got %d", len(ids), len(listed))
	}
	for i, chunk := range listed {
		if chunk.Id != ids[i] {
			t.Fatalf("Expected insertion order, got %v at position %d", chunk.Id, i)
		}
	}
}
