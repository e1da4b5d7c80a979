package storage

import (
	"context"

	"github.com/poiesic/regindex/core"
)

// ListFilter narrows a chunk scan. Zero values leave a dimension
// unconstrained.
type ListFilter struct {
	SourceType core.SourceType // 0 matches every source type
	SourceId   string          // "" matches every source
}

// BatchError records a single failed item from a batch indexing call.
type BatchError struct {
	Chunk *core.Chunk
	Err   error
}

// BatchResult reports the outcome of a batch indexing call. One bad item
// never aborts the batch; failures are collected here instead.
type BatchResult struct {
	Created []*core.Chunk
	Errors  []BatchError
}

// ChunkRepository provides operations for managing indexed chunks.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// Put validates the chunk, recomputes its derived fields, assigns a
	// store-generated ID, stamps IndexedAt, and persists it under the
	// tenant. Returns the stored chunk.
	Put(ctx context.Context, tenantId string, chunk *core.Chunk) (*core.Chunk, error)

	// PutBatch applies Put semantics to each element, committing at most
	// the backend's per-transaction write limit per committed unit.
	// Per-item validation failures are collected in the result; storage
	// failures abort the current transaction and are returned alongside
	// whatever already committed.
	PutBatch(ctx context.Context, tenantId string, chunks []*core.Chunk) (*BatchResult, error)

	// DeleteBySource deletes every chunk belonging to the
	// (sourceType, sourceId) pair. Returns the number of chunks deleted.
	DeleteBySource(ctx context.Context, tenantId string, sourceType core.SourceType, sourceId string) (int, error)

	// ClearAll deletes every chunk for the tenant in bounded transactions.
	// Returns the number of chunks deleted.
	ClearAll(ctx context.Context, tenantId string) (int, error)

	// List returns the tenant's chunks in insertion (ID) order, optionally
	// narrowed by filter. An empty tenant yields an empty slice, not an
	// error.
	List(ctx context.Context, tenantId string, filter *ListFilter) ([]*core.Chunk, error)

	// Close releases repository resources.
	Close() error
}
