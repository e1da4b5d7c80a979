package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/regindex/core"
	"github.com/poiesic/regindex/storage"
)

// maxTxnWrites bounds the number of writes committed in one transaction.
// Badger caps transaction size against its memtable; 500 keeps batches
// comfortably inside the default limits. Operations larger than this are
// split across transactions and are not atomic as a whole.
const maxTxnWrites = 500

// writesPerChunk is the number of keys written per indexed chunk:
// the primary record and its source index entry.
const writesPerChunk = 2

// chunksPerTxn is the number of chunks committed per transaction.
const chunksPerTxn = maxTxnWrites / writesPerChunk

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewRepository opens a BadgerDB database at path and returns a chunk
// repository backed by it. The caller owns both and must Close the
// repository, then the returned backend.
func NewRepository(path string) (storage.ChunkRepository, *Backend, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, nil, err
	}
	repo, err := NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return repo, backend, nil
}

// NewChunkRepository creates a new ChunkRepository on an open backend.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	idSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		return nil, err
	}

	return &ChunkRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ChunkRepository) Close() error {
	return r.idSeq.Release()
}

// Put validates, derives, and persists a single chunk.
func (r *ChunkRepository) Put(ctx context.Context, tenantId string, chunk *core.Chunk) (*core.Chunk, error) {
	if tenantId == "" {
		return nil, core.ErrEmptyTenant
	}
	if err := r.prepare(tenantId, chunk); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := writeChunk(tx, chunk); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// PutBatch applies Put semantics to each element, committing at most
// chunksPerTxn chunks per transaction. Validation failures are collected
// per item and never abort the batch.
func (r *ChunkRepository) PutBatch(ctx context.Context, tenantId string, chunks []*core.Chunk) (*storage.BatchResult, error) {
	result := &storage.BatchResult{}
	if tenantId == "" {
		return result, core.ErrEmptyTenant
	}

	// Validate and derive up front so a bad item is skipped, not committed.
	valid := make([]*core.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if err := r.prepare(tenantId, chunk); err != nil {
			result.Errors = append(result.Errors, storage.BatchError{Chunk: chunk, Err: err})
			continue
		}
		valid = append(valid, chunk)
	}

	for start := 0; start < len(valid); start += chunksPerTxn {
		end := min(start+chunksPerTxn, len(valid))
		group := valid[start:end]

		err := r.backend.WithTx(func(tx *badger.Txn) error {
			for _, chunk := range group {
				if err := writeChunk(tx, chunk); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			// Earlier transactions have already committed; report what made
			// it in alongside the failure.
			return result, err
		}
		result.Created = append(result.Created, group...)
	}

	return result, nil
}

// DeleteBySource deletes every chunk matching the (sourceType, sourceId)
// pair, in bounded transactions. Returns the number of chunks deleted.
func (r *ChunkRepository) DeleteBySource(ctx context.Context, tenantId string, sourceType core.SourceType, sourceId string) (int, error) {
	prefix := makePartialSourceKey(tenantId, sourceType, sourceId)
	deleted := 0

	for {
		n, err := r.deleteSourceBatch(tenantId, prefix)
		if err != nil {
			return deleted, err
		}
		deleted += n
		if n < chunksPerTxn {
			return deleted, nil
		}
	}
}

// deleteSourceBatch removes up to chunksPerTxn chunks under a source
// index prefix in one transaction.
func (r *ChunkRepository) deleteSourceBatch(tenantId string, prefix []byte) (int, error) {
	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		// Collect first; deleting under an open iterator is undefined.
		var indexKeys [][]byte
		var ids []core.ID
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid() && len(ids) < chunksPerTxn; iter.Next() {
			item := iter.Item()
			indexKeys = append(indexKeys, item.KeyCopy(nil))
			var id core.ID
			if err := item.Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				iter.Close()
				return err
			}
			ids = append(ids, id)
		}
		iter.Close()

		for i, id := range ids {
			if err := tx.Delete(makeChunkKey(tenantId, id)); err != nil {
				return err
			}
			if err := tx.Delete(indexKeys[i]); err != nil {
				return err
			}
		}
		deleted = len(ids)
		return tx.Commit()
	}, true)
	return deleted, err
}

// ClearAll deletes every chunk for the tenant in bounded transactions.
// Returns the number of chunks deleted.
func (r *ChunkRepository) ClearAll(ctx context.Context, tenantId string) (int, error) {
	deleted := 0
	for {
		n, err := r.clearBatch(tenantId)
		if err != nil {
			return deleted, err
		}
		deleted += n
		if n < chunksPerTxn {
			return deleted, nil
		}
	}
}

// clearBatch removes up to chunksPerTxn of the tenant's chunks, with
// their source index entries, in one transaction.
func (r *ChunkRepository) clearBatch(tenantId string) (int, error) {
	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeTenantPrefix(chunkRecordPrefix, tenantId)

		var chunks []*core.Chunk
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid() && len(chunks) < chunksPerTxn; iter.Next() {
			var chunk *core.Chunk
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			}); err != nil {
				iter.Close()
				return err
			}
			chunks = append(chunks, chunk)
		}
		iter.Close()

		for _, chunk := range chunks {
			if err := tx.Delete(makeChunkKey(tenantId, chunk.Id)); err != nil {
				return err
			}
			if err := tx.Delete(makeSourceKey(tenantId, chunk.SourceType, chunk.SourceId, chunk.Id)); err != nil {
				return err
			}
		}
		deleted = len(chunks)
		return tx.Commit()
	}, true)
	return deleted, err
}

// List returns the tenant's chunks in ID order, optionally filtered by
// source type and source id.
func (r *ChunkRepository) List(ctx context.Context, tenantId string, filter *storage.ListFilter) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeTenantPrefix(chunkRecordPrefix, tenantId)

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			}); err != nil {
				return err
			}
			if !matchesFilter(chunk, filter) {
				continue
			}
			results = append(results, chunk)
		}
		return nil
	}, false)
	return results, err
}

// matchesFilter reports whether a chunk passes a list filter.
func matchesFilter(chunk *core.Chunk, filter *storage.ListFilter) bool {
	if filter == nil {
		return true
	}
	if filter.SourceType != 0 && chunk.SourceType != filter.SourceType {
		return false
	}
	if filter.SourceId != "" && chunk.SourceId != filter.SourceId {
		return false
	}
	return true
}

// prepare validates a chunk and populates everything the store owns:
// normalized metadata sets, derived fields, the ID, and IndexedAt.
func (r *ChunkRepository) prepare(tenantId string, chunk *core.Chunk) error {
	if err := core.ValidateChunk(chunk); err != nil {
		return err
	}

	chunk.TenantId = tenantId
	chunk.Keywords = core.NormalizeSet(chunk.Keywords)
	chunk.RegulatoryRefs = core.NormalizeSet(chunk.RegulatoryRefs)
	chunk.Categories = core.NormalizeSet(chunk.Categories)
	core.DeriveFields(chunk)
	chunk.IndexedAt = time.Now().UTC()

	nextID, err := r.idSeq.Next()
	if err != nil {
		return err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return err
		}
	}
	chunk.Id = core.ID(nextID)
	return nil
}

// writeChunk writes the primary record and its source index entry.
func writeChunk(tx *badger.Txn, chunk *core.Chunk) error {
	key := makeChunkKey(chunk.TenantId, chunk.Id)
	if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
		return err
	}
	sourceKey := makeSourceKey(chunk.TenantId, chunk.SourceType, chunk.SourceId, chunk.Id)
	return tx.Set(sourceKey, storage.MarshalID(chunk.Id))
}
