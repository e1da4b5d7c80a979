package status

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/regindex/core"
	"github.com/poiesic/regindex/storage"
)

const (
	// cacheMaxTenants sizes the status cache; one entry per tenant.
	cacheMaxTenants = 10_000
)

// Tracker maintains per-tenant IndexStatus snapshots. A snapshot is
// recomputed by a full scan on Refresh and served stale from cache
// otherwise; refreshes are O(total chunks) and belong out-of-band,
// never on a read path.
type Tracker struct {
	chunkRepository storage.ChunkRepository
	cache           *ristretto.Cache[string, *core.IndexStatus]
	pool            *ants.Pool
	logger          *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) error {
		if logger == nil {
			logger = slog.Default()
		}
		t.logger = logger
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent multi-tenant
// refreshes. Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(t *Tracker) error {
		if size < 1 {
			size = 1
		}
		if t.pool != nil {
			t.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		t.pool = pool
		return nil
	}
}

// NewTracker creates a new index status tracker.
func NewTracker(chunkRepository storage.ChunkRepository, opts ...Option) (*Tracker, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, *core.IndexStatus]{
		NumCounters: cacheMaxTenants * 10,
		MaxCost:     cacheMaxTenants,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		cache.Close()
		return nil, err
	}

	t := &Tracker{
		chunkRepository: chunkRepository,
		cache:           cache,
		pool:            pool,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			t.Close()
			return nil, err
		}
	}

	return t, nil
}

// Close releases the cache and the refresh pool.
func (t *Tracker) Close() {
	t.cache.Close()
	if t.pool != nil {
		t.pool.Release()
	}
}

// Status returns the cached snapshot for a tenant. A tenant that has
// never been refreshed reports as not indexed.
func (t *Tracker) Status(tenantId string) *core.IndexStatus {
	if cached, ok := t.cache.Get(tenantId); ok {
		return cached
	}
	return &core.IndexStatus{TenantId: tenantId}
}

// Refresh rescans the tenant's chunks, recomputes the aggregate
// snapshot, and caches it.
func (t *Tracker) Refresh(ctx context.Context, tenantId string) (*core.IndexStatus, error) {
	chunks, err := t.chunkRepository.List(ctx, tenantId, nil)
	if err != nil {
		return nil, err
	}

	snapshot := compute(tenantId, chunks)
	t.cache.Set(tenantId, snapshot, 1)
	t.cache.Wait()
	return snapshot, nil
}

// RefreshAll refreshes several tenants concurrently on the worker pool.
// Individual failures are collected; the remaining tenants still refresh.
func (t *Tracker) RefreshAll(ctx context.Context, tenantIds ...string) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, tenantId := range tenantIds {
		tenantId := tenantId
		wg.Add(1)
		submitErr := t.pool.Submit(func() {
			defer wg.Done()
			if _, err := t.Refresh(ctx, tenantId); err != nil {
				t.logger.Error("status refresh failed", "tenant", tenantId, "err", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, submitErr)
			mu.Unlock()
		}
	}
	wg.Wait()

	return errors.Join(errs...)
}

// compute derives the aggregate snapshot from one full scan.
func compute(tenantId string, chunks []*core.Chunk) *core.IndexStatus {
	snapshot := &core.IndexStatus{
		TenantId:     tenantId,
		TotalChunks:  len(chunks),
		IsIndexed:    len(chunks) > 0,
		BySourceType: make(map[string]int),
		ByCategory:   make(map[string]int),
		RefreshedAt:  time.Now().UTC(),
	}

	sources := make(map[string]bool)
	refs := make(map[string]bool)
	for _, chunk := range chunks {
		snapshot.BySourceType[chunk.SourceType.String()]++
		for _, category := range chunk.Categories {
			snapshot.ByCategory[category]++
		}
		for _, ref := range chunk.RegulatoryRefs {
			refs[ref] = true
		}
		sources[chunk.SourceTuple()] = true
		if chunk.IndexedAt.After(snapshot.LastIndexedAt) {
			snapshot.LastIndexedAt = chunk.IndexedAt
		}
	}
	snapshot.UniqueSources = len(sources)

	snapshot.RegulatoryRefs = make([]string, 0, len(refs))
	for ref := range refs {
		snapshot.RegulatoryRefs = append(snapshot.RegulatoryRefs, ref)
	}
	sort.Strings(snapshot.RegulatoryRefs)

	return snapshot
}
