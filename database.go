// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package regindex

import (
	"log/slog"

	"github.com/poiesic/regindex/resolve"
	"github.com/poiesic/regindex/search"
	"github.com/poiesic/regindex/status"
	"github.com/poiesic/regindex/storage"
	"github.com/poiesic/regindex/storage/badger"
)

// Database bundles the chunk store with the services built on top of it.
type Database struct {
	backend   *badger.Backend
	chunkRepo storage.ChunkRepository
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	inMemory bool
}

// WithInMemory opens the backing store in memory, discarding all data on
// Close. Intended for tests and experimentation.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase opens (or creates) a chunk database at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create chunk repository
	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:   backend,
		chunkRepo: chunkRepo,
		logger:    slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.chunkRepo.Close(); err != nil {
		db.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.chunkRepo
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.chunkRepo, opts...)
}

func (db *Database) NewResolver(searcher *search.Searcher, opts ...resolve.Option) (*resolve.Resolver, error) {
	return resolve.NewResolver(db.chunkRepo, searcher, opts...)
}

func (db *Database) NewStatusTracker(opts ...status.Option) (*status.Tracker, error) {
	return status.NewTracker(db.chunkRepo, opts...)
}
