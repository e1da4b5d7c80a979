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


// Package storage provides the storage abstraction layer for regindex.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic. It allows for different storage
// backends (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction and enable multiple storage backend
// implementations:
//
//	repo, err := badger.NewRepository(path)  // returns storage.ChunkRepository interface
//
// Internal package constructors may return concrete types since they're
// only used within the implementation package.
//
// # Tenant Partitioning
//
// Every repository operation takes a tenant id as its first data argument.
// The tenant is a hard partition key: chunks belonging to different tenants
// never share keys and never appear in each other's scans.
//
// # Atomicity
//
// Write operations larger than the backend's per-transaction write limit
// are split across multiple transactions. Atomicity holds within each
// transaction, not across a whole batch or clear; callers must treat
// partial completion as possible on large operations. A ClearAll racing
// a PutBatch on the same tenant can interleave at transaction
// granularity, so full-reindex operations must be serialized per tenant
// by the caller.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
