package badger

import (
	"encoding/binary"

	"github.com/poiesic/regindex/core"
)

// Key prefixes for different data types
const (
	chunkRecordPrefix = "chkrec"
	chunkSourcePrefix = "chksrc"
	chunkIDSeq        = "chkrecseq"
)

// tenantKey hashes a tenant id to a fixed 8-byte partition component so
// composite keys stay fixed-width regardless of tenant id length.
func tenantKey(tenantId string) [8]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(core.IDFromContent(tenantId)))
	return buf
}

// makeChunkKey generates the primary record key for a chunk.
// Format: prefix:tenant(8):id(8)
func makeChunkKey(tenantId string, id core.ID) []byte {
	buf := makeTenantPrefix(chunkRecordPrefix, tenantId)
	// Write in BigEndian order so lexicographic sort matches ID order
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// makeSourceKey generates a composite key for the source index.
// Format: prefix:tenant(8):sourceHash(8):id(8)
func makeSourceKey(tenantId string, sourceType core.SourceType, sourceId string, id core.ID) []byte {
	buf := makePartialSourceKey(tenantId, sourceType, sourceId)
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// makePartialSourceKey generates the prefix shared by all source index
// entries of one (sourceType, sourceId) pair, for prefix iteration.
func makePartialSourceKey(tenantId string, sourceType core.SourceType, sourceId string) []byte {
	buf := makeTenantPrefix(chunkSourcePrefix, tenantId)
	sourceHash := uint64(core.IDFromContent(core.SourceTuple(sourceType, sourceId)))
	return binary.BigEndian.AppendUint64(buf, sourceHash)
}

// makeTenantPrefix generates the per-tenant prefix under a key namespace.
// Format: prefix:tenant(8):
func makeTenantPrefix(prefix, tenantId string) []byte {
	tenant := tenantKey(tenantId)
	buf := make([]byte, 0, len(prefix)+1+len(tenant))
	buf = append(buf, prefix...)
	buf = append(buf, ':')
	buf = append(buf, tenant[:]...)
	return buf
}
