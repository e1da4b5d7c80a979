package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// SourceType identifies the kind of organizational document a chunk
// was extracted from.
type SourceType int

const (
	// SourceTypePolicy represents an operations manual policy.
	SourceTypePolicy SourceType = iota + 1
	// SourceTypeProject represents a project record.
	SourceTypeProject
	// SourceTypeEquipment represents an equipment spec or maintenance record.
	SourceTypeEquipment
	// SourceTypeCrew represents a crew member record.
	SourceTypeCrew
	// SourceTypeUpload represents an uploaded document.
	SourceTypeUpload
)

var sourceTypeNames = map[SourceType]string{
	SourceTypePolicy:    "policy",
	SourceTypeProject:   "project",
	SourceTypeEquipment: "equipment",
	SourceTypeCrew:      "crew",
	SourceTypeUpload:    "upload",
}

// String returns the canonical lowercase name of the source type.
func (s SourceType) String() string {
	if name, ok := sourceTypeNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseSourceType converts a canonical name back to a SourceType.
// Returns ErrInvalidSourceType for unrecognized names.
func ParseSourceType(name string) (SourceType, error) {
	for st, n := range sourceTypeNames {
		if n == name {
			return st, nil
		}
	}
	return 0, ErrInvalidSourceType
}

// Chunk represents a stored, independently retrievable unit of source
// text with its retrieval metadata. Content is immutable once indexed;
// an update is a delete-by-source followed by re-indexing.
type Chunk struct {
	Id             ID
	TenantId       string
	SourceType     SourceType
	SourceId       string
	SourceTitle    string
	SourceNumber   string // Optional document number, e.g. "1010"
	Section        string // Optional section identifier within the source
	SectionTitle   string
	Content        string
	ContentPreview string // Derived: first 200 characters of Content
	PageNumber     int    // Optional, 0 when not applicable
	Keywords       []string
	RegulatoryRefs []string
	Categories     []string
	Version        int
	EffectiveDate  time.Time // Zero when the source has no effective date
	IndexedAt      time.Time
	SearchText     string // Derived: lowercase concatenation for term matching
	WordCount      int    // Derived: whitespace-token count of Content
}

// SourceTuple returns a string representation of the chunk's source as
// "(type,id)". This is used for generating deterministic source keys.
func (c *Chunk) SourceTuple() string {
	return SourceTuple(c.SourceType, c.SourceId)
}

// SourceTuple formats a (sourceType, sourceId) pair as "(type,id)".
func SourceTuple(sourceType SourceType, sourceId string) string {
	return "(" + sourceType.String() + "," + sourceId + ")"
}

// SearchResult pairs a chunk with its relevance score for one query.
// Results are ephemeral and never persisted.
type SearchResult struct {
	Chunk          *Chunk
	RelevanceScore int      // Bounded to [0,100]
	MatchedTerms   []string // Query terms found anywhere in SearchText
}

// IndexStatus is a per-tenant aggregate snapshot of the index. It is
// always re-derivable by rescanning the tenant's chunks; staleness
// between refreshes is acceptable.
type IndexStatus struct {
	TenantId       string
	IsIndexed      bool
	LastIndexedAt  time.Time
	TotalChunks    int
	UniqueSources  int
	BySourceType   map[string]int
	ByCategory     map[string]int
	RegulatoryRefs []string
	RefreshedAt    time.Time
}

// Requirement is a read-only compliance requirement supplied by the
// caller. The engine never stores requirements.
type Requirement struct {
	Text              string
	ShortText         string   // Optional condensed phrasing, preferred for search
	RegulatoryRef     string   // Optional citation for exact-match retrieval
	Guidance          string   // Optional guidance text mined for known keywords
	SuggestedPolicies []string // Policy numbers that should document this requirement
}

// SearchQuery returns the free-text query to use for relevance search:
// the short text when present, otherwise the full requirement text.
func (r *Requirement) SearchQuery() string {
	if r.ShortText != "" {
		return r.ShortText
	}
	return r.Text
}

// SuggestedPolicyCheck records the outcome of looking up one suggested
// policy number from a requirement.
type SuggestedPolicyCheck struct {
	PolicyNumber string
	Found        bool
	Chunks       []*SearchResult
}

// GapTypeMissingPolicy marks a suggested policy with no indexed documentation.
const GapTypeMissingPolicy = "missing-policy"

// Gap marks a requirement control for which no matching indexed
// documentation exists.
type Gap struct {
	Type         string
	PolicyNumber string
}

// ResolveResult is the four-part answer to a requirement resolution.
type ResolveResult struct {
	DirectMatches     []*SearchResult
	RelatedMatches    []*SearchResult
	SuggestedPolicies []SuggestedPolicyCheck
	Gaps              []Gap
}
