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


package core

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the types that reach disk. Written by hand against
// the mus-go primitives: a single record type did not warrant generator
// tooling.
var (
	IDMUS    = idMUS{}
	ChunkMUS = chunkMUS{}
)

type idMUS struct{}

func (s idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (s idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (s idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

type chunkMUS struct{}

func (s chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(c.Id), bs)
	n += ord.String.Marshal(c.TenantId, bs[n:])
	n += varint.Int.Marshal(int(c.SourceType), bs[n:])
	n += ord.String.Marshal(c.SourceId, bs[n:])
	n += ord.String.Marshal(c.SourceTitle, bs[n:])
	n += ord.String.Marshal(c.SourceNumber, bs[n:])
	n += ord.String.Marshal(c.Section, bs[n:])
	n += ord.String.Marshal(c.SectionTitle, bs[n:])
	n += ord.String.Marshal(c.Content, bs[n:])
	n += ord.String.Marshal(c.ContentPreview, bs[n:])
	n += varint.Int.Marshal(c.PageNumber, bs[n:])
	n += marshalStrings(c.Keywords, bs[n:])
	n += marshalStrings(c.RegulatoryRefs, bs[n:])
	n += marshalStrings(c.Categories, bs[n:])
	n += varint.Int.Marshal(c.Version, bs[n:])
	n += marshalTime(c.EffectiveDate, bs[n:])
	n += marshalTime(c.IndexedAt, bs[n:])
	n += ord.String.Marshal(c.SearchText, bs[n:])
	n += varint.Int.Marshal(c.WordCount, bs[n:])
	return n
}

func (s chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var (
		n1         int
		id         uint64
		sourceType int
	)
	if id, n, err = varint.Uint64.Unmarshal(bs); err != nil {
		return
	}
	c.Id = ID(id)
	if c.TenantId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if sourceType, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	c.SourceType = SourceType(sourceType)
	n += n1
	if c.SourceId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.SourceTitle, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.SourceNumber, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.Section, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.SectionTitle, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.ContentPreview, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.PageNumber, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.Keywords, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.RegulatoryRefs, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.Categories, n1, err = unmarshalStrings(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.Version, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.EffectiveDate, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.IndexedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.SearchText, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.WordCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (s chunkMUS) Size(c Chunk) (size int) {
	size = varint.Uint64.Size(uint64(c.Id))
	size += ord.String.Size(c.TenantId)
	size += varint.Int.Size(int(c.SourceType))
	size += ord.String.Size(c.SourceId)
	size += ord.String.Size(c.SourceTitle)
	size += ord.String.Size(c.SourceNumber)
	size += ord.String.Size(c.Section)
	size += ord.String.Size(c.SectionTitle)
	size += ord.String.Size(c.Content)
	size += ord.String.Size(c.ContentPreview)
	size += varint.Int.Size(c.PageNumber)
	size += sizeStrings(c.Keywords)
	size += sizeStrings(c.RegulatoryRefs)
	size += sizeStrings(c.Categories)
	size += varint.Int.Size(c.Version)
	size += sizeTime(c.EffectiveDate)
	size += sizeTime(c.IndexedAt)
	size += ord.String.Size(c.SearchText)
	size += varint.Int.Size(c.WordCount)
	return size
}

// String slices are length-prefixed sequences of ord strings.

func marshalStrings(values []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(values), bs)
	for _, v := range values {
		n += ord.String.Marshal(v, bs[n:])
	}
	return n
}

func unmarshalStrings(bs []byte) (values []string, n int, err error) {
	var length, n1 int
	if length, n, err = varint.Int.Unmarshal(bs); err != nil {
		return
	}
	if length == 0 {
		return
	}
	// Each string costs at least one length byte, so a count beyond the
	// remaining buffer is corrupt data, not a large record.
	if length < 0 || length > len(bs)-n {
		err = fmt.Errorf("invalid string count %d", length)
		return
	}
	values = make([]string, length)
	for i := 0; i < length; i++ {
		if values[i], n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += n1
	}
	return
}

func sizeStrings(values []string) (size int) {
	size = varint.Int.Size(len(values))
	for _, v := range values {
		size += ord.String.Size(v)
	}
	return size
}

// Timestamps are stored as Unix microseconds; the zero time is encoded
// as 0 so optional dates survive a round trip unset.

func marshalTime(t time.Time, bs []byte) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Marshal(micros, bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micros == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Size(micros)
}
