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


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/vecingest/core"
)

// MarshalEmbeddingRecord serializes an EmbeddingRecord to bytes.
func MarshalEmbeddingRecord(record *core.EmbeddingRecord) []byte {
	buf := make([]byte, core.EmbeddingRecordMUS.Size(*record))
	core.EmbeddingRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalEmbeddingRecord deserializes an EmbeddingRecord from bytes.
func UnmarshalEmbeddingRecord(data []byte) (*core.EmbeddingRecord, error) {
	record, _, err := core.EmbeddingRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalTableInfo serializes a TableInfo to bytes.
func MarshalTableInfo(info *TableInfo) []byte {
	size := ord.String.Size(info.Name) + varint.Int.Size(info.Dimension) + raw.Float64.Size(info.CreatedAt)
	buf := make([]byte, size)
	n := ord.String.Marshal(info.Name, buf)
	n += varint.Int.Marshal(info.Dimension, buf[n:])
	raw.Float64.Marshal(info.CreatedAt, buf[n:])
	return buf
}

// UnmarshalTableInfo deserializes a TableInfo from bytes.
func UnmarshalTableInfo(data []byte) (*TableInfo, error) {
	var (
		info TableInfo
		n    int
		n1   int
		err  error
	)
	if info.Name, n, err = ord.String.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if info.Dimension, n1, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += n1
	if info.CreatedAt, _, err = raw.Float64.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &info, nil
}
