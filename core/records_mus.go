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
	"errors"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// ErrNegativeLength is returned when a decoded vector length is negative.
var ErrNegativeLength = errors.New("negative vector length")

// VectorMUS serializes float32 vectors as a varint length followed by
// fixed-width elements.
var VectorMUS mus.Serializer[[]float32] = vectorMUS{}

// EmbeddingRecordMUS serializes EmbeddingRecord values. Fields are written
// in declaration order.
var EmbeddingRecordMUS mus.Serializer[EmbeddingRecord] = embeddingRecordMUS{}

type vectorMUS struct{}

func (vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

func (vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if length < 0 {
		err = ErrNegativeLength
		return
	}
	v = make([]float32, length)
	var n1 int
	for i := range v {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (vectorMUS) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return
}

func (vectorMUS) Skip(bs []byte) (n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if length < 0 {
		err = ErrNegativeLength
		return
	}
	var n1 int
	for range length {
		n1, err = raw.Float32.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

type embeddingRecordMUS struct{}

func (embeddingRecordMUS) Marshal(v EmbeddingRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += VectorMUS.Marshal(v.Embedding, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.String.Marshal(v.ImageURL, bs[n:])
	n += ord.String.Marshal(v.VideoURL, bs[n:])
	return n + raw.Float64.Marshal(v.CreatedAt, bs[n:])
}

func (embeddingRecordMUS) Unmarshal(bs []byte) (v EmbeddingRecord, n int, err error) {
	v.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Embedding, n1, err = VectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ImageURL, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.VideoURL, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	return
}

func (embeddingRecordMUS) Size(v EmbeddingRecord) (size int) {
	size = ord.String.Size(v.ID)
	size += VectorMUS.Size(v.Embedding)
	size += ord.String.Size(v.Text)
	size += ord.String.Size(v.ImageURL)
	size += ord.String.Size(v.VideoURL)
	return size + raw.Float64.Size(v.CreatedAt)
}

func (embeddingRecordMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = VectorMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for range 3 {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = raw.Float64.Skip(bs[n:])
	n += n1
	return
}
