// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package tree implements the tree serialization protocol: a balanced
// tree of fixed-size blocks written over a pluggable block store by
// TreeOutputStream, and rehydrated on demand by TreeLazyLoader.
package tree

import (
	"fmt"

	"github.com/tayne3/spanbuf"
)

func serdeError(format string, args ...any) error { return fmt.Errorf("tree: "+format, args...) }

func panicIllegalState(format string, args ...any) { spanbuf.PanicIllegalState(format, args...) }

// Position is an opaque locator understood by exactly one
// (TreeSerializer, TreeDeserializer) pair. The reference Position in
// memserde.go is a comparable value wrapping the numeric block id that
// keys its store.
type Position interface {
	// IsNoData reports whether this Position denotes "no block was
	// written" (the root of an empty stream).
	IsNoData() bool
}

// BufferFactory supplies fixed-size blocks for the write side. header_size
// bytes at the front of every block are reserved for the factory's own
// accounting and are never inspected by this package.
type BufferFactory interface {
	BufferSize() int64
	HeaderSize() int64
	// CreateBuffer returns a new block's payload region, positioned
	// right after the header, able to hold BufferSize()-HeaderSize()
	// bytes.
	CreateBuffer() []byte
	// Free releases a block's storage once it has been serialized and
	// is no longer needed by the writer.
	Free(buf []byte)
}

// TreeSerializer commits a block's raw bytes to the block store and
// encodes the resulting Position to a fixed-width wire form.
type TreeSerializer[P Position] interface {
	MaxBufferSize() int64
	PositionSize() int
	Serialize(blockBytes []byte) (P, error)
	SerializePosition(p P) ([]byte, error)
	NoDataPosition() P
}

// TreeDeserializer fetches a block's raw bytes given its Position and
// decodes packed child positions out of an inner block's payload.
type TreeDeserializer[P Position] interface {
	HeaderSize() int64
	Deserialize(p P) ([]byte, error)
	// ExtractLoaders parses body (the packed fixed-size position records
	// following an inner block's flag byte) into one TreeLazyLoader per
	// child, in order.
	ExtractLoaders(body []byte) ([]*TreeLazyLoader[P], error)
}

// AbstractSerde bundles a compatible (factory, serializer, deserializer)
// triple and runs their compatibility check.
type AbstractSerde[P Position] struct {
	Factory      BufferFactory
	Serializer   TreeSerializer[P]
	Deserializer TreeDeserializer[P]
}

// Verify checks buffer_size >= 1 + 2*position_size (room for the flag
// byte plus at least two child pointers in an inner block) and that the
// factory and deserializer agree on header_size.
func (s *AbstractSerde[P]) Verify() error {
	minSize := int64(1 + 2*s.Serializer.PositionSize())
	if s.Factory.BufferSize() < minSize {
		return serdeError("buffer_size %d too small for 2 child pointers (need >= %d)", s.Factory.BufferSize(), minSize)
	}
	if s.Factory.HeaderSize() != s.Deserializer.HeaderSize() {
		return serdeError("factory header_size %d != deserializer header_size %d", s.Factory.HeaderSize(), s.Deserializer.HeaderSize())
	}
	return nil
}
