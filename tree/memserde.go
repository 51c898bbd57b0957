// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package tree

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/tayne3/spanbuf"
	"github.com/tayne3/spanbuf/lazy"
)

// memPosition is the reference Position: a 4-byte, process-local block
// id. Id 0 is reserved to mean NoData.
type memPosition struct {
	id uint32
}

func (p memPosition) IsNoData() bool { return p.id == 0 }

// MemSerde is the in-memory reference (BufferFactory, TreeSerializer,
// TreeDeserializer) triple used by tests and examples, standing in for a
// real block store. Blocks are held in a map keyed by memPosition.id;
// nothing is ever evicted, matching "block store" as an abstract
// collaborator rather than a production cache.
type MemSerde struct {
	bufferSize int64
	headerSize int64
	cache      *lazy.Cache

	mu     sync.Mutex
	store  map[uint32][]byte
	nextID uint32
}

// NewMemSerde builds a reference serde with the given block capacity and
// header reservation. cache may be nil to use lazy.DefaultCache for every
// TreeLazyLoader this serde mints.
func NewMemSerde(bufferSize, headerSize int64, cache *lazy.Cache) *MemSerde {
	if cache == nil {
		cache = lazy.DefaultCache
	}
	return &MemSerde{
		bufferSize: bufferSize,
		headerSize: headerSize,
		cache:      cache,
		store:      make(map[uint32][]byte),
	}
}

// BufferFactory.

func (m *MemSerde) BufferSize() int64 { return m.bufferSize }
func (m *MemSerde) HeaderSize() int64 { return m.headerSize }

func (m *MemSerde) CreateBuffer() []byte { return make([]byte, m.bufferSize-m.headerSize) }

func (m *MemSerde) Free(buf []byte) {} // map-backed store has nothing to release early

// TreeSerializer[memPosition].

func (m *MemSerde) MaxBufferSize() int64 { return m.bufferSize }

const memPositionSize = 4

func (m *MemSerde) PositionSize() int { return memPositionSize }

// Serialize commits blockBytes (a node's used payload, header excluded —
// blocks are stored at their used length, not padded to buffer_size)
// behind a fresh id, prefixing it with a zeroed header region of
// HeaderSize bytes so Deserialize/ExtractLoaders see the same
// header-then-payload shape a real block-store-backed factory would
// produce.
func (m *MemSerde) Serialize(blockBytes []byte) (memPosition, error) {
	full := make([]byte, m.headerSize+int64(len(blockBytes)))
	copy(full[m.headerSize:], blockBytes)
	id := atomic.AddUint32(&m.nextID, 1)
	m.mu.Lock()
	m.store[id] = full
	m.mu.Unlock()
	return memPosition{id: id}, nil
}

func (m *MemSerde) SerializePosition(p memPosition) ([]byte, error) {
	b := make([]byte, memPositionSize)
	binary.BigEndian.PutUint32(b, p.id)
	return b, nil
}

func (m *MemSerde) NoDataPosition() memPosition { return memPosition{} }

// TreeDeserializer[memPosition].

func (m *MemSerde) Deserialize(p memPosition) ([]byte, error) {
	if p.IsNoData() {
		return nil, serdeError("cannot deserialize the NoData position")
	}
	m.mu.Lock()
	block, ok := m.store[p.id]
	m.mu.Unlock()
	if !ok {
		return nil, serdeError("no block stored for position %d", p.id)
	}
	return block, nil
}

func (m *MemSerde) ExtractLoaders(body []byte) ([]*TreeLazyLoader[memPosition], error) {
	if len(body)%memPositionSize != 0 {
		return nil, serdeError("inner body length %d not a multiple of position_size %d", len(body), memPositionSize)
	}
	count64 := int64(len(body) / memPositionSize)
	if !spanbuf.FitsInt32(count64) {
		return nil, serdeError("inner body holds %d child records, too many to index", count64)
	}
	count := int(count64)
	loaders := make([]*TreeLazyLoader[memPosition], count)
	for i := 0; i < count; i++ {
		id := binary.BigEndian.Uint32(body[i*memPositionSize:])
		loaders[i] = NewTreeLazyLoader(memPosition{id: id}, m, m.cache)
	}
	return loaders, nil
}
