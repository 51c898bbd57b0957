// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package tree

import (
	"sync/atomic"

	"github.com/tayne3/spanbuf"
	"github.com/tayne3/spanbuf/lazy"
)

// LoadBuffer rehydrates the Buffer that was serialized to position.
// cache may be nil to use lazy.DefaultCache.
func LoadBuffer[P Position](position P, deserializer TreeDeserializer[P], cache *lazy.Cache) spanbuf.Buffer {
	loader := NewTreeLazyLoader(position, deserializer, cache)
	return lazy.NewSpan(loader, 0, 0, lazy.UndefLen)
}

// TreeLazyLoader is the read-side counterpart of TreeOutputStream: it holds
// a Position and the TreeDeserializer that understands it, and materializes
// a Buffer on demand by descending one level of the tree. It implements
// lazy.Loader so it can back a lazy.Span directly.
type TreeLazyLoader[P Position] struct {
	position     P
	deserializer TreeDeserializer[P]
	cache        *lazy.Cache
	sf           lazy.Singleflight
	id           uint64
	length       atomic.Int64 // lazy.UndefLen until the first Load resolves it
}

// NewTreeLazyLoader wraps position for on-demand materialization via
// deserializer. cache is shared across every loader in the same tree
// (nil selects lazy.DefaultCache).
func NewTreeLazyLoader[P Position](position P, deserializer TreeDeserializer[P], cache *lazy.Cache) *TreeLazyLoader[P] {
	if cache == nil {
		cache = lazy.DefaultCache
	}
	l := &TreeLazyLoader[P]{position: position, deserializer: deserializer, cache: cache, id: lazy.NewLoaderID()}
	l.length.Store(lazy.UndefLen)
	return l
}

func (l *TreeLazyLoader[P]) Length() int64 { return l.length.Load() }

// Load fetches the block this loader's Position names (on a cache miss),
// interprets it as an InnerBuffer, and returns the inset'th byte onward.
func (l *TreeLazyLoader[P]) Load(inset int64) (spanbuf.Buffer, error) {
	if l.position.IsNoData() {
		return spanbuf.Empty(0), nil
	}
	buf, err := l.cache.LoadOnce(&l.sf, l.id, l.materializeInner)
	if err != nil {
		return nil, err
	}
	l.length.CompareAndSwap(lazy.UndefLen, buf.Length())
	return buf.Cut(inset), nil
}

// materializeInner implements the InnerBuffer materialization rule: fetch
// the block, skip the factory header, dispatch on the type flag.
func (l *TreeLazyLoader[P]) materializeInner() (spanbuf.Buffer, error) {
	blockBytes, err := l.deserializer.Deserialize(l.position)
	if err != nil {
		return nil, err
	}
	headerSize := l.deserializer.HeaderSize()
	if int64(len(blockBytes)) <= headerSize {
		return nil, serdeError("inner block shorter than header_size %d", headerSize)
	}
	payload := blockBytes[headerSize:]
	flag := payload[0]
	body := payload[1:]

	switch flag {
	case FlagOuter:
		return spanbuf.WrapBytes(0, body), nil
	case FlagLeafRef:
		return l.mergeChildren(body, true)
	case FlagInnerRef:
		return l.mergeChildren(body, false)
	default:
		return nil, serdeError("unknown tree block flag 0x%x", flag)
	}
}

// mergeChildren decodes the packed position records in body into child
// loaders and merges their materialized buffers in order at offset 0.
// leafChildren selects LeafBuffer (raw leaf payload) vs. recursive
// InnerBuffer materialization for each child.
func (l *TreeLazyLoader[P]) mergeChildren(body []byte, leafChildren bool) (spanbuf.Buffer, error) {
	children, err := l.deserializer.ExtractLoaders(body)
	if err != nil {
		return nil, err
	}
	parts := make([]spanbuf.Buffer, len(children))
	var offset int64
	for i, child := range children {
		var buf spanbuf.Buffer
		if leafChildren {
			buf = newLeafBuffer(child, l.deserializer, offset)
		} else {
			buf = lazy.NewSpan(child, offset, 0, lazy.UndefLen)
		}
		parts[i] = buf
		offset += buf.Length()
	}
	return spanbuf.Merge(0, parts...), nil
}

// newLeafBuffer wraps child (a TreeLazyLoader whose Position names a leaf
// block) as a LazySpan whose Load call returns the leaf's raw payload,
// skipping only the factory header rather than inspecting any type flag.
func newLeafBuffer[P Position](child *TreeLazyLoader[P], deserializer TreeDeserializer[P], offset int64) spanbuf.Buffer {
	return lazy.NewSpan(&leafLoader[P]{child: child, deserializer: deserializer}, offset, 0, lazy.UndefLen)
}

// leafLoader adapts a TreeLazyLoader's Position to lazy.Loader by fetching
// the leaf block directly and returning its payload past the header,
// instead of TreeLazyLoader.Load's inner-node flag dispatch.
type leafLoader[P Position] struct {
	child        *TreeLazyLoader[P]
	deserializer TreeDeserializer[P]
}

func (l *leafLoader[P]) Length() int64 { return l.child.Length() }

func (l *leafLoader[P]) Load(inset int64) (spanbuf.Buffer, error) {
	buf, err := l.child.cache.LoadOnce(&l.child.sf, l.child.id, func() (spanbuf.Buffer, error) {
		blockBytes, err := l.deserializer.Deserialize(l.child.position)
		if err != nil {
			return nil, err
		}
		headerSize := l.deserializer.HeaderSize()
		if int64(len(blockBytes)) < headerSize {
			return nil, serdeError("leaf block shorter than header_size %d", headerSize)
		}
		return spanbuf.WrapBytes(0, blockBytes[headerSize:]), nil
	})
	if err != nil {
		return nil, err
	}
	l.child.length.CompareAndSwap(lazy.UndefLen, buf.Length())
	return buf.Cut(inset), nil
}
