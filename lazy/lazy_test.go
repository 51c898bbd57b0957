// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package lazy

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tayne3/spanbuf"
	"github.com/tayne3/spanbuf/reaper"
)

// countingLoader counts Load calls, serving fixed content, to verify
// LoadOnce's single-fetch-per-miss behavior.
type countingLoader struct {
	cache *Cache
	sf    Singleflight
	id    uint64
	data  []byte
	loads int
}

func (l *countingLoader) Length() int64 { return int64(len(l.data)) }

func (l *countingLoader) Load(inset int64) (spanbuf.Buffer, error) {
	buf, err := l.cache.LoadOnce(&l.sf, l.id, func() (spanbuf.Buffer, error) {
		l.loads++
		return spanbuf.WrapBytes(0, l.data), nil
	})
	if err != nil {
		return nil, err
	}
	return buf.Cut(inset), nil
}

func TestSpanDoesNotLoadOnConstructionOrSlicing(t *testing.T) {
	ld := &countingLoader{cache: NewCache(4), id: NewLoaderID(), data: []byte("hello world")}
	span := NewSpan(ld, 0, 0, int64(len(ld.data)))
	sliced := span.SliceAt(3).Head(2)
	assert.Equal(t, 0, ld.loads)
	assert.Equal(t, "lo", sliced.Text())
	assert.Equal(t, 1, ld.loads)
}

func TestSpanCacheServesRepeatReadsWithoutRefetch(t *testing.T) {
	ld := &countingLoader{cache: NewCache(4), id: NewLoaderID(), data: []byte("abcdef")}
	span := NewSpan(ld, 0, 0, int64(len(ld.data)))
	assert.Equal(t, byte('a'), span.Read(0))
	assert.Equal(t, byte('f'), span.Read(5))
	assert.Equal(t, 1, ld.loads)
}

// undefLenLoader reports UndefLen until Load is called, modeling a
// tree-backed child whose length isn't known from its wire Position.
type undefLenLoader struct {
	cache *Cache
	sf    Singleflight
	id    uint64
	data  []byte
}

func (l *undefLenLoader) Length() int64 { return UndefLen }

func (l *undefLenLoader) Load(inset int64) (spanbuf.Buffer, error) {
	buf, err := l.cache.LoadOnce(&l.sf, l.id, func() (spanbuf.Buffer, error) {
		return spanbuf.WrapBytes(0, l.data), nil
	})
	if err != nil {
		return nil, err
	}
	return buf.Cut(inset), nil
}

func TestSpanResolvesUndefLenByMaterializing(t *testing.T) {
	ld := &undefLenLoader{cache: NewCache(4), id: NewLoaderID(), data: []byte("tree leaf bytes")}
	span := NewSpan(ld, 100, 0, UndefLen)
	assert.Equal(t, int64(len(ld.data)), span.Length())
	assert.Equal(t, int64(114), span.End())
	assert.Equal(t, "tree leaf bytes", span.Text())
}

func TestOnHeapLinearLoaderRoundTrip(t *testing.T) {
	f, err := os.CreateTemp("", "spanbuf-lazy-test-*")
	assert.NoError(t, err)
	defer os.Remove(f.Name())
	defer f.Close()
	content := []byte("0123456789abcdefghij")
	_, err = f.Write(content)
	assert.NoError(t, err)

	reap := reaper.New()
	defer reap.Shutdown()
	loaders, err := Segments(f, int64(len(content)), 8, false, false, reap, NewCache(8))
	assert.NoError(t, err)
	assert.Equal(t, 3, len(loaders))

	buf := BuildBufferList(loaders, 8)
	assert.Equal(t, int64(len(content)), buf.Length())
	assert.Equal(t, string(content), buf.Text())
}

func TestOffHeapLinearLoaderRoundTrip(t *testing.T) {
	f, err := os.CreateTemp("", "spanbuf-lazy-mmap-test-*")
	assert.NoError(t, err)
	defer os.Remove(f.Name())
	defer f.Close()
	content := []byte("the quick brown fox jumps over the lazy dog")
	_, err = f.Write(content)
	assert.NoError(t, err)

	// Off-heap loaders register an mmap-unmap marker per segment touched;
	// the marker's lifetime is tied to GC reachability, so this test does
	// not call Shutdown — that would block until the buffers built above
	// are collected.
	reap := reaper.New()
	loaders, err := Segments(f, int64(len(content)), 16, true, false, reap, NewCache(8))
	assert.NoError(t, err)

	buf := BuildBufferList(loaders, 16)
	assert.Equal(t, string(content), buf.Text())
}

func TestSegmentsRejectsNonPositiveSize(t *testing.T) {
	f, err := os.CreateTemp("", "spanbuf-lazy-bad-*")
	assert.NoError(t, err)
	defer os.Remove(f.Name())
	defer f.Close()

	reap := reaper.New()
	defer reap.Shutdown()
	_, err = Segments(f, 10, 0, false, false, reap, NewCache(4))
	assert.Error(t, err)
}
