// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package lazy

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/tayne3/spanbuf"
	"github.com/tayne3/spanbuf/reaper"
)

// fileResource is shared by every segment loader constructed for the same
// underlying file: it serializes positional reads under one lock and
// carries the optional closeAfterUse marker so the file is closed exactly
// once, when every loader referencing it is unreachable.
type fileResource struct {
	file   *os.File
	mu     sync.Mutex
	marker *reaper.Marker // nil when closeAfterUse is false
}

// OnHeapLinearLoader reads its segment into a freshly allocated byte slice
// on every cache miss.
type OnHeapLinearLoader struct {
	id         uint64
	cache      *Cache
	sf         Singleflight
	res        *fileResource
	fileOffset int64
	length     int64
}

func (l *OnHeapLinearLoader) Length() int64 { return l.length }

func (l *OnHeapLinearLoader) Load(inset int64) (spanbuf.Buffer, error) {
	buf, err := l.cache.LoadOnce(&l.sf, l.id, func() (spanbuf.Buffer, error) {
		data := make([]byte, l.length)
		l.res.mu.Lock()
		_, err := l.res.file.ReadAt(data, l.fileOffset)
		l.res.mu.Unlock()
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("lazy: on-heap load at %d: %w", l.fileOffset, err)
		}
		return spanbuf.WrapBytes(0, data), nil
	})
	if err != nil {
		return nil, err
	}
	return buf.Cut(inset), nil
}

// OffHeapLinearLoader maps its segment read-only from the underlying file
// on every cache miss.
type OffHeapLinearLoader struct {
	id         uint64
	cache      *Cache
	sf         Singleflight
	res        *fileResource
	reap       *reaper.Reaper
	fileOffset int64
	length     int64
}

func (l *OffHeapLinearLoader) Length() int64 { return l.length }

func (l *OffHeapLinearLoader) Load(inset int64) (spanbuf.Buffer, error) {
	buf, err := l.cache.LoadOnce(&l.sf, l.id, func() (spanbuf.Buffer, error) {
		// Map offsets must be page-aligned: map from the enclosing page
		// boundary and start the leaf past the leading bytes.
		page := int64(os.Getpagesize())
		aligned := l.fileOffset - l.fileOffset%page
		skip := int(l.fileOffset - aligned)
		m, err := mmap.MapRegion(l.res.file, skip+int(l.length), mmap.RDONLY, 0, aligned)
		if err != nil {
			return nil, fmt.Errorf("lazy: mmap at %d len %d: %w", l.fileOffset, l.length, err)
		}
		marker := l.reap.Register("mmap segment", func() error { return m.Unmap() })
		return newMmapLeaf([]byte(m), skip, len(m), 0, marker), nil
	})
	if err != nil {
		return nil, err
	}
	return buf.Cut(inset), nil
}

// mmapLeaf is a ByteBufferSpan-shaped leaf buffer that additionally keeps a
// reaper.Marker reachable for as long as any buffer derived from it is
// reachable, so the backing mmap is only unmapped once nothing refers to
// any slice of it.
type mmapLeaf struct {
	spanbuf.Base
	data   []byte
	start  int
	end    int
	offset int64
	marker *reaper.Marker
}

func newMmapLeaf(data []byte, start, end int, offset int64, marker *reaper.Marker) spanbuf.Buffer {
	l := &mmapLeaf{data: data, start: start, end: end, offset: offset, marker: marker}
	l.Self = l
	return l
}

func (l *mmapLeaf) Length() int64 { return int64(l.end - l.start) }
func (l *mmapLeaf) Offset() int64 { return l.offset }

func (l *mmapLeaf) Duplicate(newOffset int64) spanbuf.Buffer {
	return newMmapLeaf(l.data, l.start, l.end, newOffset, l.marker)
}

func (l *mmapLeaf) SliceAt(absPos int64) spanbuf.Buffer {
	checkSliceAt(l.offset, l.Length(), absPos)
	if absPos == l.offset {
		return l
	}
	if absPos == l.offset+l.Length() {
		return spanbuf.Empty(absPos)
	}
	newStart := l.start + int(absPos-l.offset)
	return newMmapLeaf(l.data, newStart, l.end, absPos, l.marker)
}

func (l *mmapLeaf) Head(n int64) spanbuf.Buffer {
	checkRelative(l.Length(), n)
	if n == 0 {
		return spanbuf.Empty(l.offset)
	}
	if n == l.Length() {
		return l
	}
	return newMmapLeaf(l.data, l.start, l.start+int(n), l.offset, l.marker)
}

func (l *mmapLeaf) Read(absPos int64) byte {
	checkAbsolute(l.offset, l.Length(), absPos)
	return l.data[l.start+int(absPos-l.offset)]
}

func (l *mmapLeaf) ReadInto(absPos int64, out []byte) int {
	if len(out) == 0 {
		return 0
	}
	checkSliceAt(l.offset, l.Length(), absPos)
	idx := l.start + int(absPos-l.offset)
	avail := l.end - idx
	if avail <= 0 {
		return 0
	}
	n := len(out)
	if n > avail {
		n = avail
	}
	copy(out, l.data[idx:idx+n])
	return n
}

// Segments builds one Loader per fixed-size segment of a file, offHeap
// selecting between mmap and heap-copy loaders.
func Segments(file *os.File, fileLength, segmentSize int64, offHeap, closeAfterUse bool, reap *reaper.Reaper, cache *Cache) ([]Loader, error) {
	if segmentSize <= 0 {
		return nil, fmt.Errorf("lazy: segment size must be positive, got %d", segmentSize)
	}
	if cache == nil {
		cache = DefaultCache
	}
	res := &fileResource{file: file}
	if closeAfterUse {
		res.marker = reap.Register("segmented file", file.Close)
	}
	segmentCount := int64(math.Ceil(float64(fileLength) / float64(segmentSize)))
	loaders := make([]Loader, 0, segmentCount)
	for k := int64(0); k < segmentCount; k++ {
		fileOffset := k * segmentSize
		length := segmentSize
		if remaining := fileLength - fileOffset; remaining < length {
			length = remaining
		}
		if offHeap {
			loaders = append(loaders, &OffHeapLinearLoader{
				id: NewLoaderID(), cache: cache, res: res, reap: reap,
				fileOffset: fileOffset, length: length,
			})
		} else {
			loaders = append(loaders, &OnHeapLinearLoader{
				id: NewLoaderID(), cache: cache, res: res,
				fileOffset: fileOffset, length: length,
			})
		}
	}
	return loaders, nil
}

// BuildBufferList wraps one Span per loader segment, at offset = k *
// segmentSize, and merges them into a single Buffer.
func BuildBufferList(loaders []Loader, segmentSize int64) spanbuf.Buffer {
	parts := make([]spanbuf.Buffer, len(loaders))
	for k, ld := range loaders {
		parts[k] = NewSpan(ld, int64(k)*segmentSize, 0, ld.Length())
	}
	return spanbuf.Merge(0, parts...)
}
