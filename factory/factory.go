// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package factory

import (
	"fmt"
	"io"
	"os"

	"github.com/tayne3/spanbuf"
	"github.com/tayne3/spanbuf/lazy"
	"github.com/tayne3/spanbuf/reaper"
)

// Factory is the library's entry point for constructing Buffers: it wraps
// bytes, strings, files, and input streams into Buffers, selecting
// in-memory or lazy-segment backing per Config.MaxHeap, and merges
// existing Buffers.
type Factory struct {
	cfg   Config
	reap  *reaper.Reaper
	cache *lazy.Cache
}

// New builds a Factory. reap may be nil to create a private reaper.Reaper;
// cache may be nil to use lazy.DefaultCache.
func New(cfg Config, reap *reaper.Reaper, cache *lazy.Cache) *Factory {
	if reap == nil {
		reap = reaper.New()
	}
	if cache == nil {
		cache = lazy.DefaultCache
	}
	return &Factory{cfg: cfg.withDefaults(), reap: reap, cache: cache}
}

// Reaper returns the resource reaper backing this Factory's file- and
// mmap-based loaders.
func (f *Factory) Reaper() *reaper.Reaper { return f.reap }

// WrapBytes wraps data at offset 0, sharing the slice without copying.
func (f *Factory) WrapBytes(data []byte) spanbuf.Buffer { return spanbuf.WrapBytes(0, data) }

// WrapBytesAt wraps data labeled at offset.
func (f *Factory) WrapBytesAt(offset int64, data []byte) spanbuf.Buffer {
	return spanbuf.WrapBytes(offset, data)
}

// WrapBytesRange wraps data[off:off+length] labeled at offset.
func (f *Factory) WrapBytesRange(offset int64, data []byte, off, length int) spanbuf.Buffer {
	return spanbuf.WrapBytes(offset, data[off:off+length])
}

// WrapRegion wraps an existing byte region without copying — the same
// no-copy sharing WrapBytes already gives a Go slice, exposed under its
// own name for callers that think in terms of a region rather than raw
// bytes.
func (f *Factory) WrapRegion(data []byte) spanbuf.Buffer { return f.WrapBytes(data) }

// WrapString encodes s as UTF-8 and wraps the result.
func (f *Factory) WrapString(s string) spanbuf.Buffer { return spanbuf.WrapBytes(0, []byte(s)) }

// WrapStringAt is WrapString labeled at offset.
func (f *Factory) WrapStringAt(offset int64, s string) spanbuf.Buffer {
	return spanbuf.WrapBytes(offset, []byte(s))
}

// WrapFile wraps file's entire contents: fully in memory if its size is
// at most Config.MaxHeap, otherwise as a lazily loaded BufferList segmented
// at Config.SegmentSize.
func (f *Factory) WrapFile(file *os.File) (spanbuf.Buffer, error) {
	fi, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("factory: stat file: %w", err)
	}
	if fi.Size() <= f.cfg.MaxHeap {
		data := make([]byte, fi.Size())
		if _, err := file.ReadAt(data, 0); err != nil {
			return nil, fmt.Errorf("factory: read file: %w", err)
		}
		return spanbuf.WrapBytes(0, data), nil
	}
	return f.WrapFileSegmented(file, f.cfg.SegmentSize, false)
}

// WrapFileSegmented forces the lazy-segment path regardless of MaxHeap,
// using on-heap linear loaders. With deleteAfterUse set, the file is
// registered with the resource reaper to be closed once no segment loader
// references it; the file is not deleted from disk.
func (f *Factory) WrapFileSegmented(file *os.File, segmentSize int64, deleteAfterUse bool) (spanbuf.Buffer, error) {
	return f.wrapSegmented(file, segmentSize, false, deleteAfterUse)
}

// WrapFileChannel is an alias for WrapFileSegmented for callers coming
// from an API with a distinct channel-typed file handle — Go has no
// separate file-channel type, so *os.File serves both.
func (f *Factory) WrapFileChannel(file *os.File, segmentSize int64, closeAfterUse bool) (spanbuf.Buffer, error) {
	return f.wrapSegmented(file, segmentSize, false, closeAfterUse)
}

// WrapRandomAccessFile is an alias for WrapFileSegmented for callers
// coming from an API with a distinct random-access-file type — again
// *os.File plays both roles.
func (f *Factory) WrapRandomAccessFile(file *os.File, segmentSize int64, closeAfterUse bool) (spanbuf.Buffer, error) {
	return f.wrapSegmented(file, segmentSize, false, closeAfterUse)
}

// AsMemMap forces memory-mapped (rather than heap-copy) segment loaders
// regardless of MaxHeap.
func (f *Factory) AsMemMap(file *os.File, segmentSize int64) (spanbuf.Buffer, error) {
	if segmentSize <= 0 {
		segmentSize = f.cfg.SegmentSize
	}
	return f.wrapSegmented(file, segmentSize, true, false)
}

func (f *Factory) wrapSegmented(file *os.File, segmentSize int64, offHeap, closeAfterUse bool) (spanbuf.Buffer, error) {
	fi, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("factory: stat file: %w", err)
	}
	if segmentSize <= 0 {
		segmentSize = f.cfg.SegmentSize
	}
	loaders, err := lazy.Segments(file, fi.Size(), segmentSize, offHeap, closeAfterUse, f.reap, f.cache)
	if err != nil {
		return nil, err
	}
	return lazy.BuildBufferList(loaders, segmentSize), nil
}

// WrapInputStream copies r through an OutputStreamBuffer (spooling to
// memory, then to a temp file past MaxHeap) and returns the resulting
// Buffer.
func (f *Factory) WrapInputStream(r io.Reader) (spanbuf.Buffer, error) {
	osb := NewOutputStreamBuffer(f.cfg.MaxHeap)
	if _, err := io.Copy(osb, r); err != nil {
		osb.Close()
		return nil, fmt.Errorf("factory: copy input stream: %w", err)
	}
	osb.Close()
	if !osb.Spilled() {
		data := append([]byte(nil), osb.Bytes()...)
		return spanbuf.WrapBytes(0, data), nil
	}
	return f.WrapFileSegmented(osb.File(), f.cfg.SegmentSize, true)
}

// Merge concatenates buffers in order, labeled starting at offset 0.
func (f *Factory) Merge(buffers ...spanbuf.Buffer) spanbuf.Buffer {
	return spanbuf.Merge(0, buffers...)
}

// MergeAt is Merge labeled starting at offset.
func (f *Factory) MergeAt(offset int64, buffers ...spanbuf.Buffer) spanbuf.Buffer {
	return spanbuf.Merge(offset, buffers...)
}
