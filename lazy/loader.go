// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package lazy implements deferred, reclaimable segment loading: the
// Loader contract, the Span buffer that delegates to it, and the
// on-heap / off-heap linear loaders used for large file sources.
package lazy

import "github.com/tayne3/spanbuf"

// Loader materializes a segment's bytes on demand: Load returns a buffer
// starting at the logical inset inside the loader's segment, fulfilled
// from a reclaimable cache or by re-reading underlying storage. Length may
// return UndefLen if it is not known until the first Load.
type Loader interface {
	Load(inset int64) (spanbuf.Buffer, error)
	Length() int64
}

// Span is a Buffer that delegates to a Loader. When the length is known,
// SliceAt/Head/Duplicate only adjust (offset, inset, length) and never
// trigger a load; when it is UndefLen, SliceAt and Head load once to
// discover it (see resolvedLength). Read/ReadInto/Walker force a load on
// demand.
type Span struct {
	spanbuf.Base
	loader Loader
	offset int64
	inset  int64
	length int64
}

// NewSpan wraps loader as a Buffer labeled at offset, covering length bytes
// starting at the loader-relative position inset.
func NewSpan(loader Loader, offset, inset, length int64) spanbuf.Buffer {
	s := &Span{loader: loader, offset: offset, inset: inset, length: length}
	s.Self = s
	return s
}

// resolvedLength returns the span's length, forcing a load to discover it
// when the underlying Loader reported UndefLen at construction time (tree
// buffers: wire positions carry no length). The discovered value is never
// cached on the Span itself — Span is an immutable value shared across
// Duplicate/SliceAt/Head copies — but the Loader's own cache makes
// repeated resolution cheap.
func (s *Span) resolvedLength() int64 {
	if s.length != UndefLen {
		return s.length
	}
	return s.materialize().Length()
}

func (s *Span) Length() int64 { return s.resolvedLength() }
func (s *Span) Offset() int64 { return s.offset }

func (s *Span) Duplicate(newOffset int64) spanbuf.Buffer {
	return NewSpan(s.loader, newOffset, s.inset, s.length)
}

func (s *Span) SliceAt(absPos int64) spanbuf.Buffer {
	length := s.resolvedLength()
	checkSliceAt(s.offset, length, absPos)
	if absPos == s.offset {
		return s
	}
	if absPos == s.offset+length {
		return spanbuf.Empty(absPos)
	}
	delta := absPos - s.offset
	return NewSpan(s.loader, absPos, s.inset+delta, length-delta)
}

func (s *Span) Head(n int64) spanbuf.Buffer {
	length := s.resolvedLength()
	checkRelative(length, n)
	if n == 0 {
		return spanbuf.Empty(s.offset)
	}
	if n == length {
		return s
	}
	return NewSpan(s.loader, s.offset, s.inset, n)
}

// materialize forces a load of the loader's segment, labeled at s.inset in
// the loader's own logical address space (not this Span's absolute Offset).
func (s *Span) materialize() spanbuf.Buffer {
	buf, err := s.loader.Load(s.inset)
	spanbuf.PanicIO("lazy.Span.materialize", err)
	return buf
}

// toLoaderPos translates one of this span's absolute positions into the
// loader's logical address space.
func (s *Span) toLoaderPos(absPos int64) int64 { return s.inset + (absPos - s.offset) }

func (s *Span) Read(absPos int64) byte {
	checkAbsolute(s.offset, s.resolvedLength(), absPos)
	return s.materialize().Read(s.toLoaderPos(absPos))
}

func (s *Span) ReadInto(absPos int64, out []byte) int {
	if len(out) == 0 {
		return 0
	}
	length := s.resolvedLength()
	checkSliceAt(s.offset, length, absPos)
	avail := length - (absPos - s.offset)
	if int64(len(out)) > avail {
		out = out[:avail]
	}
	return s.materialize().ReadInto(s.toLoaderPos(absPos), out)
}

func checkSliceAt(offset, length, pos int64) {
	if pos < offset || pos > offset+length {
		spanbuf.PanicOutOfRange("slice position %d outside [%d,%d]", pos, offset, offset+length)
	}
}

func checkAbsolute(offset, length, pos int64) {
	if length == 0 || pos < offset || pos > offset+length-1 {
		spanbuf.PanicOutOfRange("absolute position %d outside [%d,%d]", pos, offset, offset+length-1)
	}
}

func checkRelative(length, n int64) {
	if n < 0 || n > length {
		spanbuf.PanicOutOfRange("relative count %d outside [0,%d]", n, length)
	}
}
