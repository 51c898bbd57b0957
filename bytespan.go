// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spanbuf

// ByteBufferSpan is a leaf Buffer wrapping a contiguous in-memory byte
// region. Repeated slicing shares the same backing array
// under different [start,end) inner cursors, so reads stay O(1) and no
// byte is ever copied by SliceAt/Head/Duplicate.
type ByteBufferSpan struct {
	Base
	region []byte // shared backing array, never mutated after construction
	start  int    // inclusive index into region
	end    int    // exclusive index into region
	offset int64  // absolute label of region[start]
}

// WrapBytes wraps data (not copied) as a Buffer labeled at offset.
func WrapBytes(offset int64, data []byte) Buffer {
	return newByteBufferSpan(data, 0, len(data), offset)
}

// Wrap wraps data (not copied) as a Buffer labeled at offset 0.
func Wrap(data []byte) Buffer { return WrapBytes(0, data) }

func newByteBufferSpan(region []byte, start, end int, offset int64) *ByteBufferSpan {
	s := &ByteBufferSpan{region: region, start: start, end: end, offset: offset}
	s.Self = s
	return s
}

func (s *ByteBufferSpan) Length() int64 { return int64(s.end - s.start) }
func (s *ByteBufferSpan) Offset() int64 { return s.offset }

func (s *ByteBufferSpan) Duplicate(newOffset int64) Buffer {
	return newByteBufferSpan(s.region, s.start, s.end, newOffset)
}

func (s *ByteBufferSpan) SliceAt(absPos int64) Buffer {
	Span{Offset: s.offset, Length: s.Length()}.checkSliceAt(absPos)
	if absPos == s.offset {
		return s
	}
	if absPos == s.offset+s.Length() {
		return Empty(absPos)
	}
	newStart := s.start + int(absPos-s.offset)
	return newByteBufferSpan(s.region, newStart, s.end, absPos)
}

func (s *ByteBufferSpan) Head(n int64) Buffer {
	Span{Offset: s.offset, Length: s.Length()}.checkRelative(n)
	if n == 0 {
		return Empty(s.offset)
	}
	if n == s.Length() {
		return s
	}
	return newByteBufferSpan(s.region, s.start, s.start+int(n), s.offset)
}

func (s *ByteBufferSpan) Read(absPos int64) byte {
	Span{Offset: s.offset, Length: s.Length()}.checkAbsolute(absPos)
	return s.region[s.start+int(absPos-s.offset)]
}

func (s *ByteBufferSpan) ReadInto(absPos int64, out []byte) int {
	if len(out) == 0 {
		return 0
	}
	sp := Span{Offset: s.offset, Length: s.Length()}
	sp.checkSliceAt(absPos)
	idx := s.start + int(absPos-s.offset)
	avail := s.end - idx
	if avail <= 0 {
		return 0
	}
	n := len(out)
	if n > avail {
		n = avail
	}
	copy(out, s.region[idx:idx+n])
	return n
}
