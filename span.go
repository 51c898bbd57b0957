// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spanbuf

// Span is a half-open numeric range [Offset, Offset+Length) used to label a
// Buffer's absolute address space. It carries no bytes of its own.
type Span struct {
	Offset int64
	Length int64
}

// FromLength builds a Span from an offset and a length.
func FromLength(offset, length int64) Span {
	if length < 0 {
		panicf(OutOfRange, "negative length %d", length)
	}
	return Span{Offset: offset, Length: length}
}

// FromEnd builds a Span from an offset and an inclusive end, matching
// CalcLength's convention (end < offset-1 is never produced by this package,
// but is accepted here so callers can round-trip an End() value back in).
func FromEnd(offset, end int64) Span {
	return Span{Offset: offset, Length: CalcLength(offset, end)}
}

// CalcEnd returns the inclusive end of a [offset, offset+length) span, or
// offset-1 by convention when length is 0.
func CalcEnd(offset, length int64) int64 {
	if length <= 0 {
		return offset - 1
	}
	return offset + length - 1
}

// CalcLength returns the length implied by an offset and an inclusive end.
// end == offset-1 (or less) yields a length of 0.
func CalcLength(offset, end int64) int64 {
	if end < offset {
		return 0
	}
	return end - offset + 1
}

// End returns the inclusive end of the span.
func (s Span) End() int64 { return CalcEnd(s.Offset, s.Length) }

// Contains reports whether pos lies in [Offset, End()].
func (s Span) Contains(pos int64) bool {
	if s.Length == 0 {
		return false
	}
	return pos >= s.Offset && pos <= s.End()
}

// checkAbsolute panics with OutOfRange unless pos is a valid read position,
// i.e. in [Offset, End()].
func (s Span) checkAbsolute(pos int64) {
	if s.Length == 0 || pos < s.Offset || pos > s.End() {
		panicf(OutOfRange, "absolute position %d outside [%d,%d]", pos, s.Offset, s.End())
	}
}

// checkSliceAt panics unless pos is a valid SliceAt argument, i.e. in
// [Offset, Offset+Length].
func (s Span) checkSliceAt(pos int64) {
	if pos < s.Offset || pos > s.Offset+s.Length {
		panicf(OutOfRange, "slice position %d outside [%d,%d]", pos, s.Offset, s.Offset+s.Length)
	}
}

// checkRelative panics unless n is a valid relative count, i.e. in
// [0, Length].
func (s Span) checkRelative(n int64) {
	if n < 0 || n > s.Length {
		panicf(OutOfRange, "relative count %d outside [0,%d]", n, s.Length)
	}
}

// FitsInt32 reports whether length fits in a signed 32-bit integer, the
// width the tree and wire layers use for on-disk record counts.
func FitsInt32(length int64) bool {
	return length >= 0 && length <= int64(^uint32(0)>>1)
}
