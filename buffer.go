// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package spanbuf implements a virtual byte-buffer algebra: an immutable,
// addressable byte sequence assembled by composition over one or more
// underlying byte sources without copying. New buffers are built by slicing,
// concatenating, and wrapping other buffers; the operations are closed over
// the Buffer interface and never duplicate the underlying bytes.
package spanbuf

import (
	"sort"
	"strings"
)

// Buffer is a read-only, positionally-addressed byte sequence. All
// operations are pure: each returns a new Buffer (or a scalar) and none
// mutates the receiver or any buffer it was built from.
//
// Concrete implementations need only provide the primitive operations
// (Length, Offset, Duplicate, SliceAt, Head, Read, ReadInto); embedding Base
// and wiring Base.Self derives the rest from that small primitive core.
type Buffer interface {
	// Length is the number of bytes in the buffer.
	Length() int64
	// Offset is the absolute position of the first byte.
	Offset() int64
	// End is the inclusive absolute position of the last byte, or
	// Offset()-1 for an empty buffer.
	End() int64
	// Contains reports whether pos is a valid absolute read position.
	Contains(pos int64) bool

	// Duplicate returns a buffer with identical content relabeled to start
	// at newOffset.
	Duplicate(newOffset int64) Buffer
	// SliceAt returns the subrange [absPos, End()], relabeled so its new
	// Offset is absPos.
	SliceAt(absPos int64) Buffer
	// Cut returns SliceAt(Offset()+n).
	Cut(n int64) Buffer
	// Head returns the first n bytes, offset preserved.
	Head(n int64) Buffer
	// Trunc returns Head(absPos - Offset()).
	Trunc(absPos int64) Buffer
	// Tail returns the last n bytes; offset becomes Offset()+Length()-n.
	Tail(n int64) Buffer
	// SafeTail is Tail but clamped to Offset() instead of panicking.
	SafeTail(n int64) Buffer
	// SafeSliceAt is SliceAt but returns an empty buffer instead of
	// panicking when absPos is out of range.
	SafeSliceAt(absPos int64) Buffer
	// Concat appends other after the receiver.
	Concat(other Buffer) Buffer

	// Read returns the byte at the absolute position absPos.
	Read(absPos int64) byte
	// ReadInto copies up to len(out) bytes starting at absPos into out,
	// returning the count actually copied (fewer than len(out) only at the
	// tail of the buffer; never more).
	ReadInto(absPos int64, out []byte) int
	// ReadRelative is Read(Offset()+relPos).
	ReadRelative(relPos int64) byte
	// ReadRelativeInto is ReadInto(Offset()+relPos, out).
	ReadRelativeInto(relPos int64, out []byte) int

	// Walker returns a cursor positioned at Offset().
	Walker() *Walker
	// WalkerAt returns a cursor positioned at absPos.
	WalkerAt(absPos int64) *Walker

	// PositionOf returns the absolute position of the first occurrence of
	// needle at or after fromAbs, or ok==false if there is none — a normal
	// result, not a panic.
	PositionOf(needle Buffer, fromAbs int64) (pos int64, ok bool)
	// LastPositionOf returns the absolute position of the last occurrence
	// of needle at or before fromAbs, or ok==false if there is none.
	LastPositionOf(needle Buffer, fromAbs int64) (pos int64, ok bool)

	// CommonPrefix returns the count of leading bytes equal between the
	// receiver and other.
	CommonPrefix(other Buffer) int64
	// CommonSuffix returns the count of trailing bytes equal between the
	// receiver and other.
	CommonSuffix(other Buffer) int64
	// StartsWith reports whether the receiver begins with other's content.
	StartsWith(other Buffer) bool
	// EndsWith reports whether the receiver ends with other's content.
	EndsWith(other Buffer) bool

	// Text decodes the buffer's content as UTF-8.
	Text() string
	// Hex renders up to limit bytes (0 meaning all) as a hex string.
	Hex(limit int) string

	// Equal is content equality: same Length and same byte sequence.
	// Offset is not compared.
	Equal(other Buffer) bool
	// Hash is the Java-style running hash: h=1; for each byte b:
	// h = 31*h + b (wrapping int32 arithmetic), memoised once computed.
	Hash() int32
}

// emptyBuffer is the canonical zero-length Buffer, relabeled by Duplicate.
type emptyBuffer struct {
	Base
	offset int64
}

// Empty returns the canonical empty buffer labeled at offset.
func Empty(offset int64) Buffer {
	e := &emptyBuffer{offset: offset}
	e.Self = e
	return e
}

func (e *emptyBuffer) Length() int64                    { return 0 }
func (e *emptyBuffer) Offset() int64                    { return e.offset }
func (e *emptyBuffer) Duplicate(newOffset int64) Buffer { return Empty(newOffset) }
func (e *emptyBuffer) Head(n int64) Buffer {
	if n != 0 {
		panicf(OutOfRange, "head(%d) on empty buffer", n)
	}
	return e
}
func (e *emptyBuffer) SliceAt(absPos int64) Buffer {
	if absPos != e.offset {
		panicf(OutOfRange, "slice_at(%d) on empty buffer at %d", absPos, e.offset)
	}
	return e
}
func (e *emptyBuffer) Read(absPos int64) byte {
	panicf(OutOfRange, "read(%d) on empty buffer", absPos)
	return 0
}
func (e *emptyBuffer) ReadInto(absPos int64, out []byte) int {
	if len(out) == 0 {
		return 0
	}
	if absPos != e.offset {
		panicf(OutOfRange, "read_into(%d) on empty buffer at %d", absPos, e.offset)
	}
	return 0
}

// Base derives the non-primitive Buffer operations from a small primitive
// core the embedding type supplies via Self. Self must be set by the
// embedding type's constructor before any derived method is called.
type Base struct {
	Self     Buffer
	hashOnce bool
	hashVal  int32
}

func (b *Base) End() int64 { return CalcEnd(b.Self.Offset(), b.Self.Length()) }

func (b *Base) Contains(pos int64) bool {
	if b.Self.Length() == 0 {
		return false
	}
	return pos >= b.Self.Offset() && pos <= b.Self.End()
}

func (b *Base) Cut(n int64) Buffer {
	span := Span{Offset: b.Self.Offset(), Length: b.Self.Length()}
	span.checkRelative(n)
	return b.Self.SliceAt(b.Self.Offset() + n)
}

func (b *Base) Trunc(absPos int64) Buffer {
	return b.Self.Head(absPos - b.Self.Offset())
}

func (b *Base) Tail(n int64) Buffer {
	span := Span{Offset: b.Self.Offset(), Length: b.Self.Length()}
	span.checkRelative(n)
	return b.Self.Cut(b.Self.Length() - n)
}

func (b *Base) SafeTail(n int64) Buffer {
	if n > b.Self.Length() {
		n = b.Self.Length()
	}
	if n < 0 {
		n = 0
	}
	return b.Self.Tail(n)
}

func (b *Base) SafeSliceAt(absPos int64) Buffer {
	if absPos < b.Self.Offset() || absPos > b.Self.Offset()+b.Self.Length() {
		return Empty(absPos)
	}
	return b.Self.SliceAt(absPos)
}

func (b *Base) Concat(other Buffer) Buffer {
	return merge(b.Self.Offset(), b.Self, other)
}

func (b *Base) ReadRelative(relPos int64) byte {
	return b.Self.Read(b.Self.Offset() + relPos)
}

func (b *Base) ReadRelativeInto(relPos int64, out []byte) int {
	return b.Self.ReadInto(b.Self.Offset()+relPos, out)
}

func (b *Base) Walker() *Walker { return newWalker(b.Self, b.Self.Offset()) }

func (b *Base) WalkerAt(absPos int64) *Walker { return newWalker(b.Self, absPos) }

// PositionOf performs a naive forward sliding match: on mismatch the
// haystack position advances by one and the needle comparison resets.
func (b *Base) PositionOf(needle Buffer, fromAbs int64) (int64, bool) {
	self := b.Self
	if fromAbs > self.End() && self.Length() > 0 {
		panicf(OutOfRange, "position_of from %d beyond end %d", fromAbs, self.End())
	}
	if needle.Length() == 0 {
		return fromAbs, true
	}
	if self.Length() == 0 {
		return 0, false
	}
	nlen := needle.Length()
	for start := fromAbs; start+nlen <= self.Offset()+self.Length(); start++ {
		if regionEqual(self, start, needle) {
			return start, true
		}
	}
	return 0, false
}

// LastPositionOf performs the symmetric reverse scan.
func (b *Base) LastPositionOf(needle Buffer, fromAbs int64) (int64, bool) {
	self := b.Self
	if needle.Length() == 0 {
		to := fromAbs
		if to > self.End() {
			to = self.End()
		}
		return to, true
	}
	if self.Length() == 0 {
		return 0, false
	}
	nlen := needle.Length()
	last := fromAbs
	if last > self.End() {
		last = self.End()
	}
	for start := last - nlen + 1; start >= self.Offset(); start-- {
		if regionEqual(self, start, needle) {
			return start, true
		}
	}
	return 0, false
}

func regionEqual(haystack Buffer, start int64, needle Buffer) bool {
	nlen := needle.Length()
	for i := int64(0); i < nlen; i++ {
		if haystack.Read(start+i) != needle.ReadRelative(i) {
			return false
		}
	}
	return true
}

func (b *Base) CommonPrefix(other Buffer) int64 {
	self := b.Self
	max := self.Length()
	if other.Length() < max {
		max = other.Length()
	}
	var i int64
	for i = 0; i < max; i++ {
		if self.ReadRelative(i) != other.ReadRelative(i) {
			break
		}
	}
	return i
}

func (b *Base) CommonSuffix(other Buffer) int64 {
	self := b.Self
	max := self.Length()
	if other.Length() < max {
		max = other.Length()
	}
	var i int64
	for i = 0; i < max; i++ {
		a := self.ReadRelative(self.Length() - 1 - i)
		c := other.ReadRelative(other.Length() - 1 - i)
		if a != c {
			break
		}
	}
	return i
}

func (b *Base) StartsWith(other Buffer) bool {
	self := b.Self
	if other.Length() > self.Length() {
		return false
	}
	return b.CommonPrefix(other) == other.Length()
}

func (b *Base) EndsWith(other Buffer) bool {
	self := b.Self
	if other.Length() > self.Length() {
		return false
	}
	return b.CommonSuffix(other) == other.Length()
}

func (b *Base) Text() string {
	self := b.Self
	buf := make([]byte, self.Length())
	readAllInto(self, buf)
	return string(buf)
}

const hexDigits = "0123456789abcdef"

func (b *Base) Hex(limit int) string {
	self := b.Self
	n := self.Length()
	if limit > 0 && int64(limit) < n {
		n = int64(limit)
	}
	var sb strings.Builder
	sb.Grow(int(n) * 2)
	for i := int64(0); i < n; i++ {
		c := self.ReadRelative(i)
		sb.WriteByte(hexDigits[c>>4])
		sb.WriteByte(hexDigits[c&0xF])
	}
	return sb.String()
}

func (b *Base) Equal(other Buffer) bool {
	self := b.Self
	if other == nil {
		return false
	}
	if self.Length() != other.Length() {
		return false
	}
	return self.CommonPrefix(other) == self.Length()
}

func (b *Base) Hash() int32 {
	if b.hashOnce {
		return b.hashVal
	}
	self := b.Self
	var h int32 = 1
	const chunk = 4096
	buf := make([]byte, chunk)
	n := self.Length()
	for pos := int64(0); pos < n; {
		want := n - pos
		if want > chunk {
			want = chunk
		}
		got := self.ReadRelativeInto(pos, buf[:want])
		for i := 0; i < got; i++ {
			h = 31*h + int32(buf[i])
		}
		if int64(got) < want {
			// A reclaimable backing cache may serve a short read under
			// memory pressure; content is deterministic, so continuing from
			// where the short read stopped is always correct. Only a genuine
			// zero-byte read means there is nothing left.
			if got == 0 {
				break
			}
		}
		pos += int64(got)
	}
	b.hashVal = h
	b.hashOnce = true
	return h
}

func readAllInto(b Buffer, out []byte) {
	pos := int64(0)
	for pos < int64(len(out)) {
		n := b.ReadRelativeInto(pos, out[pos:])
		if n <= 0 {
			break
		}
		pos += int64(n)
	}
}

// merge builds the smallest Buffer representing the catenation of parts in
// order, filtering zero-length children.
func merge(offset int64, parts ...Buffer) Buffer {
	nonEmpty := make([]Buffer, 0, len(parts))
	for _, p := range parts {
		if p == nil || p.Length() == 0 {
			continue
		}
		nonEmpty = append(nonEmpty, p)
	}
	switch len(nonEmpty) {
	case 0:
		return Empty(offset)
	case 1:
		return nonEmpty[0].Duplicate(offset)
	default:
		return newBufferListFromContiguous(offset, nonEmpty)
	}
}

// Merge concatenates buffers in order, filtering zero-length children and
// collapsing to Empty/duplicate-of-one when possible.
func Merge(offset int64, buffers ...Buffer) Buffer {
	return merge(offset, buffers...)
}

// searchInsertionPoint returns the index of the last cumulative offset <= p,
// used by BufferList's child lookup (sort.Search wraps the classic binary
// search over the sorted cumulative-offset slice).
func searchInsertionPoint(cum []int64, p int64) int {
	return sort.Search(len(cum), func(i int) bool { return cum[i] > p }) - 1
}
