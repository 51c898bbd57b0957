// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spanbuf

// BufferList is a composite Buffer: an ordered catenation of child buffers.
// Construction relabels each child's offset so that children are logically
// contiguous starting at the list's own offset; zero-length children are
// dropped before this point by merge().
type BufferList struct {
	Base
	children []Buffer // relabeled so child i occupies [starts[i], starts[i]+len_i)
	starts   []int64  // absolute start offset of each child, ascending
	offset   int64
	length   int64
}

// newBufferListFromContiguous builds a BufferList from at least two
// non-empty buffers, relabeling each to be contiguous starting at offset.
func newBufferListFromContiguous(offset int64, parts []Buffer) *BufferList {
	children := make([]Buffer, len(parts))
	starts := make([]int64, len(parts))
	cur := offset
	for i, p := range parts {
		children[i] = p.Duplicate(cur)
		starts[i] = cur
		cur += p.Length()
	}
	bl := &BufferList{children: children, starts: starts, offset: offset, length: cur - offset}
	bl.Self = bl
	return bl
}

func (bl *BufferList) Length() int64 { return bl.length }
func (bl *BufferList) Offset() int64 { return bl.offset }

func (bl *BufferList) Duplicate(newOffset int64) Buffer {
	return newBufferListFromContiguous(newOffset, bl.children)
}

// childIndexFor returns the index of the child whose range contains abs
// (abs may equal offset+length, the one-past-end sentinel, in which case the
// last child's index is returned).
func (bl *BufferList) childIndexFor(abs int64) int {
	idx := searchInsertionPoint(bl.starts, abs)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(bl.children) {
		idx = len(bl.children) - 1
	}
	return idx
}

func (bl *BufferList) SliceAt(absPos int64) Buffer {
	Span{Offset: bl.offset, Length: bl.length}.checkSliceAt(absPos)
	if absPos == bl.offset {
		return bl
	}
	if absPos == bl.offset+bl.length {
		return Empty(absPos)
	}
	idx := bl.childIndexFor(absPos)
	rest := make([]Buffer, 0, len(bl.children)-idx)
	rest = append(rest, bl.children[idx].SliceAt(absPos))
	rest = append(rest, bl.children[idx+1:]...)
	return merge(absPos, rest...)
}

func (bl *BufferList) Head(n int64) Buffer {
	Span{Offset: bl.offset, Length: bl.length}.checkRelative(n)
	if n == 0 {
		return Empty(bl.offset)
	}
	if n == bl.length {
		return bl
	}
	target := bl.offset + n
	idx := bl.childIndexFor(target)
	// Children fully before idx are kept whole; the child at idx is
	// truncated at the boundary.
	kept := make([]Buffer, 0, idx+1)
	kept = append(kept, bl.children[:idx]...)
	boundaryChild := bl.children[idx]
	cut := target - bl.starts[idx]
	if cut > 0 {
		kept = append(kept, boundaryChild.Head(cut))
	}
	return merge(bl.offset, kept...)
}

func (bl *BufferList) Read(absPos int64) byte {
	Span{Offset: bl.offset, Length: bl.length}.checkAbsolute(absPos)
	idx := bl.childIndexFor(absPos)
	return bl.children[idx].Read(absPos)
}

// ReadInto reads into out starting at absPos, crossing child boundaries as
// needed.
func (bl *BufferList) ReadInto(absPos int64, out []byte) int {
	if len(out) == 0 {
		return 0
	}
	if absPos < bl.offset || absPos > bl.offset+bl.length {
		panicf(OutOfRange, "read_into(%d) outside [%d,%d]", absPos, bl.offset, bl.offset+bl.length)
	}
	total := 0
	pos := absPos
	remaining := out
	for len(remaining) > 0 && pos < bl.offset+bl.length {
		idx := bl.childIndexFor(pos)
		child := bl.children[idx]
		n := child.ReadInto(pos, remaining)
		if n == 0 {
			break
		}
		total += n
		pos += int64(n)
		remaining = remaining[n:]
	}
	return total
}
