// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spanbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferListConcatAndRead(t *testing.T) {
	bl := Merge(0, Wrap([]byte("foo")), Wrap([]byte("bar")), Wrap([]byte("baz")))
	assert.Equal(t, int64(9), bl.Length())
	assert.Equal(t, "foobarbaz", bl.Text())
	assert.Equal(t, byte('b'), bl.Read(3))
	assert.Equal(t, byte('z'), bl.Read(8))
}

func TestBufferListSliceAtCrossesBoundary(t *testing.T) {
	bl := Merge(0, Wrap([]byte("foo")), Wrap([]byte("bar")), Wrap([]byte("baz")))
	got := bl.SliceAt(2)
	assert.Equal(t, "obarbaz", got.Text())
}

func TestBufferListHeadCrossesBoundary(t *testing.T) {
	bl := Merge(0, Wrap([]byte("foo")), Wrap([]byte("bar")), Wrap([]byte("baz")))
	got := bl.Head(5)
	assert.Equal(t, "fooba", got.Text())
}

func TestBufferListReadIntoSpansMultipleChildren(t *testing.T) {
	bl := Merge(0, Wrap([]byte("ab")), Wrap([]byte("cd")), Wrap([]byte("ef")))
	out := make([]byte, 6)
	n := bl.ReadInto(0, out)
	assert.Equal(t, 6, n)
	assert.Equal(t, "abcdef", string(out))
}

func TestBufferListDuplicateRelabels(t *testing.T) {
	bl := Merge(10, Wrap([]byte("ab")), Wrap([]byte("cd")))
	dup := bl.Duplicate(100)
	assert.Equal(t, int64(100), dup.Offset())
	assert.Equal(t, bl.Text(), dup.Text())
}

func TestBufferListWalkerAcrossChildren(t *testing.T) {
	bl := Merge(0, Wrap([]byte("ab")), Wrap([]byte("cd")))
	w := bl.Walker()
	assert.Equal(t, uint16('a')<<8|uint16('b'), w.Char())
	assert.Equal(t, uint16('c')<<8|uint16('d'), w.Char())
	assert.False(t, w.HasCurrent())
}

func TestBufferListSearchAcrossChildBoundary(t *testing.T) {
	bl := Merge(0, Wrap([]byte("TGATG")), Wrap([]byte("CATTA")), Wrap([]byte("TTAGTAGATGC")))
	pos, ok := bl.PositionOf(Wrap([]byte("ATTA")), bl.Offset())
	assert.True(t, ok)
	assert.Equal(t, int64(6), pos)
}
