// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spanbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWalkerTypedRoundTrip(t *testing.T) {
	var b []byte
	b = append(b, 0x7f)                      // I8 = 127
	b = append(b, 0xff, 0xff)                // U16 = 65535
	b = append(b, 0x00, 0x00, 0x01, 0x00)    // I32 = 256
	b = append(b, 0, 0, 0, 0, 0, 0, 0, 5)    // I64 = 5
	b = append(b, 0x01)                      // Bool = true
	b = append(b, 0x00, 0x03, 'h', 'i', '!') // UTF "hi!"

	buf := Wrap(b)
	w := buf.Walker()

	assert.Equal(t, int8(127), w.I8())
	assert.Equal(t, uint16(65535), w.U16())
	assert.Equal(t, int32(256), w.I32())
	assert.Equal(t, int64(5), w.I64())
	assert.True(t, w.Bool())
	assert.Equal(t, "hi!", w.UTF())
	assert.False(t, w.HasCurrent())
}

func TestWalkerGetByteIsIdempotent(t *testing.T) {
	buf := Wrap([]byte("abc"))
	w := buf.Walker()
	first := w.GetByte()
	second := w.GetByte()
	assert.Equal(t, first, second)
	assert.Equal(t, buf.Offset(), w.Position())
}

func TestWalkerNextThenPrevIsIdentity(t *testing.T) {
	buf := Wrap([]byte("abcdef"))
	w := buf.WalkerAt(buf.Offset() + 2)
	start := w.Position()
	w.Next()
	w.Prev()
	assert.Equal(t, start, w.Position())
}

func TestWalkerEOFCursorSetPositionVsIncrement(t *testing.T) {
	buf := Wrap([]byte("abc"))
	eof := buf.Offset() + buf.Length()

	w := buf.Walker()
	w.SetPosition(eof)
	assert.Equal(t, eof, w.Position())
	assert.False(t, w.HasCurrent())

	w2 := buf.WalkerAt(buf.Offset() + buf.Length() - 1)
	assert.Panics(t, func() { w2.Increment(2) })
}

func TestWalkerSkipBytesClampsAtEnd(t *testing.T) {
	buf := Wrap([]byte("abc"))
	w := buf.Walker()
	skipped := w.SkipBytes(100)
	assert.Equal(t, int64(3), skipped)
	assert.False(t, w.HasCurrent())
}

func TestWalkerReadLineHandlesTerminators(t *testing.T) {
	buf := Wrap([]byte("foo\r\nbar\nbaz"))
	w := buf.Walker()
	assert.Equal(t, "foo", w.ReadLine())
	assert.Equal(t, "bar", w.ReadLine())
	assert.Equal(t, "baz", w.ReadLine())
}

func TestWalkerUnexpectedEOFOnShortRead(t *testing.T) {
	buf := Wrap([]byte{0x01})
	w := buf.Walker()
	assert.Panics(t, func() { w.I32() })
}
