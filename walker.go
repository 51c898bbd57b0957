// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spanbuf

import (
	"encoding/binary"
	"math"
)

// Walker is a stateful cursor over a Buffer, carrying an absolute position p
// in [buf.Offset(), buf.End()+1]. It conforms to a DataInput-style
// contract: typed reads are big-endian, two's complement, and advance the
// cursor on success.
//
// A Walker is not safe for concurrent use; it carries mutable cursor state
// the same way mbuff.Buffer's pos field does.
type Walker struct {
	buf Buffer
	pos int64
}

func newWalker(buf Buffer, pos int64) *Walker {
	return &Walker{buf: buf, pos: pos}
}

// HasCurrent reports whether the cursor sits on a readable byte.
func (w *Walker) HasCurrent() bool {
	return w.buf.Contains(w.pos)
}

// Position returns the current absolute cursor position.
func (w *Walker) Position() int64 { return w.pos }

// Remaining returns End()-p+1, i.e. the number of bytes left to read
// (including the byte under the cursor).
func (w *Walker) Remaining() int64 { return w.buf.End() - w.pos + 1 }

// SetPosition moves the cursor to an arbitrary absolute position. Like
// Increment, SetPosition accepts the "one past end" position
// buf.Offset()+buf.Length() as the canonical EOF cursor.
func (w *Walker) SetPosition(pos int64) {
	lo, hi := w.buf.Offset(), w.buf.Offset()+w.buf.Length()
	if pos < lo || pos > hi {
		panicf(NoSuchElement, "set_position(%d) outside [%d,%d]", pos, lo, hi)
	}
	w.pos = pos
}

// Increment moves the cursor by n (may be negative), failing with
// NoSuchElement if the result falls outside [offset, offset+length].
func (w *Walker) Increment(n int64) int64 {
	target := w.pos + n
	lo, hi := w.buf.Offset(), w.buf.Offset()+w.buf.Length()
	if target < lo || target > hi {
		panicf(NoSuchElement, "increment(%d) from %d outside [%d,%d]", n, w.pos, lo, hi)
	}
	w.pos = target
	return w.pos
}

// Next advances the cursor by one, clamped at the end; returns the new
// position.
func (w *Walker) Next() int64 {
	hi := w.buf.Offset() + w.buf.Length()
	if w.pos < hi {
		w.pos++
	}
	return w.pos
}

// Prev retracts the cursor by one, clamped at the start; returns the new
// position.
func (w *Walker) Prev() int64 {
	lo := w.buf.Offset()
	if w.pos > lo {
		w.pos--
	}
	return w.pos
}

// GetByte reads the byte at the cursor without moving it. Idempotent.
func (w *Walker) GetByte() byte {
	if !w.HasCurrent() {
		panicf(UnexpectedEOF, "get_byte at %d past end %d", w.pos, w.buf.End())
	}
	return w.buf.Read(w.pos)
}

func (w *Walker) needBytes(n int64) []byte {
	if w.Remaining() < n {
		panicf(UnexpectedEOF, "need %d bytes, %d remaining", n, w.Remaining())
	}
	out := make([]byte, n)
	got := w.buf.ReadInto(w.pos, out)
	if int64(got) != n {
		panicf(UnexpectedEOF, "short read: wanted %d got %d", n, got)
	}
	w.pos += n
	return out
}

// I8 reads a signed byte and advances the cursor.
func (w *Walker) I8() int8 { return int8(w.needBytes(1)[0]) }

// U8 reads an unsigned byte and advances the cursor.
func (w *Walker) U8() uint8 { return w.needBytes(1)[0] }

// I16 reads a big-endian int16 and advances the cursor.
func (w *Walker) I16() int16 { return int16(binary.BigEndian.Uint16(w.needBytes(2))) }

// U16 reads a big-endian uint16 and advances the cursor.
func (w *Walker) U16() uint16 { return binary.BigEndian.Uint16(w.needBytes(2)) }

// I32 reads a big-endian int32 and advances the cursor.
func (w *Walker) I32() int32 { return int32(binary.BigEndian.Uint32(w.needBytes(4))) }

// U32 reads a big-endian uint32 and advances the cursor.
func (w *Walker) U32() uint32 { return binary.BigEndian.Uint32(w.needBytes(4)) }

// I64 reads a big-endian int64 and advances the cursor.
func (w *Walker) I64() int64 { return int64(binary.BigEndian.Uint64(w.needBytes(8))) }

// U64 reads a big-endian uint64 and advances the cursor.
func (w *Walker) U64() uint64 { return binary.BigEndian.Uint64(w.needBytes(8)) }

// F32 reads a big-endian IEEE-754 float32 and advances the cursor.
func (w *Walker) F32() float32 { return math.Float32frombits(w.U32()) }

// F64 reads a big-endian IEEE-754 float64 and advances the cursor.
func (w *Walker) F64() float64 { return math.Float64frombits(w.U64()) }

// Bool reads one byte; nonzero decodes true.
func (w *Walker) Bool() bool { return w.needBytes(1)[0] != 0 }

// Char reads two bytes as (b0<<8)|b1.
func (w *Walker) Char() uint16 {
	b := w.needBytes(2)
	return uint16(b[0])<<8 | uint16(b[1])
}

// UTF reads a two-byte unsigned-big-endian length prefix, then that many
// bytes decoded as UTF-8.
func (w *Walker) UTF() string {
	n := int64(w.U16())
	if n == 0 {
		return ""
	}
	return string(w.needBytes(n))
}

// ReadLine reads bytes until '\n', '\r' (optionally consuming a following
// '\n'), or EOF, and returns them as a string. Terminators are never
// included.
func (w *Walker) ReadLine() string {
	var line []byte
	for w.HasCurrent() {
		c := w.GetByte()
		w.pos++
		if c == '\n' {
			return string(line)
		}
		if c == '\r' {
			if w.HasCurrent() && w.GetByte() == '\n' {
				w.pos++
			}
			return string(line)
		}
		line = append(line, c)
	}
	return string(line)
}

// SkipBytes advances as far as possible up to n, clamped at end+1, and
// returns the number of bytes actually skipped.
func (w *Walker) SkipBytes(n int64) int64 {
	if n < 0 {
		return 0
	}
	hi := w.buf.Offset() + w.buf.Length()
	avail := hi - w.pos
	if n > avail {
		n = avail
	}
	w.pos += n
	return n
}
