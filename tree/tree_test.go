// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tayne3/spanbuf/lazy"
)

func writeAll(t *testing.T, serde *MemSerde, data []byte) memPosition {
	t.Helper()
	out, err := NewTreeOutputStream[memPosition](serde, serde)
	assert.NoError(t, err)
	n, err := out.Write(data)
	assert.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.NoError(t, out.Close())
	return out.Position()
}

func TestEmptyInputYieldsNoDataRoot(t *testing.T) {
	serde := NewMemSerde(10, 0, lazy.NewCache(64))
	pos := writeAll(t, serde, nil)
	assert.True(t, pos.IsNoData())

	buf := LoadBuffer[memPosition](pos, serde, lazy.NewCache(64))
	assert.Equal(t, int64(0), buf.Length())
}

func TestOuterShortcutForSmallInput(t *testing.T) {
	serde := NewMemSerde(10, 0, lazy.NewCache(64))
	pos := writeAll(t, serde, []byte("Now"))
	assert.False(t, pos.IsNoData())

	block, err := serde.Deserialize(pos)
	assert.NoError(t, err)
	assert.Equal(t, FlagOuter, block[0])
	assert.Equal(t, "Now", string(block[1:]))

	buf := LoadBuffer[memPosition](pos, serde, lazy.NewCache(64))
	assert.Equal(t, "Now", buf.Text())
}

func TestLongBalancedTreeScenario(t *testing.T) {
	const input = "Now is the time for all good men to come to the aid of their country"
	serde := NewMemSerde(10, 0, lazy.NewCache(64))
	pos := writeAll(t, serde, []byte(input))
	assert.False(t, pos.IsNoData())

	// 14 blocks in total, root is the last one written (id 14).
	assert.Equal(t, 14, len(serde.store))
	assert.Equal(t, uint32(14), pos.id)

	want := map[uint32]string{
		1: "Now is the", 2: " time for ", 3: "all good m",
		5: "en to come", 6: " to the ai",
		8: "d of their", 9: " country",
	}
	for id, text := range want {
		block := serde.store[id]
		assert.Equal(t, text, string(block), "block %d", id)
	}

	leafRefInner := []uint32{4, 7, 10, 12}
	for _, id := range leafRefInner {
		block := serde.store[id]
		assert.Equal(t, FlagLeafRef, block[0], "block %d flag", id)
	}
	innerRefInner := []uint32{11, 13, 14}
	for _, id := range innerRefInner {
		block := serde.store[id]
		assert.Equal(t, FlagInnerRef, block[0], "block %d flag", id)
	}

	buf := LoadBuffer[memPosition](pos, serde, lazy.NewCache(64))
	assert.Equal(t, int64(len(input)), buf.Length())
	assert.Equal(t, input, buf.Text())
}

func TestHeaderSizeGreaterThanZeroRoundTrips(t *testing.T) {
	const input = "a block-store header region is opaque to the tree layer"
	serde := NewMemSerde(12, 2, lazy.NewCache(64))
	pos := writeAll(t, serde, []byte(input))
	assert.False(t, pos.IsNoData())

	buf := LoadBuffer[memPosition](pos, serde, lazy.NewCache(64))
	assert.Equal(t, input, buf.Text())
}

func TestRoundTripArbitrarySizesAcrossBlockBoundaries(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 23, 97, 500} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte('a' + i%26)
		}
		serde := NewMemSerde(10, 0, lazy.NewCache(256))
		pos := writeAll(t, serde, data)
		buf := LoadBuffer[memPosition](pos, serde, lazy.NewCache(256))
		assert.Equal(t, int64(n), buf.Length(), "n=%d", n)
		assert.Equal(t, string(data), buf.Text(), "n=%d", n)
	}
}

func TestWriteAfterCloseErrors(t *testing.T) {
	serde := NewMemSerde(10, 0, lazy.NewCache(64))
	out, err := NewTreeOutputStream[memPosition](serde, serde)
	assert.NoError(t, err)
	assert.NoError(t, out.Close())
	_, err = out.Write([]byte("x"))
	assert.Error(t, err)
}

func TestPositionBeforeClosePanics(t *testing.T) {
	serde := NewMemSerde(10, 0, lazy.NewCache(64))
	out, err := NewTreeOutputStream[memPosition](serde, serde)
	assert.NoError(t, err)
	assert.Panics(t, func() { out.Position() })
}

func TestNewTreeOutputStreamRejectsUndersizedBuffer(t *testing.T) {
	serde := NewMemSerde(4, 0, lazy.NewCache(64))
	_, err := NewTreeOutputStream[memPosition](serde, serde)
	assert.Error(t, err)
}
