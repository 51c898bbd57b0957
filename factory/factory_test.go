// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package factory

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tayne3/spanbuf/lazy"
	"github.com/tayne3/spanbuf/reaper"
)

func newTestFactory(maxHeap, segmentSize int64) *Factory {
	return New(Config{MaxHeap: maxHeap, SegmentSize: segmentSize}, reaper.New(), lazy.NewCache(64))
}

func writeTempFile(t *testing.T, content []byte) *os.File {
	t.Helper()
	f, err := os.CreateTemp("", "spanbuf-factory-test-*")
	assert.NoError(t, err)
	t.Cleanup(func() { os.Remove(f.Name()) })
	_, err = f.Write(content)
	assert.NoError(t, err)
	_, err = f.Seek(0, 0)
	assert.NoError(t, err)
	return f
}

func TestWrapFileSmallerThanMaxHeapIsInMemory(t *testing.T) {
	content := []byte("small file contents")
	f := writeTempFile(t, content)
	defer f.Close()

	fac := newTestFactory(1024, 16)
	buf, err := fac.WrapFile(f)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), buf.Offset())
	assert.Equal(t, int64(len(content)), buf.Length())
	assert.Equal(t, string(content), buf.Text())
}

func TestWrapFileLargerThanMaxHeapIsSegmented(t *testing.T) {
	content := bytes.Repeat([]byte("0123456789"), 10) // 100 bytes
	f := writeTempFile(t, content)
	defer f.Close()

	fac := newTestFactory(16, 16)
	buf, err := fac.WrapFile(f)
	assert.NoError(t, err)
	assert.Equal(t, int64(len(content)), buf.Length())
	assert.Equal(t, string(content), buf.Text())
}

func TestAsMemMapForcesOffHeapLoaders(t *testing.T) {
	content := bytes.Repeat([]byte("mapme"), 20) // 100 bytes
	f := writeTempFile(t, content)
	defer f.Close()

	fac := newTestFactory(1024, 16)
	buf, err := fac.AsMemMap(f, 16)
	assert.NoError(t, err)
	assert.Equal(t, string(content), buf.Text())
}

func TestWrapFileSegmentedExactSegmentCount(t *testing.T) {
	content := bytes.Repeat([]byte("x"), 40)
	f := writeTempFile(t, content)
	defer f.Close()

	fac := newTestFactory(1024, 10)
	buf, err := fac.WrapFileSegmented(f, 10, false)
	assert.NoError(t, err)
	assert.Equal(t, string(content), buf.Text())
}

func TestWrapInputStreamStaysInMemoryBelowMaxHeap(t *testing.T) {
	fac := newTestFactory(1024, 16)
	buf, err := fac.WrapInputStream(bytes.NewReader([]byte("hello stream")))
	assert.NoError(t, err)
	assert.Equal(t, "hello stream", buf.Text())
}

func TestWrapInputStreamSpillsPastMaxHeap(t *testing.T) {
	content := bytes.Repeat([]byte("spill-me-"), 50) // 450 bytes
	fac := newTestFactory(32, 16)
	buf, err := fac.WrapInputStream(bytes.NewReader(content))
	assert.NoError(t, err)
	assert.Equal(t, string(content), buf.Text())
}

func TestWrapBytesAndWrapString(t *testing.T) {
	fac := newTestFactory(1024, 16)
	assert.Equal(t, "abc", fac.WrapBytes([]byte("abc")).Text())
	assert.Equal(t, "xyz", fac.WrapString("xyz").Text())
	assert.Equal(t, int64(5), fac.WrapStringAt(5, "abc").Offset())
}

func TestFactoryMergeConcatenatesInOrder(t *testing.T) {
	fac := newTestFactory(1024, 16)
	got := fac.Merge(fac.WrapString("foo"), fac.WrapString("bar"))
	assert.Equal(t, "foobar", got.Text())

	gotAt := fac.MergeAt(10, fac.WrapString("foo"), fac.WrapString("bar"))
	assert.Equal(t, int64(10), gotAt.Offset())
}

func TestDefaultConfigFillsZeroFields(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultMaxHeap, cfg.MaxHeap)
	assert.Equal(t, DefaultSegmentSize, cfg.SegmentSize)
}

func TestOutputStreamBufferSpillsOnce(t *testing.T) {
	osb := NewOutputStreamBuffer(8)
	n, err := osb.Write([]byte("abcdefgh"))
	assert.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.False(t, osb.Spilled())

	n, err = osb.Write([]byte("i"))
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, osb.Spilled())

	assert.NoError(t, osb.Close())
	f := osb.File()
	assert.NotNil(t, f)
	defer os.Remove(f.Name())
	defer f.Close()

	data, err := os.ReadFile(f.Name())
	assert.NoError(t, err)
	assert.Equal(t, "abcdefghi", string(data))
}

func TestOutputStreamBufferRejectsWriteAfterClose(t *testing.T) {
	osb := NewOutputStreamBuffer(64)
	assert.NoError(t, osb.Close())
	_, err := osb.Write([]byte("x"))
	assert.Error(t, err)
}
