// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package factory implements the Buffer factory: the single entry point
// that decides, per source, whether a Buffer is built fully in memory or
// as a BufferList over lazy segments.
//
// It composes spanbuf, spanbuf/lazy, and spanbuf/reaper — a separate
// package from the root spanbuf so that root never has to import the
// packages that in turn import it back (spanbuf/lazy depends on
// spanbuf.Buffer/spanbuf.Base).
package factory

// Config is explicit, caller-supplied configuration in place of mutable
// globals: MaxHeap bounds how large a source may be before Factory falls
// back to lazy segments; SegmentSize is the chunk size used for those
// segments.
type Config struct {
	MaxHeap     int64
	SegmentSize int64
}

// Default MaxHeap/SegmentSize values.
const (
	DefaultMaxHeap     int64 = 32 * 1024 * 1024
	DefaultSegmentSize int64 = 4 * 1024 * 1024
)

// DefaultConfig returns the package's default Config.
func DefaultConfig() Config {
	return Config{MaxHeap: DefaultMaxHeap, SegmentSize: DefaultSegmentSize}
}

func (c Config) withDefaults() Config {
	if c.MaxHeap <= 0 {
		c.MaxHeap = DefaultMaxHeap
	}
	if c.SegmentSize <= 0 {
		c.SegmentSize = DefaultSegmentSize
	}
	return c
}
