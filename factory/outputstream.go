// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package factory

import (
	"bytes"
	"fmt"
	"os"
)

// OutputStreamBuffer is a write-only byte sink: it spools writes into
// memory until the accumulated size exceeds maxHeap, then spills to a
// temporary file and continues appending there. Factory.WrapInputStream
// reads the result back out as a Buffer once writing finishes.
type OutputStreamBuffer struct {
	maxHeap int64
	mem     bytes.Buffer
	file    *os.File
	spilled bool
	closed  bool
}

// NewOutputStreamBuffer returns a sink that spills past maxHeap bytes.
func NewOutputStreamBuffer(maxHeap int64) *OutputStreamBuffer {
	return &OutputStreamBuffer{maxHeap: maxHeap}
}

// Write appends p, spilling to a temp file the moment the in-memory total
// would exceed maxHeap.
func (o *OutputStreamBuffer) Write(p []byte) (int, error) {
	if o.closed {
		return 0, fmt.Errorf("factory: write to closed OutputStreamBuffer")
	}
	if !o.spilled {
		if int64(o.mem.Len()+len(p)) <= o.maxHeap {
			return o.mem.Write(p)
		}
		if err := o.spill(); err != nil {
			return 0, err
		}
	}
	return o.file.Write(p)
}

func (o *OutputStreamBuffer) spill() error {
	f, err := os.CreateTemp("", "spanbuf-osb-*")
	if err != nil {
		return fmt.Errorf("factory: create spill file: %w", err)
	}
	if o.mem.Len() > 0 {
		if _, err := f.Write(o.mem.Bytes()); err != nil {
			f.Close()
			os.Remove(f.Name())
			return fmt.Errorf("factory: spill memory to file: %w", err)
		}
	}
	o.file = f
	o.spilled = true
	o.mem.Reset()
	return nil
}

// Close finalizes the sink. It does not close the spilled file's
// descriptor — the caller still needs to read it back via File() — but
// forbids further writes.
func (o *OutputStreamBuffer) Close() error {
	o.closed = true
	return nil
}

// Spilled reports whether writes crossed maxHeap and moved to a file.
func (o *OutputStreamBuffer) Spilled() bool { return o.spilled }

// Bytes returns the in-memory contents. Valid only when !Spilled().
func (o *OutputStreamBuffer) Bytes() []byte { return o.mem.Bytes() }

// File returns the spill file. Valid only when Spilled(); the caller is
// responsible for eventually removing it. Factory.WrapInputStream passes
// it to WrapFileSegmented with deleteAfterUse set, which has the resource
// reaper close the file; the file is not removed from disk.
func (o *OutputStreamBuffer) File() *os.File { return o.file }
