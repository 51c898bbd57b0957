// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package tree

// Flag values for an inner block's first payload byte.
const (
	FlagLeafRef  byte = 0x0
	FlagInnerRef byte = 0x1
	FlagOuter    byte = 0x2
)

// treeNode is the common write-side shape TreeOutputStream's stack holds:
// a leaf (index 0) or an inner node (index 1..k), each backed by a
// factory-supplied payload buffer.
type treeNode interface {
	hasSpace(n int) bool
	write(data []byte, expanded int64)
	clearData()
	isDataEmpty() bool
	expandedLength() int64
	// rawBuffer returns only the bytes actually written so far — a
	// block's capacity is buffer_size, but its serialized wire form is
	// header_size plus only the used payload, never padded out to
	// capacity.
	rawBuffer() []byte
}

// LeafNode holds raw user bytes written directly from the input stream.
type LeafNode struct {
	factory  BufferFactory
	payload  []byte
	written  int
	expanded int64
}

func newLeafNode(factory BufferFactory) *LeafNode {
	return &LeafNode{factory: factory, payload: factory.CreateBuffer()}
}

func (n *LeafNode) space() int { return len(n.payload) - n.written }

func (n *LeafNode) hasSpace(sz int) bool { return n.space() >= sz }

// write appends data (already trimmed to fit by the caller) to the leaf
// and advances expanded_length by the same amount (a leaf's expanded
// length is simply its written byte count).
func (n *LeafNode) write(data []byte, expanded int64) {
	copy(n.payload[n.written:], data)
	n.written += len(data)
	n.expanded += expanded
}

func (n *LeafNode) clearData() {
	n.factory.Free(n.payload)
	n.payload = n.factory.CreateBuffer()
	n.written = 0
	n.expanded = 0
}

func (n *LeafNode) isDataEmpty() bool { return n.written == 0 }

func (n *LeafNode) expandedLength() int64 { return n.expanded }

func (n *LeafNode) rawBuffer() []byte { return n.payload[:n.written] }

// InnerNode packs a one-byte type flag followed by fixed-size serialized
// child Positions.
type InnerNode struct {
	factory  BufferFactory
	payload  []byte
	flag     byte
	written  int // bytes written after the flag byte
	expanded int64
}

func newInnerNode(factory BufferFactory, flag byte) *InnerNode {
	n := &InnerNode{factory: factory, payload: factory.CreateBuffer(), flag: flag}
	n.payload[0] = flag
	return n
}

// newOuterNode is the small-object shortcut constructor: it absorbs a
// leaf's already-written bytes inline with flag OUTER, and frees the
// leaf's own storage since the leaf is no longer needed.
func newOuterNode(factory BufferFactory, leaf *LeafNode) *InnerNode {
	n := &InnerNode{factory: factory, payload: factory.CreateBuffer(), flag: FlagOuter}
	n.payload[0] = FlagOuter
	copy(n.payload[1:], leaf.rawBuffer())
	n.written = leaf.written
	n.expanded = leaf.expanded
	leaf.factory.Free(leaf.payload)
	return n
}

func (n *InnerNode) bodyCapacity() int { return len(n.payload) - 1 }

func (n *InnerNode) space() int { return n.bodyCapacity() - n.written }

func (n *InnerNode) hasSpace(sz int) bool { return n.space() >= sz }

func (n *InnerNode) write(data []byte, expanded int64) {
	copy(n.payload[1+n.written:], data)
	n.written += len(data)
	n.expanded += expanded
}

// clearData resets the node for reuse at the same stack depth, preserving
// its type flag.
func (n *InnerNode) clearData() {
	n.factory.Free(n.payload)
	n.payload = n.factory.CreateBuffer()
	n.payload[0] = n.flag
	n.written = 0
	n.expanded = 0
}

func (n *InnerNode) isDataEmpty() bool { return n.written == 0 }

func (n *InnerNode) expandedLength() int64 { return n.expanded }

func (n *InnerNode) rawBuffer() []byte { return n.payload[:1+n.written] }
