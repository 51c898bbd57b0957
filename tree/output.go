// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package tree

// TreeOutputStream is a byte-stream writer that serializes its input as a
// balanced tree of fixed-size blocks over a (TreeSerializer, BufferFactory)
// pair. Write may be called any number of times; Close finalizes the root
// Position, after which Position may be read and no further writes are
// permitted.
type TreeOutputStream[P Position] struct {
	serializer TreeSerializer[P]
	factory    BufferFactory
	// stack[0] is the current leaf; stack[1:] are inner nodes at
	// increasing depths, index 1 always holding children with flag
	// LEAF_REF and index >= 2 holding children with flag INNER_REF.
	stack        []treeNode
	totalWritten int64
	closed       bool
	root         P
}

// NewTreeOutputStream constructs a writer over factory, committing blocks
// through serializer. factory.BufferSize() must be at least
// 1+2*serializer.PositionSize(), room enough for a flag byte plus two
// child pointers in the smallest inner block.
func NewTreeOutputStream[P Position](serializer TreeSerializer[P], factory BufferFactory) (*TreeOutputStream[P], error) {
	minSize := int64(1 + 2*serializer.PositionSize())
	if factory.BufferSize() < minSize {
		return nil, serdeError("buffer_size %d too small for 2 child pointers (need >= %d)", factory.BufferSize(), minSize)
	}
	t := &TreeOutputStream[P]{serializer: serializer, factory: factory}
	t.stack = []treeNode{newLeafNode(factory), newInnerNode(factory, FlagLeafRef)}
	return t, nil
}

// Write appends data to the stream, flushing full leaves (and ascending
// through full inner nodes) as necessary.
func (t *TreeOutputStream[P]) Write(data []byte) (int, error) {
	if t.closed {
		return 0, serdeError("write after close")
	}
	total := len(data)
	for len(data) > 0 {
		leaf := t.stack[0].(*LeafNode)
		if leaf.space() == 0 {
			if err := t.flushLeaf(leaf); err != nil {
				return total - len(data), err
			}
		}
		n := len(data)
		if avail := leaf.space(); n > avail {
			n = avail
		}
		leaf.write(data[:n], int64(n))
		data = data[n:]
		t.totalWritten += int64(n)
	}
	return total, nil
}

func (t *TreeOutputStream[P]) flushLeaf(leaf *LeafNode) error {
	p, err := t.serializer.Serialize(leaf.rawBuffer())
	if err != nil {
		return err
	}
	pb, err := t.serializer.SerializePosition(p)
	if err != nil {
		return err
	}
	if err := t.writeNode(pb, 1, leaf.expandedLength()); err != nil {
		return err
	}
	leaf.clearData()
	return nil
}

// writeNode recursively ascends the stack: it appends a serialized child
// position into stack[idx], first flushing (and recursively ascending)
// stack[idx] if it has no room, and pushing a new INNER_REF node onto the
// stack if idx reaches a depth never used before.
func (t *TreeOutputStream[P]) writeNode(data []byte, idx int, expanded int64) error {
	if idx >= len(t.stack) {
		t.stack = append(t.stack, newInnerNode(t.factory, FlagInnerRef))
	}
	node := t.stack[idx].(*InnerNode)
	if !node.hasSpace(len(data)) {
		p, err := t.serializer.Serialize(node.rawBuffer())
		if err != nil {
			return err
		}
		pb, err := t.serializer.SerializePosition(p)
		if err != nil {
			return err
		}
		if err := t.writeNode(pb, idx+1, node.expandedLength()); err != nil {
			return err
		}
		node.clearData()
	}
	node.write(data, expanded)
	return nil
}

// Close finalizes the root Position. Calling Close more than once is a
// no-op; Write after Close returns an error.
func (t *TreeOutputStream[P]) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	leaf := t.stack[0].(*LeafNode)

	if t.totalWritten == 0 {
		t.root = t.serializer.NoDataPosition()
		t.release()
		return nil
	}

	inner1 := t.stack[1].(*InnerNode)
	if len(t.stack) == 2 && inner1.isDataEmpty() && leaf.written <= inner1.bodyCapacity() {
		outer := newOuterNode(t.factory, leaf)
		p, err := t.serializer.Serialize(outer.rawBuffer())
		if err != nil {
			return err
		}
		t.root = p
		t.factory.Free(outer.payload)
		t.stack = t.stack[:0]
		return nil
	}

	// writeNode may push a new top level while flushing, so the bound is
	// re-read on every pass.
	for idx := 0; idx < len(t.stack)-1; idx++ {
		node := t.stack[idx]
		p, err := t.serializer.Serialize(node.rawBuffer())
		if err != nil {
			return err
		}
		pb, err := t.serializer.SerializePosition(p)
		if err != nil {
			return err
		}
		if err := t.writeNode(pb, idx+1, node.expandedLength()); err != nil {
			return err
		}
	}
	top := t.stack[len(t.stack)-1]
	p, err := t.serializer.Serialize(top.rawBuffer())
	if err != nil {
		return err
	}
	t.root = p
	t.release()
	return nil
}

func (t *TreeOutputStream[P]) release() {
	for _, n := range t.stack {
		switch v := n.(type) {
		case *LeafNode:
			t.factory.Free(v.payload)
		case *InnerNode:
			t.factory.Free(v.payload)
		}
	}
	t.stack = t.stack[:0]
}

// Position returns the finalized root Position. Calling it before Close
// is an IllegalState.
func (t *TreeOutputStream[P]) Position() P {
	if !t.closed {
		panicIllegalState("tree.TreeOutputStream.Position called before Close")
	}
	return t.root
}
