// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package convert

import (
	"fmt"
	"math"
	"reflect"

	"github.com/JohnCGriffin/overflow"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

type listKind int8

const (
	listVariable listKind = iota
	listLarge
	listFixed
)

// listCodec maps Go slices and arrays onto List, LargeList and
// FixedSizeList columns. All elements of all rows share one child column.
type listCodec struct {
	t    reflect.Type
	dt   arrow.DataType
	kind listKind
	size int
	elem codec
}

func (c *listCodec) goType() reflect.Type     { return c.t }
func (c *listCodec) dataType() arrow.DataType { return c.dt }
func (c *listCodec) nullable() bool           { return false }

func (c *listCodec) newBuilder(mem memory.Allocator) builder {
	b := &listBuilder{c: c, mem: mem, child: c.elem.newBuilder(mem)}
	if c.kind != listFixed {
		b.offsets = []int64{0}
	}
	return b
}

func (c *listCodec) newReader(arr arrow.Array, pos int) reader {
	la := arr.(array.ListLike)
	return &listReader{c: c, arr: la, values: la.ListValues(), pos: pos, cursor: -1}
}

type listBuilder struct {
	c       *listCodec
	mem     memory.Allocator
	child   builder
	offsets []int64
	valid   validityTrack

	// pending counts the elements validated for the current row but not
	// yet appended, so nested lists of one row share the offset budget.
	pending int64
}

func (b *listBuilder) checkLen(v reflect.Value) error {
	n := v.Len()
	switch b.c.kind {
	case listFixed:
		if n != b.c.size {
			return schemaErrorf(b.c.t, "sequence of %d elements does not match fixed size %d", n, b.c.size)
		}
	case listVariable:
		end := b.offsets[len(b.offsets)-1] + b.pending
		if _, ok := overflow.Add32(int32(end), int32(n)); !ok || n > math.MaxInt32 {
			return &AdapterError{Type: b.c.dt, Err: fmt.Errorf("%d elements overflow 32-bit list offsets, use large", end+int64(n))}
		}
		b.pending += int64(n)
	}
	return nil
}

func (b *listBuilder) validate(v reflect.Value) error {
	if err := b.checkLen(v); err != nil {
		return err
	}
	for i := 0; i < v.Len(); i++ {
		if err := b.child.validate(v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (b *listBuilder) append(v reflect.Value) error {
	n := v.Len()
	for i := 0; i < n; i++ {
		if err := b.child.append(v.Index(i)); err != nil {
			return err
		}
	}
	if b.c.kind == listVariable {
		b.pending -= int64(n)
	}
	if b.c.kind != listFixed {
		b.offsets = append(b.offsets, b.offsets[len(b.offsets)-1]+int64(n))
	}
	b.valid.append(true)
	return nil
}

func (b *listBuilder) discard() {
	b.pending = 0
	b.child.discard()
}

// appendNull records an empty slot for variable lists. Fixed size lists
// own size child slots per row whatever the validity, so size nulls are
// pushed to the child.
func (b *listBuilder) appendNull() {
	if b.c.kind == listFixed {
		for i := 0; i < b.c.size; i++ {
			b.child.appendNull()
		}
	} else {
		b.offsets = append(b.offsets, b.offsets[len(b.offsets)-1])
	}
	b.valid.append(false)
}

func (b *listBuilder) len() int { return b.valid.n }

func (b *listBuilder) newArray() arrow.Array {
	arr := b.assemble(b.child.newArray())
	b.valid.reset()
	if b.offsets != nil {
		b.offsets = b.offsets[:1]
	}
	return arr
}

// newArrayCloned keeps the offsets; they stay valid because the child
// keeps its rows as well.
func (b *listBuilder) newArrayCloned() arrow.Array {
	return b.assemble(b.child.newArrayCloned())
}

func (b *listBuilder) assemble(values arrow.Array) arrow.Array {
	defer values.Release()

	buffers := []*memory.Buffer{b.valid.buffer(b.mem)}
	switch b.c.kind {
	case listVariable:
		offs := make([]int32, len(b.offsets))
		for i, o := range b.offsets {
			offs[i] = int32(o)
		}
		buffers = append(buffers, newBufferFrom(b.mem, arrow.Int32Traits.CastToBytes(offs)))
	case listLarge:
		buffers = append(buffers, newBufferFrom(b.mem, arrow.Int64Traits.CastToBytes(b.offsets)))
	}
	for _, buf := range buffers {
		if buf != nil {
			defer buf.Release()
		}
	}

	data := array.NewData(b.c.dt, b.valid.n, buffers, []arrow.ArrayData{values.Data()}, b.valid.nulls, 0)
	defer data.Release()
	return array.MakeFromData(data)
}

func (b *listBuilder) release() {
	b.child.release()
	b.valid.reset()
	b.pending = 0
}

// listReader walks the offsets of a list column and pulls each row's
// elements from a reader over the shared child column. The child reader
// is repositioned whenever a row does not start where the previous one
// ended (after null slots or on sliced arrays).
type listReader struct {
	c      *listCodec
	arr    array.ListLike
	values arrow.Array
	pos    int

	child  reader
	cursor int64
}

func (r *listReader) next(dst reflect.Value) (bool, error) {
	i := r.pos
	r.pos++
	if r.arr.IsNull(i) {
		dst.SetZero()
		return false, nil
	}

	start, end := r.arr.ValueOffsets(i)
	if r.child == nil || r.cursor != start {
		r.child = r.c.elem.newReader(r.values, int(start))
	}
	r.cursor = end

	n := int(end - start)
	inPlace := r.c.t.Kind() == reflect.Array
	seq := dst
	if inPlace {
		if n != seq.Len() {
			return false, schemaErrorf(r.c.t, "row %d holds %d elements", i, n)
		}
	} else {
		seq = reflect.MakeSlice(r.c.t, n, n)
	}
	for k := 0; k < n; k++ {
		if _, err := r.child.next(seq.Index(k)); err != nil {
			return false, err
		}
	}
	if !inPlace {
		dst.Set(seq)
	}
	return true, nil
}
