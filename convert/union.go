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
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/arrowconvert/arrow-convert-go/internal/debug"
)

type unionVariant struct {
	name string
	typ  reflect.Type
	// base is typ with a pointer stripped; ptr records whether it was.
	base  reflect.Type
	ptr   bool
	unit  bool
	codec codec
}

// unionCodec maps a registered interface type onto a dense or sparse
// union. The type code of a variant is its position.
type unionCodec struct {
	t        reflect.Type
	dt       arrow.DataType
	mode     UnionMode
	variants []unionVariant
	byType   map[reflect.Type]int
}

func (c *unionCodec) goType() reflect.Type     { return c.t }
func (c *unionCodec) dataType() arrow.DataType { return c.dt }
func (c *unionCodec) nullable() bool           { return false }

func (c *unionCodec) newBuilder(mem memory.Allocator) builder {
	b := &unionBuilder{c: c, mem: mem, children: make([]builder, len(c.variants))}
	for i, v := range c.variants {
		b.children[i] = v.codec.newBuilder(mem)
	}
	return b
}

func (c *unionCodec) newReader(arr arrow.Array, pos int) reader {
	r := &unionReader{c: c, arr: arr.(array.Union), pos: pos, cursors: make([]variantCursor, len(c.variants))}
	if c.mode == Dense {
		r.dense = arr.(*array.DenseUnion)
	}
	return r
}

// unionBuilder records one type code per row. Dense unions append the
// value to the selected variant only and record its position there;
// sparse unions append a null to every other variant.
type unionBuilder struct {
	c        *unionCodec
	mem      memory.Allocator
	children []builder
	codes    []arrow.UnionTypeCode
	offsets  []int32
}

var trueValue = reflect.ValueOf(true)

func (b *unionBuilder) variantOf(v reflect.Value) (int, reflect.Value, error) {
	concrete := v.Elem()
	idx, ok := b.c.byType[concrete.Type()]
	if !ok {
		return 0, reflect.Value{}, schemaErrorf(b.c.t, "%s is not a declared variant", concrete.Type())
	}
	vr := &b.c.variants[idx]
	switch {
	case vr.unit:
		return idx, trueValue, nil
	case vr.ptr:
		if concrete.IsNil() {
			return 0, reflect.Value{}, schemaErrorf(b.c.t, "nil %s variant", concrete.Type())
		}
		return idx, concrete.Elem(), nil
	}
	return idx, concrete, nil
}

func (b *unionBuilder) validate(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	idx, payload, err := b.variantOf(v)
	if err != nil {
		return err
	}
	return b.children[idx].validate(payload)
}

func (b *unionBuilder) append(v reflect.Value) error {
	if v.IsNil() {
		b.appendNull()
		return nil
	}
	idx, payload, err := b.variantOf(v)
	if err != nil {
		return err
	}

	switch b.c.mode {
	case Dense:
		off := b.children[idx].len()
		if err := b.children[idx].append(payload); err != nil {
			return err
		}
		b.offsets = append(b.offsets, int32(off))
	default:
		if err := b.children[idx].append(payload); err != nil {
			return err
		}
		for j, child := range b.children {
			if j != idx {
				child.appendNull()
			}
		}
	}
	b.codes = append(b.codes, arrow.UnionTypeCode(idx))
	b.checkAligned()
	return nil
}

// appendNull selects the first variant and appends a null to it; sparse
// unions null every variant.
func (b *unionBuilder) appendNull() {
	switch b.c.mode {
	case Dense:
		b.offsets = append(b.offsets, int32(b.children[0].len()))
		b.children[0].appendNull()
	default:
		for _, child := range b.children {
			child.appendNull()
		}
	}
	b.codes = append(b.codes, 0)
	b.checkAligned()
}

func (b *unionBuilder) discard() {
	for _, child := range b.children {
		child.discard()
	}
}

func (b *unionBuilder) checkAligned() {
	if b.c.mode != Sparse {
		return
	}
	for i, child := range b.children {
		debug.AssertLen(b.c.variants[i].name, child.len(), len(b.codes))
	}
}

func (b *unionBuilder) len() int { return len(b.codes) }

func (b *unionBuilder) newArray() arrow.Array {
	children := make([]arrow.Array, len(b.children))
	for i, child := range b.children {
		children[i] = child.newArray()
	}
	arr := b.assemble(children)
	b.codes, b.offsets = b.codes[:0], b.offsets[:0]
	return arr
}

func (b *unionBuilder) newArrayCloned() arrow.Array {
	children := make([]arrow.Array, len(b.children))
	for i, child := range b.children {
		children[i] = child.newArrayCloned()
	}
	return b.assemble(children)
}

func (b *unionBuilder) assemble(children []arrow.Array) arrow.Array {
	childData := make([]arrow.ArrayData, len(children))
	for i, child := range children {
		childData[i] = child.Data()
		defer child.Release()
	}

	codes := newBufferFrom(b.mem, arrow.Int8Traits.CastToBytes(b.codes))
	defer codes.Release()
	buffers := []*memory.Buffer{nil, codes}
	if b.c.mode == Dense {
		offsets := newBufferFrom(b.mem, arrow.Int32Traits.CastToBytes(b.offsets))
		defer offsets.Release()
		buffers = append(buffers, offsets)
	}

	data := array.NewData(b.c.dt, len(b.codes), buffers, childData, 0, 0)
	defer data.Release()
	return array.MakeFromData(data)
}

func (b *unionBuilder) release() {
	for _, child := range b.children {
		child.release()
	}
	b.codes, b.offsets = nil, nil
}

// variantCursor is a reader over one variant column together with the
// row it will decode next.
type variantCursor struct {
	r  reader
	at int
}

// unionReader decodes each row from the selected variant column: at the
// row's offset for dense unions, at the row itself for sparse ones.
type unionReader struct {
	c       *unionCodec
	arr     array.Union
	dense   *array.DenseUnion
	pos     int
	cursors []variantCursor
}

func (r *unionReader) next(dst reflect.Value) (bool, error) {
	i := r.pos
	r.pos++

	child := r.arr.ChildID(i)
	off := i
	if r.dense != nil {
		off = int(r.dense.ValueOffset(i))
	}

	v := &r.c.variants[child]
	cur := &r.cursors[child]
	if cur.r == nil || cur.at != off {
		cur.r = v.codec.newReader(r.arr.Field(child), off)
	}
	cur.at = off + 1

	// A unit case is decided by its tag, except that a null placeholder
	// decodes as a nil interface so that null union rows round-trip.
	if v.unit {
		var selected bool
		ok, err := cur.r.next(reflect.ValueOf(&selected).Elem())
		if err != nil || !ok {
			dst.SetZero()
			return false, err
		}
		payload := reflect.New(v.base)
		if v.ptr {
			dst.Set(payload)
		} else {
			dst.Set(payload.Elem())
		}
		return true, nil
	}

	payload := reflect.New(v.base)
	ok, err := cur.r.next(payload.Elem())
	if err != nil || !ok {
		dst.SetZero()
		return false, err
	}
	if v.ptr {
		dst.Set(payload)
	} else {
		dst.Set(payload.Elem())
	}
	return true, nil
}
