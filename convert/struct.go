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

type structField struct {
	name  string
	index int
	codec codec
}

type structCodec struct {
	t      reflect.Type
	dt     *arrow.StructType
	fields []structField
}

func (c *structCodec) goType() reflect.Type     { return c.t }
func (c *structCodec) dataType() arrow.DataType { return c.dt }
func (c *structCodec) nullable() bool           { return false }

func (c *structCodec) newBuilder(mem memory.Allocator) builder {
	b := &structBuilder{c: c, mem: mem, children: make([]builder, len(c.fields))}
	for i, f := range c.fields {
		b.children[i] = f.codec.newBuilder(mem)
	}
	return b
}

func (c *structCodec) newReader(arr arrow.Array, pos int) reader {
	sa := arr.(*array.Struct)
	r := &structReader{c: c, arr: sa, pos: pos, children: make([]reader, len(c.fields))}
	for i, f := range c.fields {
		r.children[i] = f.codec.newReader(sa.Field(i), pos)
	}
	return r
}

// structBuilder keeps one child per field. Every push, valid or null,
// appends exactly one row to every child.
type structBuilder struct {
	c        *structCodec
	mem      memory.Allocator
	children []builder
	valid    validityTrack
}

func (b *structBuilder) validate(v reflect.Value) error {
	for i, f := range b.c.fields {
		if err := b.children[i].validate(v.Field(f.index)); err != nil {
			return err
		}
	}
	return nil
}

func (b *structBuilder) append(v reflect.Value) error {
	for i, f := range b.c.fields {
		if err := b.children[i].append(v.Field(f.index)); err != nil {
			return err
		}
	}
	b.valid.append(true)
	b.checkAligned()
	return nil
}

func (b *structBuilder) discard() {
	for _, child := range b.children {
		child.discard()
	}
}

func (b *structBuilder) appendNull() {
	for _, child := range b.children {
		child.appendNull()
	}
	b.valid.append(false)
	b.checkAligned()
}

func (b *structBuilder) checkAligned() {
	for i, child := range b.children {
		debug.AssertLen(b.c.fields[i].name, child.len(), b.valid.n)
	}
}

func (b *structBuilder) len() int { return b.valid.n }

func (b *structBuilder) newArray() arrow.Array {
	children := make([]arrow.Array, len(b.children))
	for i, child := range b.children {
		children[i] = child.newArray()
	}
	arr := b.assemble(children)
	b.valid.reset()
	return arr
}

func (b *structBuilder) newArrayCloned() arrow.Array {
	children := make([]arrow.Array, len(b.children))
	for i, child := range b.children {
		children[i] = child.newArrayCloned()
	}
	return b.assemble(children)
}

func (b *structBuilder) assemble(children []arrow.Array) arrow.Array {
	childData := make([]arrow.ArrayData, len(children))
	for i, child := range children {
		childData[i] = child.Data()
		defer child.Release()
	}

	validity := b.valid.buffer(b.mem)
	if validity != nil {
		defer validity.Release()
	}
	data := array.NewData(b.c.dt, b.valid.n, []*memory.Buffer{validity}, childData, b.valid.nulls, 0)
	defer data.Release()
	return array.MakeFromData(data)
}

func (b *structBuilder) release() {
	for _, child := range b.children {
		child.release()
	}
	b.valid.reset()
}

// structReader advances every child once per row, whatever the row's
// validity, so that the children stay on the same row.
type structReader struct {
	c        *structCodec
	arr      *array.Struct
	pos      int
	children []reader
}

func (r *structReader) next(dst reflect.Value) (bool, error) {
	i := r.pos
	r.pos++
	for k, f := range r.c.fields {
		if _, err := r.children[k].next(dst.Field(f.index)); err != nil {
			return false, err
		}
	}
	if r.arr.IsNull(i) {
		dst.SetZero()
		return false, nil
	}
	return true, nil
}

// transparentCodec encodes a single field struct as its field's column.
type transparentCodec struct {
	t     reflect.Type
	index int
	inner codec
}

func (c *transparentCodec) goType() reflect.Type     { return c.t }
func (c *transparentCodec) dataType() arrow.DataType { return c.inner.dataType() }
func (c *transparentCodec) nullable() bool           { return c.inner.nullable() }

func (c *transparentCodec) newBuilder(mem memory.Allocator) builder {
	return transparentBuilder{builder: c.inner.newBuilder(mem), index: c.index}
}

func (c *transparentCodec) newReader(arr arrow.Array, pos int) reader {
	return transparentReader{r: c.inner.newReader(arr, pos), index: c.index}
}

type transparentBuilder struct {
	builder
	index int
}

func (b transparentBuilder) validate(v reflect.Value) error {
	return b.builder.validate(v.Field(b.index))
}

func (b transparentBuilder) append(v reflect.Value) error {
	return b.builder.append(v.Field(b.index))
}

type transparentReader struct {
	r     reader
	index int
}

func (r transparentReader) next(dst reflect.Value) (bool, error) {
	return r.r.next(dst.Field(r.index))
}
