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
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// codec is the derived plan for one Go type: its Arrow type plus factories
// for the builder and reader nodes that move values of that type in and
// out of a column. Codecs are immutable and shared through the Registry.
type codec interface {
	goType() reflect.Type
	dataType() arrow.DataType
	nullable() bool
	newBuilder(mem memory.Allocator) builder
	// newReader returns a reader whose first row is row pos of arr. arr
	// must have the codec's data type.
	newReader(arr arrow.Array, pos int) reader
}

// builder is a mutable, append-only column node. A row is appended by
// calling validate and then append with the same value; validate never
// touches the columns, so a rejected row leaves every column untouched.
// A row that fails validation is dropped with discard.
type builder interface {
	validate(v reflect.Value) error
	append(v reflect.Value) error
	discard()
	appendNull()
	len() int
	// newArray returns the accumulated column and resets the builder.
	newArray() arrow.Array
	// newArrayCloned returns the accumulated column and keeps appending
	// after it.
	newArrayCloned() arrow.Array
	release()
}

// reader decodes consecutive rows of a column. next decodes one row into
// dst and reports whether it was valid. A null row leaves dst zeroed.
type reader interface {
	next(dst reflect.Value) (bool, error)
}

func fieldOf(name string, c codec, md arrow.Metadata) arrow.Field {
	return arrow.Field{Name: name, Type: c.dataType(), Nullable: c.nullable(), Metadata: md}
}

type leafCodec struct {
	t reflect.Type
	a Adapter
}

func (c *leafCodec) goType() reflect.Type     { return c.t }
func (c *leafCodec) dataType() arrow.DataType { return c.a.DataType() }
func (c *leafCodec) nullable() bool           { return false }

func (c *leafCodec) newBuilder(mem memory.Allocator) builder {
	return &leafBuilder{a: c.a, mem: mem, b: c.a.NewBuilder(mem), checked: validatesUpFront(c.a)}
}

func (c *leafCodec) newReader(arr arrow.Array, pos int) reader {
	return &leafReader{a: c.a, arr: arr, pos: pos}
}

// scratchRows bounds the rows a scratch builder holds before it is emptied.
const scratchRows = 1024

type leafBuilder struct {
	a   Adapter
	mem memory.Allocator
	b   array.Builder

	// checked is set when the adapter's Validate covers every Append
	// failure. Otherwise values are tried on scratch first.
	checked bool
	scratch array.Builder

	// done holds the rows already handed out by newArrayCloned.
	done arrow.Array
}

func (b *leafBuilder) validate(v reflect.Value) error {
	var err error
	if b.checked {
		err = b.a.(Validator).Validate(v)
	} else {
		err = b.dryRun(v)
	}
	if err != nil {
		return &AdapterError{Type: b.a.DataType(), Err: err}
	}
	return nil
}

func (b *leafBuilder) dryRun(v reflect.Value) error {
	if b.scratch == nil {
		b.scratch = b.a.NewBuilder(b.mem)
	}
	err := b.a.Append(b.scratch, v)
	if b.scratch.Len() >= scratchRows {
		b.scratch.NewArray().Release()
	}
	return err
}

func (b *leafBuilder) append(v reflect.Value) error {
	if err := b.a.Append(b.b, v); err != nil {
		return &AdapterError{Type: b.a.DataType(), Err: err}
	}
	return nil
}

func (b *leafBuilder) appendNull() { b.a.AppendNull(b.b) }

func (b *leafBuilder) discard() {}

func (b *leafBuilder) len() int {
	if b.done != nil {
		return b.done.Len() + b.b.Len()
	}
	return b.b.Len()
}

func (b *leafBuilder) newArray() arrow.Array {
	cur := b.b.NewArray()
	if b.done == nil {
		return cur
	}
	defer cur.Release()
	prev := b.done
	b.done = nil
	defer prev.Release()

	out, err := array.Concatenate([]arrow.Array{prev, cur}, b.mem)
	if err != nil {
		panic(fmt.Errorf("arrow/convert: concatenating %s column: %w", b.a.DataType(), err))
	}
	return out
}

func (b *leafBuilder) newArrayCloned() arrow.Array {
	arr := b.newArray()
	arr.Retain()
	b.done = arr
	return arr
}

func (b *leafBuilder) release() {
	b.b.Release()
	if b.scratch != nil {
		b.scratch.Release()
		b.scratch = nil
	}
	if b.done != nil {
		b.done.Release()
		b.done = nil
	}
}

type leafReader struct {
	a   Adapter
	arr arrow.Array
	pos int
}

func (r *leafReader) next(dst reflect.Value) (bool, error) {
	i := r.pos
	r.pos++
	if r.arr.IsNull(i) {
		dst.SetZero()
		return false, nil
	}
	if err := r.a.Read(r.arr, i, dst); err != nil {
		return false, &AdapterError{Type: r.a.DataType(), Err: err}
	}
	return true, nil
}

// optionalCodec maps *T onto T's column with nullable set. A nil pointer
// is a null row. **T collapses into a single null level.
type optionalCodec struct {
	t    reflect.Type
	elem codec
}

func (c *optionalCodec) goType() reflect.Type     { return c.t }
func (c *optionalCodec) dataType() arrow.DataType { return c.elem.dataType() }
func (c *optionalCodec) nullable() bool           { return true }

func (c *optionalCodec) newBuilder(mem memory.Allocator) builder {
	return optionalBuilder{c.elem.newBuilder(mem)}
}

func (c *optionalCodec) newReader(arr arrow.Array, pos int) reader {
	return &optionalReader{elem: c.t.Elem(), r: c.elem.newReader(arr, pos)}
}

type optionalBuilder struct {
	builder
}

func (b optionalBuilder) validate(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return b.builder.validate(v.Elem())
}

func (b optionalBuilder) append(v reflect.Value) error {
	if v.IsNil() {
		b.builder.appendNull()
		return nil
	}
	return b.builder.append(v.Elem())
}

type optionalReader struct {
	elem reflect.Type
	r    reader
}

func (r *optionalReader) next(dst reflect.Value) (bool, error) {
	p := reflect.New(r.elem)
	ok, err := r.r.next(p.Elem())
	if err != nil || !ok {
		dst.SetZero()
		return false, err
	}
	dst.Set(p)
	return true, nil
}
