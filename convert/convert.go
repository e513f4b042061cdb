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
)

// Builder appends Go values of type T to an Arrow array.
//
// Append is atomic per row: a value that cannot be encoded returns an
// error and leaves every column as it was.
type Builder[T any] struct {
	c codec
	b builder
}

// NewBuilder derives the Arrow type of T and returns an empty builder.
func NewBuilder[T any](opts ...Option) (*Builder[T], error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	c, err := cfg.reg.codecFor(reflect.TypeFor[T](), cfg.root)
	if err != nil {
		return nil, err
	}
	return &Builder[T]{c: c, b: c.newBuilder(cfg.mem)}, nil
}

// DataType returns the Arrow type of the built arrays.
func (b *Builder[T]) DataType() arrow.DataType { return b.c.dataType() }

// Field returns a field named name describing the built arrays.
func (b *Builder[T]) Field(name string) arrow.Field {
	return fieldOf(name, b.c, arrow.Metadata{})
}

// Append appends v as one row.
func (b *Builder[T]) Append(v T) error {
	rv := reflect.ValueOf(&v).Elem()
	if err := b.b.validate(rv); err != nil {
		b.b.discard()
		return err
	}
	return b.b.append(rv)
}

// AppendValues appends every value of vs, stopping at the first one that
// fails. The rows before it are kept.
func (b *Builder[T]) AppendValues(vs []T) error {
	for i := range vs {
		if err := b.Append(vs[i]); err != nil {
			return fmt.Errorf("row %d: %w", b.Len(), err)
		}
	}
	return nil
}

// AppendNull appends a null row.
func (b *Builder[T]) AppendNull() { b.b.appendNull() }

// Len returns the number of rows appended so far.
func (b *Builder[T]) Len() int { return b.b.len() }

// NewArray returns the built array and resets the builder. The caller owns
// the array and must Release it.
func (b *Builder[T]) NewArray() arrow.Array { return b.b.newArray() }

// NewArrayCloned returns an array of the rows appended so far and keeps
// the builder usable: later calls return those rows again followed by the
// new ones.
func (b *Builder[T]) NewArrayCloned() arrow.Array { return b.b.newArrayCloned() }

// Release frees the builder's pending buffers.
func (b *Builder[T]) Release() { b.b.release() }

// Serialize encodes items into a new array. Nothing is returned if any item
// fails to encode.
func Serialize[T any](items []T, opts ...Option) (arrow.Array, error) {
	b, err := NewBuilder[T](opts...)
	if err != nil {
		return nil, err
	}
	defer b.Release()

	if err := b.AppendValues(items); err != nil {
		return nil, err
	}
	return b.NewArray(), nil
}

// Iterator decodes the rows of an array one at a time.
//
//	it, err := convert.NewIterator[Row](arr)
//	if err != nil {
//		return err
//	}
//	defer it.Release()
//	for it.Next() {
//		row := it.Value()
//		...
//	}
//	return it.Err()
type Iterator[T any] struct {
	arr arrow.Array
	r   reader
	pos int
	cur T
	err error
}

// NewIterator checks that arr has the Arrow type derived for T and returns
// an iterator over its rows. The iterator retains arr until Release.
func NewIterator[T any](arr arrow.Array, opts ...Option) (*Iterator[T], error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	c, err := cfg.reg.codecFor(reflect.TypeFor[T](), cfg.root)
	if err != nil {
		return nil, err
	}
	if err := checkType(c, arr); err != nil {
		return nil, err
	}

	arr.Retain()
	return &Iterator[T]{arr: arr, r: c.newReader(arr, 0)}, nil
}

// Next decodes the next row. It returns false at the end of the array or
// when decoding fails; Err tells them apart.
func (it *Iterator[T]) Next() bool {
	if it.err != nil || it.arr == nil || it.pos >= it.arr.Len() {
		return false
	}
	var v T
	_, err := it.r.next(reflect.ValueOf(&v).Elem())
	it.pos++
	if err != nil {
		it.err = fmt.Errorf("row %d: %w", it.pos-1, err)
		return false
	}
	it.cur = v
	return true
}

// Value returns the row decoded by the last call to Next. Null rows decode
// to the zero value of T.
func (it *Iterator[T]) Value() T { return it.cur }

// Err returns the decoding error that stopped the iteration, if any.
func (it *Iterator[T]) Err() error { return it.err }

// Len returns the number of rows of the array.
func (it *Iterator[T]) Len() int {
	if it.arr == nil {
		return 0
	}
	return it.arr.Len()
}

// Release releases the array. The iterator returns no rows afterwards.
func (it *Iterator[T]) Release() {
	if it.arr != nil {
		it.arr.Release()
		it.arr = nil
	}
}

// Deserialize decodes every row of arr.
func Deserialize[T any](arr arrow.Array, opts ...Option) ([]T, error) {
	it, err := NewIterator[T](arr, opts...)
	if err != nil {
		return nil, err
	}
	defer it.Release()

	out := make([]T, 0, arr.Len())
	for it.Next() {
		out = append(out, it.Value())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DataTypeOf returns the Arrow type derived for T.
func DataTypeOf[T any](opts ...Option) (arrow.DataType, error) {
	f, err := FieldOf[T]("", opts...)
	return f.Type, err
}

// FieldOf returns a field named name for values of type T. The field is
// nullable when T is a pointer.
func FieldOf[T any](name string, opts ...Option) (arrow.Field, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return arrow.Field{}, err
	}
	c, err := cfg.reg.codecFor(reflect.TypeFor[T](), cfg.root)
	if err != nil {
		return arrow.Field{}, err
	}
	return fieldOf(name, c, arrow.Metadata{}), nil
}

func checkType(c codec, arr arrow.Array) error {
	actualNullable := arr.NullN() > 0
	if !arrow.TypeEqual(c.dataType(), arr.DataType(), arrow.CheckMetadata()) || (actualNullable && !c.nullable()) {
		return &MismatchError{
			Expected:         c.dataType(),
			ExpectedNullable: c.nullable(),
			Actual:           arr.DataType(),
			ActualNullable:   actualNullable,
		}
	}
	return nil
}
