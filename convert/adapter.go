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

// Adapter maps a scalar Go type onto a leaf Arrow column.
//
// Any type with an Adapter can be a struct field, a sequence element or a
// union variant. Append and Read receive values of the Go type the adapter
// was registered for; dst in Read is always settable.
type Adapter interface {
	DataType() arrow.DataType
	NewBuilder(mem memory.Allocator) array.Builder
	Append(b array.Builder, v reflect.Value) error
	AppendNull(b array.Builder)
	Read(arr arrow.Array, i int, dst reflect.Value) error
}

// Validator is implemented by adapters that can tell up front whether
// Append accepts a value. Validate is called before any column of a row is
// touched, so a failing value leaves the builders unchanged. Adapters
// without a Validator have each value appended to a scratch builder first.
type Validator interface {
	Validate(v reflect.Value) error
}

// AdapterFunc returns the adapter for t given the options of the field
// that holds it. It is registered with Registry.RegisterAdapterFunc for
// types whose Arrow mapping depends on options (e.g. `unit=us`).
type AdapterFunc func(t reflect.Type, opts FieldOptions) (Adapter, error)

// TypedAdapter implements Adapter from functions over concrete types, so
// custom adapters need no reflection:
//
//	convert.RegisterAdapter[Celsius](convert.TypedAdapter[Celsius, *array.Float64Builder, *array.Float64]{
//		Type:       arrow.PrimitiveTypes.Float64,
//		AppendFunc: func(b *array.Float64Builder, v Celsius) error { b.Append(float64(v)); return nil },
//		ReadFunc:   func(a *array.Float64, i int) (Celsius, error) { return Celsius(a.Value(i)), nil },
//	})
//
// B must be the builder type created by array.NewBuilder for Type, and A the
// array type of Type. With a nil ValidateFunc every value is appended to a
// scratch builder before the row is committed; set ValidateFunc to
// Infallible when AppendFunc never fails.
type TypedAdapter[T any, B array.Builder, A arrow.Array] struct {
	Type         arrow.DataType
	AppendFunc   func(B, T) error
	ReadFunc     func(A, int) (T, error)
	ValidateFunc func(T) error
}

func (a TypedAdapter[T, B, A]) DataType() arrow.DataType { return a.Type }

func (a TypedAdapter[T, B, A]) NewBuilder(mem memory.Allocator) array.Builder {
	return array.NewBuilder(mem, a.Type)
}

func (a TypedAdapter[T, B, A]) Append(b array.Builder, v reflect.Value) error {
	bldr, ok := b.(B)
	if !ok {
		return fmt.Errorf("unexpected builder %T for %s", b, a.Type)
	}
	return a.AppendFunc(bldr, valueAs[T](v))
}

func (a TypedAdapter[T, B, A]) AppendNull(b array.Builder) { b.AppendNull() }

func (a TypedAdapter[T, B, A]) Read(arr arrow.Array, i int, dst reflect.Value) error {
	typed, ok := arr.(A)
	if !ok {
		return fmt.Errorf("unexpected array %T for %s", arr, a.Type)
	}
	x, err := a.ReadFunc(typed, i)
	if err != nil {
		return err
	}
	setValue(dst, x)
	return nil
}

func (a TypedAdapter[T, B, A]) Validate(v reflect.Value) error {
	if a.ValidateFunc == nil {
		return nil
	}
	return a.ValidateFunc(valueAs[T](v))
}

func (a TypedAdapter[T, B, A]) validates() bool { return a.ValidateFunc != nil }

// Infallible is a ValidateFunc for adapters whose AppendFunc never fails.
func Infallible[T any](T) error { return nil }

// validatesUpFront reports whether a rejects every value Append would
// reject in Validate.
func validatesUpFront(a Adapter) bool {
	if t, ok := a.(interface{ validates() bool }); ok {
		return t.validates()
	}
	_, ok := a.(Validator)
	return ok
}

func valueAs[T any](v reflect.Value) T {
	if x, ok := v.Interface().(T); ok {
		return x
	}
	return v.Convert(reflect.TypeFor[T]()).Interface().(T)
}

func setValue[T any](dst reflect.Value, x T) {
	rv := reflect.ValueOf(&x).Elem()
	if rv.Type() != dst.Type() {
		rv = rv.Convert(dst.Type())
	}
	dst.Set(rv)
}

// StaticAdapter returns an AdapterFunc that always yields a and rejects
// every type option.
func StaticAdapter(a Adapter) AdapterFunc {
	return func(t reflect.Type, opts FieldOptions) (Adapter, error) {
		if err := opts.Check(t); err != nil {
			return nil, err
		}
		return a, nil
	}
}
