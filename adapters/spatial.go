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

package adapters

import (
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/arrowconvert/arrow-convert-go/convert"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// scalarFieldName names the element field of vector columns.
const scalarFieldName = "scalar"

// vectorAdapter stores a fixed number of float64 components per value as
// a FixedSizeList of non-nullable Float64.
type vectorAdapter[T any] struct {
	dt  *arrow.FixedSizeListType
	n   int
	put func(T, []float64)
	get func([]float64) T
}

func newVectorAdapter[T any](n int, put func(T, []float64), get func([]float64) T) vectorAdapter[T] {
	elem := arrow.Field{Name: scalarFieldName, Type: arrow.PrimitiveTypes.Float64}
	return vectorAdapter[T]{
		dt:  arrow.FixedSizeListOfField(int32(n), elem),
		n:   n,
		put: put,
		get: get,
	}
}

// Vec2 returns the adapter for r2.Vec.
func Vec2() convert.Adapter {
	return newVectorAdapter(2,
		func(v r2.Vec, out []float64) { out[0], out[1] = v.X, v.Y },
		func(c []float64) r2.Vec { return r2.Vec{X: c[0], Y: c[1]} })
}

// Vec3 returns the adapter for r3.Vec.
func Vec3() convert.Adapter {
	return newVectorAdapter(3,
		func(v r3.Vec, out []float64) { out[0], out[1], out[2] = v.X, v.Y, v.Z },
		func(c []float64) r3.Vec { return r3.Vec{X: c[0], Y: c[1], Z: c[2]} })
}

// Quat returns the adapter for quat.Number, stored as real, i, j, k.
func Quat() convert.Adapter {
	return newVectorAdapter(4,
		func(q quat.Number, out []float64) { out[0], out[1], out[2], out[3] = q.Real, q.Imag, q.Jmag, q.Kmag },
		func(c []float64) quat.Number { return quat.Number{Real: c[0], Imag: c[1], Jmag: c[2], Kmag: c[3]} })
}

func (a vectorAdapter[T]) DataType() arrow.DataType { return a.dt }

func (a vectorAdapter[T]) NewBuilder(mem memory.Allocator) array.Builder {
	return array.NewBuilder(mem, a.dt)
}

func (a vectorAdapter[T]) Validate(v reflect.Value) error {
	if _, ok := v.Interface().(T); !ok {
		return fmt.Errorf("cannot encode %s as %s", v.Type(), a.dt)
	}
	return nil
}

func (a vectorAdapter[T]) Append(b array.Builder, v reflect.Value) error {
	lb := b.(*array.FixedSizeListBuilder)
	x, ok := v.Interface().(T)
	if !ok {
		return fmt.Errorf("cannot encode %s as %s", v.Type(), a.dt)
	}
	comps := make([]float64, a.n)
	a.put(x, comps)
	lb.Append(true)
	lb.ValueBuilder().(*array.Float64Builder).AppendValues(comps, nil)
	return nil
}

// AppendNull keeps n child slots per row.
func (a vectorAdapter[T]) AppendNull(b array.Builder) {
	lb := b.(*array.FixedSizeListBuilder)
	vb := lb.ValueBuilder()
	want := vb.Len() + a.n
	lb.AppendNull()
	for vb.Len() < want {
		vb.AppendNull()
	}
}

func (a vectorAdapter[T]) Read(arr arrow.Array, i int, dst reflect.Value) error {
	fl := arr.(*array.FixedSizeList)
	start, end := fl.ValueOffsets(i)
	if int(end-start) != a.n {
		return fmt.Errorf("row %d holds %d components, want %d", i, end-start, a.n)
	}
	comps := fl.ListValues().(*array.Float64).Float64Values()[start:end]
	dst.Set(reflect.ValueOf(a.get(comps)))
	return nil
}
