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

package convert_test

import (
	"reflect"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/arrowconvert/arrow-convert-go/convert"
	"github.com/arrowconvert/arrow-convert-go/convert/naming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signal interface{ isSignal() }

type (
	red    struct{}
	yellow struct{}
	green  struct{}
)

func (red) isSignal()    {}
func (yellow) isSignal() {}
func (green) isSignal()  {}

type event interface{ isEvent() }

type (
	moved struct {
		X int32
		Y string
	}
	started struct{}
	stopped struct{}
	renamed struct {
		Name string
	}
)

func (moved) isEvent()    {}
func (started) isEvent()  {}
func (stopped) isEvent()  {}
func (*renamed) isEvent() {}

func signalRegistry(t *testing.T, mode convert.UnionMode) *convert.Registry {
	reg := convert.NewRegistry()
	require.NoError(t, reg.RegisterUnion(reflect.TypeFor[signal](), convert.UnionDef{
		Mode: mode,
		Variants: []convert.VariantDef{
			convert.UnitVariant[red](),
			convert.UnitVariant[yellow](),
			convert.UnitVariant[green](),
		},
	}))
	return reg
}

func eventRegistry(t *testing.T, mode convert.UnionMode) *convert.Registry {
	reg := convert.NewRegistry()
	require.NoError(t, reg.RegisterUnion(reflect.TypeFor[event](), convert.UnionDef{
		Mode:      mode,
		RenameAll: naming.Snake,
		Variants: []convert.VariantDef{
			convert.Variant[moved](),
			convert.UnitVariant[started](),
			convert.UnitVariant[stopped]("halt"),
			convert.Variant[*renamed](),
		},
	}))
	return reg
}

func TestDenseUnitVariants(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	reg := signalRegistry(t, convert.Dense)
	rows := []signal{red{}, yellow{}, green{}}
	arr, err := convert.Serialize(rows, convert.WithAllocator(mem), convert.WithRegistry(reg))
	require.NoError(t, err)
	defer arr.Release()

	du := arr.(*array.DenseUnion)
	assert.Equal(t, []arrow.UnionTypeCode{0, 1, 2}, du.RawTypeCodes())
	assert.Equal(t, []int32{0, 0, 0}, du.RawValueOffsets())
	for i := 0; i < du.NumFields(); i++ {
		assert.Equal(t, 1, du.Field(i).Len())
		assert.True(t, arrow.TypeEqual(arrow.FixedWidthTypes.Boolean, du.Field(i).DataType()))
	}
	assert.NoError(t, du.ValidateFull())

	ut := du.DataType().(*arrow.DenseUnionType)
	assert.Equal(t, "red", ut.Fields()[0].Name)
	assert.Equal(t, "green", ut.Fields()[2].Name)
	assert.True(t, ut.Fields()[0].Nullable)

	got, err := convert.Deserialize[signal](arr, convert.WithRegistry(reg))
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestSparseMixedVariants(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	reg := eventRegistry(t, convert.Sparse)
	rows := []event{started{}, moved{X: 4, Y: "north"}, stopped{}}
	arr, err := convert.Serialize(rows, convert.WithAllocator(mem), convert.WithRegistry(reg))
	require.NoError(t, err)
	defer arr.Release()

	su := arr.(*array.SparseUnion)
	assert.Equal(t, []arrow.UnionTypeCode{1, 0, 2}, su.RawTypeCodes())
	for i := 0; i < su.NumFields(); i++ {
		assert.Equal(t, 3, su.Field(i).Len(), "variant %d", i)
	}
	assert.NoError(t, su.ValidateFull())

	mv := su.Field(0).(*array.Struct)
	assert.True(t, mv.IsNull(0))
	assert.True(t, mv.IsValid(1))
	assert.True(t, mv.IsNull(2))
	assert.Equal(t, 3, mv.Field(0).Len())
	assert.Equal(t, 3, mv.Field(1).Len())

	st := su.Field(1)
	assert.True(t, st.IsValid(0))
	assert.True(t, st.IsNull(1))
	assert.True(t, st.IsNull(2))

	ut := su.DataType().(*arrow.SparseUnionType)
	var names []string
	for _, f := range ut.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"moved", "started", "halt", "renamed"}, names)

	got, err := convert.Deserialize[event](arr, convert.WithRegistry(reg))
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestUnionNullsAndPointers(t *testing.T) {
	for _, mode := range []convert.UnionMode{convert.Dense, convert.Sparse} {
		t.Run(mode.String(), func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			reg := eventRegistry(t, mode)
			rows := []event{
				&renamed{Name: "a"},
				nil,
				moved{X: 1},
				&renamed{Name: "b"},
				stopped{},
				nil,
			}
			arr, err := convert.Serialize(rows, convert.WithAllocator(mem), convert.WithRegistry(reg))
			require.NoError(t, err)
			defer arr.Release()
			assert.Equal(t, 6, arr.Len())
			assert.NoError(t, arr.(array.Union).ValidateFull())

			got, err := convert.Deserialize[event](arr, convert.WithRegistry(reg))
			require.NoError(t, err)
			assert.Equal(t, rows, got)

			sl := array.NewSlice(arr, 2, 5)
			defer sl.Release()
			part, err := convert.Deserialize[event](sl, convert.WithRegistry(reg))
			require.NoError(t, err)
			assert.Equal(t, rows[2:5], part)
		})
	}
}

func TestDenseOffsetsStayInBounds(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	reg := eventRegistry(t, convert.Dense)
	b, err := convert.NewBuilder[event](convert.WithAllocator(mem), convert.WithRegistry(reg))
	require.NoError(t, err)
	defer b.Release()

	for i := 0; i < 50; i++ {
		switch i % 4 {
		case 0:
			require.NoError(t, b.Append(moved{X: int32(i)}))
		case 1:
			require.NoError(t, b.Append(started{}))
		case 2:
			b.AppendNull()
		default:
			require.NoError(t, b.Append(&renamed{Name: "r"}))
		}
	}

	arr := b.NewArray()
	defer arr.Release()
	du := arr.(*array.DenseUnion)

	total := 0
	for i := 0; i < du.NumFields(); i++ {
		total += du.Field(i).Len()
	}
	assert.Equal(t, du.Len(), total)
	for i := 0; i < du.Len(); i++ {
		child := du.Field(du.ChildID(i))
		assert.Less(t, int(du.ValueOffset(i)), child.Len())
	}
}

func TestUnionRejectsUndeclaredVariant(t *testing.T) {
	type other struct{ moved }

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	reg := eventRegistry(t, convert.Dense)
	b, err := convert.NewBuilder[event](convert.WithAllocator(mem), convert.WithRegistry(reg))
	require.NoError(t, err)
	defer b.Release()

	var se *convert.SchemaError
	assert.ErrorAs(t, b.Append(other{}), &se)
	assert.ErrorAs(t, b.Append((*renamed)(nil)), &se)
	assert.Equal(t, 0, b.Len())
}

func TestUnionNestedInStruct(t *testing.T) {
	type envelope struct {
		ID     int64
		Events []event
		Last   event
	}

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	reg := eventRegistry(t, convert.Dense)
	rows := []envelope{
		{ID: 1, Events: []event{started{}, moved{X: 2, Y: "e"}}, Last: stopped{}},
		{ID: 2, Events: []event{}, Last: nil},
		{ID: 3, Events: []event{&renamed{Name: "z"}, nil}, Last: moved{}},
	}
	arr, err := convert.Serialize(rows, convert.WithAllocator(mem), convert.WithRegistry(reg))
	require.NoError(t, err)
	defer arr.Release()

	got, err := convert.Deserialize[envelope](arr, convert.WithRegistry(reg))
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestUnionDerivationErrors(t *testing.T) {
	type notUnit struct{ A int32 }

	tests := []struct {
		name string
		def  convert.UnionDef
	}{
		{"no mode", convert.UnionDef{Variants: []convert.VariantDef{convert.UnitVariant[started]()}}},
		{"no variants", convert.UnionDef{Mode: convert.Dense}},
		{"unit with fields", convert.UnionDef{Mode: convert.Dense, Variants: []convert.VariantDef{convert.UnitVariant[moved]()}}},
		{"not implementing", convert.UnionDef{Mode: convert.Sparse, Variants: []convert.VariantDef{convert.Variant[notUnit]()}}},
		{"duplicate type", convert.UnionDef{Mode: convert.Dense, Variants: []convert.VariantDef{convert.Variant[moved](), convert.Variant[moved]("again")}}},
		{"duplicate name", convert.UnionDef{Mode: convert.Dense, Variants: []convert.VariantDef{convert.Variant[moved](), convert.UnitVariant[started]("moved")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := convert.NewRegistry()
			require.NoError(t, reg.RegisterUnion(reflect.TypeFor[event](), tt.def))
			_, err := convert.DataTypeOf[event](convert.WithRegistry(reg))
			var se *convert.SchemaError
			assert.ErrorAs(t, err, &se)
		})
	}

	reg := convert.NewRegistry()
	assert.Error(t, reg.RegisterUnion(reflect.TypeFor[moved](), convert.UnionDef{Mode: convert.Dense}))
}

func TestUnionTypeMismatch(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	arr, err := convert.Serialize([]signal{red{}}, convert.WithAllocator(mem), convert.WithRegistry(signalRegistry(t, convert.Dense)))
	require.NoError(t, err)
	defer arr.Release()

	_, err = convert.Deserialize[signal](arr, convert.WithRegistry(signalRegistry(t, convert.Sparse)))
	var me *convert.MismatchError
	assert.ErrorAs(t, err, &me)
}
