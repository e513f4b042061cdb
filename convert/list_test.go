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
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/arrowconvert/arrow-convert-go/convert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListKinds(t *testing.T) {
	type row struct {
		Var   []int16
		Large []int16 `arrow:",large"`
		Fixed []int16 `arrow:",fixed=2"`
		Arr   [2]int16
		Words []string `arrow:",elem.large"`
	}

	dt, err := convert.DataTypeOf[row]()
	require.NoError(t, err)
	st := dt.(*arrow.StructType)
	item := arrow.Field{Name: "item", Type: arrow.PrimitiveTypes.Int16}
	assert.True(t, arrow.TypeEqual(arrow.ListOfField(item), st.Field(0).Type))
	assert.True(t, arrow.TypeEqual(arrow.LargeListOfField(item), st.Field(1).Type))
	assert.True(t, arrow.TypeEqual(arrow.FixedSizeListOfField(2, item), st.Field(2).Type))
	assert.True(t, arrow.TypeEqual(arrow.FixedSizeListOfField(2, item), st.Field(3).Type))
	assert.True(t, arrow.TypeEqual(arrow.ListOfField(arrow.Field{Name: "item", Type: arrow.BinaryTypes.LargeString}), st.Field(4).Type))

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rows := []row{
		{Var: []int16{1, 2, 3}, Large: []int16{4}, Fixed: []int16{5, 6}, Arr: [2]int16{7, 8}, Words: []string{"x"}},
		{Var: []int16{}, Large: []int16{}, Fixed: []int16{0, 0}, Words: []string{}},
	}
	arr, err := convert.Serialize(rows, convert.WithAllocator(mem))
	require.NoError(t, err)
	defer arr.Release()

	got, err := convert.Deserialize[row](arr)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestListNullOffsets(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rows := []*[]int32{{1, 2}, nil, {}, {3}}
	arr, err := convert.Serialize(rows, convert.WithAllocator(mem))
	require.NoError(t, err)
	defer arr.Release()

	list := arr.(*array.List)
	assert.Equal(t, []int32{0, 2, 2, 2, 3}, list.Offsets())
	assert.True(t, list.IsNull(1))
	assert.Equal(t, 3, list.ListValues().Len())

	got, err := convert.Deserialize[*[]int32](arr)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, []int32{1, 2}, *got[0])
	assert.Nil(t, got[1])
	assert.NotNil(t, *got[2])
	assert.Empty(t, *got[2])
	assert.Equal(t, []int32{3}, *got[3])
}

func TestFixedListNullPadsChild(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rows := []*[3]float64{{1, 2, 3}, nil, {4, 5, 6}}
	arr, err := convert.Serialize(rows, convert.WithAllocator(mem))
	require.NoError(t, err)
	defer arr.Release()

	fl := arr.(*array.FixedSizeList)
	values := fl.ListValues()
	assert.Equal(t, 9, values.Len())
	assert.Equal(t, 3, values.NullN())
	for i := 3; i < 6; i++ {
		assert.True(t, values.IsNull(i))
	}

	got, err := convert.Deserialize[*[3]float64](arr)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestNestedNullAlignment(t *testing.T) {
	type leaf struct {
		V *int64
		S string
	}
	type mid struct {
		Leaf  *leaf
		Items []leaf
	}
	type top struct {
		Mid   *mid
		Fixed [2]*leaf
	}

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b, err := convert.NewBuilder[*top](convert.WithAllocator(mem))
	require.NoError(t, err)
	defer b.Release()

	require.NoError(t, b.Append(&top{Mid: &mid{Leaf: &leaf{V: ptr[int64](1), S: "a"}, Items: []leaf{{S: "i"}}}}))
	require.NoError(t, b.Append(&top{Mid: &mid{Items: []leaf{}}, Fixed: [2]*leaf{nil, {S: "f"}}}))
	b.AppendNull()
	require.NoError(t, b.Append(&top{}))

	arr := b.NewArray()
	defer arr.Release()
	assertAligned(t, arr)

	got, err := convert.Deserialize[*top](arr)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, int64(1), *got[0].Mid.Leaf.V)
	assert.Equal(t, []leaf{{S: "i"}}, got[0].Mid.Items)
	assert.Nil(t, got[1].Mid.Leaf)
	assert.Equal(t, "f", got[1].Fixed[1].S)
	assert.Nil(t, got[2])
	assert.Nil(t, got[3].Mid)
}

// assertAligned checks that every struct child has the parent's length and
// every fixed size list child has size times the parent's length.
func assertAligned(t *testing.T, arr arrow.Array) {
	t.Helper()
	switch a := arr.(type) {
	case *array.Struct:
		for i := 0; i < a.NumField(); i++ {
			assert.Equal(t, a.Len(), a.Field(i).Len(), "field %d of %s", i, a.DataType())
			assertAligned(t, a.Field(i))
		}
	case *array.FixedSizeList:
		n := int(a.DataType().(*arrow.FixedSizeListType).Len())
		assert.Equal(t, n*a.Len(), a.ListValues().Len())
		assertAligned(t, a.ListValues())
	case array.ListLike:
		assertAligned(t, a.ListValues())
	}
}

func TestListOffsetsAfterCloned(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b, err := convert.NewBuilder[[]string](convert.WithAllocator(mem), convert.AsType("large"))
	require.NoError(t, err)
	defer b.Release()

	require.NoError(t, b.Append([]string{"a", "b"}))
	first := b.NewArrayCloned()
	defer first.Release()
	require.NoError(t, b.Append([]string{"c"}))
	second := b.NewArrayCloned()
	defer second.Release()
	require.NoError(t, b.Append(nil))
	all := b.NewArray()
	defer all.Release()

	assert.True(t, arrow.TypeEqual(arrow.LargeListOfField(arrow.Field{Name: "item", Type: arrow.BinaryTypes.String}), all.DataType()))
	assert.Equal(t, []int64{0, 2, 3, 3}, all.(*array.LargeList).Offsets())

	got, err := convert.Deserialize[[]string](all, convert.AsType("large"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}, {}}, got)

	b2, err := convert.Deserialize[[]string](second, convert.AsType("large"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, b2)
	assert.Equal(t, 0, b.Len())
}
