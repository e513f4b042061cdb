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

package adapters_test

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/extensions"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/arrowconvert/arrow-convert-go/adapters"
	"github.com/arrowconvert/arrow-convert-go/convert"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestUUIDRoundTrip(t *testing.T) {
	type row struct {
		ID     uuid.UUID
		Parent *uuid.UUID
	}

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	parent := uuid.MustParse("8c607ed4-07b2-4b9c-b5eb-c0387357f9ae")
	rows := []row{{ID: uuid.New(), Parent: &parent}, {ID: uuid.Nil}}
	arr, err := convert.Serialize(rows, convert.WithAllocator(mem))
	require.NoError(t, err)
	defer arr.Release()

	st := arr.DataType().(*arrow.StructType)
	assert.True(t, arrow.TypeEqual(extensions.NewUUIDType(), st.Field(0).Type))
	assert.True(t, st.Field(1).Nullable)

	ids := arr.(*array.Struct).Field(0).(*extensions.UUIDArray)
	assert.Equal(t, rows[0].ID, ids.Value(0))

	got, err := convert.Deserialize[row](arr)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestUUIDRejectsOptions(t *testing.T) {
	type row struct {
		ID uuid.UUID `arrow:",large"`
	}
	_, err := convert.DataTypeOf[row]()
	var se *convert.SchemaError
	assert.ErrorAs(t, err, &se)
}

func TestDecimalDefaultType(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	values := []decimal.Decimal{
		decimal.RequireFromString("1.5"),
		decimal.RequireFromString("-123456.0123456789"),
		decimal.Zero,
	}
	arr, err := convert.Serialize(values, convert.WithAllocator(mem))
	require.NoError(t, err)
	defer arr.Release()
	assert.True(t, arrow.TypeEqual(&arrow.Decimal128Type{Precision: 38, Scale: 10}, arr.DataType()))

	got, err := convert.Deserialize[decimal.Decimal](arr)
	require.NoError(t, err)
	require.Len(t, got, len(values))
	for i := range values {
		assert.True(t, values[i].Equal(got[i]), "%s != %s", values[i], got[i])
	}
}

func TestDecimalOptions(t *testing.T) {
	type price struct {
		Amount decimal.Decimal `arrow:",precision=6,scale=2"`
	}

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b, err := convert.NewBuilder[price](convert.WithAllocator(mem))
	require.NoError(t, err)
	defer b.Release()
	assert.True(t, arrow.TypeEqual(&arrow.Decimal128Type{Precision: 6, Scale: 2}, b.DataType().(*arrow.StructType).Field(0).Type))

	require.NoError(t, b.Append(price{Amount: decimal.RequireFromString("1234.567")}))
	require.NoError(t, b.Append(price{Amount: decimal.RequireFromString("-0.019")}))

	err = b.Append(price{Amount: decimal.RequireFromString("12345.6")})
	var ae *convert.AdapterError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 2, b.Len())

	arr := b.NewArray()
	defer arr.Release()
	got, err := convert.Deserialize[price](arr)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1234.56").Equal(got[0].Amount), got[0].Amount.String())
	assert.True(t, decimal.RequireFromString("-0.01").Equal(got[1].Amount), got[1].Amount.String())

	type bad struct {
		Amount decimal.Decimal `arrow:",precision=40"`
	}
	_, err = convert.DataTypeOf[bad]()
	var se *convert.SchemaError
	assert.ErrorAs(t, err, &se)
}

type payload struct {
	Kind  string         `json:"kind"`
	Attrs map[string]int `json:"attrs,omitempty"`
}

func TestJSONDocuments(t *testing.T) {
	type event struct {
		ID    int64
		Body  payload
		Extra map[string]any `arrow:",large"`
	}

	reg := convert.NewRegistry()
	adapters.RegisterJSON[payload](reg)
	adapters.RegisterJSON[map[string]any](reg)

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rows := []event{
		{ID: 1, Body: payload{Kind: "a", Attrs: map[string]int{"x": 1}}, Extra: map[string]any{"ok": true}},
		{ID: 2, Body: payload{Kind: "b"}},
	}
	arr, err := convert.Serialize(rows, convert.WithAllocator(mem), convert.WithRegistry(reg))
	require.NoError(t, err)
	defer arr.Release()

	st := arr.DataType().(*arrow.StructType)
	body, err := extensions.NewJSONType(arrow.BinaryTypes.String)
	require.NoError(t, err)
	assert.True(t, arrow.TypeEqual(body, st.Field(1).Type))
	extra, err := extensions.NewJSONType(arrow.BinaryTypes.LargeString)
	require.NoError(t, err)
	assert.True(t, arrow.TypeEqual(extra, st.Field(2).Type))

	docs := arr.(*array.Struct).Field(1).(*extensions.JSONArray)
	assert.JSONEq(t, `{"kind":"a","attrs":{"x":1}}`, docs.Storage().(*array.String).Value(0))

	got, err := convert.Deserialize[event](arr, convert.WithRegistry(reg))
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	_, err = convert.DataTypeOf[event]()
	assert.Error(t, err, "maps need a registered adapter")
}

func TestJSONMarshalFailureIsAtomic(t *testing.T) {
	type row struct {
		N   int32
		Doc map[string]any
	}

	reg := convert.NewRegistry()
	adapters.RegisterJSON[map[string]any](reg)

	b, err := convert.NewBuilder[row](convert.WithRegistry(reg))
	require.NoError(t, err)
	defer b.Release()

	err = b.Append(row{N: 1, Doc: map[string]any{"f": math.Inf(1)}})
	var ae *convert.AdapterError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 0, b.Len())
}

func TestSpatialTypes(t *testing.T) {
	type pose struct {
		Position r3.Vec
		Heading  quat.Number
		Screen   *r2.Vec
		Bounds   r2.Box
	}

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rows := []pose{
		{
			Position: r3.Vec{X: 1, Y: 2, Z: 3},
			Heading:  quat.Number{Real: 1},
			Screen:   &r2.Vec{X: 640, Y: 480},
			Bounds:   r2.Box{Min: r2.Vec{X: -1, Y: -1}, Max: r2.Vec{X: 1, Y: 1}},
		},
		{Position: r3.Vec{Z: -9}, Heading: quat.Number{Imag: 0.5, Jmag: 0.5, Kmag: 0.5, Real: 0.5}},
	}
	arr, err := convert.Serialize(rows, convert.WithAllocator(mem))
	require.NoError(t, err)
	defer arr.Release()

	st := arr.DataType().(*arrow.StructType)
	scalar := arrow.Field{Name: "scalar", Type: arrow.PrimitiveTypes.Float64}
	assert.True(t, arrow.TypeEqual(arrow.FixedSizeListOfField(3, scalar), st.Field(0).Type))
	assert.True(t, arrow.TypeEqual(arrow.FixedSizeListOfField(4, scalar), st.Field(1).Type))
	assert.True(t, st.Field(2).Nullable)

	screen := arr.(*array.Struct).Field(2).(*array.FixedSizeList)
	assert.True(t, screen.IsNull(1))
	assert.Equal(t, 4, screen.ListValues().Len())

	got, err := convert.Deserialize[pose](arr)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}
