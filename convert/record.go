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

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// RecordItemName names the single column of records built by
// SerializeRecord.
const RecordItemName = "record_batch_item"

// SchemaOf returns the schema of a record whose columns are the fields of
// struct type T, as produced by FlattenRecord.
func SchemaOf[T any](opts ...Option) (*arrow.Schema, error) {
	dt, err := DataTypeOf[T](opts...)
	if err != nil {
		return nil, err
	}
	st, ok := dt.(*arrow.StructType)
	if !ok {
		return nil, fmt.Errorf("arrow/convert: %w: schema of non struct type %s", arrow.ErrInvalid, dt)
	}
	return arrow.NewSchema(st.Fields(), nil), nil
}

// SerializeRecord encodes items into a record with a single column named
// RecordItemName.
func SerializeRecord[T any](items []T, opts ...Option) (arrow.Record, error) {
	f, err := FieldOf[T](RecordItemName, opts...)
	if err != nil {
		return nil, err
	}
	arr, err := Serialize(items, opts...)
	if err != nil {
		return nil, err
	}
	defer arr.Release()

	schema := arrow.NewSchema([]arrow.Field{f}, nil)
	return array.NewRecord(schema, []arrow.Array{arr}, int64(arr.Len())), nil
}

// DeserializeRecord decodes the single column of rec.
func DeserializeRecord[T any](rec arrow.Record, opts ...Option) ([]T, error) {
	if rec.NumCols() != 1 {
		return nil, fmt.Errorf("arrow/convert: %w: record has %d columns, want 1", arrow.ErrInvalid, rec.NumCols())
	}
	return Deserialize[T](rec.Column(0), opts...)
}

// FlattenRecord turns a record whose only column is a struct into a record
// with one column per struct field. Struct level nulls cannot be
// represented in the result and are rejected.
func FlattenRecord(rec arrow.Record) (arrow.Record, error) {
	if rec.NumCols() != 1 {
		return nil, fmt.Errorf("arrow/convert: %w: record has %d columns, want 1", arrow.ErrInvalid, rec.NumCols())
	}
	sa, ok := rec.Column(0).(*array.Struct)
	if !ok {
		return nil, fmt.Errorf("arrow/convert: %w: column %q is %s, not a struct", arrow.ErrInvalid, rec.ColumnName(0), rec.Column(0).DataType())
	}
	if sa.NullN() > 0 {
		return nil, fmt.Errorf("arrow/convert: %w: column %q has %d null rows", arrow.ErrInvalid, rec.ColumnName(0), sa.NullN())
	}
	return array.RecordFromStructArray(sa, nil), nil
}
