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
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/float16"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/exp/constraints"
)

type appender[T any] interface {
	array.Builder
	Append(T)
}

type valuer[T any] interface {
	arrow.Array
	Value(int) T
}

type numeric interface {
	constraints.Integer | constraints.Float
}

// numericAdapter encodes any Go integer or float kind, including named
// types, into the Arrow primitive whose native Go type is T.
type numericAdapter[T numeric] struct {
	dt arrow.DataType
}

func (a numericAdapter[T]) DataType() arrow.DataType { return a.dt }

func (a numericAdapter[T]) NewBuilder(mem memory.Allocator) array.Builder {
	return array.NewBuilder(mem, a.dt)
}

func (a numericAdapter[T]) Validate(v reflect.Value) error {
	if !v.CanInt() && !v.CanUint() && !v.CanFloat() {
		return fmt.Errorf("cannot encode %s as %s", v.Type(), a.dt)
	}
	return nil
}

func (a numericAdapter[T]) Append(b array.Builder, v reflect.Value) error {
	var x T
	switch {
	case v.CanInt():
		x = T(v.Int())
	case v.CanUint():
		x = T(v.Uint())
	case v.CanFloat():
		x = T(v.Float())
	default:
		return fmt.Errorf("cannot encode %s as %s", v.Type(), a.dt)
	}
	b.(appender[T]).Append(x)
	return nil
}

func (numericAdapter[T]) AppendNull(b array.Builder) { b.AppendNull() }

func (a numericAdapter[T]) Read(arr arrow.Array, i int, dst reflect.Value) error {
	x := arr.(valuer[T]).Value(i)
	switch {
	case dst.CanInt():
		dst.SetInt(int64(x))
	case dst.CanUint():
		dst.SetUint(uint64(x))
	case dst.CanFloat():
		dst.SetFloat(float64(x))
	default:
		return fmt.Errorf("cannot decode %s into %s", a.dt, dst.Type())
	}
	return nil
}

type boolAdapter struct{}

func (boolAdapter) DataType() arrow.DataType { return arrow.FixedWidthTypes.Boolean }

func (boolAdapter) NewBuilder(mem memory.Allocator) array.Builder {
	return array.NewBooleanBuilder(mem)
}

func (boolAdapter) Validate(reflect.Value) error { return nil }

func (boolAdapter) Append(b array.Builder, v reflect.Value) error {
	b.(*array.BooleanBuilder).Append(v.Bool())
	return nil
}

func (boolAdapter) AppendNull(b array.Builder) { b.AppendNull() }

func (boolAdapter) Read(arr arrow.Array, i int, dst reflect.Value) error {
	dst.SetBool(arr.(*array.Boolean).Value(i))
	return nil
}

// stringAdapter handles both String and LargeString, whose builders and
// arrays share the same method set.
type stringAdapter struct {
	dt arrow.DataType
}

func (a stringAdapter) DataType() arrow.DataType { return a.dt }

func (a stringAdapter) NewBuilder(mem memory.Allocator) array.Builder {
	return array.NewBuilder(mem, a.dt)
}

func (stringAdapter) Validate(reflect.Value) error { return nil }

func (stringAdapter) Append(b array.Builder, v reflect.Value) error {
	b.(appender[string]).Append(v.String())
	return nil
}

func (stringAdapter) AppendNull(b array.Builder) { b.AppendNull() }

func (stringAdapter) Read(arr arrow.Array, i int, dst reflect.Value) error {
	dst.SetString(strings.Clone(arr.(valuer[string]).Value(i)))
	return nil
}

// binaryAdapter handles Binary and LargeBinary.
type binaryAdapter struct {
	dt arrow.DataType
}

func (a binaryAdapter) DataType() arrow.DataType { return a.dt }

func (a binaryAdapter) NewBuilder(mem memory.Allocator) array.Builder {
	return array.NewBinaryBuilder(mem, a.dt.(arrow.BinaryDataType))
}

func (binaryAdapter) Validate(reflect.Value) error { return nil }

func (binaryAdapter) Append(b array.Builder, v reflect.Value) error {
	b.(*array.BinaryBuilder).Append(v.Bytes())
	return nil
}

func (binaryAdapter) AppendNull(b array.Builder) { b.AppendNull() }

func (binaryAdapter) Read(arr arrow.Array, i int, dst reflect.Value) error {
	dst.SetBytes(append([]byte{}, arr.(valuer[[]byte]).Value(i)...))
	return nil
}

// fixedBinaryAdapter encodes []byte, [N]byte and zero padded strings as
// FixedSizeBinary(width).
type fixedBinaryAdapter struct {
	dt   *arrow.FixedSizeBinaryType
	kind reflect.Kind
}

func newFixedBinaryAdapter(width int, kind reflect.Kind) fixedBinaryAdapter {
	return fixedBinaryAdapter{dt: &arrow.FixedSizeBinaryType{ByteWidth: width}, kind: kind}
}

func (a fixedBinaryAdapter) DataType() arrow.DataType { return a.dt }

func (a fixedBinaryAdapter) NewBuilder(mem memory.Allocator) array.Builder {
	return array.NewFixedSizeBinaryBuilder(mem, a.dt)
}

func (a fixedBinaryAdapter) Validate(v reflect.Value) error {
	switch a.kind {
	case reflect.String:
		if v.Len() > a.dt.ByteWidth {
			return fmt.Errorf("string of %d bytes exceeds fixed width %d", v.Len(), a.dt.ByteWidth)
		}
	case reflect.Slice:
		if v.Len() != a.dt.ByteWidth {
			return fmt.Errorf("%d bytes do not match fixed width %d", v.Len(), a.dt.ByteWidth)
		}
	}
	return nil
}

func (a fixedBinaryAdapter) Append(b array.Builder, v reflect.Value) error {
	if err := a.Validate(v); err != nil {
		return err
	}
	buf := make([]byte, a.dt.ByteWidth)
	switch a.kind {
	case reflect.String:
		copy(buf, v.String())
	default:
		reflect.Copy(reflect.ValueOf(buf), v)
	}
	b.(*array.FixedSizeBinaryBuilder).Append(buf)
	return nil
}

func (fixedBinaryAdapter) AppendNull(b array.Builder) { b.AppendNull() }

func (a fixedBinaryAdapter) Read(arr arrow.Array, i int, dst reflect.Value) error {
	raw := arr.(*array.FixedSizeBinary).Value(i)
	switch a.kind {
	case reflect.String:
		dst.SetString(string(bytes.TrimRight(raw, "\x00")))
	case reflect.Slice:
		dst.SetBytes(bytes.Clone(raw))
	default:
		reflect.Copy(dst, reflect.ValueOf(raw))
	}
	return nil
}

func float16Adapter() Adapter {
	return TypedAdapter[float16.Num, *array.Float16Builder, *array.Float16]{
		Type: arrow.FixedWidthTypes.Float16,
		AppendFunc: func(b *array.Float16Builder, v float16.Num) error {
			b.Append(v)
			return nil
		},
		ReadFunc: func(a *array.Float16, i int) (float16.Num, error) {
			return a.Value(i), nil
		},
		ValidateFunc: Infallible[float16.Num],
	}
}

func decimal128Adapter(t reflect.Type, opts FieldOptions) (Adapter, error) {
	if err := opts.Check(t, "precision", "scale"); err != nil {
		return nil, err
	}
	prec, scale := opts.Precision, opts.Scale
	if prec == 0 {
		prec = 38
	}
	if prec < 1 || prec > 38 {
		return nil, schemaErrorf(t, "decimal precision %d out of range [1, 38]", prec)
	}
	if scale > prec {
		return nil, schemaErrorf(t, "decimal scale %d exceeds precision %d", scale, prec)
	}

	dt := &arrow.Decimal128Type{Precision: prec, Scale: scale}
	return TypedAdapter[decimal128.Num, *array.Decimal128Builder, *array.Decimal128]{
		Type: dt,
		AppendFunc: func(b *array.Decimal128Builder, v decimal128.Num) error {
			b.Append(v)
			return nil
		},
		ReadFunc: func(a *array.Decimal128, i int) (decimal128.Num, error) {
			return a.Value(i), nil
		},
		ValidateFunc: func(v decimal128.Num) error {
			if !v.FitsInPrecision(prec) {
				return fmt.Errorf("%s does not fit in precision %d", v.ToString(scale), prec)
			}
			return nil
		},
	}, nil
}

func timestampType(t reflect.Type, opts FieldOptions) (*arrow.TimestampType, *time.Location, error) {
	unit, err := parseTimeUnit(opts.Unit)
	if err != nil {
		return nil, nil, schemaErrorf(t, "%v", err)
	}
	loc := time.UTC
	if opts.TimeZone != "" {
		if loc, err = time.LoadLocation(opts.TimeZone); err != nil {
			return nil, nil, schemaErrorf(t, "unknown time zone %q", opts.TimeZone)
		}
	}
	return &arrow.TimestampType{Unit: unit, TimeZone: opts.TimeZone}, loc, nil
}

// timeAdapter maps time.Time onto Timestamp (the default) or Date32.
func timeAdapter(t reflect.Type, opts FieldOptions) (Adapter, error) {
	if opts.Date32 {
		if err := opts.Check(t, "date32"); err != nil {
			return nil, err
		}
		return TypedAdapter[time.Time, *array.Date32Builder, *array.Date32]{
			Type: arrow.FixedWidthTypes.Date32,
			AppendFunc: func(b *array.Date32Builder, v time.Time) error {
				b.Append(arrow.Date32FromTime(v))
				return nil
			},
			ReadFunc: func(a *array.Date32, i int) (time.Time, error) {
				return a.Value(i).ToTime(), nil
			},
			ValidateFunc: Infallible[time.Time],
		}, nil
	}

	if err := opts.Check(t, "unit", "tz"); err != nil {
		return nil, err
	}
	dt, loc, err := timestampType(t, opts)
	if err != nil {
		return nil, err
	}
	return TypedAdapter[time.Time, *array.TimestampBuilder, *array.Timestamp]{
		Type: dt,
		AppendFunc: func(b *array.TimestampBuilder, v time.Time) error {
			ts, err := timestampFromTime(v, dt.Unit)
			if err != nil {
				return err
			}
			b.Append(ts)
			return nil
		},
		ReadFunc: func(a *array.Timestamp, i int) (time.Time, error) {
			return timeFromTimestamp(a.Value(i), dt.Unit, loc), nil
		},
		ValidateFunc: func(v time.Time) error {
			_, err := timestampFromTime(v, dt.Unit)
			return err
		},
	}, nil
}

// nanosecond timestamps cover roughly the years 1678 to 2262.
var (
	minNanoTime = time.Unix(0, -1<<63).UTC()
	maxNanoTime = time.Unix(0, 1<<63-1).UTC()
)

func timestampFromTime(v time.Time, unit arrow.TimeUnit) (arrow.Timestamp, error) {
	switch unit {
	case arrow.Second:
		return arrow.Timestamp(v.Unix()), nil
	case arrow.Millisecond:
		return arrow.Timestamp(v.UnixMilli()), nil
	case arrow.Microsecond:
		return arrow.Timestamp(v.UnixMicro()), nil
	default:
		if v.Before(minNanoTime) || v.After(maxNanoTime) {
			return 0, fmt.Errorf("%s is out of range for nanosecond timestamps", v)
		}
		return arrow.Timestamp(v.UnixNano()), nil
	}
}

func timeFromTimestamp(ts arrow.Timestamp, unit arrow.TimeUnit, loc *time.Location) time.Time {
	var v time.Time
	switch unit {
	case arrow.Second:
		v = time.Unix(int64(ts), 0)
	case arrow.Millisecond:
		v = time.UnixMilli(int64(ts))
	case arrow.Microsecond:
		v = time.UnixMicro(int64(ts))
	default:
		v = time.Unix(0, int64(ts))
	}
	return v.In(loc)
}

// rawTimestampAdapter stores arrow.Timestamp values untouched.
func rawTimestampAdapter(t reflect.Type, opts FieldOptions) (Adapter, error) {
	if err := opts.Check(t, "unit", "tz"); err != nil {
		return nil, err
	}
	dt, _, err := timestampType(t, opts)
	if err != nil {
		return nil, err
	}
	return TypedAdapter[arrow.Timestamp, *array.TimestampBuilder, *array.Timestamp]{
		Type: dt,
		AppendFunc: func(b *array.TimestampBuilder, v arrow.Timestamp) error {
			b.Append(v)
			return nil
		},
		ReadFunc: func(a *array.Timestamp, i int) (arrow.Timestamp, error) {
			return a.Value(i), nil
		},
		ValidateFunc: Infallible[arrow.Timestamp],
	}, nil
}

func date32Adapter() Adapter {
	return TypedAdapter[arrow.Date32, *array.Date32Builder, *array.Date32]{
		Type: arrow.FixedWidthTypes.Date32,
		AppendFunc: func(b *array.Date32Builder, v arrow.Date32) error {
			b.Append(v)
			return nil
		},
		ReadFunc: func(a *array.Date32, i int) (arrow.Date32, error) {
			return a.Value(i), nil
		},
		ValidateFunc: Infallible[arrow.Date32],
	}
}

func durationAdapter() Adapter {
	return TypedAdapter[time.Duration, *array.DurationBuilder, *array.Duration]{
		Type: arrow.FixedWidthTypes.Duration_ns,
		AppendFunc: func(b *array.DurationBuilder, v time.Duration) error {
			b.Append(arrow.Duration(v))
			return nil
		},
		ReadFunc: func(a *array.Duration, i int) (time.Duration, error) {
			return time.Duration(a.Value(i)), nil
		},
		ValidateFunc: Infallible[time.Duration],
	}
}

// kindAdapter returns the adapter for a scalar kind: bool, numbers, strings
// and byte sequences.
func kindAdapter(t reflect.Type, opts FieldOptions) (Adapter, error) {
	switch t.Kind() {
	case reflect.Bool:
		return boolAdapter{}, opts.Check(t)
	case reflect.Int8:
		return numericAdapter[int8]{arrow.PrimitiveTypes.Int8}, opts.Check(t)
	case reflect.Int16:
		return numericAdapter[int16]{arrow.PrimitiveTypes.Int16}, opts.Check(t)
	case reflect.Int32:
		return numericAdapter[int32]{arrow.PrimitiveTypes.Int32}, opts.Check(t)
	case reflect.Int64, reflect.Int:
		return numericAdapter[int64]{arrow.PrimitiveTypes.Int64}, opts.Check(t)
	case reflect.Uint8:
		return numericAdapter[uint8]{arrow.PrimitiveTypes.Uint8}, opts.Check(t)
	case reflect.Uint16:
		return numericAdapter[uint16]{arrow.PrimitiveTypes.Uint16}, opts.Check(t)
	case reflect.Uint32:
		return numericAdapter[uint32]{arrow.PrimitiveTypes.Uint32}, opts.Check(t)
	case reflect.Uint64, reflect.Uint:
		return numericAdapter[uint64]{arrow.PrimitiveTypes.Uint64}, opts.Check(t)
	case reflect.Float32:
		return numericAdapter[float32]{arrow.PrimitiveTypes.Float32}, opts.Check(t)
	case reflect.Float64:
		return numericAdapter[float64]{arrow.PrimitiveTypes.Float64}, opts.Check(t)
	case reflect.String:
		if err := opts.Check(t, "large", "fixed"); err != nil {
			return nil, err
		}
		switch {
		case opts.Fixed > 0 && opts.Large:
			return nil, schemaErrorf(t, "options large and fixed are exclusive")
		case opts.Fixed > 0:
			return newFixedBinaryAdapter(opts.Fixed, reflect.String), nil
		case opts.Large:
			return stringAdapter{arrow.BinaryTypes.LargeString}, nil
		}
		return stringAdapter{arrow.BinaryTypes.String}, nil
	case reflect.Slice:
		if err := opts.Check(t, "large", "fixed"); err != nil {
			return nil, err
		}
		switch {
		case opts.Fixed > 0 && opts.Large:
			return nil, schemaErrorf(t, "options large and fixed are exclusive")
		case opts.Fixed > 0:
			return newFixedBinaryAdapter(opts.Fixed, reflect.Slice), nil
		case opts.Large:
			return binaryAdapter{arrow.BinaryTypes.LargeBinary}, nil
		}
		return binaryAdapter{arrow.BinaryTypes.Binary}, nil
	case reflect.Array:
		return newFixedBinaryAdapter(t.Len(), reflect.Array), opts.Check(t)
	}
	return nil, schemaErrorf(t, "unsupported kind %s", t.Kind())
}

func isByteSequence(t reflect.Type) bool {
	return (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem().Kind() == reflect.Uint8
}
