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
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/arrowconvert/arrow-convert-go/convert"
	"github.com/shopspring/decimal"
)

// Decimal128 type used for decimal.Decimal when a field has no options.
const (
	DefaultDecimalPrecision = 38
	DefaultDecimalScale     = 10
)

// Decimal is the AdapterFunc for decimal.Decimal. Without options the
// column is Decimal128(38, 10); `precision=P` and `scale=S` select another
// type, with the scale defaulting to 0 once either is given. Digits beyond
// the scale are truncated toward zero.
func Decimal(t reflect.Type, opts convert.FieldOptions) (convert.Adapter, error) {
	if err := opts.Check(t, "precision", "scale"); err != nil {
		return nil, err
	}
	prec, scale := opts.Precision, opts.Scale
	switch {
	case prec == 0 && scale == 0:
		prec, scale = DefaultDecimalPrecision, DefaultDecimalScale
	case prec == 0:
		prec = DefaultDecimalPrecision
	}
	if prec < 1 || prec > 38 {
		return nil, fmt.Errorf("decimal precision %d out of range [1, 38]", prec)
	}
	if scale < 0 || scale > prec {
		return nil, fmt.Errorf("decimal scale %d out of range [0, %d]", scale, prec)
	}

	return convert.TypedAdapter[decimal.Decimal, *array.Decimal128Builder, *array.Decimal128]{
		Type: &arrow.Decimal128Type{Precision: prec, Scale: scale},
		AppendFunc: func(b *array.Decimal128Builder, v decimal.Decimal) error {
			n, err := toDecimal128(v, prec, scale)
			if err != nil {
				return err
			}
			b.Append(n)
			return nil
		},
		ReadFunc: func(a *array.Decimal128, i int) (decimal.Decimal, error) {
			return decimal.NewFromBigInt(a.Value(i).BigInt(), -scale), nil
		},
		ValidateFunc: func(v decimal.Decimal) error {
			_, err := toDecimal128(v, prec, scale)
			return err
		},
	}, nil
}

func toDecimal128(v decimal.Decimal, prec, scale int32) (decimal128.Num, error) {
	unscaled := v.Shift(scale).BigInt()
	if unscaled.BitLen() > 127 {
		return decimal128.Num{}, fmt.Errorf("%s overflows decimal128", v)
	}
	n := decimal128.FromBigInt(unscaled)
	if !n.FitsInPrecision(prec) {
		return decimal128.Num{}, fmt.Errorf("%s does not fit in decimal(%d, %d)", v, prec, scale)
	}
	return n, nil
}
