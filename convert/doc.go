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

/*
Package convert encodes Go values into Apache Arrow arrays and decodes
them back.

The Arrow type of a Go type is derived once, by reflection, and cached in a
Registry together with a tree of builder and reader nodes for it:

	int8 .. int64, uint8 .. uint64   Int8 .. Uint64 (int and uint are 64-bit)
	float32, float64, float16.Num    Float32, Float64, Float16
	bool                             Boolean
	string                           Utf8
	[]byte, [N]byte                  Binary, FixedSizeBinary(N)
	time.Time                        Timestamp(ns), see the unit, tz and date32 options
	time.Duration                    Duration(ns)
	decimal128.Num                   Decimal128(38, 0), see precision and scale
	*T                               T, nullable
	[]T, [N]T                        List(T), FixedSizeList(N, T)
	struct                           Struct, one field per exported field
	registered interface             dense or sparse Union

Struct fields are named by their `arrow` tag, then their `json` tag, then
the struct's rename rule applied to the Go name. See FieldOptions for the
tag options.

Unions are Go interfaces registered with their variants:

	type Shape interface{ isShape() }

	func init() {
		convert.MustRegisterUnion[Shape](convert.UnionDef{
			Mode: convert.Dense,
			Variants: []convert.VariantDef{
				convert.Variant[Circle](),
				convert.Variant[Square](),
				convert.UnitVariant[Empty](),
			},
		})
	}

Arrays returned by this package follow Arrow's reference counting: the
caller must Release them.
*/
package convert
