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

// Package adapters maps common third party Go types onto Arrow columns.
//
// Importing the package registers its adapters with convert's default
// registry:
//
//	import _ "github.com/arrowconvert/arrow-convert-go/adapters"
//
// Use Register to add them to another Registry.
//
//	uuid.UUID         extension arrow.uuid (FixedSizeBinary(16))
//	decimal.Decimal   Decimal128(38, 10), see the precision and scale options
//	r2.Vec, r3.Vec    FixedSizeList(2|3, Float64)
//	quat.Number       FixedSizeList(4, Float64)
//
// JSON documents are opt-in per type, see RegisterJSON.
package adapters

import (
	"reflect"

	"github.com/arrowconvert/arrow-convert-go/convert"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Register adds the adapters of this package to reg.
func Register(reg *convert.Registry) {
	reg.RegisterAdapter(reflect.TypeFor[uuid.UUID](), UUID())
	reg.RegisterAdapterFunc(reflect.TypeFor[decimal.Decimal](), Decimal)
	reg.RegisterAdapter(reflect.TypeFor[r2.Vec](), Vec2())
	reg.RegisterAdapter(reflect.TypeFor[r3.Vec](), Vec3())
	reg.RegisterAdapter(reflect.TypeFor[quat.Number](), Quat())
}

func init() {
	Register(convert.DefaultRegistry())
}
