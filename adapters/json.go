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
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/extensions"
	"github.com/arrowconvert/arrow-convert-go/convert"
	"github.com/goccy/go-json"
)

// RegisterJSON stores values of T as JSON documents in an arrow.json
// extension column. It lets types without a columnar mapping, such as maps
// or free-form payloads, be fields of otherwise typed rows. The `large`
// option selects LargeString storage.
func RegisterJSON[T any](reg *convert.Registry) {
	reg.RegisterAdapterFunc(reflect.TypeFor[T](), jsonAdapter[T])
}

type stringAppender interface {
	Append(string)
}

type stringValuer interface {
	Value(int) string
}

func jsonAdapter[T any](t reflect.Type, opts convert.FieldOptions) (convert.Adapter, error) {
	if err := opts.Check(t, "large"); err != nil {
		return nil, err
	}
	var storage arrow.DataType = arrow.BinaryTypes.String
	if opts.Large {
		storage = arrow.BinaryTypes.LargeString
	}
	dt, err := extensions.NewJSONType(storage)
	if err != nil {
		return nil, err
	}

	return convert.TypedAdapter[T, *array.ExtensionBuilder, *extensions.JSONArray]{
		Type: dt,
		AppendFunc: func(b *array.ExtensionBuilder, v T) error {
			doc, err := json.Marshal(v)
			if err != nil {
				return err
			}
			b.Builder.(stringAppender).Append(string(doc))
			return nil
		},
		ReadFunc: func(a *extensions.JSONArray, i int) (T, error) {
			var out T
			doc := a.Storage().(stringValuer).Value(i)
			err := json.Unmarshal([]byte(doc), &out)
			return out, err
		},
		ValidateFunc: func(v T) error {
			_, err := json.Marshal(v)
			return err
		},
	}, nil
}
