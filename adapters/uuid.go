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
	"github.com/apache/arrow-go/v18/arrow/extensions"
	"github.com/arrowconvert/arrow-convert-go/convert"
	"github.com/google/uuid"
)

// UUID returns the adapter storing uuid.UUID values in the arrow.uuid
// extension type.
func UUID() convert.Adapter {
	return convert.TypedAdapter[uuid.UUID, *extensions.UUIDBuilder, *extensions.UUIDArray]{
		Type: extensions.NewUUIDType(),
		AppendFunc: func(b *extensions.UUIDBuilder, v uuid.UUID) error {
			b.Append(v)
			return nil
		},
		ReadFunc: func(a *extensions.UUIDArray, i int) (uuid.UUID, error) {
			return a.Value(i), nil
		},
		ValidateFunc: convert.Infallible[uuid.UUID],
	}
}
