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
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// validityTrack records the validity of the rows of a composite column.
// The bitmap is only allocated when the first null arrives, at which point
// every earlier row is marked valid; until then all rows are valid.
type validityTrack struct {
	bits  []byte
	n     int
	nulls int
}

func (v *validityTrack) append(valid bool) {
	if !valid && v.bits == nil {
		v.bits = make([]byte, bitutil.BytesForBits(int64(v.n+1)))
		bitutil.SetBitsTo(v.bits, 0, int64(v.n), true)
	}
	if v.bits != nil {
		for int64(len(v.bits)) < bitutil.BytesForBits(int64(v.n+1)) {
			v.bits = append(v.bits, 0)
		}
		bitutil.SetBitTo(v.bits, v.n, valid)
	}
	if !valid {
		v.nulls++
	}
	v.n++
}

func (v *validityTrack) isValid(i int) bool {
	return v.bits == nil || bitutil.BitIsSet(v.bits, i)
}

// buffer copies the bitmap into a buffer from mem. It returns nil when no
// null was recorded.
func (v *validityTrack) buffer(mem memory.Allocator) *memory.Buffer {
	if v.bits == nil {
		return nil
	}
	return newBufferFrom(mem, v.bits[:bitutil.BytesForBits(int64(v.n))])
}

func (v *validityTrack) reset() {
	v.bits, v.n, v.nulls = nil, 0, 0
}

func newBufferFrom(mem memory.Allocator, b []byte) *memory.Buffer {
	buf := memory.NewResizableBuffer(mem)
	buf.Resize(len(b))
	copy(buf.Bytes(), b)
	return buf
}
