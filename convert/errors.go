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
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
)

// SchemaError reports a Go type that cannot be mapped onto an Arrow type, or
// a value whose shape contradicts its declared type (such as a sequence
// whose length differs from its fixed size).
type SchemaError struct {
	Type reflect.Type
	Msg  string
}

func schemaErrorf(t reflect.Type, format string, args ...interface{}) *SchemaError {
	return &SchemaError{Type: t, Msg: fmt.Sprintf(format, args...)}
}

func (e *SchemaError) Error() string {
	if e.Type == nil {
		return "arrow/convert: " + e.Msg
	}
	return fmt.Sprintf("arrow/convert: %s: %s", e.Type, e.Msg)
}

func (e *SchemaError) Unwrap() error { return arrow.ErrInvalid }

// MismatchError is returned when an array's data type differs from the one
// derived for the Go type it is decoded into.
type MismatchError struct {
	Expected         arrow.DataType
	ExpectedNullable bool
	Actual           arrow.DataType
	ActualNullable   bool
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("arrow/convert: Data type mismatch. Expected type=%s is_nullable=%t, but was type=%s is_nullable=%t",
		e.Expected, e.ExpectedNullable, e.Actual, e.ActualNullable)
}

func (e *MismatchError) Unwrap() error { return arrow.ErrType }

// AdapterError wraps a failure of a scalar adapter to encode or decode a
// value of the given data type.
type AdapterError struct {
	Type arrow.DataType
	Err  error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("arrow/convert: %s value: %v", e.Type, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }
