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
	"reflect"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/float16"
	"github.com/arrowconvert/arrow-convert-go/convert/naming"
	"github.com/arrowconvert/arrow-convert-go/internal/debug"
)

// UnionMode selects the physical layout of a union column. It has no
// default: a union registered without a mode fails schema derivation.
type UnionMode int8

const (
	modeUnset UnionMode = iota
	// Dense unions grow only the selected variant's column and record a
	// per-row offset into it.
	Dense
	// Sparse unions give every variant column one slot per row, padding
	// the non-selected ones with nulls.
	Sparse
)

func (m UnionMode) String() string {
	switch m {
	case Dense:
		return "dense"
	case Sparse:
		return "sparse"
	}
	return "unset"
}

// VariantDef declares one case of a union.
type VariantDef struct {
	// Type is the concrete Go type stored in the interface. It must
	// implement the union's interface.
	Type reflect.Type
	// Name overrides the column name, which otherwise is the type name
	// converted by the union's RenameAll rule.
	Name string
	// Unit cases carry no payload. Type must be a struct without fields.
	Unit bool
}

// Variant declares a payload case whose column is derived from T.
func Variant[T any](name ...string) VariantDef {
	return VariantDef{Type: reflect.TypeFor[T](), Name: firstOr(name)}
}

// UnitVariant declares a case without payload. Its column is a Boolean
// placeholder.
func UnitVariant[T any](name ...string) VariantDef {
	return VariantDef{Type: reflect.TypeFor[T](), Name: firstOr(name), Unit: true}
}

func firstOr(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// UnionDef declares a Go interface type as a union. Type codes are the
// variant positions.
type UnionDef struct {
	Mode      UnionMode
	RenameAll naming.Rule
	Variants  []VariantDef
}

type codecKey struct {
	t    reflect.Type
	opts string
}

// Registry resolves the Arrow mapping of Go types. It holds scalar
// adapters, struct options, union declarations and a cache of derived
// codecs. A Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	adapters map[reflect.Type]AdapterFunc
	structs  map[reflect.Type]StructDef
	unions   map[reflect.Type]UnionDef
	codecs   map[codecKey]codec
}

// NewRegistry returns a registry that knows the builtin scalar types.
func NewRegistry() *Registry {
	r := &Registry{
		adapters: make(map[reflect.Type]AdapterFunc),
		structs:  make(map[reflect.Type]StructDef),
		unions:   make(map[reflect.Type]UnionDef),
		codecs:   make(map[codecKey]codec),
	}
	r.adapters[reflect.TypeFor[time.Time]()] = timeAdapter
	r.adapters[reflect.TypeFor[time.Duration]()] = StaticAdapter(durationAdapter())
	r.adapters[reflect.TypeFor[arrow.Timestamp]()] = rawTimestampAdapter
	r.adapters[reflect.TypeFor[arrow.Date32]()] = StaticAdapter(date32Adapter())
	r.adapters[reflect.TypeFor[float16.Num]()] = StaticAdapter(float16Adapter())
	r.adapters[reflect.TypeFor[decimal128.Num]()] = decimal128Adapter
	return r
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry used when no WithRegistry option
// is given.
func DefaultRegistry() *Registry { return defaultRegistry }

// RegisterAdapterFunc registers fn as the adapter factory for t. It takes
// precedence over the kind based mapping of t.
func (r *Registry) RegisterAdapterFunc(t reflect.Type, fn AdapterFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[t] = fn
	r.resetLocked()
}

// RegisterAdapter registers a for t.
func (r *Registry) RegisterAdapter(t reflect.Type, a Adapter) {
	r.RegisterAdapterFunc(t, StaticAdapter(a))
}

// RegisterStruct sets the container options of struct type t.
func (r *Registry) RegisterStruct(t reflect.Type, def StructDef) error {
	if t.Kind() != reflect.Struct {
		return schemaErrorf(t, "not a struct")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.structs[t] = def
	r.resetLocked()
	return nil
}

// RegisterUnion declares interface type t as a union. Variants are checked
// when a codec is first derived for t.
func (r *Registry) RegisterUnion(t reflect.Type, def UnionDef) error {
	if t.Kind() != reflect.Interface {
		return schemaErrorf(t, "unions must be interface types")
	}
	def.Variants = append([]VariantDef(nil), def.Variants...)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unions[t] = def
	r.resetLocked()
	return nil
}

func (r *Registry) resetLocked() {
	if len(r.codecs) > 0 {
		r.codecs = make(map[codecKey]codec)
	}
}

func (r *Registry) adapter(t reflect.Type) (AdapterFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.adapters[t]
	return fn, ok
}

func (r *Registry) structDef(t reflect.Type) (StructDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.structs[t]
	return def, ok
}

func (r *Registry) union(t reflect.Type) (UnionDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.unions[t]
	return def, ok
}

// codecFor returns the cached codec of t under opts, deriving it on first
// use.
func (r *Registry) codecFor(t reflect.Type, opts FieldOptions) (codec, error) {
	key := codecKey{t, opts.key()}
	r.mu.RLock()
	c, ok := r.codecs[key]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	d := deriver{reg: r, active: make(map[reflect.Type]bool)}
	c, err := d.derive(t, opts)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.codecs[key] = c
	r.mu.Unlock()
	debug.Logf("derived %s -> %s", t, c.dataType())
	return c, nil
}

// RegisterAdapter registers a for T in the default registry.
func RegisterAdapter[T any](a Adapter) {
	defaultRegistry.RegisterAdapter(reflect.TypeFor[T](), a)
}

// RegisterStruct sets the container options of T in the default registry.
func RegisterStruct[T any](def StructDef) error {
	return defaultRegistry.RegisterStruct(reflect.TypeFor[T](), def)
}

// RegisterUnion declares interface type I as a union in the default
// registry.
func RegisterUnion[I any](def UnionDef) error {
	return defaultRegistry.RegisterUnion(reflect.TypeFor[I](), def)
}

// MustRegisterUnion is like RegisterUnion but panics on error. It is meant
// for package init functions.
func MustRegisterUnion[I any](def UnionDef) {
	if err := RegisterUnion[I](def); err != nil {
		panic(err)
	}
}
