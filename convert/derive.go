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
	"errors"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/arrowconvert/arrow-convert-go/convert/naming"
)

// itemFieldName names the element field of every list type.
const itemFieldName = "item"

// deriver computes codecs. active holds the composite types whose
// derivation is in progress, to reject recursive types, which have no
// finite Arrow type.
type deriver struct {
	reg    *Registry
	active map[reflect.Type]bool
}

func (d *deriver) derive(t reflect.Type, opts FieldOptions) (codec, error) {
	if fn, ok := d.reg.adapter(t); ok {
		a, err := fn(t, opts)
		if err != nil {
			return nil, asSchemaError(t, err)
		}
		return &leafCodec{t: t, a: a}, nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem, err := d.derive(t.Elem(), opts)
		if err != nil {
			return nil, err
		}
		return &optionalCodec{t: t, elem: elem}, nil
	case reflect.Interface:
		return d.deriveUnion(t, opts)
	case reflect.Struct:
		return d.deriveStruct(t, opts)
	case reflect.Slice, reflect.Array:
		if !isByteSequence(t) {
			return d.deriveList(t, opts)
		}
	}

	a, err := kindAdapter(t, opts)
	if err != nil {
		return nil, asSchemaError(t, err)
	}
	return &leafCodec{t: t, a: a}, nil
}

func asSchemaError(t reflect.Type, err error) error {
	var se *SchemaError
	if errors.As(err, &se) {
		return err
	}
	return schemaErrorf(t, "%v", err)
}

func (d *deriver) enter(t reflect.Type) error {
	if d.active[t] {
		return schemaErrorf(t, "recursive types are not supported")
	}
	d.active[t] = true
	return nil
}

func (d *deriver) leave(t reflect.Type) { delete(d.active, t) }

type pendingField struct {
	sf   reflect.StructField
	opts FieldOptions
}

func (d *deriver) deriveStruct(t reflect.Type, opts FieldOptions) (codec, error) {
	if err := d.enter(t); err != nil {
		return nil, err
	}
	defer d.leave(t)

	def, _ := d.reg.structDef(t)
	var pending []pendingField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Name == "_" {
			if tag, ok := sf.Tag.Lookup(tagKey); ok {
				marker, err := parseContainerTag(tag)
				if err != nil {
					return nil, schemaErrorf(t, "%v", err)
				}
				if marker.RenameAll != naming.AsIs {
					def.RenameAll = marker.RenameAll
				}
				def.Transparent = def.Transparent || marker.Transparent
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		fo, err := parseFieldTag(sf.Tag.Get(tagKey))
		if err != nil {
			return nil, schemaErrorf(t, "field %s: %v", sf.Name, err)
		}
		if fo.Skip {
			continue
		}
		pending = append(pending, pendingField{sf: sf, opts: fo})
	}

	if def.Transparent {
		if len(pending) != 1 {
			return nil, schemaErrorf(t, "transparent structs must have exactly one field, found %d", len(pending))
		}
		p := pending[0]
		inner := p.opts.typeOptions()
		if inner.key() == "" {
			inner = opts
		}
		c, err := d.derive(p.sf.Type, inner)
		if err != nil {
			return nil, err
		}
		return &transparentCodec{t: t, index: p.sf.Index[0], inner: c}, nil
	}

	if err := opts.Check(t); err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, schemaErrorf(t, "structs must have at least one field")
	}

	c := &structCodec{t: t}
	fields := make([]arrow.Field, 0, len(pending))
	seen := make(map[string]bool, len(pending))
	for _, p := range pending {
		name := naming.Resolve(p.sf.Name, p.opts.Name, alternateName(p.sf), def.RenameAll)
		if seen[name] {
			return nil, schemaErrorf(t, "duplicate field name %q", name)
		}
		seen[name] = true

		child, err := d.derive(p.sf.Type, p.opts.typeOptions())
		if err != nil {
			return nil, err
		}
		c.fields = append(c.fields, structField{name: name, index: p.sf.Index[0], codec: child})
		fields = append(fields, fieldOf(name, child, p.opts.Metadata))
	}
	c.dt = arrow.StructOf(fields...)
	return c, nil
}

func (d *deriver) deriveList(t reflect.Type, opts FieldOptions) (codec, error) {
	if err := opts.Check(t, "large", "fixed", "elem"); err != nil {
		return nil, err
	}

	c := &listCodec{t: t, kind: listVariable}
	switch {
	case t.Kind() == reflect.Array:
		if opts.Large || (opts.Fixed != 0 && opts.Fixed != t.Len()) {
			return nil, schemaErrorf(t, "arrays always map to a fixed size list of %d", t.Len())
		}
		c.kind, c.size = listFixed, t.Len()
	case opts.Fixed > 0 && opts.Large:
		return nil, schemaErrorf(t, "options large and fixed are exclusive")
	case opts.Fixed > 0:
		c.kind, c.size = listFixed, opts.Fixed
	case opts.Large:
		c.kind = listLarge
	}

	elem, err := d.derive(t.Elem(), opts.elem())
	if err != nil {
		return nil, err
	}
	c.elem = elem

	item := fieldOf(itemFieldName, elem, arrow.Metadata{})
	switch c.kind {
	case listFixed:
		c.dt = arrow.FixedSizeListOfField(int32(c.size), item)
	case listLarge:
		c.dt = arrow.LargeListOfField(item)
	default:
		c.dt = arrow.ListOfField(item)
	}
	return c, nil
}

func (d *deriver) deriveUnion(t reflect.Type, opts FieldOptions) (codec, error) {
	if err := opts.Check(t); err != nil {
		return nil, err
	}
	def, ok := d.reg.union(t)
	if !ok {
		return nil, schemaErrorf(t, "interface is not a registered union")
	}
	if def.Mode != Dense && def.Mode != Sparse {
		return nil, schemaErrorf(t, "union has no mode, declare Dense or Sparse")
	}
	if len(def.Variants) == 0 {
		return nil, schemaErrorf(t, "union has no variants")
	}
	if len(def.Variants) > int(arrow.MaxUnionTypeCode)+1 {
		return nil, schemaErrorf(t, "union has %d variants, at most %d are supported", len(def.Variants), int(arrow.MaxUnionTypeCode)+1)
	}

	if err := d.enter(t); err != nil {
		return nil, err
	}
	defer d.leave(t)

	c := &unionCodec{t: t, mode: def.Mode, byType: make(map[reflect.Type]int, len(def.Variants))}
	fields := make([]arrow.Field, 0, len(def.Variants))
	codes := make([]arrow.UnionTypeCode, 0, len(def.Variants))
	seen := make(map[string]bool, len(def.Variants))
	for i, vd := range def.Variants {
		if vd.Type == nil {
			return nil, schemaErrorf(t, "variant %d has no type", i)
		}
		if !vd.Type.Implements(t) {
			return nil, schemaErrorf(t, "variant %s does not implement the interface", vd.Type)
		}
		if _, dup := c.byType[vd.Type]; dup {
			return nil, schemaErrorf(t, "variant %s is declared twice", vd.Type)
		}

		v := unionVariant{typ: vd.Type, base: vd.Type, unit: vd.Unit}
		if v.base.Kind() == reflect.Pointer {
			v.base, v.ptr = v.base.Elem(), true
		}
		v.name = naming.Resolve(v.base.Name(), vd.Name, "", def.RenameAll)
		if v.name == "" {
			return nil, schemaErrorf(t, "variant %s needs an explicit name", vd.Type)
		}
		if seen[v.name] {
			return nil, schemaErrorf(t, "duplicate variant name %q", v.name)
		}
		seen[v.name] = true

		var field arrow.Field
		if v.unit {
			if v.base.Kind() != reflect.Struct || v.base.NumField() != 0 {
				return nil, schemaErrorf(t, "unit variant %s must be a struct without fields", vd.Type)
			}
			v.codec = &leafCodec{t: reflect.TypeFor[bool](), a: boolAdapter{}}
			field = arrow.Field{Name: v.name, Type: arrow.FixedWidthTypes.Boolean, Nullable: true}
		} else {
			vc, err := d.derive(v.base, FieldOptions{})
			if err != nil {
				return nil, err
			}
			v.codec = vc
			field = fieldOf(v.name, vc, arrow.Metadata{})
		}

		c.byType[vd.Type] = i
		c.variants = append(c.variants, v)
		fields = append(fields, field)
		codes = append(codes, arrow.UnionTypeCode(i))
	}

	if def.Mode == Dense {
		c.dt = arrow.DenseUnionOf(fields, codes)
	} else {
		c.dt = arrow.SparseUnionOf(fields, codes)
	}
	return c, nil
}
