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
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/arrowconvert/arrow-convert-go/convert/naming"
)

const tagKey = "arrow"

// FieldOptions are the per-field options parsed from an `arrow` struct tag.
//
// The tag grammar is `arrow:"name,opt,opt=value"`. A tag of "-" skips the
// field. Options prefixed with "elem." apply to the element of a sequence,
// e.g. `arrow:",elem.large"` on a []string selects LargeString elements.
//
//	large          64-bit offsets (LargeString, LargeBinary, LargeList)
//	fixed=N        fixed size: FixedSizeList(N) or FixedSizeBinary(N)
//	unit=s|ms|us|ns timestamp resolution (default ns)
//	tz=Zone        timestamp time zone (default none)
//	date32         store a time.Time as Date32
//	precision=P    decimal precision (default 38)
//	scale=S        decimal scale (default 0)
//	meta.K=V       field metadata entry
type FieldOptions struct {
	Name      string
	Skip      bool
	Large     bool
	Fixed     int
	Unit      string
	TimeZone  string
	Date32    bool
	Precision int32
	Scale     int32
	Metadata  arrow.Metadata
	Elem      *FieldOptions
}

func parseFieldTag(tag string) (FieldOptions, error) {
	var o FieldOptions
	if tag == "-" {
		o.Skip = true
		return o, nil
	}

	name, rest, _ := strings.Cut(tag, ",")
	o.Name = strings.TrimSpace(name)
	if rest == "" {
		return o, nil
	}
	for _, opt := range strings.Split(rest, ",") {
		if err := o.set(strings.TrimSpace(opt)); err != nil {
			return o, err
		}
	}
	return o, nil
}

func (o *FieldOptions) set(opt string) error {
	if sub, ok := strings.CutPrefix(opt, "elem."); ok {
		if o.Elem == nil {
			o.Elem = &FieldOptions{}
		}
		return o.Elem.set(sub)
	}

	key, val, hasVal := strings.Cut(opt, "=")
	switch key {
	case "":
	case "large":
		o.Large = true
	case "fixed":
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid fixed size %q", val)
		}
		o.Fixed = n
	case "unit":
		if _, err := parseTimeUnit(val); err != nil {
			return err
		}
		o.Unit = val
	case "tz":
		if val == "" {
			return fmt.Errorf("empty time zone")
		}
		o.TimeZone = val
	case "date32":
		o.Date32 = true
	case "precision", "scale":
		n, err := strconv.ParseInt(val, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid %s %q", key, val)
		}
		if key == "precision" {
			o.Precision = int32(n)
		} else {
			o.Scale = int32(n)
		}
	default:
		mk, ok := strings.CutPrefix(key, "meta.")
		if !ok || !hasVal || mk == "" {
			return fmt.Errorf("unknown option %q", opt)
		}
		keys := append(append([]string(nil), o.Metadata.Keys()...), mk)
		vals := append(append([]string(nil), o.Metadata.Values()...), val)
		o.Metadata = arrow.NewMetadata(keys, vals)
	}
	return nil
}

// typeOptions drops the options that only affect the enclosing field.
func (o FieldOptions) typeOptions() FieldOptions {
	o.Name, o.Skip, o.Metadata = "", false, arrow.Metadata{}
	return o
}

func (o FieldOptions) elem() FieldOptions {
	if o.Elem == nil {
		return FieldOptions{}
	}
	return *o.Elem
}

func (o FieldOptions) key() string {
	var sb strings.Builder
	if o.Large {
		sb.WriteString("large;")
	}
	if o.Fixed != 0 {
		fmt.Fprintf(&sb, "fixed=%d;", o.Fixed)
	}
	if o.Unit != "" {
		fmt.Fprintf(&sb, "unit=%s;", o.Unit)
	}
	if o.TimeZone != "" {
		fmt.Fprintf(&sb, "tz=%s;", o.TimeZone)
	}
	if o.Date32 {
		sb.WriteString("date32;")
	}
	if o.Precision != 0 {
		fmt.Fprintf(&sb, "precision=%d;", o.Precision)
	}
	if o.Scale != 0 {
		fmt.Fprintf(&sb, "scale=%d;", o.Scale)
	}
	if o.Elem != nil {
		fmt.Fprintf(&sb, "elem{%s}", o.Elem.key())
	}
	return sb.String()
}

func (o FieldOptions) names() []string {
	var out []string
	if o.Large {
		out = append(out, "large")
	}
	if o.Fixed != 0 {
		out = append(out, "fixed")
	}
	if o.Unit != "" {
		out = append(out, "unit")
	}
	if o.TimeZone != "" {
		out = append(out, "tz")
	}
	if o.Date32 {
		out = append(out, "date32")
	}
	if o.Precision != 0 {
		out = append(out, "precision")
	}
	if o.Scale != 0 {
		out = append(out, "scale")
	}
	if o.Elem != nil {
		out = append(out, "elem")
	}
	return out
}

// Check returns an error naming the first option set on o that is not in
// allowed. Adapters call it to reject options that do not apply to them.
func (o FieldOptions) Check(t reflect.Type, allowed ...string) error {
next:
	for _, name := range o.names() {
		for _, a := range allowed {
			if a == name {
				continue next
			}
		}
		return schemaErrorf(t, "option %q does not apply", name)
	}
	return nil
}

func parseTimeUnit(s string) (arrow.TimeUnit, error) {
	switch s {
	case "s":
		return arrow.Second, nil
	case "ms":
		return arrow.Millisecond, nil
	case "us":
		return arrow.Microsecond, nil
	case "", "ns":
		return arrow.Nanosecond, nil
	}
	return arrow.Nanosecond, fmt.Errorf("invalid time unit %q", s)
}

// StructDef holds container options for a struct type. They can be
// registered with RegisterStruct or declared in place with a blank marker
// field:
//
//	type Row struct {
//		_     struct{} `arrow:",rename_all=camelCase"`
//		MyKey int64
//	}
type StructDef struct {
	// RenameAll converts every field identifier that has no explicit or
	// alternate name.
	RenameAll naming.Rule
	// Transparent structs must have exactly one field and are encoded as
	// that field's column, without a struct wrapper.
	Transparent bool
}

func parseContainerTag(tag string) (StructDef, error) {
	var def StructDef
	name, rest, _ := strings.Cut(tag, ",")
	if strings.TrimSpace(name) != "" {
		return def, fmt.Errorf("container tag cannot carry a name")
	}
	for _, opt := range strings.Split(rest, ",") {
		key, val, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "":
		case "transparent":
			def.Transparent = true
		case "rename_all":
			r, err := naming.ParseRule(val)
			if err != nil {
				return def, err
			}
			def.RenameAll = r
		default:
			return def, fmt.Errorf("unknown container option %q", opt)
		}
	}
	return def, nil
}

// alternateName returns the name given to a field by its json tag.
func alternateName(sf reflect.StructField) string {
	tag, ok := sf.Tag.Lookup("json")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}
