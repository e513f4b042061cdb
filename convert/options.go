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

	"github.com/apache/arrow-go/v18/arrow/memory"
)

type config struct {
	mem  memory.Allocator
	reg  *Registry
	root FieldOptions
	err  error
}

// Option configures Serialize, Deserialize, NewBuilder and NewIterator.
type Option func(*config)

// WithAllocator sets the allocator used for every buffer of the built
// arrays. The default is memory.DefaultAllocator.
func WithAllocator(mem memory.Allocator) Option {
	return func(cfg *config) {
		cfg.mem = mem
	}
}

// WithRegistry selects the registry that resolves adapters, struct options
// and unions. The default is DefaultRegistry().
func WithRegistry(r *Registry) Option {
	return func(cfg *config) {
		cfg.reg = r
	}
}

// AsType coerces the top-level type using the options of an `arrow` struct
// tag, without a name. For example AsType("large") decodes a LargeString
// column into []string, and AsType("elem.fixed=4") encodes a [][]byte as a
// list of FixedSizeBinary(4).
func AsType(tag string) Option {
	return func(cfg *config) {
		o, err := parseFieldTag("," + tag)
		if err != nil {
			cfg.err = fmt.Errorf("arrow/convert: invalid type hint %q: %w", tag, err)
			return
		}
		cfg.root = o.typeOptions()
	}
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{
		mem: memory.DefaultAllocator,
		reg: defaultRegistry,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg, cfg.err
}
