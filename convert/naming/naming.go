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

// Package naming maps declared Go identifiers to column names.
//
// Every function in this package is pure. A column name is resolved from,
// in decreasing priority: an explicit override, an alternate name taken from
// another serialization convention, and a container-wide case conversion
// Rule applied to the identifier.
package naming

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/huandu/xstrings"
)

// Rule is a container-wide case conversion applied to declared identifiers.
type Rule int8

const (
	AsIs Rule = iota
	Lower
	Upper
	Camel
	Pascal
	Snake
	ScreamingSnake
	Kebab
	ScreamingKebab
)

var ruleNames = [...]string{
	AsIs:           "",
	Lower:          "lowercase",
	Upper:          "UPPERCASE",
	Camel:          "camelCase",
	Pascal:         "PascalCase",
	Snake:          "snake_case",
	ScreamingSnake: "SCREAMING_SNAKE_CASE",
	Kebab:          "kebab-case",
	ScreamingKebab: "SCREAMING-KEBAB-CASE",
}

func (r Rule) String() string {
	if r < 0 || int(r) >= len(ruleNames) {
		return fmt.Sprintf("Rule(%d)", int8(r))
	}
	if r == AsIs {
		return "as-is"
	}
	return ruleNames[r]
}

// ParseRule returns the Rule spelled s. The accepted spellings are the
// ones used by Rust's serde and by most code generators, e.g. "camelCase"
// or "SCREAMING_SNAKE_CASE". The empty string and "as-is" yield AsIs.
func ParseRule(s string) (Rule, error) {
	if s == "as-is" {
		return AsIs, nil
	}
	for i, n := range ruleNames {
		if n == s {
			return Rule(i), nil
		}
	}
	return AsIs, fmt.Errorf("naming: unknown rename rule %q", s)
}

// Apply converts ident according to r.
//
// Applying a rule to its own output is a no-op, with one exception: runs of
// single-letter words (e.g. "a_b_c") are joined into what reads as an
// acronym by Camel and Pascal, and re-splitting that acronym
// on a second pass yields one word instead of several.
func (r Rule) Apply(ident string) string {
	switch r {
	case AsIs:
		return ident
	case Lower:
		return strings.ToLower(strings.Join(SplitWords(ident), ""))
	case Upper:
		return strings.ToUpper(strings.Join(SplitWords(ident), ""))
	case Camel:
		words := SplitWords(ident)
		for i, w := range words {
			if i == 0 {
				words[i] = strings.ToLower(w)
				continue
			}
			words[i] = capitalize(w)
		}
		return strings.Join(words, "")
	case Pascal:
		words := SplitWords(ident)
		for i, w := range words {
			words[i] = capitalize(w)
		}
		return strings.Join(words, "")
	case Snake:
		return strings.ToLower(strings.Join(SplitWords(ident), "_"))
	case ScreamingSnake:
		return strings.ToUpper(strings.Join(SplitWords(ident), "_"))
	case Kebab:
		return strings.ToLower(strings.Join(SplitWords(ident), "-"))
	case ScreamingKebab:
		return strings.ToUpper(strings.Join(SplitWords(ident), "-"))
	default:
		return ident
	}
}

// Resolve returns the column name of a field or variant.
func Resolve(ident, override, alternate string, rule Rule) string {
	switch {
	case override != "":
		return override
	case alternate != "":
		return alternate
	default:
		return rule.Apply(ident)
	}
}

// SplitWords splits ident on '_' and '-' and on case transitions. A run of
// upper case letters is a single word (an acronym) unless its last letter is
// followed by a lower case letter, in which case that letter starts the
// next word: "XMLParser" splits into "XML" and "Parser".
func SplitWords(ident string) []string {
	var (
		words []string
		cur   []rune
		rs    = []rune(ident)
	)

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	for i, c := range rs {
		if c == '_' || c == '-' {
			flush()
			continue
		}
		if unicode.IsUpper(c) && len(cur) > 0 {
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if !allUpper(cur) || nextLower {
				flush()
			}
		}
		cur = append(cur, c)
	}
	flush()
	return words
}

func allUpper(rs []rune) bool {
	for _, r := range rs {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func capitalize(w string) string {
	return xstrings.FirstRuneToUpper(strings.ToLower(w))
}
