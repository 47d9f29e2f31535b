// Copyright (c) 2025, Arkon Labs.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package params

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	arkonerrors "github.com/arkonlabs/arkon/pkg/errors"
)

// Token is a single kernel command-line element, either a bare flag
// ("quiet") or a key=value pair ("isolcpus=8-15").
type Token struct {
	Key      string
	Value    string
	HasValue bool
}

// Raw returns the canonical command-line form of the token. Values
// containing whitespace are double-quoted.
func (t Token) Raw() string {
	if !t.HasValue {
		return t.Key
	}
	if strings.ContainsAny(t.Value, " \t") {
		return fmt.Sprintf("%s=%q", t.Key, t.Value)
	}
	return t.Key + "=" + t.Value
}

// multiValuedKeys are keys the kernel accepts more than once; all other
// keys are unique per set and later occurrences replace earlier ones.
var multiValuedKeys = map[string]bool{
	"console":            true,
	"module_blacklist":   true,
	"initcall_blacklist": true,
}

// IsMultiValued reports whether the kernel accepts the key more than once.
func IsMultiValued(key string) bool {
	return multiValuedKeys[key]
}

// Set is an ordered, key-deduplicated collection of kernel command-line
// tokens. Serialization is canonical (key-sorted), so parse followed by
// String is a fixed point.
type Set struct {
	tokens map[string][]Token
}

// NewSet returns an empty parameter set.
func NewSet() *Set {
	return &Set{tokens: make(map[string][]Token)}
}

// ParsePolicy controls how malformed tokens are handled during Parse.
type ParsePolicy int

const (
	// PolicyAbort fails the whole parse on the first malformed token.
	PolicyAbort ParsePolicy = iota
	// PolicySkipMalformed drops malformed tokens with a warning.
	PolicySkipMalformed
)

// Parse tokenizes whitespace-separated kernel command-line text using the
// default abort-on-malformed policy.
func Parse(raw string) (*Set, error) {
	return ParseWithPolicy(raw, PolicyAbort)
}

// ParseWithPolicy tokenizes whitespace-separated kernel command-line text,
// handling double-quoted values and both key=value and bare-flag forms.
func ParseWithPolicy(raw string, policy ParsePolicy) (*Set, error) {
	fields, err := splitCmdline(raw)
	if err != nil {
		return nil, arkonerrors.Wrap(arkonerrors.ErrCodeParse, "malformed command line", err)
	}

	s := NewSet()
	for _, field := range fields {
		tok, err := parseToken(field)
		if err != nil {
			if policy == PolicySkipMalformed {
				slog.Warn("skipping malformed kernel parameter", "token", field, "error", err)
				continue
			}
			return nil, arkonerrors.WrapWithContext(arkonerrors.ErrCodeParse,
				"malformed kernel parameter", err,
				map[string]any{"token": field})
		}
		s.Add(tok)
	}
	return s, nil
}

// splitCmdline splits raw text on whitespace, keeping double-quoted
// sections intact. An unterminated quote is an error.
func splitCmdline(raw string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuote := false

	for _, r := range raw {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case (r == ' ' || r == '\t' || r == '\n') && !inQuote:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", raw)
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields, nil
}

// parseToken converts one whitespace-delimited field into a Token.
func parseToken(field string) (Token, error) {
	kv := strings.SplitN(field, "=", 2)
	key := kv[0]
	if key == "" {
		return Token{}, fmt.Errorf("empty parameter key in %q", field)
	}
	if strings.ContainsAny(key, "\"'") {
		return Token{}, fmt.Errorf("invalid character in parameter key %q", key)
	}
	if len(kv) == 1 {
		return Token{Key: key}, nil
	}
	value := strings.Trim(kv[1], `"`)
	return Token{Key: key, Value: value, HasValue: true}, nil
}

// Add inserts a token. For unique keys a later add replaces the earlier
// token; for multi-valued keys duplicates accumulate (exact duplicates
// are dropped).
func (s *Set) Add(tok Token) {
	existing := s.tokens[tok.Key]
	if !IsMultiValued(tok.Key) {
		s.tokens[tok.Key] = []Token{tok}
		return
	}
	for _, e := range existing {
		if e == tok {
			return
		}
	}
	s.tokens[tok.Key] = append(existing, tok)
}

// SetFlag adds a bare flag parameter.
func (s *Set) SetFlag(key string) {
	s.Add(Token{Key: key})
}

// SetValue adds a key=value parameter.
func (s *Set) SetValue(key, value string) {
	s.Add(Token{Key: key, Value: value, HasValue: true})
}

// Remove deletes all tokens for the key. Returns true if the key existed.
func (s *Set) Remove(key string) bool {
	if _, ok := s.tokens[key]; !ok {
		return false
	}
	delete(s.tokens, key)
	return true
}

// Get returns the first token for the key.
func (s *Set) Get(key string) (Token, bool) {
	toks, ok := s.tokens[key]
	if !ok || len(toks) == 0 {
		return Token{}, false
	}
	return toks[0], true
}

// GetAll returns every token for a multi-valued key.
func (s *Set) GetAll(key string) []Token {
	toks := s.tokens[key]
	out := make([]Token, len(toks))
	copy(out, toks)
	return out
}

// Has reports whether the key is present.
func (s *Set) Has(key string) bool {
	_, ok := s.tokens[key]
	return ok
}

// Len returns the number of distinct keys in the set.
func (s *Set) Len() int {
	return len(s.tokens)
}

// Keys returns the keys in canonical (sorted) order.
func (s *Set) Keys() []string {
	keys := make([]string, 0, len(s.tokens))
	for k := range s.tokens {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tokens returns all tokens in canonical order: keys sorted, multi-valued
// occurrences in insertion order.
func (s *Set) Tokens() []Token {
	var out []Token
	for _, k := range s.Keys() {
		out = append(out, s.tokens[k]...)
	}
	return out
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	c := NewSet()
	for k, toks := range s.tokens {
		cp := make([]Token, len(toks))
		copy(cp, toks)
		c.tokens[k] = cp
	}
	return c
}

// Equal reports whether both sets contain exactly the same tokens.
func (s *Set) Equal(other *Set) bool {
	if other == nil || len(s.tokens) != len(other.tokens) {
		return false
	}
	for k, toks := range s.tokens {
		otoks, ok := other.tokens[k]
		if !ok || len(toks) != len(otoks) {
			return false
		}
		for i := range toks {
			if toks[i] != otoks[i] {
				return false
			}
		}
	}
	return true
}

// String serializes the set into canonical key-sorted command-line text.
// String(Parse(String(s))) == String(s) holds for every set.
func (s *Set) String() string {
	toks := s.Tokens()
	raws := make([]string, 0, len(toks))
	for _, t := range toks {
		raws = append(raws, t.Raw())
	}
	return strings.Join(raws, " ")
}
