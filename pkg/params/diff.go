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

// Change records a same-key value difference between two sets.
type Change struct {
	Old Token
	New Token
}

// Diff is a key-based comparison result between a current set and a
// target set. Added and Removed partition keys by presence; Changed holds
// same-key value differences.
type Diff struct {
	Added   []Token
	Removed []Token
	Changed []Change
}

// Empty reports whether the diff contains no differences.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares s (current) against target. Tokens present only in target
// are Added, tokens present only in s are Removed, and keys present in
// both with differing values are Changed. Results are in canonical key
// order.
func (s *Set) Diff(target *Set) Diff {
	var d Diff
	if target == nil {
		target = NewSet()
	}

	for _, key := range target.Keys() {
		theirs := target.tokens[key]
		ours, ok := s.tokens[key]
		if !ok {
			d.Added = append(d.Added, theirs...)
			continue
		}
		if sameTokens(ours, theirs) {
			continue
		}
		if IsMultiValued(key) {
			// Multi-valued keys change per occurrence; collapsing to a
			// single Change pair would hide added or dropped occurrences.
			for _, tok := range theirs {
				if !containsToken(ours, tok) {
					d.Added = append(d.Added, tok)
				}
			}
			for _, tok := range ours {
				if !containsToken(theirs, tok) {
					d.Removed = append(d.Removed, tok)
				}
			}
			continue
		}
		d.Changed = append(d.Changed, Change{Old: ours[0], New: theirs[0]})
	}

	for _, key := range s.Keys() {
		if !target.Has(key) {
			d.Removed = append(d.Removed, s.tokens[key]...)
		}
	}
	return d
}

func containsToken(toks []Token, tok Token) bool {
	for _, t := range toks {
		if t == tok {
			return true
		}
	}
	return false
}

func sameTokens(a, b []Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
