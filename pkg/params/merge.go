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
	arkonerrors "github.com/arkonlabs/arkon/pkg/errors"
)

// MergePolicy controls how same-key conflicts are resolved during Merge.
type MergePolicy int

const (
	// MergeOverride resolves conflicts in favor of the other set.
	MergeOverride MergePolicy = iota
	// MergeRangeUnion unions numeric CPU-list values (isolcpus, nohz_full);
	// values that are not CPU lists fall back to override.
	MergeRangeUnion
	// MergeRejectConflict returns an error on any same-key value difference.
	MergeRejectConflict
)

// Merge combines s with other under the given policy. Disjoint keys are
// always unioned; s is never mutated.
func (s *Set) Merge(other *Set, policy MergePolicy) (*Set, error) {
	out := s.Clone()
	if other == nil {
		return out, nil
	}

	for _, key := range other.Keys() {
		theirs := other.tokens[key]

		ours, conflict := out.tokens[key]
		if !conflict {
			cp := make([]Token, len(theirs))
			copy(cp, theirs)
			out.tokens[key] = cp
			continue
		}

		if IsMultiValued(key) {
			// Multi-valued keys union occurrences under every policy.
			for _, tok := range theirs {
				out.Add(tok)
			}
			continue
		}

		oldTok, newTok := ours[0], theirs[0]
		if oldTok == newTok {
			continue
		}

		switch policy {
		case MergeOverride:
			out.tokens[key] = []Token{newTok}
		case MergeRangeUnion:
			merged, ok := unionCPULists(oldTok, newTok)
			if !ok {
				out.tokens[key] = []Token{newTok}
				continue
			}
			out.tokens[key] = []Token{merged}
		case MergeRejectConflict:
			return nil, arkonerrors.NewWithContext(arkonerrors.ErrCodeConflict,
				"conflicting values for parameter "+key,
				map[string]any{
					"key":   key,
					"left":  oldTok.Raw(),
					"right": newTok.Raw(),
				})
		}
	}
	return out, nil
}

// unionCPULists merges two CPU-list valued tokens into one covering both.
// Returns ok=false when either value is not a parsable CPU list.
func unionCPULists(a, b Token) (Token, bool) {
	if !a.HasValue || !b.HasValue {
		return Token{}, false
	}
	aIDs, err := ParseCPUList(a.Value)
	if err != nil {
		return Token{}, false
	}
	bIDs, err := ParseCPUList(b.Value)
	if err != nil {
		return Token{}, false
	}
	return Token{
		Key:      a.Key,
		Value:    FormatCPUList(append(aIDs, bIDs...)),
		HasValue: true,
	}, true
}
