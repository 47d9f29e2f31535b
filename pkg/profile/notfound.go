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

package profile

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	arkonerrors "github.com/arkonlabs/arkon/pkg/errors"
)

// notFound builds a PROFILE_NOT_FOUND error carrying the available
// names and, when one is close enough, a did-you-mean suggestion.
func (s *Store) notFound(name string) error {
	available, _ := s.ListProfiles()

	msg := fmt.Sprintf("profile %q not found", name)
	if len(available) > 0 {
		msg += fmt.Sprintf(" (available: %s)", strings.Join(available, ", "))
	}
	ctx := map[string]any{"available": available}
	if suggestion := closestName(name, available); suggestion != "" {
		msg += fmt.Sprintf(", did you mean %q?", suggestion)
		ctx["suggestion"] = suggestion
	}
	return arkonerrors.NewWithContext(arkonerrors.ErrCodeProfileNotFound, msg, ctx)
}

// closestName returns the candidate with the smallest edit distance to
// name, or "" when nothing is within a third of the name's length. The
// cutoff keeps wild typos from producing misleading suggestions.
func closestName(name string, candidates []string) string {
	best := ""
	bestDist := len(name)/3 + 1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(name, c)
		if d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}
