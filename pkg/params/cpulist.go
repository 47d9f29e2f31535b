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
	"sort"
	"strconv"
	"strings"
)

// ParseCPUList parses a kernel CPU list ("0,2,8-15") into a sorted,
// deduplicated slice of CPU IDs.
func ParseCPUList(list string) ([]int, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	seen := make(map[int]bool)
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty element in CPU list %q", list)
		}

		lo, hi, found := strings.Cut(part, "-")
		start, err := strconv.Atoi(lo)
		if err != nil || start < 0 {
			return nil, fmt.Errorf("invalid CPU id %q in list %q", lo, list)
		}
		end := start
		if found {
			end, err = strconv.Atoi(hi)
			if err != nil || end < start {
				return nil, fmt.Errorf("invalid CPU range %q in list %q", part, list)
			}
		}
		for id := start; id <= end; id++ {
			seen[id] = true
		}
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// FormatCPUList renders CPU IDs as a minimal kernel CPU list, collapsing
// consecutive runs into ranges ("0,2,8-15").
func FormatCPUList(ids []int) string {
	if len(ids) == 0 {
		return ""
	}

	sorted := make([]int, len(ids))
	copy(sorted, ids)
	sort.Ints(sorted)

	var parts []string
	start, prev := sorted[0], sorted[0]
	flush := func() {
		if start == prev {
			parts = append(parts, strconv.Itoa(start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
		}
	}
	for _, id := range sorted[1:] {
		if id == prev {
			continue
		}
		if id == prev+1 {
			prev = id
			continue
		}
		flush()
		start, prev = id, id
	}
	flush()
	return strings.Join(parts, ",")
}
