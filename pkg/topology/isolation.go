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

package topology

import (
	"github.com/arkonlabs/arkon/pkg/params"
)

// GenerateIsolationParams produces the kernel parameters that remove the
// recommended CPUs from scheduler, timer-tick, and RCU-callback duties.
// An empty recommendation produces an empty set; callers then apply no
// isolation at all.
func GenerateIsolationParams(topo Topology) *params.Set {
	set := params.NewSet()
	if len(topo.RecommendedIsolate) == 0 {
		return set
	}

	list := params.FormatCPUList(topo.RecommendedIsolate)
	set.SetValue("isolcpus", list)
	set.SetValue("nohz_full", list)
	set.SetValue("rcu_nocbs", list)
	return set
}

// HeuristicIsolate returns the trailing fraction of logical CPUs as
// isolation candidates when no frequency data distinguishes core types.
// This is an explicit opt-in for callers that accept a guess; automatic
// classification never uses it. CPU 0 is excluded unconditionally and a
// topology already classified as hybrid returns its real recommendation.
func HeuristicIsolate(topo Topology, fraction float64) []int {
	if topo.IsHybrid {
		return topo.RecommendedIsolate
	}
	if fraction <= 0 || fraction > 0.5 || topo.TotalThreads < 4 {
		return nil
	}

	n := int(float64(topo.TotalThreads) * fraction)
	if n == 0 {
		return nil
	}
	ids := make([]int, 0, n)
	for id := topo.TotalThreads - n; id < topo.TotalThreads; id++ {
		if id == 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
