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
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/arkonlabs/arkon/pkg/defaults"
)

// CPU is the raw per-logical-core input to classification.
type CPU struct {
	ID         int
	MaxFreqKHz int64
	Siblings   []int
}

// Topology is the classification result. Derived data only; recomputed
// per invocation and never persisted.
type Topology struct {
	TotalCores         int   `json:"totalCores" yaml:"totalCores"`
	TotalThreads       int   `json:"totalThreads" yaml:"totalThreads"`
	IsHybrid           bool  `json:"isHybrid" yaml:"isHybrid"`
	PCores             []int `json:"pCores,omitempty" yaml:"pCores,omitempty"`
	ECores             []int `json:"eCores,omitempty" yaml:"eCores,omitempty"`
	RecommendedIsolate []int `json:"recommendedIsolate,omitempty" yaml:"recommendedIsolate,omitempty"`
}

// Detector classifies CPUs into performance and efficiency clusters.
type Detector struct {
	sysfsRoot string
	freqRatio float64
}

// Option configures a Detector.
type Option func(*Detector)

// WithSysfsRoot overrides the sysfs CPU directory, mainly for tests.
func WithSysfsRoot(root string) Option {
	return func(d *Detector) {
		d.sysfsRoot = root
	}
}

// WithFreqRatio overrides the E-core frequency ratio threshold. Cores
// whose max frequency is below ratio * modal frequency are classified as
// efficiency cores.
func WithFreqRatio(ratio float64) Option {
	return func(d *Detector) {
		if ratio > 0 && ratio < 1 {
			d.freqRatio = ratio
		}
	}
}

// NewDetector creates a Detector with the provided options.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		sysfsRoot: defaultSysfsRoot,
		freqRatio: defaults.ECoreFreqRatio,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Classify derives a Topology from per-logical-core data. It never fails:
// unusable input produces the non-hybrid fallback with an empty isolation
// recommendation.
func (d *Detector) Classify(cpus []CPU) Topology {
	topo := Topology{
		TotalThreads: len(cpus),
		TotalCores:   countPhysicalCores(cpus),
	}
	if len(cpus) == 0 {
		return topo
	}

	modal := modalFrequency(cpus)
	if modal <= 0 {
		slog.Warn("no usable CPU frequency data, skipping hybrid classification")
		return topo
	}

	threshold := int64(float64(modal) * d.freqRatio)
	var pCores, eCores []int
	for _, cpu := range cpus {
		if cpu.MaxFreqKHz > 0 && cpu.MaxFreqKHz < threshold {
			eCores = append(eCores, cpu.ID)
		} else {
			pCores = append(pCores, cpu.ID)
		}
	}
	sort.Ints(pCores)
	sort.Ints(eCores)

	if !plausibleHybrid(pCores, eCores) {
		slog.Debug("frequency clusters not plausibly hybrid",
			"pCores", len(pCores), "eCores", len(eCores))
		return topo
	}

	topo.IsHybrid = true
	topo.PCores = pCores
	topo.ECores = eCores
	topo.RecommendedIsolate = withoutCPUZero(eCores)
	return topo
}

// modalFrequency returns the max frequency shared by the largest cluster
// of CPUs. Ties resolve to the higher frequency so that a symmetric
// P/E split anchors on the performance cluster.
func modalFrequency(cpus []CPU) int64 {
	counts := make(map[int64]int)
	for _, cpu := range cpus {
		if cpu.MaxFreqKHz > 0 {
			counts[cpu.MaxFreqKHz]++
		}
	}

	var modal int64
	best := 0
	for freq, n := range counts {
		if n > best || (n == best && freq > modal) {
			modal = freq
			best = n
		}
	}
	return modal
}

// plausibleHybrid guards against noise misclassifying a near-uniform part
// as hybrid: both clusters must have at least two members and the smaller
// cluster at least a tenth of the larger.
func plausibleHybrid(pCores, eCores []int) bool {
	if len(pCores) < 2 || len(eCores) < 2 {
		return false
	}
	small, large := len(pCores), len(eCores)
	if small > large {
		small, large = large, small
	}
	return float64(small) >= 0.1*float64(large)
}

// withoutCPUZero filters CPU 0 out of an isolation candidate list. CPU 0
// must remain available for boot-critical interrupt handling regardless
// of its frequency classification.
func withoutCPUZero(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		out = append(out, id)
	}
	return out
}

// countPhysicalCores counts distinct sibling groups. CPUs without sibling
// data count as one core each.
func countPhysicalCores(cpus []CPU) int {
	seen := make(map[string]bool)
	singles := 0
	for _, cpu := range cpus {
		if len(cpu.Siblings) == 0 {
			singles++
			continue
		}
		ids := make([]int, len(cpu.Siblings))
		copy(ids, cpu.Siblings)
		sort.Ints(ids)
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = strconv.Itoa(id)
		}
		seen[strings.Join(parts, ",")] = true
	}
	return len(seen) + singles
}
