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
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/arkonlabs/arkon/pkg/defaults"
	"github.com/arkonlabs/arkon/pkg/params"
)

const defaultSysfsRoot = "/sys/devices/system/cpu"

var cpuDirPattern = regexp.MustCompile(`^cpu(\d+)$`)

// Detect reads per-CPU frequency and sibling data from sysfs and
// classifies it. Unreadable or incomplete data degrades to the non-hybrid
// fallback rather than failing: callers must skip isolation, not guess.
func (d *Detector) Detect(ctx context.Context) (Topology, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.SysfsReadTimeout)
	defer cancel()

	entries, err := os.ReadDir(d.sysfsRoot)
	if err != nil {
		slog.Warn("cannot read CPU topology, falling back to non-hybrid",
			"root", d.sysfsRoot, "error", err)
		return Topology{}, nil
	}

	var ids []int
	for _, entry := range entries {
		m := cpuDirPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var mu sync.Mutex
	cpus := make([]CPU, 0, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cpu := d.readCPU(id)
			mu.Lock()
			cpus = append(cpus, cpu)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Topology{}, err
	}

	sort.Slice(cpus, func(i, j int) bool { return cpus[i].ID < cpus[j].ID })
	return d.Classify(cpus), nil
}

// readCPU reads one logical CPU's max frequency and sibling list. Missing
// files leave zero values; classification treats those as unknown.
func (d *Detector) readCPU(id int) CPU {
	cpu := CPU{ID: id}
	base := filepath.Join(d.sysfsRoot, "cpu"+strconv.Itoa(id))

	if b, err := os.ReadFile(filepath.Join(base, "cpufreq", "cpuinfo_max_freq")); err == nil {
		if freq, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64); err == nil {
			cpu.MaxFreqKHz = freq
		}
	}

	if b, err := os.ReadFile(filepath.Join(base, "topology", "thread_siblings_list")); err == nil {
		if siblings, err := params.ParseCPUList(strings.TrimSpace(string(b))); err == nil {
			cpu.Siblings = siblings
		}
	}

	return cpu
}
