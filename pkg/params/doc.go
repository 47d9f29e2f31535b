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

// Package params models kernel command-line parameters as tokenized,
// deduplicated sets with merge, diff, and canonical serialization.
//
// A Set is keyed by parameter name; keys are unique unless the kernel
// accepts repeats (console, module_blacklist). Serialization is key-sorted
// and deterministic, so String(Parse(x)) is a fixed point and two sets
// with the same parameters always render identically. This property is
// what makes profile files diffable and round-trip safe.
//
// CPU-list helpers (ParseCPUList, FormatCPUList) are shared with the
// topology package for isolcpus/nohz_full/rcu_nocbs values.
package params
