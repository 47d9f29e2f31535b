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

// Package topology classifies performance and efficiency cores from sysfs
// frequency and sibling data, and derives CPU isolation recommendations.
//
// Classification clusters logical CPUs by maximum frequency: cores
// materially below the modal cluster are efficiency cores, the rest
// performance cores. The recommendation is derived data, recomputed per
// invocation and never persisted.
//
// Two safety rules hold under all inputs:
//
//   - CPU 0 is never recommended for isolation; it stays available for
//     boot-critical interrupt handling.
//   - When frequency data is unavailable or classification is ambiguous,
//     the detector reports a non-hybrid topology with no isolation
//     recommendation. Callers skip isolation rather than fabricate one.
package topology
