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

package defaults

import "time"

// Backend timeouts for reading and mutating boot configuration.
const (
	// SysfsReadTimeout bounds topology reads from /sys and /proc.
	SysfsReadTimeout = 5 * time.Second

	// ApplyTimeout is the overall ceiling for a single backend apply,
	// including bootloader config regeneration.
	ApplyTimeout = 5 * time.Minute

	// RegenerateTimeout bounds the grub2-mkconfig / update-grub invocation.
	RegenerateTimeout = 2 * time.Minute

	// KargsTimeout bounds a single batched rpm-ostree kargs invocation.
	KargsTimeout = 3 * time.Minute

	// StatusTimeout bounds one rpm-ostree status --json query.
	StatusTimeout = 15 * time.Second
)

// Transaction wait and retry parameters.
const (
	// TransactionWaitCeiling is the maximum total time to wait for an
	// in-progress rpm-ostree transaction to clear before surfacing a
	// stuck-transaction error.
	TransactionWaitCeiling = 90 * time.Second

	// TransactionPollInterval is the pacing between status polls while
	// waiting for an in-progress transaction.
	TransactionPollInterval = 3 * time.Second

	// ApplyMaxRetries is the number of additional attempts after the first
	// apply fails with a transient error. Structural errors never retry.
	ApplyMaxRetries = 2

	// ApplyRetryBackoff is the initial backoff between apply retries.
	// Doubled after each attempt.
	ApplyRetryBackoff = 2 * time.Second
)

// Topology classification tunables.
const (
	// ECoreFreqRatio is the default maximum-frequency ratio below which a
	// core is classified as an efficiency core relative to the modal
	// cluster. Cores at or above the ratio are performance cores.
	ECoreFreqRatio = 0.90

	// ECoreFallbackFraction is the fraction of trailing logical CPUs that
	// heuristic callers may treat as efficiency cores when frequency data
	// is unavailable. Kept configurable; validated against a single
	// reference hybrid part, so not trusted as a constant.
	ECoreFallbackFraction = 0.25
)
