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

package backend

import (
	"context"
	"errors"

	arkonerrors "github.com/arkonlabs/arkon/pkg/errors"
	"github.com/arkonlabs/arkon/pkg/params"
)

// Kind identifies a kernel-parameter backend implementation.
type Kind string

const (
	// KindGrub is the mutable GRUB2 defaults-file backend.
	KindGrub Kind = "grub"
	// KindRpmOstree is the transactional rpm-ostree kargs backend.
	KindRpmOstree Kind = "rpm-ostree"
)

// String returns the string representation of the backend Kind.
func (k Kind) String() string {
	return string(k)
}

// KernelParams is the contract both boot architectures implement. Exactly
// two implementations exist (grub, rpmostree); the platform detector
// selects one per process and injects it.
type KernelParams interface {
	// Kind identifies the backend.
	Kind() Kind

	// Current reads the live persisted parameter set. It returns a
	// BACKEND_UNAVAILABLE error on structural failure (missing config
	// file, daemon unreachable) and never a partial or guessed set.
	Current(ctx context.Context) (*params.Set, error)

	// Apply persists the target set with all-or-nothing semantics as seen
	// by the caller. The effect takes hold on next boot.
	Apply(ctx context.Context, target *params.Set) error

	// SupportsNativeRollback reports whether the platform itself can roll
	// back a deployment. When false, rollback means re-applying a
	// previously captured set through Apply.
	SupportsNativeRollback() bool
}

// IsTransient reports whether an apply failure is worth retrying:
// timeouts and busy daemons clear on their own, while structural failures
// (permission denied, malformed parameter, stuck transaction) do not.
func IsTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return arkonerrors.HasCode(err, arkonerrors.ErrCodeTimeout)
}
