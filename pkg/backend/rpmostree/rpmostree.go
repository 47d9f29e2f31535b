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

// Package rpmostree implements the kernel-parameter backend for
// immutable, rpm-ostree managed systems.
//
// Every apply batches the entire diff into a single kargs invocation.
// Issuing one command per changed parameter serializes a D-Bus round
// trip per key and has been observed to overrun the daemon's transaction
// timeout and hang; the batched form makes partial application
// structurally impossible. Before applying, an in-progress daemon
// transaction is waited out with a bounded poll; exceeding the ceiling
// surfaces a STUCK_TRANSACTION error instead of blocking indefinitely.
//
// The platform's own deployment rollback (rpm-ostree rollback) exists as
// a documented escape hatch; this backend reports it via
// SupportsNativeRollback but never triggers it.
package rpmostree

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/dbus"
	"golang.org/x/time/rate"

	"github.com/arkonlabs/arkon/pkg/backend"
	"github.com/arkonlabs/arkon/pkg/config"
	"github.com/arkonlabs/arkon/pkg/defaults"
	arkonerrors "github.com/arkonlabs/arkon/pkg/errors"
	"github.com/arkonlabs/arkon/pkg/params"
)

const daemonUnit = "rpm-ostreed.service"

// Backend drives rpm-ostree kargs through the external command.
type Backend struct {
	runner       backend.Runner
	waitCeiling  time.Duration
	pollInterval time.Duration
	checkDaemon  func(ctx context.Context) error
}

// Option configures a Backend.
type Option func(*Backend)

// WithRunner substitutes the external command runner, mainly for tests.
func WithRunner(r backend.Runner) Option {
	return func(b *Backend) {
		b.runner = r
	}
}

// WithDaemonCheck substitutes the daemon reachability probe.
func WithDaemonCheck(check func(ctx context.Context) error) Option {
	return func(b *Backend) {
		b.checkDaemon = check
	}
}

// New creates an rpm-ostree backend from the config.
func New(cfg *config.Config, opts ...Option) *Backend {
	b := &Backend{
		runner:       backend.ExecRunner{},
		waitCeiling:  cfg.TransactionWaitCeiling.Std(),
		pollInterval: cfg.TransactionPollInterval.Std(),
	}
	b.checkDaemon = b.systemdDaemonCheck
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Kind implements backend.KernelParams.
func (b *Backend) Kind() backend.Kind {
	return backend.KindRpmOstree
}

// SupportsNativeRollback implements backend.KernelParams. The platform
// can roll back to the previous deployment, but this subsystem never
// triggers that automatically.
func (b *Backend) SupportsNativeRollback() bool {
	return true
}

// Current reads the persisted kernel arguments of the booted deployment.
func (b *Backend) Current(ctx context.Context) (*params.Set, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.StatusTimeout)
	defer cancel()

	out, err := b.runner.Run(ctx, "rpm-ostree", "kargs")
	if err != nil {
		return nil, arkonerrors.WrapWithContext(arkonerrors.ErrCodeBackendUnavailable,
			"cannot read kernel arguments from rpm-ostree", err,
			map[string]any{"backend": backend.KindRpmOstree.String()})
	}

	set, err := params.Parse(strings.TrimSpace(string(out)))
	if err != nil {
		return nil, arkonerrors.WrapWithContext(arkonerrors.ErrCodeParse,
			"malformed kargs output from rpm-ostree", err,
			map[string]any{"backend": backend.KindRpmOstree.String()})
	}
	return set, nil
}

// Apply batches the whole diff between the live set and target into one
// kargs invocation.
func (b *Backend) Apply(ctx context.Context, target *params.Set) error {
	if err := b.checkDaemon(ctx); err != nil {
		return err
	}
	if err := b.waitForIdle(ctx); err != nil {
		return err
	}

	current, err := b.Current(ctx)
	if err != nil {
		return err
	}

	args := kargsArgs(current.Diff(target))
	if len(args) == 0 {
		slog.Debug("rpm-ostree kargs already match target, nothing to apply")
		return nil
	}

	kargsCtx, cancel := context.WithTimeout(ctx, defaults.KargsTimeout)
	defer cancel()

	if _, err := b.runner.Run(kargsCtx, "rpm-ostree", append([]string{"kargs"}, args...)...); err != nil {
		return arkonerrors.WrapWithContext(arkonerrors.ErrCodeBackendUnavailable,
			"rpm-ostree kargs transaction failed", err,
			map[string]any{"backend": backend.KindRpmOstree.String(), "args": strings.Join(args, " ")})
	}

	slog.Info("rpm-ostree kernel arguments staged, effective on next boot",
		"changes", len(args))
	return nil
}

// kargsArgs flattens a diff into the flag list for a single kargs
// invocation: --append for additions, --delete for removals, --replace
// (or delete+append for form changes) for value changes.
func kargsArgs(diff params.Diff) []string {
	var args []string
	for _, tok := range diff.Added {
		args = append(args, "--append="+tok.Raw())
	}
	for _, ch := range diff.Changed {
		if ch.New.HasValue && ch.Old.HasValue {
			args = append(args, "--replace="+ch.New.Raw())
			continue
		}
		args = append(args, "--delete="+ch.Old.Raw(), "--append="+ch.New.Raw())
	}
	for _, tok := range diff.Removed {
		// Full KEY=VALUE form so only this occurrence of a multi-valued
		// key is deleted.
		args = append(args, "--delete="+tok.Raw())
	}
	return args
}

// waitForIdle polls transaction status until the daemon is idle, pacing
// polls with a rate limiter and giving up at the configured ceiling.
func (b *Backend) waitForIdle(ctx context.Context) error {
	deadline := time.Now().Add(b.waitCeiling)
	limiter := rate.NewLimiter(rate.Every(b.pollInterval), 1)

	waitCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	for {
		busy, err := b.transactionInProgress(ctx)
		if err != nil {
			return err
		}
		if !busy {
			return nil
		}

		if time.Now().After(deadline) {
			break
		}
		slog.Warn("rpm-ostree transaction in progress, waiting",
			"ceiling", b.waitCeiling)
		if err := limiter.Wait(waitCtx); err != nil {
			break
		}
	}

	return arkonerrors.NewWithContext(arkonerrors.ErrCodeStuckTransaction,
		fmt.Sprintf("rpm-ostree transaction still in progress after %s; cancel it externally (rpm-ostree cancel) and retry", b.waitCeiling),
		map[string]any{
			"backend": backend.KindRpmOstree.String(),
			"waited":  b.waitCeiling.String(),
		})
}

// transactionInProgress queries rpm-ostree status --json and reports
// whether a daemon transaction is active.
func (b *Backend) transactionInProgress(ctx context.Context) (bool, error) {
	statusCtx, cancel := context.WithTimeout(ctx, defaults.StatusTimeout)
	defer cancel()

	out, err := b.runner.Run(statusCtx, "rpm-ostree", "status", "--json")
	if err != nil {
		return false, arkonerrors.WrapWithContext(arkonerrors.ErrCodeBackendUnavailable,
			"cannot query rpm-ostree transaction status", err,
			map[string]any{"backend": backend.KindRpmOstree.String()})
	}

	var status struct {
		Transaction any `json:"transaction"`
	}
	if err := json.Unmarshal(out, &status); err != nil {
		return false, arkonerrors.Wrap(arkonerrors.ErrCodeInternal,
			"cannot parse rpm-ostree status output", err)
	}
	return status.Transaction != nil, nil
}

// systemdDaemonCheck verifies rpm-ostreed is loaded and not failed via
// the systemd D-Bus API.
func (b *Backend) systemdDaemonCheck(ctx context.Context) error {
	conn, err := dbus.NewSystemdConnectionContext(ctx)
	if err != nil {
		return arkonerrors.WrapWithContext(arkonerrors.ErrCodeBackendUnavailable,
			"cannot connect to systemd to check "+daemonUnit, err,
			map[string]any{"backend": backend.KindRpmOstree.String(), "unit": daemonUnit})
	}
	defer conn.Close()

	props, err := conn.GetUnitPropertiesContext(ctx, daemonUnit)
	if err != nil {
		return arkonerrors.WrapWithContext(arkonerrors.ErrCodeBackendUnavailable,
			"cannot query "+daemonUnit, err,
			map[string]any{"backend": backend.KindRpmOstree.String(), "unit": daemonUnit})
	}

	if load, ok := props["LoadState"].(string); ok && load == "not-found" {
		return arkonerrors.NewWithContext(arkonerrors.ErrCodeBackendUnavailable,
			daemonUnit+" is not installed",
			map[string]any{"backend": backend.KindRpmOstree.String(), "unit": daemonUnit})
	}
	if active, ok := props["ActiveState"].(string); ok && active == "failed" {
		return arkonerrors.NewWithContext(arkonerrors.ErrCodeBackendUnavailable,
			daemonUnit+" is in a failed state",
			map[string]any{"backend": backend.KindRpmOstree.String(), "unit": daemonUnit})
	}
	return nil
}
