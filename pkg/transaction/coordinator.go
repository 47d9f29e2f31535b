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

package transaction

import (
	"context"
	"log/slog"
	"time"

	"github.com/arkonlabs/arkon/pkg/backend"
	"github.com/arkonlabs/arkon/pkg/config"
	arkonerrors "github.com/arkonlabs/arkon/pkg/errors"
	"github.com/arkonlabs/arkon/pkg/params"
)

// Coordinator drives an apply through its full lifecycle: validate the
// requested change against a fresh read, apply with bounded retries,
// roll back best-effort on failure, and journal the outcome.
type Coordinator struct {
	kp         backend.KernelParams
	journal    *Journal
	maxRetries int
	backoff    time.Duration
	sleep      func(context.Context, time.Duration) error
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithSleep substitutes the inter-retry sleep, mainly for tests.
func WithSleep(sleep func(context.Context, time.Duration) error) CoordinatorOption {
	return func(c *Coordinator) {
		c.sleep = sleep
	}
}

// NewCoordinator creates a Coordinator over the given backend.
func NewCoordinator(cfg *config.Config, kp backend.KernelParams, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		kp:         kp,
		journal:    NewJournal(cfg.JournalPath()),
		maxRetries: cfg.ApplyMaxRetries,
		backoff:    cfg.ApplyRetryBackoff.Std(),
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Journal exposes the audit journal for read-side consumers.
func (c *Coordinator) Journal() *Journal {
	return c.journal
}

// Apply runs one transaction persisting target, labeled with the profile
// name for the audit trail. The returned Record is terminal; its Status
// tells the caller what actually happened. A non-nil error always
// accompanies a non-APPLIED status.
//
// The VALIDATING stage re-reads the live set and recomputes the diff, so
// a request computed against stale state collapses to the real change. An
// empty diff ends the transaction APPLIED with NoChange set, without
// touching the backend.
func (c *Coordinator) Apply(ctx context.Context, target *params.Set, profile string) (*Record, error) {
	rec := newRecord(c.kp.Kind(), profile)
	start := time.Now()
	defer func() {
		rec.EndedAt = time.Now().UTC()
		applyDuration.Observe(time.Since(start).Seconds())
		applyTotal.WithLabelValues(c.kp.Kind().String(), string(rec.Status)).Inc()
		if err := c.journal.Append(rec); err != nil {
			slog.Warn("failed to journal transaction", "id", rec.ID, "error", err)
		}
	}()

	rec.Status = StatusValidating
	current, err := c.kp.Current(ctx)
	if err != nil {
		return c.fail(rec, err)
	}

	diff := current.Diff(target)
	rec.Requested = summarize(diff)
	if diff.Empty() {
		rec.Status = StatusApplied
		rec.NoChange = true
		slog.Info("target already in effect, nothing to apply", "id", rec.ID)
		return rec, nil
	}

	rec.Status = StatusApplying
	if err := c.applyWithRetry(ctx, rec, target); err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
		c.rollback(ctx, rec, current, err)
		return rec, err
	}

	rec.Status = StatusApplied
	slog.Info("apply transaction complete",
		"id", rec.ID,
		"backend", c.kp.Kind().String(),
		"attempts", rec.Attempts,
		"added", len(diff.Added),
		"removed", len(diff.Removed),
		"changed", len(diff.Changed))
	return rec, nil
}

// applyWithRetry retries transient failures with doubling backoff.
// Structural failures return immediately.
func (c *Coordinator) applyWithRetry(ctx context.Context, rec *Record, target *params.Set) error {
	delay := c.backoff
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		rec.Attempts = attempt + 1
		if err = c.kp.Apply(ctx, target); err == nil {
			return nil
		}
		if !backend.IsTransient(err) || attempt == c.maxRetries {
			return err
		}
		applyRetries.Inc()
		slog.Warn("transient apply failure, retrying",
			"id", rec.ID, "attempt", attempt+1, "backoff", delay.String(), "error", err)
		if serr := c.sleep(ctx, delay); serr != nil {
			return err
		}
		delay *= 2
	}
	return err
}

// rollback restores the pre-transaction set after a failed apply. On
// platforms with native rollback the prior deployment is still bootable,
// so only the journal status is updated. A REGENERATION_FAILURE means
// the backend already put its pre-transaction state back, so re-applying
// would only repeat the failing regeneration. The rollback itself is not
// retried; a second failure here leaves the record ROLLBACK_FAILED for
// the operator.
func (c *Coordinator) rollback(ctx context.Context, rec *Record, previous *params.Set, cause error) {
	if c.kp.SupportsNativeRollback() {
		rec.Status = StatusRolledBack
		rollbackTotal.WithLabelValues("rolled_back").Inc()
		slog.Info("apply failed, prior deployment remains bootable", "id", rec.ID)
		return
	}

	if arkonerrors.HasCode(cause, arkonerrors.ErrCodeRegeneration) {
		rec.Status = StatusRolledBack
		rollbackTotal.WithLabelValues("rolled_back").Inc()
		slog.Info("backend restored its pre-transaction state", "id", rec.ID)
		return
	}

	if err := c.kp.Apply(ctx, previous); err != nil {
		rec.Status = StatusRollbackFailed
		rollbackTotal.WithLabelValues("rollback_failed").Inc()
		slog.Error("rollback failed, system may be in inconsistent state",
			"id", rec.ID, "error", err)
		return
	}
	rec.Status = StatusRolledBack
	rollbackTotal.WithLabelValues("rolled_back").Inc()
	slog.Info("rolled back to pre-transaction parameters", "id", rec.ID)
}

func (c *Coordinator) fail(rec *Record, err error) (*Record, error) {
	rec.Status = StatusFailed
	rec.Error = err.Error()
	return rec, err
}

// summarize flattens a parameter diff into the journal form.
func summarize(d params.Diff) ChangeSummary {
	var s ChangeSummary
	for _, tok := range d.Added {
		s.Added = append(s.Added, tok.Raw())
	}
	for _, tok := range d.Removed {
		s.Removed = append(s.Removed, tok.Raw())
	}
	for _, ch := range d.Changed {
		s.Changed = append(s.Changed, ch.Old.Raw()+" -> "+ch.New.Raw())
	}
	return s
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
