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
	"path/filepath"
	"testing"
	"time"

	"github.com/arkonlabs/arkon/pkg/backend"
	"github.com/arkonlabs/arkon/pkg/config"
	arkonerrors "github.com/arkonlabs/arkon/pkg/errors"
	"github.com/arkonlabs/arkon/pkg/params"
)

// fakeBackend scripts Current/Apply behavior for coordinator tests.
type fakeBackend struct {
	kind           backend.Kind
	nativeRollback bool
	current        *params.Set

	applyErrs   []error // consumed one per Apply call
	applied     []*params.Set
	currentErr  error
	applyCalls  int
}

func (f *fakeBackend) Kind() backend.Kind { return f.kind }

func (f *fakeBackend) SupportsNativeRollback() bool { return f.nativeRollback }

func (f *fakeBackend) Current(_ context.Context) (*params.Set, error) {
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.current.Clone(), nil
}

func (f *fakeBackend) Apply(_ context.Context, target *params.Set) error {
	f.applyCalls++
	f.applied = append(f.applied, target.Clone())
	if len(f.applyErrs) > 0 {
		err := f.applyErrs[0]
		f.applyErrs = f.applyErrs[1:]
		return err
	}
	f.current = target.Clone()
	return nil
}

func mustParse(t *testing.T, raw string) *params.Set {
	t.Helper()
	set, err := params.Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", raw, err)
	}
	return set
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.StateDir = t.TempDir()
	cfg.ApplyRetryBackoff = config.Duration(time.Millisecond)
	return cfg
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func TestApplySuccess(t *testing.T) {
	fb := &fakeBackend{kind: backend.KindGrub, current: mustParse(t, "quiet ro")}
	cfg := testConfig(t)
	c := NewCoordinator(cfg, fb, WithSleep(noSleep))

	rec, err := c.Apply(context.Background(), mustParse(t, "quiet ro isolcpus=2-3"), "latency")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if rec.Status != StatusApplied {
		t.Errorf("Status = %v, want APPLIED", rec.Status)
	}
	if rec.NoChange {
		t.Error("NoChange should be false for a real diff")
	}
	if rec.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", rec.Attempts)
	}
	if len(rec.Requested.Added) != 1 || rec.Requested.Added[0] != "isolcpus=2-3" {
		t.Errorf("Requested.Added = %v, want [isolcpus=2-3]", rec.Requested.Added)
	}
	if rec.ID == "" || rec.EndedAt.IsZero() {
		t.Error("record missing ID or end timestamp")
	}
}

func TestApplyNoChange(t *testing.T) {
	fb := &fakeBackend{kind: backend.KindGrub, current: mustParse(t, "quiet isolcpus=2-3")}
	c := NewCoordinator(testConfig(t), fb, WithSleep(noSleep))

	// Same set in different textual order.
	rec, err := c.Apply(context.Background(), mustParse(t, "isolcpus=2-3 quiet"), "")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if rec.Status != StatusApplied || !rec.NoChange {
		t.Errorf("got status=%v noChange=%v, want APPLIED with NoChange", rec.Status, rec.NoChange)
	}
	if fb.applyCalls != 0 {
		t.Errorf("backend Apply called %d times for a no-op", fb.applyCalls)
	}
}

func TestApplyRetriesTransient(t *testing.T) {
	transient := arkonerrors.New(arkonerrors.ErrCodeTimeout, "command timed out")
	fb := &fakeBackend{
		kind:      backend.KindGrub,
		current:   mustParse(t, "quiet"),
		applyErrs: []error{transient, transient},
	}
	cfg := testConfig(t)
	cfg.ApplyMaxRetries = 2
	c := NewCoordinator(cfg, fb, WithSleep(noSleep))

	rec, err := c.Apply(context.Background(), mustParse(t, "quiet mitigations=off"), "")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if rec.Status != StatusApplied {
		t.Errorf("Status = %v, want APPLIED after retries", rec.Status)
	}
	if rec.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", rec.Attempts)
	}
}

func TestApplyStructuralFailureNoRetry(t *testing.T) {
	structural := arkonerrors.New(arkonerrors.ErrCodePermissionDenied, "permission denied")
	fb := &fakeBackend{
		kind:      backend.KindRpmOstree,
		nativeRollback: true,
		current:   mustParse(t, "quiet"),
		applyErrs: []error{structural, structural, structural},
	}
	cfg := testConfig(t)
	cfg.ApplyMaxRetries = 2
	c := NewCoordinator(cfg, fb, WithSleep(noSleep))

	rec, err := c.Apply(context.Background(), mustParse(t, "quiet nohz_full=4-7"), "")
	if err == nil {
		t.Fatal("expected error")
	}
	if fb.applyCalls != 1 {
		t.Errorf("structural failure retried: %d apply calls", fb.applyCalls)
	}
	// Native rollback means the prior deployment is intact.
	if rec.Status != StatusRolledBack {
		t.Errorf("Status = %v, want ROLLED_BACK", rec.Status)
	}
	if rec.Error == "" {
		t.Error("record should carry the failure message")
	}
}

func TestApplyRollbackReappliesPrevious(t *testing.T) {
	structural := arkonerrors.New(arkonerrors.ErrCodeInternal, "cannot rename GRUB defaults into place")
	fb := &fakeBackend{
		kind:      backend.KindGrub,
		current:   mustParse(t, "quiet ro"),
		applyErrs: []error{structural},
	}
	c := NewCoordinator(testConfig(t), fb, WithSleep(noSleep))

	_, err := c.Apply(context.Background(), mustParse(t, "quiet ro isolcpus=8-15"), "")
	if err == nil {
		t.Fatal("expected error")
	}
	if fb.applyCalls != 2 {
		t.Fatalf("apply calls = %d, want 2 (apply + rollback)", fb.applyCalls)
	}
	if !fb.applied[1].Equal(mustParse(t, "quiet ro")) {
		t.Errorf("rollback applied %q, want pre-transaction set", fb.applied[1].String())
	}
}

func TestApplyRegenerationFailureSkipsReapply(t *testing.T) {
	// REGENERATION_FAILURE means the backend already restored its
	// pre-transaction state; re-applying would just rerun the failing
	// regeneration.
	regen := arkonerrors.New(arkonerrors.ErrCodeRegeneration, "grub2-mkconfig failed, GRUB defaults restored")
	fb := &fakeBackend{
		kind:      backend.KindGrub,
		current:   mustParse(t, "quiet ro"),
		applyErrs: []error{regen},
	}
	c := NewCoordinator(testConfig(t), fb, WithSleep(noSleep))

	rec, err := c.Apply(context.Background(), mustParse(t, "quiet ro isolcpus=8-15"), "")
	if err == nil {
		t.Fatal("expected error")
	}
	if fb.applyCalls != 1 {
		t.Fatalf("apply calls = %d, want 1 (no rollback re-apply)", fb.applyCalls)
	}
	if rec.Status != StatusRolledBack {
		t.Errorf("Status = %v, want ROLLED_BACK", rec.Status)
	}
}

func TestApplyRollbackFailure(t *testing.T) {
	boom := arkonerrors.New(arkonerrors.ErrCodeInternal, "defaults write failed")
	fb := &fakeBackend{
		kind:      backend.KindGrub,
		current:   mustParse(t, "quiet"),
		applyErrs: []error{boom, boom}, // apply fails, rollback fails too
	}
	c := NewCoordinator(testConfig(t), fb, WithSleep(noSleep))

	rec, err := c.Apply(context.Background(), mustParse(t, "quiet splash"), "")
	if err == nil {
		t.Fatal("expected error")
	}
	if rec.Status != StatusRollbackFailed {
		t.Errorf("Status = %v, want ROLLBACK_FAILED", rec.Status)
	}
}

func TestApplyJournalsFailures(t *testing.T) {
	cfg := testConfig(t)
	fb := &fakeBackend{
		kind:       backend.KindGrub,
		currentErr: arkonerrors.New(arkonerrors.ErrCodeBackendUnavailable, "no defaults file"),
	}
	c := NewCoordinator(cfg, fb, WithSleep(noSleep))

	if _, err := c.Apply(context.Background(), mustParse(t, "quiet"), "latency"); err == nil {
		t.Fatal("expected error")
	}

	records, err := c.Journal().List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("journal has %d records, want 1", len(records))
	}
	if records[0].Status != StatusFailed {
		t.Errorf("journaled status = %v, want FAILED", records[0].Status)
	}
	if records[0].Profile != "latency" {
		t.Errorf("journaled profile = %q, want latency", records[0].Profile)
	}
}

func TestJournalListNewestFirstWithLimit(t *testing.T) {
	j := NewJournal(filepath.Join(t.TempDir(), "transactions.jsonl"))
	for _, profile := range []string{"a", "b", "c"} {
		rec := newRecord(backend.KindGrub, profile)
		rec.Status = StatusApplied
		if err := j.Append(rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	records, err := j.List(2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Profile != "c" || records[1].Profile != "b" {
		t.Errorf("order = [%s %s], want [c b]", records[0].Profile, records[1].Profile)
	}
}

func TestJournalListMissingFile(t *testing.T) {
	j := NewJournal(filepath.Join(t.TempDir(), "nope.jsonl"))
	records, err := j.List(5)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records from missing journal, want 0", len(records))
	}
}
