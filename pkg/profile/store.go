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

package profile

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/arkonlabs/arkon/pkg/backend"
	"github.com/arkonlabs/arkon/pkg/config"
	arkonerrors "github.com/arkonlabs/arkon/pkg/errors"
	"github.com/arkonlabs/arkon/pkg/fileparse"
	"github.com/arkonlabs/arkon/pkg/params"
	"github.com/arkonlabs/arkon/pkg/transaction"
)

const (
	profileExt = ".conf"

	// BaselineName is the reserved profile holding the first-seen
	// parameter set, the restore point for everything else.
	BaselineName = "baseline"

	// currentName is the reserved snapshot of the live set captured
	// immediately before each apply.
	currentName = "current"
)

var nameRE = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Store persists named kernel-parameter profiles as canonical .conf
// snapshots under a state directory and applies them through the
// transaction coordinator.
type Store struct {
	dir  string
	kp   backend.KernelParams
	coor *transaction.Coordinator
}

// NewStore creates a Store rooted at cfg.ProfileDir().
func NewStore(cfg *config.Config, kp backend.KernelParams, coor *transaction.Coordinator) *Store {
	return &Store{
		dir:  cfg.ProfileDir(),
		kp:   kp,
		coor: coor,
	}
}

// SaveResult reports whether a save created a new profile or found an
// existing one. Finding one is a benign outcome, not an error.
type SaveResult struct {
	Name    string
	Path    string
	Created bool
}

// SaveBaseline captures the live parameter set as the baseline profile.
// It is idempotent: an existing baseline is never overwritten, because
// overwriting it would destroy the only trustworthy restore point.
func (s *Store) SaveBaseline(ctx context.Context) (*SaveResult, error) {
	path := s.path(BaselineName)
	if _, err := os.Stat(path); err == nil {
		return &SaveResult{Name: BaselineName, Path: path, Created: false}, nil
	}

	current, err := s.kp.Current(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.write(BaselineName, current, "live:"+s.kp.Kind().String()); err != nil {
		return nil, err
	}
	return &SaveResult{Name: BaselineName, Path: path, Created: true}, nil
}

// SaveProfile persists set under name. Overwriting an existing profile
// requires overwrite=true; the baseline is never overwritable.
func (s *Store) SaveProfile(name string, set *params.Set, overwrite bool) (*SaveResult, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if name == BaselineName || name == currentName {
		return nil, arkonerrors.New(arkonerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("profile name %q is reserved", name))
	}

	path := s.path(name)
	if _, err := os.Stat(path); err == nil && !overwrite {
		return nil, arkonerrors.NewWithContext(arkonerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("profile %q already exists (use overwrite to replace it)", name),
			map[string]any{"path": path})
	}

	if err := s.write(name, set, "manual"); err != nil {
		return nil, err
	}
	return &SaveResult{Name: name, Path: path, Created: true}, nil
}

// LoadProfile reads a named profile back into a parameter set.
func (s *Store) LoadProfile(name string) (*params.Set, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	lines, err := fileparse.NewParser().GetLines(s.path(name))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, s.notFound(name)
		}
		return nil, arkonerrors.Wrap(arkonerrors.ErrCodeInternal,
			fmt.Sprintf("failed to read profile %q", name), err)
	}
	if len(lines) == 0 {
		return params.NewSet(), nil
	}
	// The comment header is skipped by the parser; the single remaining
	// line is the canonical command line.
	set, err := params.Parse(strings.Join(lines, " "))
	if err != nil {
		return nil, arkonerrors.Wrap(arkonerrors.ErrCodeParse,
			fmt.Sprintf("profile %q is corrupt", name), err)
	}
	return set, nil
}

// ApplyProfile applies a named profile through the transaction
// coordinator. The live set is snapshotted to the current profile first,
// and an advisory lock on the store directory serializes concurrent
// applies from other processes.
func (s *Store) ApplyProfile(ctx context.Context, name string) (*transaction.Record, error) {
	target, err := s.LoadProfile(name)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	// The pre-apply snapshot is the rollback source; applying without it
	// would leave no way back, so a failed read aborts the apply.
	current, err := s.kp.Current(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.write(currentName, current, "pre-apply:"+name); err != nil {
		return nil, err
	}

	return s.coor.Apply(ctx, target, name)
}

// RestoreBaseline applies the baseline profile.
func (s *Store) RestoreBaseline(ctx context.Context) (*transaction.Record, error) {
	return s.ApplyProfile(ctx, BaselineName)
}

// DiffProfile compares the live set against a named profile without
// modifying anything.
func (s *Store) DiffProfile(ctx context.Context, name string) (params.Diff, error) {
	target, err := s.LoadProfile(name)
	if err != nil {
		return params.Diff{}, err
	}
	current, err := s.kp.Current(ctx)
	if err != nil {
		return params.Diff{}, err
	}
	return current.Diff(target), nil
}

// ListProfiles returns the saved profile names in sorted order. The
// current snapshot is internal bookkeeping and excluded.
func (s *Store) ListProfiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, arkonerrors.Wrap(arkonerrors.ErrCodeInternal,
			"failed to read profile directory", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), profileExt) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), profileExt)
		if name == currentName {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteProfile removes a named profile. The baseline cannot be deleted.
func (s *Store) DeleteProfile(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if name == BaselineName {
		return arkonerrors.New(arkonerrors.ErrCodeInvalidRequest,
			"the baseline profile cannot be deleted")
	}
	if err := os.Remove(s.path(name)); err != nil {
		if os.IsNotExist(err) {
			return s.notFound(name)
		}
		return arkonerrors.Wrap(arkonerrors.ErrCodeInternal,
			fmt.Sprintf("failed to delete profile %q", name), err)
	}
	return nil
}

// write persists a profile atomically: temp file in the same directory,
// fsync, rename.
func (s *Store) write(name string, set *params.Set, source string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return arkonerrors.Wrap(arkonerrors.ErrCodeInternal,
			"failed to create profile directory", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# captured-at: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "# source: %s\n", source)
	sb.WriteString(set.String())
	sb.WriteString("\n")

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return arkonerrors.Wrap(arkonerrors.ErrCodeInternal,
			"failed to create temp profile file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		return arkonerrors.Wrap(arkonerrors.ErrCodeInternal,
			"failed to write profile", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return arkonerrors.Wrap(arkonerrors.ErrCodeInternal,
			"failed to sync profile", err)
	}
	if err := tmp.Close(); err != nil {
		return arkonerrors.Wrap(arkonerrors.ErrCodeInternal,
			"failed to close profile", err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return arkonerrors.Wrap(arkonerrors.ErrCodeInternal,
			fmt.Sprintf("failed to persist profile %q", name), err)
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+profileExt)
}

func validateName(name string) error {
	if !nameRE.MatchString(name) {
		return arkonerrors.New(arkonerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid profile name %q", name))
	}
	return nil
}
