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

// Package grub implements the kernel-parameter backend for mutable
// GRUB2-based systems. Parameters live in the GRUB_CMDLINE_LINUX variable
// of the defaults file; applying rewrites that file atomically
// (temp+rename) and regenerates the boot config. A failed regeneration
// restores the original defaults file, so no partial state is ever
// visible. The effect of a successful apply takes hold on next boot.
package grub

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/arkonlabs/arkon/pkg/backend"
	"github.com/arkonlabs/arkon/pkg/config"
	"github.com/arkonlabs/arkon/pkg/defaults"
	arkonerrors "github.com/arkonlabs/arkon/pkg/errors"
	"github.com/arkonlabs/arkon/pkg/params"
)

const cmdlineVar = "GRUB_CMDLINE_LINUX"

// Backend reads and writes kernel parameters through the GRUB defaults
// file plus a config-regeneration command.
type Backend struct {
	defaultsPath string
	cfgPath      string
	runner       backend.Runner
	updateGrub   bool
}

// Option configures a Backend.
type Option func(*Backend)

// WithRunner substitutes the external command runner, mainly for tests.
func WithRunner(r backend.Runner) Option {
	return func(b *Backend) {
		b.runner = r
	}
}

// WithUpdateGrub switches regeneration to the Debian-style update-grub
// command instead of grub2-mkconfig.
func WithUpdateGrub(enabled bool) Option {
	return func(b *Backend) {
		b.updateGrub = enabled
	}
}

// New creates a GRUB backend from the config.
func New(cfg *config.Config, opts ...Option) *Backend {
	b := &Backend{
		defaultsPath: cfg.GrubDefaultsPath,
		cfgPath:      cfg.GrubConfigPath,
		runner:       backend.ExecRunner{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Kind implements backend.KernelParams.
func (b *Backend) Kind() backend.Kind {
	return backend.KindGrub
}

// SupportsNativeRollback implements backend.KernelParams. GRUB has no
// deployment history; rollback means re-applying a previously captured
// set through the same path.
func (b *Backend) SupportsNativeRollback() bool {
	return false
}

// Current reads GRUB_CMDLINE_LINUX from the defaults file. A missing
// file is a structural failure; a file without the variable is a
// legitimate empty set.
func (b *Backend) Current(_ context.Context) (*params.Set, error) {
	raw, err := os.ReadFile(b.defaultsPath)
	if err != nil {
		return nil, arkonerrors.WrapWithContext(arkonerrors.ErrCodeBackendUnavailable,
			"cannot read GRUB defaults file", err,
			map[string]any{"backend": backend.KindGrub.String(), "path": b.defaultsPath})
	}

	cmdline, _ := extractCmdline(string(raw))
	set, err := params.Parse(cmdline)
	if err != nil {
		return nil, arkonerrors.WrapWithContext(arkonerrors.ErrCodeParse,
			"malformed "+cmdlineVar+" in GRUB defaults", err,
			map[string]any{"backend": backend.KindGrub.String(), "path": b.defaultsPath})
	}
	return set, nil
}

// Apply rewrites GRUB_CMDLINE_LINUX and regenerates the boot config. On
// regeneration failure the original defaults file is restored before the
// error is returned, leaving the system in its pre-apply state.
func (b *Backend) Apply(ctx context.Context, target *params.Set) error {
	original, err := os.ReadFile(b.defaultsPath)
	if err != nil {
		code := arkonerrors.ErrCodeBackendUnavailable
		if os.IsPermission(err) {
			code = arkonerrors.ErrCodePermissionDenied
		}
		return arkonerrors.WrapWithContext(code,
			"cannot read GRUB defaults file", err,
			map[string]any{"backend": backend.KindGrub.String(), "path": b.defaultsPath})
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(b.defaultsPath); err == nil {
		mode = info.Mode().Perm()
	}

	rewritten := rewriteCmdline(string(original), target.String())
	if err := writeAtomic(b.defaultsPath, []byte(rewritten), mode); err != nil {
		return err
	}

	regenCtx, cancel := context.WithTimeout(ctx, defaults.RegenerateTimeout)
	defer cancel()

	name, args := b.regenCommand()
	if _, err := b.runner.Run(regenCtx, name, args...); err != nil {
		// Put the known-good defaults file back before surfacing the
		// failure; the write and the regeneration must succeed or fail
		// as a unit. REGENERATION_FAILURE means the restore succeeded
		// and the system is back in its pre-apply state.
		if restoreErr := writeAtomic(b.defaultsPath, original, mode); restoreErr != nil {
			slog.Error("failed to restore GRUB defaults after regeneration failure",
				"path", b.defaultsPath, "error", restoreErr)
			return arkonerrors.WrapWithContext(arkonerrors.ErrCodeInternal,
				name+" failed and GRUB defaults could not be restored", err,
				map[string]any{"backend": backend.KindGrub.String(), "command": name})
		}
		return arkonerrors.WrapWithContext(arkonerrors.ErrCodeRegeneration,
			name+" failed, GRUB defaults restored", err,
			map[string]any{"backend": backend.KindGrub.String(), "command": name})
	}

	slog.Info("GRUB kernel parameters applied, effective on next boot",
		"path", b.defaultsPath, "cmdline", target.String())
	return nil
}

// regenCommand returns the platform's config-regeneration invocation.
func (b *Backend) regenCommand() (string, []string) {
	if b.updateGrub {
		return "update-grub", nil
	}
	return "grub2-mkconfig", []string{"-o", b.cfgPath}
}

// extractCmdline finds the GRUB_CMDLINE_LINUX value in defaults-file
// text. Returns the unquoted value and whether the variable was present.
func extractCmdline(content string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, cmdlineVar+"=") {
			continue
		}
		value := strings.TrimPrefix(trimmed, cmdlineVar+"=")
		return unquoteValue(value), true
	}
	return "", false
}

// quoteValue wraps a cmdline in shell double quotes, escaping embedded
// backslashes and quotes. unquoteValue inverts it exactly, so a value
// written by Apply always reads back through Current unchanged.
func quoteValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// unquoteValue strips one pair of surrounding quotes and undoes
// backslash escaping inside double quotes.
func unquoteValue(s string) string {
	if len(s) < 2 {
		return s
	}
	quote := s[0]
	if (quote != '"' && quote != '\'') || s[len(s)-1] != quote {
		return s
	}
	s = s[1 : len(s)-1]
	if quote == '\'' {
		// Single quotes are literal in shell syntax.
		return s
	}

	var sb strings.Builder
	escaped := false
	for _, r := range s {
		if escaped {
			sb.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// rewriteCmdline replaces the GRUB_CMDLINE_LINUX line in defaults-file
// text, preserving every other line. The variable is appended when
// missing.
func rewriteCmdline(content, cmdline string) string {
	newLine := cmdlineVar + "=" + quoteValue(cmdline)

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), cmdlineVar+"=") {
			lines[i] = newLine
			return strings.Join(lines, "\n")
		}
	}

	out := strings.TrimRight(content, "\n")
	if out != "" {
		out += "\n"
	}
	return out + newLine + "\n"
}

// writeAtomic writes content via a temp file in the target directory
// followed by rename, so readers never observe a partial file.
func writeAtomic(path string, content []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		code := arkonerrors.ErrCodeInternal
		if os.IsPermission(err) {
			code = arkonerrors.ErrCodePermissionDenied
		}
		return arkonerrors.WrapWithContext(code,
			"cannot create temp file for GRUB defaults", err,
			map[string]any{"backend": backend.KindGrub.String(), "dir": dir})
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return arkonerrors.Wrap(arkonerrors.ErrCodeInternal, "cannot write GRUB defaults", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return arkonerrors.Wrap(arkonerrors.ErrCodeInternal, "cannot chmod GRUB defaults", err)
	}
	if err := tmp.Close(); err != nil {
		return arkonerrors.Wrap(arkonerrors.ErrCodeInternal, "cannot close GRUB defaults", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return arkonerrors.Wrap(arkonerrors.ErrCodeInternal, "cannot rename GRUB defaults into place", err)
	}
	return nil
}
