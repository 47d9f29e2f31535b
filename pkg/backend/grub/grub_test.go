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

package grub

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arkonlabs/arkon/pkg/backend"
	"github.com/arkonlabs/arkon/pkg/config"
	arkonerrors "github.com/arkonlabs/arkon/pkg/errors"
	"github.com/arkonlabs/arkon/pkg/params"
)

type call struct {
	name string
	args []string
}

// fakeRunner records invocations and returns canned results.
type fakeRunner struct {
	calls []call
	fail  bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.fail {
		return nil, errors.New("grub2-mkconfig: syntax error")
	}
	return nil, nil
}

const defaultsFixture = `# GRUB boot loader configuration
GRUB_TIMEOUT=5
GRUB_DISTRIBUTOR="$(sed 's, release .*$,,g' /etc/system-release)"
GRUB_CMDLINE_LINUX="quiet rhgb isolcpus=1-3"
GRUB_DISABLE_RECOVERY="true"
`

func testBackend(t *testing.T, fixture string) (*Backend, *fakeRunner, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "grub")
	if fixture != "" {
		if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.GrubDefaultsPath = path
	cfg.GrubConfigPath = filepath.Join(dir, "grub.cfg")

	runner := &fakeRunner{}
	return New(cfg, WithRunner(runner)), runner, path
}

func TestCurrent(t *testing.T) {
	b, _, _ := testBackend(t, defaultsFixture)

	set, err := b.Current(context.Background())
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if got := set.String(); got != "isolcpus=1-3 quiet rhgb" {
		t.Errorf("Current = %q, want canonical isolcpus=1-3 quiet rhgb", got)
	}
}

func TestCurrentMissingFileIsUnavailable(t *testing.T) {
	b, _, _ := testBackend(t, "")

	_, err := b.Current(context.Background())
	if err == nil {
		t.Fatal("expected error for missing defaults file")
	}
	if !arkonerrors.HasCode(err, arkonerrors.ErrCodeBackendUnavailable) {
		t.Errorf("expected BACKEND_UNAVAILABLE, got %v", err)
	}
}

func TestCurrentWithoutCmdlineVarIsEmpty(t *testing.T) {
	b, _, _ := testBackend(t, "GRUB_TIMEOUT=5\n")

	set, err := b.Current(context.Background())
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("expected empty set, got %s", set)
	}
}

func TestApplyRewritesAndRegenerates(t *testing.T) {
	b, runner, path := testBackend(t, defaultsFixture)

	target, _ := params.Parse("quiet isolcpus=8-15 nohz_full=8-15")
	if err := b.Apply(context.Background(), target); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `GRUB_CMDLINE_LINUX="isolcpus=8-15 nohz_full=8-15 quiet"`
	if !strings.Contains(string(content), want) {
		t.Errorf("defaults file missing %q:\n%s", want, content)
	}
	// Unrelated lines survive the rewrite.
	if !strings.Contains(string(content), "GRUB_TIMEOUT=5") {
		t.Error("unrelated GRUB_TIMEOUT line was lost")
	}

	if len(runner.calls) != 1 {
		t.Fatalf("expected exactly one regeneration call, got %d", len(runner.calls))
	}
	if runner.calls[0].name != "grub2-mkconfig" {
		t.Errorf("expected grub2-mkconfig, got %q", runner.calls[0].name)
	}
	if len(runner.calls[0].args) != 2 || runner.calls[0].args[0] != "-o" {
		t.Errorf("unexpected regeneration args %v", runner.calls[0].args)
	}
}

func TestApplyRestoresOnRegenerationFailure(t *testing.T) {
	b, runner, path := testBackend(t, defaultsFixture)
	runner.fail = true

	target, _ := params.Parse("quiet isolcpus=8-15")
	err := b.Apply(context.Background(), target)
	if err == nil {
		t.Fatal("expected regeneration failure")
	}
	if !arkonerrors.HasCode(err, arkonerrors.ErrCodeRegeneration) {
		t.Errorf("expected REGENERATION_FAILURE, got %v", err)
	}

	content, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(content) != defaultsFixture {
		t.Errorf("defaults file not restored after failed regeneration:\n%s", content)
	}
}

func TestApplyAppendsMissingVariable(t *testing.T) {
	b, _, path := testBackend(t, "GRUB_TIMEOUT=5\n")

	target, _ := params.Parse("quiet")
	if err := b.Apply(context.Background(), target); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), `GRUB_CMDLINE_LINUX="quiet"`) {
		t.Errorf("expected appended variable, got:\n%s", content)
	}
}

func TestApplyMissingFileIsUnavailable(t *testing.T) {
	b, runner, _ := testBackend(t, "")

	target, _ := params.Parse("quiet")
	err := b.Apply(context.Background(), target)
	if !arkonerrors.HasCode(err, arkonerrors.ErrCodeBackendUnavailable) {
		t.Errorf("expected BACKEND_UNAVAILABLE, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Error("regeneration must not run when the defaults file is unreadable")
	}
}

func TestUpdateGrubVariant(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grub")
	if err := os.WriteFile(path, []byte(defaultsFixture), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.GrubDefaultsPath = path
	runner := &fakeRunner{}
	b := New(cfg, WithRunner(runner), WithUpdateGrub(true))

	target, _ := params.Parse("quiet")
	if err := b.Apply(context.Background(), target); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(runner.calls) != 1 || runner.calls[0].name != "update-grub" {
		t.Errorf("expected single update-grub call, got %v", runner.calls)
	}
}

func TestKindAndRollback(t *testing.T) {
	b, _, _ := testBackend(t, defaultsFixture)
	if b.Kind() != backend.KindGrub {
		t.Errorf("Kind = %v, want grub", b.Kind())
	}
	if b.SupportsNativeRollback() {
		t.Error("grub backend has no native rollback")
	}
}

func TestExtractCmdlineQuoting(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`GRUB_CMDLINE_LINUX="quiet splash"`, "quiet splash"},
		{`GRUB_CMDLINE_LINUX='quiet'`, "quiet"},
		{`GRUB_CMDLINE_LINUX=quiet`, "quiet"},
		{`GRUB_CMDLINE_LINUX=""`, ""},
	}

	for _, tt := range tests {
		got, ok := extractCmdline(tt.line + "\n")
		if !ok {
			t.Errorf("variable not found in %q", tt.line)
			continue
		}
		if got != tt.want {
			t.Errorf("extractCmdline(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}

	if _, ok := extractCmdline("GRUB_TIMEOUT=5\n"); ok {
		t.Error("expected variable to be absent")
	}
}

func TestApplyQuotedValueRoundTrip(t *testing.T) {
	b, _, path := testBackend(t, defaultsFixture)

	target, err := params.Parse(`quiet dyndbg="file drivers/* +p"`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := b.Apply(context.Background(), target); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `GRUB_CMDLINE_LINUX="dyndbg=\"file drivers/* +p\" quiet"`
	if !strings.Contains(string(content), want) {
		t.Errorf("defaults file missing %q:\n%s", want, content)
	}

	// The backend must be able to read back the file it just wrote.
	got, err := b.Current(context.Background())
	if err != nil {
		t.Fatalf("Current after Apply failed: %v", err)
	}
	if !got.Equal(target) {
		t.Errorf("round trip mismatch: got %q want %q", got.String(), target.String())
	}
}

func TestQuoteUnquoteValue(t *testing.T) {
	tests := []string{
		"",
		"quiet splash",
		`dyndbg="file drivers/* +p"`,
		`path=C:\\dos quiet`,
	}
	for _, tt := range tests {
		if got := unquoteValue(quoteValue(tt)); got != tt {
			t.Errorf("unquote(quote(%q)) = %q", tt, got)
		}
	}
}
