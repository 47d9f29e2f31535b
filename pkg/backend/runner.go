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
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	arkonerrors "github.com/arkonlabs/arkon/pkg/errors"
)

// Runner executes external commands. Backends depend on this interface so
// tests can substitute a fake and assert on invocations.
type Runner interface {
	// Run executes the named command and returns its stdout.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

// Run implements Runner. Stderr is captured into the returned error.
// Permission and timeout failures map to their structured error codes so
// the transaction coordinator can decide whether to retry.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, arkonerrors.WrapWithContext(arkonerrors.ErrCodeBackendUnavailable,
			name+" not found in PATH", err,
			map[string]any{"command": name})
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	slog.Debug("executed command",
		"command", name,
		"args", strings.Join(args, " "),
		"duration", time.Since(start),
		"error", err != nil)

	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		cctx := map[string]any{"command": name, "stderr": detail}

		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, arkonerrors.WrapWithContext(arkonerrors.ErrCodeTimeout,
				name+" timed out", err, cctx)
		case os.IsPermission(err) || strings.Contains(detail, "ermission denied"):
			return nil, arkonerrors.WrapWithContext(arkonerrors.ErrCodePermissionDenied,
				name+" requires elevated privileges", err, cctx)
		default:
			return nil, arkonerrors.WrapWithContext(arkonerrors.ErrCodeInternal,
				name+" failed", err, cctx)
		}
	}
	return stdout.Bytes(), nil
}
