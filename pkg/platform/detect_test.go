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

package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/arkonlabs/arkon/pkg/backend"
	"github.com/arkonlabs/arkon/pkg/config"
	arkonerrors "github.com/arkonlabs/arkon/pkg/errors"
)

// fakeRoot builds a minimal filesystem image for detection probes.
func fakeRoot(t *testing.T, ostreeBooted bool, osRelease string) string {
	t.Helper()
	root := t.TempDir()
	if ostreeBooted {
		if err := os.MkdirAll(filepath.Join(root, "run"), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(root, "run", "ostree-booted"), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if osRelease != "" {
		if err := os.MkdirAll(filepath.Join(root, "etc"), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(root, "etc", "os-release"), []byte(osRelease), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func noCommands(string) (string, error) {
	return "", fmt.Errorf("not found")
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name         string
		ostreeBooted bool
		osRelease    string
		lookPath     func(string) (string, error)
		want         Platform
	}{
		{
			name:         "ostree booted wins over os-release",
			ostreeBooted: true,
			osRelease:    "ID=fedora\nVARIANT_ID=silverblue\n",
			lookPath:     noCommands,
			want:         PlatformRpmOstree,
		},
		{
			name:      "fedora is grub-rpm",
			osRelease: "ID=fedora\nNAME=\"Fedora Linux\"\n",
			lookPath:  noCommands,
			want:      PlatformGrubRPM,
		},
		{
			name:      "rhel-like is grub-rpm",
			osRelease: "ID=rocky\nID_LIKE=\"rhel centos fedora\"\n",
			lookPath:  noCommands,
			want:      PlatformGrubRPM,
		},
		{
			name:      "ubuntu is grub-debian",
			osRelease: "ID=ubuntu\nID_LIKE=debian\n",
			lookPath:  noCommands,
			want:      PlatformGrubDebian,
		},
		{
			name:      "unknown distro falls back to grub2-mkconfig probe",
			osRelease: "ID=arkonos\n",
			lookPath: func(cmd string) (string, error) {
				if cmd == "grub2-mkconfig" {
					return "/usr/sbin/grub2-mkconfig", nil
				}
				return "", fmt.Errorf("not found")
			},
			want: PlatformGrubRPM,
		},
		{
			name:      "unknown distro falls back to update-grub probe",
			osRelease: "ID=arkonos\n",
			lookPath: func(cmd string) (string, error) {
				if cmd == "update-grub" {
					return "/usr/sbin/update-grub", nil
				}
				return "", fmt.Errorf("not found")
			},
			want: PlatformGrubDebian,
		},
		{
			name:     "nothing recognizable is unknown",
			lookPath: noCommands,
			want:     PlatformUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := fakeRoot(t, tt.ostreeBooted, tt.osRelease)
			got := NewDetector(WithRootFS(root), WithLookPath(tt.lookPath)).Detect()
			if got != tt.want {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewServicesSelectsBackend(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		name      string
		osRelease string
		wantKind  backend.Kind
	}{
		{"fedora", "ID=fedora\n", backend.KindGrub},
		{"debian", "ID=debian\n", backend.KindGrub},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := fakeRoot(t, false, tt.osRelease)
			svc, err := NewServices(cfg, WithRootFS(root), WithLookPath(noCommands))
			if err != nil {
				t.Fatalf("NewServices() error = %v", err)
			}
			if svc.KernelParams.Kind() != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", svc.KernelParams.Kind(), tt.wantKind)
			}
		})
	}
}

func TestNewServicesOstree(t *testing.T) {
	root := fakeRoot(t, true, "")
	svc, err := NewServices(config.Default(), WithRootFS(root), WithLookPath(noCommands))
	if err != nil {
		t.Fatalf("NewServices() error = %v", err)
	}
	if svc.KernelParams.Kind() != backend.KindRpmOstree {
		t.Errorf("Kind() = %v, want rpm-ostree", svc.KernelParams.Kind())
	}
	if svc.KernelParams.SupportsNativeRollback() != true {
		t.Error("rpm-ostree backend should support native rollback")
	}
}

func TestNewServicesUnknownPlatform(t *testing.T) {
	root := fakeRoot(t, false, "")
	_, err := NewServices(config.Default(), WithRootFS(root), WithLookPath(noCommands))
	if err == nil {
		t.Fatal("expected error for unknown platform")
	}
	if !arkonerrors.HasCode(err, arkonerrors.ErrCodeBackendUnavailable) {
		t.Errorf("error code = %v, want BACKEND_UNAVAILABLE", arkonerrors.CodeOf(err))
	}
}
