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
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/arkonlabs/arkon/pkg/fileparse"
)

// Platform identifies the boot architecture of the running system.
type Platform string

const (
	// PlatformGrubRPM is a traditional RPM system regenerating config
	// with grub2-mkconfig.
	PlatformGrubRPM Platform = "grub-rpm"
	// PlatformGrubDebian is a Debian-family system using update-grub.
	PlatformGrubDebian Platform = "grub-debian"
	// PlatformRpmOstree is an immutable, rpm-ostree managed system.
	PlatformRpmOstree Platform = "rpm-ostree"
	// PlatformUnknown means no supported backend applies.
	PlatformUnknown Platform = "unknown"
)

// String returns the string representation of the Platform.
func (p Platform) String() string {
	return string(p)
}

// Detector probes the running system for its boot architecture.
type Detector struct {
	rootFS   string
	lookPath func(string) (string, error)
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithRootFS prefixes absolute probe paths, mainly for tests.
func WithRootFS(root string) DetectorOption {
	return func(d *Detector) {
		d.rootFS = root
	}
}

// WithLookPath substitutes PATH lookup, mainly for tests.
func WithLookPath(look func(string) (string, error)) DetectorOption {
	return func(d *Detector) {
		d.lookPath = look
	}
}

// NewDetector creates a platform detector.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{
		rootFS:   "/",
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect classifies the running system. Detection runs once per process;
// the selected backend is then injected everywhere.
func (d *Detector) Detect() Platform {
	// ostree-booted is the authoritative marker for immutable systems.
	if _, err := os.Stat(filepath.Join(d.rootFS, "run", "ostree-booted")); err == nil {
		slog.Debug("detected rpm-ostree system via /run/ostree-booted")
		return PlatformRpmOstree
	}

	release, err := fileparse.NewParser(fileparse.WithVTrimChars(`"`)).
		GetMap(filepath.Join(d.rootFS, "etc", "os-release"))
	if err != nil {
		slog.Warn("cannot read os-release, falling back to command probing", "error", err)
		release = map[string]string{}
	}

	family := strings.ToLower(release["ID"] + " " + release["ID_LIKE"])
	switch {
	case strings.Contains(family, "debian") || strings.Contains(family, "ubuntu"):
		return PlatformGrubDebian
	case strings.Contains(family, "fedora") || strings.Contains(family, "rhel") ||
		strings.Contains(family, "centos") || strings.Contains(family, "suse"):
		return PlatformGrubRPM
	}

	// Unrecognized distribution: fall back to whichever regeneration
	// command is installed.
	if _, err := d.lookPath("grub2-mkconfig"); err == nil {
		return PlatformGrubRPM
	}
	if _, err := d.lookPath("update-grub"); err == nil {
		return PlatformGrubDebian
	}
	return PlatformUnknown
}
