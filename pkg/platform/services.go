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

	"github.com/arkonlabs/arkon/pkg/backend"
	"github.com/arkonlabs/arkon/pkg/backend/grub"
	"github.com/arkonlabs/arkon/pkg/backend/rpmostree"
	"github.com/arkonlabs/arkon/pkg/config"
	arkonerrors "github.com/arkonlabs/arkon/pkg/errors"
)

// Services bundles the platform-specific collaborators selected once at
// startup and injected into every consumer.
type Services struct {
	Platform     Platform
	KernelParams backend.KernelParams
	Config       *config.Config
}

// NewServices detects the platform and constructs the matching kernel
// parameter backend. An unsupported platform is a structural failure.
func NewServices(cfg *config.Config, opts ...DetectorOption) (*Services, error) {
	plat := NewDetector(opts...).Detect()

	var kp backend.KernelParams
	switch plat {
	case PlatformGrubRPM:
		kp = grub.New(cfg)
	case PlatformGrubDebian:
		kp = grub.New(cfg, grub.WithUpdateGrub(true))
	case PlatformRpmOstree:
		kp = rpmostree.New(cfg)
	default:
		return nil, arkonerrors.NewWithContext(arkonerrors.ErrCodeBackendUnavailable,
			"no supported bootloader backend for this system",
			map[string]any{"platform": plat.String()})
	}

	slog.Info("selected kernel parameter backend",
		"platform", plat.String(),
		"backend", kp.Kind().String(),
		"nativeRollback", kp.SupportsNativeRollback())

	return &Services{
		Platform:     plat,
		KernelParams: kp,
		Config:       cfg,
	}, nil
}
