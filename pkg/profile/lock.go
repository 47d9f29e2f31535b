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
	"os"
	"path/filepath"
	"syscall"

	arkonerrors "github.com/arkonlabs/arkon/pkg/errors"
)

// lock takes an exclusive advisory flock on the store directory so two
// arkon processes cannot interleave capture-then-apply sequences. The
// lock does not protect against other tools editing the bootloader
// config directly.
func (s *Store) lock() (func(), error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, arkonerrors.Wrap(arkonerrors.ErrCodeInternal,
			"failed to create profile directory", err)
	}

	f, err := os.OpenFile(filepath.Join(s.dir, ".lock"), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, arkonerrors.Wrap(arkonerrors.ErrCodeInternal,
			"failed to open store lock file", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, arkonerrors.Wrap(arkonerrors.ErrCodeInternal,
			"failed to lock profile store", err)
	}

	return func() {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
	}, nil
}
