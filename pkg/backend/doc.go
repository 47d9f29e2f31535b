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

// Package backend defines the kernel-parameter backend contract shared by
// the GRUB and rpm-ostree implementations, plus the external command
// runner they execute through.
//
// The two backends hide incompatible persistence models behind one
// interface: GRUB rewrites a defaults file and regenerates config, while
// rpm-ostree drives a transactional daemon. Callers hold a single
// KernelParams value chosen once by the platform detector and never
// branch on the concrete type.
package backend
