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

// Package profile persists named kernel-parameter snapshots and applies
// them through the transaction coordinator.
//
// Profiles live as .conf files under the state directory, one canonical
// command line per file behind a small comment header recording when and
// from what the snapshot was taken. Two names are reserved: baseline,
// the idempotent first capture that anchors every restore, and current,
// the pre-apply snapshot the coordinator rolls back to on the mutable
// GRUB path.
package profile
