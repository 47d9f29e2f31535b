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

package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/arkonlabs/arkon/pkg/backend"
)

// Status is the lifecycle state of an apply transaction. Transitions are
// strictly forward: PENDING -> VALIDATING -> APPLYING -> APPLIED or
// FAILED, with FAILED optionally followed by ROLLED_BACK or
// ROLLBACK_FAILED after a best-effort restore.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusValidating     Status = "VALIDATING"
	StatusApplying       Status = "APPLYING"
	StatusApplied        Status = "APPLIED"
	StatusFailed         Status = "FAILED"
	StatusRolledBack     Status = "ROLLED_BACK"
	StatusRollbackFailed Status = "ROLLBACK_FAILED"
)

// ChangeSummary is the requested diff in journal-friendly form.
type ChangeSummary struct {
	Added   []string `json:"added,omitempty" yaml:"added,omitempty"`
	Removed []string `json:"removed,omitempty" yaml:"removed,omitempty"`
	Changed []string `json:"changed,omitempty" yaml:"changed,omitempty"`
}

// Record is the audit trail of one apply. Records are persisted to the
// journal on every terminal status, success or failure.
type Record struct {
	ID        string        `json:"id" yaml:"id"`
	Backend   backend.Kind  `json:"backend" yaml:"backend"`
	Profile   string        `json:"profile,omitempty" yaml:"profile,omitempty"`
	Requested ChangeSummary `json:"requested" yaml:"requested"`
	Status    Status        `json:"status" yaml:"status"`
	// NoChange marks the benign case where validation found the target
	// already in effect. Such records end APPLIED without touching the
	// backend.
	NoChange  bool      `json:"noChange,omitempty" yaml:"noChange,omitempty"`
	Attempts  int       `json:"attempts" yaml:"attempts"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt time.Time `json:"startedAt" yaml:"startedAt"`
	EndedAt   time.Time `json:"endedAt,omitempty" yaml:"endedAt,omitempty"`
}

// newRecord starts a PENDING record for the given backend.
func newRecord(kind backend.Kind, profile string) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Backend:   kind,
		Profile:   profile,
		Status:    StatusPending,
		StartedAt: time.Now().UTC(),
	}
}

// Terminal reports whether the record reached a final status.
func (r *Record) Terminal() bool {
	switch r.Status {
	case StatusApplied, StatusFailed, StatusRolledBack, StatusRollbackFailed:
		return true
	}
	return false
}

// Succeeded reports whether the transaction ended with the target in
// effect.
func (r *Record) Succeeded() bool {
	return r.Status == StatusApplied
}
