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
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Journal persists transaction records as append-only JSONL. Failed
// transactions are journaled the same as successful ones; the audit
// trail is only useful if it includes what went wrong.
type Journal struct {
	path string
}

// NewJournal creates a journal writing to the given file path.
func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Append writes one record as a single JSON line. The parent directory
// is created on first use.
func (j *Journal) Append(rec *Record) error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode transaction record: %w", err)
	}
	b = append(b, '\n')

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal %q: %w", j.path, err)
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("failed to append to journal %q: %w", j.path, err)
	}
	return f.Sync()
}

// List returns up to limit most recent records, newest first. A missing
// journal yields an empty slice. Unparseable lines are skipped rather
// than failing the whole read; a partial audit view beats none.
func (j *Journal) List(limit int) ([]Record, error) {
	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open journal %q: %w", j.path, err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal %q: %w", j.path, err)
	}

	// newest first
	for i, k := 0, len(records)-1; i < k; i, k = i+1, k-1 {
		records[i], records[k] = records[k], records[i]
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
