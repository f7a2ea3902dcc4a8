// Copyright 2025 Transpilot Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package progress persists per-feature translation progress so an
// interrupted run can resume without repeating committed work.
package progress

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/transpilot/transpilot/internal/log"
)

const fileName = "progress.json"

// Record is the on-disk progress snapshot for one feature. The filesystem is
// the ground truth: a non-empty target file counts as processed even if the
// record never saw it, and a stem listed here but empty on disk is dropped on
// load.
type Record struct {
	Feature        string    `json:"feature"`
	ProcessedCount int       `json:"processed_count"`
	ProcessedFiles []string  `json:"processed_files"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Tracker maintains a feature's Record and its backing file.
type Tracker struct {
	dir    string
	record Record

	processed map[string]bool
}

// Load reads the progress record under dir (the feature's marker directory)
// and reconciles it against diskIDs, the stems whose target files are already
// non-empty. A missing or corrupt file starts a fresh record rather than
// failing: progress is an accelerator, never a gate.
func Load(dir, feature string, diskIDs []string) (*Tracker, error) {
	t := &Tracker{
		dir:       dir,
		record:    Record{Feature: feature},
		processed: make(map[string]bool),
	}

	path := filepath.Join(dir, fileName)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// first run for this feature
	case err != nil:
		return nil, errors.Wrapf(err, "read progress file %s", path)
	default:
		var rec Record
		if jerr := json.Unmarshal(data, &rec); jerr != nil {
			log.Warn("progress file %s is corrupt, starting fresh: %v", path, jerr)
		} else {
			t.record = rec
		}
	}

	onDisk := make(map[string]bool, len(diskIDs))
	for _, id := range diskIDs {
		onDisk[id] = true
	}

	// Revalidate: keep only stems whose target file is still non-empty, then
	// absorb anything processed outside this tool (manual translations count).
	for _, id := range t.record.ProcessedFiles {
		if onDisk[id] {
			t.processed[id] = true
		} else {
			log.Warn("progress entry %s has an empty target file, dropping it", id)
		}
	}
	for id := range onDisk {
		t.processed[id] = true
	}

	t.record.Feature = feature
	t.syncRecord()
	return t, nil
}

// IsProcessed reports whether the unit with the given stem is already done.
func (t *Tracker) IsProcessed(id string) bool {
	return t.processed[id]
}

// Count returns the number of processed units.
func (t *Tracker) Count() int {
	return len(t.processed)
}

// MarkProcessed records id as done and writes the record to disk immediately,
// so a crash between units loses at most the unit in flight.
func (t *Tracker) MarkProcessed(id string) error {
	if t.processed[id] {
		return nil
	}
	t.processed[id] = true
	t.syncRecord()
	return t.Save()
}

// Save writes the current record to dir/progress.json.
func (t *Tracker) Save() error {
	t.record.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(&t.record, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal progress record")
	}
	if err := os.MkdirAll(t.dir, 0755); err != nil {
		return errors.Wrapf(err, "create progress dir %s", t.dir)
	}
	path := filepath.Join(t.dir, fileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write progress file %s", path)
	}
	return nil
}

func (t *Tracker) syncRecord() {
	files := make([]string, 0, len(t.processed))
	for id := range t.processed {
		files = append(files, id)
	}
	sort.Strings(files)
	t.record.ProcessedFiles = files
	t.record.ProcessedCount = len(files)
}
