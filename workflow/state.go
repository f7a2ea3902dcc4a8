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

package workflow

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/transpilot/transpilot/gate"
	"github.com/transpilot/transpilot/scan"
)

// RunState is a JSON snapshot of one orchestrator run, written after the gate
// phase and after every unit. For resume inspection and postmortems only; the
// progress record stays the authority on what counts as processed.
type RunState struct {
	RunID     string    `json:"run_id"`
	Feature   string    `json:"feature"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Gates      []gate.Record `json:"gates,omitempty"`
	CommitSafe bool          `json:"commit_safe"`

	Units []UnitRecord `json:"units,omitempty"`

	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// UnitRecord is an immutable log entry for one unit's outcome. State is the
// unit's last lifecycle state; Status classifies how the run left it.
type UnitRecord struct {
	Unit   string     `json:"unit"`
	State  scan.State `json:"state"`
	Status string     `json:"status"` // committed, skipped, aborted, failed
	Error  string     `json:"error,omitempty"`
	Time   time.Time  `json:"time"`
}

// NewRunState starts a snapshot with a fresh run id.
func NewRunState(feature string) *RunState {
	return &RunState{
		RunID:      uuid.NewString(),
		Feature:    feature,
		StartedAt:  time.Now(),
		CommitSafe: true,
	}
}

// RecordUnit appends one unit outcome.
func (s *RunState) RecordUnit(u *scan.Unit, status, errText string) {
	s.Units = append(s.Units, UnitRecord{Unit: u.ID(), State: u.State, Status: status, Error: errText, Time: time.Now()})
}

// SaveToFile writes the snapshot as indented JSON under dir/runs/<runid>.json.
func (s *RunState) SaveToFile(dir string) error {
	if s == nil {
		return nil
	}
	s.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	runsDir := filepath.Join(dir, "runs")
	if err := os.MkdirAll(runsDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(runsDir, s.RunID+".json"), data, 0644)
}
