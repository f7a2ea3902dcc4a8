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

// Package scan discovers translation units and resolves the work set.
// A unit is a `<stem>.rs` target artifact paired with a `<stem>.c` source
// artifact; the stem prefix decides the unit kind. An empty (or
// whitespace-only) target artifact marks the unit as not yet translated.
package scan

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Kind classifies a unit by its stem prefix.
type Kind string

const (
	KindVariable Kind = "variable"
	KindFunction Kind = "function"
)

// State is the lifecycle state of a unit within one run.
type State string

const (
	StateEmpty            State = "empty"
	StateTranslating      State = "translating"
	StateBuilding         State = "building"
	StateTesting          State = "testing"
	StateAwaitingDecision State = "awaiting-decision"
	StateCommitted        State = "committed"
	StateAborted          State = "aborted"
)

// Unit is one source-to-target file pair.
type Unit struct {
	// Stem is the file stem including the kind prefix, e.g. "fun_parse_header".
	Stem string
	// Name is the stem without its prefix.
	Name string
	Kind Kind
	// SourcePath is the .c artifact; TargetPath the .rs artifact.
	SourcePath string
	TargetPath string

	State State
}

// ID returns the identifier used in progress records and logs.
func (u *Unit) ID() string { return u.Stem }

// ParseStem classifies a file stem by prefix. Stems without a recognized
// prefix are not translation units.
func ParseStem(stem string) (Kind, string, bool) {
	switch {
	case strings.HasPrefix(stem, "var_"):
		return KindVariable, stem[len("var_"):], true
	case strings.HasPrefix(stem, "fun_"):
		return KindFunction, stem[len("fun_"):], true
	default:
		return "", "", false
	}
}

// IsEmptyFile reports whether the file at path has no content other than
// whitespace. A missing file is an error, not an empty file.
func IsEmptyFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	return len(bytes.TrimSpace(data)) == 0, nil
}

// walkUnits visits every recognized .rs artifact under targetDir.
func walkUnits(targetDir, sourceDir string, visit func(u Unit, empty bool) error) error {
	err := filepath.WalkDir(targetDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".rs" {
			return nil
		}
		stem := strings.TrimSuffix(filepath.Base(path), ".rs")
		kind, name, ok := ParseStem(stem)
		if !ok {
			return nil
		}
		empty, err := IsEmptyFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(targetDir, path)
		if err != nil {
			return err
		}
		u := Unit{
			Stem:       stem,
			Name:       name,
			Kind:       kind,
			SourcePath: filepath.Join(sourceDir, strings.TrimSuffix(rel, ".rs")+".c"),
			TargetPath: path,
			State:      StateEmpty,
		}
		return visit(u, empty)
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", targetDir, err)
	}
	return nil
}

// FindPending returns the untranslated units under targetDir in alphabetical
// order of their stems, regardless of subdirectory.
func FindPending(targetDir, sourceDir string) ([]Unit, error) {
	var pending []Unit
	err := walkUnits(targetDir, sourceDir, func(u Unit, empty bool) error {
		if empty {
			pending = append(pending, u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Stem != pending[j].Stem {
			return pending[i].Stem < pending[j].Stem
		}
		return pending[i].TargetPath < pending[j].TargetPath
	})
	return pending, nil
}

// CountUnits returns (total, processed): how many recognized units exist under
// targetDir and how many of them already have content.
func CountUnits(targetDir string) (total, processed int, err error) {
	err = walkUnits(targetDir, "", func(u Unit, empty bool) error {
		total++
		if !empty {
			processed++
		}
		return nil
	})
	return total, processed, err
}

// ProcessedIDs returns the identifiers of all non-empty units under targetDir.
func ProcessedIDs(targetDir string) ([]string, error) {
	var ids []string
	err := walkUnits(targetDir, "", func(u Unit, empty bool) error {
		if !empty {
			ids = append(ids, u.ID())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}
