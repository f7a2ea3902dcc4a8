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

// Package workspace locates the project root and resolves per-feature paths.
// A project is any directory tree containing a `.transpilot` marker directory;
// each feature keeps its source artifacts under `<marker>/<feature>/c` and its
// target artifacts under `<marker>/<feature>/rust`.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MarkerDir is the directory that marks a project root.
const MarkerDir = ".transpilot"

// Feature is one named batch of translation work. Resolved once at startup
// and treated as immutable for the rest of the run.
type Feature struct {
	Name string
	// Root is the project root (the directory containing MarkerDir).
	Root string
	// SourceDir holds the source-language artifacts (.c files).
	SourceDir string
	// TargetDir holds the target-language artifacts (.rs files).
	TargetDir string
}

// MarkerPath returns the project-level marker directory.
func (f *Feature) MarkerPath() string {
	return filepath.Join(f.Root, MarkerDir)
}

// FeaturePath returns the per-feature directory under the marker.
func (f *Feature) FeaturePath() string {
	return filepath.Join(f.Root, MarkerDir, f.Name)
}

// ValidateFeatureName rejects names that would escape the marker directory.
func ValidateFeatureName(name string) error {
	if name == "" {
		return fmt.Errorf("feature name is empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid feature name %q: must be a simple directory name", name)
	}
	return nil
}

// FindRoot walks up from startDir looking for the marker directory.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve start directory: %w", err)
	}
	for {
		marker := filepath.Join(dir, MarkerDir)
		info, err := os.Stat(marker)
		switch {
		case err == nil && info.IsDir():
			return dir, nil
		case err != nil && !os.IsNotExist(err):
			return "", fmt.Errorf("access %s: %w", marker, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s directory found in %s or any parent", MarkerDir, startDir)
		}
		dir = parent
	}
}

// Resolve locates the project root upward from startDir and builds the
// feature's path set. It does not require the feature directory to exist yet;
// initialization may create it.
func Resolve(startDir, name string) (*Feature, error) {
	if err := ValidateFeatureName(name); err != nil {
		return nil, err
	}
	root, err := FindRoot(startDir)
	if err != nil {
		return nil, err
	}
	featureDir := filepath.Join(root, MarkerDir, name)
	return &Feature{
		Name:      name,
		Root:      root,
		SourceDir: filepath.Join(featureDir, "c"),
		TargetDir: filepath.Join(featureDir, "rust"),
	}, nil
}

// TargetInitialized reports whether the feature's target directory exists.
func (f *Feature) TargetInitialized() (bool, error) {
	info, err := os.Stat(f.TargetDir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("access %s: %w", f.TargetDir, err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("path exists but is not a directory: %s", f.TargetDir)
	}
	return true, nil
}
