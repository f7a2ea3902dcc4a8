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

// Package config loads .transpilot/config.toml: per-feature command tables
// for the hybrid clean/build/test phases plus oracle and model settings.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

const fileName = "config.toml"

// Default command lines used when a feature table leaves them unset.
const (
	DefaultCompileCmd = "cargo build"
	DefaultTestCmd    = "cargo test"
)

// Command is one external command with the directory it runs in, relative to
// the feature root unless absolute.
type Command struct {
	Cmd string `toml:"cmd"`
	Dir string `toml:"dir"`
}

// Feature holds the per-feature command tables. Compile drives the fix loop;
// Clean, Build and Test form the hybrid verification triple.
type Feature struct {
	Compile Command `toml:"compile"`
	Clean   Command `toml:"clean"`
	Build   Command `toml:"build"`
	Test    Command `toml:"test"`
}

// Oracle selects and parameterizes the translation oracle.
type Oracle struct {
	// Mode is "exec" for an external translator command, "model" for a direct
	// chat model call. Defaults to "exec" when a command is set, else "model".
	Mode    string `toml:"mode"`
	Command string `toml:"command"`
	// ConfigPath is forwarded to the exec oracle's --config flag.
	ConfigPath string `toml:"config"`
}

// Model configures the chat model backing the model oracle.
type Model struct {
	APIType     string  `toml:"api_type"`
	ModelName   string  `toml:"model_name"`
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// Config is the parsed config.toml.
type Config struct {
	Oracle   Oracle             `toml:"oracle"`
	Model    Model              `toml:"model"`
	Features map[string]Feature `toml:"feature"`
}

// Load parses dir/config.toml, where dir is the marker directory. A missing
// file yields a zero Config so features can run on command defaults alone.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, fileName)
	var cfg Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config file %s", path)
	}
	return &cfg, nil
}

// Resolve returns the effective command set for the named feature: the
// feature's own table overlaid on [feature.default], with built-in compile
// and test fallbacks.
func (c *Config) Resolve(name string) Feature {
	out := c.Features["default"]
	if f, ok := c.Features[name]; ok {
		out.Compile = mergeCommand(out.Compile, f.Compile)
		out.Clean = mergeCommand(out.Clean, f.Clean)
		out.Build = mergeCommand(out.Build, f.Build)
		out.Test = mergeCommand(out.Test, f.Test)
	}
	if out.Compile.Cmd == "" {
		out.Compile.Cmd = DefaultCompileCmd
	}
	if out.Test.Cmd == "" {
		out.Test.Cmd = DefaultTestCmd
	}
	return out
}

// HasHybrid reports whether the feature defines the full clean/build/test
// triple needed for hybrid verification.
func (f Feature) HasHybrid() bool {
	return f.Clean.Cmd != "" && f.Build.Cmd != "" && f.Test.Cmd != ""
}

func mergeCommand(base, override Command) Command {
	if override.Cmd != "" {
		base.Cmd = override.Cmd
	}
	if override.Dir != "" {
		base.Dir = override.Dir
	}
	return base
}
