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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[oracle]
mode = "exec"
command = "translate-and-fix"
config = "translator.toml"

[model]
api_type = "openai"
model_name = "gpt-4o"

[feature.default]
clean = { cmd = "make clean", dir = "hybrid" }
build = { cmd = "make", dir = "hybrid" }
test = { cmd = "make check", dir = "hybrid" }

[feature.auth]
compile = { cmd = "cargo build -p auth", dir = "rust" }
test = { cmd = "cargo test -p auth", dir = "rust" }
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))
	return dir
}

func TestLoad_MissingFileIsEmptyConfig(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.Oracle.Command)

	f := cfg.Resolve("anything")
	assert.Equal(t, DefaultCompileCmd, f.Compile.Cmd)
	assert.Equal(t, DefaultTestCmd, f.Test.Cmd)
	assert.False(t, f.HasHybrid())
}

func TestLoad_ParseError(t *testing.T) {
	_, err := Load(writeConfig(t, "[feature\nbroken"))
	assert.Error(t, err)
}

func TestResolve_OverlaysDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "exec", cfg.Oracle.Mode)
	assert.Equal(t, "translate-and-fix", cfg.Oracle.Command)
	assert.Equal(t, "openai", cfg.Model.APIType)

	f := cfg.Resolve("auth")
	assert.Equal(t, "cargo build -p auth", f.Compile.Cmd)
	assert.Equal(t, "rust", f.Compile.Dir)
	// Inherited from [feature.default].
	assert.Equal(t, "make clean", f.Clean.Cmd)
	assert.Equal(t, "make", f.Build.Cmd)
	// Feature table wins over default.
	assert.Equal(t, "cargo test -p auth", f.Test.Cmd)
	assert.True(t, f.HasHybrid())

	other := cfg.Resolve("billing")
	assert.Equal(t, DefaultCompileCmd, other.Compile.Cmd)
	assert.Equal(t, "make check", other.Test.Cmd)
}
