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

package oracle

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transpilot/transpilot/scan"
)

func TestExtractCode(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"rust fence", "Here you go:\n```rust\npub fn f() {}\n```\nDone.", "pub fn f() {}"},
		{"bare fence", "```\nstatic X: i32 = 1;\n```", "static X: i32 = 1;"},
		{"no fence", "  pub fn g() {}\n", "pub fn g() {}"},
		{"unterminated fence", "```rust\npub fn h() {}", "pub fn h() {}"},
		{"empty completion", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractCode(tc.in))
		})
	}
}

// fakeTranslator writes a shell script that records its argv and emits fixed
// Rust into the --output path, standing in for the real translator command.
func fakeTranslator(t *testing.T, dir string) (cmd, argvFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}
	argvFile = filepath.Join(dir, "argv.txt")
	script := filepath.Join(dir, "translator.sh")
	body := `#!/bin/sh
printf '%s\n' "$@" > ` + argvFile + `
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--output" ]; then out="$2"; fi
  shift
done
printf 'pub fn translated() {}\n' > "$out"
`
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	return script, argvFile
}

func TestExecOracle_Translate(t *testing.T) {
	dir := t.TempDir()
	cmd, argvFile := fakeTranslator(t, dir)

	src := filepath.Join(dir, "fun_parse.c")
	dst := filepath.Join(dir, "fun_parse.rs")
	require.NoError(t, os.WriteFile(src, []byte("int parse(void);"), 0o644))
	require.NoError(t, os.WriteFile(dst, nil, 0o644))

	o := NewExecOracle(cmd, "config.toml", dir)
	out, err := o.Translate(context.Background(), Request{
		Kind:       scan.KindFunction,
		Name:       "parse",
		SourcePath: src,
		TargetPath: dst,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "pub fn translated")

	argv, err := os.ReadFile(argvFile)
	require.NoError(t, err)
	assert.Contains(t, string(argv), "--type\nfn\n")
	assert.Contains(t, string(argv), "--config\nconfig.toml\n")
}

func TestExecOracle_FixPassesDiagnosticAndSuggestions(t *testing.T) {
	dir := t.TempDir()
	cmd, argvFile := fakeTranslator(t, dir)

	dst := filepath.Join(dir, "var_table.rs")
	require.NoError(t, os.WriteFile(dst, []byte("static TABLE: i32 = bad;"), 0o644))

	o := NewExecOracle(cmd, "config.toml", dir)
	_, err := o.Fix(context.Background(), Request{
		Kind:        scan.KindVariable,
		Name:        "table",
		TargetPath:  dst,
		Diagnostic:  "error[E0425]: cannot find value `bad`",
		Suggestions: "use a const instead",
	})
	require.NoError(t, err)

	argv, err := os.ReadFile(argvFile)
	require.NoError(t, err)
	assert.Contains(t, string(argv), "--type\nfix\n")
	assert.Contains(t, string(argv), "--error\n")
	assert.Contains(t, string(argv), "--suggestion\n")
}

func TestExecOracle_CommandFailure(t *testing.T) {
	dir := t.TempDir()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}
	script := filepath.Join(dir, "broken.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'translator exploded' >&2\nexit 3\n"), 0o755))

	o := NewExecOracle(script, "config.toml", dir)
	_, err := o.Translate(context.Background(), Request{
		Kind:       scan.KindFunction,
		SourcePath: filepath.Join(dir, "a.c"),
		TargetPath: filepath.Join(dir, "a.rs"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "translator exploded")
}
