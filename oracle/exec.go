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

	"github.com/pkg/errors"

	"github.com/transpilot/transpilot/internal/cmdx"
)

// ExecOracle shells out to an external translator command speaking the
// --config/--type/--code/--output protocol. The command overwrites the
// output file itself; we read it back so callers see what was produced.
type ExecOracle struct {
	// Command is the translator executable.
	Command string
	// ConfigPath is forwarded via --config.
	ConfigPath string
	// Dir is the working directory for the translator, normally the feature root.
	Dir string
}

// NewExecOracle builds an exec oracle around the given translator command.
func NewExecOracle(command, configPath, dir string) *ExecOracle {
	return &ExecOracle{Command: command, ConfigPath: configPath, Dir: dir}
}

// Translate implements Oracle. The translator reads the C file and overwrites
// the target file with its Rust rendition.
func (o *ExecOracle) Translate(ctx context.Context, req Request) (string, error) {
	args := []string{
		"--config", o.ConfigPath,
		"--type", typeFlag(req.Kind),
		"--code", req.SourcePath,
		"--output", req.TargetPath,
	}
	if _, err := cmdx.Run(ctx, cmdx.Invocation{Name: o.Command, Args: args, Dir: o.Dir}); err != nil {
		return "", err
	}
	return readBack(req.TargetPath)
}

// Fix implements Oracle. The diagnostic and any accumulated suggestion notes
// travel as temp files, matching the translator's file-based protocol.
func (o *ExecOracle) Fix(ctx context.Context, req Request) (string, error) {
	tmpDir, err := os.MkdirTemp("", "transpilot-fix-")
	if err != nil {
		return "", errors.Wrap(err, "create fix temp dir")
	}
	defer os.RemoveAll(tmpDir)

	errorFile := filepath.Join(tmpDir, "build_error.txt")
	if err := os.WriteFile(errorFile, []byte(req.Diagnostic), 0644); err != nil {
		return "", errors.Wrap(err, "write diagnostic file")
	}

	args := []string{
		"--config", o.ConfigPath,
		"--type", "fix",
		"--code", req.TargetPath,
		"--output", req.TargetPath,
		"--error", errorFile,
	}
	if req.Suggestions != "" {
		suggestionFile := filepath.Join(tmpDir, "suggestion.md")
		if err := os.WriteFile(suggestionFile, []byte(req.Suggestions), 0644); err != nil {
			return "", errors.Wrap(err, "write suggestion file")
		}
		args = append(args, "--suggestion", suggestionFile)
	}
	if _, err := cmdx.Run(ctx, cmdx.Invocation{Name: o.Command, Args: args, Dir: o.Dir}); err != nil {
		return "", err
	}
	return readBack(req.TargetPath)
}

func readBack(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "read translator output %s", path)
	}
	return string(data), nil
}
