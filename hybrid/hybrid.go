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

// Package hybrid runs the mixed C/Rust verification triple. The partially
// translated tree only proves itself by cleaning, rebuilding and testing the
// whole feature, so every invocation repeats all three phases.
package hybrid

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"

	"github.com/transpilot/transpilot/config"
	"github.com/transpilot/transpilot/internal/cmdx"
	"github.com/transpilot/transpilot/internal/log"
)

// Environment contract with the feature's build scripts.
const (
	EnvFeatureRoot    = "TRANSPILOT_FEATURE_ROOT"
	EnvHybridBuildLib = "TRANSPILOT_HYBRID_BUILD_LIB"
)

// Runner executes a feature's clean/build/test triple.
type Runner struct {
	Feature string
	Root    string // feature root; command dirs resolve against it
	Cmds    config.Feature
}

// Run executes clean, build, test in order. The first failure stops the
// sequence and its diagnostic comes back to the caller.
func (r *Runner) Run(ctx context.Context) error {
	phases := []struct {
		name string
		cmd  config.Command
	}{
		{"clean", r.Cmds.Clean},
		{"build", r.Cmds.Build},
		{"test", r.Cmds.Test},
	}
	for _, p := range phases {
		if p.cmd.Cmd == "" {
			return errors.Errorf("feature %s has no hybrid %s command configured", r.Feature, p.name)
		}
		log.Info("hybrid %s: %s", p.name, p.cmd.Cmd)
		if err := r.runPhase(ctx, p.cmd); err != nil {
			return errors.Wrapf(err, "hybrid %s phase", p.name)
		}
	}
	return nil
}

func (r *Runner) runPhase(ctx context.Context, c config.Command) error {
	return Exec(ctx, r.Root, c)
}

// Exec runs one configured command with the feature environment. Also used
// for the single-unit compile step, which shares the environment contract.
// Command lines are split shell-style, so quoted arguments stay intact.
func Exec(ctx context.Context, root string, c config.Command) error {
	fields, err := shellwords.Parse(c.Cmd)
	if err != nil {
		return errors.Wrapf(err, "parse command %q", c.Cmd)
	}
	if len(fields) == 0 {
		return errors.New("empty command")
	}
	inv := cmdx.Invocation{
		Name: fields[0],
		Args: fields[1:],
		Dir:  resolveDir(root, c.Dir),
		Env:  env(root),
	}
	_, err = cmdx.Run(ctx, inv)
	return err
}

// env injects the feature root and, when a shim library is configured, an
// LD_PRELOAD so the C side links against the translated Rust symbols.
func env(root string) []string {
	out := []string{EnvFeatureRoot + "=" + root}
	if lib := os.Getenv(EnvHybridBuildLib); lib != "" {
		out = append(out, "LD_PRELOAD="+lib)
	}
	return out
}

func resolveDir(root, dir string) string {
	if dir == "" {
		return root
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}
