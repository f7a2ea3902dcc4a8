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

// Package cmdx runs external collaborator processes. All workflow suspension
// points that wait on a process go through Run so the orchestrator has a
// single place where commands, directories and environments are logged.
package cmdx

import (
	"bytes"
	"context"
	goerrors "errors"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/transpilot/transpilot/internal/log"
)

// Invocation describes one external command run.
type Invocation struct {
	// Name is the executable; Args are passed verbatim.
	Name string
	Args []string
	// Dir is the working directory; empty means inherit.
	Dir string
	// Env entries are appended to the current environment ("K=V").
	Env []string
}

// Result carries the captured output of a finished command.
type Result struct {
	Stdout string
	Stderr string
}

// IsNotFound reports that the executable could not be located. Callers map
// this onto the tool-unavailable taxonomy; any other failure keeps its
// diagnostic text.
func IsNotFound(err error) bool {
	var execErr *exec.Error
	if goerrors.As(err, &execErr) {
		return goerrors.Is(execErr.Err, exec.ErrNotFound) || os.IsNotExist(execErr.Err)
	}
	return false
}

// Run executes the invocation, blocking until it exits, and captures output.
// A non-zero exit returns an error wrapping the stderr (or stdout when stderr
// is empty) so the diagnostic survives into the retry loop.
func Run(ctx context.Context, inv Invocation) (*Result, error) {
	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...)
	if inv.Dir != "" {
		cmd.Dir = inv.Dir
	}
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("exec: %s %s (dir=%q env=%v)", inv.Name, strings.Join(inv.Args, " "), inv.Dir, inv.Env)

	err := cmd.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		diag := strings.TrimSpace(res.Stderr)
		if diag == "" {
			diag = strings.TrimSpace(res.Stdout)
		}
		if diag != "" {
			return res, errors.Wrapf(err, "%s failed: %s", inv.Name, diag)
		}
		return res, errors.Wrapf(err, "%s failed", inv.Name)
	}
	return res, nil
}

// RunInteractive executes the invocation attached to the caller's terminal.
// Used for editor sessions during manual fixes; output is not captured.
func RunInteractive(ctx context.Context, inv Invocation) error {
	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...)
	if inv.Dir != "" {
		cmd.Dir = inv.Dir
	}
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	log.Debug("exec (interactive): %s %s", inv.Name, strings.Join(inv.Args, " "))
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "%s failed", inv.Name)
	}
	return nil
}
