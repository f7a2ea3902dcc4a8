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
	goerrors "errors"

	"github.com/transpilot/transpilot/fixloop"
	"github.com/transpilot/transpilot/gate"
)

// ErrUserAbort marks a clean, user-requested shutdown. Units committed before
// the abort stay committed; the unit in flight does not.
var ErrUserAbort = goerrors.New("user requested exit")

// FatalInitError means the workspace could not be located or bootstrapped.
type FatalInitError struct {
	Reason string
	Err    error
}

func (e *FatalInitError) Error() string {
	if e.Err == nil {
		return "initialization failed: " + e.Reason
	}
	return "initialization failed: " + e.Reason + ": " + e.Err.Error()
}

func (e *FatalInitError) Unwrap() error { return e.Err }

// VersionControlError wraps a commit failure. The benign nothing-to-commit
// case never produces one; the vcs layer swallows it.
type VersionControlError struct {
	Op  string
	Err error
}

func (e *VersionControlError) Error() string {
	return "version control: " + e.Op + ": " + e.Err.Error()
}

func (e *VersionControlError) Unwrap() error { return e.Err }

// IsUserAbort reports whether err is an Exit decision from any layer.
func IsUserAbort(err error) bool {
	return goerrors.Is(err, ErrUserAbort) ||
		goerrors.Is(err, gate.ErrAborted) ||
		goerrors.Is(err, fixloop.ErrAborted)
}

// Exit codes for the command surface.
const (
	ExitOK    = 0
	ExitFatal = 1
	ExitAbort = 2
)

// ExitCode maps an orchestrator error onto the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsUserAbort(err):
		return ExitAbort
	default:
		return ExitFatal
	}
}
