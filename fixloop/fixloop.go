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

// Package fixloop drives one unit through translate, compile and bounded
// oracle-assisted fixing. The attempt counter counts compile invocations:
// when the counter reaches the budget the user decides how to go on, and the
// chosen branch determines whether the counter resets or survives.
package fixloop

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/transpilot/transpilot/decision"
	"github.com/transpilot/transpilot/internal/log"
	"github.com/transpilot/transpilot/oracle"
	"github.com/transpilot/transpilot/scan"
	"github.com/transpilot/transpilot/suggestion"
)

// DefaultMaxAttempts bounds the compile-fix cycle when the caller does not
// override it.
const DefaultMaxAttempts = 10

// ErrAborted is returned when the user chooses Exit at the exhaustion decision.
var ErrAborted = errors.New("run aborted in fix loop")

// TranslationFailure is fatal for the whole run: the oracle itself failed or
// produced nothing, which no amount of compiling will repair.
type TranslationFailure struct {
	Unit string
	Err  error
}

func (e *TranslationFailure) Error() string {
	if e.Err == nil {
		return "translation oracle returned empty output for " + e.Unit
	}
	return "translation oracle failed for " + e.Unit + ": " + e.Err.Error()
}

func (e *TranslationFailure) Unwrap() error { return e.Err }

// Loop runs the translate-compile-fix cycle for single units.
type Loop struct {
	Oracle  oracle.Oracle
	Port    decision.Port
	Suspend *decision.Suspender
	Book    *suggestion.Book

	// Compile builds just the translated unit's crate. A non-nil error text
	// is the diagnostic handed to the oracle's fix mode.
	Compile func(ctx context.Context) error

	// MaxAttempts is the compile budget; zero means DefaultMaxAttempts.
	MaxAttempts int
}

func (l *Loop) budget() int {
	if l.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return l.MaxAttempts
}

// Run translates the unit from its source artifact, then drives the compile
// loop. An empty translation or an oracle failure is fatal and never retried.
func (l *Loop) Run(ctx context.Context, unit *scan.Unit) error {
	unit.State = scan.StateTranslating
	notes, err := l.Book.Read()
	if err != nil {
		return err
	}
	out, err := l.Oracle.Translate(ctx, l.request(unit, "", notes))
	if err != nil {
		return &TranslationFailure{Unit: unit.ID(), Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return &TranslationFailure{Unit: unit.ID()}
	}
	log.Info("translated %s (%d bytes)", unit.ID(), len(out))
	return l.Build(ctx, unit)
}

// Build drives the compile loop with a fresh attempt counter. Callers re-enter
// here after a test failure was handled or a manual edit landed.
func (l *Loop) Build(ctx context.Context, unit *scan.Unit) error {
	attempt := 0
	for {
		unit.State = scan.StateBuilding
		cerr := l.Compile(ctx)
		if cerr == nil {
			return nil
		}
		attempt++
		diag := cerr.Error()
		log.Warn("compile attempt %d/%d for %s failed", attempt, l.budget(), unit.ID())

		if attempt >= l.budget() {
			reset, err := l.exhausted(ctx, unit, diag)
			if err != nil {
				return err
			}
			if reset {
				attempt = 0
			}
			continue
		}
		if err := l.fix(ctx, unit, diag); err != nil {
			return err
		}
	}
}

// FixAndBuild applies one oracle fix for an externally produced diagnostic
// (a test failure), then re-enters the compile loop.
func (l *Loop) FixAndBuild(ctx context.Context, unit *scan.Unit, diagnostic string) error {
	if err := l.fix(ctx, unit, diagnostic); err != nil {
		return err
	}
	return l.Build(ctx, unit)
}

// exhausted presents the budget-exhaustion decision. It reports whether the
// attempt counter must reset; ManualFix keeps the counter so a failing recompile
// comes straight back here.
func (l *Loop) exhausted(ctx context.Context, unit *scan.Unit, diag string) (reset bool, err error) {
	unit.State = scan.StateAwaitingDecision
	situation := "fix attempts exhausted for " + unit.ID()
	choice, err := l.Port.Decide(situation, decision.FixOptions())
	if err != nil {
		return false, err
	}
	switch choice {
	case decision.RetryDirectly:
		return true, nil
	case decision.AddSuggestion:
		note, err := l.Port.Input("suggestion for the translator", true)
		if err != nil {
			return false, err
		}
		if err := l.Book.Append(note); err != nil {
			return false, err
		}
		// the note reaches the oracle on the next fix attempt
		if err := l.fix(ctx, unit, diag); err != nil {
			return false, err
		}
		return true, nil
	case decision.ManualFix:
		if err := l.Suspend.EditFile(ctx, unit.TargetPath); err != nil {
			return false, err
		}
		return false, nil
	case decision.Exit:
		return false, errors.Wrapf(ErrAborted, "unit %s", unit.ID())
	}
	return false, errors.Errorf("unexpected choice %q for %s", choice, unit.ID())
}

// fix invokes the oracle's fix mode. An empty result is a wasted attempt, not
// an error: the unchanged code simply fails the next compile.
func (l *Loop) fix(ctx context.Context, unit *scan.Unit, diag string) error {
	notes, err := l.Book.Read()
	if err != nil {
		return err
	}
	out, err := l.Oracle.Fix(ctx, l.request(unit, diag, notes))
	if err != nil {
		return &TranslationFailure{Unit: unit.ID(), Err: err}
	}
	if strings.TrimSpace(out) == "" {
		log.Warn("oracle returned an empty fix for %s, attempt wasted", unit.ID())
	}
	return nil
}

func (l *Loop) request(unit *scan.Unit, diag, notes string) oracle.Request {
	return oracle.Request{
		Kind:        unit.Kind,
		Name:        unit.Name,
		SourcePath:  unit.SourcePath,
		TargetPath:  unit.TargetPath,
		Diagnostic:  diag,
		Suggestions: notes,
	}
}
