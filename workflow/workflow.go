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

// Package workflow is the top-level coordinator: gates, selection, and the
// per-unit translate, build, test, accept, commit cycle. Everything below it
// is sequential; the only blocking points are external processes and the
// decision port.
package workflow

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/transpilot/transpilot/analysis"
	"github.com/transpilot/transpilot/decision"
	"github.com/transpilot/transpilot/fixloop"
	"github.com/transpilot/transpilot/gate"
	"github.com/transpilot/transpilot/internal/log"
	"github.com/transpilot/transpilot/oracle"
	"github.com/transpilot/transpilot/progress"
	"github.com/transpilot/transpilot/scan"
	"github.com/transpilot/transpilot/suggestion"
	"github.com/transpilot/transpilot/workspace"
)

// Committer commits translation checkpoints, satisfied by vcs.Repo.
type Committer interface {
	CommitAll(message string) error
}

// Analyzer keeps the cross-reference database in sync, satisfied by
// analysis.Syncer. A nil Analyzer disables the analysis steps.
type Analyzer interface {
	Init(ctx context.Context) error
	Update(ctx context.Context) error
}

// Orchestrator composes the whole run for one feature. Fields are wired by
// the command layer; tests substitute the seams directly.
type Orchestrator struct {
	Feature  *workspace.Feature
	Port     decision.Port
	Suspend  *decision.Suspender
	Oracle   oracle.Oracle
	Repo     Committer
	Analysis Analyzer

	// Compile builds the feature's target crate; it is both the build gate
	// and the fix loop's compile step.
	Compile func(ctx context.Context) error
	// Verify runs the full-project validation (the hybrid triple, or the
	// configured test command when no triple is set).
	Verify func(ctx context.Context) error

	MaxFixAttempts int
	SelectAll      bool
	FullOutput     bool
	// Out receives previews and progress lines; defaults to stdout.
	Out io.Writer

	autoAccept bool
	tracker    *progress.Tracker
	book       *suggestion.Book
	state      *RunState
	total      int
}

func (o *Orchestrator) out() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

// Run executes the full workflow. The returned error classifies via
// IsUserAbort and ExitCode; nil means every selected unit landed.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.init(ctx); err != nil {
		return err
	}
	defer func() {
		if serr := o.state.SaveToFile(o.Feature.FeaturePath()); serr != nil {
			log.Warn("could not save run state: %v", serr)
		}
	}()

	v := &gate.Verifier{Gates: o.gates(), Port: o.Port, Suspend: o.Suspend}
	out, gerr := v.Run(ctx)
	if out != nil {
		o.state.Gates = out.History
		o.state.CommitSafe = out.CommitSafe
	}
	if gerr != nil {
		return gerr
	}
	if out.CommitSafe {
		if err := o.commit("verify baseline for " + o.Feature.Name); err != nil {
			return err
		}
	} else {
		log.Warn("skipping baseline commit: a waved-through gate left the tree unproven")
	}

	pending, err := scan.FindPending(o.Feature.TargetDir, o.Feature.SourceDir)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		log.Info("feature %s has no pending units", o.Feature.Name)
		return nil
	}
	selected, err := scan.Select(pending, o.Port, o.SelectAll)
	if err != nil {
		return err
	}
	o.reportProgress()

	for i := range selected {
		unit := &selected[i]
		if err := o.processUnit(ctx, unit); err != nil {
			status := "failed"
			if IsUserAbort(err) {
				status = "aborted"
				unit.State = scan.StateAborted
			}
			o.state.RecordUnit(unit, status, err.Error())
			return err
		}
		o.state.Processed = o.tracker.Count()
		o.state.Total = o.total
		if serr := o.state.SaveToFile(o.Feature.FeaturePath()); serr != nil {
			log.Warn("could not save run state: %v", serr)
		}
		o.reportProgress()
	}
	return nil
}

func (o *Orchestrator) init(ctx context.Context) error {
	f := o.Feature
	if _, err := os.Stat(f.SourceDir); err != nil {
		return &FatalInitError{Reason: "source directory " + f.SourceDir, Err: err}
	}
	ok, err := f.TargetInitialized()
	if err != nil {
		return &FatalInitError{Reason: "target directory " + f.TargetDir, Err: err}
	}
	if !ok {
		return &FatalInitError{Reason: "target directory " + f.TargetDir + " is not initialized"}
	}

	firstRun := false
	if _, err := os.Stat(f.FeaturePath()); os.IsNotExist(err) {
		firstRun = true
	}
	if err := os.MkdirAll(f.FeaturePath(), 0755); err != nil {
		return &FatalInitError{Reason: "feature state directory", Err: err}
	}

	if firstRun && o.Analysis != nil {
		log.Info("first run for feature %s, initializing analysis database", f.Name)
		if err := o.Analysis.Init(ctx); err != nil {
			if errors.Is(err, analysis.ErrUnavailable) {
				log.Warn("analysis tooling unavailable, continuing without it")
				o.Analysis = nil
			} else {
				return &FatalInitError{Reason: "analysis init", Err: err}
			}
		}
	}

	// one note book per project, shared by every feature
	o.book = suggestion.NewBook(f.Root)
	ids, err := scan.ProcessedIDs(f.TargetDir)
	if err != nil {
		return &FatalInitError{Reason: "scan target directory", Err: err}
	}
	o.tracker, err = progress.Load(f.FeaturePath(), f.Name, ids)
	if err != nil {
		return &FatalInitError{Reason: "load progress", Err: err}
	}
	o.total, _, err = scan.CountUnits(f.TargetDir)
	if err != nil {
		return &FatalInitError{Reason: "count units", Err: err}
	}
	o.state = NewRunState(f.Name)
	return nil
}

// gates returns the fixed verification order: crate build, analysis sync,
// hybrid triple. The hybrid gate guards the baseline commit.
func (o *Orchestrator) gates() []gate.Gate {
	gs := []gate.Gate{{Name: "build", Run: o.Compile, Continuable: true}}
	if o.Analysis != nil {
		gs = append(gs, gate.Gate{Name: "analysis", Run: o.updateAnalysis, Continuable: true})
	}
	if o.Verify != nil {
		gs = append(gs, gate.Gate{Name: "hybrid", Run: o.Verify, Continuable: true, GuardsCommit: true})
	}
	return gs
}

func (o *Orchestrator) processUnit(ctx context.Context, unit *scan.Unit) error {
	if _, err := os.Stat(unit.SourcePath); os.IsNotExist(err) {
		log.Warn("source artifact %s for %s is missing, skipping the unit", unit.SourcePath, unit.ID())
		o.state.RecordUnit(unit, "skipped", "missing source artifact")
		return nil
	}

	log.Info("translating %s (%s %s)", unit.ID(), unit.Kind, unit.Name)
	loop := &fixloop.Loop{
		Oracle:      o.Oracle,
		Port:        o.Port,
		Suspend:     o.Suspend,
		Book:        o.book,
		Compile:     o.Compile,
		MaxAttempts: o.MaxFixAttempts,
	}
	if err := loop.Run(ctx, unit); err != nil {
		return err
	}
	if code, err := os.ReadFile(unit.TargetPath); err == nil {
		fmt.Fprintln(o.out(), previewCode(string(code), o.FullOutput))
	}

	if err := o.testAndAccept(ctx, unit, loop); err != nil {
		return err
	}
	if err := o.commit("translate " + unit.ID()); err != nil {
		return err
	}
	if err := o.syncAnalysis(ctx, unit); err != nil {
		return err
	}
	if err := o.tracker.MarkProcessed(unit.ID()); err != nil {
		return err
	}
	unit.State = scan.StateCommitted
	o.state.RecordUnit(unit, "committed", "")
	return nil
}

// testAndAccept loops the verification and decision phase until the unit is
// accepted or the run aborts. AutoAcceptMode short-circuits only the success
// prompt; failures always reach the user.
func (o *Orchestrator) testAndAccept(ctx context.Context, unit *scan.Unit, loop *fixloop.Loop) error {
	for {
		unit.State = scan.StateTesting
		var terr error
		if o.Verify != nil {
			terr = o.Verify(ctx)
		}
		if terr == nil {
			if o.autoAccept {
				log.Info("tests passed for %s, auto-accepting", unit.ID())
				return nil
			}
			unit.State = scan.StateAwaitingDecision
			choice, err := o.Port.Decide("tests passed for "+unit.ID(), decision.AcceptOptions())
			if err != nil {
				return err
			}
			switch choice {
			case decision.Accept:
				return nil
			case decision.AutoAccept:
				o.autoAccept = true
				return nil
			case decision.ManualFix:
				if err := o.rebuildAfterEdit(ctx, unit, loop); err != nil {
					return err
				}
				continue
			case decision.Exit:
				return errors.Wrapf(ErrUserAbort, "unit %s", unit.ID())
			}
			return errors.Errorf("unexpected choice %q for %s", choice, unit.ID())
		}

		fmt.Fprintln(o.out(), previewDiagnostic(terr.Error(), o.FullOutput))
		unit.State = scan.StateAwaitingDecision
		choice, err := o.Port.Decide("tests failed for "+unit.ID(), decision.FixOptions())
		if err != nil {
			return err
		}
		switch choice {
		case decision.RetryDirectly:
			if err := loop.Build(ctx, unit); err != nil {
				return err
			}
		case decision.AddSuggestion:
			note, err := o.Port.Input("suggestion for the translator", true)
			if err != nil {
				return err
			}
			if err := o.book.Append(note); err != nil {
				return err
			}
			if err := loop.FixAndBuild(ctx, unit, terr.Error()); err != nil {
				return err
			}
		case decision.ManualFix:
			if err := o.rebuildAfterEdit(ctx, unit, loop); err != nil {
				return err
			}
		case decision.Exit:
			return errors.Wrapf(ErrUserAbort, "unit %s", unit.ID())
		default:
			return errors.Errorf("unexpected choice %q for %s", choice, unit.ID())
		}
	}
}

func (o *Orchestrator) rebuildAfterEdit(ctx context.Context, unit *scan.Unit, loop *fixloop.Loop) error {
	if err := o.Suspend.EditFile(ctx, unit.TargetPath); err != nil {
		return err
	}
	return loop.Build(ctx, unit)
}

// updateAnalysis runs the analysis sync for the gate phase. A missing tool
// degrades the run rather than failing the gate.
func (o *Orchestrator) updateAnalysis(ctx context.Context) error {
	if o.Analysis == nil {
		return nil
	}
	err := o.Analysis.Update(ctx)
	if errors.Is(err, analysis.ErrUnavailable) {
		log.Warn("analysis tooling unavailable, continuing without it")
		o.Analysis = nil
		return nil
	}
	return err
}

// syncAnalysis refreshes the analysis database after a landed unit. Update
// failures are recoverable; a missing tool degrades the rest of the run.
func (o *Orchestrator) syncAnalysis(ctx context.Context, unit *scan.Unit) error {
	if o.Analysis == nil {
		return nil
	}
	err := o.Analysis.Update(ctx)
	if err == nil {
		return o.commit("sync analysis after " + unit.ID())
	}
	if errors.Is(err, analysis.ErrUnavailable) {
		log.Warn("analysis tooling unavailable, continuing without it")
		o.Analysis = nil
		return nil
	}
	choice, derr := o.Port.Decide("analysis update failed for "+unit.ID()+": "+err.Error(), []decision.Option{
		{Choice: decision.Continue, Label: "Continue without the analysis sync"},
		{Choice: decision.Exit, Label: "Exit the run"},
	})
	if derr != nil {
		return derr
	}
	if choice == decision.Exit {
		return errors.Wrapf(ErrUserAbort, "analysis update for %s", unit.ID())
	}
	return nil
}

func (o *Orchestrator) commit(message string) error {
	if err := o.Repo.CommitAll(message); err != nil {
		return &VersionControlError{Op: message, Err: err}
	}
	return nil
}

func (o *Orchestrator) reportProgress() {
	fmt.Fprintf(o.out(), "progress: %d/%d units processed\n", o.tracker.Count(), o.total)
}
