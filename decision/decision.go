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

// Package decision is the single blocking prompt abstraction of the workflow.
// Every failure point presents an ordered list of labeled options through a
// Port and interprets the returned choice itself; ports never mutate workflow
// state. The console port talks to a human; the scripted port replays a
// programmed sequence for tests and unattended runs.
package decision

// Choice identifies one selectable option.
type Choice string

const (
	Continue      Choice = "continue"
	ManualFix     Choice = "manual-fix"
	Exit          Choice = "exit"
	RetryDirectly Choice = "retry-directly"
	AddSuggestion Choice = "add-suggestion"
	Accept        Choice = "accept"
	AutoAccept    Choice = "auto-accept"
)

// Option is one labeled choice offered to the operator.
type Option struct {
	Choice Choice
	Label  string
}

// Port blocks until a choice (or free-text input) is produced. Callers pass a
// situation tag naming the failure point; ports may surface it verbatim.
type Port interface {
	// Decide presents the options in order and returns the selected choice.
	Decide(situation string, options []Option) (Choice, error)
	// Input solicits one line of free text. When required is true an empty
	// answer re-prompts instead of returning.
	Input(prompt string, required bool) (string, error)
}

// GateOptions is the choice set for a failed verification gate.
func GateOptions() []Option {
	return []Option{
		{Continue, "Continue (record the failure and proceed)"},
		{ManualFix, "Manual fix (intervene, then re-run this check)"},
		{Exit, "Exit (abort the run)"},
	}
}

// FixOptions is the choice set for fix-budget exhaustion and test failures.
func FixOptions() []Option {
	return []Option{
		{RetryDirectly, "Retry directly (reset the attempt counter)"},
		{AddSuggestion, "Add a fix suggestion for the translator"},
		{ManualFix, "Manual fix (edit the file, then rebuild)"},
		{Exit, "Exit (abort the run)"},
	}
}

// AcceptOptions is the choice set after a unit passes its tests.
func AcceptOptions() []Option {
	return []Option{
		{Accept, "Accept this translation"},
		{AutoAccept, "Accept and auto-accept all later successes"},
		{ManualFix, "Manual fix before accepting"},
		{Exit, "Exit (abort the run)"},
	}
}
