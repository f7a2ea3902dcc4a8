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

package fixloop

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transpilot/transpilot/decision"
	"github.com/transpilot/transpilot/oracle"
	"github.com/transpilot/transpilot/scan"
	"github.com/transpilot/transpilot/suggestion"
)

// fakeOracle records requests and replays configured outputs.
type fakeOracle struct {
	translateOut string
	translateErr error
	fixOut       string
	fixErr       error

	translations int
	fixes        []oracle.Request
}

func (f *fakeOracle) Translate(ctx context.Context, req oracle.Request) (string, error) {
	f.translations++
	return f.translateOut, f.translateErr
}

func (f *fakeOracle) Fix(ctx context.Context, req oracle.Request) (string, error) {
	f.fixes = append(f.fixes, req)
	return f.fixOut, f.fixErr
}

// failingCompiler fails the first n compiles, then succeeds. n < 0 fails forever.
type failingCompiler struct {
	failures int
	calls    int
}

func (c *failingCompiler) compile(ctx context.Context) error {
	c.calls++
	if c.failures < 0 || c.calls <= c.failures {
		return fmt.Errorf("error[E0308]: mismatched types (compile %d)", c.calls)
	}
	return nil
}

func testUnit(t *testing.T) *scan.Unit {
	t.Helper()
	dir := t.TempDir()
	tgt := filepath.Join(dir, "fun_parse.rs")
	require.NoError(t, os.WriteFile(tgt, []byte("fn parse() {}"), 0o644))
	return &scan.Unit{
		Stem: "fun_parse", Name: "parse", Kind: scan.KindFunction,
		SourcePath: filepath.Join(dir, "fun_parse.c"),
		TargetPath: tgt,
	}
}

func newLoop(o oracle.Oracle, port decision.Port, compile func(context.Context) error, max int, t *testing.T) *Loop {
	return &Loop{
		Oracle:      o,
		Port:        port,
		Suspend:     decision.NewSuspender(port),
		Book:        suggestion.NewBook(t.TempDir()),
		Compile:     compile,
		MaxAttempts: max,
	}
}

func TestRun_FirstCompileSucceeds(t *testing.T) {
	o := &fakeOracle{translateOut: "pub fn parse() {}"}
	c := &failingCompiler{failures: 0}
	port := decision.NewScriptedPort()
	l := newLoop(o, port, c.compile, 10, t)

	require.NoError(t, l.Run(context.Background(), testUnit(t)))
	assert.Equal(t, 1, o.translations)
	assert.Equal(t, 1, c.calls)
	assert.Empty(t, o.fixes)
	assert.Empty(t, port.Situations)
}

func TestRun_EmptyTranslationIsFatal(t *testing.T) {
	o := &fakeOracle{translateOut: "  \n"}
	c := &failingCompiler{}
	l := newLoop(o, decision.NewScriptedPort(), c.compile, 10, t)

	err := l.Run(context.Background(), testUnit(t))
	require.Error(t, err)
	var tf *TranslationFailure
	require.True(t, errors.As(err, &tf))
	assert.Equal(t, "fun_parse", tf.Unit)
	assert.Zero(t, c.calls, "no compile after a fatal translation")
}

func TestRun_OracleErrorIsFatal(t *testing.T) {
	o := &fakeOracle{translateErr: errors.New("api quota exceeded")}
	l := newLoop(o, decision.NewScriptedPort(), (&failingCompiler{}).compile, 10, t)

	err := l.Run(context.Background(), testUnit(t))
	var tf *TranslationFailure
	require.True(t, errors.As(err, &tf))
	assert.Contains(t, tf.Error(), "api quota exceeded")
}

func TestBuild_CompileBudgetProperty(t *testing.T) {
	// For every budget the exhaustion decision appears after at most
	// budget compile invocations.
	for budget := 1; budget <= 5; budget++ {
		t.Run(fmt.Sprintf("budget_%d", budget), func(t *testing.T) {
			o := &fakeOracle{fixOut: "fn parse() { /* still broken */ }"}
			c := &failingCompiler{failures: -1}
			port := decision.NewScriptedPort(decision.Exit)
			l := newLoop(o, port, c.compile, budget, t)

			err := l.Build(context.Background(), testUnit(t))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrAborted))
			assert.LessOrEqual(t, c.calls, budget)
			assert.Len(t, port.Situations, 1)
			assert.Len(t, o.fixes, budget-1)
		})
	}
}

func TestBuild_FixThenSuccess(t *testing.T) {
	o := &fakeOracle{fixOut: "pub fn parse() {}"}
	c := &failingCompiler{failures: 1}
	port := decision.NewScriptedPort()
	l := newLoop(o, port, c.compile, 10, t)

	require.NoError(t, l.Build(context.Background(), testUnit(t)))
	assert.Equal(t, 2, c.calls)
	require.Len(t, o.fixes, 1)
	assert.Contains(t, o.fixes[0].Diagnostic, "E0308")
	assert.Empty(t, port.Situations, "no decision below the budget")
}

func TestBuild_RetryDirectlyResetsCounter(t *testing.T) {
	o := &fakeOracle{fixOut: "fn parse() {}"}
	c := &failingCompiler{failures: 3}
	port := decision.NewScriptedPort(decision.RetryDirectly)
	l := newLoop(o, port, c.compile, 2, t)

	// compiles 1,2 fail -> decision -> reset -> compile 3 fails -> fix ->
	// compile 4 succeeds
	require.NoError(t, l.Build(context.Background(), testUnit(t)))
	assert.Equal(t, 4, c.calls)
	assert.Len(t, port.Situations, 1)
	assert.Len(t, o.fixes, 2)
}

func TestBuild_AddSuggestionFeedsOracleAndResets(t *testing.T) {
	o := &fakeOracle{fixOut: "fn parse() {}"}
	c := &failingCompiler{failures: 1}
	port := decision.NewScriptedPort(decision.AddSuggestion).QueueInput("cast with libc::c_int")
	l := newLoop(o, port, c.compile, 1, t)

	// compile 1 fails -> exhaustion (budget 1) -> AddSuggestion -> fix with
	// the note -> compile 2 succeeds
	require.NoError(t, l.Build(context.Background(), testUnit(t)))
	assert.Equal(t, 2, c.calls)
	require.Len(t, o.fixes, 1)
	assert.Contains(t, o.fixes[0].Suggestions, "cast with libc::c_int")

	notes, err := l.Book.Read()
	require.NoError(t, err)
	assert.Contains(t, notes, "cast with libc::c_int")
	assert.Contains(t, notes, "## Suggestion added at ")
}

func TestBuild_EmptyFixCountsAgainstBudget(t *testing.T) {
	o := &fakeOracle{fixOut: "   "}
	c := &failingCompiler{failures: -1}
	port := decision.NewScriptedPort(decision.Exit)
	l := newLoop(o, port, c.compile, 3, t)

	err := l.Build(context.Background(), testUnit(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAborted))
	// empty fixes did not stop the budget from running out
	assert.Equal(t, 3, c.calls)
	assert.Len(t, o.fixes, 2)
}

func TestBuild_ManualFixPreservesCounter(t *testing.T) {
	unit := testUnit(t)
	o := &fakeOracle{fixOut: "fn parse() {}"}
	c := &failingCompiler{failures: -1}
	port := decision.NewScriptedPort(decision.ManualFix, decision.Exit)
	l := newLoop(o, port, c.compile, 1, t)

	// No terminal in tests, so ManualFix waits for a write to the target.
	go func() {
		time.Sleep(200 * time.Millisecond)
		os.WriteFile(unit.TargetPath, []byte("fn parse() { fixed }"), 0o644)
	}()

	err := l.Build(context.Background(), unit)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAborted))
	// counter was preserved: the recompile after the edit came straight
	// back to the decision, with no fix attempts in between
	assert.Len(t, port.Situations, 2)
	assert.Empty(t, o.fixes)
	assert.Equal(t, 2, c.calls)
}

func TestRun_TracksLifecycleStates(t *testing.T) {
	o := &fakeOracle{translateOut: "pub fn parse() {}"}
	c := &failingCompiler{failures: 0}
	l := newLoop(o, decision.NewScriptedPort(), c.compile, 10, t)

	unit := testUnit(t)
	require.NoError(t, l.Run(context.Background(), unit))
	assert.Equal(t, scan.StateBuilding, unit.State)

	// an exhausted budget leaves the unit at the decision point
	exhausted := testUnit(t)
	c2 := &failingCompiler{failures: -1}
	l2 := newLoop(o, decision.NewScriptedPort(decision.Exit), c2.compile, 1, t)
	err := l2.Build(context.Background(), exhausted)
	require.Error(t, err)
	assert.Equal(t, scan.StateAwaitingDecision, exhausted.State)
}

func TestFixAndBuild_AppliesDiagnosticFirst(t *testing.T) {
	o := &fakeOracle{fixOut: "fn parse() {}"}
	c := &failingCompiler{failures: 0}
	l := newLoop(o, decision.NewScriptedPort(), c.compile, 10, t)

	require.NoError(t, l.FixAndBuild(context.Background(), testUnit(t), "assertion failed: parse(\"\")"))
	require.Len(t, o.fixes, 1)
	assert.Equal(t, "assertion failed: parse(\"\")", o.fixes[0].Diagnostic)
	assert.Equal(t, 1, c.calls)
}
