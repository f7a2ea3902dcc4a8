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

package gate

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transpilot/transpilot/decision"
)

// countingCheck fails the first failures calls, then succeeds.
func countingCheck(failures int, calls *int) Check {
	return func(ctx context.Context) error {
		*calls++
		if *calls <= failures {
			return errors.New("not ready")
		}
		return nil
	}
}

func TestRun_FixedOrder(t *testing.T) {
	var order []string
	mk := func(name string) Gate {
		return Gate{Name: name, Run: func(ctx context.Context) error {
			order = append(order, name)
			return nil
		}}
	}
	v := &Verifier{
		Gates: []Gate{mk("build"), mk("analysis"), mk("hybrid")},
		Port:  decision.NewScriptedPort(),
	}
	out, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"build", "analysis", "hybrid"}, order)
	assert.True(t, out.CommitSafe)
	require.Len(t, out.History, 3)
	for _, rec := range out.History {
		assert.Equal(t, StatusOK, rec.Status)
	}
}

func TestRun_ExitShortCircuits(t *testing.T) {
	ranLater := false
	v := &Verifier{
		Gates: []Gate{
			{Name: "build", Run: func(ctx context.Context) error { return errors.New("boom") }, Continuable: true},
			{Name: "hybrid", Run: func(ctx context.Context) error { ranLater = true; return nil }},
		},
		Port: decision.NewScriptedPort(decision.Exit),
	}
	_, err := v.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAborted))
	assert.False(t, ranLater, "gates after an Exit must not run")
}

func TestRun_ContinuePastGuardingGateDisablesCommit(t *testing.T) {
	v := &Verifier{
		Gates: []Gate{
			{Name: "hybrid", Run: func(ctx context.Context) error { return errors.New("tests red") },
				Continuable: true, GuardsCommit: true},
		},
		Port: decision.NewScriptedPort(decision.Continue),
	}
	out, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, out.CommitSafe)
	assert.Equal(t, StatusWaved, out.History[len(out.History)-1].Status)
}

func TestRun_ContinuePastPlainGateKeepsCommit(t *testing.T) {
	v := &Verifier{
		Gates: []Gate{
			{Name: "build", Run: func(ctx context.Context) error { return errors.New("warnings") },
				Continuable: true},
		},
		Port: decision.NewScriptedPort(decision.Continue),
	}
	out, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, out.CommitSafe)
}

func TestRun_ManualFixRerunsSameGate(t *testing.T) {
	calls := 0
	port := decision.NewScriptedPort(decision.ManualFix)
	v := &Verifier{
		Gates:   []Gate{{Name: "analysis", Run: countingCheck(1, &calls)}},
		Port:    port,
		Suspend: decision.NewSuspender(port),
	}
	out, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	// failed attempt then the successful re-run
	require.Len(t, out.History, 2)
	assert.Equal(t, StatusFailed, out.History[0].Status)
	assert.Equal(t, StatusOK, out.History[1].Status)
	assert.Equal(t, 2, out.History[1].Attempt)
}

func TestRun_NonContinuableGateHidesContinue(t *testing.T) {
	// The script answers Continue, which is not offered for a
	// non-continuable gate, so the port reports a protocol error.
	v := &Verifier{
		Gates: []Gate{{Name: "init", Run: func(ctx context.Context) error { return errors.New("no db") }}},
		Port:  decision.NewScriptedPort(decision.Continue),
	}
	_, err := v.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not offered")
}
