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

// Package gate runs the start-of-run verification sequence. Gates execute in
// a fixed order; a failed gate hands control to the user, who may wave a
// continuable gate through, intervene and re-run it, or abort the run.
package gate

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/transpilot/transpilot/decision"
	"github.com/transpilot/transpilot/internal/log"
)

// ErrAborted is returned when the user chooses Exit at a failed gate.
var ErrAborted = errors.New("run aborted at verification gate")

// Check performs one gate's verification work.
type Check func(ctx context.Context) error

// Gate is one verification in the sequence.
type Gate struct {
	Name string
	Run  Check
	// Continuable gates may be waved through on failure. Non-continuable
	// gates only offer manual intervention or abort.
	Continuable bool
	// GuardsCommit marks gates whose wave-through must block the final
	// commit: the tree is usable for translation but not proven clean.
	GuardsCommit bool
}

// Status is the outcome of one gate attempt.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
	StatusWaved  Status = "waved-through"
)

// Record is an immutable log entry for one gate attempt.
type Record struct {
	Gate    string    `json:"gate"`
	Attempt int       `json:"attempt"`
	Status  Status    `json:"status"`
	Error   string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// Outcome summarizes a full verification pass.
type Outcome struct {
	// CommitSafe is false when a commit-guarding gate was waved through:
	// translation may proceed but nothing gets committed on top of an
	// unproven tree.
	CommitSafe bool
	History    []Record
}

// Verifier drives the gates against a decision port. Waving a gate through is
// never remembered across runs; each run re-proves or re-asks.
type Verifier struct {
	Gates   []Gate
	Port    decision.Port
	Suspend *decision.Suspender
}

// Run executes all gates in order. The error is ErrAborted when the user
// exits, or the decision port's own failure.
func (v *Verifier) Run(ctx context.Context) (*Outcome, error) {
	out := &Outcome{CommitSafe: true}
	for _, g := range v.Gates {
		if err := v.runGate(ctx, g, out); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (v *Verifier) runGate(ctx context.Context, g Gate, out *Outcome) error {
	attempt := 0
	for {
		attempt++
		err := g.Run(ctx)
		if err == nil {
			out.History = append(out.History, Record{
				Gate: g.Name, Attempt: attempt, Status: StatusOK, Time: time.Now(),
			})
			log.Info("gate %s passed", g.Name)
			return nil
		}

		out.History = append(out.History, Record{
			Gate: g.Name, Attempt: attempt, Status: StatusFailed,
			Error: err.Error(), Time: time.Now(),
		})
		log.Warn("gate %s failed: %v", g.Name, err)

		choice, derr := v.Port.Decide("gate "+g.Name+" failed: "+err.Error(), v.options(g))
		if derr != nil {
			return derr
		}
		switch choice {
		case decision.Continue:
			out.History = append(out.History, Record{
				Gate: g.Name, Attempt: attempt, Status: StatusWaved, Time: time.Now(),
			})
			if g.GuardsCommit {
				out.CommitSafe = false
				log.Warn("gate %s waved through; final commit is disabled for this run", g.Name)
			}
			return nil
		case decision.ManualFix:
			if v.Suspend != nil {
				if perr := v.Suspend.Pause("fix gate " + g.Name); perr != nil {
					return perr
				}
			}
			// re-run the same gate, not the whole sequence
			continue
		case decision.Exit:
			return errors.Wrapf(ErrAborted, "gate %s", g.Name)
		default:
			return errors.Errorf("unexpected choice %q at gate %s", choice, g.Name)
		}
	}
}

func (v *Verifier) options(g Gate) []decision.Option {
	opts := decision.GateOptions()
	if g.Continuable {
		return opts
	}
	// drop Continue; the rest keep their order
	filtered := make([]decision.Option, 0, len(opts)-1)
	for _, o := range opts {
		if o.Choice != decision.Continue {
			filtered = append(filtered, o)
		}
	}
	return filtered
}
