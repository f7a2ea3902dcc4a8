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

// Package analysis drives the code-analyse collaborator that keeps the
// cross-reference database in sync with translated units.
package analysis

import (
	"context"

	"github.com/pkg/errors"

	"github.com/transpilot/transpilot/internal/cmdx"
)

const command = "code-analyse"

// ErrUnavailable marks a missing code-analyse binary. Initialization treats
// it as fatal; incremental updates surface it for a user decision.
var ErrUnavailable = errors.New("code-analyse is not installed or not on PATH")

// Syncer runs code-analyse for one feature from the feature root.
type Syncer struct {
	Feature string
	Dir     string
}

// Init builds the analysis database from scratch. Callers treat failure as
// fatal: without the database no translation can be verified.
func (s *Syncer) Init(ctx context.Context) error {
	return s.run(ctx, "--init")
}

// Update refreshes the database after a unit lands. Failures are recoverable;
// the caller asks the user whether to continue.
func (s *Syncer) Update(ctx context.Context) error {
	return s.run(ctx, "--update")
}

func (s *Syncer) run(ctx context.Context, mode string) error {
	inv := cmdx.Invocation{
		Name: command,
		Args: []string{mode, "--feature", s.Feature},
		Dir:  s.Dir,
	}
	if _, err := cmdx.Run(ctx, inv); err != nil {
		if cmdx.IsNotFound(err) {
			return ErrUnavailable
		}
		return errors.Wrapf(err, "code-analyse %s for feature %s", mode, s.Feature)
	}
	return nil
}
