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

// Package vcs commits translation checkpoints. Every accepted unit and every
// passed gate is committed so an interrupted run resumes from real history.
package vcs

import (
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"

	"github.com/transpilot/transpilot/internal/log"
)

const (
	authorName  = "transpilot"
	authorEmail = "transpilot@localhost"
)

// Repo wraps an open working-tree repository.
type Repo struct {
	repo *git.Repository
}

// Open finds the repository containing dir, searching parent directories the
// way the git CLI does.
func Open(dir string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.Wrapf(err, "open git repository at %s", dir)
	}
	return &Repo{repo: r}, nil
}

// CommitAll stages every change in the working tree and commits it with the
// given message. A clean tree is not an error: the checkpoint already exists,
// so the run just moves on.
func (r *Repo) CommitAll(message string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return errors.Wrap(err, "resolve worktree")
	}

	status, err := wt.Status()
	if err != nil {
		return errors.Wrap(err, "worktree status")
	}
	if status.IsClean() {
		log.Info("nothing to commit for %q, continuing", message)
		return nil
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return errors.Wrap(err, "stage changes")
	}
	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return errors.Wrapf(err, "commit %q", message)
	}
	log.Info("committed %q", message)
	return nil
}
