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

package decision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/mattn/go-isatty"

	"github.com/transpilot/transpilot/internal/cmdx"
	"github.com/transpilot/transpilot/internal/log"
)

// Suspender blocks the run while the operator intervenes out of band. With a
// terminal attached it opens the operator's editor on the artifact; otherwise
// it watches the artifact and resumes on the first write to it.
type Suspender struct {
	Port   Port
	Editor string // empty: $EDITOR, then vim
}

// NewSuspender picks the editor from the environment.
func NewSuspender(port Port) *Suspender {
	return &Suspender{Port: port, Editor: os.Getenv("EDITOR")}
}

func (s *Suspender) editor() string {
	if s.Editor != "" {
		return s.Editor
	}
	return "vim"
}

// EditFile suspends until the target artifact has been edited. The write must
// be durably on disk before this returns; the next compile reads the file.
func (s *Suspender) EditFile(ctx context.Context, path string) error {
	if isatty.IsTerminal(os.Stdin.Fd()) {
		log.Info("opening %s in %s for manual fix", path, s.editor())
		if err := cmdx.RunInteractive(ctx, cmdx.Invocation{Name: s.editor(), Args: []string{path}}); err != nil {
			return fmt.Errorf("manual edit of %s: %w", path, err)
		}
		return nil
	}
	log.Info("no terminal attached; waiting for %s to be modified", path)
	return waitForWrite(ctx, path)
}

// Pause suspends until the operator confirms that out-of-band work (for a
// failed gate, not a specific file) is done.
func (s *Suspender) Pause(reason string) error {
	_, err := s.Port.Input(fmt.Sprintf("%s - press Enter to resume", reason), false)
	return err
}

// waitForWrite blocks until path receives a create or write event.
func waitForWrite(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed before %s changed", path)
			}
			if ev.Name == abs && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				log.Debug("detected edit of %s", path)
				return nil
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed before %s changed", path)
			}
			return fmt.Errorf("watch %s: %w", path, werr)
		}
	}
}
