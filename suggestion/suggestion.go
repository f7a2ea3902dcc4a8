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

// Package suggestion manages the per-feature guidance notes that the
// translation oracle reads on every attempt. The file is append-only:
// earlier notes stay relevant for later units, so nothing ever clears it.
package suggestion

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const fileName = "transpilot.md"

// Book is the append-only note file for one feature.
type Book struct {
	path string
}

// NewBook returns the book stored under dir (the feature's marker directory).
func NewBook(dir string) *Book {
	return &Book{path: filepath.Join(dir, fileName)}
}

// Path returns the location of the note file, whether or not it exists yet.
func (b *Book) Path() string { return b.path }

// Append adds one timestamped note. Blank notes are rejected so an accidental
// empty entry never pollutes the oracle's context.
func (b *Book) Append(note string) error {
	note = strings.TrimSpace(note)
	if note == "" {
		return errors.New("suggestion note is empty")
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		return errors.Wrapf(err, "create suggestion dir %s", filepath.Dir(b.path))
	}
	f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "open suggestion file %s", b.path)
	}
	defer f.Close()

	entry := fmt.Sprintf("\n## Suggestion added at %s\n\n%s\n",
		time.Now().Format("2006-01-02 15:04:05"), note)
	if _, err := f.WriteString(entry); err != nil {
		return errors.Wrapf(err, "append to suggestion file %s", b.path)
	}
	return nil
}

// Read returns all accumulated notes, or "" when the file does not exist.
func (b *Book) Read() (string, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "read suggestion file %s", b.path)
	}
	return string(data), nil
}
