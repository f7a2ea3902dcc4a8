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

// Package oracle abstracts the translation backend. Both implementations
// write the unit's target file in place and return the produced code, so the
// caller inspects one string regardless of backend.
package oracle

import (
	"context"
	"strings"

	"github.com/transpilot/transpilot/scan"
)

// Request carries everything one translate or fix call needs. Diagnostic and
// Suggestions are only consulted in fix mode.
type Request struct {
	Kind       scan.Kind
	Name       string
	SourcePath string // original C file
	TargetPath string // Rust file, written in place

	Diagnostic  string // compiler or test output that triggered the fix
	Suggestions string // accumulated user guidance notes
}

// Oracle is a translation backend. An empty returned string is not an error
// here; the caller decides whether emptiness is fatal (initial translation)
// or merely a wasted attempt (fix mode).
type Oracle interface {
	Translate(ctx context.Context, req Request) (string, error)
	Fix(ctx context.Context, req Request) (string, error)
}

// typeFlag maps a unit kind to the translator's --type value.
func typeFlag(kind scan.Kind) string {
	if kind == scan.KindVariable {
		return "var"
	}
	return "fn"
}

// ExtractCode pulls the Rust source out of a completion. Fenced blocks win;
// a completion without fences is taken verbatim.
func ExtractCode(completion string) string {
	for _, marker := range []string{"```rust", "```rs", "```"} {
		start := strings.Index(completion, marker)
		if start < 0 {
			continue
		}
		rest := completion[start+len(marker):]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(completion)
}
