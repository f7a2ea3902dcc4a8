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

package oracle

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/transpilot/transpilot/llm"
	"github.com/transpilot/transpilot/scan"
)

const systemPrompt = `You are an expert C-to-Rust translator working inside an
automated pipeline. Respond with exactly one Rust code block and nothing else.
The code must be a drop-in replacement for the file under translation:
no surrounding commentary, no main function unless the input has one.`

// ModelOracle translates by calling a chat model directly, without an
// external translator process.
type ModelOracle struct {
	model llm.ChatModel
	cfg   llm.ModelConfig
}

// NewModelOracle wraps an already-constructed chat model.
func NewModelOracle(m llm.ChatModel, cfg llm.ModelConfig) *ModelOracle {
	return &ModelOracle{model: m, cfg: cfg}
}

// Translate implements Oracle.
func (o *ModelOracle) Translate(ctx context.Context, req Request) (string, error) {
	source, err := os.ReadFile(req.SourcePath)
	if err != nil {
		return "", errors.Wrapf(err, "read source %s", req.SourcePath)
	}

	var b strings.Builder
	if req.Kind == scan.KindVariable {
		fmt.Fprintf(&b, "Translate the following C global variable declaration(s) to idiomatic Rust.\n")
		fmt.Fprintf(&b, "Preserve the name `%s` and its linkage semantics.\n\n", req.Name)
	} else {
		fmt.Fprintf(&b, "Translate the following C function to idiomatic Rust.\n")
		fmt.Fprintf(&b, "Preserve the name `%s`, its signature semantics and its observable behavior.\n\n", req.Name)
	}
	appendSuggestions(&b, req.Suggestions)
	fmt.Fprintf(&b, "C source:\n```c\n%s\n```\n", strings.TrimSpace(string(source)))

	return o.complete(ctx, req, b.String())
}

// Fix implements Oracle.
func (o *ModelOracle) Fix(ctx context.Context, req Request) (string, error) {
	source, err := os.ReadFile(req.SourcePath)
	if err != nil {
		return "", errors.Wrapf(err, "read source %s", req.SourcePath)
	}
	current, err := os.ReadFile(req.TargetPath)
	if err != nil {
		return "", errors.Wrapf(err, "read target %s", req.TargetPath)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The following Rust translation of `%s` fails to build or test.\n", req.Name)
	fmt.Fprintf(&b, "Fix the Rust code so the reported errors go away. Keep the behavior of the original C.\n\n")
	appendSuggestions(&b, req.Suggestions)
	fmt.Fprintf(&b, "Original C:\n```c\n%s\n```\n\n", strings.TrimSpace(string(source)))
	fmt.Fprintf(&b, "Current Rust:\n```rust\n%s\n```\n\n", strings.TrimSpace(string(current)))
	fmt.Fprintf(&b, "Errors:\n```\n%s\n```\n", strings.TrimSpace(req.Diagnostic))

	return o.complete(ctx, req, b.String())
}

func (o *ModelOracle) complete(ctx context.Context, req Request, user string) (string, error) {
	completion, err := llm.Complete(ctx, o.model, o.cfg, systemPrompt, user)
	if err != nil {
		return "", err
	}
	code := ExtractCode(completion)
	if err := os.WriteFile(req.TargetPath, []byte(code), 0644); err != nil {
		return "", errors.Wrapf(err, "write target %s", req.TargetPath)
	}
	return code, nil
}

func appendSuggestions(b *strings.Builder, notes string) {
	if strings.TrimSpace(notes) == "" {
		return
	}
	fmt.Fprintf(b, "The user left guidance notes from earlier attempts. Follow them:\n%s\n\n", strings.TrimSpace(notes))
}
