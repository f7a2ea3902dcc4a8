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

package workflow

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Preview lengths keep routine output readable; --full-output lifts them.
const (
	previewCodeLines  = 15
	previewErrorLines = 10
)

var (
	codeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// previewCode renders translated code, truncated unless full is set.
func previewCode(code string, full bool) string {
	return render(codeStyle, code, previewCodeLines, full)
}

// previewDiagnostic renders compiler or test output, truncated unless full is set.
func previewDiagnostic(diag string, full bool) string {
	return render(errStyle, diag, previewErrorLines, full)
}

func render(style lipgloss.Style, text string, max int, full bool) string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if full || len(lines) <= max {
		return style.Render(strings.Join(lines, "\n"))
	}
	shown := style.Render(strings.Join(lines[:max], "\n"))
	note := dimStyle.Render(fmt.Sprintf("... (%d more lines, use --full-output to see everything)", len(lines)-max))
	return shown + "\n" + note
}
