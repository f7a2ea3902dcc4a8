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
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	situationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// ConsolePort prompts a human on the terminal. On a TTY it renders huh forms;
// on piped stdin it falls back to numbered line prompts so the tool stays
// scriptable end to end.
type ConsolePort struct {
	in     io.Reader
	out    io.Writer
	useTTY bool

	reader *bufio.Reader
}

// NewConsolePort builds a port on stdin/stdout, detecting whether stdin is a
// terminal.
func NewConsolePort() *ConsolePort {
	return &ConsolePort{
		in:     os.Stdin,
		out:    os.Stdout,
		useTTY: isatty.IsTerminal(os.Stdin.Fd()),
		reader: bufio.NewReader(os.Stdin),
	}
}

// NewLinePort builds a non-TTY port over the given reader/writer. Used in
// tests and when stdin is a pipe.
func NewLinePort(in io.Reader, out io.Writer) *ConsolePort {
	return &ConsolePort{in: in, out: out, useTTY: false, reader: bufio.NewReader(in)}
}

// Decide implements Port.
func (p *ConsolePort) Decide(situation string, options []Option) (Choice, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options for situation %q", situation)
	}
	if p.useTTY {
		return p.decideTTY(situation, options)
	}
	return p.decideLines(situation, options)
}

func (p *ConsolePort) decideTTY(situation string, options []Option) (Choice, error) {
	opts := make([]huh.Option[string], 0, len(options))
	for _, o := range options {
		opts = append(opts, huh.NewOption(o.Label, string(o.Choice)))
	}
	var picked string
	err := huh.NewSelect[string]().
		Title(situation).
		Options(opts...).
		Value(&picked).
		Run()
	if err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return Choice(picked), nil
}

// decideLines prints a numbered menu and re-prompts until a valid 1-based
// index is entered. Invalid input never fails the run.
func (p *ConsolePort) decideLines(situation string, options []Option) (Choice, error) {
	fmt.Fprintln(p.out, situationStyle.Render("! "+situation))
	for i, o := range options {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, o.Label)
	}
	for {
		fmt.Fprint(p.out, promptStyle.Render(fmt.Sprintf("Enter your choice (1-%d): ", len(options))))
		line, err := p.reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read choice: %w", err)
		}
		idx, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr == nil && idx >= 1 && idx <= len(options) {
			return options[idx-1].Choice, nil
		}
		fmt.Fprintf(p.out, "Invalid choice %q. Please enter 1-%d.\n", strings.TrimSpace(line), len(options))
		if err != nil {
			return "", fmt.Errorf("read choice: %w", err)
		}
	}
}

// Input implements Port.
func (p *ConsolePort) Input(prompt string, required bool) (string, error) {
	if p.useTTY {
		return p.inputTTY(prompt, required)
	}
	return p.inputLines(prompt, required)
}

func (p *ConsolePort) inputTTY(prompt string, required bool) (string, error) {
	var text string
	field := huh.NewInput().Title(prompt).Value(&text)
	if required {
		field = field.Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("a non-empty answer is required")
			}
			return nil
		})
	}
	if err := field.Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (p *ConsolePort) inputLines(prompt string, required bool) (string, error) {
	for {
		fmt.Fprint(p.out, promptStyle.Render(prompt+": "))
		line, err := p.reader.ReadString('\n')
		text := strings.TrimSpace(line)
		if text != "" || !required {
			if err != nil && text == "" {
				return "", fmt.Errorf("read input: %w", err)
			}
			return text, nil
		}
		fmt.Fprintln(p.out, "A non-empty answer is required.")
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
	}
}
