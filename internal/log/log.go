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

// Package log is a minimal leveled logger for the workflow engine. Human-facing
// workflow output goes through the styled printers in the workflow package;
// this logger carries diagnostics (commands, diagnostics, unit ids) so every
// failure is reproducible from the log alone.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var (
	mu     sync.Mutex
	level  = InfoLevel
	output io.Writer = os.Stderr
)

// SetLogLevel sets the minimum level that will be written.
func SetLogLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(l Level, tag string, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(output, "%s [%s] %s\n", ts, tag, fmt.Sprintf(format, args...))
}

func Debug(format string, args ...interface{}) { logf(DebugLevel, "DEBUG", format, args...) }
func Info(format string, args ...interface{})  { logf(InfoLevel, "INFO", format, args...) }
func Warn(format string, args ...interface{})  { logf(WarnLevel, "WARN", format, args...) }
func Error(format string, args ...interface{}) { logf(ErrorLevel, "ERROR", format, args...) }
