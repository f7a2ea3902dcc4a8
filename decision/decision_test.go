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
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptedPort_ReplaysChoices(t *testing.T) {
	port := NewScriptedPort(Continue, Exit)

	c, err := port.Decide("gate: build", GateOptions())
	require.NoError(t, err)
	assert.Equal(t, Continue, c)

	c, err = port.Decide("gate: test", GateOptions())
	require.NoError(t, err)
	assert.Equal(t, Exit, c)

	assert.Equal(t, []string{"gate: build", "gate: test"}, port.Situations)
}

func TestScriptedPort_RejectsUnofferedChoice(t *testing.T) {
	port := NewScriptedPort(Accept)
	_, err := port.Decide("gate: build", GateOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not offered")
}

func TestScriptedPort_ExhaustionIsAnError(t *testing.T) {
	port := NewScriptedPort()
	_, err := port.Decide("gate: build", GateOptions())
	require.Error(t, err)
}

func TestScriptedPort_Input(t *testing.T) {
	port := NewScriptedPort().QueueInput("use CStr")
	text, err := port.Input("suggestion", true)
	require.NoError(t, err)
	assert.Equal(t, "use CStr", text)

	_, err = port.Input("suggestion", true)
	require.Error(t, err)

	text, err = port.Input("suggestion", false)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestLinePort_RepromptsOnInvalidChoice(t *testing.T) {
	in := strings.NewReader("9\nbogus\n2\n")
	var out bytes.Buffer
	port := NewLinePort(in, &out)

	c, err := port.Decide("build failed", FixOptions())
	require.NoError(t, err)
	assert.Equal(t, AddSuggestion, c)
	assert.Contains(t, out.String(), "Invalid choice")
}

func TestLinePort_RequiredInputReprompts(t *testing.T) {
	in := strings.NewReader("\n  \nuse raw pointers\n")
	var out bytes.Buffer
	port := NewLinePort(in, &out)

	text, err := port.Input("suggestion", true)
	require.NoError(t, err)
	assert.Equal(t, "use raw pointers", text)
}

func TestLinePort_OptionalInputAcceptsEmpty(t *testing.T) {
	in := strings.NewReader("\n")
	var out bytes.Buffer
	port := NewLinePort(in, &out)

	text, err := port.Input("note", false)
	require.NoError(t, err)
	assert.Empty(t, text)
}
