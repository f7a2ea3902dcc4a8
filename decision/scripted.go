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
	"fmt"
)

// ScriptedPort replays a programmed sequence of choices and inputs. It records
// every situation it was asked about, so tests can assert both what was
// decided and what was never prompted.
type ScriptedPort struct {
	choices []Choice
	inputs  []string

	// Situations lists the situation tags of all Decide calls, in order.
	Situations []string
	// Prompts lists the prompts of all Input calls, in order.
	Prompts []string
}

// NewScriptedPort queues the given choices; free-text answers are added with
// QueueInput.
func NewScriptedPort(choices ...Choice) *ScriptedPort {
	return &ScriptedPort{choices: choices}
}

// QueueInput appends an answer for a future Input call.
func (p *ScriptedPort) QueueInput(answers ...string) *ScriptedPort {
	p.inputs = append(p.inputs, answers...)
	return p
}

// Decide implements Port. A choice not present in the offered options is an
// error: the script disagrees with the caller about the protocol.
func (p *ScriptedPort) Decide(situation string, options []Option) (Choice, error) {
	p.Situations = append(p.Situations, situation)
	if len(p.choices) == 0 {
		return "", fmt.Errorf("scripted port exhausted at situation %q", situation)
	}
	next := p.choices[0]
	p.choices = p.choices[1:]
	for _, o := range options {
		if o.Choice == next {
			return next, nil
		}
	}
	return "", fmt.Errorf("scripted choice %q not offered at situation %q", next, situation)
}

// Input implements Port.
func (p *ScriptedPort) Input(prompt string, required bool) (string, error) {
	p.Prompts = append(p.Prompts, prompt)
	if len(p.inputs) == 0 {
		if required {
			return "", fmt.Errorf("scripted port has no input for prompt %q", prompt)
		}
		return "", nil
	}
	next := p.inputs[0]
	p.inputs = p.inputs[1:]
	return next, nil
}
