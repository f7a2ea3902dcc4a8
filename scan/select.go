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

package scan

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/transpilot/transpilot/decision"
	"github.com/transpilot/transpilot/internal/log"
)

// ParseSelection parses the interactive selection grammar over a candidate
// list of length total: a single 1-based index, a comma-separated list,
// inclusive ranges like "3-5", or the case-insensitive token "all". The
// returned indices are 0-based, deduplicated and in candidate-list order.
func ParseSelection(input string, total int) ([]int, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, fmt.Errorf("empty selection")
	}
	if strings.EqualFold(trimmed, "all") {
		all := make([]int, total)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	picked := make(map[int]bool)
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty selection element in %q", input)
		}
		lo, hi, err := parseElement(part)
		if err != nil {
			return nil, err
		}
		if lo < 1 || hi > total || lo > hi {
			return nil, fmt.Errorf("selection %q out of range 1-%d", part, total)
		}
		for i := lo; i <= hi; i++ {
			picked[i-1] = true
		}
	}

	indices := make([]int, 0, len(picked))
	for i := range picked {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices, nil
}

func parseElement(part string) (lo, hi int, err error) {
	if lo64, err := strconv.Atoi(part); err == nil {
		return lo64, lo64, nil
	}
	bounds := strings.SplitN(part, "-", 2)
	if len(bounds) != 2 {
		return 0, 0, fmt.Errorf("invalid selection element %q", part)
	}
	lo, errLo := strconv.Atoi(strings.TrimSpace(bounds[0]))
	hi, errHi := strconv.Atoi(strings.TrimSpace(bounds[1]))
	if errLo != nil || errHi != nil {
		return 0, 0, fmt.Errorf("invalid range %q", part)
	}
	return lo, hi, nil
}

// Select resolves the work set from the pending candidates. With selectAll it
// returns every candidate; otherwise it presents a 1-indexed enumerated list
// through the port and re-prompts until the selection parses.
func Select(units []Unit, port decision.Port, selectAll bool) ([]Unit, error) {
	if len(units) == 0 {
		return nil, nil
	}
	if selectAll {
		return units, nil
	}

	var listing strings.Builder
	for i, u := range units {
		fmt.Fprintf(&listing, "  %d. %s (%s)\n", i+1, u.Stem, u.Kind)
	}
	prompt := fmt.Sprintf("Select files to translate:\n%sSelection (e.g. 1,3-5 or all)", listing.String())

	for {
		input, err := port.Input(prompt, true)
		if err != nil {
			return nil, err
		}
		indices, err := ParseSelection(input, len(units))
		if err != nil {
			log.Warn("invalid selection %q: %v", input, err)
			continue
		}
		selected := make([]Unit, 0, len(indices))
		for _, i := range indices {
			selected = append(selected, units[i])
		}
		return selected, nil
	}
}
