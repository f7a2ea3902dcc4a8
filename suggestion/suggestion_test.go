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

package suggestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBook_AppendAccumulates(t *testing.T) {
	b := NewBook(t.TempDir())

	require.NoError(t, b.Append("use libc::c_int for int parameters"))
	require.NoError(t, b.Append("the hash table keys are case sensitive"))
	require.NoError(t, b.Append("prefer Vec<u8> over raw pointers"))

	content, err := b.Read()
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(content, "## Suggestion added at "))
	assert.Contains(t, content, "use libc::c_int for int parameters")
	assert.Contains(t, content, "prefer Vec<u8> over raw pointers")

	// Earlier notes survive later appends in order.
	first := strings.Index(content, "libc::c_int")
	last := strings.Index(content, "Vec<u8>")
	assert.Less(t, first, last)
}

func TestBook_RejectsBlankNote(t *testing.T) {
	b := NewBook(t.TempDir())
	assert.Error(t, b.Append("   \n\t"))

	content, err := b.Read()
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestBook_ReadMissingFile(t *testing.T) {
	b := NewBook(t.TempDir())
	content, err := b.Read()
	require.NoError(t, err)
	assert.Empty(t, content)
}
