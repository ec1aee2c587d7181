// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

package commandline

import (
	"testing"

	"github.com/nativedbg/nativedbg/test"
)

func TestCompleteUniquePrefix(t *testing.T) {
	cmds := buildTestCommands(t)
	tc := NewTabCompletion(cmds)
	test.Equate(t, tc.Complete("ST"), "STEP")
}

func TestCompleteCyclesAmbiguousPrefix(t *testing.T) {
	cmds := buildTestCommands(t)
	tc := NewTabCompletion(cmds)

	first := tc.Complete("B")
	second := tc.Complete("B")
	test.ExpectInequality(t, first, second)

	third := tc.Complete("B")
	test.Equate(t, third, first)
}

func TestCompleteNoMatchReturnsInputUnchanged(t *testing.T) {
	cmds := buildTestCommands(t)
	tc := NewTabCompletion(cmds)
	test.Equate(t, tc.Complete("ZZZ"), "ZZZ")
}

func TestCompleteIgnoresMultiWordInput(t *testing.T) {
	cmds := buildTestCommands(t)
	tc := NewTabCompletion(cmds)
	test.Equate(t, tc.Complete("BREAK main.c:12"), "BREAK main.c:12")
}
