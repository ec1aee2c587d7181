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

func TestTokeniseInputSplitsOnSpace(t *testing.T) {
	tk := TokeniseInput("BREAK main.c:12")
	test.ExpectEquality(t, tk.Remaining(), 2)

	w, ok := tk.Get()
	test.ExpectSuccess(t, ok)
	test.Equate(t, w, "BREAK")

	w, ok = tk.Get()
	test.ExpectSuccess(t, ok)
	test.Equate(t, w, "main.c:12")

	_, ok = tk.Get()
	test.ExpectFailure(t, ok)
}

func TestTokeniseInputKeepsQuotedRunTogether(t *testing.T) {
	tk := TokeniseInput(`LAUNCH "one two" three`)
	test.ExpectEquality(t, tk.Remaining(), 3)

	_, _ = tk.Get()
	w, _ := tk.Get()
	test.Equate(t, w, "one two")
}

func TestTokeniseInputCollapsesRepeatedSpaces(t *testing.T) {
	tk := TokeniseInput("STEP   ")
	test.ExpectEquality(t, tk.Remaining(), 1)
}

func TestTokensResetRewindsCursor(t *testing.T) {
	tk := TokeniseInput("BREAK main.c:12")
	_, _ = tk.Get()
	_, _ = tk.Get()
	test.ExpectEquality(t, tk.Remaining(), 0)

	tk.Reset()
	test.ExpectEquality(t, tk.Remaining(), 2)
}

func TestTokensString(t *testing.T) {
	tk := TokeniseInput("BREAK main.c:12")
	test.Equate(t, tk.String(), "BREAK main.c:12")
}

func TestTokensPeekDoesNotAdvance(t *testing.T) {
	tk := TokeniseInput("STEP")
	w, ok := tk.Peek()
	test.ExpectSuccess(t, ok)
	test.Equate(t, w, "STEP")
	test.ExpectEquality(t, tk.Remaining(), 1)
}

func TestTokensUngetStepsBack(t *testing.T) {
	tk := TokeniseInput("BREAK main.c:12")
	_, _ = tk.Get()
	tk.Unget()
	w, _ := tk.Get()
	test.Equate(t, w, "BREAK")
}
