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

package plainterm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nativedbg/nativedbg/terminal"
	"github.com/nativedbg/nativedbg/test"
)

func newTestTerminal(in string) (*PlainTerminal, *bytes.Buffer) {
	var out bytes.Buffer
	pt := &PlainTerminal{input: strings.NewReader(in), output: &out}
	return pt, &out
}

func TestTermReadPrintsPromptThenReadsFromInput(t *testing.T) {
	pt, out := newTestTerminal("STEP\n")

	buf := make([]byte, 64)
	n, err := pt.TermRead(buf, terminal.Prompt{Content: "ndbg"}, nil)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, string(buf[:n]), "STEP\n")
	test.ExpectEquality(t, strings.Contains(out.String(), "ndbg"), true)
}

func TestTermReadSilencedReturnsNothing(t *testing.T) {
	pt, out := newTestTerminal("STEP\n")
	pt.Silence(true)

	buf := make([]byte, 64)
	n, err := pt.TermRead(buf, terminal.Prompt{Content: "ndbg"}, nil)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, n, 0)
	test.ExpectEquality(t, out.Len(), 0)
}

func TestTermPrintLineAppliesStylePrefix(t *testing.T) {
	pt, out := newTestTerminal("")

	pt.TermPrintLine(terminal.StyleError, "no tracee")
	pt.TermPrintLine(terminal.StyleHelp, "load an executable")
	pt.TermPrintLine(terminal.StyleNormal, "plain line")

	test.ExpectEquality(t, out.String(), "* no tracee\n  load an executable\nplain line\n")
}

func TestTermPrintLineSilencedOnlyShowsErrors(t *testing.T) {
	pt, out := newTestTerminal("")
	pt.Silence(true)

	pt.TermPrintLine(terminal.StyleNormal, "should be dropped")
	pt.TermPrintLine(terminal.StyleError, "should print")

	test.ExpectEquality(t, out.String(), "* should print\n")
}

func TestIsInteractiveAndTabCompletionNoOp(t *testing.T) {
	pt := &PlainTerminal{}
	test.ExpectEquality(t, pt.IsInteractive(), true)
	test.ExpectEquality(t, pt.TermReadCheck(), false)
	pt.RegisterTabCompletion(nil)
}
