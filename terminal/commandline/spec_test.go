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

func TestParseCommandTemplateLiteralOnly(t *testing.T) {
	cmds, err := ParseCommandTemplate([]string{"CONTINUE"})
	test.ExpectEquality(t, err, nil)
	test.ExpectEquality(t, len(cmds.cmds), 1)
	test.Equate(t, cmds.cmds[0].name, "CONTINUE")
	test.ExpectEquality(t, len(cmds.cmds[0].seq), 0)
}

func TestParseCommandTemplatePlaceholder(t *testing.T) {
	cmds, err := ParseCommandTemplate([]string{"BREAK %<location>S"})
	test.ExpectEquality(t, err, nil)
	seq := cmds.index["BREAK"].seq
	test.ExpectEquality(t, len(seq), 1)
	test.ExpectEquality(t, seq[0].kind, termArg)
	test.ExpectEquality(t, seq[0].arg, argString)
	test.Equate(t, seq[0].label, "location")
}

func TestParseCommandTemplateOptionalGroup(t *testing.T) {
	cmds, err := ParseCommandTemplate([]string{"DISAS (%<address>S)"})
	test.ExpectEquality(t, err, nil)
	seq := cmds.index["DISAS"].seq
	test.ExpectEquality(t, len(seq), 1)
	test.ExpectEquality(t, seq[0].kind, termGroup)
	test.ExpectEquality(t, seq[0].group, groupOptional)
	test.ExpectEquality(t, len(seq[0].alts), 1)
}

func TestParseCommandTemplateRepeatGroup(t *testing.T) {
	cmds, err := ParseCommandTemplate([]string{"LAUNCH {%<args>S}"})
	test.ExpectEquality(t, err, nil)
	seq := cmds.index["LAUNCH"].seq
	test.ExpectEquality(t, seq[0].kind, termGroup)
	test.ExpectEquality(t, seq[0].group, groupRepeat)
}

func TestParseCommandTemplateRequiredAlternatives(t *testing.T) {
	cmds, err := ParseCommandTemplate([]string{"SCRIPT [RECORD %<new file>F|END|%<file>F]"})
	test.ExpectEquality(t, err, nil)
	seq := cmds.index["SCRIPT"].seq
	test.ExpectEquality(t, seq[0].kind, termGroup)
	test.ExpectEquality(t, seq[0].group, groupRequired)
	test.ExpectEquality(t, len(seq[0].alts), 3)
	test.ExpectEquality(t, seq[0].alts[0][0].literal, "RECORD")
	test.ExpectEquality(t, seq[0].alts[1][0].literal, "END")
	test.ExpectEquality(t, seq[0].alts[2][0].kind, termArg)
}

func TestParseCommandTemplateDuplicateCommand(t *testing.T) {
	_, err := ParseCommandTemplate([]string{"QUIT", "QUIT"})
	test.ExpectFailure(t, err)
}
