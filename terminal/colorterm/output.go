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

package colorterm

import (
	"github.com/nativedbg/nativedbg/terminal"
	"github.com/nativedbg/nativedbg/terminal/colorterm/easyterm/ansi"
)

// stylePen maps a terminal.Style to the ANSI pen sequence it's printed
// with. A style with no entry here is printed in the default pen.
var stylePen = map[terminal.Style]string{
	terminal.StyleHelp:       ansi.DimPens["white"],
	terminal.StyleFeedback:   ansi.DimPens["white"],
	terminal.StyleCPUStep:    ansi.Pens["yellow"],
	terminal.StyleInstrument: ansi.Pens["cyan"],
	terminal.StyleError:      ansi.Pens["red"],
	terminal.StyleLog:        ansi.Pens["magenta"],
}

// TermPrintLine implements terminal.Output.
func (ct *ColorTerminal) TermPrintLine(style terminal.Style, s string) {
	if ct.silenced && style != terminal.StyleError {
		return
	}

	// the user already sees what they typed; echoing it back is only
	// useful for terminals without a live display (plainterm).
	if style == terminal.StyleEcho {
		return
	}

	ct.EasyTerm.TermPrint("\r")
	if pen, ok := stylePen[style]; ok {
		ct.EasyTerm.TermPrint(pen)
	}
	ct.EasyTerm.TermPrint(s)
	ct.EasyTerm.TermPrint(ansi.NormalPen)
	ct.EasyTerm.TermPrint("\n")
}
