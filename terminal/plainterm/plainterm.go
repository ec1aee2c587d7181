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

// Package plainterm implements terminal.Input and terminal.Output over
// plain, cooked-mode stdio: no history, no cursor movement, no tab
// completion. Used when stdin/stdout isn't a real terminal (piped input,
// a CI job) or when colorterm can't put the terminal into raw mode.
package plainterm

import (
	"fmt"
	"io"
	"os"

	"github.com/nativedbg/nativedbg/terminal"
)

// PlainTerminal keeps the terminal in whatever mode it started in.
type PlainTerminal struct {
	input    io.Reader
	output   io.Writer
	silenced bool
}

// Initialise implements terminal.Input.
func (pt *PlainTerminal) Initialise() error {
	pt.input = os.Stdin
	pt.output = os.Stdout
	return nil
}

// CleanUp implements terminal.Input.
func (pt *PlainTerminal) CleanUp() {
}

// RegisterTabCompletion implements terminal.Input. Plain terminals have no
// facility to offer completion interactively, so this is a no-op.
func (pt *PlainTerminal) RegisterTabCompletion(terminal.TabCompletion) {
}

// IsInteractive implements terminal.Input.
func (pt *PlainTerminal) IsInteractive() bool {
	return true
}

// TermReadCheck implements terminal.Input.
func (pt *PlainTerminal) TermReadCheck() bool {
	return false
}

// TermRead implements terminal.Input. There is no line editing: a read is
// exactly whatever bytes are available on stdin.
func (pt *PlainTerminal) TermRead(input []byte, prompt terminal.Prompt, _ *terminal.ReadEvents) (int, error) {
	if pt.silenced {
		return 0, nil
	}

	pt.TermPrintLine(terminal.StyleNormal, prompt.String())
	return pt.input.Read(input)
}

// stylePrefix marks up a line for styles that would otherwise be
// invisible without color.
var stylePrefix = map[terminal.Style]string{
	terminal.StyleError: "* ",
	terminal.StyleHelp:  "  ",
}

// TermPrintLine implements terminal.Output.
func (pt *PlainTerminal) TermPrintLine(style terminal.Style, s string) {
	if pt.silenced && style != terminal.StyleError {
		return
	}

	fmt.Fprintln(pt.output, stylePrefix[style]+s)
}

// Silence implements terminal.Output.
func (pt *PlainTerminal) Silence(silenced bool) {
	pt.silenced = silenced
}
