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

// Package colorterm is the interactive front end: a raw-mode ANSI
// terminal with command history, cursor editing and tab completion,
// implementing terminal.Input and terminal.Output.
package colorterm

import (
	"os"

	"github.com/nativedbg/nativedbg/terminal"
	"github.com/nativedbg/nativedbg/terminal/colorterm/easyterm"
)

// command is one entry in the terminal's recall history.
type command struct {
	input []byte
}

// ColorTerminal implements terminal.Input and terminal.Output over a raw
// ANSI terminal.
type ColorTerminal struct {
	easyterm.EasyTerm

	reader         runeReader
	commandHistory []command
	tabCompletion  terminal.TabCompletion

	silenced bool
}

// Initialise puts stdin/stdout under the terminal's control.
func (ct *ColorTerminal) Initialise() error {
	if err := ct.EasyTerm.Initialise(os.Stdin, os.Stdout); err != nil {
		return err
	}

	ct.commandHistory = nil
	ct.reader = initRuneReader(os.Stdin)

	return nil
}

// CleanUp restores the terminal to its original state.
func (ct *ColorTerminal) CleanUp() {
	ct.EasyTerm.TermPrint("\r")
	_ = ct.Flush()
	ct.EasyTerm.CleanUp()
}

// RegisterTabCompletion attaches the tab-completion source used by TermRead.
func (ct *ColorTerminal) RegisterTabCompletion(tc terminal.TabCompletion) {
	ct.tabCompletion = tc
}

// IsInteractive implements terminal.Input.
func (ct *ColorTerminal) IsInteractive() bool {
	return true
}

// Silence implements terminal.Output.
func (ct *ColorTerminal) Silence(silenced bool) {
	ct.silenced = silenced
}
