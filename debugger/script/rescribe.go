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

package script

import (
	"os"

	"github.com/nativedbg/nativedbg/errors"
	"github.com/nativedbg/nativedbg/terminal"
)

// Player feeds a previously recorded script back through a REPL as though
// it were typed interactively. It implements terminal.Input.
type Player struct {
	scriptFile string
	queue      Queue
}

// RescribeScript loads scriptfile and returns a Player ready to replay it.
func RescribeScript(scriptfile string) (*Player, error) {
	f, err := os.Open(scriptfile)
	if err != nil {
		return nil, errors.Errorf(errors.ScriptFileError, err)
	}
	defer f.Close()

	p := &Player{scriptFile: scriptfile}
	if err := p.queue.Load(f); err != nil {
		return nil, errors.Errorf(errors.ScriptFileError, err)
	}

	return p, nil
}

// Initialise implements terminal.Input. A loaded script has nothing left
// to set up.
func (p *Player) Initialise() error {
	return nil
}

// CleanUp implements terminal.Input.
func (p *Player) CleanUp() {
}

// RegisterTabCompletion implements terminal.Input. A replayed script never
// completes interactively.
func (p *Player) RegisterTabCompletion(terminal.TabCompletion) {
}

// IsInteractive implements terminal.Input.
func (p *Player) IsInteractive() bool {
	return false
}

// End is the error category returned by TermRead once the script is
// exhausted.
const End = "end of script: %v"

// TermRead implements terminal.Input, handing back the next queued command
// one line at a time.
func (p *Player) TermRead(buffer []byte, _ terminal.Prompt, _ *terminal.ReadEvents) (int, error) {
	ln, ok := p.queue.Next()
	if !ok {
		return -1, errors.Errorf(End, p.scriptFile)
	}
	n := copy(buffer, ln.Entry)
	return n, nil
}

// TermReadCheck implements terminal.Input.
func (p *Player) TermReadCheck() bool {
	return false
}
