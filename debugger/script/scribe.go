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
	"io"
	"os"

	"github.com/nativedbg/nativedbg/errors"
)

// pending holds the one input line and one output block awaiting Commit,
// never more than that: a session commits after every dispatched command.
type pending struct {
	input  string
	output string
}

func (p pending) empty() bool {
	return p.input == "" && p.output == ""
}

// Scribe records an interactive session to a script file. It can be
// started and ended repeatedly over its lifetime; calling any method
// while no session is active is always a harmless no-op.
type Scribe struct {
	file       *os.File
	scriptFile string

	// replayDepth counts nested script playbacks in progress; input
	// replayed from a script is never re-recorded.
	replayDepth int

	pending pending
}

// IsActive reports whether a recording session is currently open.
func (scr Scribe) IsActive() bool {
	return scr.file != nil
}

// StartSession begins recording to scriptfile, which must not already
// exist.
func (scr *Scribe) StartSession(scriptfile string) error {
	if scr.IsActive() {
		return errors.Errorf(errors.ScriptAlreadyRecording, scr.scriptFile)
	}

	if _, err := os.Stat(scriptfile); err == nil {
		return errors.Errorf(errors.ScriptFileError, "file already exists: "+scriptfile)
	} else if !os.IsNotExist(err) {
		return errors.Errorf(errors.ScriptFileError, err)
	}

	f, err := os.Create(scriptfile)
	if err != nil {
		return errors.Errorf(errors.ScriptFileError, err)
	}

	scr.file = f
	scr.scriptFile = scriptfile
	return nil
}

// EndSession flushes and closes the current session, if any.
func (scr *Scribe) EndSession() (rerr error) {
	if !scr.IsActive() {
		return nil
	}

	f := scr.file
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = errors.Errorf(errors.ScriptWriteError, err)
		}
		scr.file = nil
		scr.scriptFile = ""
		scr.replayDepth = 0
		scr.pending = pending{}
	}()

	return scr.Commit()
}

// StartPlayback marks the start of a SCRIPT replay nested inside the
// current recording session, so the replayed commands aren't themselves
// written back to the file they came from.
func (scr *Scribe) StartPlayback() error {
	if !scr.IsActive() {
		return nil
	}
	if err := scr.Commit(); err != nil {
		return err
	}
	scr.replayDepth++
	return nil
}

// EndPlayback closes out a nested SCRIPT replay.
func (scr *Scribe) EndPlayback() error {
	if !scr.IsActive() {
		return nil
	}
	if err := scr.Commit(); err != nil {
		return err
	}
	if scr.replayDepth > 0 {
		scr.replayDepth--
	}
	return nil
}

// Rollback discards whatever WriteInput/WriteOutput has staged since the
// last Commit, used when a command turns out to be invalid after all.
func (scr *Scribe) Rollback() {
	if scr.IsActive() {
		scr.pending = pending{}
	}
}

// WriteInput stages command as the input half of the next committed line.
func (scr *Scribe) WriteInput(command string) error {
	if !scr.IsActive() || scr.replayDepth > 0 {
		return nil
	}
	if err := scr.Commit(); err != nil {
		return err
	}
	if command != "" {
		scr.pending.input = command + "\n"
	}
	return nil
}

// WriteOutput stages result as the output half of the next committed line.
func (scr *Scribe) WriteOutput(result string) error {
	if !scr.IsActive() || scr.replayDepth > 0 {
		return nil
	}
	if result != "" {
		scr.pending.output = result + "\n"
	}
	return nil
}

// Commit flushes whatever is staged to the open file.
func (scr *Scribe) Commit() error {
	if !scr.IsActive() {
		return nil
	}

	p := scr.pending
	scr.pending = pending{}
	if p.empty() {
		return nil
	}

	if err := writeAll(scr.file, p.input); err != nil {
		return err
	}
	return writeAll(scr.file, p.output)
}

func writeAll(w io.Writer, s string) error {
	if s == "" {
		return nil
	}
	n, err := io.WriteString(w, s)
	if err != nil {
		return errors.Errorf(errors.ScriptWriteError, err)
	}
	if n != len(s) {
		return errors.Errorf(errors.ScriptWriteError, "short write")
	}
	return nil
}
