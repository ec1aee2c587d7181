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
	"bufio"
	"io"
	"strings"
)

// Line is one normalised command pulled from a Queue.
type Line struct {
	Entry string
	Batch bool
}

// Queue holds a run of normalised commands, dished out one at a time.
// Player loads a whole script file into a Queue up front; a recording
// session builds one line by line as the user types.
type Queue struct {
	lines []Line
}

// More reports whether any command remains.
func (q *Queue) More() bool {
	return len(q.lines) > 0
}

// Next pops the oldest queued command.
func (q *Queue) Next() (Line, bool) {
	if len(q.lines) == 0 {
		return Line{}, false
	}
	ln := q.lines[0]
	q.lines = q.lines[1:]
	return ln, true
}

// Append normalises input -- translating CRLF/CR to LF, treating ';' as a
// line separator, dropping blank and '#'-comment lines -- and queues the
// result, tagging every line with batch.
func (q *Queue) Append(input string, batch bool) {
	input = strings.NewReplacer("\r\n", "\n", "\r", "\n", ";", "\n").Replace(input)

	sc := bufio.NewScanner(strings.NewReader(input))
	for sc.Scan() {
		entry := strings.TrimSpace(sc.Text())
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}
		q.lines = append(q.lines, Line{Entry: entry, Batch: batch})
	}
}

// Push normalises and queues input, then immediately returns the first
// resulting command. Used by an interactive session, where a single typed
// line may expand to more than one command via ';'.
func (q *Queue) Push(input string) (Line, error) {
	q.Append(input, false)
	if ln, ok := q.Next(); ok {
		return ln, nil
	}
	return Line{}, io.EOF
}

// Load reads r whole and queues its commands as a batch.
func (q *Queue) Load(r io.Reader) error {
	buf, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	q.Append(string(buf), true)
	return nil
}
