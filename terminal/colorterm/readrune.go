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
	"bufio"
	"io"
)

// runeEvent is one rune read from the terminal, or the error that ended
// the read.
type runeEvent struct {
	r   rune
	err error
}

// runeReader delivers runeEvents over a channel so TermRead's select loop
// can wait on it alongside signals and pushed input without blocking on
// reader.ReadRune() directly.
type runeReader chan runeEvent

func initRuneReader(r io.Reader) runeReader {
	buffered := bufio.NewReader(r)
	ch := make(runeReader)

	go func() {
		for {
			r, _, err := buffered.ReadRune()
			ch <- runeEvent{r: r, err: err}
		}
	}()

	return ch
}
