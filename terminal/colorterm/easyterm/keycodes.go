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

package easyterm

// key is an ASCII code read from a raw terminal: either a printable rune
// or one of the control codes below.
type key = rune

const (
	KeyInterrupt      key = 3 // ^C, end-of-text
	KeyTab            key = 9
	KeyCarriageReturn key = 13
	KeySuspend        key = 26 // ^Z, substitute
	KeyEsc            key = 27
	KeyCtrlH          key = 8
	KeyBackspace      key = 127
)

// Esc is followed by EscCursor ('['); the byte after that identifies the
// sequence: EscDelete, EscHome, EscEnd or a cursor direction below.
const (
	EscCursor key = 91
	EscDelete key = 51
	EscHome   key = 72
	EscEnd    key = 70
)

// EscCursor sequences are followed by a third byte naming the direction.
const (
	CursorUp       key = 'A'
	CursorDown     key = 'B'
	CursorForward  key = 'C'
	CursorBackward key = 'D'
)
