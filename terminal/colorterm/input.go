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
	"unicode"
	"unicode/utf8"

	"github.com/nativedbg/nativedbg/terminal"
	"github.com/nativedbg/nativedbg/terminal/colorterm/easyterm"
	"github.com/nativedbg/nativedbg/terminal/colorterm/easyterm/ansi"
)

// lineState is the mutable state of one in-progress TermRead call: the
// line buffer, where the cursor sits in it, and where the user currently
// is in command history.
type lineState struct {
	buf        []byte
	inputLen   int
	cursorPos  int
	historyIdx int

	// live holds the line as it stood before the user started scrolling
	// through history, restored when they scroll back past the newest
	// entry.
	live    []byte
	liveLen int
}

func newLineState(buf []byte, historyLen int) *lineState {
	return &lineState{
		buf:        buf,
		historyIdx: historyLen,
		live:       make([]byte, cap(buf)),
	}
}

func (ls *lineState) text() string { return string(ls.buf[:ls.inputLen]) }

// insertAt writes r at the cursor, shifting trailing bytes right. Reports
// whether there was room.
func (ls *lineState) insertAt(r rune) bool {
	var enc [4]byte
	n := utf8.EncodeRune(enc[:], r)
	if ls.cursorPos+n > len(ls.buf) {
		return false
	}
	copy(ls.buf[ls.cursorPos+n:], ls.buf[ls.cursorPos:ls.inputLen])
	copy(ls.buf[ls.cursorPos:], enc[:n])
	ls.cursorPos += n
	ls.inputLen += n
	return true
}

// deleteBefore removes the byte immediately before the cursor.
func (ls *lineState) deleteBefore() {
	if ls.cursorPos == 0 {
		return
	}
	copy(ls.buf[ls.cursorPos-1:], ls.buf[ls.cursorPos:ls.inputLen])
	ls.cursorPos--
	ls.inputLen--
}

// deleteAt removes the byte at the cursor.
func (ls *lineState) deleteAt() {
	if ls.cursorPos >= ls.inputLen {
		return
	}
	copy(ls.buf[ls.cursorPos:], ls.buf[ls.cursorPos+1:ls.inputLen])
	ls.inputLen--
}

// recall loads entry into the line buffer if it fits, returning the
// resulting cursor delta so the caller can move the terminal's real
// cursor to match.
func (ls *lineState) recall(entry []byte) int {
	if len(entry) >= len(ls.buf) {
		return 0
	}
	copy(ls.buf, entry)
	delta := len(entry) - ls.cursorPos
	ls.inputLen = len(entry)
	ls.cursorPos = ls.inputLen
	return delta
}

// TermRead implements terminal.Input: reads one line under raw-mode
// editing with history recall and tab completion.
func (ct *ColorTerminal) TermRead(input []byte, prompt terminal.Prompt, events *terminal.ReadEvents) (int, error) {
	if ct.silenced {
		return 0, nil
	}
	if events == nil {
		events = &terminal.ReadEvents{}
	}

	// raw mode lets us handle KeyInterrupt/KeySuspend ourselves instead
	// of the tty driver acting on them.
	if err := ct.RawMode(); err != nil {
		return 0, err
	}
	defer ct.CanonicalMode()

	ls := newLineState(input, len(ct.commandHistory))

	ct.EasyTerm.TermPrint("\r")
	ct.EasyTerm.TermPrint(ansi.CursorMove(len(prompt.String())))

	for {
		ct.redraw(prompt, ls)

		select {
		case <-events.Sig:
			return 0, terminal.UserInterrupt

		case line := <-events.Pushed:
			n := copy(input, line)
			ct.EasyTerm.TermPrint("\r\n")
			return n, nil

		case rr := <-ct.reader:
			if rr.err != nil {
				return ls.inputLen, rr.err
			}

			n, done, err := ct.handleKey(rr.r, ls)
			if done {
				return n, err
			}
		}
	}
}

func (ct *ColorTerminal) redraw(prompt terminal.Prompt, ls *lineState) {
	ct.EasyTerm.TermPrint(ansi.CursorStore)
	ct.EasyTerm.TermPrint(ansi.ClearLine)
	ct.EasyTerm.TermPrint("\r")

	switch prompt.Kind {
	case terminal.PromptKindStopped:
		ct.EasyTerm.TermPrint(ansi.PenStyles["bold"])
	case terminal.PromptKindConfirm:
		ct.EasyTerm.TermPrint(ansi.PenStyles["bold"])
		ct.EasyTerm.TermPrint(ansi.Pens["blue"])
	}

	ct.EasyTerm.TermPrint(prompt.String())
	ct.EasyTerm.TermPrint(ansi.NormalPen)
	ct.EasyTerm.TermPrint(ls.text())
	ct.EasyTerm.TermPrint(ansi.CursorRestore)
}

// handleKey applies one key event to ls, returning (n, true, err) when
// the read is complete.
func (ct *ColorTerminal) handleKey(r rune, ls *lineState) (int, bool, error) {
	switch r {
	case easyterm.KeyInterrupt:
		if ls.inputLen > 0 {
			ls.inputLen, ls.cursorPos = 0, 0
			ct.EasyTerm.TermPrint("\r")
			return 0, false, nil
		}
		ct.EasyTerm.TermPrint("\r\n")
		return 0, true, terminal.UserInterrupt

	case easyterm.KeySuspend:
		if err := ct.CanonicalMode(); err != nil {
			return 0, true, err
		}
		_ = easyterm.SuspendProcess()
		if err := ct.RawMode(); err != nil {
			return 0, true, err
		}

	case easyterm.KeyTab:
		ct.completeAt(ls)

	case easyterm.KeyCarriageReturn:
		ct.commitHistory(ls)
		ct.EasyTerm.TermPrint("\r\n")
		return ls.inputLen + 1, true, nil

	case easyterm.KeyEsc:
		return ct.handleEscape(ls)

	case easyterm.KeyCtrlH, easyterm.KeyBackspace:
		if ls.cursorPos > 0 {
			ls.deleteBefore()
			ct.EasyTerm.TermPrint(ansi.CursorBackwardOne)
			ls.historyIdx = len(ct.commandHistory)
		}

	default:
		if isInsertable(r) && ls.insertAt(r) {
			ct.EasyTerm.TermPrint(ansi.CursorForwardOne)
			ls.historyIdx = len(ct.commandHistory)
		}
	}

	return 0, false, nil
}

func isInsertable(r rune) bool {
	return unicode.IsDigit(r) || unicode.IsLetter(r) || unicode.IsSpace(r) ||
		unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// completeAt expands the word up to the cursor using the registered
// terminal.TabCompletion, if any.
func (ct *ColorTerminal) completeAt(ls *lineState) {
	if ct.tabCompletion == nil {
		return
	}

	completed := ct.tabCompletion.Complete(string(ls.buf[:ls.cursorPos]))
	delta := len(completed) - ls.cursorPos
	if ls.inputLen+delta > len(ls.buf) {
		return
	}

	full := completed + string(ls.buf[ls.cursorPos:ls.inputLen])
	copy(ls.buf, full)
	ct.EasyTerm.TermPrint(ansi.CursorMove(delta))
	ls.cursorPos += delta
	ls.inputLen += delta
}

// commitHistory appends the current line to history if it differs from
// the most recent entry.
func (ct *ColorTerminal) commitHistory(ls *lineState) {
	if ls.inputLen == 0 {
		return
	}

	if len(ct.commandHistory) > 0 {
		last := ct.commandHistory[len(ct.commandHistory)-1].input
		if len(last) == ls.inputLen && string(last) == ls.text() {
			return
		}
	}

	entry := make([]byte, ls.inputLen)
	copy(entry, ls.buf[:ls.inputLen])
	ct.commandHistory = append(ct.commandHistory, command{input: entry})
}

// handleEscape reads the remainder of an ANSI escape sequence and applies
// it: cursor movement, history recall, forward delete, home/end.
func (ct *ColorTerminal) handleEscape(ls *lineState) (int, bool, error) {
	rr := <-ct.reader
	if rr.err != nil {
		return ls.inputLen, true, rr.err
	}
	if rr.r != easyterm.EscCursor {
		return 0, false, nil
	}

	rr = <-ct.reader
	if rr.err != nil {
		return ls.inputLen, true, rr.err
	}

	switch rr.r {
	case easyterm.CursorUp:
		ct.historyRecall(ls, -1)
	case easyterm.CursorDown:
		ct.historyRecall(ls, 1)
	case easyterm.CursorForward:
		if ls.cursorPos < ls.inputLen {
			ct.EasyTerm.TermPrint(ansi.CursorForwardOne)
			ls.cursorPos++
		}
	case easyterm.CursorBackward:
		if ls.cursorPos > 0 {
			ct.EasyTerm.TermPrint(ansi.CursorBackwardOne)
			ls.cursorPos--
		}
	case easyterm.EscDelete:
		if ls.cursorPos < ls.inputLen {
			ls.deleteAt()
			ls.historyIdx = len(ct.commandHistory)
		}
		<-ct.reader // fourth byte of the sequence ('~')
	case easyterm.EscHome:
		ct.EasyTerm.TermPrint(ansi.CursorMove(-ls.cursorPos))
		ls.cursorPos = 0
	case easyterm.EscEnd:
		ct.EasyTerm.TermPrint(ansi.CursorMove(ls.inputLen - ls.cursorPos))
		ls.cursorPos = ls.inputLen
	}

	return 0, false, nil
}

// historyRecall moves history by dir (-1 older, +1 newer), saving the
// in-progress line before leaving the newest entry and restoring it when
// returning to it.
func (ct *ColorTerminal) historyRecall(ls *lineState, dir int) {
	if len(ct.commandHistory) == 0 {
		return
	}

	if dir < 0 {
		if ls.historyIdx == len(ct.commandHistory) {
			copy(ls.live, ls.buf[:ls.inputLen])
			ls.liveLen = ls.inputLen
		}
		if ls.historyIdx == 0 {
			return
		}
		ls.historyIdx--
		delta := ls.recall(ct.commandHistory[ls.historyIdx].input)
		ct.EasyTerm.TermPrint(ansi.CursorMove(delta))
		return
	}

	if ls.historyIdx >= len(ct.commandHistory)-1 {
		if ls.historyIdx == len(ct.commandHistory)-1 {
			ls.historyIdx++
			if ls.liveLen < len(ls.buf) {
				delta := len(ls.live[:ls.liveLen]) - ls.cursorPos
				copy(ls.buf, ls.live[:ls.liveLen])
				ls.inputLen = ls.liveLen
				ls.cursorPos = ls.inputLen
				ct.EasyTerm.TermPrint(ansi.CursorMove(delta))
			}
		}
		return
	}

	ls.historyIdx++
	delta := ls.recall(ct.commandHistory[ls.historyIdx].input)
	ct.EasyTerm.TermPrint(ansi.CursorMove(delta))
}

// TermReadCheck implements terminal.Input.
func (ct *ColorTerminal) TermReadCheck() bool {
	return false
}
