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

package replterm

import (
	"testing"

	"github.com/nativedbg/nativedbg/debugger"
	"github.com/nativedbg/nativedbg/errors"
	"github.com/nativedbg/nativedbg/terminal"
	"github.com/nativedbg/nativedbg/test"
)

// fakeTerm is a minimal terminal.Terminal that records printed lines
// instead of touching the real tty.
type fakeTerm struct {
	lines []string
}

func (f *fakeTerm) Initialise() error                             { return nil }
func (f *fakeTerm) CleanUp()                                       {}
func (f *fakeTerm) RegisterTabCompletion(terminal.TabCompletion)   {}
func (f *fakeTerm) IsInteractive() bool                            { return false }
func (f *fakeTerm) TermReadCheck() bool                            { return false }
func (f *fakeTerm) TermRead([]byte, terminal.Prompt, *terminal.ReadEvents) (int, error) {
	return 0, nil
}
func (f *fakeTerm) TermPrintLine(_ terminal.Style, s string) { f.lines = append(f.lines, s) }
func (f *fakeTerm) Silence(bool)                             {}

func TestCommandTemplateCompiles(t *testing.T) {
	// the package init() already panics on a bad template; reaching this
	// point at all proves ParseCommandTemplate accepted it.
	if replCommands == nil {
		t.Fatal("replCommands was not built by init()")
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	ft := &fakeTerm{}
	r := New(debugger.NewContext(), ft)

	err := r.dispatchLine(ft, "BOGUS")
	test.ExpectInequality(t, err, nil)
}

func TestDispatchRequiresTraceeForContinue(t *testing.T) {
	ft := &fakeTerm{}
	r := New(debugger.NewContext(), ft)

	err := r.dispatchLine(ft, "CONTINUE")
	test.ExpectInequality(t, err, nil)
	if !errors.Is(err, errors.NoTracee) {
		t.Fatalf("expected NoTracee, got %v", err)
	}
}

func TestDispatchHelpOverview(t *testing.T) {
	ft := &fakeTerm{}
	r := New(debugger.NewContext(), ft)

	if err := r.dispatchLine(ft, "HELP"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ft.lines) == 0 {
		t.Fatal("expected help output to be printed")
	}
}

func TestResolveBreakLocationHex(t *testing.T) {
	r := New(debugger.NewContext(), &fakeTerm{})

	addr, err := r.resolveBreakLocation("0x1149")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	test.ExpectEquality(t, addr, uint64(0x1149))
}

func TestResolveBreakLocationSourceLineNoImage(t *testing.T) {
	r := New(debugger.NewContext(), &fakeTerm{})

	_, err := r.resolveBreakLocation("main.c:3")
	test.ExpectInequality(t, err, nil)
}

func TestQuitStopsLoop(t *testing.T) {
	ft := &fakeTerm{}
	r := New(debugger.NewContext(), ft)
	r.running = true

	if err := r.dispatchLine(ft, "QUIT"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.running {
		t.Fatal("expected QUIT to stop the loop")
	}
}
