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

package tracee_test

import (
	"os"
	"testing"

	"github.com/nativedbg/nativedbg/tracee"
)

// requireTracing skips the test when NATIVEDBG_SKIP_PTRACE_TESTS is set, for
// environments that forbid ptrace (containers without CAP_SYS_PTRACE, Yama
// restrictions, etc); it does not probe for those restrictions itself.
func requireTracing(t *testing.T) {
	t.Helper()
	if os.Getenv("NATIVEDBG_SKIP_PTRACE_TESTS") != "" {
		t.Skip("ptrace tests disabled in this environment")
	}
}

func TestLaunchStopsAtEntry(t *testing.T) {
	requireTracing(t)

	tr, err := tracee.Launch("/bin/true", nil, tracee.Inherit)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	defer tr.Kill()

	regs, err := tr.Regs()
	if err != nil {
		t.Fatalf("Regs: %v", err)
	}
	if regs.Rip == 0 {
		t.Errorf("expected a non-zero instruction pointer at the initial stop")
	}
}

func TestPeekPokeRoundTrip(t *testing.T) {
	requireTracing(t)

	tr, err := tracee.Launch("/bin/true", nil, tracee.Inherit)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	defer tr.Kill()

	regs, err := tr.Regs()
	if err != nil {
		t.Fatalf("Regs: %v", err)
	}

	original, err := tr.PeekWord(regs.Rip)
	if err != nil {
		t.Fatalf("PeekWord: %v", err)
	}

	patched := (original &^ 0xff) | 0xCC
	if err := tr.PokeWord(regs.Rip, patched); err != nil {
		t.Fatalf("PokeWord: %v", err)
	}

	got, err := tr.PeekWord(regs.Rip)
	if err != nil {
		t.Fatalf("PeekWord after poke: %v", err)
	}
	if got&0xff != 0xCC {
		t.Errorf("expected low byte 0xCC after patch, got %#x", got&0xff)
	}

	if err := tr.PokeWord(regs.Rip, original); err != nil {
		t.Fatalf("PokeWord restore: %v", err)
	}
	got, err = tr.PeekWord(regs.Rip)
	if err != nil {
		t.Fatalf("PeekWord after restore: %v", err)
	}
	if got != original {
		t.Errorf("expected original word back, got %#x want %#x", got, original)
	}
}
