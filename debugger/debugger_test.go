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

package debugger

import (
	"testing"

	"github.com/nativedbg/nativedbg/debugger/govern"
	"github.com/nativedbg/nativedbg/errors"
	"github.com/nativedbg/nativedbg/lineindex"
	"github.com/nativedbg/nativedbg/test"
)

func TestNewContextDefaults(t *testing.T) {
	ctx := NewContext()
	test.ExpectEquality(t, ctx.Mode(), govern.ModeNone)
	test.ExpectEquality(t, ctx.State(), govern.NoTracee)
	test.ExpectEquality(t, ctx.ExecutablePath(), "")
}

func TestOperationsRequireTracee(t *testing.T) {
	ctx := NewContext()

	if _, err := ctx.Continue(); !errors.Is(err, errors.NoTracee) {
		t.Fatalf("Continue: expected NoTracee, got %v", err)
	}
	if _, _, err := ctx.StepSource(); !errors.Is(err, errors.NoTracee) {
		t.Fatalf("StepSource: expected NoTracee, got %v", err)
	}
	if _, err := ctx.ReadRegisters(); !errors.Is(err, errors.NoTracee) {
		t.Fatalf("ReadRegisters: expected NoTracee, got %v", err)
	}
	if _, err := ctx.ReadMemory(0, 8); !errors.Is(err, errors.NoTracee) {
		t.Fatalf("ReadMemory: expected NoTracee, got %v", err)
	}
	if _, err := ctx.CallStack(); !errors.Is(err, errors.NoTracee) {
		t.Fatalf("CallStack: expected NoTracee, got %v", err)
	}
	if _, _, err := ctx.DisassembleAround(0); !errors.Is(err, errors.NoTracee) {
		t.Fatalf("DisassembleAround: expected NoTracee, got %v", err)
	}
}

func TestOperationsRequireLoadedExecutable(t *testing.T) {
	ctx := NewContext()

	if err := ctx.AddPendingBreakpoint(0x1000); !errors.Is(err, errors.NoTracee) {
		t.Fatalf("AddPendingBreakpoint: expected NoTracee, got %v", err)
	}
	if _, err := ctx.AddBreakpointAtSourceLine(lineindex.SourceIndex{}); !errors.Is(err, errors.NoTracee) {
		t.Fatalf("AddBreakpointAtSourceLine: expected NoTracee, got %v", err)
	}
	if err := ctx.ClearBreakpoint(0x1000); !errors.Is(err, errors.NoTracee) {
		t.Fatalf("ClearBreakpoint: expected NoTracee, got %v", err)
	}
	if ctx.TypeData() != nil {
		t.Fatal("expected nil TypeData before an executable is loaded")
	}
}

func TestLoadExecutableMissingFile(t *testing.T) {
	ctx := NewContext()
	err := ctx.LoadExecutable("/nonexistent/path/to/a.out")
	test.ExpectInequality(t, err, nil)
}

func TestToLinkToRuntimeIdentityBeforeLoad(t *testing.T) {
	ctx := NewContext()
	test.ExpectEquality(t, ctx.ToLink(0x4000), uint64(0x4000))
	test.ExpectEquality(t, ctx.ToRuntime(0x4000), uint64(0x4000))
}
