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

package errors

// message constants used with Errorf. Grouped by the component that raises
// them. Kept as plain format strings: the tagged error's identity is the
// message string itself, so Is/Has compare against these directly rather than against a
// separate Errno value.
const (
	// binary loading (C1)
	MalformedBinary   = "malformed binary: %v"
	UnsupportedTarget = "unsupported target: %v"
	FileNotExecutable = "file is not executable: %v"

	// DWARF decoding (C2-C4, C9, C11)
	DwarfCorruption         = "dwarf corruption: %v"
	UnsupportedType         = "unsupported type: %v"
	UnsupportedRegisterRule = "unsupported register rule: %v"
	NoFrameBase             = "no frame base: %v"
	NoCfa                   = "no canonical frame address: %v"
	CorruptCFI              = "corrupt call frame information: %v"

	// tracee lifecycle (C5)
	NoTracee         = "no tracee: %v"
	TraceeDied       = "tracee died: %v"
	FatalLaunchError = "fatal launch error: %v"

	// breakpoints (C6) and stepping (C7)
	BreakpointStateInconsistent = "breakpoint state inconsistent: %v"
	NotAtBreakpoint             = "not at breakpoint: %v"

	// memory access
	MemoryReadError = "memory read error: %v"

	// commandline / scripting front end
	InputEmpty             = "no input"
	InputInvalidCommand    = "invalid command: %v"
	InputTooManyArgs       = "too many arguments: %v"
	InputTooFewArgs        = "too few arguments: %v"
	ScriptFileError        = "script error: %v"
	ScriptAlreadyRecording = "a recording is already in progress: %v"
	ScriptWriteError       = "script write error: %v"
)
