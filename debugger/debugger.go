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

// Package debugger is the core-to-shell boundary: one
// process-wide Context holding the loaded executable, its DWARF indices,
// the breakpoint table, and the live tracee, guarded by a single
// exclusive lock. Every exported method acquires that lock for its whole
// duration -- deliberately, because a call like
// CallStack reads many DWARF and memory sources that must not shift
// mid-reconstruction, and because every ptrace/proc-mem operation
// requires the tracee to be stopped for its entire duration.
package debugger

import (
	"debug/dwarf"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/nativedbg/nativedbg/breakpoints"
	"github.com/nativedbg/nativedbg/debugger/govern"
	"github.com/nativedbg/nativedbg/debugger/script"
	"github.com/nativedbg/nativedbg/dwarfsec"
	"github.com/nativedbg/nativedbg/elfimage"
	"github.com/nativedbg/nativedbg/errors"
	"github.com/nativedbg/nativedbg/frame"
	"github.com/nativedbg/nativedbg/funcindex"
	"github.com/nativedbg/nativedbg/lineindex"
	"github.com/nativedbg/nativedbg/logger"
	"github.com/nativedbg/nativedbg/stepper"
	"github.com/nativedbg/nativedbg/tracee"
	"github.com/nativedbg/nativedbg/unwind"
)

// Backscan bounds how far DisassembleAround reads backward from an
// address before it, since the external decoder re-aligns on
// its own.
const Backscan = 64

// tableMem adapts a Context's current tracee into the breakpoints.Table's
// WordReadWriter, indirectly, so the same Table (and its recorded
// addresses) survives a tracee restart without needing to be rebuilt.
type tableMem struct {
	ctx *Context
}

func (m tableMem) PeekWord(addr uint64) (uint64, error) { return m.ctx.tc.PeekWord(addr) }
func (m tableMem) PokeWord(addr uint64, word uint64) error {
	return m.ctx.tc.PokeWord(addr, word)
}

// Context is the process-wide debugging session: a single owning
// context rather than scattered global
// cells, constructed atomically per LoadedImage and disposed of when a
// new executable is loaded.
type Context struct {
	mu sync.Mutex

	mode  atomic.Value // govern.RunMode
	state atomic.Value // govern.TraceeState

	path  string
	image *elfimage.LoadedImage
	cache *dwarfsec.Cache
	lines *lineindex.Index
	funcs *funcindex.FunctionIndex
	eh    *unwind.View

	bp   *breakpoints.Table
	tc   *tracee.Tracee
	step *stepper.Controller
	dec  *frame.Decoder

	regs   unwind.RegisterFile
	lastSt tracee.Status

	// Scribe records interactive input to a script file; see
	// terminal/replterm for where commands flow through it.
	Scribe script.Scribe
}

// NewContext creates an empty debugging context with no executable
// loaded yet.
func NewContext() *Context {
	ctx := &Context{}
	ctx.mode.Store(govern.ModeNone)
	ctx.state.Store(govern.NoTracee)
	return ctx
}

// Mode reports the current RunMode. Safe to call from any goroutine
// without acquiring the lock, using the same atomic.Value pattern for
// state read by a GUI thread.
func (ctx *Context) Mode() govern.RunMode {
	return ctx.mode.Load().(govern.RunMode)
}

// State reports the current TraceeState.
func (ctx *Context) State() govern.TraceeState {
	return ctx.state.Load().(govern.TraceeState)
}

// ExecutablePath returns the path of the currently loaded executable, or
// "" if none has been loaded.
func (ctx *Context) ExecutablePath() string {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.path
}

// LastStatus returns the Status from the most recent Launch/Continue/
// StepSource call.
func (ctx *Context) LastStatus() tracee.Status {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.lastSt
}

// LoadExecutable implements the core-to-shell load_executable(path)
// operation: parse the ELF, build the three DWARF indices (C2-C4) and the
// CFI view (C8) once, and discard whatever the previous executable
// (indices, breakpoints, tracee) left behind.
func (ctx *Context) LoadExecutable(path string) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	image, err := elfimage.Load(path)
	if err != nil {
		return err
	}
	cache, err := dwarfsec.NewCache(image)
	if err != nil {
		return err
	}
	lines, err := lineindex.Build(cache.Data)
	if err != nil {
		return err
	}
	funcs, err := funcindex.Build(cache.Data)
	if err != nil {
		return err
	}
	eh, err := unwind.NewView(cache.EhFrame, cache.ByteOrder)
	if err != nil {
		return err
	}

	ctx.teardownTracee()

	ctx.path = path
	ctx.image = image
	ctx.cache = cache
	ctx.lines = lines
	ctx.funcs = funcs
	ctx.eh = eh
	ctx.bp = breakpoints.NewTable(tableMem{ctx}, image.ToRuntime, image.ToLink)
	ctx.mode.Store(govern.ModeDebugging)
	ctx.state.Store(govern.NoTracee)

	logger.Logf(logger.Allow, "debugger", "loaded executable: %s", path)
	return nil
}

// Launch implements launch(args, stdio_mode): fork+exec+traceme, resolve
// the PIE load shift, wire the stepper and frame decoder against the new
// tracee, then run the control flow for the very first
// user-visible stop -- install whatever breakpoints are pending and
// resume past the dynamic linker's own entry trap.
func (ctx *Context) Launch(args []string, mode tracee.StdioMode) (*tracee.Status, error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.image == nil {
		return nil, errors.Errorf(errors.NoTracee, "no executable loaded")
	}

	ctx.teardownTracee()

	tc, err := tracee.Launch(ctx.path, args, mode)
	if err != nil {
		return nil, err
	}
	ctx.tc = tc

	if err := ctx.image.ResolveLoadShift(tc.Pid); err != nil {
		return nil, err
	}

	ctx.step = stepper.New(tc, ctx.bp, ctx.lines, ctx.image.ToLink)
	ctx.dec = frame.NewDecoder(ctx.image, ctx.cache, ctx.lines, ctx.funcs, ctx.eh, tc)

	regs, err := tc.Regs()
	if err != nil {
		return nil, err
	}
	ctx.regs = frame.FromPtraceRegs(regs)
	ctx.state.Store(govern.Stopped)

	return ctx.continueLocked()
}

// Continue implements continue(): step over a breakpoint under RIP if
// necessary, install every pending breakpoint, and resume until the next
// trap or exit.
func (ctx *Context) Continue() (*tracee.Status, error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.continueLocked()
}

func (ctx *Context) continueLocked() (*tracee.Status, error) {
	if err := ctx.requireTracee(); err != nil {
		return nil, err
	}
	ctx.state.Store(govern.Running)
	st, err := ctx.step.Continue()
	if err != nil {
		return nil, err
	}
	return ctx.afterStop(st)
}

// StepSource implements step_source(): single-step (rewinding past a trap
// of our own first, if needed) until RIP lands on a different source
// line than the one it started on.
func (ctx *Context) StepSource() (uint64, lineindex.SourceIndex, error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if err := ctx.requireTracee(); err != nil {
		return 0, lineindex.SourceIndex{}, err
	}

	ctx.state.Store(govern.Running)
	link, si, err := ctx.step.SourceStep()
	if err != nil {
		if errors.Is(err, errors.TraceeDied) {
			ctx.state.Store(govern.Exited)
		}
		return 0, lineindex.SourceIndex{}, err
	}

	regs, err := ctx.tc.Regs()
	if err != nil {
		return 0, lineindex.SourceIndex{}, err
	}
	ctx.regs = frame.FromPtraceRegs(regs)
	ctx.state.Store(govern.Stopped)

	return link, si, nil
}

// afterStop classifies a Status into the TraceeState it implies and, for
// a genuine stop, refreshes the cached register snapshot that CallStack
// and ReadRegisters serve from.
func (ctx *Context) afterStop(st tracee.Status) (*tracee.Status, error) {
	ctx.lastSt = st
	switch {
	case st.Exited:
		ctx.state.Store(govern.Exited)
	case st.Signaled:
		ctx.state.Store(govern.Killed)
	case st.Stopped:
		regs, err := ctx.tc.Regs()
		if err != nil {
			return nil, err
		}
		ctx.regs = frame.FromPtraceRegs(regs)
		ctx.state.Store(govern.Stopped)
	}
	return &st, nil
}

// ReadRegisters implements read_registers(): refresh and return a copy of
// the tracee's register file.
func (ctx *Context) ReadRegisters() (unwind.RegisterFile, error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if err := ctx.requireTracee(); err != nil {
		return nil, err
	}

	regs, err := ctx.tc.Regs()
	if err != nil {
		return nil, err
	}
	ctx.regs = frame.FromPtraceRegs(regs)

	out := make(unwind.RegisterFile, len(ctx.regs))
	for k, v := range ctx.regs {
		out[k] = v
	}
	return out, nil
}

// ReadMemory implements read_memory(address, length).
func (ctx *Context) ReadMemory(addr uint64, length int) ([]byte, error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if err := ctx.requireTracee(); err != nil {
		return nil, err
	}
	return ctx.tc.ReadMemory(addr, length)
}

// CallStack implements call_stack(): unwind the tracee's current register
// file into a sequence of decoded Frames.
func (ctx *Context) CallStack() ([]frame.Frame, error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if err := ctx.requireTracee(); err != nil {
		return nil, err
	}
	return ctx.dec.CallStack(ctx.regs)
}

// DisassembleAround implements disassemble_around(address): supply the
// memory bytes surrounding address, starting up to Backscan bytes
// earlier, for an external decoder to re-align and disassemble. The core
// never disassembles the bytes itself; the decoder is named only as a
// boundary contract.
func (ctx *Context) DisassembleAround(addr uint64) (start uint64, data []byte, err error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if err := ctx.requireTracee(); err != nil {
		return 0, nil, err
	}

	start = 0
	if addr > Backscan {
		start = addr - Backscan
	}
	length := int(addr-start) + 16
	data, err = ctx.tc.ReadMemory(start, length)
	if err != nil {
		return 0, nil, err
	}
	return start, data, nil
}

// AddPendingBreakpoint implements add_pending_breakpoint(address): record
// a breakpoint without touching the tracee. Valid whether or not a
// tracee is currently running; it is installed on the next Continue.
func (ctx *Context) AddPendingBreakpoint(addr uint64) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.bp == nil {
		return errors.Errorf(errors.NoTracee, "no executable loaded")
	}
	ctx.bp.AddPending(addr)
	return nil
}

// AddBreakpointAtSourceLine implements
// add_breakpoint_at_source_line(SourceIndex): resolve si to an address
// via the line index and record it as pending.
func (ctx *Context) AddBreakpointAtSourceLine(si lineindex.SourceIndex) (uint64, error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.lines == nil {
		return 0, errors.Errorf(errors.NoTracee, "no executable loaded")
	}
	addr, ok := ctx.lines.GetAddress(si)
	if !ok {
		return 0, errors.Errorf(errors.DwarfCorruption, "no address known for that source line")
	}
	ctx.bp.AddPending(addr)
	return addr, nil
}

// ResolveSourceLocation finds the SourceIndex for file:line, matching file
// against the tail of any indexed RelPath so that a bare basename such as
// "main.c" matches a compilation unit that recorded it as "src/main.c".
func (ctx *Context) ResolveSourceLocation(file string, line int) (lineindex.SourceIndex, bool) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.lines == nil {
		return lineindex.SourceIndex{}, false
	}
	for dir, files := range ctx.lines.Map {
		for i, sf := range files {
			if sf.RelPath == file || strings.HasSuffix(sf.RelPath, "/"+file) {
				return lineindex.SourceIndex{Line: line, Dir: dir, Index: i}, true
			}
		}
	}
	return lineindex.SourceIndex{}, false
}

// TypeData exposes the raw *dwarf.Data backing the loaded image's type
// information, so a front end can resolve a Variable.Type offset through
// typeinfo.Decode without reaching into the context's internals.
func (ctx *Context) TypeData() *dwarf.Data {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.cache == nil {
		return nil
	}
	return ctx.cache.Data
}

// ClearBreakpoint implements clear_breakpoint(address): drop the
// breakpoint entirely, removing the trap byte first if installed.
func (ctx *Context) ClearBreakpoint(addr uint64) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.bp == nil {
		return errors.Errorf(errors.NoTracee, "no executable loaded")
	}
	return ctx.bp.Forget(addr)
}

// ListBreakpoints returns every recorded breakpoint with its current
// installed/enabled state, for the shell's breakpoint listing.
func (ctx *Context) ListBreakpoints() []breakpoints.Listing {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.bp == nil {
		return nil
	}
	return ctx.bp.List()
}

// SourceLine resolves a link-time address to its SourceIndex, for the
// shell to print alongside a stop.
func (ctx *Context) SourceLine(addr uint64) (lineindex.SourceIndex, bool) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.lines == nil {
		return lineindex.SourceIndex{}, false
	}
	return ctx.lines.GetLine(addr)
}

// ToLink and ToRuntime expose the loaded image's address normalization to
// the shell, so it can translate a runtime RIP before calling
// SourceLine/AddBreakpointAtSourceLine.
func (ctx *Context) ToLink(addr uint64) uint64 {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.image == nil {
		return addr
	}
	return ctx.image.ToLink(addr)
}

func (ctx *Context) ToRuntime(addr uint64) uint64 {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.image == nil {
		return addr
	}
	return ctx.image.ToRuntime(addr)
}

// Kill implements the tracee-kill request: send SIGKILL,
// consume the resulting exit status, and invalidate the context so any
// further operation requiring a tracee fails with NoTracee. Breakpoints
// and the DWARF indices are retained.
func (ctx *Context) Kill() error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.teardownTracee()
	return nil
}

// teardownTracee invalidates everything tied to the current OS process --
// the tracee itself, the stepper and frame decoder built against it, and
// the cached register snapshot -- while leaving the DWARF indices and the
// breakpoint table's recorded addresses untouched:
// breakpoints survive a tracee restart.
func (ctx *Context) teardownTracee() {
	if ctx.tc != nil {
		_ = ctx.tc.Kill()
	}
	ctx.tc = nil
	ctx.step = nil
	ctx.dec = nil
	ctx.regs = nil
	ctx.state.Store(govern.NoTracee)
}

func (ctx *Context) requireTracee() error {
	if ctx.tc == nil {
		return errors.Errorf(errors.NoTracee, "no running tracee")
	}
	return nil
}
