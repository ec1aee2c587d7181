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

// Package replterm is the thinnest possible driver of the debugger
// core's public contract: it tokenises a line of input against a fixed
// command template, dispatches to a debugger.Context, and prints the
// result through a terminal.Terminal.
package replterm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nativedbg/nativedbg/debugger"
	"github.com/nativedbg/nativedbg/debugger/govern"
	"github.com/nativedbg/nativedbg/debugger/script"
	"github.com/nativedbg/nativedbg/errors"
	"github.com/nativedbg/nativedbg/frame"
	"github.com/nativedbg/nativedbg/lineindex"
	"github.com/nativedbg/nativedbg/terminal"
	"github.com/nativedbg/nativedbg/terminal/commandline"
	"github.com/nativedbg/nativedbg/tracee"
	"github.com/nativedbg/nativedbg/typeinfo"
	"github.com/nativedbg/nativedbg/unwind"
)

// command keywords, compiled once into replCommands below.
const (
	cmdLoad     = "LOAD"
	cmdLaunch   = "LAUNCH"
	cmdBreak    = "BREAK"
	cmdClear    = "CLEAR"
	cmdContinue = "CONTINUE"
	cmdStep     = "STEP"
	cmdRegs     = "REGS"
	cmdBt       = "BT"
	cmdPrint    = "PRINT"
	cmdMem      = "MEM"
	cmdDisas    = "DISAS"
	cmdList     = "LIST"
	cmdScript   = "SCRIPT"
	cmdQuit     = "QUIT"
)

const cmdHelp = "HELP"

var commandTemplate = []string{
	cmdLoad + " %<path>F",
	cmdLaunch + " {%<args>S}",
	cmdBreak + " %<location>S",
	cmdClear + " %<address>S",
	cmdContinue,
	cmdStep,
	cmdRegs,
	cmdBt,
	cmdPrint + " %<name>S",
	cmdMem + " %<address>S (%<length>N)",
	cmdDisas + " (%<address>S)",
	cmdList + " (BREAKS)",
	cmdScript + " [RECORD %<new file>F|END|%<file>F]",
	cmdQuit,
}

var helps = map[string]string{
	cmdLoad:     "load an executable",
	cmdLaunch:   "launch the loaded executable, stopping at the first pending breakpoint",
	cmdBreak:    "set a breakpoint, either a hex/decimal address or file:line",
	cmdClear:    "clear a breakpoint by address",
	cmdContinue: "resume the tracee until the next breakpoint or exit",
	cmdStep:     "single-step to the next source line",
	cmdRegs:     "show the current register file",
	cmdBt:       "show the call stack",
	cmdPrint:    "print a local variable or parameter in the current frame",
	cmdMem:      "dump tracee memory at an address",
	cmdDisas:    "show the raw bytes around an address for external disassembly",
	cmdList:     "list breakpoints",
	cmdScript:   "record or replay a command script",
	cmdQuit:     "quit the debugger",
}

var replCommands *commandline.Commands

func init() {
	var err error

	replCommands, err = commandline.ParseCommandTemplate(commandTemplate)
	if err != nil {
		panic(err)
	}
	err = replCommands.AddHelp(cmdHelp, helps)
	if err != nil {
		panic(err)
	}
	sort.Stable(replCommands)
}

// REPL drives a terminal.Terminal against a debugger.Context: read a
// line, tokenise and validate it against the fixed command template,
// dispatch it, print the outcome, repeat. One REPL per process.
type REPL struct {
	ctx  *debugger.Context
	term terminal.Terminal

	running bool

	// replayed holds a pushed script's Input side while scr.Scribe on
	// ctx records everything that flows through it, pairing a Player
	// with the recording Scribe.
	replayed terminal.Input
}

// New builds a REPL over an already-initialised terminal front end.
func New(ctx *debugger.Context, term terminal.Terminal) *REPL {
	term.RegisterTabCompletion(commandline.NewTabCompletion(replCommands))
	return &REPL{ctx: ctx, term: term}
}

// Run loops until QUIT, EOF, or a fatal read error.
func (r *REPL) Run() error {
	r.running = true

	buf := make([]byte, 4096)
	for r.running {
		prompt := r.prompt()

		in := r.term
		var input terminal.Input = r.term
		if r.replayed != nil {
			input = r.replayed
		}

		n, err := input.TermRead(buf, prompt, &terminal.ReadEvents{})
		if err != nil {
			if r.replayed != nil {
				// end of a replayed script falls back to the real
				// terminal.
				r.replayed = nil
				_ = r.ctx.Scribe.EndPlayback()
				continue
			}
			return err
		}
		if n <= 0 {
			continue
		}

		line := strings.TrimSpace(string(buf[:n]))
		if line == "" {
			continue
		}

		if err := r.dispatchLine(in, line); err != nil {
			in.TermPrintLine(terminal.StyleError, err.Error())
		}
	}

	return nil
}

func (r *REPL) prompt() terminal.Prompt {
	kind := terminal.PromptKindNormal
	running := false
	switch r.ctx.State() {
	case govern.Stopped:
		kind = terminal.PromptKindStopped
	case govern.Running:
		running = true
	}
	return terminal.Prompt{Content: "ndbg", Kind: kind, Running: running}
}

func (r *REPL) dispatchLine(out terminal.Output, line string) error {
	tokens := commandline.TokeniseInput(line)
	if tokens.Remaining() == 0 {
		return nil
	}

	if err := replCommands.ValidateTokens(tokens); err != nil {
		return err
	}
	out.TermPrintLine(terminal.StyleEcho, tokens.String())

	if r.ctx.Scribe.IsActive() {
		_ = r.ctx.Scribe.WriteInput(tokens.String())
	}

	tokens.Reset()
	command, _ := tokens.Get()

	switch command {
	default:
		return errors.Errorf(errors.InputInvalidCommand, command)

	case cmdHelp:
		keyword, ok := tokens.Get()
		if ok {
			out.TermPrintLine(terminal.StyleHelp, replCommands.Help(keyword))
		} else {
			out.TermPrintLine(terminal.StyleHelp, replCommands.HelpOverview())
		}

	case cmdQuit:
		if r.ctx.Scribe.IsActive() {
			_ = r.ctx.Scribe.EndSession()
		}
		r.running = false

	case cmdLoad:
		path, _ := tokens.Get()
		if err := r.ctx.LoadExecutable(path); err != nil {
			return err
		}
		out.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("loaded %s", path))

	case cmdLaunch:
		var args []string
		for {
			a, ok := tokens.Get()
			if !ok {
				break
			}
			args = append(args, a)
		}
		st, err := r.ctx.Launch(args, tracee.Inherit)
		if err != nil {
			return err
		}
		r.reportStop(out, st)

	case cmdBreak:
		loc, _ := tokens.Get()
		addr, err := r.resolveBreakLocation(loc)
		if err != nil {
			return err
		}
		if err := r.ctx.AddPendingBreakpoint(addr); err != nil {
			return err
		}
		out.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("breakpoint at 0x%x", addr))

	case cmdClear:
		addrStr, _ := tokens.Get()
		addr, err := strconv.ParseUint(strings.TrimPrefix(addrStr, "0x"), 16, 64)
		if err != nil {
			return errors.Errorf(errors.InputInvalidCommand, addrStr)
		}
		if err := r.ctx.ClearBreakpoint(addr); err != nil {
			return err
		}
		out.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("cleared breakpoint at 0x%x", addr))

	case cmdContinue:
		st, err := r.ctx.Continue()
		if err != nil {
			return err
		}
		r.reportStop(out, st)

	case cmdStep:
		link, si, err := r.ctx.StepSource()
		if err != nil {
			return err
		}
		out.TermPrintLine(terminal.StyleCPUStep, fmt.Sprintf("0x%x %s", link, formatSourceIndex(si)))

	case cmdRegs:
		regs, err := r.ctx.ReadRegisters()
		if err != nil {
			return err
		}
		out.TermPrintLine(terminal.StyleNormal, formatRegisters(regs))

	case cmdBt:
		frames, err := r.ctx.CallStack()
		if err != nil {
			return err
		}
		for i, f := range frames {
			out.TermPrintLine(terminal.StyleNormal, fmt.Sprintf("#%d 0x%x %s", i, f.PC, f.FunctionName))
		}

	case cmdPrint:
		name, _ := tokens.Get()
		frames, err := r.ctx.CallStack()
		if err != nil {
			return err
		}
		if len(frames) == 0 {
			return errors.Errorf(errors.NoTracee, "no frame")
		}
		v, ok := findVariable(frames[0], name)
		if !ok {
			return errors.Errorf(errors.InputInvalidCommand, name)
		}
		out.TermPrintLine(terminal.StyleNormal, r.formatVariable(v))

	case cmdMem:
		addrStr, _ := tokens.Get()
		addr, err := strconv.ParseUint(strings.TrimPrefix(addrStr, "0x"), 16, 64)
		if err != nil {
			return errors.Errorf(errors.InputInvalidCommand, addrStr)
		}
		length := 16
		if lenStr, ok := tokens.Get(); ok {
			n, err := strconv.Atoi(lenStr)
			if err == nil {
				length = n
			}
		}
		data, err := r.ctx.ReadMemory(addr, length)
		if err != nil {
			return err
		}
		out.TermPrintLine(terminal.StyleNormal, formatHexDump(addr, data))

	case cmdDisas:
		addr := uint64(0)
		if addrStr, ok := tokens.Get(); ok {
			a, err := strconv.ParseUint(strings.TrimPrefix(addrStr, "0x"), 16, 64)
			if err != nil {
				return errors.Errorf(errors.InputInvalidCommand, addrStr)
			}
			addr = a
		} else {
			regs, err := r.ctx.ReadRegisters()
			if err != nil {
				return err
			}
			addr = r.ctx.ToLink(regs[frame.RegRIP])
		}
		start, data, err := r.ctx.DisassembleAround(addr)
		if err != nil {
			return err
		}
		out.TermPrintLine(terminal.StyleInstrument, formatHexDump(start, data))

	case cmdList:
		for _, b := range r.ctx.ListBreakpoints() {
			out.TermPrintLine(terminal.StyleNormal, fmt.Sprintf("0x%x installed=%v enabled=%v", b.Address, b.Installed, b.Enabled))
		}

	case cmdScript:
		sub, _ := tokens.Get()
		switch strings.ToUpper(sub) {
		case "RECORD":
			file, _ := tokens.Get()
			if err := r.ctx.Scribe.StartSession(file); err != nil {
				return err
			}
			out.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("recording to %s", file))
		case "END":
			if err := r.ctx.Scribe.EndSession(); err != nil {
				return err
			}
			out.TermPrintLine(terminal.StyleFeedback, "recording ended")
		default:
			if err := r.PlayScript(sub); err != nil {
				return err
			}
		}
	}

	return nil
}

// PlayScript loads file and arranges for its commands to be replayed
// through the same dispatcher as interactive input, exactly as if the
// user had typed "SCRIPT file". Exported so cmd/ndbg can queue a script
// passed on the command line before entering the interactive loop.
func (r *REPL) PlayScript(file string) error {
	rescribed, err := script.RescribeScript(file)
	if err != nil {
		return err
	}
	if err := r.ctx.Scribe.StartPlayback(); err != nil {
		return err
	}
	r.replayed = rescribed
	return nil
}

// resolveBreakLocation interprets loc as a hex/decimal link-time address
// or a "file:line" source position, resolved through the context's
// source index.
func (r *REPL) resolveBreakLocation(loc string) (uint64, error) {
	if file, lineStr, ok := strings.Cut(loc, ":"); ok {
		line, err := strconv.Atoi(lineStr)
		if err != nil {
			return 0, errors.Errorf(errors.InputInvalidCommand, loc)
		}
		si, ok := r.ctx.ResolveSourceLocation(file, line)
		if !ok {
			return 0, errors.Errorf(errors.DwarfCorruption, fmt.Sprintf("no such source location: %s", loc))
		}
		return r.ctx.AddBreakpointAtSourceLine(si)
	}

	base, digits := 10, loc
	if hex, ok := strings.CutPrefix(loc, "0x"); ok {
		base, digits = 16, hex
	}
	addr, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, errors.Errorf(errors.InputInvalidCommand, loc)
	}
	return addr, nil
}

func (r *REPL) reportStop(out terminal.Output, st *tracee.Status) {
	switch {
	case st.Exited:
		out.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("tracee exited, code %d", st.ExitCode))
	case st.Signaled:
		out.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("tracee killed by signal %v", st.Signal))
	case st.Stopped:
		out.TermPrintLine(terminal.StyleFeedback, fmt.Sprintf("stopped, signal %v", st.StopSig))
	}
}

func formatSourceIndex(si lineindex.SourceIndex) string {
	return fmt.Sprintf("%s:%d", si.Dir, si.Line)
}

func formatRegisters(regs unwind.RegisterFile) string {
	s := strings.Builder{}
	names := make([]int, 0, len(regs))
	for r := range regs {
		names = append(names, r)
	}
	sort.Ints(names)
	for _, r := range names {
		fmt.Fprintf(&s, "r%-3d 0x%016x\n", r, regs[r])
	}
	return strings.TrimRight(s.String(), "\n")
}

// findVariable looks a name up among a frame's parameters first, then its
// in-scope locals, matching the order a user expects to shadow in.
func findVariable(f frame.Frame, name string) (frame.Variable, bool) {
	for _, v := range f.Parameters {
		if v.Name == name {
			return v, true
		}
	}
	for _, v := range f.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return frame.Variable{}, false
}

// formatVariable renders a decoded Variable's location and, when the
// DWARF type data is available, its resolved TypeDescription name.
func (r *REPL) formatVariable(v frame.Variable) string {
	loc := "<no location>"
	switch v.Location.Kind {
	case frame.LocRegister:
		loc = fmt.Sprintf("register r%d", v.Location.Register)
	case frame.LocAddress:
		loc = fmt.Sprintf("0x%x", v.Location.Address)
	case frame.LocValue:
		loc = fmt.Sprintf("value 0x%x", v.Location.Value)
	}

	typeName := "<unknown type>"
	if v.HasType {
		if data := r.ctx.TypeData(); data != nil {
			if td, err := typeinfo.Decode(data, v.Type); err == nil {
				typeName = td.Name
			}
		}
	}

	if v.HasConstValue {
		return fmt.Sprintf("%s: %s = %d", v.Name, typeName, v.ConstValue)
	}
	return fmt.Sprintf("%s: %s @ %s", v.Name, typeName, loc)
}

func formatHexDump(start uint64, data []byte) string {
	s := strings.Builder{}
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Fprintf(&s, "0x%08x  % x\n", start+uint64(i), data[i:end])
	}
	return strings.TrimRight(s.String(), "\n")
}
