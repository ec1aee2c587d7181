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

// ndbg is the thin entry point wiring the debugger core to the OS:
// parse flags, load the requested executable, pick a terminal front
// end, and run the REPL until quit/EOF.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/nativedbg/nativedbg/debugger"
	"github.com/nativedbg/nativedbg/logger"
	"github.com/nativedbg/nativedbg/terminal"
	"github.com/nativedbg/nativedbg/terminal/colorterm"
	"github.com/nativedbg/nativedbg/terminal/plainterm"
	"github.com/nativedbg/nativedbg/terminal/replterm"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("ndbg", flag.ExitOnError)
	termType := fs.String("term", "plain", "terminal type: plain or color")
	scriptFile := fs.String("script", "", "replay a recorded command script on startup")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := debugger.NewContext()

	var term terminal.Terminal
	switch strings.ToUpper(*termType) {
	case "COLOR":
		term = &colorterm.ColorTerminal{}
	default:
		if *termType != "" && strings.ToUpper(*termType) != "PLAIN" {
			logger.Logf(logger.Allow, "ndbg", "unknown terminal %q, defaulting to plain", *termType)
		}
		term = &plainterm.PlainTerminal{}
	}

	if err := term.Initialise(); err != nil {
		return err
	}
	defer term.CleanUp()

	repl := replterm.New(ctx, term)

	if path := fs.Arg(0); path != "" {
		if err := ctx.LoadExecutable(path); err != nil {
			return err
		}
	}

	if *scriptFile != "" {
		if err := repl.PlayScript(*scriptFile); err != nil {
			return err
		}
	}

	return repl.Run()
}
