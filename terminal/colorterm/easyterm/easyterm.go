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

// Package easyterm wraps github.com/pkg/term/termios with the three
// terminal modes colorterm switches between (canonical, raw, cbreak) and
// a SIGWINCH-driven geometry reader, under names that read as actions
// rather than termios flag combinations.
package easyterm

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"unsafe"

	"github.com/pkg/term/termios"
)

// TermGeometry is the terminal's size in characters and pixels.
type TermGeometry struct {
	rows, cols uint16
	x, y       uint16
}

// mode names one of the three termios attribute sets EasyTerm prepares at
// Initialise time.
type mode int

const (
	modeCanonical mode = iota
	modeRaw
	modeCBreak
)

// EasyTerm is a POSIX terminal under raw/canonical/cbreak control,
// normally embedded in a terminal.Input/terminal.Output implementation.
type EasyTerm struct {
	input  *os.File
	output *os.File

	Geometry TermGeometry

	attrs map[mode]syscall.Termios

	stopGeometryWatch chan bool
	geometryWatchDone chan bool

	// mu guards everything touched by both the exported methods below and
	// the background SIGWINCH handler goroutine.
	mu sync.Mutex
}

// Initialise prepares the three termios attribute sets and starts the
// background SIGWINCH watcher that keeps Geometry current.
func (et *EasyTerm) Initialise(inputFile, outputFile *os.File) error {
	if inputFile == nil {
		return fmt.Errorf("easyterm: no input file given")
	}
	if outputFile == nil {
		return fmt.Errorf("easyterm: no output file given")
	}

	et.input = inputFile
	et.output = outputFile
	et.attrs = make(map[mode]syscall.Termios, 3)

	var canonical, raw, cbreak syscall.Termios
	termios.Tcgetattr(et.input.Fd(), &canonical)
	termios.Cfmakeraw(&raw)
	termios.Cfmakecbreak(&cbreak)
	et.attrs[modeCanonical] = canonical
	et.attrs[modeRaw] = raw
	et.attrs[modeCBreak] = cbreak

	et.stopGeometryWatch = make(chan bool)
	et.geometryWatchDone = make(chan bool)
	go et.watchGeometry()

	return nil
}

func (et *EasyTerm) watchGeometry() {
	sigwinch := make(chan os.Signal, 1)
	signal.Notify(sigwinch, syscall.SIGWINCH)
	defer func() { et.geometryWatchDone <- true }()

	for {
		select {
		case <-sigwinch:
			_ = et.UpdateGeometry()
		case <-et.stopGeometryWatch:
			return
		}
	}
}

// CleanUp stops the background geometry watcher started by Initialise.
func (et *EasyTerm) CleanUp() {
	et.mu.Lock()
	defer et.mu.Unlock()

	et.stopGeometryWatch <- true
	<-et.geometryWatchDone
}

// UpdateGeometry refreshes Geometry from the output terminal's current
// window size.
func (et *EasyTerm) UpdateGeometry() error {
	et.mu.Lock()
	defer et.mu.Unlock()

	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, et.output.Fd(),
		uintptr(syscall.TIOCGWINSZ), uintptr(unsafe.Pointer(&et.Geometry)))
	if errno != 0 {
		return fmt.Errorf("easyterm: reading terminal geometry: errno %d", errno)
	}
	return nil
}

func (et *EasyTerm) setMode(m mode) error {
	et.mu.Lock()
	defer et.mu.Unlock()

	attr := et.attrs[m]
	return termios.Tcsetattr(et.input.Fd(), termios.TCIFLUSH, &attr)
}

// CanonicalMode restores normal line-buffered terminal behaviour.
func (et *EasyTerm) CanonicalMode() error { return et.setMode(modeCanonical) }

// RawMode disables line buffering and echo so every keystroke reaches the
// reader immediately.
func (et *EasyTerm) RawMode() error { return et.setMode(modeRaw) }

// CBreakMode is like RawMode but leaves signal generation (^C, ^Z) to the
// terminal driver.
func (et *EasyTerm) CBreakMode() error { return et.setMode(modeCBreak) }

// Flush discards any buffered input and output.
func (et *EasyTerm) Flush() error {
	et.mu.Lock()
	defer et.mu.Unlock()

	if err := termios.Tcflush(et.input.Fd(), termios.TCIFLUSH); err != nil {
		return err
	}
	return termios.Tcflush(et.output.Fd(), termios.TCOFLUSH)
}

// TermPrint writes s to the output file.
func (et *EasyTerm) TermPrint(s string) {
	_, _ = et.output.WriteString(s)
}
