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

import (
	"fmt"
	"os"
	"syscall"
)

// SuspendProcess sends SIGTSTP to the parent process, used when the
// terminal (in raw mode) receives KeySuspend and needs to hand the
// suspend signal back to the shell that would normally see it.
func SuspendProcess() error {
	parent, err := os.FindProcess(os.Getppid())
	if err != nil {
		return fmt.Errorf("easyterm: no parent process to suspend: %w", err)
	}
	return parent.Signal(syscall.SIGTSTP)
}
