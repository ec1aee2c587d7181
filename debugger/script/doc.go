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

// Package script records a REPL session to a file (Scribe) and replays one
// back as though it were typed interactively (Player, built by
// RescribeScript). Both sides agree on the same normalised command queue so
// a handwritten script and a recorded one are replayed identically: blank
// lines and lines starting with # are dropped, and a malformed command in a
// handwritten script simply fails with the usual error at dispatch time
// rather than being rejected up front.
package script
