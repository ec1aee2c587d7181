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

// Package ansi builds the CSI escape sequences colorterm uses to style
// prompts and output: colored text, cursor storage/movement, line
// clearing.
package ansi

import (
	"fmt"
	"strings"
)

// colorCode maps a color name to its ANSI SGR parameter.
var colorCode = map[string]int{
	"black":   0,
	"red":     1,
	"green":   2,
	"yellow":  3,
	"blue":    4,
	"magenta": 5,
	"cyan":    6,
	"white":   7,
	"normal":  9,
}

const (
	targetPen         = 3
	targetPaper       = 4
	targetBrightPen   = 9
	targetBrightPaper = 10
)

var attrCode = map[string]int{
	"bold":      1,
	"underline": 4,
	"italic":    3,
	"strike":    9,
}

// Pens, DimPens and PenStyles are the colorterm output styles, built once
// at startup from ColorBuild.
var (
	Pens      map[string]string
	DimPens   map[string]string
	PenStyles map[string]string
	NormalPen string
)

func init() {
	Pens = buildPenTable(true)
	DimPens = buildPenTable(false)

	PenStyles = map[string]string{}
	var err error
	if PenStyles["bold"], err = ColorBuild("", "", "bold", false, false); err != nil {
		fmt.Println(err)
	}
	if PenStyles["underline"], err = ColorBuild("", "", "underline", false, false); err != nil {
		fmt.Println(err)
	}

	if NormalPen, err = ColorBuild("", "", "", false, false); err != nil {
		fmt.Println(err)
	}
}

func buildPenTable(bright bool) map[string]string {
	table := make(map[string]string, len(colorCode))
	for name := range colorCode {
		if name == "normal" {
			continue
		}
		pen, err := ColorBuild(name, "normal", "", bright, false)
		if err != nil {
			fmt.Println(err)
			continue
		}
		table[name] = pen
	}
	return table
}

// ColorBuild builds the CSI sequence selecting pen (foreground), paper
// (background) and a text attribute, each optional.
func ColorBuild(pen, paper, attribute string, brightPen, brightPaper bool) (string, error) {
	var segments []string

	if pen != "" {
		seg, err := colorSegment(pen, targetPen, targetBrightPen, brightPen)
		if err != nil {
			return "", fmt.Errorf("unknown ANSI pen (%s)", pen)
		}
		segments = append(segments, seg)
	}

	if paper != "" {
		seg, err := colorSegment(paper, targetPaper, targetBrightPaper, brightPaper)
		if err != nil {
			return "", fmt.Errorf("unknown ANSI paper (%s)", paper)
		}
		segments = append(segments, seg)
	}

	if attribute != "" {
		code, ok := attrCode[strings.ToLower(attribute)]
		if !ok {
			return "", fmt.Errorf("unknown ANSI attribute (%s)", attribute)
		}
		segments = append(segments, fmt.Sprintf("%d", code))
	}

	return "\033[" + strings.Join(segments, ";") + "m", nil
}

func colorSegment(name string, target, brightTarget int, bright bool) (string, error) {
	code, ok := colorCode[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("unknown color %q", name)
	}
	t := target
	if bright {
		t = brightTarget
	}
	return fmt.Sprintf("%d%d", t, code), nil
}

// ClearLine clears the entire current line.
const ClearLine = "\033[2K"

// CursorStore stores the current cursor position.
const CursorStore = "\033[s"

// CursorRestore restores the cursor position previously stored.
const CursorRestore = "\033[u"

// CursorForwardOne moves the cursor one character to the right.
const CursorForwardOne = "\033[1C"

// CursorBackwardOne moves the cursor one character to the left.
const CursorBackwardOne = "\033[1D"

// CursorMove moves the cursor n characters forward (n > 0) or backward
// (n < 0); n == 0 produces no sequence.
func CursorMove(n int) string {
	switch {
	case n < 0:
		return fmt.Sprintf("\033[%dD", -n)
	case n > 0:
		return fmt.Sprintf("\033[%dC", n)
	default:
		return ""
	}
}
