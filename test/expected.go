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

// Package test collects the small assertion helpers used throughout the
// repository's test suites, so that every package tests the same way.
package test

import (
	"math"
	"reflect"
	"testing"
)

// Equate fails the test unless got and want are equal, as reported by
// reflect.DeepEqual (errors are compared via their Error() string).
func Equate(t *testing.T, got, want interface{}) {
	t.Helper()

	if ge, ok := got.(error); ok {
		we, ok := want.(error)
		if !ok || ge == nil || we == nil {
			if ge == nil && want == nil {
				return
			}
		} else if ge.Error() == we.Error() {
			return
		}
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected value: got %v, wanted %v", got, want)
	}
}

// ExpectEquality fails the test unless got and want are equal.
func ExpectEquality(t *testing.T, got, want interface{}) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected equality: got %v, wanted %v", got, want)
	}
}

// ExpectInequality fails the test if got and want are equal.
func ExpectInequality(t *testing.T, got, want interface{}) {
	t.Helper()
	if reflect.DeepEqual(got, want) {
		t.Errorf("expected inequality: got %v, wanted something other than %v", got, want)
	}
}

// ExpectApproximate fails the test unless got and want are within tolerance
// of each other.
func ExpectApproximate(t *testing.T, got, want float64, tolerance float64) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Errorf("expected approximate equality: got %v, wanted %v (tolerance %v)", got, want, tolerance)
	}
}

// truthy classifies the success/failure value conventions used by
// ExpectSuccess/ExpectFailure: a bool is taken literally; an error is a
// failure if non-nil; anything else, nil included, is truthy.
func truthy(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case error:
		return x == nil
	case nil:
		return true
	default:
		return true
	}
}

// ExpectSuccess fails the test if v represents failure: false or a non-nil
// error.
func ExpectSuccess(t *testing.T, v interface{}) {
	t.Helper()
	if !truthy(v) {
		t.Errorf("expected success, got %v", v)
	}
}

// ExpectFailure fails the test if v represents success: true, a nil error,
// or any other non-nil value.
func ExpectFailure(t *testing.T, v interface{}) {
	t.Helper()
	if truthy(v) {
		t.Errorf("expected failure, got %v", v)
	}
}
