// This file is part of Lockstep.
//
// Lockstep is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Lockstep is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Lockstep.  If not, see <https://www.gnu.org/licenses/>.

// Package curated is a helper package for the plain Go language error type.
// Curated errors implement the error interface.
//
// Curated errors are created with the Errorf() function. This is similar to
// the Errorf() function in the fmt package. It takes a formatting pattern,
// placeholder values and returns an error.
//
// The pattern is remembered and is what identifies the error. The Is()
// function checks whether an error was created with a specific pattern and
// the Has() function checks the entire chain of curated errors:
//
//	e := curated.Errorf("savestate: %v", err)
//	f := curated.Errorf("lockstep: %v", e)
//
//	curated.Is(f, "savestate: %v")  // false
//	curated.Has(f, "savestate: %v") // true
//
// Sentinal patterns should be stored as a const string, suitably named and
// commented.
//
// The Error() function ensures that the error chain does not contain
// duplicate adjacent parts. For example, wrapping "prefs: file not found" in
// "prefs: %v" produces the message:
//
//	prefs: file not found
//
// and not
//
//	prefs: prefs: file not found
//
// Chains are thought of as being composed of parts separated by the sub-string
// ": ", as suggested on p239 of "The Go Programming Language" (Donovan,
// Kernighan).
//
// If any of the values is a non-curated error it is available through the
// Unwrap() function, which means errors.Is() from the standard library works
// as expected with curated errors.
package curated
