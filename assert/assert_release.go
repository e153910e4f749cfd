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

//go:build !assertions

// Package assert provides assertions that can be enabled with the
// "assertions" build tag. Without the tag the assertions compile to no-ops.
//
// Assertions are for programmer errors only. For example, an invalid core
// index or a timer being driven from a goroutine that does not own it. Errors
// that the program can recover from are returned as error values in the
// normal way.
//
// GetGoRoutineID() is always available and is useful for debugging.
package assert

// Enabled is true when the program has been built with the "assertions" build
// tag. Guard expensive assertions with `if assert.Enabled {...}` so that they
// can be removed in regular builds.
const Enabled = false

// Assert panics if b is false.
func Assert(b bool, message string) {}

// Assertf panics with a formatted message if b is false.
func Assertf(b bool, pattern string, args ...any) {}

// Owner records the goroutine that owns a resource. The zero value has no
// owner.
type Owner struct{}

// Claim makes the calling goroutine the owner.
func (o *Owner) Claim() {}

// Check panics if the calling goroutine is not the owner.
func (o *Owner) Check(message string) {}
