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

//go:build assertions

package assert

import (
	"fmt"
	"sync/atomic"
)

// Enabled is true when the program has been built with the "assertions" build
// tag. Guard expensive assertions with `if assert.Enabled {...}` so that they
// can be removed in regular builds.
const Enabled = true

// Assert panics if b is false.
func Assert(b bool, message string) {
	if !b {
		panic(message)
	}
}

// Assertf panics with a formatted message if b is false.
func Assertf(b bool, pattern string, args ...any) {
	if !b {
		panic(fmt.Sprintf(pattern, args...))
	}
}

// Owner records the goroutine that owns a resource. The zero value has no
// owner.
type Owner struct {
	id atomic.Uint64
}

// Claim makes the calling goroutine the owner. A goroutine can claim an owner
// that is already owned by another goroutine. This happens when the emulation
// is restarted in a new goroutine.
func (o *Owner) Claim() {
	o.id.Store(GetGoRoutineID())
}

// Check panics if the calling goroutine is not the owner. An Owner that has
// never been claimed passes the check.
func (o *Owner) Check(message string) {
	id := o.id.Load()
	if id != 0 && id != GetGoRoutineID() {
		panic(message)
	}
}
