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

package multicore

import "github.com/jetsetilly/lockstep/hardware/timing"

// Core is implemented by the execution engine of an emulated core.
type Core interface {
	// the index of the core. it must match the index of the core's timer in
	// the scheduler
	ID() int

	// whether the core has anything to execute. a core with no work is idled
	// for the whole of its slice
	HasWork() bool

	// run the core until the timer's downcount reaches zero or the core runs
	// out of work. the core must report the cycles it executes with
	// Timer.AddConsumed(). the downcount can be overshot
	Run(tmr *timing.Timer)
}
