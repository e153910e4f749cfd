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

// Package timing is the cycle accounting engine for the emulated machine. Every
// emulated core has a Timer which records how many cycles the core has
// executed and which holds an ordered queue of events that are due to fire at
// some point in the core's future.
//
// Events are identified by an EventType, which is registered once by name with
// the Scheduler. The name is what is stored in a save state so it must not
// change meaning between versions. The callback bound to an EventType can be
// replaced by registering the same name again. This happens after a state has
// been restored, so that the callbacks refer to the fresh instances of the
// peripherals.
//
// The life of a Timer is a loop of two phases. The Advance() function folds
// the cycles executed during the previous slice into the tick count and fires
// every event that is now due. During this firing pass the timer is Settled
// and Ticks() is exact. GrantSlice() then gives the core a number of cycles
// that it can execute before the next event is due. While the slice is being
// consumed the timer is Granted and Ticks() is reconstructed from the slice
// length and the downcount.
//
// A Timer is owned by the goroutine that steps its core. Only that goroutine
// may add to the ordered queue directly. Any other goroutine must use the
// thread-safe path, which places the event in the timer's inbox. The inbox is
// merged into the queue on the next call to Advance().
//
// Payloads are small integer tokens and never references. A peripheral that
// needs to associate an event with an object should keep the object in a
// table of its own and use the index as the payload.
package timing
