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

// Package multicore keeps the emulated cores in step with each other. The
// Driver is called once per iteration of the emulation loop and decides which
// cores to run and for how long.
//
// If one core has fallen behind the core that is furthest ahead by more than
// the catch-up threshold, then that core alone is run until it has caught up.
// This is catch-up mode. Otherwise every timer is advanced, firing any events
// that are due, and every core is run for a shared slice. This is lockstep
// mode.
//
// In lockstep mode the cores are run in order. A core that finishes its slice
// early, or that idles, reduces the slice of the cores that follow it in the
// same iteration.
package multicore
