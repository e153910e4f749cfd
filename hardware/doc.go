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

// Package hardware is the base package for the emulated handheld. It and its
// sub-packages contain everything required for a headless emulation.
//
// The System type is the root of the emulation and contains references to the
// scheduler, the cores and every peripheral. From here, the emulation can
// either be started to run continuously (with a callback to check for
// continuation) or it can be stepped one driver iteration at a time.
//
// The scheduler and its timers are in the timing package. The multicore
// package decides how the cores are advanced relative to each other.
package hardware
