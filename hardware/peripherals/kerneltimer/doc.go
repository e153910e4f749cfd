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

// Package kerneltimer implements the timer objects made available to
// emulated programs by the kernel. A timer is created with a reset type,
// armed with an initial delay and an optional interval, and signals when the
// delay has elapsed.
//
// Every timer is identified by a Handle. The handle is the payload of the
// scheduled event so a single event type serves every timer in the Manager.
package kerneltimer
