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

// Package poller implements peripherals that raise an event at a fixed
// interval. The vertical blank of the display and the sampling of the input
// devices are examples of this kind of peripheral.
//
// A Poller re-arms itself every time it fires. The period is reduced by the
// number of cycles the event was late, so the poller does not drift over
// time.
package poller
