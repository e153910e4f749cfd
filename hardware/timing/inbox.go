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

package timing

import "sync"

// inbox is the thread-safe buffer through which goroutines other than a
// timer's owner submit events. events are kept in arrival order
type inbox struct {
	crit    sync.Mutex
	entries []Event
}

func (b *inbox) push(e Event) {
	b.crit.Lock()
	defer b.crit.Unlock()
	b.entries = append(b.entries, e)
}

// drain returns every entry in arrival order and empties the inbox
func (b *inbox) drain() []Event {
	b.crit.Lock()
	defer b.crit.Unlock()
	if len(b.entries) == 0 {
		return nil
	}
	d := b.entries
	b.entries = nil
	return d
}

func (b *inbox) len() int {
	b.crit.Lock()
	defer b.crit.Unlock()
	return len(b.entries)
}
