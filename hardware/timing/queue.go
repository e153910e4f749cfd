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

import (
	"container/heap"
	"sort"
)

// eventQueue is a min-heap of events ordered by deadline and then by
// sequence number. it implements heap.Interface and should only be changed
// through the push/pop/filter functions
type eventQueue []*Event

func (q eventQueue) Len() int           { return len(q) }
func (q eventQueue) Less(i, j int) bool { return q[i].before(q[j]) }
func (q eventQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) {
	*q = append(*q, x.(*Event))
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

func (q *eventQueue) push(e *Event) {
	heap.Push(q, e)
}

func (q *eventQueue) pop() *Event {
	return heap.Pop(q).(*Event)
}

// front returns the earliest event without removing it. returns nil if the
// queue is empty
func (q eventQueue) front() *Event {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}

// filter removes every event for which remove() returns true and restores the
// heap ordering. returns the number of events removed
func (q *eventQueue) filter(remove func(e *Event) bool) int {
	old := *q
	kept := old[:0]
	for _, e := range old {
		if !remove(e) {
			kept = append(kept, e)
		}
	}
	n := len(old) - len(kept)
	for i := len(kept); i < len(old); i++ {
		old[i] = nil
	}
	*q = kept
	if n > 0 {
		heap.Init(q)
	}
	return n
}

// sorted returns a copy of the queue in firing order
func (q eventQueue) sorted() []*Event {
	s := make([]*Event, len(q))
	copy(s, q)
	sort.Slice(s, func(i, j int) bool {
		return s[i].before(s[j])
	})
	return s
}
