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
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Payload is the value passed to an event's callback. The meaning of the
// value is decided by the EventType. It must not be a pointer because events
// are stored in save states.
type Payload uint64

// Callback is implemented by anything that can handle a fired event.
// CyclesLate is the number of cycles between the event's deadline and the
// time it was actually fired. A periodic event should compensate for the
// lateness when it schedules the next occurrence.
type Callback interface {
	Fire(payload Payload, cyclesLate int64)
}

// CallbackFunc allows a plain function to be used as a Callback.
type CallbackFunc func(payload Payload, cyclesLate int64)

// Fire implements the Callback interface.
func (f CallbackFunc) Fire(payload Payload, cyclesLate int64) {
	f(payload, cyclesLate)
}

type binding struct {
	cb Callback
}

// EventType is the identity of a kind of event. It is created by
// Registry.Register() and is stable for the lifetime of the registry.
type EventType struct {
	name    string
	binding atomic.Pointer[binding]
}

// Name returns the name the EventType was registered with.
func (et *EventType) Name() string {
	return et.name
}

func (et *EventType) String() string {
	return et.name
}

// Bound returns true if the EventType has a callback.
func (et *EventType) Bound() bool {
	return et.callback() != nil
}

func (et *EventType) callback() Callback {
	b := et.binding.Load()
	if b == nil {
		return nil
	}
	return b.cb
}

func (et *EventType) bind(cb Callback) {
	if cb == nil {
		et.binding.Store(nil)
		return
	}
	et.binding.Store(&binding{cb: cb})
}

// Registry maps names to EventTypes.
type Registry struct {
	crit  sync.Mutex
	types map[string]*EventType
}

// NewRegistry is the preferred method of initialisation for the Registry type.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*EventType),
	}
}

// Register returns the EventType for the name, creating it if necessary. The
// callback replaces any callback that was previously bound to the name.
func (r *Registry) Register(name string, cb Callback) *EventType {
	r.crit.Lock()
	defer r.crit.Unlock()

	et, ok := r.types[name]
	if !ok {
		et = &EventType{name: name}
		r.types[name] = et
	}
	et.bind(cb)

	return et
}

// Lookup returns the EventType for the name, if it exists.
func (r *Registry) Lookup(name string) (*EventType, bool) {
	r.crit.Lock()
	defer r.crit.Unlock()

	et, ok := r.types[name]
	return et, ok
}

// resolve returns the EventType for the name. If the name is not in the
// registry an EventType with no callback is added
func (r *Registry) resolve(name string) *EventType {
	r.crit.Lock()
	defer r.crit.Unlock()

	et, ok := r.types[name]
	if !ok {
		et = &EventType{name: name}
		r.types[name] = et
	}

	return et
}

// Names returns the sorted list of registered names.
func (r *Registry) Names() []string {
	r.crit.Lock()
	defer r.crit.Unlock()

	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)

	return names
}

// Event is a single entry in a timer's queue. Events are immutable once
// queued.
type Event struct {
	Deadline int64
	Sequence uint64
	Payload  Payload
	Type     *EventType
}

func (e Event) String() string {
	return fmt.Sprintf("%s : %d %#x", e.Type.name, e.Deadline, uint64(e.Payload))
}

// before returns true if e should fire before o.
func (e *Event) before(o *Event) bool {
	if e.Deadline == o.Deadline {
		return e.Sequence < o.Sequence
	}
	return e.Deadline < o.Deadline
}
