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

package kerneltimer

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/jetsetilly/lockstep/curated"
	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/hardware/timing"
	"github.com/jetsetilly/lockstep/logger"
)

const logTag = "kerneltimer"

// Error patterns returned by the Manager.
const (
	InvalidHandle = "kerneltimer: invalid handle %s"
	NegativeDelay = "kerneltimer: %s: negative delay"
)

// ResetType decides how a timer leaves the signaled state.
type ResetType int

// List of valid ResetType values.
const (
	// the signal is consumed by the first waiter to acquire it
	OneShot ResetType = iota

	// the signal remains until Clear() is called
	Sticky

	// the signal wakes the current waiters and is then cleared
	Pulse
)

func (r ResetType) String() string {
	switch r {
	case OneShot:
		return "oneshot"
	case Sticky:
		return "sticky"
	case Pulse:
		return "pulse"
	}
	return "unknown reset type"
}

// Handle identifies a timer. The zero handle is never valid.
type Handle uint32

func (h Handle) String() string {
	return fmt.Sprintf("%#08x", uint32(h))
}

// Object is a single timer.
type Object struct {
	Name     string        `yaml:"name"`
	Reset    ResetType     `yaml:"reset"`
	Signaled bool          `yaml:"signaled"`
	Initial  time.Duration `yaml:"initial"`
	Interval time.Duration `yaml:"interval"`

	// number of waiters that have not been woken
	Waiting int `yaml:"waiting"`

	// number of waiters that have been woken by the timer
	Woken uint64 `yaml:"woken"`

	// number of times the timer has signaled
	Fired uint64 `yaml:"fired"`
}

func (o *Object) String() string {
	return fmt.Sprintf("%s (%s): signaled=%v fired=%d", o.Name, o.Reset, o.Signaled, o.Fired)
}

// Manager owns every timer object.
type Manager struct {
	env   *environment.Environment
	sched *timing.Scheduler
	event *timing.EventType

	objects map[Handle]*Object
	next    Handle
}

// NewManager is the preferred method of initialisation for the Manager type.
func NewManager(env *environment.Environment, sched *timing.Scheduler) *Manager {
	m := &Manager{
		env:     env,
		sched:   sched,
		objects: make(map[Handle]*Object),
		next:    1,
	}
	m.Register()
	return m
}

// Register binds the timer callback to its event type.
func (m *Manager) Register() {
	m.event = m.sched.RegisterType("KernelTimer_Callback", timing.CallbackFunc(m.fire))
}

// Create a new timer. The timer is not armed.
func (m *Manager) Create(name string, reset ResetType) Handle {
	h := m.next
	m.next++
	m.objects[h] = &Object{
		Name:  name,
		Reset: reset,
	}
	return h
}

// Get returns the timer for the handle.
func (m *Manager) Get(h Handle) (*Object, error) {
	o, ok := m.objects[h]
	if !ok {
		return nil, curated.Errorf(InvalidHandle, h)
	}
	return o, nil
}

// Set arms the timer. Any pending signal is cancelled first. An initial delay
// of zero signals immediately. A non-zero interval causes the timer to signal
// repeatedly.
func (m *Manager) Set(h Handle, initial time.Duration, interval time.Duration) error {
	o, err := m.Get(h)
	if err != nil {
		return err
	}
	if initial < 0 || interval < 0 {
		return curated.Errorf(NegativeDelay, o.Name)
	}

	m.sched.Unschedule(m.event, timing.Payload(h))

	o.Initial = initial
	o.Interval = interval

	if initial == 0 {
		m.signal(h, o, 0)
		return nil
	}

	m.sched.Schedule(timing.CyclesFromUs(initial.Microseconds()), m.event, timing.Payload(h))
	return nil
}

// Cancel removes the pending signal. The signaled state is unchanged.
func (m *Manager) Cancel(h Handle) error {
	if _, err := m.Get(h); err != nil {
		return err
	}
	m.sched.Unschedule(m.event, timing.Payload(h))
	return nil
}

// Clear resets the signaled state.
func (m *Manager) Clear(h Handle) error {
	o, err := m.Get(h)
	if err != nil {
		return err
	}
	o.Signaled = false
	return nil
}

// Close cancels the timer and frees the handle.
func (m *Manager) Close(h Handle) error {
	if err := m.Cancel(h); err != nil {
		return err
	}
	delete(m.objects, h)
	return nil
}

// Wait returns true if the timer is signaled, acquiring the signal in the
// process. Otherwise the caller is added to the waiters and false is returned.
func (m *Manager) Wait(h Handle) (bool, error) {
	o, err := m.Get(h)
	if err != nil {
		return false, err
	}
	if o.Signaled {
		m.acquire(o)
		return true, nil
	}
	o.Waiting++
	return false, nil
}

// Signaled returns true if the timer is in the signaled state.
func (m *Manager) Signaled(h Handle) (bool, error) {
	o, err := m.Get(h)
	if err != nil {
		return false, err
	}
	return o.Signaled, nil
}

func (m *Manager) acquire(o *Object) {
	if o.Reset == OneShot {
		o.Signaled = false
	}
}

func (m *Manager) fire(payload timing.Payload, cyclesLate int64) {
	h := Handle(payload)
	o, ok := m.objects[h]
	if !ok {
		logger.Logf(m.env, logTag, "callback fired for invalid timer %s", h)
		return
	}
	m.signal(h, o, cyclesLate)
}

func (m *Manager) signal(h Handle, o *Object, cyclesLate int64) {
	o.Signaled = true
	o.Fired++

	// every waiter acquires the signal as it wakes
	if o.Waiting > 0 {
		o.Woken += uint64(o.Waiting)
		o.Waiting = 0
		m.acquire(o)
	}

	if o.Reset == Pulse {
		o.Signaled = false
	}

	if o.Interval != 0 {
		m.sched.Schedule(timing.CyclesFromUs(o.Interval.Microseconds())-cyclesLate, m.event, timing.Payload(h))
	}
}

// Handles returns the handles of every timer in order.
func (m *Manager) Handles() []Handle {
	return slices.Sorted(maps.Keys(m.objects))
}

// State is the persisted form of the Manager.
type State struct {
	Next    Handle            `yaml:"next"`
	Objects map[Handle]Object `yaml:"objects"`
}

// Snapshot returns the current state of every timer.
func (m *Manager) Snapshot() State {
	st := State{
		Next:    m.next,
		Objects: make(map[Handle]Object, len(m.objects)),
	}
	for h, o := range m.objects {
		st.Objects[h] = *o
	}
	return st
}

// Plumb replaces every timer and rebinds the callback.
func (m *Manager) Plumb(st State) {
	m.next = st.Next
	m.objects = make(map[Handle]*Object, len(st.Objects))
	for h, o := range st.Objects {
		m.objects[h] = &o
	}
	m.Register()
}
