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
	"strings"
	"sync/atomic"
	"time"

	"github.com/jetsetilly/lockstep/assert"
	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/hardware/preferences"
	"github.com/jetsetilly/lockstep/logger"
)

// CurrentCore can be used as the core argument to ScheduleOnCore() to
// indicate the timer that is currently being stepped.
const CurrentCore = -1

// Scheduler owns a Timer for every core and is the interface through which
// peripherals register, schedule and cancel events.
type Scheduler struct {
	env      *environment.Environment
	registry *Registry
	timers   []*Timer

	// the timer of the core currently being stepped
	current atomic.Pointer[Timer]

	// while locked all scheduling requests are ignored. used while a state is
	// being restored
	locked atomic.Bool
}

// NewScheduler is the preferred method of initialisation for the Scheduler
// type. The number of timers, their initial tick count and their clock speed
// are taken from the timing preferences in the environment.
func NewScheduler(env *environment.Environment) *Scheduler {
	t := env.Prefs.Timing

	var initTicks int64
	switch t.InitTicksType.String() {
	case preferences.InitTicksFixed:
		initTicks = int64(t.InitTicks.Get().(int))
	default:
		initTicks = int64(env.Random.Uint32())
	}

	s := &Scheduler{
		env:      env,
		registry: NewRegistry(),
	}

	scale := ClockScale(t.ClockPercentage.Get().(int))
	for i := range t.Cores.Get().(int) {
		s.timers = append(s.timers, newTimer(env, i, initTicks, scale))
	}
	s.current.Store(s.timers[0])

	return s
}

func (s *Scheduler) String() string {
	var b strings.Builder
	for _, tmr := range s.timers {
		b.WriteString(tmr.String())
		b.WriteString("\n")
	}
	return b.String()
}

// Registry returns the registry of event types.
func (s *Scheduler) Registry() *Registry {
	return s.registry
}

// RegisterType returns the EventType for the name, binding the callback to it.
// See Registry.Register().
func (s *Scheduler) RegisterType(name string, cb Callback) *EventType {
	return s.registry.Register(name, cb)
}

// NumCores returns the number of timers.
func (s *Scheduler) NumCores() int {
	return len(s.timers)
}

// Timer returns the timer for the core. Returns nil if the core is not valid.
func (s *Scheduler) Timer(core int) *Timer {
	if core < 0 || core >= len(s.timers) {
		assert.Assertf(false, "timing: invalid core (%d)", core)
		logger.Logf(s.env, "timing", "invalid core (%d)", core)
		return nil
	}
	return s.timers[core]
}

// Timers returns every timer in core order.
func (s *Scheduler) Timers() []*Timer {
	return s.timers
}

// SetCurrent sets the timer of the core that is about to be stepped.
func (s *Scheduler) SetCurrent(core int) {
	if tmr := s.Timer(core); tmr != nil {
		s.current.Store(tmr)
	}
}

// Current returns the timer of the core currently being stepped.
func (s *Scheduler) Current() *Timer {
	return s.current.Load()
}

// Schedule adds an event to the current core's timer.
func (s *Scheduler) Schedule(cycles int64, et *EventType, payload Payload) {
	s.ScheduleOnCore(cycles, et, payload, CurrentCore, false)
}

// ScheduleThreadSafe adds an event to the current core's timer through the
// inbox. It is the function to use from any goroutine other than the one
// stepping the cores.
func (s *Scheduler) ScheduleThreadSafe(cycles int64, et *EventType, payload Payload) {
	s.ScheduleOnCore(cycles, et, payload, CurrentCore, true)
}

// ScheduleOnCore adds an event to the timer of the core. The event is added
// directly to the timer's queue only if threadSafe is false and the core is
// the current core. In all other cases the event goes through the timer's
// inbox.
//
// The request is ignored while the event queue is locked.
func (s *Scheduler) ScheduleOnCore(cycles int64, et *EventType, payload Payload, core int, threadSafe bool) {
	if s.locked.Load() {
		return
	}

	current := s.current.Load()

	tmr := current
	if core != CurrentCore {
		tmr = s.Timer(core)
		if tmr == nil {
			return
		}
	}

	if !threadSafe && tmr == current {
		tmr.ScheduleLocal(cycles, et, payload)
	} else {
		tmr.ScheduleCrossThread(cycles, et, payload)
	}
}

// Unschedule removes every event matching the type and payload from every
// timer. Must only be called by the goroutine that steps the cores.
func (s *Scheduler) Unschedule(et *EventType, payload Payload) {
	for _, tmr := range s.timers {
		tmr.Unschedule(et, payload)
	}
}

// Remove removes every event of the type from every timer. Must only be called
// by the goroutine that steps the cores.
func (s *Scheduler) Remove(et *EventType) {
	for _, tmr := range s.timers {
		tmr.RemoveAll(et)
	}
}

// IsScheduled returns true if an event of the type is in the queue of any
// timer.
func (s *Scheduler) IsScheduled(et *EventType) bool {
	for _, tmr := range s.timers {
		if tmr.IsScheduled(et) {
			return true
		}
	}
	return false
}

// GlobalTicks returns the tick count of the core that is furthest ahead.
func (s *Scheduler) GlobalTicks() int64 {
	var g int64
	for i, tmr := range s.timers {
		t := tmr.Ticks()
		if i == 0 || t > g {
			g = t
		}
	}
	return g
}

// GlobalTime returns GlobalTicks() as a duration.
func (s *Scheduler) GlobalTime() time.Duration {
	return CyclesToDuration(s.GlobalTicks())
}

// UpdateClockSpeed changes the clock scale of every timer.
func (s *Scheduler) UpdateClockSpeed(percentage int) {
	scale := ClockScale(percentage)
	for _, tmr := range s.timers {
		tmr.SetClockScale(scale)
	}
}

// LockEventQueue causes all scheduling requests to be ignored until
// UnlockEventQueue() is called.
func (s *Scheduler) LockEventQueue() {
	s.locked.Store(true)
}

// UnlockEventQueue reverses the effect of LockEventQueue().
func (s *Scheduler) UnlockEventQueue() {
	s.locked.Store(false)
}

// Locked returns true if the event queue is locked.
func (s *Scheduler) Locked() bool {
	return s.locked.Load()
}

// Shutdown discards the inbox of every timer. Returns the total number of
// discarded entries.
func (s *Scheduler) Shutdown() int {
	var n int
	for _, tmr := range s.timers {
		n += tmr.Shutdown()
	}
	return n
}

// Summary returns the state of every timer and the events in their queues.
// Must only be called by the goroutine that steps the cores.
func (s *Scheduler) Summary() string {
	var b strings.Builder
	for _, tmr := range s.timers {
		tmr.summary(&b)
	}
	return b.String()
}
