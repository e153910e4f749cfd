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
	"math"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/jetsetilly/lockstep/assert"
	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/logger"
)

// Phase is the state of a Timer.
type Phase int32

// List of timer phases. A timer is only Settled during the firing pass of
// Advance().
const (
	Granted Phase = iota
	Settled
)

func (p Phase) String() string {
	switch p {
	case Granted:
		return "granted"
	case Settled:
		return "settled"
	}
	return ""
}

// Timer is the cycle accounting for a single core. The fields that can be
// read by goroutines other than the owner are atomic. The event queue is only
// ever touched by the owner.
type Timer struct {
	env *environment.Environment
	id  int

	executedTicks atomic.Int64
	sliceLength   atomic.Int64
	downcount     atomic.Int64
	idledCycles   atomic.Int64

	// float64 bits of the multiplier applied by AddConsumed()
	clockScale atomic.Uint64

	phase atomic.Int32

	// update is odd while the owner is changing the fields that Ticks() is
	// calculated from. readers on other goroutines retry until they see the
	// same even value before and after reading
	update atomic.Uint64

	// the sequence number of the next event to enter the queue
	nextSeq uint64

	queue eventQueue
	inbox inbox

	owner assert.Owner
}

func newTimer(env *environment.Environment, id int, initTicks int64, clockScale float64) *Timer {
	tmr := &Timer{
		env: env,
		id:  id,
	}
	tmr.executedTicks.Store(initTicks)
	tmr.SetClockScale(clockScale)
	return tmr
}

func (tmr *Timer) String() string {
	return fmt.Sprintf("core %d: ticks %d, slice %d, downcount %d, idled %d",
		tmr.id, tmr.Ticks(), tmr.sliceLength.Load(), tmr.downcount.Load(), tmr.idledCycles.Load())
}

// ID returns the index of the core the timer belongs to.
func (tmr *Timer) ID() int {
	return tmr.id
}

// Phase returns the current phase of the timer.
func (tmr *Timer) Phase() Phase {
	return Phase(tmr.phase.Load())
}

// Claim makes the calling goroutine the owner of the timer. Only has an
// effect when built with the assertions build tag.
func (tmr *Timer) Claim() {
	tmr.owner.Claim()
}

// Ticks returns the number of cycles that have elapsed for the core. The value
// is exact during the firing pass of Advance(). Otherwise it includes the
// part of the current slice that has been consumed.
//
// Safe to call from any goroutine.
func (tmr *Timer) Ticks() int64 {
	for {
		u := tmr.update.Load()
		if u&1 == 0 {
			t := tmr.ticks()
			if tmr.update.Load() == u {
				return t
			}
		}
		runtime.Gosched()
	}
}

func (tmr *Timer) ticks() int64 {
	if tmr.Phase() == Settled {
		return tmr.executedTicks.Load()
	}
	return tmr.executedTicks.Load() + tmr.sliceLength.Load() - tmr.downcount.Load()
}

// beginUpdate and endUpdate bracket any change by the owner to more than one
// of the fields used by ticks()
func (tmr *Timer) beginUpdate() {
	tmr.update.Add(1)
}

func (tmr *Timer) endUpdate() {
	tmr.update.Add(1)
}

// IdleTicks returns the number of cycles the core has spent idle.
func (tmr *Timer) IdleTicks() int64 {
	return tmr.idledCycles.Load()
}

// Downcount returns the number of cycles remaining in the current slice. The
// value can be negative if the core has overshot the slice.
func (tmr *Timer) Downcount() int64 {
	return tmr.downcount.Load()
}

// SliceLength returns the length of the current slice.
func (tmr *Timer) SliceLength() int64 {
	return tmr.sliceLength.Load()
}

// ClockScale returns the multiplier applied to consumed cycles.
func (tmr *Timer) ClockScale() float64 {
	return math.Float64frombits(tmr.clockScale.Load())
}

// SetClockScale changes the multiplier applied to consumed cycles. Safe to call
// from any goroutine.
func (tmr *Timer) SetClockScale(scale float64) {
	tmr.clockScale.Store(math.Float64bits(scale))
}

// Pending returns the number of events in the queue, not counting the events
// in the inbox. Should only be called by the owner.
func (tmr *Timer) Pending() int {
	return len(tmr.queue)
}

// ScheduleLocal adds an event to the queue. It must only be called by the
// owner of the timer. If the event is due before the end of the current slice
// the slice is shortened so that the next Advance() will fire it.
func (tmr *Timer) ScheduleLocal(cycles int64, et *EventType, payload Payload) {
	tmr.owner.Check("timing: ScheduleLocal() called by goroutine that does not own the timer")

	deadline := tmr.Ticks() + cycles
	if tmr.Phase() != Settled {
		tmr.forceCheck(cycles)
	}

	tmr.queue.push(&Event{
		Deadline: deadline,
		Sequence: tmr.sequence(),
		Payload:  payload,
		Type:     et,
	})
}

// ScheduleCrossThread adds an event to the inbox. It can be called from any
// goroutine. The deadline is clamped so that it is at least two maximum slice
// lengths into the future. This guarantees that the event is merged before
// it is due, regardless of the phase of the timer.
func (tmr *Timer) ScheduleCrossThread(cycles int64, et *EventType, payload Payload) {
	ticks := tmr.Ticks()
	deadline := max(ticks+cycles, ticks+2*MaxSliceLength)

	tmr.inbox.push(Event{
		Deadline: deadline,
		Payload:  payload,
		Type:     et,
	})
}

// Unschedule removes every event in the queue that matches the type and the
// payload. Events in the inbox are not affected.
func (tmr *Timer) Unschedule(et *EventType, payload Payload) int {
	return tmr.queue.filter(func(e *Event) bool {
		return e.Type == et && e.Payload == payload
	})
}

// RemoveAll removes every event in the queue of the type. Events in the inbox
// are not affected.
func (tmr *Timer) RemoveAll(et *EventType) int {
	return tmr.queue.filter(func(e *Event) bool {
		return e.Type == et
	})
}

// IsScheduled returns true if an event of the type is in the queue.
func (tmr *Timer) IsScheduled(et *EventType) bool {
	for _, e := range tmr.queue {
		if e.Type == et {
			return true
		}
	}
	return false
}

func (tmr *Timer) sequence() uint64 {
	s := tmr.nextSeq
	tmr.nextSeq++
	return s
}

// forceCheck shortens the slice so that no more than cycles remain
func (tmr *Timer) forceCheck(cycles int64) {
	cycles = max(0, cycles)
	downcount := tmr.downcount.Load()
	if downcount > cycles {
		tmr.beginUpdate()
		tmr.sliceLength.Add(cycles - downcount)
		tmr.downcount.Store(cycles)
		tmr.endUpdate()
	}
}

// merge the inbox into the queue. sequence numbers are assigned in inbox
// order
func (tmr *Timer) merge() {
	for _, e := range tmr.inbox.drain() {
		e.Sequence = tmr.sequence()
		tmr.queue.push(&e)
	}
}

// Advance merges the inbox, folds the cycles consumed in the current slice
// into the tick count and fires every event that is due. Callbacks are fired
// in deadline order with the number of cycles they are late.
func (tmr *Timer) Advance() {
	tmr.owner.Check("timing: Advance() called by goroutine that does not own the timer")

	tmr.merge()

	tmr.beginUpdate()
	consumed := tmr.sliceLength.Load() - tmr.downcount.Load()
	tmr.executedTicks.Add(consumed)
	tmr.sliceLength.Store(0)
	tmr.downcount.Store(0)
	tmr.phase.Store(int32(Settled))
	tmr.endUpdate()

	defer func() {
		tmr.beginUpdate()
		tmr.phase.Store(int32(Granted))
		tmr.endUpdate()
	}()

	for {
		e := tmr.queue.front()
		if e == nil {
			break
		}

		executed := tmr.executedTicks.Load()
		if e.Deadline > executed {
			break
		}
		tmr.queue.pop()

		cb := e.Type.callback()
		if cb == nil {
			logger.Logf(tmr.env, "timing", "core %d: event %s has no callback. dropped", tmr.id, e.Type.name)
			continue
		}
		cb.Fire(e.Payload, executed-e.Deadline)
	}
}

// MaxSliceLength returns the number of cycles until the earliest event in the
// queue. Returns MaxSliceLength if the queue is empty.
//
// An event that is already due should have been fired by Advance(). If one is
// found the anomaly is logged and zero is returned.
func (tmr *Timer) MaxSliceLength() int64 {
	e := tmr.queue.front()
	if e == nil {
		return MaxSliceLength
	}

	d := e.Deadline - tmr.executedTicks.Load()
	if d <= 0 {
		logger.Logf(tmr.env, "timing", "core %d: event %s is due but has not been fired", tmr.id, e.Type.name)
		return 0
	}

	return d
}

// GrantSlice gives the core a new slice of no more than limit cycles. The
// slice will end no later than the deadline of the earliest event in the
// queue.
func (tmr *Timer) GrantSlice(limit int64) {
	tmr.owner.Check("timing: GrantSlice() called by goroutine that does not own the timer")
	assert.Assert(tmr.sliceLength.Load() == tmr.downcount.Load(), "timing: GrantSlice() called without Advance()")

	slice := limit
	if e := tmr.queue.front(); e != nil {
		slice = min(slice, e.Deadline-tmr.executedTicks.Load())
	}

	if slice < 0 {
		logger.Logf(tmr.env, "timing", "core %d: negative slice length (%d). using zero", tmr.id, slice)
		slice = 0
	}

	tmr.beginUpdate()
	tmr.sliceLength.Store(slice)
	tmr.downcount.Store(slice)
	tmr.endUpdate()
}

// Idle consumes the rest of the slice without executing anything. The
// remaining cycles are added to the idle count.
func (tmr *Timer) Idle() {
	tmr.owner.Check("timing: Idle() called by goroutine that does not own the timer")

	downcount := tmr.downcount.Load()
	if downcount > 0 {
		tmr.idledCycles.Add(downcount)
		tmr.downcount.Store(0)
	}
}

// AddConsumed is called by the execution engine as it retires work. The
// cycles are multiplied by the clock scale. The downcount can go below zero if
// the engine overshoots the slice.
func (tmr *Timer) AddConsumed(cycles int64) {
	tmr.downcount.Add(-int64(float64(cycles) * tmr.ClockScale()))
}

// Shutdown discards the contents of the inbox without firing them. Returns the
// number of entries that were discarded.
func (tmr *Timer) Shutdown() int {
	n := len(tmr.inbox.drain())
	if n > 0 {
		logger.Logf(tmr.env, "timing", "core %d: %d unmerged events discarded on shutdown", tmr.id, n)
	}
	return n
}

// summary of the queue in firing order
func (tmr *Timer) summary(s *strings.Builder) {
	s.WriteString(tmr.String())
	s.WriteString("\n")
	for _, e := range tmr.queue.sorted() {
		s.WriteString("  ")
		s.WriteString(e.String())
		s.WriteString("\n")
	}
	if n := tmr.inbox.len(); n > 0 {
		s.WriteString(fmt.Sprintf("  (%d in inbox)\n", n))
	}
}
