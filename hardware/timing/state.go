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
	"github.com/jetsetilly/lockstep/curated"
	"github.com/jetsetilly/lockstep/logger"
)

// EventState is the persisted form of an Event. The type is stored by name.
type EventState struct {
	Deadline int64   `yaml:"deadline"`
	Sequence uint64  `yaml:"sequence"`
	Payload  Payload `yaml:"payload"`
	Type     string  `yaml:"type"`
}

// TimerState is the persisted form of a Timer. The inbox is not part of the
// state. It is merged into the queue before the state is taken.
type TimerState struct {
	ExecutedTicks int64        `yaml:"executedTicks"`
	SliceLength   int64        `yaml:"sliceLength"`
	Downcount     int64        `yaml:"downcount"`
	IdledCycles   int64        `yaml:"idledCycles"`
	ClockScale    float64      `yaml:"clockScale"`
	NextSequence  uint64       `yaml:"nextSequence"`
	Events        []EventState `yaml:"events"`
}

// State is the persisted form of the Scheduler.
type State struct {
	Timers []TimerState `yaml:"timers"`
}

// snapshot must only be called by the owner of the timer
func (tmr *Timer) snapshot() TimerState {
	tmr.merge()

	st := TimerState{
		ExecutedTicks: tmr.executedTicks.Load(),
		SliceLength:   tmr.sliceLength.Load(),
		Downcount:     tmr.downcount.Load(),
		IdledCycles:   tmr.idledCycles.Load(),
		ClockScale:    tmr.ClockScale(),
		NextSequence:  tmr.nextSeq,
	}

	for _, e := range tmr.queue.sorted() {
		st.Events = append(st.Events, EventState{
			Deadline: e.Deadline,
			Sequence: e.Sequence,
			Payload:  e.Payload,
			Type:     e.Type.name,
		})
	}

	return st
}

func (tmr *Timer) plumb(st TimerState, registry *Registry) {
	tmr.beginUpdate()
	tmr.executedTicks.Store(st.ExecutedTicks)
	tmr.sliceLength.Store(st.SliceLength)
	tmr.downcount.Store(st.Downcount)
	tmr.phase.Store(int32(Granted))
	tmr.endUpdate()

	tmr.idledCycles.Store(st.IdledCycles)
	tmr.SetClockScale(st.ClockScale)
	tmr.inbox.drain()

	tmr.queue = tmr.queue[:0]
	tmr.nextSeq = st.NextSequence

	for _, es := range st.Events {
		et := registry.resolve(es.Type)
		if !et.Bound() {
			logger.Logf(tmr.env, "timing", "core %d: restored event %s has no callback", tmr.id, es.Type)
		}

		tmr.queue.push(&Event{
			Deadline: es.Deadline,
			Sequence: es.Sequence,
			Payload:  es.Payload,
			Type:     et,
		})

		// sequence numbers must never be reused
		if es.Sequence >= tmr.nextSeq {
			tmr.nextSeq = es.Sequence + 1
		}
	}
}

// Snapshot returns the state of every timer. The inbox of each timer is merged
// into its queue first. Must only be called by the goroutine that steps the
// cores, between driver iterations.
func (s *Scheduler) Snapshot() *State {
	st := &State{}
	for _, tmr := range s.timers {
		st.Timers = append(st.Timers, tmr.snapshot())
	}
	return st
}

// Restore replaces the state of every timer. Event types are resolved by name
// so every peripheral must have registered its event types before Restore()
// is called. An event type name that has not been registered is added to the
// registry without a callback. Events of that type are dropped when they
// fire.
//
// The state must have one timer for every core.
func (s *Scheduler) Restore(st *State) error {
	if st == nil {
		return curated.Errorf("timing: no state to restore")
	}
	if len(st.Timers) != len(s.timers) {
		return curated.Errorf("timing: state has %d timers, scheduler has %d", len(st.Timers), len(s.timers))
	}

	for i, tmr := range s.timers {
		tmr.plumb(st.Timers[i], s.registry)
	}
	s.current.Store(s.timers[0])

	return nil
}
