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

package poller

import (
	"fmt"

	"github.com/jetsetilly/lockstep/curated"
	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/hardware/timing"
	"github.com/jetsetilly/lockstep/logger"
)

// InvalidPeriod is the error pattern returned when a period is not positive.
const InvalidPeriod = "poller: %s: period must be positive (%d)"

// Handler is called every time the poller fires. The count is the number of
// times the poller has fired, including this one.
type Handler interface {
	Poll(count uint64, cyclesLate int64)
}

// HandlerFunc allows a function to be used as a Handler.
type HandlerFunc func(count uint64, cyclesLate int64)

// Poll implements the Handler interface.
func (f HandlerFunc) Poll(count uint64, cyclesLate int64) {
	f(count, cyclesLate)
}

// Poller fires an event on a single core at a fixed interval.
type Poller struct {
	env   *environment.Environment
	sched *timing.Scheduler

	name    string
	core    int
	period  int64
	handler Handler
	event   *timing.EventType

	running bool
	count   uint64

	// the worst lateness seen
	maxLate int64
}

// NewPoller is the preferred method of initialisation for the Poller type.
// The period is in cycles and must be positive.
func NewPoller(env *environment.Environment, sched *timing.Scheduler, name string, core int, period int64, handler Handler) (*Poller, error) {
	if period <= 0 {
		return nil, curated.Errorf(InvalidPeriod, name, period)
	}
	if core < 0 || core >= sched.NumCores() {
		return nil, curated.Errorf("poller: %s: no core %d", name, core)
	}

	p := &Poller{
		env:     env,
		sched:   sched,
		name:    name,
		core:    core,
		period:  period,
		handler: handler,
	}
	p.Register()
	return p, nil
}

func (p *Poller) String() string {
	return fmt.Sprintf("%s: every %d cycles on core %d (fired %d)", p.name, p.period, p.core, p.count)
}

// Register binds the callback to the poller's event type.
func (p *Poller) Register() {
	p.event = p.sched.RegisterType(p.name, timing.CallbackFunc(p.fire))
}

// Start schedules the first event one period from now. Has no effect if the
// poller is already running.
func (p *Poller) Start() {
	if p.running {
		return
	}
	p.running = true
	p.sched.ScheduleOnCore(p.period, p.event, 0, p.core, false)
}

// Stop removes the pending event. Must be called by the goroutine that steps
// the cores.
func (p *Poller) Stop() {
	if !p.running {
		return
	}
	p.running = false
	p.sched.Unschedule(p.event, 0)
}

// SetPeriod changes the interval. The change takes effect when the event is
// next re-armed.
func (p *Poller) SetPeriod(period int64) error {
	if period <= 0 {
		return curated.Errorf(InvalidPeriod, p.name, period)
	}
	p.period = period
	return nil
}

func (p *Poller) fire(_ timing.Payload, cyclesLate int64) {
	if !p.running {
		logger.Logf(p.env, "poller", "%s: fired while stopped", p.name)
		return
	}

	p.count++
	p.maxLate = max(p.maxLate, cyclesLate)

	// the handler may stop the poller
	if p.handler != nil {
		p.handler.Poll(p.count, cyclesLate)
	}

	if p.running {
		p.sched.ScheduleOnCore(p.period-cyclesLate, p.event, 0, p.core, false)
	}
}

// Name returns the name of the poller's event type.
func (p *Poller) Name() string {
	return p.name
}

// Running returns true if the poller has an event pending.
func (p *Poller) Running() bool {
	return p.running
}

// Count returns the number of times the poller has fired.
func (p *Poller) Count() uint64 {
	return p.count
}

// MaxLate returns the largest number of cycles by which the poller has fired
// late.
func (p *Poller) MaxLate() int64 {
	return p.maxLate
}

// State is the persisted form of a Poller.
type State struct {
	Period  int64  `yaml:"period"`
	Running bool   `yaml:"running"`
	Count   uint64 `yaml:"count"`
	MaxLate int64  `yaml:"maxLate"`
}

// Snapshot returns the current state of the poller.
func (p *Poller) Snapshot() State {
	return State{
		Period:  p.period,
		Running: p.running,
		Count:   p.count,
		MaxLate: p.maxLate,
	}
}

// Plumb replaces the state of the poller and rebinds its callback. The pending
// event itself is part of the scheduler's state.
func (p *Poller) Plumb(st State) {
	p.period = st.Period
	p.running = st.Running
	p.count = st.Count
	p.maxLate = st.MaxLate
	p.Register()
}
