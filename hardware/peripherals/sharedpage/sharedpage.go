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

// Package sharedpage is the clock page shared between the emulated kernel and
// the programs it runs. The page holds the current date and time together
// with the tick count at which it was written. It is updated once at power on
// and then once every hour of emulated time.
//
// The page is double buffered. The counter is incremented after every update
// and its parity decides which of the two entries was written last.
package sharedpage

import (
	"fmt"
	"time"

	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/hardware/timing"
)

// UpdatePeriod is the interval between updates, in cycles.
var UpdatePeriod = timing.CyclesFromMs(60 * 60 * 1000)

// the core the update event runs on
const updateCore = 0

// console time counts milliseconds from the start of 1900. times before 2000
// are not allowed
var epoch2000 = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

const msFrom1900To2000 = 3155673600000

// DateTime is a single entry in the page.
type DateTime struct {
	// milliseconds since 1900
	DateTime uint64 `yaml:"dateTime"`

	// the tick count when the entry was written
	UpdateTick int64 `yaml:"updateTick"`

	TickToSecondCoefficient int64 `yaml:"tickToSecondCoefficient"`
	TickOffset              int64 `yaml:"tickOffset"`
}

// SharedPage is the clock page.
type SharedPage struct {
	env   *environment.Environment
	sched *timing.Scheduler
	event *timing.EventType

	// the console time at tick zero
	base time.Time

	counter uint32
	entries [2]DateTime
}

// NewSharedPage is the preferred method of initialisation for the SharedPage
// type. The base time is the console time at the start of emulation.
func NewSharedPage(env *environment.Environment, sched *timing.Scheduler, base time.Time) *SharedPage {
	p := &SharedPage{
		env:   env,
		sched: sched,
		base:  base,
	}
	p.Register()
	return p
}

func (p *SharedPage) String() string {
	return fmt.Sprintf("shared page: counter %d, time %d", p.counter, p.Latest().DateTime)
}

// Register binds the update callback to its event type.
func (p *SharedPage) Register() {
	p.event = p.sched.RegisterType("SharedPage_Update", timing.CallbackFunc(p.update))
}

// Start schedules the first update immediately on core 0.
func (p *SharedPage) Start() {
	p.sched.ScheduleOnCore(0, p.event, 0, updateCore, false)
}

// SystemTime returns the current console time in milliseconds since 1900.
func (p *SharedPage) SystemTime() uint64 {
	now := p.base.Add(p.sched.GlobalTime())
	since := max(0, now.Sub(epoch2000).Milliseconds())
	return msFrom1900To2000 + uint64(since)
}

func (p *SharedPage) update(_ timing.Payload, cyclesLate int64) {
	// an odd counter means entry zero is written next
	e := &p.entries[1]
	if p.counter%2 == 1 {
		e = &p.entries[0]
	}

	e.DateTime = p.SystemTime()
	e.UpdateTick = p.sched.Timer(updateCore).Ticks()
	e.TickToSecondCoefficient = timing.BaseClockRate
	e.TickOffset = 0

	p.counter++

	p.sched.Schedule(UpdatePeriod-cyclesLate, p.event, 0)
}

// Counter returns the number of updates.
func (p *SharedPage) Counter() uint32 {
	return p.counter
}

// Latest returns the most recently written entry.
func (p *SharedPage) Latest() DateTime {
	if p.counter%2 == 1 {
		return p.entries[1]
	}
	return p.entries[0]
}

// State is the persisted form of the SharedPage.
type State struct {
	Base    int64       `yaml:"base"`
	Counter uint32      `yaml:"counter"`
	Entries [2]DateTime `yaml:"entries"`
}

// Snapshot returns the current state of the page.
func (p *SharedPage) Snapshot() State {
	return State{
		Base:    p.base.UnixMilli(),
		Counter: p.counter,
		Entries: p.entries,
	}
}

// Plumb replaces the state of the page and rebinds its callback.
func (p *SharedPage) Plumb(st State) {
	p.base = time.UnixMilli(st.Base).UTC()
	p.counter = st.Counter
	p.entries = st.Entries
	p.Register()
}
