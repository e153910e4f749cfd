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

package dsp

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/hardware/timing"
	"github.com/jetsetilly/lockstep/logger"
)

// Frame constants.
const (
	FrameSamples       = 160
	FrameTicks   int64 = FrameSamples * 4096 * 2
	SampleRate         = 32728
	Channels           = 2
)

// InterruptCycles is the amount of work given to core 0 by each interrupt.
const InterruptCycles = 2000

// the core that receives the frame tick and the interrupt
const interruptCore = 0

const logTag = "dsp"

// Interrupter is implemented by the core that handles the DSP interrupt.
type Interrupter interface {
	Interrupt(cycles int64)
}

// Sink receives every frame produced by the DSP. Frames are interleaved
// stereo samples. The slice is reused and must not be retained.
type Sink interface {
	AddFrame(frame []int16) error
}

// DSP is the audio co-processor.
type DSP struct {
	env    *environment.Environment
	sched  *timing.Scheduler
	target Interrupter

	source Source
	sink   Sink

	tick *timing.EventType
	irq  *timing.EventType

	threaded bool
	signal   chan struct{}

	buf []int16

	frames     atomic.Uint64
	interrupts atomic.Uint64
	dropped    atomic.Uint64

	crit    sync.Mutex
	sinkErr error
}

// NewDSP is the preferred method of initialisation for the DSP type. The
// event types are registered with the scheduler but nothing is scheduled
// until Start() is called.
func NewDSP(env *environment.Environment, sched *timing.Scheduler, target Interrupter) *DSP {
	d := &DSP{
		env:      env,
		sched:    sched,
		target:   target,
		threaded: env.Prefs.Timing.DSPThread.Get().(bool),
		signal:   make(chan struct{}, 4),
		buf:      make([]int16, FrameSamples*Channels),
	}
	d.Register()
	return d
}

func (d *DSP) String() string {
	return fmt.Sprintf("dsp: frames %d, interrupts %d, dropped %d",
		d.frames.Load(), d.interrupts.Load(), d.dropped.Load())
}

// Register binds the DSP's callbacks to its event types. It must be called
// again after a state has been restored into a new scheduler.
func (d *DSP) Register() {
	d.tick = d.sched.RegisterType("DSP_Tick", timing.CallbackFunc(d.onTick))
	d.irq = d.sched.RegisterType("DSP_Interrupt", timing.CallbackFunc(d.onInterrupt))
}

// AttachSource sets the source of audio samples. A nil source produces
// silence. Must be called before Start().
func (d *DSP) AttachSource(src Source) {
	d.source = src
}

// AttachSink sets the destination of the audio frames. Must be called before
// Start().
func (d *DSP) AttachSink(sink Sink) {
	d.sink = sink
}

// Threaded returns true if the DSP expects Run() to be running in its own
// goroutine.
func (d *DSP) Threaded() bool {
	return d.threaded
}

// Start schedules the first frame tick.
func (d *DSP) Start() {
	d.sched.ScheduleOnCore(FrameTicks, d.tick, 0, interruptCore, false)
}

// Run produces frames in response to the frame tick. It returns when the
// context is cancelled. It should only be run when Threaded() is true.
func (d *DSP) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.signal:
			n := d.produce()
			d.sched.ScheduleOnCore(0, d.irq, timing.Payload(n), interruptCore, true)
		}
	}
}

func (d *DSP) onTick(_ timing.Payload, cyclesLate int64) {
	d.sched.ScheduleOnCore(FrameTicks-cyclesLate, d.tick, 0, interruptCore, false)

	if d.threaded {
		select {
		case d.signal <- struct{}{}:
		default:
			d.dropped.Add(1)
			logger.Log(d.env, logTag, "dsp thread is behind. frame dropped")
		}
		return
	}

	n := d.produce()
	d.sched.ScheduleOnCore(0, d.irq, timing.Payload(n), interruptCore, false)
}

func (d *DSP) onInterrupt(_ timing.Payload, _ int64) {
	d.interrupts.Add(1)
	if d.target != nil {
		d.target.Interrupt(InterruptCycles)
	}
}

// produce a single frame and return the frame number
func (d *DSP) produce() uint64 {
	if d.source != nil {
		d.source.Read(d.buf)
	} else {
		clear(d.buf)
	}

	if d.sink != nil {
		if err := d.sink.AddFrame(d.buf); err != nil {
			d.crit.Lock()
			if d.sinkErr == nil {
				d.sinkErr = err
				logger.Log(d.env, logTag, err)
			}
			d.crit.Unlock()
		}
	}

	return d.frames.Add(1)
}

// Err returns the first error returned by the sink.
func (d *DSP) Err() error {
	d.crit.Lock()
	defer d.crit.Unlock()
	return d.sinkErr
}

// Frames returns the number of frames produced.
func (d *DSP) Frames() uint64 {
	return d.frames.Load()
}

// Interrupts returns the number of interrupts delivered to core 0.
func (d *DSP) Interrupts() uint64 {
	return d.interrupts.Load()
}

// State is the persisted form of the DSP.
type State struct {
	Frames     uint64 `yaml:"frames"`
	Interrupts uint64 `yaml:"interrupts"`
}

// Snapshot returns the current state of the DSP.
func (d *DSP) Snapshot() State {
	return State{
		Frames:     d.frames.Load(),
		Interrupts: d.interrupts.Load(),
	}
}

// Plumb replaces the state of the DSP and rebinds its callbacks.
func (d *DSP) Plumb(st State) {
	d.frames.Store(st.Frames)
	d.interrupts.Store(st.Interrupts)
	d.Register()
}
