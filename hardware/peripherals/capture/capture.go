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

package capture

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jetsetilly/lockstep/curated"
	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/hardware/timing"
	"github.com/jetsetilly/lockstep/logger"
)

const logTag = "capture"

// NumPorts is the number of camera ports.
const NumPorts = 2

// Frame dimensions. Pixels are two bytes each.
const (
	Width     = 640
	Height    = 480
	FrameSize = Width * Height * 2
)

// InterruptCycles is the amount of work given to the target core by each
// completion.
const InterruptCycles = 1000

// FrameRate of a camera port.
type FrameRate int

// List of valid FrameRate values.
const (
	Rate15 FrameRate = iota
	Rate10
	Rate8_5
	Rate5
	Rate20
	Rate30
)

// latency in milliseconds of a completion for each frame rate
var latency = [...]int64{
	Rate15:  67,
	Rate10:  100,
	Rate8_5: 118,
	Rate5:   200,
	Rate20:  50,
	Rate30:  34,
}

func (r FrameRate) String() string {
	switch r {
	case Rate15:
		return "15fps"
	case Rate10:
		return "10fps"
	case Rate8_5:
		return "8.5fps"
	case Rate5:
		return "5fps"
	case Rate20:
		return "20fps"
	case Rate30:
		return "30fps"
	}
	return "unknown frame rate"
}

// Latency returns the delay between the host completing a capture and the
// completion being seen by the emulation, in cycles.
func (r FrameRate) Latency() int64 {
	return timing.CyclesFromMs(latency[r])
}

func (r FrameRate) valid() bool {
	return r >= Rate15 && r <= Rate30
}

// Interrupter is implemented by the core that is told about completed
// captures.
type Interrupter interface {
	Interrupt(cycles int64)
}

// Grabber fills a frame with image data for the port. It is called on a host
// goroutine.
type Grabber interface {
	Grab(port int, frame []byte) error
}

// GrabberFunc allows a function to be used as a Grabber.
type GrabberFunc func(port int, frame []byte) error

// Grab implements the Grabber interface.
func (f GrabberFunc) Grab(port int, frame []byte) error {
	return f(port, frame)
}

type port struct {
	rate FrameRate

	// a capture has been started and not yet completed or stopped
	busy atomic.Bool

	// incremented by StopCapture() so that the completion of an abandoned
	// capture can be recognised
	generation atomic.Uint32

	// crit guards the fields shared with the host goroutines
	crit sync.Mutex

	// incremented whenever captures on the host are abandoned. a host
	// goroutine from an earlier epoch does not publish its frame or schedule
	// a completion. unlike the generation the epoch is never restored
	epoch uint64

	// frame grabbed by the host waiting for the completion event
	pending []byte

	completed uint64
	frame     []byte
}

// abandon every capture on the host. the port must be locked
func (prt *port) abandon() {
	prt.epoch++
	prt.pending = nil
	prt.busy.Store(false)
}

// Capture is the camera.
type Capture struct {
	env     *environment.Environment
	sched   *timing.Scheduler
	event   *timing.EventType
	core    int
	target  Interrupter
	grabber Grabber

	ports [NumPorts]port

	group *errgroup.Group
	ctx   context.Context
}

// NewCapture is the preferred method of initialisation for the Capture type.
// Completions are scheduled on the core and delivered to the target.
func NewCapture(env *environment.Environment, sched *timing.Scheduler, core int, target Interrupter, grabber Grabber) *Capture {
	c := &Capture{
		env:     env,
		sched:   sched,
		core:    core,
		target:  target,
		grabber: grabber,
	}
	for i := range c.ports {
		c.ports[i].frame = make([]byte, FrameSize)
	}
	c.Start(context.Background())
	c.Register()
	return c
}

// Register binds the completion callback to its event type.
func (c *Capture) Register() {
	c.event = c.sched.RegisterType("Capture_Complete", timing.CallbackFunc(c.complete))
}

// Start prepares a new group for host goroutines. Captures started after the
// context is cancelled fail immediately.
func (c *Capture) Start(ctx context.Context) {
	c.group, c.ctx = errgroup.WithContext(ctx)
}

// Wait for every host goroutine to finish. Returns the first error from a
// Grabber.
func (c *Capture) Wait() error {
	return c.group.Wait()
}

// SetFrameRate sets the frame rate of the port.
func (c *Capture) SetFrameRate(p int, rate FrameRate) error {
	if p < 0 || p >= NumPorts {
		return curated.Errorf("capture: no port %d", p)
	}
	if !rate.valid() {
		return curated.Errorf("capture: invalid frame rate (%d)", rate)
	}
	c.ports[p].rate = rate
	return nil
}

// the payload carries the port in the low byte and the generation above it
func payload(p int, generation uint32) timing.Payload {
	return timing.Payload(generation)<<8 | timing.Payload(p)
}

// StartCapture begins a capture on the port. The frame is grabbed into a new
// buffer on a host goroutine and published when the completion event fires.
func (c *Capture) StartCapture(p int) error {
	if p < 0 || p >= NumPorts {
		return curated.Errorf("capture: no port %d", p)
	}
	if err := c.ctx.Err(); err != nil {
		return curated.Errorf("capture: %v", err)
	}

	prt := &c.ports[p]
	if !prt.busy.CompareAndSwap(false, true) {
		return curated.Errorf("capture: port %d is busy", p)
	}

	prt.crit.Lock()
	epoch := prt.epoch
	prt.crit.Unlock()

	generation := prt.generation.Load()
	rate := prt.rate

	c.group.Go(func() error {
		frame := make([]byte, FrameSize)
		err := c.grabber.Grab(p, frame)

		prt.crit.Lock()
		defer prt.crit.Unlock()

		if prt.epoch != epoch {
			return nil
		}

		if err != nil {
			prt.busy.Store(false)
			return curated.Errorf("capture: port %d: %v", p, err)
		}

		prt.pending = frame
		c.sched.ScheduleOnCore(rate.Latency(), c.event, payload(p, generation), c.core, true)
		return nil
	})

	return nil
}

// StopCapture abandons the capture on the port. Must be called by the
// goroutine that steps the cores.
func (c *Capture) StopCapture(p int) error {
	if p < 0 || p >= NumPorts {
		return curated.Errorf("capture: no port %d", p)
	}
	prt := &c.ports[p]

	prt.crit.Lock()
	defer prt.crit.Unlock()

	c.sched.Unschedule(c.event, payload(p, prt.generation.Load()))
	prt.generation.Add(1)
	prt.abandon()
	return nil
}

func (c *Capture) complete(pl timing.Payload, _ int64) {
	p := int(pl & 0xff)
	if p >= NumPorts {
		logger.Logf(c.env, logTag, "completion for invalid port %d", p)
		return
	}

	prt := &c.ports[p]
	if uint32(pl>>8) != prt.generation.Load() {
		logger.Logf(c.env, logTag, "port %d: completion of abandoned capture ignored", p)
		return
	}

	prt.crit.Lock()
	if prt.pending != nil {
		prt.frame = prt.pending
		prt.pending = nil
	}
	prt.crit.Unlock()

	prt.completed++
	prt.busy.Store(false)

	if c.target != nil {
		c.target.Interrupt(InterruptCycles)
	}
}

// Busy returns true if a capture is in progress on the port.
func (c *Capture) Busy(p int) bool {
	return c.ports[p].busy.Load()
}

// Completed returns the number of captures completed on the port.
func (c *Capture) Completed(p int) uint64 {
	return c.ports[p].completed
}

// Frame returns the most recently completed frame for the port. Must be
// called by the goroutine that steps the cores.
func (c *Capture) Frame(p int) []byte {
	return c.ports[p].frame
}

// PortState is the persisted form of a single port.
type PortState struct {
	Rate       FrameRate `yaml:"rate"`
	Generation uint32    `yaml:"generation"`
	Completed  uint64    `yaml:"completed"`
}

// State is the persisted form of the Capture type.
type State struct {
	Ports [NumPorts]PortState `yaml:"ports"`
}

// Snapshot returns the current state of the camera.
func (c *Capture) Snapshot() State {
	var st State
	for i := range c.ports {
		st.Ports[i] = PortState{
			Rate:       c.ports[i].rate,
			Generation: c.ports[i].generation.Load(),
			Completed:  c.ports[i].completed,
		}
	}
	return st
}

// Plumb replaces the state of the camera and rebinds its callback. Captures
// in progress on the host are abandoned, even if they were started with the
// same generation as the restored state. A completion already in the restored
// event queue is still delivered but the frame is not changed.
func (c *Capture) Plumb(st State) {
	for i := range c.ports {
		prt := &c.ports[i]
		prt.crit.Lock()
		prt.rate = st.Ports[i].Rate
		prt.generation.Store(st.Ports[i].Generation)
		prt.completed = st.Ports[i].Completed
		prt.abandon()
		prt.crit.Unlock()
	}
	c.Register()
}
