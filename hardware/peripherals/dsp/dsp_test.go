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

package dsp_test

import (
	"context"
	"path/filepath"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/hardware/peripherals/dsp"
	"github.com/jetsetilly/lockstep/hardware/preferences"
	"github.com/jetsetilly/lockstep/hardware/timing"
	"github.com/jetsetilly/lockstep/test"
)

func newEnv(t *testing.T, threaded bool) *environment.Environment {
	t.Helper()
	prf, err := preferences.NewPreferencesFromFile(filepath.Join(t.TempDir(), "prefs"))
	test.DemandSuccess(t, err)
	env, err := environment.NewEnvironment(environment.MainEmulation, prf)
	test.DemandSuccess(t, err)
	env.Normalise()
	test.DemandSuccess(t, prf.Timing.Cores.Set(2))
	test.DemandSuccess(t, prf.Timing.InitTicksType.Set(preferences.InitTicksFixed))
	test.DemandSuccess(t, prf.Timing.DSPThread.Set(threaded))
	return env
}

type interrupter struct {
	cycles int64
	count  int
}

func (i *interrupter) Interrupt(cycles int64) {
	i.cycles += cycles
	i.count++
}

type sink struct {
	frames  int
	nonzero bool
}

func (s *sink) AddFrame(frame []int16) error {
	s.frames++
	for _, v := range frame {
		if v != 0 {
			s.nonzero = true
		}
	}
	return nil
}

// step core 0 through one slice, with overshoot to exercise the lateness
// compensation
func step(tmr *timing.Timer) {
	tmr.Advance()
	tmr.GrantSlice(timing.MaxSliceLength)
	tmr.AddConsumed(tmr.Downcount() + 7)
}

func TestFrameCadence(t *testing.T) {
	env := newEnv(t, false)
	sched := timing.NewScheduler(env)
	tmr := sched.Timer(0)

	var irq interrupter
	var out sink
	d := dsp.NewDSP(env, sched, &irq)
	d.AttachSource(dsp.NewTone(440))
	d.AttachSink(&out)
	d.Start()

	var ticks []int64
	frames := d.Frames()
	for len(ticks) < 4 {
		step(tmr)
		if f := d.Frames(); f != frames {
			frames = f
			ticks = append(ticks, tmr.Ticks())
		}
	}

	// the frame tick compensates for lateness so frames never drift
	for i, tk := range ticks {
		test.ExpectEquality(t, tk/dsp.FrameTicks, int64(i+1), i)
		test.ExpectEquality(t, tk%dsp.FrameTicks < 2*timing.MaxSliceLength, true, i)
	}

	test.ExpectEquality(t, d.Interrupts(), uint64(4))
	test.ExpectEquality(t, irq.count, 4)
	test.ExpectEquality(t, irq.cycles, int64(4*dsp.InterruptCycles))
	test.ExpectEquality(t, out.frames, 4)
	test.ExpectEquality(t, out.nonzero, true)
	test.ExpectSuccess(t, d.Err())
}

func TestThreaded(t *testing.T) {
	env := newEnv(t, true)
	sched := timing.NewScheduler(env)
	tmr := sched.Timer(0)

	var irq interrupter
	d := dsp.NewDSP(env, sched, &irq)
	test.ExpectEquality(t, d.Threaded(), true)
	d.Start()

	ctx, cancel := context.WithCancel(context.Background())
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return d.Run(ctx)
	})

	for i := 0; irq.count < 2; i++ {
		if i > 1000000 {
			t.Fatalf("dsp interrupt not received")
		}
		step(tmr)
	}

	cancel()
	test.ExpectSuccess(t, eg.Wait())
	test.ExpectEquality(t, d.Frames() >= 2, true)
}

func TestSilence(t *testing.T) {
	env := newEnv(t, false)
	sched := timing.NewScheduler(env)

	var out sink
	d := dsp.NewDSP(env, sched, nil)
	d.AttachSink(&out)
	d.Start()

	for out.frames < 2 {
		step(sched.Timer(0))
	}
	test.ExpectEquality(t, out.nonzero, false)
}

func TestPCMLoops(t *testing.T) {
	p := dsp.NewPCM([]int16{1, 2, 3, 4, 5, 6}, 32728)
	test.ExpectEquality(t, p.Len(), 3)

	frame := make([]int16, 8)
	p.Read(frame)
	expected := []int16{1, 2, 3, 4, 5, 6, 1, 2}
	for i := range frame {
		test.ExpectEquality(t, frame[i], expected[i], i)
	}
}
