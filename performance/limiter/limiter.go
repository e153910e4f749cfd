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
//
// *** NOTE: all historical versions of this file, as found in any
// git repository, are also covered by the licence, even when this
// notice is not present ***

// Package limiter provides a rough and ready way of limiting events to a fixed
// rate. The frontend uses it to pace driver iterations when the emulation
// should not run as fast as possible.
//
// A new Limiter can be created with (error handling removed for clarity):
//
//	lim, _ := limiter.NewLimiter(ctx, 1000)
//
// Operations can then be stalled with the Wait() function. For example:
//
//	for {
//		lim.Wait()
//		sys.Step()
//	}
//
// The goroutine that produces the ticks ends when the context is cancelled.
package limiter

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jetsetilly/lockstep/curated"
)

// this is a really rough attempt at rate limiting. probably only any good if
// base performance of the machine is well above the required rate.

// Limiter will trigger a fixed number of times every second.
type Limiter struct {
	ctx    context.Context
	period atomic.Int64

	tick chan bool
}

// NewLimiter is the preferred method of initialisation for Limiter type.
func NewLimiter(ctx context.Context, perSecond int) (*Limiter, error) {
	lim := &Limiter{
		ctx:  ctx,
		tick: make(chan bool),
	}
	if err := lim.SetLimit(perSecond); err != nil {
		return nil, err
	}

	// run ticker concurrently
	go func() {
		period := time.Duration(lim.period.Load())
		adjusted := period
		t := time.Now()
		for {
			select {
			case lim.tick <- true:
			case <-ctx.Done():
				return
			}

			time.Sleep(max(0, adjusted))
			nt := time.Now()

			// a change to the limit resets the adjustment
			if p := time.Duration(lim.period.Load()); p != period {
				period = p
				adjusted = p
			} else {
				adjusted -= nt.Sub(t) - period
			}
			t = nt
		}
	}()

	return lim, nil
}

// SetLimit changes the limit at which the Limiter waits.
func (lim *Limiter) SetLimit(perSecond int) error {
	if perSecond <= 0 {
		return curated.Errorf("limiter: rate must be positive (%d)", perSecond)
	}
	lim.period.Store(int64(time.Second / time.Duration(perSecond)))
	return nil
}

// Wait will block until trigger. Returns false if the context has been
// cancelled.
func (lim *Limiter) Wait() bool {
	select {
	case <-lim.tick:
		return true
	case <-lim.ctx.Done():
		return false
	}
}

// HasWaited will return true if time has already elapsed and false it it is
// still yet to happen
func (lim *Limiter) HasWaited() bool {
	select {
	case <-lim.tick:
		return true
	default:
		// default case means that the channel receiving case doesn't block
		return false
	}
}
