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

package random

import (
	"math/rand"
	"sync"
	"time"
)

// the base seed for all random numbers
var baseSeed int64

func init() {
	baseSeed = time.Now().UnixNano()
}

// Random is a random number generator that is safe to use from multiple
// goroutines.
type Random struct {
	// use zero seed rather than the random base seed
	ZeroSeed bool

	crit sync.Mutex
	rng  *rand.Rand
}

// NewRandom is the preferred method of initialisation for the Random type.
func NewRandom() *Random {
	return &Random{}
}

// Reset restarts the sequence. If ZeroSeed is true the sequence will be the
// same as any other zero seeded sequence.
func (rnd *Random) Reset() {
	rnd.crit.Lock()
	defer rnd.crit.Unlock()
	rnd.rng = nil
}

// the rng is created on first use so that ZeroSeed can be set after
// NewRandom()
func (rnd *Random) source() *rand.Rand {
	if rnd.rng == nil {
		if rnd.ZeroSeed {
			rnd.rng = rand.New(rand.NewSource(0))
		} else {
			rnd.rng = rand.New(rand.NewSource(baseSeed))
		}
	}
	return rnd.rng
}

// Intn returns a number in the range [0, n). It panics if n <= 0.
func (rnd *Random) Intn(n int) int {
	rnd.crit.Lock()
	defer rnd.crit.Unlock()
	return rnd.source().Intn(n)
}

// Int63n returns a number in the range [0, n). It panics if n <= 0.
func (rnd *Random) Int63n(n int64) int64 {
	rnd.crit.Lock()
	defer rnd.crit.Unlock()
	return rnd.source().Int63n(n)
}

// Uint32 returns a number in the range [0, 2^32).
func (rnd *Random) Uint32() uint32 {
	rnd.crit.Lock()
	defer rnd.crit.Unlock()
	return rnd.source().Uint32()
}
