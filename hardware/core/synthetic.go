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

package core

import (
	"fmt"

	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/hardware/timing"
)

// DefaultMaxBlock is the largest number of cycles retired in a single block.
const DefaultMaxBlock = 64

// Synthetic implements the multicore.Core interface. It must only be used by
// the goroutine that steps the cores.
type Synthetic struct {
	env      *environment.Environment
	id       int
	maxBlock int

	// cycles of work waiting to be executed
	pending int64

	retired    int64
	runs       int
	interrupts int
}

// NewSynthetic is the preferred method of initialisation for the Synthetic
// type. A maxBlock of zero or less uses DefaultMaxBlock.
func NewSynthetic(env *environment.Environment, id int, maxBlock int) *Synthetic {
	if maxBlock <= 0 {
		maxBlock = DefaultMaxBlock
	}
	return &Synthetic{
		env:      env,
		id:       id,
		maxBlock: maxBlock,
	}
}

func (c *Synthetic) String() string {
	return fmt.Sprintf("core %d: pending %d, retired %d, runs %d, interrupts %d",
		c.id, c.pending, c.retired, c.runs, c.interrupts)
}

// ID implements the multicore.Core interface.
func (c *Synthetic) ID() int {
	return c.id
}

// HasWork implements the multicore.Core interface.
func (c *Synthetic) HasWork() bool {
	return c.pending > 0
}

// Interrupt gives the core more work to do.
func (c *Synthetic) Interrupt(cycles int64) {
	c.interrupts++
	c.pending += max(0, cycles)
}

// Pending returns the number of cycles of work waiting to be executed.
func (c *Synthetic) Pending() int64 {
	return c.pending
}

// Retired returns the number of cycles of work that have been executed.
func (c *Synthetic) Retired() int64 {
	return c.retired
}

// Run implements the multicore.Core interface.
func (c *Synthetic) Run(tmr *timing.Timer) {
	c.runs++
	for tmr.Downcount() > 0 && c.pending > 0 {
		n := int64(c.env.Random.Intn(c.maxBlock) + 1)
		tmr.AddConsumed(n)
		c.retired += n
		c.pending = max(0, c.pending-n)
	}
}

// State is the persisted form of a Synthetic core.
type State struct {
	Pending    int64 `yaml:"pending"`
	Retired    int64 `yaml:"retired"`
	Runs       int   `yaml:"runs"`
	Interrupts int   `yaml:"interrupts"`
}

// Snapshot returns the current state of the core.
func (c *Synthetic) Snapshot() State {
	return State{
		Pending:    c.pending,
		Retired:    c.retired,
		Runs:       c.runs,
		Interrupts: c.interrupts,
	}
}

// Plumb replaces the state of the core.
func (c *Synthetic) Plumb(st State) {
	c.pending = st.Pending
	c.retired = st.Retired
	c.runs = st.Runs
	c.interrupts = st.Interrupts
}
