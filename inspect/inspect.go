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

// Package inspect writes a graphviz (dot) description of the scheduler's
// state. The graph shows every timer and the events pending in its queue.
//
// The output can be rendered with the dot command:
//
//	dot -Tsvg scheduler.dot > scheduler.svg
package inspect

import (
	"bytes"
	"io"
	"os"

	"github.com/bradleyjkemp/memviz"

	"github.com/jetsetilly/lockstep/curated"
	"github.com/jetsetilly/lockstep/hardware/timing"
)

// Dump writes the graph of the state to the writer.
func Dump(w io.Writer, st *timing.State) error {
	if st == nil {
		return curated.Errorf("inspect: no state")
	}

	// memviz writes the graph in one pass and does not report errors. the
	// graph is built in memory so that write errors can be
	var b bytes.Buffer
	memviz.Map(&b, st)

	if _, err := w.Write(b.Bytes()); err != nil {
		return curated.Errorf("inspect: %v", err)
	}
	return nil
}

// DumpFile writes the graph of the state to the named file.
func DumpFile(filename string, st *timing.State) (rerr error) {
	f, err := os.Create(filename)
	if err != nil {
		return curated.Errorf("inspect: %v", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = curated.Errorf("inspect: %v", err)
		}
	}()
	return Dump(f, st)
}
