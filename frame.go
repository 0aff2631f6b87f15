/*
Copyright © 2020 the gemini3d-go authors.
This file is part of gemini3d-go.

gemini3d-go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

gemini3d-go is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with gemini3d-go.  If not, see <http://www.gnu.org/licenses/>.
*/

package gemini3d

import (
	"fmt"
	"sort"
	"time"

	"github.com/ctessum/sparse"
)

// Frame holds the output of one simulation time step.
type Frame struct {
	Time time.Time

	// Lx is the grid dimensions.
	Lx [3]int

	// Flag is the output flag the frame was written with.
	Flag Flag

	// Vars holds the gridded variables, e.g. "ne" [m^-3], "Ti" and
	// "Te" [K], "v1", "v2", "v3" [m/s] and "J1", "J2", "J3" [A/m^2].
	// Each has shape Lx.
	Vars map[string]*sparse.DenseArray

	// Species holds the species stacks "ns", "vs1" and "Ts", each with
	// shape (LSP, Lx[0], Lx[1], Lx[2]). It is only populated for
	// FlagFull frames.
	Species map[string]*sparse.DenseArray

	// Surface holds two-dimensional variables with shape (Lx[1], Lx[2]),
	// e.g. the topside potential "Phi" [V].
	Surface map[string]*sparse.DenseArray

	Filename string
}

func newFrame(path string, lx [3]int, flag Flag) *Frame {
	return &Frame{
		Lx:       lx,
		Flag:     flag,
		Vars:     make(map[string]*sparse.DenseArray),
		Species:  make(map[string]*sparse.DenseArray),
		Surface:  make(map[string]*sparse.DenseArray),
		Filename: path,
	}
}

// Names returns the names of the gridded and surface variables in f.
func (f *Frame) Names() []string {
	var o []string
	for n := range f.Vars {
		o = append(o, n)
	}
	for n := range f.Surface {
		o = append(o, n)
	}
	sort.Strings(o)
	return o
}

// check verifies that every variable in f has the frame dimensions.
func (f *Frame) check() error {
	lx := lxShape(f.Lx)
	for name, a := range f.Vars {
		if !sameShape(a.Shape, lx...) {
			return fmt.Errorf("gemini3d: %s: %s has shape %v, want %v: %w", f.Filename, name, a.Shape, lx, ErrShapeMismatch)
		}
	}
	for name, a := range f.Surface {
		if !sameShape(a.Shape, f.Lx[1], f.Lx[2]) {
			return fmt.Errorf("gemini3d: %s: %s has shape %v, want [%d %d]: %w", f.Filename, name, a.Shape, f.Lx[1], f.Lx[2], ErrShapeMismatch)
		}
	}
	return nil
}

// keep discards the variables of f that are not in vars.
func (f *Frame) keep(vars VarSet) {
	for _, m := range []map[string]*sparse.DenseArray{f.Vars, f.Species, f.Surface} {
		for name := range m {
			if !vars.Has(name) {
				delete(m, name)
			}
		}
	}
}
