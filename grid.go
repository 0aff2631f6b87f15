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
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// Grid is a simulation mesh.
type Grid struct {
	// Lx holds the number of cells along x1, x2 and x3,
	// excluding ghost cells.
	Lx [3]int

	// X1, X2 and X3 are the cell-center coordinates along each axis,
	// including two ghost cells at each end when read from a full grid file.
	X1, X2, X3 []float64

	// Alt [m], Glat and Glon [degrees] are the geographic position of each
	// cell, with shape Lx.
	Alt, Glat, Glon *sparse.DenseArray

	// H1 is the x1 metric coefficient. It is nil if the grid file does
	// not contain it.
	H1 *sparse.DenseArray

	// Vars holds any other arrays read from the grid file.
	Vars map[string]*sparse.DenseArray

	// Filename is the file the grid was read from.
	Filename string
}

// NumPoints returns the number of cells in the grid.
func (g *Grid) NumPoints() int { return g.Lx[0] * g.Lx[1] * g.Lx[2] }

// Geometry is the coordinate system of a grid.
type Geometry int

// Grids are either Cartesian or curvilinear (e.g. dipole).
const (
	Cartesian Geometry = iota
	Curvilinear
)

func (g Geometry) String() string {
	if g == Curvilinear {
		return "curvilinear"
	}
	return "cartesian"
}

// metricTolerance is how far the x1 metric coefficient may deviate from
// one in a Cartesian grid.
const metricTolerance = 1e-4

// Geometry returns Curvilinear if the x1 metric coefficient of g deviates
// from one, and Cartesian otherwise.
func (g *Grid) Geometry() Geometry {
	if g.H1 == nil || len(g.H1.Elements) == 0 {
		return Cartesian
	}
	if math.Abs(floats.Min(g.H1.Elements)-1) > metricTolerance || math.Abs(floats.Max(g.H1.Elements)-1) > metricTolerance {
		return Curvilinear
	}
	return Cartesian
}

// Is3D returns whether g has more than one cell along both x2 and x3.
func (g *Grid) Is3D() bool { return g.Lx[1] > 1 && g.Lx[2] > 1 }

// check verifies that the coordinate arrays of g have shape Lx.
func (g *Grid) check() error {
	if err := checkLx(g.Lx); err != nil {
		return err
	}
	for name, a := range map[string]*sparse.DenseArray{"alt": g.Alt, "glat": g.Glat, "glon": g.Glon} {
		if a == nil {
			return fmt.Errorf("gemini3d: grid %s has no %s: %w", g.Filename, name, ErrNotFound)
		}
		if !sameShape(a.Shape, lxShape(g.Lx)...) {
			return fmt.Errorf("gemini3d: grid %s: %s has shape %v, want %v: %w", g.Filename, name, a.Shape, g.Lx, ErrShapeMismatch)
		}
	}
	return nil
}

func checkLx(lx [3]int) error {
	for _, l := range lx {
		if l <= 0 {
			return fmt.Errorf("gemini3d: grid dimensions %v must be positive: %w", lx, ErrShapeMismatch)
		}
	}
	return nil
}

// LxFromKeys returns the grid dimensions held in m under any of the
// names used by different versions of GEMINI: the scalars "lx1", "lx2"
// and "lx3", or a length-3 "lxs" or "lx".
func LxFromKeys(m map[string][]float64) ([3]int, error) {
	var lx [3]int
	v1, ok1 := m["lx1"]
	v2, ok2 := m["lx2"]
	v3, ok3 := m["lx3"]
	switch {
	case ok1 && ok2 && ok3 && len(v1) > 0 && len(v2) > 0 && len(v3) > 0:
		lx = [3]int{int(v1[0]), int(v2[0]), int(v3[0])}
	case len(m["lxs"]) >= 3:
		v := m["lxs"]
		lx = [3]int{int(v[0]), int(v[1]), int(v[2])}
	case len(m["lx"]) >= 3:
		v := m["lx"]
		lx = [3]int{int(v[0]), int(v[1]), int(v[2])}
	default:
		return lx, fmt.Errorf("gemini3d: did not find grid size: %w", ErrNotFound)
	}
	return lx, checkLx(lx)
}
