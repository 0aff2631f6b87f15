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

// Package plot draws altitude profiles of gemini3d frames and neutral
// atmospheres.
package plot

import (
	"fmt"
	"io"
	"math"

	"github.com/ctessum/sparse"
	"github.com/gemini3d/gemini3d-go"
	"github.com/gemini3d/gemini3d-go/msis"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Width and Height are the size of the plots.
var (
	Width  = 4 * vg.Inch
	Height = 5 * vg.Inch
)

// Profile writes a PNG plot of frame variable name against altitude along
// x1, at index (i2, i3) of the other two axes. Species stacks are drawn
// with one line per species.
func Profile(w io.Writer, g *gemini3d.Grid, f *gemini3d.Frame, name string, i2, i3 int) error {
	alt, err := altitudes(g, i2, i3)
	if err != nil {
		return err
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = fmt.Sprintf("%s at %s\nx2=%d x3=%d", name, f.Time.UTC().Format("2006-01-02T15:04:05"), i2, i3)
	p.X.Label.Text = name
	p.Y.Label.Text = "altitude (km)"

	var lines []interface{}
	if a, ok := f.Vars[name]; ok {
		lines = append(lines, profile(alt, a, nil, i2, i3))
	} else if a, ok := f.Species[name]; ok {
		for s, sn := range gemini3d.SpeciesNames {
			lines = append(lines, sn, profile(alt, a, []int{s}, i2, i3))
		}
	} else {
		return fmt.Errorf("plot: %s has no variable %s: %w", f.Filename, name, gemini3d.ErrNotFound)
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return err
	}
	return save(w, p)
}

// MSISProfile writes a PNG plot of the log10 number densities in stack, as
// returned by msis.Runner.Setup, against altitude along x1 at index (i2, i3).
func MSISProfile(w io.Writer, g *gemini3d.Grid, stack *sparse.DenseArray, i2, i3 int) error {
	alt, err := altitudes(g, i2, i3)
	if err != nil {
		return err
	}
	if len(stack.Shape) != 4 || stack.Shape[0] != len(msis.Species) {
		return fmt.Errorf("plot: neutral atmosphere has shape %v: %w", stack.Shape, gemini3d.ErrShapeMismatch)
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = fmt.Sprintf("MSIS neutral densities\nx2=%d x3=%d", i2, i3)
	p.X.Label.Text = "log10 density (m^-3)"
	p.Y.Label.Text = "altitude (km)"

	var lines []interface{}
	for s, name := range msis.Species {
		if name == "Tn" {
			continue
		}
		xy := profile(alt, stack, []int{s}, i2, i3)
		for i := range xy {
			xy[i].X = math.Log10(xy[i].X)
		}
		lines = append(lines, name, xy)
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return err
	}
	return save(w, p)
}

// altitudes returns the altitude [km] of each cell along x1 at (i2, i3).
func altitudes(g *gemini3d.Grid, i2, i3 int) ([]float64, error) {
	if g.Alt == nil {
		return nil, fmt.Errorf("plot: grid %s has no altitude: %w", g.Filename, gemini3d.ErrNotFound)
	}
	if i2 < 0 || i2 >= g.Lx[1] || i3 < 0 || i3 >= g.Lx[2] {
		return nil, fmt.Errorf("plot: index (%d, %d) is outside grid %v: %w", i2, i3, g.Lx, gemini3d.ErrShapeMismatch)
	}
	alt := make([]float64, g.Lx[0])
	for i := range alt {
		alt[i] = g.Alt.Get(i, i2, i3) / 1e3
	}
	return alt, nil
}

// profile returns the values of a along x1 at (i2, i3), after any leading
// indices in lead.
func profile(alt []float64, a *sparse.DenseArray, lead []int, i2, i3 int) plotter.XYs {
	xy := make(plotter.XYs, len(alt))
	index := append(append([]int(nil), lead...), 0, i2, i3)
	for i, h := range alt {
		index[len(lead)] = i
		xy[i].X = a.Get(index...)
		xy[i].Y = h
	}
	return xy
}

func save(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
