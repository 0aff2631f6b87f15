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

package msis

import (
	"fmt"
	"time"

	"github.com/gemini3d/gemini3d-go"
)

// Activity holds the geomagnetic and solar activity indices that drive MSIS.
type Activity struct {
	// F107a is the 81-day average of the F10.7 solar flux.
	F107a float64
	// F107 is the F10.7 solar flux for the previous day.
	F107 float64
	// Ap is the daily geomagnetic index.
	Ap float64
	// Ap3 is the 3-hour Ap index. If it is zero, Ap is used instead.
	Ap3 float64
}

// ActivityFromConfig reads the activity indices from a simulation
// configuration.
func ActivityFromConfig(cfg gemini3d.Config) (Activity, error) {
	f107a, f107, ap, ap3, err := cfg.Activity()
	if err != nil {
		return Activity{}, err
	}
	return Activity{F107a: f107a, F107: f107, Ap: ap, Ap3: ap3}, nil
}

// Request is the input to one run of the MSIS executable.
type Request struct {
	// DOY is the day of the year, starting at 1.
	DOY int
	// UTsec is the whole number of seconds since midnight UTC.
	UTsec int

	F107a, F107, Ap, Ap3 float64

	// Lx is the grid size. The point count is the product of its elements.
	Lx [3]int

	// Glat and Glon [degrees] and Alt [km] are the positions to evaluate,
	// flattened in row-major order.
	Glat, Glon, Alt []float64

	// Version is the MSIS version to request. Zero leaves the choice to
	// the executable.
	Version int
}

// NewRequest creates a request to evaluate MSIS at every cell of g at time t.
// Altitudes at or below the ground are moved to 1 km, where MSIS
// gives finite values.
func NewRequest(g *gemini3d.Grid, t time.Time, a Activity, version int) (*Request, error) {
	if g == nil || g.Alt == nil || g.Glat == nil || g.Glon == nil {
		return nil, fmt.Errorf("msis: grid has no coordinates: %w", gemini3d.ErrNotFound)
	}
	n := g.NumPoints()
	for name, v := range map[string][]float64{"alt": g.Alt.Elements, "glat": g.Glat.Elements, "glon": g.Glon.Elements} {
		if len(v) != n {
			return nil, fmt.Errorf("msis: grid %s has %d points, want %d: %w", name, len(v), n, gemini3d.ErrShapeMismatch)
		}
	}
	alt := make([]float64, n)
	for i, v := range g.Alt.Elements {
		alt[i] = v / 1e3
		if alt[i] <= 0 {
			alt[i] = 1
		}
	}
	t = t.UTC()
	if a.Ap3 == 0 {
		a.Ap3 = a.Ap
	}
	return &Request{
		DOY:     t.YearDay(),
		UTsec:   t.Hour()*3600 + t.Minute()*60 + t.Second(),
		F107a:   a.F107a,
		F107:    a.F107,
		Ap:      a.Ap,
		Ap3:     a.Ap3,
		Lx:      g.Lx,
		Glat:    append([]float64(nil), g.Glat.Elements...),
		Glon:    append([]float64(nil), g.Glon.Elements...),
		Alt:     alt,
		Version: version,
	}, nil
}

// NumPoints returns the number of positions in the request.
func (r *Request) NumPoints() int { return r.Lx[0] * r.Lx[1] * r.Lx[2] }
