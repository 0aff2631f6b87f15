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
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// Columns of the MSIS output. Densities are in m^-3, mass density in
// kg m^-3 and temperature in K.
const (
	FieldAlt = iota
	FieldHe
	FieldO
	FieldN2
	FieldO2
	FieldAr
	FieldMass
	FieldH
	FieldN
	FieldAnomalousO
	FieldT

	// NumFields is the number of values MSIS returns for each point.
	NumFields
)

// AltitudeTolerance [km] is how far the altitudes echoed by MSIS may differ
// from the requested ones. Text output is only precise to about 0.01 km.
const AltitudeTolerance = 0.02

// Species names the rows of the array returned by Stack.
var Species = []string{"O", "N2", "O2", "Tn", "N", "NO", "H"}

// Response is the parsed output of one MSIS run.
type Response struct {
	Lx [3]int

	// Fields holds one value per point for each output column.
	Fields [NumFields][]float64
}

// ParseResponse organizes the raw output of the executable, which holds
// NumFields values for each point in turn.
func ParseResponse(raw []float32, lx [3]int) (*Response, error) {
	lz := lx[0] * lx[1] * lx[2]
	if len(raw) != lz*NumFields {
		return nil, fmt.Errorf("msis: response has %d values, want %d: %w", len(raw), lz*NumFields, ErrResponseIntegrity)
	}
	r := &Response{Lx: lx}
	for i := range r.Fields {
		r.Fields[i] = make([]float64, lz)
	}
	for k, v := range raw {
		r.Fields[k%NumFields][k/NumFields] = float64(v)
	}
	return r, nil
}

// Check verifies that the altitudes in r match those requested.
// Altitude is very regular, so a mismatch means the output was not
// parsed correctly.
func (r *Response) Check(req *Request) error {
	if r.Lx != req.Lx {
		return fmt.Errorf("msis: response size %v does not match request size %v: %w", r.Lx, req.Lx, ErrResponseIntegrity)
	}
	alt := r.Fields[FieldAlt]
	if !floats.EqualFunc(alt, req.Alt, func(a, b float64) bool {
		return math.Abs(a-b) <= AltitudeTolerance
	}) {
		return fmt.Errorf("msis: altitudes differ from request by up to %g km: %w",
			floats.Distance(alt, req.Alt, math.Inf(1)), ErrResponseIntegrity)
	}
	return nil
}

// Field returns output column i with shape Lx.
func (r *Response) Field(i int) *sparse.DenseArray {
	a := sparse.ZerosDense(r.Lx[0], r.Lx[1], r.Lx[2])
	copy(a.Elements, r.Fields[i])
	return a
}

// Stack returns the neutral atmosphere in the order given by Species,
// with shape (len(Species), Lx...). Nitric oxide is not modeled by MSIS
// and is estimated from O2, O and temperature (Mitra, 1968).
func (r *Response) Stack() *sparse.DenseArray {
	lz := len(r.Fields[FieldAlt])
	nO, nO2, Tn := r.Fields[FieldO], r.Fields[FieldO2], r.Fields[FieldT]
	nNO := make([]float64, lz)
	for i := range nNO {
		nNO[i] = 0.4*math.Exp(-3700/Tn[i])*nO2[i] + 5e-7*nO[i]
	}
	out := sparse.ZerosDense(len(Species), r.Lx[0], r.Lx[1], r.Lx[2])
	for s, v := range [][]float64{nO, r.Fields[FieldN2], nO2, Tn, r.Fields[FieldN], nNO, r.Fields[FieldH]} {
		copy(out.Elements[s*lz:(s+1)*lz], v)
	}
	return out
}
