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
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/gemini3d/gemini3d-go"
)

// StoredNames are the netCDF variable names of the rows of the array
// returned by Response.Stack.
var StoredNames = []string{"nO", "nN2", "nO2", "Tn", "nN", "nNO", "nH"}

// WriteNetCDF writes stack, as returned by Runner.Setup, to w. Each species
// is stored as its own variable with dimensions (x3, x2, x1).
func WriteNetCDF(w *os.File, stack *sparse.DenseArray, lx [3]int) error {
	lz := lx[0] * lx[1] * lx[2]
	if len(stack.Shape) != 4 || stack.Shape[0] != len(Species) || len(stack.Elements) != len(Species)*lz {
		return fmt.Errorf("msis: neutral atmosphere has shape %v, want [%d %d %d %d]: %w",
			stack.Shape, len(Species), lx[0], lx[1], lx[2], gemini3d.ErrShapeMismatch)
	}

	h := cdf.NewHeader([]string{"x1", "x2", "x3"}, []int{lx[0], lx[1], lx[2]})
	h.AddAttribute("", "comment", "MSIS neutral atmosphere")
	dims := []string{"x3", "x2", "x1"}
	for i, name := range StoredNames {
		h.AddVariable(name, dims, []float64{0})
		units := "m-3"
		if Species[i] == "Tn" {
			units = "K"
		}
		h.AddAttribute(name, "units", units)
	}
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("msis: creating netCDF file: %v", err)
	}
	for i, name := range StoredNames {
		data := reverseOrder(stack.Elements[i*lz:(i+1)*lz], lx)
		wr := f.Writer(name, []int{0, 0, 0}, []int{lx[2], lx[1], lx[0]})
		if _, err := wr.Write(data); err != nil {
			return fmt.Errorf("msis: writing %s to netCDF file: %v", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

// reverseOrder rearranges row-major data with shape lx into row-major
// order for the reversed shape.
func reverseOrder(v []float64, lx [3]int) []float64 {
	o := make([]float64, len(v))
	for i := 0; i < lx[0]; i++ {
		for j := 0; j < lx[1]; j++ {
			for k := 0; k < lx[2]; k++ {
				o[(k*lx[1]+j)*lx[0]+i] = v[(i*lx[1]+j)*lx[2]+k]
			}
		}
	}
	return o
}
