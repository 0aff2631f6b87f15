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

	"github.com/ctessum/sparse"
)

// Derive adds to f any of the requested bulk variables "ne", "v1", "Ti"
// and "Te" that it does not already hold, computing them from the species
// stacks. Bulk ion quantities are density-weighted sums over the ion
// species divided by the electron density, assuming quasi-neutrality.
// Division by zero density is not guarded against.
func Derive(f *Frame, vars VarSet) error {
	need := func(name string) bool {
		_, ok := f.Vars[name]
		return vars.Has(name) && !ok
	}
	if need("ne") || need("v1") || need("Ti") || need("Te") {
		ns, err := species(f, "ns")
		if err != nil {
			return err
		}
		if _, ok := f.Vars["ne"]; !ok {
			f.Vars["ne"] = leading(ns, LSP-1)
		}
		ne := f.Vars["ne"]
		if need("v1") {
			vs1, err := species(f, "vs1")
			if err != nil {
				return err
			}
			f.Vars["v1"] = ionAverage(ns, vs1, ne)
		}
		if need("Ti") || need("Te") {
			Ts, err := species(f, "Ts")
			if err != nil {
				return err
			}
			if need("Ti") {
				f.Vars["Ti"] = ionAverage(ns, Ts, ne)
			}
			if need("Te") {
				f.Vars["Te"] = leading(Ts, LSP-1)
			}
		}
	}
	if j1, ok := f.Vars["J1"]; ok && vars.Has("J1") {
		if !sameShape(j1.Shape, lxShape(f.Lx)...) {
			return fmt.Errorf("gemini3d: %s: J1 has shape %v, want %v; may have wrong permutation on read: %w", f.Filename, j1.Shape, f.Lx, ErrShapeMismatch)
		}
	}
	return nil
}

// species returns the named species stack of f after checking that it has
// LSP species and the frame dimensions.
func species(f *Frame, name string) (*sparse.DenseArray, error) {
	a, ok := f.Species[name]
	if !ok {
		return nil, fmt.Errorf("gemini3d: %s: species stack %s: %w", f.Filename, name, ErrNotFound)
	}
	if !sameShape(a.Shape, speciesShape(f.Lx)...) {
		return nil, fmt.Errorf("gemini3d: %s: %s has shape %v, want %v; may have wrong permutation on read: %w", f.Filename, name, a.Shape, speciesShape(f.Lx), ErrShapeMismatch)
	}
	return a, nil
}

// ionAverage returns sum_i(ns_i * x_i) / ne over the ion species.
func ionAverage(ns, x, ne *sparse.DenseArray) *sparse.DenseArray {
	n := len(ne.Elements)
	out := sparse.ZerosDense(append([]int(nil), ne.Shape...)...)
	for i := 0; i < nIons; i++ {
		nsi := ns.Elements[i*n : (i+1)*n]
		xi := x.Elements[i*n : (i+1)*n]
		for p := range out.Elements {
			out.Elements[p] += nsi[p] * xi[p]
		}
	}
	for p, v := range ne.Elements {
		out.Elements[p] /= v
	}
	return out
}
