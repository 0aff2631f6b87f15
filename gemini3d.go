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

// Package gemini3d reads the grids and output frames of the GEMINI
// ionospheric model. Frames can be stored as raw Fortran binary, HDF5,
// netCDF or MATLAB files; whatever the storage, they are returned as
// row-major arrays with the grid dimensions (x1, x2, x3).
package gemini3d

import "sort"

// Version gives the version number.
const Version = "0.4.0"

// LSP is the number of particle species in a species stack. Species
// 0 through LSP-2 are ions and species LSP-1 is electrons.
const LSP = 7

// nIons is the number of ion species summed over when computing bulk
// ion quantities.
const nIons = LSP - 1

// SpeciesNames labels the entries of a species stack.
var SpeciesNames = [LSP]string{"O+", "NO+", "N2+", "O2+", "N+", "H+", "e-"}

// DefaultVars are the frame variables read when no variables are requested.
var DefaultVars = []string{"ne", "Ti", "Te", "v1", "v2", "v3", "J1", "J2", "J3", "Phi"}

// VarSet is a set of requested frame variable names.
type VarSet map[string]bool

// NewVarSet returns a set holding names, or DefaultVars if names is empty.
func NewVarSet(names ...string) VarSet {
	if len(names) == 0 {
		names = DefaultVars
	}
	v := make(VarSet, len(names))
	for _, n := range names {
		v[n] = true
	}
	return v
}

// Has returns whether name was requested.
func (v VarSet) Has(name string) bool { return v[name] }

// Any returns whether any of names were requested.
func (v VarSet) Any(names ...string) bool {
	for _, n := range names {
		if v[n] {
			return true
		}
	}
	return false
}

// Names returns the requested names in sorted order.
func (v VarSet) Names() []string {
	o := make([]string, 0, len(v))
	for n, ok := range v {
		if ok {
			o = append(o, n)
		}
	}
	sort.Strings(o)
	return o
}
