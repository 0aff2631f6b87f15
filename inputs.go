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
	"encoding/binary"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/ctessum/sparse"
)

// Inputs holds one time step of a gridded simulation input: electric
// field boundary conditions, particle precipitation or an auroral
// emission map.
type Inputs struct {
	// Vars holds the input arrays by name.
	Vars map[string]*sparse.DenseArray

	// FlagDirich is the electric field boundary condition type: 1 for
	// Dirichlet (potential) and 0 for Neumann (current). It is only set
	// for electric field inputs.
	FlagDirich int

	Filename string
}

// Electric field input variables. The first four have shape
// (llon, llat); the x2 boundary values have length llat and the x3
// boundary values length llon.
var efieldVars = []string{"Exit", "Eyit", "Vminx1it", "Vmaxx1it"}

var efieldBoundaryVars = []struct {
	name string
	axis int
}{{"Vminx2ist", 1}, {"Vmaxx2ist", 1}, {"Vminx3ist", 0}, {"Vmaxx3ist", 0}}

// precipVars are the particle precipitation variables, with shape
// (llon, llat): total energy flux Qp [mW/m^2] and characteristic
// energy E0p [eV].
var precipVars = []string{"Qp", "E0p"}

// ReadInputSize returns the dimensions (llon, llat) of the input files in
// directory dir, from its simsize file.
func ReadInputSize(dir string) ([2]int, error) {
	fn, err := FindSimSize(dir, true)
	if err != nil {
		return [2]int{}, err
	}
	f, err := FormatOf(fn)
	if err != nil {
		return [2]int{}, err
	}
	var ll [2]int
	if f == Raw {
		b, err := ioutil.ReadFile(fn)
		if err != nil {
			return ll, fmt.Errorf("gemini3d: reading input size: %w", err)
		}
		if len(b) != 8 {
			return ll, fmt.Errorf("gemini3d: %s has %d bytes, want 8: %w", fn, len(b), ErrShapeMismatch)
		}
		ll[0] = int(int32(binary.LittleEndian.Uint32(b)))
		ll[1] = int(int32(binary.LittleEndian.Uint32(b[4:])))
	} else {
		af, err := openArrayFile(f, fn)
		if err != nil {
			return ll, err
		}
		defer af.Close()
		for i, name := range []string{"llon", "llat"} {
			v, err := readFlat(af, fn, name)
			if err != nil {
				return ll, err
			}
			if len(v) != 1 {
				return ll, fmt.Errorf("gemini3d: %s: %s has %d values, want 1: %w", fn, name, len(v), ErrShapeMismatch)
			}
			ll[i] = int(v[0])
		}
	}
	if ll[0] <= 0 || ll[1] <= 0 {
		return ll, fmt.Errorf("gemini3d: %s: input dimensions %v must be positive: %w", fn, ll, ErrShapeMismatch)
	}
	return ll, nil
}

// ReadEfield reads one time step of electric field boundary conditions.
func ReadEfield(path string) (*Inputs, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if f != Raw && f != HDF5 && f != NetCDF {
		return nil, fmt.Errorf("gemini3d: don't know how to read electric field from %s: %w", path, ErrUnknownFormat)
	}
	ll, err := ReadInputSize(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	in := &Inputs{Vars: make(map[string]*sparse.DenseArray), Filename: path}
	switch f {
	case Raw:
		r, err := openRaw(path)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		flag, err := r.float64s("flagdirich", 1)
		if err != nil {
			return nil, err
		}
		in.FlagDirich = int(flag[0])
		for _, name := range efieldVars {
			if in.Vars[name], err = r.array(name, ll[0], ll[1]); err != nil {
				return nil, err
			}
		}
		for _, v := range efieldBoundaryVars {
			if in.Vars[v.name], err = r.array(v.name, ll[v.axis]); err != nil {
				return nil, err
			}
		}
		return in, nil
	case HDF5, NetCDF:
		af, err := openArrayFile(f, path)
		if err != nil {
			return nil, err
		}
		defer af.Close()
		flag, err := readFlat(af, path, "flagdirich")
		if err != nil {
			return nil, err
		}
		if len(flag) != 1 {
			return nil, fmt.Errorf("gemini3d: %s: flagdirich has %d values, want 1: %w", path, len(flag), ErrShapeMismatch)
		}
		in.FlagDirich = int(flag[0])
		for _, name := range efieldVars {
			if in.Vars[name], err = readGridArray(af, path, name, ll[0], ll[1]); err != nil {
				return nil, err
			}
		}
		for _, v := range efieldBoundaryVars {
			if !af.has(v.name) {
				continue
			}
			if in.Vars[v.name], err = readGridArray(af, path, v.name, ll[v.axis]); err != nil {
				return nil, err
			}
		}
	}
	return in, nil
}

// ReadPrecip reads one time step of particle precipitation.
func ReadPrecip(path string) (*Inputs, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if f != HDF5 && f != NetCDF {
		return nil, fmt.Errorf("gemini3d: don't know how to read precipitation from %s: %w", path, ErrUnknownFormat)
	}
	ll, err := ReadInputSize(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	af, err := openArrayFile(f, path)
	if err != nil {
		return nil, err
	}
	defer af.Close()
	in := &Inputs{Vars: make(map[string]*sparse.DenseArray), Filename: path}
	for _, name := range precipVars {
		if in.Vars[name], err = readGridArray(af, path, name, ll[0], ll[1]); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// ReadAurora reads an auroral emission map written by the GLOW model:
// the variable "rayleighs" [R] with shape (wavelength, lx2, lx3).
func ReadAurora(path string) (*Inputs, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if f == Raw {
		return readRawAurora(path)
	}
	if f != HDF5 && f != NetCDF {
		return nil, fmt.Errorf("gemini3d: don't know how to read aurora from %s: %w", path, ErrUnknownFormat)
	}
	af, err := openArrayFile(f, path)
	if err != nil {
		return nil, err
	}
	defer af.Close()
	name, ok := firstOf(af, "/aurora/rayleighs", "rayleighs")
	if !ok {
		return nil, fmt.Errorf("gemini3d: %s has no rayleighs: %w", path, ErrNotFound)
	}
	vals, dims, err := af.read(name)
	if err != nil {
		return nil, err
	}
	if len(dims) != 3 {
		return nil, fmt.Errorf("gemini3d: %s: rayleighs has dimensions %v, want 3 dimensions: %w", path, dims, ErrShapeMismatch)
	}
	a, err := fromFortran(vals, reversed(dims)...)
	if err != nil {
		return nil, err
	}
	return &Inputs{Vars: map[string]*sparse.DenseArray{"rayleighs": a}, Filename: path}, nil
}

// readRawAurora reads a raw auroral emission map: float64 values of
// shape (lx2, lx3, wavelength) in column-major order. The grid size comes
// from the simsize file of the aurmaps directory or of the simulation
// directory above it.
func readRawAurora(path string) (*Inputs, error) {
	dir := filepath.Dir(path)
	lx, err := ReadSimSize(dir)
	if errors.Is(err, ErrNotFound) {
		lx, err = ReadSimSize(filepath.Dir(filepath.Dir(dir)))
	}
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("gemini3d: reading aurora: %w", err)
	}
	cells := lx[1] * lx[2]
	n := int(fi.Size() / 8)
	if fi.Size()%8 != 0 || n == 0 || n%cells != 0 {
		return nil, fmt.Errorf("gemini3d: %s has %d bytes, not a multiple of %d wavelength maps: %w", path, fi.Size(), cells, ErrShapeMismatch)
	}
	r, err := openRaw(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	a, err := r.array("rayleighs", lx[1], lx[2], n/cells)
	if err != nil {
		return nil, err
	}
	return &Inputs{Vars: map[string]*sparse.DenseArray{"rayleighs": permute(a, 2, 0, 1)}, Filename: path}, nil
}
