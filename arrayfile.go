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
	"time"

	"github.com/ctessum/sparse"
)

// arrayFile is a file of named arrays. Arrays are stored in row-major
// order with their dimensions reversed relative to the grid, so that an
// array with grid shape (x1, x2, x3) is stored as (x3, x2, x1).
type arrayFile interface {
	has(name string) bool

	// read returns the values of the named array in storage order,
	// together with its stored dimensions.
	read(name string) ([]float64, []int, error)

	Close() error
}

func openArrayFile(f Format, path string) (arrayFile, error) {
	switch f {
	case HDF5:
		return openH5(path)
	case NetCDF:
		return openNC(path)
	case Matlab:
		return openMat(path)
	}
	return nil, fmt.Errorf("gemini3d: %s is not a file of named arrays: %w", path, ErrUnknownFormat)
}

// firstOf returns the first of names present in af.
func firstOf(af arrayFile, names ...string) (string, bool) {
	for _, n := range names {
		if af.has(n) {
			return n, true
		}
	}
	return "", false
}

// storedAs returns whether an array with dimensions dims and n elements
// holds data stored with dimensions want. Flattened (one-dimensional)
// arrays are accepted, as are arrays whose only difference from want is in
// dimensions of length one, which some writers drop.
func storedAs(dims []int, n int, want []int) bool {
	if sameShape(dims, want...) {
		return true
	}
	if n != product(want) {
		return false
	}
	return len(dims) == 1 || sameShape(squeeze(dims), squeeze(want)...)
}

func squeeze(shape []int) []int {
	var o []int
	for _, s := range shape {
		if s != 1 {
			o = append(o, s)
		}
	}
	return o
}

// readGridArray reads the named array, whose grid shape is shape, from af.
func readGridArray(af arrayFile, path, name string, shape ...int) (*sparse.DenseArray, error) {
	vals, dims, err := af.read(name)
	if err != nil {
		return nil, err
	}
	if !storedAs(dims, len(vals), reversed(shape)) {
		return nil, fmt.Errorf("gemini3d: %s: %s has stored dimensions %v, want %v: %w", path, name, dims, reversed(shape), ErrShapeMismatch)
	}
	return fromFortran(vals, shape...)
}

// readSpeciesArray reads a species stack, stored as (LSP, x3, x2, x1).
func readSpeciesArray(af arrayFile, path, name string, lx [3]int) (*sparse.DenseArray, error) {
	vals, dims, err := af.read(name)
	if err != nil {
		return nil, err
	}
	stored := []int{LSP, lx[2], lx[1], lx[0]}
	if !storedAs(dims, len(vals), stored) {
		return nil, fmt.Errorf("gemini3d: %s: %s has stored dimensions %v, want %v; may have wrong permutation on read: %w", path, name, dims, stored, ErrShapeMismatch)
	}
	a, err := dense(vals, stored...)
	if err != nil {
		return nil, err
	}
	return permute(a, 0, 3, 2, 1), nil
}

// readFlat reads a named array without regard to its shape.
func readFlat(af arrayFile, path, name string) ([]float64, error) {
	v, _, err := af.read(name)
	return v, err
}

// arrayVar names an on-disk variable and where it goes in a Frame.
type arrayVar struct {
	stored, name string
}

var (
	currentVars = []arrayVar{{"J1all", "J1"}, {"J2all", "J2"}, {"J3all", "J3"}, {"v2avgall", "v2"}, {"v3avgall", "v3"}}
	averageVars = []arrayVar{{"neall", "ne"}, {"v1avgall", "v1"}, {"Tavgall", "Ti"}, {"TEall", "Te"}}
	speciesVars = []arrayVar{{"nsall", "ns"}, {"vs1all", "vs1"}, {"Tsall", "Ts"}}
)

// readArrayFrame reads a frame with the given flag from a file of named
// arrays.
func readArrayFrame(open func(string) (arrayFile, error), path string, lx [3]int, flag Flag, vars VarSet) (*Frame, error) {
	af, err := open(path)
	if err != nil {
		return nil, err
	}
	defer af.Close()

	f := newFrame(path, lx, flag)
	if t, err := arrayTime(af, path); err == nil {
		f.Time = t
	}
	shape := lxShape(lx)
	gridded := func(list []arrayVar) error {
		for _, v := range list {
			if !vars.Has(v.name) {
				continue
			}
			a, err := readGridArray(af, path, v.stored, shape...)
			if err != nil {
				return err
			}
			f.Vars[v.name] = a
		}
		return nil
	}
	switch flag {
	case FlagElectronDensity:
		a, err := readGridArray(af, path, "neall", shape...)
		if err != nil {
			return nil, err
		}
		f.Vars["ne"] = a
		return f, nil
	case FlagFull:
		for _, v := range speciesVars {
			a, err := readSpeciesArray(af, path, v.stored, lx)
			if err != nil {
				return nil, err
			}
			f.Species[v.name] = a
		}
	case FlagAverage:
		if err := gridded(averageVars); err != nil {
			return nil, err
		}
	}
	if err := gridded(currentVars); err != nil {
		return nil, err
	}
	if vars.Has("Phi") {
		a, err := readGridArray(af, path, "Phiall", lx[1], lx[2])
		if err != nil {
			return nil, err
		}
		f.Surface["Phi"] = a
	}
	return f, nil
}

// arrayFlag determines the output flag of a frame file from its contents.
func arrayFlag(open func(string) (arrayFile, error), path string, cfg Config) (Flag, error) {
	af, err := open(path)
	if err != nil {
		return 0, err
	}
	defer af.Close()
	if name, ok := firstOf(af, "flagoutput", "/flagoutput"); ok {
		v, err := readFlat(af, path, name)
		if err != nil {
			return 0, err
		}
		if len(v) > 0 {
			return ParseFlag(int(v[0]))
		}
	}
	return inBandFlag(af.has, cfg)
}

// arrayTime reads the time recorded in a frame file.
func arrayTime(af arrayFile, path string) (time.Time, error) {
	ymdName, ok1 := firstOf(af, "/time/ymd", "ymd")
	hourName, ok2 := firstOf(af, "/time/UThour", "UThour")
	if !ok1 || !ok2 {
		return time.Time{}, fmt.Errorf("gemini3d: %s has no time: %w", path, ErrNotFound)
	}
	ymd, err := readFlat(af, path, ymdName)
	if err != nil {
		return time.Time{}, err
	}
	hour, err := readFlat(af, path, hourName)
	if err != nil {
		return time.Time{}, err
	}
	if len(ymd) != 3 || len(hour) != 1 {
		return time.Time{}, fmt.Errorf("gemini3d: %s: malformed time %v %v: %w", path, ymd, hour, ErrShapeMismatch)
	}
	return dateTime(ymd, hour[0]), nil
}

// arrayLx reads the grid dimensions from a simsize or simgrid file.
func arrayLx(af arrayFile, path string) ([3]int, error) {
	m := make(map[string][]float64)
	for _, k := range []string{"lx1", "lx2", "lx3", "lxs", "lx"} {
		if !af.has(k) {
			continue
		}
		v, err := readFlat(af, path, k)
		if err != nil {
			return [3]int{}, err
		}
		m[k] = v
	}
	lx, err := LxFromKeys(m)
	if err != nil {
		return lx, fmt.Errorf("gemini3d: %s: %w", path, err)
	}
	return lx, nil
}

// readArrayGrid reads a grid of dimensions lx from a file of named arrays.
func readArrayGrid(af arrayFile, path string, lx [3]int) (*Grid, error) {
	var err error
	g := &Grid{Lx: lx, Filename: path, Vars: make(map[string]*sparse.DenseArray)}
	for i, x := range []*[]float64{&g.X1, &g.X2, &g.X3} {
		name := fmt.Sprintf("x%d", i+1)
		if !af.has(name) {
			continue
		}
		if *x, err = readFlat(af, path, name); err != nil {
			return nil, err
		}
	}
	shape := lxShape(lx)
	if g.Alt, err = readGridArray(af, path, "alt", shape...); err != nil {
		return nil, err
	}
	if g.Glat, err = readGridArray(af, path, "glat", shape...); err != nil {
		return nil, err
	}
	if g.Glon, err = readGridArray(af, path, "glon", shape...); err != nil {
		return nil, err
	}
	if af.has("h1") {
		vals, dims, err := af.read("h1")
		if err != nil {
			return nil, err
		}
		if g.H1, err = fromFortran(vals, reversed(dims)...); err != nil {
			return nil, err
		}
	}
	return g, g.check()
}
