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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"time"

	"github.com/ctessum/sparse"
)

// Raw files are unformatted little-endian Fortran output: a frame file is
// a header of four float64 values (year, month, day, UT hour) followed by
// float64 arrays in column-major order.

type rawReader struct {
	f    *os.File
	r    *bufio.Reader
	path string
}

func openRaw(path string) (*rawReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gemini3d: opening raw file: %w", err)
	}
	return &rawReader{f: f, r: bufio.NewReader(f), path: path}, nil
}

func (r *rawReader) Close() error { return r.f.Close() }

func (r *rawReader) float64s(name string, n int) ([]float64, error) {
	v := make([]float64, n)
	if err := binary.Read(r.r, binary.LittleEndian, v); err != nil {
		return nil, fmt.Errorf("gemini3d: %s: reading %s: %v: %w", r.path, name, err, ErrShapeMismatch)
	}
	return v, nil
}

// array reads a Fortran-ordered array with the given shape.
func (r *rawReader) array(name string, shape ...int) (*sparse.DenseArray, error) {
	v, err := r.float64s(name, product(shape))
	if err != nil {
		return nil, err
	}
	return fromFortran(v, shape...)
}

func (r *rawReader) time() (time.Time, error) {
	h, err := r.float64s("time header", 4)
	if err != nil {
		return time.Time{}, err
	}
	return dateTime(h[:3], h[3]), nil
}

func rawTime(path string) (time.Time, error) {
	r, err := openRaw(path)
	if err != nil {
		return time.Time{}, err
	}
	defer r.Close()
	return r.time()
}

// readRawSimSize reads a simsize.dat file: three int32 values.
func readRawSimSize(path string) ([3]int, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return [3]int{}, fmt.Errorf("gemini3d: reading simsize: %w", err)
	}
	if len(b) != 12 {
		return [3]int{}, fmt.Errorf("gemini3d: %s has %d bytes, want 12: %w", path, len(b), ErrShapeMismatch)
	}
	var lx [3]int
	for i := range lx {
		lx[i] = int(int32(binary.LittleEndian.Uint32(b[4*i:])))
	}
	return lx, checkLx(lx)
}

// readRawGrid reads a simgrid.dat file for a grid of dimensions lx.
// For each axis i the file holds the cell centers x_i (lx_i+4 values, with
// ghost cells), the interface locations x_ii (lx_i+1), the backward
// differences dx_ib (lx_i+3) and the cell widths dx_ih (lx_i). These are
// followed by the metric coefficients h1, h2 and h3 (lx+4 in every
// dimension) and then alt, glat and glon.
func readRawGrid(path string, lx [3]int) (*Grid, error) {
	r, err := openRaw(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	g := &Grid{Lx: lx, Filename: path, Vars: make(map[string]*sparse.DenseArray)}
	for i, x := range []*[]float64{&g.X1, &g.X2, &g.X3} {
		n := lx[i]
		if *x, err = r.float64s(fmt.Sprintf("x%d", i+1), n+4); err != nil {
			return nil, err
		}
		for _, v := range []struct {
			name string
			n    int
		}{{"x%di", n + 1}, {"dx%db", n + 3}, {"dx%dh", n}} {
			name := fmt.Sprintf(v.name, i+1)
			a, err := r.array(name, v.n)
			if err != nil {
				return nil, err
			}
			g.Vars[name] = a
		}
	}
	ghost := []int{lx[0] + 4, lx[1] + 4, lx[2] + 4}
	if g.H1, err = r.array("h1", ghost...); err != nil {
		return nil, err
	}
	for _, name := range []string{"h2", "h3"} {
		if g.Vars[name], err = r.array(name, ghost...); err != nil {
			return nil, err
		}
	}
	shape := lxShape(lx)
	if g.Alt, err = r.array("alt", shape...); err != nil {
		return nil, err
	}
	if g.Glat, err = r.array("glat", shape...); err != nil {
		return nil, err
	}
	if g.Glon, err = r.array("glon", shape...); err != nil {
		return nil, err
	}
	return g, g.check()
}

// readRawFrame reads a raw frame file. All variables in the file are read,
// since the layout is positional.
func readRawFrame(path string, lx [3]int, flag Flag) (*Frame, error) {
	r, err := openRaw(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	f := newFrame(path, lx, flag)
	if f.Time, err = r.time(); err != nil {
		return nil, err
	}
	shape := lxShape(lx)
	gridded := func(names ...string) error {
		for _, name := range names {
			a, err := r.array(name, shape...)
			if err != nil {
				return err
			}
			f.Vars[name] = a
		}
		return nil
	}
	switch flag {
	case FlagElectronDensity:
		return f, gridded("ne")
	case FlagFull:
		for _, name := range []string{"ns", "vs1", "Ts"} {
			a, err := r.array(name, lx[0], lx[1], lx[2], LSP)
			if err != nil {
				return nil, err
			}
			f.Species[name] = permute(a, 3, 0, 1, 2)
		}
	case FlagAverage:
		if err := gridded("ne", "v1", "Ti", "Te"); err != nil {
			return nil, err
		}
	}
	if err := gridded("J1", "J2", "J3", "v2", "v3"); err != nil {
		return nil, err
	}
	if f.Surface["Phi"], err = r.array("Phitop", lx[1], lx[2]); err != nil {
		return nil, err
	}
	if n, _ := io.CopyN(ioutil.Discard, r.r, 1); n != 0 {
		return nil, fmt.Errorf("gemini3d: %s is longer than expected for grid %v and flagoutput %d: %w", path, lx, flag, ErrShapeMismatch)
	}
	return f, nil
}

func readRawNe(path string, lx [3]int, _ VarSet) (*Frame, error) {
	return readRawFrame(path, lx, FlagElectronDensity)
}

func readRawFull(path string, lx [3]int, _ VarSet) (*Frame, error) {
	return readRawFrame(path, lx, FlagFull)
}

func readRawAvg(path string, lx [3]int, _ VarSet) (*Frame, error) {
	return readRawFrame(path, lx, FlagAverage)
}
