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
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ctessum/sparse"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/klauspost/compress/zlib"
	"github.com/robert-malhotra/go-hdf5/hdf5"
)

// Test fixtures. Each writer lays out a file the way GEMINI does.

var fixtureTime = time.Date(2013, 2, 20, 5, 0, 0, 0, time.UTC)

// seq returns an array of the given shape holding start, start+1, ...
func seq(start float64, shape ...int) *sparse.DenseArray {
	a := sparse.ZerosDense(shape...)
	for i := range a.Elements {
		a.Elements[i] = start + float64(i)
	}
	return a
}

// fixtureFrame returns a frame holding every variable stored in frame
// files with output flag flag.
func fixtureFrame(lx [3]int, flag Flag) *Frame {
	f := newFrame("", lx, flag)
	f.Time = fixtureTime
	shape := lxShape(lx)
	switch flag {
	case FlagElectronDensity:
		f.Vars["ne"] = seq(1e10, shape...)
		return f
	case FlagFull:
		f.Species["ns"] = seq(1e9, speciesShape(lx)...)
		f.Species["vs1"] = seq(-20, speciesShape(lx)...)
		f.Species["Ts"] = seq(300, speciesShape(lx)...)
	case FlagAverage:
		f.Vars["ne"] = seq(1e10, shape...)
		f.Vars["v1"] = seq(-5, shape...)
		f.Vars["Ti"] = seq(800, shape...)
		f.Vars["Te"] = seq(1200, shape...)
	}
	for i, name := range []string{"J1", "J2", "J3", "v2", "v3"} {
		f.Vars[name] = seq(float64(10*i), shape...)
	}
	f.Surface["Phi"] = seq(-100, lx[1], lx[2])
	return f
}

// expectedFrame returns what ReadData should return for fixture frame f
// when vars are requested.
func expectedFrame(t *testing.T, f *Frame, vars VarSet) *Frame {
	t.Helper()
	e := newFrame(f.Filename, f.Lx, f.Flag)
	e.Time = f.Time
	for name, a := range f.Vars {
		e.Vars[name] = a.Copy()
	}
	for name, a := range f.Species {
		e.Species[name] = a.Copy()
	}
	for name, a := range f.Surface {
		e.Surface[name] = a.Copy()
	}
	if f.Flag == FlagFull {
		if err := Derive(e, vars); err != nil {
			t.Fatal(err)
		}
	}
	e.keep(vars)
	return e
}

// compareFrames reports differences between the variables and times of
// two frames.
func compareFrames(t *testing.T, want, have *Frame) {
	t.Helper()
	if !want.Time.Equal(have.Time) {
		t.Errorf("time: want %v, have %v", want.Time, have.Time)
	}
	if !reflect.DeepEqual(want.Names(), have.Names()) {
		t.Fatalf("variables: want %v, have %v", want.Names(), have.Names())
	}
	approx := cmpopts.EquateApprox(1e-12, 0)
	for _, m := range []struct{ want, have map[string]*sparse.DenseArray }{
		{want.Vars, have.Vars}, {want.Species, have.Species}, {want.Surface, have.Surface},
	} {
		for name, w := range m.want {
			h, ok := m.have[name]
			if !ok {
				t.Errorf("%s missing", name)
				continue
			}
			if !reflect.DeepEqual(w.Shape, h.Shape) {
				t.Errorf("%s: shape want %v, have %v", name, w.Shape, h.Shape)
				continue
			}
			if diff := cmp.Diff(w.Elements, h.Elements, approx); diff != "" {
				t.Errorf("%s (-want +have):\n%s", name, diff)
			}
		}
	}
}

// writeBinary writes data to path as little-endian binary.
func writeBinary(t *testing.T, path string, data ...interface{}) {
	t.Helper()
	var b bytes.Buffer
	for _, d := range data {
		if err := binary.Write(&b, binary.LittleEndian, d); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(path, b.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeRawSimSize(t *testing.T, dir string, lx [3]int) {
	t.Helper()
	writeBinary(t, filepath.Join(dir, "simsize.dat"), []int32{int32(lx[0]), int32(lx[1]), int32(lx[2])})
}

func rawHeader(tm time.Time) []float64 {
	return []float64{float64(tm.Year()), float64(tm.Month()), float64(tm.Day()),
		float64(tm.Hour()) + float64(tm.Minute())/60 + float64(tm.Second())/3600}
}

func writeRawFrame(t *testing.T, path string, f *Frame) {
	t.Helper()
	data := []interface{}{rawHeader(f.Time)}
	gridded := func(names ...string) {
		for _, n := range names {
			data = append(data, toFortran(f.Vars[n]))
		}
	}
	switch f.Flag {
	case FlagElectronDensity:
		gridded("ne")
	case FlagFull:
		for _, n := range []string{"ns", "vs1", "Ts"} {
			data = append(data, toFortran(permute(f.Species[n], 1, 2, 3, 0)))
		}
	case FlagAverage:
		gridded("ne", "v1", "Ti", "Te")
	}
	if f.Flag != FlagElectronDensity {
		gridded("J1", "J2", "J3", "v2", "v3")
		data = append(data, toFortran(f.Surface["Phi"]))
	}
	writeBinary(t, path, data...)
}

// writeRawGrid writes a Cartesian raw grid with lx cells and returns the
// grid it holds.
func writeRawGrid(t *testing.T, dir string, lx [3]int) *Grid {
	t.Helper()
	g := &Grid{Lx: lx, Vars: make(map[string]*sparse.DenseArray)}
	var data []interface{}
	for i, x := range []*[]float64{&g.X1, &g.X2, &g.X3} {
		n := lx[i]
		*x = seq(-2, n+4).Elements
		data = append(data, *x, seq(0, n+1).Elements, seq(1, n+3).Elements, seq(1, n).Elements)
	}
	ghost := []int{lx[0] + 4, lx[1] + 4, lx[2] + 4}
	g.H1 = sparse.ZerosDense(ghost...)
	for i := range g.H1.Elements {
		g.H1.Elements[i] = 1
	}
	data = append(data, toFortran(g.H1), toFortran(g.H1), toFortran(g.H1))
	g.Alt = seq(80e3, lxShape(lx)...)
	g.Glat = seq(60, lxShape(lx)...)
	g.Glon = seq(200, lxShape(lx)...)
	data = append(data, toFortran(g.Alt), toFortran(g.Glat), toFortran(g.Glon))
	writeRawSimSize(t, dir, lx)
	writeBinary(t, filepath.Join(dir, "simgrid.dat"), data...)
	return g
}

// writeH5 writes rank-1 datasets to an HDF5 file. Names containing a
// slash are written into the group before it.
func writeH5(t *testing.T, path string, datasets map[string]interface{}) {
	t.Helper()
	f, err := hdf5.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	groups := map[string]*hdf5.Group{"": f.Root()}
	for name, data := range datasets {
		dir, base := filepath.Split(name)
		dir = filepath.Clean("/" + dir)[1:]
		g, ok := groups[dir]
		if !ok {
			if g, err = f.Root().CreateGroup(dir); err != nil {
				t.Fatal(err)
			}
			groups[dir] = g
		}
		if _, err := g.CreateDataset(base, data); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeH5Frame(t *testing.T, path string, f *Frame) {
	t.Helper()
	d := map[string]interface{}{
		"time/ymd":    []int32{int32(f.Time.Year()), int32(f.Time.Month()), int32(f.Time.Day())},
		"time/UThour": rawHeader(f.Time)[3:],
	}
	for name, a := range f.Vars {
		d[storedName(name)] = toFortran(a)
	}
	for name, a := range f.Species {
		d[storedName(name)] = permute(a, 0, 3, 2, 1).Elements
	}
	for name, a := range f.Surface {
		d[storedName(name)] = toFortran(a)
	}
	writeH5(t, path, d)
}

func writeNCFrame(t *testing.T, path string, f *Frame) {
	t.Helper()
	w, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := f.WriteNetCDF(w); err != nil {
		t.Fatal(err)
	}
}

// matWriter builds a little-endian level 5 MAT-file.
type matWriter struct {
	bytes.Buffer
	compress bool
}

func newMatWriter(compress bool) *matWriter {
	m := &matWriter{compress: compress}
	hdr := make([]byte, matHeaderSize)
	copy(hdr, "MATLAB 5.0 MAT-file, written by gemini3d tests")
	for i := 46; i < 124; i++ {
		hdr[i] = ' '
	}
	binary.LittleEndian.PutUint16(hdr[124:], 0x0100)
	copy(hdr[126:], "IM")
	m.Write(hdr)
	return m
}

func tag(b *bytes.Buffer, typ uint32, data []byte) {
	if n := len(data); n > 0 && n <= 4 {
		binary.Write(b, binary.LittleEndian, uint32(n)<<16|typ)
		pad := make([]byte, 4)
		copy(pad, data)
		b.Write(pad)
		return
	}
	binary.Write(b, binary.LittleEndian, []uint32{typ, uint32(len(data))})
	b.Write(data)
	if r := len(data) % 8; r != 0 {
		b.Write(make([]byte, 8-r))
	}
}

// add writes a double matrix with MATLAB dimensions dims holding the
// column-major values vals.
func (m *matWriter) add(name string, vals []float64, dims ...int) {
	var body bytes.Buffer
	flags := make([]byte, 8)
	binary.LittleEndian.PutUint32(flags, mxDoubleClass)
	tag(&body, miUINT32, flags)
	d := make([]byte, 4*len(dims))
	for i, v := range dims {
		binary.LittleEndian.PutUint32(d[4*i:], uint32(v))
	}
	tag(&body, miINT32, d)
	tag(&body, miINT8, []byte(name))
	re := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(re[8*i:], math.Float64bits(v))
	}
	tag(&body, miDOUBLE, re)

	var el bytes.Buffer
	tag(&el, miMATRIX, body.Bytes())
	if !m.compress {
		m.Write(el.Bytes())
		return
	}
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	zw.Write(el.Bytes())
	zw.Close()
	binary.Write(&m.Buffer, binary.LittleEndian, []uint32{miCOMPRESSED, uint32(z.Len())})
	m.Write(z.Bytes())
}

func (m *matWriter) save(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, m.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}
