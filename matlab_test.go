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
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeMatGrid(t *testing.T, dir string, compress bool) {
	t.Helper()
	m := newMatWriter(compress)
	m.add("lx", []float64{2, 3, 1}, 1, 3)
	m.add("x1", []float64{-1, 0, 1, 2, 3, 4}, 6, 1)
	// MATLAB drops the trailing singleton dimension.
	m.add("alt", seq(1e5, 6).Elements, 2, 3)
	m.add("glat", seq(40, 6).Elements, 2, 3)
	m.add("glon", seq(250, 6).Elements, 2, 3)
	m.save(t, filepath.Join(dir, "simgrid.mat"))
}

func TestReadGridMat(t *testing.T) {
	grids := make([]*Grid, 2)
	for i, compress := range []bool{false, true} {
		dir := t.TempDir()
		writeMatGrid(t, dir, compress)
		g, err := ReadGrid(dir)
		if err != nil {
			t.Fatalf("compress=%v: %v", compress, err)
		}
		grids[i] = g
	}
	for _, g := range grids {
		if g.Lx != [3]int{2, 3, 1} {
			t.Errorf("lx %v", g.Lx)
		}
		// Column-major (2,3): alt(i,j) = 1e5 + i + 2j.
		if v := g.Alt.Get(1, 2, 0); v != 1e5+5 {
			t.Errorf("alt(1,2,0) = %g", v)
		}
		if v := g.Glat.Get(0, 1, 0); v != 42 {
			t.Errorf("glat(0,1,0) = %g", v)
		}
	}
	a, b := grids[0], grids[1]
	if !reflect.DeepEqual(a.Alt.Elements, b.Alt.Elements) || !reflect.DeepEqual(a.X1, b.X1) ||
		!reflect.DeepEqual(a.Glon.Elements, b.Glon.Elements) {
		t.Error("compressed and uncompressed files differ")
	}
}

func TestOpenMatInvalid(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string][]byte{
		"short.mat":  []byte("MATLAB"),
		"header.mat": make([]byte, matHeaderSize),
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, content, 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := openMat(path); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("%s: want ErrUnknownFormat, got %v", name, err)
		}
	}
}

func TestMatMissingVariable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.mat")
	m := newMatWriter(false)
	m.add("a", []float64{1}, 1, 1)
	m.save(t, path)
	af, err := openMat(path)
	if err != nil {
		t.Fatal(err)
	}
	defer af.Close()
	if !af.has("a") || af.has("b") {
		t.Error("has")
	}
	if _, _, err := af.read("b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}
