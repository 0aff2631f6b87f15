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

	"github.com/ctessum/cdf"
)

func TestReadEfield(t *testing.T) {
	llon, llat := 3, 2
	exit := seq(1, llon, llat)

	t.Run("raw", func(t *testing.T) {
		dir := t.TempDir()
		writeBinary(t, filepath.Join(dir, "simsize.dat"), []int32{int32(llon), int32(llat)})
		path := filepath.Join(dir, "20130220_18000.000000.dat")
		writeBinary(t, path, []float64{1},
			toFortran(exit), seq(10, llon*llat).Elements, seq(20, llon*llat).Elements, seq(30, llon*llat).Elements,
			seq(0, llat).Elements, seq(0, llat).Elements, seq(0, llon).Elements, seq(0, llon).Elements)
		E, err := ReadEfield(path)
		if err != nil {
			t.Fatal(err)
		}
		if E.FlagDirich != 1 {
			t.Errorf("flagdirich %d", E.FlagDirich)
		}
		if !reflect.DeepEqual(E.Vars["Exit"].Elements, exit.Elements) {
			t.Errorf("Exit: have %v, want %v", E.Vars["Exit"].Elements, exit.Elements)
		}
		if len(E.Vars["Vminx2ist"].Elements) != llat || len(E.Vars["Vmaxx3ist"].Elements) != llon {
			t.Error("boundary lengths")
		}
	})

	t.Run("h5", func(t *testing.T) {
		dir := t.TempDir()
		writeH5(t, filepath.Join(dir, "simsize.h5"), map[string]interface{}{
			"llon": []int32{int32(llon)}, "llat": []int32{int32(llat)},
		})
		path := filepath.Join(dir, "20130220_18000.000000.h5")
		writeH5(t, path, map[string]interface{}{
			"flagdirich": []int32{0},
			"Exit":       toFortran(exit),
			"Eyit":       seq(0, 6).Elements,
			"Vminx1it":   seq(0, 6).Elements,
			"Vmaxx1it":   seq(0, 6).Elements,
			"Vminx2ist":  seq(0, llat).Elements,
		})
		E, err := ReadEfield(path)
		if err != nil {
			t.Fatal(err)
		}
		if E.FlagDirich != 0 {
			t.Errorf("flagdirich %d", E.FlagDirich)
		}
		if !reflect.DeepEqual(E.Vars["Exit"].Shape, []int{llon, llat}) {
			t.Errorf("Exit shape %v", E.Vars["Exit"].Shape)
		}
		if _, ok := E.Vars["Vmaxx2ist"]; ok {
			t.Error("absent boundary value was set")
		}
	})

	t.Run("mat", func(t *testing.T) {
		// No simsize file is needed to reject the format.
		path := filepath.Join(t.TempDir(), "20130220_18000.000000.mat")
		if _, err := ReadEfield(path); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("want ErrUnknownFormat, got %v", err)
		}
	})
}

func TestReadPrecip(t *testing.T) {
	dir := t.TempDir()
	writeH5(t, filepath.Join(dir, "simsize.h5"), map[string]interface{}{
		"llon": []int32{2}, "llat": []int32{2},
	})
	path := filepath.Join(dir, "20130220_18000.000000.h5")
	writeH5(t, path, map[string]interface{}{
		"Qp":  []float64{1, 2, 3, 4},
		"E0p": []float64{5e3, 5e3, 5e3, 5e3},
	})
	P, err := ReadPrecip(path)
	if err != nil {
		t.Fatal(err)
	}
	if v := P.Vars["Qp"].Get(1, 0); v != 2 {
		t.Errorf("Qp(1,0) = %g", v)
	}
	if _, err := ReadPrecip(filepath.Join(dir, "x.dat")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("want ErrUnknownFormat, got %v", err)
	}
}

func TestReadAurora(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "20130220_18000.000000.h5")
	writeH5(t, path, map[string]interface{}{"aurora/rayleighs": seq(0, 12).Elements})
	if _, err := ReadAurora(path); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("flattened map: want ErrShapeMismatch, got %v", err)
	}
	if _, err := ReadAurora(filepath.Join(dir, "missing.xyz")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("want ErrUnknownFormat, got %v", err)
	}

	// netCDF maps are stored as (x3, x2, wavelength).
	h := cdf.NewHeader([]string{"x3", "x2", "wavelength"}, []int{3, 2, 4})
	h.AddVariable("rayleighs", []string{"x3", "x2", "wavelength"}, []float64{0})
	h.Define()
	nc := filepath.Join(dir, "20130220_18000.000000.nc")
	w, err := os.Create(nc)
	if err != nil {
		t.Fatal(err)
	}
	cf, err := cdf.Create(w, h)
	if err != nil {
		t.Fatal(err)
	}
	if err := writeNCF(cf, "rayleighs", seq(0, 24).Elements); err != nil {
		t.Fatal(err)
	}
	w.Close()
	A, err := ReadAurora(nc)
	if err != nil {
		t.Fatal(err)
	}
	r := A.Vars["rayleighs"]
	if !reflect.DeepEqual(r.Shape, []int{4, 2, 3}) {
		t.Fatalf("shape %v", r.Shape)
	}
	// Stored index (k, j, l) holds 8k + 4j + l.
	if v := r.Get(3, 1, 2); v != 8*2+4*1+3 {
		t.Errorf("rayleighs(3,1,2) = %g", v)
	}
}

func TestReadAuroraRaw(t *testing.T) {
	sim := t.TempDir()
	writeRawSimSize(t, sim, [3]int{4, 2, 3})
	dir := filepath.Join(sim, "output", "aurmaps")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	// 5 wavelengths of (lx2, lx3) maps in column-major order.
	path := filepath.Join(dir, "20130220_18000.000000.dat")
	writeBinary(t, path, seq(0, 2*3*5).Elements)
	A, err := ReadAurora(path)
	if err != nil {
		t.Fatal(err)
	}
	r := A.Vars["rayleighs"]
	if !reflect.DeepEqual(r.Shape, []int{5, 2, 3}) {
		t.Fatalf("shape %v", r.Shape)
	}
	// Stored index (j, k, l) holds j + 2k + 6l.
	if v := r.Get(4, 1, 2); v != 1+2*2+6*4 {
		t.Errorf("rayleighs(4,1,2) = %g", v)
	}

	short := filepath.Join(dir, "20130220_18060.000000.dat")
	writeBinary(t, short, seq(0, 7).Elements)
	if _, err := ReadAurora(short); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("partial map: want ErrShapeMismatch, got %v", err)
	}
	if _, err := ReadAurora(filepath.Join(t.TempDir(), "x.dat")); !errors.Is(err, ErrNotFound) {
		t.Errorf("no simsize: want ErrNotFound, got %v", err)
	}
}
