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
	"math"
	"reflect"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// speciesFrame returns a FlagFull frame in which species s at cell p has
// density (s+1)*(p+1), velocity s+1 and temperature 100*(s+1).
func speciesFrame(lx [3]int, nsp int) *Frame {
	f := newFrame("test", lx, FlagFull)
	n := lx[0] * lx[1] * lx[2]
	ns := sparse.ZerosDense(nsp, lx[0], lx[1], lx[2])
	vs1 := sparse.ZerosDense(nsp, lx[0], lx[1], lx[2])
	Ts := sparse.ZerosDense(nsp, lx[0], lx[1], lx[2])
	for s := 0; s < nsp; s++ {
		for p := 0; p < n; p++ {
			ns.Elements[s*n+p] = float64((s + 1) * (p + 1))
			vs1.Elements[s*n+p] = float64(s + 1)
			Ts.Elements[s*n+p] = float64(100 * (s + 1))
		}
	}
	f.Species["ns"], f.Species["vs1"], f.Species["Ts"] = ns, vs1, Ts
	return f
}

func TestDerive(t *testing.T) {
	lx := [3]int{2, 3, 1}
	f := speciesFrame(lx, LSP)
	if err := Derive(f, NewVarSet("ne", "v1", "Ti", "Te")); err != nil {
		t.Fatal(err)
	}
	n := 6
	wantNe := make([]float64, n)
	wantV1 := make([]float64, n)
	wantTi := make([]float64, n)
	wantTe := make([]float64, n)
	for p := 0; p < n; p++ {
		ne := float64(LSP * (p + 1))
		var sv, st float64
		for s := 0; s < LSP-1; s++ {
			d := float64((s + 1) * (p + 1))
			sv += d * float64(s+1)
			st += d * float64(100*(s+1))
		}
		wantNe[p], wantV1[p], wantTi[p], wantTe[p] = ne, sv/ne, st/ne, float64(100*LSP)
	}
	approx := cmpopts.EquateApprox(1e-12, 0)
	for name, want := range map[string][]float64{"ne": wantNe, "v1": wantV1, "Ti": wantTi, "Te": wantTe} {
		a := f.Vars[name]
		if a == nil {
			t.Fatalf("%s missing", name)
		}
		if !reflect.DeepEqual(a.Shape, []int{2, 3, 1}) {
			t.Errorf("%s shape %v", name, a.Shape)
		}
		if diff := cmp.Diff(want, a.Elements, approx); diff != "" {
			t.Errorf("%s (-want +have):\n%s", name, diff)
		}
	}
}

func TestDeriveIdempotent(t *testing.T) {
	f := speciesFrame([3]int{3, 2, 2}, LSP)
	if err := Derive(f, NewVarSet("ne")); err != nil {
		t.Fatal(err)
	}
	first := f.Vars["ne"].Copy()
	delete(f.Vars, "ne")
	if err := Derive(f, NewVarSet("ne")); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Elements, f.Vars["ne"].Elements) {
		t.Error("electron density is not bit-identical between derivations")
	}
}

func TestDeriveKeepsExisting(t *testing.T) {
	f := speciesFrame([3]int{1, 1, 2}, LSP)
	ti := sparse.ZerosDense(1, 1, 2)
	ti.Elements[0] = -1
	f.Vars["Ti"] = ti
	if err := Derive(f, NewVarSet("Ti")); err != nil {
		t.Fatal(err)
	}
	if f.Vars["Ti"] != ti {
		t.Error("Derive replaced an existing variable")
	}
}

func TestDeriveExtraSpecies(t *testing.T) {
	f := speciesFrame([3]int{2, 2, 2}, LSP+1)
	err := Derive(f, NewVarSet("ne"))
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("want ErrShapeMismatch, got %v", err)
	}
	if _, ok := f.Vars["ne"]; ok {
		t.Error("ne was set from a bad species stack")
	}
}

func TestDerivePermutedSpecies(t *testing.T) {
	f := speciesFrame([3]int{2, 3, 4}, LSP)
	f.Species["ns"] = permute(f.Species["ns"], 0, 3, 2, 1)
	if err := Derive(f, NewVarSet("ne")); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("want ErrShapeMismatch, got %v", err)
	}
}

func TestDeriveJ1Shape(t *testing.T) {
	f := speciesFrame([3]int{2, 3, 4}, LSP)
	f.Vars["J1"] = sparse.ZerosDense(4, 3, 2)
	if err := Derive(f, NewVarSet("J1")); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("want ErrShapeMismatch, got %v", err)
	}
}

func TestDeriveZeroDensity(t *testing.T) {
	f := speciesFrame([3]int{1, 1, 1}, LSP)
	for i := range f.Species["ns"].Elements {
		f.Species["ns"].Elements[i] = 0
	}
	if err := Derive(f, NewVarSet("v1")); err != nil {
		t.Fatal(err)
	}
	if v := f.Vars["v1"].Elements[0]; !math.IsNaN(v) {
		t.Errorf("0/0 should propagate as NaN, got %g", v)
	}
}
