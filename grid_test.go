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
	"testing"

	"github.com/ctessum/sparse"
)

func TestLxFromKeys(t *testing.T) {
	tests := []struct {
		name string
		m    map[string][]float64
		want [3]int
	}{
		{name: "lx", m: map[string][]float64{"lx": {4, 2, 3}}, want: [3]int{4, 2, 3}},
		{name: "lxs", m: map[string][]float64{"lxs": {5, 1, 6}}, want: [3]int{5, 1, 6}},
		{name: "scalars", m: map[string][]float64{"lx1": {7}, "lx2": {8}, "lx3": {9}, "lx": {1, 1, 1}}, want: [3]int{7, 8, 9}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			have, err := LxFromKeys(test.m)
			if err != nil {
				t.Fatal(err)
			}
			if have != test.want {
				t.Errorf("have %v, want %v", have, test.want)
			}
		})
	}
	t.Run("missing", func(t *testing.T) {
		if _, err := LxFromKeys(map[string][]float64{"lx1": {1}}); !errors.Is(err, ErrNotFound) {
			t.Errorf("want ErrNotFound, got %v", err)
		}
	})
	t.Run("nonpositive", func(t *testing.T) {
		if _, err := LxFromKeys(map[string][]float64{"lx": {1, 0, 3}}); !errors.Is(err, ErrShapeMismatch) {
			t.Errorf("want ErrShapeMismatch, got %v", err)
		}
	})
}

func TestGeometry(t *testing.T) {
	g := &Grid{Lx: [3]int{2, 3, 1}}
	if g.Geometry() != Cartesian {
		t.Error("no h1 should be cartesian")
	}
	h1 := sparse.ZerosDense(2, 3, 1)
	for i := range h1.Elements {
		h1.Elements[i] = 1 + 1e-5
	}
	g.H1 = h1
	if g.Geometry() != Cartesian {
		t.Error("h1 within tolerance should be cartesian")
	}
	h1.Elements[4] = 0.9
	if g.Geometry() != Curvilinear {
		t.Error("h1 of 0.9 should be curvilinear")
	}
	if g.Is3D() {
		t.Error("lx3 == 1 is not 3D")
	}
	if g.NumPoints() != 6 {
		t.Errorf("NumPoints = %d", g.NumPoints())
	}
}
