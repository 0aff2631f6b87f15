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

// product returns the number of elements in an array with the given shape.
func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// sameShape returns whether shape a equals b.
func sameShape(a []int, b ...int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func reversed(shape []int) []int {
	o := make([]int, len(shape))
	for i, s := range shape {
		o[len(shape)-1-i] = s
	}
	return o
}

// reverseAxes returns the axis permutation that reverses n dimensions.
func reverseAxes(n int) []int {
	o := make([]int, n)
	for i := range o {
		o[i] = n - 1 - i
	}
	return o
}

// dense wraps row-major vals in an array of the given shape.
func dense(vals []float64, shape ...int) (*sparse.DenseArray, error) {
	if len(vals) != product(shape) {
		return nil, fmt.Errorf("gemini3d: %d values cannot fill shape %v: %w", len(vals), shape, ErrShapeMismatch)
	}
	a := sparse.ZerosDense(append([]int(nil), shape...)...)
	copy(a.Elements, vals)
	return a, nil
}

// fromFortran returns a row-major array of the given shape holding vals,
// which are stored in column-major (Fortran) order.
func fromFortran(vals []float64, shape ...int) (*sparse.DenseArray, error) {
	a, err := dense(vals, reversed(shape)...)
	if err != nil {
		return nil, err
	}
	return permute(a, reverseAxes(len(shape))...), nil
}

// toFortran returns the elements of a in column-major order.
func toFortran(a *sparse.DenseArray) []float64 {
	return permute(a, reverseAxes(len(a.Shape))...).Elements
}

// permute reorders the axes of a so that axis i of the result is axis
// perm[i] of a.
func permute(a *sparse.DenseArray, perm ...int) *sparse.DenseArray {
	shape := make([]int, len(perm))
	for i, p := range perm {
		shape[i] = a.Shape[p]
	}
	strides := make([]int, len(a.Shape))
	s := 1
	for d := len(a.Shape) - 1; d >= 0; d-- {
		strides[d] = s
		s *= a.Shape[d]
	}
	out := sparse.ZerosDense(shape...)
	idx := make([]int, len(shape))
	for i := range out.Elements {
		off := 0
		for k, p := range perm {
			off += idx[k] * strides[p]
		}
		out.Elements[i] = a.Elements[off]
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out
}

// leading returns a copy of the sub-array of a at index i of its first axis.
func leading(a *sparse.DenseArray, i int) *sparse.DenseArray {
	shape := append([]int(nil), a.Shape[1:]...)
	n := product(shape)
	out := sparse.ZerosDense(shape...)
	copy(out.Elements, a.Elements[i*n:(i+1)*n])
	return out
}

func lxShape(lx [3]int) []int { return []int{lx[0], lx[1], lx[2]} }

func speciesShape(lx [3]int) []int { return []int{LSP, lx[0], lx[1], lx[2]} }
