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
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/ctessum/cdf"
)

var (
	cdfMagic  = []byte("CDF")
	hdf5Magic = []byte("\x89HDF")
)

// openNC opens a netCDF file. Classic (CDF) files are read with the cdf
// package, and netCDF-4 (HDF5-based) files with go-native-netcdf.
func openNC(path string) (arrayFile, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gemini3d: opening netCDF file: %w", err)
	}
	magic := make([]byte, 4)
	if _, err := io.ReadFull(fh, magic); err != nil {
		fh.Close()
		return nil, fmt.Errorf("gemini3d: reading netCDF file %s: %v: %w", path, err, ErrUnknownFormat)
	}
	switch {
	case bytes.HasPrefix(magic, cdfMagic):
		f, err := cdf.Open(fh)
		if err != nil {
			fh.Close()
			return nil, fmt.Errorf("gemini3d: opening netCDF file %s: %v", path, err)
		}
		vars := make(map[string]bool)
		for _, v := range f.Header.Variables() {
			vars[v] = true
		}
		return &cdfFile{fh: fh, f: f, vars: vars, path: path}, nil
	case bytes.Equal(magic, hdf5Magic):
		fh.Close()
		g, err := netcdf.Open(path)
		if err != nil {
			return nil, fmt.Errorf("gemini3d: opening netCDF-4 file %s: %v", path, err)
		}
		vars := make(map[string]bool)
		for _, v := range g.ListVariables() {
			vars[v] = true
		}
		return &nc4File{g: g, vars: vars, path: path}, nil
	}
	fh.Close()
	return nil, fmt.Errorf("gemini3d: %s is not a netCDF file: %w", path, ErrUnknownFormat)
}

// cdfFile is a netCDF classic format file.
type cdfFile struct {
	fh   *os.File
	f    *cdf.File
	vars map[string]bool
	path string
}

func (c *cdfFile) has(name string) bool { return c.vars[name] }

func (c *cdfFile) read(name string) ([]float64, []int, error) {
	if !c.vars[name] {
		return nil, nil, fmt.Errorf("gemini3d: %s: variable %s: %w", c.path, name, ErrNotFound)
	}
	dims := append([]int(nil), c.f.Header.Lengths(name)...)
	if c.f.Header.IsRecordVariable(name) {
		fi, err := c.fh.Stat()
		if err != nil {
			return nil, nil, err
		}
		dims[0] = int(c.f.Header.NumRecs(fi.Size()))
	}
	r := c.f.Reader(name, nil, nil)
	buf := r.Zero(product(dims))
	if _, err := r.Read(buf); err != nil {
		return nil, nil, fmt.Errorf("gemini3d: %s: reading %s: %v", c.path, name, err)
	}
	vals, err := toFloat64s(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("gemini3d: %s: %s: %v", c.path, name, err)
	}
	return vals, dims, nil
}

func (c *cdfFile) Close() error { return c.fh.Close() }

// nc4File is a netCDF-4 file.
type nc4File struct {
	g    api.Group
	vars map[string]bool
	path string
}

func (n *nc4File) has(name string) bool { return n.vars[name] }

func (n *nc4File) read(name string) ([]float64, []int, error) {
	if !n.vars[name] {
		return nil, nil, fmt.Errorf("gemini3d: %s: variable %s: %w", n.path, name, ErrNotFound)
	}
	v, err := n.g.GetVariable(name)
	if err != nil {
		return nil, nil, fmt.Errorf("gemini3d: %s: reading %s: %v", n.path, name, err)
	}
	vals, dims, err := flatten(v.Values)
	if err != nil {
		return nil, nil, fmt.Errorf("gemini3d: %s: %s: %v", n.path, name, err)
	}
	return vals, dims, nil
}

func (n *nc4File) Close() error {
	n.g.Close()
	return nil
}

// toFloat64s converts a slice of numbers to float64.
func toFloat64s(buf interface{}) ([]float64, error) {
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	}
	v := reflect.ValueOf(buf)
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("unsupported data type %T", buf)
	}
	o := make([]float64, v.Len())
	for i := range o {
		f, ok := number(v.Index(i))
		if !ok {
			return nil, fmt.Errorf("unsupported data type %T", buf)
		}
		o[i] = f
	}
	return o, nil
}

func number(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	}
	return 0, false
}

// flatten converts a scalar or nested slice of numbers to a row-major
// list of values and its dimensions.
func flatten(x interface{}) ([]float64, []int, error) {
	v := reflect.ValueOf(x)
	var dims []int
	for t := v; t.Kind() == reflect.Slice; {
		dims = append(dims, t.Len())
		if t.Len() == 0 {
			break
		}
		t = t.Index(0)
	}
	vals := make([]float64, 0, product(dims))
	var walk func(v reflect.Value, depth int) error
	walk = func(v reflect.Value, depth int) error {
		if v.Kind() != reflect.Slice {
			f, ok := number(v)
			if !ok {
				return fmt.Errorf("unsupported data type %s", v.Type())
			}
			vals = append(vals, f)
			return nil
		}
		if depth >= len(dims) || v.Len() != dims[depth] {
			return fmt.Errorf("ragged array")
		}
		for i := 0; i < v.Len(); i++ {
			if err := walk(v.Index(i), depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(v, 0); err != nil {
		return nil, nil, err
	}
	return vals, dims, nil
}

func readNCNe(path string, lx [3]int, vars VarSet) (*Frame, error) {
	return readArrayFrame(openNC, path, lx, FlagElectronDensity, vars)
}

func readNCFull(path string, lx [3]int, vars VarSet) (*Frame, error) {
	return readArrayFrame(openNC, path, lx, FlagFull, vars)
}

func readNCAvg(path string, lx [3]int, vars VarSet) (*Frame, error) {
	return readArrayFrame(openNC, path, lx, FlagAverage, vars)
}

func ncFlag(path string, cfg Config) (Flag, error) { return arrayFlag(openNC, path, cfg) }
