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
	"fmt"

	"github.com/robert-malhotra/go-hdf5/hdf5"
)

type h5File struct {
	f    *hdf5.File
	path string
}

func openH5(path string) (arrayFile, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gemini3d: opening HDF5 file %s: %w", path, err)
	}
	return &h5File{f: f, path: path}, nil
}

func (h *h5File) has(name string) bool {
	_, err := h.f.OpenDataset(name)
	return err == nil
}

func (h *h5File) read(name string) ([]float64, []int, error) {
	ds, err := h.f.OpenDataset(name)
	if errors.Is(err, hdf5.ErrNotFound) {
		return nil, nil, fmt.Errorf("gemini3d: %s: dataset %s: %w", h.path, name, ErrNotFound)
	} else if err != nil {
		return nil, nil, fmt.Errorf("gemini3d: %s: dataset %s: %v", h.path, name, err)
	}
	vals, err := ds.ReadFloat64()
	if err != nil {
		return nil, nil, fmt.Errorf("gemini3d: %s: reading %s: %v", h.path, name, err)
	}
	var dims []int
	for _, d := range ds.Dims() {
		dims = append(dims, int(d))
	}
	return vals, dims, nil
}

func (h *h5File) Close() error { return h.f.Close() }

func readH5Ne(path string, lx [3]int, vars VarSet) (*Frame, error) {
	return readArrayFrame(openH5, path, lx, FlagElectronDensity, vars)
}

func readH5Full(path string, lx [3]int, vars VarSet) (*Frame, error) {
	return readArrayFrame(openH5, path, lx, FlagFull, vars)
}

func readH5Avg(path string, lx [3]int, vars VarSet) (*Frame, error) {
	return readArrayFrame(openH5, path, lx, FlagAverage, vars)
}

func h5Flag(path string, cfg Config) (Flag, error) { return arrayFlag(openH5, path, cfg) }
