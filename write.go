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
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

var varUnits = map[string]string{
	"ne": "m-3", "ns": "m-3",
	"Ti": "K", "Te": "K", "Ts": "K",
	"v1": "m/s", "v2": "m/s", "v3": "m/s", "vs1": "m/s",
	"J1": "A/m2", "J2": "A/m2", "J3": "A/m2",
	"Phi": "V",
}

// storedName returns the name under which frame variable name is stored
// in HDF5 and netCDF files.
func storedName(name string) string {
	for _, list := range [][]arrayVar{currentVars, averageVars, speciesVars, {{"Phiall", "Phi"}}} {
		for _, v := range list {
			if v.name == name {
				return v.stored
			}
		}
	}
	return name
}

// storedFlag returns the output flag that describes the variables
// held by f.
func (f *Frame) storedFlag() Flag {
	if f.Flag != FlagFull {
		return f.Flag
	}
	for _, v := range speciesVars {
		if _, ok := f.Species[v.name]; !ok {
			return FlagAverage
		}
	}
	return FlagFull
}

type ncVar struct {
	name, units string
	dims        []string
	data        []float64
}

// WriteNetCDF writes f to w as a netCDF file laid out the way GEMINI
// writes its output, so that it can be read back with ReadData.
func (f *Frame) WriteNetCDF(w *os.File) error {
	var vars []ncVar
	for _, name := range sortedKeys(f.Vars) {
		vars = append(vars, ncVar{storedName(name), varUnits[name], []string{"x3", "x2", "x1"}, toFortran(f.Vars[name])})
	}
	for _, name := range sortedKeys(f.Species) {
		vars = append(vars, ncVar{storedName(name), varUnits[name], []string{"species", "x3", "x2", "x1"},
			permute(f.Species[name], 0, 3, 2, 1).Elements})
	}
	for _, name := range sortedKeys(f.Surface) {
		vars = append(vars, ncVar{storedName(name), varUnits[name], []string{"x3", "x2"}, toFortran(f.Surface[name])})
	}

	h := cdf.NewHeader(
		[]string{"x1", "x2", "x3", "species", "ymd", "scalar"},
		[]int{f.Lx[0], f.Lx[1], f.Lx[2], LSP, 3, 1})
	h.AddAttribute("", "comment", "GEMINI simulation output frame")
	h.AddVariable("flagoutput", []string{"scalar"}, []int32{0})
	h.AddVariable("ymd", []string{"ymd"}, []int32{0})
	h.AddVariable("UThour", []string{"scalar"}, []float64{0})
	for _, v := range vars {
		h.AddVariable(v.name, v.dims, []float64{0})
		if v.units != "" {
			h.AddAttribute(v.name, "units", v.units)
		}
	}
	h.Define()

	cf, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return fmt.Errorf("gemini3d: creating netCDF file: %v", err)
	}
	t := f.Time.UTC()
	uthour := float64(t.Hour()) + float64(t.Minute())/60 + (float64(t.Second())+float64(t.Nanosecond())/1e9)/3600
	if err := writeNCF(cf, "flagoutput", []int32{int32(f.storedFlag())}); err != nil {
		return err
	}
	if err := writeNCF(cf, "ymd", []int32{int32(t.Year()), int32(t.Month()), int32(t.Day())}); err != nil {
		return err
	}
	if err := writeNCF(cf, "UThour", []float64{uthour}); err != nil {
		return err
	}
	for _, v := range vars {
		if err := writeNCF(cf, v.name, v.data); err != nil {
			return err
		}
	}
	return cdf.UpdateNumRecs(w)
}

func writeNCF(f *cdf.File, name string, data interface{}) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("gemini3d: writing variable %s to netCDF file: %v", name, err)
	}
	return nil
}

func sortedKeys(m map[string]*sparse.DenseArray) []string {
	o := make([]string, 0, len(m))
	for n := range m {
		o = append(o, n)
	}
	sort.Strings(o)
	return o
}
