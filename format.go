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
	"path/filepath"
	"strings"
)

// Format is an on-disk storage format.
type Format int

// The storage formats, in the order they are searched for.
const (
	HDF5 Format = iota
	NetCDF
	Raw
	Matlab
	numFormats
)

var formatSuffixes = [numFormats]string{
	HDF5:   ".h5",
	NetCDF: ".nc",
	Raw:    ".dat",
	Matlab: ".mat",
}

// Suffix returns the file name suffix of f, including the dot.
func (f Format) Suffix() string {
	if f < 0 || f >= numFormats {
		return ""
	}
	return formatSuffixes[f]
}

func (f Format) String() string { return strings.TrimPrefix(f.Suffix(), ".") }

// ParseFormat interprets a file_format setting or file suffix.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "h5", "hdf5":
		return HDF5, nil
	case "nc", "nc4", "netcdf":
		return NetCDF, nil
	case "dat", "raw":
		return Raw, nil
	case "mat", "matlab":
		return Matlab, nil
	}
	return 0, fmt.Errorf("gemini3d: unknown file type %q: %w", s, ErrUnknownFormat)
}

// FormatOf returns the storage format of path according to its suffix.
func FormatOf(path string) (Format, error) {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return 0, fmt.Errorf("gemini3d: unknown file type %s: %w", path, ErrUnknownFormat)
	}
	return f, nil
}

// Flag is the output-format flag (flagoutput) of a simulation, which
// selects the variables stored in each frame file.
type Flag int

const (
	// FlagElectronDensity frames hold only electron density.
	FlagElectronDensity Flag = iota
	// FlagFull frames hold the density, velocity and temperature of
	// every species.
	FlagFull
	// FlagAverage frames hold species-averaged quantities.
	FlagAverage
	numFlags
)

// ParseFlag converts a flagoutput value to a Flag.
func ParseFlag(i int) (Flag, error) {
	if i < 0 || i >= int(numFlags) {
		return 0, fmt.Errorf("gemini3d: don't know how to read flagoutput %d: %w", i, ErrUnknownFormat)
	}
	return Flag(i), nil
}

// frameReader reads the variables requested in vars from the frame file at
// path, whose grid has dimensions lx.
type frameReader func(path string, lx [3]int, vars VarSet) (*Frame, error)

// frameReaders holds the reader for every combination of storage format
// and output flag. A nil entry is a combination that cannot be read.
var frameReaders = [numFormats][numFlags]frameReader{
	HDF5:   {readH5Ne, readH5Full, readH5Avg},
	NetCDF: {readNCNe, readNCFull, readNCAvg},
	Raw:    {readRawNe, readRawFull, readRawAvg},
	Matlab: {nil, nil, nil},
}

// flagReader determines the output flag of a frame file.
type flagReader func(path string, cfg Config) (Flag, error)

var flagReaders = [numFormats]flagReader{
	HDF5:   h5Flag,
	NetCDF: ncFlag,
	Raw:    configFlag,
	Matlab: configFlag,
}

func configFlag(_ string, cfg Config) (Flag, error) { return cfg.FlagOutput() }

// readerFor returns the frame reader for the given format and flag.
func readerFor(f Format, flag Flag) (frameReader, error) {
	if f < 0 || f >= numFormats || flag < 0 || flag >= numFlags || frameReaders[f][flag] == nil {
		return nil, fmt.Errorf("gemini3d: don't know how to read %s files with flagoutput %d: %w", f, flag, ErrUnknownFormat)
	}
	return frameReaders[f][flag], nil
}

// inBandFlag infers the output flag from the variables present in a
// frame file, falling back to the configuration.
func inBandFlag(has func(string) bool, cfg Config) (Flag, error) {
	switch {
	case has("nsall"):
		return FlagFull, nil
	case has("neall") && has("v1avgall"):
		return FlagAverage, nil
	case has("neall"):
		return FlagElectronDensity, nil
	}
	return cfg.FlagOutput()
}
