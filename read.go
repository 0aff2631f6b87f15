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
	"os"
	"path/filepath"
	"time"
)

// ReadSimSize returns the grid dimensions recorded in the simsize file at
// or near path.
func ReadSimSize(path string) ([3]int, error) {
	fn, err := FindSimSize(path, true)
	if err != nil {
		return [3]int{}, err
	}
	f, err := FormatOf(fn)
	if err != nil {
		return [3]int{}, err
	}
	if f == Raw {
		return readRawSimSize(fn)
	}
	af, err := openArrayFile(f, fn)
	if err != nil {
		return [3]int{}, err
	}
	defer af.Close()
	return arrayLx(af, fn)
}

// ReadGrid reads the simulation grid at or near path.
func ReadGrid(path string) (*Grid, error) {
	fn, err := FindGrid(path, true)
	if err != nil {
		return nil, err
	}
	f, err := FormatOf(fn)
	if err != nil {
		return nil, err
	}
	if f == Raw {
		lx, err := ReadSimSize(filepath.Dir(fn))
		if err != nil {
			return nil, err
		}
		return readRawGrid(fn, lx)
	}
	af, err := openArrayFile(f, fn)
	if err != nil {
		return nil, err
	}
	defer af.Close()
	lx, err := arrayLx(af, fn)
	if errors.Is(err, ErrNotFound) {
		// Newer grid files leave the dimensions to the simsize file.
		lx, err = ReadSimSize(filepath.Dir(fn))
	}
	if err != nil {
		return nil, err
	}
	return readArrayGrid(af, fn, lx)
}

// readable returns whether frames can be read from files of format f with
// any output flag.
func readable(f Format) bool {
	for _, r := range frameReaders[f] {
		if r != nil {
			return true
		}
	}
	return false
}

// ReadData reads the variables vars from the frame file at path. If vars
// is empty, DefaultVars are read. cfg supplies the output flag for formats
// that do not record it and may override the storage format with its
// "file_format" key; it may be nil.
//
// The grid dimensions are taken from the simsize file of the directory
// holding path, and every returned variable is checked against them.
func ReadData(path string, vars VarSet, cfg Config) (*Frame, error) {
	if len(vars) == 0 {
		vars = NewVarSet()
	}
	if cfg == nil {
		cfg = Config{}
	}
	var f Format
	var err error
	if s := cfg.FileFormat(); s != "" {
		f, err = ParseFormat(s)
	} else {
		f, err = FormatOf(path)
	}
	if err != nil {
		return nil, err
	}
	if !readable(f) {
		return nil, fmt.Errorf("gemini3d: don't know how to read %s frames (%s): %w", f, path, ErrUnknownFormat)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("gemini3d: frame %s: %v: %w", path, err, ErrNotFound)
	}
	lx, err := ReadSimSize(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	flag, err := flagReaders[f](path, cfg)
	if err != nil {
		return nil, err
	}
	read, err := readerFor(f, flag)
	if err != nil {
		return nil, err
	}
	fr, err := read(path, lx, vars)
	if err != nil {
		return nil, err
	}
	if flag == FlagFull {
		if err := Derive(fr, vars); err != nil {
			return nil, err
		}
	}
	fr.keep(vars)
	if err := fr.check(); err != nil {
		return nil, err
	}
	if fr.Time.IsZero() {
		if t, err := TimeFromFilename(path); err == nil {
			fr.Time = t
		}
	}
	return fr, nil
}

// ReadFrame reads the variables vars of the frame at time t from the
// simulation output directory simdir. If simdir is a frame file it is
// read directly.
func ReadFrame(simdir string, t time.Time, vars VarSet, cfg Config) (*Frame, error) {
	if isFile(simdir) {
		return ReadData(simdir, vars, cfg)
	}
	fn, err := FindFrame(simdir, t, cfg.FileFormat(), true)
	if err != nil {
		return nil, err
	}
	return ReadData(fn, vars, cfg)
}
