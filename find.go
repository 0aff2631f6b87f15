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
	"path/filepath"
	"strings"
	"time"
)

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// notFound returns the error for a failed lookup, or no error if the
// lookup was not required.
func notFound(required bool, what, path string) (string, error) {
	if !required {
		return "", nil
	}
	return "", fmt.Errorf("gemini3d: %s not found in %s: %w", what, path, ErrNotFound)
}

// findStem finds the file named stem with any storage format suffix. If
// path is a file whose name starts with stem, it is returned directly;
// otherwise path (or the directory containing it) and its inputs
// subdirectory are searched.
func findStem(path, stem string, required bool) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return notFound(required, stem, path)
	}
	dir := path
	if !fi.IsDir() {
		if strings.HasPrefix(filepath.Base(path), stem) {
			return path, nil
		}
		dir = filepath.Dir(path)
	}
	for _, d := range []string{dir, filepath.Join(dir, "inputs")} {
		for f := Format(0); f < numFormats; f++ {
			fn := filepath.Join(d, stem+f.Suffix())
			if isFile(fn) {
				return fn, nil
			}
		}
	}
	return notFound(required, stem, path)
}

// FindGrid finds the grid file at or near path.
func FindGrid(path string, required bool) (string, error) {
	return findStem(path, "simgrid", required)
}

// FindSimSize finds the grid size file at or near path.
func FindSimSize(path string, required bool) (string, error) {
	return findStem(path, "simsize", required)
}

// FindConfig finds the simulation configuration file at or near path.
func FindConfig(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return notFound(true, "config.nml or config.ini", path)
	}
	if !fi.IsDir() {
		return path, nil
	}
	for _, name := range []string{"config.nml", "inputs/config.nml", "config.ini", "inputs/config.ini"} {
		fn := filepath.Join(path, name)
		if isFile(fn) {
			return fn, nil
		}
	}
	return notFound(true, "config.nml or config.ini", path)
}

// FindFrame finds the frame file for time t in directory dir. format
// restricts the search to one storage format; if it is empty all are
// tried. A file within one second of t is accepted when there is no
// exact match, as older versions of GEMINI rounded output times.
func FindFrame(dir string, t time.Time, format string, required bool) (string, error) {
	formats := []Format{HDF5, NetCDF, Raw, Matlab}
	if format != "" {
		f, err := ParseFormat(format)
		if err != nil {
			return "", err
		}
		formats = []Format{f}
	}
	for _, dt := range []time.Duration{0, time.Second, -time.Second} {
		stem := FilenameStem(t.Add(dt))
		for _, f := range formats {
			fn := filepath.Join(dir, stem+f.Suffix())
			if isFile(fn) {
				return fn, nil
			}
		}
	}
	return notFound(required, "frame "+FilenameStem(t), dir)
}
