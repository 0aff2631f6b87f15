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
	"strconv"
	"strings"
	"time"
)

// FilenameStem returns the name, without suffix, of the frame file for
// time t: YYYYMMDD_SSSSS.ffffff, where SSSSS is the UT second of the
// day and ffffff the microseconds.
func FilenameStem(t time.Time) string {
	t = t.UTC()
	utsec := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return fmt.Sprintf("%s_%05d.%06d", t.Format("20060102"), utsec, t.Nanosecond()/1000)
}

// TimeFromFilename parses the time encoded in the name of a frame file.
func TimeFromFilename(path string) (time.Time, error) {
	stem := filepath.Base(path)
	if ext := filepath.Ext(stem); ext != "" {
		if _, err := ParseFormat(ext); err == nil {
			stem = strings.TrimSuffix(stem, ext)
		}
	}
	parts := strings.SplitN(stem, "_", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("gemini3d: no time in file name %s: %w", path, ErrNotFound)
	}
	day, err := time.Parse("20060102", parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("gemini3d: no time in file name %s: %v: %w", path, err, ErrNotFound)
	}
	utsec, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("gemini3d: no time in file name %s: %v: %w", path, err, ErrNotFound)
	}
	return day.Add(seconds(utsec)), nil
}

// TimeOf returns the simulation time of the frame file at path. HDF5,
// netCDF and raw files record the time internally; for other formats it
// is taken from the file name.
func TimeOf(path string) (time.Time, error) {
	f, err := FormatOf(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("gemini3d: don't know how to get time from %s: %w", path, ErrUnknownFormat)
	}
	switch f {
	case HDF5, NetCDF:
		af, err := openArrayFile(f, path)
		if err != nil {
			return time.Time{}, err
		}
		defer af.Close()
		return arrayTime(af, path)
	case Raw:
		return rawTime(path)
	case Matlab:
		return TimeFromFilename(path)
	}
	return time.Time{}, fmt.Errorf("gemini3d: don't know how to get time from %s: %w", path, ErrUnknownFormat)
}

// PathFor returns the frame file in dir for time t. format may be
// empty to accept any storage format.
func PathFor(dir string, t time.Time, format string) (string, error) {
	return FindFrame(dir, t, format, true)
}
