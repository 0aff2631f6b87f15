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
	"math"
	"time"

	"github.com/spf13/cast"
)

// Config holds simulation configuration as read from a config.nml or
// config.ini file. Keys follow the namelist variable names, e.g.
// "flagoutput", "file_format", "f107a", "f107", "Ap", "ymd", "UTsec0",
// "tdur", "dtout", "msis_version".
type Config map[string]interface{}

// Has returns whether key is set.
func (c Config) Has(key string) bool {
	_, ok := c[key]
	return ok
}

func (c Config) get(key string) (interface{}, error) {
	v, ok := c[key]
	if !ok {
		return nil, fmt.Errorf("gemini3d: configuration key %q is missing: %w", key, ErrConfiguration)
	}
	return v, nil
}

// Int returns the integer value of key.
func (c Config) Int(key string) (int, error) {
	v, err := c.get(key)
	if err != nil {
		return 0, err
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("gemini3d: configuration key %q: %v: %w", key, err, ErrConfiguration)
	}
	return i, nil
}

// Float returns the floating point value of key.
func (c Config) Float(key string) (float64, error) {
	v, err := c.get(key)
	if err != nil {
		return 0, err
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("gemini3d: configuration key %q: %v: %w", key, err, ErrConfiguration)
	}
	return f, nil
}

// String returns the string value of key.
func (c Config) String(key string) (string, error) {
	v, err := c.get(key)
	if err != nil {
		return "", err
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("gemini3d: configuration key %q: %v: %w", key, err, ErrConfiguration)
	}
	return s, nil
}

// Floats returns the value of key as a list. A scalar is returned as a
// list of length one.
func (c Config) Floats(key string) ([]float64, error) {
	v, err := c.get(key)
	if err != nil {
		return nil, err
	}
	switch vv := v.(type) {
	case []float64:
		return vv, nil
	case []interface{}:
		o := make([]float64, len(vv))
		for i, x := range vv {
			if o[i], err = cast.ToFloat64E(x); err != nil {
				return nil, fmt.Errorf("gemini3d: configuration key %q: %v: %w", key, err, ErrConfiguration)
			}
		}
		return o, nil
	case []int:
		o := make([]float64, len(vv))
		for i, x := range vv {
			o[i] = float64(x)
		}
		return o, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, fmt.Errorf("gemini3d: configuration key %q: %v: %w", key, err, ErrConfiguration)
	}
	return []float64{f}, nil
}

// FlagOutput returns the output-format flag.
func (c Config) FlagOutput() (Flag, error) {
	i, err := c.Int("flagoutput")
	if err != nil {
		return 0, err
	}
	return ParseFlag(i)
}

// FileFormat returns the file_format setting, or "" if it is not set.
func (c Config) FileFormat() string {
	s, _ := c.String("file_format")
	return s
}

// MSISVersion returns the msis_version setting, or 0 if it is not set.
func (c Config) MSISVersion() int {
	i, _ := c.Int("msis_version")
	return i
}

// Start returns the simulation start time, from "t0" if present or
// otherwise from "ymd" and "UTsec0".
func (c Config) Start() (time.Time, error) {
	if v, ok := c["t0"]; ok {
		t, err := cast.ToTimeE(v)
		if err != nil {
			return time.Time{}, fmt.Errorf("gemini3d: configuration key \"t0\": %v: %w", err, ErrConfiguration)
		}
		return t.UTC(), nil
	}
	ymd, err := c.Floats("ymd")
	if err != nil {
		return time.Time{}, err
	}
	if len(ymd) != 3 {
		return time.Time{}, fmt.Errorf("gemini3d: configuration key \"ymd\" has %d values, want 3: %w", len(ymd), ErrConfiguration)
	}
	utsec, err := c.Float("UTsec0")
	if err != nil {
		return time.Time{}, err
	}
	return dateTime(ymd, utsec/3600), nil
}

// Times returns the output times of the simulation: every dtout seconds
// from the start time through tdur seconds later.
func (c Config) Times() ([]time.Time, error) {
	t0, err := c.Start()
	if err != nil {
		return nil, err
	}
	tdur, err := c.Float("tdur")
	if err != nil {
		return nil, err
	}
	dtout, err := c.Float("dtout")
	if err != nil {
		return nil, err
	}
	if dtout <= 0 {
		return nil, fmt.Errorf("gemini3d: dtout must be positive, got %g: %w", dtout, ErrConfiguration)
	}
	n := int(math.Floor(tdur/dtout)) + 1
	times := make([]time.Time, n)
	for i := range times {
		times[i] = t0.Add(seconds(float64(i) * dtout))
	}
	return times, nil
}

// Activity returns the solar and geomagnetic activity indices.
// Ap3 is the 3-hour Ap index and defaults to Ap.
func (c Config) Activity() (f107a, f107, ap, ap3 float64, err error) {
	if f107a, err = c.Float("f107a"); err != nil {
		return
	}
	if f107, err = c.Float("f107"); err != nil {
		return
	}
	if ap, err = c.Float("Ap"); err != nil {
		return
	}
	ap3 = ap
	if c.Has("Ap3") {
		ap3, err = c.Float("Ap3")
	}
	return
}

// seconds converts floating point seconds to a duration rounded to the
// nearest microsecond.
func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s*1e6)) * time.Microsecond
}

// dateTime returns the UTC time at uthour hours after midnight of the
// date ymd (year, month, day).
func dateTime(ymd []float64, uthour float64) time.Time {
	d := time.Date(int(ymd[0]), time.Month(int(ymd[1])), int(ymd[2]), 0, 0, 0, 0, time.UTC)
	return d.Add(seconds(uthour * 3600))
}
