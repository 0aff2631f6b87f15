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

package gemini3dutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gemini3d/gemini3d-go"
	"github.com/spf13/cast"
)

// ReadConfig reads the simulation configuration for path, which may be a
// config.nml or config.ini file or a simulation directory. Namelist files
// are preferred; config.ini is the legacy format.
func ReadConfig(path string) (gemini3d.Config, error) {
	fn, err := gemini3d.FindConfig(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fn)
	if err != nil {
		return nil, fmt.Errorf("gemini3d: opening configuration: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(fn)) {
	case ".ini":
		return readINI(f, fn)
	default:
		nml, err := ParseNamelist(f)
		if err != nil {
			return nil, fmt.Errorf("%v: %s: %w", err, fn, gemini3d.ErrConfiguration)
		}
		return nmlConfig(nml)
	}
}

// nmlAliases gives the configuration key for namelist variables that are
// known under another name.
var nmlAliases = map[string][]string{
	"E0_dir":   {"E0dir", "efield_dir"},
	"prec_dir": {"precdir"},
}

// canonicalKeys are the configuration keys whose namelist variable
// names are matched regardless of case.
var canonicalKeys = []string{
	"ymd", "UTsec0", "tdur", "dtout", "activ", "f107a", "f107", "Ap", "Ap3",
	"tcfl", "Teinf", "potsolve", "flagperiodic", "flagoutput", "flagcap",
	"file_format", "indat_size", "indat_grid", "indat_file", "msis_version",
	"dtprec", "dtE0", "dtglow", "dtglowout",
}

// nmlConfig flattens the namelist groups into a single configuration.
func nmlConfig(nml Namelist) (gemini3d.Config, error) {
	if _, ok := nml["base"]; !ok {
		return nil, fmt.Errorf("gemini3d: namelist has no &base group: %w", gemini3d.ErrConfiguration)
	}
	canon := make(map[string]string, len(canonicalKeys))
	for _, k := range canonicalKeys {
		canon[strings.ToLower(k)] = k
	}
	aliases := make(map[string][]string, len(nmlAliases))
	for k, v := range nmlAliases {
		aliases[strings.ToLower(k)] = v
	}

	c := make(gemini3d.Config)
	for _, vars := range nml {
		for name, v := range vars {
			lower := strings.ToLower(name)
			if k, ok := canon[lower]; ok {
				name = k
			}
			c[name] = v
			for _, a := range aliases[lower] {
				c[a] = v
			}
		}
	}
	if c.Has("activ") {
		if err := splitActivity(c, c["activ"]); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// splitActivity sets f107a, f107 and Ap from a three-element activ list.
func splitActivity(c gemini3d.Config, activ interface{}) error {
	a, err := cast.ToSliceE(activ)
	if err != nil || len(a) != 3 {
		return fmt.Errorf("gemini3d: activ must be f107a, f107, Ap; got %v: %w", activ, gemini3d.ErrConfiguration)
	}
	for i, k := range []string{"f107a", "f107", "Ap"} {
		f, err := cast.ToFloat64E(a[i])
		if err != nil {
			return fmt.Errorf("gemini3d: activ: %v: %w", err, gemini3d.ErrConfiguration)
		}
		c[k] = f
	}
	return nil
}

// iniKeys lists the leading positional lines of a legacy config.ini file.
var iniKeys = []string{
	"dmy", "UTsec0", "tdur", "dtout", "activ", "tcfl", "Teinf",
	"potsolve", "flagperiodic", "flagoutput", "flagcap",
	"indat_size", "indat_grid", "indat_file",
}

// readINI reads a legacy config.ini file, where each line holds one
// setting followed by an optional "!" comment.
func readINI(r io.Reader, path string) (gemini3d.Config, error) {
	s := bufio.NewScanner(r)
	c := make(gemini3d.Config)
	for _, key := range iniKeys {
		if !s.Scan() {
			if err := s.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("gemini3d: %s ends before %s: %w", path, key, gemini3d.ErrConfiguration)
		}
		line := strings.TrimSpace(stripComment(s.Text()))
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return nil, fmt.Errorf("gemini3d: %s: %s is empty: %w", path, key, gemini3d.ErrConfiguration)
		}
		if strings.HasPrefix(key, "indat_") {
			c[key] = fields[0]
			continue
		}
		v, err := parseValues(tokens(fields[0]))
		if err != nil {
			return nil, fmt.Errorf("gemini3d: %s: %s: %v: %w", path, key, err, gemini3d.ErrConfiguration)
		}
		c[key] = v
	}

	dmy, err := c.Floats("dmy")
	if err != nil {
		return nil, err
	}
	if len(dmy) != 3 {
		return nil, fmt.Errorf("gemini3d: %s: date must be day,month,year: %w", path, gemini3d.ErrConfiguration)
	}
	c["ymd"] = []interface{}{int(dmy[2]), int(dmy[1]), int(dmy[0])}
	delete(c, "dmy")
	if err := splitActivity(c, c["activ"]); err != nil {
		return nil, err
	}
	c["file_format"] = strings.TrimPrefix(filepath.Ext(cast.ToString(c["indat_size"])), ".")
	return c, nil
}
