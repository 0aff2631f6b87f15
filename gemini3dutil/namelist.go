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
	"strconv"
	"strings"
)

// Namelist holds the groups of a Fortran namelist file. Group names are
// lower case; variable names are kept as written. A variable holding a
// single value maps to that value, and one holding a list maps to a
// []interface{}. Values are string, bool, int or float64.
type Namelist map[string]map[string]interface{}

// ParseNamelist reads Fortran namelist groups of the form
//
//	&group
//	name = value, value
//	/
//
// from r. Text outside of groups and after "!" is ignored.
func ParseNamelist(r io.Reader) (Namelist, error) {
	nml := make(Namelist)
	var (
		group   map[string]interface{}
		gname   string
		key     string
		pending []string
	)
	flush := func() error {
		if key == "" {
			return nil
		}
		v, err := parseValues(pending)
		if err != nil {
			return fmt.Errorf("gemini3d: namelist &%s: %s: %v", gname, key, err)
		}
		group[key] = v
		key, pending = "", nil
		return nil
	}

	s := bufio.NewScanner(r)
	for lineno := 1; s.Scan(); lineno++ {
		line := strings.TrimSpace(stripComment(s.Text()))
		if line == "" {
			continue
		}
		if group == nil {
			if !strings.HasPrefix(line, "&") {
				continue
			}
			gname = strings.ToLower(strings.TrimSpace(line[1:]))
			if gname == "" {
				return nil, fmt.Errorf("gemini3d: namelist line %d: missing group name", lineno)
			}
			group = make(map[string]interface{})
			nml[gname] = group
			continue
		}
		end := false
		if line == "/" || strings.EqualFold(line, "&end") {
			line, end = "", true
		} else if strings.HasSuffix(line, "/") && !inQuote(line, len(line)-1) {
			line, end = strings.TrimSpace(line[:len(line)-1]), true
		}
		for _, part := range splitAssignments(line) {
			if i := strings.Index(part, "="); i >= 0 && !inQuote(part, i) {
				if err := flush(); err != nil {
					return nil, err
				}
				key = strings.TrimSpace(part[:i])
				part = part[i+1:]
			} else if key == "" {
				return nil, fmt.Errorf("gemini3d: namelist &%s line %d: value without a name", gname, lineno)
			}
			pending = append(pending, tokens(part)...)
		}
		if end {
			if err := flush(); err != nil {
				return nil, err
			}
			group = nil
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if group != nil {
		return nil, fmt.Errorf("gemini3d: namelist group &%s is not terminated", gname)
	}
	return nml, nil
}

// stripComment removes a trailing "!" comment that is not inside quotes.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '!' && !inQuote(line, i) {
			return line[:i]
		}
	}
	return line
}

// inQuote returns whether position i of s is within a quoted string.
func inQuote(s string, i int) bool {
	var q byte
	for j := 0; j < i; j++ {
		switch {
		case q == 0 && (s[j] == '\'' || s[j] == '"'):
			q = s[j]
		case s[j] == q:
			q = 0
		}
	}
	return q != 0
}

// splitAssignments splits a line holding several "name = value"
// assignments, e.g. "a = 1, b = 2", into one part per assignment.
func splitAssignments(line string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(line); i++ {
		if line[i] != '=' || inQuote(line, i) {
			continue
		}
		k := i
		for k > 0 && (line[k-1] == ' ' || line[k-1] == '\t') {
			k--
		}
		// The name before this "=" starts after the last separator.
		name := strings.LastIndexAny(line[:k], ", \t") + 1
		if name > start && strings.TrimSpace(line[start:name]) != "" {
			parts = append(parts, line[start:name])
			start = name
		}
	}
	return append(parts, line[start:])
}

// tokens splits a list of values separated by commas or white space.
func tokens(s string) []string {
	var (
		o   []string
		cur strings.Builder
		q   byte
	)
	emit := func() {
		if cur.Len() > 0 {
			o = append(o, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case q != 0:
			cur.WriteByte(c)
			if c == q {
				q = 0
			}
		case c == '\'' || c == '"':
			q = c
			cur.WriteByte(c)
		case c == ',' || c == ' ' || c == '\t':
			emit()
		default:
			cur.WriteByte(c)
		}
	}
	emit()
	return o
}

func parseValues(toks []string) (interface{}, error) {
	var vals []interface{}
	for _, t := range toks {
		n := 1
		// Repeat counts, e.g. 3*0.
		if i := strings.Index(t, "*"); i > 0 && t[0] != '\'' && t[0] != '"' {
			var err error
			if n, err = strconv.Atoi(t[:i]); err != nil {
				return nil, fmt.Errorf("invalid repeat count in %q", t)
			}
			t = t[i+1:]
		}
		v, err := parseValue(t)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			vals = append(vals, v)
		}
	}
	switch len(vals) {
	case 0:
		return nil, fmt.Errorf("no value")
	case 1:
		return vals[0], nil
	}
	return vals, nil
}

func parseValue(t string) (interface{}, error) {
	if len(t) >= 2 && (t[0] == '\'' || t[0] == '"') && t[len(t)-1] == t[0] {
		return t[1 : len(t)-1], nil
	}
	switch strings.ToLower(t) {
	case ".true.", "t", ".t.":
		return true, nil
	case ".false.", "f", ".f.":
		return false, nil
	}
	if i, err := strconv.Atoi(t); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(strings.NewReplacer("d", "e", "D", "e").Replace(t), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q", t)
	}
	return f, nil
}
