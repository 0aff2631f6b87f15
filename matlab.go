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
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"math"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// MATLAB level 5 MAT-file data types.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
)

// MATLAB array classes holding numbers.
const (
	mxDoubleClass = 6
	mxUint64Class = 15
)

const matHeaderSize = 128

type matVar struct {
	vals []float64
	dims []int
}

// matFile is a MATLAB level 5 MAT-file. Only real numeric matrices are
// read; other variables are ignored.
type matFile struct {
	order binary.ByteOrder
	vars  map[string]matVar
	path  string
}

func openMat(path string) (arrayFile, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gemini3d: opening MAT-file: %w", err)
	}
	m := &matFile{vars: make(map[string]matVar), path: path}
	if len(b) < matHeaderSize {
		return nil, fmt.Errorf("gemini3d: %s is too short to be a MAT-file: %w", path, ErrUnknownFormat)
	}
	switch string(b[126:128]) {
	case "IM":
		m.order = binary.LittleEndian
	case "MI":
		m.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("gemini3d: %s is not a version 5 MAT-file: %w", path, ErrUnknownFormat)
	}
	if err := m.elements(b[matHeaderSize:]); err != nil {
		return nil, fmt.Errorf("gemini3d: reading MAT-file %s: %v", path, err)
	}
	return m, nil
}

func (m *matFile) has(name string) bool {
	_, ok := m.vars[name]
	return ok
}

// read returns the column-major values of the named matrix. MATLAB
// dimensions are reversed to give the equivalent row-major dimensions.
func (m *matFile) read(name string) ([]float64, []int, error) {
	v, ok := m.vars[name]
	if !ok {
		return nil, nil, fmt.Errorf("gemini3d: %s: variable %s: %w", m.path, name, ErrNotFound)
	}
	return v.vals, reversed(v.dims), nil
}

func (m *matFile) Close() error { return nil }

func (m *matFile) elements(b []byte) error {
	for len(b) > 0 {
		typ, data, rest, err := m.element(b)
		if err != nil {
			return err
		}
		switch typ {
		case miCOMPRESSED:
			r, err := zlib.NewReader(bytes.NewReader(data))
			if err != nil {
				return err
			}
			dec, err := ioutil.ReadAll(r)
			r.Close()
			if err != nil {
				return err
			}
			if err := m.elements(dec); err != nil {
				return err
			}
		case miMATRIX:
			if err := m.matrix(data); err != nil {
				return err
			}
		}
		b = rest
	}
	return nil
}

// element splits the first data element off b.
func (m *matFile) element(b []byte) (typ uint32, data, rest []byte, err error) {
	if len(b) < 8 {
		return 0, nil, nil, fmt.Errorf("truncated data element tag")
	}
	first := m.order.Uint32(b)
	if n := first >> 16; n != 0 {
		// Small data element format: the data share the tag's 8 bytes.
		if n > 4 {
			return 0, nil, nil, fmt.Errorf("small data element of %d bytes", n)
		}
		return first & 0xffff, b[4 : 4+n], b[8:], nil
	}
	typ = first
	n := int(m.order.Uint32(b[4:]))
	if 8+n > len(b) {
		return 0, nil, nil, fmt.Errorf("data element of %d bytes overruns file", n)
	}
	end := 8 + n
	if typ != miCOMPRESSED {
		end = (end + 7) &^ 7
		if end > len(b) {
			end = len(b)
		}
	}
	return typ, b[8 : 8+n], b[end:], nil
}

func (m *matFile) matrix(b []byte) error {
	_, flags, b, err := m.element(b)
	if err != nil {
		return err
	}
	if len(flags) < 4 {
		return fmt.Errorf("bad array flags")
	}
	class := m.order.Uint32(flags) & 0xff
	dtype, dimb, b, err := m.element(b)
	if err != nil {
		return err
	}
	dimv, err := m.numbers(dtype, dimb)
	if err != nil {
		return err
	}
	_, name, b, err := m.element(b)
	if err != nil {
		return err
	}
	if class < mxDoubleClass || class > mxUint64Class {
		return nil
	}
	dtype, re, _, err := m.element(b)
	if err != nil {
		return err
	}
	vals, err := m.numbers(dtype, re)
	if err != nil {
		return err
	}
	dims := make([]int, len(dimv))
	for i, d := range dimv {
		dims[i] = int(d)
	}
	if len(vals) != product(dims) {
		return fmt.Errorf("%s has %d values but dimensions %v", name, len(vals), dims)
	}
	m.vars[strings.TrimRight(string(name), "\x00")] = matVar{vals: vals, dims: dims}
	return nil
}

// numbers decodes numeric data of MAT-file type dtype.
func (m *matFile) numbers(dtype uint32, b []byte) ([]float64, error) {
	var size int
	switch dtype {
	case miINT8, miUINT8:
		size = 1
	case miINT16, miUINT16:
		size = 2
	case miINT32, miUINT32, miSINGLE:
		size = 4
	case miDOUBLE, miINT64, miUINT64:
		size = 8
	default:
		return nil, fmt.Errorf("unsupported data type %d", dtype)
	}
	o := make([]float64, len(b)/size)
	for i := range o {
		e := b[i*size : (i+1)*size]
		switch dtype {
		case miINT8:
			o[i] = float64(int8(e[0]))
		case miUINT8:
			o[i] = float64(e[0])
		case miINT16:
			o[i] = float64(int16(m.order.Uint16(e)))
		case miUINT16:
			o[i] = float64(m.order.Uint16(e))
		case miINT32:
			o[i] = float64(int32(m.order.Uint32(e)))
		case miUINT32:
			o[i] = float64(m.order.Uint32(e))
		case miSINGLE:
			o[i] = float64(math.Float32frombits(m.order.Uint32(e)))
		case miDOUBLE:
			o[i] = math.Float64frombits(m.order.Uint64(e))
		case miINT64:
			o[i] = float64(int64(m.order.Uint64(e)))
		case miUINT64:
			o[i] = float64(m.order.Uint64(e))
		}
	}
	return o, nil
}
