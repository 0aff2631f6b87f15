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

package msis

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

// fakeExec makes the package run this test binary in place of the MSIS
// executable and cmake. mode selects how the fake behaves; see fakeMSIS.
func fakeExec(t *testing.T, mode string, env ...string) {
	t.Helper()
	execCommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "MSIS_FAKE_MODE="+mode)
		cmd.Env = append(cmd.Env, env...)
		return cmd
	}
	t.Cleanup(func() { execCommandContext = exec.CommandContext })
}

// TestHelperProcess is not a real test. It is run as a subprocess by
// tests that call fakeExec.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "no command")
		os.Exit(2)
	}
	os.Exit(fakeMSIS(args[1], args[2:]))
}

// fakeMSIS behaves like the MSIS executable, or like cmake if exe is
// named cmake. The modes are:
//
//	ok       answer normally
//	exit20   exit as if MSIS 2.0 was not compiled in
//	fail     print a message and exit with status 3
//	short    write a binary output file one byte short
//	permute  swap the altitudes of the first and last points
func fakeMSIS(exe string, args []string) int {
	mode := os.Getenv("MSIS_FAKE_MODE")
	if name := os.Getenv("MSIS_FAKE_ARGS"); name != "" {
		os.WriteFile(name, []byte(strings.Join(args, " ")), 0644)
	}
	if filepath.Base(exe) == "cmake" {
		return fakeCMake(mode, args)
	}
	switch mode {
	case "exit20":
		return exitCapabilityMissing
	case "fail":
		fmt.Print("boom")
		return 3
	}
	if len(args) < 3 {
		fmt.Println("usage: msis_setup in out lz [version]")
		return 2
	}
	lz, err := strconv.Atoi(args[2])
	if err != nil {
		fmt.Println(err)
		return 2
	}

	var alt []float64
	if args[0] == "-" {
		alt, err = readPipeAlt(os.Stdin, lz)
	} else {
		alt, err = readFileAlt(args[0], lz)
	}
	if err != nil {
		fmt.Println(err)
		return 1
	}
	if mode == "permute" {
		alt[0], alt[lz-1] = alt[lz-1], alt[0]
	}
	vals := fakeOutput(alt)

	if args[1] == "-" {
		w := bufio.NewWriter(os.Stdout)
		for k, v := range vals {
			if k%NumFields == FieldAlt {
				fmt.Fprintf(w, " %.2f", v)
			} else {
				fmt.Fprintf(w, " %s", strconv.FormatFloat(float64(v), 'g', -1, 32))
			}
			if k%NumFields == NumFields-1 {
				w.WriteByte('\n')
			}
		}
		w.Flush()
		return 0
	}
	f, err := os.Create(args[1])
	if err != nil {
		fmt.Println(err)
		return 1
	}
	defer f.Close()
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}
	if mode == "short" {
		b = b[:len(b)-1]
	}
	f.Write(b)
	return 0
}

func readPipeAlt(r io.Reader, lz int) ([]float64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 7 {
		return nil, fmt.Errorf("got %d input lines", len(lines))
	}
	if n, err := strconv.Atoi(lines[3]); err != nil || n != lz {
		return nil, fmt.Errorf("point count %q does not match %d", lines[3], lz)
	}
	fields := strings.Fields(lines[6])
	if len(fields) != lz {
		return nil, fmt.Errorf("got %d altitudes", len(fields))
	}
	alt := make([]float64, lz)
	for i, s := range fields {
		if alt[i], err = strconv.ParseFloat(s, 64); err != nil {
			return nil, err
		}
	}
	return alt, nil
}

func readFileAlt(path string, lz int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var head struct {
		DOY, UTsec int32
		Activity   [4]float32
		LZ         int32
	}
	if err := binary.Read(f, binary.LittleEndian, &head); err != nil {
		return nil, err
	}
	if int(head.LZ) != lz {
		return nil, fmt.Errorf("point count %d does not match %d", head.LZ, lz)
	}
	pos := make([]float32, 3*lz)
	if err := binary.Read(f, binary.LittleEndian, pos); err != nil {
		return nil, err
	}
	alt := make([]float64, lz)
	for i, v := range pos[2*lz:] {
		alt[i] = float64(v)
	}
	return alt, nil
}

// fakeOutput returns NumFields values for each altitude. Densities depend
// on the point index so that misplaced values are detected.
func fakeOutput(alt []float64) []float32 {
	o := make([]float32, 0, len(alt)*NumFields)
	for j, a := range alt {
		row := make([]float32, NumFields)
		row[FieldAlt] = float32(a)
		row[FieldHe] = 1e12
		row[FieldO] = float32(1e17 * float64(j+1))
		row[FieldN2] = float32(2e17 * float64(j+1))
		row[FieldO2] = 3e16
		row[FieldAr] = 1e14
		row[FieldMass] = 1e-9
		row[FieldH] = 1e11
		row[FieldN] = float32(1e12 * float64(j+1))
		row[FieldAnomalousO] = 0
		row[FieldT] = float32(1000 + 100*j)
		o = append(o, row...)
	}
	return o
}

// fakeCMake records each call in $MSIS_FAKE_COUNT and creates
// $MSIS_FAKE_TARGET when asked to build.
func fakeCMake(mode string, args []string) int {
	if mode == "fail" {
		fmt.Print("CMake Error: no compiler")
		return 1
	}
	f, err := os.OpenFile(os.Getenv("MSIS_FAKE_COUNT"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Println(err)
		return 1
	}
	fmt.Fprintln(f, strings.Join(args, " "))
	f.Close()
	time.Sleep(20 * time.Millisecond)
	if len(args) > 0 && args[0] == "--build" {
		if err := os.WriteFile(os.Getenv("MSIS_FAKE_TARGET"), []byte("#!"), 0755); err != nil {
			fmt.Println(err)
			return 1
		}
	}
	return 0
}
