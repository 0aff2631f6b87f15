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
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// execCommandContext creates the processes that run the MSIS executable.
// Tests replace it to run a fake executable.
var execCommandContext = exec.CommandContext

// A Transport exchanges a request and its raw response with the MSIS
// executable. The response is the flattened column-major (NumFields, lz)
// output of the executable.
type Transport interface {
	Exchange(ctx context.Context, exe string, req *Request) ([]float32, error)
}

// A cleaner tracks files a Transport left behind for a request. Cleanup
// removes them once the response has been accepted; Keep forgets them,
// leaving them on disk, when it has been rejected.
type cleaner interface {
	Cleanup(req *Request) error
	Keep(req *Request) []string
}

// Pipe exchanges data with the executable through its standard input and
// output, as text.
type Pipe struct{}

// Exchange implements Transport.
func (Pipe) Exchange(ctx context.Context, exe string, req *Request) ([]float32, error) {
	lz := req.NumPoints()
	// "-" tells the executable to use stdin and stdout.
	cmd := command(ctx, exe, req, "-", "-")
	cmd.Stdin = strings.NewReader(pipeInput(req))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := run(ctx, cmd, func() string { return stdout.String() + stderr.String() }); err != nil {
		return nil, err
	}
	fields := strings.Fields(stdout.String())
	if len(fields) != lz*NumFields {
		return nil, fmt.Errorf("msis: %s wrote %d values, want %d: %w", exe, len(fields), lz*NumFields, ErrResponseIntegrity)
	}
	out := make([]float32, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, fmt.Errorf("msis: parsing output of %s: %v: %w", exe, err, ErrResponseIntegrity)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// pipeInput formats req as the text the executable reads from stdin.
func pipeInput(req *Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\n%d\n", req.DOY, req.UTsec)
	b.WriteString(joinFloats([]float64{req.F107a, req.F107, req.Ap, req.Ap3}))
	fmt.Fprintf(&b, "\n%d\n", req.NumPoints())
	for _, v := range [][]float64{req.Glat, req.Glon, req.Alt} {
		b.WriteString(joinFloats(v))
		b.WriteByte('\n')
	}
	return b.String()
}

func joinFloats(v []float64) string {
	s := make([]string, len(v))
	for i, f := range v {
		s[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(s, " ")
}

// File exchanges data with the executable through a pair of binary
// files. The files are kept until Cleanup is called so that a bad
// response can be inspected.
type File struct {
	// Dir is the directory to create the files in. If it is empty,
	// os.TempDir() is used.
	Dir string

	mu    sync.Mutex
	files map[*Request][2]string
}

// Exchange implements Transport.
func (f *File) Exchange(ctx context.Context, exe string, req *Request) ([]float32, error) {
	dir := f.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	stem := filepath.Join(dir, fmt.Sprintf("msis_setup_%d_%s", os.Getpid(), uuid.New()))
	in, out := stem+"_in.dat", stem+"_out.dat"
	if err := writeFileInput(in, req); err != nil {
		return nil, err
	}

	cmd := command(ctx, exe, req, in, out)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := run(ctx, cmd, output.String); err != nil {
		return nil, err
	}

	lz := req.NumPoints()
	fi, err := os.Stat(out)
	if err != nil {
		return nil, fmt.Errorf("msis: %v: %w", err, ErrResponseIntegrity)
	}
	if want := int64(lz * NumFields * 4); fi.Size() != want {
		return nil, fmt.Errorf("msis: expected %s size %d but got %d: %w", out, want, fi.Size(), ErrResponseIntegrity)
	}
	r, err := os.Open(out)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	vals := make([]float32, lz*NumFields)
	if err := binary.Read(bufio.NewReader(r), binary.LittleEndian, vals); err != nil {
		return nil, fmt.Errorf("msis: reading %s: %v: %w", out, err, ErrResponseIntegrity)
	}

	f.mu.Lock()
	if f.files == nil {
		f.files = make(map[*Request][2]string)
	}
	f.files[req] = [2]string{in, out}
	f.mu.Unlock()
	return vals, nil
}

// Cleanup removes the files created for req.
func (f *File) Cleanup(req *Request) error {
	for _, name := range f.Keep(req) {
		if err := os.Remove(name); err != nil {
			return err
		}
	}
	return nil
}

// Keep stops tracking the files created for req without removing them,
// and returns their names.
func (f *File) Keep(req *Request) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	files, ok := f.files[req]
	if !ok {
		return nil
	}
	delete(f.files, req)
	return files[:]
}

func writeFileInput(path string, req *Request) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, v := range []interface{}{
		int32(req.DOY),
		int32(req.UTsec),
		[]float32{float32(req.F107a), float32(req.F107), float32(req.Ap), float32(req.Ap3)},
		int32(req.NumPoints()),
		float32s(req.Glat),
		float32s(req.Glon),
		float32s(req.Alt),
	} {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			w.Close()
			return fmt.Errorf("msis: writing %s: %v", path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func float32s(v []float64) []float32 {
	o := make([]float32, len(v))
	for i, f := range v {
		o[i] = float32(f)
	}
	return o
}

// command prepares a run of exe with the given input and output
// locations, followed by the point count and, if set, the MSIS version.
func command(ctx context.Context, exe string, req *Request, in, out string) *exec.Cmd {
	args := []string{in, out, strconv.Itoa(req.NumPoints())}
	if req.Version != 0 {
		args = append(args, strconv.Itoa(req.Version))
	}
	cmd := execCommandContext(ctx, exe, args...)
	cmd.Dir = filepath.Dir(exe)
	return cmd
}

// run runs cmd and translates its exit status.
func run(ctx context.Context, cmd *exec.Cmd, output func() string) error {
	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	cmdline := strings.Join(cmd.Args, " ")
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return &ToolError{Cmd: cmdline, ExitCode: -1, Output: err.Error()}
	}
	if exitErr.ExitCode() == exitCapabilityMissing {
		return fmt.Errorf("msis: %s: %w", cmdline, ErrCapabilityMissing)
	}
	return &ToolError{Cmd: cmdline, ExitCode: exitErr.ExitCode(), Output: output()}
}
