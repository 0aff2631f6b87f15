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
	"errors"
	"fmt"
)

var (
	// ErrToolFailure is returned when the MSIS executable exits with a
	// non-zero status other than exitCapabilityMissing.
	ErrToolFailure = errors.New("msis: MSIS failed to run")

	// ErrCapabilityMissing is returned when the executable was built
	// without the requested MSIS version.
	ErrCapabilityMissing = errors.New("msis: MSIS 2.0 not available: recompile with -Dmsis20=true")

	// ErrResponseIntegrity is returned when the executable's output cannot
	// be trusted, for example because it is the wrong size or its altitudes
	// do not match the request.
	ErrResponseIntegrity = errors.New("msis: was the MSIS output parsed correctly?")
)

// exitCapabilityMissing is the exit status the executable uses to signal
// that MSIS 2.0 was requested but not compiled in.
const exitCapabilityMissing = 20

// ToolError describes a failed run of the MSIS executable.
type ToolError struct {
	// Cmd is the command line that was run.
	Cmd string

	// ExitCode is the exit status of the process, or -1 if it did
	// not start.
	ExitCode int

	// Output holds whatever the process wrote before it failed.
	Output string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("msis: %s exited with status %d: %s", e.Cmd, e.ExitCode, e.Output)
}

// Unwrap returns ErrToolFailure.
func (e *ToolError) Unwrap() error { return ErrToolFailure }
