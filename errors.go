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

import "errors"

// Errors returned by this package wrap one of the following values, so
// callers can test for them with errors.Is.
var (
	// ErrNotFound is returned when a required file or field is absent.
	ErrNotFound = errors.New("not found")

	// ErrUnknownFormat is returned for an unrecognized file suffix or
	// an unsupported combination of file format and output flag.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrShapeMismatch is returned when an array does not have the
	// dimensions of the grid, which usually means it was read with the
	// wrong axis order.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrConfiguration is returned when a required configuration key
	// is missing or cannot be interpreted.
	ErrConfiguration = errors.New("configuration error")
)
