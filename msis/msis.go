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

// Package msis computes the neutral atmosphere on a gemini3d grid by
// running an external NRLMSISE-00 or MSIS 2.0 executable.
package msis

import (
	"context"
	"fmt"
	"time"

	"github.com/ctessum/sparse"
	"github.com/gemini3d/gemini3d-go"
	"github.com/sirupsen/logrus"
)

// Runner runs the MSIS executable.
type Runner struct {
	// Exe is the path of the MSIS executable.
	Exe string

	// Transport exchanges data with the executable. If it is nil,
	// Pipe is used.
	Transport Transport

	// Builder, if not nil, is used to build Exe when it does not exist.
	Builder *Builder

	Log logrus.FieldLogger
}

// Setup returns the neutral atmosphere at every cell of g at time t, with
// shape (len(Species), g.Lx...). version selects the MSIS version; zero
// leaves the choice to the executable.
func (r *Runner) Setup(ctx context.Context, g *gemini3d.Grid, t time.Time, a Activity, version int) (*sparse.DenseArray, error) {
	req, err := NewRequest(g, t, a, version)
	if err != nil {
		return nil, err
	}

	if !isFile(r.Exe) {
		if r.Builder == nil {
			return nil, fmt.Errorf("msis: executable %s: %w", r.Exe, gemini3d.ErrNotFound)
		}
		if err := r.Builder.Ensure(ctx); err != nil {
			return nil, err
		}
	}

	tr := r.Transport
	if tr == nil {
		tr = Pipe{}
	}
	log := logger(r.Log)
	log.WithFields(logrus.Fields{
		"DOY":   req.DOY,
		"UTsec": req.UTsec,
		"lz":    req.NumPoints(),
	}).Debug("msis request")
	log.WithField("version", version).Infof("msis: running %s", r.Exe)

	raw, err := tr.Exchange(ctx, r.Exe, req)
	if err != nil {
		return nil, err
	}
	resp, err := ParseResponse(raw, req.Lx)
	if err == nil {
		err = resp.Check(req)
	}
	if c, ok := tr.(cleaner); ok {
		if err != nil {
			log.WithField("files", c.Keep(req)).Warn("msis: keeping temporary files of rejected response")
		} else if err := c.Cleanup(req); err != nil {
			log.Warnf("msis: removing temporary files: %v", err)
		}
	}
	if err != nil {
		return nil, err
	}
	return resp.Stack(), nil
}
