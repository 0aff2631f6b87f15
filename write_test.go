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
	"path/filepath"
	"testing"
)

// TestConvert checks that a raw frame survives conversion to netCDF.
func TestConvert(t *testing.T) {
	lx := [3]int{3, 2, 2}
	for _, test := range []struct {
		flag Flag
		vars VarSet
	}{
		{FlagFull, NewVarSet("ns", "vs1", "Ts", "ne", "Te", "J2", "Phi")},
		{FlagAverage, NewVarSet()},
		{FlagElectronDensity, NewVarSet("ne")},
	} {
		dir := t.TempDir()
		writeRawSimSize(t, dir, lx)
		fixture := fixtureFrame(lx, test.flag)
		raw := filepath.Join(dir, FilenameStem(fixture.Time)+".dat")
		writeRawFrame(t, raw, fixture)

		cfg := Config{"flagoutput": int(test.flag)}
		want, err := ReadData(raw, test.vars, cfg)
		if err != nil {
			t.Fatal(err)
		}
		nc := filepath.Join(dir, FilenameStem(fixture.Time)+".nc")
		writeNCFrame(t, nc, want)

		// The netCDF file records its own flag.
		have, err := ReadData(nc, test.vars, nil)
		if err != nil {
			t.Fatal(err)
		}
		if have.Flag != test.flag {
			t.Errorf("flag: want %d, have %d", test.flag, have.Flag)
		}
		compareFrames(t, want, have)
	}
}

func TestStoredFlag(t *testing.T) {
	f := fixtureFrame([3]int{1, 1, 1}, FlagFull)
	if f.storedFlag() != FlagFull {
		t.Errorf("full frame stored as %d", f.storedFlag())
	}
	delete(f.Species, "Ts")
	if f.storedFlag() != FlagAverage {
		t.Errorf("partial frame stored as %d", f.storedFlag())
	}
}
