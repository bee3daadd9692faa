/*
Copyright © 2021 the icegrid authors.
This file is part of icegrid.

icegrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

icegrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with icegrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package icegrid

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNSIDC0051Read(t *testing.T) {
	dir := t.TempDir()
	path := writeNSIDC0051Granule(t, dir, "f17", "20120801", map[int]float64{0: 125, 1: 254})

	raw, err := NewNSIDC0051(nil).Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if raw.DatasetID != DatasetNSIDC0051 {
		t.Errorf("got dataset %s, want %s", raw.DatasetID, DatasetNSIDC0051)
	}
	if raw.GridID != GridPSN25 {
		t.Errorf("got grid %s, want %s", raw.GridID, GridPSN25)
	}
	if raw.Meta.Platform != "f17" || raw.Meta.Sensor != "f17" {
		t.Errorf("got platform %s, sensor %s; want f17, f17", raw.Meta.Platform, raw.Meta.Sensor)
	}
	if want := time.Date(2012, 8, 1, 0, 0, 0, 0, time.UTC); !raw.Meta.Time.Equal(want) {
		t.Errorf("got time %v, want %v", raw.Meta.Time, want)
	}

	data, ok := raw.Vars["F17_ICECON"]
	if !ok {
		t.Fatalf("got variables %v, want F17_ICECON", raw.meta().Candidates)
	}
	// Raw values keep their pre-scale encoding.
	if data.Elements[0] != 125 || data.Elements[1] != 254 {
		t.Errorf("got raw values %g, %g; want 125, 254", data.Elements[0], data.Elements[1])
	}
}

func TestNSIDC0051ReadBadName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conc_20120801.nc")
	writeTestGranule(t, path, 448, 304, int16(0), nil,
		granuleVar{name: "F17_ICECON", data: gridData(448, 304, 0, nil)})

	if _, err := NewNSIDC0051(nil).Read(path); err == nil {
		t.Error("expected an error for a file name outside the naming convention")
	}
}

func TestNSIDC0051ReadNoVariable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nt_20120801_f17_v1.1_n.nc")
	writeTestGranule(t, path, 448, 304, int16(0), nil,
		granuleVar{name: "unrelated", data: gridData(448, 304, 0, nil)})

	if _, err := NewNSIDC0051(nil).Read(path); err == nil {
		t.Error("expected an error for a granule without an ICECON variable")
	}
}

func TestNSIDC0051ReadWrongShape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nt_20120801_f17_v1.1_n.nc")
	writeTestGranule(t, path, 10, 10, int16(0), nil,
		granuleVar{name: "F17_ICECON", data: gridData(10, 10, 0, nil)})

	if _, err := NewNSIDC0051(nil).Read(path); err == nil {
		t.Error("expected an error for a grid shape mismatch")
	}
}
