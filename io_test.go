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
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ctessum/sparse"
)

func TestCanonicalWriteLoad(t *testing.T) {
	sic := sparse.ZerosDense(2, 3)
	copy(sic.Elements, []float64{0, 0.5, 1, math.NaN(), 0.25, math.NaN()})
	area := sparse.ZerosDense(2, 3)
	for i := range area.Elements {
		area.Elements[i] = 625.0e6
	}
	poleHole := newMask([]int{2, 3})
	poleHole.Elements[3] = true
	missing := newMask([]int{2, 3})
	missing.Elements[5] = true

	c := &CanonicalFile{
		DatasetID:  DatasetNSIDC0051,
		GridID:     GridPSN25,
		Sensor:     "f17",
		Time:       time.Date(2012, 8, 1, 0, 0, 0, 0, time.UTC),
		SIC:        sic,
		Masks:      map[FlagCategory]*Mask{FlagPoleHole: poleHole, FlagMissing: missing},
		CellArea:   area,
		X:          []float64{12500, 37500, 62500},
		Y:          []float64{12500, 37500},
		ValidRange: [2]float64{0, 1},
		Units:      "1",
	}

	path := filepath.Join(t.TempDir(), "canonical.nc")
	w, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Write(w); err != nil {
		t.Fatal(err)
	}
	w.Close()

	r, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, err := LoadCanonical(r)
	if err != nil {
		t.Fatal(err)
	}

	if got.DatasetID != c.DatasetID || got.GridID != c.GridID || got.Sensor != c.Sensor {
		t.Errorf("got identity %s/%s/%s, want %s/%s/%s",
			got.DatasetID, got.GridID, got.Sensor, c.DatasetID, c.GridID, c.Sensor)
	}
	if !got.Time.Equal(c.Time) {
		t.Errorf("got time %v, want %v", got.Time, c.Time)
	}
	if got.Units != c.Units {
		t.Errorf("got units %q, want %q", got.Units, c.Units)
	}
	if got.ValidRange != c.ValidRange {
		t.Errorf("got valid range %v, want %v", got.ValidRange, c.ValidRange)
	}
	if got.SIC.Shape[0] != 2 || got.SIC.Shape[1] != 3 {
		t.Fatalf("got shape %v, want [2 3]", got.SIC.Shape)
	}
	for i := range sic.Elements {
		if !nanEqual(got.SIC.Elements[i], sic.Elements[i]) {
			t.Errorf("sic element %d: got %g, want %g", i, got.SIC.Elements[i], sic.Elements[i])
		}
		if got.CellArea.Elements[i] != area.Elements[i] {
			t.Errorf("cell area element %d: got %g, want %g", i, got.CellArea.Elements[i], area.Elements[i])
		}
	}
	for _, cat := range Categories {
		m, ok := got.Masks[cat]
		if !ok {
			t.Fatalf("no %s mask in the loaded file", cat)
		}
		want := c.Masks[cat]
		for i := range m.Elements {
			w := want != nil && want.Elements[i]
			if m.Elements[i] != w {
				t.Errorf("%s mask element %d: got %v, want %v", cat, i, m.Elements[i], w)
			}
		}
	}
	if len(got.X) != len(c.X) || len(got.Y) != len(c.Y) {
		t.Fatalf("got %d x and %d y coordinates, want %d and %d",
			len(got.X), len(got.Y), len(c.X), len(c.Y))
	}
	for i, v := range c.X {
		if got.X[i] != v {
			t.Errorf("x coordinate %d: got %g, want %g", i, got.X[i], v)
		}
	}
	for i, v := range c.Y {
		if got.Y[i] != v {
			t.Errorf("y coordinate %d: got %g, want %g", i, got.Y[i], v)
		}
	}

	f, ff, err := openNCF(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if proj := attrString(ff, "", "proj4"); proj != gridDefs[GridPSN25].Proj {
		t.Errorf("got projection attribute %q, want %q", proj, gridDefs[GridPSN25].Proj)
	}
}

func TestCanonicalWriteUnknownGrid(t *testing.T) {
	c := &CanonicalFile{
		DatasetID: DatasetNSIDC0051,
		GridID:    "nonsense",
		SIC:       sparse.ZerosDense(2, 3),
		CellArea:  sparse.ZerosDense(2, 3),
	}
	w, err := os.Create(filepath.Join(t.TempDir(), "bad.nc"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	err = c.Write(w)
	var gerr *UnknownGridError
	if !errors.As(err, &gerr) {
		t.Fatalf("got %v, want a wrapped *UnknownGridError", err)
	}
}

func TestLoadCanonicalVersionCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.nc")
	writeTestGranule(t, path, 2, 2, float64(0),
		map[string]interface{}{"data_version": "0.9"},
		granuleVar{name: VarConcentration, data: make([]float64, 4)})

	r, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := LoadCanonical(r); err == nil {
		t.Error("expected an error for a mismatched data version")
	}
}

func TestReadRawNCFSqueeze(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.nc")
	data := gridData(3, 4, 7, map[int]float64{5: 251})
	writeTestGranule(t, path, 3, 4, int16(0), nil,
		granuleVar{name: "TEST_ICECON", data: data})

	f, ff, err := openNCF(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got, dims, err := readRawNCF(ff, "TEST_ICECON")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Shape) != 2 || got.Shape[0] != 3 || got.Shape[1] != 4 {
		t.Fatalf("got shape %v, want the time dimension squeezed to [3 4]", got.Shape)
	}
	if len(dims) != 2 || dims[0] != "y" || dims[1] != "x" {
		t.Errorf("got dimensions %v, want [y x]", dims)
	}
	for i, v := range data {
		if got.Elements[i] != v {
			t.Errorf("element %d: got %g, want %g", i, got.Elements[i], v)
		}
	}

	if _, _, err := readRawNCF(ff, "nope"); err == nil {
		t.Error("expected an error for a missing variable")
	}
}
