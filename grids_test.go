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
	"math"
	"testing"

	"github.com/ctessum/sparse"
)

func TestGetGrid(t *testing.T) {
	tests := []struct {
		id     string
		nx, ny int
	}{
		{GridPSN25, 304, 448},
		{GridPSS25, 316, 332},
		{GridEASEN25, 361, 361},
	}
	for _, test := range tests {
		g, err := GetGrid(test.id)
		if err != nil {
			t.Fatal(err)
		}
		if g.Nx != test.nx || g.Ny != test.ny {
			t.Errorf("%s: got %d x %d, want %d x %d", test.id, g.Nx, g.Ny, test.nx, test.ny)
		}
	}

	_, err := GetGrid("psn12")
	gerr, ok := err.(*UnknownGridError)
	if !ok {
		t.Fatalf("got %v, want *UnknownGridError", err)
	}
	if gerr.GridID != "psn12" {
		t.Errorf("error identifies grid %q, want psn12", gerr.GridID)
	}
}

func TestGridSR(t *testing.T) {
	for id := range gridDefs {
		g, err := GetGrid(id)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := g.SR(); err != nil {
			t.Errorf("%s: %v", id, err)
		}
	}
}

func TestGridCoordinates(t *testing.T) {
	g, err := GetGrid(GridPSN25)
	if err != nil {
		t.Fatal(err)
	}
	x, y := g.Coordinates()
	if len(x) != g.Nx || len(y) != g.Ny {
		t.Fatalf("got %d x %d coordinates, want %d x %d", len(x), len(y), g.Nx, g.Ny)
	}
	if x[0] != g.Xo+g.Dx/2 {
		t.Errorf("first x center %g, want %g", x[0], g.Xo+g.Dx/2)
	}
	if got := x[len(x)-1] - x[0]; got != g.Dx*float64(g.Nx-1) {
		t.Errorf("x span %g, want %g", got, g.Dx*float64(g.Nx-1))
	}
}

func TestNominalCellAreas(t *testing.T) {
	g, err := GetGrid(GridPSS25)
	if err != nil {
		t.Fatal(err)
	}
	areas := g.NominalCellAreas()
	if areas.Shape[0] != g.Ny || areas.Shape[1] != g.Nx {
		t.Fatalf("got shape %v, want [%d %d]", areas.Shape, g.Ny, g.Nx)
	}
	want := g.Dx * g.Dy
	for _, a := range areas.Elements {
		if math.Abs(a-want)/want > 1e-9 {
			t.Fatalf("got cell area %g, want %g", a, want)
		}
	}
}

func TestGridBounds(t *testing.T) {
	g, err := GetGrid(GridPSN25)
	if err != nil {
		t.Fatal(err)
	}
	b := g.Bounds()
	if b.Min.X != -3850000 || b.Min.Y != -5350000 {
		t.Errorf("got lower-left (%g, %g), want (-3850000, -5350000)", b.Min.X, b.Min.Y)
	}
	if got, want := b.Max.X-b.Min.X, g.Dx*float64(g.Nx); got != want {
		t.Errorf("x extent %g, want %g", got, want)
	}

	wantArea := g.Dx * float64(g.Nx) * g.Dy * float64(g.Ny)
	if got := g.TotalArea().Value(); got != wantArea {
		t.Errorf("total area %g, want %g", got, wantArea)
	}
}

func TestCheckCellAreas(t *testing.T) {
	g, err := GetGrid(GridPSN25)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.CheckCellAreas(g.NominalCellAreas()); err != nil {
		t.Errorf("nominal areas rejected: %v", err)
	}

	km := sparse.ZerosDense(g.Ny, g.Nx)
	for i := range km.Elements {
		km.Elements[i] = 625 // km2, not m2
	}
	if err := g.CheckCellAreas(km); err == nil {
		t.Error("expected an error for areas in km2")
	}

	if err := g.CheckCellAreas(sparse.ZerosDense(g.Nx, g.Ny)); err == nil {
		t.Error("expected an error for a transposed area field")
	}
}
