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
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
)

// GridDef is a fixed spatial grid definition (projection, resolution,
// extent) shared across all files of a product hemisphere.
type GridDef struct {
	ID string

	// Nx and Ny are the number of grid cells in the West-East and
	// South-North directions.
	Nx, Ny int

	// Dx and Dy are the cell edge lengths [m] in projected space.
	Dx, Dy float64

	// Xo and Yo are the coordinates of the lower-left corner of the
	// grid [m].
	Xo, Yo float64

	// Proj is the grid projection in PROJ4 format.
	Proj string
}

// Grid identifiers with built-in definitions.
const (
	GridPSN25   = "psn25"     // north polar stereographic, 25 km
	GridPSS25   = "pss25"     // south polar stereographic, 25 km
	GridEASEN25 = "ease-nh25" // north EASE equal-area, 25 km
)

var gridDefs = map[string]*GridDef{
	GridPSN25: {
		ID: GridPSN25,
		Nx: 304, Ny: 448,
		Dx: 25000, Dy: 25000,
		Xo: -3850000, Yo: -5350000,
		Proj: "+proj=stere +lat_0=90 +lat_ts=70 +lon_0=-45 +k=1 +x_0=0 +y_0=0 +a=6378273 +b=6356889.449 +units=m +no_defs",
	},
	GridPSS25: {
		ID: GridPSS25,
		Nx: 316, Ny: 332,
		Dx: 25000, Dy: 25000,
		Xo: -3950000, Yo: -3950000,
		Proj: "+proj=stere +lat_0=-90 +lat_ts=-70 +lon_0=0 +k=1 +x_0=0 +y_0=0 +a=6378273 +b=6356889.449 +units=m +no_defs",
	},
	GridEASEN25: {
		ID: GridEASEN25,
		Nx: 361, Ny: 361,
		Dx: 25067.53, Dy: 25067.53,
		Xo: -4524688, Yo: -4524688,
		Proj: "+proj=laea +lat_0=90 +lon_0=0 +x_0=0 +y_0=0 +a=6371228 +b=6371228 +units=m +no_defs",
	},
}

// GetGrid returns the definition for a registered grid identifier,
// or an UnknownGridError.
func GetGrid(gridID string) (*GridDef, error) {
	g, ok := gridDefs[gridID]
	if !ok {
		return nil, &UnknownGridError{GridID: gridID}
	}
	return g, nil
}

// SR returns the grid's spatial reference.
func (g *GridDef) SR() (*proj.SR, error) {
	sr, err := proj.Parse(g.Proj)
	if err != nil {
		return nil, fmt.Errorf("icegrid: while parsing projection for grid %s: %v", g.ID, err)
	}
	return sr, nil
}

// Bounds returns the grid extent in projected coordinates.
func (g *GridDef) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: g.Xo, Y: g.Yo},
		Max: geom.Point{
			X: g.Xo + g.Dx*float64(g.Nx),
			Y: g.Yo + g.Dy*float64(g.Ny),
		},
	}
}

// CellPolygon returns the polygon of the cell in row j, column i,
// in projected coordinates.
func (g *GridDef) CellPolygon(j, i int) geom.Polygon {
	l := g.Xo + g.Dx*float64(i)
	b := g.Yo + g.Dy*float64(j)
	r := l + g.Dx
	u := b + g.Dy
	return geom.Polygon{{
		{X: l, Y: b},
		{X: r, Y: b},
		{X: r, Y: u},
		{X: l, Y: u},
	}}
}

// Coordinates returns the projected x and y cell-center coordinates [m].
func (g *GridDef) Coordinates() (x, y []float64) {
	x = make([]float64, g.Nx)
	for i := range x {
		x[i] = g.Xo + g.Dx*(float64(i)+0.5)
	}
	y = make([]float64, g.Ny)
	for j := range y {
		y[j] = g.Yo + g.Dy*(float64(j)+0.5)
	}
	return x, y
}

// NominalCellAreas returns the per-cell area field [m2] computed from
// the cell polygons in projected space. It stands in for a measured
// ancillary area file when none is supplied; products that need
// distortion-corrected areas should attach their published area field
// instead.
func (g *GridDef) NominalCellAreas() *sparse.DenseArray {
	areas := sparse.ZerosDense(g.Ny, g.Nx)
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			areas.Set(g.CellPolygon(j, i).Area(), j, i)
		}
	}
	return areas
}

// TotalArea returns the total area covered by the grid.
func (g *GridDef) TotalArea() *unit.Unit {
	b := g.Bounds()
	return unit.New((b.Max.X-b.Min.X)*(b.Max.Y-b.Min.Y), unit.Meter2)
}

// CheckCellAreas verifies that an ancillary cell-area field plausibly
// belongs to this grid: the shape must match, and the field total must
// agree with the grid extent to within a factor of two. The total
// check catches area fields delivered in km2 instead of m2.
func (g *GridDef) CheckCellAreas(area *sparse.DenseArray) error {
	if len(area.Shape) != 2 || area.Shape[0] != g.Ny || area.Shape[1] != g.Nx {
		return fmt.Errorf("cell area field has shape %v; grid %s requires [%d %d]",
			area.Shape, g.ID, g.Ny, g.Nx)
	}
	var sum float64
	for _, v := range area.Elements {
		sum += v
	}
	tot := g.TotalArea().Value()
	if sum < tot/2 || sum > tot*2 {
		return fmt.Errorf("cell area field for grid %s totals %g m2; the grid extent is %g m2",
			g.ID, sum, tot)
	}
	return nil
}
