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

// Package icegrid converts heterogeneous per-sensor passive-microwave
// sea-ice-concentration grid files into a canonical, analysis-ready
// schema so that many files can be concatenated into one coherent
// multi-temporal dataset. It resolves per-version measurement variable
// names, separates embedded sentinel flag codes into boolean masks,
// attaches static grid-cell-area fields, and renames everything to a
// fixed output schema. Downloading, authentication, and the multi-file
// merge itself are the concern of external collaborators.
package icegrid

import (
	"sort"
	"time"

	"github.com/ctessum/sparse"
)

// Version gives the version number of this package.
const Version = "0.2.0"

// DataVersion gives the canonical output schema version. It is written
// to every output file and checked when a file is loaded.
const DataVersion = "1.1"

// Canonical variable and dimension names. Every preprocessed file uses
// these regardless of the source sensor or algorithm version, so that
// the external concatenation engine can stack files along time without
// conflict.
const (
	VarConcentration = "sic"
	VarCellArea      = "cell_area"

	DimTime = "time"
	DimY    = "y"
	DimX    = "x"
)

// FileMeta describes a granule sufficiently for variable resolution:
// where it came from, which platform observed it, when, and which data
// variables it contains.
type FileMeta struct {
	// Path identifies the originating file in error messages.
	Path string

	// Platform is the lower-case sensor/algorithm epoch identifier
	// used for variable resolution, for example "f17" for NSIDC-0051
	// or "cdr-v3" for the CDR reprocessing epochs. It may be empty
	// when the source file does not record one, in which case
	// resolution falls back on Time and Candidates.
	Platform string

	// Sensor is the observing platform recorded on the canonical
	// output. It may differ from Platform for multi-satellite
	// products, and may be empty.
	Sensor string

	// Time is the granule timestamp.
	Time time.Time

	// Candidates are the names of the data variables present in the
	// file that could hold the measurement.
	Candidates []string
}

// RawGridFile is one per-timestep measurement grid as read from a
// granule. It holds the raw (pre-scale) values of every candidate
// measurement variable. A RawGridFile is read-only: preprocessing
// consumes it without modifying it, and it is not retained afterwards.
type RawGridFile struct {
	// DatasetID identifies the product family, for example "nsidc0051".
	DatasetID string

	// GridID identifies the fixed spatial grid the file is on.
	GridID string

	Meta FileMeta

	// Vars holds raw variable values keyed by source variable name.
	// Arrays are 2-D with shape [ny, nx]; a length-1 time dimension,
	// if present in the file, has been squeezed out by the reader.
	Vars map[string]*sparse.DenseArray
}

// meta returns r.Meta with the candidate variable list filled in from
// the variables actually present, in deterministic order.
func (r *RawGridFile) meta() *FileMeta {
	m := r.Meta
	m.Candidates = make([]string, 0, len(r.Vars))
	for name := range r.Vars {
		m.Candidates = append(m.Candidates, name)
	}
	sort.Strings(m.Candidates)
	return &m
}

// CanonicalFile is the normalized output for a single granule. All
// CanonicalFiles within one dataset family share identical variable
// names, dimension names, types, and units regardless of the source
// sensor, enabling conflict-free time-stacking. The caller owns the
// result; nothing in this package retains a reference to it.
type CanonicalFile struct {
	DatasetID string
	GridID    string

	// Sensor is the platform the measurement came from.
	Sensor string

	Time time.Time

	// SIC is sea ice concentration as an area fraction [0, 1] with
	// shape [ny, nx]. Cells covered by any flag mask hold NaN.
	SIC *sparse.DenseArray

	// Masks holds one boolean grid per flag category, true where the
	// corresponding sentinel code occurred in the source variable.
	Masks map[FlagCategory]*Mask

	// CellArea is the grid-cell area field [m2] shared by all files on
	// the same grid. It must be treated as read-only.
	CellArea *sparse.DenseArray

	// X and Y are the projected cell-center coordinates [m] along the
	// x and y dimensions, synthesized from the grid definition.
	X, Y []float64

	// ValidRange is the measurement valid range in scaled units.
	ValidRange [2]float64

	// Units is the measurement unit, "1" for an area fraction.
	Units string
}
