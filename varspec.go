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
	"time"
)

// VarSpec describes where one dataset version keeps its sea-ice
// concentration measurement and how the raw encoding is to be
// interpreted. Supporting a new dataset version is a matter of
// registering another VarSpec; no preprocessing code changes.
type VarSpec struct {
	// DatasetID identifies the product family this entry belongs to.
	DatasetID string

	// Platform is the observing platform this entry applies to.
	// An empty Platform marks the entry as the family default, used
	// only when no exact epoch entry matches.
	Platform string

	// Start and End bound the sensor epoch. A zero End leaves the
	// epoch open. Both are ignored when zero.
	Start, End time.Time

	// VarName is the source variable holding the measurement.
	VarName string

	// Units is the unit of the scaled measurement.
	Units string

	// Scale and Offset convert raw values to scaled units:
	// scaled = raw*Scale + Offset.
	Scale, Offset float64

	// ValidMin and ValidMax bound the physical measurement in the raw
	// (pre-scale) encoding. Sentinel codes are disjoint from this range.
	ValidMin, ValidMax float64

	// Flags is the sentinel-code table for this entry.
	Flags FlagTable
}

// epochMatches reports whether this entry's platform epoch exactly
// matches the given file metadata.
func (s *VarSpec) epochMatches(meta *FileMeta) bool {
	if s.Platform == "" {
		return false
	}
	if meta.Platform != "" {
		return s.Platform == meta.Platform
	}
	if meta.Time.IsZero() {
		return false
	}
	if !s.Start.IsZero() && meta.Time.Before(s.Start) {
		return false
	}
	if !s.End.IsZero() && !meta.Time.Before(s.End) {
		return false
	}
	return true
}

// available reports whether the entry's source variable is present in
// the file. Files that do not enumerate their variables are assumed to
// contain it.
func (s *VarSpec) available(meta *FileMeta) bool {
	if len(meta.Candidates) == 0 {
		return true
	}
	for _, c := range meta.Candidates {
		if c == s.VarName {
			return true
		}
	}
	return false
}

// Registry is a static, versioned lookup table mapping a dataset
// identifier and sensor/algorithm epoch to a VarSpec. Resolution is
// total and deterministic over the registered version range; anything
// unregistered fails explicitly. A Registry is written to during setup
// and read-only afterwards, so it is safe for concurrent resolution.
type Registry struct {
	specs map[string][]*VarSpec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string][]*VarSpec)}
}

// Register adds a variable specification. Entries for one dataset are
// kept in registration order, which makes resolution deterministic.
func (g *Registry) Register(s *VarSpec) {
	g.specs[s.DatasetID] = append(g.specs[s.DatasetID], s)
}

// Resolve determines which variable holds the measurement for a granule
// of the given dataset. An exact epoch match always wins silently over
// a registered family default. Resolve returns an
// UnsupportedVersionError when nothing matches and an
// AmbiguousVariableError when several entries remain plausible and the
// metadata cannot choose between them.
func (g *Registry) Resolve(datasetID string, meta *FileMeta) (*VarSpec, error) {
	entries := g.specs[datasetID]
	if len(entries) == 0 {
		return nil, &UnsupportedVersionError{DatasetID: datasetID, Platform: meta.Platform, Time: meta.Time}
	}

	var exact, defaults []*VarSpec
	for _, s := range entries {
		if !s.available(meta) {
			continue
		}
		if s.epochMatches(meta) {
			exact = append(exact, s)
		} else if s.Platform == "" {
			defaults = append(defaults, s)
		}
	}
	for _, candidates := range [][]*VarSpec{exact, defaults} {
		switch len(candidates) {
		case 0:
			continue
		case 1:
			return candidates[0], nil
		default:
			names := make([]string, len(candidates))
			for i, s := range candidates {
				names[i] = s.VarName
			}
			return nil, &AmbiguousVariableError{DatasetID: datasetID, Candidates: names}
		}
	}
	return nil, &UnsupportedVersionError{DatasetID: datasetID, Platform: meta.Platform, Time: meta.Time}
}

// Dataset identifiers with built-in registry entries.
const (
	DatasetNSIDC0051 = "nsidc0051"
	DatasetSeaIceCDR = "g02202"
	DatasetPolarAPPx = "noaa-appx"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// nsidc0051Flags is the sentinel-code table shared by all NSIDC-0051
// platform epochs. Codes are in the raw byte encoding; the valid
// measurement range is 0-250.
var nsidc0051Flags = FlagTable{
	{Value: 251, Category: FlagPoleHole},
	{Value: 253, Category: FlagCoastline},
	{Value: 254, Category: FlagLand},
	{Value: 255, Category: FlagMissing},
	{Value: 252, Category: FlagMissing}, // unused circumpolar code, retained for older granules
}

// cdrFlags is the sentinel-code table for the NOAA/NSIDC sea ice CDR
// (G02202) byte encoding. The v3 signed codes are normalized to these
// values by the granule reader, keeping the decoder free of version
// branches.
var cdrFlags = FlagTable{
	{Value: 251, Category: FlagPoleHole},
	{Value: 252, Category: FlagMissing}, // lakes are out of scope for the sea ice fields
	{Value: 253, Category: FlagCoastline},
	{Value: 254, Category: FlagLand},
	{Value: 255, Category: FlagMissing},
}

// appxFlags is the sentinel-code table for NOAA Polar APPx surface
// albedo.
var appxFlags = FlagTable{
	{Value: -9999, Category: FlagMissing},
}

func nsidc0051Spec(platform string, start, end time.Time) *VarSpec {
	return &VarSpec{
		DatasetID: DatasetNSIDC0051,
		Platform:  platform,
		Start:     start,
		End:       end,
		VarName:   platformVarName(platform),
		Units:     "1",
		Scale:     1.0 / 250.0,
		ValidMin:  0,
		ValidMax:  250,
		Flags:     nsidc0051Flags,
	}
}

// platformVarName returns the NSIDC-0051 measurement variable name for
// a platform, for example "F17_ICECON" for "f17".
func platformVarName(platform string) string {
	b := []byte(platform)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b) + "_ICECON"
}

// DefaultRegistry returns a registry pre-populated with the supported
// NSIDC-0051 platform epochs, the NOAA/NSIDC sea ice CDR versions, and
// NOAA Polar APPx surface albedo.
func DefaultRegistry() *Registry {
	g := NewRegistry()

	// NSIDC-0051 platform epochs. Adjacent epochs abut: each entry's
	// End is the next entry's Start.
	g.Register(nsidc0051Spec("n07", date(1978, 10, 25), date(1987, 8, 21)))
	g.Register(nsidc0051Spec("f08", date(1987, 8, 21), date(1991, 12, 3)))
	g.Register(nsidc0051Spec("f11", date(1991, 12, 3), date(1995, 10, 1)))
	g.Register(nsidc0051Spec("f13", date(1995, 10, 1), date(2008, 1, 1)))
	g.Register(nsidc0051Spec("f17", date(2008, 1, 1), time.Time{}))

	// NOAA/NSIDC CDR of passive microwave sea ice concentration.
	// The v3 entry matches granules before the v4 reprocessing epoch;
	// the family default covers v4 and later, whose variable name has
	// been stable.
	g.Register(&VarSpec{
		DatasetID: DatasetSeaIceCDR,
		Platform:  "cdr-v3",
		Start:     date(1987, 7, 9),
		End:       date(2021, 1, 1),
		VarName:   "seaice_conc_cdr",
		Units:     "1",
		Scale:     0.01,
		ValidMin:  0,
		ValidMax:  100,
		Flags:     cdrFlags,
	})
	g.Register(&VarSpec{
		DatasetID: DatasetSeaIceCDR,
		VarName:   "cdr_seaice_conc",
		Units:     "1",
		Scale:     0.01,
		ValidMin:  0,
		ValidMax:  100,
		Flags:     cdrFlags,
	})

	// NOAA Polar APPx surface albedo, registered to demonstrate that
	// the supported-product surface is a table, not a protocol.
	g.Register(&VarSpec{
		DatasetID: DatasetPolarAPPx,
		VarName:   "cdr_surface_albedo",
		Units:     "1",
		Scale:     0.001,
		ValidMin:  0,
		ValidMax:  1000,
		Flags:     appxFlags,
	})

	return g
}
