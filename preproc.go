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
	"context"
	"fmt"
	"strings"
	"sync"
)

// A GranuleReader reads one product family's granule files into raw
// grid files.
type GranuleReader interface {
	// DatasetID identifies the product family this reader handles.
	DatasetID() string

	// Read reads the granule at path. The returned RawGridFile is
	// owned by the caller.
	Read(path string) (*RawGridFile, error)
}

// Canonicalizer normalizes raw grid files to the canonical schema.
// Besides the shared read-only area cache it holds no mutable state,
// so one Canonicalizer may preprocess many files concurrently.
type Canonicalizer struct {
	specs *Registry
	areas *AreaCache
}

// NewCanonicalizer creates a Canonicalizer that resolves variables
// against specs and attaches cell-area fields from areas.
func NewCanonicalizer(specs *Registry, areas *AreaCache) *Canonicalizer {
	return &Canonicalizer{specs: specs, areas: areas}
}

// Preprocess converts one raw grid file to the canonical schema:
// it resolves the measurement variable for the file's dataset and
// epoch, decodes the embedded sentinel codes into boolean masks,
// attaches the grid's cell-area field, and renames everything to the
// fixed output layout. The first failing step's error is returned,
// tagged with the originating file's identity. The external multi-file
// concatenation engine invokes this once per file, possibly from many
// workers at once.
func (c *Canonicalizer) Preprocess(ctx context.Context, raw *RawGridFile) (*CanonicalFile, error) {
	meta := raw.meta()

	g, err := GetGrid(raw.GridID)
	if err != nil {
		return nil, fmt.Errorf("icegrid: preprocessing %s: %w", meta.Path, err)
	}

	spec, err := c.specs.Resolve(raw.DatasetID, meta)
	if err != nil {
		return nil, fmt.Errorf("icegrid: preprocessing %s: %w", meta.Path, err)
	}

	data, ok := raw.Vars[spec.VarName]
	if !ok {
		return nil, fmt.Errorf("icegrid: preprocessing %s: %w", meta.Path,
			&UnsupportedVersionError{DatasetID: raw.DatasetID, Platform: meta.Platform, Time: meta.Time})
	}

	measurement, masks, err := Decode(data, spec)
	if err != nil {
		return nil, fmt.Errorf("icegrid: preprocessing %s: %w", meta.Path, err)
	}

	area, err := c.areas.CellArea(ctx, raw.GridID)
	if err != nil {
		return nil, fmt.Errorf("icegrid: preprocessing %s: %w", meta.Path, err)
	}
	if err := g.CheckCellAreas(area); err != nil {
		return nil, fmt.Errorf("icegrid: preprocessing %s: %v", meta.Path, err)
	}

	x, y := g.Coordinates()
	return &CanonicalFile{
		DatasetID:  raw.DatasetID,
		GridID:     raw.GridID,
		Sensor:     sensorID(spec, meta),
		Time:       meta.Time,
		SIC:        measurement,
		Masks:      masks,
		CellArea:   area,
		X:          x,
		Y:          y,
		ValidRange: [2]float64{spec.ValidMin*spec.Scale + spec.Offset, spec.ValidMax*spec.Scale + spec.Offset},
		Units:      spec.Units,
	}, nil
}

// sensorID derives the observing sensor identity for the canonical
// output. File metadata wins when the granule records the sensor;
// otherwise it falls back on the measurement variable name prefix
// (for example "F17" from "F17_ICECON").
func sensorID(spec *VarSpec, meta *FileMeta) string {
	if meta.Sensor != "" {
		return meta.Sensor
	}
	if meta.Platform != "" {
		return meta.Platform
	}
	if i := strings.Index(spec.VarName, "_"); i > 0 {
		return strings.ToLower(spec.VarName[:i])
	}
	return spec.VarName
}

// PreprocessFiles reads and canonicalizes the given granule files using
// nWorkers concurrent workers. Results are returned in the order of
// paths; ordering by time coordinate is the concatenation engine's
// concern. The first failing file's error is returned with the file
// identity attached; jobs not yet started when the failure is observed
// are skipped, not retried.
func PreprocessFiles(ctx context.Context, c *Canonicalizer, r GranuleReader, paths []string, nWorkers int) ([]*CanonicalFile, error) {
	if nWorkers < 1 {
		nWorkers = 1
	}
	out := make([]*CanonicalFile, len(paths))
	jobs := make(chan int)

	var (
		mx       sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		mx.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mx.Unlock()
	}
	failed := func() bool {
		mx.Lock()
		defer mx.Unlock()
		return firstErr != nil
	}

	var wg sync.WaitGroup
	for w := 0; w < nWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if failed() {
					continue
				}
				raw, err := r.Read(paths[i])
				if err != nil {
					setErr(fmt.Errorf("icegrid: reading %s: %v", paths[i], err))
					continue
				}
				o, err := c.Preprocess(ctx, raw)
				if err != nil {
					setErr(err)
					continue
				}
				out[i] = o
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
