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

package icegridutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/nsidc/icegrid"
)

// Preproc converts the given granule files of the named product family
// to the canonical schema and writes one NetCDF file per granule to
// outputDir. cellAreaFiles maps grid identifiers to ancillary NetCDF
// files holding the published cell-area field named by cellAreaVar;
// grids without an entry get nominal projected-space areas.
func Preproc(ctx context.Context, dataset string, files []string, outputDir string, cellAreaFiles map[string]string, cellAreaVar string, workers int) error {
	msgChan := make(chan string)
	msgDone := make(chan struct{})
	go func() {
		for msg := range msgChan {
			log.Println(msg)
		}
		close(msgDone)
	}()
	defer func() {
		close(msgChan)
		<-msgDone
	}()

	reader, err := granuleReader(dataset, msgChan)
	if err != nil {
		return err
	}

	// Stage remote inputs locally before starting workers.
	localAreas := make(map[string]string, len(cellAreaFiles))
	for gridID, path := range cellAreaFiles {
		local, err := maybeDownload(ctx, os.ExpandEnv(path), msgChan)
		if err != nil {
			return err
		}
		localAreas[gridID] = local
	}
	paths, err := stageInputs(ctx, files, msgChan)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("icegridutil: no input files matched")
	}

	var fetch icegrid.AreaFetcher
	if len(localAreas) > 0 {
		fetch = icegrid.FileAreaFetcher(localAreas, cellAreaVar)
	} else {
		fetch = icegrid.NominalAreaFetcher()
	}
	c := icegrid.NewCanonicalizer(icegrid.DefaultRegistry(), icegrid.NewAreaCache(fetch))

	log.WithFields(log.Fields{
		"dataset": dataset,
		"files":   len(paths),
		"workers": workers,
	}).Info("preprocessing granules")

	results, err := icegrid.PreprocessFiles(ctx, c, reader, paths, workers)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("icegridutil: creating output directory: %v", err)
	}
	for _, r := range results {
		out := filepath.Join(outputDir, canonicalFileName(r))
		w, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("icegridutil: creating %s: %v", out, err)
		}
		if err := r.Write(w); err != nil {
			w.Close()
			return fmt.Errorf("icegridutil: writing %s: %v", out, err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("icegridutil: writing %s: %v", out, err)
		}
		log.WithFields(log.Fields{
			"file":   out,
			"sensor": r.Sensor,
			"time":   r.Time,
		}).Info("wrote canonical file")
	}
	return nil
}

// granuleReader chooses the reader for the named product family.
func granuleReader(dataset string, msgChan chan string) (icegrid.GranuleReader, error) {
	switch dataset {
	case icegrid.DatasetNSIDC0051:
		return icegrid.NewNSIDC0051(msgChan), nil
	case icegrid.DatasetSeaIceCDR:
		return icegrid.NewSeaIceCDR(msgChan), nil
	case icegrid.DatasetPolarAPPx:
		return icegrid.NewPolarAPPx(msgChan), nil
	default:
		return nil, fmt.Errorf("icegridutil: unknown dataset %q; valid options are %q, %q, and %q",
			dataset, icegrid.DatasetNSIDC0051, icegrid.DatasetSeaIceCDR, icegrid.DatasetPolarAPPx)
	}
}

// stageInputs expands glob patterns among the input file specifiers and
// downloads remote inputs to local temporary files.
func stageInputs(ctx context.Context, files []string, msgChan chan string) ([]string, error) {
	var paths []string
	for _, f := range files {
		if !strings.ContainsAny(f, "*?[") {
			local, err := maybeDownload(ctx, f, msgChan)
			if err != nil {
				return nil, err
			}
			paths = append(paths, local)
			continue
		}
		matches, err := filepath.Glob(f)
		if err != nil {
			return nil, fmt.Errorf("icegridutil: bad file pattern %q: %v", f, err)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

// canonicalFileName names an output file after its dataset, sensor,
// observation time, and grid.
func canonicalFileName(c *icegrid.CanonicalFile) string {
	return fmt.Sprintf("%s_%s_%s_%s.nc", c.DatasetID, c.Sensor, c.Time.UTC().Format("20060102T1504"), c.GridID)
}
