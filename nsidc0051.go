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
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ctessum/sparse"
)

// nsidc0051DateFormat is the granule date format used in NSIDC-0051
// file names.
const nsidc0051DateFormat = "20060102"

// nsidc0051FileRE matches NSIDC-0051 granule file names such as
// "nt_20120801_f17_v1.1_n.nc": date, platform, product version, and
// hemisphere.
var nsidc0051FileRE = regexp.MustCompile(`nt_(\d{8})_([a-z0-9]{3})_v(\d+\.\d+)_([ns])\.nc$`)

// NSIDC0051 reads granules of the NSIDC-0051 gridded sea ice
// concentration product. Each granule holds one or more
// platform-specific "*_ICECON" variables in the raw 0-250 byte
// encoding, with the sentinel codes 251-255 multiplexed in.
type NSIDC0051 struct {
	msgChan chan string
}

// NewNSIDC0051 initializes an NSIDC-0051 granule reader. If msgChan is
// not nil, status messages will be sent to it.
func NewNSIDC0051(msgChan chan string) *NSIDC0051 {
	return &NSIDC0051{msgChan: msgChan}
}

// DatasetID helps fulfill the GranuleReader interface.
func (d *NSIDC0051) DatasetID() string { return DatasetNSIDC0051 }

// Read reads the granule at path. The platform, timestamp, and
// hemisphere are taken from the file name; every ICECON candidate
// variable present in the file is read in its raw encoding so that
// variable resolution can choose among them.
func (d *NSIDC0051) Read(path string) (*RawGridFile, error) {
	m := nsidc0051FileRE.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return nil, fmt.Errorf("icegrid: file name %q does not match the NSIDC-0051 naming convention", filepath.Base(path))
	}
	t, err := time.Parse(nsidc0051DateFormat, m[1])
	if err != nil {
		return nil, fmt.Errorf("icegrid: NSIDC-0051 granule date: %v", err)
	}
	gridID := GridPSN25
	if m[4] == "s" {
		gridID = GridPSS25
	}

	f, ff, err := openNCF(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vars := make(map[string]*sparse.DenseArray)
	for _, v := range ff.Header.Variables() {
		if !strings.Contains(v, "ICECON") {
			continue
		}
		data, _, err := readRawNCF(ff, v)
		if err != nil {
			return nil, err
		}
		vars[v] = data
	}
	if len(vars) == 0 {
		return nil, fmt.Errorf("icegrid: no ICECON variable found in %s", path)
	}
	if err := checkGridShape(gridID, vars); err != nil {
		return nil, err
	}

	if d.msgChan != nil {
		d.msgChan <- fmt.Sprintf("Read %d ICECON variable(s) from %s", len(vars), path)
	}
	return &RawGridFile{
		DatasetID: DatasetNSIDC0051,
		GridID:    gridID,
		Meta: FileMeta{
			Path:     path,
			Platform: m[2],
			Sensor:   m[2],
			Time:     t,
		},
		Vars: vars,
	}, nil
}

// checkGridShape verifies that every variable matches the registered
// grid's [ny, nx] shape.
func checkGridShape(gridID string, vars map[string]*sparse.DenseArray) error {
	g, err := GetGrid(gridID)
	if err != nil {
		return err
	}
	for name, data := range vars {
		if len(data.Shape) != 2 || data.Shape[0] != g.Ny || data.Shape[1] != g.Nx {
			return fmt.Errorf("icegrid: variable %s has shape %v; grid %s requires [%d %d]",
				name, data.Shape, gridID, g.Ny, g.Nx)
		}
	}
	return nil
}
