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
	"time"

	"github.com/ctessum/sparse"
)

var (
	// appxFileRE matches NOAA Polar APPx granule names such as
	// "Polar-APP-X_v02r00_Nhem_1400_d20190702_c20190915.nc":
	// hemisphere, observation hour+minute, and date.
	appxFileRE = regexp.MustCompile(`Polar-APP-X_v\d{2}r\d{2}_([NS])hem_(\d{2})(\d{2})_d(\d{8})`)

	// appxIDRE extracts the observation hour and minute from the "id"
	// global attribute when the file name carries no timestamp. The
	// stored time coordinates are all midnight and would collide when
	// the 0400 and 1400 observations of one day are stacked.
	appxIDRE = regexp.MustCompile(`hem_(\d{2})(\d{2})_d(\d{8})`)
)

// appxVarName is the APPx variable supported by the built-in registry.
const appxVarName = "cdr_surface_albedo"

// PolarAPPx reads granules of the NOAA Polar APPx extended AVHRR Polar
// Pathfinder product on the 25 km EASE grid. The source files name
// their horizontal dimensions "columns" and "rows" with the meanings
// swapped (columns run up-down); the reader maps the leading dimension
// to y and the trailing dimension to x, which corrects the mistake
// without moving data.
type PolarAPPx struct {
	msgChan chan string
}

// NewPolarAPPx initializes a Polar APPx granule reader. If msgChan is
// not nil, status messages will be sent to it.
func NewPolarAPPx(msgChan chan string) *PolarAPPx {
	return &PolarAPPx{msgChan: msgChan}
}

// DatasetID helps fulfill the GranuleReader interface.
func (d *PolarAPPx) DatasetID() string { return DatasetPolarAPPx }

// Read reads the granule at path. The observation time is recovered
// from the file name, or failing that from the "id" global attribute;
// the date-only time coordinate stored in the file is not trusted
// because it carries a one-day day-of-year offset and no observation
// hour.
func (d *PolarAPPx) Read(path string) (*RawGridFile, error) {
	f, ff, err := openNCF(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hemisphere, t, err := appxObservationTime(filepath.Base(path), attrString(ff, "", "id"))
	if err != nil {
		return nil, fmt.Errorf("icegrid: %v: %s", err, path)
	}
	if hemisphere != "N" {
		return nil, fmt.Errorf("icegrid: unsupported Polar APPx hemisphere %q in %s", hemisphere, path)
	}

	data, _, err := readRawNCF(ff, appxVarName)
	if err != nil {
		return nil, err
	}
	vars := map[string]*sparse.DenseArray{appxVarName: data}
	if err := checkGridShape(GridEASEN25, vars); err != nil {
		return nil, err
	}

	if d.msgChan != nil {
		d.msgChan <- fmt.Sprintf("Read %s", path)
	}
	return &RawGridFile{
		DatasetID: DatasetPolarAPPx,
		GridID:    GridEASEN25,
		Meta: FileMeta{
			Path:   path,
			Sensor: "avhrr",
			Time:   t,
		},
		Vars: vars,
	}, nil
}

// appxObservationTime reconstructs the hemisphere and full observation
// timestamp from a granule file name, falling back on the "id" global
// attribute.
func appxObservationTime(base, id string) (string, time.Time, error) {
	if m := appxFileRE.FindStringSubmatch(base); m != nil {
		t, err := time.Parse("20060102 1504", m[4]+" "+m[2]+m[3])
		if err != nil {
			return "", time.Time{}, err
		}
		return m[1], t, nil
	}
	if m := appxIDRE.FindStringSubmatch(id); m != nil {
		t, err := time.Parse("20060102 1504", m[3]+" "+m[1]+m[2])
		if err != nil {
			return "", time.Time{}, err
		}
		// The id attribute does not name the hemisphere; northern is
		// the only one this reader supports.
		return "N", t, nil
	}
	return "", time.Time{}, fmt.Errorf("cannot determine Polar APPx observation time")
}
