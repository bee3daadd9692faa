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

// CDR granule file names changed order between reprocessing epochs:
// v3 and earlier put the satellite before the date
// ("seaice_conc_daily_nh_f17_20171231_v03r01.nc") while v4 puts the
// date first ("seaice_conc_daily_nh_20210101_f17_v04r00.nc").
var (
	cdrV3FileRE = regexp.MustCompile(`seaice_conc_daily_([ns])h_([a-z0-9]{3})_(\d{8})_v0[0-3]r\d{2}\.nc$`)
	cdrFileRE   = regexp.MustCompile(`seaice_conc_daily_([ns])h_(\d{8})_([a-z0-9]{3})_v\d{2}r\d{2}\.nc$`)
)

// cdrCandidateVars are the variable names that have held the CDR sea
// ice concentration across reprocessing epochs.
var cdrCandidateVars = []string{"cdr_seaice_conc", "seaice_conc_cdr"}

// SeaIceCDR reads granules of the NOAA/NSIDC Climate Data Record of
// passive microwave sea ice concentration (G02202). The measurement
// variable was renamed between the v3 and v4 reprocessings; both forms
// are read so that variable resolution can choose the registered one.
type SeaIceCDR struct {
	msgChan chan string
}

// NewSeaIceCDR initializes a CDR granule reader. If msgChan is not nil,
// status messages will be sent to it.
func NewSeaIceCDR(msgChan chan string) *SeaIceCDR {
	return &SeaIceCDR{msgChan: msgChan}
}

// DatasetID helps fulfill the GranuleReader interface.
func (d *SeaIceCDR) DatasetID() string { return DatasetSeaIceCDR }

// Read reads the granule at path. The reprocessing epoch is recorded as
// the resolution platform ("cdr-v3" for v3-named granules, empty for
// v4 and later, whose variable name has been stable); the satellite is
// recorded separately as the sensor. The v3 signed flag encoding is
// normalized to the v4 byte codes so the registered flag table applies
// to both epochs.
func (d *SeaIceCDR) Read(path string) (*RawGridFile, error) {
	base := filepath.Base(path)
	var hemisphere, satellite, dateStr, platform string
	if m := cdrV3FileRE.FindStringSubmatch(base); m != nil {
		hemisphere, satellite, dateStr = m[1], m[2], m[3]
		platform = "cdr-v3"
	} else if m := cdrFileRE.FindStringSubmatch(base); m != nil {
		hemisphere, dateStr, satellite = m[1], m[2], m[3]
	} else {
		return nil, fmt.Errorf("icegrid: file name %q does not match the G02202 naming convention", base)
	}
	t, err := time.Parse(nsidc0051DateFormat, dateStr)
	if err != nil {
		return nil, fmt.Errorf("icegrid: G02202 granule date: %v", err)
	}
	gridID := GridPSN25
	if hemisphere == "s" {
		gridID = GridPSS25
	}

	f, ff, err := openNCF(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vars := make(map[string]*sparse.DenseArray)
	for _, name := range cdrCandidateVars {
		if len(ff.Header.Lengths(name)) == 0 {
			continue
		}
		data, _, err := readRawNCF(ff, name)
		if err != nil {
			return nil, err
		}
		if platform == "cdr-v3" {
			normalizeCDRV3Flags(data)
		}
		vars[name] = data
	}
	if len(vars) == 0 {
		return nil, fmt.Errorf("icegrid: no sea ice concentration variable found in %s", path)
	}
	if err := checkGridShape(gridID, vars); err != nil {
		return nil, err
	}

	if d.msgChan != nil {
		d.msgChan <- fmt.Sprintf("Read %s", path)
	}
	return &RawGridFile{
		DatasetID: DatasetSeaIceCDR,
		GridID:    gridID,
		Meta: FileMeta{
			Path:     path,
			Platform: platform,
			Sensor:   satellite,
			Time:     t,
		},
		Vars: vars,
	}, nil
}

// normalizeCDRV3Flags rewrites the v3 signed sentinel codes to the v4
// byte codes in place: -1 missing, -2 land, -3 coastline, -4 lake,
// -5 pole hole. The array has not been shared yet, so this does not
// violate read-only raw data.
func normalizeCDRV3Flags(data *sparse.DenseArray) {
	for i, v := range data.Elements {
		switch v {
		case -1:
			data.Elements[i] = 255
		case -2:
			data.Elements[i] = 254
		case -3:
			data.Elements[i] = 253
		case -4:
			data.Elements[i] = 252
		case -5:
			data.Elements[i] = 251
		}
	}
}
