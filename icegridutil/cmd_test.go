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
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/lnashier/viper"

	"github.com/nsidc/icegrid"
)

func TestVersionCmd(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	Root.SetOutput(buf)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), icegrid.Version) {
		t.Errorf("output %q does not contain the version %s", buf.String(), icegrid.Version)
	}
}

func TestGetStringMapString(t *testing.T) {
	cfg := viper.New()

	cfg.Set("a", map[string]string{"psn25": "area_n.nc"})
	got, err := GetStringMapString("a", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got["psn25"] != "area_n.nc" {
		t.Errorf("map value: got %v", got)
	}

	cfg.Set("b", map[string]interface{}{"pss25": "area_s.nc"})
	got, err = GetStringMapString("b", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got["pss25"] != "area_s.nc" {
		t.Errorf("interface map value: got %v", got)
	}

	cfg.Set("c", `{"psn25": "area_n.nc"}`)
	got, err = GetStringMapString("c", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got["psn25"] != "area_n.nc" {
		t.Errorf("JSON string value: got %v", got)
	}

	cfg.Set("d", "not json")
	if _, err := GetStringMapString("d", cfg); err == nil {
		t.Error("expected an error for an unparsable value")
	}
}

func TestGranuleReader(t *testing.T) {
	for _, dataset := range []string{
		icegrid.DatasetNSIDC0051, icegrid.DatasetSeaIceCDR, icegrid.DatasetPolarAPPx,
	} {
		r, err := granuleReader(dataset, nil)
		if err != nil {
			t.Fatal(err)
		}
		if r.DatasetID() != dataset {
			t.Errorf("got reader for %s, want %s", r.DatasetID(), dataset)
		}
	}
	if _, err := granuleReader("modis", nil); err == nil {
		t.Error("expected an error for an unknown dataset")
	}
}

func TestExpandStringSlice(t *testing.T) {
	os.Setenv("ICEGRID_TEST_DIR", "/data")
	defer os.Unsetenv("ICEGRID_TEST_DIR")
	got := expandStringSlice([]string{"$ICEGRID_TEST_DIR/nt_20120801_f17_v1.1_n.nc"})
	if got[0] != "/data/nt_20120801_f17_v1.1_n.nc" {
		t.Errorf("got %q", got[0])
	}
}

func TestCanonicalFileName(t *testing.T) {
	c := &icegrid.CanonicalFile{
		DatasetID: icegrid.DatasetNSIDC0051,
		GridID:    icegrid.GridPSN25,
		Sensor:    "f17",
		Time:      time.Date(2012, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	if got, want := canonicalFileName(c), "nsidc0051_f17_20120801T0000_psn25.nc"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
