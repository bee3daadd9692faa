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
	"os"
	"testing"

	"github.com/ctessum/cdf"
)

// nanEqual reports whether two values are equal, treating NaN as equal
// to NaN.
func nanEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}

// granuleVar is one variable to be written to a test granule file.
type granuleVar struct {
	name  string
	attrs map[string]interface{}
	data  []float64
}

// writeTestGranule writes a minimal NetCDF granule at path with a
// degenerate time dimension and the given [ny, nx] variables, encoded
// as the given sample element type (e.g. int16(0) or float64(0)).
func writeTestGranule(t *testing.T, path string, ny, nx int, sample interface{}, globalAttrs map[string]interface{}, vars ...granuleVar) {
	t.Helper()
	h := cdf.NewHeader([]string{"tdim", "y", "x"}, []int{1, ny, nx})
	for name, val := range globalAttrs {
		h.AddAttribute("", name, val)
	}
	for _, v := range vars {
		switch sample.(type) {
		case int16:
			h.AddVariable(v.name, []string{"tdim", "y", "x"}, []int16{0})
		case float64:
			h.AddVariable(v.name, []string{"tdim", "y", "x"}, []float64{0})
		default:
			t.Fatalf("unsupported sample type %T", sample)
		}
		for name, val := range v.attrs {
			h.AddAttribute(v.name, name, val)
		}
	}
	h.Define()

	w, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	f, err := cdf.Create(w, h)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range vars {
		if len(v.data) != ny*nx {
			t.Fatalf("variable %s: %d elements for a %d x %d grid", v.name, len(v.data), ny, nx)
		}
		end := f.Header.Lengths(v.name)
		start := make([]int, len(end))
		wr := f.Writer(v.name, start, end)
		switch sample.(type) {
		case int16:
			buf := make([]int16, len(v.data))
			for i, e := range v.data {
				buf[i] = int16(e)
			}
			if _, err := wr.Write(buf); err != nil {
				t.Fatal(err)
			}
		case float64:
			buf := make([]float64, len(v.data))
			copy(buf, v.data)
			if _, err := wr.Write(buf); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := cdf.UpdateNumRecs(w); err != nil {
		t.Fatal(err)
	}
}

// gridData returns an ny*nx array filled with fill, with the values in
// cells placed at the flattened indices given by their keys.
func gridData(ny, nx int, fill float64, cells map[int]float64) []float64 {
	data := make([]float64, ny*nx)
	for i := range data {
		data[i] = fill
	}
	for i, v := range cells {
		data[i] = v
	}
	return data
}
