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
	"os"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// openNCF opens a NetCDF file for reading. The caller is responsible
// for closing the returned *os.File.
func openNCF(path string) (*os.File, *cdf.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	ff, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, ff, nil
}

// readRawNCF reads the complete contents of a NetCDF variable without
// applying any scale or offset, so sentinel codes keep their exact raw
// encoding. Leading length-1 dimensions (a degenerate time dimension)
// are squeezed out. It returns the data and the names of the remaining
// dimensions.
func readRawNCF(ff *cdf.File, varName string) (*sparse.DenseArray, []string, error) {
	dims := ff.Header.Lengths(varName)
	if len(dims) == 0 {
		return nil, nil, fmt.Errorf("icegrid: read netcdf: variable %v not in file", varName)
	}
	dimNames := ff.Header.Dimensions(varName)
	for len(dims) > 1 && dims[0] == 1 {
		dims = dims[1:]
		dimNames = dimNames[1:]
	}

	n := 1
	for _, d := range dims {
		n *= d
	}
	r := ff.Reader(varName, nil, nil)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, nil, fmt.Errorf("icegrid: read netcdf variable %s: %v", varName, err)
	}
	data := sparse.ZerosDense(dims...)
	switch b := buf.(type) {
	case []uint8:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []int16:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []int32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []float32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []float64:
		copy(data.Elements, b)
	default:
		return nil, nil, fmt.Errorf("icegrid: read netcdf variable %s: unsupported type %T", varName, buf)
	}
	return data, dimNames, nil
}

// hasAttr reports whether the given variable ("" for global) carries
// the named attribute.
func hasAttr(ff *cdf.File, varName, attr string) bool {
	for _, a := range ff.Header.Attributes(varName) {
		if a == attr {
			return true
		}
	}
	return false
}

// attrString returns a string attribute, or "" when it is absent.
func attrString(ff *cdf.File, varName, attr string) string {
	if !hasAttr(ff, varName, attr) {
		return ""
	}
	if s, ok := ff.Header.GetAttribute(varName, attr).(string); ok {
		return s
	}
	return ""
}

// maskVarName returns the canonical output variable name for a flag
// category, for example "pole_hole_mask".
func maskVarName(cat FlagCategory) string {
	return string(cat) + "_mask"
}

// writeNCF writes a float array to NetCDF variable Var in f, converting
// to float32.
func writeNCF(f *cdf.File, Var string, data *sparse.DenseArray) error {
	n := 1
	for _, v := range data.Shape {
		n *= v
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}
	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(Var)
	start := make([]int, len(end))
	w := f.Writer(Var, start, end)
	_, err := w.Write(data32)
	return err
}

// writeNCFMask writes a boolean mask to NetCDF variable Var in f as
// bytes, 1 where set.
func writeNCFMask(f *cdf.File, Var string, m *Mask) error {
	data := make([]uint8, len(m.Elements))
	for i, v := range m.Elements {
		if v {
			data[i] = 1
		}
	}
	end := f.Header.Lengths(Var)
	start := make([]int, len(end))
	w := f.Writer(Var, start, end)
	_, err := w.Write(data)
	return err
}

// Write writes the canonical file to w as NetCDF. The variable layout
// is identical for every file of a dataset family: sea ice
// concentration, one byte mask per flag category, the cell-area field,
// and the time coordinate, all on the canonical time/y/x dimensions.
func (c *CanonicalFile) Write(w *os.File) error {
	g, err := GetGrid(c.GridID)
	if err != nil {
		return fmt.Errorf("icegrid: writing canonical file: %w", err)
	}
	if _, err := g.SR(); err != nil {
		return err
	}
	x, y := c.X, c.Y
	if x == nil || y == nil {
		x, y = g.Coordinates()
	}
	ny, nx := c.SIC.Shape[0], c.SIC.Shape[1]
	if len(x) != nx || len(y) != ny {
		return fmt.Errorf("icegrid: writing canonical file: coordinates are %d x %d but data is %d x %d",
			len(x), len(y), nx, ny)
	}
	h := cdf.NewHeader(
		[]string{DimTime, DimY, DimX},
		[]int{1, ny, nx})
	h.AddAttribute("", "comment", "icegrid canonical sea ice concentration file")
	h.AddAttribute("", "dataset", c.DatasetID)
	h.AddAttribute("", "grid", c.GridID)
	h.AddAttribute("", "proj4", g.Proj)
	h.AddAttribute("", "sensor", c.Sensor)
	h.AddAttribute("", "data_version", DataVersion)

	h.AddVariable(DimTime, []string{DimTime}, []float64{0})
	h.AddAttribute(DimTime, "units", "seconds since 1970-01-01 00:00:00 UTC")

	h.AddVariable(DimY, []string{DimY}, []float64{0})
	h.AddAttribute(DimY, "long_name", "y coordinate of projection")
	h.AddAttribute(DimY, "units", "m")

	h.AddVariable(DimX, []string{DimX}, []float64{0})
	h.AddAttribute(DimX, "long_name", "x coordinate of projection")
	h.AddAttribute(DimX, "units", "m")

	h.AddVariable(VarConcentration, []string{DimTime, DimY, DimX}, []float32{0})
	h.AddAttribute(VarConcentration, "long_name", "sea ice concentration")
	h.AddAttribute(VarConcentration, "units", c.Units)
	h.AddAttribute(VarConcentration, "valid_range", []float64{c.ValidRange[0], c.ValidRange[1]})

	for _, cat := range Categories {
		name := maskVarName(cat)
		h.AddVariable(name, []string{DimTime, DimY, DimX}, []uint8{0})
		h.AddAttribute(name, "long_name", string(cat)+" mask")
		h.AddAttribute(name, "flag_values", []uint8{0, 1})
		h.AddAttribute(name, "flag_meanings", "valid "+string(cat))
	}

	h.AddVariable(VarCellArea, []string{DimY, DimX}, []float32{0})
	h.AddAttribute(VarCellArea, "long_name", "grid cell area")
	h.AddAttribute(VarCellArea, "units", "m2")

	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return err
	}
	{
		wr := f.Writer(DimTime, []int{0}, []int{1})
		if _, err := wr.Write([]float64{float64(c.Time.UTC().Unix())}); err != nil {
			return fmt.Errorf("icegrid: writing time to netcdf file: %v", err)
		}
	}
	{
		wr := f.Writer(DimY, []int{0}, []int{ny})
		if _, err := wr.Write(y); err != nil {
			return fmt.Errorf("icegrid: writing variable %s to netcdf file: %v", DimY, err)
		}
	}
	{
		wr := f.Writer(DimX, []int{0}, []int{nx})
		if _, err := wr.Write(x); err != nil {
			return fmt.Errorf("icegrid: writing variable %s to netcdf file: %v", DimX, err)
		}
	}
	if err := writeNCF(f, VarConcentration, c.SIC); err != nil {
		return fmt.Errorf("icegrid: writing variable %s to netcdf file: %v", VarConcentration, err)
	}
	for _, cat := range Categories {
		m, ok := c.Masks[cat]
		if !ok {
			m = newMask(c.SIC.Shape)
		}
		if err := writeNCFMask(f, maskVarName(cat), m); err != nil {
			return fmt.Errorf("icegrid: writing variable %s to netcdf file: %v", maskVarName(cat), err)
		}
	}
	if err := writeNCF(f, VarCellArea, c.CellArea); err != nil {
		return fmt.Errorf("icegrid: writing variable %s to netcdf file: %v", VarCellArea, err)
	}
	return cdf.UpdateNumRecs(w)
}

// LoadCanonical reads a canonical file previously written by
// CanonicalFile.Write, verifying the schema version.
func LoadCanonical(r cdf.ReaderWriterAt) (*CanonicalFile, error) {
	f, err := cdf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("icegrid.LoadCanonical: %v", err)
	}
	dataVersion := attrString(f, "", "data_version")
	if dataVersion != DataVersion {
		return nil, fmt.Errorf("icegrid.LoadCanonical: data version %s is incompatible with the required version %s",
			dataVersion, DataVersion)
	}
	o := &CanonicalFile{
		DatasetID: attrString(f, "", "dataset"),
		GridID:    attrString(f, "", "grid"),
		Sensor:    attrString(f, "", "sensor"),
		Masks:     make(map[FlagCategory]*Mask),
		Units:     attrString(f, VarConcentration, "units"),
	}

	tdata, _, err := readRawNCF(f, DimTime)
	if err != nil {
		return nil, fmt.Errorf("icegrid.LoadCanonical: %v", err)
	}
	o.Time = time.Unix(int64(tdata.Elements[0]), 0).UTC()

	ydata, _, err := readRawNCF(f, DimY)
	if err != nil {
		return nil, fmt.Errorf("icegrid.LoadCanonical: %v", err)
	}
	o.Y = ydata.Elements
	xdata, _, err := readRawNCF(f, DimX)
	if err != nil {
		return nil, fmt.Errorf("icegrid.LoadCanonical: %v", err)
	}
	o.X = xdata.Elements

	if vr, ok := f.Header.GetAttribute(VarConcentration, "valid_range").([]float64); ok && len(vr) == 2 {
		o.ValidRange = [2]float64{vr[0], vr[1]}
	}

	o.SIC, _, err = readRawNCF(f, VarConcentration)
	if err != nil {
		return nil, fmt.Errorf("icegrid.LoadCanonical: %v", err)
	}
	for _, cat := range Categories {
		data, _, err := readRawNCF(f, maskVarName(cat))
		if err != nil {
			return nil, fmt.Errorf("icegrid.LoadCanonical: %v", err)
		}
		m := newMask(data.Shape)
		for i, v := range data.Elements {
			m.Elements[i] = v != 0
		}
		o.Masks[cat] = m
	}
	o.CellArea, _, err = readRawNCF(f, VarCellArea)
	if err != nil {
		return nil, fmt.Errorf("icegrid.LoadCanonical: %v", err)
	}
	return o, nil
}
