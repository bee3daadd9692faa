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

	"github.com/ctessum/sparse"
)

// FlagCategory names one non-physical condition that a source product
// multiplexes into its measurement variable as a sentinel code.
type FlagCategory string

// The flag categories shared by all supported products. Canonical
// output holds one boolean mask variable per category.
const (
	FlagLand      FlagCategory = "land"
	FlagCoastline FlagCategory = "coastline"
	FlagPoleHole  FlagCategory = "pole_hole"
	FlagMissing   FlagCategory = "missing"
)

// Categories lists the flag categories in canonical variable order.
var Categories = []FlagCategory{FlagPoleHole, FlagLand, FlagCoastline, FlagMissing}

// FlagCode pairs one sentinel value, in the raw pre-scale encoding,
// with its category.
type FlagCode struct {
	Value    float64
	Category FlagCategory
}

// FlagTable is an ordered list of sentinel codes for one dataset
// version. Sentinel values must be disjoint from the valid measurement
// range. Where several codes share a category, the first listed code
// stands in when re-encoding a mask that does not record which code
// occurred.
type FlagTable []FlagCode

// category returns the category for a raw sentinel value.
func (t FlagTable) category(raw float64) (FlagCategory, bool) {
	for _, c := range t {
		if c.Value == raw {
			return c.Category, true
		}
	}
	return "", false
}

// code returns the re-encoding sentinel value for a category.
func (t FlagTable) code(cat FlagCategory) (float64, bool) {
	for _, c := range t {
		if c.Category == cat {
			return c.Value, true
		}
	}
	return 0, false
}

// Mask is a boolean grid aligned element-by-element with a measurement
// array.
type Mask struct {
	Shape    []int
	Elements []bool

	// codes holds the raw sentinel that produced each set element, so
	// re-encoding can reproduce it even when several codes share the
	// mask's category. It is nil for masks not produced by Decode.
	codes []float64
}

func newMask(shape []int) *Mask {
	n := 1
	for _, d := range shape {
		n *= d
	}
	s := make([]int, len(shape))
	copy(s, shape)
	return &Mask{Shape: s, Elements: make([]bool, n)}
}

// Any reports whether any element of the mask is set.
func (m *Mask) Any() bool {
	for _, v := range m.Elements {
		if v {
			return true
		}
	}
	return false
}

// Decode separates the sentinel codes embedded in a raw measurement
// array from the genuine physical values. It returns the measurement in
// scaled units, with NaN at every flagged cell, and one boolean mask
// per category in the spec's flag table, true where that category's
// sentinel occurred. Each mask records which sentinel produced each of
// its cells, so Reencode reconstructs the raw array exactly even where
// several codes share one category. Sentinel comparison is by exact
// equality on the
// raw pre-scale encoding, so unit conversion rounding cannot
// misclassify a cell. A raw value outside both the valid range and the
// registered sentinel codes produces an UnrecognizedSentinelError.
// The input array is never modified.
func Decode(raw *sparse.DenseArray, spec *VarSpec) (*sparse.DenseArray, map[FlagCategory]*Mask, error) {
	out := sparse.ZerosDense(raw.Shape...)
	masks := make(map[FlagCategory]*Mask)
	for _, c := range spec.Flags {
		if _, ok := masks[c.Category]; !ok {
			masks[c.Category] = newMask(raw.Shape)
		}
	}
	for i, v := range raw.Elements {
		if spec.ValidMin <= v && v <= spec.ValidMax {
			out.Elements[i] = v*spec.Scale + spec.Offset
			continue
		}
		cat, ok := spec.Flags.category(v)
		if !ok {
			return nil, nil, &UnrecognizedSentinelError{Variable: spec.VarName, Value: v, Index: i}
		}
		m := masks[cat]
		m.Elements[i] = true
		if m.codes == nil {
			m.codes = make([]float64, len(raw.Elements))
		}
		m.codes[i] = v
		out.Elements[i] = math.NaN()
	}
	return out, masks, nil
}

// Reencode applies sentinel codes back onto a decoded measurement,
// reconstructing the raw array. For masks produced by Decode the
// recorded per-cell sentinel is restored, making Reencode the exact
// inverse of Decode; masks built by hand fall back on the first listed
// code for their category. It exists to make the decode step
// verifiable.
func Reencode(measurement *sparse.DenseArray, masks map[FlagCategory]*Mask, spec *VarSpec) *sparse.DenseArray {
	out := sparse.ZerosDense(measurement.Shape...)
	for i, v := range measurement.Elements {
		flagged := false
		for cat, m := range masks {
			if !m.Elements[i] {
				continue
			}
			if m.codes != nil {
				out.Elements[i] = m.codes[i]
				flagged = true
			} else if code, ok := spec.Flags.code(cat); ok {
				out.Elements[i] = code
				flagged = true
			}
			break
		}
		if !flagged {
			out.Elements[i] = (v - spec.Offset) / spec.Scale
		}
	}
	return out
}
