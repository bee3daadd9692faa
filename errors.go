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
	"strings"
	"time"
)

// UnsupportedVersionError reports that no variable specification is
// registered for a dataset and sensor/algorithm epoch combination.
// Resolution never guesses; an unmatched combination is always fatal
// to the file being preprocessed.
type UnsupportedVersionError struct {
	DatasetID string
	Platform  string
	Time      time.Time
}

func (e *UnsupportedVersionError) Error() string {
	s := fmt.Sprintf("icegrid: no variable specification for dataset %q", e.DatasetID)
	if e.Platform != "" {
		s += fmt.Sprintf(", platform %q", e.Platform)
	}
	if !e.Time.IsZero() {
		s += fmt.Sprintf(", time %v", e.Time.Format("2006-01-02"))
	}
	return s
}

// AmbiguousVariableError reports that more than one registered variable
// specification plausibly matches a granule and the available metadata
// cannot disambiguate between them.
type AmbiguousVariableError struct {
	DatasetID  string
	Candidates []string
}

func (e *AmbiguousVariableError) Error() string {
	return fmt.Sprintf("icegrid: more than one candidate measurement variable for dataset %q: %s",
		e.DatasetID, strings.Join(e.Candidates, ", "))
}

// UnrecognizedSentinelError reports a raw value that is outside the valid
// measurement range but does not exactly equal any registered sentinel
// code. Such values are never silently clamped; a misclassified cell
// would corrupt downstream extent and area aggregation.
type UnrecognizedSentinelError struct {
	Variable string
	Value    float64
	Index    int
}

func (e *UnrecognizedSentinelError) Error() string {
	return fmt.Sprintf("icegrid: variable %s: value %g at element %d is outside the valid range but matches no registered sentinel code",
		e.Variable, e.Value, e.Index)
}

// UnknownGridError reports a request for an ancillary field on a grid
// that has not been registered.
type UnknownGridError struct {
	GridID string
}

func (e *UnknownGridError) Error() string {
	return fmt.Sprintf("icegrid: unknown grid %q", e.GridID)
}
