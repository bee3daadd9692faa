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

	"github.com/ctessum/requestcache"
	"github.com/ctessum/sparse"
)

// An AreaFetcher retrieves the static grid-cell-area field [m2] for a
// grid identifier. Fetchers belong to the external retrieval
// collaborator: any retry or timeout behavior is theirs, not the
// cache's. A fetcher must return an array matching the grid's
// [ny, nx] shape.
type AreaFetcher func(ctx context.Context, gridID string) (*sparse.DenseArray, error)

// AreaCache attaches static grid-cell-area fields to datasets, loading
// each grid's field lazily on first request and sharing it read-only
// across all subsequent requests. Concurrent first-touches for the same
// grid converge to a single underlying fetch.
type AreaCache struct {
	cache *requestcache.Cache
}

// NewAreaCache creates a cache that loads cell-area fields using fetch.
func NewAreaCache(fetch AreaFetcher) *AreaCache {
	process := func(ctx context.Context, request interface{}) (interface{}, error) {
		return fetch(ctx, request.(string))
	}
	// Deduplication merges simultaneous first-touches for one grid into
	// one in-flight request; the memory cache keeps loaded grids for
	// the life of the process.
	return &AreaCache{
		cache: requestcache.NewCache(process, 1,
			requestcache.Deduplicate(), requestcache.Memory(20)),
	}
}

// CellArea returns the cell-area field [m2] for the given grid. The
// returned array is shared by every caller and must not be modified.
func (c *AreaCache) CellArea(ctx context.Context, gridID string) (*sparse.DenseArray, error) {
	req := c.cache.NewRequest(ctx, gridID, gridID)
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	return result.(*sparse.DenseArray), nil
}

// NominalAreaFetcher returns a fetcher that derives the cell-area field
// from the built-in grid definitions. Unregistered grid identifiers
// fail with an UnknownGridError.
func NominalAreaFetcher() AreaFetcher {
	return func(ctx context.Context, gridID string) (*sparse.DenseArray, error) {
		g, err := GetGrid(gridID)
		if err != nil {
			return nil, err
		}
		return g.NominalCellAreas(), nil
	}
}

// FileAreaFetcher returns a fetcher that reads the cell-area variable
// varName from the NetCDF ancillary file registered for each grid, for
// example the NSIDC-0771 published area fields. Grids without a
// registered file fall back to the nominal projected-space areas when
// the grid definition is built in, and fail with an UnknownGridError
// otherwise.
func FileAreaFetcher(paths map[string]string, varName string) AreaFetcher {
	nominal := NominalAreaFetcher()
	return func(ctx context.Context, gridID string) (*sparse.DenseArray, error) {
		path, ok := paths[gridID]
		if !ok {
			return nominal(ctx, gridID)
		}
		f, ff, err := openNCF(path)
		if err != nil {
			return nil, fmt.Errorf("icegrid: while opening cell area file for grid %s: %v", gridID, err)
		}
		defer f.Close()
		area, _, err := readRawNCF(ff, varName)
		if err != nil {
			return nil, fmt.Errorf("icegrid: while reading cell area for grid %s: %v", gridID, err)
		}
		return area, nil
	}
}
