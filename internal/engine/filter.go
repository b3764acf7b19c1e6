package engine

import (
	"ucdp/internal/models"
)

// Filter returns the records with spec.Start <= year <= spec.End, restricted
// to spec.Region and spec.Countries when those are set. No match yields an
// empty dataset, never an error.
func Filter(ds *Dataset, spec models.FilterSpec) *Dataset {
	if spec.Start > spec.End {
		return ds.subset(nil)
	}

	regionID := noValue
	if spec.Region != "" {
		id, ok := ds.regionID(spec.Region)
		if !ok {
			return ds.subset(nil)
		}
		regionID = id
	}

	var countries map[int32]bool
	if len(spec.Countries) > 0 {
		countries = make(map[int32]bool, len(spec.Countries))
		for _, c := range spec.Countries {
			if id, ok := ds.countryID(c); ok {
				countries[id] = true
			}
		}
		if len(countries) == 0 {
			return ds.subset(nil)
		}
	}

	idx := make([]int, 0, ds.Len())
	for i, y := range ds.years {
		if int(y) < spec.Start || int(y) > spec.End {
			continue
		}
		if regionID != noValue && ds.regionIDs[i] != regionID {
			continue
		}
		if countries != nil && !countries[ds.countryIDs[i]] {
			continue
		}
		idx = append(idx, i)
	}
	return ds.subset(idx)
}

// CleanDeathCounts returns a copy whose death columns are all non-negative.
// Applying it to its own output changes nothing.
func CleanDeathCounts(ds *Dataset) *Dataset {
	idx := make([]int, ds.Len())
	for i := range idx {
		idx[i] = i
	}
	out := ds.subset(idx)
	out.dropped = ds.dropped
	for _, col := range [][]int64{out.stateBased, out.nonState, out.oneSided, out.cumulative} {
		for i, v := range col {
			if v < 0 {
				col[i] = 0
			}
		}
	}
	return out
}

// Query is Filter followed by CleanDeathCounts, the sequence every chart
// starts from.
func Query(ds *Dataset, spec models.FilterSpec) *Dataset {
	return CleanDeathCounts(Filter(ds, spec))
}

// where keeps the rows for which keep returns true.
func where(ds *Dataset, keep func(i int) bool) *Dataset {
	idx := make([]int, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	out := ds.subset(idx)
	out.dropped = ds.dropped
	return out
}
