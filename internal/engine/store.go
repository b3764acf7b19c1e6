package engine

import (
	"errors"
	"sort"

	"ucdp/internal/models"
)

// ErrEmptyDataset is returned by YearRange when no record is loaded.
var ErrEmptyDataset = errors.New("dataset is empty")

// noValue is the dictionary ID of a null country or region.
const noValue int32 = -1

// Dataset holds conflict records in Struct-of-Arrays format. It is never
// mutated after construction, so a single instance can be shared by any
// number of readers.
type Dataset struct {
	// Data Columns (Flat Arrays)
	years      []int32
	stateBased []int64
	nonState   []int64
	oneSided   []int64
	cumulative []int64

	// Dictionary Encoded IDs (0..N, noValue for null)
	countryIDs []int32
	regionIDs  []int32

	// Dictionaries (ID -> String), shared between a dataset and its subsets
	countryDict []string
	regionDict  []string

	dropped int
}

func (ds *Dataset) Len() int { return len(ds.years) }

func (ds *Dataset) Empty() bool { return len(ds.years) == 0 }

// Dropped is the number of source rows discarded because their year could not
// be parsed.
func (ds *Dataset) Dropped() int { return ds.dropped }

func (ds *Dataset) Record(i int) models.ConflictRecord {
	return models.ConflictRecord{
		Year:       int(ds.years[i]),
		Country:    lookup(ds.countryDict, ds.countryIDs[i]),
		Region:     lookup(ds.regionDict, ds.regionIDs[i]),
		StateBased: ds.stateBased[i],
		NonState:   ds.nonState[i],
		OneSided:   ds.oneSided[i],
		Cumulative: ds.cumulative[i],
	}
}

func (ds *Dataset) Records() []models.ConflictRecord {
	out := make([]models.ConflictRecord, ds.Len())
	for i := range out {
		out[i] = ds.Record(i)
	}
	return out
}

func (ds *Dataset) deaths(vt models.ViolenceType, i int) int64 {
	switch vt {
	case models.StateBased:
		return ds.stateBased[i]
	case models.NonState:
		return ds.nonState[i]
	case models.OneSided:
		return ds.oneSided[i]
	case models.Cumulative:
		return ds.cumulative[i]
	}
	return 0
}

// YearRange returns the smallest and largest year present.
func (ds *Dataset) YearRange() (int, int, error) {
	if ds.Empty() {
		return 0, 0, ErrEmptyDataset
	}
	lo, hi := ds.years[0], ds.years[0]
	for _, y := range ds.years[1:] {
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	return int(lo), int(hi), nil
}

// Regions returns the sorted, de-duplicated, non-null region labels.
func (ds *Dataset) Regions() []string {
	return distinct(ds.regionDict, ds.regionIDs, nil)
}

// Countries returns the sorted, de-duplicated, non-null country labels.
func (ds *Dataset) Countries() []string {
	return distinct(ds.countryDict, ds.countryIDs, nil)
}

// CountriesByRegion returns the countries recorded under region. An empty
// region is the full country list.
func (ds *Dataset) CountriesByRegion(region string) []string {
	if region == "" {
		return ds.Countries()
	}
	rid, ok := ds.regionID(region)
	if !ok {
		return []string{}
	}
	return distinct(ds.countryDict, ds.countryIDs, func(i int) bool { return ds.regionIDs[i] == rid })
}

func (ds *Dataset) regionID(region string) (int32, bool) {
	for id, name := range ds.regionDict {
		if name == region {
			return int32(id), true
		}
	}
	return noValue, false
}

func (ds *Dataset) countryID(country string) (int32, bool) {
	for id, name := range ds.countryDict {
		if name == country {
			return int32(id), true
		}
	}
	return noValue, false
}

// subset copies the rows at idx into a new Dataset sharing the dictionaries.
func (ds *Dataset) subset(idx []int) *Dataset {
	out := &Dataset{
		years:       make([]int32, len(idx)),
		stateBased:  make([]int64, len(idx)),
		nonState:    make([]int64, len(idx)),
		oneSided:    make([]int64, len(idx)),
		cumulative:  make([]int64, len(idx)),
		countryIDs:  make([]int32, len(idx)),
		regionIDs:   make([]int32, len(idx)),
		countryDict: ds.countryDict,
		regionDict:  ds.regionDict,
	}
	for k, i := range idx {
		out.years[k] = ds.years[i]
		out.stateBased[k] = ds.stateBased[i]
		out.nonState[k] = ds.nonState[i]
		out.oneSided[k] = ds.oneSided[i]
		out.cumulative[k] = ds.cumulative[i]
		out.countryIDs[k] = ds.countryIDs[i]
		out.regionIDs[k] = ds.regionIDs[i]
	}
	return out
}

func lookup(dict []string, id int32) string {
	if id == noValue {
		return ""
	}
	return dict[id]
}

func distinct(dict []string, ids []int32, keep func(int) bool) []string {
	seen := make(map[int32]bool)
	out := make([]string, 0)
	for i, id := range ids {
		if id == noValue || seen[id] {
			continue
		}
		if keep != nil && !keep(i) {
			continue
		}
		seen[id] = true
		out = append(out, dict[id])
	}
	sort.Strings(out)
	return out
}
