package engine

import (
	"fmt"
	"sort"
	"strings"

	"ucdp/internal/models"
)

const (
	DefaultTopN         = 10
	DefaultStepsPerYear = 4

	// MaxStepsPerYear bounds the frame count, which grows as years x steps x series.
	MaxStepsPerYear = 60
)

// TopNMode selects how a bar race roster is chosen.
type TopNMode int

const (
	// TopNStable ranks countries once over the whole range so the roster
	// and its vertical order stay fixed across frames.
	TopNStable TopNMode = iota
	// TopNPerYear ranks every year on its own; the roster can change
	// between frames.
	TopNPerYear
)

func (m TopNMode) String() string {
	if m == TopNPerYear {
		return "per_year"
	}
	return "stable"
}

func ParseTopNMode(s string) (TopNMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stable", "range":
		return TopNStable, nil
	case "per_year", "per-year", "yearly":
		return TopNPerYear, nil
	}
	return TopNStable, fmt.Errorf("unknown top-n mode %q", s)
}

// --- 1. LONG FORM ---

// Melt turns the three per-type columns into one row per record and type.
func Melt(ds *Dataset) []models.MeltedRow {
	out := make([]models.MeltedRow, 0, ds.Len()*len(models.ConflictTypes))
	for i := 0; i < ds.Len(); i++ {
		year := int(ds.years[i])
		country := lookup(ds.countryDict, ds.countryIDs[i])
		for _, vt := range models.ConflictTypes {
			out = append(out, models.MeltedRow{
				Year:         year,
				Country:      country,
				ConflictType: vt.Label(),
				Deaths:       ds.deaths(vt, i),
			})
		}
	}
	return out
}

// --- 2. TOP-N ---

type TopNResult struct {
	// Countries is the roster, highest ranked first.
	Countries []string
	Rows      []models.MeltedRow
}

// rankCountries sums deaths per country and sorts descending. Ties keep the
// order in which countries first appear in rows.
func rankCountries(rows []models.MeltedRow) []models.EntityTotal {
	pos := make(map[string]int)
	var sums []models.EntityTotal
	for _, r := range rows {
		if r.Country == "" {
			continue
		}
		i, ok := pos[r.Country]
		if !ok {
			i = len(sums)
			pos[r.Country] = i
			sums = append(sums, models.EntityTotal{Key: r.Country})
		}
		sums[i].Deaths += r.Deaths
	}
	sort.SliceStable(sums, func(a, b int) bool { return sums[a].Deaths > sums[b].Deaths })
	return sums
}

// TopN keeps the rows of the n highest ranked countries. n <= 0 means
// DefaultTopN; n is capped by the number of distinct countries.
func TopN(rows []models.MeltedRow, n int, mode TopNMode) TopNResult {
	if n <= 0 {
		n = DefaultTopN
	}
	ranked := rankCountries(rows)
	n = min(n, len(ranked))
	if n == 0 {
		return TopNResult{Countries: []string{}, Rows: []models.MeltedRow{}}
	}
	if mode == TopNPerYear {
		return topPerYear(rows, n)
	}

	keep := make(map[string]bool, n)
	roster := make([]string, n)
	for i, e := range ranked[:n] {
		keep[e.Key] = true
		roster[i] = e.Key
	}
	out := make([]models.MeltedRow, 0, len(rows))
	for _, r := range rows {
		if keep[r.Country] {
			out = append(out, r)
		}
	}
	return TopNResult{Countries: roster, Rows: out}
}

func topPerYear(rows []models.MeltedRow, n int) TopNResult {
	byYear := make(map[int][]models.MeltedRow)
	for _, r := range rows {
		byYear[r.Year] = append(byYear[r.Year], r)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	type yearCountry struct {
		year    int
		country string
	}
	keep := make(map[yearCountry]bool)
	seen := make(map[string]bool)
	roster := []string{}
	for _, y := range years {
		ranked := rankCountries(byYear[y])
		for _, e := range ranked[:min(n, len(ranked))] {
			keep[yearCountry{y, e.Key}] = true
			if !seen[e.Key] {
				seen[e.Key] = true
				roster = append(roster, e.Key)
			}
		}
	}

	out := make([]models.MeltedRow, 0, len(rows))
	for _, r := range rows {
		if keep[yearCountry{r.Year, r.Country}] {
			out = append(out, r)
		}
	}
	return TopNResult{Countries: roster, Rows: out}
}

// --- 3. FRACTIONAL FRAMES ---

// FrameMarkers returns y + k/steps for every y in [lo, hi) and k in
// [0, steps), followed by hi. steps is clamped to MaxStepsPerYear.
func FrameMarkers(lo, hi, steps int) []float64 {
	if steps <= 0 {
		steps = DefaultStepsPerYear
	}
	steps = min(steps, MaxStepsPerYear)
	if hi < lo {
		return []float64{}
	}
	out := make([]float64, 0, (hi-lo)*steps+1)
	for y := lo; y < hi; y++ {
		for k := 0; k < steps; k++ {
			out = append(out, float64(y)+float64(k)/float64(steps))
		}
	}
	return append(out, float64(hi))
}

// Interpolate pivots rows to (country, type) x year, zero-filling the years
// present, and linearly interpolates every series at the frame markers.
// Frames outside the known years take the nearest known value. Output is
// ordered by frame, then by first appearance of each (country, type) series.
func Interpolate(rows []models.MeltedRow, stepsPerYear int) []models.FrameRow {
	if len(rows) == 0 {
		return []models.FrameRow{}
	}

	type seriesKey struct {
		country string
		ctype   string
	}
	var keys []seriesKey
	values := make(map[seriesKey]map[int]float64)
	yearSet := make(map[int]bool)
	for _, r := range rows {
		k := seriesKey{r.Country, r.ConflictType}
		if _, ok := values[k]; !ok {
			values[k] = make(map[int]float64)
			keys = append(keys, k)
		}
		values[k][r.Year] += float64(r.Deaths)
		yearSet[r.Year] = true
	}
	known := make([]int, 0, len(yearSet))
	for y := range yearSet {
		known = append(known, y)
	}
	sort.Ints(known)

	frames := FrameMarkers(known[0], known[len(known)-1], stepsPerYear)
	out := make([]models.FrameRow, 0, len(frames)*len(keys))
	j := 0
	for _, f := range frames {
		for j+1 < len(known) && float64(known[j+1]) <= f {
			j++
		}
		for _, k := range keys {
			out = append(out, models.FrameRow{
				Frame:        f,
				Country:      k.country,
				ConflictType: k.ctype,
				Deaths:       valueAt(known, values[k], j, f),
			})
		}
	}
	return out
}

// valueAt interpolates between known[j] and known[j+1]; missing years read as
// zero.
func valueAt(known []int, vals map[int]float64, j int, f float64) float64 {
	lo := float64(known[j])
	if f <= lo || j+1 >= len(known) {
		return vals[known[j]]
	}
	hi := float64(known[j+1])
	a, b := vals[known[j]], vals[known[j+1]]
	return a + (f-lo)/(hi-lo)*(b-a)
}

// --- 4. GROUPED SUMS ---

// TotalsByYear sums one violence type per year. Every year between the
// subset's first and last year is reported, zero when absent.
func TotalsByYear(ds *Dataset, vt models.ViolenceType) []models.YearTotal {
	lo, hi, err := ds.YearRange()
	if err != nil {
		return []models.YearTotal{}
	}
	out := make([]models.YearTotal, hi-lo+1)
	for i := range out {
		out[i].Year = lo + i
	}
	for i, y := range ds.years {
		out[int(y)-lo].Deaths += ds.deaths(vt, i)
	}
	return out
}

// SumMelted sums long-form deaths per year over all conflict types.
func SumMelted(rows []models.MeltedRow) []models.YearTotal {
	if len(rows) == 0 {
		return []models.YearTotal{}
	}
	lo, hi := rows[0].Year, rows[0].Year
	for _, r := range rows {
		lo, hi = min(lo, r.Year), max(hi, r.Year)
	}
	out := make([]models.YearTotal, hi-lo+1)
	for i := range out {
		out[i].Year = lo + i
	}
	for _, r := range rows {
		out[r.Year-lo].Deaths += r.Deaths
	}
	return out
}

// TotalsByYearCountry sums one type per (year, country) over the full grid of
// years and countries present; missing cells are zero.
func TotalsByYearCountry(ds *Dataset, vt models.ViolenceType) []models.SeriesPoint {
	return seriesBy(ds, vt, ds.countryIDs, ds.countryDict)
}

// TotalsByYearRegion is TotalsByYearCountry keyed by region.
func TotalsByYearRegion(ds *Dataset, vt models.ViolenceType) []models.SeriesPoint {
	return seriesBy(ds, vt, ds.regionIDs, ds.regionDict)
}

func seriesBy(ds *Dataset, vt models.ViolenceType, ids []int32, dict []string) []models.SeriesPoint {
	type cell struct {
		year int
		key  string
	}
	sums := make(map[cell]int64)
	yearSet := make(map[int]bool)
	keySet := make(map[string]bool)
	for i, id := range ids {
		if id == noValue {
			continue
		}
		c := cell{int(ds.years[i]), dict[id]}
		sums[c] += ds.deaths(vt, i)
		yearSet[c.year] = true
		keySet[c.key] = true
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.SeriesPoint, 0, len(years)*len(keys))
	for _, y := range years {
		for _, k := range keys {
			out = append(out, models.SeriesPoint{Year: y, Key: k, Deaths: sums[cell{y, k}]})
		}
	}
	return out
}

// TotalsByCountry sums one type per country over the whole subset, highest
// first, ties by name.
func TotalsByCountry(ds *Dataset, vt models.ViolenceType) []models.EntityTotal {
	return totalsBy(ds, vt, ds.countryIDs, ds.countryDict)
}

func TotalsByRegion(ds *Dataset, vt models.ViolenceType) []models.EntityTotal {
	return totalsBy(ds, vt, ds.regionIDs, ds.regionDict)
}

func totalsBy(ds *Dataset, vt models.ViolenceType, ids []int32, dict []string) []models.EntityTotal {
	sums := make(map[string]int64)
	for i, id := range ids {
		if id == noValue {
			continue
		}
		sums[dict[id]] += ds.deaths(vt, i)
	}
	return sortTotals(sums)
}

func sortTotals(sums map[string]int64) []models.EntityTotal {
	out := make([]models.EntityTotal, 0, len(sums))
	for k, v := range sums {
		out = append(out, models.EntityTotal{Key: k, Deaths: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Deaths != out[j].Deaths {
			return out[i].Deaths > out[j].Deaths
		}
		return out[i].Key < out[j].Key
	})
	return out
}
