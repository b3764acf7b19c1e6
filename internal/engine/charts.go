package engine

import (
	"sort"

	"ucdp/internal/models"
)

const (
	// DefaultRegionTopN is how many countries a regional comparison shows
	// when none are picked.
	DefaultRegionTopN = 5
	// DefaultCompareRegions is how many regions are compared when none are
	// picked.
	DefaultCompareRegions = 2
)

// BuildTrend is the per-year series of one violence type.
func BuildTrend(ds *Dataset, spec models.FilterSpec, vt models.ViolenceType) models.Trend {
	sub := Query(ds, spec)
	return models.Trend{
		Type:   vt.Key(),
		Label:  vt.Label(),
		Series: TotalsByYear(sub, vt),
	}
}

type RaceOptions struct {
	TopN int
	Mode TopNMode
	// StepsPerYear of 1 disables interpolation; <= 0 means the default.
	// Values above MaxStepsPerYear are clamped.
	StepsPerYear int
}

// BuildBarRace melts the selection, keeps the top countries and, unless
// StepsPerYear is 1, interpolates fractional frames between years.
func BuildBarRace(ds *Dataset, spec models.FilterSpec, opts RaceOptions) models.BarRace {
	steps := opts.StepsPerYear
	if steps <= 0 {
		steps = DefaultStepsPerYear
	}
	steps = min(steps, MaxStepsPerYear)

	melted := Melt(Query(ds, spec))
	top := TopN(melted, opts.TopN, opts.Mode)
	race := models.BarRace{
		Mode:         opts.Mode.String(),
		StepsPerYear: steps,
		Countries:    top.Countries,
		AxisMax:      axisMax(melted),
	}
	if steps == 1 {
		race.Rows = top.Rows
		return race
	}
	race.Frames = Interpolate(inRosterOrder(top.Rows, top.Countries), steps)
	return race
}

// axisMax is the largest (year, country) total across all conflict types.
func axisMax(rows []models.MeltedRow) int64 {
	type cell struct {
		year    int
		country string
	}
	sums := make(map[cell]int64)
	var best int64
	for _, r := range rows {
		c := cell{r.Year, r.Country}
		sums[c] += r.Deaths
		best = max(best, sums[c])
	}
	return best
}

func inRosterOrder(rows []models.MeltedRow, roster []string) []models.MeltedRow {
	rank := make(map[string]int, len(roster))
	for i, c := range roster {
		rank[c] = i
	}
	out := append([]models.MeltedRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return rank[out[i].Country] < rank[out[j].Country] })
	return out
}

// BuildCountryComparison compares countries of spec.Region. Without
// spec.Countries the top countries of the region by total deaths are used.
func BuildCountryComparison(ds *Dataset, spec models.FilterSpec, vt models.ViolenceType, defaultTop int) models.Comparison {
	sub := Query(ds, spec)

	countries := spec.Countries
	if len(countries) == 0 {
		if defaultTop <= 0 {
			defaultTop = DefaultRegionTopN
		}
		ranked := rankCountries(Melt(sub))
		countries = make([]string, 0, defaultTop)
		for _, e := range ranked[:min(defaultTop, len(ranked))] {
			countries = append(countries, e.Key)
		}
	}

	chosen := Filter(sub, models.FilterSpec{Start: spec.Start, End: spec.End, Countries: countries})
	return models.Comparison{
		Type:     vt.Key(),
		Label:    vt.Label(),
		Scope:    spec.Region,
		Entities: countries,
		Series:   TotalsByYearCountry(chosen, vt),
		Totals:   TotalsByCountry(chosen, vt),
	}
}

// BuildRegionComparison compares regions over the year range of spec. An
// empty regions list selects the first DefaultCompareRegions regions.
func BuildRegionComparison(ds *Dataset, spec models.FilterSpec, vt models.ViolenceType, regions []string) models.Comparison {
	if len(regions) == 0 {
		all := ds.Regions()
		regions = all[:min(DefaultCompareRegions, len(all))]
	}

	sub := Query(ds, models.FilterSpec{Start: spec.Start, End: spec.End})
	keep := make(map[int32]bool, len(regions))
	for _, r := range regions {
		if id, ok := sub.regionID(r); ok {
			keep[id] = true
		}
	}
	chosen := where(sub, func(i int) bool { return keep[sub.regionIDs[i]] })

	return models.Comparison{
		Type:     vt.Key(),
		Label:    vt.Label(),
		Entities: regions,
		Series:   TotalsByYearRegion(chosen, vt),
		Totals:   TotalsByRegion(chosen, vt),
	}
}

// BuildMapFrames projects the selection to (year, country, deaths) for a
// choropleth animated by year. Rows without a country are skipped.
func BuildMapFrames(ds *Dataset, spec models.FilterSpec, vt models.ViolenceType) []models.MapFrame {
	sub := Query(ds, spec)
	out := make([]models.MapFrame, 0, sub.Len())
	for i := 0; i < sub.Len(); i++ {
		if sub.countryIDs[i] == noValue {
			continue
		}
		out = append(out, models.MapFrame{
			Year:    int(sub.years[i]),
			Country: sub.countryDict[sub.countryIDs[i]],
			Deaths:  sub.deaths(vt, i),
		})
	}
	return out
}
