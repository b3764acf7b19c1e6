package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Format int

const (
	FormatCSV Format = iota
	FormatXLSX
	FormatXLS
)

// FormatFor picks the decoder from the file extension. Unknown extensions are
// read as CSV.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX
	case ".xls":
		return FormatXLS
	}
	return FormatCSV
}

// --- 1. SCHEMA ---

// Accepted header names per column, UCDP name first.
var (
	yearColumn       = []string{"year_cy", "year"}
	countryColumn    = []string{"country_cy", "country"}
	regionColumn     = []string{"region_cy", "region"}
	stateBasedColumn = []string{"sb_total_deaths_best_cy", "state_based_deaths"}
	nonStateColumn   = []string{"ns_total_deaths_best_cy", "non_state_deaths"}
	oneSidedColumn   = []string{"os_total_deaths_best_cy", "one_sided_deaths"}
	cumulativeColumn = []string{"cumulative_total_deaths_in_orgvio_best_cy", "cumulative_deaths"}
)

// columnIndex maps each known column to its header position, -1 when absent.
type columnIndex struct {
	year       int
	country    int
	region     int
	stateBased int
	nonState   int
	oneSided   int
	cumulative int
}

func resolveColumns(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}
	find := func(names []string) int {
		for _, n := range names {
			if i, ok := pos[n]; ok {
				return i
			}
		}
		return -1
	}

	cols := columnIndex{
		year:       find(yearColumn),
		country:    find(countryColumn),
		region:     find(regionColumn),
		stateBased: find(stateBasedColumn),
		nonState:   find(nonStateColumn),
		oneSided:   find(oneSidedColumn),
		cumulative: find(cumulativeColumn),
	}
	if cols.year < 0 {
		return cols, &SchemaError{Missing: yearColumn[0], Header: header}
	}
	return cols, nil
}

// --- 2. LENIENT PARSERS ---

// Plausible year bounds; rows outside them are dropped like unparseable ones.
const (
	minYear = 1900
	maxYear = 2100
)

// parseYear accepts integers and integral floats ("2001.0") within
// [minYear, maxYear].
func parseYear(s string) (int32, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return inYearRange(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < minYear || f > maxYear {
		return 0, false
	}
	return int32(f), true
}

func inYearRange(n int64) (int32, bool) {
	if n < minYear || n > maxYear {
		return 0, false
	}
	return int32(n), true
}

// parseDeaths reads a count, truncating fractions and clamping negatives to
// zero. ok is false for blank or non-numeric input.
func parseDeaths(s string) (n int64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return max(n, 0), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f <= 0 {
		return 0, true
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64, true
	}
	return int64(f), true
}

// --- 3. BUILDER ---

type builder struct {
	cols columnIndex
	ds   *Dataset
	cMap map[string]int32
	rMap map[string]int32
}

func newBuilder(header []string) (*builder, error) {
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}
	return &builder{
		cols: cols,
		ds:   &Dataset{},
		cMap: make(map[string]int32),
		rMap: make(map[string]int32),
	}, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func intern(m map[string]int32, dict *[]string, s string) int32 {
	s = strings.TrimSpace(s)
	if s == "" {
		return noValue
	}
	if id, ok := m[s]; ok {
		return id
	}
	id := int32(len(*dict))
	*dict = append(*dict, s)
	m[s] = id
	return id
}

func (b *builder) add(row []string) {
	year, ok := parseYear(field(row, b.cols.year))
	if !ok {
		b.ds.dropped++
		return
	}

	sb, _ := parseDeaths(field(row, b.cols.stateBased))
	ns, _ := parseDeaths(field(row, b.cols.nonState))
	ones, _ := parseDeaths(field(row, b.cols.oneSided))
	cum, ok := parseDeaths(field(row, b.cols.cumulative))
	if !ok {
		cum = sb + ns + ones
	}

	ds := b.ds
	ds.years = append(ds.years, year)
	ds.stateBased = append(ds.stateBased, sb)
	ds.nonState = append(ds.nonState, ns)
	ds.oneSided = append(ds.oneSided, ones)
	ds.cumulative = append(ds.cumulative, cum)
	ds.countryIDs = append(ds.countryIDs, intern(b.cMap, &ds.countryDict, field(row, b.cols.country)))
	ds.regionIDs = append(ds.regionIDs, intern(b.rMap, &ds.regionDict, field(row, b.cols.region)))
}

// fromRows builds a dataset from a header row followed by data rows.
func fromRows(rows [][]string) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, &SchemaError{Missing: yearColumn[0]}
	}
	b, err := newBuilder(rows[0])
	if err != nil {
		return nil, err
	}
	for _, row := range rows[1:] {
		b.add(row)
	}
	return b.ds, nil
}

// --- 4. ENTRY POINTS ---

// Load reads a CSV stream. Only the year column is mandatory; every other
// known column is optional and backfilled.
func Load(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SchemaError{Missing: yearColumn[0]}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	b, err := newBuilder(append([]string(nil), header...))
	if err != nil {
		return nil, err
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		b.add(row)
	}
	return b.ds, nil
}

// LoadFile reads the dataset at path, choosing the decoder by extension.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := load(f, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, nil
}

func load(r io.Reader, format Format) (*Dataset, error) {
	switch format {
	case FormatXLSX:
		return loadXLSX(r)
	case FormatXLS:
		return loadXLS(r)
	}
	return Load(r)
}
