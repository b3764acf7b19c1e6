package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureCSV = `year_cy,country_cy,region_cy,sb_total_deaths_best_cy,ns_total_deaths_best_cy,os_total_deaths_best_cy
2000,Syria,Middle East,10,0,0
2000,Iraq,Middle East,1250,5,5
2000,Mali,Africa,3,0,1
2001,Syria,Middle East,100,10,0
2001,Iraq,Middle East,20,0,0
2002,Mali,Africa,9,1,0
`

func runExplore(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("UCDP_DATA_PATH", "")
	t.Setenv("UCDP_LISTEN_ADDR", "")
	t.Setenv("UCDP_VERBOSE", "")

	path := filepath.Join(t.TempDir(), "organizedviolencecy_v25_1.csv")
	require.NoError(t, os.WriteFile(path, []byte(fixtureCSV), 0o644))

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--data", path}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestYearsAndListings(t *testing.T) {
	out, err := runExplore(t, "years")
	require.NoError(t, err)
	assert.Contains(t, out, " MIN  | MAX  | DEFAULT START | DEFAULT END \n")
	assert.Contains(t, out, " 2000 | 2002 | 2000          | 2002        \n")
	assert.NotContains(t, out, "\x1b[", "no styling outside a terminal")

	out, err = runExplore(t, "regions")
	require.NoError(t, err)
	assert.Equal(t, "Africa\nMiddle East\n", out)

	out, err = runExplore(t, "countries", "--region", "Middle East")
	require.NoError(t, err)
	assert.Equal(t, "Iraq\nSyria\n", out)
}

func TestTrend(t *testing.T) {
	out, err := runExplore(t, "trend", "--type", "sb")
	require.NoError(t, err)
	assert.Contains(t, out, "State-based")
	assert.Contains(t, out, "1,263", "numbers are grouped")
	assert.Contains(t, out, "2001")
	assert.NotContains(t, out, "2,001", "years are not grouped")

	_, err = runExplore(t, "trend", "--type", "bogus")
	assert.ErrorContains(t, err, "unknown violence type")
}

func TestTopAndRace(t *testing.T) {
	out, err := runExplore(t, "top", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Iraq")
	assert.NotContains(t, out, "Syria")

	_, err = runExplore(t, "top", "--mode", "per_year")
	assert.ErrorContains(t, err, "unknown flag: --mode")

	out, err = runExplore(t, "race", "-n", "2", "--steps", "2", "--start", "2000", "--end", "2001")
	require.NoError(t, err)
	assert.Contains(t, out, "countries: [Iraq Syria]")
	assert.Contains(t, out, "2000.50")
}

func TestComparisons(t *testing.T) {
	out, err := runExplore(t, "compare-regions", "Africa")
	require.NoError(t, err)
	assert.Contains(t, out, "Africa")
	assert.NotContains(t, out, "Middle East")

	out, err = runExplore(t, "compare-countries", "Middle East", "--type", "ns")
	require.NoError(t, err)
	assert.Contains(t, out, "Non-state deaths")
	assert.Contains(t, out, "Syria")

	_, err = runExplore(t, "compare-countries")
	assert.Error(t, err)
}

func TestMissingDataset(t *testing.T) {
	t.Setenv("UCDP_DATA_PATH", "")
	t.Setenv("UCDP_VERBOSE", "")
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--data", filepath.Join(t.TempDir(), "missing.csv"), "regions"})
	err := root.Execute()
	assert.ErrorContains(t, err, "failed to load dataset")
}
