package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	xlsx "github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workbook(t *testing.T, rows ...[]interface{}) *xlsx.File {
	t.Helper()
	wb := xlsx.NewFile()
	for i, row := range rows {
		cell, err := xlsx.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &row))
	}
	return wb
}

func TestLoadXLSX(t *testing.T) {
	wb := workbook(t,
		[]interface{}{"year_cy", "country_cy", "region_cy", "sb_total_deaths_best_cy"},
		[]interface{}{2001, "Sudan", "Africa", 250},
		[]interface{}{"n/a", "Sudan", "Africa", 1},
		[]interface{}{2002, "Sudan", "Africa", "x"},
	)
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)

	ds, err := loadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, 1, ds.Dropped())
	assert.Equal(t, int64(250), ds.Record(0).StateBased)
	assert.Equal(t, int64(0), ds.Record(1).StateBased)
	assert.Equal(t, []string{"Africa"}, ds.Regions())
}

func TestLoadFileXLSX(t *testing.T) {
	wb := workbook(t,
		[]interface{}{"year", "country"},
		[]interface{}{1995, "Bosnia-Herzegovina"},
	)
	path := filepath.Join(t.TempDir(), "ucdp.xlsx")
	require.NoError(t, wb.SaveAs(path))

	ds, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "Bosnia-Herzegovina", ds.Record(0).Country)
}

func TestLoadXLSXMissingYear(t *testing.T) {
	wb := workbook(t, []interface{}{"country"}, []interface{}{"Peru"})
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)

	_, err = loadXLSX(buf)
	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

// testdata/conflicts.xls is a BIFF8 workbook whose sheet has no row 2, a row
// with gaps in columns C and E, and a row with a text year.
func TestLoadXLS(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "conflicts.xls"))
	require.NoError(t, err)
	defer f.Close()

	ds, err := loadXLS(f)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, 1, ds.Dropped())

	first := ds.Record(0)
	assert.Equal(t, 2001, first.Year)
	assert.Equal(t, "Sudan", first.Country)
	assert.Equal(t, "Africa", first.Region)
	assert.Equal(t, int64(250), first.StateBased)
	assert.Equal(t, int64(3), first.NonState)
	assert.Equal(t, int64(253), first.Cumulative)

	gaps := ds.Record(1)
	assert.Equal(t, 2002, gaps.Year)
	assert.Empty(t, gaps.Region)
	assert.Equal(t, int64(40), gaps.StateBased)
	assert.Zero(t, gaps.NonState)
	assert.Equal(t, int64(7), gaps.OneSided)

	assert.Equal(t, []string{"Africa"}, ds.Regions())
}

func TestLoadFileXLS(t *testing.T) {
	ds, err := LoadFile(filepath.Join("testdata", "conflicts.xls"))
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
}

func TestLoadCorruptSpreadsheets(t *testing.T) {
	_, err := loadXLSX(strings.NewReader("not a zip"))
	assert.Error(t, err)

	_, err = loadXLS(strings.NewReader("not an ole container"))
	assert.Error(t, err)

	_, err = loadXLS(bytes.NewReader(bytes.Repeat([]byte{0xff}, 1024)))
	assert.ErrorContains(t, err, "open xls")
}
