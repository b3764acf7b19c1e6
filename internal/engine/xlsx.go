package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	xlsx "github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/anrid/xls"
)

// loadXLSX reads the first sheet of a workbook.
func loadXLSX(r io.Reader) (*Dataset, error) {
	wb, err := xlsx.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, &SchemaError{Missing: yearColumn[0]}
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows)
}

// loadXLS reads the first sheet of a legacy BIFF workbook.
func loadXLS(r io.Reader) (*Dataset, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read xls: %w", err)
		}
		rs = bytes.NewReader(raw)
	}

	wb, err := xls.OpenReader(rs, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	// OpenReader returns no workbook and no error when the OLE container
	// lacks a Workbook stream.
	if wb == nil {
		return nil, errors.New("open xls: no workbook stream")
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, &SchemaError{Missing: yearColumn[0]}
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		var cols []string
		for j := 0; j <= row.LastCol(); j++ {
			cols = append(cols, row.Col(j))
		}
		rows = append(rows, cols)
	}
	return fromRows(rows)
}
