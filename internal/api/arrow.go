package api

import (
	"net/http"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/labstack/echo/v4"

	"ucdp/internal/models"
)

const MIMEArrowStream = "application/vnd.apache.arrow.stream"

// column appends row i of a payload to its builder.
type column struct {
	field  arrow.Field
	append func(b array.Builder, i int)
}

func int64Col(name string, v func(i int) int64) column {
	return column{
		field:  arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Int64},
		append: func(b array.Builder, i int) { b.(*array.Int64Builder).Append(v(i)) },
	}
}

func float64Col(name string, v func(i int) float64) column {
	return column{
		field:  arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64},
		append: func(b array.Builder, i int) { b.(*array.Float64Builder).Append(v(i)) },
	}
}

// stringCol writes empty strings as nulls.
func stringCol(name string, v func(i int) string) column {
	return column{
		field: arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true},
		append: func(b array.Builder, i int) {
			sb := b.(*array.StringBuilder)
			if s := v(i); s != "" {
				sb.Append(s)
			} else {
				sb.AppendNull()
			}
		},
	}
}

// writeArrow streams n rows as a single-batch Arrow IPC stream.
func writeArrow(c echo.Context, n int, cols ...column) error {
	fields := make([]arrow.Field, len(cols))
	for i, col := range cols {
		fields[i] = col.field
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()
	b.Reserve(n)
	for i := 0; i < n; i++ {
		for j, col := range cols {
			col.append(b.Field(j), i)
		}
	}
	rec := b.NewRecord()
	defer rec.Release()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, MIMEArrowStream)
	resp.WriteHeader(http.StatusOK)

	w := ipc.NewWriter(resp, ipc.WithSchema(schema), ipc.WithAllocator(memory.DefaultAllocator))
	if err := w.Write(rec); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func recordsArrow(c echo.Context, rows []models.ConflictRecord) error {
	return writeArrow(c, len(rows),
		int64Col("year", func(i int) int64 { return int64(rows[i].Year) }),
		stringCol("country", func(i int) string { return rows[i].Country }),
		stringCol("region", func(i int) string { return rows[i].Region }),
		int64Col("state_based_deaths", func(i int) int64 { return rows[i].StateBased }),
		int64Col("non_state_deaths", func(i int) int64 { return rows[i].NonState }),
		int64Col("one_sided_deaths", func(i int) int64 { return rows[i].OneSided }),
		int64Col("cumulative_deaths", func(i int) int64 { return rows[i].Cumulative }),
	)
}

func yearTotalsArrow(c echo.Context, rows []models.YearTotal) error {
	return writeArrow(c, len(rows),
		int64Col("year", func(i int) int64 { return int64(rows[i].Year) }),
		int64Col("deaths", func(i int) int64 { return rows[i].Deaths }),
	)
}

func meltedArrow(c echo.Context, rows []models.MeltedRow) error {
	return writeArrow(c, len(rows),
		int64Col("year", func(i int) int64 { return int64(rows[i].Year) }),
		stringCol("country", func(i int) string { return rows[i].Country }),
		stringCol("conflict_type", func(i int) string { return rows[i].ConflictType }),
		int64Col("deaths", func(i int) int64 { return rows[i].Deaths }),
	)
}

func framesArrow(c echo.Context, rows []models.FrameRow) error {
	return writeArrow(c, len(rows),
		float64Col("frame", func(i int) float64 { return rows[i].Frame }),
		stringCol("country", func(i int) string { return rows[i].Country }),
		stringCol("conflict_type", func(i int) string { return rows[i].ConflictType }),
		float64Col("deaths", func(i int) float64 { return rows[i].Deaths }),
	)
}

func seriesArrow(c echo.Context, rows []models.SeriesPoint) error {
	return writeArrow(c, len(rows),
		int64Col("year", func(i int) int64 { return int64(rows[i].Year) }),
		stringCol("key", func(i int) string { return rows[i].Key }),
		int64Col("deaths", func(i int) int64 { return rows[i].Deaths }),
	)
}

func mapFramesArrow(c echo.Context, rows []models.MapFrame) error {
	return writeArrow(c, len(rows),
		int64Col("year", func(i int) int64 { return int64(rows[i].Year) }),
		stringCol("country", func(i int) string { return rows[i].Country }),
		int64Col("deaths", func(i int) int64 { return rows[i].Deaths }),
	)
}
