package dashboard

import (
	"io"

	"github.com/gocarina/gocsv"

	"github.com/ricelens/paddy-ndvi-dashboard/internal/domain"
)

// csvRow is the export schema: one row per observation, dates in YYYY-MM-DD.
// Column names match the chart's data frame, with the source scene appended
// for provenance.
type csvRow struct {
	Date    string  `csv:"date"`
	NDVI    float64 `csv:"NDVI"`
	SceneID string  `csv:"scene_id"`
}

// WriteCSV streams the series as CSV. An empty series writes the header only.
func WriteCSV(w io.Writer, series domain.TimeSeries) error {
	rows := make([]csvRow, len(series.Observations))
	for i, o := range series.Observations {
		rows[i] = csvRow{
			Date:    o.Date.Format(domain.DateFormat),
			NDVI:    o.NDVI,
			SceneID: o.SceneID,
		}
	}
	return gocsv.Marshal(&rows, w)
}
