package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/odyssey-erp/odyssey-crm/internal/deals"
)

// WriteChartPointsCSV emits the chart points, one row per month and state.
func WriteChartPointsCSV(w io.Writer, points []deals.ChartPoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Month", "State", "Value", "Formatted"}); err != nil {
		return err
	}
	for _, point := range points {
		if err := writer.Write([]string{
			point.TimeText,
			point.State,
			formatFloat(point.Value),
			deals.FormatThousands(point.Value),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
