package deals

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TimeTextLayout formats the x-axis label of a chart point.
const TimeTextLayout = "Jan 2006"

// BuildChartPoints turns the WON and LOST stage groups into a single time-ascending
// series. Stages missing from the result contribute no points. Rows without a month
// bucket are rejected; rows without a sum count as zero.
func BuildChartPoints(stages []DealStage, loc *time.Location) ([]ChartPoint, error) {
	if loc == nil {
		loc = time.UTC
	}
	won, err := stagePoints(findStage(stages, StageWon), loc)
	if err != nil {
		return nil, err
	}
	lost, err := stagePoints(findStage(stages, StageLost), loc)
	if err != nil {
		return nil, err
	}

	points := make([]ChartPoint, 0, len(won)+len(lost))
	points = append(points, won...)
	points = append(points, lost...)
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].TimeUnix < points[j].TimeUnix
	})
	return points, nil
}

// FilterByRange keeps the points inside [start, end] when both ends are set.
// Ordering is preserved.
func FilterByRange(points []ChartPoint, r DateRange) []ChartPoint {
	if !r.Complete() {
		return points
	}
	start := r.Start.Unix()
	end := r.End.Unix()
	filtered := make([]ChartPoint, 0, len(points))
	for _, point := range points {
		if point.TimeUnix >= start && point.TimeUnix <= end {
			filtered = append(filtered, point)
		}
	}
	return filtered
}

func findStage(stages []DealStage, title string) *DealStage {
	for i := range stages {
		if stages[i].Title == title {
			return &stages[i]
		}
	}
	return nil
}

func stagePoints(stage *DealStage, loc *time.Location) ([]ChartPoint, error) {
	if stage == nil {
		return nil, nil
	}
	state := StateLabel(stage.Title)
	points := make([]ChartPoint, 0, len(stage.DealsAggregate))
	for i, row := range stage.DealsAggregate {
		month, err := rowMonth(row, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: stage %s row %d: %v", ErrMalformedRow, stage.Title, i, err)
		}
		value := 0.0
		if row.Sum != nil {
			value = row.Sum.Value
		}
		points = append(points, ChartPoint{
			TimeUnix: month.Unix(),
			TimeText: month.Format(TimeTextLayout),
			Value:    value,
			State:    state,
		})
	}
	return points, nil
}

func rowMonth(row DealAggregateRow, loc *time.Location) (time.Time, error) {
	if row.GroupBy == nil {
		return time.Time{}, fmt.Errorf("groupBy missing")
	}
	year, month := row.GroupBy.CloseDateYear, row.GroupBy.CloseDateMonth
	if year <= 0 {
		return time.Time{}, fmt.Errorf("year %d out of range", year)
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month %d out of range", month)
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc), nil
}

// StateLabel maps a stage title such as "WON" to its series label "Won".
func StateLabel(title string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(title)))
}
